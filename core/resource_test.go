package core

import (
	"context"
	"testing"
)

func TestResourceTypeNames(t *testing.T) {
	if len(ResourceTypes()) != 12 {
		t.Fatalf("expected 12 resource types, got %d", len(ResourceTypes()))
	}

	for _, rt := range ResourceTypes() {
		parsed, err := ParseResourceType(rt.Name())
		if err != nil || parsed != rt {
			t.Fatalf("resource type %s did not parse back. Err: %v", rt, err)
		}

		parsed, err = ResourceTypeForCollection(rt.Collection())
		if err != nil || parsed != rt {
			t.Fatalf("collection %s did not parse back. Err: %v", rt.Collection(), err)
		}
	}

	if SecurityGroupRule.Name() != "security_group_rule" || SecurityGroupRule.Collection() != "security-group-rules" {
		t.Fatalf("unexpected names for security group rule: %s %s",
			SecurityGroupRule.Name(), SecurityGroupRule.Collection())
	}
}

func TestResourceTypeUnknown(t *testing.T) {
	if _, err := ParseResourceType("loadbalancer"); err == nil {
		t.Fatalf("unknown resource type parsed")
	}

	if _, err := ResourceTypeForCollection("loadbalancers"); err == nil {
		t.Fatalf("unknown collection parsed")
	}

	rt := ResourceType(42)
	if rt.Valid() || rt.Collection() != "" || rt.Name() != "ResourceType(42)" {
		t.Fatalf("invalid resource type reported as %q/%q", rt.Name(), rt.Collection())
	}
}

func TestUserToken(t *testing.T) {
	ctx := context.Background()
	if _, ok := UserToken(ctx); ok {
		t.Fatalf("token found in empty context")
	}

	if _, ok := UserToken(WithUserToken(ctx, "")); ok {
		t.Fatalf("empty token reported as present")
	}

	token, ok := UserToken(WithUserToken(ctx, "abc"))
	if !ok || token != "abc" {
		t.Fatalf("unexpected token %q", token)
	}
}
