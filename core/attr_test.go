package core

import (
	"encoding/json"
	"testing"
)

func TestStripUnspecified(t *testing.T) {
	res := Resource{
		"name":            "net1",
		"admin_state_up":  NotSpecified,
		"shared":          false,
		"description":     "",
		"router:external": nil,
		"tenant_id":       NotSpecified,
	}

	StripUnspecified(res)

	for _, key := range []string{"admin_state_up", "tenant_id"} {
		if _, ok := res[key]; ok {
			t.Fatalf("attribute %s was not stripped: %+v", key, res)
		}
	}

	for _, key := range []string{"name", "shared", "description", "router:external"} {
		if _, ok := res[key]; !ok {
			t.Fatalf("attribute %s was stripped: %+v", key, res)
		}
	}

	if res["router:external"] != nil || res["description"] != "" || res["shared"] != false {
		t.Fatalf("kept attributes were modified: %+v", res)
	}
}

func TestIsNotSpecified(t *testing.T) {
	if !IsNotSpecified(NotSpecified) {
		t.Fatalf("sentinel not recognized")
	}

	for _, v := range []interface{}{nil, "", 0, false, &notSpecified{}, "<not specified>"} {
		if IsNotSpecified(v) {
			t.Fatalf("%#v recognized as the sentinel", v)
		}
	}
}

func TestNotSpecifiedMarshal(t *testing.T) {
	content, err := json.Marshal(Resource{"name": NotSpecified})
	if err != nil {
		t.Fatalf("marshalling failed. Err: %v", err)
	}

	if string(content) != `{"name":null}` {
		t.Fatalf("unexpected json %s", content)
	}
}
