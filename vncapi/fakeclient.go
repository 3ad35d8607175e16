/***
Copyright 2017 Cisco Systems Inc. All rights reserved.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at
http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package vncapi

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/OpenSDN-io/tf-neutron-plugin/core"
	"github.com/google/uuid"
)

// FakeCall records a request made to the FakeClient
type FakeCall struct {
	Op      string
	ObjType string
	UUID    string
	Token   string
}

// FakeClient is an in-memory api server used by unit-tests
type FakeClient struct {
	mu    sync.Mutex
	objs  map[string]map[string]core.Resource
	order map[string][]string
	calls []FakeCall
}

// NewFakeClient returns an empty FakeClient
func NewFakeClient() *FakeClient {
	return &FakeClient{
		objs:  make(map[string]map[string]core.Resource),
		order: make(map[string][]string),
	}
}

func copyResource(obj core.Resource) core.Resource {
	dup := make(core.Resource, len(obj))
	for key, value := range obj {
		dup[key] = value
	}
	return dup
}

func (fc *FakeClient) record(ctx context.Context, op, objType, id string) {
	token, _ := authToken(ctx)
	fc.calls = append(fc.calls, FakeCall{Op: op, ObjType: objType, UUID: id, Token: token})
}

// Calls returns the requests made so far
func (fc *FakeClient) Calls() []FakeCall {
	fc.mu.Lock()
	defer fc.mu.Unlock()

	return append([]FakeCall(nil), fc.calls...)
}

// Create stores obj, assigning it a uuid unless it carries one
func (fc *FakeClient) Create(ctx context.Context, objType string, obj core.Resource) (core.Resource, error) {
	fc.mu.Lock()
	defer fc.mu.Unlock()

	obj = copyResource(obj)
	id, _ := obj["uuid"].(string)
	if id == "" {
		id = uuid.New().String()
		obj["uuid"] = id
	}
	fc.record(ctx, "create", objType, id)

	if _, ok := fc.objs[objType][id]; ok {
		return nil, Conflict(objType, id, fmt.Sprintf("%s %s already exists", objType, id))
	}

	if _, ok := obj["fq_name"]; !ok {
		parent, _ := obj["parent_uuid"].(string)
		name, _ := obj["name"].(string)
		if name == "" {
			name = id
		}
		obj["fq_name"] = []interface{}{"default-domain", parent, name}
	}

	if fc.objs[objType] == nil {
		fc.objs[objType] = make(map[string]core.Resource)
	}
	fc.objs[objType][id] = obj
	fc.order[objType] = append(fc.order[objType], id)

	return core.Resource{"uuid": id, "fq_name": obj["fq_name"]}, nil
}

// Read returns a copy of the object
func (fc *FakeClient) Read(ctx context.Context, objType, id string) (core.Resource, error) {
	fc.mu.Lock()
	defer fc.mu.Unlock()

	fc.record(ctx, "read", objType, id)
	obj, ok := fc.objs[objType][id]
	if !ok {
		return nil, NotFound(objType, id)
	}
	return copyResource(obj), nil
}

// Update merges the attributes of obj into the stored object
func (fc *FakeClient) Update(ctx context.Context, objType, id string, obj core.Resource) error {
	fc.mu.Lock()
	defer fc.mu.Unlock()

	fc.record(ctx, "update", objType, id)
	stored, ok := fc.objs[objType][id]
	if !ok {
		return NotFound(objType, id)
	}
	for key, value := range obj {
		stored[key] = value
	}
	return nil
}

// Delete removes the object
func (fc *FakeClient) Delete(ctx context.Context, objType, id string) error {
	fc.mu.Lock()
	defer fc.mu.Unlock()

	fc.record(ctx, "delete", objType, id)
	if _, ok := fc.objs[objType][id]; !ok {
		return NotFound(objType, id)
	}
	delete(fc.objs[objType], id)

	order := fc.order[objType][:0]
	for _, oid := range fc.order[objType] {
		if oid != id {
			order = append(order, oid)
		}
	}
	fc.order[objType] = order
	return nil
}

func (fc *FakeClient) list(objType string, opts ListOptions) []core.Resource {
	objs := []core.Resource{}
	for _, id := range fc.order[objType] {
		obj := fc.objs[objType][id]
		if opts.ParentID != "" && obj["parent_uuid"] != opts.ParentID {
			continue
		}

		match := true
		for key, value := range opts.Filters {
			if fmt.Sprint(obj[key]) != value {
				match = false
				break
			}
		}
		if match {
			objs = append(objs, copyResource(obj))
		}
	}
	return objs
}

// List returns the objects matching opts in creation order
func (fc *FakeClient) List(ctx context.Context, objType string, opts ListOptions) ([]core.Resource, error) {
	fc.mu.Lock()
	defer fc.mu.Unlock()

	fc.record(ctx, "list", objType, "")
	return fc.list(objType, opts), nil
}

// Count returns the number of objects matching opts
func (fc *FakeClient) Count(ctx context.Context, objType string, opts ListOptions) (int, error) {
	fc.mu.Lock()
	defer fc.mu.Unlock()

	fc.record(ctx, "count", objType, "")
	return len(fc.list(objType, opts)), nil
}

// RefUpdate adds or removes {"uuid": refUUID} in the <ref_type>_refs
// attribute of the object
func (fc *FakeClient) RefUpdate(ctx context.Context, objType, id, refType, refUUID string, op RefOperation) error {
	fc.mu.Lock()
	defer fc.mu.Unlock()

	fc.record(ctx, "ref-update", objType, id)
	obj, ok := fc.objs[objType][id]
	if !ok {
		return NotFound(objType, id)
	}

	field := strings.Replace(refType, "-", "_", -1) + "_refs"
	refs, _ := obj[field].([]interface{})
	kept := []interface{}{}
	for _, ref := range refs {
		if m, ok := ref.(map[string]interface{}); ok && m["uuid"] == refUUID {
			continue
		}
		kept = append(kept, ref)
	}
	if op == RefAdd {
		kept = append(kept, map[string]interface{}{"uuid": refUUID})
	}
	obj[field] = kept

	return nil
}
