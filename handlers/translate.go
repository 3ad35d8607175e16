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

package handlers

import (
	"fmt"
	"strings"

	"github.com/OpenSDN-io/tf-neutron-plugin/core"
	"github.com/google/uuid"
)

type mappingKind int

const (
	// attribute copied as is, the vnc path may be nested ("id_perms.enable")
	attrValue mappingKind = iota
	// single id carried as a one element reference list
	attrRef
	// list of ids carried as a reference list
	attrRefList
)

type fieldMapping struct {
	neutron string
	vnc     string
	kind    mappingKind
}

// vnc attributes that are never handed back to neutron as is
var vncBookkeeping = map[string]bool{
	"uuid":         true,
	"name":         true,
	"display_name": true,
	"fq_name":      true,
	"href":         true,
	"parent_type":  true,
	"parent_uuid":  true,
	"parent_href":  true,
	"id_perms":     true,
	"perms2":       true,
}

func getPath(obj map[string]interface{}, path string) (interface{}, bool) {
	parts := strings.Split(path, ".")
	for _, part := range parts[:len(parts)-1] {
		next, ok := asMap(obj[part])
		if !ok {
			return nil, false
		}
		obj = next
	}

	value, ok := obj[parts[len(parts)-1]]
	return value, ok
}

func setPath(obj map[string]interface{}, path string, value interface{}) {
	parts := strings.Split(path, ".")
	for _, part := range parts[:len(parts)-1] {
		next, ok := asMap(obj[part])
		if !ok {
			next = map[string]interface{}{}
			obj[part] = next
		}
		obj = next
	}
	obj[parts[len(parts)-1]] = value
}

func asMap(v interface{}) (map[string]interface{}, bool) {
	switch m := v.(type) {
	case map[string]interface{}:
		return m, true
	case core.Resource:
		return map[string]interface{}(m), true
	}
	return nil, false
}

func asList(v interface{}) []interface{} {
	switch l := v.(type) {
	case []interface{}:
		return l
	case []string:
		list := make([]interface{}, 0, len(l))
		for _, s := range l {
			list = append(list, s)
		}
		return list
	}
	return nil
}

func refsToIDs(v interface{}) []interface{} {
	ids := []interface{}{}
	for _, ref := range asList(v) {
		if m, ok := asMap(ref); ok {
			if id, ok := m["uuid"].(string); ok {
				ids = append(ids, id)
			}
		}
	}
	return ids
}

func idsToRefs(ids []interface{}) []interface{} {
	refs := make([]interface{}, 0, len(ids))
	for _, id := range ids {
		refs = append(refs, map[string]interface{}{"uuid": fmt.Sprint(id)})
	}
	return refs
}

// projectUUID converts a neutron tenant id to a contrail project uuid
func projectUUID(tenant string) string {
	id, err := uuid.Parse(tenant)
	if err != nil {
		return tenant
	}
	return id.String()
}

// tenantID converts a contrail project uuid to a neutron tenant id
func tenantID(project string) string {
	return strings.Replace(project, "-", "", -1)
}

// toVnc builds the vnc attributes of a neutron resource. Attributes without
// a mapping are passed with the same name.
func (h *Handler) toVnc(res core.Resource) core.Resource {
	obj := core.Resource{}
	mapped := map[string]bool{}

	for _, fm := range h.mappings {
		mapped[fm.neutron] = true
		value, ok := res[fm.neutron]
		if !ok {
			continue
		}

		switch fm.kind {
		case attrRef:
			if value == nil || value == "" {
				obj[fm.vnc] = []interface{}{}
			} else {
				obj[fm.vnc] = idsToRefs([]interface{}{value})
			}
		case attrRefList:
			obj[fm.vnc] = idsToRefs(asList(value))
		default:
			setPath(obj, fm.vnc, value)
		}
	}

	for key, value := range res {
		switch key {
		case "id":
			obj["uuid"] = value
		case "name":
			obj["display_name"] = value
			if name, ok := value.(string); ok && name != "" {
				obj["name"] = name
			}
		case "tenant_id", "project_id":
			tenant, _ := value.(string)
			if tenant == "" {
				continue
			}
			if h.parentType == "project" {
				obj["parent_type"] = "project"
				obj["parent_uuid"] = projectUUID(tenant)
			} else if h.parentTenant != nil {
				setPath(obj, "perms2.owner", projectUUID(tenant))
			}
		default:
			if !mapped[key] {
				obj[key] = value
			}
		}
	}

	return obj
}

// ownerOf returns the project owning a vnc object
func (h *Handler) ownerOf(obj core.Resource) (string, bool) {
	var owner interface{}
	if h.parentType == "project" {
		owner = obj["parent_uuid"]
	} else if h.parentTenant != nil {
		owner, _ = getPath(obj, "perms2.owner")
	}
	project, ok := owner.(string)
	return project, ok
}

// fromVnc builds the neutron representation of a vnc object
func (h *Handler) fromVnc(obj core.Resource) core.Resource {
	res := core.Resource{}
	mapped := map[string]bool{}

	for _, fm := range h.mappings {
		root := strings.Split(fm.vnc, ".")[0]
		mapped[root] = true

		switch fm.kind {
		case attrRef:
			if ids := refsToIDs(obj[fm.vnc]); len(ids) > 0 {
				res[fm.neutron] = ids[0]
			} else if _, ok := obj[fm.vnc]; ok {
				res[fm.neutron] = nil
			}
		case attrRefList:
			if _, ok := obj[fm.vnc]; ok {
				res[fm.neutron] = refsToIDs(obj[fm.vnc])
			}
		default:
			if value, ok := getPath(obj, fm.vnc); ok {
				res[fm.neutron] = value
			}
		}
	}

	for key, value := range obj {
		if !mapped[key] && !vncBookkeeping[key] {
			res[key] = value
		}
	}

	res["id"] = obj["uuid"]
	if name, ok := obj["display_name"]; ok {
		res["name"] = name
	} else {
		res["name"] = obj["name"]
	}

	if owner, ok := h.ownerOf(obj); ok {
		res["tenant_id"] = tenantID(owner)
		res["project_id"] = tenantID(owner)
	}

	if h.opts.ContrailExtensionsEnabled {
		if fqName, ok := obj["fq_name"]; ok {
			res["contrail:fq_name"] = fqName
		}
	}

	return res
}

// projectFields returns res restricted to fields. An empty field list keeps
// all attributes.
func projectFields(res core.Resource, fields []string) core.Resource {
	if len(fields) == 0 {
		return res
	}

	projected := core.Resource{}
	for _, field := range fields {
		if value, ok := res[field]; ok {
			projected[field] = value
		}
	}
	return projected
}

// matchFilters reports whether res matches all filters, a filter matches
// when the attribute equals any of its values
func matchFilters(res core.Resource, filters core.Filters) bool {
	for key, values := range filters {
		if len(values) == 0 {
			continue
		}

		attr, ok := res[key]
		if !ok {
			return false
		}

		found := false
		for _, value := range values {
			if matchValue(attr, value) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func matchValue(attr, value interface{}) bool {
	if list, ok := attr.([]interface{}); ok {
		for _, elem := range list {
			if fmt.Sprint(elem) == fmt.Sprint(value) {
				return true
			}
		}
		return false
	}

	if key := strings.ToLower(fmt.Sprint(value)); key == "true" || key == "false" {
		return strings.ToLower(fmt.Sprint(attr)) == key
	}
	return fmt.Sprint(attr) == fmt.Sprint(value)
}
