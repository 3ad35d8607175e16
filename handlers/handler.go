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

// Package handlers implements the per resource type handlers that translate
// neutron resources to contrail api server objects.
package handlers

import (
	"context"
	"fmt"

	"github.com/OpenSDN-io/tf-neutron-plugin/core"
	"github.com/OpenSDN-io/tf-neutron-plugin/vncapi"

	log "github.com/sirupsen/logrus"
)

// Options are shared by all the handlers of a plugin
type Options struct {
	ContrailExtensionsEnabled bool
	ApplySubnetHostRoutes     bool
}

// VncClient is the api server client used by the handlers
type VncClient interface {
	Create(ctx context.Context, objType string, obj core.Resource) (core.Resource, error)
	Read(ctx context.Context, objType, uuid string) (core.Resource, error)
	Update(ctx context.Context, objType, uuid string, obj core.Resource) error
	Delete(ctx context.Context, objType, uuid string) error
	List(ctx context.Context, objType string, opts vncapi.ListOptions) ([]core.Resource, error)
	Count(ctx context.Context, objType string, opts vncapi.ListOptions) (int, error)
	RefUpdate(ctx context.Context, objType, uuid, refType, refUUID string, op vncapi.RefOperation) error
}

// prepareFunc validates and completes a neutron resource before it is
// translated for a create (create is true) or an update
type prepareFunc func(h *Handler, res core.Resource, create bool) error

// tenantFunc returns the tenant owning a new resource whose parent is not a
// project
type tenantFunc func(ctx context.Context, reqCtx core.RequestContext, res core.Resource) (string, error)

// Handler implements core.ResourceHandler for one resource type
type Handler struct {
	client   VncClient
	opts     Options
	resource string
	vncType  string
	// "project" for tenant owned resources
	parentType string
	// set for tenant owned resources with another parent, the owner is
	// kept in perms2.owner
	parentTenant tenantFunc
	mappings     []fieldMapping
	// vnc attributes set on every created object
	createAttrs core.Resource
	prepare     prepareFunc
}

// VncType returns the api server object type of the handler
func (h *Handler) VncType() string {
	return h.vncType
}

func (h *Handler) tenantOwned() bool {
	return h.parentType == "project" || h.parentTenant != nil
}

func tenantOf(res core.Resource) string {
	if tenant, ok := res["tenant_id"].(string); ok && tenant != "" {
		return tenant
	}
	tenant, _ := res["project_id"].(string)
	return tenant
}

func sameTenant(a, b string) bool {
	return tenantID(projectUUID(a)) == tenantID(projectUUID(b))
}

// visible reports whether the caller may see res
func (h *Handler) visible(reqCtx core.RequestContext, res core.Resource) bool {
	if reqCtx.IsAdmin || !h.tenantOwned() {
		return true
	}
	if shared, ok := res["shared"].(bool); ok && shared {
		return true
	}
	return sameTenant(tenantOf(res), reqCtx.TenantID)
}

func copyResource(res core.Resource) core.Resource {
	dup := make(core.Resource, len(res))
	for key, value := range res {
		dup[key] = value
	}
	return dup
}

// ResourceCreate creates the resource and returns it as read back
func (h *Handler) ResourceCreate(ctx context.Context, reqCtx core.RequestContext, res core.Resource) (core.Resource, error) {
	log.Infof("Received %s create: %+v", h.resource, res)

	res = copyResource(res)
	if h.parentTenant != nil {
		tenant, err := h.parentTenant(ctx, reqCtx, res)
		if err != nil {
			return nil, err
		}
		delete(res, "project_id")
		res["tenant_id"] = tenant
	}
	if h.tenantOwned() {
		tenant := tenantOf(res)
		if tenant == "" {
			tenant = reqCtx.TenantID
			res["tenant_id"] = tenant
		}
		if tenant == "" {
			return nil, core.BadRequest(h.resource, "tenant_id must be specified")
		}
		if !reqCtx.IsAdmin && !sameTenant(tenant, reqCtx.TenantID) {
			return nil, core.BadRequest(h.resource, fmt.Sprintf("Cannot create %s for another tenant", h.resource))
		}
	}

	if h.prepare != nil {
		if err := h.prepare(h, res, true); err != nil {
			return nil, err
		}
	}

	obj := h.toVnc(res)
	for key, value := range h.createAttrs {
		if _, ok := obj[key]; !ok {
			obj[key] = value
		}
	}

	created, err := h.client.Create(ctx, h.vncType, obj)
	if err != nil {
		log.Errorf("Error creating %s {%+v}. Err: %v", h.vncType, obj, err)
		return nil, err
	}

	id, _ := created["uuid"].(string)
	if id == "" {
		return nil, core.Errorf("api server did not return the uuid of the new %s", h.vncType)
	}

	return h.ResourceGet(ctx, reqCtx, id, nil)
}

// ResourceGet reads the resource, restricted to fields when not empty
func (h *Handler) ResourceGet(ctx context.Context, reqCtx core.RequestContext, id string, fields []string) (core.Resource, error) {
	obj, err := h.client.Read(ctx, h.vncType, id)
	if err != nil {
		return nil, err
	}

	res := h.fromVnc(obj)
	if !h.visible(reqCtx, res) {
		return nil, vncapi.NotFound(h.vncType, id)
	}

	return projectFields(res, fields), nil
}

// ResourceUpdate updates the attributes present in res
func (h *Handler) ResourceUpdate(ctx context.Context, reqCtx core.RequestContext, id string, res core.Resource) (core.Resource, error) {
	log.Infof("Received %s update %s: %+v", h.resource, id, res)

	current, err := h.ResourceGet(ctx, reqCtx, id, nil)
	if err != nil {
		return nil, err
	}

	res = copyResource(res)
	if value, ok := res["id"]; ok {
		if value != id {
			return nil, core.BadRequest(h.resource, "Cannot update read-only attribute id")
		}
		delete(res, "id")
	}
	for _, attr := range []string{"tenant_id", "project_id"} {
		value, ok := res[attr]
		if !ok {
			continue
		}
		if tenant, _ := value.(string); !sameTenant(tenant, tenantOf(current)) {
			return nil, core.BadRequest(h.resource, "Cannot update read-only attribute "+attr)
		}
		delete(res, attr)
	}

	if h.prepare != nil {
		if err := h.prepare(h, res, false); err != nil {
			return nil, err
		}
	}

	obj := h.toVnc(res)
	if err := h.client.Update(ctx, h.vncType, id, obj); err != nil {
		log.Errorf("Error updating %s %s {%+v}. Err: %v", h.vncType, id, obj, err)
		return nil, err
	}

	return h.ResourceGet(ctx, reqCtx, id, nil)
}

// ResourceDelete deletes the resource
func (h *Handler) ResourceDelete(ctx context.Context, reqCtx core.RequestContext, id string) error {
	log.Infof("Received %s delete: %s", h.resource, id)

	if _, err := h.ResourceGet(ctx, reqCtx, id, nil); err != nil {
		return err
	}

	if err := h.client.Delete(ctx, h.vncType, id); err != nil {
		log.Errorf("Error deleting %s %s. Err: %v", h.vncType, id, err)
		return err
	}

	return nil
}

func (h *Handler) listOptions(filters core.Filters) vncapi.ListOptions {
	opts := vncapi.ListOptions{}
	if h.parentType != "project" {
		return opts
	}

	for _, attr := range []string{"tenant_id", "project_id"} {
		if values := filters[attr]; len(values) == 1 {
			opts.ParentID = projectUUID(fmt.Sprint(values[0]))
			break
		}
	}
	return opts
}

// tenantFilters returns filters with the tenant ids in the form the handlers
// return them
func tenantFilters(filters core.Filters) core.Filters {
	normalized := make(core.Filters, len(filters))
	for key, values := range filters {
		if key == "tenant_id" || key == "project_id" {
			tenants := make([]interface{}, 0, len(values))
			for _, value := range values {
				tenants = append(tenants, tenantID(projectUUID(fmt.Sprint(value))))
			}
			values = tenants
		}
		normalized[key] = values
	}
	return normalized
}

// ResourceList lists the resources visible to the caller that match filters
func (h *Handler) ResourceList(ctx context.Context, reqCtx core.RequestContext, filters core.Filters, fields []string) ([]core.Resource, error) {
	objs, err := h.client.List(ctx, h.vncType, h.listOptions(filters))
	if err != nil {
		return nil, err
	}

	filters = tenantFilters(filters)
	list := []core.Resource{}
	for _, obj := range objs {
		res := h.fromVnc(obj)
		if !h.visible(reqCtx, res) || !matchFilters(res, filters) {
			continue
		}
		list = append(list, projectFields(res, fields))
	}

	return list, nil
}

// ResourceCount counts the resources ResourceList would return
func (h *Handler) ResourceCount(ctx context.Context, reqCtx core.RequestContext, filters core.Filters) (int, error) {
	if len(filters) == 0 && (reqCtx.IsAdmin || !h.tenantOwned()) {
		return h.client.Count(ctx, h.vncType, vncapi.ListOptions{})
	}

	list, err := h.ResourceList(ctx, reqCtx, filters, []string{"id"})
	if err != nil {
		return 0, err
	}
	return len(list), nil
}
