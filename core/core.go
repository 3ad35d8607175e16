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

// Package core provides the definitions shared between the north-bound
// neutron facing plugin and the south-bound resource handlers that program
// the contrail api server. The plugin is invoked by the neutron server with
// neutron shaped resources, and in turn invokes a handler per resource type
// that translates and forwards the request to the fabric controller.
package core

import "context"

// Resource is a neutron or vnc shaped object, keyed by attribute name
type Resource map[string]interface{}

// Body is a request body as received from neutron, the resource is carried
// under its resource name, e.g. {"network": {...}}
type Body map[string]Resource

// Filters maps an attribute name to the values it may match
type Filters map[string][]interface{}

// Count is the result of a count operation
type Count struct {
	Count int `json:"count"`
}

// RequestContext carries the identity of the caller. It is handed to the
// handlers by value, handlers never share the framework's copy.
type RequestContext struct {
	UserID    string   `json:"user_id"`
	TenantID  string   `json:"tenant_id"`
	IsAdmin   bool     `json:"is_admin"`
	Roles     []string `json:"roles"`
	RequestID string   `json:"request_id"`
}

// ResourceHandler implements the CRUD operations for one resource type
// against the fabric controller.
type ResourceHandler interface {
	ResourceCreate(ctx context.Context, reqCtx RequestContext, res Resource) (Resource, error)
	ResourceGet(ctx context.Context, reqCtx RequestContext, id string, fields []string) (Resource, error)
	ResourceUpdate(ctx context.Context, reqCtx RequestContext, id string, res Resource) (Resource, error)
	ResourceDelete(ctx context.Context, reqCtx RequestContext, id string) error
	ResourceList(ctx context.Context, reqCtx RequestContext, filters Filters, fields []string) ([]Resource, error)
	ResourceCount(ctx context.Context, reqCtx RequestContext, filters Filters) (int, error)
}

// RouterInterfaceHandler attaches and detaches router interfaces. Exactly one
// of portID or subnetID is non-empty.
type RouterInterfaceHandler interface {
	AddRouterInterface(ctx context.Context, reqCtx RequestContext, routerID, portID, subnetID string) (Resource, error)
	RemoveRouterInterface(ctx context.Context, reqCtx RequestContext, routerID, portID, subnetID string) (Resource, error)
}

// NeutronPlugin is the contract the neutron server calls into
type NeutronPlugin interface {
	CreateResource(ctx context.Context, resType ResourceType, reqCtx *RequestContext, body Body) (Resource, error)
	GetResource(ctx context.Context, resType ResourceType, reqCtx *RequestContext, id string, fields []string) (Resource, error)
	UpdateResource(ctx context.Context, resType ResourceType, reqCtx *RequestContext, id string, body Body) (Resource, error)
	DeleteResource(ctx context.Context, resType ResourceType, reqCtx *RequestContext, id string) error
	ListResources(ctx context.Context, resType ResourceType, reqCtx *RequestContext, filters Filters, fields []string) ([]Resource, error)
	CountResources(ctx context.Context, resType ResourceType, reqCtx *RequestContext, filters Filters) (*Count, error)

	AddRouterInterface(ctx context.Context, reqCtx *RequestContext, routerID string, info Resource) (Resource, error)
	RemoveRouterInterface(ctx context.Context, reqCtx *RequestContext, routerID string, info Resource) (Resource, error)
}
