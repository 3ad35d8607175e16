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

// Package plugin implements the neutron plugin interface on top of the
// contrail resource handlers.
package plugin

import (
	"context"
	"fmt"

	"github.com/OpenSDN-io/tf-neutron-plugin/core"
	"github.com/OpenSDN-io/tf-neutron-plugin/handlers"
	"github.com/OpenSDN-io/tf-neutron-plugin/vncapi"

	log "github.com/sirupsen/logrus"
)

// Client is the api server client used by the plugin and its handlers
type Client interface {
	handlers.VncClient
	IsAuthenticated(ctx context.Context, server string) (bool, error)
}

// ContrailPlugin dispatches neutron requests to the handler of the
// resource type
type ContrailPlugin struct {
	client   Client
	servers  *vncapi.APIServers
	opts     handlers.Options
	registry [core.NumResourceTypes]core.ResourceHandler

	// builds the router interface handler of a request
	newRouterInterface func(client handlers.VncClient, opts handlers.Options) core.RouterInterfaceHandler
}

func newRouterInterfaceHandler(client handlers.VncClient, opts handlers.Options) core.RouterInterfaceHandler {
	return handlers.NewRouterInterfaceHandler(client, opts)
}

// New returns a plugin with one handler per resource type
func New(client Client, servers *vncapi.APIServers, opts handlers.Options) *ContrailPlugin {
	p := &ContrailPlugin{
		client:             client,
		servers:            servers,
		opts:               opts,
		newRouterInterface: newRouterInterfaceHandler,
	}

	for _, rt := range core.ResourceTypes() {
		p.registry[rt] = handlers.New(rt, client, opts)
	}

	log.Infof("Initialized contrail plugin, api servers: %v, options: %+v", servers.Snapshot(), opts)
	return p
}

// handler returns the handler of a resource type. A missing handler is a
// programming error.
func (p *ContrailPlugin) handler(rt core.ResourceType) core.ResourceHandler {
	if !rt.Valid() || p.registry[rt] == nil {
		panic(fmt.Sprintf("no handler registered for resource type %s", rt))
	}
	return p.registry[rt]
}

// requestContext copies the caller identity handed to the handlers
func requestContext(reqCtx *core.RequestContext) core.RequestContext {
	if reqCtx == nil {
		return core.RequestContext{}
	}
	return *reqCtx
}

// userAuthContext returns the context of the api server calls of a request.
// When the api server runs with authentication, the caller token saved in
// ctx is bound to the returned context.
func (p *ContrailPlugin) userAuthContext(ctx context.Context) (context.Context, error) {
	server, err := p.servers.Get(p.servers.Snapshot())
	if err != nil {
		log.Errorf("Error picking an api server. Err: %v", err)
		return nil, err
	}

	authenticated, err := p.client.IsAuthenticated(ctx, server)
	if err != nil {
		log.Errorf("Error probing api server %s. Err: %v", server, err)
		return nil, err
	}
	if !authenticated {
		return ctx, nil
	}

	token, ok := core.UserToken(ctx)
	if !ok {
		log.Debugf("api server %s requires authentication, request carries no token", server)
		return ctx, nil
	}

	return vncapi.WithAuthToken(ctx, token), nil
}

func bodyResource(rt core.ResourceType, body core.Body) (core.Resource, error) {
	res, ok := body[rt.Name()]
	if !ok || res == nil {
		return nil, core.BadRequest(rt.Name(), fmt.Sprintf("Resource body required, missing %q", rt.Name()))
	}

	core.StripUnspecified(res)
	return res, nil
}

// CreateResource creates a resource of type rt from body
func (p *ContrailPlugin) CreateResource(ctx context.Context, rt core.ResourceType, reqCtx *core.RequestContext, body core.Body) (core.Resource, error) {
	h := p.handler(rt)

	res, err := bodyResource(rt, body)
	if err != nil {
		return nil, err
	}

	ctx, err = p.userAuthContext(ctx)
	if err != nil {
		return nil, err
	}

	return h.ResourceCreate(ctx, requestContext(reqCtx), res)
}

// GetResource reads a resource
func (p *ContrailPlugin) GetResource(ctx context.Context, rt core.ResourceType, reqCtx *core.RequestContext, id string, fields []string) (core.Resource, error) {
	h := p.handler(rt)

	ctx, err := p.userAuthContext(ctx)
	if err != nil {
		return nil, err
	}

	return h.ResourceGet(ctx, requestContext(reqCtx), id, fields)
}

// UpdateResource updates a resource from body
func (p *ContrailPlugin) UpdateResource(ctx context.Context, rt core.ResourceType, reqCtx *core.RequestContext, id string, body core.Body) (core.Resource, error) {
	h := p.handler(rt)

	res, err := bodyResource(rt, body)
	if err != nil {
		return nil, err
	}

	ctx, err = p.userAuthContext(ctx)
	if err != nil {
		return nil, err
	}

	return h.ResourceUpdate(ctx, requestContext(reqCtx), id, res)
}

// DeleteResource deletes a resource
func (p *ContrailPlugin) DeleteResource(ctx context.Context, rt core.ResourceType, reqCtx *core.RequestContext, id string) error {
	h := p.handler(rt)

	ctx, err := p.userAuthContext(ctx)
	if err != nil {
		return err
	}

	return h.ResourceDelete(ctx, requestContext(reqCtx), id)
}

// ListResources lists the resources matching filters
func (p *ContrailPlugin) ListResources(ctx context.Context, rt core.ResourceType, reqCtx *core.RequestContext, filters core.Filters, fields []string) ([]core.Resource, error) {
	h := p.handler(rt)

	ctx, err := p.userAuthContext(ctx)
	if err != nil {
		return nil, err
	}

	return h.ResourceList(ctx, requestContext(reqCtx), filters, fields)
}

// CountResources counts the resources matching filters
func (p *ContrailPlugin) CountResources(ctx context.Context, rt core.ResourceType, reqCtx *core.RequestContext, filters core.Filters) (*core.Count, error) {
	h := p.handler(rt)

	ctx, err := p.userAuthContext(ctx)
	if err != nil {
		return nil, err
	}

	count, err := h.ResourceCount(ctx, requestContext(reqCtx), filters)
	if err != nil {
		return nil, err
	}

	return &core.Count{Count: count}, nil
}

// interfaceIDs validates the router interface request info and returns its
// port and subnet ids, "" when absent
func interfaceIDs(info core.Resource) (string, string, error) {
	_, hasPort := info["port_id"]
	_, hasSubnet := info["subnet_id"]
	if !hasPort && !hasSubnet {
		return "", "", core.BadRequest("router", "Either subnet_id or port_id must be specified")
	}
	if hasPort && hasSubnet {
		return "", "", core.BadRequest("router", "Cannot specify both subnet-id and port-id")
	}

	key := "subnet_id"
	if hasPort {
		key = "port_id"
	}
	id, ok := info[key].(string)
	if !ok || id == "" {
		return "", "", core.BadRequest("router", fmt.Sprintf("Invalid %s %v", key, info[key]))
	}

	if hasPort {
		return id, "", nil
	}
	return "", id, nil
}

// AddRouterInterface attaches a router to the port or subnet of info
func (p *ContrailPlugin) AddRouterInterface(ctx context.Context, reqCtx *core.RequestContext, routerID string, info core.Resource) (core.Resource, error) {
	portID, subnetID, err := interfaceIDs(info)
	if err != nil {
		return nil, err
	}

	ctx, err = p.userAuthContext(ctx)
	if err != nil {
		return nil, err
	}

	rh := p.newRouterInterface(p.client, p.opts)
	return rh.AddRouterInterface(ctx, requestContext(reqCtx), routerID, portID, subnetID)
}

// RemoveRouterInterface detaches a router from the port or subnet of info
func (p *ContrailPlugin) RemoveRouterInterface(ctx context.Context, reqCtx *core.RequestContext, routerID string, info core.Resource) (core.Resource, error) {
	portID, subnetID, err := interfaceIDs(info)
	if err != nil {
		return nil, err
	}

	ctx, err = p.userAuthContext(ctx)
	if err != nil {
		return nil, err
	}

	rh := p.newRouterInterface(p.client, p.opts)
	return rh.RemoveRouterInterface(ctx, requestContext(reqCtx), routerID, portID, subnetID)
}
