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
	"context"
	"fmt"

	"github.com/OpenSDN-io/tf-neutron-plugin/core"
	"github.com/OpenSDN-io/tf-neutron-plugin/vncapi"

	log "github.com/sirupsen/logrus"
)

// RouterInterfaceHandler attaches routers to subnets through router owned
// ports
type RouterInterfaceHandler struct {
	client  VncClient
	routers *Handler
	ports   *Handler
	subnets *Handler
}

// NewRouterInterfaceHandler returns a router interface handler
func NewRouterInterfaceHandler(client VncClient, opts Options) *RouterInterfaceHandler {
	return &RouterInterfaceHandler{
		client:  client,
		routers: NewRouterHandler(client, opts),
		ports:   NewPortHandler(client, opts),
		subnets: NewSubnetHandler(client, opts),
	}
}

// portSubnets returns the subnets of the fixed ips of a port
func portSubnets(port core.Resource) []string {
	subnets := []string{}
	for _, ip := range asList(port["fixed_ips"]) {
		if m, ok := asMap(ip); ok {
			if subnet, ok := m["subnet_id"].(string); ok && subnet != "" {
				subnets = append(subnets, subnet)
			}
		}
	}
	return subnets
}

func hasSubnet(port core.Resource, subnetID string) bool {
	for _, subnet := range portSubnets(port) {
		if subnet == subnetID {
			return true
		}
	}
	return false
}

func interfaceInfo(router core.Resource, portID, subnetID string) core.Resource {
	return core.Resource{
		"id":        router["id"],
		"tenant_id": router["tenant_id"],
		"port_id":   portID,
		"subnet_id": subnetID,
	}
}

// routerPorts lists the interface ports of a router
func (rh *RouterInterfaceHandler) routerPorts(ctx context.Context, reqCtx core.RequestContext, routerID string) ([]core.Resource, error) {
	return rh.ports.ResourceList(ctx, reqCtx, core.Filters{
		"device_id":    {routerID},
		"device_owner": {DeviceOwnerRouterInterface},
	}, nil)
}

// AddRouterInterface attaches the router to a subnet, either through an
// existing port or through a new port holding the subnet gateway address
func (rh *RouterInterfaceHandler) AddRouterInterface(ctx context.Context, reqCtx core.RequestContext, routerID, portID, subnetID string) (core.Resource, error) {
	log.Infof("Received router %s add interface port: %q subnet: %q", routerID, portID, subnetID)

	router, err := rh.routers.ResourceGet(ctx, reqCtx, routerID, nil)
	if err != nil {
		return nil, err
	}

	// owner fields restored on failure, nil when the port is created here
	var previous core.Resource
	var port core.Resource
	if portID != "" {
		port, err = rh.ports.ResourceGet(ctx, reqCtx, portID, nil)
		if err != nil {
			return nil, err
		}

		owner, _ := port["device_id"].(string)
		if owner != "" && owner != routerID {
			return nil, vncapi.Conflict(rh.ports.vncType, portID,
				fmt.Sprintf("Port %s is in use by %s", portID, owner))
		}

		subnets := portSubnets(port)
		if len(subnets) == 0 {
			return nil, core.BadRequest("router", fmt.Sprintf("Port %s has no fixed ips", portID))
		}
		subnetID = subnets[0]

		deviceOwner, _ := port["device_owner"].(string)
		previous = core.Resource{"device_id": owner, "device_owner": deviceOwner}
		port, err = rh.ports.ResourceUpdate(ctx, reqCtx, portID, core.Resource{
			"device_id":    routerID,
			"device_owner": DeviceOwnerRouterInterface,
		})
		if err != nil {
			return nil, err
		}
	} else {
		subnet, err := rh.subnets.ResourceGet(ctx, reqCtx, subnetID, nil)
		if err != nil {
			return nil, err
		}

		gateway, _ := subnet["gateway_ip"].(string)
		if gateway == "" {
			return nil, core.BadRequest("router", fmt.Sprintf("Subnet %s has no gateway_ip", subnetID))
		}

		existing, err := rh.routerPorts(ctx, reqCtx, routerID)
		if err != nil {
			return nil, err
		}
		for _, p := range existing {
			if hasSubnet(p, subnetID) {
				return nil, core.BadRequest("router",
					fmt.Sprintf("Router %s already has a port on subnet %s", routerID, subnetID))
			}
		}

		port, err = rh.ports.ResourceCreate(ctx, reqCtx, core.Resource{
			"tenant_id":      router["tenant_id"],
			"network_id":     subnet["network_id"],
			"name":           "",
			"admin_state_up": true,
			"device_id":      routerID,
			"device_owner":   DeviceOwnerRouterInterface,
			"fixed_ips": []interface{}{
				map[string]interface{}{"subnet_id": subnetID, "ip_address": gateway},
			},
		})
		if err != nil {
			return nil, err
		}
	}

	portID, _ = port["id"].(string)
	err = rh.client.RefUpdate(ctx, rh.routers.vncType, routerID, rh.ports.vncType, portID, vncapi.RefAdd)
	if err != nil {
		log.Errorf("Error adding port %s to router %s. Err: %v", portID, routerID, err)
		rh.releasePort(ctx, reqCtx, portID, previous)
		return nil, err
	}

	return interfaceInfo(router, portID, subnetID), nil
}

// releasePort undoes the port changes of a failed add, the port is deleted
// when previous is nil
func (rh *RouterInterfaceHandler) releasePort(ctx context.Context, reqCtx core.RequestContext, portID string, previous core.Resource) {
	var err error
	if previous == nil {
		err = rh.ports.ResourceDelete(ctx, reqCtx, portID)
	} else {
		_, err = rh.ports.ResourceUpdate(ctx, reqCtx, portID, previous)
	}
	if err != nil {
		log.Errorf("Error releasing port %s after a failed add. Err: %v", portID, err)
	}
}

// RemoveRouterInterface detaches the router from the port, or from the
// interface port it has on the subnet, and deletes the port
func (rh *RouterInterfaceHandler) RemoveRouterInterface(ctx context.Context, reqCtx core.RequestContext, routerID, portID, subnetID string) (core.Resource, error) {
	log.Infof("Received router %s remove interface port: %q subnet: %q", routerID, portID, subnetID)

	router, err := rh.routers.ResourceGet(ctx, reqCtx, routerID, nil)
	if err != nil {
		return nil, err
	}

	var port core.Resource
	if portID != "" {
		port, err = rh.ports.ResourceGet(ctx, reqCtx, portID, nil)
		if err != nil {
			return nil, err
		}
		if owner, _ := port["device_id"].(string); owner != routerID {
			return nil, vncapi.NotFound("router interface", portID)
		}
		if subnets := portSubnets(port); len(subnets) > 0 {
			subnetID = subnets[0]
		}
	} else {
		ports, err := rh.routerPorts(ctx, reqCtx, routerID)
		if err != nil {
			return nil, err
		}
		for _, p := range ports {
			if hasSubnet(p, subnetID) {
				port = p
				break
			}
		}
		if port == nil {
			return nil, vncapi.NotFound("router interface", subnetID)
		}
		portID, _ = port["id"].(string)
	}

	err = rh.client.RefUpdate(ctx, rh.routers.vncType, routerID, rh.ports.vncType, portID, vncapi.RefDelete)
	if err != nil {
		log.Errorf("Error removing port %s from router %s. Err: %v", portID, routerID, err)
		return nil, err
	}

	if err := rh.ports.ResourceDelete(ctx, reqCtx, portID); err != nil {
		return nil, err
	}

	return interfaceInfo(router, portID, subnetID), nil
}
