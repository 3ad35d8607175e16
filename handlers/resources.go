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
	"net"

	"github.com/OpenSDN-io/tf-neutron-plugin/core"
)

const (
	// DeviceOwnerRouterInterface marks the ports attaching a router to a subnet
	DeviceOwnerRouterInterface = "network:router_interface"
)

// New returns the handler of a resource type
func New(rt core.ResourceType, client VncClient, opts Options) *Handler {
	switch rt {
	case core.Network:
		return NewNetworkHandler(client, opts)
	case core.Subnet:
		return NewSubnetHandler(client, opts)
	case core.Port:
		return NewPortHandler(client, opts)
	case core.Router:
		return NewRouterHandler(client, opts)
	case core.FloatingIP:
		return NewFloatingIPHandler(client, opts)
	case core.SecurityGroup:
		return NewSecurityGroupHandler(client, opts)
	case core.SecurityGroupRule:
		return NewSecurityGroupRuleHandler(client, opts)
	case core.IPAM:
		return NewIPAMHandler(client, opts)
	case core.Policy:
		return NewPolicyHandler(client, opts)
	case core.RouteTable:
		return NewRouteTableHandler(client, opts)
	case core.ServiceInstance:
		return NewServiceInstanceHandler(client, opts)
	case core.VirtualRouter:
		return NewVirtualRouterHandler(client, opts)
	}

	panic(fmt.Sprintf("no handler for resource type %s", rt))
}

func newHandler(client VncClient, opts Options, rt core.ResourceType, vncType string, mappings ...fieldMapping) *Handler {
	return &Handler{
		client:     client,
		opts:       opts,
		resource:   rt.Name(),
		vncType:    vncType,
		parentType: "project",
		mappings:   mappings,
	}
}

func requireAttrs(h *Handler, res core.Resource, attrs ...string) error {
	for _, attr := range attrs {
		if value, ok := res[attr]; !ok || value == nil || value == "" {
			return core.BadRequest(h.resource, attr+" must be specified")
		}
	}
	return nil
}

// NewNetworkHandler returns the handler of networks
func NewNetworkHandler(client VncClient, opts Options) *Handler {
	return newHandler(client, opts, core.Network, "virtual-network",
		fieldMapping{"admin_state_up", "id_perms.enable", attrValue},
		fieldMapping{"description", "id_perms.description", attrValue},
		fieldMapping{"shared", "is_shared", attrValue},
		fieldMapping{"router:external", "router_external", attrValue},
		fieldMapping{"contrail:policys", "network_policy_refs", attrRefList},
		fieldMapping{"contrail:route_table", "route_table_refs", attrRefList},
	)
}

// NewSubnetHandler returns the handler of subnets
func NewSubnetHandler(client VncClient, opts Options) *Handler {
	h := newHandler(client, opts, core.Subnet, "subnet",
		fieldMapping{"network_id", "virtual_network_refs", attrRef},
		fieldMapping{"cidr", "subnet_ip_prefix.cidr", attrValue},
		fieldMapping{"gateway_ip", "default_gateway", attrValue},
		fieldMapping{"host_routes", "host_routes.route", attrValue},
		fieldMapping{"dns_nameservers", "dns_nameservers", attrValue},
	)
	h.prepare = prepareSubnet
	return h
}

func prepareSubnet(h *Handler, res core.Resource, create bool) error {
	if !h.opts.ApplySubnetHostRoutes {
		delete(res, "host_routes")
	}

	if !create {
		if _, ok := res["cidr"]; ok {
			return core.BadRequest(h.resource, "Cannot update read-only attribute cidr")
		}
		return nil
	}

	if err := requireAttrs(h, res, "network_id", "cidr"); err != nil {
		return err
	}

	cidr, _ := res["cidr"].(string)
	_, ipNet, err := net.ParseCIDR(cidr)
	if err != nil {
		return core.BadRequest(h.resource, fmt.Sprintf("Invalid cidr %q", res["cidr"]))
	}
	res["cidr"] = ipNet.String()

	if _, ok := res["gateway_ip"]; !ok {
		res["gateway_ip"] = firstHost(ipNet).String()
	}
	return nil
}

// firstHost returns the address following the network address of ipNet
func firstHost(ipNet *net.IPNet) net.IP {
	ip := make(net.IP, len(ipNet.IP))
	copy(ip, ipNet.IP)
	for i := len(ip) - 1; i >= 0; i-- {
		ip[i]++
		if ip[i] != 0 {
			break
		}
	}
	return ip
}

// NewPortHandler returns the handler of ports
func NewPortHandler(client VncClient, opts Options) *Handler {
	h := newHandler(client, opts, core.Port, "virtual-machine-interface",
		fieldMapping{"network_id", "virtual_network_refs", attrRef},
		fieldMapping{"admin_state_up", "id_perms.enable", attrValue},
		fieldMapping{"mac_address", "virtual_machine_interface_mac_addresses.mac_address", attrValue},
		fieldMapping{"device_owner", "virtual_machine_interface_device_owner", attrValue},
		fieldMapping{"security_groups", "security_group_refs", attrRefList},
		fieldMapping{"binding:host_id", "virtual_machine_interface_bindings.host_id", attrValue},
	)
	h.prepare = func(h *Handler, res core.Resource, create bool) error {
		if !create {
			if _, ok := res["network_id"]; ok {
				return core.BadRequest(h.resource, "Cannot update read-only attribute network_id")
			}
			return nil
		}
		return requireAttrs(h, res, "network_id")
	}
	return h
}

// NewRouterHandler returns the handler of routers
func NewRouterHandler(client VncClient, opts Options) *Handler {
	return newHandler(client, opts, core.Router, "logical-router",
		fieldMapping{"admin_state_up", "id_perms.enable", attrValue},
		fieldMapping{"description", "id_perms.description", attrValue},
	)
}

// NewFloatingIPHandler returns the handler of floating ips
func NewFloatingIPHandler(client VncClient, opts Options) *Handler {
	h := newHandler(client, opts, core.FloatingIP, "floating-ip",
		fieldMapping{"port_id", "virtual_machine_interface_refs", attrRef},
		fieldMapping{"fixed_ip_address", "floating_ip_fixed_ip_address", attrValue},
	)
	h.prepare = func(h *Handler, res core.Resource, create bool) error {
		if create {
			return requireAttrs(h, res, "floating_network_id")
		}
		return nil
	}
	return h
}

// NewSecurityGroupHandler returns the handler of security groups
func NewSecurityGroupHandler(client VncClient, opts Options) *Handler {
	return newHandler(client, opts, core.SecurityGroup, "security-group",
		fieldMapping{"description", "id_perms.description", attrValue},
	)
}

// NewSecurityGroupRuleHandler returns the handler of security group rules.
// Rules are children of their security group and owned by its tenant.
func NewSecurityGroupRuleHandler(client VncClient, opts Options) *Handler {
	h := newHandler(client, opts, core.SecurityGroupRule, "security-group-rule",
		fieldMapping{"security_group_id", "parent_uuid", attrValue},
		fieldMapping{"remote_group_id", "remote_security_group_refs", attrRef},
	)
	h.parentType = "security-group"
	h.createAttrs = core.Resource{"parent_type": "security-group"}
	h.parentTenant = func(ctx context.Context, reqCtx core.RequestContext, res core.Resource) (string, error) {
		if err := requireAttrs(h, res, "security_group_id"); err != nil {
			return "", err
		}

		// the rule belongs to the tenant of its group
		sgID := fmt.Sprint(res["security_group_id"])
		sg, err := NewSecurityGroupHandler(h.client, h.opts).ResourceGet(ctx, reqCtx, sgID, nil)
		if err != nil {
			return "", err
		}
		tenant, _ := sg["tenant_id"].(string)
		if tenant == "" {
			return "", core.BadRequest(h.resource, fmt.Sprintf("Security group %s has no tenant", sgID))
		}
		return tenant, nil
	}
	h.prepare = func(h *Handler, res core.Resource, create bool) error {
		if !create {
			return core.BadRequest(h.resource, "security_group_rule update is not supported")
		}
		if err := requireAttrs(h, res, "security_group_id"); err != nil {
			return err
		}

		direction, ok := res["direction"]
		if !ok {
			res["direction"] = "ingress"
		} else if direction != "ingress" && direction != "egress" {
			return core.BadRequest(h.resource, fmt.Sprintf("Invalid direction %v", direction))
		}
		if _, ok := res["ethertype"]; !ok {
			res["ethertype"] = "IPv4"
		}
		return nil
	}
	return h
}

// NewIPAMHandler returns the handler of contrail ipams
func NewIPAMHandler(client VncClient, opts Options) *Handler {
	return newHandler(client, opts, core.IPAM, "network-ipam",
		fieldMapping{"mgmt", "network_ipam_mgmt", attrValue},
	)
}

// NewPolicyHandler returns the handler of contrail network policies
func NewPolicyHandler(client VncClient, opts Options) *Handler {
	return newHandler(client, opts, core.Policy, "network-policy",
		fieldMapping{"entries", "network_policy_entries", attrValue},
	)
}

// NewRouteTableHandler returns the handler of contrail route tables
func NewRouteTableHandler(client VncClient, opts Options) *Handler {
	return newHandler(client, opts, core.RouteTable, "route-table",
		fieldMapping{"routes", "routes.route", attrValue},
	)
}

// NewServiceInstanceHandler returns the handler of contrail service instances
func NewServiceInstanceHandler(client VncClient, opts Options) *Handler {
	return newHandler(client, opts, core.ServiceInstance, "service-instance",
		fieldMapping{"service_template_id", "service_template_refs", attrRef},
		fieldMapping{"properties", "service_instance_properties", attrValue},
	)
}

// NewVirtualRouterHandler returns the handler of virtual routers. Virtual
// routers belong to the global system config, not to a tenant.
func NewVirtualRouterHandler(client VncClient, opts Options) *Handler {
	h := newHandler(client, opts, core.VirtualRouter, "virtual-router",
		fieldMapping{"ip_address", "virtual_router_ip_address", attrValue},
	)
	h.parentType = "global-system-config"
	h.createAttrs = core.Resource{"parent_type": "global-system-config"}
	return h
}
