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

package core

import "fmt"

// ResourceType identifies one of the resource kinds the plugin dispatches
type ResourceType int

// Supported resource types
const (
	Network ResourceType = iota
	Subnet
	Port
	Router
	FloatingIP
	SecurityGroup
	SecurityGroupRule
	IPAM
	Policy
	RouteTable
	ServiceInstance
	VirtualRouter

	// NumResourceTypes is the number of supported resource types
	NumResourceTypes = iota
)

type resourceTypeInfo struct {
	name       string
	collection string
}

var resourceTypes = [NumResourceTypes]resourceTypeInfo{
	Network:           {"network", "networks"},
	Subnet:            {"subnet", "subnets"},
	Port:              {"port", "ports"},
	Router:            {"router", "routers"},
	FloatingIP:        {"floatingip", "floatingips"},
	SecurityGroup:     {"security_group", "security-groups"},
	SecurityGroupRule: {"security_group_rule", "security-group-rules"},
	IPAM:              {"ipam", "ipams"},
	Policy:            {"policy", "policys"},
	RouteTable:        {"route_table", "route_tables"},
	ServiceInstance:   {"svc", "nat_instances"},
	VirtualRouter:     {"virtual_router", "virtual_routers"},
}

// Valid reports whether t is one of the supported resource types
func (t ResourceType) Valid() bool {
	return t >= 0 && t < NumResourceTypes
}

// Name returns the resource name, which is also the key of the resource in
// a request body
func (t ResourceType) Name() string {
	if !t.Valid() {
		return fmt.Sprintf("ResourceType(%d)", int(t))
	}
	return resourceTypes[t].name
}

// Collection returns the name of the REST collection of the resource type
func (t ResourceType) Collection() string {
	if !t.Valid() {
		return ""
	}
	return resourceTypes[t].collection
}

func (t ResourceType) String() string {
	return t.Name()
}

// ResourceTypes returns all supported resource types
func ResourceTypes() []ResourceType {
	types := make([]ResourceType, 0, NumResourceTypes)
	for t := ResourceType(0); t < NumResourceTypes; t++ {
		types = append(types, t)
	}
	return types
}

// ParseResourceType returns the resource type for a resource name
func ParseResourceType(name string) (ResourceType, error) {
	for t, info := range resourceTypes {
		if info.name == name {
			return ResourceType(t), nil
		}
	}
	return -1, Errorf("unknown resource type %q", name)
}

// ResourceTypeForCollection returns the resource type for a REST collection
func ResourceTypeForCollection(collection string) (ResourceType, error) {
	for t, info := range resourceTypes {
		if info.collection == collection {
			return ResourceType(t), nil
		}
	}
	return -1, Errorf("unknown resource collection %q", collection)
}
