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

// Package services holds the registry of the service plugins and drivers
// the neutron server can load next to the core plugin.
package services

import (
	"sort"

	"github.com/OpenSDN-io/tf-neutron-plugin/core"
)

const (
	// ServicePluginsGroup is the entry point group of neutron service plugins
	ServicePluginsGroup = "neutron.service_plugins"
	// FirewallDriversGroup is the entry point group of firewall drivers
	FirewallDriversGroup = "firewall_drivers"

	// TimestampNameStr is the name of the timestamp service plugin
	TimestampNameStr = "contrail-timestamp"
	// TrunkNameStr is the name of the trunk service plugin
	TrunkNameStr = "contrail-trunk"
	// TagsNameStr is the name of the tag service plugin
	TagsNameStr = "contrail-tags"
	// FWaaSV2NameStr is the name of the firewall v2 driver
	FWaaSV2NameStr = "contrail-fwaasv2"
)

// EntryPoint names a loadable service implementation
type EntryPoint struct {
	Group  string `json:"group"`
	Name   string `json:"name"`
	Target string `json:"target"`
}

const servicesPkg = "neutron_plugin_contrail.plugins.opencontrail"

var entryPointRegistry = map[string]map[string]string{
	ServicePluginsGroup: {
		TimestampNameStr: servicesPkg + ".services.timestamp.timestamp_plugin:TimeStampPlugin",
		TrunkNameStr:     servicesPkg + ".services.trunk.plugin:TrunkPlugin",
		TagsNameStr:      servicesPkg + ".services.tag.tag_plugin:TagPlugin",
	},
	FirewallDriversGroup: {
		FWaaSV2NameStr: servicesPkg + ".neutron_fwaas.contrail:ContrailFirewallv2Driver",
	},
}

// Lookup returns the entry point registered under group and name
func Lookup(group, name string) (EntryPoint, error) {
	if target, ok := entryPointRegistry[group][name]; ok {
		return EntryPoint{Group: group, Name: name, Target: target}, nil
	}

	return EntryPoint{}, core.Errorf("Failed to find a registered entry point %s in group %s", name, group)
}

// EntryPoints returns all registered entry points sorted by group and name
func EntryPoints() []EntryPoint {
	eps := []EntryPoint{}
	for group, names := range entryPointRegistry {
		for name, target := range names {
			eps = append(eps, EntryPoint{Group: group, Name: name, Target: target})
		}
	}

	sort.Slice(eps, func(i, j int) bool {
		if eps[i].Group != eps[j].Group {
			return eps[i].Group < eps[j].Group
		}
		return eps[i].Name < eps[j].Name
	})
	return eps
}

// ServicePlugins returns the service plugin entry points of names, failing
// on the first unknown name
func ServicePlugins(names []string) ([]EntryPoint, error) {
	eps := make([]EntryPoint, 0, len(names))
	for _, name := range names {
		ep, err := Lookup(ServicePluginsGroup, name)
		if err != nil {
			return nil, err
		}
		eps = append(eps, ep)
	}
	return eps, nil
}
