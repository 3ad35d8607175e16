/***
Copyright 2014 Cisco Systems Inc. All rights reserved.

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

// Package objdb is the service registry client of the cluster store. It is
// used to discover the contrail api servers and to advertise the plugin.
package objdb

import (
	"crypto/tls"
	"net"
	"strconv"
	"sync"

	log "github.com/sirupsen/logrus"
)

// servicePrefix is the key prefix of the service registrations
const servicePrefix = "/opensdn.io/service/"

// ServiceInfo describes one instance of a service. HostAddr:Port uniquely
// identify an instance.
type ServiceInfo struct {
	ServiceName string // Name of the service
	TTL         int64  // TTL for the service (seconds)
	HostAddr    string // Host name or IP address where its running
	Port        int    // Port number where its listening
	Hostname    string // Host name where its running
}

// Addr returns the host:port of the service instance
func (si ServiceInfo) Addr() string {
	return net.JoinHostPort(si.HostAddr, strconv.Itoa(si.Port))
}

func serviceKey(si ServiceInfo) string {
	return servicePrefix + si.ServiceName + "/" + si.Addr()
}

// Config holds the cluster store client options
type Config struct {
	TLS *tls.Config
}

// API is the service registry of a cluster store
type API interface {
	// Register a service. The registration expires after TTL seconds
	// unless refreshed by the client.
	RegisterService(serviceInfo ServiceInfo) error

	// List all end points for a service
	GetService(name string) ([]ServiceInfo, error)

	// Deregister a service and stop refreshing it
	DeregisterService(serviceInfo ServiceInfo) error
}

// Plugin creates clients of one kind of cluster store
type Plugin interface {
	NewClient(endpoints []string, config *Config) (API, error)
}

var (
	pluginList  = make(map[string]Plugin)
	pluginMutex = new(sync.Mutex)
)

// RegisterPlugin registers a cluster store plugin under a url scheme
func RegisterPlugin(name string, plugin Plugin) {
	pluginMutex.Lock()
	defer pluginMutex.Unlock()

	pluginList[name] = plugin
}

// GetPlugin returns the plugin of a url scheme, nil if there is none
func GetPlugin(name string) Plugin {
	pluginMutex.Lock()
	defer pluginMutex.Unlock()

	if pluginList[name] == nil {
		log.Errorf("Confstore Plugin %s not registered", name)
	}
	return pluginList[name]
}
