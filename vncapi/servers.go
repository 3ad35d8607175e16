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
	"errors"
	"sync"
)

var errNoAPIServers = errors.New("no api servers configured")

// APIServers keeps the ordered set of api server addresses (host:port) and
// hands them out round-robin.
type APIServers struct {
	mu      sync.Mutex
	servers []string
	index   int
}

// NewAPIServers returns a server set with the provided addresses
func NewAPIServers(servers ...string) *APIServers {
	s := &APIServers{index: -1}
	s.Set(servers)
	return s
}

// Snapshot returns a copy of the current server list
func (s *APIServers) Snapshot() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]string(nil), s.servers...)
}

// Set replaces the server list. Duplicates and empty entries are dropped,
// the order of first appearance is kept.
func (s *APIServers) Set(servers []string) {
	seen := make(map[string]bool, len(servers))
	list := make([]string, 0, len(servers))
	for _, srv := range servers {
		if srv == "" || seen[srv] {
			continue
		}
		seen[srv] = true
		list = append(list, srv)
	}

	s.mu.Lock()
	s.servers = list
	s.mu.Unlock()
}

// Get returns the next server of list, or of the current server list when
// list is empty.
func (s *APIServers) Get(list []string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(list) == 0 {
		list = s.servers
	}
	if len(list) == 0 {
		return "", errNoAPIServers
	}

	s.index = (s.index + 1) % len(list)
	return list[s.index], nil
}
