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

package objdb

import (
	"strings"

	"github.com/pkg/errors"

	log "github.com/sirupsen/logrus"
)

var defaultDbURL = "etcd://127.0.0.1:2379"

// NewClient Create a new conf store
func NewClient(dbURL string) (API, error) {
	return NewClientWithConfig(dbURL, nil)
}

// NewClientWithConfig Create a new conf store with options
func NewClientWithConfig(dbURL string, config *Config) (API, error) {
	// check if we should use default db
	if dbURL == "" {
		dbURL = defaultDbURL
	}

	parts := strings.SplitN(dbURL, "://", 2)
	if len(parts) < 2 || parts[1] == "" {
		log.Errorf("Invalid DB URL format %s", dbURL)
		return nil, errors.Errorf("invalid DB URL %q", dbURL)
	}
	clientName := parts[0]
	clientURLs := strings.Split(parts[1], ",")

	plugin := GetPlugin(clientName)
	if plugin == nil {
		return nil, errors.Errorf("unsupported DB type %q", clientName)
	}

	endpoints := make([]string, 0, len(clientURLs))
	for _, u := range clientURLs {
		endpoints = append(endpoints, "http://"+u)
	}

	cl, err := plugin.NewClient(endpoints, config)
	if err != nil {
		log.Errorf("Error creating client %s to url %s. Err: %v", clientName, parts[1], err)
		return nil, errors.Wrapf(err, "connecting to %s", dbURL)
	}

	return cl, nil
}
