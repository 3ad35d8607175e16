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
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/consul/api"
	"github.com/pkg/errors"

	log "github.com/sirupsen/logrus"
)

// consulPlugin contains consul plugin specific state
type consulPlugin struct {
	mutex *sync.Mutex
}

// ConsulClient has consul client state
type ConsulClient struct {
	client *api.Client // consul client

	mutex     sync.Mutex
	serviceDb map[string]*consulServiceState
}

// Service state
type consulServiceState struct {
	ServiceName string        // Name of the service
	TTL         string        // Session TTL
	SessionID   string        // session id assigned by consul
	stopChan    chan struct{} // Channel to stop ttl refresh
}

// Max times to retry
const maxConsulRetries = 10

// init Register the plugin
func init() {
	RegisterPlugin("consul", &consulPlugin{mutex: new(sync.Mutex)})
}

// consul keys have no leading slash
func consulKey(key string) string {
	return strings.TrimPrefix(key, "/")
}

func isRetryable(err error) bool {
	return api.IsRetryableError(err) || strings.Contains(err.Error(), "EOF") ||
		strings.Contains(err.Error(), "connection refused")
}

// NewClient initializes the consul client
func (cp *consulPlugin) NewClient(endpoints []string, config *Config) (API, error) {
	cp.mutex.Lock()
	defer cp.mutex.Unlock()

	if len(endpoints) == 0 {
		endpoints = []string{"127.0.0.1:8500"}
	}

	consulConfig := api.DefaultConfig()
	consulConfig.Address = strings.TrimPrefix(endpoints[0], "http://")
	if config != nil && config.TLS != nil {
		consulConfig.Scheme = "https"
		consulConfig.Transport.TLSClientConfig = config.TLS
	}

	client, err := api.NewClient(consulConfig)
	if err != nil {
		log.Errorf("Error initializing consul client. Err: %v", err)
		return nil, err
	}

	// verify we can reach the consul
	_, _, err = client.KV().List(consulKey(servicePrefix), nil)
	for i := 0; err != nil && isRetryable(err) && i < maxConsulRetries; i++ {
		// Retry after a delay
		time.Sleep(time.Second)
		_, _, err = client.KV().List(consulKey(servicePrefix), nil)
	}
	if err != nil {
		log.Errorf("Error connecting to consul. Err: %v", err)
		return nil, err
	}

	return &ConsulClient{
		client:    client,
		serviceDb: make(map[string]*consulServiceState),
	}, nil
}

// RegisterService registers a service
// The key is acquired by a consul session with a TTL which is renewed in
// the background.
func (cp *ConsulClient) RegisterService(serviceInfo ServiceInfo) error {
	keyName := consulKey(serviceKey(serviceInfo))

	log.Infof("Registering service key: %s, value: %+v", keyName, serviceInfo)

	// if there is a previously registered service, release it first
	cp.mutex.Lock()
	_, ok := cp.serviceDb[keyName]
	cp.mutex.Unlock()
	if ok {
		cp.DeregisterService(serviceInfo)
	}

	jsonVal, err := json.Marshal(serviceInfo)
	if err != nil {
		log.Errorf("Json conversion error. Err %v", err)
		return err
	}

	sessCfg := api.SessionEntry{
		Name:      keyName,
		Behavior:  api.SessionBehaviorDelete,
		LockDelay: 10 * time.Millisecond,
		TTL:       fmt.Sprintf("%ds", serviceInfo.TTL),
	}

	sessionID, _, err := cp.client.Session().CreateNoChecks(&sessCfg, nil)
	if err != nil {
		log.Errorf("Error Creating session for key %s. Err: %v", keyName, err)
		return err
	}

	// Delete a stale registration left by an earlier run
	if _, err := cp.client.KV().Delete(keyName, nil); err != nil {
		log.Errorf("Error deleting key %s. Err: %v", keyName, err)
		return err
	}

	succ, _, err := cp.client.KV().Acquire(&api.KVPair{Key: keyName, Value: jsonVal, Session: sessionID}, nil)
	if err != nil {
		log.Errorf("Error setting key %s, Err: %v", keyName, err)
		return err
	}
	if !succ {
		log.Errorf("Failed to acquire key %s. Already acquired", keyName)
		return errors.New("Key already acquired")
	}

	srvState := &consulServiceState{
		ServiceName: serviceInfo.ServiceName,
		TTL:         sessCfg.TTL,
		SessionID:   sessionID,
		stopChan:    make(chan struct{}),
	}

	cp.mutex.Lock()
	cp.serviceDb[keyName] = srvState
	cp.mutex.Unlock()

	go cp.renewService(keyName, srvState)

	return nil
}

// GetService gets all instances of a service
func (cp *ConsulClient) GetService(srvName string) ([]ServiceInfo, error) {
	if srvName == "" {
		return nil, errors.New("empty service name")
	}
	keyName := consulKey(servicePrefix + srvName + "/")

	pairs, _, err := cp.client.KV().List(keyName, &api.QueryOptions{RequireConsistent: true})
	if err != nil {
		log.Errorf("Error getting key %s. Err: %v", keyName, err)
		return nil, err
	}

	values := make([][]byte, 0, len(pairs))
	for _, pair := range pairs {
		values = append(values, pair.Value)
	}
	return decodeServices(values)
}

// DeregisterService deregisters a service instance
func (cp *ConsulClient) DeregisterService(serviceInfo ServiceInfo) error {
	keyName := consulKey(serviceKey(serviceInfo))

	cp.mutex.Lock()
	srvState := cp.serviceDb[keyName]
	delete(cp.serviceDb, keyName)
	cp.mutex.Unlock()

	if srvState == nil {
		log.Errorf("Could not find the service in db %s", keyName)
		return fmt.Errorf("Service %s not found", serviceInfo.ServiceName)
	}

	log.Infof("Deregistering service key: %s, value: %+v", keyName, serviceInfo)

	// stop the refresh thread and delete service
	close(srvState.stopChan)

	// destroying the session deletes the key
	if _, err := cp.client.Session().Destroy(srvState.SessionID, nil); err != nil {
		log.Errorf("Error destroying session %s for key %s. Err: %v", srvState.SessionID, keyName, err)
		return err
	}

	return nil
}

// renewService keeps the service session alive until stopped
func (cp *ConsulClient) renewService(keyName string, srvState *consulServiceState) {
	ttl, err := time.ParseDuration(srvState.TTL)
	if err != nil {
		log.Errorf("Invalid session TTL %s for key %s", srvState.TTL, keyName)
		return
	}

	for {
		select {
		case <-time.After(ttl / 3):
			entry, _, err := cp.client.Session().Renew(srvState.SessionID, nil)
			if err != nil {
				log.Errorf("Error renewing session %s for key %s. Err: %v", srvState.SessionID, keyName, err)
			} else if entry == nil {
				log.Errorf("Session %s for key %s has expired", srvState.SessionID, keyName)
			}

		case <-srvState.stopChan:
			log.Infof("Stop refreshing key %s", keyName)
			return
		}
	}
}
