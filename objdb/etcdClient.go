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
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/pkg/errors"
	client "go.etcd.io/etcd/client/v3"

	log "github.com/sirupsen/logrus"
)

type etcdPlugin struct {
	mutex *sync.Mutex
}

// EtcdClient has etcd client state
type EtcdClient struct {
	client *client.Client

	mutex     sync.Mutex
	serviceDb map[string]*etcdServiceState
}

// Service state
type etcdServiceState struct {
	ServiceName string
	KeyName     string
	TTL         int64

	// Channel to stop ttl refresh
	stopChan chan bool

	// Channel notified when ttl refresh is stopped
	stoppedChan chan bool

	// ID of the lease keeping keys alive
	leaseID client.LeaseID
}

const etcdTimeout = 5 * time.Second

// Register the plugin
func init() {
	RegisterPlugin("etcd", &etcdPlugin{mutex: new(sync.Mutex)})
}

// NewClient initializes the etcd client
func (ep *etcdPlugin) NewClient(endpoints []string, config *Config) (API, error) {
	ep.mutex.Lock()
	defer ep.mutex.Unlock()

	// Setup default url
	if len(endpoints) == 0 {
		endpoints = []string{"http://127.0.0.1:2379"}
	}

	etcdConfig := client.Config{
		Endpoints:   endpoints,
		DialTimeout: etcdTimeout,
	}
	if config != nil && config.TLS != nil {
		etcdConfig.TLS = config.TLS
	}

	etcdClient, err := client.New(etcdConfig)
	if err != nil {
		log.Errorf("Error creating etcd client. Err: %v", err)
		return nil, err
	}

	// Make sure we can read from etcd
	ctx, cancel := context.WithTimeout(context.Background(), etcdTimeout)
	defer cancel()
	if _, err := etcdClient.Get(ctx, servicePrefix, client.WithPrefix(), client.WithCountOnly()); err != nil {
		log.Errorf("Failed to connect to etcd. Err: %v", err)
		etcdClient.Close()
		return nil, err
	}

	return &EtcdClient{
		client:    etcdClient,
		serviceDb: make(map[string]*etcdServiceState),
	}, nil
}

// decodeServices parses the registrations stored under a service prefix
func decodeServices(values [][]byte) ([]ServiceInfo, error) {
	var srvcList []ServiceInfo
	for _, value := range values {
		var respSrvc ServiceInfo
		if err := json.Unmarshal(value, &respSrvc); err != nil {
			log.Errorf("Error parsing object %s, Err %v", value, err)
			return nil, errors.Wrap(err, "parsing service registration")
		}
		srvcList = append(srvcList, respSrvc)
	}
	return srvcList, nil
}

// GetService lists all end points for a service
func (ep *EtcdClient) GetService(name string) ([]ServiceInfo, error) {
	if name == "" {
		return nil, errors.New("empty service name")
	}
	keyName := servicePrefix + name + "/"

	ctx, cancel := context.WithTimeout(context.Background(), etcdTimeout)
	defer cancel()

	resp, err := ep.client.Get(ctx, keyName, client.WithPrefix(), client.WithSort(client.SortByKey, client.SortAscend))
	if err != nil {
		log.Errorf("Error getting key %s. Err: %v", keyName, err)
		return nil, err
	}

	values := make([][]byte, 0, len(resp.Kvs))
	for _, kv := range resp.Kvs {
		values = append(values, kv.Value)
	}
	return decodeServices(values)
}

// RegisterService Register a service
// Service is registered with a lease of TTL seconds and a goroutine is
// created to refresh the lease.
func (ep *EtcdClient) RegisterService(serviceInfo ServiceInfo) error {
	keyName := serviceKey(serviceInfo)

	log.Infof("Registering service key: %s, value: %+v", keyName, serviceInfo)

	// if there is a previously registered service, stop refreshing it
	ep.mutex.Lock()
	_, ok := ep.serviceDb[keyName]
	ep.mutex.Unlock()
	if ok {
		ep.DeregisterService(serviceInfo)
	}

	jsonVal, err := json.Marshal(serviceInfo)
	if err != nil {
		log.Errorf("Json conversion error. Err %v", err)
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), etcdTimeout)
	defer cancel()

	lease, err := ep.client.Grant(ctx, serviceInfo.TTL)
	if err != nil {
		return errors.Wrap(err, "failed to create lease")
	}

	log.Infof("Got lease id %d for service %s with ttl %d", lease.ID, serviceInfo.ServiceName, serviceInfo.TTL)

	if _, err := ep.client.Put(ctx, keyName, string(jsonVal), client.WithLease(lease.ID)); err != nil {
		log.Errorf("Error setting key %s with lease %d, Err: %v", keyName, lease.ID, err)
		return err
	}

	srvState := &etcdServiceState{
		ServiceName: serviceInfo.ServiceName,
		KeyName:     keyName,
		TTL:         serviceInfo.TTL,
		stopChan:    make(chan bool, 1),
		stoppedChan: make(chan bool, 1),
		leaseID:     lease.ID,
	}

	ep.mutex.Lock()
	ep.serviceDb[keyName] = srvState
	ep.mutex.Unlock()

	go ep.refreshService(srvState)

	return nil
}

// DeregisterService Deregister a service
// This removes the service from the registry and stops the refresh groutine
func (ep *EtcdClient) DeregisterService(serviceInfo ServiceInfo) error {
	keyName := serviceKey(serviceInfo)

	ep.mutex.Lock()
	srvState, ok := ep.serviceDb[keyName]
	delete(ep.serviceDb, keyName)
	ep.mutex.Unlock()

	if !ok {
		log.Errorf("Could not find the service in db %s", keyName)
		return fmt.Errorf("Service %s not found", serviceInfo.ServiceName)
	}

	log.Infof("deregistering service %s with lease %d", serviceInfo.ServiceName, srvState.leaseID)

	ctx, cancel := context.WithTimeout(context.Background(), etcdTimeout)
	defer cancel()

	// revoking the lease deletes the keys
	if _, err := ep.client.Revoke(ctx, srvState.leaseID); err != nil {
		log.Errorf("Error revoking lease for %s (id: %d), err: %v", keyName, srvState.leaseID, err)
	}

	srvState.stopChan <- true
	<-srvState.stoppedChan

	return nil
}

// Keep refreshing the service lease every TTL/3
func (ep *EtcdClient) refreshService(srvState *etcdServiceState) {
	refreshInterval := (time.Duration(srvState.TTL) * time.Second) / 3

	log.Infof("Refreshing service %s with TTL of %d every %d seconds", srvState.ServiceName, srvState.TTL, refreshInterval/time.Second)

	for {
		select {
		case <-time.After(refreshInterval):
			ctx, cancel := context.WithTimeout(context.Background(), etcdTimeout)
			_, err := ep.client.KeepAliveOnce(ctx, srvState.leaseID)
			cancel()
			if err != nil {
				log.Errorf("Error refreshing lease %d for key %s (service: %s). Err: %v", srvState.leaseID, srvState.KeyName, srvState.ServiceName, err)
			}

		case <-srvState.stopChan:
			log.Infof("Stop refreshing key %s with lease %d", srvState.KeyName, srvState.leaseID)
			srvState.stoppedChan <- true
			return
		}
	}
}
