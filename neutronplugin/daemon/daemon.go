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

package daemon

import (
	"context"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/OpenSDN-io/tf-neutron-plugin/handlers"
	"github.com/OpenSDN-io/tf-neutron-plugin/metrics"
	"github.com/OpenSDN-io/tf-neutron-plugin/neutronapi"
	"github.com/OpenSDN-io/tf-neutron-plugin/objdb"
	"github.com/OpenSDN-io/tf-neutron-plugin/plugin"
	"github.com/OpenSDN-io/tf-neutron-plugin/utils/netutils"
	"github.com/OpenSDN-io/tf-neutron-plugin/vncapi"
	"github.com/pkg/errors"

	log "github.com/sirupsen/logrus"
)

const (
	// APIServerService is the registry name of the contrail api servers
	APIServerService = "contrail-api"
	// PluginService is the registry name of the neutron plugin
	PluginService = "contrail-neutron-plugin"

	serviceTTL               = 10
	defaultDiscoveryInterval = 30 * time.Second
	shutdownTimeout          = 10 * time.Second
)

// NeutronDaemon serves the neutron api of the contrail plugin
type NeutronDaemon struct {
	// Public state
	ListenURL         string           // URL where the neutron api listens
	ClusterStore      string           // service registry URL, empty disables discovery
	APIServers        []string         // statically configured api servers
	ClientConfig      vncapi.Config    // api server client options
	HandlerOptions    handlers.Options // resource handler options
	DiscoveryInterval time.Duration    // api server discovery period

	// Private state
	servers     *vncapi.APIServers // api servers shared by the client and the plugin
	objdbClient objdb.API          // service registry client
	srvInfo     *objdb.ServiceInfo // our own registration
	server      *http.Server       // neutron api server
	listener    net.Listener       // neutron api listener
	stopChan    chan bool          // Channel to stop the discovery loop
	doneChan    chan error         // Channel notified when serving stops
	stopOnce    sync.Once          // guards Stop
	wg          sync.WaitGroup     // discovery loop
}

// Init builds the plugin and the neutron api router
func (d *NeutronDaemon) Init() error {
	metrics.Register()

	d.servers = vncapi.NewAPIServers(d.APIServers...)

	if d.ClusterStore != "" {
		client, err := objdb.NewClient(d.ClusterStore)
		if err != nil {
			log.Errorf("Failed to connect to cluster store %s. Err: %v", d.ClusterStore, err)
			return err
		}
		d.objdbClient = client

		if err := d.refreshAPIServers(); err != nil {
			log.Warnf("Failed to discover api servers. Err: %v", err)
		}
	}

	if len(d.servers.Snapshot()) == 0 {
		if d.objdbClient == nil {
			return errors.New("no contrail api servers configured")
		}
		log.Warnf("No contrail api servers found, waiting for %s registrations", APIServerService)
	}

	client := vncapi.New(d.servers, d.ClientConfig)
	p := plugin.New(client, d.servers, d.HandlerOptions)

	d.server = &http.Server{Handler: neutronapi.NewRouter(p)}
	d.stopChan = make(chan bool)
	d.doneChan = make(chan error, 1)

	return nil
}

// refreshAPIServers merges the registered api servers with the static ones
func (d *NeutronDaemon) refreshAPIServers() error {
	srvList, err := d.objdbClient.GetService(APIServerService)
	if err != nil {
		return err
	}

	servers := append([]string{}, d.APIServers...)
	for _, srv := range srvList {
		servers = append(servers, srv.Addr())
	}
	d.servers.Set(servers)

	log.Debugf("Using api servers %v", d.servers.Snapshot())
	return nil
}

// runDiscovery refreshes the api servers until stopped
func (d *NeutronDaemon) runDiscovery() {
	defer d.wg.Done()

	interval := d.DiscoveryInterval
	if interval == 0 {
		interval = defaultDiscoveryInterval
	}

	for {
		select {
		case <-time.After(interval):
			if err := d.refreshAPIServers(); err != nil {
				log.Errorf("Failed to discover api servers. Err: %v", err)
			}
		case <-d.stopChan:
			log.Infof("Stopping api server discovery")
			return
		}
	}
}

// registerService advertises the neutron api in the service registry
func (d *NeutronDaemon) registerService() error {
	hostAddr, port, err := netutils.AdvertiseAddr(d.listener.Addr().String())
	if err != nil {
		return err
	}
	hostname, _ := os.Hostname()

	srvInfo := objdb.ServiceInfo{
		ServiceName: PluginService,
		TTL:         serviceTTL,
		HostAddr:    hostAddr,
		Port:        port,
		Hostname:    hostname,
	}
	if err := d.objdbClient.RegisterService(srvInfo); err != nil {
		return err
	}
	d.srvInfo = &srvInfo

	log.Infof("Registered %s service with registry", PluginService)
	return nil
}

// Start listens on ListenURL and serves the neutron api in the background
func (d *NeutronDaemon) Start() error {
	listener, err := net.Listen("tcp", d.ListenURL)
	if err != nil {
		log.Errorf("Failed to listen on %s. Err: %v", d.ListenURL, err)
		return err
	}
	d.listener = listener

	if d.objdbClient != nil {
		d.wg.Add(1)
		go d.runDiscovery()

		if err := d.registerService(); err != nil {
			log.Errorf("Error registering service. Err: %v", err)
		}
	}

	log.Infof("Neutron plugin listening on %s", listener.Addr())

	go func() {
		err := d.server.Serve(listener)
		if err == http.ErrServerClosed {
			err = nil
		}
		d.doneChan <- err
	}()

	return nil
}

// Addr returns the address the neutron api listens on
func (d *NeutronDaemon) Addr() string {
	return d.listener.Addr().String()
}

// Done is notified with the serve error, nil after Stop
func (d *NeutronDaemon) Done() <-chan error {
	return d.doneChan
}

// Stop deregisters the service and shuts the server down gracefully
func (d *NeutronDaemon) Stop() error {
	var err error
	d.stopOnce.Do(func() {
		close(d.stopChan)
		d.wg.Wait()

		if d.srvInfo != nil {
			if derr := d.objdbClient.DeregisterService(*d.srvInfo); derr != nil {
				log.Errorf("Error deregistering service. Err: %v", derr)
			}
		}

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err = d.server.Shutdown(ctx)
		log.Infof("Neutron plugin stopped")
	})
	return err
}
