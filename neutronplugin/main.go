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

package main

import (
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/OpenSDN-io/tf-neutron-plugin/config"
	"github.com/OpenSDN-io/tf-neutron-plugin/neutronplugin/daemon"
	"github.com/OpenSDN-io/tf-neutron-plugin/services"
	"github.com/OpenSDN-io/tf-neutron-plugin/utils"
	"github.com/OpenSDN-io/tf-neutron-plugin/utils/netutils"
	"github.com/OpenSDN-io/tf-neutron-plugin/version"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"
)

const (
	binName          = "neutronplugin"
	defaultListenURL = "0.0.0.0:9697"
)

// loadConfig reads the config file if one is set and applies the flags
// which are set on top of it
func loadConfig(ctx *cli.Context) (*config.Config, error) {
	conf := &config.Config{ConfigFile: ctx.String("config")}
	if conf.ConfigFile != "" {
		if err := config.LoadConfig(conf); err != nil {
			return nil, err
		}
		logrus.Infof("Using %s config file: %s", binName, conf.ConfigFile)
	}

	if ctx.IsSet("api-servers") {
		conf.APIServer.APIServers = utils.SplitList(ctx.String("api-servers"))
	}
	if ctx.IsSet("use-ssl") {
		conf.APIServer.UseSSL = ctx.Bool("use-ssl")
	}
	if ctx.IsSet("insecure") {
		conf.APIServer.Insecure = ctx.Bool("insecure")
	}
	if ctx.IsSet("contrail-extensions") {
		conf.APIServer.ContrailExtensions = ctx.Bool("contrail-extensions")
	}
	if ctx.IsSet("apply-subnet-host-routes") {
		conf.APIServer.ApplySubnetHostRoutes = ctx.Bool("apply-subnet-host-routes")
	}
	if ctx.IsSet("api-timeout") {
		conf.APIServer.Timeout = ctx.Int("api-timeout")
	}
	if ctx.IsSet("listen-url") {
		conf.Server.Listen = ctx.String("listen-url")
	}
	if ctx.IsSet("cluster-store") {
		conf.Server.ClusterStore = ctx.String("cluster-store")
	}
	if ctx.IsSet("service-plugins") {
		conf.Server.ServicePlugins = utils.SplitList(ctx.String("service-plugins"))
	}

	if err := conf.APIServer.Validate(); err != nil {
		return nil, err
	}
	if conf.Server.Listen == "" {
		conf.Server.Listen = defaultListenURL
	}

	return conf, nil
}

func initNeutronPlugin(ctx *cli.Context) (*daemon.NeutronDaemon, error) {
	// 1. validate and init logging
	if err := utils.InitLogging(binName, ctx); err != nil {
		return nil, err
	}

	// 2. read the config file and the flags
	conf, err := loadConfig(ctx)
	if err != nil {
		return nil, err
	}

	// 3. validate listen address
	if err := netutils.ValidateBindAddress(conf.Server.Listen); err != nil {
		return nil, err
	}
	logrus.Infof("Using %s listen-url: %s", binName, conf.Server.Listen)

	// 4. validate cluster store
	if err := utils.ValidateClusterStore(binName, conf.Server.ClusterStore); err != nil {
		return nil, err
	}

	// 5. validate api servers
	if len(conf.APIServer.APIServers) == 0 && conf.Server.ClusterStore == "" {
		return nil, errors.New("neutronplugin api-servers is not set")
	}
	logrus.Infof("Using %s api servers: %v", binName, conf.APIServer.APIServers)

	// 6. validate service plugins
	eps, err := services.ServicePlugins(conf.Server.ServicePlugins)
	if err != nil {
		return nil, err
	}
	for _, ep := range eps {
		logrus.Infof("Using %s service plugin %s: %s", binName, ep.Name, ep.Target)
	}

	return &daemon.NeutronDaemon{
		ListenURL:      conf.Server.Listen,
		ClusterStore:   conf.Server.ClusterStore,
		APIServers:     conf.APIServer.APIServers,
		ClientConfig:   conf.APIServer.ClientConfig(),
		HandlerOptions: conf.APIServer.HandlerOptions(),
	}, nil
}

func runNeutronPlugin(d *daemon.NeutronDaemon) error {
	if err := d.Init(); err != nil {
		return err
	}
	if err := d.Start(); err != nil {
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logrus.Infof("Received signal %v, shutting down", sig)
		return d.Stop()
	case err := <-d.Done():
		return err
	}
}

func main() {
	app := cli.NewApp()
	app.Version = "\n" + version.String()
	app.Usage = "Contrail neutron core plugin service"
	app.Flags = utils.FlattenFlags(utils.BuildServerFlags(binName), utils.BuildAPIServerFlags(binName), utils.BuildLogFlags(binName))
	sort.Sort(cli.FlagsByName(app.Flags))
	app.Action = func(ctx *cli.Context) error {
		neutronPlugin, err := initNeutronPlugin(ctx)
		if err != nil {
			errmsg := err.Error()
			logrus.Error(errmsg)
			// use 22 Invalid argument as error return code
			return cli.NewExitError(errmsg, 22)
		}
		if err := runNeutronPlugin(neutronPlugin); err != nil {
			logrus.Error(err)
			return cli.NewExitError(err.Error(), 1)
		}
		return nil
	}
	app.Run(os.Args)
}
