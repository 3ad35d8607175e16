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

// Package config loads the plugin configuration file.
package config

import (
	"io/ioutil"
	"time"

	"github.com/OpenSDN-io/tf-neutron-plugin/handlers"
	"github.com/OpenSDN-io/tf-neutron-plugin/vncapi"
	"github.com/pkg/errors"

	yaml "gopkg.in/yaml.v2"
)

// Config is the neutron plugin configuration file
type Config struct {
	// Not supplied in YAML config file
	ConfigFile string `yaml:"-"`
	// Config file fields
	APIServer APIServerConfig `yaml:"apiserver"`
	Server    ServerConfig    `yaml:"server"`
}

// APIServerConfig is the contrail api server section
type APIServerConfig struct {
	APIServers            []string `yaml:"api_servers"`
	UseSSL                bool     `yaml:"use_ssl"`
	Insecure              bool     `yaml:"insecure"`
	ContrailExtensions    bool     `yaml:"contrail_extensions"`
	ApplySubnetHostRoutes bool     `yaml:"apply_subnet_host_routes"`
	Timeout               int      `yaml:"timeout"` // seconds
}

// ServerConfig is the neutron api section
type ServerConfig struct {
	Listen         string   `yaml:"listen"`
	ClusterStore   string   `yaml:"cluster_store"`
	ServicePlugins []string `yaml:"service_plugins"`
}

// LoadConfig reads conf.ConfigFile into conf
func LoadConfig(conf *Config) error {
	data, err := ioutil.ReadFile(conf.ConfigFile)
	if err != nil {
		return err
	}

	if err := yaml.Unmarshal(data, conf); err != nil {
		return errors.Wrapf(err, "parsing %s", conf.ConfigFile)
	}

	if err := conf.APIServer.Validate(); err != nil {
		return errors.Wrapf(err, "validating %s", conf.ConfigFile)
	}

	return nil
}

// Validate checks the api server options
func (c APIServerConfig) Validate() error {
	if c.Timeout < 0 {
		return errors.Errorf("invalid api server timeout %d", c.Timeout)
	}
	return nil
}

// ClientConfig returns the api server client options
func (c APIServerConfig) ClientConfig() vncapi.Config {
	return vncapi.Config{
		UseSSL:   c.UseSSL,
		Insecure: c.Insecure,
		Timeout:  time.Duration(c.Timeout) * time.Second,
	}
}

// HandlerOptions returns the resource handler options
func (c APIServerConfig) HandlerOptions() handlers.Options {
	return handlers.Options{
		ContrailExtensionsEnabled: c.ContrailExtensions,
		ApplySubnetHostRoutes:     c.ApplySubnetHostRoutes,
	}
}
