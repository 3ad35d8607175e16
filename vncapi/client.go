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

// Package vncapi is a REST client for the contrail api server (the vnc api).
// Objects are addressed by their vnc type name, e.g. "virtual-network", and
// carried as generic resources.
package vncapi

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/OpenSDN-io/tf-neutron-plugin/core"
	"github.com/OpenSDN-io/tf-neutron-plugin/metrics"
	"github.com/pkg/errors"

	log "github.com/sirupsen/logrus"
)

const defaultTimeout = 30 * time.Second

// RefOperation is the operation of a reference update
type RefOperation string

// Reference update operations
const (
	RefAdd    RefOperation = "ADD"
	RefDelete RefOperation = "DELETE"
)

// Config holds the client options
type Config struct {
	UseSSL   bool
	Insecure bool
	Timeout  time.Duration
}

// ListOptions narrow down a list or count request
type ListOptions struct {
	ParentID string
	// Filters are exact match filters evaluated by the api server
	Filters map[string]string
	Fields  []string
}

// Client provides the methods for issuing requests to the api servers
type Client struct {
	servers *APIServers
	scheme  string
	httpC   *http.Client
}

// New instantiates a new api server client
func New(servers *APIServers, cfg Config) *Client {
	scheme := "http"
	transport := http.DefaultTransport
	if cfg.UseSSL {
		scheme = "https"
		transport = &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			TLSHandshakeTimeout: 10 * time.Second,
			TLSClientConfig:     &tls.Config{InsecureSkipVerify: cfg.Insecure},
		}
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{
		servers: servers,
		scheme:  scheme,
		httpC:   &http.Client{Transport: transport, Timeout: timeout},
	}
}

// Servers returns the api server set used by the client
func (c *Client) Servers() *APIServers {
	return c.servers
}

func (c *Client) formURL(server, rsrc string) string {
	return fmt.Sprintf("%s://%s/%s", c.scheme, server, rsrc)
}

// doRequest sends req (json encoded unless nil) and decodes the response
// into resp (unless nil)
func (c *Client) doRequest(ctx context.Context, method, rsrc string, req, resp interface{}) error {
	server, err := c.servers.Get(nil)
	if err != nil {
		return err
	}

	var body io.Reader
	if req != nil {
		content, err := json.Marshal(req)
		if err != nil {
			return core.Errorf("json marshalling failed. Error: %s", err)
		}
		body = bytes.NewReader(content)
	}

	url := c.formURL(server, rsrc)
	httpReq, err := http.NewRequest(method, url, body)
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, url)
	}
	httpReq = httpReq.WithContext(ctx)
	if req != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if token, ok := authToken(ctx); ok {
		httpReq.Header.Set(AuthTokenHeader, token)
	}

	start := time.Now()
	res, err := c.httpC.Do(httpReq)
	if err != nil {
		metrics.MonitorAPIServerRequest(method, 0, time.Since(start))
		log.Errorf("Error during http %s %s. Err: %v", method, url, err)
		return errors.Wrapf(err, "%s %s", method, url)
	}
	defer res.Body.Close()
	metrics.MonitorAPIServerRequest(method, res.StatusCode, time.Since(start))

	content, err := ioutil.ReadAll(res.Body)
	if err != nil {
		return errors.Wrapf(err, "reading response of %s %s", method, url)
	}

	if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
		log.Debugf("HTTP error response for %s %s. StatusCode: %d", method, url, res.StatusCode)
		return &HTTPError{Method: method, URL: url, StatusCode: res.StatusCode, Body: strings.TrimSpace(string(content))}
	}

	if resp == nil || len(content) == 0 {
		return nil
	}

	decoder := json.NewDecoder(bytes.NewReader(content))
	decoder.UseNumber()
	if err := decoder.Decode(resp); err != nil {
		log.Errorf("Error during json unmarshall of %s %s. Err: %v", method, url, err)
		return errors.Wrapf(err, "decoding response of %s %s", method, url)
	}

	log.Debugf("Results for %s %s: %+v", method, url, resp)
	return nil
}

func unwrap(objType string, envelope map[string]core.Resource) (core.Resource, error) {
	obj, ok := envelope[objType]
	if !ok || obj == nil {
		return nil, core.Errorf("response does not carry a %s", objType)
	}
	return obj, nil
}

// Create creates an object and returns what the api server reports about it
func (c *Client) Create(ctx context.Context, objType string, obj core.Resource) (core.Resource, error) {
	envelope := map[string]core.Resource{}
	err := c.doRequest(ctx, http.MethodPost, objType+"s", map[string]core.Resource{objType: obj}, &envelope)
	if err != nil {
		return nil, err
	}

	return unwrap(objType, envelope)
}

// Read reads an object by uuid
func (c *Client) Read(ctx context.Context, objType, uuid string) (core.Resource, error) {
	envelope := map[string]core.Resource{}
	err := c.doRequest(ctx, http.MethodGet, objType+"/"+uuid, nil, &envelope)
	if err != nil {
		return nil, err
	}

	return unwrap(objType, envelope)
}

// Update updates the attributes of an object present in obj
func (c *Client) Update(ctx context.Context, objType, uuid string, obj core.Resource) error {
	return c.doRequest(ctx, http.MethodPut, objType+"/"+uuid, map[string]core.Resource{objType: obj}, nil)
}

// Delete deletes an object by uuid
func (c *Client) Delete(ctx context.Context, objType, uuid string) error {
	return c.doRequest(ctx, http.MethodDelete, objType+"/"+uuid, nil, nil)
}

func listQuery(opts ListOptions) url.Values {
	query := url.Values{}
	if opts.ParentID != "" {
		query.Set("parent_id", opts.ParentID)
	}

	if len(opts.Filters) > 0 {
		keys := make([]string, 0, len(opts.Filters))
		for key := range opts.Filters {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		filters := make([]string, 0, len(keys))
		for _, key := range keys {
			filters = append(filters, key+"=="+opts.Filters[key])
		}
		query.Set("filters", strings.Join(filters, ","))
	}

	if len(opts.Fields) > 0 {
		query.Set("fields", strings.Join(opts.Fields, ","))
	}

	return query
}

// List lists objects of a type with all their attributes
func (c *Client) List(ctx context.Context, objType string, opts ListOptions) ([]core.Resource, error) {
	query := listQuery(opts)
	query.Set("detail", "true")

	envelope := map[string][]map[string]core.Resource{}
	err := c.doRequest(ctx, http.MethodGet, objType+"s?"+query.Encode(), nil, &envelope)
	if err != nil {
		return nil, err
	}

	// detailed listings wrap every object in its own envelope
	objs := []core.Resource{}
	for _, wrapped := range envelope[objType+"s"] {
		if obj, ok := wrapped[objType]; ok {
			objs = append(objs, obj)
		}
	}

	return objs, nil
}

// Count returns the number of objects of a type
func (c *Client) Count(ctx context.Context, objType string, opts ListOptions) (int, error) {
	query := listQuery(opts)
	query.Set("count", "true")

	envelope := map[string]core.Count{}
	err := c.doRequest(ctx, http.MethodGet, objType+"s?"+query.Encode(), nil, &envelope)
	if err != nil {
		return 0, err
	}

	count, ok := envelope[objType+"s"]
	if !ok {
		return 0, core.Errorf("count response does not carry %ss", objType)
	}

	return count.Count, nil
}

// RefUpdate adds or deletes a reference from an object to another
func (c *Client) RefUpdate(ctx context.Context, objType, uuid, refType, refUUID string, op RefOperation) error {
	req := map[string]interface{}{
		"type":      objType,
		"uuid":      uuid,
		"ref-type":  refType,
		"ref-uuid":  refUUID,
		"operation": string(op),
		"attr":      nil,
	}

	return c.doRequest(ctx, http.MethodPost, "ref-update", req, nil)
}
