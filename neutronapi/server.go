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

// Package neutronapi serves the neutron REST api on top of a neutron plugin.
package neutronapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/OpenSDN-io/tf-neutron-plugin/core"
	"github.com/OpenSDN-io/tf-neutron-plugin/metrics"
	"github.com/OpenSDN-io/tf-neutron-plugin/services"
	"github.com/OpenSDN-io/tf-neutron-plugin/utils"
	"github.com/OpenSDN-io/tf-neutron-plugin/version"
	"github.com/gorilla/mux"

	log "github.com/sirupsen/logrus"
)

// URLPrefix is the path prefix of the neutron api
const URLPrefix = "/neutron"

// APIServer serves the neutron api of a plugin
type APIServer struct {
	plugin core.NeutronPlugin
}

// NewRouter returns the router of the neutron, metrics and version urls
func NewRouter(plugin core.NeutronPlugin) *mux.Router {
	s := &APIServer{plugin: plugin}
	router := mux.NewRouter()
	s.registerRoutes(router)
	return router
}

func (s *APIServer) registerRoutes(router *mux.Router) {
	router.Methods("GET").Path("/version").HandlerFunc(getVersion)
	router.Methods("GET").Path("/metrics").Handler(metrics.Handler())

	api := router.PathPrefix(URLPrefix).Subrouter()
	api.Use(keystoneMiddleware)

	api.Methods("GET").Path("/extensions").HandlerFunc(s.handler("extensions", "list", getExtensions))
	api.Methods("PUT").Path("/routers/{id}/add_router_interface").
		HandlerFunc(s.handler(core.Router.Name(), "add_router_interface", s.addRouterInterface))
	api.Methods("PUT").Path("/routers/{id}/remove_router_interface").
		HandlerFunc(s.handler(core.Router.Name(), "remove_router_interface", s.removeRouterInterface))

	api.Methods("GET").Path("/{collection}/count").HandlerFunc(s.handler("", "count", s.countResources))
	api.Methods("POST").Path("/{collection}").HandlerFunc(s.handler("", "create", s.createResource))
	api.Methods("GET").Path("/{collection}").HandlerFunc(s.handler("", "list", s.listResources))
	api.Methods("GET").Path("/{collection}/{id}").HandlerFunc(s.handler("", "get", s.getResource))
	api.Methods("PUT").Path("/{collection}/{id}").HandlerFunc(s.handler("", "update", s.updateResource))
	api.Methods("DELETE").Path("/{collection}/{id}").HandlerFunc(s.handler("", "delete", s.deleteResource))

	router.NotFoundHandler = http.HandlerFunc(utils.UnknownAction)
}

// statusRecorder keeps the status code written to a response
type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.code = code
	sr.ResponseWriter.WriteHeader(code)
}

// unknownResource labels the metrics of requests for unknown collections
const unknownResource = "unknown"

// handler wraps an api function, recording the request metrics under
// resource and operation. An empty resource is taken from the collection of
// the request.
func (s *APIServer) handler(resource, operation string, fn utils.HTTPAPIFunc) http.HandlerFunc {
	h := utils.MakeHTTPHandler(fn, errorResponse)
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
		h(rec, r)

		label := resource
		if label == "" {
			label = unknownResource
			if rt, err := core.ResourceTypeForCollection(mux.Vars(r)["collection"]); err == nil {
				label = rt.Name()
			}
		}
		metrics.MonitorRequest(label, operation, rec.code, time.Since(start))
	}
}

func getVersion(w http.ResponseWriter, r *http.Request) {
	if err := utils.WriteJSON(w, http.StatusOK, version.Get()); err != nil {
		log.Errorf("Error writing version. Err: %v", err)
	}
}

func getExtensions(w http.ResponseWriter, r *http.Request, vars map[string]string) (interface{}, error) {
	return map[string]interface{}{"extensions": services.EntryPoints()}, nil
}

func resourceType(vars map[string]string) (core.ResourceType, error) {
	rt, err := core.ResourceTypeForCollection(vars["collection"])
	if err != nil {
		return rt, &unknownCollectionError{collection: vars["collection"]}
	}
	return rt, nil
}

// decodeBody decodes a json request body, keeping numbers as json.Number
func decodeBody(r *http.Request, resource string, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return core.BadRequest(resource, "Invalid request body: "+err.Error())
	}
	return nil
}

// listQuery splits the query of a list request into the requested fields
// and the filters
func listQuery(r *http.Request) (core.Filters, []string) {
	var fields []string
	filters := core.Filters{}
	for key, values := range r.URL.Query() {
		if key == "fields" {
			fields = append(fields, values...)
			continue
		}
		for _, value := range values {
			filters[key] = append(filters[key], value)
		}
	}
	return filters, fields
}

func (s *APIServer) createResource(w http.ResponseWriter, r *http.Request, vars map[string]string) (interface{}, error) {
	rt, err := resourceType(vars)
	if err != nil {
		return nil, err
	}

	body := core.Body{}
	if err := decodeBody(r, rt.Name(), &body); err != nil {
		return nil, err
	}
	log.Infof("Received %s create: %+v", rt, body)

	res, err := s.plugin.CreateResource(r.Context(), rt, requestContext(r), body)
	if err != nil {
		return nil, err
	}
	return core.Body{rt.Name(): res}, nil
}

func (s *APIServer) getResource(w http.ResponseWriter, r *http.Request, vars map[string]string) (interface{}, error) {
	rt, err := resourceType(vars)
	if err != nil {
		return nil, err
	}

	res, err := s.plugin.GetResource(r.Context(), rt, requestContext(r), vars["id"], r.URL.Query()["fields"])
	if err != nil {
		return nil, err
	}
	return core.Body{rt.Name(): res}, nil
}

func (s *APIServer) updateResource(w http.ResponseWriter, r *http.Request, vars map[string]string) (interface{}, error) {
	rt, err := resourceType(vars)
	if err != nil {
		return nil, err
	}

	body := core.Body{}
	if err := decodeBody(r, rt.Name(), &body); err != nil {
		return nil, err
	}
	log.Infof("Received %s update %s: %+v", rt, vars["id"], body)

	res, err := s.plugin.UpdateResource(r.Context(), rt, requestContext(r), vars["id"], body)
	if err != nil {
		return nil, err
	}
	return core.Body{rt.Name(): res}, nil
}

func (s *APIServer) deleteResource(w http.ResponseWriter, r *http.Request, vars map[string]string) (interface{}, error) {
	rt, err := resourceType(vars)
	if err != nil {
		return nil, err
	}

	log.Infof("Received %s delete: %s", rt, vars["id"])
	return nil, s.plugin.DeleteResource(r.Context(), rt, requestContext(r), vars["id"])
}

func (s *APIServer) listResources(w http.ResponseWriter, r *http.Request, vars map[string]string) (interface{}, error) {
	rt, err := resourceType(vars)
	if err != nil {
		return nil, err
	}

	filters, fields := listQuery(r)
	list, err := s.plugin.ListResources(r.Context(), rt, requestContext(r), filters, fields)
	if err != nil {
		return nil, err
	}
	return map[string][]core.Resource{rt.Collection(): list}, nil
}

func (s *APIServer) countResources(w http.ResponseWriter, r *http.Request, vars map[string]string) (interface{}, error) {
	rt, err := resourceType(vars)
	if err != nil {
		return nil, err
	}

	filters, _ := listQuery(r)
	return s.plugin.CountResources(r.Context(), rt, requestContext(r), filters)
}

func (s *APIServer) routerInterfaceInfo(r *http.Request) (core.Resource, error) {
	info := core.Resource{}
	if r.ContentLength == 0 {
		return info, nil
	}
	if err := decodeBody(r, "router", &info); err != nil {
		return nil, err
	}
	return info, nil
}

func (s *APIServer) addRouterInterface(w http.ResponseWriter, r *http.Request, vars map[string]string) (interface{}, error) {
	info, err := s.routerInterfaceInfo(r)
	if err != nil {
		return nil, err
	}

	return s.plugin.AddRouterInterface(r.Context(), requestContext(r), vars["id"], info)
}

func (s *APIServer) removeRouterInterface(w http.ResponseWriter, r *http.Request, vars map[string]string) (interface{}, error) {
	info, err := s.routerInterfaceInfo(r)
	if err != nil {
		return nil, err
	}

	return s.plugin.RemoveRouterInterface(r.Context(), requestContext(r), vars["id"], info)
}
