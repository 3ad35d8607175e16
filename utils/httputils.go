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

package utils

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

// HTTPAPIFunc handles a request and returns the value to send back as json
type HTTPAPIFunc func(w http.ResponseWriter, r *http.Request, vars map[string]string) (interface{}, error)

// HTTPErrorFunc converts a handler error to a status code and a json body
type HTTPErrorFunc func(err error) (int, interface{})

// successCode returns the status of a successful request: 201 for a
// creation, 204 for a deletion, 200 otherwise
func successCode(method string) int {
	switch method {
	case http.MethodPost:
		return http.StatusCreated
	case http.MethodDelete:
		return http.StatusNoContent
	}
	return http.StatusOK
}

// MakeHTTPHandler is a simple Wrapper for http handlers
func MakeHTTPHandler(handlerFunc HTTPAPIFunc, errFunc HTTPErrorFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp, err := handlerFunc(w, r, mux.Vars(r))
		if err != nil {
			log.Errorf("Handler for %s %s returned error: %s", r.Method, r.URL, err)

			code, body := errFunc(err)
			if body == nil {
				http.Error(w, err.Error(), code)
				return
			}

			if err := WriteJSON(w, code, body); err != nil {
				log.Errorf("Error writing error response. Err: %v", err)
			}
			return
		}

		code := successCode(r.Method)
		if code == http.StatusNoContent {
			w.WriteHeader(code)
			return
		}

		if err := WriteJSON(w, code, resp); err != nil {
			log.Errorf("Error writing response. Err: %v", err)
		}
	}
}

// WriteJSON writes the value v to the http response stream as json with
// standard json encoding.
func WriteJSON(w http.ResponseWriter, code int, v interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	return json.NewEncoder(w).Encode(v)
}

// UnknownAction is a catchall handler for unknown urls
func UnknownAction(w http.ResponseWriter, r *http.Request) {
	log.Infof("Unknown action at %q", r.URL.Path)
	http.NotFound(w, r)
}
