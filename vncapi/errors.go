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
	"fmt"
	"net/http"

	"github.com/pkg/errors"
)

// HTTPError is returned when the api server answers with an error status
type HTTPError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%s %s: HTTP error response. StatusCode: %d, Body: %s",
		e.Method, e.URL, e.StatusCode, e.Body)
}

// StatusCode returns the api server status code carried by err, if any
func StatusCode(err error) (int, bool) {
	if herr, ok := errors.Cause(err).(*HTTPError); ok {
		return herr.StatusCode, true
	}
	return 0, false
}

// IsNotFound reports whether err is a 404 from the api server
func IsNotFound(err error) bool {
	code, ok := StatusCode(err)
	return ok && code == http.StatusNotFound
}

// IsConflict reports whether err is a 409 from the api server
func IsConflict(err error) bool {
	code, ok := StatusCode(err)
	return ok && code == http.StatusConflict
}

// NotFound returns an error equivalent to a 404 from the api server
func NotFound(objType, id string) error {
	return &HTTPError{
		Method:     http.MethodGet,
		URL:        objType + "/" + id,
		StatusCode: http.StatusNotFound,
		Body:       fmt.Sprintf("%s %s not found", objType, id),
	}
}

// Conflict returns an error equivalent to a 409 from the api server
func Conflict(objType, id, msg string) error {
	return &HTTPError{
		Method:     http.MethodPut,
		URL:        objType + "/" + id,
		StatusCode: http.StatusConflict,
		Body:       msg,
	}
}
