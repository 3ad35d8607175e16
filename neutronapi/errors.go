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

package neutronapi

import (
	"fmt"
	"net/http"

	"github.com/OpenSDN-io/tf-neutron-plugin/core"
	"github.com/OpenSDN-io/tf-neutron-plugin/vncapi"
	"github.com/pkg/errors"
)

type unknownCollectionError struct {
	collection string
}

func (e *unknownCollectionError) Error() string {
	return fmt.Sprintf("The resource could not be found: %s", e.collection)
}

// NeutronError is the body of an error response
type NeutronError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type errorBody struct {
	NeutronError NeutronError `json:"NeutronError"`
}

// errorResponse maps an error to its status code and neutron error body
func errorResponse(err error) (int, interface{}) {
	code, errType := http.StatusInternalServerError, "InternalError"

	switch errors.Cause(err).(type) {
	case *core.BadRequestError:
		code, errType = http.StatusBadRequest, "BadRequest"
	case *unknownCollectionError:
		code, errType = http.StatusNotFound, "NotFound"
	default:
		if status, ok := vncapi.StatusCode(err); ok {
			switch status {
			case http.StatusBadRequest:
				code, errType = status, "BadRequest"
			case http.StatusNotFound:
				code, errType = status, "NotFound"
			case http.StatusConflict:
				code, errType = status, "Conflict"
			case http.StatusUnauthorized:
				code, errType = status, "NotAuthorized"
			case http.StatusForbidden:
				code, errType = status, "Forbidden"
			}
		}
	}

	return code, errorBody{NeutronError{Type: errType, Message: err.Error()}}
}
