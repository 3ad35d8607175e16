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

package core

import (
	"fmt"
	"runtime"
	"strings"
)

// Error is an internal error annotated with the place it was formed
type Error struct {
	desc string
	file string
	line int
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s [%s %d]", e.desc, e.file, e.line)
}

// Errorf returns an Error for the formatted description
func Errorf(f string, args ...interface{}) *Error {
	e := &Error{}
	e.desc = fmt.Sprintf(f, args...)
	_, e.file, e.line, _ = runtime.Caller(1)
	e.file = e.file[strings.LastIndex(e.file, "/")+1:]
	return e
}

// BadRequestError is returned for malformed requests. It is a client error
// and must not be retried.
type BadRequestError struct {
	Resource string
	Msg      string
}

func (e *BadRequestError) Error() string {
	return fmt.Sprintf("Bad %s request: %s.", e.Resource, e.Msg)
}

// BadRequest returns a BadRequestError for resource
func BadRequest(resource, msg string) *BadRequestError {
	return &BadRequestError{Resource: resource, Msg: msg}
}

// IsBadRequest reports whether err is a BadRequestError
func IsBadRequest(err error) bool {
	_, ok := err.(*BadRequestError)
	return ok
}
