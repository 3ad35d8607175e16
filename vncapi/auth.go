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
	"context"
	"net/http"

	"github.com/pkg/errors"

	log "github.com/sirupsen/logrus"
)

// AuthTokenHeader is the header carrying the keystone token to the api server
const AuthTokenHeader = "X-Auth-Token"

type authTokenKey struct{}

// WithAuthToken returns a copy of ctx whose api server calls are made with
// token. The client itself never stores a credential.
func WithAuthToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, authTokenKey{}, token)
}

func authToken(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(authTokenKey{}).(string)
	return token, ok && token != ""
}

// IsAuthenticated probes whether server runs with authentication enabled.
// An unauthenticated api server answers its root with 200, an authenticated
// one with 401.
func (c *Client) IsAuthenticated(ctx context.Context, server string) (bool, error) {
	url := c.formURL(server, "")

	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return false, errors.Wrapf(err, "building auth probe for %s", server)
	}

	resp, err := c.httpC.Do(req.WithContext(ctx))
	if err != nil {
		log.Errorf("Error probing api server %s. Err: %v", server, err)
		return false, errors.Wrapf(err, "probing api server %s", server)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return false, nil
	case http.StatusUnauthorized:
		return true, nil
	}

	return false, &HTTPError{Method: http.MethodGet, URL: url, StatusCode: resp.StatusCode, Body: resp.Status}
}
