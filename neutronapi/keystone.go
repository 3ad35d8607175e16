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
	"context"
	"net/http"
	"strings"

	"github.com/OpenSDN-io/tf-neutron-plugin/core"
)

// keystone headers set by the authentication stage in front of the server
const (
	authTokenHeader = "X-Auth-Token"
	userIDHeader    = "X-User-Id"
	projectIDHeader = "X-Project-Id"
	tenantIDHeader  = "X-Tenant-Id"
	rolesHeader     = "X-Roles"
	requestIDHeader = "X-Request-Id"

	adminRole = "admin"
)

type requestContextKey struct{}

// requestContextFromHeaders builds the caller identity of a request
func requestContextFromHeaders(h http.Header) core.RequestContext {
	reqCtx := core.RequestContext{
		UserID:    h.Get(userIDHeader),
		TenantID:  h.Get(projectIDHeader),
		RequestID: h.Get(requestIDHeader),
	}
	if reqCtx.TenantID == "" {
		reqCtx.TenantID = h.Get(tenantIDHeader)
	}

	for _, role := range strings.Split(h.Get(rolesHeader), ",") {
		role = strings.TrimSpace(role)
		if role == "" {
			continue
		}
		reqCtx.Roles = append(reqCtx.Roles, role)
		if strings.EqualFold(role, adminRole) {
			reqCtx.IsAdmin = true
		}
	}

	return reqCtx
}

// keystoneMiddleware saves the caller identity and token in the request
// context
func keystoneMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqCtx := requestContextFromHeaders(r.Header)

		ctx := context.WithValue(r.Context(), requestContextKey{}, &reqCtx)
		if token := r.Header.Get(authTokenHeader); token != "" {
			ctx = core.WithUserToken(ctx, token)
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requestContext returns the caller identity saved by keystoneMiddleware
func requestContext(r *http.Request) *core.RequestContext {
	if reqCtx, ok := r.Context().Value(requestContextKey{}).(*core.RequestContext); ok {
		return reqCtx
	}
	return &core.RequestContext{}
}
