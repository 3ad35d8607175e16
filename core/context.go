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

package core

import "context"

type userTokenKey struct{}

// WithUserToken returns a copy of ctx carrying the caller's keystone token.
// It is set by the authentication stage in front of the plugin.
func WithUserToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, userTokenKey{}, token)
}

// UserToken returns the caller's token saved earlier in the pipeline, if any
func UserToken(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(userTokenKey{}).(string)
	if !ok || token == "" {
		return "", false
	}
	return token, true
}
