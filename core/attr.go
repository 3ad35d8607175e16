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

type notSpecified struct{}

func (*notSpecified) String() string {
	return "<not specified>"
}

// MarshalJSON keeps the sentinel out of anything sent on the wire
func (*notSpecified) MarshalJSON() ([]byte, error) {
	return []byte("null"), nil
}

// NotSpecified marks an attribute the caller did not provide. Only the
// identity of this value matters.
var NotSpecified interface{} = &notSpecified{}

// IsNotSpecified reports whether v is the NotSpecified sentinel
func IsNotSpecified(v interface{}) bool {
	ns, ok := v.(*notSpecified)
	return ok && ns == NotSpecified
}

// StripUnspecified removes the attributes of res that are set to
// NotSpecified. Any other value, including nil, is kept.
func StripUnspecified(res Resource) {
	for key, value := range res {
		if IsNotSpecified(value) {
			delete(res, key)
		}
	}
}
