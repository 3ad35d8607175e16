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

// Package version reports the build information of the neutron plugin,
// set at link time with -ldflags "-X".
package version

import "fmt"

var (
	gitCommit string
	version   string
	buildTime string
)

// Info is the build information served on /version
type Info struct {
	GitCommit string `json:"gitCommit"`
	Version   string `json:"version"`
	BuildTime string `json:"buildTime"`
}

// Get returns the build information of the running binary
func Get() *Info {
	return &Info{
		GitCommit: gitCommit,
		Version:   version,
		BuildTime: buildTime,
	}
}

// String returns printable version string
func String() string {
	ver := Get()
	return StringFromInfo(ver)
}

// StringFromInfo prints the versioning details
func StringFromInfo(ver *Info) string {
	return fmt.Sprintf("Version: %s\n", ver.Version) +
		fmt.Sprintf("GitCommit: %s\n", ver.GitCommit) +
		fmt.Sprintf("BuildTime: %s\n", ver.BuildTime)
}
