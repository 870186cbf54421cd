// Copyright (c) 2017 Intel Corporation
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package sysctl

import (
	"io/ioutil"
	"os"
	"path"
	"strings"

	"github.com/pkg/errors"
)

// procSysRoot is a variable so tests can point it to a temporary tree.
var procSysRoot = "/proc/sys"

// Path translates sysctl key into its file, e.g. "net.ipv4.tcp_syncookies"
// into "/proc/sys/net/ipv4/tcp_syncookies".
func Path(name string) string {
	return path.Join(procSysRoot, strings.Replace(name, ".", "/", -1))
}

// Exists reports whether the sysctl key is provided by the running kernel.
func Exists(name string) bool {
	_, err := os.Stat(Path(name))
	return err == nil
}

// Get returns the value of the sysctl key specified by name.
func Get(name string) (string, error) {
	byteContent, err := ioutil.ReadFile(Path(name))
	if err != nil {
		return "", err
	}

	// As the sys file system represent single values as files, they are
	// terminated with a newline. We trim trailing newline, if present.
	return strings.TrimSuffix(string(byteContent), "\n"), nil
}

// Set writes the value of the sysctl key specified by name.
func Set(name, value string) error {
	err := ioutil.WriteFile(Path(name), []byte(value+"\n"), 0644)
	return errors.Wrapf(err, "cannot set %s=%s", name, value)
}
