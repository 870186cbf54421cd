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

package mptcp

import (
	"fmt"
	"io/ioutil"
	"os"
	"strings"

	"github.com/dcnet-lab/dctransfer/pkg/executor"
	"github.com/dcnet-lab/dctransfer/pkg/utils/sysctl"
	"github.com/pkg/errors"
)

// Kernel reads and writes kernel parameters. Keys are sysctl names
// (net.mptcp.mptcp_enabled) or absolute paths of sysfs files.
type Kernel interface {
	Exists(key string) bool
	Get(key string) (string, error)
	Set(key, value string) error
}

func keyPath(key string) string {
	if strings.HasPrefix(key, "/") {
		return key
	}
	return sysctl.Path(key)
}

// LocalKernel accesses parameters of the machine the process runs on.
// Setting them requires root privileges.
type LocalKernel struct{}

// Exists implements Kernel interface.
func (LocalKernel) Exists(key string) bool {
	_, err := os.Stat(keyPath(key))
	return err == nil
}

// Get implements Kernel interface.
func (LocalKernel) Get(key string) (string, error) {
	if !strings.HasPrefix(key, "/") {
		value, err := sysctl.Get(key)
		return value, errors.Wrapf(err, "cannot read %s", key)
	}
	content, err := ioutil.ReadFile(key)
	if err != nil {
		return "", errors.Wrapf(err, "cannot read %s", key)
	}
	return strings.TrimSpace(string(content)), nil
}

// Set implements Kernel interface.
func (LocalKernel) Set(key, value string) error {
	if !strings.HasPrefix(key, "/") {
		return sysctl.Set(key, value)
	}
	return errors.Wrapf(ioutil.WriteFile(key, []byte(value), 0644), "cannot set %s=%s", key, value)
}

// ShellKernel accesses parameters with shell commands run by executor,
// usually decorated with sudo or running on remote machine.
type ShellKernel struct {
	exec executor.Executor
}

// NewShellKernel creates ShellKernel using given executor.
func NewShellKernel(exec executor.Executor) ShellKernel {
	return ShellKernel{exec: exec}
}

// Exists implements Kernel interface.
func (k ShellKernel) Exists(key string) bool {
	_, err := executor.RunAndWait(k.exec, fmt.Sprintf("test -e %s", keyPath(key)))
	return err == nil
}

// Get implements Kernel interface.
func (k ShellKernel) Get(key string) (string, error) {
	value, err := executor.RunAndWait(k.exec, fmt.Sprintf("cat %s", keyPath(key)))
	return value, errors.Wrapf(err, "cannot read %s", key)
}

// Set implements Kernel interface.
func (k ShellKernel) Set(key, value string) error {
	_, err := executor.RunAndWait(k.exec, fmt.Sprintf("sh -c 'echo %s > %s'", value, keyPath(key)))
	return errors.Wrapf(err, "cannot set %s=%s", key, value)
}

// NewKernel returns LocalKernel when running as root on the emulation
// machine and ShellKernel using exec otherwise.
func NewKernel(exec executor.Executor, local bool) Kernel {
	if local && os.Geteuid() == 0 {
		return LocalKernel{}
	}
	return NewShellKernel(exec)
}
