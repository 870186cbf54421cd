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

// Package network instantiates topologies as emulated networks built from
// network namespaces, Open vSwitch bridges, veth pairs and tc shaping.
package network

import (
	"fmt"

	"github.com/dcnet-lab/dctransfer/pkg/executor"
	"github.com/dcnet-lab/dctransfer/pkg/isolation"
)

// ShellFactory creates executors running commands on the emulation machine.
// executor.NewShell bound to an address is the usual implementation.
type ShellFactory func(decorators ...isolation.Decorator) (executor.Executor, error)

// NewShellFactory returns ShellFactory running commands on given address.
func NewShellFactory(address string) ShellFactory {
	return func(decorators ...isolation.Decorator) (executor.Executor, error) {
		return executor.NewShell(address, decorators...)
	}
}

// Host is an emulated host living in its own network namespace.
type Host struct {
	Name      string
	IP        string
	Namespace isolation.NetNamespace
	executor  executor.Executor
}

// NewHost creates host handle running commands with given executor.
func NewHost(name, ip string, exec executor.Executor) Host {
	return Host{
		Name:      name,
		IP:        ip,
		Namespace: isolation.NewNetNamespace(name),
		executor:  exec,
	}
}

// Executor returns executor running commands inside host's namespace.
func (h Host) Executor() executor.Executor {
	return h.executor
}

// String returns host name and address.
func (h Host) String() string {
	return fmt.Sprintf("%s(%s)", h.Name, h.IP)
}
