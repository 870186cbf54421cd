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

package isolation

import (
	"fmt"
)

// NetNamespace runs decorated command inside named network namespace
// created with `ip netns add`; see: man 8 ip-netns.
type NetNamespace struct {
	Name string
}

// NewNetNamespace creates new instance of network namespace isolation.
func NewNetNamespace(name string) NetNamespace {
	return NetNamespace{Name: name}
}

// Decorate implements Decorator.
func (n NetNamespace) Decorate(command string) string {
	return fmt.Sprintf("ip netns exec %s %s", n.Name, command)
}

// Sudo runs decorated command with root privileges.
type Sudo struct{}

// Decorate implements Decorator.
func (Sudo) Decorate(command string) string {
	return "sudo -n " + command
}
