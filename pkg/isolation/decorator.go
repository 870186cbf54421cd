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

// Decorator wraps command so it runs in a different context, e.g. inside
// network namespace of an emulated host or with root privileges.
type Decorator interface {
	Decorate(command string) string
}

// Decorators are applied in order: the last one is the outermost wrapper.
type Decorators []Decorator

// Decorate implements Decorator interface.
func (d Decorators) Decorate(command string) string {
	for _, decorator := range d {
		command = decorator.Decorate(command)
	}
	return command
}
