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

package executor

import "fmt"

// Launcher starts one configured program: the controller, a receiver or a sender.
// The returned TaskHandle controls the started program. Launch returns an error
// when the program could not be started at all.
type Launcher interface {
	fmt.Stringer
	Launch() (TaskHandle, error)
}
