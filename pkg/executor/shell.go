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

import (
	"github.com/dcnet-lab/dctransfer/pkg/isolation"
)

// IsLocalAddress returns true for addresses pointing to this machine.
func IsLocalAddress(address string) bool {
	switch address {
	case "", "127.0.0.1", "localhost", "::1":
		return true
	}
	return false
}

// NewShell is a wrapper constructor for NewLocalIsolated or NewRemoteFromIP executor depending on address provided.
func NewShell(address string, decorators ...isolation.Decorator) (Executor, error) {
	if IsLocalAddress(address) {
		return NewLocalIsolated(decorators...), nil
	}
	return NewRemoteFromIP(address, decorators...)
}
