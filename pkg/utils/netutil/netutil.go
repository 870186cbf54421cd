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

package netutil

import (
	"net"
	"time"
)

// IsListeningFunction checks whether TCP endpoint accepts connections.
type IsListeningFunction func(address string, timeout time.Duration) bool

// IsListening dials address in `ip:port` form once. When nothing accepts the
// connection it returns only after the whole timeout, so callers can poll it in a loop.
func IsListening(address string, timeout time.Duration) bool {
	start := time.Now()
	conn, err := net.DialTimeout("tcp", address, timeout)
	if err == nil {
		conn.Close()
		return true
	}

	if rest := timeout - time.Since(start); rest > 0 {
		time.Sleep(rest)
	}
	return false
}
