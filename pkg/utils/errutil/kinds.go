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

package errutil

import (
	"github.com/pkg/errors"
)

// Kinds of failures. Wrap them with errors.Wrap to add context and match
// them with errors.Cause.
var (
	// ErrInvalidArgument means configuration could not be parsed or is out of range.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrResourceUnavailable means experiment asked for more than environment provides.
	ErrResourceUnavailable = errors.New("resource unavailable")
	// ErrProcessFailure means external process could not start, become ready or finish.
	ErrProcessFailure = errors.New("process failure")
	// ErrFilesystemFailure means results or logs could not be stored.
	ErrFilesystemFailure = errors.New("filesystem failure")
)

// IsKind reports whether kind is the cause of err.
func IsKind(err error, kind error) bool {
	return err != nil && errors.Cause(err) == kind
}
