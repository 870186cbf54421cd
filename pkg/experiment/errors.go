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

// Package experiment runs a data transfer experiment on an emulated
// data-center network and stores its results.
package experiment

import (
	"github.com/dcnet-lab/dctransfer/pkg/utils/errutil"
)

// ExUsage is exit code for command line usage errors (see sysexits.h).
const ExUsage = 64

// Kinds of experiment failures, see errutil.
var (
	ErrInvalidArgument     = errutil.ErrInvalidArgument
	ErrResourceUnavailable = errutil.ErrResourceUnavailable
	ErrProcessFailure      = errutil.ErrProcessFailure
	ErrFilesystemFailure   = errutil.ErrFilesystemFailure
)
