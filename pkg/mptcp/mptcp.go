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

// Package mptcp switches Multipath TCP of MPTCP enabled kernels
// (multipath-tcp.org) on and off for the duration of an experiment.
package mptcp

import (
	"strconv"

	"github.com/dcnet-lab/dctransfer/pkg/utils/err_collection"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const (
	// EnabledKey turns MPTCP on for all new connections.
	EnabledKey = "net.mptcp.mptcp_enabled"
	// PathManagerKey selects how subflows are created.
	PathManagerKey = "net.mptcp.mptcp_path_manager"
	// SubflowsKey is number of subflows created by ndiffports path manager.
	SubflowsKey = "/sys/module/mptcp_ndiffports/parameters/num_subflows"

	pathManager = "ndiffports"
)

// Release restores kernel parameters changed by Enable or Disable.
type Release func() error

func noRelease() error {
	return nil
}

type setting struct {
	key, value string
}

// Toggle changes MPTCP kernel parameters remembering their previous values.
type Toggle struct {
	kernel Kernel
}

// New creates Toggle for given kernel.
func New(kernel Kernel) Toggle {
	return Toggle{kernel: kernel}
}

// Supported reports whether the kernel provides MPTCP parameters.
func (t Toggle) Supported() bool {
	return t.kernel.Exists(EnabledKey)
}

// Enable turns MPTCP on with ndiffports path manager opening given number of
// subflows per connection. On kernels without MPTCP it only logs a warning.
func (t Toggle) Enable(subflows int) (Release, error) {
	if subflows < 1 {
		return noRelease, errors.Errorf("number of subflows must be positive, got %d", subflows)
	}
	if !t.Supported() {
		log.Warnf("Kernel does not support MPTCP (%s missing), running with regular TCP", EnabledKey)
		return noRelease, nil
	}

	settings := []setting{{EnabledKey, "1"}}
	if t.kernel.Exists(PathManagerKey) {
		settings = append(settings, setting{PathManagerKey, pathManager})
	} else {
		log.Warnf("Kernel does not provide %s, keeping default path manager", PathManagerKey)
	}
	if t.kernel.Exists(SubflowsKey) {
		settings = append(settings, setting{SubflowsKey, strconv.Itoa(subflows)})
	} else {
		log.Warnf("Module mptcp_ndiffports is not loaded, number of subflows is not set")
	}

	return t.apply(settings)
}

// Disable makes sure MPTCP is off. On kernels without MPTCP it does nothing.
func (t Toggle) Disable() (Release, error) {
	if !t.Supported() {
		return noRelease, nil
	}
	return t.apply([]setting{{EnabledKey, "0"}})
}

// apply changes settings in order. On failure settings already changed are
// restored.
func (t Toggle) apply(settings []setting) (Release, error) {
	var previous []setting
	release := func() error {
		var errs errcollection.ErrorCollection
		for i := len(previous) - 1; i >= 0; i-- {
			log.Debugf("Restoring %s=%s", previous[i].key, previous[i].value)
			errs.Add(t.kernel.Set(previous[i].key, previous[i].value))
		}
		previous = nil
		return errs.GetErrIfAny()
	}

	for _, s := range settings {
		value, err := t.kernel.Get(s.key)
		if err != nil {
			release()
			return noRelease, err
		}
		if err := t.kernel.Set(s.key, s.value); err != nil {
			release()
			return noRelease, err
		}
		log.Debugf("Set %s=%s (was %s)", s.key, s.value, value)
		previous = append(previous, setting{s.key, value})
	}

	return release, nil
}
