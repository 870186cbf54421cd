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

package experiment

import (
	"github.com/dcnet-lab/dctransfer/pkg/utils/err_collection"
	log "github.com/sirupsen/logrus"
)

type cleanupStep struct {
	name string
	fn   func() error
}

// cleanupStack undoes started resources in reverse order.
type cleanupStack struct {
	steps []cleanupStep
}

func (c *cleanupStack) push(name string, fn func() error) {
	c.steps = append(c.steps, cleanupStep{name: name, fn: fn})
}

// unwind runs every step even when some fail and empties the stack.
func (c *cleanupStack) unwind() error {
	var errs errcollection.ErrorCollection
	for i := len(c.steps) - 1; i >= 0; i-- {
		step := c.steps[i]
		log.Debugf("Cleanup: %s", step.name)
		if err := step.fn(); err != nil {
			log.Errorf("Cleanup of %s failed: %v", step.name, err)
			errs.Add(err)
		}
	}
	c.steps = nil
	return errs.GetErrIfAny()
}
