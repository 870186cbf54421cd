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
	"context"
	"strings"
	"time"

	"github.com/dcnet-lab/dctransfer/pkg/utils/err_collection"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// ErrWaitTimeout is returned by Await when task did not terminate in time.
var ErrWaitTimeout = errors.New("task did not terminate before timeout")

const awaitPollInterval = 100 * time.Millisecond

// Await blocks until task terminates, context is done or timeout passes.
// Zero timeout means no limit. Task is left running on error.
func Await(ctx context.Context, handle TaskHandle, timeout time.Duration) error {
	var deadline <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		deadline = timer.C
	}

	for {
		terminated, err := handle.Wait(awaitPollInterval)
		if err != nil {
			return err
		}
		if terminated {
			return nil
		}

		select {
		case <-ctx.Done():
			return errors.Wrapf(ctx.Err(), "waiting for %s", handle)
		case <-deadline:
			return errors.Wrapf(ErrWaitTimeout, "%s after %s", handle, timeout)
		default:
		}
	}
}

// RunAndWait executes command, waits for it and returns its stdout. Non zero
// exit code is returned as error with tail of task output logged.
func RunAndWait(executor Executor, command string) (string, error) {
	handle, err := executor.Execute(command)
	if err != nil {
		return "", err
	}
	defer StopAndErase(handle)

	if _, err := handle.Wait(0); err != nil {
		return "", errors.Wrapf(err, "waiting for %q on %s", command, executor)
	}

	exitCode, err := handle.ExitCode()
	if err != nil {
		return "", err
	}
	if exitCode != 0 {
		LogUnsucessfulExecution(command, executor.String(), handle)
		return "", errors.Errorf("%q on %s exited with code %d", command, executor, exitCode)
	}

	stdout, err := readStdout(handle)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(stdout), nil
}

// StopAndErase stops task, removes its output and drops it from the interrupt registry.
func StopAndErase(handle TaskHandle) error {
	var errs errcollection.ErrorCollection
	errs.Add(handle.Stop())
	errs.Add(handle.EraseOutput())
	Unregister(handle)

	err := errs.GetErrIfAny()
	if err != nil {
		logrus.Debugf("Cleaning up %s failed: %v", handle, err)
	}
	return err
}
