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
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dcnet-lab/dctransfer/pkg/utils/err_collection"
	"github.com/sirupsen/logrus"
)

// taskRegistry keeps every task started by executors of this process so they
// can be stopped when experiment is interrupted.
type taskRegistry struct {
	sync.Mutex
	taskHandles []TaskHandle
}

var globalTaskRegistry = &taskRegistry{}

func register(t TaskHandle) {
	globalTaskRegistry.register(t)
}

// Unregister removes task from the set stopped by StopAllTaskHandles.
func Unregister(t TaskHandle) {
	globalTaskRegistry.unregister(t)
}

// StopAllTaskHandles stops every registered and still running task in reverse order of start.
func StopAllTaskHandles() error {
	return globalTaskRegistry.stopAll()
}

// RegisterInterruptHandle calls cancel on first SIGINT or SIGTERM. Second signal
// stops unconditionally all task handles and exits the process.
// Returned function stops listening for signals.
func RegisterInterruptHandle(cancel func()) func() {
	c := make(chan os.Signal, 2)
	done := make(chan struct{})
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	logrus.Debugf("clean: interrupt handle initialized")

	go func() {
		select {
		case sig := <-c:
			logrus.Warnf("clean: received %q, cancelling experiment", sig)
			cancel()
		case <-done:
			return
		}

		select {
		case sig := <-c:
			logrus.Errorf("clean: received %q again, stopping all tasks", sig)
			if err := StopAllTaskHandles(); err != nil {
				logrus.Errorf("clean: %v", err)
			}
			os.Exit(1)
		case <-done:
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			signal.Stop(c)
			close(done)
		})
	}
}

func (r *taskRegistry) register(t TaskHandle) {
	r.Lock()
	defer r.Unlock()
	// Terminated tasks do not need stopping.
	running := r.taskHandles[:0]
	for _, taskHandle := range r.taskHandles {
		if taskHandle.Status() == RUNNING {
			running = append(running, taskHandle)
		}
	}
	r.taskHandles = append(running, t)
}

func (r *taskRegistry) unregister(t TaskHandle) {
	r.Lock()
	defer r.Unlock()
	for i, taskHandle := range r.taskHandles {
		if taskHandle == t {
			r.taskHandles = append(r.taskHandles[:i], r.taskHandles[i+1:]...)
			return
		}
	}
}

func (r *taskRegistry) stopAll() error {
	r.Lock()
	taskHandles := r.taskHandles
	r.taskHandles = nil
	r.Unlock()

	var errs errcollection.ErrorCollection
	for i := len(taskHandles) - 1; i >= 0; i-- {
		taskHandle := taskHandles[i]
		logrus.Debugf("clean: stopping %s", taskHandle)
		errs.Add(taskHandle.Stop())
	}
	return errs.GetErrIfAny()
}
