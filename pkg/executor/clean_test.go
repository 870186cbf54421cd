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
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

type recordingTaskHandle struct {
	TaskHandle
	name    string
	stopped *[]string
	err     error
}

func (th recordingTaskHandle) Status() TaskState {
	return RUNNING
}

func (th recordingTaskHandle) Stop() error {
	*th.stopped = append(*th.stopped, th.name)
	return th.err
}

func (th recordingTaskHandle) String() string {
	return th.name
}

func TestTaskRegistry(t *testing.T) {
	Convey("While using task registry", t, func() {
		var stopped []string
		registry := &taskRegistry{}
		first := recordingTaskHandle{name: "first", stopped: &stopped}
		second := recordingTaskHandle{name: "second", stopped: &stopped}
		third := recordingTaskHandle{name: "third", stopped: &stopped, err: errStopFailed}

		registry.register(first)
		registry.register(second)
		registry.register(third)

		Convey("All tasks should be stopped in reverse order", func() {
			err := registry.stopAll()
			So(err, ShouldEqual, errStopFailed)
			So(stopped, ShouldResemble, []string{"third", "second", "first"})

			Convey("And registry should be empty afterwards", func() {
				So(registry.stopAll(), ShouldBeNil)
				So(stopped, ShouldHaveLength, 3)
			})
		})

		Convey("Unregistered task should not be stopped", func() {
			registry.unregister(second)
			registry.stopAll()
			So(stopped, ShouldResemble, []string{"third", "first"})
		})
	})

	Convey("Terminated tasks should be pruned on register", t, func() {
		registry := &taskRegistry{}
		registry.register(stoppedTaskHandle{})
		registry.register(runningTaskHandle{})
		So(registry.taskHandles, ShouldHaveLength, 1)
	})

	Convey("Interrupt handle should be removable", t, func() {
		cancelled := false
		unregister := RegisterInterruptHandle(func() { cancelled = true })
		unregister()
		unregister()
		So(cancelled, ShouldBeFalse)
	})
}
