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
	"io/ioutil"
	"os"
	"testing"
	"time"

	"github.com/pkg/errors"
	. "github.com/smartystreets/goconvey/convey"
)

var errStopFailed = errors.New("Stop failed")

type stoppedTaskHandle struct {
	TaskHandle
	output *os.File
}

// Status implements TaskHandle interface,
func (th stoppedTaskHandle) Status() TaskState {
	return TERMINATED
}

// Wait implements TaskHandle interface.
func (th stoppedTaskHandle) Wait(duration time.Duration) (bool, error) {
	return true, nil
}

func (th stoppedTaskHandle) StderrFile() (*os.File, error) {
	return os.Open(th.output.Name())
}

func (th stoppedTaskHandle) StdoutFile() (*os.File, error) {
	return os.Open(th.output.Name())
}

func (th stoppedTaskHandle) ExitCode() (int, error) {
	return 1, nil
}

func (th stoppedTaskHandle) Address() string {
	return "127.0.0.1"
}

func (th stoppedTaskHandle) String() string {
	return "stopped"
}

type runningTaskHandle struct {
	TaskHandle
}

// Status implements TaskHandle interface,
func (th runningTaskHandle) Status() TaskState {
	return RUNNING
}

// Stop implements TaskHandle interface.
func (th runningTaskHandle) Stop() error {
	return nil
}

// Wait implements TaskHandle interface.
func (th runningTaskHandle) Wait(duration time.Duration) (bool, error) {
	return false, nil
}

type erroneousTaskHandle struct {
	TaskHandle
}

// Stop implements TaskHandle interface.
func (th erroneousTaskHandle) Stop() error {
	return errStopFailed
}

// Status implements TaskHandle interface,
func (th erroneousTaskHandle) Status() TaskState {
	return RUNNING
}

func TestServiceTaskHandle(t *testing.T) {

	Convey("Calling Stop() or Wait() on terminated task should fail", t, func() {
		output, err := ioutil.TempFile(os.TempDir(), "serviceTests")
		So(err, ShouldBeNil)
		Reset(func() {
			output.Close()
			os.Remove(output.Name())
		})

		s := ServiceHandle{TaskHandle: stoppedTaskHandle{output: output}, name: "controller"}

		_, err = s.Wait(0)
		So(errors.Cause(err), ShouldEqual, ErrServiceStopped)
		err = s.Stop()
		So(errors.Cause(err), ShouldEqual, ErrServiceStopped)
		So(err.Error(), ShouldContainSubstring, "controller")
	})

	Convey("Calling Stop() on running task should succeed", t, func() {
		s := ServiceHandle{TaskHandle: runningTaskHandle{}}

		err := s.Stop()
		So(err, ShouldBeNil)
	})

	Convey("Calling Wait() on running task should return its result", t, func() {
		s := ServiceHandle{TaskHandle: runningTaskHandle{}}

		terminated, err := s.Wait(time.Millisecond)
		So(err, ShouldBeNil)
		So(terminated, ShouldBeFalse)
	})

	Convey("Calling Stop() on running task should fail if embedded TaskHandle.Stop() fails", t, func() {
		s := ServiceHandle{TaskHandle: erroneousTaskHandle{}}

		err := s.Stop()
		So(err, ShouldEqual, errStopFailed)
	})
}

var errLaunchFailed = errors.New("Where the senses fail us, reason must step in")

type successfulLauncher struct {
	Launcher
}

// Launch implements Launcher interface.
func (sl successfulLauncher) Launch() (TaskHandle, error) {
	return runningTaskHandle{}, nil
}

// String implements Launcher interface.
func (sl successfulLauncher) String() string {
	return "My Name Is"
}

type failedLauncher struct {
	Launcher
}

// Launch implements Launcher interface.
func (fl failedLauncher) Launch() (TaskHandle, error) {
	return nil, errLaunchFailed
}

func TestServiceLauncher(t *testing.T) {
	Convey("When call to embedded Launcher.Launch() succeeds then running ServiceHandle should be returned", t, func() {
		l := ServiceLauncher{successfulLauncher{}}

		th, err := l.Launch()
		So(err, ShouldBeNil)
		So(th.Stop(), ShouldBeNil)
	})

	Convey("When call to embedded Launcher.Launch() fails then ServiceLauncher.Launch() should fail too", t, func() {
		l := ServiceLauncher{failedLauncher{}}

		th, err := l.Launch()
		So(th, ShouldBeNil)
		So(err, ShouldEqual, errLaunchFailed)
	})

	Convey("Launcher name should contain of embedded Launcher name and indicate that ServiceLauncher is used", t, func() {
		l := ServiceLauncher{successfulLauncher{}}

		name := l.String()
		So(name, ShouldContainSubstring, "My Name Is")
		So(name, ShouldContainSubstring, "Service")
	})
}
