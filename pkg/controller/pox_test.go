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

package controller

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dcnet-lab/dctransfer/pkg/executor"
	"github.com/dcnet-lab/dctransfer/pkg/executor/mocks"
	"github.com/dcnet-lab/dctransfer/pkg/utils/errutil"
	"github.com/pkg/errors"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/stretchr/testify/mock"
)

func TestPOX(t *testing.T) {
	Convey("While using POX launcher", t, func() {
		dir, err := ioutil.TempDir("", "controller")
		So(err, ShouldBeNil)
		Reset(func() { os.RemoveAll(dir) })

		config := DefaultConfig()
		config.Path = "/opt/pox/pox.py"
		config.LogPath = filepath.Join(dir, "pox.out")
		config.ReadyTimeout = 10 * time.Millisecond

		exec := &mocks.Executor{}
		task := &mocks.TaskHandle{}
		pox := New(exec, config, "ft,4")

		expectedCommand := "exec /opt/pox/pox.py --no-cli riplpox.riplpox --topo=ft,4 --routing=hashed --mode=reactive > " +
			config.LogPath + " 2>&1"

		Convey("Command should select ripl module, topology and log file", func() {
			So(pox.buildCommand(), ShouldEqual, expectedCommand)
			So(pox.String(), ShouldEqual, "POX")
		})

		Convey("When controller starts listening Launch should return its task", func() {
			exec.On("Execute", expectedCommand).Return(task, nil).Once()
			task.On("Address").Return("127.0.0.1")
			task.On("Status").Return(executor.RUNNING)
			pox.isControllerUp = func(address string, timeout time.Duration) bool {
				return address == "127.0.0.1:6633"
			}

			handle, err := pox.Launch()
			So(err, ShouldBeNil)
			So(handle == executor.TaskHandle(task), ShouldBeTrue)
			exec.AssertExpectations(t)
		})

		Convey("When controller runs on emulation host its loopback address should be reached through that host", func() {
			exec.On("Execute", expectedCommand).Return(task, nil).Once()
			task.On("Address").Return("10.10.0.5")
			task.On("Status").Return(executor.RUNNING)
			var checked []string
			pox.isControllerUp = func(address string, timeout time.Duration) bool {
				checked = append(checked, address)
				return true
			}

			_, err := pox.Launch()
			So(err, ShouldBeNil)
			So(checked, ShouldResemble, []string{"10.10.0.5:6633"})
		})

		Convey("Non-loopback controller address should be used as configured", func() {
			So(listenAddress("10.10.0.7:6633", "10.10.0.5"), ShouldEqual, "10.10.0.7:6633")
			So(listenAddress("localhost:6633", "10.10.0.5"), ShouldEqual, "10.10.0.5:6633")
			So(listenAddress("127.0.0.1:6633", "127.0.0.1"), ShouldEqual, "127.0.0.1:6633")
		})

		Convey("When controller does not listen in time Launch should stop it and fail", func() {
			exec.On("Execute", expectedCommand).Return(task, nil).Once()
			exec.On("Execute", mock.MatchedBy(func(command string) bool {
				return strings.HasPrefix(command, "tail -n ")
			})).Return(nil, errors.New("log is gone")).Once()
			task.On("Address").Return("127.0.0.1")
			task.On("Status").Return(executor.RUNNING)
			task.On("Stop").Return(nil).Once()
			task.On("EraseOutput").Return(nil).Once()
			pox.isControllerUp = func(string, time.Duration) bool { return false }

			handle, err := pox.Launch()
			So(handle, ShouldBeNil)
			So(errutil.IsKind(err, errutil.ErrProcessFailure), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "not listening on 127.0.0.1:6633")
			task.AssertExpectations(t)
			exec.AssertExpectations(t)
		})

		Convey("When controller exits early Launch should report exit code", func() {
			exec.On("Execute", expectedCommand).Return(task, nil).Once()
			exec.On("Execute", mock.AnythingOfType("string")).Return(nil, errors.New("log is gone"))
			task.On("Address").Return("127.0.0.1")
			task.On("Status").Return(executor.TERMINATED)
			task.On("ExitCode").Return(1, nil)
			task.On("Stop").Return(nil)
			task.On("EraseOutput").Return(nil)
			pox.isControllerUp = func(string, time.Duration) bool { return true }

			_, err := pox.Launch()
			So(errutil.IsKind(err, errutil.ErrProcessFailure), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "exited with code 1")
		})

		Convey("Log should be read through controller's executor", func() {
			So(ioutil.WriteFile(config.LogPath, []byte("INFO:openflow.of_01:[00-00-00-00-00-01 1] connected\n"), 0644), ShouldBeNil)
			pox := New(executor.NewLocal(), config, "ft,4")

			Convey("Its tail should be available after failed launch", func() {
				tail, err := pox.readLogTail()
				So(err, ShouldBeNil)
				So(tail, ShouldContainSubstring, "connected")
			})

			Convey("It should be salvaged into given directory", func() {
				target := filepath.Join(dir, "salvaged")
				So(os.Mkdir(target, 0755), ShouldBeNil)

				path, err := pox.SalvageLog(target)
				So(err, ShouldBeNil)
				So(path, ShouldEqual, filepath.Join(target, "pox.out"))
				content, err := ioutil.ReadFile(path)
				So(err, ShouldBeNil)
				So(string(content), ShouldEqual, "INFO:openflow.of_01:[00-00-00-00-00-01 1] connected\n")
			})
		})

		Convey("Log from terminal output should have plain line endings", func() {
			cat := &mocks.TaskHandle{}
			exec.On("Execute", "cat "+config.LogPath).Return(cat, nil).Once()
			exec.On("String").Return("Remote Executor")
			cat.On("Wait", time.Duration(0)).Return(true, nil)
			cat.On("ExitCode").Return(0, nil)
			cat.On("StdoutFile").Return(writeTempFile(dir, "line1\r\nline2\r\n"), nil)
			cat.On("Stop").Return(nil)
			cat.On("EraseOutput").Return(nil)

			path, err := pox.SalvageLog(dir)
			So(err, ShouldBeNil)
			content, err := ioutil.ReadFile(path)
			So(err, ShouldBeNil)
			So(string(content), ShouldEqual, "line1\nline2\n")
		})

		Convey("Missing log should be a filesystem failure", func() {
			pox := New(executor.NewLocal(), config, "ft,4")
			_, err := pox.SalvageLog(dir)
			So(errutil.IsKind(err, errutil.ErrFilesystemFailure), ShouldBeTrue)
		})
	})
}

func writeTempFile(dir, content string) *os.File {
	file, err := ioutil.TempFile(dir, "stdout")
	So(err, ShouldBeNil)
	_, err = file.WriteString(content)
	So(err, ShouldBeNil)
	_, err = file.Seek(0, 0)
	So(err, ShouldBeNil)
	return file
}
