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
	"path/filepath"
	"testing"
	"time"

	"github.com/dcnet-lab/dctransfer/pkg/isolation"
	log "github.com/sirupsen/logrus"
	. "github.com/smartystreets/goconvey/convey"
)

func readAll(handle TaskHandle) string {
	output, err := readStdout(handle)
	So(err, ShouldBeNil)
	return output
}

// TestLocal tests the execution of process on local machine.
func TestLocal(t *testing.T) {
	log.SetLevel(log.ErrorLevel)

	Convey("While using Local Shell", t, func() {
		l := NewLocal()

		Convey("When blocking infinitively sleep command is executed", func() {
			task, err := l.Execute("sleep inf")
			So(err, ShouldBeNil)
			Reset(func() {
				task.Stop()
				task.EraseOutput()
			})

			Convey("Task should be still running and exit code should not be available", func() {
				So(task.Status(), ShouldEqual, RUNNING)
				_, err := task.ExitCode()
				So(err, ShouldNotBeNil)
			})

			Convey("When we wait for task termination with the 1ms timeout", func() {
				terminated, err := task.Wait(1 * time.Millisecond)
				So(err, ShouldBeNil)

				Convey("The timeout should exceed and the task not terminated ", func() {
					So(terminated, ShouldBeFalse)
					So(task.Status(), ShouldEqual, RUNNING)
				})
			})

			Convey("When we stop the task", func() {
				So(task.Stop(), ShouldBeNil)

				Convey("The task should be terminated by SIGTERM", func() {
					So(task.Status(), ShouldEqual, TERMINATED)
					exitCode, err := task.ExitCode()
					So(err, ShouldBeNil)
					So(exitCode, ShouldEqual, -15)
				})

				Convey("Stopping it again should not fail", func() {
					So(task.Stop(), ShouldBeNil)
				})
			})

			Convey("When multiple go routines wait for task termination", func() {
				results := make(chan bool)
				for i := 0; i < 5; i++ {
					go func() {
						terminated, _ := task.Wait(0)
						results <- terminated
					}()
				}

				gotWaitResult := false
				select {
				case <-results:
					gotWaitResult = true
				case <-time.After(10 * time.Millisecond):
				}
				So(gotWaitResult, ShouldBeFalse)
				So(task.Stop(), ShouldBeNil)

				Convey("After stop every wait should return terminated", func() {
					for i := 0; i < 5; i++ {
						So(<-results, ShouldBeTrue)
					}
				})
			})
		})

		Convey("When command `echo output` is executed", func() {
			task, err := l.Execute("echo output")
			So(err, ShouldBeNil)
			Reset(func() { task.EraseOutput() })

			terminated, err := task.Wait(0)
			So(err, ShouldBeNil)
			So(terminated, ShouldBeTrue)

			Convey("The exit code should be 0 and stdout should be 'output'", func() {
				So(task.Status(), ShouldEqual, TERMINATED)
				exitCode, err := task.ExitCode()
				So(err, ShouldBeNil)
				So(exitCode, ShouldEqual, 0)
				So(readAll(task), ShouldEqual, "output\n")
			})

			Convey("Output should be stored in directory named after binary", func() {
				file, err := task.StdoutFile()
				So(err, ShouldBeNil)
				defer file.Close()
				So(filepath.Base(filepath.Dir(file.Name())), ShouldStartWith, "local_echo_")
			})

			Convey("Erasing output removes the files", func() {
				file, err := task.StdoutFile()
				So(err, ShouldBeNil)
				file.Close()
				So(task.EraseOutput(), ShouldBeNil)
				_, err = os.Stat(file.Name())
				So(os.IsNotExist(err), ShouldBeTrue)
			})
		})

		Convey("When command which does not exists is executed", func() {
			task, err := l.Execute("commandThatDoesNotExists")
			So(err, ShouldBeNil)
			Reset(func() { task.EraseOutput() })

			task.Wait(0)

			Convey("The exit code should be 127", func() {
				exitCode, err := task.ExitCode()
				So(err, ShouldBeNil)
				So(exitCode, ShouldEqual, 127)
			})
		})

		Convey("When we execute two tasks in the same time", func() {
			task, err := l.Execute("echo output1")
			task2, err2 := l.Execute("echo output2")
			So(err, ShouldBeNil)
			So(err2, ShouldBeNil)
			Reset(func() {
				task.EraseOutput()
				task2.EraseOutput()
			})

			task.Wait(0)
			task2.Wait(0)

			Convey("The commands stdouts needs to match 'output1' & 'output2'", func() {
				So(readAll(task), ShouldEqual, "output1\n")
				So(readAll(task2), ShouldEqual, "output2\n")
			})
		})
	})

	Convey("While using Local Shell with named output files", t, func() {
		dir, err := ioutil.TempDir("", "local_output")
		So(err, ShouldBeNil)
		Reset(func() { os.RemoveAll(dir) })

		outputFile := filepath.Join(dir, "debug", "h1.out")
		errorFile := filepath.Join(dir, "debug", "h1.err")
		l := NewLocal().WithOutputFiles(outputFile, errorFile)

		Convey("Stdout and stderr should land in separate files", func() {
			task, err := l.Execute("echo out; echo err 1>&2")
			So(err, ShouldBeNil)
			task.Wait(0)

			content, err := ioutil.ReadFile(outputFile)
			So(err, ShouldBeNil)
			So(string(content), ShouldEqual, "out\n")

			content, err = ioutil.ReadFile(errorFile)
			So(err, ShouldBeNil)
			So(string(content), ShouldEqual, "err\n")

			Convey("And erasing output should keep it", func() {
				So(task.EraseOutput(), ShouldBeNil)
				_, err := os.Stat(outputFile)
				So(err, ShouldBeNil)
			})
		})
	})

	Convey("Local Shell with decorators should describe the isolation", t, func() {
		l := NewLocalIsolated(isolation.NewNetNamespace("h1"))
		So(l.String(), ShouldContainSubstring, "ip netns exec h1")
		So(NewLocal().String(), ShouldEqual, "Local")
	})
}
