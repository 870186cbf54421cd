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
	"fmt"
	"os"
	"os/exec"
	"syscall"
	"time"

	"github.com/dcnet-lab/dctransfer/pkg/isolation"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const killTimeout = 5 * time.Second

// Local provisioning is responsible for providing the execution environment
// on local machine via exec.Command.
// It runs command as current user.
type Local struct {
	decorators isolation.Decorators
	stdoutFile string
	stderrFile string
}

// NewLocal returns a Local instance.
func NewLocal() Local {
	return Local{}
}

// NewLocalIsolated returns a Local instance which decorates every command
// before executing it.
func NewLocalIsolated(decorators ...isolation.Decorator) Local {
	return Local{decorators: decorators}
}

// WithOutputFiles returns copy of the executor which writes stdout and stderr
// of executed tasks into given files. Files are truncated on every Execute
// and kept by EraseOutput.
func (l Local) WithOutputFiles(stdoutPath, stderrPath string) Local {
	l.stdoutFile = stdoutPath
	l.stderrFile = stderrPath
	return l
}

// String returns user-friendly name of executor.
func (l Local) String() string {
	if len(l.decorators) == 0 {
		return "Local"
	}
	return fmt.Sprintf("Local %q", l.decorators.Decorate(""))
}

// Execute runs the command given as input.
// Returned Task Handle is able to stop & monitor the provisioned process.
func (l Local) Execute(command string) (TaskHandle, error) {
	command = l.decorators.Decorate(command)
	log.Debugf("Starting %q locally", command)

	var (
		stdout, stderr *os.File
		outputDir      string
		err            error
	)
	if l.stdoutFile != "" {
		stdout, stderr, err = createNamedOutputFiles(l.stdoutFile, l.stderrFile)
	} else {
		stdout, stderr, outputDir, err = createExecutorOutputFiles(command, "local")
	}
	if err != nil {
		return nil, err
	}

	cmd := exec.Command("sh", "-c", command)
	// It is important to set additional Process Group ID for parent process and his children
	// to have ability to kill all the children processes.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	if err = cmd.Start(); err != nil {
		closeOutputFiles(stdout, stderr)
		return nil, errors.Wrapf(err, "cannot start %q", command)
	}
	log.Debugf("Started %q with pid %d, output in %q", command, cmd.Process.Pid, stdout.Name())

	handle := &localTaskHandle{
		command:    command,
		cmd:        cmd,
		stdoutPath: stdout.Name(),
		stderrPath: stderr.Name(),
		outputDir:  outputDir,
		done:       make(chan struct{}),
	}
	go handle.wait(stdout, stderr)
	register(handle)

	return handle, nil
}

func closeOutputFiles(stdout, stderr *os.File) {
	stdout.Close()
	if stderr != stdout {
		stderr.Close()
	}
}

// localTaskHandle implements TaskHandle interface.
type localTaskHandle struct {
	command    string
	cmd        *exec.Cmd
	stdoutPath string
	stderrPath string
	outputDir  string
	// done is closed when process terminates; exitCode is valid afterwards.
	done     chan struct{}
	exitCode int
}

func (t *localTaskHandle) wait(stdout, stderr *os.File) {
	defer close(t.done)
	defer closeOutputFiles(stdout, stderr)

	// Exit status is taken from ProcessState below, so the error matters
	// only when process state is not available at all.
	err := t.cmd.Wait()
	if t.cmd.ProcessState == nil {
		log.Errorf("Waiting for %q failed: %v", t.command, err)
		t.exitCode = -1
		return
	}

	status := t.cmd.ProcessState.Sys().(syscall.WaitStatus)
	if status.Exited() {
		t.exitCode = status.ExitStatus()
	} else {
		// Show what signal caused the termination.
		t.exitCode = -int(status.Signal())
	}
	log.Debugf("Ended %q with status code %d", t.command, t.exitCode)
}

func (t *localTaskHandle) isTerminated() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}

// Stop sends SIGTERM to the whole process group and SIGKILL when it does
// not terminate within killTimeout.
func (t *localTaskHandle) Stop() error {
	if t.isTerminated() {
		return nil
	}

	pgid := -t.cmd.Process.Pid
	log.Debugf("Sending SIGTERM to process group %d", -pgid)
	if err := syscall.Kill(pgid, syscall.SIGTERM); err != nil && err != syscall.ESRCH {
		return errors.Wrapf(err, "cannot send SIGTERM to %s", t)
	}
	if terminated, _ := t.Wait(killTimeout); terminated {
		return nil
	}

	log.Warnf("%s did not terminate on SIGTERM, sending SIGKILL", t)
	if err := syscall.Kill(pgid, syscall.SIGKILL); err != nil && err != syscall.ESRCH {
		return errors.Wrapf(err, "cannot send SIGKILL to %s", t)
	}
	if terminated, _ := t.Wait(killTimeout); !terminated {
		return errors.Errorf("cannot terminate %s", t)
	}
	return nil
}

// Status returns a state of the task.
func (t *localTaskHandle) Status() TaskState {
	if t.isTerminated() {
		return TERMINATED
	}
	return RUNNING
}

// ExitCode returns exit code of terminated task. Negative value is the
// signal which killed the task.
func (t *localTaskHandle) ExitCode() (int, error) {
	if !t.isTerminated() {
		return -1, errors.Errorf("%s is not terminated", t)
	}
	return t.exitCode, nil
}

// StdoutFile returns a file opened for reading the task's stdout.
func (t *localTaskHandle) StdoutFile() (*os.File, error) {
	return os.Open(t.stdoutPath)
}

// StderrFile returns a file opened for reading the task's stderr.
func (t *localTaskHandle) StderrFile() (*os.File, error) {
	return os.Open(t.stderrPath)
}

// Wait blocks until process is terminated or timeout appeared.
// Returns true when process terminates before timeout, otherwise false.
func (t *localTaskHandle) Wait(timeout time.Duration) (bool, error) {
	if timeout == 0 {
		<-t.done
		return true, nil
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-t.done:
		return true, nil
	case <-timer.C:
		return false, nil
	}
}

// EraseOutput removes per task output directory. Output configured with
// WithOutputFile is kept.
func (t *localTaskHandle) EraseOutput() error {
	if t.outputDir == "" {
		return nil
	}
	return errors.Wrapf(os.RemoveAll(t.outputDir), "cannot remove %q", t.outputDir)
}

// Address returns address where task was located.
func (t *localTaskHandle) Address() string {
	return "127.0.0.1"
}

// String returns name of the task.
func (t *localTaskHandle) String() string {
	return fmt.Sprintf("local task %q (pid %d)", t.command, t.cmd.Process.Pid)
}
