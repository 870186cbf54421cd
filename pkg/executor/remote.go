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
	"net"
	"os"
	"os/user"
	"strconv"
	"time"

	"github.com/dcnet-lab/dctransfer/pkg/isolation"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/ssh"
)

// Remote provisioning is responsible for providing the execution environment
// on remote machine via ssh.
type Remote struct {
	sshConfig  SSHConfig
	decorators isolation.Decorators
}

// NewRemote returns a Remote instance.
func NewRemote(sshConfig SSHConfig, decorators ...isolation.Decorator) Remote {
	return Remote{
		sshConfig:  sshConfig,
		decorators: decorators,
	}
}

// NewRemoteFromIP returns a Remote instance connecting as current user on default port.
func NewRemoteFromIP(address string, decorators ...isolation.Decorator) (Remote, error) {
	currentUser, err := user.Current()
	if err != nil {
		return Remote{}, errors.Wrap(err, "cannot get current user")
	}

	sshConfig, err := NewSSHConfig(address, DefaultSSHPort, currentUser)
	if err != nil {
		return Remote{}, errors.Wrapf(err, "cannot create ssh config for %q", address)
	}

	return NewRemote(*sshConfig, decorators...), nil
}

// String returns user-friendly name of executor.
func (r Remote) String() string {
	return fmt.Sprintf("Remote %s", r.sshConfig.Host)
}

// Execute runs the command given as input.
// Returned Task Handle is able to stop & monitor the provisioned process.
func (r Remote) Execute(command string) (TaskHandle, error) {
	command = r.decorators.Decorate(command)
	address := net.JoinHostPort(r.sshConfig.Host, strconv.Itoa(r.sshConfig.Port))
	log.Debugf("Starting %q on %s", command, address)

	client, err := ssh.Dial("tcp", address, r.sshConfig.ClientConfig)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot connect to %s", address)
	}

	session, err := client.NewSession()
	if err != nil {
		client.Close()
		return nil, errors.Wrapf(err, "cannot create session on %s", address)
	}

	// Pseudo terminal makes remote processes receive SIGHUP when session is closed.
	terminal := ssh.TerminalModes{
		ssh.ECHO:          0,
		ssh.TTY_OP_ISPEED: 14400,
		ssh.TTY_OP_OSPEED: 14400,
	}
	if err := session.RequestPty("xterm", 80, 40, terminal); err != nil {
		session.Close()
		client.Close()
		return nil, errors.Wrapf(err, "cannot request pty on %s", address)
	}

	stdout, stderr, outputDir, err := createExecutorOutputFiles(command, "remote")
	if err != nil {
		session.Close()
		client.Close()
		return nil, err
	}
	session.Stdout = stdout
	session.Stderr = stderr

	if err := session.Start(command); err != nil {
		closeOutputFiles(stdout, stderr)
		session.Close()
		client.Close()
		return nil, errors.Wrapf(err, "cannot start %q on %s", command, address)
	}

	handle := &remoteTaskHandle{
		command:    command,
		host:       r.sshConfig.Host,
		client:     client,
		session:    session,
		stdoutPath: stdout.Name(),
		stderrPath: stderr.Name(),
		outputDir:  outputDir,
		done:       make(chan struct{}),
	}
	go handle.wait(stdout, stderr)
	register(handle)

	return handle, nil
}

// remoteTaskHandle implements TaskHandle interface.
type remoteTaskHandle struct {
	command    string
	host       string
	client     *ssh.Client
	session    *ssh.Session
	stdoutPath string
	stderrPath string
	outputDir  string
	done       chan struct{}
	exitCode   int
}

func (t *remoteTaskHandle) wait(stdout, stderr *os.File) {
	defer close(t.done)
	defer closeOutputFiles(stdout, stderr)
	defer t.client.Close()

	err := t.session.Wait()
	switch err := err.(type) {
	case nil:
		t.exitCode = 0
	case *ssh.ExitError:
		t.exitCode = err.ExitStatus()
	default:
		log.Debugf("Remote task %q ended without exit status: %v", t.command, err)
		t.exitCode = -1
	}
	log.Debugf("Ended %q on %s with status code %d", t.command, t.host, t.exitCode)
}

func (t *remoteTaskHandle) isTerminated() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}

// Stop terminates the remote task by signalling it and closing the session.
func (t *remoteTaskHandle) Stop() error {
	if t.isTerminated() {
		return nil
	}

	if err := t.session.Signal(ssh.SIGTERM); err != nil {
		log.Debugf("Cannot signal %s: %v", t, err)
	}
	if terminated, _ := t.Wait(killTimeout); terminated {
		return nil
	}

	// Closing the session hangs up the pseudo terminal.
	t.session.Close()
	if terminated, _ := t.Wait(killTimeout); !terminated {
		return errors.Errorf("cannot terminate %s", t)
	}
	return nil
}

// Status returns a state of the task.
func (t *remoteTaskHandle) Status() TaskState {
	if t.isTerminated() {
		return TERMINATED
	}
	return RUNNING
}

// ExitCode returns exit code of terminated task.
func (t *remoteTaskHandle) ExitCode() (int, error) {
	if !t.isTerminated() {
		return -1, errors.Errorf("%s is not terminated", t)
	}
	return t.exitCode, nil
}

// StdoutFile returns a file opened for reading the task's stdout.
func (t *remoteTaskHandle) StdoutFile() (*os.File, error) {
	return os.Open(t.stdoutPath)
}

// StderrFile returns a file opened for reading the task's stderr.
func (t *remoteTaskHandle) StderrFile() (*os.File, error) {
	return os.Open(t.stderrPath)
}

// Wait blocks until process is terminated or timeout appeared.
func (t *remoteTaskHandle) Wait(timeout time.Duration) (bool, error) {
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

// EraseOutput removes task's stdout & stderr files.
func (t *remoteTaskHandle) EraseOutput() error {
	return errors.Wrapf(os.RemoveAll(t.outputDir), "cannot remove %q", t.outputDir)
}

// Address returns address where task was located.
func (t *remoteTaskHandle) Address() string {
	return t.host
}

// String returns name of the task.
func (t *remoteTaskHandle) String() string {
	return fmt.Sprintf("remote task %q on %s", t.command, t.host)
}
