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

// Package transfer launches the sender and receiver programs of a data
// transfer experiment on emulated hosts.
package transfer

import (
	"fmt"
	"strings"
	"time"

	"github.com/dcnet-lab/dctransfer/pkg/conf"
	"github.com/dcnet-lab/dctransfer/pkg/executor"
	"github.com/dcnet-lab/dctransfer/pkg/utils/errutil"
	"github.com/dcnet-lab/dctransfer/pkg/utils/fs"
	"github.com/pkg/errors"
)

var (
	receiverCommandFlag = conf.NewStringFlag("receiver_command", "Command starting receiver program", "python receiver.py")
	senderCommandFlag   = conf.NewStringFlag("sender_command", "Command starting sender program", "python sender.py")
)

// ReceiverConfig is a config shared by all receivers of the experiment.
type ReceiverConfig struct {
	Command   string
	Senders   int
	Receivers int
	Dataset   string
	Debug     bool
}

// DefaultReceiverConfig returns ReceiverConfig with command taken from flags.
func DefaultReceiverConfig() ReceiverConfig {
	return ReceiverConfig{Command: receiverCommandFlag.Value()}
}

// Receiver is a launcher for receiver program identified by its host name.
type Receiver struct {
	exec executor.Executor
	id   string
	conf ReceiverConfig
}

// NewReceiver is a constructor for Receiver.
func NewReceiver(exec executor.Executor, id string, config ReceiverConfig) Receiver {
	return Receiver{exec: exec, id: id, conf: config}
}

func (r Receiver) buildCommand() string {
	command := fmt.Sprintf("%s --id %s --nr %d --ns %d --ds %s",
		r.conf.Command, r.id, r.conf.Receivers, r.conf.Senders, r.conf.Dataset)
	if r.conf.Debug {
		command += " --debug"
	}
	return command
}

// Launch starts the receiver.
func (r Receiver) Launch() (executor.TaskHandle, error) {
	task, err := r.exec.Execute(r.buildCommand())
	if err != nil {
		return nil, errors.Wrapf(errutil.ErrProcessFailure, "cannot start receiver on %s: %v", r.id, err)
	}
	return task, nil
}

// String returns human readable name for job.
func (r Receiver) String() string {
	return fmt.Sprintf("receiver %s", r.id)
}

// SenderConfig is a config shared by all senders of the experiment.
type SenderConfig struct {
	Command   string
	ChunkSize int
	Senders   int
	// WithSenderCount passes number of senders to every sender.
	WithSenderCount bool
	Dataset         string
	Debug           bool
}

// DefaultSenderConfig returns SenderConfig with command taken from flags.
func DefaultSenderConfig() SenderConfig {
	return SenderConfig{Command: senderCommandFlag.Value()}
}

// Sender is a launcher for sender program sending to all receivers.
type Sender struct {
	exec        executor.Executor
	index       int
	receiverIPs []string
	conf        SenderConfig
}

// NewSender is a constructor for Sender. Index is position of the sender in launch order.
func NewSender(exec executor.Executor, index int, receiverIPs []string, config SenderConfig) Sender {
	return Sender{exec: exec, index: index, receiverIPs: receiverIPs, conf: config}
}

// FormatIPList renders addresses as the list literal receivers are given in,
// e.g. ['10.1.0.2', '10.3.0.2'].
func FormatIPList(ips []string) string {
	quoted := make([]string, 0, len(ips))
	for _, ip := range ips {
		quoted = append(quoted, "'"+ip+"'")
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

func (s Sender) buildCommand() string {
	command := fmt.Sprintf("%s --id %d --cs %d", s.conf.Command, s.index, s.conf.ChunkSize)
	if s.conf.WithSenderCount {
		command += fmt.Sprintf(" --ns %d", s.conf.Senders)
	}
	command += fmt.Sprintf(" --ips \"%s\" --ds %s", FormatIPList(s.receiverIPs), s.conf.Dataset)
	if s.conf.Debug {
		command += " --debug"
	}
	return command
}

// Launch starts the sender.
func (s Sender) Launch() (executor.TaskHandle, error) {
	task, err := s.exec.Execute(s.buildCommand())
	if err != nil {
		return nil, errors.Wrapf(errutil.ErrProcessFailure, "cannot start sender %d: %v", s.index, err)
	}
	return task, nil
}

// String returns human readable name for job.
func (s Sender) String() string {
	return fmt.Sprintf("sender %d", s.index)
}

// Output returns the last non-empty line printed by finished transfer program.
func Output(task executor.TaskHandle) (string, error) {
	stdout, err := task.StdoutFile()
	if err != nil {
		return "", errors.Wrapf(errutil.ErrProcessFailure, "cannot read output of %s: %v", task, err)
	}
	defer stdout.Close()

	line, err := fs.LastLine(stdout)
	if err != nil {
		return "", errors.Wrapf(errutil.ErrProcessFailure, "cannot read output of %s: %v", task, err)
	}
	return line, nil
}

// settle waits for given time unless done is closed first.
func settle(done <-chan struct{}, duration time.Duration) bool {
	timer := time.NewTimer(duration)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-done:
		return false
	}
}
