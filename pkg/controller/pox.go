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

// Package controller launches POX OpenFlow controller running the ripl
// routing module.
package controller

import (
	"fmt"
	"net"
	"path/filepath"
	"strings"
	"time"

	"github.com/dcnet-lab/dctransfer/pkg/conf"
	"github.com/dcnet-lab/dctransfer/pkg/executor"
	"github.com/dcnet-lab/dctransfer/pkg/utils/errutil"
	"github.com/dcnet-lab/dctransfer/pkg/utils/fs"
	"github.com/dcnet-lab/dctransfer/pkg/utils/netutil"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const (
	name          = "POX"
	probeInterval = 500 * time.Millisecond
)

var (
	pathFlag         = conf.NewStringFlag("controller_path", "Path to pox.py", "~/pox/pox.py")
	logFlag          = conf.NewStringFlag("controller_log", "File receiving controller stdout and stderr", "/tmp/pox.out")
	addressFlag      = conf.NewStringFlag("controller_address", "OpenFlow address switches connect to and readiness is probed at", "127.0.0.1:6633")
	readyTimeoutFlag = conf.NewDurationFlag("controller_ready_timeout", "Time given to controller to start listening", 10*time.Second)
)

// Config is a config for the POX controller.
type Config struct {
	Path         string
	LogPath      string
	Address      string
	ReadyTimeout time.Duration
	Module       string
	Routing      string
	Mode         string
}

// DefaultConfig is a constructor for Config with values taken from flags.
func DefaultConfig() Config {
	return Config{
		Path:         fs.ExpandHome(pathFlag.Value()),
		LogPath:      logFlag.Value(),
		Address:      addressFlag.Value(),
		ReadyTimeout: readyTimeoutFlag.Value(),
		Module:       "riplpox.riplpox",
		Routing:      "hashed",
		Mode:         "reactive",
	}
}

// POX is a launcher for the POX controller.
type POX struct {
	exec           executor.Executor
	conf           Config
	topology       string
	isControllerUp netutil.IsListeningFunction // For mocking purposes.
}

// New is a constructor for POX. Topology is the controller's topology
// argument, e.g. "ft,4" or "dht".
func New(exec executor.Executor, config Config, topology string) POX {
	return POX{
		exec:           exec,
		conf:           config,
		topology:       topology,
		isControllerUp: netutil.IsListening,
	}
}

func (p POX) buildCommand() string {
	return fmt.Sprintf("exec %s --no-cli %s --topo=%s --routing=%s --mode=%s > %s 2>&1",
		p.conf.Path, p.conf.Module, p.topology, p.conf.Routing, p.conf.Mode, p.conf.LogPath)
}

// Launch starts the controller and waits until it accepts connections.
func (p POX) Launch() (executor.TaskHandle, error) {
	task, err := p.exec.Execute(p.buildCommand())
	if err != nil {
		return nil, errors.Wrapf(errutil.ErrProcessFailure, "cannot start controller: %v", err)
	}

	address := listenAddress(p.conf.Address, task.Address())
	if err := p.awaitReady(task, address); err != nil {
		if stopErr := executor.StopAndErase(task); stopErr != nil {
			log.Errorf("Failed to stop controller: %v", stopErr)
		}
		if tail, tailErr := p.readLogTail(); tailErr != nil {
			log.Debugf("Cannot read controller log: %v", tailErr)
		} else {
			log.Errorf("Last lines of %s:\n%s", p.conf.LogPath, tail)
		}
		return nil, err
	}
	log.Infof("Controller is listening on %s", address)

	return task, nil
}

// listenAddress returns address at which controller started on taskAddress is reachable.
// Loopback controller address on a remote host is rewritten to that host.
func listenAddress(controllerAddress, taskAddress string) string {
	host, port, err := net.SplitHostPort(controllerAddress)
	if err != nil || !executor.IsLocalAddress(host) || executor.IsLocalAddress(taskAddress) {
		return controllerAddress
	}
	return net.JoinHostPort(taskAddress, port)
}

func (p POX) awaitReady(task executor.TaskHandle, address string) error {
	deadline := time.Now().Add(p.conf.ReadyTimeout)
	for {
		if task.Status() == executor.TERMINATED {
			exitCode, _ := task.ExitCode()
			return errors.Wrapf(errutil.ErrProcessFailure,
				"controller exited with code %d before listening on %s", exitCode, address)
		}
		if p.isControllerUp(address, probeInterval) {
			return nil
		}
		if time.Now().After(deadline) {
			return errors.Wrapf(errutil.ErrProcessFailure,
				"controller is not listening on %s after %s", address, p.conf.ReadyTimeout)
		}
	}
}

// readLogTail reads the end of controller log on the host controller runs on.
func (p POX) readLogTail() (string, error) {
	return executor.RunAndWait(p.exec,
		fmt.Sprintf("tail -n %d %s", executor.LogLinesCount.Value(), p.conf.LogPath))
}

// SalvageLog fetches controller log from the host controller runs on into
// given local directory and returns path of the copy.
func (p POX) SalvageLog(dir string) (string, error) {
	content, err := executor.RunAndWait(p.exec, "cat "+p.conf.LogPath)
	if err != nil {
		return "", errors.Wrapf(errutil.ErrFilesystemFailure, "cannot read controller log: %v", err)
	}
	// Remote output comes through a terminal.
	content = strings.Replace(content, "\r\n", "\n", -1) + "\n"

	destination := filepath.Join(dir, filepath.Base(p.conf.LogPath))
	if err := fs.WriteFile(destination, strings.NewReader(content)); err != nil {
		return "", errors.Wrapf(errutil.ErrFilesystemFailure, "cannot salvage controller log: %v", err)
	}
	return destination, nil
}

// String returns human readable name for job.
func (p POX) String() string {
	return name
}
