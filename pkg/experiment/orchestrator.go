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

package experiment

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/dcnet-lab/dctransfer/pkg/controller"
	"github.com/dcnet-lab/dctransfer/pkg/executor"
	"github.com/dcnet-lab/dctransfer/pkg/isolation"
	"github.com/dcnet-lab/dctransfer/pkg/metadata"
	"github.com/dcnet-lab/dctransfer/pkg/mptcp"
	"github.com/dcnet-lab/dctransfer/pkg/network"
	"github.com/dcnet-lab/dctransfer/pkg/topology"
	"github.com/dcnet-lab/dctransfer/pkg/transfer"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Network is an emulated network the transfers run on.
type Network interface {
	Start() error
	Hosts() []network.Host
	Stop() error
}

// Multipath switches MPTCP on or off for the run.
type Multipath interface {
	Enable(subflows int) (mptcp.Release, error)
	Disable() (mptcp.Release, error)
}

// LogSalvager copies controller log into a directory.
type LogSalvager interface {
	SalvageLog(dir string) (string, error)
}

// Environment holds collaborators of the run.
type Environment struct {
	Topology   *topology.Topology
	Controller executor.Launcher
	Salvager   LogSalvager
	Network    Network
	Multipath  Multipath
	Readiness  transfer.Readiness
	Receiver   transfer.ReceiverConfig
	Sender     transfer.SenderConfig
	// Metadata is optional.
	Metadata metadata.Metadata
	// WorkDir receives controller log after failed run.
	WorkDir string
	// Summary receives results table; nil disables it.
	Summary io.Writer
}

// NewEnvironment creates collaborators running emulation on config.EmulationHost.
func NewEnvironment(variant Variant, config RunConfig) (*Environment, error) {
	config = variant.WithDefaults(config)

	topo, err := variant.NewTopology(config.K)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidArgument, err.Error())
	}

	controllerExecutor, err := executor.NewShell(config.EmulationHost)
	if err != nil {
		return nil, errors.Wrap(ErrResourceUnavailable, err.Error())
	}
	controllerConfig := controller.DefaultConfig()
	pox := controller.New(controllerExecutor, controllerConfig, topo.Kind)

	shell := network.NewShellFactory(config.EmulationHost)
	root, err := shell(isolation.Sudo{})
	if err != nil {
		return nil, errors.Wrap(ErrResourceUnavailable, err.Error())
	}
	kernel := mptcp.NewKernel(root, executor.IsLocalAddress(config.EmulationHost))

	link := network.LinkConfig{Bandwidth: config.Bandwidth, MaxQueueSize: config.MaxQueueSize}

	workDir, err := os.Getwd()
	if err != nil {
		return nil, errors.Wrap(ErrFilesystemFailure, err.Error())
	}

	return &Environment{
		Topology:   topo,
		Controller: executor.ServiceLauncher{Launcher: pox},
		Salvager:   pox,
		Network:    network.NewEmulated(topo, shell, controllerConfig.Address, link),
		Multipath:  mptcp.New(kernel),
		Readiness:  transfer.DefaultReadiness(),
		Receiver:   transfer.DefaultReceiverConfig(),
		Sender:     transfer.DefaultSenderConfig(),
		WorkDir:    workDir,
		Summary:    os.Stdout,
	}, nil
}

// Orchestrator runs the experiment: controller, network, multipath setting,
// receivers, senders, waiting, teardown and results.
type Orchestrator struct {
	variant Variant
	config  RunConfig
	env     *Environment
	cleanup cleanupStack
}

// NewOrchestrator creates Orchestrator of a single run.
func NewOrchestrator(variant Variant, config RunConfig, env *Environment) *Orchestrator {
	return &Orchestrator{
		variant: variant,
		config:  variant.WithDefaults(config),
		env:     env,
	}
}

// Run performs the experiment and returns path of the results file.
// On failure everything started is stopped and controller log is copied to working directory.
func (o *Orchestrator) Run(ctx context.Context) (string, error) {
	roles, results, err := o.run(ctx)
	if err != nil {
		log.Errorf("Experiment failed: %+v", err)
		if cleanupErr := o.cleanup.unwind(); cleanupErr != nil {
			log.Errorf("Cleanup after failure was not complete: %v", cleanupErr)
		}
		o.salvageControllerLog()
		return "", err
	}

	if err := o.cleanup.unwind(); err != nil {
		log.Errorf("Teardown was not complete: %v", err)
	}

	path, err := WriteResults(o.config.ResultsDir, results, o.config, o.variant)
	if err != nil {
		return "", err
	}
	log.Infof("Results written to %q", path)

	if o.env.Metadata != nil {
		if err := metadata.RecordResults(o.env.Metadata, path, results.Senders, results.Receivers); err != nil {
			log.Errorf("Cannot record results metadata: %v", err)
		}
	}
	if o.env.Summary != nil {
		PrintSummary(o.env.Summary, roles, results)
	}
	LogStatistics(results)

	return path, nil
}

func (o *Orchestrator) run(ctx context.Context) (RoleMapping, Results, error) {
	if o.config.TopologyDump != "" && o.env.Topology != nil {
		if err := o.env.Topology.WriteYAML(o.config.TopologyDump); err != nil {
			return RoleMapping{}, Results{}, errors.Wrap(ErrFilesystemFailure, err.Error())
		}
	}

	if err := o.startController(); err != nil {
		return RoleMapping{}, Results{}, err
	}
	hosts, err := o.startNetwork()
	if err != nil {
		return RoleMapping{}, Results{}, err
	}
	if err := o.setMultipath(ctx); err != nil {
		return RoleMapping{}, Results{}, err
	}

	seed := o.config.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	roles, err := SelectRoles(hosts, o.config.Senders, o.config.Receivers, o.config.Selection, seed)
	if err != nil {
		return RoleMapping{}, Results{}, err
	}
	log.Infof("Selected %d senders and %d receivers (%s, seed %d)", len(roles.Senders), len(roles.Receivers), o.config.Selection, seed)

	receivers, err := o.launchReceivers(roles)
	if err != nil {
		return roles, Results{}, err
	}

	probed := map[string]executor.Executor{}
	for _, host := range roles.Receivers {
		probed[host.Name] = host.Executor()
	}
	if err := o.env.Readiness.Await(ctx, probed); err != nil {
		return roles, Results{}, err
	}

	senders, err := o.launchSenders(roles)
	if err != nil {
		return roles, Results{}, err
	}

	results, err := o.awaitAll(ctx, roles, senders, receivers)
	return roles, results, err
}

func (o *Orchestrator) startController() error {
	log.Infof("Starting %s", o.env.Controller)
	handle, err := o.env.Controller.Launch()
	if err != nil {
		return errors.Wrap(err, "cannot start controller")
	}
	o.cleanup.push("controller", func() error {
		defer executor.Unregister(handle)
		return handle.Stop()
	})
	return nil
}

func (o *Orchestrator) startNetwork() ([]network.Host, error) {
	// Network removes whatever it managed to create, also after failed start.
	o.cleanup.push("network", o.env.Network.Stop)
	if err := o.env.Network.Start(); err != nil {
		return nil, errors.Wrapf(ErrResourceUnavailable, "cannot start network: %v", err)
	}
	return o.env.Network.Hosts(), nil
}

func (o *Orchestrator) setMultipath(ctx context.Context) error {
	var (
		release mptcp.Release
		err     error
	)
	if o.config.MPTCP {
		release, err = o.env.Multipath.Enable(o.config.Subflows)
	} else {
		release, err = o.env.Multipath.Disable()
	}
	if err != nil {
		return errors.Wrapf(ErrResourceUnavailable, "cannot configure MPTCP: %v", err)
	}
	o.cleanup.push("mptcp", func() error { return release() })

	if !o.config.MPTCP || o.config.MPTCPSettle == 0 {
		return nil
	}
	timer := time.NewTimer(o.config.MPTCPSettle)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return errors.Wrapf(ErrProcessFailure, "interrupted: %v", ctx.Err())
	}
}

// hostExecutor returns executor of the host. In debug mode stdout goes to
// debug_dir/<host>.out and stderr to debug_dir/<host>.err.
func (o *Orchestrator) hostExecutor(host network.Host) executor.Executor {
	exec := host.Executor()
	if !o.config.Debug {
		return exec
	}
	local, ok := exec.(executor.Local)
	if !ok {
		log.Warnf("Debug output files are supported for local emulation only, output of %s stays in %s", host.Name, executor.OutputDirectory())
		return exec
	}
	return local.WithOutputFiles(
		filepath.Join(o.config.DebugDir, host.Name+".out"),
		filepath.Join(o.config.DebugDir, host.Name+".err"))
}

func (o *Orchestrator) register(name string, handle executor.TaskHandle) {
	o.cleanup.push(name, func() error {
		defer executor.Unregister(handle)
		return handle.Stop()
	})
}

func (o *Orchestrator) launchReceivers(roles RoleMapping) ([]executor.TaskHandle, error) {
	config := o.env.Receiver
	config.Senders = o.config.Senders
	config.Receivers = o.config.Receivers
	config.Dataset = o.config.Dataset
	config.Debug = o.config.Debug

	var handles []executor.TaskHandle
	for _, host := range roles.Receivers {
		launcher := transfer.NewReceiver(o.hostExecutor(host), host.Name, config)
		handle, err := launcher.Launch()
		if err != nil {
			return nil, err
		}
		log.Debugf("Started %s on %s", launcher, host)
		o.register(launcher.String(), handle)
		handles = append(handles, handle)
	}
	return handles, nil
}

func (o *Orchestrator) launchSenders(roles RoleMapping) ([]executor.TaskHandle, error) {
	config := o.env.Sender
	config.ChunkSize = o.config.ChunkSize
	config.Senders = o.config.Senders
	config.WithSenderCount = o.variant.SenderCount
	config.Dataset = o.config.Dataset
	config.Debug = o.config.Debug

	receiverIPs := roles.ReceiverIPs()
	var handles []executor.TaskHandle
	for i, host := range roles.Senders {
		launcher := transfer.NewSender(o.hostExecutor(host), i, receiverIPs, config)
		handle, err := launcher.Launch()
		if err != nil {
			return nil, err
		}
		log.Debugf("Started %s on %s", launcher, host)
		o.register(launcher.String(), handle)
		handles = append(handles, handle)
	}
	return handles, nil
}

// awaitAll waits for senders and then for receivers and collects their output.
func (o *Orchestrator) awaitAll(ctx context.Context, roles RoleMapping, senders, receivers []executor.TaskHandle) (Results, error) {
	progress := startProgress(len(senders)+len(receivers), o.config.ProgressInterval)
	defer progress.finish()

	results := Results{}
	for i, handle := range senders {
		output, err := o.await(ctx, roles.Senders[i], handle, fmt.Sprintf("sender %d", i))
		if err != nil {
			return results, err
		}
		results.Senders = append(results.Senders, output)
		progress.increment()
	}
	for i, handle := range receivers {
		output, err := o.await(ctx, roles.Receivers[i], handle, "receiver")
		if err != nil {
			return results, err
		}
		results.Receivers = append(results.Receivers, output)
		progress.increment()
	}
	return results, nil
}

func (o *Orchestrator) await(ctx context.Context, host network.Host, handle executor.TaskHandle, role string) (string, error) {
	err := executor.Await(ctx, handle, o.config.TransferTimeout)
	if err != nil {
		if stopErr := handle.Stop(); stopErr != nil {
			log.Errorf("Cannot stop %s on %s: %v", role, host, stopErr)
		}
		return "", errors.Wrapf(ErrProcessFailure, "%s on host %s did not finish: %v", role, host.Name, err)
	}

	exitCode, err := handle.ExitCode()
	if err == nil && exitCode != 0 {
		log.Warnf("%s on host %s exited with code %d", role, host.Name, exitCode)
		executor.LogUnsucessfulExecution(handle.String(), host.Name, handle)
	}

	return transfer.Output(handle)
}

func (o *Orchestrator) salvageControllerLog() {
	if o.env.Salvager == nil || o.env.WorkDir == "" {
		return
	}
	path, err := o.env.Salvager.SalvageLog(o.env.WorkDir)
	if err != nil {
		log.Errorf("%v", err)
		return
	}
	log.Errorf("Controller log copied to %q", path)
}
