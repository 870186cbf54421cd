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
	"time"

	"github.com/dcnet-lab/dctransfer/pkg/conf"
	"github.com/pkg/errors"
)

var (
	bandwidthFlag = conf.NewIntFlag("bw", "Bandwidth of links in Mbit/s", 10)
	kFlag         = conf.NewIntFlag("k", "K of the tree: number of pods", 4)
	switchesFlag  = conf.NewIntFlag("sw", "Number of switches, used in results name of dual-homed tree", 1)
	sendersFlag   = conf.NewIntFlag("ns", "Number of senders. Must be >= 1", 1)
	receiversFlag = conf.NewIntFlag("nr", "Number of receivers. Must be >= 1", 1)
	subflowsFlag  = conf.NewIntFlag("nflows", "Number of MPTCP subflows", 1)
	datasetFlag   = conf.NewStringFlag("ds", "Dataset to transfer", "covtype")
	chunkSizeFlag = conf.NewIntFlag("cs", "Size of chunks the dataset is sent in", 500)
	mptcpFlag     = conf.NewBoolFlag("mptcp", "Enable MPTCP (net.mptcp.mptcp_enabled)", false)
	debugFlag     = conf.NewBoolFlag("debug", "Turn on debugging of transfer programs and store their output in debug_dir", false)

	resultsDirFlag       = conf.NewStringFlag("results_dir", "Directory results are written to", "../results")
	mptcpSettleFlag      = conf.NewDurationFlag("mptcp_settle", "Time given to kernel after changing MPTCP settings", 3*time.Second)
	transferTimeoutFlag  = conf.NewDurationFlag("transfer_timeout", "Maximum time of waiting for each transfer program; 0 waits forever", 0)
	progressIntervalFlag = conf.NewDurationFlag("progress_interval", "How often progress of transfers is logged", 10*time.Second)
	roleSelectionFlag    = conf.NewStringFlag("role_selection", "How senders and receivers are picked from their pools: ordered or shuffled (default depends on topology)", "")
	roleSeedFlag         = conf.NewIntFlag("role_seed", "Seed for shuffled role selection; 0 picks one from clock", 0)
	maxQueueSizeFlag     = conf.NewIntFlag("max_queue_size", "Queue limit of links in packets; -1 uses topology default, 0 disables", -1)
	debugDirFlag         = conf.NewStringFlag("debug_dir", "Directory receiving <host>.out files in debug mode", "/tmp")
	emulationHostFlag    = conf.NewStringFlag("emulation_host", "Machine the network is emulated on", "127.0.0.1")
	topologyDumpFlag     = conf.NewStringFlag("topology_dump", "File the topology is written to as YAML; empty disables", "")
)

// RunConfig is configuration of a single run. It is built once and not changed afterwards.
type RunConfig struct {
	Bandwidth int
	K         int
	Switches  int
	Senders   int
	Receivers int
	Subflows  int
	Dataset   string
	ChunkSize int
	MPTCP     bool
	Debug     bool

	ResultsDir       string
	MPTCPSettle      time.Duration
	TransferTimeout  time.Duration
	ProgressInterval time.Duration
	Selection        Selection
	Seed             int64
	// MaxQueueSize below zero means variant default.
	MaxQueueSize  int
	DebugDir      string
	EmulationHost string
	TopologyDump  string
}

// ParseRunConfig parses command line arguments (and DCT_ environment) into RunConfig.
// Both "-bw 10" and "--bw 10" forms are accepted.
func ParseRunConfig(args []string) (RunConfig, error) {
	if err := conf.ParseArgs(args); err != nil {
		return RunConfig{}, errors.Wrap(ErrInvalidArgument, err.Error())
	}
	return RunConfigFromFlags()
}

// RunConfigFromFlags builds RunConfig from already parsed flags.
func RunConfigFromFlags() (RunConfig, error) {
	selection, err := ParseSelection(roleSelectionFlag.Value())
	if err != nil {
		return RunConfig{}, err
	}

	config := RunConfig{
		Bandwidth: bandwidthFlag.Value(),
		K:         kFlag.Value(),
		Switches:  switchesFlag.Value(),
		Senders:   sendersFlag.Value(),
		Receivers: receiversFlag.Value(),
		Subflows:  subflowsFlag.Value(),
		Dataset:   datasetFlag.Value(),
		ChunkSize: chunkSizeFlag.Value(),
		MPTCP:     mptcpFlag.Value(),
		Debug:     debugFlag.Value(),

		ResultsDir:       resultsDirFlag.Value(),
		MPTCPSettle:      mptcpSettleFlag.Value(),
		TransferTimeout:  transferTimeoutFlag.Value(),
		ProgressInterval: progressIntervalFlag.Value(),
		Selection:        selection,
		Seed:             int64(roleSeedFlag.Value()),
		MaxQueueSize:     maxQueueSizeFlag.Value(),
		DebugDir:         debugDirFlag.Value(),
		EmulationHost:    emulationHostFlag.Value(),
		TopologyDump:     topologyDumpFlag.Value(),
	}
	return config, config.Validate()
}

// Validate checks ranges of the configuration.
func (c RunConfig) Validate() error {
	positive := []struct {
		name  string
		value int
	}{
		{"bw", c.Bandwidth},
		{"sw", c.Switches},
		{"ns", c.Senders},
		{"nr", c.Receivers},
		{"nflows", c.Subflows},
		{"cs", c.ChunkSize},
	}
	for _, field := range positive {
		if field.value < 1 {
			return errors.Wrapf(ErrInvalidArgument, "%s must be >= 1, got %d", field.name, field.value)
		}
	}

	if c.K < 2 || c.K%2 != 0 {
		return errors.Wrapf(ErrInvalidArgument, "k must be even and >= 2, got %d", c.K)
	}
	if c.Dataset == "" {
		return errors.Wrap(ErrInvalidArgument, "ds must not be empty")
	}
	if c.TransferTimeout < 0 {
		return errors.Wrapf(ErrInvalidArgument, "transfer_timeout must not be negative, got %s", c.TransferTimeout)
	}
	if c.ProgressInterval <= 0 {
		return errors.Wrapf(ErrInvalidArgument, "progress_interval must be positive, got %s", c.ProgressInterval)
	}
	return nil
}
