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
	"fmt"

	"github.com/dcnet-lab/dctransfer/pkg/topology"
)

// Variant captures what differs between experiments run on fat tree and
// on dual-homed tree.
type Variant struct {
	Name        string
	NewTopology func(k int) (*topology.Topology, error)
	// SenderCount passes number of senders to every sender.
	SenderCount         bool
	DefaultSelection    Selection
	DefaultMaxQueueSize int
	fileName            func(RunConfig) string
}

// FatTree runs transfers on k-ary fat tree. Results of plain TCP runs are
// marked with "_tcp" suffix.
var FatTree = Variant{
	Name:                "fattree",
	NewTopology:         topology.NewFatTree,
	DefaultSelection:    Shuffled,
	DefaultMaxQueueSize: 100,
	fileName: func(c RunConfig) string {
		name := fmt.Sprintf("bw%d_ns%d_nr_%d_nf%d_%s", c.Bandwidth, c.Senders, c.Receivers, c.Subflows, c.Dataset)
		if !c.MPTCP {
			name += "_tcp"
		}
		return name + ".csv"
	},
}

// DualHomed runs transfers on dual-homed tree. Results of MPTCP runs are
// marked with "_mptcp" suffix.
var DualHomed = Variant{
	Name:             "dualhomed",
	NewTopology:      topology.NewDualHomed,
	SenderCount:      true,
	DefaultSelection: Ordered,
	fileName: func(c RunConfig) string {
		name := fmt.Sprintf("bw%d_sw%d_ns%d_nr_%d_nf%d_%s", c.Bandwidth, c.Switches, c.Senders, c.Receivers, c.Subflows, c.Dataset)
		if c.MPTCP {
			name += "_mptcp"
		}
		return name + ".csv"
	},
}

// ResultsFileName returns name of the results file of the run.
func (v Variant) ResultsFileName(config RunConfig) string {
	return v.fileName(config)
}

// WithDefaults fills variant dependent settings left unset in configuration.
func (v Variant) WithDefaults(config RunConfig) RunConfig {
	if config.Selection == "" {
		config.Selection = v.DefaultSelection
	}
	if config.MaxQueueSize < 0 {
		config.MaxQueueSize = v.DefaultMaxQueueSize
	}
	return config
}
