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
	"testing"
	"time"

	"github.com/dcnet-lab/dctransfer/pkg/utils/errutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestParseRunConfig(t *testing.T) {
	Convey("When parsing command line", t, func() {
		Convey("single dash options are accepted", func() {
			config, err := ParseRunConfig([]string{"-bw", "20", "-k", "4", "-ns", "2", "-nr", "3", "-nflows", "4", "-ds", "mnist", "-cs", "100", "-mptcp"})
			So(err, ShouldBeNil)
			So(config.Bandwidth, ShouldEqual, 20)
			So(config.K, ShouldEqual, 4)
			So(config.Senders, ShouldEqual, 2)
			So(config.Receivers, ShouldEqual, 3)
			So(config.Subflows, ShouldEqual, 4)
			So(config.Dataset, ShouldEqual, "mnist")
			So(config.ChunkSize, ShouldEqual, 100)
			So(config.MPTCP, ShouldBeTrue)
		})

		Convey("unset options get defaults", func() {
			config, err := ParseRunConfig([]string{})
			So(err, ShouldBeNil)
			So(config.Bandwidth, ShouldEqual, 10)
			So(config.Senders, ShouldEqual, 1)
			So(config.Receivers, ShouldEqual, 1)
			So(config.MPTCP, ShouldBeFalse)
			So(config.Selection, ShouldEqual, Selection(""))
			So(config.MaxQueueSize, ShouldEqual, -1)
			So(config.MPTCPSettle, ShouldEqual, 3*time.Second)
		})

		Convey("odd k is rejected", func() {
			_, err := ParseRunConfig([]string{"--k", "3"})
			So(errutil.IsKind(err, ErrInvalidArgument), ShouldBeTrue)
		})

		Convey("zero senders are rejected", func() {
			_, err := ParseRunConfig([]string{"--ns", "0"})
			So(errutil.IsKind(err, ErrInvalidArgument), ShouldBeTrue)
		})

		Convey("unknown role selection is rejected", func() {
			_, err := ParseRunConfig([]string{"--role_selection", "random"})
			So(errutil.IsKind(err, ErrInvalidArgument), ShouldBeTrue)
		})

		Convey("malformed number is a usage error", func() {
			_, err := ParseRunConfig([]string{"--bw", "fast"})
			So(errutil.IsKind(err, ErrInvalidArgument), ShouldBeTrue)
		})
	})
}

func TestVariant(t *testing.T) {
	config := RunConfig{Bandwidth: 10, Switches: 2, Senders: 3, Receivers: 4, Subflows: 5, Dataset: "covtype", MaxQueueSize: -1}

	Convey("Fat tree results name marks TCP runs", t, func() {
		So(FatTree.ResultsFileName(config), ShouldEqual, "bw10_ns3_nr_4_nf5_covtype_tcp.csv")
		config.MPTCP = true
		So(FatTree.ResultsFileName(config), ShouldEqual, "bw10_ns3_nr_4_nf5_covtype.csv")
		config.MPTCP = false
	})

	Convey("Dual-homed results name marks MPTCP runs", t, func() {
		So(DualHomed.ResultsFileName(config), ShouldEqual, "bw10_sw2_ns3_nr_4_nf5_covtype.csv")
		config.MPTCP = true
		So(DualHomed.ResultsFileName(config), ShouldEqual, "bw10_sw2_ns3_nr_4_nf5_covtype_mptcp.csv")
		config.MPTCP = false
	})

	Convey("Defaults depend on variant", t, func() {
		So(FatTree.WithDefaults(config).Selection, ShouldEqual, Shuffled)
		So(FatTree.WithDefaults(config).MaxQueueSize, ShouldEqual, 100)
		So(DualHomed.WithDefaults(config).Selection, ShouldEqual, Ordered)
		So(DualHomed.WithDefaults(config).MaxQueueSize, ShouldEqual, 0)

		config.Selection = Ordered
		config.MaxQueueSize = 7
		So(FatTree.WithDefaults(config).Selection, ShouldEqual, Ordered)
		So(FatTree.WithDefaults(config).MaxQueueSize, ShouldEqual, 7)
	})
}
