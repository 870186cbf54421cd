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

	"github.com/dcnet-lab/dctransfer/pkg/network"
	"github.com/dcnet-lab/dctransfer/pkg/utils/errutil"
	. "github.com/smartystreets/goconvey/convey"
)

func names(hosts []network.Host) (result []string) {
	for _, host := range hosts {
		result = append(result, host.Name)
	}
	return result
}

func TestSelectRoles(t *testing.T) {
	hosts := []network.Host{
		network.NewHost("0_0_2", "10.0.0.2", nil),
		network.NewHost("0_0_3", "10.0.0.3", nil),
		network.NewHost("1_0_2", "10.1.0.2", nil),
		network.NewHost("1_0_3", "10.1.0.3", nil),
		network.NewHost("2_0_2", "10.2.0.2", nil),
		network.NewHost("3_0_2", "10.3.0.2", nil),
		network.NewHost("outside", "192.168.0.1", nil),
	}

	Convey("When roles are selected in order", t, func() {
		roles, err := SelectRoles(hosts, 2, 3, Ordered, 0)
		So(err, ShouldBeNil)

		Convey("senders come from even pods", func() {
			So(names(roles.Senders), ShouldResemble, []string{"0_0_2", "0_0_3"})
		})

		Convey("receivers come from odd pods", func() {
			So(names(roles.Receivers), ShouldResemble, []string{"1_0_2", "1_0_3", "3_0_2"})
			So(roles.ReceiverIPs(), ShouldResemble, []string{"10.1.0.2", "10.1.0.3", "10.3.0.2"})
		})
	})

	Convey("When roles are shuffled", t, func() {
		first, err := SelectRoles(hosts, 3, 3, Shuffled, 42)
		So(err, ShouldBeNil)
		second, err := SelectRoles(hosts, 3, 3, Shuffled, 42)
		So(err, ShouldBeNil)

		Convey("the same seed gives the same mapping", func() {
			So(names(first.Senders), ShouldResemble, names(second.Senders))
			So(names(first.Receivers), ShouldResemble, names(second.Receivers))
		})

		Convey("pools are respected", func() {
			So(names(first.Senders), ShouldContain, "2_0_2")
			So(names(first.Senders), ShouldNotContain, "1_0_2")
			So(names(first.Receivers), ShouldContain, "3_0_2")
			So(names(first.Receivers), ShouldNotContain, "outside")
		})

		Convey("input hosts are not reordered", func() {
			So(hosts[0].Name, ShouldEqual, "0_0_2")
			So(hosts[4].Name, ShouldEqual, "2_0_2")
		})
	})

	Convey("When more hosts are requested than a pool has", t, func() {
		_, err := SelectRoles(hosts, 4, 1, Ordered, 0)
		So(errutil.IsKind(err, ErrResourceUnavailable), ShouldBeTrue)

		_, err = SelectRoles(hosts, 1, 4, Ordered, 0)
		So(errutil.IsKind(err, ErrResourceUnavailable), ShouldBeTrue)
	})

	Convey("Unknown selection is rejected", t, func() {
		_, err := SelectRoles(hosts, 1, 1, Selection("sideways"), 0)
		So(errutil.IsKind(err, ErrInvalidArgument), ShouldBeTrue)
	})
}
