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

package conf

import (
	"os"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/sirupsen/logrus"
)

var customFlag = NewStringFlag("custom_arg", "help", "default")

func clearEnv() {
	// Clear all environment variables in context of that test.
	logLevelFlag.clear()
	customFlag.clear()
}

func TestConf(t *testing.T) {
	Convey("While using Conf pkg", t, func() {
		clearEnv()
		defer clearEnv()

		SetAppName("testAppName")

		Convey("Name should match to specified one", func() {
			So(AppName(), ShouldEqual, "testAppName")
		})

		Convey("Log level can be fetched from env", func() {
			err := ParseEnv()
			So(err, ShouldBeNil)
			So(LogLevel(), ShouldEqual, logrus.ErrorLevel)

			os.Setenv(logLevelFlag.envName(), "debug")

			err = ParseEnv()
			So(err, ShouldBeNil)
			So(LogLevel(), ShouldEqual, logrus.DebugLevel)
		})

		Convey("Command line takes precedence over environment", func() {
			os.Setenv(customFlag.envName(), "fromEnv")

			err := ParseArgs([]string{"--custom_arg", "fromArgs"})
			So(err, ShouldBeNil)
			So(customFlag.Value(), ShouldEqual, "fromArgs")
		})

		Convey("Single dash long options are accepted", func() {
			err := ParseArgs([]string{"-custom_arg", "single"})
			So(err, ShouldBeNil)
			So(customFlag.Value(), ShouldEqual, "single")
		})

		Convey("Current values are exposed through GetFlags and DumpConfig", func() {
			err := ParseArgs([]string{"--custom_arg=dumped"})
			So(err, ShouldBeNil)

			So(GetFlags(), ShouldContainKey, "custom_arg")
			So(GetFlags()["custom_arg"], ShouldEqual, "dumped")
			So(DumpConfig(), ShouldContainSubstring, "DCT_CUSTOM_ARG=dumped")
		})

		Convey("Recorded flags are dumped sorted by name", func() {
			dump := DumpConfigMap(map[string]string{"nr": "2", "bw": "10"})
			So(dump, ShouldContainSubstring, "DCT_BW=10\nDCT_NR=2\n")
			So(dump, ShouldEndWith, "set +o allexport")
		})
	})
}

func TestNormalizeArgs(t *testing.T) {
	Convey("While normalizing arguments", t, func() {
		Convey("Single dash long options get a second dash", func() {
			So(NormalizeArgs([]string{"-bw", "10", "-nflows=2", "-k", "4"}),
				ShouldResemble, []string{"--bw", "10", "--nflows=2", "--k", "4"})
		})

		Convey("Double dash options and negative numbers are untouched", func() {
			So(NormalizeArgs([]string{"--mptcp", "-1", "--ds", "covtype"}),
				ShouldResemble, []string{"--mptcp", "-1", "--ds", "covtype"})
		})

		Convey("Everything after the separator is untouched", func() {
			So(NormalizeArgs([]string{"-ns", "2", "--", "-foo"}),
				ShouldResemble, []string{"--ns", "2", "--", "-foo"})
		})
	})
}
