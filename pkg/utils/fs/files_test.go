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

package fs

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLastLine(t *testing.T) {
	Convey("When reading the last line of an output", t, func() {
		Convey("Single value with trailing newline is returned without it", func() {
			line, err := LastLine(strings.NewReader("12.5\n"))
			So(err, ShouldBeNil)
			So(line, ShouldEqual, "12.5")
		})

		Convey("Debug lines before the value and blank lines after it are skipped", func() {
			line, err := LastLine(strings.NewReader("connecting\nsent 10 chunks\n  42.1 \n\n\n"))
			So(err, ShouldBeNil)
			So(line, ShouldEqual, "42.1")
		})

		Convey("Empty output gives empty value", func() {
			line, err := LastLine(strings.NewReader(""))
			So(err, ShouldBeNil)
			So(line, ShouldBeEmpty)
		})
	})
}

func TestFiles(t *testing.T) {
	Convey("While operating on files in a temporary directory", t, func() {
		dir, err := ioutil.TempDir("", "fs_test")
		So(err, ShouldBeNil)
		defer os.RemoveAll(dir)

		src := filepath.Join(dir, "pox.out")
		So(ioutil.WriteFile(src, []byte("line1\nline2\nline3\n"), 0644), ShouldBeNil)

		Convey("ReadTail returns requested number of lines", func() {
			tail, err := ReadTail(src, 2)
			So(err, ShouldBeNil)
			So(tail, ShouldEqual, "line2\nline3\n")
		})

		Convey("ReadTail of missing file fails", func() {
			_, err := ReadTail(filepath.Join(dir, "missing"), 2)
			So(err, ShouldNotBeNil)
		})

		Convey("WriteFile replaces the content", func() {
			So(WriteFile(src, strings.NewReader("line4\n")), ShouldBeNil)
			content, err := ioutil.ReadFile(src)
			So(err, ShouldBeNil)
			So(string(content), ShouldEqual, "line4\n")
		})

		Convey("WriteFile into missing directory fails", func() {
			So(WriteFile(filepath.Join(dir, "missing", "x"), strings.NewReader("")), ShouldNotBeNil)
		})
	})

	Convey("ExpandHome leaves absolute paths untouched", t, func() {
		So(ExpandHome("/opt/pox/pox.py"), ShouldEqual, "/opt/pox/pox.py")
		home, err := os.UserHomeDir()
		if err == nil {
			So(ExpandHome("~/pox/pox.py"), ShouldEqual, filepath.Join(home, "pox/pox.py"))
		}
	})
}
