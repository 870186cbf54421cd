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

package metadata

import (
	"os"
	"testing"

	"github.com/dcnet-lab/dctransfer/pkg/metadata"
	"github.com/rs/xid"
	. "github.com/smartystreets/goconvey/convey"
)

func TestCassandraDB(t *testing.T) {
	testMetadata := []map[string]string{
		{
			"E-key1": "E-val1",
			"E-key2": "E-val2",
		},
		{
			"F-key1": "F-val1",
			"F-key2": "F-val2",
			"F-key3": "F-val3",
		},
	}

	test := func() {
		id := xid.New().String()
		cassandraMetadata, err := metadata.NewCassandra(id, metadata.DefaultCassandraConfig())
		So(err, ShouldBeNil)
		defer cassandraMetadata.Close()

		Convey("RecordMap shall store metadata by kind", func() {
			So(cassandraMetadata.RecordMap(testMetadata[0], metadata.TypeEnviron), ShouldBeNil)
			So(cassandraMetadata.RecordMap(testMetadata[1], metadata.TypeFlags), ShouldBeNil)

			retMap, err := cassandraMetadata.GetByKind(metadata.TypeEnviron)
			So(err, ShouldBeNil)
			So(retMap, ShouldResemble, testMetadata[0])

			retMap, err = cassandraMetadata.GetByKind(metadata.TypeFlags)
			So(err, ShouldBeNil)
			So(retMap, ShouldResemble, testMetadata[1])

			_, err = cassandraMetadata.GetByKind("abcd")
			So(err, ShouldNotBeNil)

			Convey("Clear shall remove everything", func() {
				So(cassandraMetadata.Clear(), ShouldBeNil)
				_, err = cassandraMetadata.GetByKind(metadata.TypeEnviron)
				So(err, ShouldNotBeNil)
			})
		})

		Convey("RecordResults shall store results file", func() {
			So(metadata.RecordResults(cassandraMetadata, "/tmp/r.csv", []string{"1", "2"}, []string{"3"}), ShouldBeNil)
			retMap, err := cassandraMetadata.GetByKind(metadata.TypeResults)
			So(err, ShouldBeNil)
			So(retMap["senders"], ShouldEqual, "1,2")
			So(retMap["receivers"], ShouldEqual, "3")
		})
	}

	if os.Getenv("DCT_INTEGRATION_TESTS") == "" {
		SkipConvey("While using Cassandra metadata", t, test)
		return
	}
	Convey("While using Cassandra metadata", t, test)
}
