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
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/dcnet-lab/dctransfer/pkg/conf"
	"github.com/dcnet-lab/dctransfer/pkg/utils/sysctl"
	"github.com/pkg/errors"
)

// RecordRuntimeEnv stores flags, DCT_ environment, host, start time and platform details.
func RecordRuntimeEnv(metadata Metadata, experimentStart time.Time) error {
	if err := metadata.RecordMap(conf.GetFlags(), TypeFlags); err != nil {
		return err
	}

	if err := recordEnv(metadata, conf.EnvironmentPrefix); err != nil {
		return err
	}

	hostname, err := os.Hostname()
	if err != nil {
		return errors.Wrap(err, "cannot retrieve hostname")
	}
	err = metadata.RecordMap(map[string]string{"time": experimentStart.Format(time.RFC822Z), "host": hostname}, TypeEmpty)
	if err != nil {
		return err
	}

	return metadata.RecordMap(PlatformMetadata(), TypePlatform)
}

// recordEnv adds all OS Environment variables that starts with prefix.
func recordEnv(metadata Metadata, prefix string) error {
	envMetadata := map[string]string{}
	for _, env := range os.Environ() {
		if strings.HasPrefix(env, prefix) {
			fields := strings.SplitN(env, "=", 2)
			envMetadata[fields[0]] = fields[1]
		}
	}
	return metadata.RecordMap(envMetadata, TypeEnviron)
}

// PlatformMetadata describes machine the orchestrator runs on.
func PlatformMetadata() map[string]string {
	platform := map[string]string{
		"cpus": strconv.Itoa(runtime.NumCPU()),
		"os":   runtime.GOOS,
	}
	if release, err := sysctl.Get("kernel.osrelease"); err == nil {
		platform["kernel"] = release
	}
	platform["mptcp_kernel"] = strconv.FormatBool(sysctl.Exists("net.mptcp.mptcp_enabled"))
	return platform
}

// RecordResults stores path of the results file and values reported by transfer programs.
func RecordResults(metadata Metadata, path string, senders, receivers []string) error {
	return metadata.RecordMap(map[string]string{
		"file":      path,
		"senders":   strings.Join(senders, ","),
		"receivers": strings.Join(receivers, ","),
	}, TypeResults)
}
