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

package main

import (
	"os"

	"github.com/dcnet-lab/dctransfer/pkg/experiment"
)

const help = `Runs dataset transfers between hosts of a dual-homed tree.
Senders are picked from hosts of even pods and receivers from hosts of odd pods.
Results are written to results_dir as two lines of comma separated values.`

func main() {
	os.Exit(experiment.Main(experiment.DualHomed, help, os.Args[1:]))
}
