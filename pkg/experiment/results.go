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
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// Results are values printed by transfer programs, in launch order.
type Results struct {
	Senders   []string
	Receivers []string
}

// WriteResults writes results into dir as two lines: comma separated sender
// values followed by comma separated receiver values. Directory is created
// when missing. It returns path of the written file.
func WriteResults(dir string, results Results, config RunConfig, variant Variant) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", errors.Wrapf(ErrFilesystemFailure, "cannot create results directory %q: %v", dir, err)
	}

	path := filepath.Join(dir, variant.ResultsFileName(config))
	content := strings.Join(results.Senders, ",") + "\n" + strings.Join(results.Receivers, ",") + "\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return "", errors.Wrapf(ErrFilesystemFailure, "cannot write results to %q: %v", path, err)
	}
	return path, nil
}

// ReadResults reads file written by WriteResults.
func ReadResults(path string) (Results, error) {
	file, err := os.Open(path)
	if err != nil {
		return Results{}, errors.Wrapf(ErrFilesystemFailure, "cannot open results %q: %v", path, err)
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return Results{}, errors.Wrapf(ErrFilesystemFailure, "cannot read results %q: %v", path, err)
	}
	if len(lines) != 2 {
		return Results{}, errors.Errorf("results %q have %d lines, expected 2", path, len(lines))
	}

	return Results{
		Senders:   splitValues(lines[0]),
		Receivers: splitValues(lines[1]),
	}, nil
}

// splitValues treats empty line as no values.
func splitValues(line string) []string {
	if line == "" {
		return []string{}
	}
	return strings.Split(line, ",")
}
