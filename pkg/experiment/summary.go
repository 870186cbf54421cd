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
	"io"
	"strconv"

	"github.com/montanaflynn/stats"
	"github.com/olekukonko/tablewriter"
	log "github.com/sirupsen/logrus"
)

// PrintSummary draws table with value reported by every transfer program.
func PrintSummary(w io.Writer, roles RoleMapping, results Results) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Role", "Index", "Host", "IP", "Value"})
	for i, host := range roles.Senders {
		table.Append([]string{"sender", strconv.Itoa(i), host.Name, host.IP, valueAt(results.Senders, i)})
	}
	for i, host := range roles.Receivers {
		table.Append([]string{"receiver", strconv.Itoa(i), host.Name, host.IP, valueAt(results.Receivers, i)})
	}
	table.Render()
}

func valueAt(values []string, i int) string {
	if i < len(values) {
		return values[i]
	}
	return ""
}

// Statistics of numeric values reported by one role.
type Statistics struct {
	Count  int
	Mean   float64
	Median float64
	Max    float64
}

// String returns statistics in human readable form.
func (s Statistics) String() string {
	return fmt.Sprintf("count=%d mean=%.3f median=%.3f max=%.3f", s.Count, s.Mean, s.Median, s.Max)
}

// ComputeStatistics skips values which are not numbers. It returns false
// when no value is a number.
func ComputeStatistics(values []string) (Statistics, bool) {
	var data stats.Float64Data
	for _, value := range values {
		number, err := strconv.ParseFloat(value, 64)
		if err != nil {
			continue
		}
		data = append(data, number)
	}
	if len(data) == 0 {
		return Statistics{}, false
	}

	// Errors are returned only for empty input.
	mean, _ := data.Mean()
	median, _ := data.Median()
	max, _ := data.Max()
	return Statistics{Count: len(data), Mean: mean, Median: median, Max: max}, true
}

// LogStatistics logs statistics of sender and receiver values.
func LogStatistics(results Results) {
	for _, role := range []struct {
		name   string
		values []string
	}{
		{"senders", results.Senders},
		{"receivers", results.Receivers},
	} {
		statistics, ok := ComputeStatistics(role.values)
		if !ok {
			log.Infof("No numeric values reported by %s", role.name)
			continue
		}
		log.Infof("Values reported by %s: %s", role.name, statistics)
	}
}
