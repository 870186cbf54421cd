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

package topology

// dualHomedAggregations is number of aggregation switches in each pod.
const dualHomedAggregations = 2

// NewDualHomed builds dual-homed tree: k pods with k/2 edge switches and two
// aggregation switches each. Every edge switch is linked to both aggregation
// switches of its pod and every aggregation switch to both core switches.
func NewDualHomed(k int) (*Topology, error) {
	if err := validateK(k); err != nil {
		return nil, err
	}

	t := newTopology("dht", k)
	half := k / 2

	var cores []string
	for c := 1; c <= dualHomedAggregations; c++ {
		cores = append(cores, t.addNode(NodeID{k, c, 1}, Core))
	}

	for pod := 0; pod < k; pod++ {
		var aggs []string
		for a := half; a < half+dualHomedAggregations; a++ {
			agg := t.addNode(NodeID{pod, a, 1}, Aggregation)
			for _, core := range cores {
				t.addLink(core, agg)
			}
			aggs = append(aggs, agg)
		}

		for e := 0; e < half; e++ {
			edge := t.addNode(NodeID{pod, e, 1}, Edge)
			for h := 2; h < half+2; h++ {
				host := t.addNode(NodeID{pod, e, h}, HostLayer)
				t.addLink(host, edge)
			}
			for _, agg := range aggs {
				t.addLink(edge, agg)
			}
		}
	}

	return t, nil
}
