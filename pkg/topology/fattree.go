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

import "fmt"

// NewFatTree builds k-ary fat tree: k pods with k/2 edge and k/2 aggregation
// switches each, (k/2)^2 core switches and k/2 hosts per edge switch.
func NewFatTree(k int) (*Topology, error) {
	if err := validateK(k); err != nil {
		return nil, err
	}

	t := newTopology(fmt.Sprintf("ft,%d", k), k)
	half := k / 2

	for pod := 0; pod < k; pod++ {
		for e := 0; e < half; e++ {
			edge := t.addNode(NodeID{pod, e, 1}, Edge)
			for h := 2; h < half+2; h++ {
				host := t.addNode(NodeID{pod, e, h}, HostLayer)
				t.addLink(host, edge)
			}
			for a := half; a < k; a++ {
				agg := aggregation(t, NodeID{pod, a, 1})
				t.addLink(edge, agg)
			}
		}

		for a := half; a < k; a++ {
			agg := aggregation(t, NodeID{pod, a, 1})
			coreGroup := a - half + 1
			for c := 1; c <= half; c++ {
				core := switchNode(t, NodeID{k, coreGroup, c}, Core)
				t.addLink(core, agg)
			}
		}
	}

	return t, nil
}

func aggregation(t *Topology, id NodeID) string {
	return switchNode(t, id, Aggregation)
}

// switchNode returns name of the switch adding it on first use.
func switchNode(t *Topology, id NodeID, layer Layer) string {
	if _, ok := t.index[id.Name()]; ok {
		return id.Name()
	}
	return t.addNode(id, layer)
}
