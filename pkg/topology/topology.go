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

// Package topology describes data-center topologies (fat tree and dual-homed
// tree) in the node naming and addressing convention expected by the ripl
// controller module.
package topology

import (
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

// Layer of the node in the tree.
type Layer string

const (
	// Core switches connect pods.
	Core Layer = "core"
	// Aggregation switches connect edge switches within pod.
	Aggregation Layer = "aggregation"
	// Edge switches connect hosts.
	Edge Layer = "edge"
	// HostLayer is the bottom of the tree.
	HostLayer Layer = "host"
)

// NodeID identifies node by its position in the tree.
type NodeID struct {
	Pod    int `yaml:"pod"`
	Switch int `yaml:"switch"`
	Host   int `yaml:"host"`
}

// Name returns node name in "pod_switch_host" form.
func (id NodeID) Name() string {
	return fmt.Sprintf("%d_%d_%d", id.Pod, id.Switch, id.Host)
}

// IP returns node address in "10.pod.switch.host" form.
func (id NodeID) IP() string {
	return fmt.Sprintf("10.%d.%d.%d", id.Pod, id.Switch, id.Host)
}

// DPID returns OpenFlow datapath id of switch placed at id.
func (id NodeID) DPID() uint64 {
	return uint64(id.Pod)<<16 | uint64(id.Switch)<<8 | uint64(id.Host)
}

// Node is a host or a switch.
type Node struct {
	ID    NodeID `yaml:"id"`
	Name  string `yaml:"name"`
	Layer Layer  `yaml:"layer"`
	IP    string `yaml:"ip"`
	// DPID is zero for hosts.
	DPID uint64 `yaml:"dpid,omitempty"`
}

// IsSwitch returns true for core, aggregation and edge nodes.
func (n Node) IsSwitch() bool {
	return n.Layer != HostLayer
}

// Link connects port of node A with port of node B.
type Link struct {
	A     string `yaml:"a"`
	APort int    `yaml:"a_port"`
	B     string `yaml:"b"`
	BPort int    `yaml:"b_port"`
}

// Topology is a set of nodes and links between them.
type Topology struct {
	// Kind is topology name and parameters understood by the controller (e.g. "ft,4" or "dht").
	Kind  string `yaml:"kind"`
	K     int    `yaml:"k"`
	Nodes []Node `yaml:"nodes"`
	Links []Link `yaml:"links"`

	ports map[string]int
	index map[string]int
}

func newTopology(kind string, k int) *Topology {
	return &Topology{
		Kind:  kind,
		K:     k,
		ports: map[string]int{},
		index: map[string]int{},
	}
}

func (t *Topology) addNode(id NodeID, layer Layer) string {
	node := Node{ID: id, Name: id.Name(), Layer: layer, IP: id.IP()}
	if node.IsSwitch() {
		node.DPID = id.DPID()
	}
	t.index[node.Name] = len(t.Nodes)
	t.Nodes = append(t.Nodes, node)
	return node.Name
}

// nextPort numbers host ports from 0 and switch ports from 1.
func (t *Topology) nextPort(name string) int {
	port := t.ports[name]
	if t.Nodes[t.index[name]].IsSwitch() {
		port++
	}
	t.ports[name]++
	return port
}

func (t *Topology) addLink(a, b string) {
	t.Links = append(t.Links, Link{A: a, APort: t.nextPort(a), B: b, BPort: t.nextPort(b)})
}

// Node returns node with given name.
func (t *Topology) Node(name string) (Node, bool) {
	i, ok := t.index[name]
	if !ok {
		return Node{}, false
	}
	return t.Nodes[i], true
}

// Hosts returns hosts in creation order.
func (t *Topology) Hosts() []Node {
	return t.filter(func(n Node) bool { return !n.IsSwitch() })
}

// Switches returns switches in creation order.
func (t *Topology) Switches() []Node {
	return t.filter(Node.IsSwitch)
}

func (t *Topology) filter(accept func(Node) bool) (nodes []Node) {
	for _, node := range t.Nodes {
		if accept(node) {
			nodes = append(nodes, node)
		}
	}
	return nodes
}

// Validate checks that node names and addresses are unique, links join
// existing distinct nodes and every host is attached to exactly one switch.
func (t *Topology) Validate() error {
	names := map[string]bool{}
	ips := map[string]bool{}
	for _, node := range t.Nodes {
		if names[node.Name] {
			return errors.Errorf("duplicated node %q", node.Name)
		}
		if ips[node.IP] {
			return errors.Errorf("duplicated address %s of node %q", node.IP, node.Name)
		}
		names[node.Name] = true
		ips[node.IP] = true
	}

	hostLinks := map[string]int{}
	for _, link := range t.Links {
		if link.A == link.B {
			return errors.Errorf("node %q is linked to itself", link.A)
		}
		for _, end := range []string{link.A, link.B} {
			node, ok := t.Node(end)
			if !ok {
				return errors.Errorf("link %s-%s refers to unknown node %q", link.A, link.B, end)
			}
			if !node.IsSwitch() {
				hostLinks[end]++
			}
		}
	}

	for _, host := range t.Hosts() {
		if hostLinks[host.Name] != 1 {
			return errors.Errorf("host %q has %d links, expected 1", host.Name, hostLinks[host.Name])
		}
	}
	return nil
}

// WriteYAML dumps topology to file, creating parent directories.
func (t *Topology) WriteYAML(path string) error {
	data, err := yaml.Marshal(t)
	if err != nil {
		return errors.Wrap(err, "cannot marshal topology")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrapf(err, "cannot create directory for %q", path)
	}
	return errors.Wrapf(ioutil.WriteFile(path, data, 0644), "cannot write topology to %q", path)
}

func validateK(k int) error {
	if k < 2 || k%2 != 0 {
		return errors.Errorf("k must be even and at least 2, got %d", k)
	}
	return nil
}
