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

package network

import (
	"fmt"

	"github.com/dcnet-lab/dctransfer/pkg/executor"
	"github.com/dcnet-lab/dctransfer/pkg/isolation"
	"github.com/dcnet-lab/dctransfer/pkg/topology"
	"github.com/dcnet-lab/dctransfer/pkg/utils/err_collection"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const (
	hostPrefixLength = 8
	// tc handles as used by TCLink.
	htbHandle   = "5:0"
	htbClass    = "5:1"
	netemHandle = "10:"
)

// LinkConfig describes shaping applied to both ends of every link.
type LinkConfig struct {
	// Bandwidth in Mbit/s, zero disables shaping.
	Bandwidth int
	// MaxQueueSize in packets, zero keeps default queue.
	MaxQueueSize int
}

// Emulated is a topology instantiated on the emulation machine.
type Emulated struct {
	topology          *topology.Topology
	shell             ShellFactory
	root              executor.Executor
	controllerAddress string
	link              LinkConfig

	hosts []Host
	// Resources created so far, removed in reverse order by Stop.
	bridges    []string
	namespaces []string
	veths      []string
}

// NewEmulated prepares emulated network. Switches connect to OpenFlow
// controller listening on controllerAddress (host:port).
func NewEmulated(topo *topology.Topology, shell ShellFactory, controllerAddress string, link LinkConfig) *Emulated {
	return &Emulated{
		topology:          topo,
		shell:             shell,
		controllerAddress: controllerAddress,
		link:              link,
	}
}

// String returns name of the network.
func (e *Emulated) String() string {
	return fmt.Sprintf("emulated network %q", e.topology.Kind)
}

func interfaceName(node string, port int) string {
	return fmt.Sprintf("%s-eth%d", node, port)
}

func (e *Emulated) run(exec executor.Executor, format string, args ...interface{}) error {
	_, err := executor.RunAndWait(exec, fmt.Sprintf(format, args...))
	return err
}

// Start creates namespaces, bridges and links and connects bridges to the controller.
// Resources created before a failure are kept so Stop can remove them.
func (e *Emulated) Start() error {
	if err := e.topology.Validate(); err != nil {
		return errors.Wrap(err, "invalid topology")
	}

	root, err := e.shell(isolation.Sudo{})
	if err != nil {
		return errors.Wrap(err, "cannot create executor for emulation machine")
	}
	e.root = root
	log.Infof("Starting %s with %d hosts and %d switches", e, len(e.topology.Hosts()), len(e.topology.Switches()))

	for _, sw := range e.topology.Switches() {
		if err := e.addBridge(sw); err != nil {
			return err
		}
	}

	namespaceExecutors := map[string]executor.Executor{}
	for _, node := range e.topology.Hosts() {
		exec, err := e.addHost(node)
		if err != nil {
			return err
		}
		namespaceExecutors[node.Name] = exec
	}

	for _, link := range e.topology.Links {
		if err := e.addLink(link, namespaceExecutors); err != nil {
			return err
		}
	}

	for _, sw := range e.topology.Switches() {
		if err := e.run(e.root, "ovs-vsctl set-controller %s tcp:%s", sw.Name, e.controllerAddress); err != nil {
			return errors.Wrapf(err, "cannot connect switch %q to controller", sw.Name)
		}
	}
	log.Infof("Started %s", e)

	return nil
}

func (e *Emulated) addBridge(sw topology.Node) error {
	err := e.run(e.root,
		"ovs-vsctl --may-exist add-br %s -- set bridge %s fail-mode=secure other-config:datapath-id=%016x",
		sw.Name, sw.Name, sw.DPID)
	if err != nil {
		return errors.Wrapf(err, "cannot create switch %q", sw.Name)
	}
	e.bridges = append(e.bridges, sw.Name)
	return nil
}

func (e *Emulated) addHost(node topology.Node) (executor.Executor, error) {
	if err := e.run(e.root, "ip netns add %s", node.Name); err != nil {
		return nil, errors.Wrapf(err, "cannot create namespace for host %q", node.Name)
	}
	e.namespaces = append(e.namespaces, node.Name)

	privileged, err := e.shell(isolation.NewNetNamespace(node.Name), isolation.Sudo{})
	if err != nil {
		return nil, errors.Wrapf(err, "cannot create executor for host %q", node.Name)
	}
	if err := e.run(privileged, "ip link set lo up"); err != nil {
		return nil, errors.Wrapf(err, "cannot bring up loopback of host %q", node.Name)
	}

	e.hosts = append(e.hosts, NewHost(node.Name, node.IP, privileged))

	return privileged, nil
}

func (e *Emulated) addLink(link topology.Link, namespaceExecutors map[string]executor.Executor) error {
	aName := interfaceName(link.A, link.APort)
	bName := interfaceName(link.B, link.BPort)

	if err := e.run(e.root, "ip link add %s type veth peer name %s", aName, bName); err != nil {
		return errors.Wrapf(err, "cannot create link %s-%s", link.A, link.B)
	}
	e.veths = append(e.veths, aName)

	ends := []struct {
		node, iface string
		port        int
	}{
		{link.A, aName, link.APort},
		{link.B, bName, link.BPort},
	}
	for _, end := range ends {
		node, _ := e.topology.Node(end.node)
		if node.IsSwitch() {
			if err := e.attachToSwitch(node, end.iface, end.port); err != nil {
				return err
			}
			continue
		}
		if err := e.attachToHost(node, end.iface, namespaceExecutors[node.Name]); err != nil {
			return err
		}
	}
	return nil
}

func (e *Emulated) attachToSwitch(sw topology.Node, iface string, port int) error {
	err := e.run(e.root, "ovs-vsctl add-port %s %s -- set Interface %s ofport_request=%d", sw.Name, iface, iface, port)
	if err != nil {
		return errors.Wrapf(err, "cannot add port %s to switch %q", iface, sw.Name)
	}
	if err := e.run(e.root, "ip link set %s up", iface); err != nil {
		return errors.Wrapf(err, "cannot bring up %s", iface)
	}
	return e.shape(e.root, iface)
}

func (e *Emulated) attachToHost(host topology.Node, iface string, namespaceExecutor executor.Executor) error {
	if err := e.run(e.root, "ip link set %s netns %s", iface, host.Name); err != nil {
		return errors.Wrapf(err, "cannot move %s to host %q", iface, host.Name)
	}
	if err := e.run(namespaceExecutor, "ip addr add %s/%d dev %s", host.IP, hostPrefixLength, iface); err != nil {
		return errors.Wrapf(err, "cannot assign %s to host %q", host.IP, host.Name)
	}
	if err := e.run(namespaceExecutor, "ip link set %s up", iface); err != nil {
		return errors.Wrapf(err, "cannot bring up %s of host %q", iface, host.Name)
	}
	return e.shape(namespaceExecutor, iface)
}

// shape limits interface bandwidth with htb and queue length with netem.
func (e *Emulated) shape(exec executor.Executor, iface string) error {
	if e.link.Bandwidth <= 0 {
		return nil
	}

	if err := e.run(exec, "tc qdisc add dev %s root handle %s htb default 1", iface, htbHandle); err != nil {
		return errors.Wrapf(err, "cannot add htb qdisc to %s", iface)
	}
	err := e.run(exec, "tc class add dev %s parent %s classid %s htb rate %dMbit burst 15k",
		iface, htbHandle, htbClass, e.link.Bandwidth)
	if err != nil {
		return errors.Wrapf(err, "cannot limit bandwidth of %s", iface)
	}
	if e.link.MaxQueueSize > 0 {
		err := e.run(exec, "tc qdisc add dev %s parent %s handle %s netem limit %d",
			iface, htbClass, netemHandle, e.link.MaxQueueSize)
		if err != nil {
			return errors.Wrapf(err, "cannot limit queue of %s", iface)
		}
	}
	return nil
}

// Hosts returns started hosts in topology order.
func (e *Emulated) Hosts() []Host {
	return e.hosts
}

// Stop removes everything Start created. It continues on failures and
// returns all of them.
func (e *Emulated) Stop() error {
	if e.root == nil {
		return nil
	}
	log.Infof("Stopping %s", e)

	var errs errcollection.ErrorCollection
	for i := len(e.bridges) - 1; i >= 0; i-- {
		errs.Add(e.run(e.root, "ovs-vsctl --if-exists del-br %s", e.bridges[i]))
	}
	// Deleting namespace removes host side interfaces along with their peers.
	for i := len(e.namespaces) - 1; i >= 0; i-- {
		errs.Add(e.run(e.root, "ip netns del %s", e.namespaces[i]))
	}
	for i := len(e.veths) - 1; i >= 0; i-- {
		errs.Add(e.run(e.root, "sh -c 'ip link show %s >/dev/null 2>&1 && ip link del %s || true'", e.veths[i], e.veths[i]))
	}

	e.bridges, e.namespaces, e.veths, e.hosts = nil, nil, nil, nil
	e.root = nil
	return errors.Wrapf(errs.GetErrIfAny(), "cannot stop %s cleanly", e)
}
