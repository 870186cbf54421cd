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
	"math/rand"
	"net"

	"github.com/dcnet-lab/dctransfer/pkg/network"
	"github.com/pkg/errors"
	"golang.org/x/exp/slices"
)

// Selection decides which hosts of a pool get a role.
type Selection string

const (
	// Ordered picks hosts in topology order.
	Ordered Selection = "ordered"
	// Shuffled picks hosts from seeded random permutation of the pool.
	Shuffled Selection = "shuffled"
)

// ParseSelection converts flag value into Selection. Empty value stays empty.
func ParseSelection(value string) (Selection, error) {
	switch selection := Selection(value); selection {
	case "", Ordered, Shuffled:
		return selection, nil
	}
	return "", errors.Wrapf(ErrInvalidArgument, "unknown role selection %q", value)
}

// RoleMapping assigns sender and receiver roles. Order of hosts is the launch order.
type RoleMapping struct {
	Senders   []network.Host
	Receivers []network.Host
}

// pool of the host: 0 for senders (10.<even>.x.x), 1 for receivers
// (10.<odd>.x.x), -1 for addresses outside 10.0.0.0/8.
func pool(host network.Host) int {
	ip := net.ParseIP(host.IP).To4()
	if ip == nil || ip[0] != 10 {
		return -1
	}
	return int(ip[1] % 2)
}

// SelectRoles picks senders from hosts with even second octet of address and
// receivers from hosts with odd one. Seed is used by Shuffled selection only.
func SelectRoles(hosts []network.Host, senders, receivers int, selection Selection, seed int64) (RoleMapping, error) {
	var senderPool, receiverPool []network.Host
	for _, host := range hosts {
		switch pool(host) {
		case 0:
			senderPool = append(senderPool, host)
		case 1:
			receiverPool = append(receiverPool, host)
		}
	}

	if len(senderPool) < senders {
		return RoleMapping{}, errors.Wrapf(ErrResourceUnavailable,
			"%d senders requested but only %d hosts are in sender pool", senders, len(senderPool))
	}
	if len(receiverPool) < receivers {
		return RoleMapping{}, errors.Wrapf(ErrResourceUnavailable,
			"%d receivers requested but only %d hosts are in receiver pool", receivers, len(receiverPool))
	}

	switch selection {
	case Ordered:
	case Shuffled:
		random := rand.New(rand.NewSource(seed))
		senderPool = slices.Clone(senderPool)
		random.Shuffle(len(senderPool), func(i, j int) { senderPool[i], senderPool[j] = senderPool[j], senderPool[i] })
		receiverPool = slices.Clone(receiverPool)
		random.Shuffle(len(receiverPool), func(i, j int) { receiverPool[i], receiverPool[j] = receiverPool[j], receiverPool[i] })
	default:
		return RoleMapping{}, errors.Wrapf(ErrInvalidArgument, "unknown role selection %q", selection)
	}

	return RoleMapping{
		Senders:   slices.Clip(senderPool[:senders]),
		Receivers: slices.Clip(receiverPool[:receivers]),
	}, nil
}

// ReceiverIPs returns addresses of receivers in launch order.
func (m RoleMapping) ReceiverIPs() []string {
	ips := make([]string, 0, len(m.Receivers))
	for _, receiver := range m.Receivers {
		ips = append(ips, receiver.IP)
	}
	return ips
}
