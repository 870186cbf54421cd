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

package transfer

import (
	"context"
	"fmt"
	"time"

	"github.com/dcnet-lab/dctransfer/pkg/conf"
	"github.com/dcnet-lab/dctransfer/pkg/executor"
	"github.com/dcnet-lab/dctransfer/pkg/utils/errutil"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const portPollInterval = 200 * time.Millisecond

var (
	readyPortFlag    = conf.NewIntFlag("receiver_ready_port", "TCP port receivers listen on; 0 waits receiver_settle instead of probing", 0)
	settleFlag       = conf.NewDurationFlag("receiver_settle", "Time given to receivers to start when port is not probed", time.Second)
	readyTimeoutFlag = conf.NewDurationFlag("receiver_ready_timeout", "Time given to each receiver to start listening", 10*time.Second)
)

// Readiness decides when receivers are ready to accept senders.
type Readiness struct {
	// Port probed inside receiver namespace; zero means waiting Settle.
	Port    int
	Settle  time.Duration
	Timeout time.Duration
}

// DefaultReadiness returns Readiness configured from flags.
func DefaultReadiness() Readiness {
	return Readiness{
		Port:    readyPortFlag.Value(),
		Settle:  settleFlag.Value(),
		Timeout: readyTimeoutFlag.Value(),
	}
}

// Await blocks until every receiver listens on Port or, with no port, for Settle.
// Executors run commands inside receivers' namespaces.
func (r Readiness) Await(ctx context.Context, receivers map[string]executor.Executor) error {
	if r.Port == 0 {
		log.Debugf("Giving receivers %s to start", r.Settle)
		if !settle(ctx.Done(), r.Settle) {
			return errors.Wrap(ctx.Err(), "waiting for receivers")
		}
		return nil
	}

	for name, exec := range receivers {
		if err := r.awaitListening(ctx, name, exec); err != nil {
			return err
		}
	}
	return nil
}

func (r Readiness) awaitListening(ctx context.Context, name string, exec executor.Executor) error {
	command := fmt.Sprintf("ss -Hltn 'sport = :%d'", r.Port)
	deadline := time.Now().Add(r.Timeout)
	for {
		output, err := executor.RunAndWait(exec, command)
		if err != nil {
			return errors.Wrapf(errutil.ErrProcessFailure, "cannot probe receiver %s: %v", name, err)
		}
		if output != "" {
			log.Debugf("Receiver %s listens on port %d", name, r.Port)
			return nil
		}
		if time.Now().After(deadline) {
			return errors.Wrapf(errutil.ErrProcessFailure, "receiver %s is not listening on port %d after %s", name, r.Port, r.Timeout)
		}
		if !settle(ctx.Done(), portPollInterval) {
			return errors.Wrapf(ctx.Err(), "waiting for receiver %s", name)
		}
	}
}
