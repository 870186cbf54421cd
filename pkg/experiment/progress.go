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
	"os"
	"sync"
	"time"

	"github.com/dcnet-lab/dctransfer/pkg/conf"
	log "github.com/sirupsen/logrus"
	"gopkg.in/cheggaaa/pb.v1"
)

// progress reports how long transfers run and how many have finished.
// With default log level it draws progress bar, otherwise it logs periodically.
type progress struct {
	bar      *pb.ProgressBar
	start    time.Time
	total    int
	mutex    sync.Mutex
	finished int
	done     chan struct{}
	wg       sync.WaitGroup
}

func startProgress(total int, interval time.Duration) *progress {
	p := &progress{
		start: time.Now(),
		total: total,
		done:  make(chan struct{}),
	}

	if conf.LogLevel() == log.ErrorLevel {
		p.bar = pb.New(total)
		p.bar.Output = os.Stderr
		p.bar.ShowCounters = true
		p.bar.ShowElapsedTime = true
		p.bar.ShowTimeLeft = false
		p.bar.Prefix("transfers ")
		p.bar.Start()
		return p
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				p.mutex.Lock()
				finished := p.finished
				p.mutex.Unlock()
				log.Infof("Transfers running for %s, %d of %d finished", time.Since(p.start).Truncate(time.Second), finished, p.total)
			case <-p.done:
				return
			}
		}
	}()
	return p
}

func (p *progress) increment() {
	p.mutex.Lock()
	p.finished++
	p.mutex.Unlock()
	if p.bar != nil {
		p.bar.Increment()
	}
}

func (p *progress) finish() {
	if p.bar != nil {
		p.bar.Finish()
		return
	}
	close(p.done)
	p.wg.Wait()
	log.Infof("Transfers took %s", time.Since(p.start).Truncate(time.Millisecond))
}
