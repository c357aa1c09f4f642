//
//  Copyright 2023 PayPal Inc.
//
//  Licensed to the Apache Software Foundation (ASF) under one or more
//  contributor license agreements.  See the NOTICE file distributed with
//  this work for additional information regarding copyright ownership.
//  The ASF licenses this file to You under the Apache License, Version 2.0
//  (the "License"); you may not use this file except in compliance with
//  the License.  You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
//  Unless required by applicable law or agreed to in writing, software
//  distributed under the License is distributed on an "AS IS" BASIS,
//  WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
//  See the License for the specific language governing permissions and
//  limitations under the License.
//

package channel

import (
	"context"
	"sync"

	"github.com/golang/glog"

	"conduit/pkg/logging"
)

// PollingConsumer drains a pollable channel on its own goroutines and hands
// each message to a handler. Handler errors are logged and the loop goes on.
type PollingConsumer struct {
	ch          PollableChannel
	handler     Handler
	concurrency int

	mtx     sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
}

func NewPollingConsumer(ch PollableChannel, h Handler) *PollingConsumer {
	return &PollingConsumer{ch: ch, handler: h, concurrency: 1}
}

// SetConcurrency sets the number of polling goroutines. It takes effect on
// the next Start.
func (p *PollingConsumer) SetConcurrency(n int) {
	if n < 1 {
		n = 1
	}
	p.mtx.Lock()
	p.concurrency = n
	p.mtx.Unlock()
}

func (p *PollingConsumer) Start() {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	if p.running {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.running = true
	for i := 0; i < p.concurrency; i++ {
		p.wg.Add(1)
		go p.poll(ctx)
	}
	glog.V(logging.LevelDebug).Infof("polling consumer started on %s", p.ch.Name())
}

// Stop cancels the pollers and waits for in-flight handlers to return.
func (p *PollingConsumer) Stop() {
	p.mtx.Lock()
	if !p.running {
		p.mtx.Unlock()
		return
	}
	p.running = false
	p.cancel()
	p.mtx.Unlock()
	p.wg.Wait()
	glog.V(logging.LevelDebug).Infof("polling consumer stopped on %s", p.ch.Name())
}

func (p *PollingConsumer) IsRunning() bool {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	return p.running
}

func (p *PollingConsumer) poll(ctx context.Context) {
	defer p.wg.Done()
	for {
		m, ok := p.ch.Receive(ctx)
		if !ok {
			return
		}
		if err := p.handler.HandleMessage(ctx, m); err != nil {
			glog.Warningf("%s", logging.NewKVBuffer().AddChannel(p.ch.Name()).AddMessageId(m.Id()).AddError(err).String())
		}
	}
}
