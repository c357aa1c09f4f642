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

package io

import (
	"context"
	"sync"

	"github.com/golang/glog"

	"conduit/pkg/logging"
)

// ConnStats counts the connections of one listener.
type ConnStats struct {
	Active   int
	Accepted uint64
	Closed   uint64
	// Rejected counts connections accepted while shutting down.
	Rejected uint64
}

// connTable tracks the live connectors of a listener. Once shut down it
// refuses new connectors, so draining cannot be outrun by late accepts.
type connTable struct {
	name    string
	mtx     sync.Mutex
	active  map[*Connector]string
	stats   ConnStats
	closing bool
	drained chan struct{}
}

func newConnTable(name string) *connTable {
	return &connTable{
		name:    name,
		active:  make(map[*Connector]string),
		drained: make(chan struct{}),
	}
}

// add registers c under its remote address. It returns false after
// shutdown; the caller then owns closing the connection.
func (t *connTable) add(c *Connector, raddr string) bool {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	if t.closing {
		t.stats.Rejected++
		return false
	}
	t.active[c] = raddr
	t.stats.Accepted++
	if glog.V(logging.LevelVerbose) {
		glog.Info(logging.NewKVBuffer().AddChannel(t.name).AddRemoteAddr(raddr).
			AddInt("active", len(t.active)).String())
	}
	return true
}

func (t *connTable) remove(c *Connector) {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	raddr, found := t.active[c]
	if !found {
		return
	}
	delete(t.active, c)
	t.stats.Closed++
	if glog.V(logging.LevelVerbose) {
		glog.Info(logging.NewKVBuffer().AddChannel(t.name).AddRemoteAddr(raddr).
			AddStatus("closed").AddInt("active", len(t.active)).String())
	}
	if t.closing && len(t.active) == 0 {
		close(t.drained)
	}
}

// shutdown stops every connector. It is safe to call more than once.
func (t *connTable) shutdown() {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	if t.closing {
		return
	}
	t.closing = true
	if len(t.active) == 0 {
		close(t.drained)
		return
	}
	for c := range t.active {
		c.Stop()
	}
}

// drain waits until every connector has returned after shutdown. It
// reports false when ctx ends first.
func (t *connTable) drain(ctx context.Context) bool {
	select {
	case <-t.drained:
		return true
	case <-ctx.Done():
		return false
	}
}

func (t *connTable) snapshot() ConnStats {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	st := t.stats
	st.Active = len(t.active)
	return st
}
