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
	"time"

	"conduit/pkg/message"
)

var _ PollableChannel = (*QueueChannel)(nil)

// QueueChannel is a FIFO point-to-point channel. Each message is handed to
// exactly one receiver.
type QueueChannel struct {
	base
	capacity    int
	sendTimeout time.Duration

	mtx      sync.Mutex
	items    []*message.Message
	notEmpty chan struct{}
	notFull  chan struct{}
}

func NewQueueChannel(opts ...Option) *QueueChannel {
	o := newOptions("queue", opts)
	c := &QueueChannel{
		base:        base{name: o.name, interceptors: o.interceptors},
		capacity:    o.capacity,
		sendTimeout: o.sendTimeout,
		notEmpty:    make(chan struct{}, 1),
		notFull:     make(chan struct{}, 1),
	}
	c.notFull <- struct{}{}
	return c
}

// Capacity returns the bound, or 0 for an unbounded queue.
func (c *QueueChannel) Capacity() int {
	if c.capacity <= 0 {
		return 0
	}
	return c.capacity
}

func (c *QueueChannel) Len() int {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	return len(c.items)
}

func (c *QueueChannel) Send(ctx context.Context, m *message.Message) (err error) {
	if _, ok := ctx.Deadline(); !ok && c.sendTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.sendTimeout)
		defer cancel()
	}
	for {
		if c.tryPush(m) {
			c.postSend(c, m, nil)
			return nil
		}
		select {
		case <-c.notFull:
		case <-ctx.Done():
			err = sendContextError(ctx, c.name)
			c.postSend(c, m, err)
			return
		}
	}
}

func (c *QueueChannel) tryPush(m *message.Message) bool {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	if c.capacity > 0 && len(c.items) >= c.capacity {
		return false
	}
	c.items = append(c.items, m)
	signal(c.notEmpty)
	if c.capacity <= 0 || len(c.items) < c.capacity {
		signal(c.notFull)
	}
	return true
}

func (c *QueueChannel) Receive(ctx context.Context) (*message.Message, bool) {
	for {
		if m, ok := c.tryPop(); ok {
			c.postReceive(c, m)
			return m, true
		}
		select {
		case <-c.notEmpty:
		case <-ctx.Done():
			return nil, false
		}
	}
}

// TryReceive returns the head of the queue without blocking.
func (c *QueueChannel) TryReceive() (*message.Message, bool) {
	m, ok := c.tryPop()
	if ok {
		c.postReceive(c, m)
	}
	return m, ok
}

func (c *QueueChannel) tryPop() (*message.Message, bool) {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	if len(c.items) == 0 {
		return nil, false
	}
	m := c.items[0]
	c.items[0] = nil
	c.items = c.items[1:]
	if len(c.items) > 0 {
		signal(c.notEmpty)
	}
	signal(c.notFull)
	return m, true
}

// Clear drops every buffered message and returns them in order.
func (c *QueueChannel) Clear() []*message.Message {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	items := c.items
	c.items = nil
	signal(c.notFull)
	return items
}

func signal(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}
