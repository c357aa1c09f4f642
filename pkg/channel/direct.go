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
	"sync/atomic"

	"conduit/pkg/errors"
	"conduit/pkg/message"
)

var _ SubscribableChannel = (*DirectChannel)(nil)

// DirectChannel invokes one subscriber per message on the sending
// goroutine. Subscribers are picked round-robin.
type DirectChannel struct {
	base
	mtx         sync.RWMutex
	subscribers []*subscription
	next        atomic.Uint32
}

type subscription struct {
	ch      *DirectChannel
	handler Handler
}

func (s *subscription) Cancel() {
	s.ch.unsubscribe(s)
}

func NewDirectChannel(opts ...Option) *DirectChannel {
	o := newOptions("direct", opts)
	return &DirectChannel{
		base: base{name: o.name, interceptors: o.interceptors},
	}
}

func (c *DirectChannel) Subscribe(h Handler) Subscription {
	s := &subscription{ch: c, handler: h}
	c.mtx.Lock()
	c.subscribers = append(c.subscribers, s)
	c.mtx.Unlock()
	return s
}

func (c *DirectChannel) unsubscribe(s *subscription) {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	for i, sub := range c.subscribers {
		if sub == s {
			c.subscribers = append(c.subscribers[:i:i], c.subscribers[i+1:]...)
			return
		}
	}
}

func (c *DirectChannel) SubscriberCount() int {
	c.mtx.RLock()
	defer c.mtx.RUnlock()
	return len(c.subscribers)
}

func (c *DirectChannel) pick() Handler {
	c.mtx.RLock()
	defer c.mtx.RUnlock()
	n := len(c.subscribers)
	if n == 0 {
		return nil
	}
	i := (c.next.Add(1) - 1) % uint32(n)
	return c.subscribers[i].handler
}

func (c *DirectChannel) Send(ctx context.Context, m *message.Message) (err error) {
	h := c.pick()
	if h == nil {
		err = errors.NoReceiverf("channel %s has no subscribers", c.name)
	} else if err = ctx.Err(); err == nil {
		err = h.HandleMessage(ctx, m)
	}
	c.postSend(c, m, err)
	return
}
