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

	"conduit/pkg/message"
)

var _ PollableChannel = (*RendezvousChannel)(nil)

// RendezvousChannel has no buffer: Send blocks until a receiver takes the
// message.
type RendezvousChannel struct {
	base
	ch chan *message.Message
}

func NewRendezvousChannel(opts ...Option) *RendezvousChannel {
	o := newOptions("rendezvous", opts)
	return &RendezvousChannel{
		base: base{name: o.name, interceptors: o.interceptors},
		ch:   make(chan *message.Message),
	}
}

func (c *RendezvousChannel) Send(ctx context.Context, m *message.Message) (err error) {
	select {
	case c.ch <- m:
	case <-ctx.Done():
		err = sendContextError(ctx, c.name)
	}
	c.postSend(c, m, err)
	return
}

func (c *RendezvousChannel) Receive(ctx context.Context) (*message.Message, bool) {
	select {
	case m := <-c.ch:
		c.postReceive(c, m)
		return m, true
	case <-ctx.Done():
		return nil, false
	}
}
