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

// Package channel provides the conduits messages travel through: buffered
// queue channels that receivers poll, a zero-capacity rendezvous channel,
// and direct channels that dispatch to subscribers on the sender's
// goroutine.
package channel

import (
	"context"
	"time"

	"conduit/pkg/errors"
	"conduit/pkg/message"
	"conduit/pkg/util"
)

type (
	Channel interface {
		Name() string
		Send(ctx context.Context, m *message.Message) error
	}

	// PollableChannel buffers messages until a receiver asks for them.
	// Receive returns false when ctx is done before a message is available.
	PollableChannel interface {
		Channel
		Receive(ctx context.Context) (*message.Message, bool)
	}

	SubscribableChannel interface {
		Channel
		Subscribe(h Handler) Subscription
	}

	Subscription interface {
		Cancel()
	}

	Handler interface {
		HandleMessage(ctx context.Context, m *message.Message) error
	}

	HandlerFunc func(ctx context.Context, m *message.Message) error
)

func (f HandlerFunc) HandleMessage(ctx context.Context, m *message.Message) error {
	return f(ctx, m)
}

type options struct {
	name         string
	capacity     int
	sendTimeout  time.Duration
	interceptors []Interceptor
}

type Option func(o *options)

func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithCapacity bounds a queue channel. Zero or negative means unbounded.
func WithCapacity(n int) Option {
	return func(o *options) {
		o.capacity = n
	}
}

// WithSendTimeout limits how long Send blocks on a full channel when the
// caller's context carries no deadline of its own.
func WithSendTimeout(d time.Duration) Option {
	return func(o *options) {
		o.sendTimeout = d
	}
}

func WithInterceptors(interceptors ...Interceptor) Option {
	return func(o *options) {
		o.interceptors = append(o.interceptors, interceptors...)
	}
}

func newOptions(prefix string, opts []Option) *options {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.name == "" {
		o.name = prefix + "-" + util.NewTimeBasedId()
	}
	return o
}

type base struct {
	name         string
	interceptors []Interceptor
}

func (b *base) Name() string {
	return b.name
}

func (b *base) String() string {
	return b.name
}

func (b *base) postSend(ch Channel, m *message.Message, err error) {
	for _, i := range b.interceptors {
		i.PostSend(ch, m, err)
	}
}

func (b *base) postReceive(ch Channel, m *message.Message) {
	for _, i := range b.interceptors {
		i.PostReceive(ch, m)
	}
}

// ReceiveTimeout polls c for at most d. A non-positive d waits until a
// message arrives.
func ReceiveTimeout(c PollableChannel, d time.Duration) (*message.Message, bool) {
	if d <= 0 {
		return c.Receive(context.Background())
	}
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()
	return c.Receive(ctx)
}

// SendTimeout sends m on c, giving up after d.
func SendTimeout(c Channel, m *message.Message, d time.Duration) error {
	if d <= 0 {
		return c.Send(context.Background(), m)
	}
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()
	return c.Send(ctx, m)
}

func sendContextError(ctx context.Context, name string) error {
	if ctx.Err() == context.DeadlineExceeded {
		return errors.Timeoutf("send on channel %s timed out", name)
	}
	return ctx.Err()
}
