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

package gateway

import (
	"context"

	"github.com/golang/glog"

	"conduit/pkg/channel"
	"conduit/pkg/errors"
	"conduit/pkg/logging"
	"conduit/pkg/message"
	"conduit/pkg/util"
)

type pendingReply struct {
	ch chan *message.Message
}

// correlator dispatches replies arriving on a shared reply channel to the
// callers waiting for them. Replies without a correlation id are parked on
// an internal queue that solicit calls read from.
type correlator struct {
	reply        channel.Channel
	pending      *util.CMap[*pendingReply]
	uncorrelated *channel.QueueChannel

	consumer     *channel.PollingConsumer
	subscribable channel.SubscribableChannel
	subscription channel.Subscription
}

func newCorrelator(reply channel.Channel) (*correlator, error) {
	c := &correlator{
		reply:        reply,
		pending:      util.NewCMap[*pendingReply](util.DefaultCMapPartitions),
		uncorrelated: channel.NewQueueChannel(channel.WithName(reply.Name() + ".uncorrelated")),
	}
	switch ch := reply.(type) {
	case channel.PollableChannel:
		c.consumer = channel.NewPollingConsumer(ch, c)
	case channel.SubscribableChannel:
		c.subscribable = ch
	default:
		return nil, errors.Configurationf("reply channel %s is neither pollable nor subscribable", reply.Name())
	}
	return c, nil
}

func (c *correlator) start() {
	if c.consumer != nil {
		c.consumer.Start()
	} else if c.subscription == nil {
		c.subscription = c.subscribable.Subscribe(c)
	}
}

func (c *correlator) stop() {
	if c.consumer != nil {
		c.consumer.Stop()
	} else if c.subscription != nil {
		c.subscription.Cancel()
		c.subscription = nil
	}
}

// register must be called before the request is sent, so that a fast reply
// always finds its caller.
func (c *correlator) register() (string, *pendingReply) {
	p := &pendingReply{ch: make(chan *message.Message, 1)}
	for {
		id := util.NewTimeBasedId()
		if _, ok := c.pending.PutIfAbsent(id, p); ok {
			return id, p
		}
	}
}

// await waits for the reply to id. The pending entry is gone when await
// returns, whatever the outcome.
func (c *correlator) await(ctx context.Context, id string, p *pendingReply) (*message.Message, bool) {
	select {
	case m := <-p.ch:
		return m, true
	case <-ctx.Done():
	}
	if _, removed := c.pending.Remove(id); removed {
		return nil, false
	}
	// the dispatcher removed the entry first and is handing the reply over
	return <-p.ch, true
}

func (c *correlator) cancel(id string) {
	c.pending.Delete(id)
}

func (c *correlator) receiveUncorrelated(ctx context.Context) (*message.Message, bool) {
	return c.uncorrelated.Receive(ctx)
}

func (c *correlator) numPending() int {
	return c.pending.Len()
}

func (c *correlator) HandleMessage(ctx context.Context, m *message.Message) error {
	id := m.Headers().CorrelationId()
	if id == "" {
		return c.uncorrelated.Send(ctx, m)
	}
	if p, found := c.pending.Remove(id); found {
		p.ch <- m
		return nil
	}
	glog.Warningf("drop reply: %s", logging.NewKVBuffer().
		AddChannel(c.reply.Name()).AddCorrelationId(id).AddMessageId(m.Id()).String())
	return nil
}
