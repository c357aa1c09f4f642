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
	"net"
	"time"

	"github.com/golang/glog"

	"conduit/pkg/channel"
	"conduit/pkg/io/ioutil"
	"conduit/pkg/logging"
	"conduit/pkg/message"
)

// Connector serves one inbound connection: every frame read becomes a
// request message, and the reply is written back as a frame. Requests on a
// connection are handled one at a time, in order.
type Connector struct {
	conn         net.Conn
	reader       *SocketReader
	writer       *SocketWriter
	requests     channel.Channel
	replyTimeout time.Duration
	conns        *connTable
	ctx          context.Context
	cancelCtx    context.CancelFunc
}

// Start serves the connection on its own goroutine. A listener that is
// shutting down refuses the connector, which then closes the connection.
func (c *Connector) Start() {
	if !c.conns.add(c, c.conn.RemoteAddr().String()) {
		c.Stop()
		c.reader.Release()
		return
	}
	go c.run()
}

// Stop closes the connection, which unblocks a pending read.
func (c *Connector) Stop() {
	c.cancelCtx()
	c.conn.Close()
}

func (c *Connector) run() {
	defer func() {
		c.Stop()
		c.reader.Release()
		c.conns.remove(c)
	}()

	raddr := c.conn.RemoteAddr().String()
	for {
		payload, err := c.reader.Read()
		if err != nil {
			if c.ctx.Err() == nil {
				ioutil.LogError(err)
			}
			return
		}
		if err = c.handle(payload, raddr); err != nil {
			if c.ctx.Err() == nil {
				ioutil.LogError(err)
			}
			return
		}
	}
}

func (c *Connector) handle(payload []byte, raddr string) error {
	ctx := c.ctx
	if c.replyTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.replyTimeout)
		defer cancel()
	}
	start := time.Now()
	replies := channel.NewQueueChannel(channel.WithCapacity(1))
	request := message.New(payload, message.WithReplyChannel(replies))
	if err := c.requests.Send(ctx, request); err != nil {
		glog.Warning(logging.NewKVBuffer().AddRemoteAddr(raddr).AddChannel(c.requests.Name()).
			AddMessageId(request.Id()).AddError(err).String())
		return nil
	}
	reply, ok := replies.Receive(ctx)
	if !ok {
		glog.Warning(logging.NewKVBuffer().AddRemoteAddr(raddr).AddChannel(c.requests.Name()).
			AddMessageId(request.Id()).AddStatus("noreply").AddElapsed(time.Since(start)).String())
		return nil
	}
	if glog.V(logging.LevelDebug) {
		glog.Info(logging.NewKVBuffer().AddRemoteAddr(raddr).AddChannel(c.requests.Name()).
			AddMessageId(request.Id()).AddPayloadLen(len(payload)).AddElapsed(time.Since(start)).String())
	}
	return c.writer.Write(payloadBytes(reply.Payload()))
}
