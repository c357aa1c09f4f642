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
	"sync"

	"github.com/golang/glog"

	"conduit/pkg/channel"
	"conduit/pkg/framing"
	"conduit/pkg/io/ioutil"
	"conduit/pkg/logging"
	"conduit/pkg/message"
)

// outboundConn is a lazily dialed connection shared by the outbound
// endpoints. A failed exchange drops the connection; the next one redials.
type outboundConn struct {
	endpoint ServiceEndpoint
	config   SocketConfig
	codec    *framing.Codec

	mtx    sync.Mutex
	conn   net.Conn
	writer *SocketWriter
	reader *SocketReader
}

func newOutboundConn(endpoint ServiceEndpoint, config SocketConfig) (*outboundConn, error) {
	if err := endpoint.Validate(); err != nil {
		return nil, err
	}
	config.SetDefaultIfNotDefined()
	codec, err := config.NewCodec()
	if err != nil {
		return nil, err
	}
	return &outboundConn{endpoint: endpoint, config: config, codec: codec}, nil
}

func (c *outboundConn) connect() error {
	if c.conn != nil {
		return nil
	}
	conn, err := Connect(&c.endpoint, c.config.ConnectTimeout.Duration)
	if err != nil {
		return err
	}
	c.conn = conn
	c.writer = NewSocketWriter(conn, c.codec)
	c.writer.SetWriteTimeout(c.config.WriteTimeout.Duration)
	c.reader = NewSocketReader(conn, c.codec, c.config.IOBufSize)
	c.reader.SetReadTimeout(c.config.ReadTimeout.Duration)
	return nil
}

func (c *outboundConn) drop(err error) {
	ioutil.LogError(err)
	c.closeLocked()
}

func (c *outboundConn) closeLocked() {
	if c.conn == nil {
		return
	}
	c.conn.Close()
	c.reader.Release()
	c.conn, c.writer, c.reader = nil, nil, nil
}

func (c *outboundConn) Close() error {
	c.mtx.Lock()
	c.closeLocked()
	c.mtx.Unlock()
	return nil
}

// OutboundGateway sends each message payload to a TCP server as a frame
// and turns the framed response into the reply. Exchanges on one gateway
// are serialized over a single connection.
type OutboundGateway struct {
	*outboundConn
}

func NewOutboundGateway(endpoint ServiceEndpoint, config SocketConfig) (*OutboundGateway, error) {
	c, err := newOutboundConn(endpoint, config)
	if err != nil {
		return nil, err
	}
	return &OutboundGateway{outboundConn: c}, nil
}

// Exchange writes the request and returns the response payload. A string
// request gets a string response, anything else gets bytes.
func (g *OutboundGateway) Exchange(ctx context.Context, request *message.Message) (interface{}, error) {
	g.mtx.Lock()
	defer g.mtx.Unlock()

	if err := g.connect(); err != nil {
		return nil, err
	}
	if err := g.writer.WriteContext(ctx, payloadBytes(request.Payload())); err != nil {
		g.drop(err)
		return nil, err
	}
	response, err := g.reader.ReadContext(ctx)
	if err != nil {
		g.drop(err)
		return nil, err
	}
	if glog.V(logging.LevelDebug) {
		glog.Info(logging.NewKVBuffer().AddRemoteAddr(g.endpoint.GetConnString()).
			AddMessageId(request.Id()).AddCorrelationId(request.Headers().CorrelationId()).
			AddPayloadLen(len(response)).String())
	}
	if _, ok := request.Payload().(string); ok {
		return string(response), nil
	}
	return response, nil
}

// Handler returns a channel handler running Exchange. Replies go to the
// request's reply channel, or to output when the request has none.
func (g *OutboundGateway) Handler(output channel.Channel) channel.Handler {
	return channel.NewServiceActivator(g.Exchange, output)
}

// OutboundAdapter writes message payloads to a TCP server without waiting
// for a response.
type OutboundAdapter struct {
	*outboundConn
}

func NewOutboundAdapter(endpoint ServiceEndpoint, config SocketConfig) (*OutboundAdapter, error) {
	c, err := newOutboundConn(endpoint, config)
	if err != nil {
		return nil, err
	}
	return &OutboundAdapter{outboundConn: c}, nil
}

func (a *OutboundAdapter) HandleMessage(ctx context.Context, m *message.Message) error {
	a.mtx.Lock()
	defer a.mtx.Unlock()

	if err := a.connect(); err != nil {
		return err
	}
	if err := a.writer.WriteContext(ctx, payloadBytes(m.Payload())); err != nil {
		a.drop(err)
		return err
	}
	return nil
}
