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
	"errors"
	"net"
	"time"

	"github.com/golang/glog"
	"golang.org/x/sync/errgroup"

	"conduit/pkg/channel"
	"conduit/pkg/framing"
	"conduit/pkg/logging/otel"
)

// Listener is an inbound TCP gateway. Each accepted connection is served
// by a Connector that sends decoded frames to the request channel and
// writes the replies back.
type Listener struct {
	config       ListenerConfig
	sockConfig   SocketConfig
	codec        *framing.Codec
	netListener  net.Listener
	requests     channel.Channel
	replyTimeout time.Duration
	conns        *connTable
}

func NewListener(cfg ListenerConfig, sockCfg SocketConfig, requests channel.Channel, replyTimeout time.Duration) (*Listener, error) {
	cfg.SetDefaultIfNotDefined()
	ln, err := net.Listen(cfg.Network, cfg.GetConnString())
	if err != nil {
		return nil, err
	}
	l, err := NewListenerWith(ln, cfg, sockCfg, requests, replyTimeout)
	if err != nil {
		ln.Close()
	}
	return l, err
}

// NewListenerWith serves on an already bound net.Listener.
func NewListenerWith(ln net.Listener, cfg ListenerConfig, sockCfg SocketConfig, requests channel.Channel, replyTimeout time.Duration) (*Listener, error) {
	sockCfg.SetDefaultIfNotDefined()
	codec, err := sockCfg.NewCodec()
	if err != nil {
		return nil, err
	}
	if replyTimeout == 0 {
		replyTimeout = sockCfg.ReadTimeout.Duration
	}
	name := cfg.Name
	if len(name) == 0 {
		name = ln.Addr().String()
	}
	return &Listener{
		config:       cfg,
		sockConfig:   sockCfg,
		codec:        codec,
		netListener:  ln,
		requests:     requests,
		replyTimeout: replyTimeout,
		conns:        newConnTable(name),
	}, nil
}

func (l *Listener) GetName() string {
	if len(l.config.Name) != 0 {
		return l.config.Name
	}
	return l.GetConnString()
}

func (l *Listener) GetConnString() string {
	return l.netListener.Addr().String()
}

func (l *Listener) Addr() net.Addr {
	return l.netListener.Addr()
}

func (l *Listener) Close() error {
	return l.netListener.Close()
}

// Shutdown stops accepting and closes every served connection. Connections
// accepted after this point are closed at once.
func (l *Listener) Shutdown() {
	l.netListener.Close()
	l.conns.shutdown()
}

// Drain waits for the connectors to return after Shutdown.
func (l *Listener) Drain(ctx context.Context) bool {
	return l.conns.drain(ctx)
}

func (l *Listener) WaitForShutdownToComplete(timeout time.Duration) bool {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return l.Drain(ctx)
}

func (l *Listener) GetNumActiveConnections() int {
	return l.ConnStats().Active
}

func (l *Listener) ConnStats() ConnStats {
	return l.conns.snapshot()
}

// AcceptAndServe accepts one connection and starts serving it.
func (l *Listener) AcceptAndServe() error {
	conn, err := l.netListener.Accept()
	if err == nil {
		otel.RecordAccept(otel.StatusSuccess)
		l.startNewConnector(conn)
	} else {
		otel.RecordAccept(otel.StatusError)
	}
	//log the error in caller if needed
	return err
}

// Serve accepts connections until ctx is done or the listener is closed,
// then shuts down every connection. It returns nil on a requested stop.
func (l *Listener) Serve(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	gctx, stop := context.WithCancel(gctx)
	g.Go(func() error {
		defer stop()
		for {
			if err := l.AcceptAndServe(); err != nil {
				if errors.Is(err, net.ErrClosed) {
					return nil
				}
				var nerr net.Error
				if errors.As(err, &nerr) && nerr.Timeout() {
					glog.Warningf("accept: %s", err)
					continue
				}
				return err
			}
		}
	})
	g.Go(func() error {
		<-gctx.Done()
		l.Shutdown()
		return nil
	})
	err := g.Wait()
	st := l.ConnStats()
	glog.Infof("listener %s stopped: accepted=%d closed=%d rejected=%d", l.GetName(),
		st.Accepted, st.Closed, st.Rejected)
	return err
}

func (l *Listener) startNewConnector(conn net.Conn) {
	ctx, cancel := context.WithCancel(context.Background())
	codec := l.codec
	connector := &Connector{
		conn:         conn,
		reader:       NewSocketReader(conn, codec, l.sockConfig.IOBufSize),
		writer:       NewSocketWriter(conn, codec),
		requests:     l.requests,
		replyTimeout: l.replyTimeout,
		conns:        l.conns,
		ctx:          ctx,
		cancelCtx:    cancel,
	}
	connector.reader.SetReadTimeout(l.sockConfig.IdleTimeout.Duration)
	connector.writer.SetWriteTimeout(l.sockConfig.WriteTimeout.Duration)
	connector.Start()
}
