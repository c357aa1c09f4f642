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
	"sync/atomic"

	"github.com/golang/glog"
	gotel "go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"conduit/pkg/logging/otel"
	"conduit/pkg/message"
)

// Interceptor observes traffic on a channel. Calls are made synchronously on
// the sending or receiving goroutine, so implementations must be cheap and
// must not modify the message.
type Interceptor interface {
	PostSend(ch Channel, m *message.Message, err error)
	PostReceive(ch Channel, m *message.Message)
}

// InterceptorFuncs adapts plain functions to Interceptor. Nil fields are
// skipped.
type InterceptorFuncs struct {
	OnSend    func(ch Channel, m *message.Message, err error)
	OnReceive func(ch Channel, m *message.Message)
}

func (f InterceptorFuncs) PostSend(ch Channel, m *message.Message, err error) {
	if f.OnSend != nil {
		f.OnSend(ch, m, err)
	}
}

func (f InterceptorFuncs) PostReceive(ch Channel, m *message.Message) {
	if f.OnReceive != nil {
		f.OnReceive(ch, m)
	}
}

// CountingInterceptor counts successful sends, failed sends and receives.
// Counts are also exported as OpenTelemetry counters tagged with the
// channel name.
type CountingInterceptor struct {
	sent       atomic.Int64
	sendErrors atomic.Int64
	received   atomic.Int64

	sentCounter     metric.Int64Counter
	errorCounter    metric.Int64Counter
	receivedCounter metric.Int64Counter
}

func NewCountingInterceptor(mp metric.MeterProvider) *CountingInterceptor {
	if mp == nil {
		mp = gotel.GetMeterProvider()
	}
	meter := mp.Meter(otel.MeterName)
	c := &CountingInterceptor{}
	var err error
	if c.sentCounter, err = meter.Int64Counter(otel.MetricPrefix+"channel.sent",
		metric.WithDescription("Messages sent on a channel")); err != nil {
		glog.Warningf("channel.sent counter: %s", err)
	}
	if c.errorCounter, err = meter.Int64Counter(otel.MetricPrefix+"channel.send_errors",
		metric.WithDescription("Failed sends on a channel")); err != nil {
		glog.Warningf("channel.send_errors counter: %s", err)
	}
	if c.receivedCounter, err = meter.Int64Counter(otel.MetricPrefix+"channel.received",
		metric.WithDescription("Messages received from a channel")); err != nil {
		glog.Warningf("channel.received counter: %s", err)
	}
	return c
}

func (c *CountingInterceptor) PostSend(ch Channel, m *message.Message, err error) {
	if err != nil {
		c.sendErrors.Add(1)
		add(c.errorCounter, ch)
		return
	}
	c.sent.Add(1)
	add(c.sentCounter, ch)
}

func (c *CountingInterceptor) PostReceive(ch Channel, m *message.Message) {
	c.received.Add(1)
	add(c.receivedCounter, ch)
}

func (c *CountingInterceptor) Sent() int64 {
	return c.sent.Load()
}

func (c *CountingInterceptor) SendErrors() int64 {
	return c.sendErrors.Load()
}

func (c *CountingInterceptor) Received() int64 {
	return c.received.Load()
}

func add(counter metric.Int64Counter, ch Channel) {
	if counter != nil {
		counter.Add(context.Background(), 1, metric.WithAttributes(attribute.String("channel", ch.Name())))
	}
}
