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

// Package gateway exposes request/reply messaging behind a Go interface.
// Each method call becomes a message on a request channel; the gateway
// waits for the matching reply and converts it to the method's result
// type.
package gateway

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/golang/glog"
	"go.opentelemetry.io/otel/metric"

	"conduit/pkg/channel"
	"conduit/pkg/errors"
)

type options struct {
	requestChannel channel.Channel
	replyChannel   channel.Channel
	replyTimeout   time.Duration
	methodTimeouts map[string]time.Duration
	order          int
	autoStartup    bool
	converters     []Converter
	meterProvider  metric.MeterProvider
}

type Option func(o *options) error

func WithRequestChannel(ch channel.Channel) Option {
	return func(o *options) error {
		o.requestChannel = ch
		return nil
	}
}

// WithReplyChannel makes the gateway wait on a shared reply channel,
// matching replies by correlation id. Without it every call gets its own
// anonymous reply channel.
func WithReplyChannel(ch channel.Channel) Option {
	return func(o *options) error {
		o.replyChannel = ch
		return nil
	}
}

func WithReplyTimeout(d time.Duration) Option {
	return func(o *options) error {
		o.replyTimeout = d
		return nil
	}
}

func WithMethodTimeout(method string, d time.Duration) Option {
	return func(o *options) error {
		o.methodTimeouts[method] = d
		return nil
	}
}

func WithOrder(order int) Option {
	return func(o *options) error {
		o.order = order
		return nil
	}
}

func WithAutoStartup(auto bool) Option {
	return func(o *options) error {
		o.autoStartup = auto
		return nil
	}
}

func WithConverters(converters ...Converter) Option {
	return func(o *options) error {
		o.converters = append(o.converters, converters...)
		return nil
	}
}

func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o *options) error {
		o.meterProvider = mp
		return nil
	}
}

// WithConfig applies cfg, resolving its channel names in registry.
func WithConfig(cfg *Config, registry *channel.Registry) Option {
	return func(o *options) (err error) {
		if cfg.RequestChannel != "" {
			if o.requestChannel, err = registry.Resolve(cfg.RequestChannel); err != nil {
				return
			}
		}
		if cfg.ReplyChannel != "" {
			if o.replyChannel, err = registry.Resolve(cfg.ReplyChannel); err != nil {
				return
			}
		}
		if cfg.ReplyTimeout.Duration != 0 {
			o.replyTimeout = cfg.ReplyTimeout.Duration
		}
		timeouts, err := cfg.GetMethodTimeouts()
		if err != nil {
			return err
		}
		for m, d := range timeouts {
			o.methodTimeouts[m] = d
		}
		o.order = cfg.Order
		o.autoStartup = cfg.AutoStartup
		return
	}
}

type Gateway struct {
	serviceType    reflect.Type
	methods        map[string]*MethodDescriptor
	requestChannel channel.Channel
	replyChannel   channel.Channel
	replyTimeout   time.Duration
	methodTimeouts map[string]time.Duration
	order          int
	autoStartup    bool
	converters     *ConverterRegistry
	correlator     *correlator
	stats          *Stats

	mtx     sync.Mutex
	running bool
}

// New builds a gateway for the interface serviceType. Unless auto startup
// is turned off the gateway is running when New returns.
func New(serviceType reflect.Type, opts ...Option) (*Gateway, error) {
	methods, err := DescribeService(serviceType)
	if err != nil {
		return nil, err
	}
	o := &options{
		replyTimeout:   DefaultReplyTimeout,
		methodTimeouts: make(map[string]time.Duration),
		autoStartup:    true,
	}
	for _, opt := range opts {
		if err = opt(o); err != nil {
			return nil, err
		}
	}
	if o.requestChannel == nil {
		return nil, errors.Configurationf("gateway for %s: request channel is required", serviceType)
	}
	for name := range o.methodTimeouts {
		if _, found := methods[name]; !found {
			return nil, errors.Configurationf("gateway for %s: timeout for unknown method %s", serviceType, name)
		}
	}

	gw := &Gateway{
		serviceType:    serviceType,
		methods:        methods,
		requestChannel: o.requestChannel,
		replyChannel:   o.replyChannel,
		replyTimeout:   o.replyTimeout,
		methodTimeouts: o.methodTimeouts,
		order:          o.order,
		autoStartup:    o.autoStartup,
		converters:     NewConverterRegistry(o.converters...),
		stats:          NewStats(serviceType.String(), o.meterProvider),
	}
	if o.replyChannel != nil {
		if gw.correlator, err = newCorrelator(o.replyChannel); err != nil {
			return nil, err
		}
	}
	if gw.autoStartup {
		gw.Start()
	}
	return gw, nil
}

func (g *Gateway) Start() {
	g.mtx.Lock()
	defer g.mtx.Unlock()
	if g.running {
		return
	}
	if g.correlator != nil {
		g.correlator.start()
	}
	g.running = true
	glog.Infof("started %s", g)
}

// Stop detaches the reply dispatcher. Calls already waiting run into their
// timeout.
func (g *Gateway) Stop() {
	g.mtx.Lock()
	defer g.mtx.Unlock()
	if !g.running {
		return
	}
	if g.correlator != nil {
		g.correlator.stop()
	}
	g.running = false
	glog.Infof("stopped %s", g)
}

func (g *Gateway) IsRunning() bool {
	g.mtx.Lock()
	defer g.mtx.Unlock()
	return g.running
}

func (g *Gateway) AutoStartup() bool {
	return g.autoStartup
}

func (g *Gateway) Order() int {
	return g.order
}

func (g *Gateway) ServiceType() reflect.Type {
	return g.serviceType
}

func (g *Gateway) Method(name string) (*MethodDescriptor, bool) {
	m, found := g.methods[name]
	return m, found
}

// Methods returns the method names in sorted order.
func (g *Gateway) Methods() []string {
	names := make([]string, 0, len(g.methods))
	for n := range g.methods {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (g *Gateway) Stats() *Stats {
	return g.stats
}

// AddConverter registers a converter ahead of the ones already known.
func (g *Gateway) AddConverter(c Converter) {
	g.converters.Add(c)
}

func (g *Gateway) timeoutFor(method string) time.Duration {
	if d, found := g.methodTimeouts[method]; found {
		return d
	}
	return g.replyTimeout
}

func (g *Gateway) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "gateway proxy for service interface [%s], request channel [%s]", g.serviceType, g.requestChannel.Name())
	if g.replyChannel != nil {
		fmt.Fprintf(&b, ", reply channel [%s]", g.replyChannel.Name())
	}
	return b.String()
}
