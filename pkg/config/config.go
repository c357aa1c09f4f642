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

// Package config holds the application configuration read from TOML.
package config

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/golang/glog"

	"conduit/pkg/channel"
	"conduit/pkg/errors"
	"conduit/pkg/gateway"
	"conduit/pkg/initmgr"
	"conduit/pkg/io"
	otelcfg "conduit/pkg/logging/otel/config"
	"conduit/pkg/util"
)

const (
	ChannelTypeQueue      = "queue"
	ChannelTypeRendezvous = "rendezvous"
	ChannelTypeDirect     = "direct"
)

var (
	Initializer initmgr.IInitializer = initmgr.NewInitializer(initialize, finalize)

	Conf = Config{
		LogLevel: "info",
		Gateway:  gateway.DefaultConfig(),
		Socket:   io.DefaultSocketConfig,
		Listener: io.ListenerConfig{
			Name:    "inbound",
			Addr:    "127.0.0.1:7070",
			Network: "tcp",
		},
		Outbound: io.ServiceEndpoint{
			Addr: "127.0.0.1:7070",
		},
		Otel: otelcfg.Config{
			Enabled: false,
		},
	}
)

type (
	ChannelConfig struct {
		Name string
		// Type is queue, rendezvous or direct.
		Type        string
		Capacity    int
		SendTimeout util.Duration
		// Counted attaches a counting interceptor.
		Counted bool
	}

	Config struct {
		LogLevel string

		Gateway  gateway.Config
		Socket   io.SocketConfig
		Listener io.ListenerConfig
		Outbound io.ServiceEndpoint
		Channels []ChannelConfig
		Otel     otelcfg.Config
	}
)

func (c *Config) Dump() {
	var buf bytes.Buffer
	encoder := toml.NewEncoder(&buf)
	encoder.Encode(c)
	glog.Info(buf.String())
}

func (c *Config) Validate() (err error) {
	c.Gateway.SetDefaultIfNotDefined()
	c.Socket.SetDefaultIfNotDefined()
	c.Listener.SetDefaultIfNotDefined()
	c.Otel.Validate()

	names := make(map[string]bool, len(c.Channels))
	for i := range c.Channels {
		ch := &c.Channels[i]
		if ch.Name == "" {
			return errors.Configurationf("channel #%d has no name", i)
		}
		if names[ch.Name] {
			return errors.Configurationf("channel %s defined twice", ch.Name)
		}
		names[ch.Name] = true
		switch strings.ToLower(ch.Type) {
		case "":
			ch.Type = ChannelTypeQueue
		case ChannelTypeQueue, ChannelTypeRendezvous, ChannelTypeDirect:
			ch.Type = strings.ToLower(ch.Type)
		default:
			return errors.Configurationf("channel %s: unknown type %q", ch.Name, ch.Type)
		}
	}
	if _, err = c.Gateway.GetMethodTimeouts(); err != nil {
		return
	}
	if c.Gateway.RequestChannel != "" && !names[c.Gateway.RequestChannel] {
		return errors.Configurationf("gateway request channel %s is not defined", c.Gateway.RequestChannel)
	}
	if c.Gateway.ReplyChannel != "" && !names[c.Gateway.ReplyChannel] {
		return errors.Configurationf("gateway reply channel %s is not defined", c.Gateway.ReplyChannel)
	}
	return
}

// NewChannel creates the channel described by c.
func (c *ChannelConfig) NewChannel(interceptors ...channel.Interceptor) channel.Channel {
	opts := []channel.Option{
		channel.WithName(c.Name),
		channel.WithInterceptors(interceptors...),
	}
	switch c.Type {
	case ChannelTypeRendezvous:
		return channel.NewRendezvousChannel(opts...)
	case ChannelTypeDirect:
		return channel.NewDirectChannel(opts...)
	default:
		opts = append(opts, channel.WithCapacity(c.Capacity), channel.WithSendTimeout(c.SendTimeout.Duration))
		return channel.NewQueueChannel(opts...)
	}
}

// BuildRegistry creates and registers every configured channel. counter,
// if not nil, is attached to the channels marked Counted.
func (c *Config) BuildRegistry(counter *channel.CountingInterceptor) (*channel.Registry, error) {
	registry := channel.NewRegistry()
	for i := range c.Channels {
		var interceptors []channel.Interceptor
		if c.Channels[i].Counted && counter != nil {
			interceptors = append(interceptors, counter)
		}
		if err := registry.Register(c.Channels[i].NewChannel(interceptors...)); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

func LoadConfig(file string) (err error) {
	if _, err = toml.DecodeFile(file, &Conf); err != nil {
		glog.Errorf("config error : %s", err)
		return
	}
	if err = Conf.Validate(); err != nil {
		glog.Errorf("config error : %s", err)
	}
	return
}

func initialize(args ...interface{}) (err error) {
	sz := len(args)
	if sz < 1 {
		err = fmt.Errorf("a string config file name argument expected")
		return
	}
	filename, ok := args[0].(string)

	if !ok {
		err = fmt.Errorf("wrong argument type. a string config file name expected")
		return
	}
	if filename == "" {
		return Conf.Validate()
	}
	err = LoadConfig(filename)
	return
}

func finalize() {
}
