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

// Package serve implements the serve command: a TCP echo server whose
// requests flow through a message channel to a service activator.
package serve

import (
	"context"
	"fmt"
	"time"

	"github.com/golang/glog"

	"conduit/pkg/channel"
	"conduit/pkg/cmd"
	"conduit/pkg/config"
	"conduit/pkg/framing"
	"conduit/pkg/initmgr"
	"conduit/pkg/io"
	"conduit/pkg/logging"
	"conduit/pkg/logging/otel"
	"conduit/pkg/message"
)

const (
	kAppName              = "conduit"
	kDefaultRequestChName = "requests"
	kShutdownWait         = 5 * time.Second
)

type cmdServeT struct {
	cmd.Command
	optCfgFile     string
	optAddr        string
	optFormat      string
	optSuffix      string
	optLogLevel    string
	optConcurrency int
}

func (c *cmdServeT) Init(name string, desc string) {
	c.Command.Init(name, desc)
	c.StringOption(&c.optCfgFile, "c|config", "", "specify toml configuration file name")
	c.StringOption(&c.optAddr, "a|addr", "", "listen address, overrides the configuration")
	c.StringOption(&c.optFormat, "f|format", "", "frame format: length-header, stx-etx or crlf")
	c.StringOption(&c.optSuffix, "suffix", "", "text appended to every echoed payload")
	c.StringOption(&c.optLogLevel, "log-level", "", "specify log level, overrides the configuration")
	c.IntOption(&c.optConcurrency, "concurrency", 4, "number of goroutines handling requests")
	c.SetSynopsis("[options]")
	c.AddDetails(`  Listens for framed requests and replies with the request payload,
  optionally followed by a suffix. Each frame is turned into a message,
  sent to the request channel and answered through its reply channel.
`)
	c.AddExample(name+" -addr :7070 -format crlf -suffix \" world\"", "serve CRLF framed requests on port 7070")
}

func (c *cmdServeT) Exec(ctx context.Context) (err error) {
	initmgr.Register(config.Initializer, c.optCfgFile)
	initmgr.RegisterWithFuncs(otel.Initialize, otel.Finalize, &config.Conf.Otel)
	if err = initmgr.Init(); err != nil {
		return
	}
	conf := &config.Conf
	if c.optLogLevel != "" {
		conf.LogLevel = c.optLogLevel
	}
	logging.InitLogging(conf.LogLevel, kAppName)
	if c.optAddr != "" {
		conf.Listener.Addr = c.optAddr
	}
	if c.optFormat != "" {
		if conf.Socket.Format, err = framing.ParseFormat(c.optFormat); err != nil {
			return
		}
	}
	if glog.V(logging.LevelInfo) {
		conf.Dump()
	}

	registry, err := conf.BuildRegistry(channel.NewCountingInterceptor(nil))
	if err != nil {
		return
	}
	requests, err := requestChannel(conf, registry)
	if err != nil {
		return
	}
	responder := channel.NewServiceActivator(Echo(c.optSuffix), nil)
	switch ch := requests.(type) {
	case channel.PollableChannel:
		consumer := channel.NewPollingConsumer(ch, responder)
		consumer.SetConcurrency(c.optConcurrency)
		consumer.Start()
		defer consumer.Stop()
	case channel.SubscribableChannel:
		defer ch.Subscribe(responder).Cancel()
	default:
		return fmt.Errorf("channel %s can neither be polled nor subscribed", requests.Name())
	}

	lsnr, err := io.NewListener(conf.Listener, conf.Socket, requests, conf.Gateway.ReplyTimeout.Duration)
	if err != nil {
		return
	}
	glog.Infof("listening on %s (%s)", lsnr.GetConnString(), conf.Socket.Format)
	err = lsnr.Serve(ctx)
	if !lsnr.WaitForShutdownToComplete(kShutdownWait) {
		glog.Warningf("%d connection(s) still active", lsnr.GetNumActiveConnections())
	}
	return
}

func requestChannel(conf *config.Config, registry *channel.Registry) (channel.Channel, error) {
	if conf.Gateway.RequestChannel != "" {
		return registry.Resolve(conf.Gateway.RequestChannel)
	}
	ch := channel.NewQueueChannel(channel.WithName(kDefaultRequestChName))
	return ch, registry.Register(ch)
}

// Echo returns a service replying with the request payload followed by
// suffix. Byte payloads are answered with bytes.
func Echo(suffix string) channel.ServiceFunc {
	return func(ctx context.Context, request *message.Message) (interface{}, error) {
		switch p := request.Payload().(type) {
		case []byte:
			return append(append([]byte{}, p...), suffix...), nil
		case string:
			return p + suffix, nil
		default:
			return fmt.Sprint(p) + suffix, nil
		}
	}
}

func init() {
	c := &cmdServeT{}
	c.Init("serve", "run a framed TCP echo server")
	cmd.Register(c)
}
