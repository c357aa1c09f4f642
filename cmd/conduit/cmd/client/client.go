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

// Package client implements the send and bench commands, which call an
// echo service through a messaging gateway.
package client

import (
	"context"
	"flag"
	"time"

	"conduit/pkg/cmd"
	"conduit/pkg/config"
	"conduit/pkg/framing"
	"conduit/pkg/io"
	"conduit/pkg/logging"
)

const (
	kAppName              = "conduit"
	kDefaultServerAddress = "127.0.0.1:7070"
	kDefaultTimeout       = 2 * time.Second
)

// EchoService is the interface the gateway proxies for both commands.
type EchoService interface {
	Echo(ctx context.Context, text string) (string, error)
}

type clientCommandT struct {
	cmd.Command
	optCfgFile    string
	optServerAddr string
	optFormat     string
	optLogLevel   string
	optTimeout    time.Duration
}

func (c *clientCommandT) Init(name string, desc string) {
	c.Command.Init(name, desc)
	c.StringOption(&c.optServerAddr, "s|server", kDefaultServerAddress, "specify server address")
	c.StringOption(&c.optFormat, "f|format", "", "frame format: length-header, stx-etx or crlf")
	c.StringOption(&c.optCfgFile, "c|config", "", "specify toml configuration file name")
	c.StringOption(&c.optLogLevel, "log-level", "warning", "specify log level")
	c.DurationOption(&c.optTimeout, "t|timeout", kDefaultTimeout, "reply timeout")
}

// setup loads the configuration and returns the outbound endpoint and
// socket settings with the command line overrides applied.
func (c *clientCommandT) setup() (endpoint io.ServiceEndpoint, sockCfg io.SocketConfig, err error) {
	if c.optCfgFile != "" {
		if err = config.LoadConfig(c.optCfgFile); err != nil {
			return
		}
	} else if err = config.Conf.Validate(); err != nil {
		return
	}
	logging.InitLogging(c.optLogLevel, kAppName)

	endpoint = config.Conf.Outbound
	if c.optCfgFile == "" || c.isSet("s") || c.isSet("server") {
		if err = endpoint.SetFromConnString(c.optServerAddr); err != nil {
			return
		}
	}
	sockCfg = config.Conf.Socket
	if c.optFormat != "" {
		if sockCfg.Format, err = framing.ParseFormat(c.optFormat); err != nil {
			return
		}
	}
	if c.optTimeout > 0 {
		sockCfg.ReadTimeout.Duration = c.optTimeout
	}
	return
}

func (c *clientCommandT) isSet(name string) (set bool) {
	c.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return
}
