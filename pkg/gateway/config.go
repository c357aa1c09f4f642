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
	"time"

	"github.com/golang/glog"

	"conduit/pkg/errors"
	"conduit/pkg/util"
)

const (
	DefaultReplyTimeout = 30 * time.Second
)

// Config holds the plain values a gateway is wired from. Channels are named
// and resolved through a channel.Registry.
type Config struct {
	RequestChannel string
	ReplyChannel   string
	// ReplyTimeout applies to methods without an entry in MethodTimeouts.
	// A negative value waits until the caller's context is done.
	ReplyTimeout   util.Duration
	// MethodTimeouts maps method names to durations such as "500ms".
	MethodTimeouts map[string]string
	Order          int
	AutoStartup    bool
}

func DefaultConfig() Config {
	return Config{
		ReplyTimeout: util.Duration{Duration: DefaultReplyTimeout},
		AutoStartup:  true,
	}
}

func (c *Config) SetDefaultIfNotDefined() {
	if c.ReplyTimeout.Duration == 0 {
		c.ReplyTimeout.Duration = DefaultReplyTimeout
	}
}

func (c *Config) Dump() {
	glog.Infof("RequestChannel : %s", c.RequestChannel)
	glog.Infof("ReplyChannel : %s", c.ReplyChannel)
	glog.Infof("ReplyTimeout : %s", c.ReplyTimeout.Duration)
	for m, d := range c.MethodTimeouts {
		glog.Infof("MethodTimeouts.%s : %s", m, d)
	}
	glog.Infof("Order : %d", c.Order)
	glog.Infof("AutoStartup : %t", c.AutoStartup)
}

// GetMethodTimeouts parses MethodTimeouts.
func (c *Config) GetMethodTimeouts() (map[string]time.Duration, error) {
	timeouts := make(map[string]time.Duration, len(c.MethodTimeouts))
	for m, v := range c.MethodTimeouts {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, errors.Wrap(errors.KErrConfiguration, err, "timeout for method %s", m)
		}
		timeouts[m] = d
	}
	return timeouts, nil
}
