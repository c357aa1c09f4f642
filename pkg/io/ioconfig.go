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
	"time"

	"github.com/golang/glog"

	"conduit/pkg/framing"
	"conduit/pkg/util"
)

var (
	DefaultSocketConfig = SocketConfig{
		Format:         framing.LengthHeader,
		MaxMessageSize: framing.DefaultMaxMessageSize,
		ConnectTimeout: util.Duration{Duration: 1 * time.Second},
		ReadTimeout:    util.Duration{Duration: 5 * time.Second},
		WriteTimeout:   util.Duration{Duration: 1 * time.Second},
		IdleTimeout:    util.Duration{Duration: 120 * time.Second},
		IOBufSize:      64 * 1024,
	}
)

// SocketConfig configures both ends of a framed TCP connection.
type SocketConfig struct {
	Format         framing.Format
	MaxMessageSize int
	Compress       bool
	ConnectTimeout util.Duration
	ReadTimeout    util.Duration
	WriteTimeout   util.Duration
	// IdleTimeout closes inbound connections that send nothing for this long.
	IdleTimeout util.Duration
	IOBufSize   int
}

func (conf *SocketConfig) SetDefaultIfNotDefined() (set bool) {
	if conf.MaxMessageSize == 0 {
		set = true
		conf.MaxMessageSize = DefaultSocketConfig.MaxMessageSize
	}
	if conf.ConnectTimeout.Duration == 0 {
		set = true
		conf.ConnectTimeout = DefaultSocketConfig.ConnectTimeout
	}
	if conf.ReadTimeout.Duration == 0 {
		set = true
		conf.ReadTimeout = DefaultSocketConfig.ReadTimeout
	}
	if conf.WriteTimeout.Duration == 0 {
		set = true
		conf.WriteTimeout = DefaultSocketConfig.WriteTimeout
	}
	if conf.IdleTimeout.Duration == 0 {
		set = true
		conf.IdleTimeout = DefaultSocketConfig.IdleTimeout
	}
	if conf.IdleTimeout.Duration < conf.ReadTimeout.Duration {
		set = true
		conf.IdleTimeout.Duration = 2 * conf.ReadTimeout.Duration
	}
	if conf.IOBufSize == 0 {
		set = true
		conf.IOBufSize = DefaultSocketConfig.IOBufSize
	}
	return
}

func (conf *SocketConfig) NewCodec() (*framing.Codec, error) {
	return framing.NewCodec(conf.Format,
		framing.WithMaxMessageSize(conf.MaxMessageSize),
		framing.WithCompression(conf.Compress))
}

func (conf *SocketConfig) Dump() {
	glog.Infof("Format : %s", conf.Format)
	glog.Infof("MaxMessageSize : %d", conf.MaxMessageSize)
	glog.Infof("Compress : %t", conf.Compress)
	glog.Infof("ConnectTimeout : %s", conf.ConnectTimeout.Duration)
	glog.Infof("ReadTimeout : %s", conf.ReadTimeout.Duration)
	glog.Infof("WriteTimeout : %s", conf.WriteTimeout.Duration)
	glog.Infof("IdleTimeout : %s", conf.IdleTimeout.Duration)
	glog.Infof("IOBufSize : %d", conf.IOBufSize)
}
