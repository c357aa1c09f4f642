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

package logging

import (
	"bytes"
	"flag"
	"strconv"
	"strings"
	"time"

	"github.com/golang/glog"
)

// glog verbosity levels. Errors, warnings and infos are always emitted by
// glog itself; the levels below gate the chattier paths.
const (
	LevelInfo    glog.Level = 3
	LevelDebug   glog.Level = 4
	LevelVerbose glog.Level = 5
)

var appName string

// InitLogging routes glog to stderr and sets the verbosity from a level
// name: error, warning, info (default), debug or verbose.
func InitLogging(level string, app string) {
	appName = app
	setFlag("logtostderr", "true")

	var glevel string
	if strings.EqualFold("error", level) {
		glevel = "1"
	} else if strings.EqualFold("warning", level) {
		glevel = "2"
	} else if strings.EqualFold("debug", level) {
		glevel = "4"
	} else if strings.EqualFold("verbose", level) {
		glevel = "5"
	} else { //default is info
		glevel = "3"
	}
	setFlag("v", glevel)
}

func GetAppName() string {
	return appName
}

func setFlag(name string, value string) {
	if f := flag.Lookup(name); f != nil {
		if err := f.Value.Set(value); err != nil {
			glog.Warningf("fail to set flag %s=%s: %s", name, value, err)
		}
	}
}

func IsDebugEnabled() bool {
	return bool(glog.V(LevelDebug))
}

// KVBuffer builds "k=v,k=v" style log lines.
type KVBuffer struct {
	bytes.Buffer
	delimiter     byte
	pairDelimiter byte
}

func NewKVBuffer() *KVBuffer {
	return &KVBuffer{
		delimiter:     '=',
		pairDelimiter: ',',
	}
}

var (
	logDataKeyChannel       = "ch"
	logDataKeyCorrelationId = "corr_id"
	logDataKeyMessageId     = "mid"
	logDataKeyMethod        = "m"
	logDataKeyElapsed       = "rht"
	logDataKeyPayloadLen    = "len"
	logDataKeyRemoteAddr    = "raddr"
	logDataKeyStatus        = "st"
	logDataKeyError         = "err"
)

func (b *KVBuffer) Add(key string, value string) *KVBuffer {
	if b.Len() > 0 {
		b.WriteByte(b.pairDelimiter)
	}
	b.WriteString(key)
	b.WriteByte(b.delimiter)
	b.WriteString(value)
	return b
}

func (b *KVBuffer) AddInt(key string, value int) *KVBuffer {
	return b.Add(key, strconv.Itoa(value))
}

func (b *KVBuffer) AddChannel(name string) *KVBuffer {
	return b.Add(logDataKeyChannel, name)
}

func (b *KVBuffer) AddCorrelationId(id string) *KVBuffer {
	if len(id) != 0 {
		b.Add(logDataKeyCorrelationId, id)
	}
	return b
}

func (b *KVBuffer) AddMessageId(id string) *KVBuffer {
	if len(id) != 0 {
		b.Add(logDataKeyMessageId, id)
	}
	return b
}

func (b *KVBuffer) AddMethod(name string) *KVBuffer {
	return b.Add(logDataKeyMethod, name)
}

// AddElapsed logs the duration in microseconds.
func (b *KVBuffer) AddElapsed(d time.Duration) *KVBuffer {
	return b.Add(logDataKeyElapsed, strconv.FormatInt(d.Microseconds(), 10))
}

func (b *KVBuffer) AddPayloadLen(n int) *KVBuffer {
	if n > 0 {
		b.AddInt(logDataKeyPayloadLen, n)
	}
	return b
}

func (b *KVBuffer) AddRemoteAddr(addr string) *KVBuffer {
	return b.Add(logDataKeyRemoteAddr, addr)
}

func (b *KVBuffer) AddStatus(st string) *KVBuffer {
	return b.Add(logDataKeyStatus, st)
}

func (b *KVBuffer) AddError(err error) *KVBuffer {
	if err != nil {
		b.Add(logDataKeyError, err.Error())
	}
	return b
}
