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
	"fmt"
	"net"
	"time"

	"github.com/golang/glog"

	"conduit/pkg/errors"
	"conduit/pkg/logging"
	"conduit/pkg/logging/otel"
)

// Connect dials endpoint, recording the connect latency.
func Connect(endpoint *ServiceEndpoint, connectTimeout time.Duration) (conn net.Conn, err error) {
	timeStart := time.Now()

	if conn, err = net.DialTimeout(endpoint.GetNetwork(), endpoint.GetConnString(), connectTimeout); err == nil {
		if glog.V(logging.LevelDebug) {
			glog.InfoDepth(1, fmt.Sprintf("connected to %s", endpoint.GetConnString()))
		}
	} else {
		glog.ErrorDepth(1, fmt.Sprintf("fail to connect %s error: %s", endpoint.GetConnString(), err.Error()))
		err = errors.IO(err, "connect to %s", endpoint.GetConnString())
	}
	if otel.IsEnabled() {
		status := otel.StatusSuccess
		if err != nil {
			status = otel.StatusError
		}
		otel.RecordConnect(endpoint.GetConnString(), status, time.Since(timeStart))
	}
	return
}

// deadline is now+timeout, capped by the context deadline if there is one.
func deadline(timeout time.Duration, ctxDeadline time.Time, hasCtxDeadline bool) (t time.Time) {
	if timeout > 0 {
		t = time.Now().Add(timeout)
	}
	if hasCtxDeadline && (t.IsZero() || ctxDeadline.Before(t)) {
		t = ctxDeadline
	}
	return
}

// payloadBytes renders a message payload for the wire.
func payloadBytes(payload interface{}) []byte {
	switch p := payload.(type) {
	case []byte:
		return p
	case string:
		return []byte(p)
	case nil:
		return nil
	default:
		return []byte(fmt.Sprint(p))
	}
}
