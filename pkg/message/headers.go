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

package message

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Well-known header keys.
const (
	HeaderId             = "id"
	HeaderTimestamp      = "timestamp"
	HeaderReplyAddress   = "replyAddress"
	HeaderCorrelationId  = "correlationId"
	HeaderSequenceNumber = "sequenceNumber"
	HeaderSequenceSize   = "sequenceSize"
)

// Headers is a read-only view of a message's headers. The reply address is
// kept apart from the generic values so that it stays typed.
type Headers struct {
	values map[string]interface{}
	reply  ReplyAddress
}

func (h Headers) Get(key string) (v interface{}, ok bool) {
	switch key {
	case HeaderReplyAddress:
		if h.reply.IsZero() {
			return nil, false
		}
		return h.reply, true
	case HeaderCorrelationId:
		if id, ok := h.reply.CorrelationId(); ok {
			return id, true
		}
	}
	v, ok = h.values[key]
	return
}

func (h Headers) GetString(key string) string {
	if v, ok := h.Get(key); ok {
		if s, ok := v.(string); ok {
			return s
		}
		return fmt.Sprint(v)
	}
	return ""
}

func (h Headers) Id() string {
	return h.GetString(HeaderId)
}

func (h Headers) Timestamp() time.Time {
	if v, ok := h.values[HeaderTimestamp].(time.Time); ok {
		return v
	}
	return time.Time{}
}

func (h Headers) ReplyAddress() ReplyAddress {
	return h.reply
}

// CorrelationId returns the id carried by a correlation reply address, or
// an explicit correlationId header when there is none.
func (h Headers) CorrelationId() string {
	if id, ok := h.reply.CorrelationId(); ok {
		return id
	}
	if s, ok := h.values[HeaderCorrelationId].(string); ok {
		return s
	}
	return ""
}

func (h Headers) Len() int {
	n := len(h.values)
	if !h.reply.IsZero() {
		n++
	}
	return n
}

func (h Headers) Keys() []string {
	keys := make([]string, 0, h.Len())
	for k := range h.values {
		keys = append(keys, k)
	}
	if !h.reply.IsZero() {
		keys = append(keys, HeaderReplyAddress)
	}
	sort.Strings(keys)
	return keys
}

func (h Headers) String() string {
	var b strings.Builder
	b.WriteByte('{')
	for i, k := range h.Keys() {
		if i > 0 {
			b.WriteString(", ")
		}
		v, _ := h.Get(k)
		fmt.Fprintf(&b, "%s=%v", k, v)
	}
	b.WriteByte('}')
	return b.String()
}

func (h Headers) copyValues(extra int) map[string]interface{} {
	m := make(map[string]interface{}, len(h.values)+extra)
	for k, v := range h.values {
		m[k] = v
	}
	return m
}
