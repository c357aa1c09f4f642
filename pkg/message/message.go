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

// Package message defines the immutable envelope exchanged over channels.
package message

import (
	"fmt"
	"time"

	"conduit/pkg/util"
)

type Message struct {
	payload interface{}
	headers Headers
}

type Option func(h *Headers)

func WithHeader(key string, value interface{}) Option {
	return func(h *Headers) {
		switch key {
		case HeaderId, HeaderTimestamp:
			// assigned on creation
		case HeaderReplyAddress:
			if a, ok := value.(ReplyAddress); ok {
				h.reply = a
			}
		default:
			h.values[key] = value
		}
	}
}

func WithReplyAddress(a ReplyAddress) Option {
	return func(h *Headers) {
		h.reply = a
	}
}

func WithReplyChannel(target ReplyTarget) Option {
	return WithReplyAddress(ChannelReplyAddress(target))
}

func WithCorrelationId(id string) Option {
	return WithReplyAddress(CorrelationReplyAddress(id))
}

func WithSequence(number int, size int) Option {
	return func(h *Headers) {
		h.values[HeaderSequenceNumber] = number
		h.values[HeaderSequenceSize] = size
	}
}

// New creates a message with a fresh id and timestamp.
func New(payload interface{}, opts ...Option) *Message {
	h := Headers{values: make(map[string]interface{}, 2+len(opts))}
	return build(payload, h, opts)
}

func build(payload interface{}, h Headers, opts []Option) *Message {
	for _, opt := range opts {
		opt(&h)
	}
	h.values[HeaderId] = util.NewTimeBasedId()
	h.values[HeaderTimestamp] = time.Now()
	return &Message{payload: payload, headers: h}
}

func (m *Message) Payload() interface{} {
	return m.payload
}

func (m *Message) Headers() Headers {
	return m.headers
}

func (m *Message) Id() string {
	return m.headers.Id()
}

// WithPayload returns a new message carrying payload and a copy of the
// headers of m, including its reply address. This is how a responder builds
// a reply that the requester can still correlate.
func (m *Message) WithPayload(payload interface{}, opts ...Option) *Message {
	h := Headers{values: m.headers.copyValues(len(opts)), reply: m.headers.reply}
	return build(payload, h, opts)
}

// WithHeaders returns a new message with the same payload and additional or
// replaced headers.
func (m *Message) WithHeaders(opts ...Option) *Message {
	return m.WithPayload(m.payload, opts...)
}

func (m *Message) String() string {
	return fmt.Sprintf("[Payload=%v][Headers=%s]", m.payload, m.headers)
}
