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
	"context"
	"testing"
)

type target struct {
	name string
	got  []*Message
}

func (t *target) Name() string { return t.name }

func (t *target) Send(ctx context.Context, m *Message) error {
	t.got = append(t.got, m)
	return nil
}

func TestNewAssignsIdAndTimestamp(t *testing.T) {
	m1 := New("foo")
	m2 := New("foo")
	if m1.Id() == "" || m1.Id() == m2.Id() {
		t.Errorf("ids should be unique and non-empty: %s %s", m1.Id(), m2.Id())
	}
	if m1.Headers().Timestamp().IsZero() {
		t.Error("timestamp not set")
	}
	if m1.Headers().ReplyAddress().Kind() != NoReplyAddress {
		t.Error("a new message has no reply address")
	}
}

func TestWithHeaderIgnoresReservedKeys(t *testing.T) {
	m := New("foo", WithHeader(HeaderId, "mine"), WithHeader("k", "v"))
	if m.Id() == "mine" {
		t.Error("id header must not be overridden")
	}
	if m.Headers().GetString("k") != "v" {
		t.Errorf("unexpected headers %s", m.Headers())
	}
}

func TestWithPayloadKeepsHeaders(t *testing.T) {
	reply := &target{name: "replies"}
	req := New("foo", WithReplyChannel(reply), WithHeader("k", "v"), WithSequence(1, 2))
	res := req.WithPayload("foobar")

	if res.Payload() != "foobar" || req.Payload() != "foo" {
		t.Errorf("unexpected payloads %v %v", req.Payload(), res.Payload())
	}
	if res.Id() == req.Id() {
		t.Error("copy must get a new id")
	}
	ch, ok := res.Headers().ReplyAddress().Channel()
	if !ok || ch.Name() != "replies" {
		t.Errorf("reply channel not carried over: %s", res.Headers())
	}
	if res.Headers().GetString("k") != "v" {
		t.Error("custom header not carried over")
	}
	if n, _ := res.Headers().Get(HeaderSequenceSize); n != 2 {
		t.Errorf("sequence size: %v", n)
	}

	modified := res.WithHeaders(WithHeader("k", "w"))
	if res.Headers().GetString("k") != "v" || modified.Headers().GetString("k") != "w" {
		t.Error("WithHeaders must not change the original")
	}
}

func TestCorrelationReplyAddress(t *testing.T) {
	m := New("foo", WithCorrelationId("abc"))
	if m.Headers().CorrelationId() != "abc" {
		t.Errorf("unexpected correlation id %q", m.Headers().CorrelationId())
	}
	if _, ok := m.Headers().ReplyAddress().Channel(); ok {
		t.Error("correlation address is not a channel")
	}
	if v, ok := m.Headers().Get(HeaderCorrelationId); !ok || v != "abc" {
		t.Errorf("correlationId header: %v", v)
	}
	plain := New("foo", WithHeader(HeaderCorrelationId, "xyz"))
	if plain.Headers().CorrelationId() != "xyz" {
		t.Error("explicit correlationId header should be used")
	}
}
