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
	"fmt"
)

type ReplyAddressKind uint8

const (
	NoReplyAddress ReplyAddressKind = iota
	ChannelAddress
	CorrelationAddress
)

// ReplyTarget is the part of a channel a responder needs in order to send
// a reply back.
type ReplyTarget interface {
	Name() string
	Send(ctx context.Context, m *Message) error
}

// ReplyAddress tells a responder where a reply belongs: either a channel it
// can send to directly, or a correlation id that the requester matches
// against replies arriving on a shared channel.
type ReplyAddress struct {
	kind          ReplyAddressKind
	target        ReplyTarget
	correlationId string
}

func ChannelReplyAddress(target ReplyTarget) ReplyAddress {
	if target == nil {
		return ReplyAddress{}
	}
	return ReplyAddress{kind: ChannelAddress, target: target}
}

func CorrelationReplyAddress(id string) ReplyAddress {
	if id == "" {
		return ReplyAddress{}
	}
	return ReplyAddress{kind: CorrelationAddress, correlationId: id}
}

func (a ReplyAddress) Kind() ReplyAddressKind {
	return a.kind
}

func (a ReplyAddress) IsZero() bool {
	return a.kind == NoReplyAddress
}

func (a ReplyAddress) Channel() (ReplyTarget, bool) {
	return a.target, a.kind == ChannelAddress
}

func (a ReplyAddress) CorrelationId() (string, bool) {
	return a.correlationId, a.kind == CorrelationAddress
}

func (a ReplyAddress) String() string {
	switch a.kind {
	case ChannelAddress:
		return fmt.Sprintf("channel:%s", a.target.Name())
	case CorrelationAddress:
		return fmt.Sprintf("correlation:%s", a.correlationId)
	default:
		return "none"
	}
}
