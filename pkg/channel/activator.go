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

package channel

import (
	"context"

	"conduit/pkg/errors"
	"conduit/pkg/message"
)

// ServiceFunc computes a reply payload for a request.
type ServiceFunc func(ctx context.Context, request *message.Message) (interface{}, error)

// ServiceActivator is a handler that turns a request into a reply. The reply
// keeps the request's headers, so the requester can correlate it, and goes
// to the request's reply channel when it has one, or to output otherwise.
type ServiceActivator struct {
	fn     ServiceFunc
	output Channel
}

// NewServiceActivator returns a handler invoking fn. output may be nil when
// every request carries its own reply channel.
func NewServiceActivator(fn ServiceFunc, output Channel) *ServiceActivator {
	return &ServiceActivator{fn: fn, output: output}
}

func (a *ServiceActivator) HandleMessage(ctx context.Context, request *message.Message) error {
	payload, err := a.fn(ctx, request)
	if err != nil {
		return err
	}
	if payload == nil {
		return nil
	}
	reply, ok := payload.(*message.Message)
	if !ok {
		reply = request.WithPayload(payload)
	}
	if target, ok := request.Headers().ReplyAddress().Channel(); ok {
		return target.Send(ctx, reply)
	}
	if a.output != nil {
		return a.output.Send(ctx, reply)
	}
	return errors.NoReceiverf("no reply channel for message %s", request.Id())
}
