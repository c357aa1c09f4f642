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
	"context"
	"reflect"
	"time"

	"github.com/golang/glog"

	"conduit/pkg/channel"
	"conduit/pkg/errors"
	"conduit/pkg/logging"
	"conduit/pkg/message"
)

var messageType = reflect.TypeOf((*message.Message)(nil))

// Invoke calls method with args, which holds the payload argument if the
// method takes one. For methods with a reply, the converted reply is
// returned; one-way methods return nil once the request is sent.
func (g *Gateway) Invoke(ctx context.Context, method string, args ...interface{}) (result interface{}, err error) {
	md, found := g.methods[method]
	if !found {
		return nil, errors.Configurationf("%s has no method %s", g.serviceType, method)
	}
	if !g.IsRunning() {
		return nil, errors.Configurationf("gateway for %s is not running", g.serviceType)
	}
	if md.Kind == KindSolicit && g.correlator == nil {
		return nil, errors.Configurationf("%s.%s: solicit calls need a reply channel", g.serviceType, method)
	}
	numArgs := 0
	if md.ParamType != nil {
		numArgs = 1
	}
	if len(args) != numArgs {
		return nil, errors.Configurationf("%s.%s expects %d argument(s), got %d", g.serviceType, method, numArgs, len(args))
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if d := g.timeoutFor(method); d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}

	start := time.Now()
	var reply *message.Message
	defer func() {
		elapsed := time.Since(start)
		timedOut := errors.Is(err, errors.ErrTimeout)
		g.stats.Put(method, elapsed, err, timedOut)
		if err != nil || glog.V(logging.LevelDebug) {
			b := logging.NewKVBuffer().AddMethod(method).AddChannel(g.requestChannel.Name()).AddElapsed(elapsed)
			if reply != nil {
				b.AddMessageId(reply.Id()).AddCorrelationId(reply.Headers().CorrelationId())
			}
			b.AddError(err)
			if err != nil {
				glog.Warning(b.String())
			} else {
				glog.Info(b.String())
			}
		}
	}()

	switch md.Kind {
	case KindOneWay:
		err = g.send(ctx, g.newRequest(args[0]))
		return
	case KindSolicit:
		reply, err = g.solicit(ctx, method)
	default:
		if g.correlator != nil {
			reply, err = g.exchangeShared(ctx, method, args[0])
		} else {
			reply, err = g.exchangeAnonymous(ctx, method, args[0])
		}
	}
	if err != nil {
		return
	}
	return g.convertReply(md, reply)
}

func (g *Gateway) newRequest(arg interface{}, opts ...message.Option) *message.Message {
	if m, ok := arg.(*message.Message); ok && m != nil {
		if len(opts) == 0 {
			return m
		}
		return m.WithHeaders(opts...)
	}
	return message.New(arg, opts...)
}

func (g *Gateway) send(ctx context.Context, m *message.Message) error {
	if err := g.requestChannel.Send(ctx, m); err != nil {
		if ctx.Err() == context.DeadlineExceeded && !errors.Is(err, errors.ErrTimeout) {
			return errors.Timeoutf("sending to %s timed out", g.requestChannel.Name())
		}
		return err
	}
	return nil
}

func (g *Gateway) exchangeAnonymous(ctx context.Context, method string, arg interface{}) (*message.Message, error) {
	reply := channel.NewQueueChannel()
	if err := g.send(ctx, g.newRequest(arg, message.WithReplyChannel(reply))); err != nil {
		return nil, err
	}
	if m, ok := reply.Receive(ctx); ok {
		return m, nil
	}
	return nil, g.waitError(ctx, method)
}

func (g *Gateway) exchangeShared(ctx context.Context, method string, arg interface{}) (*message.Message, error) {
	id, p := g.correlator.register()
	if err := g.send(ctx, g.newRequest(arg, message.WithCorrelationId(id))); err != nil {
		g.correlator.cancel(id)
		return nil, err
	}
	if m, ok := g.correlator.await(ctx, id, p); ok {
		return m, nil
	}
	return nil, g.waitError(ctx, method)
}

func (g *Gateway) solicit(ctx context.Context, method string) (*message.Message, error) {
	if m, ok := g.correlator.receiveUncorrelated(ctx); ok {
		return m, nil
	}
	return nil, g.waitError(ctx, method)
}

func (g *Gateway) waitError(ctx context.Context, method string) error {
	if ctx.Err() == context.DeadlineExceeded {
		return errors.Timeoutf("no reply for %s.%s within %s", g.serviceType, method, g.timeoutFor(method))
	}
	return ctx.Err()
}

func (g *Gateway) convertReply(md *MethodDescriptor, reply *message.Message) (interface{}, error) {
	if md.ReturnType == messageType {
		return reply, nil
	}
	return g.converters.Convert(reply.Payload(), md.ReturnType)
}
