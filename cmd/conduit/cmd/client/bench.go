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

package client

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"conduit/cmd/conduit/cmd/serve"
	"conduit/pkg/channel"
	"conduit/pkg/cmd"
	"conduit/pkg/gateway"
	"conduit/pkg/io"
)

type cmdBenchT struct {
	clientCommandT
	optNumRequests uint
	optConcurrency int
	optRemote      bool
	optShared      bool
	optPayloadSize int
}

func (c *cmdBenchT) Init(name string, desc string) {
	c.clientCommandT.Init(name, desc)
	c.UintOption(&c.optNumRequests, "n|num", 500, "number of requests")
	c.IntOption(&c.optConcurrency, "concurrency", 500, "number of concurrent callers")
	c.BoolOption(&c.optRemote, "remote", false, "call the server given by -server instead of an in-process responder")
	c.BoolOption(&c.optShared, "shared", true, "correlate replies on one shared reply channel")
	c.IntOption(&c.optPayloadSize, "payload-size", 16, "request payload size")
	c.SetSynopsis("[options]")
	c.AddDetails(`  Calls the echo service concurrently through a gateway and prints the
  throughput and latency percentiles. Every reply is checked against
  its request.
`)
	c.AddExample(name+" -n 10000 -concurrency 500", "10000 in-process calls from 500 callers")
	c.AddExample(name+" -remote -s 127.0.0.1:7070 -shared=false", "calls to a server, one anonymous reply channel per call")
}

func (c *cmdBenchT) Exec(ctx context.Context) error {
	endpoint, sockCfg, err := c.setup()
	if err != nil {
		return err
	}
	requests := channel.NewQueueChannel(channel.WithName("bench.requests"), channel.WithCapacity(c.optConcurrency))
	opts := []gateway.Option{
		gateway.WithRequestChannel(requests),
		gateway.WithReplyTimeout(c.optTimeout),
	}
	// replies to correlated requests have no reply channel of their own and
	// go to the responder's output
	var replies channel.Channel
	if c.optShared {
		replies = channel.NewQueueChannel(channel.WithName("bench.replies"))
		opts = append(opts, gateway.WithReplyChannel(replies))
	}

	workers := c.optConcurrency
	if c.optRemote {
		// one connection per worker; each outbound gateway serializes its exchanges
		workers = min(workers, 32)
		for i := 0; i < workers; i++ {
			og, err := io.NewOutboundGateway(endpoint, sockCfg)
			if err != nil {
				return err
			}
			defer og.Close()
			consumer := channel.NewPollingConsumer(requests, og.Handler(replies))
			consumer.Start()
			defer consumer.Stop()
		}
	} else {
		consumer := channel.NewPollingConsumer(requests, channel.NewServiceActivator(serve.Echo(""), replies))
		consumer.SetConcurrency(workers)
		consumer.Start()
		defer consumer.Stop()
	}

	gw, err := gateway.New(gateway.ServiceOf[EchoService](), opts...)
	if err != nil {
		return err
	}
	defer gw.Stop()
	fmt.Println(gw)

	echo := gateway.RequestReply[string, string](gw, "Echo")
	pad := strings.Repeat("x", max(c.optPayloadSize-8, 0))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.optConcurrency)
	start := time.Now()
	for i := uint(0); i < c.optNumRequests; i++ {
		text := fmt.Sprintf("%08d", i) + pad
		g.Go(func() error {
			reply, err := echo(gctx, text)
			if err != nil {
				return err
			}
			if reply != text {
				return fmt.Errorf("request %s got reply %s", text, reply)
			}
			return nil
		})
	}
	err = g.Wait()
	fmt.Println("elapsed: " + time.Since(start).Round(time.Millisecond).String() +
		", callers: " + strconv.Itoa(c.optConcurrency))
	gw.Stats().PrettyPrint(os.Stdout)
	return err
}

func init() {
	c := &cmdBenchT{}
	c.Init("bench", "measure gateway round trips")
	cmd.Register(c)
}
