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
	"strconv"
	"testing"
	"time"

	"conduit/cmd/conduit/cmd/serve"
	"conduit/pkg/channel"
	"conduit/pkg/io"
)

func startEchoServer(t *testing.T, format string) string {
	t.Helper()
	requests := channel.NewQueueChannel()
	consumer := channel.NewPollingConsumer(requests, channel.NewServiceActivator(serve.Echo(""), nil))
	consumer.SetConcurrency(4)
	consumer.Start()

	sockCfg := io.DefaultSocketConfig
	if err := sockCfg.Format.UnmarshalText([]byte(format)); err != nil {
		t.Fatal(err)
	}
	lsnr, err := io.NewListener(io.ListenerConfig{Addr: "127.0.0.1:0"}, sockCfg, requests, time.Second)
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		lsnr.Serve(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
		consumer.Stop()
	})
	return lsnr.GetConnString()
}

func TestSend(t *testing.T) {
	addr := startEchoServer(t, "crlf")
	c := &cmdSendT{}
	c.Init("send-test", "")
	if err := c.Parse([]string{"-s", addr, "-f", "crlf", "hello", "world"}); err != nil {
		t.Fatal(err)
	}
	if err := c.Exec(context.Background()); err != nil {
		t.Fatal(err)
	}
}

func TestBench(t *testing.T) {
	c := &cmdBenchT{}
	c.Init("bench-test", "")
	if err := c.Parse([]string{"-n", "500", "-concurrency", "50"}); err != nil {
		t.Fatal(err)
	}
	if err := c.Exec(context.Background()); err != nil {
		t.Fatal(err)
	}
}

func TestBenchAnonymous(t *testing.T) {
	c := &cmdBenchT{}
	c.Init("bench-anonymous-test", "")
	if err := c.Parse([]string{"-n", "200", "-concurrency", "20", "-shared=false", "-payload-size", "4"}); err != nil {
		t.Fatal(err)
	}
	if err := c.Exec(context.Background()); err != nil {
		t.Fatal(err)
	}
}

func TestBenchRemote(t *testing.T) {
	addr := startEchoServer(t, "length-header")
	for i, shared := range []string{"-shared=true", "-shared=false"} {
		c := &cmdBenchT{}
		c.Init("bench-remote-test-"+strconv.Itoa(i), "")
		if err := c.Parse([]string{"-remote", "-s", addr, "-n", "200", "-concurrency", "20", shared}); err != nil {
			t.Fatal(err)
		}
		if err := c.Exec(context.Background()); err != nil {
			t.Fatalf("%s: %s", shared, err)
		}
	}
}
