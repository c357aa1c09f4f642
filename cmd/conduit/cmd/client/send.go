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

	"conduit/pkg/channel"
	"conduit/pkg/cmd"
	"conduit/pkg/gateway"
	"conduit/pkg/io"
)

type cmdSendT struct {
	clientCommandT
}

func (c *cmdSendT) Init(name string, desc string) {
	c.clientCommandT.Init(name, desc)
	c.SetSynopsis("[options] <text> [<text> ...]")
	c.AddDetails(`  Sends every text argument to the server and prints the reply. The
  request travels through a gateway and a direct channel subscribed by
  an outbound TCP gateway.
`)
	c.AddExample(name+" -s 127.0.0.1:7070 -f crlf hello", "send \"hello\" as a CRLF terminated frame")
}

func (c *cmdSendT) Exec(ctx context.Context) error {
	if c.NArg() == 0 {
		c.PrintUsage()
		return fmt.Errorf("nothing to send")
	}
	endpoint, sockCfg, err := c.setup()
	if err != nil {
		return err
	}
	outbound, err := io.NewOutboundGateway(endpoint, sockCfg)
	if err != nil {
		return err
	}
	defer outbound.Close()

	requests := channel.NewDirectChannel(channel.WithName("outbound"))
	defer requests.Subscribe(outbound.Handler(nil)).Cancel()

	gw, err := gateway.New(gateway.ServiceOf[EchoService](),
		gateway.WithRequestChannel(requests),
		gateway.WithReplyTimeout(c.optTimeout))
	if err != nil {
		return err
	}
	defer gw.Stop()

	echo := gateway.RequestReply[string, string](gw, "Echo")
	for _, text := range c.Args() {
		reply, err := echo(ctx, text)
		if err != nil {
			return err
		}
		fmt.Println(reply)
	}
	return nil
}

func init() {
	c := &cmdSendT{}
	c.Init("send", "send text to a conduit server and print the replies")
	cmd.Register(c)
}
