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
	"strings"
)

type (
	ServiceEndpoint struct {
		Addr    string
		Network string
	}

	ListenerConfig struct {
		Name    string
		Addr    string
		Network string
	}
)

func (p *ServiceEndpoint) Validate() (err error) {
	if len(p.Addr) == 0 {
		err = fmt.Errorf("ServiceEndpoint.Addr not specified")
	}
	return
}

func (p *ServiceEndpoint) GetNetwork() string {
	if len(p.Network) == 0 {
		return "tcp"
	}
	return p.Network
}

// GetConnString returns the address with a host part, so that a bare port
// such as "8080" reads ":8080".
func (p *ServiceEndpoint) GetConnString() string {
	if strings.Contains(p.Addr, ":") {
		return p.Addr
	}
	return ":" + p.Addr
}

func (p *ServiceEndpoint) SetFromConnString(connStr string) error {
	str := strings.TrimSpace(connStr)
	if str == "" {
		return fmt.Errorf("empty connection string")
	}
	if strings.HasPrefix(str, "tcp://") {
		str = strings.TrimPrefix(str, "tcp://")
	}
	if !strings.Contains(str, ":") {
		p.Addr = ":" + str
	} else {
		p.Addr = str
	}
	return nil
}

func (cfg *ListenerConfig) GetConnString() string {
	ep := ServiceEndpoint{Addr: cfg.Addr}
	return ep.GetConnString()
}

func (cfg *ListenerConfig) SetDefaultIfNotDefined() {
	if len(cfg.Network) == 0 {
		cfg.Network = "tcp"
	}
}
