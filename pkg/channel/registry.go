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
	"sort"
	"sync"

	"conduit/pkg/errors"
)

// Registry resolves channels by name.
type Registry struct {
	mtx      sync.RWMutex
	channels map[string]Channel
}

func NewRegistry() *Registry {
	return &Registry{channels: make(map[string]Channel)}
}

func (r *Registry) Register(ch Channel) error {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	if _, found := r.channels[ch.Name()]; found {
		return errors.Configurationf("channel %s already registered", ch.Name())
	}
	r.channels[ch.Name()] = ch
	return nil
}

func (r *Registry) Lookup(name string) (ch Channel, found bool) {
	r.mtx.RLock()
	ch, found = r.channels[name]
	r.mtx.RUnlock()
	return
}

// Resolve is Lookup that reports a missing channel as a configuration error.
func (r *Registry) Resolve(name string) (Channel, error) {
	if ch, found := r.Lookup(name); found {
		return ch, nil
	}
	return nil, errors.Configurationf("channel %s not found", name)
}

func (r *Registry) Names() []string {
	r.mtx.RLock()
	names := make([]string, 0, len(r.channels))
	for n := range r.channels {
		names = append(names, n)
	}
	r.mtx.RUnlock()
	sort.Strings(names)
	return names
}
