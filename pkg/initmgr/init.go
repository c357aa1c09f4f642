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

// Package initmgr runs registered initializers in weight order and
// finalizes them in reverse.
package initmgr

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"reflect"
	"runtime"
	"sort"
	"strings"
	"sync"
	"syscall"

	"conduit/pkg/errors"
)

var (
	mu           sync.Mutex
	initializers initEntriesT

	// Output receives the progress lines. Logging may not be set up yet
	// while initializers run, so they go to stderr by default.
	Output io.Writer = os.Stderr
)

type entryT struct {
	initializer  IInitializer
	weight       int
	args         []interface{}
	initOnce     sync.Once
	initialized  bool
	finalizeOnce sync.Once
}

type initEntriesT []*entryT

type IInitializer interface {
	Name() string
	Initialize(args ...interface{}) error
	Finalize()
}

func (rs initEntriesT) Len() int {
	return len(rs)
}

func (rs initEntriesT) Less(i, j int) bool {
	return rs[i].weight < rs[j].weight
}

func (rs initEntriesT) Swap(i, j int) {
	rs[i], rs[j] = rs[j], rs[i]
}

// Init initializes every registered entry once, lowest weight first. When
// one fails, the entries already initialized are finalized in reverse
// order and the error is returned.
func Init() error {
	mu.Lock()
	defer mu.Unlock()

	sort.Stable(initializers)
	for i, e := range initializers {
		var err error
		e.initOnce.Do(func() {
			name := e.initializer.Name()
			if err = e.initializer.Initialize(e.args...); err == nil {
				e.initialized = true
				fmt.Fprintf(Output, "... [ok]   initmgr.initialize %s\n", name)
			} else {
				fmt.Fprintf(Output, "... [fail] initmgr.initialize %s\t (error: %s)\n", name, err.Error())
			}
		})
		if err != nil {
			finalizeBackwardsFrom(i - 1)
			return errors.Wrap(errors.KErrConfiguration, err, "initialization of %s failed", e.initializer.Name())
		}
	}
	return nil
}

// MustInit calls Init and exits the process on failure.
func MustInit() {
	if err := Init(); err != nil {
		fmt.Fprintf(Output, "\n... Initialization FAILURE: %s\n\n", err)
		os.Stderr.Sync()
		os.Exit(255)
	}
}

func finalizeBackwardsFrom(i int) {
	for ; i >= 0; i-- {
		e := initializers[i]
		if !e.initialized {
			continue
		}
		e.finalizeOnce.Do(func() {
			fmt.Fprintf(Output, "... initmgr.finalize %s\n", e.initializer.Name())
			e.initializer.Finalize()
		})
	}
}

func Finalize() {
	mu.Lock()
	defer mu.Unlock()
	finalizeBackwardsFrom(len(initializers) - 1)
}

// Reset drops all registrations without finalizing them.
func Reset() {
	mu.Lock()
	initializers = nil
	mu.Unlock()
}

func Register(rc IInitializer, args ...interface{}) {
	mu.Lock()
	weight := len(initializers)
	mu.Unlock()
	RegisterWithWeight(rc, weight, args...)
}

func RegisterWithFuncs(initializeFunc func(args ...interface{}) error, finalizeFunc func(), args ...interface{}) {
	Register(NewInitializer(initializeFunc, finalizeFunc), args...)
}

func RegisterWithWeight(rc IInitializer, weight int, args ...interface{}) {
	mu.Lock()
	initializers = append(initializers, &entryT{initializer: rc, weight: weight, args: args})
	mu.Unlock()
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM. SIGPIPE
// is ignored so that a peer closing a socket does not kill the process.
func SignalContext(parent context.Context) (context.Context, context.CancelFunc) {
	signal.Ignore(syscall.SIGPIPE)
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}

type Initializer struct {
	name           string
	InitializeFunc func(args ...interface{}) error
	FinalizeFunc   func()
}

func (i *Initializer) Name() string {
	return i.name
}

func (i *Initializer) Initialize(args ...interface{}) (err error) {
	if i.InitializeFunc != nil {
		err = i.InitializeFunc(args...)
	}
	return
}

func (i *Initializer) Finalize() {
	if i.FinalizeFunc != nil {
		i.FinalizeFunc()
	}
}

// NewInitializer names the initializer after the package that defines
// initializeFunc.
func NewInitializer(initializeFunc func(args ...interface{}) error, finalizeFunc func()) IInitializer {
	name := "unknown package"
	if initializeFunc != nil {
		name = runtime.FuncForPC(reflect.ValueOf(initializeFunc).Pointer()).Name()
		if i := strings.LastIndex(name, "."); i == -1 {
			name = "unknown package"
		} else {
			name = name[0:i]
		}
	}
	return &Initializer{name, initializeFunc, finalizeFunc}
}
