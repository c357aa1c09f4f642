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

package initmgr

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	cerrors "conduit/pkg/errors"
)

type recorder struct {
	name  string
	fail  bool
	trace *[]string
}

func (r *recorder) Name() string { return r.name }

func (r *recorder) Initialize(args ...interface{}) error {
	*r.trace = append(*r.trace, fmt.Sprintf("init %s %v", r.name, args))
	if r.fail {
		return fmt.Errorf("%s failed", r.name)
	}
	return nil
}

func (r *recorder) Finalize() {
	*r.trace = append(*r.trace, "finalize "+r.name)
}

func setup(t *testing.T) *bytes.Buffer {
	Reset()
	var out bytes.Buffer
	Output = &out
	t.Cleanup(Reset)
	return &out
}

func TestInitOrder(t *testing.T) {
	out := setup(t)
	var trace []string
	RegisterWithWeight(&recorder{name: "b", trace: &trace}, 10, "x")
	RegisterWithWeight(&recorder{name: "a", trace: &trace}, 1)
	Register(&recorder{name: "c", trace: &trace}, 42)

	if err := Init(); err != nil {
		t.Fatal(err)
	}
	// second call is a no-op
	if err := Init(); err != nil {
		t.Fatal(err)
	}
	Finalize()
	Finalize()

	expected := []string{"init a []", "init c [42]", "init b [x]", "finalize b", "finalize c", "finalize a"}
	if strings.Join(trace, "|") != strings.Join(expected, "|") {
		t.Errorf("expected %v, got %v", expected, trace)
	}
	if !strings.Contains(out.String(), "[ok]   initmgr.initialize a") {
		t.Errorf("unexpected output %q", out.String())
	}
}

func TestInitFailure(t *testing.T) {
	setup(t)
	var trace []string
	Register(&recorder{name: "a", trace: &trace})
	Register(&recorder{name: "b", fail: true, trace: &trace})
	Register(&recorder{name: "c", trace: &trace})

	err := Init()
	if !errors.Is(err, cerrors.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	expected := []string{"init a []", "init b []", "finalize a"}
	if strings.Join(trace, "|") != strings.Join(expected, "|") {
		t.Errorf("expected %v, got %v", expected, trace)
	}
}

func initializeForTest(args ...interface{}) error { return nil }

func TestNewInitializer(t *testing.T) {
	setup(t)
	finalized := false
	i := NewInitializer(initializeForTest, func() { finalized = true })
	if i.Name() != "conduit/pkg/initmgr" {
		t.Errorf("unexpected name %s", i.Name())
	}
	RegisterWithFuncs(initializeForTest, func() { finalized = true })
	if err := Init(); err != nil {
		t.Fatal(err)
	}
	Finalize()
	if !finalized {
		t.Error("finalize func not called")
	}
}
