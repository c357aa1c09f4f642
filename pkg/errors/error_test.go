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

package errors

import (
	"errors"
	"fmt"
	"io"
	"testing"
)

func TestErrorKinds(t *testing.T) {
	tests := []struct {
		err      error
		sentinel *Error
		errno    uint32
	}{
		{Configurationf("bad %s", "x"), ErrConfiguration, KErrConfiguration},
		{Timeoutf("late"), ErrTimeout, KErrTimeout},
		{TypeConversionf("no way"), ErrTypeConversion, KErrTypeConversion},
		{Conversion(fmt.Errorf("parse"), "failed"), ErrConversion, KErrConversion},
		{NoReceiverf("nobody"), ErrNoReceiver, KErrNoReceiver},
		{IO(io.ErrUnexpectedEOF, "read"), ErrIO, KErrIO},
	}
	for _, tc := range tests {
		if !errors.Is(tc.err, tc.sentinel) {
			t.Errorf("%s should match %s", tc.err, tc.sentinel)
		}
		var e *Error
		if !errors.As(tc.err, &e) || e.ErrNo() != tc.errno {
			t.Errorf("%s: unexpected errno", tc.err)
		}
		if tc.sentinel != ErrTimeout && errors.Is(tc.err, ErrTimeout) {
			t.Errorf("%s should not match the timeout error", tc.err)
		}
	}
}

func TestWrap(t *testing.T) {
	err := IO(io.ErrUnexpectedEOF, "read frame")
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Error("cause not reachable")
	}
	if s := err.Error(); s != "error: read frame (6): unexpected EOF" {
		t.Errorf("unexpected message %q", s)
	}
	if s := NewError("x", KErrTimeout).Error(); s != "error: x (2)" {
		t.Errorf("unexpected message %q", s)
	}
	wrapped := fmt.Errorf("call: %w", Timeoutf("late"))
	if !errors.Is(wrapped, ErrTimeout) {
		t.Error("wrapped error should still match")
	}
}

func TestPackageIsAs(t *testing.T) {
	err := fmt.Errorf("invoke: %w", Timeoutf("no reply"))
	if !Is(err, ErrTimeout) {
		t.Error("timeout should match through the wrap")
	}
	if Is(err, ErrIO) {
		t.Error("timeout should not match the io error")
	}
	var e *Error
	if !As(err, &e) || e.ErrNo() != KErrTimeout {
		t.Errorf("unexpected As result %v", e)
	}
	if Is(io.EOF, ErrIO) {
		t.Error("plain errors should not match")
	}
}
