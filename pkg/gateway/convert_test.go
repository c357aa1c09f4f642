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
	"errors"
	"reflect"
	"testing"
	"time"

	cerrors "conduit/pkg/errors"
)

type celsius float64

func TestBuiltinConversions(t *testing.T) {
	r := NewConverterRegistry()
	cases := []struct {
		in       interface{}
		to       interface{}
		expected interface{}
	}{
		{"123456", 0, 123456},
		{"42", uint8(0), uint8(42)},
		{"2.5", celsius(0), celsius(2.5)},
		{"true", false, true},
		{[]byte("17"), int64(0), int64(17)},
		{123, "", "123"},
		{[]byte("abc"), "", "abc"},
		{time.Second, "", "1s"},
		{int32(7), float64(0), float64(7)},
		{"abc", []byte(nil), []byte("abc")},
	}
	for _, c := range cases {
		out, err := r.Convert(c.in, reflect.TypeOf(c.to))
		if err != nil {
			t.Errorf("%v -> %T: %s", c.in, c.to, err)
			continue
		}
		if b, ok := out.([]byte); ok {
			if string(b) != string(c.expected.([]byte)) {
				t.Errorf("%v -> %T: got %v", c.in, c.to, out)
			}
		} else if out != c.expected {
			t.Errorf("%v -> %T: expected %v, got %v", c.in, c.to, c.expected, out)
		}
	}
}

func TestConversionFailures(t *testing.T) {
	r := NewConverterRegistry()
	if _, err := r.Convert("abc", ServiceOf[int]()); !errors.Is(err, cerrors.ErrConversion) {
		t.Errorf("expected conversion error, got %v", err)
	}
	if _, err := r.Convert(struct{}{}, ServiceOf[int]()); !errors.Is(err, cerrors.ErrTypeConversion) {
		t.Errorf("expected type conversion error, got %v", err)
	}
	if _, err := r.Convert(nil, ServiceOf[int]()); !errors.Is(err, cerrors.ErrConversion) {
		t.Errorf("expected conversion error, got %v", err)
	}
	if v, err := r.Convert(nil, ServiceOf[*int]()); err != nil || v.(*int) != nil {
		t.Errorf("nil should convert to a nil pointer: %v %v", v, err)
	}
}

func TestCustomConverterTakesPrecedence(t *testing.T) {
	r := NewConverterRegistry(NewConverter(func(s string) (int, error) {
		return len(s), nil
	}))
	out, err := r.Convert("12345", ServiceOf[int]())
	if err != nil || out != 5 {
		t.Errorf("expected 5, got %v %v", out, err)
	}
}

func TestNumberConversionRange(t *testing.T) {
	r := NewConverterRegistry()
	failures := []struct {
		in interface{}
		to reflect.Type
	}{
		{int64(300), ServiceOf[int8]()},
		{-1, ServiceOf[uint32]()},
		{uint64(1 << 63), ServiceOf[int64]()},
		{uint16(256), ServiceOf[uint8]()},
		{3.7, ServiceOf[int]()},
		{-2.0, ServiceOf[uint]()},
		{1e20, ServiceOf[int64]()},
		{1e300, ServiceOf[float32]()},
		{"300", ServiceOf[int8]()},
	}
	for _, c := range failures {
		if out, err := r.Convert(c.in, c.to); !errors.Is(err, cerrors.ErrConversion) {
			t.Errorf("%v -> %s: expected conversion error, got %v, %v", c.in, c.to, out, err)
		}
	}

	fits := []struct {
		in       interface{}
		to       reflect.Type
		expected interface{}
	}{
		{int64(127), ServiceOf[int8](), int8(127)},
		{-128, ServiceOf[int8](), int8(-128)},
		{uint8(200), ServiceOf[int](), 200},
		{4.0, ServiceOf[uint16](), uint16(4)},
		{float32(1.5), ServiceOf[float64](), float64(1.5)},
	}
	for _, c := range fits {
		if out, err := r.Convert(c.in, c.to); err != nil || out != c.expected {
			t.Errorf("%v -> %s: expected %v, got %v, %v", c.in, c.to, c.expected, out, err)
		}
	}
}
