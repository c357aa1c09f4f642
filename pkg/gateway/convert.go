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
	"fmt"
	"math"
	"reflect"
	"strconv"
	"sync"

	"conduit/pkg/errors"
)

// Converter turns a reply payload into the type a method returns.
type Converter interface {
	CanConvert(from reflect.Type, to reflect.Type) bool
	Convert(value interface{}, to reflect.Type) (interface{}, error)
}

type funcConverter[From any, To any] struct {
	fn func(From) (To, error)
}

// NewConverter wraps a typed conversion function.
func NewConverter[From any, To any](fn func(From) (To, error)) Converter {
	return &funcConverter[From, To]{fn: fn}
}

func (c *funcConverter[From, To]) CanConvert(from reflect.Type, to reflect.Type) bool {
	return from.AssignableTo(ServiceOf[From]()) && ServiceOf[To]().AssignableTo(to)
}

func (c *funcConverter[From, To]) Convert(value interface{}, to reflect.Type) (interface{}, error) {
	return c.fn(value.(From))
}

// ConverterRegistry holds the converters a gateway tries, most recently
// added first, before falling back to the built-in string and number
// conversions.
type ConverterRegistry struct {
	mtx        sync.RWMutex
	converters []Converter
}

func NewConverterRegistry(converters ...Converter) *ConverterRegistry {
	r := &ConverterRegistry{}
	for _, c := range converters {
		r.Add(c)
	}
	return r
}

func (r *ConverterRegistry) Add(c Converter) {
	r.mtx.Lock()
	r.converters = append([]Converter{c}, r.converters...)
	r.mtx.Unlock()
}

func (r *ConverterRegistry) find(from reflect.Type, to reflect.Type) Converter {
	r.mtx.RLock()
	defer r.mtx.RUnlock()
	for _, c := range r.converters {
		if c.CanConvert(from, to) {
			return c
		}
	}
	for _, c := range builtinConverters {
		if c.CanConvert(from, to) {
			return c
		}
	}
	return nil
}

// Convert returns value as an instance of to. A value already assignable is
// returned unchanged.
func (r *ConverterRegistry) Convert(value interface{}, to reflect.Type) (interface{}, error) {
	if value == nil {
		switch to.Kind() {
		case reflect.Interface, reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
			return reflect.Zero(to).Interface(), nil
		}
		return nil, errors.Conversion(nil, "cannot convert nil to %s", to)
	}
	from := reflect.TypeOf(value)
	if from.AssignableTo(to) {
		return value, nil
	}
	c := r.find(from, to)
	if c == nil {
		return nil, errors.TypeConversionf("no converter from %s to %s", from, to)
	}
	v, err := c.Convert(value, to)
	if err != nil {
		return nil, errors.Conversion(err, "converting %s to %s", from, to)
	}
	if v == nil || !reflect.TypeOf(v).AssignableTo(to) {
		return nil, errors.Conversion(nil, "converter from %s produced %T, not %s", from, v, to)
	}
	return v, nil
}

var builtinConverters = []Converter{
	stringConverter{},
	parseConverter{},
	numberConverter{},
}

func isNumber(k reflect.Kind) bool {
	return isInt(k) || isUint(k) || k == reflect.Float32 || k == reflect.Float64
}

func isInt(k reflect.Kind) bool {
	return k >= reflect.Int && k <= reflect.Int64
}

func isUint(k reflect.Kind) bool {
	return k >= reflect.Uint && k <= reflect.Uintptr
}

func isBytes(t reflect.Type) bool {
	return t.Kind() == reflect.Slice && t.Elem().Kind() == reflect.Uint8
}

// stringConverter formats numbers, booleans, byte slices and Stringers.
type stringConverter struct{}

func (stringConverter) CanConvert(from reflect.Type, to reflect.Type) bool {
	if to.Kind() != reflect.String {
		return false
	}
	k := from.Kind()
	return isNumber(k) || k == reflect.Bool || k == reflect.String || isBytes(from) ||
		from.Implements(reflect.TypeOf((*fmt.Stringer)(nil)).Elem())
}

func (stringConverter) Convert(value interface{}, to reflect.Type) (interface{}, error) {
	v := reflect.ValueOf(value)
	var s string
	switch {
	case isBytes(v.Type()):
		s = string(v.Bytes())
	case v.Kind() == reflect.String:
		s = v.String()
	default:
		s = fmt.Sprint(value)
	}
	return reflect.ValueOf(s).Convert(to).Interface(), nil
}

// parseConverter parses strings and byte slices into numbers, booleans or
// byte slices.
type parseConverter struct{}

func (parseConverter) CanConvert(from reflect.Type, to reflect.Type) bool {
	if from.Kind() != reflect.String && !isBytes(from) {
		return false
	}
	k := to.Kind()
	return isNumber(k) || k == reflect.Bool || (isBytes(to) && from.Kind() == reflect.String)
}

func (parseConverter) Convert(value interface{}, to reflect.Type) (interface{}, error) {
	v := reflect.ValueOf(value)
	var s string
	if isBytes(v.Type()) {
		s = string(v.Bytes())
	} else {
		s = v.String()
	}
	out := reflect.New(to).Elem()
	k := to.Kind()
	switch {
	case isInt(k):
		n, err := strconv.ParseInt(s, 10, to.Bits())
		if err != nil {
			return nil, err
		}
		out.SetInt(n)
	case isUint(k):
		n, err := strconv.ParseUint(s, 10, to.Bits())
		if err != nil {
			return nil, err
		}
		out.SetUint(n)
	case k == reflect.Float32 || k == reflect.Float64:
		f, err := strconv.ParseFloat(s, to.Bits())
		if err != nil {
			return nil, err
		}
		out.SetFloat(f)
	case k == reflect.Bool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return nil, err
		}
		out.SetBool(b)
	default:
		out.SetBytes([]byte(s))
	}
	return out.Interface(), nil
}

// numberConverter converts between numeric kinds.
type numberConverter struct{}

func (numberConverter) CanConvert(from reflect.Type, to reflect.Type) bool {
	return isNumber(from.Kind()) && isNumber(to.Kind())
}

// Convert fails when the value cannot be represented in the target type:
// overflow, a negative value for an unsigned type or a fractional value
// for an integer type.
func (numberConverter) Convert(value interface{}, to reflect.Type) (interface{}, error) {
	v := reflect.ValueOf(value)
	out := reflect.New(to).Elem()
	from, k := v.Kind(), to.Kind()
	switch {
	case isInt(from) && isInt(k):
		if out.OverflowInt(v.Int()) {
			return nil, fmt.Errorf("%d overflows %s", v.Int(), to)
		}
	case isInt(from) && isUint(k):
		if v.Int() < 0 || out.OverflowUint(uint64(v.Int())) {
			return nil, fmt.Errorf("%d out of range for %s", v.Int(), to)
		}
	case isUint(from) && isInt(k):
		if v.Uint() > math.MaxInt64 || out.OverflowInt(int64(v.Uint())) {
			return nil, fmt.Errorf("%d overflows %s", v.Uint(), to)
		}
	case isUint(from) && isUint(k):
		if out.OverflowUint(v.Uint()) {
			return nil, fmt.Errorf("%d overflows %s", v.Uint(), to)
		}
	case isFloat(from) && (isInt(k) || isUint(k)):
		f := v.Float()
		if f != math.Trunc(f) || math.IsInf(f, 0) || math.IsNaN(f) {
			return nil, fmt.Errorf("%v is not an integer", f)
		}
		if isInt(k) && (f < math.MinInt64 || f >= math.MaxInt64 || out.OverflowInt(int64(f))) ||
			isUint(k) && (f < 0 || f >= math.MaxUint64 || out.OverflowUint(uint64(f))) {
			return nil, fmt.Errorf("%v out of range for %s", f, to)
		}
	case isFloat(from) && isFloat(k):
		if out.OverflowFloat(v.Float()) {
			return nil, fmt.Errorf("%v overflows %s", v.Float(), to)
		}
	}
	return v.Convert(to).Interface(), nil
}

func isFloat(k reflect.Kind) bool {
	return k == reflect.Float32 || k == reflect.Float64
}
