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
	"context"
	"reflect"

	"conduit/pkg/errors"
)

type CallKind uint8

const (
	KindRequestReply CallKind = iota
	KindOneWay
	KindSolicit
)

func (k CallKind) String() string {
	switch k {
	case KindRequestReply:
		return "request-reply"
	case KindOneWay:
		return "one-way"
	case KindSolicit:
		return "solicit"
	default:
		return "unknown"
	}
}

var (
	contextType = reflect.TypeOf((*context.Context)(nil)).Elem()
	errorType   = reflect.TypeOf((*error)(nil)).Elem()
)

// MethodDescriptor is what the gateway needs to know about one method of a
// service interface.
type MethodDescriptor struct {
	Name         string
	Kind         CallKind
	TakesContext bool
	ParamType    reflect.Type // nil for solicit calls
	ReturnType   reflect.Type // nil for one-way calls
	ReturnsError bool
}

// ServiceOf returns the reflect.Type of the interface T.
func ServiceOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// DescribeService builds a descriptor for every method of the interface t.
//
// A leading context.Context parameter is not part of the payload. With no
// other parameter the method is a solicit call, with one the argument is the
// request payload. A method returning nothing or only an error is one-way;
// one returning a value, optionally followed by an error, waits for a reply.
func DescribeService(t reflect.Type) (map[string]*MethodDescriptor, error) {
	if t == nil {
		return nil, errors.Configurationf("service interface is required")
	}
	if t.Kind() != reflect.Interface {
		return nil, errors.Configurationf("service type %s must be an interface", t)
	}
	if t.NumMethod() == 0 {
		return nil, errors.Configurationf("service interface %s declares no methods", t)
	}
	methods := make(map[string]*MethodDescriptor, t.NumMethod())
	for i := 0; i < t.NumMethod(); i++ {
		m := t.Method(i)
		d, err := describeMethod(t, m)
		if err != nil {
			return nil, err
		}
		methods[m.Name] = d
	}
	return methods, nil
}

func describeMethod(service reflect.Type, m reflect.Method) (*MethodDescriptor, error) {
	d := &MethodDescriptor{Name: m.Name}
	ft := m.Type

	var params []reflect.Type
	for i := 0; i < ft.NumIn(); i++ {
		params = append(params, ft.In(i))
	}
	if ft.IsVariadic() {
		return nil, errors.Configurationf("%s.%s: variadic methods are not supported", service, m.Name)
	}
	if len(params) > 0 && params[0] == contextType {
		d.TakesContext = true
		params = params[1:]
	}
	switch len(params) {
	case 0:
	case 1:
		d.ParamType = params[0]
	default:
		return nil, errors.Configurationf("%s.%s: at most one payload parameter is allowed, got %d", service, m.Name, len(params))
	}

	switch ft.NumOut() {
	case 0:
	case 1:
		if ft.Out(0) == errorType {
			d.ReturnsError = true
		} else {
			d.ReturnType = ft.Out(0)
		}
	case 2:
		if ft.Out(1) != errorType {
			return nil, errors.Configurationf("%s.%s: second result must be error", service, m.Name)
		}
		if ft.Out(0) == errorType {
			return nil, errors.Configurationf("%s.%s: reply type cannot be error", service, m.Name)
		}
		d.ReturnType = ft.Out(0)
		d.ReturnsError = true
	default:
		return nil, errors.Configurationf("%s.%s: too many results", service, m.Name)
	}

	switch {
	case d.ReturnType == nil && d.ParamType == nil:
		return nil, errors.Configurationf("%s.%s: method neither sends nor receives", service, m.Name)
	case d.ReturnType == nil:
		d.Kind = KindOneWay
	case d.ParamType == nil:
		d.Kind = KindSolicit
	default:
		d.Kind = KindRequestReply
	}
	return d, nil
}
