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
	"conduit/pkg/message"
)

func result[Out any](v interface{}, err error) (out Out, _ error) {
	if err != nil {
		return out, err
	}
	if v == nil {
		return out, nil
	}
	out, ok := v.(Out)
	if !ok {
		return out, errors.Conversion(nil, "reply is %T, not %s", v, ServiceOf[Out]())
	}
	return out, nil
}

// RequestReply returns a typed function calling method on g.
func RequestReply[In any, Out any](g *Gateway, method string) func(ctx context.Context, in In) (Out, error) {
	return func(ctx context.Context, in In) (Out, error) {
		return result[Out](g.Invoke(ctx, method, in))
	}
}

func OneWay[In any](g *Gateway, method string) func(ctx context.Context, in In) error {
	return func(ctx context.Context, in In) error {
		_, err := g.Invoke(ctx, method, in)
		return err
	}
}

func Solicit[Out any](g *Gateway, method string) func(ctx context.Context) (Out, error) {
	return func(ctx context.Context) (Out, error) {
		return result[Out](g.Invoke(ctx, method))
	}
}

// Exchange returns a function yielding the reply message itself. method
// must be declared to return *message.Message.
func Exchange[In any](g *Gateway, method string) func(ctx context.Context, in In) (*message.Message, error) {
	return RequestReply[In, *message.Message](g, method)
}

// Bind fills the func-typed fields of the struct pointed to by target with
// implementations calling the gateway method of the same name. A field must
// have exactly the type of that method. A bound function that has no error
// result panics with the error instead.
func (g *Gateway) Bind(target interface{}) error {
	v := reflect.ValueOf(target)
	if v.Kind() != reflect.Pointer || v.Elem().Kind() != reflect.Struct {
		return errors.Configurationf("bind target must be a pointer to struct, got %T", target)
	}
	v = v.Elem()
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() || f.Type.Kind() != reflect.Func {
			continue
		}
		m, found := g.serviceType.MethodByName(f.Name)
		if !found {
			continue
		}
		if f.Type != m.Type {
			return errors.Configurationf("field %s.%s is %s, method has type %s", t, f.Name, f.Type, m.Type)
		}
		v.Field(i).Set(reflect.MakeFunc(f.Type, g.makeCall(g.methods[f.Name])))
	}
	return nil
}

func (g *Gateway) makeCall(md *MethodDescriptor) func(in []reflect.Value) []reflect.Value {
	return func(in []reflect.Value) []reflect.Value {
		ctx := context.Background()
		if md.TakesContext {
			if c, ok := in[0].Interface().(context.Context); ok && c != nil {
				ctx = c
			}
			in = in[1:]
		}
		var args []interface{}
		if md.ParamType != nil {
			args = append(args, in[0].Interface())
		}
		res, err := g.Invoke(ctx, md.Name, args...)
		if err != nil && !md.ReturnsError {
			panic(err)
		}

		var out []reflect.Value
		if md.ReturnType != nil {
			rv := reflect.New(md.ReturnType).Elem()
			if res != nil {
				rv.Set(reflect.ValueOf(res))
			}
			out = append(out, rv)
		}
		if md.ReturnsError {
			if err == nil {
				out = append(out, reflect.Zero(errorType))
			} else {
				out = append(out, reflect.ValueOf(&err).Elem())
			}
		}
		return out
	}
}
