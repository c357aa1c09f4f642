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
	goerrors "errors"
	"fmt"
)

const (
	KErrConfiguration uint32 = iota + 1
	KErrTimeout
	KErrTypeConversion
	KErrConversion
	KErrNoReceiver
	KErrIO
)

var (
	ErrConfiguration  = &Error{what: "configuration error", errno: KErrConfiguration}
	ErrTimeout        = &Error{what: "timeout", errno: KErrTimeout}
	ErrTypeConversion = &Error{what: "no converter found", errno: KErrTypeConversion}
	ErrConversion     = &Error{what: "conversion failed", errno: KErrConversion}
	ErrNoReceiver     = &Error{what: "no receiver", errno: KErrNoReceiver}
	ErrIO             = &Error{what: "io error", errno: KErrIO}
)

// Error carries an errno identifying the kind of failure. Two errors with
// the same errno match under errors.Is, so callers can test a detailed
// error against the package sentinels.
type Error struct {
	what  string
	errno uint32
	cause error
}

func NewError(what string, errno uint32) *Error {
	return &Error{what: what, errno: errno}
}

func Wrap(errno uint32, cause error, format string, args ...interface{}) *Error {
	return &Error{what: fmt.Sprintf(format, args...), errno: errno, cause: cause}
}

func Configurationf(format string, args ...interface{}) *Error {
	return &Error{what: fmt.Sprintf(format, args...), errno: KErrConfiguration}
}

func Timeoutf(format string, args ...interface{}) *Error {
	return &Error{what: fmt.Sprintf(format, args...), errno: KErrTimeout}
}

func NoReceiverf(format string, args ...interface{}) *Error {
	return &Error{what: fmt.Sprintf(format, args...), errno: KErrNoReceiver}
}

func IO(cause error, format string, args ...interface{}) *Error {
	return Wrap(KErrIO, cause, format, args...)
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("error: %s (%d): %s", e.what, e.errno, e.cause)
	}
	return fmt.Sprintf("error: %s (%d)", e.what, e.errno)
}

func (e *Error) ErrNo() uint32 {
	return e.errno
}

func (e *Error) Unwrap() error {
	return e.cause
}

func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return t.errno == e.errno
	}
	return false
}

func TypeConversionf(format string, args ...interface{}) *Error {
	return &Error{what: fmt.Sprintf(format, args...), errno: KErrTypeConversion}
}

func Conversion(cause error, format string, args ...interface{}) *Error {
	return Wrap(KErrConversion, cause, format, args...)
}

// Is reports whether any error in err's chain matches target. An *Error
// target matches every error of the same kind.
func Is(err, target error) bool {
	return goerrors.Is(err, target)
}

func As(err error, target interface{}) bool {
	return goerrors.As(err, target)
}
