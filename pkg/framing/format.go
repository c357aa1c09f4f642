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

// Package framing delimits messages on a byte stream.
//
//	LENGTH_HEADER  [4-byte big-endian length][payload]
//	STX_ETX        [0x02][payload][0x03]
//	CRLF           [payload][0x0D][0x0A]
//
// Payloads for the sentinel formats must not contain the terminator; such
// payloads are not escaped and do not survive a round trip.
package framing

import (
	"strings"

	"conduit/pkg/errors"
)

type Format uint8

const (
	LengthHeader Format = iota
	StxEtx
	Crlf
)

const (
	STX byte = 0x02
	ETX byte = 0x03
	CR  byte = 0x0D
	LF  byte = 0x0A

	kLengthHeaderSize = 4
)

var formatNames = [...]string{
	LengthHeader: "length-header",
	StxEtx:       "stx-etx",
	Crlf:         "crlf",
}

func (f Format) String() string {
	if int(f) < len(formatNames) {
		return formatNames[f]
	}
	return "unknown"
}

func ParseFormat(s string) (Format, error) {
	name := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), "_", "-"))
	for i, n := range formatNames {
		if n == name {
			return Format(i), nil
		}
	}
	return 0, errors.Configurationf("unknown message format %q", s)
}

func (f *Format) UnmarshalText(text []byte) (err error) {
	*f, err = ParseFormat(string(text))
	return
}

func (f Format) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// overhead is the number of bytes the format adds around a payload.
func (f Format) overhead() int {
	switch f {
	case LengthHeader:
		return kLengthHeaderSize
	default:
		return 2
	}
}
