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

package io

import (
	"bufio"
	"context"
	"io"
	"net"
	"time"

	"conduit/pkg/errors"
	"conduit/pkg/framing"
	"conduit/pkg/util"
)

// SocketReader reads framed payloads. It is not safe for concurrent use.
type SocketReader struct {
	r           io.Reader
	br          *bufio.Reader
	codec       *framing.Codec
	readTimeout time.Duration
}

func NewSocketReader(r io.Reader, codec *framing.Codec, bufSize int) *SocketReader {
	if bufSize <= 0 {
		bufSize = DefaultSocketConfig.IOBufSize
	}
	return &SocketReader{
		r:     r,
		br:    util.NewBufioReader(r, bufSize),
		codec: codec,
	}
}

// SetReadTimeout bounds each Read when the underlying reader is a net.Conn.
// Zero disables the deadline.
func (r *SocketReader) SetReadTimeout(d time.Duration) {
	r.readTimeout = d
}

// Read returns the next payload. io.EOF means the peer closed the
// connection between frames.
func (r *SocketReader) Read() ([]byte, error) {
	return r.read(time.Time{})
}

func (r *SocketReader) ReadContext(ctx context.Context) ([]byte, error) {
	until, _ := ctx.Deadline()
	return r.read(until)
}

func (r *SocketReader) read(until time.Time) ([]byte, error) {
	if conn, ok := r.r.(net.Conn); ok {
		if err := conn.SetReadDeadline(deadline(r.readTimeout, until, !until.IsZero())); err != nil {
			return nil, errors.IO(err, "set read deadline")
		}
	}
	return r.codec.Decode(r.br)
}

// Release returns the read buffer to the pool. The reader must not be used
// afterwards.
func (r *SocketReader) Release() {
	if r.br != nil {
		util.PutBufioReader(r.br)
		r.br = nil
	}
}
