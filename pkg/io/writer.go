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
	"context"
	"io"
	"net"
	"sync"
	"time"

	"conduit/pkg/errors"
	"conduit/pkg/framing"
	"conduit/pkg/util"
)

// SocketWriter writes framed payloads. Concurrent Write calls are
// serialized so that frames never interleave on the connection.
type SocketWriter struct {
	mtx          sync.Mutex
	w            io.Writer
	codec        *framing.Codec
	writeTimeout time.Duration
}

func NewSocketWriter(w io.Writer, codec *framing.Codec) *SocketWriter {
	return &SocketWriter{w: w, codec: codec}
}

// SetFormat switches the framing of subsequent writes, keeping the size
// limit and compression setting.
func (w *SocketWriter) SetFormat(format framing.Format) error {
	w.mtx.Lock()
	defer w.mtx.Unlock()
	codec, err := framing.NewCodec(format,
		framing.WithMaxMessageSize(w.codec.MaxMessageSize()),
		framing.WithCompression(w.codec.Compressed()))
	if err != nil {
		return err
	}
	w.codec = codec
	return nil
}

func (w *SocketWriter) Format() framing.Format {
	w.mtx.Lock()
	defer w.mtx.Unlock()
	return w.codec.Format()
}

// SetWriteTimeout bounds each Write when the underlying writer is a
// net.Conn. Zero disables the deadline.
func (w *SocketWriter) SetWriteTimeout(d time.Duration) {
	w.mtx.Lock()
	w.writeTimeout = d
	w.mtx.Unlock()
}

func (w *SocketWriter) Write(payload []byte) error {
	w.mtx.Lock()
	defer w.mtx.Unlock()
	return w.write(payload, time.Time{})
}

// WriteContext is Write bounded by the context deadline as well.
func (w *SocketWriter) WriteContext(ctx context.Context, payload []byte) error {
	until, _ := ctx.Deadline()
	w.mtx.Lock()
	defer w.mtx.Unlock()
	return w.write(payload, until)
}

func (w *SocketWriter) write(payload []byte, until time.Time) error {
	pool := util.GetBufferPool(len(payload) + 4)
	buf := pool.Get()
	defer pool.Put(buf)

	if err := w.codec.EncodeTo(buf, payload); err != nil {
		return err
	}
	if conn, ok := w.w.(net.Conn); ok {
		// a zero deadline clears the one left by an earlier bounded write
		if err := conn.SetWriteDeadline(deadline(w.writeTimeout, until, !until.IsZero())); err != nil {
			return errors.IO(err, "set write deadline")
		}
	}
	if _, err := w.w.Write(buf.Bytes()); err != nil {
		return errors.IO(err, "write %s frame", w.codec.Format())
	}
	return nil
}
