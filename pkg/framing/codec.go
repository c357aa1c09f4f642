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

package framing

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"io"

	"github.com/golang/snappy"

	"conduit/pkg/errors"
)

const (
	DefaultMaxMessageSize = 2048
)

// Codec encodes payloads into frames and reads them back. A Codec is
// immutable and safe for concurrent use.
type Codec struct {
	format         Format
	maxMessageSize int
	compress       bool
}

type CodecOption func(c *Codec)

// WithMaxMessageSize limits the payload size accepted on both sides.
func WithMaxMessageSize(n int) CodecOption {
	return func(c *Codec) {
		if n > 0 {
			c.maxMessageSize = n
		}
	}
}

// WithCompression snappy-compresses payloads. Only the length-header format
// can carry compressed bytes.
func WithCompression(on bool) CodecOption {
	return func(c *Codec) {
		c.compress = on
	}
}

func NewCodec(format Format, opts ...CodecOption) (*Codec, error) {
	if int(format) >= len(formatNames) {
		return nil, errors.Configurationf("unknown message format %d", format)
	}
	c := &Codec{format: format, maxMessageSize: DefaultMaxMessageSize}
	for _, opt := range opts {
		opt(c)
	}
	if c.compress && format != LengthHeader {
		return nil, errors.Configurationf("compression requires the %s format, not %s", LengthHeader, format)
	}
	return c, nil
}

func (c *Codec) Format() Format {
	return c.format
}

func (c *Codec) MaxMessageSize() int {
	return c.maxMessageSize
}

func (c *Codec) Compressed() bool {
	return c.compress
}

// Encode returns the frame for payload.
func (c *Codec) Encode(payload []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := c.EncodeTo(&buf, payload); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// EncodeTo appends the frame for payload to buf.
func (c *Codec) EncodeTo(buf *bytes.Buffer, payload []byte) error {
	if len(payload) > c.maxMessageSize {
		return errors.IO(nil, "message of %d bytes exceeds the maximum of %d", len(payload), c.maxMessageSize)
	}
	buf.Grow(len(payload) + c.format.overhead())
	switch c.format {
	case LengthHeader:
		body := payload
		if c.compress {
			body = snappy.Encode(nil, payload)
		}
		var header [kLengthHeaderSize]byte
		binary.BigEndian.PutUint32(header[:], uint32(len(body)))
		buf.Write(header[:])
		buf.Write(body)
	case StxEtx:
		buf.WriteByte(STX)
		buf.Write(payload)
		buf.WriteByte(ETX)
	case Crlf:
		buf.Write(payload)
		buf.WriteByte(CR)
		buf.WriteByte(LF)
	}
	return nil
}

// Decode reads the next frame from r. It returns io.EOF when the stream
// ends cleanly between frames.
func (c *Codec) Decode(r *bufio.Reader) ([]byte, error) {
	switch c.format {
	case LengthHeader:
		return c.decodeLengthHeader(r)
	case StxEtx:
		return c.decodeStxEtx(r)
	default:
		return c.decodeCrlf(r)
	}
}

func (c *Codec) decodeLengthHeader(r *bufio.Reader) ([]byte, error) {
	var header [kLengthHeaderSize]byte
	if n, err := io.ReadFull(r, header[:]); err != nil {
		if n == 0 && err == io.EOF {
			return nil, err
		}
		return nil, errors.IO(err, "reading length header")
	}
	size := binary.BigEndian.Uint32(header[:])
	limit := c.maxMessageSize
	if c.compress {
		limit = snappy.MaxEncodedLen(c.maxMessageSize)
	}
	if uint64(size) > uint64(limit) {
		return nil, errors.IO(nil, "frame of %d bytes exceeds the maximum of %d", size, limit)
	}
	body := make([]byte, size)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, errors.IO(err, "reading %d byte frame", size)
	}
	if !c.compress {
		return body, nil
	}
	if n, err := snappy.DecodedLen(body); err != nil {
		return nil, errors.IO(err, "corrupt compressed frame")
	} else if n > c.maxMessageSize {
		return nil, errors.IO(nil, "message of %d bytes exceeds the maximum of %d", n, c.maxMessageSize)
	}
	payload, err := snappy.Decode(nil, body)
	if err != nil {
		return nil, errors.IO(err, "corrupt compressed frame")
	}
	return payload, nil
}

func (c *Codec) decodeStxEtx(r *bufio.Reader) ([]byte, error) {
	b, err := r.ReadByte()
	if err != nil {
		if err != io.EOF {
			err = errors.IO(err, "reading %s frame", c.format)
		}
		return nil, err
	}
	if b != STX {
		return nil, errors.IO(nil, "expected STX (0x02) at frame start, got 0x%02x", b)
	}
	payload, err := c.readUntil(r, ETX)
	if err != nil {
		return nil, err
	}
	return payload[:len(payload)-1], nil
}

func (c *Codec) decodeCrlf(r *bufio.Reader) ([]byte, error) {
	var payload []byte
	for {
		chunk, err := c.readUntilFrom(r, LF, len(payload))
		if err != nil {
			if err == io.EOF && len(payload) == 0 && len(chunk) == 0 {
				return nil, io.EOF
			}
			if err == io.EOF {
				err = errors.IO(io.ErrUnexpectedEOF, "reading %s frame", c.format)
			}
			return nil, err
		}
		payload = append(payload, chunk...)
		if n := len(payload); n >= 2 && payload[n-2] == CR {
			return payload[:n-2], nil
		}
	}
}

// readUntil reads through delim, enforcing the size limit. The result
// includes delim.
func (c *Codec) readUntil(r *bufio.Reader, delim byte) ([]byte, error) {
	payload, err := c.readUntilFrom(r, delim, 0)
	if err == io.EOF {
		err = errors.IO(io.ErrUnexpectedEOF, "reading %s frame", c.format)
	}
	return payload, err
}

func (c *Codec) readUntilFrom(r *bufio.Reader, delim byte, have int) ([]byte, error) {
	var payload []byte
	limit := c.maxMessageSize + c.format.overhead()
	for {
		chunk, err := r.ReadSlice(delim)
		payload = append(payload, chunk...)
		if have+len(payload) > limit {
			return nil, errors.IO(nil, "%s frame exceeds the maximum of %d bytes", c.format, c.maxMessageSize)
		}
		if err == nil {
			return payload, nil
		}
		if err != bufio.ErrBufferFull {
			if err != io.EOF {
				err = errors.IO(err, "reading %s frame", c.format)
			}
			return payload, err
		}
	}
}
