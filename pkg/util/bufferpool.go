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

package util

import (
	"bytes"
	"sync"
)

// BufferPool hands out reusable byte buffers of at least a given capacity.
type BufferPool struct {
	pool sync.Pool
	size int
}

var (
	bufferPools = [...]*BufferPool{
		NewBufferPool(256),
		NewBufferPool(1024),
		NewBufferPool(4096),
		NewBufferPool(16384),
	}
)

func NewBufferPool(size int) *BufferPool {
	p := &BufferPool{size: size}
	p.pool.New = func() interface{} {
		return bytes.NewBuffer(make([]byte, 0, size))
	}
	return p
}

// GetBufferPool returns the smallest shared pool whose buffers fit size.
// Requests larger than every pool get a pool of their own.
func GetBufferPool(size int) *BufferPool {
	for _, p := range bufferPools {
		if size <= p.size {
			return p
		}
	}
	return NewBufferPool(size)
}

func (p *BufferPool) Get() *bytes.Buffer {
	return p.pool.Get().(*bytes.Buffer)
}

func (p *BufferPool) Put(buf *bytes.Buffer) {
	// let oversized buffers go to the collector
	if buf.Cap() > 4*p.size {
		return
	}
	buf.Reset()
	p.pool.Put(buf)
}
