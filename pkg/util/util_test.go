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
	"encoding/binary"
	"math"
	"testing"
	"time"

	"github.com/BurntSushi/toml"
)

func RandomKey(s int) []byte {
	key := make([]byte, 16)
	r := uint32(((int64(s+1)*25214903917 + 11) >> 5) & 0x7fffffff)
	binary.BigEndian.PutUint32(key[0:], r)
	binary.BigEndian.PutUint32(key[4:], uint32(s))
	return key
}

func TestMurmur3Hash(t *testing.T) {
	for _, tc := range []struct {
		s    string
		hash uint32
	}{
		{"", 0x00000000},
		{"hello", 0x248bfa47},
		{"hello, world", 0x149bbb7f},
		{"The quick brown fox jumps over the lazy dog.", 0xd5c48bfc},
	} {
		// an offset slice exercises the unaligned block reads
		buf := append([]byte{0}, tc.s...)
		if h := Murmur3Hash(buf[1:]); h != tc.hash {
			t.Errorf("hash of %q: got %#x, want %#x", tc.s, h, tc.hash)
		}
	}
}

func TestPartitionIdDistribution(t *testing.T) {
	const numPartitions uint32 = 32
	var counts [numPartitions]uint32

	total := 200000
	for i := 0; i < total; i++ {
		counts[GetPartitionId(RandomKey(i), numPartitions)]++
	}
	avg := float64(total) / float64(numPartitions)
	for i := 0; i < int(numPartitions); i++ {
		if pct := math.Abs(float64(counts[i])-avg) / avg; pct >= 0.05 {
			t.Errorf("partition_id=%d, count=%d, pct=%v", i, counts[i], pct)
		}
	}
	if id := GetPartitionId([]byte("k"), 0); id != 0 {
		t.Errorf("expected 0 partitions to map to 0, got %d", id)
	}
}

func TestTimeBasedId(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := NewTimeBasedId()
		if len(id) != 36 || seen[id] {
			t.Fatalf("bad or duplicate id %q", id)
		}
		seen[id] = true
	}
}

func TestDurationToml(t *testing.T) {
	var conf struct {
		Timeout Duration
	}
	if _, err := toml.Decode(`Timeout = "1m30s"`, &conf); err != nil {
		t.Fatal(err)
	}
	if conf.Timeout.Duration != 90*time.Second {
		t.Errorf("unexpected duration %s", conf.Timeout.Duration)
	}
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(conf); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "Timeout = \"1m30s\"\n" {
		t.Errorf("unexpected encoding %q", buf.String())
	}
	if _, err := toml.Decode(`Timeout = "soon"`, &conf); err == nil {
		t.Error("expected an error for an invalid duration")
	}
}

func TestBufferPool(t *testing.T) {
	p := GetBufferPool(300)
	if p != GetBufferPool(1000) {
		t.Error("sizes in one class should share a pool")
	}
	b := p.Get()
	if b.Len() != 0 {
		t.Error("buffer from pool not empty")
	}
	b.WriteString("data")
	p.Put(b)
	if b = p.Get(); b.Len() != 0 {
		t.Error("reused buffer not reset")
	}
}

func TestBufioReader(t *testing.T) {
	br := NewBufioReader(bytes.NewReader([]byte("abc")), 64)
	if s, _ := br.ReadString('c'); s != "abc" {
		t.Errorf("unexpected read %q", s)
	}
	PutBufioReader(br)
	br = NewBufioReader(bytes.NewReader([]byte("xyz")), 16)
	if s, _ := br.ReadString('z'); s != "xyz" {
		t.Errorf("unexpected read %q", s)
	}
}
