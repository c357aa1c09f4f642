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
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
)

func TestCMap(t *testing.T) {
	m := NewCMap[int](0)
	m.Put("a", 1)
	if v, ok := m.Get("a"); !ok || v != 1 {
		t.Errorf("get: %d %v", v, ok)
	}
	if v, ok := m.PutIfAbsent("a", 2); ok || v != 1 {
		t.Errorf("put if absent on taken key: %d %v", v, ok)
	}
	if v, ok := m.PutIfAbsent("b", 2); !ok || v != 2 {
		t.Errorf("put if absent: %d %v", v, ok)
	}
	if m.Len() != 2 {
		t.Errorf("len %d", m.Len())
	}
	n := 0
	m.Range(func(key string, value int) bool {
		n++
		return false
	})
	if n != 1 {
		t.Errorf("range should stop early, visited %d", n)
	}
	if v, ok := m.Remove("a"); !ok || v != 1 {
		t.Errorf("remove: %d %v", v, ok)
	}
	if _, ok := m.Remove("a"); ok {
		t.Error("second remove should miss")
	}
	m.Delete("b")
	if m.Len() != 0 {
		t.Errorf("len %d", m.Len())
	}
}

func TestCMapConcurrentRemove(t *testing.T) {
	m := NewCMap[int](8)
	const keys = 1000
	for i := 0; i < keys; i++ {
		m.Put(strconv.Itoa(i), i)
	}
	var removed atomic.Int32
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < keys; i++ {
				if _, ok := m.Remove(strconv.Itoa(i)); ok {
					removed.Add(1)
				}
			}
		}()
	}
	wg.Wait()
	if removed.Load() != keys {
		t.Errorf("expected each key removed exactly once, got %d", removed.Load())
	}
}
