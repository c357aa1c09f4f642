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
	"sync"

	"github.com/golang/glog"
)

const (
	DefaultCMapPartitions uint32 = 32
)

type mapPartition[V any] struct {
	sync.RWMutex
	data map[string]V
}

// CMap is a concurrent map split into murmur3-hashed partitions, each with
// its own lock, so that unrelated keys rarely contend.
type CMap[V any] struct {
	partitions      []*mapPartition[V]
	partitionsCount uint32
}

func NewCMap[V any](partitionsCount uint32) *CMap[V] {
	if partitionsCount == 0 {
		partitionsCount = DefaultCMapPartitions
	}
	m := &CMap[V]{
		partitions:      make([]*mapPartition[V], partitionsCount),
		partitionsCount: partitionsCount,
	}
	for i := range m.partitions {
		m.partitions[i] = &mapPartition[V]{data: make(map[string]V)}
	}
	return m
}

func (m *CMap[V]) getPartition(key string) *mapPartition[V] {
	return m.partitions[GetPartitionId([]byte(key), m.partitionsCount)]
}

func (m *CMap[V]) Put(key string, value V) {
	partition := m.getPartition(key)
	partition.Lock()
	partition.data[key] = value
	partition.Unlock()
	if glog.V(5) {
		glog.Infof("CMAP Put >> key:%s", key)
	}
}

func (m *CMap[V]) Get(key string) (value V, present bool) {
	partition := m.getPartition(key)
	partition.RLock()
	value, present = partition.data[key]
	partition.RUnlock()
	return
}

// PutIfAbsent stores value only when key is not present. It returns the
// current value and false when the key was already taken.
func (m *CMap[V]) PutIfAbsent(key string, value V) (V, bool) {
	partition := m.getPartition(key)
	partition.Lock() //can't use read lock and upgrade atomically
	curValue, present := partition.data[key]
	if !present {
		partition.data[key] = value
		curValue = value
	}
	partition.Unlock()
	return curValue, !present
}

// Remove deletes key and returns the value it held. Of several concurrent
// callers only one observes present == true.
func (m *CMap[V]) Remove(key string) (value V, present bool) {
	partition := m.getPartition(key)
	partition.Lock()
	value, present = partition.data[key]
	if present {
		delete(partition.data, key)
	}
	partition.Unlock()
	return
}

func (m *CMap[V]) Delete(key string) {
	m.Remove(key)
}

func (m *CMap[V]) Len() (n int) {
	for _, p := range m.partitions {
		p.RLock()
		n += len(p.data)
		p.RUnlock()
	}
	return
}

// Range calls f for every entry until f returns false. Entries added or
// removed during the iteration may or may not be visited.
func (m *CMap[V]) Range(f func(key string, value V) bool) {
	for _, p := range m.partitions {
		p.RLock()
		for k, v := range p.data {
			if !f(k, v) {
				p.RUnlock()
				return
			}
		}
		p.RUnlock()
	}
}
