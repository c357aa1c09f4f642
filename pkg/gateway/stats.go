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
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
	"github.com/golang/glog"
	gotel "go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"conduit/pkg/logging/otel"
)

type (
	// Stats records the round trip latency of gateway calls.
	Stats struct {
		mtx       sync.Mutex
		hist      *hdrhistogram.Histogram
		total     time.Duration
		numErrors int64
		timeouts  int64
		tmStart   time.Time

		duration metric.Int64Histogram
		errors   metric.Int64Counter
		timedOut metric.Int64Counter
		service  attribute.KeyValue
	}

	StatsData struct {
		NumRequests int64
		NumErrors   int64
		NumTimeouts int64
		Throughput  float64
		AvgLatency  time.Duration
		MinLatency  time.Duration
		MaxLatency  time.Duration
		P50Latency  time.Duration
		P95Latency  time.Duration
		P99Latency  time.Duration
	}
)

func NewStats(service string, mp metric.MeterProvider) *Stats {
	s := &Stats{
		hist:    hdrhistogram.New(1, int64(3600*time.Second), 3),
		tmStart: time.Now(),
		service: attribute.String("service", service),
	}
	if mp == nil {
		mp = gotel.GetMeterProvider()
	}
	meter := mp.Meter(otel.MeterName)
	var err error
	if s.duration, err = meter.Int64Histogram(otel.MetricPrefix+"gateway.duration",
		metric.WithDescription("Gateway round trip latency"),
		metric.WithUnit("us")); err != nil {
		glog.Warningf("gateway.duration histogram: %s", err)
	}
	if s.errors, err = meter.Int64Counter(otel.MetricPrefix+"gateway.errors",
		metric.WithDescription("Gateway calls that failed")); err != nil {
		glog.Warningf("gateway.errors counter: %s", err)
	}
	if s.timedOut, err = meter.Int64Counter(otel.MetricPrefix+"gateway.timeouts",
		metric.WithDescription("Gateway calls that timed out waiting for a reply")); err != nil {
		glog.Warningf("gateway.timeouts counter: %s", err)
	}
	return s
}

// Put records one call. Timeouts are counted as errors too.
func (s *Stats) Put(method string, tm time.Duration, err error, timeout bool) {
	s.mtx.Lock()
	s.hist.RecordValue(int64(tm))
	s.total += tm
	if err != nil {
		s.numErrors++
	}
	if timeout {
		s.timeouts++
	}
	s.mtx.Unlock()

	status := otel.StatusSuccess
	if timeout {
		status = otel.StatusTimeout
	} else if err != nil {
		status = otel.StatusError
	}
	attrs := metric.WithAttributes(s.service, attribute.String("method", method), attribute.String(otel.Status, status))
	ctx := context.Background()
	if s.duration != nil {
		s.duration.Record(ctx, tm.Microseconds(), attrs)
	}
	if err != nil && s.errors != nil {
		s.errors.Add(ctx, 1, attrs)
	}
	if timeout && s.timedOut != nil {
		s.timedOut.Add(ctx, 1, attrs)
	}
}

func (s *Stats) GetStats() (stat StatsData) {
	s.mtx.Lock()
	stat.NumRequests = s.hist.TotalCount()
	stat.NumErrors = s.numErrors
	stat.NumTimeouts = s.timeouts
	stat.MinLatency = time.Duration(s.hist.Min())
	stat.MaxLatency = time.Duration(s.hist.Max())
	stat.P50Latency = time.Duration(s.hist.ValueAtQuantile(50.))
	stat.P95Latency = time.Duration(s.hist.ValueAtQuantile(95.))
	stat.P99Latency = time.Duration(s.hist.ValueAtQuantile(99.))
	total := s.total
	elapsed := time.Since(s.tmStart)
	s.mtx.Unlock()

	if stat.NumRequests != 0 {
		stat.AvgLatency = total / time.Duration(stat.NumRequests)
		if elapsed > 0 {
			stat.Throughput = float64(stat.NumRequests) / elapsed.Seconds()
		}
	}
	return
}

func (s *Stats) Reset() {
	s.mtx.Lock()
	s.hist.Reset()
	s.total = 0
	s.numErrors = 0
	s.timeouts = 0
	s.tmStart = time.Now()
	s.mtx.Unlock()
}

func (s *Stats) PrettyPrint(w io.Writer) {
	round := func(d time.Duration) time.Duration {
		return d.Round(time.Microsecond)
	}
	stat := s.GetStats()
	fmt.Fprintln(w, `
 request/s  |                          round trip latency                          |  number of | number of | number of
  average   | average    | min        | max        |        50% |      95%   |      99%   |  requests  |   errors  |  timeouts
------------+------------+------------+------------+------------+------------+------------+------------+-----------+-----------`)
	fmt.Fprintf(w, "%12.2f %12s %12s %12s %12s %12s %12s %12d %11d %11d\n",
		stat.Throughput, round(stat.AvgLatency), round(stat.MinLatency), round(stat.MaxLatency),
		round(stat.P50Latency), round(stat.P95Latency), round(stat.P99Latency),
		stat.NumRequests, stat.NumErrors, stat.NumTimeouts)
}
