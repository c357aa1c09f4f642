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

package otel

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/golang/glog"
	gotel "go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.opentelemetry.io/otel/sdk/resource"

	otelCfg "conduit/pkg/logging/otel/config"
)

const (
	MeterName    = "conduit"
	MetricPrefix = "conduit."
)

// Status attribute values
const (
	StatusSuccess string = "SUCCESS"
	StatusError   string = "ERROR"
	StatusTimeout string = "TIMEOUT"
)

const (
	Endpoint = "endpoint"
	Status   = "status"
)

var (
	meterProvider *sdkmetric.MeterProvider

	connectHistogramOnce sync.Once
	connectHistogram     metric.Int64Histogram
	acceptCounterOnce    sync.Once
	acceptCounter        metric.Int64Counter
)

// Initialize is registered with initmgr. It expects a *config.Config.
func Initialize(args ...interface{}) (err error) {
	if len(args) < 1 {
		err = fmt.Errorf("otel config argument not as expected")
		glog.Error(err)
		return
	}
	c, ok := args[0].(*otelCfg.Config)
	if !ok {
		err = fmt.Errorf("wrong argument type")
		glog.Error(err)
		return
	}
	if c.Enabled {
		c.Validate()
		c.Dump()
		err = InitMetricProvider(c)
	}
	return
}

func Finalize() {
	if meterProvider == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := meterProvider.Shutdown(ctx); err != nil {
		glog.Warningf("meter provider shutdown: %s", err)
	}
	meterProvider = nil
}

func InitMetricProvider(config *otelCfg.Config) error {
	if meterProvider != nil {
		return nil
	}
	ctx := context.Background()

	gatewayView := sdkmetric.NewView(
		sdkmetric.Instrument{
			Name: MetricPrefix + "gateway.duration",
		},
		sdkmetric.Stream{
			Aggregation: sdkmetric.AggregationExplicitBucketHistogram{
				Boundaries: config.HistogramBuckets.Gateway,
			},
		})
	connectView := sdkmetric.NewView(
		sdkmetric.Instrument{
			Name: MetricPrefix + "connect.duration",
		},
		sdkmetric.Stream{
			Aggregation: sdkmetric.AggregationExplicitBucketHistogram{
				Boundaries: config.HistogramBuckets.Connect,
			},
		})

	exp, err := newHTTPExporter(ctx, config)
	if err != nil {
		return err
	}
	res := resource.NewSchemaless(
		attribute.String("service.name", config.Poolname),
		attribute.String("deployment.environment", config.Environment),
	)
	reader := sdkmetric.NewPeriodicReader(exp, sdkmetric.WithInterval(time.Duration(config.Resolution)*time.Second))
	meterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(reader),
		sdkmetric.WithView(gatewayView, connectView),
	)
	gotel.SetMeterProvider(meterProvider)
	return nil
}

func newHTTPExporter(ctx context.Context, config *otelCfg.Config) (sdkmetric.Exporter, error) {
	deltaTemporalitySelector := func(sdkmetric.InstrumentKind) metricdata.Temporality { return metricdata.DeltaTemporality }
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(fmt.Sprintf("%s:%d", config.Host, config.Port)),
		otlpmetrichttp.WithURLPath(config.UrlPath),
		otlpmetrichttp.WithTimeout(7 * time.Second),
		otlpmetrichttp.WithTemporalitySelector(deltaTemporalitySelector),
		otlpmetrichttp.WithRetry(otlpmetrichttp.RetryConfig{
			Enabled:         true,
			InitialInterval: 1 * time.Second,
			MaxInterval:     10 * time.Second,
			MaxElapsedTime:  240 * time.Second,
		}),
	}
	if !config.UseTls {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}
	return otlpmetrichttp.New(ctx, opts...)
}

func IsEnabled() bool {
	return meterProvider != nil
}

// Meter returns the package meter from the global provider. Before
// InitMetricProvider runs this is the no-op provider.
func Meter() metric.Meter {
	return gotel.GetMeterProvider().Meter(MeterName)
}

func getConnectHistogram() metric.Int64Histogram {
	connectHistogramOnce.Do(func() {
		var err error
		connectHistogram, err = Meter().Int64Histogram(
			MetricPrefix+"connect.duration",
			metric.WithDescription("Outbound TCP connect latency"),
			metric.WithUnit("us"),
		)
		if err != nil {
			glog.Warningf("connect histogram: %s", err)
		}
	})
	return connectHistogram
}

func getAcceptCounter() metric.Int64Counter {
	acceptCounterOnce.Do(func() {
		var err error
		acceptCounter, err = Meter().Int64Counter(
			MetricPrefix+"accept",
			metric.WithDescription("Accepted inbound TCP connections"),
		)
		if err != nil {
			glog.Warningf("accept counter: %s", err)
		}
	})
	return acceptCounter
}

func RecordConnect(endpoint string, status string, d time.Duration) {
	if h := getConnectHistogram(); h != nil {
		h.Record(context.Background(), d.Microseconds(),
			metric.WithAttributes(
				attribute.String(Endpoint, endpoint),
				attribute.String(Status, status),
			))
	}
}

func RecordAccept(status string) {
	if c := getAcceptCounter(); c != nil {
		c.Add(context.Background(), 1, metric.WithAttributes(attribute.String(Status, status)))
	}
}
