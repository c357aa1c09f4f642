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

package config

import "testing"

func TestValidate(t *testing.T) {
	c := Config{Port: 9999}
	c.Validate()
	if c.Poolname != "conduit" || c.Host != "127.0.0.1" || c.Port != 9999 {
		t.Errorf("unexpected config %+v", c)
	}
	if c.Resolution != 60 || c.UrlPath != "v1/metrics" {
		t.Errorf("unexpected config %+v", c)
	}
	if len(c.HistogramBuckets.Gateway) == 0 || len(c.HistogramBuckets.Connect) == 0 {
		t.Error("histogram buckets not set")
	}
}
