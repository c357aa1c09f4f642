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

package logging

import (
	"errors"
	"flag"
	"testing"
	"time"
)

func TestKVBuffer(t *testing.T) {
	b := NewKVBuffer().AddChannel("requests").AddMessageId("").AddCorrelationId("c1").
		AddMethod("Echo").AddElapsed(1500 * time.Microsecond).AddPayloadLen(0).
		AddStatus("ok").AddError(nil).AddError(errors.New("boom"))
	expected := "ch=requests,corr_id=c1,m=Echo,rht=1500,st=ok,err=boom"
	if b.String() != expected {
		t.Errorf("expected %s, got %s", expected, b.String())
	}
}

func TestInitLogging(t *testing.T) {
	InitLogging("debug", "conduit-test")
	if GetAppName() != "conduit-test" {
		t.Errorf("unexpected app name %s", GetAppName())
	}
	if f := flag.Lookup("v"); f != nil && f.Value.String() != "4" {
		t.Errorf("unexpected verbosity %s", f.Value.String())
	}
	if !IsDebugEnabled() {
		t.Error("debug should be enabled")
	}
	InitLogging("warning", "conduit-test")
	if IsDebugEnabled() {
		t.Error("debug should be disabled")
	}
}
