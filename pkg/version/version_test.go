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

package version

import (
	"bytes"
	"strings"
	"testing"
)

func TestVersionInfo(t *testing.T) {
	saved := Revision
	defer func() { Revision = saved }()
	Revision = "abc123"

	if s := OnelineVersionString(); s != Version+".abc123" {
		t.Errorf("unexpected version string %s", s)
	}
	var buf bytes.Buffer
	WriteVersionInfo(&buf)
	out := buf.String()
	if !strings.Contains(out, "Conduit") || !strings.Contains(out, "Git Commit: abc123") {
		t.Errorf("unexpected version info %q", out)
	}
}
