// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package shared

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestEmitJSON(t *testing.T) {
	type response struct {
		JSONResponse
		Result bool `json:"result"`
	}

	var buf bytes.Buffer
	if err := EmitJSON(&buf, response{JSONResponse: NewJSONResponse("eval", true), Result: true}); err != nil {
		t.Fatalf("EmitJSON() error = %v", err)
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &raw); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if raw["@version"] != "1.0" {
		t.Errorf("@version = %v, want 1.0", raw["@version"])
	}
	if raw["command"] != "eval" {
		t.Errorf("command = %v, want eval", raw["command"])
	}
	if raw["success"] != true || raw["result"] != true {
		t.Errorf("unexpected body %v", raw)
	}
}

func TestEmitJSONError(t *testing.T) {
	var buf bytes.Buffer
	err := EmitJSONError(&buf, "validate", []JSONError{
		{Code: ErrorCodeCompileFailed, Message: "bad expression", File: "p.yaml", Stage: "gate"},
	})
	if err != nil {
		t.Fatalf("EmitJSONError() error = %v", err)
	}

	var decoded struct {
		JSONResponse
		Errors []JSONError `json:"errors"`
	}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if decoded.Success {
		t.Error("expected success=false")
	}
	if len(decoded.Errors) != 1 || decoded.Errors[0].Stage != "gate" {
		t.Errorf("unexpected errors %+v", decoded.Errors)
	}

	var raw map[string]interface{}
	_ = json.Unmarshal(buf.Bytes(), &raw)
	first := raw["errors"].([]interface{})[0].(map[string]interface{})
	if _, ok := first["suggestion"]; ok {
		t.Error("empty suggestion should be omitted")
	}
}

func TestRenderResult_Plain(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	if got := RenderResult(true); got != "true" {
		t.Errorf("RenderResult(true) = %q", got)
	}
	if got := RenderResult(false); got != "false" {
		t.Errorf("RenderResult(false) = %q", got)
	}
	if IsTTY() {
		t.Error("NO_COLOR must disable terminal styling")
	}
}
