/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package log

import (
	"bufio"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// TestInitAndStructuredLoggingToFile verifies that Init with a file handler writes JSON logs
// carrying the static and contextual attributes.
func TestInitAndStructuredLoggingToFile(t *testing.T) {
	fpath := filepath.Join(t.TempDir(), "trb.json")
	var console strings.Builder
	Init(Options{Level: "debug", Format: "console", File: fpath, Writer: &console})
	t.Cleanup(func() { _ = Close() })

	l := WithOperation(WithComponent("storage"), "create")
	l.InfoContext(WithProject(context.Background(), 7), "project created", slog.String("name", "New Project"))

	if err := Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	b, err := os.ReadFile(fpath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	var last string
	sc := bufio.NewScanner(strings.NewReader(string(b)))
	for sc.Scan() {
		if s := strings.TrimSpace(sc.Text()); s != "" {
			last = s
		}
	}
	if last == "" {
		t.Fatalf("no log lines found")
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(last), &m); err != nil {
		t.Fatalf("unmarshal json log: %v", err)
	}
	if m["app"] != "transcribeer" {
		t.Fatalf("missing app attr: %v", m["app"])
	}
	if m["component"] != "storage" || m["op"] != "create" {
		t.Fatalf("component/op mismatch: %v", m)
	}
	if m["project_id"] != float64(7) {
		t.Fatalf("project_id not enriched: %v", m["project_id"])
	}
	if !strings.Contains(console.String(), "project created") || !strings.Contains(console.String(), `name="New Project"`) {
		t.Fatalf("console output missing record: %q", console.String())
	}
}

func TestInitJSONConsole(t *testing.T) {
	var buf strings.Builder
	Init(Options{Level: "warn", Format: "json", Writer: &buf})
	WithComponent("x").Info("dropped")
	WithComponent("x").Warn("kept")
	out := buf.String()
	if strings.Contains(out, "dropped") {
		t.Fatalf("info record should be filtered at warn: %q", out)
	}
	if !strings.Contains(out, `"msg":"kept"`) {
		t.Fatalf("warn record missing: %q", out)
	}
}
