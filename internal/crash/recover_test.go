/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package crash

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type flushCounter struct{ n int }

func (f *flushCounter) Flush() { f.n++ }

type panickyFlusher struct{}

func (panickyFlusher) Flush() { panic("flush exploded") }

func withInterceptedExit(t *testing.T) *int {
	t.Helper()
	oldStderr := os.Stderr
	r, w, _ := os.Pipe()
	os.Stderr = w
	code := -1
	oldExit := exitFn
	exitFn = func(c int) { code = c }
	oldDir := ReportDir
	ReportDir = t.TempDir()
	t.Cleanup(func() {
		_ = w.Close()
		os.Stderr = oldStderr
		_, _ = io.Copy(io.Discard, r)
		exitFn = oldExit
		ReportDir = oldDir
	})
	return &code
}

func findReport(t *testing.T, dir string) []byte {
	t.Helper()
	files, _ := os.ReadDir(dir)
	for _, f := range files {
		if strings.HasPrefix(f.Name(), "crash-") && strings.HasSuffix(f.Name(), ".log") {
			b, err := os.ReadFile(filepath.Join(dir, f.Name()))
			if err != nil {
				t.Fatalf("read report: %v", err)
			}
			return b
		}
	}
	t.Fatalf("expected crash report file under %s", dir)
	return nil
}

// TestRecover_FlushesAndReports ensures Recover handles a panic, writes a report, flushes pending
// edits, and does not terminate the test process due to injected exitFn.
func TestRecover_FlushesAndReports(t *testing.T) {
	code := withInterceptedExit(t)
	fl := &flushCounter{}
	func() {
		defer Recover(fl)
		panic("boom")
	}()
	if fl.n != 1 {
		t.Fatalf("flush called %d times", fl.n)
	}
	if !bytes.Contains(findReport(t, ReportDir), []byte("Panic: boom")) {
		t.Fatalf("report does not contain panic")
	}
	if *code != 2 {
		t.Fatalf("exit code = %d, want 2", *code)
	}
}

func TestRecover_SurvivesPanickingFlush(t *testing.T) {
	code := withInterceptedExit(t)
	func() {
		defer Recover(panickyFlusher{})
		panic("first")
	}()
	if *code != 2 {
		t.Fatalf("exit code = %d", *code)
	}
}

func TestRecover_NoPanicIsNoop(t *testing.T) {
	code := withInterceptedExit(t)
	fl := &flushCounter{}
	func() {
		defer Recover(fl)
	}()
	if fl.n != 0 || *code != -1 {
		t.Fatalf("Recover acted without a panic: flush=%d code=%d", fl.n, *code)
	}
}
