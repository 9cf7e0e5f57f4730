package version

import (
	"strings"
	"testing"
)

func TestVersionStringNonEmpty(t *testing.T) {
	if s := String(); s == "" {
		t.Fatalf("version string is empty")
	}
}

func TestVersionStringIncludesCommit(t *testing.T) {
	old := Commit
	t.Cleanup(func() { Commit = old })
	Commit = "deadbee"
	if s := String(); !strings.Contains(s, "deadbee") || !strings.HasPrefix(s, Version) {
		t.Fatalf("unexpected version string %q", s)
	}
}
