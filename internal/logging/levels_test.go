package logging

import (
	"testing"

	goerrors "github.com/goliatone/go-errors"
)

func TestParseLevelAcceptsSyslogNames(t *testing.T) {
	cases := map[string]Level{
		"debug":     LevelDebug,
		"NOTICE":    LevelInfo,
		"warning":   LevelWarn,
		"critical":  LevelError,
		"emergency": LevelError,
		" trace ":   LevelTrace,
		"fatal":     LevelFatal,
	}
	for name, want := range cases {
		got, err := ParseLevel(name)
		if err != nil {
			t.Fatalf("ParseLevel(%q) unexpected error: %v", name, err)
		}
		if got != want {
			t.Fatalf("ParseLevel(%q) = %s, want %s", name, got, want)
		}
	}
}

func TestLogDispatchesToLevel(t *testing.T) {
	rec := &recordingLogger{}
	if err := Log(rec, "warning", "schema missing"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rec.entries) != 1 || rec.entries[0] != "WARN schema missing" {
		t.Fatalf("unexpected entries %v", rec.entries)
	}
}

func TestLogRejectsUnknownLevel(t *testing.T) {
	rec := &recordingLogger{}
	err := Log(rec, "verbose", "ignored")
	if err == nil {
		t.Fatal("expected invalid level error")
	}
	if !goerrors.IsCategory(err, goerrors.CategoryValidation) {
		t.Fatalf("expected validation category, got %v", err)
	}
	if len(rec.entries) != 0 {
		t.Fatalf("expected nothing logged, got %v", rec.entries)
	}
}
