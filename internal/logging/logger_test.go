package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

// TestNewTextLoggerRespectsLevel checks level filtering.
func TestNewTextLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: "warn", Format: "text", Writer: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	logger.Info("hidden")
	logger.Warn("visible")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info record should be filtered, got %q", out)
	}
	if !strings.Contains(out, "visible") {
		t.Fatalf("warn record missing, got %q", out)
	}
}

// TestNewJSONLoggerEmitsJSON checks the json handler output shape.
func TestNewJSONLoggerEmitsJSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Format: "json", Writer: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	logger.Info("job started", "jobId", "abc")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	if record["msg"] != "job started" || record["jobId"] != "abc" {
		t.Fatalf("unexpected record: %+v", record)
	}
}

// TestNewRejectsUnknownOptions checks validation of level and format.
func TestNewRejectsUnknownOptions(t *testing.T) {
	if _, err := New(Options{Level: "loud"}); err == nil {
		t.Fatal("expected error for unknown level")
	}
	if _, err := New(Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unknown format")
	}
}
