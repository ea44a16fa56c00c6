package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", LevelDebug},
		{"DEBUG", LevelDebug},
		{"info", LevelInfo},
		{"warn", LevelWarn},
		{"warning", LevelWarn},
		{"error", LevelError},
		{"", LevelInfo},
		{"verbose", LevelInfo},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLogger_WritesFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, LevelInfo)

	logger.Info("Fetched items from source", WithFields(map[string]interface{}{
		"source": "Reuters",
		"count":  3,
	}), WithField("category", "general"))

	var line map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("log output is not JSON: %v (%s)", err, buf.String())
	}
	if line["msg"] != "Fetched items from source" {
		t.Errorf("msg = %v", line["msg"])
	}
	if line["source"] != "Reuters" {
		t.Errorf("source = %v, want Reuters", line["source"])
	}
	if line["count"] != float64(3) {
		t.Errorf("count = %v, want 3", line["count"])
	}
	if line["category"] != "general" {
		t.Errorf("category = %v, want general", line["category"])
	}
}

func TestLogger_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, LevelWarn)

	logger.Debug("debug line")
	logger.Info("info line")
	if buf.Len() != 0 {
		t.Fatalf("expected no output below warn, got %q", buf.String())
	}

	logger.Warn("warn line")
	if !strings.Contains(buf.String(), "warn line") {
		t.Errorf("expected warn line in output, got %q", buf.String())
	}
}

func TestLogger_With(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, LevelInfo).With(WithField("component", "aggregator"))

	logger.Info("hello")
	if !strings.Contains(buf.String(), `"component":"aggregator"`) {
		t.Errorf("expected component field, got %q", buf.String())
	}
}

func TestLogger_NilSafe(t *testing.T) {
	var logger *Logger
	logger.Info("ignored")
}
