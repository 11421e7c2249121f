package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"chemlab-hq/callisto/pkg/config"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.LoggingConfig
		wantErr bool
	}{
		{"defaults", config.LoggingConfig{}, false},
		{"json debug", config.LoggingConfig{Level: "debug", Format: "json"}, false},
		{"text warn", config.LoggingConfig{Level: "warn", Format: "text"}, false},
		{"bad level", config.LoggingConfig{Level: "verbose"}, true},
		{"bad format", config.LoggingConfig{Format: "xml"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger, err := New(tt.cfg, &buf)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			logger.Info("hello", "key", "value")
			if buf.Len() == 0 {
				t.Error("no log output")
			}
		})
	}
}

func TestNew_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(config.LoggingConfig{Level: "info", Format: "json"}, &buf)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	logger.Info("pipeline started", "rules", 3)

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, buf.String())
	}
	if record["msg"] != "pipeline started" {
		t.Errorf("msg = %v, want %q", record["msg"], "pipeline started")
	}
	if record["rules"] != float64(3) {
		t.Errorf("rules = %v, want 3", record["rules"])
	}
}

func TestNew_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(config.LoggingConfig{Level: "warn", Format: "text"}, &buf)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	logger.Info("suppressed")
	logger.Warn("emitted")

	out := buf.String()
	if strings.Contains(out, "suppressed") {
		t.Error("info record emitted below the warn threshold")
	}
	if !strings.Contains(out, "emitted") {
		t.Error("warn record missing")
	}
}
