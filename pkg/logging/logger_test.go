// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLevel_String(t *testing.T) {
	tests := []struct {
		level Level
		want  string
	}{
		{LevelDebug, "DEBUG"},
		{LevelInfo, "INFO"},
		{LevelWarn, "WARN"},
		{LevelError, "ERROR"},
		{Level(99), "UNKNOWN"},
		{Level(-1), "UNKNOWN"},
	}
	for _, tt := range tests {
		if got := tt.level.String(); got != tt.want {
			t.Errorf("Level(%d).String() = %q, want %q", tt.level, got, tt.want)
		}
	}
}

func TestNew_FileLogging(t *testing.T) {
	dir := t.TempDir()

	logger := New(Config{
		Level:   LevelInfo,
		LogDir:  dir,
		Service: "testsvc",
		Quiet:   true,
	})
	logger.Info("file entry", "key", "value")
	if err := logger.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	filename := "testsvc_" + time.Now().Format("2006-01-02") + ".log"
	data, err := os.ReadFile(filepath.Join(dir, filename))
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(string(data))), &entry); err != nil {
		t.Fatalf("log file is not JSON: %v: %s", err, data)
	}
	if entry["msg"] != "file entry" {
		t.Errorf("msg = %v, want file entry", entry["msg"])
	}
	if entry["key"] != "value" {
		t.Errorf("key = %v, want value", entry["key"])
	}
	if entry["service"] != "testsvc" {
		t.Errorf("service = %v, want testsvc", entry["service"])
	}
}

func TestNew_LevelFilter(t *testing.T) {
	dir := t.TempDir()

	logger := New(Config{
		Level:   LevelWarn,
		LogDir:  dir,
		Service: "filter",
		Quiet:   true,
	})
	logger.Debug("drop me")
	logger.Info("drop me too")
	logger.Warn("keep me")
	if err := logger.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	filename := "filter_" + time.Now().Format("2006-01-02") + ".log"
	data, err := os.ReadFile(filepath.Join(dir, filename))
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	if strings.Contains(string(data), "drop me") {
		t.Error("filtered levels leaked into the log file")
	}
	if !strings.Contains(string(data), "keep me") {
		t.Error("warn entry missing from log file")
	}
}

func TestWith_AddsAttributes(t *testing.T) {
	dir := t.TempDir()

	logger := New(Config{
		Level:   LevelInfo,
		LogDir:  dir,
		Service: "child",
		Quiet:   true,
	})
	child := logger.With("request_id", "abc123")
	child.Info("scoped entry")
	if err := logger.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	filename := "child_" + time.Now().Format("2006-01-02") + ".log"
	data, err := os.ReadFile(filepath.Join(dir, filename))
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	if !strings.Contains(string(data), "abc123") {
		t.Error("child logger attribute missing from output")
	}
}

func TestClose_NoFileIsNil(t *testing.T) {
	logger := New(Config{Quiet: true})
	if err := logger.Close(); err != nil {
		t.Errorf("Close() error = %v, want nil without a file", err)
	}
	// Double close is safe.
	if err := logger.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}

func TestDefault(t *testing.T) {
	logger := Default()
	if logger == nil || logger.Slog() == nil {
		t.Fatal("Default() returned incomplete logger")
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home dir")
	}
	if got := expandPath("~/logs"); got != filepath.Join(home, "logs") {
		t.Errorf("expandPath(~/logs) = %q", got)
	}
	if got := expandPath("/var/log"); got != "/var/log" {
		t.Errorf("expandPath(/var/log) = %q, want unchanged", got)
	}
}
