package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected Level
		hasError bool
	}{
		{"debug", LevelDebug, false},
		{"DEBUG", LevelDebug, false},
		{"info", LevelInfo, false},
		{"warn", LevelWarn, false},
		{"warning", LevelWarn, false},
		{"error", LevelError, false},
		{"verbose", LevelInfo, true},
		{"", LevelInfo, true},
	}

	for _, test := range tests {
		t.Run(test.input, func(t *testing.T) {
			level, err := ParseLevel(test.input)
			if test.hasError && err == nil {
				t.Error("expected error, got nil")
			}
			if !test.hasError && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if level != test.expected {
				t.Errorf("expected %v, got %v", test.expected, level)
			}
		})
	}
}

func TestParseFormat(t *testing.T) {
	if f, err := ParseFormat("JSON"); err != nil || f != FormatJSON {
		t.Errorf("ParseFormat(JSON) = %v, %v", f, err)
	}
	if f, err := ParseFormat(""); err != nil || f != FormatText {
		t.Errorf("ParseFormat(\"\") = %v, %v", f, err)
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Error("expected error for xml")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Level != LevelInfo {
		t.Errorf("expected default level Info, got %v", cfg.Level)
	}
	if cfg.Output != "stderr" {
		t.Errorf("expected default output stderr, got %s", cfg.Output)
	}
	if !strings.HasSuffix(cfg.FilePath, "snipd.log") {
		t.Errorf("unexpected default log path %s", cfg.FilePath)
	}
}

func TestJSONFormatWithComponent(t *testing.T) {
	var buf bytes.Buffer
	cfg := DefaultConfig()
	cfg.Format = FormatJSON

	logger := NewWithWriter(&buf, cfg).WithComponent("detect")
	logger.Info("hook installed", "devices", 2)

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("record is not JSON: %v (%q)", err, buf.String())
	}
	if record["msg"] != "hook installed" {
		t.Errorf("unexpected msg %v", record["msg"])
	}
	if record["component"] != "detect" {
		t.Errorf("expected component detect, got %v", record["component"])
	}
}

func TestWithComponentReplacesComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, DefaultConfig()).WithComponent("daemon").WithComponent("render")
	logger.Info("pass done")

	line := buf.String()
	if n := strings.Count(line, "component="); n != 1 {
		t.Fatalf("expected one component attribute, got %d: %q", n, line)
	}
	if !strings.Contains(line, "component=render") {
		t.Errorf("expected component=render, got %q", line)
	}
}

func TestShouldRedact(t *testing.T) {
	tests := []struct {
		key    string
		redact bool
	}{
		{"password", true},
		{"api_token", true},
		{"shell_output", true},
		{"trigger", false},
		{"extension", false},
	}

	for _, test := range tests {
		if got := shouldRedact(test.key); got != test.redact {
			t.Errorf("shouldRedact(%q) = %v, want %v", test.key, got, test.redact)
		}
	}
}

func TestRedactedValueNeverWritten(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, DefaultConfig())

	logger.Info("shell finished", "output", "hunter2")

	if strings.Contains(buf.String(), "hunter2") {
		t.Errorf("secret leaked into log: %s", buf.String())
	}
	if !strings.Contains(buf.String(), "[REDACTED]") {
		t.Errorf("expected redaction marker: %s", buf.String())
	}
}

func TestFileRotator(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FilePath = filepath.Join(t.TempDir(), "logs", "snipd.log")

	r, err := NewFileRotator(cfg)
	if err != nil {
		t.Fatalf("NewFileRotator: %v", err)
	}
	defer r.Close()

	if _, err := r.Write([]byte("hello\n")); err != nil {
		t.Fatalf("Write: %v", err)
	}

	data, err := os.ReadFile(cfg.FilePath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if string(data) != "hello\n" {
		t.Errorf("unexpected content %q", data)
	}
}

func TestFileRotatorRotation(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FilePath = filepath.Join(t.TempDir(), "snipd.log")
	cfg.MaxSizeMB = 1
	cfg.Compress = false

	r, err := NewFileRotator(cfg)
	if err != nil {
		t.Fatalf("NewFileRotator: %v", err)
	}
	defer r.Close()

	chunk := bytes.Repeat([]byte("x"), 600*1024)
	for i := 0; i < 2; i++ {
		if _, err := r.Write(chunk); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}

	info, err := os.Stat(cfg.FilePath)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Size() != int64(len(chunk)) {
		t.Errorf("expected live file to hold one chunk after rotation, got %d bytes", info.Size())
	}

	backups, _ := filepath.Glob(filepath.Join(filepath.Dir(cfg.FilePath), "snipd-*.log"))
	if len(backups) != 1 {
		t.Errorf("expected 1 rotated file, got %v", backups)
	}
}

func TestNewFileOutput(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Output = "file"
	cfg.FilePath = filepath.Join(t.TempDir(), "snipd.log")

	logger, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Info("started")
	if err := logger.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, _ := os.ReadFile(cfg.FilePath)
	if !strings.Contains(string(data), "started") {
		t.Errorf("expected record in file, got %q", data)
	}
}
