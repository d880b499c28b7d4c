package config

import (
	"os"
	"testing"
	"time"
)

const sampleConfig = `
llm:
  base_url: https://api.example.com
  api_key: dummy
  model: gpt-4o
  timeout: 45s
server:
  host: 127.0.0.1
  port: "9090"
db:
  host: db.internal
  port: "3306"
  user: broker
  password: secret
  name: brokerage
memory:
  backend: sqlite
  db_path: /tmp/memory.db
reports:
  output_dir: /tmp/reports
  format: csv
  brochure_link_base: https://admin.example.com
log:
  level: debug
`

// TestLoad verifies unmarshaling from a file named by CONFIG_PATH.
func TestLoad(t *testing.T) {
	tmp, err := os.CreateTemp(t.TempDir(), "cfg-*.yaml")
	if err != nil {
		t.Fatalf("temp file: %v", err)
	}
	if _, err := tmp.WriteString(sampleConfig); err != nil {
		t.Fatalf("write: %v", err)
	}
	tmp.Close()

	t.Setenv("CONFIG_PATH", tmp.Name())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.LLM.Model != "gpt-4o" {
		t.Fatalf("unexpected model: %s", cfg.LLM.Model)
	}
	if cfg.LLM.Timeout != 45*time.Second {
		t.Fatalf("unexpected llm timeout: %v", cfg.LLM.Timeout)
	}
	if cfg.Server.Port != "9090" {
		t.Fatalf("unexpected port: %s", cfg.Server.Port)
	}
	if cfg.Memory.Backend != "sqlite" {
		t.Fatalf("unexpected memory backend: %s", cfg.Memory.Backend)
	}
	if cfg.Reports.Format != "csv" {
		t.Fatalf("unexpected report format: %s", cfg.Reports.Format)
	}
	if cfg.Reports.BrochureLinkBase != "https://admin.example.com" {
		t.Fatalf("unexpected brochure link base: %s", cfg.Reports.BrochureLinkBase)
	}
	if cfg.Log.Level != "debug" {
		t.Fatalf("unexpected log level: %s", cfg.Log.Level)
	}
}

// TestLoad_Defaults checks that unset keys fall back to defaults.
func TestLoad_Defaults(t *testing.T) {
	tmp, err := os.CreateTemp(t.TempDir(), "cfg-*.yaml")
	if err != nil {
		t.Fatalf("temp file: %v", err)
	}
	if _, err := tmp.WriteString("llm:\n  api_key: dummy\n"); err != nil {
		t.Fatalf("write: %v", err)
	}
	tmp.Close()

	t.Setenv("CONFIG_PATH", tmp.Name())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Server.Port != "8080" {
		t.Fatalf("default port not applied: %s", cfg.Server.Port)
	}
	if cfg.Memory.Backend != "memory" {
		t.Fatalf("default memory backend not applied: %s", cfg.Memory.Backend)
	}
	if cfg.DB.QueryTimeout != 30*time.Second {
		t.Fatalf("default query timeout not applied: %v", cfg.DB.QueryTimeout)
	}
	if cfg.Reports.OutputDir != "reports" {
		t.Fatalf("default output dir not applied: %s", cfg.Reports.OutputDir)
	}
	if cfg.Reports.Format != "xlsx" {
		t.Fatalf("default report format not applied: %s", cfg.Reports.Format)
	}
}

func TestDSN(t *testing.T) {
	cfg := DBConfig{
		Host:           "db.internal",
		Port:           "3306",
		User:           "broker",
		Password:       "secret",
		Name:           "brokerage",
		ConnectTimeout: 10 * time.Second,
	}
	want := "broker:secret@tcp(db.internal:3306)/brokerage?parseTime=true&timeout=10s"
	if got := cfg.DSN(); got != want {
		t.Fatalf("DSN mismatch:\n got %s\nwant %s", got, want)
	}
}
