package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/xming13/GoGovSG/internal/errors"
)

func write(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return p
}

func noEnv(string) (string, bool) { return "", false }

func TestNew(t *testing.T) {
	cfg := New()

	if cfg.Server.Addr != DefaultAddr {
		t.Errorf("Server.Addr = %q, want %q", cfg.Server.Addr, DefaultAddr)
	}
	if cfg.Search.Debounce.Std() != DefaultDebounce {
		t.Errorf("Search.Debounce = %v, want %v", cfg.Search.Debounce.Std(), DefaultDebounce)
	}
	if cfg.Search.DefaultRows != DefaultRows {
		t.Errorf("Search.DefaultRows = %d, want %d", cfg.Search.DefaultRows, DefaultRows)
	}
	if cfg.Directory.Driver != DriverMemory {
		t.Errorf("Directory.Driver = %q", cfg.Directory.Driver)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults do not validate: %v", err)
	}
}

func TestLoadFileJSON(t *testing.T) {
	p := write(t, "gogov.json", `{
  "server": {"addr": ":9000"},
  "search": {"debounce": "250ms", "defaultRows": 25},
  "directory": {"driver": "sqlite", "path": "links.db"}
}`)

	cfg, err := LoadFile(p)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Server.Addr != ":9000" {
		t.Errorf("Server.Addr = %q", cfg.Server.Addr)
	}
	if cfg.Search.Debounce.Std() != 250*time.Millisecond || cfg.Search.DefaultRows != 25 {
		t.Errorf("Search = %+v", cfg.Search)
	}
	if cfg.Directory.Driver != DriverSQLite || cfg.Directory.Path != "links.db" {
		t.Errorf("Directory = %+v", cfg.Directory)
	}
	// Unset fields keep their defaults.
	if cfg.Log.Level != "info" || cfg.Search.DebounceMode != "push" {
		t.Errorf("defaults lost: %+v %+v", cfg.Log, cfg.Search)
	}
	if cfg.Path() != p {
		t.Errorf("Path() = %q, want %q", cfg.Path(), p)
	}
}

func TestLoadFileTOML(t *testing.T) {
	p := write(t, "gogov.toml", `
[server]
addr = "127.0.0.1:7000"

[search]
debounce = "1s"
debounceMode = "replace"

[directory]
driver = "postgres"
dsn = "postgres://localhost/gogov"

[log]
level = "debug"
format = "json"
`)

	cfg, err := LoadFile(p)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Server.Addr != "127.0.0.1:7000" || cfg.Search.Debounce.Std() != time.Second {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Search.DebounceMode != "replace" || cfg.Directory.DSN != "postgres://localhost/gogov" {
		t.Errorf("cfg = %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestLoadFileErrors(t *testing.T) {
	tests := []struct {
		name string
		path func(t *testing.T) string
		code string
	}{
		{"missing", func(t *testing.T) string { return filepath.Join(t.TempDir(), "gogov.json") }, errors.CodeConfigNotFound},
		{"bad json", func(t *testing.T) string { return write(t, "gogov.json", `{"server":`) }, errors.CodeConfigParse},
		{"bad toml", func(t *testing.T) string { return write(t, "gogov.toml", "[server\n") }, errors.CodeConfigParse},
		{"bad duration", func(t *testing.T) string { return write(t, "gogov.json", `{"search":{"debounce":"soon"}}`) }, errors.CodeConfigParse},
		{"unknown format", func(t *testing.T) string { return write(t, "gogov.yaml", "server: {}") }, errors.CodeConfigFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFile(tt.path(t))
			if !errors.Is(err, tt.code) {
				t.Errorf("err = %v, want code %s", err, tt.code)
			}
		})
	}
}

func TestLoadWithoutFile(t *testing.T) {
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Path() != "" || cfg.Server.Addr != DefaultAddr {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoadAppliesEnv(t *testing.T) {
	p := write(t, "gogov.json", `{"server":{"addr":":9000"}}`)
	t.Setenv("GOGOV_ADDR", ":9100")
	t.Setenv("GOGOV_LOG_LEVEL", "warn")

	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != ":9100" || cfg.Log.Level != "warn" {
		t.Errorf("env not applied: %+v %+v", cfg.Server, cfg.Log)
	}
}

func TestApplyEnvIgnoresEmpty(t *testing.T) {
	cfg := New()
	cfg.ApplyEnv(func(name string) (string, bool) {
		if name == "GOGOV_DIRECTORY_DRIVER" {
			return "", true
		}
		return noEnv(name)
	})
	if cfg.Directory.Driver != DriverMemory {
		t.Errorf("Driver = %q", cfg.Directory.Driver)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"unknown driver", func(c *Config) { c.Directory.Driver = "mysql" }, "directory.driver"},
		{"sqlite without path", func(c *Config) { c.Directory.Driver = DriverSQLite }, "directory.path"},
		{"postgres without dsn", func(c *Config) { c.Directory.Driver = DriverPostgres }, "directory.dsn"},
		{"remote without url", func(c *Config) { c.Directory.Driver = DriverRemote }, "directory.url"},
		{"zero rows", func(c *Config) { c.Search.DefaultRows = 0 }, "search.defaultRows"},
		{"zero debounce", func(c *Config) { c.Search.Debounce = 0 }, "search.debounce"},
		{"bad mode", func(c *Config) { c.Search.DebounceMode = "pop" }, "search.debounceMode"},
		{"bad level", func(c *Config) { c.Log.Level = "verbose" }, "log.level"},
		{"empty addr", func(c *Config) { c.Server.Addr = "" }, "server.addr"},
		{"relative metrics path", func(c *Config) { c.Telemetry.MetricsPath = "metrics" }, "telemetry.metricsPath"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := New()
			tt.mutate(cfg)
			err := cfg.Validate()
			if !errors.Is(err, errors.CodeConfigInvalid) {
				t.Fatalf("err = %v, want %s", err, errors.CodeConfigInvalid)
			}
			if e := errors.FromError(err, ""); e.Field != tt.field {
				t.Errorf("Field = %q, want %q", e.Field, tt.field)
			}
		})
	}
}

func TestDurationText(t *testing.T) {
	var d Duration
	if err := d.UnmarshalText([]byte("1m30s")); err != nil {
		t.Fatal(err)
	}
	if d.Std() != 90*time.Second {
		t.Errorf("d = %v", d.Std())
	}
	b, _ := d.MarshalText()
	if string(b) != "1m30s" {
		t.Errorf("MarshalText = %q", b)
	}
}

func TestSlogLevel(t *testing.T) {
	cfg := New()
	for level, want := range map[string]string{"debug": "DEBUG", "info": "INFO", "warn": "WARN", "error": "ERROR"} {
		cfg.Log.Level = level
		if got := cfg.SlogLevel().String(); got != want {
			t.Errorf("SlogLevel(%s) = %s, want %s", level, got, want)
		}
	}
}
