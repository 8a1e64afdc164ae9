package cmd

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// isolate keeps the user's real config and credentials out of the test.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	for _, key := range []string{"TG_ID", "TG_HASH", "TGFS_DEMO", "TGFS_TELEGRAM_APP_ID", "TGFS_TELEGRAM_APP_HASH"} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)
	t.Setenv("TG_ID", "12345")
	t.Setenv("TG_HASH", "0123456789abcdef")

	cfg, err := Load("", nil)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Telegram.AppID != 12345 || cfg.Telegram.AppHash != "0123456789abcdef" {
		t.Errorf("credentials = %d/%q", cfg.Telegram.AppID, cfg.Telegram.AppHash)
	}
	if cfg.Telegram.SessionFile != "downloader.session" {
		t.Errorf("SessionFile = %q", cfg.Telegram.SessionFile)
	}
	if cfg.Refresh.Interval != 10*time.Second || cfg.Refresh.Concurrency != 4 || cfg.Refresh.MaxFileSize != 0 {
		t.Errorf("Refresh = %+v", cfg.Refresh)
	}
	if cfg.Mount.FSName != "telegramfs" || !cfg.Mount.AllowOther {
		t.Errorf("Mount = %+v", cfg.Mount)
	}
	if cfg.Mount.UID != uint32(os.Getuid()) || cfg.Mount.GID != uint32(os.Getgid()) {
		t.Errorf("owner = %d:%d, want the current process ids", cfg.Mount.UID, cfg.Mount.GID)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Errorf("Logging = %+v", cfg.Logging)
	}
	if cfg.Metrics.Addr != "" || cfg.Demo {
		t.Errorf("Metrics = %+v, Demo = %v", cfg.Metrics, cfg.Demo)
	}
}

func TestLoadMissingCredentials(t *testing.T) {
	isolate(t)

	if _, err := Load("", nil); !errors.Is(err, ErrMissingCredentials) {
		t.Fatalf("Load error = %v, want ErrMissingCredentials", err)
	}

	t.Setenv("TGFS_DEMO", "true")
	cfg, err := Load("", nil)
	if err != nil {
		t.Fatalf("Load in demo mode failed: %v", err)
	}
	if !cfg.Demo {
		t.Error("Demo not enabled from TGFS_DEMO")
	}
}

func TestLoadConfigFile(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "tgfs.yaml")
	content := `
telegram:
  app_id: 42
  app_hash: deadbeef
  session_file: /var/lib/tgfs/session.json
refresh:
  interval: 30s
  concurrency: 2
  max_file_size: 1048576
mount:
  allow_other: false
  uid: 1000
  gid: 1000
logging:
  level: DEBUG
  format: text
metrics:
  addr: ":9090"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path, nil)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Telegram.AppID != 42 || cfg.Telegram.SessionFile != "/var/lib/tgfs/session.json" {
		t.Errorf("Telegram = %+v", cfg.Telegram)
	}
	if cfg.Refresh.Interval != 30*time.Second || cfg.Refresh.Concurrency != 2 || cfg.Refresh.MaxFileSize != 1<<20 {
		t.Errorf("Refresh = %+v", cfg.Refresh)
	}
	if cfg.Mount.AllowOther || cfg.Mount.UID != 1000 {
		t.Errorf("Mount = %+v", cfg.Mount)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "console" {
		t.Errorf("Logging = %+v, want normalized debug/console", cfg.Logging)
	}
	if cfg.Metrics.Addr != ":9090" {
		t.Errorf("Metrics.Addr = %q", cfg.Metrics.Addr)
	}

	// Environment beats the file
	t.Setenv("TGFS_REFRESH_CONCURRENCY", "8")
	t.Setenv("TG_ID", "7")
	cfg, err = Load(path, nil)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Refresh.Concurrency != 8 || cfg.Telegram.AppID != 7 {
		t.Errorf("env override: concurrency=%d app_id=%d", cfg.Refresh.Concurrency, cfg.Telegram.AppID)
	}
}

func TestLoadFlagsOverride(t *testing.T) {
	isolate(t)
	t.Setenv("TGFS_REFRESH_CONCURRENCY", "8")

	root := NewRootCmd()
	if err := root.ParseFlags([]string{"--demo", "--concurrency=2", "--refresh-interval=1m", "--log-level=warn"}); err != nil {
		t.Fatalf("ParseFlags failed: %v", err)
	}

	cfg, err := Load("", root.Flags())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !cfg.Demo {
		t.Error("--demo not applied")
	}
	if cfg.Refresh.Concurrency != 2 {
		t.Errorf("Concurrency = %d, want flag value 2", cfg.Refresh.Concurrency)
	}
	if cfg.Refresh.Interval != time.Minute {
		t.Errorf("Interval = %v, want 1m", cfg.Refresh.Interval)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("Level = %q, want warn", cfg.Logging.Level)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := &Config{Telegram: TelegramConfig{AppID: 1, AppHash: "hash"}}
		ApplyDefaults(cfg)
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "demo without credentials", mutate: func(c *Config) { c.Demo = true; c.Telegram = TelegramConfig{SessionFile: "s"} }},
		{name: "missing hash", mutate: func(c *Config) { c.Telegram.AppHash = "" }, wantErr: "app_hash"},
		{name: "too much concurrency", mutate: func(c *Config) { c.Refresh.Concurrency = 65 }, wantErr: "Concurrency"},
		{name: "negative interval", mutate: func(c *Config) { c.Refresh.Interval = -time.Second }, wantErr: "Interval"},
		{name: "negative size cap", mutate: func(c *Config) { c.Refresh.MaxFileSize = -1 }, wantErr: "MaxFileSize"},
		{name: "bad log format", mutate: func(c *Config) { c.Logging.Format = "xml" }, wantErr: "Format"},
		{name: "bad metrics addr", mutate: func(c *Config) { c.Metrics.Addr = "nope" }, wantErr: "Addr"},
		{name: "metrics addr with host", mutate: func(c *Config) { c.Metrics.Addr = "localhost:9090" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := Validate(cfg)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate failed: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate succeeded, want error mentioning %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}
