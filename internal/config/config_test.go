package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("PROJECT_ID", "demo-project")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.AllocatorBackend != AllocatorFirestore {
		t.Errorf("AllocatorBackend = %q, want %q", cfg.AllocatorBackend, AllocatorFirestore)
	}
	if cfg.TransferBackend != TransferFTP {
		t.Errorf("TransferBackend = %q, want %q", cfg.TransferBackend, TransferFTP)
	}
	if cfg.AllocatorTimeout != 10*time.Second {
		t.Errorf("AllocatorTimeout = %v, want 10s", cfg.AllocatorTimeout)
	}
	if cfg.AuditCollection != "upload_logs" {
		t.Errorf("AuditCollection = %q", cfg.AuditCollection)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("ALLOCATOR_BACKEND", "HTTP")
	t.Setenv("ALLOCATOR_URL", "http://allocator.local/rpc/next_id")
	t.Setenv("AUDIT_BACKEND", "none")
	t.Setenv("ALLOCATOR_TIMEOUT", "250ms")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.AllocatorBackend != AllocatorHTTP {
		t.Errorf("AllocatorBackend = %q", cfg.AllocatorBackend)
	}
	if cfg.AllocatorTimeout != 250*time.Millisecond {
		t.Errorf("AllocatorTimeout = %v", cfg.AllocatorTimeout)
	}
	if cfg.SlogLevel() != slog.LevelDebug {
		t.Errorf("SlogLevel = %v", cfg.SlogLevel())
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "uploader.yaml")
	content := "allocator_backend: redis\nredis_addr: cache:6379\naudit_backend: none\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_FILE", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.AllocatorBackend != AllocatorRedis || cfg.RedisAddr != "cache:6379" {
		t.Errorf("unexpected redis settings: %q %q", cfg.AllocatorBackend, cfg.RedisAddr)
	}
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			AllocatorBackend: AllocatorHTTP,
			AllocatorURL:     "http://a",
			AllocatorTimeout: time.Second,
			TransferBackend:  TransferFTP,
			AuditBackend:     AuditNone,
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(*Config) {}, false},
		{"unknown allocator", func(c *Config) { c.AllocatorBackend = "zookeeper" }, true},
		{"firestore allocator needs project", func(c *Config) { c.AllocatorBackend = AllocatorFirestore }, true},
		{"gcs needs bucket", func(c *Config) { c.TransferBackend = TransferGCS }, true},
		{"local needs root", func(c *Config) { c.TransferBackend = TransferLocal }, true},
		{"mysql needs dsn", func(c *Config) { c.AuditBackend = AuditMySQL }, true},
		{"workflow needs project", func(c *Config) { c.WorkflowID = "notify" }, true},
		{"zero timeout", func(c *Config) { c.AllocatorTimeout = 0 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
