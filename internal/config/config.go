// Package config loads process configuration from the environment, optionally
// layered over a YAML file named by CONFIG_FILE.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Backend names.
const (
	AllocatorFirestore = "firestore"
	AllocatorRedis     = "redis"
	AllocatorHTTP      = "http"

	TransferFTP   = "ftp"
	TransferGCS   = "gcs"
	TransferLocal = "local"

	AuditFirestore = "firestore"
	AuditMySQL     = "mysql"
	AuditNone      = "none"
)

// Config holds every setting the uploader and its entry points read.
type Config struct {
	ProjectID       string
	CredentialsFile string
	LogLevel        string
	HTTPAddr        string

	AllocatorBackend           string
	AllocatorCounterCollection string
	AllocatorCounterID         string
	AllocatorURL               string
	AllocatorAPIKey            string
	AllocatorTimeout           time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	TransferBackend string
	TransferBucket  string
	TransferRoot    string
	FTPDialTimeout  time.Duration
	FTPExplicitTLS  bool

	AuditBackend    string
	AuditCollection string
	AuditMySQLDSN   string

	WorkflowID       string
	WorkflowLocation string
}

var defaults = map[string]any{
	"PROJECT_ID":                          "",
	"GOOGLE_APPLICATION_CREDENTIALS_FILE": "",
	"LOG_LEVEL":                           "info",
	"HTTP_ADDR":                           ":8080",
	"ALLOCATOR_BACKEND":                   AllocatorFirestore,
	"ALLOCATOR_COUNTER_COLLECTION":        "counters",
	"ALLOCATOR_COUNTER_ID":                "page_sequence",
	"ALLOCATOR_URL":                       "",
	"ALLOCATOR_API_KEY":                   "",
	"ALLOCATOR_TIMEOUT":                   "10s",
	"REDIS_ADDR":                          "localhost:6379",
	"REDIS_PASSWORD":                      "",
	"REDIS_DB":                            0,
	"TRANSFER_BACKEND":                    TransferFTP,
	"TRANSFER_BUCKET":                     "",
	"TRANSFER_LOCAL_ROOT":                 "",
	"FTP_DIAL_TIMEOUT":                    "30s",
	"FTP_EXPLICIT_TLS":                    false,
	"AUDIT_BACKEND":                       AuditFirestore,
	"AUDIT_COLLECTION":                    "upload_logs",
	"AUDIT_MYSQL_DSN":                     "",
	"WORKFLOW_ID":                         "",
	"WORKFLOW_LOCATION":                   "us-central1",
}

// Load reads the configuration and validates it.
func Load() (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	v.SetDefault("CONFIG_FILE", "")
	if path := v.GetString("CONFIG_FILE"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	cfg := &Config{
		ProjectID:       v.GetString("PROJECT_ID"),
		CredentialsFile: v.GetString("GOOGLE_APPLICATION_CREDENTIALS_FILE"),
		LogLevel:        strings.ToLower(v.GetString("LOG_LEVEL")),
		HTTPAddr:        v.GetString("HTTP_ADDR"),

		AllocatorBackend:           strings.ToLower(v.GetString("ALLOCATOR_BACKEND")),
		AllocatorCounterCollection: v.GetString("ALLOCATOR_COUNTER_COLLECTION"),
		AllocatorCounterID:         v.GetString("ALLOCATOR_COUNTER_ID"),
		AllocatorURL:               v.GetString("ALLOCATOR_URL"),
		AllocatorAPIKey:            v.GetString("ALLOCATOR_API_KEY"),
		AllocatorTimeout:           v.GetDuration("ALLOCATOR_TIMEOUT"),

		RedisAddr:     v.GetString("REDIS_ADDR"),
		RedisPassword: v.GetString("REDIS_PASSWORD"),
		RedisDB:       v.GetInt("REDIS_DB"),

		TransferBackend: strings.ToLower(v.GetString("TRANSFER_BACKEND")),
		TransferBucket:  v.GetString("TRANSFER_BUCKET"),
		TransferRoot:    v.GetString("TRANSFER_LOCAL_ROOT"),
		FTPDialTimeout:  v.GetDuration("FTP_DIAL_TIMEOUT"),
		FTPExplicitTLS:  v.GetBool("FTP_EXPLICIT_TLS"),

		AuditBackend:    strings.ToLower(v.GetString("AUDIT_BACKEND")),
		AuditCollection: v.GetString("AUDIT_COLLECTION"),
		AuditMySQLDSN:   v.GetString("AUDIT_MYSQL_DSN"),

		WorkflowID:       v.GetString("WORKFLOW_ID"),
		WorkflowLocation: v.GetString("WORKFLOW_LOCATION"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the selected backends have what they need.
func (c *Config) Validate() error {
	switch c.AllocatorBackend {
	case AllocatorFirestore:
		if c.ProjectID == "" {
			return fmt.Errorf("PROJECT_ID must be set for the firestore allocator")
		}
	case AllocatorRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR must be set for the redis allocator")
		}
	case AllocatorHTTP:
		if c.AllocatorURL == "" {
			return fmt.Errorf("ALLOCATOR_URL must be set for the http allocator")
		}
	default:
		return fmt.Errorf("unknown ALLOCATOR_BACKEND %q", c.AllocatorBackend)
	}

	switch c.TransferBackend {
	case TransferFTP:
	case TransferGCS:
		if c.TransferBucket == "" {
			return fmt.Errorf("TRANSFER_BUCKET must be set for the gcs transfer backend")
		}
	case TransferLocal:
		if c.TransferRoot == "" {
			return fmt.Errorf("TRANSFER_LOCAL_ROOT must be set for the local transfer backend")
		}
	default:
		return fmt.Errorf("unknown TRANSFER_BACKEND %q", c.TransferBackend)
	}

	switch c.AuditBackend {
	case AuditFirestore:
		if c.ProjectID == "" {
			return fmt.Errorf("PROJECT_ID must be set for the firestore audit store")
		}
	case AuditMySQL:
		if c.AuditMySQLDSN == "" {
			return fmt.Errorf("AUDIT_MYSQL_DSN must be set for the mysql audit store")
		}
	case AuditNone:
	default:
		return fmt.Errorf("unknown AUDIT_BACKEND %q", c.AuditBackend)
	}

	if c.WorkflowID != "" && c.ProjectID == "" {
		return fmt.Errorf("PROJECT_ID must be set when WORKFLOW_ID is configured")
	}
	if c.AllocatorTimeout <= 0 {
		return fmt.Errorf("ALLOCATOR_TIMEOUT must be positive")
	}
	return nil
}

// SlogLevel maps LOG_LEVEL onto a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
