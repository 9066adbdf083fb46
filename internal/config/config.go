// Package config resolves layered configuration — defaults, a
// config.yaml file, and TX_*-prefixed environment variables — via
// spf13/viper, mirroring the
// teacher's layered config resolution (SPEC_FULL.md §2 ambient stack).
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the fully-resolved process configuration for both cmd/txd
// and cmd/tx.
type Config struct {
	// DataDir is the project-local hidden directory holding tx.db and
	// the export journal (default ./.tx).
	DataDir string
	// LogLevel is one of debug/info/warn/error.
	LogLevel string
	// LogJSON selects JSON vs text log formatting.
	LogJSON bool
	// LogPath is the daemon log file path (rotated via lumberjack).
	LogPath string

	WorkerPoolSize           int
	ReconcileIntervalSeconds int
	HeartbeatIntervalSeconds int
	LeaseDurationMinutes     int

	HTTPAddr string

	// TranscriptRoots are the allowed roots for transcript-path and
	// docs-path inputs (spec §9 "path sanitization"): the project data
	// dir and the user's agent-session home, in that order.
	TranscriptRoots []string
}

// Defaults mirrors the orchestrator_state row's seeded defaults
// (schema.go) so a fresh config.yaml-less install behaves identically
// whether the values come from the store or from this layer.
func Defaults() Config {
	return Config{
		DataDir:                  ".tx",
		LogLevel:                 "info",
		LogJSON:                  false,
		LogPath:                  ".tx/txd.log",
		WorkerPoolSize:           10,
		ReconcileIntervalSeconds: 30,
		HeartbeatIntervalSeconds: 15,
		LeaseDurationMinutes:     15,
		HTTPAddr:                 ":7312",
		TranscriptRoots:          defaultTranscriptRoots(),
	}
}

// defaultTranscriptRoots is .tx (project-local) plus ~/.claude (agent
// session home) when the home directory can be resolved; matches spec
// §6's transcript-path policy.
func defaultTranscriptRoots() []string {
	roots := []string{".tx"}
	if home, err := os.UserHomeDir(); err == nil {
		roots = append(roots, filepath.Join(home, ".claude"))
	}
	return roots
}

// Load resolves config.yaml (configPath when given, otherwise if present
// under .tx or the current directory), TX_*
// environment variables, and the given defaults, in viper's standard
// precedence order (explicit Set/flag > env > file > default).
func Load(configPath string) (Config, error) {
	cfg := Defaults()

	v := viper.New()
	v.SetEnvPrefix("TX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("data_dir", cfg.DataDir)
	v.SetDefault("log_level", cfg.LogLevel)
	v.SetDefault("log_json", cfg.LogJSON)
	v.SetDefault("log_path", cfg.LogPath)
	v.SetDefault("worker_pool_size", cfg.WorkerPoolSize)
	v.SetDefault("reconcile_interval_seconds", cfg.ReconcileIntervalSeconds)
	v.SetDefault("heartbeat_interval_seconds", cfg.HeartbeatIntervalSeconds)
	v.SetDefault("lease_duration_minutes", cfg.LeaseDurationMinutes)
	v.SetDefault("http_addr", cfg.HTTPAddr)
	v.SetDefault("transcript_roots", cfg.TranscriptRoots)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".tx")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return cfg, err
		}
	}

	cfg.DataDir = v.GetString("data_dir")
	cfg.LogLevel = v.GetString("log_level")
	cfg.LogJSON = v.GetBool("log_json")
	cfg.LogPath = v.GetString("log_path")
	cfg.WorkerPoolSize = v.GetInt("worker_pool_size")
	cfg.ReconcileIntervalSeconds = v.GetInt("reconcile_interval_seconds")
	cfg.HeartbeatIntervalSeconds = v.GetInt("heartbeat_interval_seconds")
	cfg.LeaseDurationMinutes = v.GetInt("lease_duration_minutes")
	cfg.HTTPAddr = v.GetString("http_addr")
	if roots := v.GetStringSlice("transcript_roots"); len(roots) > 0 {
		cfg.TranscriptRoots = roots
	}
	return cfg, nil
}

func (c Config) ReconcileInterval() time.Duration {
	return time.Duration(c.ReconcileIntervalSeconds) * time.Second
}

func (c Config) HeartbeatInterval() time.Duration {
	return time.Duration(c.HeartbeatIntervalSeconds) * time.Second
}

func (c Config) LeaseDuration() time.Duration {
	return time.Duration(c.LeaseDurationMinutes) * time.Minute
}

func (c Config) DBPath() string {
	return c.DataDir + "/tx.db"
}
