package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	DBPath       string   `yaml:"db_path"`
	DefaultActor string   `yaml:"default_actor"`
	LogLevel     string   `yaml:"log_level"`
	LogFormat    string   `yaml:"log_format"`
	Output       string   `yaml:"output"`
	MaxUploadMB  int      `yaml:"max_upload_mb"`
	VirtualRoots []string `yaml:"virtual_roots"`
	WebhookURLs  []string `yaml:"webhook_urls"`
}

// DefaultMaxUploadMB caps import input size, measured after decompression.
const DefaultMaxUploadMB = 32

// DefaultVirtualRoots are section names treated as transparent containers on import.
var DefaultVirtualRoots = []string{"Test Cases"}

// Load loads configuration from multiple sources with precedence:
// 1. Environment variables
// 2. ./.env.local (dotenv) - walks up parent directories to find it
// 3. ~/.config/caseq/config.yaml (YAML)
func Load() (*Config, error) {
	cfg := &Config{
		LogLevel:     "info",
		LogFormat:    "text",
		Output:       "table",
		MaxUploadMB:  DefaultMaxUploadMB,
		VirtualRoots: DefaultVirtualRoots,
	}

	if envPath := findEnvLocal(); envPath != "" {
		_ = godotenv.Load(envPath)
	}

	// The YAML file is optional; a missing file is not an error.
	if err := loadYAMLConfig(cfg); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if dbPath := getEnvOrFile("CASEQ_DB_PATH", "CASEQ_DB_PATH_FILE"); dbPath != "" {
		cfg.DBPath = dbPath
	}
	if logLevel := os.Getenv("CASEQ_LOG_LEVEL"); logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if logFormat := os.Getenv("CASEQ_LOG_FORMAT"); logFormat != "" {
		cfg.LogFormat = logFormat
	}
	if output := os.Getenv("CASEQ_OUTPUT"); output != "" {
		cfg.Output = output
	}
	if defaultActor := os.Getenv("CASEQ_ACTOR"); defaultActor != "" {
		cfg.DefaultActor = defaultActor
	}
	if maxMB := os.Getenv("CASEQ_MAX_UPLOAD_MB"); maxMB != "" {
		n, err := strconv.Atoi(strings.TrimSpace(maxMB))
		if err != nil {
			return nil, fmt.Errorf("invalid CASEQ_MAX_UPLOAD_MB %q: %w", maxMB, err)
		}
		cfg.MaxUploadMB = n
	}
	if roots, ok := os.LookupEnv("CASEQ_VIRTUAL_ROOTS"); ok {
		cfg.VirtualRoots = splitList(roots)
	}
	if hooks, ok := os.LookupEnv("CASEQ_WEBHOOK_URLS"); ok {
		cfg.WebhookURLs = splitList(hooks)
	}

	if cfg.MaxUploadMB <= 0 {
		return nil, fmt.Errorf("max upload size must be positive, got %d MB", cfg.MaxUploadMB)
	}

	if cfg.DBPath == "" {
		// Check for project-local database first
		if _, err := os.Stat(".caseq/caseq.db"); err == nil {
			cfg.DBPath = ".caseq/caseq.db"
		} else {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return nil, fmt.Errorf("failed to get home directory: %w", err)
			}
			cfg.DBPath = filepath.Join(homeDir, ".local", "share", "caseq", "caseq.db")
		}
	}

	return cfg, nil
}

// MaxUploadBytes returns the upload cap in bytes
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// loadYAMLConfig loads configuration from ~/.config/caseq/config.yaml
func loadYAMLConfig(cfg *Config) error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return err
	}

	configPath := filepath.Join(homeDir, ".config", "caseq", "config.yaml")
	data, err := os.ReadFile(configPath)
	if err != nil {
		return err
	}

	return yaml.Unmarshal(data, cfg)
}

// getEnvOrFile gets an environment variable value, or reads it from a file
// if the _FILE variant is set
func getEnvOrFile(envVar, fileVar string) string {
	if val := os.Getenv(envVar); val != "" {
		return val
	}

	if filePath := os.Getenv(fileVar); filePath != "" {
		data, err := os.ReadFile(filePath)
		if err == nil {
			return strings.TrimSpace(string(data))
		}
	}

	return ""
}

// findEnvLocal searches for .env.local starting from cwd and walking up
// parent directories. Stops at the user's home directory.
// Returns the path to .env.local if found, empty string otherwise.
func findEnvLocal() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		// If we can't get home dir, just check cwd
		if _, err := os.Stat(".env.local"); err == nil {
			return ".env.local"
		}
		return ""
	}

	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	// Clean paths for reliable comparison
	homeDir = filepath.Clean(homeDir)
	dir := filepath.Clean(cwd)

	for {
		envPath := filepath.Join(dir, ".env.local")
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}

		// Stop if we've reached home directory
		if dir == homeDir {
			break
		}

		// Get parent directory
		parent := filepath.Dir(dir)

		// Stop if we've reached the filesystem root
		if parent == dir {
			break
		}

		dir = parent
	}

	return ""
}

// GetActorID returns the current actor reference from environment or config
// Priority: CASEQ_ACTOR_ID > CASEQ_ACTOR > config.default_actor
func (c *Config) GetActorID() string {
	if actorID := os.Getenv("CASEQ_ACTOR_ID"); actorID != "" {
		return actorID
	}
	if actor := os.Getenv("CASEQ_ACTOR"); actor != "" {
		return actor
	}
	return c.DefaultActor
}
