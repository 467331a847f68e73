package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/andythehood/datatransformer-playground/internal/workspace"
)

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Exec    ExecConfig    `yaml:"exec"`
}

type ServerConfig struct {
	Port string `yaml:"port"`
}

type StorageConfig struct {
	Root string `yaml:"root"`
}

type ExecConfig struct {
	ServerURL     string        `yaml:"serverUrl"`
	Timeout       time.Duration `yaml:"timeout"`
	MaxConcurrent int           `yaml:"maxConcurrent"`
	RunsPerMinute int           `yaml:"runsPerMinute"`
	Burst         int           `yaml:"burst"`
}

// Default returns the configuration used when nothing is set
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8080",
		},
		Storage: StorageConfig{
			Root: "./storage",
		},
		Exec: ExecConfig{
			ServerURL:     "http://localhost:8081",
			Timeout:       30 * time.Second,
			MaxConcurrent: 2,
			RunsPerMinute: 60,
			Burst:         10,
		},
	}
}

// Load reads .env, then the YAML file named by PLAYGROUND_CONFIG, then the
// environment. Later sources override earlier ones.
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error in production)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := Default()

	if path := os.Getenv("PLAYGROUND_CONFIG"); path != "" {
		if err := cfg.LoadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.Server.Port = getEnv("PORT", cfg.Server.Port)
	cfg.Storage.Root = getEnv("PLAYGROUND_ROOT", cfg.Storage.Root)
	cfg.Exec.ServerURL = getEnv("EXEC_SERVER_URL", cfg.Exec.ServerURL)
	cfg.Exec.Timeout = getEnvAsDuration("EXEC_TIMEOUT", cfg.Exec.Timeout)
	cfg.Exec.MaxConcurrent = getEnvAsInt("EXEC_MAX_CONCURRENT", cfg.Exec.MaxConcurrent)
	cfg.Exec.RunsPerMinute = getEnvAsInt("EXEC_RUNS_PER_MINUTE", cfg.Exec.RunsPerMinute)
	cfg.Exec.Burst = getEnvAsInt("EXEC_BURST", cfg.Exec.Burst)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFile overlays the YAML file at path onto c. A missing file is an error.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("config file %s does not exist", path)
		}
		return fmt.Errorf("read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	if c.Storage.Root == "" {
		return fmt.Errorf("PLAYGROUND_ROOT is required")
	}

	if c.Exec.ServerURL == "" {
		return fmt.Errorf("EXEC_SERVER_URL is required")
	}

	if c.Exec.Timeout <= 0 {
		return fmt.Errorf("EXEC_TIMEOUT must be positive")
	}

	if c.Exec.MaxConcurrent < 1 {
		return fmt.Errorf("EXEC_MAX_CONCURRENT must be at least 1")
	}

	return nil
}

// PlaygroundsPath is the directory holding every playground
func (c *Config) PlaygroundsPath() string {
	return filepath.Join(c.Storage.Root, workspace.PlaygroundsDir)
}

// LibrariesPath is the directory holding shared libraries
func (c *Config) LibrariesPath() string {
	return filepath.Join(c.Storage.Root, workspace.LibrariesDir)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid integer for %s, using default: %d", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid duration for %s, using default: %s", key, defaultValue)
		return defaultValue
	}

	return value
}
