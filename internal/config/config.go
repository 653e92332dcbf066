// Package config provides YAML-based configuration for knowhub.
// Configuration is loaded with a layered precedence: defaults → YAML file → env vars.
// Environment variables always win, so existing deployments are unaffected.
//
// File search order:
//  1. --config CLI flag (explicit path)
//  2. KNOWHUB_CONFIG environment variable
//  3. ~/.knowhub/config.yaml
//  4. ./knowhub.yaml
//
// If no file is found the system runs entirely from env vars.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the top-level YAML configuration structure.
// Field names use yaml tags that mirror the env var naming (lowercase, underscored).
type Config struct {
	// OpenAI configures the remote embedding and chat completion provider.
	OpenAI OpenAIConfig `yaml:"openai"`

	// Embedding configures embedding model selection and the offline fallback.
	Embedding EmbeddingConfig `yaml:"embedding"`

	// Chat configures the chat completion model.
	Chat ChatConfig `yaml:"chat"`

	// Search configures the SerpAPI web search provider.
	Search SearchConfig `yaml:"search"`

	// Qdrant configures the Qdrant vector store connection.
	Qdrant QdrantConfig `yaml:"qdrant"`

	// Server configures the HTTP server.
	Server ServerConfig `yaml:"server"`

	// Storage configures on-disk document storage.
	Storage StorageConfig `yaml:"storage"`

	// Logging configures structured logging.
	Logging LoggingConfig `yaml:"logging"`

	// History configures query history persistence.
	History HistoryConfig `yaml:"history"`
}

// OpenAIConfig holds OpenAI API settings shared by the embedding and chat providers.
type OpenAIConfig struct {
	// APIKey is the OpenAI API key. Prefer env var OPENAI_API_KEY.
	// When empty, the local hashing embedder and extractive answerer are used.
	APIKey string `yaml:"api_key"`
	// APIBase is the API base URL (default: https://api.openai.com/v1).
	APIBase string `yaml:"api_base"`
}

// EmbeddingConfig holds embedding model settings.
type EmbeddingConfig struct {
	// Model is the embedding model name (default: text-embedding-3-small).
	Model string `yaml:"model"`
	// FallbackDim is the vector size of the offline hashing embedder
	// (default: 1536, matching text-embedding-3-small).
	FallbackDim int `yaml:"fallback_dim"`
}

// ChatConfig holds chat completion model settings.
type ChatConfig struct {
	// Model is the chat model name (default: gpt-4o-mini).
	Model string `yaml:"model"`
}

// SearchConfig holds web search provider settings.
type SearchConfig struct {
	// SerpAPIKey is the SerpAPI key. Prefer env var SERPAPI_API_KEY.
	// When empty, web-search intents answer with a fixed unavailable message.
	SerpAPIKey string `yaml:"serpapi_key"`
}

// QdrantConfig holds Qdrant vector store settings.
type QdrantConfig struct {
	// URL is the Qdrant endpoint (e.g. http://qdrant:6333).
	URL string `yaml:"url"`
	// Collection is the Qdrant collection name.
	Collection string `yaml:"collection"`
	// APIKey is the Qdrant API key. Prefer env var QDRANT_API_KEY.
	APIKey string `yaml:"api_key"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the bind address.
	Host string `yaml:"host"`
	// Port is the TCP port.
	Port int `yaml:"port"`
}

// StorageConfig holds on-disk document storage settings.
type StorageConfig struct {
	// DataDir is the root directory for uploads and the JSON index.
	DataDir string `yaml:"data_dir"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error.
	Level string `yaml:"level"`
	// Format is the log output format: json, text.
	Format string `yaml:"format"`
}

// HistoryConfig holds query history settings.
type HistoryConfig struct {
	// DBPath is the SQLite database path. Set to "disabled" to disable.
	DBPath string `yaml:"db_path"`
}

// envMapping maps YAML config fields to their corresponding env var names.
// Only non-empty YAML values are applied; env vars always take precedence.
var envMapping = []struct {
	envKey string
	value  func(*Config) string
}{
	{"OPENAI_API_KEY", func(c *Config) string { return c.OpenAI.APIKey }},
	{"OPENAI_API_BASE", func(c *Config) string { return c.OpenAI.APIBase }},
	{"EMBED_MODEL", func(c *Config) string { return c.Embedding.Model }},
	{"FALLBACK_EMBED_DIM", func(c *Config) string { return intStr(c.Embedding.FallbackDim) }},
	{"CHAT_MODEL", func(c *Config) string { return c.Chat.Model }},
	{"SERPAPI_API_KEY", func(c *Config) string { return c.Search.SerpAPIKey }},
	{"QDRANT_URL", func(c *Config) string { return c.Qdrant.URL }},
	{"QDRANT_COLLECTION", func(c *Config) string { return c.Qdrant.Collection }},
	{"QDRANT_API_KEY", func(c *Config) string { return c.Qdrant.APIKey }},
	{"KNOWHUB_HOST", func(c *Config) string { return c.Server.Host }},
	{"KNOWHUB_PORT", func(c *Config) string { return intStr(c.Server.Port) }},
	{"DATA_DIR", func(c *Config) string { return c.Storage.DataDir }},
	{"LOG_LEVEL", func(c *Config) string { return c.Logging.Level }},
	{"LOG_FORMAT", func(c *Config) string { return c.Logging.Format }},
	{"KNOWHUB_HISTORY_DB", func(c *Config) string { return c.History.DBPath }},
}

// Load reads a YAML config file and applies non-empty values as environment
// variables. Existing env vars are never overwritten (env always wins).
// Returns the path that was loaded, or empty string if no file was found.
func Load(explicitPath string, log *slog.Logger) (string, error) {
	path := resolveConfigPath(explicitPath)
	if path == "" {
		log.Debug("config: no YAML config file found, using env vars only")
		return "", nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("config: failed to read %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return "", fmt.Errorf("config: failed to parse %s: %w", path, err)
	}

	applied := 0
	for _, m := range envMapping {
		yamlVal := m.value(&cfg)
		if yamlVal == "" {
			continue
		}
		if os.Getenv(m.envKey) != "" {
			continue // env var already set — do not override
		}
		os.Setenv(m.envKey, yamlVal)
		applied++
	}

	log.Info("config: loaded YAML config",
		slog.String("path", path),
		slog.Int("keys_applied", applied),
	)

	return path, nil
}

// resolveConfigPath returns the first config file path that exists.
func resolveConfigPath(explicit string) string {
	if explicit != "" {
		if _, err := os.Stat(explicit); err == nil {
			return explicit
		}
		return ""
	}

	if envPath := os.Getenv("KNOWHUB_CONFIG"); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	home, err := os.UserHomeDir()
	if err == nil {
		p := filepath.Join(home, ".knowhub", "config.yaml")
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	if _, err := os.Stat("knowhub.yaml"); err == nil {
		return "knowhub.yaml"
	}

	return ""
}

// intStr converts an int to string, returning "" for zero values.
func intStr(v int) string {
	if v == 0 {
		return ""
	}
	return fmt.Sprintf("%d", v)
}
