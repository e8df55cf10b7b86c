// Package config holds process-wide settings for the malrag binaries.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/Blessan-Alex/MalRag/ai"
	"github.com/Blessan-Alex/MalRag/credentials"
)

// Environment variables that carry provider credentials.
const (
	EnvAPIKeys   = "MALRAG_API_KEYS"
	EnvGoogleKey = "GOOGLE_API_KEY"
)

// Config is the resolved configuration of a malrag process.
type Config struct {
	// DBPath is the BadgerDB directory. Ignored when InMemory is set.
	DBPath   string
	InMemory bool

	// PostgresDSN, when set, stores the document registry in PostgreSQL
	// instead of BadgerDB.
	PostgresDSN string

	// UploadDir receives uploaded files until their job finishes.
	UploadDir string

	ListenAddr  string
	CORSOrigins []string

	PoolSize        int
	ExtractPoolSize int

	ChunkSize    int
	ChunkOverlap int
	Entities     bool

	LogLevel slog.Level
	LogFile  string

	// Keys is the ordered credential list.
	Keys []string

	AI *ai.Config
}

// Default returns a Config with local defaults.
func Default() *Config {
	return &Config{
		DBPath:       "malrag.db",
		UploadDir:    "temp_uploads",
		ListenAddr:   ":8000",
		CORSOrigins:  []string{"http://localhost:5173", "http://localhost:3000"},
		ChunkSize:    1200,
		ChunkOverlap: 100,
		Entities:     true,
		LogLevel:     slog.LevelInfo,
		AI:           ai.DefaultConfig(),
	}
}

// KeysFromEnv reads the credential list from the environment.
// MALRAG_API_KEYS takes precedence; GOOGLE_API_KEY is the single-key fallback.
func KeysFromEnv() []string {
	if keys := credentials.ParseList(os.Getenv(EnvAPIKeys)); len(keys) > 0 {
		return keys
	}
	return credentials.ParseList(os.Getenv(EnvGoogleKey))
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.AI == nil {
		return errors.New("config: AI configuration is required")
	}
	if err := c.AI.Validate(); err != nil {
		return err
	}
	if !c.InMemory && c.DBPath == "" {
		return errors.New("config: database path is required")
	}
	if c.UploadDir == "" {
		return errors.New("config: upload directory is required")
	}
	if c.PoolSize < 0 || c.ExtractPoolSize < 0 {
		return errors.New("config: pool sizes cannot be negative")
	}
	if c.ChunkSize < 1 || c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("config: invalid chunk size %d with overlap %d", c.ChunkSize, c.ChunkOverlap)
	}
	return nil
}

// ParseLevel maps a level name to a slog.Level.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", name)
}
