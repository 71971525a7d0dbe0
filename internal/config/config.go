// Package config loads engine configuration with layered precedence:
// built-in defaults, then the user config file, then the project config
// file, then environment variables for secrets.
package config

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Sam-lateef/Ascendia-booking-sub000/internal/template"
	"github.com/Sam-lateef/Ascendia-booking-sub000/pkg/catalog"
)

// Config is the complete engine configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Models  ModelsConfig  `yaml:"models"`
	Store   StoreConfig   `yaml:"store"`
	Events  EventsConfig  `yaml:"events"`
	Catalog CatalogConfig `yaml:"catalog"`
	Engine  EngineConfig  `yaml:"engine"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig configures the transport surfaces.
type ServerConfig struct {
	// Addr is the HTTP listen address.
	Addr string `yaml:"addr"`
	// MCP enables the Model Context Protocol surface alongside HTTP.
	MCP MCPConfig `yaml:"mcp"`
}

// MCPConfig configures the MCP surface.
type MCPConfig struct {
	Enabled bool `yaml:"enabled"`
	// Transport is "stdio" or "sse".
	Transport string `yaml:"transport"`
	// Addr is the SSE listen address; ignored for stdio.
	Addr string `yaml:"addr"`
}

// ModelsConfig names the two extraction backends and the fallback model.
// API keys never live in the file; the loader reads ANTHROPIC_API_KEY and
// OPENAI_API_KEY from the environment.
type ModelsConfig struct {
	Primary   ModelRef `yaml:"primary"`
	Secondary ModelRef `yaml:"secondary"`
	// Fallback is the model used for dynamic function-calling turns.
	// Empty reuses the primary.
	Fallback ModelRef `yaml:"fallback"`
	// Timeout bounds each completion request.
	Timeout time.Duration `yaml:"timeout"`

	// Keys are populated from the environment, never from the file.
	AnthropicAPIKey string `yaml:"-"`
	OpenAIAPIKey    string `yaml:"-"`
}

// ModelRef selects a provider and model.
type ModelRef struct {
	// Provider is "anthropic" or "openai".
	Provider string `yaml:"provider"`
	// Model overrides the provider's default model when set.
	Model string `yaml:"model"`
}

// StoreConfig selects and configures session, plan and pattern storage.
type StoreConfig struct {
	// Backend is "memory" or "redis".
	Backend string      `yaml:"backend"`
	Redis   RedisConfig `yaml:"redis"`
	// LockTTL bounds how long a crashed worker can hold a session lock.
	LockTTL time.Duration `yaml:"lockTtl"`
	// EncryptSessions seals session state with AES-GCM before it reaches
	// the backend. The key comes from ASCENDIA_SESSION_KEY (base64, 32
	// bytes decoded).
	EncryptSessions bool `yaml:"encryptSessions"`

	// SessionKey is decoded from the environment, never from the file.
	SessionKey []byte `yaml:"-"`
}

// RedisConfig configures the redis backend.
type RedisConfig struct {
	Address string `yaml:"address"`
	// Password is populated from ASCENDIA_REDIS_PASSWORD when set there.
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// EventsConfig selects the event publisher.
type EventsConfig struct {
	// Backend is "memory" or "nats".
	Backend string `yaml:"backend"`
	// URL is the NATS server URL.
	URL string `yaml:"url"`
	// SubjectPrefix prefixes every published subject.
	SubjectPrefix string `yaml:"subjectPrefix"`
}

// CatalogConfig selects the domain configuration source.
type CatalogConfig struct {
	// Source is "yaml" or "loam".
	Source string `yaml:"source"`
	// Path is the directory holding domain definitions.
	Path string `yaml:"path"`
	// TTL bounds how stale a served domain may be after its file changed.
	TTL time.Duration `yaml:"ttl"`
}

// EngineConfig tunes pipeline behavior.
type EngineConfig struct {
	// SafeWindowDays is the horizon for the safeDateEnd reserved value.
	SafeWindowDays int `yaml:"safeWindowDays"`
	// PlanCacheTTL bounds the in-process plan cache.
	PlanCacheTTL time.Duration `yaml:"planCacheTtl"`
}

// LoggingConfig configures the slog handler.
type LoggingConfig struct {
	// Level is debug, info, warn or error.
	Level string `yaml:"level"`
	// Format is "text" or "json".
	Format string `yaml:"format"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr: ":8080",
			MCP: MCPConfig{
				Enabled:   false,
				Transport: "stdio",
				Addr:      ":8081",
			},
		},
		Models: ModelsConfig{
			Primary:   ModelRef{Provider: "anthropic"},
			Secondary: ModelRef{Provider: "openai"},
			Timeout:   2 * time.Minute,
		},
		Store: StoreConfig{
			Backend: "memory",
			Redis:   RedisConfig{Address: "localhost:6379"},
			LockTTL: 30 * time.Second,
		},
		Events: EventsConfig{
			Backend:       "memory",
			SubjectPrefix: "ascendia",
		},
		Catalog: CatalogConfig{
			Source: "yaml",
			Path:   "domains",
			TTL:    catalog.DefaultTTL,
		},
		Engine: EngineConfig{
			SafeWindowDays: template.DefaultSafeWindowDays,
			PlanCacheTTL:   time.Hour,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Validate checks the assembled configuration.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if c.Server.MCP.Enabled {
		switch c.Server.MCP.Transport {
		case "stdio", "sse":
		default:
			return fmt.Errorf("server.mcp.transport must be stdio or sse, got %q", c.Server.MCP.Transport)
		}
	}

	for name, ref := range map[string]ModelRef{
		"models.primary":   c.Models.Primary,
		"models.secondary": c.Models.Secondary,
	} {
		switch ref.Provider {
		case "anthropic", "openai":
		default:
			return fmt.Errorf("%s.provider must be anthropic or openai, got %q", name, ref.Provider)
		}
	}
	if p := c.Models.Fallback.Provider; p != "" && p != "anthropic" && p != "openai" {
		return fmt.Errorf("models.fallback.provider must be anthropic or openai, got %q", p)
	}

	switch c.Store.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("store.backend must be memory or redis, got %q", c.Store.Backend)
	}
	if c.Store.Backend == "redis" && c.Store.Redis.Address == "" {
		return fmt.Errorf("store.redis.address is required for the redis backend")
	}
	if c.Store.EncryptSessions && len(c.Store.SessionKey) != 32 {
		return fmt.Errorf("store.encryptSessions requires ASCENDIA_SESSION_KEY (base64, 32 bytes decoded)")
	}

	switch c.Events.Backend {
	case "memory", "nats":
	default:
		return fmt.Errorf("events.backend must be memory or nats, got %q", c.Events.Backend)
	}
	if c.Events.Backend == "nats" && c.Events.URL == "" {
		return fmt.Errorf("events.url is required for the nats backend")
	}

	switch c.Catalog.Source {
	case "yaml", "loam":
	default:
		return fmt.Errorf("catalog.source must be yaml or loam, got %q", c.Catalog.Source)
	}
	if c.Catalog.Path == "" {
		return fmt.Errorf("catalog.path is required")
	}

	if c.Engine.SafeWindowDays <= 0 {
		return fmt.Errorf("engine.safeWindowDays must be positive")
	}

	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format)
	}

	return nil
}

// LoadFile parses one YAML layer. Unknown keys are rejected so a typo'd
// setting fails loudly instead of silently keeping its default.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return &c, nil
}

// Merge overlays another layer onto this config; non-zero values in other
// win.
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	if other.Server.Addr != "" {
		c.Server.Addr = other.Server.Addr
	}
	if other.Server.MCP.Enabled {
		c.Server.MCP.Enabled = true
	}
	if other.Server.MCP.Transport != "" {
		c.Server.MCP.Transport = other.Server.MCP.Transport
	}
	if other.Server.MCP.Addr != "" {
		c.Server.MCP.Addr = other.Server.MCP.Addr
	}

	mergeRef(&c.Models.Primary, other.Models.Primary)
	mergeRef(&c.Models.Secondary, other.Models.Secondary)
	mergeRef(&c.Models.Fallback, other.Models.Fallback)
	if other.Models.Timeout != 0 {
		c.Models.Timeout = other.Models.Timeout
	}

	if other.Store.Backend != "" {
		c.Store.Backend = other.Store.Backend
	}
	if other.Store.Redis.Address != "" {
		c.Store.Redis.Address = other.Store.Redis.Address
	}
	if other.Store.Redis.Password != "" {
		c.Store.Redis.Password = other.Store.Redis.Password
	}
	if other.Store.Redis.DB != 0 {
		c.Store.Redis.DB = other.Store.Redis.DB
	}
	if other.Store.LockTTL != 0 {
		c.Store.LockTTL = other.Store.LockTTL
	}
	if other.Store.EncryptSessions {
		c.Store.EncryptSessions = true
	}

	if other.Events.Backend != "" {
		c.Events.Backend = other.Events.Backend
	}
	if other.Events.URL != "" {
		c.Events.URL = other.Events.URL
	}
	if other.Events.SubjectPrefix != "" {
		c.Events.SubjectPrefix = other.Events.SubjectPrefix
	}

	if other.Catalog.Source != "" {
		c.Catalog.Source = other.Catalog.Source
	}
	if other.Catalog.Path != "" {
		c.Catalog.Path = other.Catalog.Path
	}
	if other.Catalog.TTL != 0 {
		c.Catalog.TTL = other.Catalog.TTL
	}

	if other.Engine.SafeWindowDays != 0 {
		c.Engine.SafeWindowDays = other.Engine.SafeWindowDays
	}
	if other.Engine.PlanCacheTTL != 0 {
		c.Engine.PlanCacheTTL = other.Engine.PlanCacheTTL
	}

	if other.Logging.Level != "" {
		c.Logging.Level = other.Logging.Level
	}
	if other.Logging.Format != "" {
		c.Logging.Format = other.Logging.Format
	}
}

func mergeRef(dst *ModelRef, src ModelRef) {
	if src.Provider != "" {
		dst.Provider = src.Provider
	}
	if src.Model != "" {
		dst.Model = src.Model
	}
}

// ApplyEnv pulls secrets from the process environment.
func (c *Config) ApplyEnv() error {
	return c.applyEnv(os.Getenv)
}

// applyEnv pulls secrets from the environment. Secrets never come from the
// YAML layers.
func (c *Config) applyEnv(getenv func(string) string) error {
	c.Models.AnthropicAPIKey = getenv("ANTHROPIC_API_KEY")
	c.Models.OpenAIAPIKey = getenv("OPENAI_API_KEY")

	if pw := getenv("ASCENDIA_REDIS_PASSWORD"); pw != "" {
		c.Store.Redis.Password = pw
	}
	if url := getenv("ASCENDIA_NATS_URL"); url != "" {
		c.Events.URL = url
	}
	if raw := getenv("ASCENDIA_SESSION_KEY"); raw != "" {
		key, err := base64.StdEncoding.DecodeString(raw)
		if err != nil {
			return fmt.Errorf("ASCENDIA_SESSION_KEY is not valid base64: %w", err)
		}
		c.Store.SessionKey = key
	}
	return nil
}
