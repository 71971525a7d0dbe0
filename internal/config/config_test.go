package config

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sam-lateef/Ascendia-booking-sub000/internal/logging"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func env(vars map[string]string) func(string) string {
	return func(key string) string { return vars[key] }
}

func TestDefaultValidates(t *testing.T) {
	c := Default()
	require.NoError(t, c.Validate())
	assert.Equal(t, ":8080", c.Server.Addr)
	assert.Equal(t, "memory", c.Store.Backend)
	assert.Equal(t, "anthropic", c.Models.Primary.Provider)
	assert.Equal(t, "openai", c.Models.Secondary.Provider)
}

func TestProjectLayerOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ProjectConfigFile, `
server:
  addr: ":9000"
store:
  backend: redis
  redis:
    address: redis.internal:6379
catalog:
  path: ./config/domains
engine:
  safeWindowDays: 30
`)

	l := NewLoader(logging.NewNop(), WithWorkdir(dir), WithEnv(env(nil)))
	c, err := l.Load()
	require.NoError(t, err)

	assert.Equal(t, ":9000", c.Server.Addr)
	assert.Equal(t, "redis", c.Store.Backend)
	assert.Equal(t, "redis.internal:6379", c.Store.Redis.Address)
	assert.Equal(t, 30, c.Engine.SafeWindowDays)
	// Untouched settings keep their defaults.
	assert.Equal(t, "memory", c.Events.Backend)
	assert.Equal(t, 30*time.Second, c.Store.LockTTL)
}

func TestProjectConfigFoundInParentDirectory(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, ProjectConfigFile, "server:\n  addr: \":7000\"\n")
	nested := filepath.Join(root, "services", "api")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	l := NewLoader(logging.NewNop(), WithWorkdir(nested), WithEnv(env(nil)))
	c, err := l.Load()
	require.NoError(t, err)
	assert.Equal(t, ":7000", c.Server.Addr)
}

func TestEnvSuppliesSecrets(t *testing.T) {
	key := base64.StdEncoding.EncodeToString(make([]byte, 32))
	dir := t.TempDir()
	writeFile(t, dir, ProjectConfigFile, "store:\n  encryptSessions: true\n")

	l := NewLoader(logging.NewNop(), WithWorkdir(dir), WithEnv(env(map[string]string{
		"ANTHROPIC_API_KEY":       "sk-ant-test",
		"OPENAI_API_KEY":          "sk-oai-test",
		"ASCENDIA_REDIS_PASSWORD": "hunter2",
		"ASCENDIA_SESSION_KEY":    key,
	})))
	c, err := l.Load()
	require.NoError(t, err)

	assert.Equal(t, "sk-ant-test", c.Models.AnthropicAPIKey)
	assert.Equal(t, "sk-oai-test", c.Models.OpenAIAPIKey)
	assert.Equal(t, "hunter2", c.Store.Redis.Password)
	assert.Len(t, c.Store.SessionKey, 32)
}

func TestEncryptionWithoutKeyRejected(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ProjectConfigFile, "store:\n  encryptSessions: true\n")

	l := NewLoader(logging.NewNop(), WithWorkdir(dir), WithEnv(env(nil)))
	_, err := l.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ASCENDIA_SESSION_KEY")
}

func TestUnknownKeyRejected(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, ProjectConfigFile, "server:\n  adress: \":9000\"\n")

	_, err := LoadFile(path)
	require.Error(t, err, "a typo'd key must fail loudly")
}

func TestValidateCatchesBadValues(t *testing.T) {
	cases := map[string]func(*Config){
		"bad store backend":    func(c *Config) { c.Store.Backend = "dynamo" },
		"bad events backend":   func(c *Config) { c.Events.Backend = "kafka" },
		"bad provider":         func(c *Config) { c.Models.Primary.Provider = "bard" },
		"bad catalog source":   func(c *Config) { c.Catalog.Source = "toml" },
		"bad log format":       func(c *Config) { c.Logging.Format = "xml" },
		"bad mcp transport":    func(c *Config) { c.Server.MCP.Enabled = true; c.Server.MCP.Transport = "grpc" },
		"non-positive horizon": func(c *Config) { c.Engine.SafeWindowDays = 0 },
		"nats without url":     func(c *Config) { c.Events.Backend = "nats"; c.Events.URL = "" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := Default()
			mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}
