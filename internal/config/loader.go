package config

import (
	"log/slog"
	"os"
	"path/filepath"
)

const (
	// ProjectConfigFile is searched for in the working directory and its
	// parents.
	ProjectConfigFile = "ascendia.yaml"
	// UserConfigDir holds the user-level config relative to the home dir.
	UserConfigDir = ".config/ascendia"
	// UserConfigFile is the user-level config file name.
	UserConfigFile = "config.yaml"
)

// Loader assembles configuration from the layered sources.
type Loader struct {
	log    *slog.Logger
	getenv func(string) string
	// workdir anchors the project-config walk; empty means os.Getwd.
	workdir string
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithWorkdir anchors the project-config search at dir instead of the
// process working directory.
func WithWorkdir(dir string) LoaderOption {
	return func(l *Loader) { l.workdir = dir }
}

// WithEnv overrides the environment lookup.
func WithEnv(getenv func(string) string) LoaderOption {
	return func(l *Loader) {
		if getenv != nil {
			l.getenv = getenv
		}
	}
}

// NewLoader creates a configuration loader.
func NewLoader(log *slog.Logger, opts ...LoaderOption) *Loader {
	if log == nil {
		log = slog.Default()
	}
	l := &Loader{log: log, getenv: os.Getenv}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load assembles the configuration: defaults, then the user file, then
// the project file found by walking parent directories, then environment
// secrets. The result is validated before it is returned.
func (l *Loader) Load() (*Config, error) {
	c := Default()

	if path := l.userConfigPath(); path != "" {
		layer, err := LoadFile(path)
		switch {
		case err == nil:
			l.log.Debug("loaded user config", "path", path)
			c.Merge(layer)
		case os.IsNotExist(err):
		default:
			return nil, err
		}
	}

	if path := l.findProjectConfig(); path != "" {
		layer, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		l.log.Debug("loaded project config", "path", path)
		c.Merge(layer)
	}

	if err := c.applyEnv(l.getenv); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (l *Loader) userConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, UserConfigDir, UserConfigFile)
}

// findProjectConfig walks from the working directory to the filesystem
// root looking for ascendia.yaml.
func (l *Loader) findProjectConfig() string {
	dir := l.workdir
	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return ""
		}
		dir = cwd
	}

	for {
		path := filepath.Join(dir, ProjectConfigFile)
		if _, err := os.Stat(path); err == nil {
			return path
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}
