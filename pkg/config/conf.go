package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/mchmarny/alphavote/pkg/cvr"
	"github.com/mchmarny/alphavote/pkg/election"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	configFileName = "config.yaml"
	dirMode        = 0700
	fileMode       = 0600

	FormatJSON = "json"
	FormatYAML = "yaml"

	DefaultWinners = 3
	DefaultPort    = 8080
)

// Config represents app config object.
type Config struct {
	Winners  int     `yaml:"winners"`
	Alpha    float64 `yaml:"alpha"`
	MaxAlpha float64 `yaml:"maxAlpha"`
	// DB is the SQLite file path or postgres:// URL; the home dir file when empty.
	DB     string      `yaml:"db,omitempty"`
	Format string      `yaml:"format"`
	CVR    cvr.Options `yaml:"cvr"`
	Server Server      `yaml:"server"`
}

// Server configures the local API.
type Server struct {
	Port int `yaml:"port"`
}

// Default returns the config written on first use.
func Default() *Config {
	return &Config{
		Winners:  DefaultWinners,
		Alpha:    election.DefaultAlpha,
		MaxAlpha: election.DefaultMaxAlpha,
		Format:   FormatJSON,
		CVR:      cvr.DefaultOptions(),
		Server:   Server{Port: DefaultPort},
	}
}

// Election returns the election config for the configured values.
func (c *Config) Election() election.Config {
	cfg := election.DefaultConfig(c.Winners)
	cfg.Alpha = c.Alpha
	cfg.MaxAlpha = c.MaxAlpha
	return cfg
}

func (c *Config) Validate() error {
	if err := c.Election().Validate(); err != nil {
		return err
	}
	switch c.Format {
	case FormatJSON, FormatYAML:
	default:
		return errors.Errorf("unsupported format: %s", c.Format)
	}
	if c.CVR.FirstColumn < 0 {
		return errors.Errorf("invalid cvr first column: %d", c.CVR.FirstColumn)
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return errors.Errorf("invalid server port: %d", c.Server.Port)
	}
	return nil
}

func Save(dirPath string, c *Config) error {
	if dirPath == "" {
		return errors.New("config directory required")
	}
	if c == nil {
		return errors.New("config required")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "failed to marshal config")
	}
	path := filepath.Join(dirPath, configFileName)
	if err := os.WriteFile(path, b, fileMode); err != nil {
		return errors.Wrapf(err, "failed to write config file: %s", configFileName)
	}
	return nil
}

// ReadOrCreate reads app config from directory or creates a new one.
// Values missing from the file keep their defaults.
func ReadOrCreate(dirPath string) (*Config, error) {
	if dirPath == "" {
		return nil, errors.New("config directory required")
	}

	if err := os.MkdirAll(dirPath, dirMode); err != nil {
		return nil, errors.Wrapf(err, "failed to create dir: %s", dirPath)
	}

	path := filepath.Join(dirPath, configFileName)

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		slog.Debug("creating default config", "path", path)
		if err := Save(dirPath, Default()); err != nil {
			return nil, errors.Wrap(err, "failed to create default config")
		}
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "error reading config file: %s", path)
	}

	c := Default()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, errors.Wrapf(err, "error unmarshalling config file: %s", path)
	}
	if err := c.Validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid config file: %s", path)
	}
	return c, nil
}

// GetOrCreateHomeDir returns the home directory for the current user.
// The create flag is set to true if the directory was created.
func GetOrCreateHomeDir(name string) (path string, created bool, err error) {
	if name == "" {
		return "", false, errors.New("name cannot be empty")
	}

	if !strings.HasPrefix(name, ".") {
		name = "." + name
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", false, errors.Wrap(err, "failed to get user home dir")
	}
	slog.Debug("home dir", "path", home)

	dir := filepath.Join(home, name)
	if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
		slog.Debug("creating dir", "path", dir)
		err := os.Mkdir(dir, dirMode)
		if err != nil {
			return "", false, errors.Wrapf(err, "failed to create dir: %s", dir)
		}
		created = true
	}
	return dir, created, nil
}
