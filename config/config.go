// Package config loads and validates the client configuration: target host,
// remote base path and SSH credentials. The resulting Config value is passed
// explicitly to every constructor; there is no process-global state.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

const DefaultPath = "comet.yml"

// ConfigError reports a missing or invalid configuration field.
type ConfigError struct {
	Field string
	Err   string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Err)
}

// Returns true if an error is of type ConfigError.
func IsConfigError(err error) bool {
	if _, ok := err.(*ConfigError); ok {
		return true
	}
	return false
}

type Config struct {
	// Host of the cluster login node.
	Host string `yaml:"host"`
	// Port for SSH, defaults to 22.
	Port int `yaml:"port"`
	// User and Password/KeyFile are overlaid from COMET_SSH_* variables
	// and are not expected to live in the YAML file.
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	KeyFile  string `yaml:"key_file"`
	// RemoteBasePath is the directory under which per-job directories are created.
	RemoteBasePath string `yaml:"remote_base_path"`
	// DefaultPartition is used when a submission does not name one.
	DefaultPartition string `yaml:"default_partition"`
	// PythonBin is the interpreter used for the remote entry point.
	PythonBin string `yaml:"python_bin"`
	// DialTimeout bounds the SSH connection attempt.
	DialTimeout time.Duration `yaml:"dial_timeout"`
	// KnownHostsFile enables host key verification when set; otherwise any
	// host key is accepted.
	KnownHostsFile string `yaml:"known_hosts_file"`
	// NoisePatterns are substrings of remote stderr lines that are cluster
	// login chatter (module system banners) rather than real errors.
	NoisePatterns []string `yaml:"noise_patterns"`
}

// Load reads the YAML config file at path (DefaultPath when empty), then
// overlays SSH credentials from the environment. A .env file in the working
// directory is honored if present.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err == nil {
		log.Debug("loaded environment from .env")
	}

	if path == "" {
		path = DefaultPath
	}
	cb, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigError{Field: "config file", Err: err.Error()}
	}
	var cfg Config
	if err := yaml.Unmarshal(cb, &cfg); err != nil {
		return nil, &ConfigError{Field: "config file", Err: err.Error()}
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return &cfg, nil
}

// FromEnv builds a Config without a YAML file, for callers that configure
// everything through the environment.
func FromEnv(host, remoteBasePath string) *Config {
	if err := godotenv.Load(); err == nil {
		log.Debug("loaded environment from .env")
	}
	cfg := &Config{
		Host:           host,
		RemoteBasePath: remoteBasePath,
	}
	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyEnv() {
	if v := os.Getenv("COMET_SSH_USER"); v != "" {
		c.User = v
	}
	if v := os.Getenv("COMET_SSH_PASSWORD"); v != "" {
		c.Password = v
	}
	if v := os.Getenv("COMET_SSH_KEYFILE"); v != "" {
		c.KeyFile = v
	}
	if v := os.Getenv("COMET_SSH_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Port = port
		} else {
			log.Warnf("ignoring invalid COMET_SSH_PORT %q", v)
		}
	}
}

func (c *Config) applyDefaults() {
	if c.Port == 0 {
		c.Port = 22
	}
	if c.DefaultPartition == "" {
		c.DefaultPartition = "debug"
	}
	if c.PythonBin == "" {
		c.PythonBin = "python"
	}
	if c.DialTimeout == 0 {
		c.DialTimeout = 30 * time.Second
	}
	if len(c.NoisePatterns) == 0 {
		c.NoisePatterns = []string{"bsc/1.0"}
	}
}

// Validate checks that every field required to reach the cluster is present.
func (c *Config) Validate() error {
	if c.Host == "" {
		return &ConfigError{Field: "host", Err: "not set"}
	}
	if c.RemoteBasePath == "" {
		return &ConfigError{Field: "remote_base_path", Err: "not set"}
	}
	if c.User == "" {
		return &ConfigError{Field: "user", Err: "not set (COMET_SSH_USER)"}
	}
	if c.Password == "" && c.KeyFile == "" {
		return &ConfigError{
			Field: "password",
			Err:   "neither COMET_SSH_PASSWORD nor COMET_SSH_KEYFILE is set",
		}
	}
	return nil
}

// Addr returns the host:port dial target.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// IsNoise reports whether a stderr line matches one of the configured noise
// patterns and should not be treated as an error indicator.
func (c *Config) IsNoise(line string) bool {
	for _, p := range c.NoisePatterns {
		if p != "" && strings.Contains(line, p) {
			return true
		}
	}
	return false
}
