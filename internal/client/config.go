package client

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/docpipe/docpipe/internal/util"
	"sigs.k8s.io/yaml"
)

const (
	DefaultServer = "http://localhost:3443"

	// ConfigPathEnvKey overrides the location of the client config file.
	ConfigPathEnvKey = "DOCPIPE_CLIENT_CONFIG"
)

// Config holds the information needed to reach a docpipe API server.
type Config struct {
	Service Service `json:"service"`
	Polling Polling `json:"polling,omitempty"`
}

// Service describes the API endpoint. Server is the gateway or api base URL.
type Service struct {
	Server string `json:"server"`
}

type Polling struct {
	IntervalSeconds     int `json:"intervalSeconds,omitempty"`
	StatusMaxAttempts   int `json:"statusMaxAttempts,omitempty"`
	MetadataMaxAttempts int `json:"metadataMaxAttempts,omitempty"`
}

func NewDefault() *Config {
	return &Config{
		Service: Service{Server: DefaultServer},
	}
}

// DefaultConfigPath returns ~/.docpipe/client.yaml unless overridden by the environment.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return util.GetEnv(ConfigPathEnvKey, filepath.Join(home, ".docpipe", "client.yaml"))
}

func ParseConfigFile(filename string) (*Config, error) {
	contents, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	config := NewDefault()
	if err := yaml.Unmarshal(contents, config); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// LoadConfig reads filename, falling back to the defaults when the file does not exist.
func LoadConfig(filename string) (*Config, error) {
	config, err := ParseConfigFile(filename)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return NewDefault(), nil
		}
		return nil, err
	}
	return config, nil
}

func (c *Config) Persist(filename string) error {
	contents, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(filename), 0700); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	if err := os.WriteFile(filename, contents, 0600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// PollerOptions turns the polling section into poller options, skipping unset values.
func (c *Config) PollerOptions() []PollerOption {
	opts := []PollerOption{}
	if c.Polling.IntervalSeconds > 0 {
		opts = append(opts, WithInterval(time.Duration(c.Polling.IntervalSeconds)*time.Second))
	}
	if c.Polling.StatusMaxAttempts > 0 {
		opts = append(opts, WithStatusMaxAttempts(c.Polling.StatusMaxAttempts))
	}
	if c.Polling.MetadataMaxAttempts > 0 {
		opts = append(opts, WithMetadataMaxAttempts(c.Polling.MetadataMaxAttempts))
	}
	return opts
}

func (c *Config) Validate() error {
	validationErrors := validateService(c.Service)
	if c.Polling.IntervalSeconds < 0 || c.Polling.StatusMaxAttempts < 0 || c.Polling.MetadataMaxAttempts < 0 {
		validationErrors = append(validationErrors, fmt.Errorf("polling values must not be negative"))
	}
	if len(validationErrors) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(validationErrors...))
	}
	return nil
}

func validateService(service Service) []error {
	validationErrors := make([]error, 0)
	if len(service.Server) == 0 {
		validationErrors = append(validationErrors, fmt.Errorf("no server found"))
		return validationErrors
	}
	u, err := url.Parse(service.Server)
	if err != nil {
		validationErrors = append(validationErrors, fmt.Errorf("invalid server format %q: %w", service.Server, err))
	} else if len(u.Hostname()) == 0 {
		validationErrors = append(validationErrors, fmt.Errorf("invalid server format %q: no hostname", service.Server))
	}
	return validationErrors
}
