package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

const (
	DriverMem   = "mem"
	DriverMongo = "mongo"

	SessionsLocal    = "local"
	SessionsDocstore = "docstore"
)

var ErrInvalidConfig = errors.New("invalid config")

// Default returns a config that runs fully in memory except for the
// session file.
func Default() *PlatformConfig {
	return &PlatformConfig{
		BackendConfig: BackendConfig{
			Driver:               DriverMem,
			DatabaseID:           "studio",
			ProjectsCollectionID: "projects",
			ContactsCollectionID: "contacts",
			BucketURL:            "mem://",
		},
		SessionsConfig: SessionsConfig{
			Type: SessionsLocal,
			Path: "./sessions.db",
		},
		AuthConfig: AuthConfig{
			SessionTTL: 24 * time.Hour,
		},
		APIServerConfig: APIServerConfig{
			Port:      8080,
			BodyLimit: 10 * 1024 * 1024,
		},
		MetricsConfig: MetricsConfig{
			Port: 8888,
		},
		LogConfig: LogConfig{
			Level:  "info",
			Format: "text",
		},
		EventsConfig: EventsConfig{
			TopicURL:    "mem://orphaned-files",
			AckDeadline: time.Minute,
		},
	}
}

func LoadConfig() (*PlatformConfig, error) {
	return LoadConfigFromFile("./config.yaml")
}

// LoadConfigFromFile layers defaults, the YAML file (if present) and
// STUDIO_* environment variables, in that order.
func LoadConfigFromFile(filename string) (*PlatformConfig, error) {
	config := Default()

	content, err := os.ReadFile(filename)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, err
	default:
		if err := yaml.Unmarshal(content, config); err != nil {
			return nil, fmt.Errorf("parse %s: %w", filename, err)
		}
	}

	if err := env.Parse(config); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *PlatformConfig) Validate() error {
	switch c.BackendConfig.Driver {
	case DriverMem:
	case DriverMongo:
		if c.BackendConfig.Endpoint == "" || c.BackendConfig.DatabaseID == "" {
			return fmt.Errorf("%w: mongo driver needs endpoint and databaseID", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown backend driver %q", ErrInvalidConfig, c.BackendConfig.Driver)
	}
	if c.BackendConfig.ProjectsCollectionID == "" || c.BackendConfig.ContactsCollectionID == "" {
		return fmt.Errorf("%w: collection ids are required", ErrInvalidConfig)
	}
	if c.BackendConfig.BucketURL == "" {
		return fmt.Errorf("%w: bucket url is required", ErrInvalidConfig)
	}

	switch c.SessionsConfig.Type {
	case SessionsLocal:
		if c.SessionsConfig.Path == "" {
			return fmt.Errorf("%w: local sessions need a path", ErrInvalidConfig)
		}
	case SessionsDocstore:
		if c.SessionsConfig.URL == "" {
			return fmt.Errorf("%w: docstore sessions need a url", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown sessions type %q", ErrInvalidConfig, c.SessionsConfig.Type)
	}

	if c.AuthConfig.AdminEmail == "" || c.AuthConfig.AdminPasswordHash == "" {
		return fmt.Errorf("%w: admin credentials are required", ErrInvalidConfig)
	}
	if len(c.AuthConfig.SessionSecret) < 16 {
		return fmt.Errorf("%w: session secret must be at least 16 bytes", ErrInvalidConfig)
	}
	if c.AuthConfig.SessionTTL <= 0 {
		return fmt.Errorf("%w: session ttl must be positive", ErrInvalidConfig)
	}
	return nil
}
