package config

import "time"

type PlatformConfig struct {
	BackendConfig   BackendConfig   `yaml:"backend"`
	SessionsConfig  SessionsConfig  `yaml:"sessions"`
	AuthConfig      AuthConfig      `yaml:"auth"`
	APIServerConfig APIServerConfig `yaml:"api"`
	MetricsConfig   MetricsConfig   `yaml:"metrics"`
	LogConfig       LogConfig       `yaml:"log"`
	EventsConfig    EventsConfig    `yaml:"events"`
	ContactConfig   *ContactConfig  `yaml:"contact,omitempty"`
}

// BackendConfig points at the hosted document and blob stores.
// Driver "mem" keeps everything in process, "mongo" talks to Endpoint.
type BackendConfig struct {
	Driver               string `yaml:"driver" env:"STUDIO_BACKEND_DRIVER"`
	Endpoint             string `yaml:"endpoint" env:"STUDIO_BACKEND_ENDPOINT"`
	DatabaseID           string `yaml:"databaseID" env:"STUDIO_DATABASE_ID"`
	ProjectsCollectionID string `yaml:"projectsCollection" env:"STUDIO_COLLECTION_PROJECTS_ID"`
	ContactsCollectionID string `yaml:"contactsCollection" env:"STUDIO_COLLECTION_CONTACTS_ID"`
	BucketURL            string `yaml:"bucket" env:"STUDIO_BUCKET_URL"`
}

type SessionsConfig struct {
	Type string `yaml:"type" env:"STUDIO_SESSIONS_TYPE"`
	Path string `yaml:"path" env:"STUDIO_SESSIONS_PATH"`
	URL  string `yaml:"url" env:"STUDIO_SESSIONS_URL"`
}

type AuthConfig struct {
	AdminEmail        string        `yaml:"adminEmail" env:"STUDIO_ADMIN_EMAIL"`
	AdminPasswordHash string        `yaml:"adminPasswordHash" env:"STUDIO_ADMIN_PASSWORD_HASH"`
	SessionSecret     string        `yaml:"sessionSecret" env:"STUDIO_SESSION_SECRET"`
	SessionTTL        time.Duration `yaml:"sessionTTL" env:"STUDIO_SESSION_TTL"`
}

type APIServerConfig struct {
	Port      int       `yaml:"port" env:"STUDIO_API_PORT"`
	PublicURL string    `yaml:"publicURL" env:"STUDIO_PUBLIC_URL"`
	BodyLimit int       `yaml:"bodyLimit,omitempty" env:"STUDIO_BODY_LIMIT"`
	TLS       TLSConfig `yaml:"tls"`
}

type TLSConfig struct {
	Enabled  bool   `yaml:"enabled" env:"STUDIO_TLS_ENABLED"`
	CertFile string `yaml:"cert,omitempty" env:"STUDIO_TLS_CERT"`
	KeyFile  string `yaml:"key,omitempty" env:"STUDIO_TLS_KEY"`
}

type MetricsConfig struct {
	Port int `yaml:"port" env:"STUDIO_METRICS_PORT"`
}

type LogConfig struct {
	Level  string `yaml:"level" env:"STUDIO_LOG_LEVEL"`
	Format string `yaml:"format" env:"STUDIO_LOG_FORMAT"`
	File   string `yaml:"file,omitempty" env:"STUDIO_LOG_FILE"`
}

// EventsConfig carries the topic used to retry orphaned file deletes.
type EventsConfig struct {
	TopicURL    string        `yaml:"topic" env:"STUDIO_EVENTS_TOPIC"`
	AckDeadline time.Duration `yaml:"ackDeadline" env:"STUDIO_EVENTS_ACK_DEADLINE"`
}

// ContactConfig seeds the contacts collection when it is empty.
type ContactConfig struct {
	Phone    string `yaml:"phone"`
	WhatsApp string `yaml:"whatsapp"`
	Email    string `yaml:"email"`
}
