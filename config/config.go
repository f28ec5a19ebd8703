// Package config loads the service configuration from a JSON file and the
// environment.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"ai_creation_broker/document"
	"ai_creation_broker/media"
)

// Defaults applied by LoadConfig when the file leaves a value empty.
const (
	DefaultServerAddr      = ":8080"
	DefaultProviderTimeout = 60 * time.Second
	DefaultMaxUploadBytes  = 10 << 20
	DefaultStoreDriver     = "sqlite"
	DefaultSQLitePath      = "data/creations.db"
	DefaultMongoDatabase   = "ai_creation_broker"
)

// Config is the whole service configuration.
type Config struct {
	ServerAddr string `json:"server_addr,omitempty"`
	// TLSDomain turns on autocert TLS for the given host.
	TLSDomain string `json:"tls_domain,omitempty"`

	Auth       AuthConfig             `json:"auth"`
	LLM        *LLMConfig             `json:"llm,omitempty"`
	ClipDrop   media.ClipDropConfig   `json:"clipdrop"`
	Cloudinary media.CloudinaryConfig `json:"cloudinary"`
	Store      StoreConfig            `json:"store"`

	ProviderTimeout Duration `json:"provider_timeout,omitempty"`
	ResumeCharLimit int      `json:"resume_char_limit,omitempty"`
	MaxUploadBytes  int64    `json:"max_upload_bytes,omitempty"`
}

// AuthConfig holds the bearer-token signing secret.
type AuthConfig struct {
	JWTSecret string `json:"jwt_secret"`
}

// LLMConfig 文本生成模型配置。provider 取值 groq / openai / deepseek。
type LLMConfig struct {
	Provider string `json:"provider,omitempty"`
	Model    string `json:"model,omitempty"`
	APIKey   string `json:"api_key,omitempty"`
	BaseURL  string `json:"base_url,omitempty"`
}

// StoreConfig selects the persistence backend: sqlite, mongo or memory.
type StoreConfig struct {
	Driver   string `json:"driver,omitempty"`
	DSN      string `json:"dsn,omitempty"`
	Database string `json:"database,omitempty"`
}

// Duration is a time.Duration written as "60s" in JSON.
type Duration time.Duration

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("duration must be a string like \"60s\": %w", err)
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// LoadConfig reads path, applies environment overrides and fills defaults.
// A missing file is not an error when the environment carries everything.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return Config{}, err
	}
	if err := cfg.applyEnv(os.Getenv); err != nil {
		return Config{}, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	if v := getenv("JWT_SECRET"); v != "" {
		c.Auth.JWTSecret = v
	}
	if v := getenv("GROQ_API_KEY"); v != "" {
		if c.LLM == nil {
			c.LLM = &LLMConfig{}
		}
		c.LLM.APIKey = v
	}
	if v := getenv("CLIPDROP_API_KEY"); v != "" {
		c.ClipDrop.APIKey = v
	}
	if v := getenv("CLOUDINARY_URL"); v != "" {
		parsed, err := media.ParseCloudinaryURL(v)
		if err != nil {
			return fmt.Errorf("CLOUDINARY_URL: %w", err)
		}
		c.Cloudinary.CloudName = parsed.CloudName
		c.Cloudinary.APIKey = parsed.APIKey
		c.Cloudinary.APISecret = parsed.APISecret
	}
	if v := getenv("DATABASE_URL"); v != "" {
		driver, dsn, err := parseDatabaseURL(v)
		if err != nil {
			return fmt.Errorf("DATABASE_URL: %w", err)
		}
		c.Store.Driver, c.Store.DSN = driver, dsn
	}
	return nil
}

// parseDatabaseURL maps DATABASE_URL onto a store driver. Mongo URIs select
// mongo; sqlite:// URLs, file: URIs and bare paths select sqlite.
func parseDatabaseURL(v string) (driver, dsn string, err error) {
	switch {
	case strings.HasPrefix(v, "mongodb://"), strings.HasPrefix(v, "mongodb+srv://"):
		return "mongo", v, nil
	case strings.HasPrefix(v, "sqlite://"):
		path := strings.TrimPrefix(v, "sqlite://")
		if path == "" {
			return "", "", errors.New("sqlite url has no path")
		}
		return "sqlite", path, nil
	case strings.HasPrefix(v, "file:"):
		return "sqlite", v, nil
	}
	if i := strings.Index(v, "://"); i >= 0 {
		return "", "", fmt.Errorf("unsupported scheme %q; use mongodb, mongodb+srv, sqlite or a file path", v[:i])
	}
	return "sqlite", v, nil
}

func (c *Config) applyDefaults() {
	if c.ServerAddr == "" {
		c.ServerAddr = DefaultServerAddr
	}
	if c.LLM == nil {
		c.LLM = &LLMConfig{}
	}
	if c.LLM.Provider == "" {
		c.LLM.Provider = "groq"
	}
	if c.ProviderTimeout <= 0 {
		c.ProviderTimeout = Duration(DefaultProviderTimeout)
	}
	if c.ResumeCharLimit <= 0 {
		c.ResumeCharLimit = document.DefaultCharLimit
	}
	if c.MaxUploadBytes <= 0 {
		c.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if c.Store.Driver == "" {
		c.Store.Driver = DefaultStoreDriver
	}
	switch c.Store.Driver {
	case "sqlite":
		if c.Store.DSN == "" {
			c.Store.DSN = DefaultSQLitePath
		}
	case "mongo":
		if c.Store.Database == "" {
			c.Store.Database = DefaultMongoDatabase
		}
	}
}

// Validate reports the first missing required value. With mock set the
// provider credentials are not required.
func (c Config) Validate(mock bool) error {
	if c.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret missing; provide it in config or JWT_SECRET")
	}
	switch c.Store.Driver {
	case "sqlite", "memory":
	case "mongo":
		if c.Store.DSN == "" {
			return errors.New("store.dsn missing for mongo; provide it in config or DATABASE_URL")
		}
	default:
		return fmt.Errorf("store driver %s not supported", c.Store.Driver)
	}
	if mock {
		return nil
	}
	if c.LLM == nil || c.LLM.APIKey == "" {
		return errors.New("llm.api_key missing; provide it in config or GROQ_API_KEY")
	}
	if c.ClipDrop.APIKey == "" {
		return errors.New("clipdrop.api_key missing; provide it in config or CLIPDROP_API_KEY")
	}
	if c.Cloudinary.CloudName == "" || c.Cloudinary.APIKey == "" || c.Cloudinary.APISecret == "" {
		return errors.New("cloudinary credentials missing; provide cloudinary.* in config or CLOUDINARY_URL")
	}
	return nil
}
