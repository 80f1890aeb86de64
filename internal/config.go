package internal

import (
	"fmt"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModePassword = "password"
)

// Store backends.
const (
	BackendDropbox = "dropbox"
	BackendMemory  = "memory"
)

// Config represents the application configuration.
type Config struct {
	App   ApplicationConfig `yaml:"app"`
	Store StoreConfig       `yaml:"store"`
	Auth  AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Store.Validate(); err != nil {
		return err
	}
	return c.Auth.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// StoreConfig selects and configures the remote object-store backend.
//
// Backend is one of:
//   - "dropbox": the real thing; requires the OAuth2 app credentials.
//   - "memory": an in-process store, suitable for tests and local demos.
type StoreConfig struct {
	Backend string        `yaml:"backend"`
	Root    string        `yaml:"root"`
	Dropbox DropboxConfig `yaml:"dropbox"`
}

// DropboxConfig holds the Dropbox OAuth2 app credentials. Values are usually
// injected from the environment via ${VAR} expansion in the config file.
type DropboxConfig struct {
	AppKey       string `yaml:"app_key"`
	AppSecret    string `yaml:"app_secret"`
	RefreshToken string `yaml:"refresh_token"`
}

// Validate validates the store configuration.
func (c *StoreConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Backend, validation.Required, validation.In(BackendDropbox, BackendMemory)),
		validation.Field(&c.Root, validation.Required),
	); err != nil {
		return err
	}
	if c.Backend == BackendDropbox {
		if c.Dropbox.AppKey == "" || c.Dropbox.AppSecret == "" || c.Dropbox.RefreshToken == "" {
			return fmt.Errorf("store: backend is %q but dropbox credentials are incomplete", BackendDropbox)
		}
	}
	return nil
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "password": username/password login issuing session tokens.
type AuthConfig struct {
	Mode         string `yaml:"mode"`
	Username     string `yaml:"username"`
	Password     string `yaml:"password"`
	PasswordHash string `yaml:"password_hash"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	// Normalise empty mode to "disabled" for backward compatibility.
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModePassword)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModePassword {
		if c.Username == "" {
			return fmt.Errorf("auth: mode is %q but username is empty", AuthModePassword)
		}
		if c.Password == "" && c.PasswordHash == "" {
			return fmt.Errorf("auth: mode is %q but no password or password_hash is set", AuthModePassword)
		}
	}
	return nil
}

// Enabled returns true when authentication is active.
func (c *AuthConfig) Enabled() bool {
	return c.Mode == AuthModePassword
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Store: StoreConfig{
			Backend: BackendMemory,
			Root:    "/recipes",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
