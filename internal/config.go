package internal

import (
	"fmt"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/notefiler/internal/catalog"
	"github.com/starford/notefiler/internal/llm"
	"github.com/starford/notefiler/internal/notes"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Classification fallback policies.
const (
	FallbackNone    = "none"
	FallbackKeyword = "keyword"
)

// Config represents the application configuration.
type Config struct {
	App        ApplicationConfig `yaml:"app"`
	Storage    StorageConfig     `yaml:"storage"`
	SQLite     SQLiteConfig      `yaml:"sqlite"`
	Auth       AuthConfig        `yaml:"auth"`
	LLM        LLMConfig         `yaml:"llm"`
	Classifier ClassifierConfig  `yaml:"classifier"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Storage.Validate(); err != nil {
		return err
	}
	if err := c.SQLite.Validate(); err != nil {
		return err
	}
	if err := c.Auth.Validate(); err != nil {
		return err
	}
	if err := c.LLM.Validate(); err != nil {
		return err
	}
	return c.Classifier.Validate()
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

// StorageConfig locates the notes tree.
//
// Root may be left empty; the root saved with the set-root command is used
// instead. With neither, every store fails with a storage-unavailable error.
type StorageConfig struct {
	Root      string `yaml:"root"`
	NotesDir  string `yaml:"notes_dir"`
	IndexFile string `yaml:"index_file"`
}

// Validate validates the storage configuration.
func (c *StorageConfig) Validate() error {
	if c.NotesDir == "" {
		c.NotesDir = notes.DefaultRoot
	}
	if c.IndexFile == "" {
		c.IndexFile = catalog.DefaultIndexName
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.NotesDir, validation.By(singleSegment)),
		validation.Field(&c.IndexFile, validation.By(singleSegment)),
	)
}

func singleSegment(v any) error {
	s, _ := v.(string)
	if s == "." || s == ".." {
		return fmt.Errorf("must be a plain name")
	}
	for _, r := range s {
		if r == '/' || r == '\\' {
			return fmt.Errorf("must not contain path separators")
		}
	}
	return nil
}

// SQLiteConfig holds SQLite database configuration.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local use.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// LLMConfig selects the completion provider used by capture.
// An empty provider disables capture; stores with a caller-supplied model
// response or override still work.
type LLMConfig struct {
	Provider    string  `yaml:"provider"`
	Model       string  `yaml:"model"`
	APIKey      string  `yaml:"api_key"`
	BaseURL     string  `yaml:"base_url"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float32 `yaml:"temperature"`
	Timeout     int     `yaml:"timeout"`
	Prompt      string  `yaml:"prompt"`
}

// Validate validates the LLM configuration.
func (c *LLMConfig) Validate() error {
	providers := make([]any, 0, len(llm.Providers))
	for _, p := range llm.Providers {
		providers = append(providers, p)
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.Provider, validation.In(providers...)),
		validation.Field(&c.MaxTokens, validation.Min(0)),
		validation.Field(&c.Temperature, validation.Min(float32(0)), validation.Max(float32(2))),
		validation.Field(&c.Timeout, validation.Min(0)),
		validation.Field(&c.BaseURL, validation.When(c.Provider == llm.ProviderCustom, validation.Required)),
	)
}

// Enabled reports whether a provider is configured.
func (c *LLMConfig) Enabled() bool {
	return c.Provider != ""
}

// ClientConfig returns the settings for llm.New.
func (c *LLMConfig) ClientConfig() llm.Config {
	return llm.Config{
		Provider:    c.Provider,
		Model:       c.Model,
		APIKey:      c.APIKey,
		BaseURL:     c.BaseURL,
		MaxTokens:   c.MaxTokens,
		Temperature: c.Temperature,
		Timeout:     c.Timeout,
	}
}

// ClassifierConfig selects what happens when no usable classification exists.
type ClassifierConfig struct {
	Fallback string `yaml:"fallback"`
}

// Validate validates the classifier configuration.
func (c *ClassifierConfig) Validate() error {
	if c.Fallback == "" {
		c.Fallback = FallbackNone
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.Fallback, validation.In(FallbackNone, FallbackKeyword)),
	)
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
		Storage: StorageConfig{
			NotesDir:  notes.DefaultRoot,
			IndexFile: catalog.DefaultIndexName,
		},
		SQLite: SQLiteConfig{
			Path: "./notefiler.db",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
		LLM: LLMConfig{
			MaxTokens:   llm.DefaultMaxTokens,
			Temperature: llm.DefaultTemperature,
			Timeout:     llm.DefaultTimeoutSecs,
		},
		Classifier: ClassifierConfig{
			Fallback: FallbackNone,
		},
	}
}
