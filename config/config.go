// Package config loads and validates the client configuration.
//
// A Config is read once at startup from an optional YAML or TOML file,
// overridden by command-line flags in cmd/mcp-cli, and then passed
// explicitly to the constructors that need it. API keys never live here;
// they come from the environment or flags only.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/fwojciec/mcpcli"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Defaults applied by Default.
const (
	DefaultURL      = "http://localhost:11434"
	DefaultProvider = "ollama"
	DefaultTimeout  = 60
	DefaultLogLevel = "warn"
)

// Config holds everything the binary needs to wire a session.
type Config struct {
	// URL is the generation endpoint base (ollama provider only).
	URL string `yaml:"url" toml:"url" validate:"required,url"`
	// MCPURL is the remote tool server base. Empty disables remote tools.
	MCPURL    string `yaml:"mcp_url" toml:"mcp_url" validate:"omitempty,url"`
	Provider  string `yaml:"provider" toml:"provider" validate:"oneof=ollama anthropic gemini"`
	Model     string `yaml:"model" toml:"model"`
	Stream    bool   `yaml:"stream" toml:"stream"`
	AutoTools bool   `yaml:"auto_tools" toml:"auto_tools"`
	// TimeoutSeconds bounds each HTTP request. Zero means no timeout.
	TimeoutSeconds float64 `yaml:"timeout" toml:"timeout" validate:"gte=0"`
	NoVerify       bool    `yaml:"no_verify" toml:"no_verify"`
	ResourcesDir   string  `yaml:"resources_dir" toml:"resources_dir"`

	// HKubeAPIURL and APIPaths configure the built-in hkube tool module.
	HKubeAPIURL string            `yaml:"hkube_api_url" toml:"hkube_api_url" validate:"omitempty,url"`
	APIPaths    map[string]string `yaml:"api_paths" toml:"api_paths"`

	Log Log `yaml:"log" toml:"log"`
}

// Log configures the process logger.
type Log struct {
	Level string `yaml:"level" toml:"level" validate:"oneof=trace debug info warn error disabled"`
	// File, when set, receives JSON log lines in addition to stderr.
	File string `yaml:"file" toml:"file"`
	// Redact masks API keys and bearer tokens in log output.
	Redact bool `yaml:"redact" toml:"redact"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		URL:            DefaultURL,
		Provider:       DefaultProvider,
		TimeoutSeconds: DefaultTimeout,
		ResourcesDir:   "resources",
		Log: Log{
			Level:  DefaultLogLevel,
			Redact: true,
		},
	}
}

// Load reads the file at path on top of Default. The format is chosen by
// extension: .yaml/.yml or .toml. The result is not validated.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	case ".toml":
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		return cfg, fmt.Errorf("config %s: unsupported extension %q: %w", path, ext, mcpcli.ErrValidation)
	}
	return cfg, nil
}

// Timeout returns the per-request timeout as a duration.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds * float64(time.Second))
}

var validate = validator.New()

// Validate checks field constraints. All violations are reported together.
func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("config: %w: %w", mcpcli.ErrValidation, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: failed %q", fe.Namespace(), fe.Tag()))
	}
	return fmt.Errorf("config: %s: %w", strings.Join(msgs, "; "), mcpcli.ErrValidation)
}

// Endpoint joins HKubeAPIURL with the path registered under key.
func (c Config) Endpoint(key string) (string, error) {
	if c.HKubeAPIURL == "" {
		return "", fmt.Errorf("hkube_api_url is not set: %w", mcpcli.ErrValidation)
	}
	path, ok := c.APIPaths[key]
	if !ok || path == "" {
		return "", fmt.Errorf("api path %q is not configured: %w", key, mcpcli.ErrValidation)
	}
	return strings.TrimRight(c.HKubeAPIURL, "/") + "/" + strings.TrimLeft(path, "/"), nil
}
