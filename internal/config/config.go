// Package config loads pagectx settings from a YAML file and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/steve-z-wang/webtask-sub000/internal/filter"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid config")

var validate = validator.New()

// Config is the top-level configuration.
type Config struct {
	Mode    string        `yaml:"mode" validate:"oneof=accessibility dom"`
	Browser BrowserConfig `yaml:"browser"`
	Filter  filter.Policy `yaml:"filter"`
	Outline OutlineConfig `yaml:"outline"`
	AI      AIConfig      `yaml:"ai"`
}

// BrowserConfig controls the Chrome instance pages are opened in.
type BrowserConfig struct {
	Bin        string        `yaml:"bin"`
	Width      int           `yaml:"width" validate:"gte=320,lte=7680"`
	Height     int           `yaml:"height" validate:"gte=200,lte=4320"`
	Timeout    time.Duration `yaml:"timeout" validate:"gte=0"`
	Settle     time.Duration `yaml:"settle" validate:"gte=0"`
	ProfileDir string        `yaml:"profile_dir"`
	Headful    bool          `yaml:"headful"`
}

type OutlineConfig struct {
	// MaxValueLength truncates attribute and property values. 0 selects the
	// default of 200, -1 disables truncation.
	MaxValueLength int `yaml:"max_value_length" validate:"gte=-1"`
}

type AIConfig struct {
	Provider      string `yaml:"provider" validate:"oneof=claude anthropic openai gpt"`
	Model         string `yaml:"model"`
	MaxIterations int    `yaml:"max_iterations" validate:"gte=1,lte=100"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// Load reads path, fills in defaults and applies environment overrides. An
// empty path skips the file.
func Load(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	cfg.applyDefaults()
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Mode == "" {
		c.Mode = "accessibility"
	}
	if c.Browser.Width <= 0 {
		c.Browser.Width = 1280
	}
	if c.Browser.Height <= 0 {
		c.Browser.Height = 720
	}
	if c.Browser.Timeout <= 0 {
		c.Browser.Timeout = 30 * time.Second
	}
	if c.Browser.Settle <= 0 {
		c.Browser.Settle = 5 * time.Second
	}
	if c.Outline.MaxValueLength == 0 {
		c.Outline.MaxValueLength = 200
	}
	if c.AI.Provider == "" {
		c.AI.Provider = "claude"
	}
	if c.AI.MaxIterations <= 0 {
		c.AI.MaxIterations = 20
	}

	def := filter.DefaultPolicy()
	fill := func(dst *[]string, src []string) {
		if len(*dst) == 0 {
			*dst = src
		}
	}
	fill(&c.Filter.SemanticAttributes, def.SemanticAttributes)
	fill(&c.Filter.InteractiveTags, def.InteractiveTags)
	fill(&c.Filter.InteractiveRoles, def.InteractiveRoles)
	fill(&c.Filter.InteractiveAttributes, def.InteractiveAttributes)
	fill(&c.Filter.KeepUnrenderedInputs, def.KeepUnrenderedInputs)
	fill(&c.Filter.NonSemanticTags, def.NonSemanticTags)
	fill(&c.Filter.TextRoles, def.TextRoles)
	fill(&c.Filter.WrapperRoles, def.WrapperRoles)
}

func (c *Config) applyEnv() {
	if v := os.Getenv("PAGECTX_MODE"); v != "" {
		c.Mode = strings.ToLower(v)
	}
	if v := os.Getenv("PAGECTX_DEFAULT_PROVIDER"); v != "" {
		c.AI.Provider = strings.ToLower(v)
	}
	if v := os.Getenv("PAGECTX_BROWSER_BIN"); v != "" {
		c.Browser.Bin = v
	}
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(msgs, "; "))
		}
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}
