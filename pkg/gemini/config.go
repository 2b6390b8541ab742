package gemini

import (
	"fmt"
	"os"
	"strings"
)

// Config holds connection parameters for the text generation endpoint.
// Endpoint is a template with two verbs: model name and API key.
type Config struct {
	APIKey   string `toml:"api_key"`
	Model    string `toml:"model"`
	Endpoint string `toml:"endpoint"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	APIKey   string
	Model    string
	Endpoint string
}

// URL returns the resolved generateContent URL for the configured model and key.
func (c *Config) URL() string {
	return fmt.Sprintf(c.Endpoint, c.Model, c.APIKey)
}

// Finalize applies defaults, environment variable overrides, and validation.
// An empty API key is allowed here: the credential check belongs to call time
// so the service can boot without one, but a call never starts without it.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.APIKey != "" {
		c.APIKey = overlay.APIKey
	}
	if overlay.Model != "" {
		c.Model = overlay.Model
	}
	if overlay.Endpoint != "" {
		c.Endpoint = overlay.Endpoint
	}
}

func (c *Config) loadDefaults() {
	if c.Model == "" {
		c.Model = "gemini-2.0-flash"
	}
	if c.Endpoint == "" {
		c.Endpoint = "https://generativelanguage.googleapis.com/v1beta/models/%s:generateContent?key=%s"
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.APIKey != "" {
		if v := os.Getenv(env.APIKey); v != "" {
			c.APIKey = v
		}
	}
	if env.Model != "" {
		if v := os.Getenv(env.Model); v != "" {
			c.Model = v
		}
	}
	if env.Endpoint != "" {
		if v := os.Getenv(env.Endpoint); v != "" {
			c.Endpoint = v
		}
	}
}

func (c *Config) validate() error {
	if c.Model == "" {
		return fmt.Errorf("model required")
	}
	if strings.Count(c.Endpoint, "%s") != 2 {
		return fmt.Errorf("endpoint must contain model and key placeholders: %s", c.Endpoint)
	}
	return nil
}
