package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/cobra"
)

const (
	DefaultFile    = "oink.yaml"
	EnvPrefix      = "OINK_"
	DefaultTimeout = 30 * time.Second
)

const (
	AuthNone   = "none"
	AuthOAuth2 = "oauth2"
	AuthOAuth1 = "oauth1"
)

type Config struct {
	Spec        string        `koanf:"spec"`
	BaseURL     string        `koanf:"base-url"`
	Timeout     time.Duration `koanf:"timeout"`
	LogLevel    string        `koanf:"log-level"`
	IncludeTags []string      `koanf:"include-tags"`
	ExcludeTags []string      `koanf:"exclude-tags"`
	// ValidateRequests checks every outgoing request against the document.
	ValidateRequests bool       `koanf:"validate-requests"`
	Auth             AuthConfig `koanf:"auth"`
}

type AuthConfig struct {
	Type   string       `koanf:"type"`
	OAuth2 OAuth2Config `koanf:"oauth2"`
	OAuth1 OAuth1Config `koanf:"oauth1"`
}

type OAuth2Config struct {
	TokenURL     string `koanf:"token-url"`
	ClientID     string `koanf:"client-id"`
	ClientSecret string `koanf:"client-secret"`
	Scope        string `koanf:"scope"`
}

type OAuth1Config struct {
	ConsumerKey     string `koanf:"consumer-key"`
	ConsumerSecret  string `koanf:"consumer-secret"`
	RequestTokenURL string `koanf:"request-token-url"`
	AccessTokenURL  string `koanf:"access-token-url"`
	SignatureMethod string `koanf:"signature-method"`
}

// BindFlags binds the flags shared by every command.
func BindFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()

	flags.StringP("config", "c", "", "Config file path (default: oink.yaml)")
	flags.StringP("spec", "s", "", "OpenAPI spec file path")
	flags.StringP("base-url", "u", "", "Base URL of the API (default: first server in the spec)")
	flags.Duration("timeout", 0, "HTTP timeout per call")
	flags.String("log-level", "", "Log level: debug, info, warn, error, disabled")
	flags.StringSlice("include-tags", nil, "Tags to include (exclusive)")
	flags.StringSlice("exclude-tags", nil, "Tags to exclude")
	flags.String("auth", "", "Authentication: none, oauth2, oauth1")
	flags.Bool("validate", false, "Validate requests against the document before sending")
}

// Load layers defaults, the config file, OINK_* environment variables and
// explicitly set flags, in increasing precedence.
func Load(cmd *cobra.Command) (*Config, error) {
	k := koanf.New(".")

	defaults := map[string]any{
		"timeout":   DefaultTimeout.String(),
		"log-level": "info",
		"auth.type": AuthNone,
	}
	if err := k.Load(confmap.Provider(defaults, "."), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	configFile, _ := cmd.Flags().GetString("config")
	if configFile == "" {
		if _, err := os.Stat(DefaultFile); err == nil {
			configFile = DefaultFile
		}
	}

	if configFile != "" {
		if err := k.Load(file.Provider(configFile), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}

	flagsMap := buildFlagsMap(cmd)
	if len(flagsMap) > 0 {
		if err := k.Load(confmap.Provider(flagsMap, "."), nil); err != nil {
			return nil, fmt.Errorf("loading flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// envKey maps OINK_AUTH__OAUTH2__CLIENT_SECRET to auth.oauth2.client-secret.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	parts := strings.Split(s, "__")
	for i, p := range parts {
		parts[i] = strings.ReplaceAll(p, "_", "-")
	}
	return strings.Join(parts, ".")
}

func buildFlagsMap(cmd *cobra.Command) map[string]any {
	m := make(map[string]any)

	changed := func(name string) bool {
		return cmd.Flags().Changed(name)
	}

	for _, name := range []string{"spec", "base-url", "log-level"} {
		if changed(name) {
			v, _ := cmd.Flags().GetString(name)
			m[name] = v
		}
	}
	if changed("timeout") {
		v, _ := cmd.Flags().GetDuration("timeout")
		m["timeout"] = v.String()
	}
	for _, name := range []string{"include-tags", "exclude-tags"} {
		if changed(name) {
			v, _ := cmd.Flags().GetStringSlice(name)
			m[name] = v
		}
	}
	if changed("validate") {
		v, _ := cmd.Flags().GetBool("validate")
		m["validate-requests"] = v
	}
	if changed("auth") {
		v, _ := cmd.Flags().GetString("auth")
		m["auth.type"] = v
	}

	return m
}

func (c *Config) Validate() error {
	if c.Spec == "" {
		return fmt.Errorf("spec file is required")
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative")
	}

	validLevels := map[string]bool{"": true, "debug": true, "info": true, "warn": true, "error": true, "disabled": true}
	if !validLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (valid: debug, info, warn, error, disabled)", c.LogLevel)
	}

	return c.Auth.Validate()
}

func (a *AuthConfig) Validate() error {
	switch a.Type {
	case "", AuthNone:
		return nil
	case AuthOAuth2:
		o := a.OAuth2
		if o.TokenURL == "" {
			return fmt.Errorf("auth.oauth2.token-url is required")
		}
		if o.ClientID == "" || o.ClientSecret == "" {
			return fmt.Errorf("auth.oauth2.client-id and auth.oauth2.client-secret are required")
		}
		return nil
	case AuthOAuth1:
		o := a.OAuth1
		if o.ConsumerKey == "" || o.ConsumerSecret == "" {
			return fmt.Errorf("auth.oauth1.consumer-key and auth.oauth1.consumer-secret are required")
		}
		if o.RequestTokenURL == "" || o.AccessTokenURL == "" {
			return fmt.Errorf("auth.oauth1.request-token-url and auth.oauth1.access-token-url are required")
		}
		validMethods := map[string]bool{"": true, "HMAC-SHA1": true, "HMAC-SHA256": true, "PLAINTEXT": true}
		if !validMethods[o.SignatureMethod] {
			return fmt.Errorf("invalid signature method: %s (valid: HMAC-SHA1, HMAC-SHA256, PLAINTEXT)", o.SignatureMethod)
		}
		return nil
	}
	return fmt.Errorf("invalid auth type: %s (valid: none, oauth2, oauth1)", a.Type)
}
