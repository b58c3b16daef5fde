package main

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	fa "github.com/martinez-Diana/FRONTJMARTINEZ"
)

// Store kinds
const (
	StoreMemory    = "memory"
	StoreFS        = "fs"
	StorePostgres  = "postgres"
	StoreDatastore = "datastore"
)

// Config is the complete frontauth CLI configuration
type Config struct {
	Server   string        `mapstructure:"server"`
	Language string        `mapstructure:"language"`
	Landing  string        `mapstructure:"landing"`
	Store    StoreConfig   `mapstructure:"store"`
	Google   GoogleConfig  `mapstructure:"google"`
	Web      WebConfig     `mapstructure:"web"`
	Logging  LoggingConfig `mapstructure:"logging"`
}

// StoreConfig selects where the terminal session is persisted
type StoreConfig struct {
	Kind      string `mapstructure:"kind"`
	Path      string `mapstructure:"path"`
	DSN       string `mapstructure:"dsn"`
	Project   string `mapstructure:"project"`
	Namespace string `mapstructure:"namespace"`
}

type GoogleConfig struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	CallbackURL  string `mapstructure:"callback_url"`
}

// WebConfig configures the serve command
type WebConfig struct {
	Listen          string        `mapstructure:"listen"`
	PublicURL       string        `mapstructure:"public_url"`
	SessionLifetime time.Duration `mapstructure:"session_lifetime"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

// loadDotEnv reads a .env file when present. Variables already set win.
func loadDotEnv(path string) {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil && !os.IsNotExist(err) {
		slog.Warn("could not load .env file", "path", path, "error", err)
	}
}

// LoadConfig reads configuration from defaults, an optional config file,
// FRONTAUTH_* environment variables and the given flags, later sources
// taking precedence.
func LoadConfig(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName(".frontauth")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/frontauth")
	}

	v.SetEnvPrefix("FRONTAUTH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// the Vite web front end reads the client id under this name
	_ = v.BindEnv("google.client_id", "FRONTAUTH_GOOGLE_CLIENT_ID", "VITE_GOOGLE_CLIENT_ID")

	setDefaults(v)

	if flags != nil {
		for key, name := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("binding flag %s: %w", name, err)
				}
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return &cfg, nil
}

// flagKeys maps config keys to the persistent flags that override them
var flagKeys = map[string]string{
	"server":        "server",
	"language":      "lang",
	"store.kind":    "store",
	"store.path":    "store-path",
	"store.dsn":     "store-dsn",
	"logging.level": "log-level",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server", "http://localhost:4000")
	v.SetDefault("language", "en")
	v.SetDefault("landing", string(fa.RouteHome))

	v.SetDefault("store.kind", StoreFS)
	v.SetDefault("store.namespace", "default")

	v.SetDefault("google.callback_url", "http://127.0.0.1:8085/callback/")

	v.SetDefault("web.listen", "127.0.0.1:8080")
	v.SetDefault("web.public_url", "http://127.0.0.1:8080")
	v.SetDefault("web.session_lifetime", 24*time.Hour)

	v.SetDefault("logging.level", "info")
}

func (c *Config) Validate() error {
	u, err := url.Parse(c.Server)
	if err != nil || u.Host == "" {
		return fmt.Errorf("server %q is not an absolute URL", c.Server)
	}

	switch c.Store.Kind {
	case StoreMemory, StoreFS:
	case StorePostgres:
		if c.Store.DSN == "" {
			return fmt.Errorf("store %q needs store.dsn", c.Store.Kind)
		}
	case StoreDatastore:
		if c.Store.Project == "" {
			return fmt.Errorf("store %q needs store.project", c.Store.Kind)
		}
	default:
		return fmt.Errorf("unknown store %q: must be memory, fs, postgres or datastore", c.Store.Kind)
	}

	if _, err := languageMessages(c.Language); err != nil {
		return err
	}
	if _, err := parseLogLevel(c.Logging.Level); err != nil {
		return err
	}
	if _, ok := fa.DefaultRoutes[fa.Route(c.Landing)]; !ok {
		return fmt.Errorf("unknown landing route %q", c.Landing)
	}
	return nil
}

// Messages returns the user facing texts for the configured language
func (c *Config) Messages() fa.Messages {
	m, _ := languageMessages(c.Language)
	return m
}

// GoogleEnabled reports whether federated login can be offered
func (c *Config) GoogleEnabled() bool {
	return c.Google.ClientID != ""
}

func languageMessages(lang string) (fa.Messages, error) {
	switch strings.ToLower(lang) {
	case "", "en":
		return fa.DefaultMessages, nil
	case "es":
		return fa.SpanishMessages, nil
	}
	return fa.Messages{}, fmt.Errorf("unsupported language %q: must be en or es", lang)
}

func parseLogLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return level, fmt.Errorf("invalid log level %q", s)
	}
	return level, nil
}
