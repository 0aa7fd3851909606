package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Application constants
const (
	appName = "tfassist"

	DefaultEndpoint = "https://tf-supervisor-workflow-v2-855da41ec83656b3b397ebe6ba569c43.us.langgraph.app"
	DefaultTimeout  = 30 * time.Second
	DefaultAddr     = ":47100"

	defaultLogLevel    = "info"
	defaultRenderWidth = 100
	defaultRenderStyle = "auto"

	// apiKeyFallbackEnv is honored when no key is configured otherwise.
	apiKeyFallbackEnv = "LANGGRAPH_API_KEY"
)

// SessionConfig controls the in-memory session store.
type SessionConfig struct {
	// TTL evicts sessions idle for longer; zero keeps them for the life of
	// the process.
	TTL time.Duration `mapstructure:"ttl"`
}

// RenderConfig controls terminal markdown rendering.
type RenderConfig struct {
	Width int    `mapstructure:"width"`
	Style string `mapstructure:"style"`
}

// ServerConfig controls the HTTP API.
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// LogConfig controls logging.
type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

// Config is the main configuration structure for the application
type Config struct {
	Endpoint string        `mapstructure:"endpoint"`
	APIKey   string        `mapstructure:"apiKey"`
	Timeout  time.Duration `mapstructure:"timeout"`
	Debug    bool          `mapstructure:"debug"`
	Session  SessionConfig `mapstructure:"session"`
	Render   RenderConfig  `mapstructure:"render"`
	Server   ServerConfig  `mapstructure:"server"`
	Log      LogConfig     `mapstructure:"log"`

	// File is the config file that was read, if any.
	File string `mapstructure:"-"`
}

// Options tune Load.
type Options struct {
	// ConfigFile overrides the search paths.
	ConfigFile string
	// EnvFile is loaded before anything else; missing files are ignored.
	// Defaults to ".env".
	EnvFile string
	Debug   bool
}

// Load initializes the configuration from a .env file, environment variables
// and config files, in increasing order of precedence for the file and
// decreasing for the environment.
func Load(opts Options) (*Config, error) {
	envFile := opts.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("error reading %s: %w", envFile, err)
	}

	v := viper.New()
	configureViper(v, opts.ConfigFile)
	setDefaults(v, opts.Debug)

	cfg := &Config{}
	if err := readConfig(v, cfg); err != nil {
		return nil, err
	}

	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv(apiKeyFallbackEnv)
	}
	cfg.Endpoint = strings.TrimRight(strings.TrimSpace(cfg.Endpoint), "/")

	return cfg, nil
}

// configureViper sets up viper's configuration paths and environment variables
func configureViper(v *viper.Viper, file string) {
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName(fmt.Sprintf(".%s", appName))
		v.AddConfigPath("$HOME")
		v.AddConfigPath(fmt.Sprintf("$XDG_CONFIG_HOME/%s", appName))
		v.AddConfigPath(fmt.Sprintf("$HOME/.config/%s", appName))
	}
	v.SetConfigType("toml")
	v.SetEnvPrefix(strings.ToUpper(appName))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// setDefaults configures default values for configuration options
func setDefaults(v *viper.Viper, debug bool) {
	v.SetDefault("endpoint", DefaultEndpoint)
	v.SetDefault("apiKey", "")
	v.SetDefault("timeout", DefaultTimeout)
	v.SetDefault("session.ttl", time.Duration(0))
	v.SetDefault("render.width", defaultRenderWidth)
	v.SetDefault("render.style", defaultRenderStyle)
	v.SetDefault("server.addr", DefaultAddr)
	v.SetDefault("log.file", "")

	if debug {
		v.SetDefault("debug", true)
		v.Set("log.level", "debug")
	} else {
		v.SetDefault("debug", false)
		v.SetDefault("log.level", defaultLogLevel)
	}
}

// readConfig reads configuration from file and environment
func readConfig(v *viper.Viper, cfg *Config) error {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.File = v.ConfigFileUsed()
	return nil
}

// Validate reports the first setting that cannot work.
func (c *Config) Validate() error {
	if c.Endpoint == "" {
		return fmt.Errorf("endpoint is required")
	}
	u, err := url.Parse(c.Endpoint)
	if err != nil {
		return fmt.Errorf("invalid endpoint %q: %w", c.Endpoint, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid endpoint %q: expected an http(s) URL", c.Endpoint)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	if c.Session.TTL < 0 {
		return fmt.Errorf("session.ttl must not be negative, got %s", c.Session.TTL)
	}
	if c.Render.Width <= 0 {
		return fmt.Errorf("render.width must be positive, got %d", c.Render.Width)
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("invalid log.level %q: %w", c.Log.Level, err)
	}
	return nil
}

// HasAPIKey reports whether requests will carry an API key.
func (c *Config) HasAPIKey() bool {
	return c.APIKey != ""
}
