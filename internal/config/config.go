// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gymdesk Contributors

// Package config loads gymdesk configuration from defaults, a YAML file,
// the environment and command-line flags, in that order of precedence.
package config

import (
	"errors"
	"io/fs"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"github.com/gymdesk/gymdesk/internal/auth"
)

// EnvPrefix is the prefix of environment variables read into the config.
// A double underscore separates levels: GYMDESK_AUTH__REFRESH_SECRET sets
// auth.refreshSecret.
const EnvPrefix = "GYMDESK_"

// Mail drivers.
const (
	MailDriverLog  = "log"
	MailDriverAMQP = "amqp"
)

// Session stores.
const (
	SessionStorePostgres = "postgres"
	SessionStoreRedis    = "redis"
)

// Config is the full process configuration.
type Config struct {
	Auth     AuthConfig     `koanf:"auth"`
	Database DatabaseConfig `koanf:"database"`
	HTTP     HTTPConfig     `koanf:"http"`
	Metrics  MetricsConfig  `koanf:"metrics"`
	Log      LogConfig      `koanf:"log"`
	Mail     MailConfig     `koanf:"mail"`
	Session  SessionConfig  `koanf:"session"`
	Redis    RedisConfig    `koanf:"redis"`
}

// AuthConfig holds token signing and password hashing settings.
type AuthConfig struct {
	Secret         string       `koanf:"secret"`
	Expires        Duration     `koanf:"expires"`
	RefreshSecret  string       `koanf:"refreshSecret"`
	RefreshExpires Duration     `koanf:"refreshExpires"`
	Hasher         HasherConfig `koanf:"hasher"`
}

// HasherConfig selects the password hash algorithm.
type HasherConfig struct {
	Algorithm  string `koanf:"algorithm"`
	BcryptCost int    `koanf:"bcryptCost"`
}

// DatabaseConfig holds the PostgreSQL connection string.
type DatabaseConfig struct {
	URL            string   `koanf:"url"`
	ConnectTimeout Duration `koanf:"connectTimeout"`
}

// HTTPConfig configures the API listener.
type HTTPConfig struct {
	Addr            string   `koanf:"addr"`
	RequestTimeout  Duration `koanf:"requestTimeout"`
	ShutdownTimeout Duration `koanf:"shutdownTimeout"`
}

// MetricsConfig configures the metrics and health listener. Empty disables it.
type MetricsConfig struct {
	Addr string `koanf:"addr"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	Format string `koanf:"format"`
	Level  string `koanf:"level"`
}

// MailConfig selects and configures the mail sender.
type MailConfig struct {
	Driver   string `koanf:"driver"`
	AMQPURL  string `koanf:"amqpURL"`
	Exchange string `koanf:"exchange"`
}

// SessionConfig selects the session store.
type SessionConfig struct {
	Store string `koanf:"store"`
}

// RedisConfig configures the Redis session store.
type RedisConfig struct {
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
}

// Default returns the configuration used when nothing overrides a key.
// Signing secrets have no default.
func Default() Config {
	return Config{
		Auth: AuthConfig{
			Expires:        Duration(15 * time.Minute),
			RefreshExpires: Duration(3650 * 24 * time.Hour),
			Hasher:         HasherConfig{Algorithm: auth.AlgorithmBcrypt, BcryptCost: 10},
		},
		Database: DatabaseConfig{ConnectTimeout: Duration(30 * time.Second)},
		HTTP: HTTPConfig{
			Addr:            ":3000",
			RequestTimeout:  Duration(30 * time.Second),
			ShutdownTimeout: Duration(10 * time.Second),
		},
		Metrics: MetricsConfig{Addr: "127.0.0.1:9100"},
		Log:     LogConfig{Format: "json", Level: "info"},
		Mail:    MailConfig{Driver: MailDriverLog, Exchange: "mail"},
		Session: SessionConfig{Store: SessionStorePostgres},
		Redis:   RedisConfig{Addr: "localhost:6379"},
	}
}

// LoadOptions controls where Load reads from.
type LoadOptions struct {
	// File is an optional YAML config file. A missing file is an error.
	File string
	// EnvFile is a dotenv file loaded into the process environment when present.
	EnvFile string
	// Environ overrides os.Environ for the environment provider.
	Environ func() []string
	// Flags are command-line flags; only flags set by the user override values.
	Flags *pflag.FlagSet
}

// flagKeys maps command-line flag names to config keys.
var flagKeys = map[string]string{
	"http-addr":     "http.addr",
	"metrics-addr":  "metrics.addr",
	"log-format":    "log.format",
	"log-level":     "log.level",
	"database-url":  "database.url",
	"session-store": "session.store",
	"mail-driver":   "mail.driver",
}

// Load builds a Config from defaults, the YAML file, the environment and
// flags. The result is validated.
func Load(opts LoadOptions) (*Config, error) {
	cfg, err := Read(opts)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Read is Load without validation, for commands that need only part of the
// configuration.
func Read(opts LoadOptions) (*Config, error) {
	if opts.EnvFile != "" {
		if err := godotenv.Load(opts.EnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("file", opts.EnvFile).Wrap(err)
		}
	}

	ko := koanf.New(".")

	if opts.File != "" {
		if err := ko.Load(file.Provider(opts.File), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("file", opts.File).Wrap(err)
		}
	}

	environ := opts.Environ
	if environ == nil {
		environ = os.Environ
	}
	if err := ko.Load(env.Provider(".", env.Opt{
		Prefix:        EnvPrefix,
		TransformFunc: envKey,
		EnvironFunc:   environ,
	}), nil); err != nil {
		return nil, oops.Code("CONFIG_LOAD_FAILED").With("source", "env").Wrap(err)
	}

	if !ko.Exists("database.url") {
		for _, kv := range environ() {
			if v, ok := strings.CutPrefix(kv, "DATABASE_URL="); ok && v != "" {
				if err := ko.Set("database.url", v); err != nil {
					return nil, oops.Code("CONFIG_LOAD_FAILED").With("source", "DATABASE_URL").Wrap(err)
				}
			}
		}
	}

	if opts.Flags != nil {
		if err := ko.Load(posflag.ProviderWithFlag(opts.Flags, ".", ko, flagValue), nil); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("source", "flags").Wrap(err)
		}
	}

	cfg := Default()
	if err := ko.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{
		DecoderConfig: &mapstructure.DecoderConfig{
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				durationHook(),
				mapstructure.TextUnmarshallerHookFunc(),
			),
			WeaklyTypedInput: true,
			Result:           &cfg,
		},
	}); err != nil {
		return nil, oops.Code("CONFIG_INVALID").With("operation", "decode config").Wrap(err)
	}
	return &cfg, nil
}

// envKey turns GYMDESK_AUTH__REFRESH_SECRET into auth.refreshSecret.
func envKey(k, v string) (string, any) {
	k = strings.TrimPrefix(k, EnvPrefix)
	if k == "" {
		return "", nil
	}
	parts := strings.Split(strings.ToLower(k), "__")
	for i, p := range parts {
		parts[i] = camel(p)
	}
	return strings.Join(parts, "."), v
}

// camel converts snake_case to camelCase. "amqp_url" becomes "amqpURL".
func camel(s string) string {
	words := strings.Split(s, "_")
	var b strings.Builder
	for i, w := range words {
		if w == "" {
			continue
		}
		switch {
		case i == 0:
			b.WriteString(w)
		case w == "url":
			b.WriteString("URL")
		default:
			b.WriteString(strings.ToUpper(w[:1]) + w[1:])
		}
	}
	return b.String()
}

func flagValue(f *pflag.Flag) (string, any) {
	key, ok := flagKeys[f.Name]
	if !ok || !f.Changed {
		return "", nil
	}
	return key, f.Value.String()
}

// Validate checks required keys and enumerations. The error names every
// offending key.
func (c *Config) Validate() error {
	var problems []string
	add := func(key, msg string) { problems = append(problems, key+": "+msg) }

	if c.Auth.Secret == "" {
		add("auth.secret", "is required")
	}
	if c.Auth.Expires <= 0 {
		add("auth.expires", "must be positive")
	}
	if c.Auth.RefreshSecret == "" {
		add("auth.refreshSecret", "is required")
	} else if c.Auth.RefreshSecret == c.Auth.Secret {
		add("auth.refreshSecret", "must differ from auth.secret")
	}
	if c.Auth.RefreshExpires <= 0 {
		add("auth.refreshExpires", "must be positive")
	}
	if _, err := auth.NewPasswordHasher(c.Auth.Hasher.Algorithm, c.Auth.Hasher.BcryptCost); err != nil {
		add("auth.hasher", err.Error())
	}
	if c.Database.URL == "" {
		add("database.url", "is required")
	}
	if c.HTTP.Addr == "" {
		add("http.addr", "is required")
	}
	if c.HTTP.RequestTimeout <= 0 {
		add("http.requestTimeout", "must be positive")
	}
	if c.Log.Format != "json" && c.Log.Format != "text" {
		add("log.format", "must be 'json' or 'text'")
	}
	switch c.Mail.Driver {
	case MailDriverLog:
	case MailDriverAMQP:
		if c.Mail.AMQPURL == "" {
			add("mail.amqpURL", "is required for the amqp driver")
		}
		if c.Mail.Exchange == "" {
			add("mail.exchange", "is required for the amqp driver")
		}
	default:
		add("mail.driver", "must be 'log' or 'amqp'")
	}
	switch c.Session.Store {
	case SessionStorePostgres:
	case SessionStoreRedis:
		if c.Redis.Addr == "" {
			add("redis.addr", "is required for the redis session store")
		}
	default:
		add("session.store", "must be 'postgres' or 'redis'")
	}

	if len(problems) == 0 {
		return nil
	}
	sort.Strings(problems)
	return oops.Code(auth.CodeConfigInvalid).
		With("problems", problems).
		Errorf("invalid configuration: %s", strings.Join(problems, "; "))
}

// TokenConfig returns the token issuer settings.
func (c *Config) TokenConfig() auth.TokenConfig {
	return auth.TokenConfig{
		Secret:         c.Auth.Secret,
		Expires:        c.Auth.Expires.Std(),
		RefreshSecret:  c.Auth.RefreshSecret,
		RefreshExpires: c.Auth.RefreshExpires.Std(),
	}
}
