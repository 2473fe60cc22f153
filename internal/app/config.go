package app

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	padlock "github.com/goliatone/go-padlock"
	"github.com/goliatone/go-padlock/session"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

const (
	SessionBackendMemory = "memory"
	SessionBackendRedis  = "redis"
)

type Config struct {
	Server   ServerConfig   `koanf:"server" json:"server"`
	Log      LogConfig      `koanf:"log" json:"log"`
	Database DatabaseConfig `koanf:"database" json:"database"`
	Session  SessionConfig  `koanf:"session" json:"session"`
	Auth     AuthConfig     `koanf:"auth" json:"auth"`
}

type ServerConfig struct {
	Addr            string        `koanf:"addr" json:"addr"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" json:"shutdown_timeout"`
}

type DatabaseConfig struct {
	DSN   string `koanf:"dsn" json:"dsn"`
	Debug bool   `koanf:"debug" json:"debug"`
}

type SessionConfig struct {
	Backend    string        `koanf:"backend" json:"backend"`
	CookieName string        `koanf:"cookie_name" json:"cookie_name"`
	TTL        time.Duration `koanf:"ttl" json:"ttl"`
	Redis      RedisConfig   `koanf:"redis" json:"redis"`
}

type RedisConfig struct {
	Addr     string `koanf:"addr" json:"addr"`
	Password string `koanf:"password" json:"-"`
	DB       int    `koanf:"db" json:"db"`
	Prefix   string `koanf:"prefix" json:"prefix"`
}

type AuthConfig struct {
	SigningKey string         `koanf:"signing_key" json:"-"`
	Issuer     string         `koanf:"issuer" json:"issuer"`
	Guard      padlock.Config `koanf:"guard" json:"guard"`
}

func defaults() map[string]any {
	return map[string]any{
		"server.addr":                 ":8572",
		"server.shutdown_timeout":     "15s",
		"log.level":                   "info",
		"log.format":                  "json",
		"log.env":                     "dev",
		"log.service":                 "padlockd",
		"database.dsn":                "file:padlock.db?cache=shared",
		"session.backend":             SessionBackendMemory,
		"session.cookie_name":         session.DefaultCookieName,
		"session.ttl":                 session.DefaultTTL.String(),
		"session.redis.addr":          "localhost:6379",
		"session.redis.prefix":        session.DefaultRedisPrefix,
		"auth.issuer":                 "padlockd",
		"auth.guard.auth_key":         padlock.DefaultAuthKey,
		"auth.guard.cookie.path":      "/",
		"auth.guard.cookie.http_only": true,
		"auth.guard.cookie.same_site": "Lax",
	}
}

// Flags returns the command line flags LoadConfig understands.
func Flags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("padlockd", pflag.ContinueOnError)
	fs.StringP("config", "c", "", "path to a YAML config file")
	fs.String("server.addr", "", "HTTP listen address")
	fs.String("log.level", "", "log level: debug, info, warn, error")
	fs.String("log.format", "", "log format: json, text")
	fs.String("database.dsn", "", "sqlite DSN")
	fs.String("session.backend", "", "session backend: memory, redis")
	fs.String("session.redis.addr", "", "redis address")
	fs.String("auth.signing_key", "", "cookie signing key")
	return fs
}

// LoadConfig merges defaults, an optional YAML file and command line
// flags, in that order.
func LoadConfig(args []string) (Config, error) {
	var cfg Config

	fs := Flags()
	if err := fs.Parse(args); err != nil {
		return cfg, err
	}

	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return cfg, err
	}

	if path, _ := fs.GetString("config"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return cfg, err
		}
	}

	if err := k.Load(posflag.Provider(fs, ".", k), nil); err != nil {
		return cfg, err
	}

	if err := k.Unmarshal("", &cfg); err != nil {
		return cfg, err
	}

	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Server),
		validation.Field(&c.Log),
		validation.Field(&c.Database),
		validation.Field(&c.Session),
		validation.Field(&c.Auth),
	)
}

func (c ServerConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Addr, validation.Required),
	)
}

func (c LogConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Level, validation.In("debug", "info", "warn", "warning", "error")),
		validation.Field(&c.Format, validation.In("json", "text")),
	)
}

func (c DatabaseConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.DSN, validation.Required),
	)
}

func (c SessionConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Backend, validation.Required, validation.In(SessionBackendMemory, SessionBackendRedis)),
		validation.Field(&c.CookieName, validation.Required),
		validation.Field(&c.TTL, validation.Min(time.Minute)),
		validation.Field(&c.Redis, validation.By(c.validateRedis)),
	)
}

// validateRedis only applies when sessions are stored in redis.
func (c SessionConfig) validateRedis(value any) error {
	if c.Backend != SessionBackendRedis {
		return nil
	}
	redisCfg, _ := value.(RedisConfig)
	return validation.Validate(redisCfg.Addr, validation.Required)
}

func (c AuthConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.SigningKey, validation.Required, validation.Length(32, 0)),
		validation.Field(&c.Guard),
	)
}
