// Package config loads server settings from defaults, an optional YAML file
// and DEALERSHIP_* environment variables. Command-line flags are applied on
// top by the caller.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
)

// EnvPrefix is the prefix of environment variables read by Load.
const EnvPrefix = "DEALERSHIP_"

// Config holds runtime settings for the server.
type Config struct {
	Database struct {
		Path string `koanf:"path"`
	} `koanf:"database"`

	HTTP struct {
		Addr              string        `koanf:"addr"`
		ReadHeaderTimeout time.Duration `koanf:"readHeaderTimeout"`
		ReadTimeout       time.Duration `koanf:"readTimeout"`
		WriteTimeout      time.Duration `koanf:"writeTimeout"`
		IdleTimeout       time.Duration `koanf:"idleTimeout"`
		ShutdownTimeout   time.Duration `koanf:"shutdownTimeout"`
	} `koanf:"http"`

	Log struct {
		Path  string `koanf:"path"`
		Level string `koanf:"level"`
	} `koanf:"log"`

	Auth struct {
		// SigningKey is the HMAC key for tokens. When empty a key is
		// generated once and kept in the database.
		SigningKey string        `koanf:"signingKey"`
		TokenTTL   time.Duration `koanf:"tokenTTL"`
		BcryptCost int           `koanf:"bcryptCost"`
	} `koanf:"auth"`
}

// Default returns the built-in settings.
func Default() *Config {
	cfg := &Config{}
	cfg.Database.Path = "dealership.sqlite3"
	cfg.HTTP.Addr = ":8080"
	cfg.HTTP.ReadHeaderTimeout = 10 * time.Second
	cfg.HTTP.ReadTimeout = 30 * time.Second
	cfg.HTTP.WriteTimeout = 60 * time.Second
	cfg.HTTP.IdleTimeout = 120 * time.Second
	cfg.HTTP.ShutdownTimeout = 5 * time.Second
	cfg.Log.Level = "info"
	cfg.Auth.TokenTTL = 24 * time.Hour
	return cfg
}

// Load returns the defaults overlaid with path (skipped when empty) and then
// with the environment.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, errors.Wrapf(err, "config file %s", path)
		}
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, errors.Wrapf(err, "reading config file %s", path)
		}
	}

	if err := k.Load(env.Provider(".", env.Opt{
		Prefix:        EnvPrefix,
		TransformFunc: envTransform(k.Raw()),
	}), nil); err != nil {
		return nil, errors.Wrap(err, "reading environment")
	}

	cfg := Default()
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           cfg,
			TagName:          "koanf",
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
			),
			MatchName: strings.EqualFold,
		},
	}); err != nil {
		return nil, errors.Wrap(err, "decoding config")
	}

	return cfg, nil
}

// envTransform maps DEALERSHIP_AUTH_SIGNING_KEY to auth.signingkey: the first
// segment names the section, the rest is the key with underscores dropped.
// Segments are aligned with keys already loaded from the file so that the
// environment overrides them instead of sitting next to them.
func envTransform(existing map[string]any) func(k, v string) (string, any) {
	return func(k, v string) (string, any) {
		k = strings.ToLower(strings.TrimPrefix(k, EnvPrefix))
		section, key, ok := strings.Cut(k, "_")
		if !ok || section == "" || key == "" {
			return "", nil
		}
		key = strings.ReplaceAll(key, "_", "")

		if sub, name, found := matchKey(existing, section); found {
			section = name
			if m, ok := sub.(map[string]any); ok {
				if _, name, found := matchKey(m, key); found {
					key = name
				}
			}
		}
		return section + "." + key, v
	}
}

func matchKey(m map[string]any, want string) (any, string, bool) {
	for k, v := range m {
		if strings.EqualFold(k, want) {
			return v, k, true
		}
	}
	return nil, "", false
}
