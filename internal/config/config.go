// Package config loads advisor settings.
//
// Sources, later ones winning:
//
//  1. built-in defaults (Default)
//  2. an optional YAML file
//  3. environment variables prefixed ADVISOR_, after a .env file in the
//     working directory has been loaded into the environment
//
// Environment keys map onto the two-level YAML keys by their first underscore:
// ADVISOR_DATABASE_PATH -> database.path, ADVISOR_AUTH_JWT_SECRET ->
// auth.jwt_secret.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix of every environment variable the advisor reads.
const EnvPrefix = "ADVISOR_"

type Config struct {
	Database DatabaseConfig `koanf:"database"`
	Log      LogConfig      `koanf:"log"`
	Server   ServerConfig   `koanf:"server"`
	Auth     AuthConfig     `koanf:"auth"`
	Admin    AdminConfig    `koanf:"admin"`
}

type DatabaseConfig struct {
	Path string `koanf:"path"` // SQLite file, or ":memory:"
}

type LogConfig struct {
	Level  string `koanf:"level"`  // debug, info, warn, error
	Format string `koanf:"format"` // text, json
}

type ServerConfig struct {
	Port int `koanf:"port"`
}

type AuthConfig struct {
	JWTSecret  string `koanf:"jwt_secret"`
	BcryptCost int    `koanf:"bcrypt_cost"`
}

// AdminConfig seeds the first administrator. Both Email and Password must be
// set for the bootstrap to run.
type AdminConfig struct {
	Email    string `koanf:"email"`
	Password string `koanf:"password"`
	Name     string `koanf:"name"`
	Surname  string `koanf:"surname"`
}

// Enabled reports whether an admin account should be seeded.
func (a AdminConfig) Enabled() bool {
	return a.Email != "" && a.Password != ""
}

// Default returns the settings used when nothing overrides them.
func Default() Config {
	return Config{
		Database: DatabaseConfig{Path: "data/advisor.db"},
		Log:      LogConfig{Level: "info", Format: "text"},
		Server:   ServerConfig{Port: 8080},
		Auth:     AuthConfig{BcryptCost: 12},
		Admin:    AdminConfig{Name: "Admin", Surname: "User"},
	}
}

// Load builds a Config from defaults, the YAML file at path (skipped when
// path is empty) and the environment. envFiles are loaded into the
// environment first; missing ones are ignored, and with no envFiles ".env" is
// tried.
func Load(path string, envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config: loading %s: %w", f, err)
		}
	}

	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("config: loading %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("config: loading environment: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("config: decoding: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// envKey turns ADVISOR_AUTH_JWT_SECRET into auth.jwt_secret.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	section, rest, found := strings.Cut(s, "_")
	if !found {
		return s
	}
	return section + "." + rest
}

// Validate rejects settings no component can work with.
func (c Config) Validate() error {
	if c.Database.Path == "" {
		return errors.New("config: database.path must not be empty")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d out of range", c.Server.Port)
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("config: log.format %q must be text or json", c.Log.Format)
	}
	return nil
}
