package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// DefaultFile is read from the working directory when Load gets no path.
const DefaultFile = "gateway.yaml"

const envPrefix = "EAI_"

type Config struct {
	API       APIConfig       `koanf:"api"`
	Session   SessionConfig   `koanf:"session"`
	Download  DownloadConfig  `koanf:"download"`
	Content   ContentConfig   `koanf:"content"`
	Assets    AssetsConfig    `koanf:"assets"`
	Log       LogConfig       `koanf:"log"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
	Notify    NotifyConfig    `koanf:"notify"`
}

type APIConfig struct {
	BaseURL             string        `koanf:"base_url"`
	SystemCode          string        `koanf:"system_code"`
	TokenHeader         string        `koanf:"token_header"`
	Timeout             time.Duration `koanf:"timeout"`
	DuplicateMessage    string        `koanf:"duplicate_message"`
	SessionExpiredCodes []int         `koanf:"session_expired_codes"`
	FatalCode           int           `koanf:"fatal_code"`
	CrossDomainGuard    bool          `koanf:"cross_domain_guard"`
}

type SessionConfig struct {
	LoginLocation string `koanf:"login_location"`
	Store         string `koanf:"store"` // memory, sqlite
	SQLitePath    string `koanf:"sqlite_path"`
}

type DownloadConfig struct {
	Dir          string `koanf:"dir"`
	PrefixLength int    `koanf:"prefix_length"`
}

type ContentConfig struct {
	// AssetOrigin defaults to the local asset server on assets.port.
	AssetOrigin   string `koanf:"asset_origin"`
	PathSeparator string `koanf:"path_separator"`
}

type AssetsConfig struct {
	Port int    `koanf:"port"`
	Root string `koanf:"root"`
}

type LogConfig struct {
	Level  string `koanf:"level"`  // debug, info, warn, error
	Format string `koanf:"format"` // text, json
	File   string `koanf:"file"`
}

type TelemetryConfig struct {
	Enabled bool `koanf:"enabled"`
}

type NotifyConfig struct {
	NTFYEndpoint string `koanf:"ntfy_endpoint"`
}

var defaults = map[string]any{
	"api.base_url":              "http://127.0.0.1:8899",
	"api.system_code":           "eai",
	"api.token_header":          "AccessToken",
	"api.timeout":               "0s",
	"api.duplicate_message":     "Duplicate request",
	"api.session_expired_codes": []int{10003, 10004, 10005},
	"api.fatal_code":            6,
	"api.cross_domain_guard":    false,
	"session.login_location":    "/login",
	"session.store":             "memory",
	"session.sqlite_path":       "./data/session.db",
	"download.dir":              "./downloads",
	"download.prefix_length":    20,
	"content.path_separator":    string(os.PathSeparator),
	"assets.port":               8898,
	"assets.root":               "/",
	"log.level":                 "info",
	"log.format":                "text",
	"telemetry.enabled":         false,
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// Load reads .env, then the YAML file at path (DefaultFile when empty), then
// EAI_-prefixed environment variables, which use "__" to separate nested keys
// (EAI_API__BASE_URL sets api.base_url). Missing files are not an error.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	if path == "" {
		path = DefaultFile
	}

	k := koanf.New(".")

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, envPrefix)), "__", ".", -1)
	}), nil); err != nil {
		return nil, err
	}

	for key, value := range defaults {
		if !k.Exists(key) {
			k.Set(key, value)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}

	cfg.API.BaseURL = strings.TrimRight(substituteEnvVars(cfg.API.BaseURL), "/")
	cfg.Notify.NTFYEndpoint = substituteEnvVars(cfg.Notify.NTFYEndpoint)
	cfg.Session.SQLitePath = substituteEnvVars(cfg.Session.SQLitePath)
	if cfg.Content.AssetOrigin == "" {
		cfg.Content.AssetOrigin = fmt.Sprintf("http://127.0.0.1:%d/", cfg.Assets.Port)
	}

	return &cfg, nil
}

func substituteEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := envVarPattern.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}
