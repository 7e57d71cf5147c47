package config

import (
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/iancoleman/strcase"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
)

// Session storage backends.
const (
	SessionBackendDatabase = "database"
	SessionBackendRedis    = "redis"
)

// Environments.
const (
	EnvironmentDevelopment = "development"
	EnvironmentTest        = "test"
	EnvironmentProduction  = "production"
)

type Config struct {
	DatabaseConnectRetryCount int           `koanf:"database_connect_retry_count" default:"5"`
	DatabaseConnectRetryDelay time.Duration `koanf:"database_connect_retry_delay" default:"2s"`
	DatabaseBusyTimeout       time.Duration `koanf:"database_busy_timeout" default:"5s"`
	DatabaseDebug             bool          `koanf:"database_debug"`
	DatabaseFilePath          string        `koanf:"database_file_path" required:"true"`
	Environment               string        `koanf:"environment" default:"development"`
	Hostname                  string        `koanf:"hostname"`
	JWTSecret                 string        `koanf:"jwt_secret" required:"true"`
	ServerHost                string        `koanf:"server_host" default:"0.0.0.0"`
	ServerPort                int           `koanf:"server_port" default:"8000"`

	SessionBackend string        `koanf:"session_backend" default:"database"`
	SessionMaxAge  time.Duration `koanf:"session_max_age" default:"336h"`
	RedisURL       string        `koanf:"redis_url"`

	LoginRateLimit float64 `koanf:"login_rate_limit" default:"5"`
	LoginRateBurst int     `koanf:"login_rate_burst" default:"10"`

	// RenewalDefaultWeeks is how far ahead the renewal form proposes the new
	// due date. RenewalMaxWeeks is the furthest a librarian may renew to.
	RenewalDefaultWeeks int `koanf:"renewal_default_weeks" default:"3"`
	RenewalMaxWeeks     int `koanf:"renewal_max_weeks" default:"4"`

	DashboardTitleFilter string `koanf:"dashboard_title_filter" default:"дюн"`
}

const (
	configFileENV      = "CONFIG_FILE"
	defaultConfigFile  = "/config/catalog.yaml"
	environmentENV     = "ENVIRONMENT"
	requiredTag        = "required"
	koanfTag           = "koanf"
	koanfKeyDelimiter  = "."
	missingConfigError = "missing required config"
)

// New loads the configuration from defaults, an optional YAML file and the
// environment, in increasing order of precedence.
func New() (*Config, error) {
	cfg := &Config{}
	if err := defaults.Set(cfg); err != nil {
		return nil, errors.WithStack(err)
	}

	hostname, err := os.Hostname()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	cfg.Hostname = hostname

	k := koanf.New(koanfKeyDelimiter)

	configFile := os.Getenv(configFileENV)
	if configFile == "" {
		configFile = defaultConfigFile
	}
	if _, err := os.Stat(configFile); err == nil {
		if err := k.Load(file.Provider(configFile), yaml.Parser()); err != nil {
			return nil, errors.Wrapf(err, "failed to load config file %s", configFile)
		}
	}

	keys := configKeys()
	err = k.Load(env.Provider("", koanfKeyDelimiter, func(s string) string {
		key := strings.ToLower(s)
		if _, ok := keys[key]; !ok {
			return ""
		}
		return key
	}), nil)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, errors.WithStack(err)
	}

	switch cfg.Environment {
	case EnvironmentDevelopment, "":
		loadDevelopmentConfig(cfg)
	case EnvironmentProduction:
		loadProductionConfig(cfg)
	}

	if err := checkRequired(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// NewForTest returns a configuration backed by an in-memory database.
func NewForTest() *Config {
	cfg := &Config{}
	_ = defaults.Set(cfg)
	cfg.DatabaseFilePath = ":memory:"
	cfg.Environment = EnvironmentTest
	cfg.JWTSecret = "test-secret"
	cfg.ServerHost = "127.0.0.1"
	cfg.ServerPort = 0
	return cfg
}

// IsTest reports whether the test-only routes should be mounted.
func (cfg *Config) IsTest() bool {
	return cfg.Environment == EnvironmentTest
}

// RenewalWindow returns the proposed and maximum renewal offsets in days.
func (cfg *Config) RenewalWindow() (proposedDays, maxDays int) {
	return cfg.RenewalDefaultWeeks * 7, cfg.RenewalMaxWeeks * 7
}

func configKeys() map[string]struct{} {
	keys := map[string]struct{}{}
	t := reflect.TypeOf(Config{})
	for i := 0; i < t.NumField(); i++ {
		key := t.Field(i).Tag.Get(koanfTag)
		if key == "" {
			key = toSnakeCase(t.Field(i).Name)
		}
		keys[key] = struct{}{}
	}
	// Not a config value, but it selects which environment loader runs.
	keys[strings.ToLower(environmentENV)] = struct{}{}
	return keys
}

func checkRequired(cfg *Config) error {
	missing := []string{}
	v := reflect.ValueOf(cfg).Elem()
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if field.Tag.Get(requiredTag) != "true" {
			continue
		}
		if v.Field(i).IsZero() {
			key := field.Tag.Get(koanfTag)
			missing = append(missing, strings.ToUpper(key)+" ("+key+")")
		}
	}
	if len(missing) > 0 {
		return errors.Errorf("%s: %s", missingConfigError, strings.Join(missing, ", "))
	}
	return nil
}

func toSnakeCase(s string) string {
	return strcase.ToSnake(s)
}
