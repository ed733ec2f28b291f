package config

import (
	"os"
	"reflect"
	"slices"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
)

const (
	EnvironmentDevelopment = "development"
	EnvironmentProduction  = "production"
	EnvironmentTest        = "test"

	configFileENV     = "CONFIG_FILE"
	defaultConfigFile = "/config/codedot.yaml"

	// Scopes name which binary needs a key, see the required tag.
	scopeAPI        = "api"
	scopeMigrations = "migrations"
)

type Config struct {
	AdminUserID               string        `koanf:"admin_user_id" required:"api"`
	CacheTTL                  time.Duration `koanf:"cache_ttl"`
	CORSAllowOrigins          []string      `koanf:"cors_allow_origins"`
	DatabaseBusyTimeout       time.Duration `koanf:"database_busy_timeout"`
	DatabaseConnectRetryCount int           `koanf:"database_connect_retry_count"`
	DatabaseConnectRetryDelay time.Duration `koanf:"database_connect_retry_delay"`
	DatabaseDebug             bool          `koanf:"database_debug"`
	DatabaseFilePath          string        `koanf:"database_file_path" required:"api,migrations"`
	DatabaseMaxRetries        int           `koanf:"database_max_retries"`
	Environment               string        `koanf:"environment"`
	Hostname                  string        `koanf:"-"`
	JWTSecret                 string        `koanf:"jwt_secret" required:"api"`
	MuxBaseURL                string        `koanf:"mux_base_url"`
	MuxMaxRetries             int           `koanf:"mux_max_retries"`
	MuxTokenID                string        `koanf:"mux_token_id"`
	MuxTokenSecret            string        `koanf:"mux_token_secret"`
	PublicAppURL              string        `koanf:"public_app_url"`
	RedisURL                  string        `koanf:"redis_url"`
	ServerHost                string        `koanf:"server_host"`
	ServerPort                int           `koanf:"server_port"`
	StripeAPIKey              string        `koanf:"stripe_api_key"`
	StripeBaseURL             string        `koanf:"stripe_base_url"`
	StripeCurrency            string        `koanf:"stripe_currency"`
	StripeWebhookSecret       string        `koanf:"stripe_webhook_secret"`
	StripeWebhookTolerance    time.Duration `koanf:"stripe_webhook_tolerance"`
	WorkerProcesses           int           `koanf:"worker_processes"`
}

func defaults() *Config {
	return &Config{
		CacheTTL:                  time.Minute,
		CORSAllowOrigins:          []string{"http://localhost:3000"},
		DatabaseBusyTimeout:       5 * time.Second,
		DatabaseConnectRetryCount: 5,
		DatabaseConnectRetryDelay: 2 * time.Second,
		DatabaseMaxRetries:        5,
		Environment:               EnvironmentDevelopment,
		MuxBaseURL:                "https://api.mux.com",
		MuxMaxRetries:             3,
		PublicAppURL:              "http://localhost:3000",
		ServerHost:                "0.0.0.0",
		ServerPort:                8080,
		StripeBaseURL:             "https://api.stripe.com",
		StripeCurrency:            "jpy",
		StripeWebhookTolerance:    5 * time.Minute,
		WorkerProcesses:           2,
	}
}

// New loads the config from an optional YAML file (CONFIG_FILE) and the
// environment, in that order. Environment variables are the upper-case form
// of the YAML keys.
func New() (*Config, error) {
	return load(scopeAPI)
}

// NewForMigrations loads the same sources as New but only requires the keys
// the migration CLI uses.
func NewForMigrations() (*Config, error) {
	return load(scopeMigrations)
}

func load(scope string) (*Config, error) {
	hostname, err := os.Hostname()
	if err != nil {
		return nil, errors.WithStack(err)
	}

	k := koanf.New(".")

	path := os.Getenv(configFileENV)
	if path == "" {
		path = defaultConfigFile
	}
	if _, statErr := os.Stat(path); statErr == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, errors.Wrapf(err, "failed to load config file %s", path)
		}
	}

	keys := knownKeys()
	err = k.Load(env.ProviderWithValue("", ".", func(name, value string) (string, interface{}) {
		key := strings.ToLower(name)
		if _, ok := keys[key]; !ok {
			return "", nil
		}
		if key == "cors_allow_origins" {
			return key, splitList(value)
		}
		return key, value
	}), nil)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	cfg := defaults()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, errors.WithStack(err)
	}
	cfg.Hostname = hostname

	if err := cfg.validate(scope); err != nil {
		return nil, err
	}

	return cfg, nil
}

// NewForTest returns a config usable without any file or environment.
func NewForTest() *Config {
	cfg := defaults()
	cfg.AdminUserID = "admin-user"
	cfg.DatabaseFilePath = ":memory:"
	cfg.Environment = EnvironmentTest
	cfg.JWTSecret = "test-secret"
	cfg.ServerHost = "127.0.0.1"
	cfg.StripeWebhookSecret = "whsec_test"
	return cfg
}

func (cfg *Config) IsTest() bool {
	return cfg.Environment == EnvironmentTest
}

func (cfg *Config) validate(scope string) error {
	var missing []string

	v := reflect.ValueOf(cfg).Elem()
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !slices.Contains(strings.Split(field.Tag.Get("required"), ","), scope) {
			continue
		}
		if !v.Field(i).IsZero() {
			continue
		}
		key := field.Tag.Get("koanf")
		missing = append(missing, strings.ToUpper(key)+" ("+key+")")
	}

	if len(missing) > 0 {
		return errors.Errorf("missing required config: %s", strings.Join(missing, ", "))
	}
	return nil
}

func knownKeys() map[string]struct{} {
	keys := map[string]struct{}{}
	t := reflect.TypeOf(Config{})
	for i := 0; i < t.NumField(); i++ {
		tag := t.Field(i).Tag.Get("koanf")
		if tag == "" || tag == "-" {
			continue
		}
		keys[tag] = struct{}{}
	}
	return keys
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
