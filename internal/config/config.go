package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DefaultSpoonacularURL = "https://api.spoonacular.com/recipes"
	DefaultAddr           = ":8080"
)

type Config struct {
	Addr        string            `json:"addr"`
	Spoonacular SpoonacularConfig `json:"spoonacular"`
	Store       StoreConfig       `json:"store"`
	Mail        MailConfig        `json:"mail"`
	Logging     LoggingConfig     `json:"logging"`
	LogSink     LogSinkConfig     `json:"logsink"`
	Telemetry   TelemetryConfig   `json:"telemetry"`
	Mocks       MocksConfig       `json:"mocks"`
}

type SpoonacularConfig struct {
	APIKey   string `json:"api_key"`
	BaseURL  string `json:"base_url"`
	RetryMax int    `json:"retry_max"`
	// zero means no client side timeout
	Timeout    time.Duration `json:"timeout"`
	HTTPClient *http.Client  `json:"-"`
}

type StoreConfig struct {
	Backend     string `json:"backend"` // file, memory, bolt, sqlite or azure
	Dir         string `json:"dir"`
	Path        string `json:"path"`
	Container   string `json:"container"`
	AccountName string `json:"account_name"`
	AccountKey  string `json:"-"`
}

type MailConfig struct {
	SendGridAPIKey string `json:"-"`
	From           string `json:"from"`
	FromName       string `json:"from_name"`
}

func (m MailConfig) Enabled() bool {
	return m.SendGridAPIKey != ""
}

type LoggingConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"` // json or text
	File   string `json:"file"`
}

type LogSinkConfig struct {
	AccountName string `json:"account_name"`
	AccountKey  string `json:"-"`
	Container   string `json:"container"`
	BlobName    string `json:"blob_name"`
}

func (l LogSinkConfig) Enabled() bool {
	return l.AccountName != "" && l.AccountKey != "" && l.Container != ""
}

type TelemetryConfig struct {
	OTLPEndpoint string `json:"otlp_endpoint"`
	ServiceName  string `json:"service_name"`
}

func (t TelemetryConfig) Enabled() bool {
	return t.OTLPEndpoint != ""
}

type MocksConfig struct {
	Enable bool `json:"enable"`
}

// Load reads configuration from an optional .env file, an optional
// mealcart.yaml in the working directory and the environment, in increasing
// order of precedence.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := newViper()
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}
	return fromViper(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigName("mealcart")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("addr", DefaultAddr)
	v.SetDefault("spoonacular.base_url", DefaultSpoonacularURL)
	v.SetDefault("spoonacular.retry_max", 0)
	v.SetDefault("spoonacular.timeout", time.Duration(0))
	v.SetDefault("store.backend", "file")
	v.SetDefault("store.dir", "data")
	v.SetDefault("store.path", "data/mealcart.db")
	v.SetDefault("store.container", "mealcart")
	v.SetDefault("mail.from", "lists@mealcart.app")
	v.SetDefault("mail.from_name", "MealCart")
	v.SetDefault("logging.level", "INFO")
	v.SetDefault("logging.format", "text")
	v.SetDefault("telemetry.service_name", "mealcart")

	// names shared with the rest of our deployments
	_ = v.BindEnv("mail.sendgrid_api_key", "SENDGRID_API_KEY")
	_ = v.BindEnv("store.account_name", "AZURE_STORAGE_ACCOUNT_NAME")
	_ = v.BindEnv("store.account_key", "AZURE_STORAGE_PRIMARY_ACCOUNT_KEY")
	_ = v.BindEnv("logsink.account_name", "LOGSINK_ACCOUNT_NAME", "AZURE_STORAGE_ACCOUNT_NAME")
	_ = v.BindEnv("logsink.account_key", "LOGSINK_ACCOUNT_KEY", "AZURE_STORAGE_PRIMARY_ACCOUNT_KEY")
	_ = v.BindEnv("logsink.container", "LOGSINK_CONTAINER")
	_ = v.BindEnv("logsink.blob_name", "LOGSINK_BLOB_NAME")
	_ = v.BindEnv("telemetry.otlp_endpoint", "OTEL_EXPORTER_OTLP_ENDPOINT")
	_ = v.BindEnv("mocks.enable", "ENABLE_MOCKS")
	return v
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Addr: v.GetString("addr"),
		Spoonacular: SpoonacularConfig{
			APIKey:   strings.TrimSpace(v.GetString("spoonacular.api_key")),
			BaseURL:  strings.TrimRight(v.GetString("spoonacular.base_url"), "/"),
			RetryMax: v.GetInt("spoonacular.retry_max"),
			Timeout:  v.GetDuration("spoonacular.timeout"),
		},
		Store: StoreConfig{
			Backend:     strings.ToLower(v.GetString("store.backend")),
			Dir:         v.GetString("store.dir"),
			Path:        v.GetString("store.path"),
			Container:   v.GetString("store.container"),
			AccountName: v.GetString("store.account_name"),
			AccountKey:  v.GetString("store.account_key"),
		},
		Mail: MailConfig{
			SendGridAPIKey: v.GetString("mail.sendgrid_api_key"),
			From:           v.GetString("mail.from"),
			FromName:       v.GetString("mail.from_name"),
		},
		Logging: LoggingConfig{
			Level:  v.GetString("logging.level"),
			Format: strings.ToLower(v.GetString("logging.format")),
			File:   v.GetString("logging.file"),
		},
		LogSink: LogSinkConfig{
			AccountName: v.GetString("logsink.account_name"),
			AccountKey:  v.GetString("logsink.account_key"),
			Container:   v.GetString("logsink.container"),
			BlobName:    v.GetString("logsink.blob_name"),
		},
		Telemetry: TelemetryConfig{
			OTLPEndpoint: v.GetString("telemetry.otlp_endpoint"),
			ServiceName:  v.GetString("telemetry.service_name"),
		},
		Mocks: MocksConfig{
			Enable: v.GetBool("mocks.enable"),
		},
	}
	return cfg, cfg.Validate()
}

// Validate reports configuration that can never work. A missing Spoonacular
// key is allowed when mocks are enabled.
func (c *Config) Validate() error {
	if c.Spoonacular.APIKey == "" && !c.Mocks.Enable {
		return errors.New("SPOONACULAR_API_KEY is required unless ENABLE_MOCKS is set")
	}
	if c.Spoonacular.RetryMax < 0 {
		return fmt.Errorf("invalid spoonacular retry max %d", c.Spoonacular.RetryMax)
	}
	switch c.Store.Backend {
	case "file", "memory", "bolt", "sqlite":
	case "azure":
		if c.Store.AccountName == "" || c.Store.AccountKey == "" {
			return errors.New("azure store requires AZURE_STORAGE_ACCOUNT_NAME and AZURE_STORAGE_PRIMARY_ACCOUNT_KEY")
		}
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
	return nil
}
