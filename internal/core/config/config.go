package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// AppConfig holds the configuration for the application.
// Tags used:
// - mapstructure: used by viper to unmarshal
// - default: default value to set if missing
// - required: if "true", error if missing
type AppConfig struct {
	// Environment specifies the runtime environment (e.g., development, production).
	Environment string `mapstructure:"APP_ENV" default:"development"`
	// LogLevel defines the logging verbosity (e.g., debug, info, error).
	LogLevel string `mapstructure:"LOG_LEVEL" default:"info"`
	// ServerPort is the port where the server will listen.
	ServerPort int `mapstructure:"SERVER_PORT" default:"8080"`

	// Leopards holds the courier API configuration.
	Leopards LeopardsConfig `mapstructure:",squash"`

	// Company is the fallback shipper identity used when no shipper is selected.
	Company CompanyConfig `mapstructure:",squash"`

	// Database holds the database configuration.
	Database DatabaseConfig `mapstructure:",squash"`

	// Redis holds the cache configuration.
	Redis RedisConfig `mapstructure:",squash"`

	// Storage holds the S3 label storage configuration.
	Storage StorageConfig `mapstructure:",squash"`

	// Proxy holds the outbound proxy configuration.
	Proxy ProxyConfig `mapstructure:",squash"`

	// Jobs holds the background job schedule.
	Jobs JobsConfig `mapstructure:",squash"`
}

// LeopardsConfig holds the credentials and behaviour flags for the Leopards merchant API.
type LeopardsConfig struct {
	// APIKey is the merchant API key from the Leopards portal.
	APIKey string `mapstructure:"LEOPARDS_API_KEY" required:"true"`
	// APISecret must match the "API Password" shown in the Leopards portal.
	APISecret string `mapstructure:"LEOPARDS_API_SECRET" required:"true"`
	// APIURL is the API base URL. Endpoint paths pasted by mistake are stripped.
	APIURL string `mapstructure:"LEOPARDS_API_URL" default:"https://merchantapi.leopardscourier.com/api"`
	// Production selects the production API. When false the staging host is used.
	Production bool `mapstructure:"LEOPARDS_PROD_ENV"`
	// AccountID is sent as shipment_id when booking, if set.
	AccountID string `mapstructure:"LEOPARDS_ACCOUNT_ID"`
	// FixedPrice is the fallback shipping price when no live rate is available.
	FixedPrice string `mapstructure:"LEOPARDS_FIXED_PRICE" default:"0"`
	// CODEnabled includes the order total as cash-on-delivery amount in rate requests.
	CODEnabled bool `mapstructure:"LEOPARDS_COD_ENABLED" default:"true"`
	// TrustCancelHint treats cancellation keywords in API error text as a cancellation.
	TrustCancelHint bool `mapstructure:"LEOPARDS_TRUST_CANCEL_HINT" default:"true"`
	// TrackingURL is the public tracking page.
	TrackingURL string `mapstructure:"LEOPARDS_TRACKING_URL" default:"https://www.leopardscourier.com/tracking"`
	// DefaultShipperID is the shipper used when a booking does not name one.
	DefaultShipperID string `mapstructure:"LEOPARDS_DEFAULT_SHIPPER_ID"`
	// RenderHTMLLabels converts HTML slips to PDF with a headless browser.
	RenderHTMLLabels bool `mapstructure:"LABEL_RENDER_HTML"`
}

// CompanyConfig holds the company identity used as shipper fallback.
type CompanyConfig struct {
	Name   string `mapstructure:"COMPANY_NAME"`
	Email  string `mapstructure:"COMPANY_EMAIL"`
	Phone  string `mapstructure:"COMPANY_PHONE"`
	Street string `mapstructure:"COMPANY_STREET"`
}

// DatabaseConfig holds database connection details.
type DatabaseConfig struct {
	// Driver is either "postgres" or "sqlite".
	Driver string `mapstructure:"DB_DRIVER" default:"sqlite"`
	// DSN is the postgres connection string or the sqlite file path.
	DSN string `mapstructure:"DB_DSN" default:"leopards.db"`
}

// RedisConfig holds cache connection details. An empty URL disables caching.
type RedisConfig struct {
	URL string `mapstructure:"REDIS_URL"`
	// RateCacheTTLSeconds is how long a tariff quote is reused.
	RateCacheTTLSeconds int `mapstructure:"RATE_CACHE_TTL_SECONDS" default:"600"`
}

// StorageConfig holds S3-compatible storage details. An empty bucket stores labels in the database.
type StorageConfig struct {
	Bucket       string `mapstructure:"S3_BUCKET"`
	Endpoint     string `mapstructure:"S3_ENDPOINT"`
	Region       string `mapstructure:"S3_REGION" default:"us-east-1"`
	AccessKey    string `mapstructure:"S3_ACCESS_KEY"`
	SecretKey    string `mapstructure:"S3_SECRET_KEY"`
	UsePathStyle bool   `mapstructure:"S3_USE_PATH_STYLE" default:"true"`
}

// ProxyConfig holds the outbound proxy used for courier traffic.
type ProxyConfig struct {
	Enabled  bool   `mapstructure:"PROXY_ENABLED"`
	Hostname string `mapstructure:"PROXY_HOSTNAME"`
	Port     int    `mapstructure:"PROXY_PORT"`
	Username string `mapstructure:"PROXY_USERNAME"`
	Password string `mapstructure:"PROXY_PASSWORD"`
}

// JobsConfig holds the schedule of the background jobs.
type JobsConfig struct {
	RefreshIntervalMinutes int `mapstructure:"TRACKING_REFRESH_INTERVAL_MINUTES" default:"60"`
	RefreshLookbackDays    int `mapstructure:"TRACKING_REFRESH_LOOKBACK_DAYS" default:"30"`
	RefreshBatch           int `mapstructure:"TRACKING_REFRESH_BATCH" default:"50"`
	CancelIntervalMinutes  int `mapstructure:"CANCEL_QUEUE_INTERVAL_MINUTES" default:"5"`
	CancelBatch            int `mapstructure:"CANCEL_QUEUE_BATCH" default:"10"`
}

// RateCacheTTL returns the tariff cache lifetime.
func (r RedisConfig) RateCacheTTL() time.Duration {
	return time.Duration(r.RateCacheTTLSeconds) * time.Second
}

// RefreshInterval returns the tracking refresh period.
func (j JobsConfig) RefreshInterval() time.Duration {
	return time.Duration(j.RefreshIntervalMinutes) * time.Minute
}

// RefreshLookback returns how far back shipments are considered for refresh.
func (j JobsConfig) RefreshLookback() time.Duration {
	return time.Duration(j.RefreshLookbackDays) * 24 * time.Hour
}

// CancelInterval returns the cancellation queue period.
func (j JobsConfig) CancelInterval() time.Duration {
	return time.Duration(j.CancelIntervalMinutes) * time.Minute
}

// Load loads configuration from .env files and environment variables.
func Load(path string) (*AppConfig, error) {
	v := viper.New()

	v.AutomaticEnv()

	v.AddConfigPath(path)
	v.SetConfigName(".env")
	v.SetConfigType("env")

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config AppConfig

	if err := processTags(v, &config); err != nil {
		return nil, err
	}

	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	if err := validateRequired(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// processTags iterates over the struct fields, binds env keys and sets default values in Viper.
func processTags(v *viper.Viper, config interface{}) error {
	val := reflect.ValueOf(config)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}

	t := val.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		if field.Type.Kind() == reflect.Struct {
			if err := processTags(v, val.Field(i).Addr().Interface()); err != nil {
				return err
			}
			continue
		}

		key := field.Tag.Get("mapstructure")
		defaultValue := field.Tag.Get("default")

		if key != "" {
			if err := v.BindEnv(key); err != nil {
				return fmt.Errorf("failed to bind env %s: %w", key, err)
			}
		}

		if key != "" && defaultValue != "" {
			v.SetDefault(key, defaultValue)
		}
	}
	return nil
}

// validateRequired reports every field tagged required:"true" that is left blank.
func validateRequired(config interface{}) error {
	var missing []string
	collectMissing(reflect.ValueOf(config), &missing)
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}

func collectMissing(val reflect.Value, missing *[]string) {
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}

	t := val.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		if field.Type.Kind() == reflect.Struct {
			collectMissing(val.Field(i), missing)
			continue
		}

		if field.Tag.Get("required") == "true" && isBlank(val.Field(i)) {
			*missing = append(*missing, field.Tag.Get("mapstructure"))
		}
	}
}

// isBlank treats whitespace-only strings as unset; other kinds use their zero value.
func isBlank(v reflect.Value) bool {
	if v.Kind() == reflect.String {
		return strings.TrimSpace(v.String()) == ""
	}
	return v.IsZero()
}
