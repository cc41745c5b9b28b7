package app

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/cohabs/stripesync/internal/billing"
	"github.com/cohabs/stripesync/internal/lock"
	"github.com/cohabs/stripesync/internal/store"
	"github.com/cohabs/stripesync/pkg/constants"
	"github.com/cohabs/stripesync/pkg/errors"
)

// Config holds the application configuration loaded from various sources
// including config files, environment variables, and .env files.
type Config struct {
	// Global flags
	Verbose bool
	Quiet   bool
	NoColor bool
	Format  string `validate:"omitempty,oneof=table json yaml"`

	// Config file
	ConfigFile string

	// Database configuration
	DBHost     string `validate:"required"`
	DBPort     string `validate:"omitempty,numeric"`
	DBUser     string
	DBPassword string
	DBName     string `validate:"required"`

	// Stripe configuration
	StripeSecretKey    string  `validate:"required"`
	StripeAccount      string
	StripeRateLimit    float64 `validate:"gte=0"`
	StripeURL          string  `validate:"omitempty,url"`
	StripePaymentToken string

	// Run lock and events
	RedisAddr     string `validate:"omitempty,hostname_port"`
	RedisPassword string
	RunLockTTL    time.Duration
	AMQPURL       string `validate:"omitempty,url"`

	// Report configuration
	ReportDir    string
	ReportFormat string `validate:"omitempty,oneof=text txt markdown md xlsx excel"`

	// Reconciliation configuration
	Concurrency     int    `validate:"gte=1,lte=100"`
	ListLimit       int    `validate:"gte=1,lte=100"`
	CheckMode       string `validate:"oneof=probe listing"`
	ActiveOnly      bool
	IdempotencyKeys bool

	// Logging configuration. LogLevel holds the --log-level flag and
	// EnvLogLevel the LOG_LEVEL variable, which ranks below -v and -q.
	LogLevel    string
	EnvLogLevel string
	LogFormat   string
	LogOutput   string
}

// LoadConfig loads configuration from all sources in order of precedence:
// 1. Command-line flags (handled by cobra)
// 2. Environment variables
// 3. .env files
// 4. Config file (STRIPESYNC_CONFIG, ~/.stripesync.yaml or ./.stripesync.yaml)
// 5. Defaults
func LoadConfig() (*Config, error) {
	// Load .env files first (before Viper env binding)
	loadEnvFiles()

	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	setDefaults(v)

	if configFile := v.GetString("stripesync_config"); configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName(".stripesync")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, errors.NewConfigError("config file", err.Error(), err)
		}
	}

	return &Config{
		Verbose: v.GetBool("verbose"),
		Quiet:   v.GetBool("quiet"),
		NoColor: v.GetBool("no_color"),
		Format:  v.GetString("format"),

		ConfigFile: v.ConfigFileUsed(),

		DBHost:     v.GetString("db_host"),
		DBPort:     v.GetString("db_port"),
		DBUser:     v.GetString("db_user"),
		DBPassword: v.GetString("db_password"),
		DBName:     v.GetString("db_name"),

		StripeSecretKey:    v.GetString("stripe_secret_key"),
		StripeAccount:      v.GetString("stripe_account"),
		StripeRateLimit:    v.GetFloat64("stripe_rate_limit"),
		StripeURL:          v.GetString("stripe_url"),
		StripePaymentToken: v.GetString("stripe_payment_token"),

		RedisAddr:     v.GetString("redis_addr"),
		RedisPassword: v.GetString("redis_password"),
		RunLockTTL:    v.GetDuration("run_lock_ttl"),
		AMQPURL:       v.GetString("amqp_url"),

		ReportDir:    v.GetString("report_dir"),
		ReportFormat: v.GetString("report_format"),

		Concurrency:     v.GetInt("sync_concurrency"),
		ListLimit:       v.GetInt("sync_list_limit"),
		CheckMode:       v.GetString("sync_check_mode"),
		ActiveOnly:      v.GetBool("sync_active_only"),
		IdempotencyKeys: v.GetBool("sync_idempotency_keys"),

		EnvLogLevel: v.GetString("log_level"),
		LogFormat:   v.GetString("log_format"),
		LogOutput:   v.GetString("log_output"),
	}, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("db_port", "3306")
	v.SetDefault("db_name", constants.DefaultDatabase)
	v.SetDefault("stripe_rate_limit", constants.DefaultRateLimit)
	v.SetDefault("run_lock_ttl", constants.RunLockTTL)
	v.SetDefault("report_dir", constants.DefaultReportDir)
	v.SetDefault("report_format", "text")
	v.SetDefault("sync_concurrency", constants.MaxConcurrentRequests)
	v.SetDefault("sync_list_limit", constants.DefaultPageSize)
	v.SetDefault("sync_check_mode", "probe")
	v.SetDefault("log_format", "auto")
	v.SetDefault("log_output", "stderr")
}

// Validate checks the settings a command needs before it touches the
// database or Stripe.
func (c *Config) Validate() error {
	err := validator.New().Struct(c)
	if err == nil {
		return nil
	}
	var invalid validator.ValidationErrors
	if !errors.As(err, &invalid) {
		return errors.NewConfigError("app", err.Error(), err)
	}
	problems := make([]string, 0, len(invalid))
	for _, fe := range invalid {
		problems = append(problems, fmt.Sprintf("%s: %s", fe.Field(), fe.Tag()))
	}
	return errors.NewConfigError("app", strings.Join(problems, ", "), err)
}

// Store returns the database settings.
func (c *Config) Store() store.Config {
	return store.Config{
		Host:     c.DBHost,
		Port:     c.DBPort,
		User:     c.DBUser,
		Password: c.DBPassword,
		Name:     c.DBName,
	}
}

// Billing returns the Stripe client settings.
func (c *Config) Billing() billing.Config {
	return billing.Config{
		SecretKey:    c.StripeSecretKey,
		Account:      c.StripeAccount,
		RateLimit:    c.StripeRateLimit,
		URL:          c.StripeURL,
		PaymentToken: c.StripePaymentToken,
	}
}

// Lock returns the run lock settings.
func (c *Config) Lock() lock.Config {
	return lock.Config{
		Addr:     c.RedisAddr,
		Password: c.RedisPassword,
		Key:      constants.RunLockKey,
		TTL:      c.RunLockTTL,
	}
}

// loadEnvFiles loads environment variables from .env files.
func loadEnvFiles() {
	// .env.local overrides .env
	for _, envFile := range []string{".env.local", ".env"} {
		_ = godotenv.Load(envFile)
	}
}
