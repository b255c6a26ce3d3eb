// Package config loads ledger settings from a config file, a .env file and
// LEDGER_ environment variables.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/Veraticus/ledgerflow/internal/common"
)

// EnvPrefix is prepended to every environment override, e.g.
// LEDGER_DATABASE_PATH for database.path.
const EnvPrefix = "LEDGER"

// Config keys.
const (
	KeyDatabasePath    = "database.path"
	KeyLogLevel        = "logging.level"
	KeyLogFormat       = "logging.format"
	KeyAlertCooldown   = "alerts.cooldown"
	KeyAlertThreshold  = "alerts.default_threshold"
	KeyAMQPURL         = "alerts.amqp.url"
	KeyAMQPExchange    = "alerts.amqp.exchange"
	KeyAMQPRoutingKey  = "alerts.amqp.routing_key"
	KeyTopCategories   = "reports.top_categories"
	KeyReportCacheSize = "reports.cache_size"
	KeyDefaultCurrency = "ledger.default_currency"
)

// Config is the typed view of the loaded settings.
type Config struct {
	Database DatabaseConfig
	Logging  LoggingConfig
	Reports  ReportsConfig
	Ledger   LedgerConfig
	Alerts   AlertsConfig
}

// DatabaseConfig locates the SQLite file.
type DatabaseConfig struct {
	Path string
}

// LoggingConfig selects the slog handler.
type LoggingConfig struct {
	Level  string
	Format string
}

// AlertsConfig tunes budget alerts. AMQP is optional; alerts are only
// printed when URL is empty.
type AlertsConfig struct {
	DefaultThreshold decimal.Decimal
	AMQP             AMQPConfig
	Cooldown         time.Duration
}

// AMQPConfig describes where alerts are published.
type AMQPConfig struct {
	URL        string
	Exchange   string
	RoutingKey string
}

// Enabled reports whether an AMQP broker is configured.
func (c AMQPConfig) Enabled() bool {
	return c.URL != ""
}

// ReportsConfig tunes report generation.
type ReportsConfig struct {
	TopCategories int
	CacheSize     int
}

// LedgerConfig holds ledger-wide defaults.
type LedgerConfig struct {
	DefaultCurrency string
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyDatabasePath, DefaultDatabasePath())
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "console")
	v.SetDefault(KeyAlertCooldown, "30m")
	v.SetDefault(KeyAlertThreshold, 80)
	v.SetDefault(KeyAMQPURL, "")
	v.SetDefault(KeyAMQPExchange, "ledger")
	v.SetDefault(KeyAMQPRoutingKey, "budget.alerts")
	v.SetDefault(KeyTopCategories, 3)
	v.SetDefault(KeyReportCacheSize, 64)
	v.SetDefault(KeyDefaultCurrency, "USD")
}

// Init prepares v: .env from the working directory, defaults, LEDGER_
// environment overrides and the config file. A missing config file is not an
// error unless cfgFile names it explicitly.
func Init(v *viper.Viper, cfgFile string) error {
	// .env is a development convenience; its absence is fine.
	_ = godotenv.Load()

	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(ExpandPath(cfgFile))
	} else {
		v.AddConfigPath(DefaultConfigDir())
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}
	return nil
}

// Load reads the typed configuration from v and validates it.
func Load(v *viper.Viper) (*Config, error) {
	cooldown, err := time.ParseDuration(v.GetString(KeyAlertCooldown))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", common.ErrInvalidConfig, KeyAlertCooldown, err)
	}
	threshold, err := decimal.NewFromString(v.GetString(KeyAlertThreshold))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", common.ErrInvalidConfig, KeyAlertThreshold, err)
	}

	cfg := &Config{
		Database: DatabaseConfig{Path: ExpandPath(v.GetString(KeyDatabasePath))},
		Logging: LoggingConfig{
			Level:  strings.ToLower(v.GetString(KeyLogLevel)),
			Format: strings.ToLower(v.GetString(KeyLogFormat)),
		},
		Alerts: AlertsConfig{
			Cooldown:         cooldown,
			DefaultThreshold: threshold,
			AMQP: AMQPConfig{
				URL:        v.GetString(KeyAMQPURL),
				Exchange:   v.GetString(KeyAMQPExchange),
				RoutingKey: v.GetString(KeyAMQPRoutingKey),
			},
		},
		Reports: ReportsConfig{
			TopCategories: v.GetInt(KeyTopCategories),
			CacheSize:     v.GetInt(KeyReportCacheSize),
		},
		Ledger: LedgerConfig{DefaultCurrency: strings.ToUpper(v.GetString(KeyDefaultCurrency))},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var problems []string

	if c.Database.Path == "" {
		problems = append(problems, "database path cannot be empty")
	}
	if _, err := common.ParseLevel(c.Logging.Level); err != nil {
		problems = append(problems, err.Error())
	}
	if c.Logging.Format != "console" && c.Logging.Format != "json" {
		problems = append(problems, fmt.Sprintf("invalid log format %q: must be console or json", c.Logging.Format))
	}
	if c.Alerts.Cooldown < 0 {
		problems = append(problems, "alert cooldown cannot be negative")
	}
	if c.Alerts.DefaultThreshold.LessThanOrEqual(decimal.Zero) || c.Alerts.DefaultThreshold.GreaterThan(decimal.NewFromInt(100)) {
		problems = append(problems, fmt.Sprintf("default alert threshold %s must be between 0 and 100", c.Alerts.DefaultThreshold))
	}
	if c.Alerts.AMQP.Enabled() {
		if u, err := url.Parse(c.Alerts.AMQP.URL); err != nil {
			problems = append(problems, fmt.Sprintf("invalid AMQP URL: %v", err))
		} else if u.Scheme != "amqp" && u.Scheme != "amqps" {
			problems = append(problems, fmt.Sprintf("invalid AMQP URL scheme %q: must be amqp or amqps", u.Scheme))
		}
		if c.Alerts.AMQP.Exchange == "" {
			problems = append(problems, "AMQP exchange cannot be empty when a broker URL is set")
		}
	}
	if c.Reports.TopCategories < 1 {
		problems = append(problems, "reports.top_categories must be at least 1")
	}
	if c.Reports.CacheSize < 1 {
		problems = append(problems, "reports.cache_size must be at least 1")
	}
	if len(c.Ledger.DefaultCurrency) != 3 {
		problems = append(problems, fmt.Sprintf("default currency %q must be a 3-letter code", c.Ledger.DefaultCurrency))
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", common.ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}
