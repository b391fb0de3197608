// =================================
// File: internal/config/config.go
// =================================
package config

import (
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Authority       string `mapstructure:"authority"`
	FeeRecipient    string `mapstructure:"fee_recipient"`
	SettlementAsset string `mapstructure:"settlement_asset"`

	PlatformFeeBps                  uint64 `mapstructure:"platform_fee_bps"`
	HighFeeBps                      uint64 `mapstructure:"high_fee_bps"`
	InitialVirtualTokenReserve      uint64 `mapstructure:"initial_virtual_token_reserve"`
	InitialVirtualSettlementReserve uint64 `mapstructure:"initial_virtual_settlement_reserve"`
	MigrationThreshold              uint64 `mapstructure:"migration_threshold"`
	MinTradeSize                    uint64 `mapstructure:"min_trade_size"`
	MigrationGasReserve             uint64 `mapstructure:"migration_gas_reserve"`
	LastBuyerWaitSeconds            int    `mapstructure:"last_buyer_wait_seconds"`
	MigrationDeadlineSeconds        int    `mapstructure:"migration_deadline_seconds"`

	ListenAddr   string `mapstructure:"listen_addr"`
	WebhookURL   string `mapstructure:"webhook_url"`
	EventBuffer  int    `mapstructure:"event_buffer"`
	DebugLogging bool   `mapstructure:"debug_logging"`
	LogFile      string `mapstructure:"log_file"`

	StorageDriver string `mapstructure:"storage_driver"` // "postgres", "sqlite" or ""
	PostgresURL   string `mapstructure:"postgres_url"`
	SQLitePath    string `mapstructure:"sqlite_path"`
}

const (
	DefaultListenAddr  = ":8080"
	DefaultEventBuffer = 256
	DefaultSQLitePath  = "launchpad.db"
)

func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	defaults := map[string]interface{}{
		"settlement_asset":                   "USDX",
		"platform_fee_bps":                   100,
		"high_fee_bps":                       1000,
		"initial_virtual_token_reserve":      uint64(100_000_000) * 100_000_000,
		"initial_virtual_settlement_reserve": uint64(100_000) * 100_000_000,
		"migration_threshold":                uint64(21_000) * 100_000_000,
		"min_trade_size":                     10_000,
		"migration_gas_reserve":              100_000_000,
		"last_buyer_wait_seconds":            300,
		"migration_deadline_seconds":         300,
		"listen_addr":                        DefaultListenAddr,
		"event_buffer":                       DefaultEventBuffer,
		"sqlite_path":                        DefaultSQLitePath,
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	loadEnvironmentVariables(v, &cfg)

	return &cfg, validateConfig(&cfg)
}

func (c *Config) LastBuyerWait() time.Duration {
	return time.Duration(c.LastBuyerWaitSeconds) * time.Second
}

func (c *Config) MigrationDeadlineOffset() time.Duration {
	return time.Duration(c.MigrationDeadlineSeconds) * time.Second
}

func validateConfig(cfg *Config) error {
	if cfg.Authority == "" {
		return errors.New("missing authority in configuration")
	}
	if cfg.FeeRecipient == "" {
		return errors.New("missing fee_recipient in configuration")
	}
	if cfg.SettlementAsset == "" {
		return errors.New("missing settlement_asset in configuration")
	}
	if err := validateNumericParams(cfg); err != nil {
		return err
	}
	if cfg.WebhookURL != "" {
		if err := validateURL(cfg.WebhookURL, "https"); err != nil {
			return errors.New("webhook URL must use HTTPS")
		}
	}
	switch cfg.StorageDriver {
	case "", "sqlite":
	case "postgres":
		if cfg.PostgresURL == "" {
			return errors.New("postgres_url required for postgres storage")
		}
	default:
		return errors.New("unknown storage_driver")
	}
	return nil
}

func validateNumericParams(cfg *Config) error {
	if cfg.PlatformFeeBps > 10_000 || cfg.HighFeeBps > 10_000 {
		return errors.New("fee above 10000 bps")
	}
	if cfg.InitialVirtualTokenReserve == 0 || cfg.InitialVirtualSettlementReserve == 0 {
		return errors.New("zero initial virtual reserve")
	}
	if cfg.MigrationThreshold == 0 {
		return errors.New("zero migration_threshold")
	}
	if cfg.MigrationThreshold <= cfg.MigrationGasReserve {
		return errors.New("migration_threshold must exceed migration_gas_reserve")
	}
	if cfg.LastBuyerWaitSeconds <= 0 {
		return errors.New("invalid last_buyer_wait_seconds")
	}
	if cfg.MigrationDeadlineSeconds <= 0 {
		return errors.New("invalid migration_deadline_seconds")
	}
	if cfg.EventBuffer <= 0 {
		return errors.New("invalid event_buffer")
	}
	return nil
}

func validateURL(rawURL string, protocol string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return errors.New("invalid URL format")
	}
	if !strings.HasPrefix(parsed.Scheme, protocol) {
		return errors.New("invalid URL protocol")
	}
	return nil
}

func loadEnvironmentVariables(v *viper.Viper, cfg *Config) {
	v.AutomaticEnv()
	v.SetEnvPrefix("LAUNCHPAD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if envAuthority := v.GetString("AUTHORITY"); envAuthority != "" {
		cfg.Authority = envAuthority
	}
	if envPostgres := v.GetString("POSTGRES_URL"); envPostgres != "" {
		cfg.PostgresURL = envPostgres
	}
}
