package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/SscSPs/exchanger/internal/dto"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Store drivers.
const (
	StoreDriverPostgres = "postgres"
	StoreDriverBolt     = "bolt"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL    string
	ConnectRetries uint64
	StoreDriver    string
	BoltPath       string
	MigrationsPath string
	LogLevel       string
	MetricsPort    string

	ProviderTimeout     time.Duration
	ConvertLookbackDays int
	BackfillWorkers     int
	BackfillMaxDays     int
	BackfillJobTimeout  time.Duration
	BackfillJobRetries  uint64

	KafkaBrokers       []string
	KafkaBackfillTopic string
	KafkaGroupID       string

	FixerURL    string
	FixerAPIKey string

	// MockBaseRates overrides the baseline rates against EUR.
	MockBaseRates map[string]decimal.Decimal

	// Currencies and Providers are seeded into the store at startup.
	Currencies []dto.CreateCurrencyRequest
	Providers  []dto.ProviderConfigRequest
}

var defaultCurrencies = []dto.CreateCurrencyRequest{
	{CurrencyCode: "EUR", Symbol: "€", Name: "Euro"},
	{CurrencyCode: "USD", Symbol: "$", Name: "US Dollar"},
	{CurrencyCode: "GBP", Symbol: "£", Name: "Pound Sterling"},
	{CurrencyCode: "CHF", Symbol: "CHF", Name: "Swiss Franc"},
}

// LoadConfig loads configuration from environment variables, a .env file and the
// optional YAML file named by CONFIG_FILE.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	v := viper.New()
	v.SetDefault("PGSQL_URL", "")
	v.SetDefault("PGSQL_CONNECT_RETRIES", 5)
	v.SetDefault("STORE_DRIVER", StoreDriverPostgres)
	v.SetDefault("BOLT_PATH", "data/exchanger.db")
	v.SetDefault("MIGRATIONS_PATH", "migrations")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("METRICS_PORT", "9090")
	v.SetDefault("PROVIDER_TIMEOUT", "10s")
	v.SetDefault("CONVERT_LOOKBACK_DAYS", 30)
	v.SetDefault("BACKFILL_WORKERS", 4)
	v.SetDefault("BACKFILL_MAX_DAYS", 366)
	v.SetDefault("BACKFILL_JOB_TIMEOUT", "360s")
	v.SetDefault("BACKFILL_JOB_RETRIES", 3)
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("KAFKA_BACKFILL_TOPIC", "exchanger.backfill")
	v.SetDefault("KAFKA_GROUP_ID", "exchanger-backfill")
	v.SetDefault("FIXERIO_URL", "http://data.fixer.io/api")
	v.SetDefault("FIXERIO_APIKEY", "")
	v.SetDefault("MOCK_BASE_RATES", "")
	v.SetDefault("CONFIG_FILE", "")

	// Environment variables override defaults and the .env file.
	v.AutomaticEnv()

	if file := v.GetString("CONFIG_FILE"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", file, err)
		}
	}

	cfg := &Config{
		DatabaseURL:        v.GetString("PGSQL_URL"),
		ConnectRetries:     v.GetUint64("PGSQL_CONNECT_RETRIES"),
		StoreDriver:        strings.ToLower(v.GetString("STORE_DRIVER")),
		BoltPath:           v.GetString("BOLT_PATH"),
		MigrationsPath:     v.GetString("MIGRATIONS_PATH"),
		LogLevel:           v.GetString("LOG_LEVEL"),
		MetricsPort:        v.GetString("METRICS_PORT"),
		KafkaBackfillTopic: v.GetString("KAFKA_BACKFILL_TOPIC"),
		KafkaGroupID:       v.GetString("KAFKA_GROUP_ID"),
		FixerURL:           v.GetString("FIXERIO_URL"),
		FixerAPIKey:        v.GetString("FIXERIO_APIKEY"),
		BackfillJobRetries: v.GetUint64("BACKFILL_JOB_RETRIES"),
	}

	switch cfg.StoreDriver {
	case StoreDriverPostgres:
		if cfg.DatabaseURL == "" {
			log.Println("Warning: PGSQL_URL environment variable not set.")
		}
	case StoreDriverBolt:
	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q (want %s or %s)", cfg.StoreDriver, StoreDriverPostgres, StoreDriverBolt)
	}

	cfg.ProviderTimeout = durationOrDefault(v, "PROVIDER_TIMEOUT", 10*time.Second)
	cfg.BackfillJobTimeout = durationOrDefault(v, "BACKFILL_JOB_TIMEOUT", 360*time.Second)
	cfg.ConvertLookbackDays = positiveOrDefault(v, "CONVERT_LOOKBACK_DAYS", 30)
	cfg.BackfillWorkers = positiveOrDefault(v, "BACKFILL_WORKERS", 4)
	cfg.BackfillMaxDays = positiveOrDefault(v, "BACKFILL_MAX_DAYS", 366)

	for _, broker := range strings.Split(v.GetString("KAFKA_BROKERS"), ",") {
		if broker = strings.TrimSpace(broker); broker != "" {
			cfg.KafkaBrokers = append(cfg.KafkaBrokers, broker)
		}
	}
	if len(cfg.KafkaBrokers) == 0 {
		log.Println("Warning: KAFKA_BROKERS not set. Asynchronous backfill is disabled.")
	}

	baseRates, err := parseBaseRates(v.GetString("MOCK_BASE_RATES"))
	if err != nil {
		return nil, err
	}
	cfg.MockBaseRates = baseRates

	if err := v.UnmarshalKey("currencies", &cfg.Currencies); err != nil {
		return nil, fmt.Errorf("failed to decode currencies: %w", err)
	}
	if len(cfg.Currencies) == 0 {
		cfg.Currencies = defaultCurrencies
	}

	if err := v.UnmarshalKey("providers", &cfg.Providers); err != nil {
		return nil, fmt.Errorf("failed to decode providers: %w", err)
	}
	if len(cfg.Providers) == 0 {
		cfg.Providers = defaultProviders(cfg)
	}

	return cfg, nil
}

// defaultProviders tries fixer.io first when it has an API key, then the mock strategy.
func defaultProviders(cfg *Config) []dto.ProviderConfigRequest {
	var providers []dto.ProviderConfigRequest
	if cfg.FixerAPIKey != "" {
		providers = append(providers, dto.ProviderConfigRequest{
			Name:     "fixer",
			Priority: 1,
			Kind:     "remote",
			Endpoint: cfg.FixerURL,
			APIKey:   cfg.FixerAPIKey,
		})
	} else {
		log.Println("Warning: FIXERIO_APIKEY not set. Only the mock provider is configured.")
	}
	return append(providers, dto.ProviderConfigRequest{
		Name:     "mock",
		Priority: len(providers) + 1,
		Kind:     "mock",
	})
}

func durationOrDefault(v *viper.Viper, key string, def time.Duration) time.Duration {
	raw := v.GetString(key)
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		log.Printf("Warning: Invalid value for %s ('%s'). Defaulting to %s.\n", key, raw, def)
		return def
	}
	return d
}

func positiveOrDefault(v *viper.Viper, key string, def int) int {
	n := v.GetInt(key)
	if n <= 0 {
		log.Printf("Warning: Invalid value for %s ('%s'). Defaulting to %d.\n", key, v.GetString(key), def)
		return def
	}
	return n
}

// parseBaseRates reads "USD=1.15,GBP=0.80" into a table; EUR is always 1.
func parseBaseRates(raw string) (map[string]decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	rates := map[string]decimal.Decimal{"EUR": decimal.NewFromInt(1)}
	for _, pair := range strings.Split(raw, ",") {
		code, value, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok {
			return nil, fmt.Errorf("invalid MOCK_BASE_RATES entry %q, want CODE=RATE", pair)
		}
		rate, err := decimal.NewFromString(strings.TrimSpace(value))
		if err != nil || !rate.IsPositive() {
			return nil, fmt.Errorf("invalid MOCK_BASE_RATES rate for %s: %q", code, value)
		}
		rates[strings.ToUpper(strings.TrimSpace(code))] = rate
	}
	return rates, nil
}
