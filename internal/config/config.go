// Package config provides configuration loading and validation.
// Configuration is loaded once at startup and treated as immutable;
// the only runtime-adjustable knobs are the volatility-regime profit
// multipliers, which are swapped wholesale, never mutated field-by-field.
package config

import (
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Venue kinds form a closed set; dispatch happens once at startup.
const (
	VenueKindConstantProduct       = "constant-product"
	VenueKindConcentratedLiquidity = "concentrated-liquidity"
	VenueKindStableSwap            = "stable-swap"
)

// Config holds all application configuration.
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Ethereum   EthereumConfig   `mapstructure:"ethereum"`
	Tokens     []TokenConfig    `mapstructure:"tokens"`
	Venues     []VenueConfig    `mapstructure:"venues"`
	Validation ValidationConfig `mapstructure:"validation"`
	Risk       RiskConfig       `mapstructure:"risk"`
	Scanner    ScannerConfig    `mapstructure:"scanner"`
	Reference  ReferenceConfig  `mapstructure:"reference"`
	Telemetry  TelemetryConfig  `mapstructure:"telemetry"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
}

// EthereumConfig holds RPC node configuration.
type EthereumConfig struct {
	HTTPURL      string        `mapstructure:"http_url"`
	ChainID      uint64        `mapstructure:"chain_id"`
	GasCacheTTL  time.Duration `mapstructure:"gas_cache_ttl"`
	RateLimitRPM int           `mapstructure:"rate_limit_rpm"`
	RequestBurst int           `mapstructure:"request_burst"`
}

// TokenConfig declares one tradeable token.
type TokenConfig struct {
	Symbol   string `mapstructure:"symbol"`
	Name     string `mapstructure:"name"`
	Address  string `mapstructure:"address"` // empty = native coin
	Decimals uint8  `mapstructure:"decimals"`
	Class    string `mapstructure:"class"` // stablecoin | major | alt
}

// VenueConfig declares one liquidity venue. Which fields apply depends
// on the kind; Validate enforces the per-kind requirements.
type VenueConfig struct {
	Name           string   `mapstructure:"name"`
	Kind           string   `mapstructure:"kind"`
	QuoterAddress  string   `mapstructure:"quoter_address"`  // concentrated-liquidity
	FactoryAddress string   `mapstructure:"factory_address"` // constant-product
	PoolAddress    string   `mapstructure:"pool_address"`    // stable-swap
	FeeTiers       []int    `mapstructure:"fee_tiers"`       // concentrated-liquidity
	FeeBps         int      `mapstructure:"fee_bps"`         // constant-product / stable-swap
	Coins          []string `mapstructure:"coins"`           // stable-swap coin order
}

// ValidationConfig holds every threshold the validation pipeline reads.
type ValidationConfig struct {
	// Gas gate
	MaxGasPriceGwei float64 `mapstructure:"max_gas_price_gwei"`

	// Profitability gates
	MinProfitUSD            float64 `mapstructure:"min_profit_usd"`
	MinProfitMultiplier     float64 `mapstructure:"min_profit_multiplier"`
	HighVolProfitMultiplier float64 `mapstructure:"high_vol_profit_multiplier"`
	LowVolProfitMultiplier  float64 `mapstructure:"low_vol_profit_multiplier"`
	FlashLoanFeeRate        float64 `mapstructure:"flash_loan_fee_rate"`
	SingleHopGasUnits       uint64  `mapstructure:"single_hop_gas_units"`
	MultiHopGasUnits        uint64  `mapstructure:"multi_hop_gas_units"`

	// Liquidity depth gates
	MaxReserveRatioPct float64 `mapstructure:"max_reserve_ratio_pct"`
	MaxPriceImpactPct  float64 `mapstructure:"max_price_impact_pct"`

	// Spread plausibility
	StablePairSpreadPct   float64 `mapstructure:"stable_pair_spread_pct"`
	MajorPairSpreadPct    float64 `mapstructure:"major_pair_spread_pct"`
	DefaultPairSpreadPct  float64 `mapstructure:"default_pair_spread_pct"`
	OutlierStdDevs        float64 `mapstructure:"outlier_std_devs"`
	SpreadWindowSize      int     `mapstructure:"spread_window_size"`
	ReferenceTolerancePct float64 `mapstructure:"reference_tolerance_pct"`
	ManipulationSpreadPct float64 `mapstructure:"manipulation_spread_pct"`
	LargeTradeUSD         float64 `mapstructure:"large_trade_usd"`

	// Spread history persistence
	HistoryPath string `mapstructure:"history_path"`
}

// RiskConfig holds circuit breaker settings.
type RiskConfig struct {
	MaxConsecutiveFailures int     `mapstructure:"max_consecutive_failures"`
	MaxDailyLossUSD        float64 `mapstructure:"max_daily_loss_usd"`
	CooldownPeriodMinutes  int     `mapstructure:"cooldown_period_minutes"`
	MaxPriceDeviationPct   float64 `mapstructure:"max_price_deviation_pct"`
	MinLiquidityPct        float64 `mapstructure:"min_liquidity_pct"`
	ExecutionHistorySize   int     `mapstructure:"execution_history_size"`
}

// ScannerConfig holds scan loop settings.
type ScannerConfig struct {
	Interval       time.Duration    `mapstructure:"interval"`
	ExecuteEnabled bool             `mapstructure:"execute_enabled"`
	Pairs          []ScanPairConfig `mapstructure:"pairs"`
}

// ScanPairConfig declares one pair the scanner builds candidates for.
// AmountIn is in whole tokens of TokenA.
type ScanPairConfig struct {
	TokenA   string `mapstructure:"token_a"`
	TokenB   string `mapstructure:"token_b"`
	AmountIn string `mapstructure:"amount_in"`
}

// ReferenceConfig holds the external reference price feed settings.
type ReferenceConfig struct {
	WebSocketURL string        `mapstructure:"websocket_url"`
	HTTPURL      string        `mapstructure:"http_url"`
	Symbols      []string      `mapstructure:"symbols"`
	StaleTimeout time.Duration `mapstructure:"stale_timeout"`
}

// TelemetryConfig holds observability configuration.
type TelemetryConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	ServiceName    string `mapstructure:"service_name"`
	OTLPEndpoint   string `mapstructure:"otlp_endpoint"`
	PrometheusPort int    `mapstructure:"prometheus_port"`
	HealthPort     int    `mapstructure:"health_port"`
}

// MinProfitUSDDecimal returns the absolute profit floor as a decimal.
func (c *ValidationConfig) MinProfitUSDDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.MinProfitUSD)
}

// FlashLoanFeeRateDecimal returns the flash loan fee rate as a decimal.
func (c *ValidationConfig) FlashLoanFeeRateDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.FlashLoanFeeRate)
}

// CooldownPeriod returns the breaker cooldown as a duration.
func (c *RiskConfig) CooldownPeriod() time.Duration {
	return time.Duration(c.CooldownPeriodMinutes) * time.Minute
}

// Load loads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix("ARB")
	v.AutomaticEnv()
	bindEnvVars(v)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// No config file is fine; env vars and defaults apply.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func bindEnvVars(v *viper.Viper) {
	v.BindEnv("app.name", "ARB_APP_NAME", "SERVICE_NAME")
	v.BindEnv("app.environment", "ARB_ENVIRONMENT", "ENVIRONMENT")
	v.BindEnv("app.log_level", "ARB_LOG_LEVEL", "LOG_LEVEL")

	v.BindEnv("ethereum.http_url", "ARB_ETH_HTTP_URL", "ETH_HTTP_URL")
	v.BindEnv("ethereum.chain_id", "ARB_ETH_CHAIN_ID", "ETH_CHAIN_ID")

	v.BindEnv("validation.max_gas_price_gwei", "ARB_MAX_GAS_PRICE_GWEI")
	v.BindEnv("validation.min_profit_usd", "ARB_MIN_PROFIT_USD")
	v.BindEnv("validation.min_profit_multiplier", "ARB_MIN_PROFIT_MULTIPLIER")
	v.BindEnv("validation.flash_loan_fee_rate", "ARB_FLASH_LOAN_FEE_RATE")
	v.BindEnv("validation.history_path", "ARB_HISTORY_PATH")

	v.BindEnv("risk.max_consecutive_failures", "ARB_MAX_CONSECUTIVE_FAILURES")
	v.BindEnv("risk.max_daily_loss_usd", "ARB_MAX_DAILY_LOSS_USD")
	v.BindEnv("risk.cooldown_period_minutes", "ARB_COOLDOWN_PERIOD_MINUTES")

	v.BindEnv("scanner.interval", "ARB_SCAN_INTERVAL")
	v.BindEnv("scanner.execute_enabled", "ARB_EXECUTE_ENABLED")

	v.BindEnv("reference.websocket_url", "ARB_REFERENCE_WS_URL")
	v.BindEnv("reference.http_url", "ARB_REFERENCE_HTTP_URL")

	v.BindEnv("telemetry.enabled", "ARB_OTEL_ENABLED", "OTEL_ENABLED")
	v.BindEnv("telemetry.service_name", "ARB_OTEL_SERVICE_NAME", "OTEL_SERVICE_NAME")
	v.BindEnv("telemetry.otlp_endpoint", "ARB_OTEL_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "arb-validator")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	v.SetDefault("ethereum.chain_id", 1)
	v.SetDefault("ethereum.gas_cache_ttl", "12s") // ~1 block
	v.SetDefault("ethereum.rate_limit_rpm", 300)
	v.SetDefault("ethereum.request_burst", 20)

	v.SetDefault("validation.max_gas_price_gwei", 100.0)
	v.SetDefault("validation.min_profit_usd", 50.0)
	v.SetDefault("validation.min_profit_multiplier", 2.0)
	v.SetDefault("validation.high_vol_profit_multiplier", 3.0)
	v.SetDefault("validation.low_vol_profit_multiplier", 1.5)
	v.SetDefault("validation.flash_loan_fee_rate", 0.0009) // Aave V2: 0.09%
	v.SetDefault("validation.single_hop_gas_units", 300_000)
	v.SetDefault("validation.multi_hop_gas_units", 500_000)
	v.SetDefault("validation.max_reserve_ratio_pct", 5.0)
	v.SetDefault("validation.max_price_impact_pct", 3.0)
	v.SetDefault("validation.stable_pair_spread_pct", 0.25)
	v.SetDefault("validation.major_pair_spread_pct", 0.75)
	v.SetDefault("validation.default_pair_spread_pct", 1.5)
	v.SetDefault("validation.outlier_std_devs", 3.0)
	v.SetDefault("validation.spread_window_size", 50)
	v.SetDefault("validation.reference_tolerance_pct", 2.0)
	v.SetDefault("validation.manipulation_spread_pct", 5.0)
	v.SetDefault("validation.large_trade_usd", 50_000.0)
	v.SetDefault("validation.history_path", "spreads.db")

	v.SetDefault("risk.max_consecutive_failures", 3)
	v.SetDefault("risk.max_daily_loss_usd", 500.0)
	v.SetDefault("risk.cooldown_period_minutes", 60)
	v.SetDefault("risk.max_price_deviation_pct", 10.0)
	v.SetDefault("risk.min_liquidity_pct", 50.0)
	v.SetDefault("risk.execution_history_size", 100)

	v.SetDefault("scanner.interval", "5s")
	v.SetDefault("scanner.execute_enabled", false)

	v.SetDefault("reference.websocket_url", "wss://stream.binance.com:9443")
	v.SetDefault("reference.http_url", "https://api.binance.com")
	v.SetDefault("reference.symbols", []string{"ETHUSDC"})
	v.SetDefault("reference.stale_timeout", "10s")

	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "arb-validator")
	v.SetDefault("telemetry.prometheus_port", 9090)
	v.SetDefault("telemetry.health_port", 8081)
}

// Validate validates the configuration. Configuration errors are fatal
// at startup; the scan loop assumes a valid config.
func (c *Config) Validate() error {
	if c.Ethereum.HTTPURL == "" {
		return fmt.Errorf("ethereum.http_url is required")
	}
	if len(c.Venues) == 0 {
		return fmt.Errorf("at least one venue is required")
	}
	for i, venue := range c.Venues {
		if venue.Name == "" {
			return fmt.Errorf("venues[%d]: name is required", i)
		}
		switch venue.Kind {
		case VenueKindConcentratedLiquidity:
			if !common.IsHexAddress(venue.QuoterAddress) {
				return fmt.Errorf("venue %s: invalid quoter_address %q", venue.Name, venue.QuoterAddress)
			}
			if len(venue.FeeTiers) == 0 {
				return fmt.Errorf("venue %s: fee_tiers is required", venue.Name)
			}
		case VenueKindConstantProduct:
			if !common.IsHexAddress(venue.FactoryAddress) {
				return fmt.Errorf("venue %s: invalid factory_address %q", venue.Name, venue.FactoryAddress)
			}
			if venue.FeeBps <= 0 {
				return fmt.Errorf("venue %s: fee_bps is required", venue.Name)
			}
		case VenueKindStableSwap:
			if !common.IsHexAddress(venue.PoolAddress) {
				return fmt.Errorf("venue %s: invalid pool_address %q", venue.Name, venue.PoolAddress)
			}
			if len(venue.Coins) < 2 {
				return fmt.Errorf("venue %s: at least two coins required", venue.Name)
			}
		default:
			return fmt.Errorf("venue %s: unknown kind %q", venue.Name, venue.Kind)
		}
	}
	if c.Validation.MaxReserveRatioPct <= 0 || c.Validation.MaxReserveRatioPct > 100 {
		return fmt.Errorf("validation.max_reserve_ratio_pct must be in (0, 100]")
	}
	if c.Validation.MaxPriceImpactPct <= 0 || c.Validation.MaxPriceImpactPct > 100 {
		return fmt.Errorf("validation.max_price_impact_pct must be in (0, 100]")
	}
	if c.Validation.MinProfitMultiplier <= 0 {
		return fmt.Errorf("validation.min_profit_multiplier must be positive")
	}
	if c.Risk.MaxConsecutiveFailures <= 0 {
		return fmt.Errorf("risk.max_consecutive_failures must be positive")
	}
	if c.Risk.MaxDailyLossUSD <= 0 {
		return fmt.Errorf("risk.max_daily_loss_usd must be positive")
	}
	if c.Scanner.Interval <= 0 {
		return fmt.Errorf("scanner.interval must be positive")
	}
	return nil
}
