// Package config parses the forecaster configuration.
//
// Process-wide settings (listen addresses, logging, storage) come from flags
// with environment variable fallbacks. Batches of series to forecast come
// either from a batch file (--batch-file, YAML/JSON/TOML read with viper) or,
// for a single-series batch, from flags plus ADAPTER_* variables.
//
// Precedence: flags, then environment variables, then defaults.
//
//	cfg, err := config.Parse(os.Args[1:])
//	batches, err := config.LoadBatches(cfg)
package config

import (
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/HatiCode/hwcast/pkg/adapters"
	"github.com/HatiCode/hwcast/pkg/holtwinters"
)

// Config holds all forecaster configuration.
type Config struct {
	Listen     string
	GRPCListen string
	LogFormat  string
	LogLevel   string

	Storage       string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	SnapshotTTL   time.Duration

	BatchFile string

	// Single-series batch, used when BatchFile is empty.
	Batch          string
	Series         string
	Adapter        string
	AdapterConfig  map[string]string
	Frequency      int
	Seasonal       string
	StartPeriods   int
	Horizon        time.Duration
	Step           time.Duration
	Interval       time.Duration
	Window         time.Duration
	Quantiles      string
	MaxEvaluations int
	Workers        int
}

// SeriesConfig describes where one series of a batch is collected from.
type SeriesConfig struct {
	Name    string            `mapstructure:"name"`
	Adapter string            `mapstructure:"adapter"`
	Config  map[string]string `mapstructure:"config"`
}

// BatchConfig is a set of series fit and forecast together.
type BatchConfig struct {
	Name           string         `mapstructure:"name"`
	Frequency      int            `mapstructure:"frequency"`
	Seasonal       string         `mapstructure:"seasonal"`
	StartPeriods   int            `mapstructure:"start_periods"`
	Horizon        time.Duration  `mapstructure:"horizon"`
	Step           time.Duration  `mapstructure:"step"`
	Interval       time.Duration  `mapstructure:"interval"`
	Window         time.Duration  `mapstructure:"window"`
	Quantiles      []string       `mapstructure:"quantiles"`
	MaxEvaluations int            `mapstructure:"max_evaluations"`
	Workers        int            `mapstructure:"workers"`
	Series         []SeriesConfig `mapstructure:"series"`
}

// MaxHorizonSteps bounds the forecast horizon of a batch, in steps.
const MaxHorizonSteps = 10000

// HorizonSteps returns the forecast horizon in steps.
func (b BatchConfig) HorizonSteps() int {
	return int(b.Horizon / b.Step)
}

// QuantileLevels parses Quantiles into levels in (0, 1).
func (b BatchConfig) QuantileLevels() ([]float64, error) {
	levels := make([]float64, 0, len(b.Quantiles))
	for _, q := range b.Quantiles {
		level, err := holtwinters.ParseQuantileLevel(q)
		if err != nil {
			return nil, err
		}
		levels = append(levels, level)
	}
	return levels, nil
}

// ModelConfig returns the engine configuration of the batch.
func (b BatchConfig) ModelConfig() (holtwinters.Config, error) {
	kind, err := holtwinters.ParseSeasonal(b.Seasonal)
	if err != nil {
		return holtwinters.Config{}, err
	}
	return holtwinters.Config{
		NumSeries:      len(b.Series),
		Frequency:      b.Frequency,
		Seasonal:       kind,
		StartPeriods:   b.StartPeriods,
		MaxEvaluations: b.MaxEvaluations,
		Workers:        b.Workers,
	}, nil
}

// Parse parses command-line arguments with environment variable fallbacks.
func Parse(args []string) (*Config, error) {
	cfg := &Config{}
	fs := flag.NewFlagSet("forecaster", flag.ContinueOnError)

	fs.StringVar(&cfg.Listen, "listen", getEnv("LISTEN", ":8081"), "HTTP listen address")
	fs.StringVar(&cfg.GRPCListen, "grpc-listen", getEnv("GRPC_LISTEN", ":8082"), "gRPC health listen address (empty disables)")
	fs.StringVar(&cfg.LogFormat, "log-format", getEnv("LOG_FORMAT", "text"), "Log format: text or json")
	fs.StringVar(&cfg.LogLevel, "log-level", getEnv("LOG_LEVEL", "info"), "Log level: debug, info, warn, error")

	fs.StringVar(&cfg.Storage, "storage", getEnv("STORAGE", "memory"), "Storage backend: memory or redis")
	fs.StringVar(&cfg.RedisAddr, "redis-addr", getEnv("REDIS_ADDR", "localhost:6379"), "Redis server address")
	fs.StringVar(&cfg.RedisPassword, "redis-password", getEnv("REDIS_PASSWORD", ""), "Redis password")
	fs.IntVar(&cfg.RedisDB, "redis-db", getEnvInt("REDIS_DB", 0), "Redis database number")
	fs.DurationVar(&cfg.SnapshotTTL, "snapshot-ttl", getEnvDuration("SNAPSHOT_TTL", 30*time.Minute), "Snapshot expiry")

	fs.StringVar(&cfg.BatchFile, "batch-file", getEnv("BATCH_FILE", ""), "Batch definition file (YAML, JSON or TOML)")

	fs.StringVar(&cfg.Batch, "batch", getEnv("BATCH", ""), "Batch name (single-series mode)")
	fs.StringVar(&cfg.Series, "series", getEnv("SERIES", ""), "Series name (single-series mode, defaults to the batch name)")
	fs.StringVar(&cfg.Adapter, "adapter", getEnv("ADAPTER", ""), "Adapter type: prometheus, victoriametrics, or http")
	fs.IntVar(&cfg.Frequency, "frequency", getEnvInt("FREQUENCY", 24), "Seasonal period in steps (1 disables seasonality)")
	fs.StringVar(&cfg.Seasonal, "seasonal", getEnv("SEASONAL", "additive"), "Seasonality: additive or multiplicative")
	fs.IntVar(&cfg.StartPeriods, "start-periods", getEnvInt("START_PERIODS", holtwinters.DefaultStartPeriods), "Seasonal cycles required before fitting")
	fs.DurationVar(&cfg.Horizon, "horizon", getEnvDuration("HORIZON", 24*time.Hour), "Forecast horizon")
	fs.DurationVar(&cfg.Step, "step", getEnvDuration("STEP", time.Hour), "Forecast step size")
	fs.DurationVar(&cfg.Interval, "interval", getEnvDuration("INTERVAL", 10*time.Minute), "Forecast interval")
	fs.DurationVar(&cfg.Window, "window", getEnvDuration("WINDOW", 14*24*time.Hour), "Historical window")
	fs.StringVar(&cfg.Quantiles, "quantiles", getEnv("QUANTILES", ""), "Comma-separated quantile levels, e.g. p10,p90")
	fs.IntVar(&cfg.MaxEvaluations, "max-evaluations", getEnvInt("MAX_EVALUATIONS", holtwinters.DefaultMaxEvaluations), "Optimizer evaluation budget per stage")
	fs.IntVar(&cfg.Workers, "workers", getEnvInt("WORKERS", 0), "Concurrent series fits (0 = GOMAXPROCS)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg.AdapterConfig = parseAdapterConfig()

	if cfg.BatchFile == "" {
		if cfg.Batch == "" {
			return nil, errors.New("--batch is required without --batch-file")
		}
		if cfg.Adapter == "" {
			return nil, errors.New("--adapter is required without --batch-file")
		}
	}

	return cfg, nil
}

// parseAdapterConfig collects ADAPTER_* environment variables, keyed by the
// lowerCamelCase of their suffix (ADAPTER_VALUE_PATH → valuePath). ADAPTER
// itself is the adapter kind and is not included.
func parseAdapterConfig() map[string]string {
	config := make(map[string]string)
	for _, env := range os.Environ() {
		key, value, ok := strings.Cut(env, "=")
		if !ok || !strings.HasPrefix(key, "ADAPTER_") || len(key) == len("ADAPTER_") {
			continue
		}
		config[toLowerCamelCase(key[len("ADAPTER_"):])] = value
	}
	return config
}

func toLowerCamelCase(s string) string {
	parts := strings.Split(strings.ToLower(s), "_")
	var b strings.Builder
	for i, p := range parts {
		if p == "" {
			continue
		}
		if i == 0 || b.Len() == 0 {
			b.WriteString(p)
			continue
		}
		b.WriteString(strings.ToUpper(p[:1]) + p[1:])
	}
	return b.String()
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var i int
		if _, err := fmt.Sscanf(value, "%d", &i); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

var nameRegex = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9_-]{0,251}[a-zA-Z0-9])?$`)

// LoadBatches returns the batches to forecast, from the batch file when one
// is configured and otherwise from the single-series flags.
func LoadBatches(cfg *Config) ([]BatchConfig, error) {
	if cfg.BatchFile != "" {
		return LoadBatchFile(cfg.BatchFile)
	}

	name := cfg.Series
	if name == "" {
		name = cfg.Batch
	}
	var quantiles []string
	for _, q := range strings.Split(cfg.Quantiles, ",") {
		if q = strings.TrimSpace(q); q != "" {
			quantiles = append(quantiles, q)
		}
	}

	b := BatchConfig{
		Name:           cfg.Batch,
		Frequency:      cfg.Frequency,
		Seasonal:       cfg.Seasonal,
		StartPeriods:   cfg.StartPeriods,
		Horizon:        cfg.Horizon,
		Step:           cfg.Step,
		Interval:       cfg.Interval,
		Window:         cfg.Window,
		Quantiles:      quantiles,
		MaxEvaluations: cfg.MaxEvaluations,
		Workers:        cfg.Workers,
		Series: []SeriesConfig{{
			Name:    name,
			Adapter: cfg.Adapter,
			Config:  cfg.AdapterConfig,
		}},
	}
	if err := validateBatch(&b, 0); err != nil {
		return nil, err
	}
	return []BatchConfig{b}, nil
}

func validateBatch(b *BatchConfig, index int) error {
	if !nameRegex.MatchString(b.Name) {
		return fmt.Errorf("batch[%d]: invalid name %q (must be alphanumeric with dash/underscore, 1-253 chars)", index, b.Name)
	}
	if len(b.Series) == 0 {
		return fmt.Errorf("batch %q: at least one series is required", b.Name)
	}

	if b.Frequency < 1 {
		return fmt.Errorf("batch %q: frequency must be >= 1", b.Name)
	}
	if b.Seasonal == "" {
		b.Seasonal = "additive"
	}
	if _, err := holtwinters.ParseSeasonal(b.Seasonal); err != nil {
		return fmt.Errorf("batch %q: %w", b.Name, err)
	}
	if b.StartPeriods <= 0 {
		b.StartPeriods = holtwinters.DefaultStartPeriods
	}

	if b.Step <= 0 {
		return fmt.Errorf("batch %q: step must be > 0", b.Name)
	}
	if b.Horizon < b.Step {
		return fmt.Errorf("batch %q: horizon (%v) must cover at least one step (%v)", b.Name, b.Horizon, b.Step)
	}
	if steps := b.HorizonSteps(); steps > MaxHorizonSteps {
		return fmt.Errorf("batch %q: horizon of %d steps exceeds limit %d", b.Name, steps, MaxHorizonSteps)
	}
	if b.Interval <= 0 {
		b.Interval = 10 * time.Minute
	}
	if min := time.Duration(b.StartPeriods*b.Frequency) * b.Step; b.Window < min {
		return fmt.Errorf("batch %q: window (%v) shorter than start_periods*frequency steps (%v)", b.Name, b.Window, min)
	}

	if _, err := b.QuantileLevels(); err != nil {
		return fmt.Errorf("batch %q: %w", b.Name, err)
	}

	seen := make(map[string]bool, len(b.Series))
	for i := range b.Series {
		s := &b.Series[i]
		if s.Name == "" {
			return fmt.Errorf("batch %q: series[%d]: name cannot be empty", b.Name, i)
		}
		if seen[s.Name] {
			return fmt.Errorf("batch %q: duplicate series %q", b.Name, s.Name)
		}
		seen[s.Name] = true
		if s.Adapter == "" {
			return fmt.Errorf("batch %q: series %q: adapter cannot be empty", b.Name, s.Name)
		}
	}
	return nil
}

// BuildAdapters creates one adapter per series of b. A non-nil client is
// shared by every adapter.
func BuildAdapters(b BatchConfig, client *http.Client) ([]adapters.Adapter, error) {
	stepSeconds := int(b.Step.Seconds())
	out := make([]adapters.Adapter, len(b.Series))
	for i, s := range b.Series {
		a, err := adapters.New(s.Adapter, s.Config, stepSeconds)
		if err != nil {
			return nil, fmt.Errorf("batch %q: series %q: %w", b.Name, s.Name, err)
		}
		if client != nil {
			switch a := a.(type) {
			case *adapters.PrometheusAdapter:
				a.HTTPClient = client
			case *adapters.VictoriaMetricsAdapter:
				a.HTTPClient = client
			case *adapters.HTTPAdapter:
				a.HTTPClient = client
			}
		}
		out[i] = a
	}
	return out, nil
}
