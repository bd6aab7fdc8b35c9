package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	Engine struct {
		Symbol           string        `yaml:"symbol"`
		BuyThreshold     float64       `yaml:"buy_threshold"`
		MinSample        int           `yaml:"min_sample"`
		MinWinRate       float64       `yaml:"min_win_rate"`
		DemoteSample     int           `yaml:"demote_sample"`
		DemoteThreshold  float64       `yaml:"demote_threshold"`
		EntryWindow      time.Duration `yaml:"entry_window"`
		SlowInterval     time.Duration `yaml:"slow_interval"`
		FastInterval     time.Duration `yaml:"fast_interval"`
		ProviderTimeout  time.Duration `yaml:"provider_timeout"`
		HistorySize      int           `yaml:"history_size"`
		SignalHistory    int           `yaml:"signal_history"`
		ReliabilityAlpha float64       `yaml:"reliability_alpha"`
		ReliabilityFloor float64       `yaml:"reliability_floor"`
		WeightMin        float64       `yaml:"weight_min"`
		WeightMax        float64       `yaml:"weight_max"`
	} `yaml:"engine"`
	Risk struct {
		DefaultTargetPct float64 `yaml:"default_target_pct"`
		DefaultStopPct   float64 `yaml:"default_stop_pct"`
		DefaultLeverage  float64 `yaml:"default_leverage"`
		MaxLeverage      float64 `yaml:"max_leverage"`
	} `yaml:"risk"`
	Backend struct {
		Type string `yaml:"type"` // "kafka" routes outcomes through the bus, "clickhouse" writes direct
	} `yaml:"backend"`
	Kafka struct {
		Brokers      []string `yaml:"brokers"`
		OutcomeTopic string   `yaml:"outcome_topic"`
		SignalTopic  string   `yaml:"signal_topic"`
		RequiredAcks int      `yaml:"required_acks"`
		Compression  string   `yaml:"compression"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts"`
			Linger       time.Duration `yaml:"linger"`
			BatchBytes   int           `yaml:"batch_bytes"`
			BatchSize    int           `yaml:"batch_size"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
			ReadTimeout  time.Duration `yaml:"read_timeout"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
		Consumer struct {
			GroupID    string        `yaml:"group_id"`
			Workers    int           `yaml:"workers"`
			BufferSize int           `yaml:"buffer_size"`
			RetryMax   int           `yaml:"retry_max"`
			BackoffMin time.Duration `yaml:"backoff_min"`
			BackoffMax time.Duration `yaml:"backoff_max"`
			DLQTopic   string        `yaml:"dlq_topic"`
			MinBytes   int           `yaml:"min_bytes"`
			MaxBytes   int           `yaml:"max_bytes"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port"`
		Database         string        `yaml:"database"`
		User             string        `yaml:"user"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout"`
		ReadTimeout      time.Duration `yaml:"read_timeout"`
		WriteTimeout     time.Duration `yaml:"write_timeout"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time"`
	} `yaml:"clickhouse"`
	Stream struct {
		WebSocketURL   string        `yaml:"websocket_url"`
		APIKey         string        `yaml:"api_key"`
		ReconnectDelay time.Duration `yaml:"reconnect_delay"`
		PingInterval   time.Duration `yaml:"ping_interval"`
	} `yaml:"stream"`
	Advisor struct {
		Enabled       bool          `yaml:"enabled"`
		URL           string        `yaml:"url"`
		Timeout       time.Duration `yaml:"timeout"`
		MinConfidence float64       `yaml:"min_confidence"` // below this a SELL advisory is ignored
		CacheTTL      time.Duration `yaml:"cache_ttl"`
		RatePerMinute float64       `yaml:"rate_per_minute"`
	} `yaml:"advisor"`
	Sentiment struct {
		Enabled bool          `yaml:"enabled"`
		URL     string        `yaml:"url"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"sentiment"`
	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("SYMBOL"); v != "" {
		c.Engine.Symbol = v
	}
	if v := os.Getenv("BACKEND"); v != "" {
		c.Backend.Type = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("STREAM_API_KEY"); v != "" {
		c.Stream.APIKey = v
	}
	if v := os.Getenv("ADVISOR_URL"); v != "" {
		c.Advisor.URL = v
	}
	if v := os.Getenv("SENTIMENT_URL"); v != "" {
		c.Sentiment.URL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("BUY_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Engine.BuyThreshold = f
		}
	}

	return c, nil
}

// applyDefaults fills zero values with engine defaults.
func (c *Config) applyDefaults() {
	e := &c.Engine
	if e.BuyThreshold == 0 {
		e.BuyThreshold = 70
	}
	if e.MinSample == 0 {
		e.MinSample = 5
	}
	if e.MinWinRate == 0 {
		e.MinWinRate = 0.6
	}
	if e.DemoteSample == 0 {
		e.DemoteSample = 20
	}
	if e.DemoteThreshold == 0 {
		e.DemoteThreshold = 0.6
	}
	if e.EntryWindow == 0 {
		e.EntryWindow = 60 * time.Second
	}
	if e.SlowInterval == 0 {
		e.SlowInterval = 120 * time.Second
	}
	if e.FastInterval == 0 {
		e.FastInterval = time.Second
	}
	if e.ProviderTimeout == 0 {
		e.ProviderTimeout = 10 * time.Second
	}
	if e.HistorySize == 0 {
		e.HistorySize = 1440
	}
	if e.SignalHistory == 0 {
		e.SignalHistory = 100
	}
	if e.ReliabilityAlpha == 0 {
		e.ReliabilityAlpha = 0.1
	}
	if e.ReliabilityFloor == 0 {
		e.ReliabilityFloor = 0.1
	}
	if e.WeightMin == 0 {
		e.WeightMin = 0.2
	}
	if e.WeightMax == 0 {
		e.WeightMax = 2.0
	}
	if c.Risk.DefaultTargetPct == 0 {
		c.Risk.DefaultTargetPct = 0.03
	}
	if c.Risk.DefaultStopPct == 0 {
		c.Risk.DefaultStopPct = 0.02
	}
	if c.Risk.DefaultLeverage == 0 {
		c.Risk.DefaultLeverage = 10
	}
	if c.Risk.MaxLeverage == 0 {
		c.Risk.MaxLeverage = 50
	}
	if c.Advisor.MinConfidence == 0 {
		c.Advisor.MinConfidence = 0.7
	}
	if c.Advisor.Timeout == 0 {
		c.Advisor.Timeout = 8 * time.Second
	}
	if c.Advisor.RatePerMinute == 0 {
		c.Advisor.RatePerMinute = 2
	}
	if c.Advisor.CacheTTL == 0 {
		c.Advisor.CacheTTL = 90 * time.Second
	}
	if c.Sentiment.Timeout == 0 {
		c.Sentiment.Timeout = 3 * time.Second
	}
	if c.Stream.ReconnectDelay == 0 {
		c.Stream.ReconnectDelay = 5 * time.Second
	}
	if c.Stream.PingInterval == 0 {
		c.Stream.PingInterval = 30 * time.Second
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Engine.Symbol == "" {
		return fmt.Errorf("engine.symbol is required")
	}
	if c.Backend.Type == "" {
		return fmt.Errorf("backend.type is required")
	}
	if c.Backend.Type != "kafka" && c.Backend.Type != "clickhouse" {
		return fmt.Errorf("backend.type must be 'kafka' or 'clickhouse', got '%s'", c.Backend.Type)
	}
	if c.Engine.BuyThreshold < 50 || c.Engine.BuyThreshold > 100 {
		return fmt.Errorf("engine.buy_threshold must be within [50,100], got %v", c.Engine.BuyThreshold)
	}
	if c.Engine.FastInterval >= c.Engine.SlowInterval {
		return fmt.Errorf("engine.fast_interval must be shorter than engine.slow_interval")
	}
	if c.Engine.WeightMin <= 0 || c.Engine.WeightMin >= c.Engine.WeightMax {
		return fmt.Errorf("engine weight bounds invalid: [%v,%v]", c.Engine.WeightMin, c.Engine.WeightMax)
	}
	if c.Stream.WebSocketURL == "" {
		return fmt.Errorf("stream.websocket_url is required")
	}
	return nil
}
