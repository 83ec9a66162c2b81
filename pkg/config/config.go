package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment" default:"production"`
	Logger      struct {
		Level  string `yaml:"level" default:"info"`
		Format string `yaml:"format" default:"json" validate:"oneof=json console"`
		Output string `yaml:"output" default:"stdout"`
	} `yaml:"logger"`
	Server struct {
		Port            int           `yaml:"port" default:"8080"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"10s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr" validate:"required"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Streams []string `yaml:"streams" validate:"required,min=1,dive,required"`
	Poll    struct {
		Count int64         `yaml:"count" default:"64"`
		Block time.Duration `yaml:"block" default:"2s"`
	} `yaml:"poll"`
	RPC struct {
		Endpoints      []string      `yaml:"endpoints" validate:"required,min=1,dive,url"`
		RequestTimeout time.Duration `yaml:"request_timeout" default:"5s"`
		ProbeTimeout   time.Duration `yaml:"probe_timeout" default:"1s"`
		ProbeRate      float64       `yaml:"probe_rate" default:"5"`
		ProbeBurst     int           `yaml:"probe_burst" default:"5"`
		RetryDelay     time.Duration `yaml:"retry_delay" default:"200ms"`
		ProbeJitter    time.Duration `yaml:"probe_jitter" default:"100ms"`
	} `yaml:"rpc"`
	Guard struct {
		Timeout     time.Duration `yaml:"timeout" default:"10s"`
		MaxRetries  int           `yaml:"max_retries" default:"3" validate:"min=1"`
		BaseBackoff time.Duration `yaml:"base_backoff" default:"500ms"`
	} `yaml:"guard"`
	Breaker struct {
		FailMax    int           `yaml:"fail_max" default:"5" validate:"min=1"`
		ResetAfter time.Duration `yaml:"reset_after" default:"30s"`
	} `yaml:"breaker"`
	FeeCap struct {
		Multiplier float64 `yaml:"multiplier" default:"1.2" validate:"gt=0"`
		Blocks     int     `yaml:"blocks" default:"5" validate:"min=1"`
	} `yaml:"feecap"`
	Validator struct {
		MinSpreadBps   float64 `yaml:"min_spread_bps" default:"23"`
		MinRoiAfterGas float64 `yaml:"min_roi_after_gas" default:"0.0025"`
		MaxLegSlippage float64 `yaml:"max_leg_slippage" default:"0.005"`
	} `yaml:"validator"`
	Router struct {
		HighMev             float64 `yaml:"high_mev" default:"0.7"`
		FlashLoanProfit     float64 `yaml:"flash_loan_profit" default:"1000"`
		HighTimeSensitivity float64 `yaml:"high_time_sensitivity" default:"0.8"`
	} `yaml:"router"`
	Kafka struct {
		Brokers      []string      `yaml:"brokers" validate:"required,min=1"`
		IntentTopic  string        `yaml:"intent_topic" validate:"required"`
		RequiredAcks int           `yaml:"required_acks" default:"-1"`
		Compression  string        `yaml:"compression" default:"gzip"`
		MaxAttempts  int           `yaml:"max_attempts" default:"3"`
		WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
		ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Enabled      bool          `yaml:"enabled"`
		Host         string        `yaml:"host"`
		Port         int           `yaml:"port" default:"9000"`
		Database     string        `yaml:"database" default:"arbpilot"`
		Table        string        `yaml:"table" default:"decision_journal"`
		User         string        `yaml:"user" default:"default"`
		Password     string        `yaml:"password"`
		DialTimeout  time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
	} `yaml:"clickhouse"`
}

var validate = validator.New()

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

	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("config defaults: %w", err)
	}

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

	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("SIGNAL_STREAMS"); v != "" {
		c.Streams = strings.Split(v, ",")
	}
	if v := os.Getenv("RPC_ENDPOINTS"); v != "" {
		c.RPC.Endpoints = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_INTENT_TOPIC"); v != "" {
		c.Kafka.IntentTopic = v
	}

	return c, nil
}

// Validate checks if the configuration is valid. An empty endpoint pool or
// an empty stream list is a configuration error and fatal at startup.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.ClickHouse.Enabled && c.ClickHouse.Host == "" {
		return fmt.Errorf("clickhouse.host is required when clickhouse.enabled is true")
	}
	if c.Poll.Block <= 0 {
		return fmt.Errorf("poll.block must be positive so stream reads stay bounded")
	}
	return nil
}
