// Package config loads tracker settings from defaults, an optional YAML file,
// a .env file and ISS_-prefixed environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/signalsfoundry/iss-tracker/core"
	"github.com/signalsfoundry/iss-tracker/internal/observability"
)

// Position sources.
const (
	SourceOpenNotify = "open-notify"
	SourceSGP4       = "sgp4"
)

// EnvPrefix prefixes every environment override, e.g. ISS_POLL_INTERVAL.
const EnvPrefix = "ISS"

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	API     APIConfig     `mapstructure:"api"`
	Poll    PollConfig    `mapstructure:"poll"`
	Source  SourceConfig  `mapstructure:"source"`
	Render  RenderConfig  `mapstructure:"render"`
	MQTT    MQTTConfig    `mapstructure:"mqtt"`
	Kafka   KafkaConfig   `mapstructure:"kafka"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Logging LoggingConfig `mapstructure:"logging"`
	Tracing TracingConfig `mapstructure:"tracing"`
}

type APIConfig struct {
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type PollConfig struct {
	Interval   time.Duration `mapstructure:"interval"`
	Iterations int           `mapstructure:"iterations"`
}

type SourceConfig struct {
	Kind     string `mapstructure:"kind"`
	TLELine1 string `mapstructure:"tle_line1"`
	TLELine2 string `mapstructure:"tle_line2"`
}

type RenderConfig struct {
	Console     bool   `mapstructure:"console"`
	HTMLPath    string `mapstructure:"html_path"`
	LiveAddr    string `mapstructure:"live_addr"`
	MaxSegments int    `mapstructure:"max_segments"`
}

type MQTTConfig struct {
	Broker   string `mapstructure:"broker"`
	Topic    string `mapstructure:"topic"`
	ClientID string `mapstructure:"client_id"`
}

type KafkaConfig struct {
	Brokers string `mapstructure:"brokers"`
	Topic   string `mapstructure:"topic"`
}

type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type TracingConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	ServiceName string  `mapstructure:"service_name"`
	Exporter    string  `mapstructure:"exporter"`
	Endpoint    string  `mapstructure:"endpoint"`
	SampleRatio float64 `mapstructure:"sample_ratio"`
}

// Observability converts the tracing section for observability.InitTracing.
func (t TracingConfig) Observability() observability.TracingConfig {
	return observability.TracingConfig{
		Enabled:     t.Enabled,
		ServiceName: t.ServiceName,
		Exporter:    t.Exporter,
		Endpoint:    t.Endpoint,
		SampleRatio: t.SampleRatio,
	}
}

// KafkaBrokers splits the comma-separated broker list.
func (k KafkaConfig) KafkaBrokers() []string {
	var out []string
	for _, b := range strings.Split(k.Brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.url", "http://api.open-notify.org/iss-now.json")
	v.SetDefault("api.timeout", 10*time.Second)
	v.SetDefault("poll.interval", 15*time.Second)
	v.SetDefault("poll.iterations", 0)
	v.SetDefault("source.kind", SourceOpenNotify)
	v.SetDefault("source.tle_line1", core.ISSTLELine1)
	v.SetDefault("source.tle_line2", core.ISSTLELine2)
	v.SetDefault("render.console", true)
	v.SetDefault("render.html_path", "")
	v.SetDefault("render.live_addr", "")
	v.SetDefault("render.max_segments", 0)
	v.SetDefault("mqtt.broker", "")
	v.SetDefault("mqtt.topic", "iss/trajectory")
	v.SetDefault("mqtt.client_id", "iss-tracker")
	v.SetDefault("kafka.brokers", "")
	v.SetDefault("kafka.topic", "iss-trajectory")
	v.SetDefault("metrics.addr", "")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.service_name", "iss-tracker")
	v.SetDefault("tracing.exporter", "stdout")
	v.SetDefault("tracing.endpoint", "")
	v.SetDefault("tracing.sample_ratio", 1.0)
}

// Load reads configuration. configPath may be empty, in which case
// configs/config.yaml is used when present. A .env file in the working
// directory is loaded into the environment first if it exists. The result
// is not validated, so callers can apply overrides before calling Validate.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath("configs")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

// Path returns ISS_CONFIG_PATH, or configs/config.yaml when it exists, or
// the empty string.
func Path() string {
	if path := os.Getenv(EnvPrefix + "_CONFIG_PATH"); path != "" {
		return path
	}
	path := filepath.Join("configs", "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return path
	}
	return ""
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	if c.Poll.Interval <= 0 {
		return fmt.Errorf("%w: poll.interval must be positive, got %s", ErrInvalidConfig, c.Poll.Interval)
	}
	if c.Poll.Iterations < 0 {
		return fmt.Errorf("%w: poll.iterations must not be negative", ErrInvalidConfig)
	}
	if c.API.Timeout < 0 {
		return fmt.Errorf("%w: api.timeout must not be negative", ErrInvalidConfig)
	}
	if c.Render.MaxSegments < 0 {
		return fmt.Errorf("%w: render.max_segments must not be negative", ErrInvalidConfig)
	}
	if c.Tracing.SampleRatio < 0 || c.Tracing.SampleRatio > 1 {
		return fmt.Errorf("%w: tracing.sample_ratio must be within [0, 1]", ErrInvalidConfig)
	}

	switch c.Source.Kind {
	case SourceOpenNotify:
		if strings.TrimSpace(c.API.URL) == "" {
			return fmt.Errorf("%w: api.url is required for source %q", ErrInvalidConfig, SourceOpenNotify)
		}
	case SourceSGP4:
		if err := core.ValidateTLE(c.Source.TLELine1, c.Source.TLELine2); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
	default:
		return fmt.Errorf("%w: unknown source %q", ErrInvalidConfig, c.Source.Kind)
	}
	return nil
}
