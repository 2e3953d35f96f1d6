// Package config loads YAML configuration (os.ReadFile + yaml.Unmarshal
// into a struct) and wires the resulting values into
// sidespout.Dependencies through the registry package.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the YAML-loadable shape for one virtual consumer / log
// consumer pairing.
type Config struct {
	KafkaBrokers []string `yaml:"kafka_brokers"`
	KafkaTopic   string   `yaml:"kafka_topic"`

	ConsumerID    string `yaml:"consumer_id"`
	NumConsumers  int    `yaml:"num_consumers"`
	ConsumerIndex int    `yaml:"consumer_index"`

	PollTimeout time.Duration `yaml:"poll_timeout"`

	// Registry keys, formerly *.class in the original config.
	Deserializer    string `yaml:"deserializer_class"`
	RetryPolicy     string `yaml:"failed_msg_retry_manager_class"`
	Persistence     string `yaml:"persistence_manager_class"`
	MetricsRecorder string `yaml:"metrics_recorder_class"`
	TupleBuffer     string `yaml:"tuple_buffer_class"`

	RetryMaxRetries int           `yaml:"retry_max_retries"`
	RetryBase       time.Duration `yaml:"retry_base"`
	RetryMax        time.Duration `yaml:"retry_max"`

	PostgresConnString string `yaml:"postgres_conn_string"`
	RedisAddr          string `yaml:"redis_addr"`
	RedisPassword      string `yaml:"redis_password"`
	RedisDB            int    `yaml:"redis_db"`

	PrometheusPort int `yaml:"prometheus_port"`
}

// LoadFile reads and parses a YAML file at path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the fields required for a VirtualConsumer/LogConsumer
// pairing to be constructible.
func (c *Config) Validate() error {
	if len(c.KafkaBrokers) == 0 {
		return fmt.Errorf("config: kafka_brokers must not be empty")
	}
	if c.KafkaTopic == "" {
		return fmt.Errorf("config: kafka_topic must not be empty")
	}
	if c.ConsumerID == "" {
		return fmt.Errorf("config: consumer_id must not be empty")
	}
	if c.NumConsumers <= 0 {
		c.NumConsumers = 1
	}
	if c.ConsumerIndex < 0 || c.ConsumerIndex >= c.NumConsumers {
		return fmt.Errorf("config: consumer_index %d out of range [0,%d)", c.ConsumerIndex, c.NumConsumers)
	}
	if c.PollTimeout <= 0 {
		c.PollTimeout = 100 * time.Millisecond
	}
	if c.RetryMaxRetries <= 0 {
		c.RetryMaxRetries = 3
	}
	if c.RetryBase <= 0 {
		c.RetryBase = 500 * time.Millisecond
	}
	if c.RetryMax <= 0 {
		c.RetryMax = 30 * time.Second
	}
	return nil
}
