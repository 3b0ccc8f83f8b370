package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config for the whole application
type Config struct {
	App     AppConfig
	API     APIConfig
	Kafka   KafkaConfig
	Engine  EngineConfig
	Cache   CacheConfig
	Stream  StreamConfig
	Metrics MetricsConfig
}

// General application configuration
type AppConfig struct {
	Name        string
	Environment string
	LogLevel    string
}

// Configuration for the API server
type APIConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// Configuration for Kafka
type KafkaConfig struct {
	Brokers  []string
	Consumer KafkaConsumerConfig
	Producer KafkaProducerConfig
	Topics   KafkaTopicsConfig
}

// Kafka consumer configuration
type KafkaConsumerConfig struct {
	GroupID        string
	MinBytes       int
	MaxBytes       int
	CommitInterval time.Duration
}

// Kafka producer configuration
type KafkaProducerConfig struct {
	RequiredAcks string
	BatchTimeout time.Duration
	MaxRetries   int
}

// Kafka topics configuration
type KafkaTopicsConfig struct {
	ValuationTasks   string
	ValuationResults string
}

// Configuration for the valuation engine
type EngineConfig struct {
	Workers         int
	DefaultNumPaths int
	DefaultSteps    int
}

// Configuration for the result cache
type CacheConfig struct {
	Enabled    bool
	TTL        time.Duration
	MaxSizeMB  int
	Shards     int
	CleanEvery time.Duration
}

// Configuration for the result stream
type StreamConfig struct {
	WriteTimeout   time.Duration
	PingInterval   time.Duration
	SendBufferSize int
}

// Configuration for metrics
type MetricsConfig struct {
	Prometheus PrometheusConfig
}

// Configuration for Prometheus metrics
type PrometheusConfig struct {
	Enabled bool
	Path    string
}

// Loads the configuration from a file and environment variables. A missing
// config file is not an error; defaults plus the environment take over.
func Load() (*Config, error) {
	setDefaults()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	viper.SetEnvPrefix("VALUATION")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	// App defaults
	viper.SetDefault("app.name", "valuation-engine")
	viper.SetDefault("app.environment", "development")
	viper.SetDefault("app.log_level", "info")

	// API defaults
	viper.SetDefault("api.host", "0.0.0.0")
	viper.SetDefault("api.port", 8080)
	viper.SetDefault("api.read_timeout", "10s")
	viper.SetDefault("api.write_timeout", "30s")
	viper.SetDefault("api.shutdown_timeout", "30s")

	// Kafka defaults
	viper.SetDefault("kafka.brokers", []string{"localhost:9092"})
	viper.SetDefault("kafka.consumer.group_id", "valuation-workers")
	viper.SetDefault("kafka.consumer.min_bytes", 1)
	viper.SetDefault("kafka.consumer.max_bytes", 10485760)
	viper.SetDefault("kafka.consumer.commit_interval", "1s")
	viper.SetDefault("kafka.producer.required_acks", "all")
	viper.SetDefault("kafka.producer.batch_timeout", "5ms")
	viper.SetDefault("kafka.producer.max_retries", 3)
	viper.SetDefault("kafka.topics.valuation_tasks", "valuation.tasks")
	viper.SetDefault("kafka.topics.valuation_results", "valuation.results")

	// Engine defaults
	viper.SetDefault("engine.workers", 0)
	viper.SetDefault("engine.default_num_paths", 10000)
	viper.SetDefault("engine.default_steps", 252)

	// Cache defaults
	viper.SetDefault("cache.enabled", true)
	viper.SetDefault("cache.ttl", "10m")
	viper.SetDefault("cache.max_size_mb", 256)
	viper.SetDefault("cache.shards", 1024)
	viper.SetDefault("cache.clean_every", "1m")

	// Stream defaults
	viper.SetDefault("stream.write_timeout", "10s")
	viper.SetDefault("stream.ping_interval", "30s")
	viper.SetDefault("stream.send_buffer_size", 64)

	// Metrics defaults
	viper.SetDefault("metrics.prometheus.enabled", true)
	viper.SetDefault("metrics.prometheus.path", "/metrics")
}

func GetConfigPath() string {
	configPath := os.Getenv("VALUATION_CONFIG_PATH")
	if configPath != "" {
		return configPath
	}

	return "./config/config.yaml"
}
