package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

type Config struct {
	Server              ServerConfig   `envconfig:"SERVER"`
	Database            DatabaseConfig `envconfig:"DB"`
	Redis               RedisConfig    `envconfig:"REDIS"`
	Kafka               KafkaConfig    `envconfig:"KAFKA"`
	Session             SessionConfig  `envconfig:"SESSION"`
	NotificationService ServiceConfig  `envconfig:"NOTIFICATION_SERVICE"`
	Features            FeatureConfig  `envconfig:"FEATURE"`
	Log                 LogConfig      `envconfig:"LOG"`
	StoreDriver         string         `envconfig:"STORE_DRIVER" default:"postgres"`
}

type ServerConfig struct {
	Port            int           `split_words:"true" default:"8082"`
	ReadTimeout     time.Duration `split_words:"true" default:"30s"`
	WriteTimeout    time.Duration `split_words:"true" default:"30s"`
	ShutdownTimeout time.Duration `split_words:"true" default:"30s"`
}

type DatabaseConfig struct {
	Host         string        `split_words:"true" default:"localhost"`
	Port         int           `split_words:"true" default:"5432"`
	User         string        `split_words:"true" default:"acme"`
	Password     string        `split_words:"true" default:"acme"`
	Name         string        `split_words:"true" default:"acme_webstore"`
	SSLMode      string        `split_words:"true" default:"disable"`
	MaxOpenConns int           `split_words:"true" default:"25"`
	MaxIdleConns int           `split_words:"true" default:"5"`
	MaxLifetime  time.Duration `split_words:"true" default:"5m"`
	AutoMigrate  bool          `split_words:"true" default:"true"`
}

func (d DatabaseConfig) ConnectionString() string {
	return "host=" + d.Host +
		" port=" + strconv.Itoa(d.Port) +
		" user=" + d.User +
		" password=" + d.Password +
		" dbname=" + d.Name +
		" sslmode=" + d.SSLMode
}

type RedisConfig struct {
	Host     string        `split_words:"true" default:"localhost"`
	Port     int           `split_words:"true" default:"6379"`
	Password string        `split_words:"true"`
	DB       int           `split_words:"true" default:"0"`
	TTL      time.Duration `split_words:"true" default:"5m"`
}

type KafkaConfig struct {
	Brokers            []string `split_words:"true" default:"localhost:9092"`
	OrdersTopic        string   `split_words:"true" default:"webstore.orders"`
	StatusUpdatesTopic string   `split_words:"true" default:"fulfillment.status-updates"`
	ConsumerGroup      string   `split_words:"true" default:"webstore-service"`
}

type SessionConfig struct {
	CookieName string        `split_words:"true" default:"webstore_session"`
	TTL        time.Duration `split_words:"true" default:"30m"`
	Secure     bool          `split_words:"true" default:"false"`
}

type ServiceConfig struct {
	BaseURL string        `split_words:"true" default:"http://localhost:8084"`
	Timeout time.Duration `split_words:"true" default:"10s"`
	APIKey  string        `split_words:"true"`
}

type FeatureConfig struct {
	EnableOrderCaching   bool `split_words:"true" default:"false"`
	EnableOrderEvents    bool `split_words:"true" default:"false"`
	EnableStatusConsumer bool `split_words:"true" default:"false"`
	EnableNotifications  bool `split_words:"true" default:"false"`
	EnableRedisSessions  bool `split_words:"true" default:"false"`
}

type LogConfig struct {
	Level  string `split_words:"true" default:"info"`
	Format string `split_words:"true" default:"json"`
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// MustLoad is Load for process start-up, panicking on malformed input.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic("config: " + err.Error())
	}
	return cfg
}
