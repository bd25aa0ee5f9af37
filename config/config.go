package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

const (
	StorageMongo    = "mongo"
	StoragePostgres = "postgres"
)

type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Storage  StorageConfig  `yaml:"storage"`
	Mongo    MongoConfig    `yaml:"mongo"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Log      LogConfig      `yaml:"log"`
}

type HTTPConfig struct {
	Port               string   `yaml:"port"`
	CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
	ShutdownTimeoutSec int      `yaml:"shutdown_timeout_seconds"`
}

// Address is the listen address derived from Port.
func (h HTTPConfig) Address() string {
	return ":" + h.Port
}

func (h HTTPConfig) ShutdownTimeout() time.Duration {
	return time.Duration(h.ShutdownTimeoutSec) * time.Second
}

type StorageConfig struct {
	Driver string `yaml:"driver"`
}

type MongoConfig struct {
	URI        string `yaml:"uri"`
	Database   string `yaml:"database"`
	Collection string `yaml:"collection"`
}

type DatabaseConfig struct {
	URL      string `yaml:"url"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
}

// DSN prefers an explicit URL and falls back to the discrete fields.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s", d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type RedisConfig struct {
	Addr       string `yaml:"addr"`
	Password   string `yaml:"password"`
	DB         int    `yaml:"db"`
	TTLSeconds int    `yaml:"booking_ttl_seconds"`
}

func (r RedisConfig) Enabled() bool {
	return r.Addr != ""
}

func (r RedisConfig) TTL() time.Duration {
	return time.Duration(r.TTLSeconds) * time.Second
}

type KafkaConfig struct {
	Brokers            []string `yaml:"brokers"`
	BookingEventsTopic string   `yaml:"booking_events_topic"`
	GroupID            string   `yaml:"group_id"`
}

func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0 && k.BookingEventsTopic != ""
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// envOverrides lists the variables that win over the YAML file.
type envOverrides struct {
	Port               string   `envconfig:"PORT"`
	StorageDriver      string   `envconfig:"STORAGE_DRIVER"`
	MongoURI           string   `envconfig:"MONGO_URI"`
	MongoDatabase      string   `envconfig:"MONGO_DATABASE"`
	DatabaseURL        string   `envconfig:"DATABASE_URL"`
	RedisAddr          string   `envconfig:"REDIS_ADDR"`
	RedisPassword      string   `envconfig:"REDIS_PASSWORD"`
	KafkaBrokers       []string `envconfig:"KAFKA_BROKERS"`
	BookingEventsTopic string   `envconfig:"KAFKA_BOOKING_EVENTS_TOPIC"`
	KafkaGroupID       string   `envconfig:"KAFKA_GROUP_ID"`
	LogLevel           string   `envconfig:"LOG_LEVEL"`
	CORSAllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS"`
}

func Default() Config {
	return Config{
		HTTP: HTTPConfig{
			Port:               "5000",
			CORSAllowedOrigins: []string{"*"},
			ShutdownTimeoutSec: 5,
		},
		Storage: StorageConfig{Driver: StorageMongo},
		Mongo: MongoConfig{
			URI:        "mongodb://localhost:27017",
			Database:   "medcare",
			Collection: "bookings",
		},
		Database: DatabaseConfig{
			Host:    "localhost",
			Port:    5432,
			User:    "postgres",
			Name:    "medcare",
			SSLMode: "disable",
		},
		Redis: RedisConfig{TTLSeconds: 60},
		Kafka: KafkaConfig{
			BookingEventsTopic: "booking-events",
			GroupID:            "medcare-audit",
		},
		Log: LogConfig{Level: "INFO"},
	}
}

// LoadConfig builds the configuration from defaults, the YAML file at path
// (skipped when it does not exist) and finally the process environment.
func LoadConfig(path string) (*Config, error) {
	// A missing .env is the normal case outside local development.
	_ = godotenv.Load()

	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	var env envOverrides
	if err := envconfig.Process("", &env); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}
	cfg.applyEnv(env)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv(env envOverrides) {
	setIf(&c.HTTP.Port, env.Port)
	setIf(&c.Storage.Driver, env.StorageDriver)
	setIf(&c.Mongo.URI, env.MongoURI)
	setIf(&c.Mongo.Database, env.MongoDatabase)
	setIf(&c.Database.URL, env.DatabaseURL)
	setIf(&c.Redis.Addr, env.RedisAddr)
	setIf(&c.Redis.Password, env.RedisPassword)
	setIf(&c.Kafka.BookingEventsTopic, env.BookingEventsTopic)
	setIf(&c.Kafka.GroupID, env.KafkaGroupID)
	setIf(&c.Log.Level, env.LogLevel)
	if len(env.KafkaBrokers) > 0 {
		c.Kafka.Brokers = env.KafkaBrokers
	}
	if len(env.CORSAllowedOrigins) > 0 {
		c.HTTP.CORSAllowedOrigins = env.CORSAllowedOrigins
	}
}

func (c *Config) validate() error {
	c.Storage.Driver = strings.ToLower(strings.TrimSpace(c.Storage.Driver))
	switch c.Storage.Driver {
	case StorageMongo, StoragePostgres:
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if c.HTTP.Port == "" {
		c.HTTP.Port = "5000"
	}
	return nil
}

func setIf(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
