package config

import (
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env          string `yaml:"env" env:"APP_ENV" env-default:"local"`
	StoragePath  string `yaml:"storage_path" env:"STORAGE_PATH" env-required:"true"`
	RedisAddr    string `yaml:"redis_addr" env:"REDIS_ADDR" env-default:"localhost:6379"`
	HTTPServer   `yaml:"http_server"`
	Realtime     `yaml:"realtime"`
	Availability `yaml:"availability"`
}

type HTTPServer struct {
	Address         string        `yaml:"address" env:"HTTP_ADDRESS" env-default:"localhost:8080"`
	Timeout         time.Duration `yaml:"timeout" env-default:"4s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env-default:"15s"`
}

// Realtime configures the push event transport and the periodic full refresh
// that resynchronises the read model after missed events.
type Realtime struct {
	Channel              string        `yaml:"channel" env:"REALTIME_CHANNEL" env-default:"dashboard:events"`
	ReconnectDelay       time.Duration `yaml:"reconnect_delay" env-default:"3s"`
	MaxReconnectAttempts int           `yaml:"max_reconnect_attempts" env-default:"10"`
	RefreshInterval      time.Duration `yaml:"refresh_interval" env-default:"1m"`
	StatusLockTTL        time.Duration `yaml:"status_lock_ttl" env-default:"10s"`
}

// Availability tunes the patient-facing calendar. Zero-capacity slots are
// hidden from patients unless PatientIncludeZeroCapacity is set.
type Availability struct {
	PatientIncludeZeroCapacity bool `yaml:"patient_include_zero_capacity" env:"PATIENT_INCLUDE_ZERO_CAPACITY"`
}

func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/local.yaml"
	}

	cfg, err := Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	return cfg
}

func Load(configPath string) (*Config, error) {
	var cfg Config

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, err
	}

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
