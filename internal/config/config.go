package config

import (
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env         string `yaml:"env" env:"ENV" env-default:"local"`
	StoragePath string `yaml:"storage_path" env:"STORAGE_PATH"`
	RedisAddr   string `yaml:"redis_addr" env:"REDIS_ADDR"`
	HTTPServer  `yaml:"http_server"`
	Booking     `yaml:"booking"`
	Cache       `yaml:"cache"`
	Auth        `yaml:"auth"`
}

type HTTPServer struct {
	Address         string        `yaml:"address" env-default:"localhost:8080"`
	Timeout         time.Duration `yaml:"timeout" env-default:"4s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env-default:"15s"`
}

type Booking struct {
	MinLeadTime           time.Duration `yaml:"min_lead_time" env-default:"1h"`
	AutoConfirm           bool          `yaml:"auto_confirm" env-default:"false"`
	CancellationGrace     time.Duration `yaml:"cancellation_grace" env-default:"0s"`
	AllowOverlappingSlots bool          `yaml:"allow_overlapping_slots" env-default:"false"`
	LockTTL               time.Duration `yaml:"lock_ttl" env-default:"10s"`
	LockWait              time.Duration `yaml:"lock_wait" env-default:"2s"`
}

type Cache struct {
	FreeIntervalsTTL time.Duration `yaml:"free_intervals_ttl" env-default:"30s"`
}

type Auth struct {
	JWTSecret string `yaml:"jwt_secret" env:"JWT_SECRET"`
}

func MustLoad() *Config {
	var cfg Config

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml"
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("Config file does not exist: %s", configPath)
	}

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("Failed to read config file: %v", err)
	}

	return &cfg
}
