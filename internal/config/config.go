package config

import (
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type Config struct {
	LogLevel string   `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	HTTPPort string   `yaml:"http-port" env:"HTTP_PORT" env-default:"9090"`
	Storage  string   `yaml:"storage" env:"STORAGE" env-default:"redis"`
	Redis    Redis    `yaml:"redis"`
	Postgres Postgres `yaml:"postgres"`
	Game     Game     `yaml:"game"`
}

type Redis struct {
	Host          string `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port          string `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
	EventsChannel string `yaml:"events-channel" env:"REDIS_EVENTS_CHANNEL" env-default:"games:events"`
}

type Postgres struct {
	DSN      string `yaml:"dsn" env:"POSTGRES_DSN"`
	MaxConns int32  `yaml:"max-conns" env:"POSTGRES_MAX_CONNS" env-default:"10"`
}

type Game struct {
	StartingBalance int64 `yaml:"starting-balance" env:"STARTING_BALANCE" env-default:"1000"`
}

// MustLoad - load all configurations in config.yml file.
func MustLoad(path string) *Config {
	config, err := Load(path)
	if err != nil {
		panic(err)
	}

	return config
}

func Load(path string) (*Config, error) {
	config := &Config{}

	if err := cleanenv.ReadConfig(path, config); err != nil {
		return nil, fmt.Errorf("unable to load config file: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (that *Config) validate() error {
	switch that.Storage {
	case DriverRedis, DriverMemory:
	case DriverPostgres:
		if that.Postgres.DSN == "" {
			return fmt.Errorf("postgres dsn is required for storage %q", that.Storage)
		}
	default:
		return fmt.Errorf("unknown storage %q", that.Storage)
	}

	if that.Game.StartingBalance < 0 {
		return fmt.Errorf("starting balance must not be negative, got %d", that.Game.StartingBalance)
	}

	return nil
}

func (that *Redis) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}
