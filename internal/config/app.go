package config

import (
	"fmt"
	"net"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Storage backends.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// AppConfig holds process-level settings for the CLI and servers. Values
// come from an optional YAML file and T2048_* environment variables, with
// the environment taking precedence.
type AppConfig struct {
	LogLevel string        `yaml:"log-level" env:"T2048_LOG_LEVEL" env-default:"info"`
	Storage  StorageConfig `yaml:"storage"`
	SSH      SSHConfig     `yaml:"ssh"`
	HTTP     HTTPConfig    `yaml:"http"`
}

type StorageConfig struct {
	Backend  string `yaml:"backend" env:"T2048_STORAGE" env-default:"sqlite"`
	DBPath   string `yaml:"db-path" env:"T2048_DB" env-default:"~/.t2048/t2048.db"`
	FilePath string `yaml:"file-path" env:"T2048_STATE_FILE" env-default:"~/.t2048/local_storage.json"`
	Redis    Redis  `yaml:"redis"`
}

type Redis struct {
	Host     string `yaml:"host" env:"T2048_REDIS_HOST" env-default:"localhost"`
	Port     string `yaml:"port" env:"T2048_REDIS_PORT" env-default:"6379"`
	Password string `yaml:"password" env:"T2048_REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"T2048_REDIS_DB" env-default:"0"`
}

type SSHConfig struct {
	Address     string        `yaml:"address" env:"T2048_SSH_ADDR" env-default:":23234"`
	HostKey     string        `yaml:"host-key" env:"T2048_SSH_HOST_KEY"`
	IdleTimeout time.Duration `yaml:"idle-timeout" env:"T2048_SSH_IDLE_TIMEOUT" env-default:"30m"`
}

type HTTPConfig struct {
	Address string `yaml:"address" env:"T2048_HTTP_ADDR" env-default:":8080"`
}

// Load reads settings from path, or from the environment alone when path
// is empty.
func Load(path string) (*AppConfig, error) {
	cfg := &AppConfig{}

	var err error
	if path == "" {
		err = cleanenv.ReadEnv(cfg)
	} else {
		err = cleanenv.ReadConfig(path, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("unable to load config: %w", err)
	}

	switch cfg.Storage.Backend {
	case BackendMemory, BackendFile, BackendSQLite, BackendRedis:
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
	return cfg, nil
}

func (that *Redis) GetRedisAddr() string {
	return net.JoinHostPort(that.Host, that.Port)
}
