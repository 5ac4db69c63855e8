package main

import (
	"fmt"
	"os"
	"time"

	"playground/internal/mockserver"
	"playground/pkg/utils/logger"

	"gopkg.in/yaml.v3"
)

const (
	defaultHTTPAddr        = "0.0.0.0:8000"
	defaultReadTimeout     = 5 * time.Second
	defaultWriteTimeout    = 10 * time.Second
	defaultIdleTimeout     = 60 * time.Second
	defaultShutdownTimeout = 10 * time.Second
	defaultRevokedCapacity = 10000
)

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr         string        `yaml:"addr"`
	ReadTimeout  time.Duration `yaml:"readTimeout"`
	WriteTimeout time.Duration `yaml:"writeTimeout"`
	IdleTimeout  time.Duration `yaml:"idleTimeout"`
}

// StoreConfig selects where revoked refresh tokens are kept.
type StoreConfig struct {
	Driver   string                 `yaml:"driver"` // memory, redis
	Capacity int                    `yaml:"capacity"`
	Redis    mockserver.RedisConfig `yaml:"redis"`
}

// AppConfig holds the mock-server configuration.
type AppConfig struct {
	Server ServerConfig          `yaml:"server"`
	Logger logger.Config         `yaml:"logger"`
	Auth   mockserver.AuthConfig `yaml:"auth"`
	CORS   mockserver.CORSConfig `yaml:"cors"`
	Store  StoreConfig           `yaml:"store"`
}

func loadAppConfig(path string) (*AppConfig, error) {
	var cfg AppConfig
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config file failed: %w", err)
		}
	} else if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config file failed: %w", err)
	}

	if cfg.Server.Addr == "" {
		cfg.Server.Addr = defaultHTTPAddr
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = defaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = defaultWriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = defaultIdleTimeout
	}
	if cfg.Logger.Level == "" {
		cfg.Logger.Level = "info"
	}
	if cfg.Store.Driver == "" {
		cfg.Store.Driver = "memory"
	}
	if cfg.Store.Capacity == 0 {
		cfg.Store.Capacity = defaultRevokedCapacity
	}
	if secret := os.Getenv("MOCK_SERVER_JWT_SECRET"); secret != "" {
		cfg.Auth.JWTSecret = secret
	}
	if cfg.Auth.JWTSecret == "" {
		return nil, fmt.Errorf("auth.jwtSecret is required")
	}
	cfg.Auth.ApplyDefaults()
	return &cfg, nil
}
