package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"liveclass/internal/middleware"

	env "github.com/Netflix/go-env"
	"github.com/joho/godotenv"
)

type Config struct {
	Host           string `env:"HOST,default=0.0.0.0"`
	Port           int    `env:"PORT,default=8080"`
	Domains        string `env:"DOMAINS"`
	LogLevel       string `env:"LOG_LEVEL,default=INFO"`
	BadgerFilepath string `env:"BADGER_FILEPATH"`

	MaxMessageSize    int     `env:"MAX_MESSAGE_SIZE,default=1048576"`
	MaxObjects        int     `env:"MAX_OBJECTS,default=10000"`
	MaxChatLength     int     `env:"MAX_CHAT_LENGTH,default=500"`
	MaxFieldDepth     int     `env:"MAX_FIELD_DEPTH,default=10"`
	MaxFieldKeys      int     `env:"MAX_FIELD_KEYS,default=1000"`
	MessagesPerSecond float64 `env:"MESSAGES_PER_SECOND,default=30"`
	BurstSize         int     `env:"BURST_SIZE,default=60"`

	AuthTimeout     time.Duration `env:"AUTH_TIMEOUT,default=10s"`
	CleanupInterval time.Duration `env:"CLEANUP_INTERVAL,default=15m"`
}

// Load reads an optional .env file, then the environment
func Load(files ...string) (Config, error) {
	// a missing .env is fine, the environment may hold everything
	_ = godotenv.Load(files...)

	var cfg Config
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return Config{}, fmt.Errorf("read environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT out of range: %d", c.Port))
	}
	if c.MaxMessageSize <= 0 {
		errs = append(errs, errors.New("MAX_MESSAGE_SIZE must be positive"))
	}
	if c.MaxObjects <= 0 {
		errs = append(errs, errors.New("MAX_OBJECTS must be positive"))
	}
	if c.MaxChatLength <= 0 {
		errs = append(errs, errors.New("MAX_CHAT_LENGTH must be positive"))
	}
	if c.MessagesPerSecond <= 0 || c.BurstSize <= 0 {
		errs = append(errs, errors.New("MESSAGES_PER_SECOND and BURST_SIZE must be positive"))
	}
	if c.AuthTimeout <= 0 || c.CleanupInterval <= 0 {
		errs = append(errs, errors.New("AUTH_TIMEOUT and CLEANUP_INTERVAL must be positive"))
	}
	return errors.Join(errs...)
}

func (c Config) Limits() middleware.RateLimit {
	return middleware.RateLimit{
		MaxObjects:        c.MaxObjects,
		MaxMessageSize:    c.MaxMessageSize,
		MaxChatLength:     c.MaxChatLength,
		MaxFieldDepth:     c.MaxFieldDepth,
		MaxFieldKeys:      c.MaxFieldKeys,
		MessagesPerSecond: c.MessagesPerSecond,
		BurstSize:         c.BurstSize,
	}
}

func (c Config) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// AllowedOrigins: WebSocket origins from DOMAINS; empty allows any origin
func (c Config) AllowedOrigins() []string {
	var origins []string
	for _, d := range strings.Split(c.Domains, ",") {
		if d = strings.TrimSpace(d); d != "" {
			origins = append(origins, d)
		}
	}
	return origins
}
