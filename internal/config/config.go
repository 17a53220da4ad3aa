package config

import (
	"encoding/base64"
	"fmt"
	"time"
)

const (
	DefaultSweepInterval     = 30 * time.Second
	DefaultAnalyticsInterval = time.Minute
)

type Config struct {
	DatabaseDSN       string
	ServerAddr        string
	SigningKey        []byte
	AllowedOrigins    []string
	SweepInterval     time.Duration
	AnalyticsInterval time.Duration
}

func decodeSigningSecret(base64Secret string) ([]byte, error) {
	if base64Secret == "" {
		return nil, fmt.Errorf("signing secret cannot be empty")
	}
	return base64.StdEncoding.DecodeString(base64Secret)
}

func NewConfig(serverAddr, databaseDSN, base64Secret string, allowedOrigins []string, sweepInterval, analyticsInterval time.Duration) (*Config, error) {
	if serverAddr == "" {
		return nil, fmt.Errorf("server address cannot be empty")
	}
	if databaseDSN == "" {
		return nil, fmt.Errorf("database DSN cannot be empty")
	}

	signingKey, err := decodeSigningSecret(base64Secret)
	if err != nil {
		return nil, fmt.Errorf("decode signing secret: %w", err)
	}

	if sweepInterval <= 0 {
		sweepInterval = DefaultSweepInterval
	}
	if analyticsInterval <= 0 {
		analyticsInterval = DefaultAnalyticsInterval
	}

	return &Config{
		DatabaseDSN:       databaseDSN,
		ServerAddr:        serverAddr,
		SigningKey:        signingKey,
		AllowedOrigins:    allowedOrigins,
		SweepInterval:     sweepInterval,
		AnalyticsInterval: analyticsInterval,
	}, nil
}
