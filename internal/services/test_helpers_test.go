package services_test

import (
	"time"

	"github.com/webfolio/webfolio-api/config"
	"github.com/webfolio/webfolio-api/pkg/logger"
)

func init() {
	// Initialize logger for tests
	if err := logger.Initialize(logger.Config{
		Level:       "debug",
		Environment: "development",
	}); err != nil {
		panic(err)
	}
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			AppEnv: "development",
		},
		Email: config.EmailConfig{
			From: "noreply@webfolio.dev",
			To:   "owner@webfolio.dev",
		},
		Csrf: config.CsrfConfig{
			TokenTTL: time.Hour,
		},
		RateLimit: config.RateLimitConfig{
			IP:     config.RateLimitTier{Requests: 5, Window: 10 * time.Minute},
			Global: config.RateLimitTier{Requests: 100, Window: time.Hour},
		},
	}
}
