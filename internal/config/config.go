package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"remindd/internal/constants"
	"remindd/internal/models"
	"remindd/internal/security"
)

var (
	ErrMissingChatURL = models.ConfigError{Message: "missing chat gateway API URL"}
	ErrMissingDBPath  = models.ConfigError{Message: "missing database path"}
)

func LoadConfig(path string) (*models.Config, error) {
	// Validate config file path to prevent directory traversal
	if err := security.ValidateFilePath(path); err != nil {
		return nil, fmt.Errorf("invalid config path: %w", err)
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var config models.Config
	if err := json.Unmarshal(file, &config); err != nil {
		return nil, err
	}

	applyEnvironmentOverrides(&config)

	if err := validate(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

func validate(c *models.Config) error {
	if c.Chat.APIBaseURL == "" {
		return ErrMissingChatURL
	}
	if c.Database.Path == "" {
		return ErrMissingDBPath
	}

	if c.Server.Port <= 0 {
		c.Server.Port = constants.DefaultServerPort
	}
	if c.Server.CleanupIntervalHours <= 0 {
		c.Server.CleanupIntervalHours = constants.DefaultCleanupIntervalHours
	}
	if c.Database.RetentionDays <= 0 {
		c.Database.RetentionDays = constants.DefaultRetentionDays
	}
	if c.Database.MemberCacheHours <= 0 {
		c.Database.MemberCacheHours = constants.DefaultMemberCacheHours
	}
	if c.Chat.TimeoutSec <= 0 {
		c.Chat.TimeoutSec = constants.DefaultHTTPTimeoutSec
	}
	if c.Chat.RetryCount <= 0 {
		c.Chat.RetryCount = constants.DefaultDatabaseRetryAttempts
	}
	if c.Dispatcher.IntervalSec <= 0 {
		c.Dispatcher.IntervalSec = constants.DefaultDispatchIntervalSec
	}
	if c.Confirmation.TimeoutSec <= 0 {
		c.Confirmation.TimeoutSec = constants.DefaultConfirmTimeoutSec
	}
	if c.Retry.InitialBackoffMs <= 0 {
		c.Retry.InitialBackoffMs = constants.DefaultRetryBackoffMs
	}
	if c.Retry.MaxBackoffMs <= 0 {
		c.Retry.MaxBackoffMs = constants.DefaultMaxBackoffMs
	}
	if c.Retry.MaxAttempts <= 0 {
		c.Retry.MaxAttempts = constants.DefaultMaxAttempts
	}
	if c.Tracing.ServiceName == "" {
		c.Tracing.ServiceName = "remindd"
	}

	return nil
}

func applyEnvironmentOverrides(c *models.Config) {
	if url := os.Getenv("REMINDD_CHAT_API_URL"); url != "" {
		c.Chat.APIBaseURL = url
	}
	if path := os.Getenv("REMINDD_DB_PATH"); path != "" {
		c.Database.Path = path
	}
	if port := os.Getenv("REMINDD_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Server.Port = p
		}
	}
	if level := os.Getenv("REMINDD_LOG_LEVEL"); level != "" {
		c.LogLevel = level
	}
}
