package models

// Config holds the application configuration
type Config struct {
	Server       ServerConfig       `json:"server"`
	Database     DatabaseConfig     `json:"database"`
	Chat         ChatConfig         `json:"chat"`
	Dispatcher   DispatcherConfig   `json:"dispatcher"`
	Confirmation ConfirmationConfig `json:"confirmation"`
	Retry        RetryConfig        `json:"retry"`
	Tracing      TracingConfig      `json:"tracing"`
	LogLevel     string             `json:"log_level"`
}

// ServerConfig holds HTTP server related configurations
type ServerConfig struct {
	Port                 int `json:"port"`
	CleanupIntervalHours int `json:"cleanupIntervalHours"`
}

// DatabaseConfig holds database related configurations
type DatabaseConfig struct {
	Path             string `json:"path"`
	RetentionDays    int    `json:"retentionDays"`
	MemberCacheHours int    `json:"memberCacheHours"`
}

// ChatConfig holds chat gateway related configurations
type ChatConfig struct {
	APIBaseURL string `json:"api_base_url"`
	TimeoutSec int    `json:"timeout_sec"`
	RetryCount int    `json:"retry_count"`
}

// DispatcherConfig holds dispatcher loop related configurations
type DispatcherConfig struct {
	IntervalSec int `json:"intervalSec"`
}

// ConfirmationConfig holds mutation confirmation flow configurations
type ConfirmationConfig struct {
	TimeoutSec int `json:"timeoutSec"`
}

// RetryConfig holds retry related configurations
type RetryConfig struct {
	InitialBackoffMs int `json:"initialBackoffMs"`
	MaxBackoffMs     int `json:"maxBackoffMs"`
	MaxAttempts      int `json:"maxAttempts"`
}

// TracingConfig holds OpenTelemetry related configurations
type TracingConfig struct {
	Enabled        bool    `json:"enabled"`
	ServiceName    string  `json:"service_name"`
	ServiceVersion string  `json:"service_version"`
	Environment    string  `json:"environment"`
	OTLPEndpoint   string  `json:"otlp_endpoint"`
	SampleRate     float64 `json:"sample_rate"`
	UseStdout      bool    `json:"use_stdout"`
}

type ConfigError struct {
	Message string
}

func (e ConfigError) Error() string {
	return e.Message
}
