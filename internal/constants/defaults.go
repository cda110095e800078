package constants

// Default dispatcher and confirmation values
const (
	DefaultDispatchIntervalSec = 30
	DefaultConfirmTimeoutSec   = 60
	DefaultServerPort          = 8084
	DefaultRetentionDays       = 30
)

// Default timeout values
const (
	DefaultHTTPTimeoutSec        = 30
	DefaultDatabaseRetryAttempts = 3
	DefaultGracefulShutdownSec   = 30
	DefaultRetryBackoffMs        = 1000
	DefaultMaxBackoffMs          = 60000
	DefaultMaxAttempts           = 5
	DefaultServerReadTimeoutSec  = 15
	DefaultServerWriteTimeoutSec = 15
	DefaultServerIdleTimeoutSec  = 60
	DefaultCleanupIntervalHours  = 24
	DefaultMemberCacheHours      = 24
)

// Reminder body limits
const (
	MaxReminderBodyLength = 1024
)

// Encryption parameters
const (
	EncryptionSalt       = "remindd-db-salt-v1"
	EncryptionLookupSalt = "remindd-lookup-salt-v1"
)

// Channel sizes
const (
	ServerErrorChannelSize = 1
	DecisionChannelSize    = 1
)
