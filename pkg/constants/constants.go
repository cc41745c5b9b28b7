// Package constants provides shared constants used throughout stripesync.
// This includes timeouts, limits, file permissions and naming values that
// should be consistent across the store, the billing gateway and the CLI.
package constants

import "time"

// Timeout constants define various timeout durations used in the application
const (
	// DefaultHTTPTimeout is the timeout for a single billing provider request
	DefaultHTTPTimeout = 30 * time.Second

	// DatabasePingTimeout bounds the connectivity check when opening the store
	DatabasePingTimeout = 5 * time.Second

	// ShutdownTimeout is the time given to cleanup after a failed command
	ShutdownTimeout = 5 * time.Second

	// RunLockTTL is the expiry of the distributed run lock
	RunLockTTL = 30 * time.Minute

	// EventPublishTimeout bounds publishing one run event
	EventPublishTimeout = 10 * time.Second
)

// File permission constants define standard Unix file permissions
const (
	// DirPermissions is the default permission for created directories (rwxr-xr-x)
	DirPermissions = 0755

	// FilePermissions is the default permission for created files (rw-r--r--)
	FilePermissions = 0644
)

// Limit constants define various limits and capacities
const (
	// MaxConcurrentRequests is the default number of concurrent billing provider calls
	MaxConcurrentRequests = 10

	// DefaultPageSize is the default size of the single bounded listing call
	DefaultPageSize = 100

	// MaxPageSize is the largest page the billing provider accepts
	MaxPageSize = 100

	// DefaultRateLimit is the default number of billing provider requests per second
	DefaultRateLimit = 25

	// BurstSize is the token bucket burst size for rate limiting
	BurstSize = 10
)

// Database pool constants
const (
	// MaxOpenConns is the maximum number of open connections to the database
	MaxOpenConns = 25

	// MaxIdleConns is the maximum number of idle connections kept in the pool
	MaxIdleConns = 25

	// ConnMaxLifetime is the maximum time a connection may be reused
	ConnMaxLifetime = 5 * time.Minute
)

// Cache constants
const (
	// CacheTTL is the time-to-live of cached billing provider lookups
	CacheTTL = 5 * time.Minute

	// CacheCleanupInterval is how often to clean expired cache entries
	CacheCleanupInterval = 10 * time.Minute
)

// Naming constants
const (
	// DefaultDatabase is the schema reconciled when DB_NAME is unset
	DefaultDatabase = "cohabs_onboarding"

	// DefaultReportDir is where report files are written
	DefaultReportDir = "./reports"

	// ReportFilePrefix prefixes every report file name
	ReportFilePrefix = "cohabs-stripe-report-"

	// RunLockKey is the redis key of the run lock
	RunLockKey = "stripesync:run"

	// RunCompletedQueue is the queue receiving run summary events
	RunCompletedQueue = "stripesync.run.completed"

	// Currency is the currency of every created price
	Currency = "eur"

	// BillingInterval is the recurrence of every created price
	BillingInterval = "month"

	// MaxUnitAmount is the largest unit_amount Stripe accepts, in cents
	MaxUnitAmount = 99999999

	// DefaultCustomerDescription describes customers of users without an about text
	DefaultCustomerDescription = "New cohab stripe user"

	// DefaultPhoneRegion is the region assumed for phone numbers without a country code
	DefaultPhoneRegion = "BE"
)
