package db

import (
	"time"
)

// Database connection constants
const (
	// ConnectionRetrySleep is the sleep duration between connection retries
	ConnectionRetrySleep = 2 * time.Second
	// maxConnectionRetries is the number of retries for initial connection
	maxConnectionRetries = 10

	defaultMaxConns          = 4
	defaultMinConns          = 1
	defaultMaxConnIdleTime   = 5 * time.Minute
	defaultHealthCheckPeriod = time.Minute
)

// Advisory lock identifiers
const (
	migrationLockID = 1000
	// RunLockID guards a full pipeline run so scheduled runs never overlap.
	RunLockID = 1001
)
