package loadtest

import "time"

// Defaults used by the CLI.
const (
	DefaultRounds        = 2
	DefaultTimeout       = 10 * time.Second
	DefaultPollInterval  = 50 * time.Millisecond
	DefaultSettleTimeout = 30 * time.Second
)

const (
	reportFilePermission = 0o600
	directoryPermission  = 0o750
	percentageMultiplier = 100
)
