package consts

import "time"

// Heartbeat and health checks
const (
	HeartbeatInterval     = 30 * time.Second
	StaleProcessThreshold = 2 * time.Minute
)

// Web server
const (
	ShutdownTimeout   = 30 * time.Second
	ReadHeaderTimeout = 10 * time.Second
)

// Child processes
const (
	ProcessWaitDelay = 10 * time.Second
)
