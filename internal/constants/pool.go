package constants

// Upstream connection pool defaults, mirroring the official CLI's client.
const (
	DefaultMaxConnections          = 100
	DefaultMaxKeepaliveConnections = 20
)
