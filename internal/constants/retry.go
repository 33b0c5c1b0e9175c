package constants

import "time"

// Upstream retry policy defaults. Waits use full-jitter exponential backoff:
// the nth wait is uniform over [0, min(max, base*2^(n-1))].
const (
	DefaultRetryMaxAttempts = 10
	DefaultRetryBaseDelay   = 1 * time.Second
	DefaultRetryMaxDelay    = 30 * time.Second
)

// RetryableStatusCodes 默认可重试的上游状态码
var RetryableStatusCodes = map[int]bool{
	429: true,
	500: true,
	502: true,
	503: true,
	504: true,
}
