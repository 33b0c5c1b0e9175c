package gemini

import (
	"math"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"geminicli2api-go/internal/constants"
)

func (c *Client) baseDelay() time.Duration {
	if d := c.cfg.Retry.BaseDelay(); d > 0 {
		return d
	}
	return constants.DefaultRetryBaseDelay
}

func (c *Client) maxDelay() time.Duration {
	if d := c.cfg.Retry.MaxDelay(); d > 0 {
		return d
	}
	return constants.DefaultRetryMaxDelay
}

// backoff computes the full-jitter wait for the nth attempt: uniform over
// [0, min(max, base*2^(n-1))].
func (c *Client) backoff(attempt int) time.Duration {
	ceiling := float64(c.baseDelay()) * math.Pow(2, float64(attempt-1))
	if m := float64(c.maxDelay()); ceiling > m {
		ceiling = m
	}
	return time.Duration(rand.Float64() * ceiling)
}

// parseRetryAfter accepts both delta-seconds and HTTP-date forms.
func parseRetryAfter(v string) (time.Duration, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, false
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs < 0 {
			secs = 0
		}
		return time.Duration(secs) * time.Second, true
	}
	layouts := []string{time.RFC1123, time.RFC1123Z, time.RFC850, time.ANSIC}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, v); err == nil {
			d := time.Until(t)
			if d < 0 {
				d = 0
			}
			return d, true
		}
	}
	return 0, false
}

func minDuration(a, b time.Duration) time.Duration {
	if a < b {
		return a
	}
	return b
}
