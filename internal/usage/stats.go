package usage

import (
	"time"
)

// Tokens is the token consumption of a single brokered request, extracted
// from the upstream usageMetadata block.
type Tokens struct {
	Prompt     int64 `json:"prompt_tokens"`
	Completion int64 `json:"completion_tokens"`
	Reasoning  int64 `json:"reasoning_tokens"`
	Cached     int64 `json:"cached_tokens"`
	Total      int64 `json:"total_tokens"`
}

// IsZero reports whether no token counts were observed.
func (t Tokens) IsZero() bool {
	return t.Prompt == 0 && t.Completion == 0 && t.Reasoning == 0 && t.Cached == 0 && t.Total == 0
}

// Add accumulates other into t.
func (t *Tokens) Add(other Tokens) {
	t.Prompt += other.Prompt
	t.Completion += other.Completion
	t.Reasoning += other.Reasoning
	t.Cached += other.Cached
	t.Total += other.Total
}

// Record represents a single brokered request for statistics tracking.
type Record struct {
	Timestamp time.Time `json:"timestamp"`
	Protocol  string    `json:"protocol"` // openai / responses / anthropic / gemini
	Model     string    `json:"model"`
	Success   bool      `json:"success"`
	Streaming bool      `json:"streaming"`
	Tokens    Tokens    `json:"tokens"`
}

// ModelStats tracks usage for a specific model.
type ModelStats struct {
	Model    string    `json:"model"`
	Requests int64     `json:"requests"`
	Tokens   Tokens    `json:"tokens"`
	LastUsed time.Time `json:"last_used"`
}

// ProtocolStats tracks usage for one caller-facing protocol surface.
type ProtocolStats struct {
	Name          string `json:"name"`
	TotalRequests int64  `json:"total_requests"`
	StreamCount   int64  `json:"stream_count"`
	TotalTokens   int64  `json:"total_tokens"`
}

// DailyStats tracks statistics for a specific day.
type DailyStats struct {
	Date     string `json:"date"` // "2025-01-06"
	Requests int64  `json:"requests"`
	Tokens   int64  `json:"tokens"`
	Success  int64  `json:"success"`
	Failure  int64  `json:"failure"`
}

// HourlyStats tracks statistics for a specific hour of day (0-23),
// aggregated across all days.
type HourlyStats struct {
	Hour     int   `json:"hour"`
	Requests int64 `json:"requests"`
	Tokens   int64 `json:"tokens"`
	Success  int64 `json:"success"`
	Failure  int64 `json:"failure"`
}

// Stats is the aggregate usage state persisted across restarts. Callers
// never mutate a Stats directly; the Tracker owns the live instance.
type Stats struct {
	TotalRequests int64 `json:"total_requests"`
	SuccessCount  int64 `json:"success_count"`
	FailureCount  int64 `json:"failure_count"`
	TotalTokens   int64 `json:"total_tokens"`

	Protocols map[string]*ProtocolStats `json:"protocols"`
	Models    map[string]*ModelStats    `json:"models"`

	DailyStats  map[string]*DailyStats `json:"daily_stats"`  // key: "2025-01-06"
	HourlyStats map[int]*HourlyStats   `json:"hourly_stats"` // key: 0-23

	UpdatedAt time.Time `json:"updated_at"`
}

// NewStats creates an empty Stats instance.
func NewStats() *Stats {
	return &Stats{
		Protocols:   make(map[string]*ProtocolStats),
		Models:      make(map[string]*ModelStats),
		DailyStats:  make(map[string]*DailyStats),
		HourlyStats: make(map[int]*HourlyStats),
	}
}

// normalize initializes nil maps after a JSON round trip.
func (s *Stats) normalize() {
	if s.Protocols == nil {
		s.Protocols = make(map[string]*ProtocolStats)
	}
	if s.Models == nil {
		s.Models = make(map[string]*ModelStats)
	}
	if s.DailyStats == nil {
		s.DailyStats = make(map[string]*DailyStats)
	}
	if s.HourlyStats == nil {
		s.HourlyStats = make(map[int]*HourlyStats)
	}
}

// apply folds one request record into the aggregate. Caller holds the
// tracker lock.
func (s *Stats) apply(rec Record) {
	ts := rec.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	s.TotalRequests++
	if rec.Success {
		s.SuccessCount++
	} else {
		s.FailureCount++
	}
	s.TotalTokens += rec.Tokens.Total
	s.UpdatedAt = ts

	if rec.Protocol != "" {
		p, ok := s.Protocols[rec.Protocol]
		if !ok {
			p = &ProtocolStats{Name: rec.Protocol}
			s.Protocols[rec.Protocol] = p
		}
		p.TotalRequests++
		if rec.Streaming {
			p.StreamCount++
		}
		p.TotalTokens += rec.Tokens.Total
	}

	if rec.Model != "" {
		m, ok := s.Models[rec.Model]
		if !ok {
			m = &ModelStats{Model: rec.Model}
			s.Models[rec.Model] = m
		}
		m.Requests++
		m.Tokens.Add(rec.Tokens)
		m.LastUsed = ts
	}

	dateKey := ts.Format("2006-01-02")
	d, ok := s.DailyStats[dateKey]
	if !ok {
		d = &DailyStats{Date: dateKey}
		s.DailyStats[dateKey] = d
	}
	d.Requests++
	d.Tokens += rec.Tokens.Total
	if rec.Success {
		d.Success++
	} else {
		d.Failure++
	}

	hour := ts.Hour()
	h, ok := s.HourlyStats[hour]
	if !ok {
		h = &HourlyStats{Hour: hour}
		s.HourlyStats[hour] = h
	}
	h.Requests++
	h.Tokens += rec.Tokens.Total
	if rec.Success {
		h.Success++
	} else {
		h.Failure++
	}
}

// Clone returns a deep copy safe to hand outside the tracker lock.
func (s *Stats) Clone() *Stats {
	out := &Stats{
		TotalRequests: s.TotalRequests,
		SuccessCount:  s.SuccessCount,
		FailureCount:  s.FailureCount,
		TotalTokens:   s.TotalTokens,
		Protocols:     make(map[string]*ProtocolStats, len(s.Protocols)),
		Models:        make(map[string]*ModelStats, len(s.Models)),
		DailyStats:    make(map[string]*DailyStats, len(s.DailyStats)),
		HourlyStats:   make(map[int]*HourlyStats, len(s.HourlyStats)),
		UpdatedAt:     s.UpdatedAt,
	}
	for k, v := range s.Protocols {
		cp := *v
		out.Protocols[k] = &cp
	}
	for k, v := range s.Models {
		cp := *v
		out.Models[k] = &cp
	}
	for k, v := range s.DailyStats {
		cp := *v
		out.DailyStats[k] = &cp
	}
	for k, v := range s.HourlyStats {
		cp := *v
		out.HourlyStats[k] = &cp
	}
	return out
}
