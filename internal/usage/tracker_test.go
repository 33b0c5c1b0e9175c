package usage

import (
	"context"
	"testing"
	"time"
)

func TestNewTracker(t *testing.T) {
	tracker := NewTracker(NewMemoryStorage())
	if tracker == nil {
		t.Fatal("NewTracker returned nil")
	}
	if tracker.stats == nil {
		t.Error("Tracker stats not initialized")
	}
	if tracker.storage == nil {
		t.Error("Tracker storage not set")
	}
}

func TestTrackerRecord(t *testing.T) {
	tracker := NewTracker(NewMemoryStorage())

	tracker.Record(Record{
		Timestamp: time.Now(),
		Protocol:  "openai",
		Model:     "gemini-2.5-pro",
		Success:   true,
		Tokens:    Tokens{Prompt: 100, Completion: 50, Total: 150},
	})

	stats := tracker.Snapshot()
	if stats.TotalRequests != 1 {
		t.Errorf("Expected TotalRequests=1, got %d", stats.TotalRequests)
	}
	if stats.SuccessCount != 1 {
		t.Errorf("Expected SuccessCount=1, got %d", stats.SuccessCount)
	}
	if stats.TotalTokens != 150 {
		t.Errorf("Expected TotalTokens=150, got %d", stats.TotalTokens)
	}
	if _, ok := stats.Protocols["openai"]; !ok {
		t.Error("Protocol stats not recorded")
	}
	if _, ok := stats.Models["gemini-2.5-pro"]; !ok {
		t.Error("Model stats not recorded")
	}
}

func TestTrackerRecordFillsTimestamp(t *testing.T) {
	tracker := NewTracker(nil)

	tracker.Record(Record{Protocol: "gemini", Model: "gemini-2.5-flash", Success: true})

	stats := tracker.Snapshot()
	if stats.UpdatedAt.IsZero() {
		t.Error("Expected UpdatedAt to be set for zero-timestamp record")
	}
	if len(stats.DailyStats) != 1 {
		t.Errorf("Expected 1 daily bucket, got %d", len(stats.DailyStats))
	}
}

func TestTrackerStartStopPersists(t *testing.T) {
	storage := NewMemoryStorage()
	ctx := context.Background()

	tracker := NewTracker(storage)
	if err := tracker.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	tracker.Record(Record{
		Timestamp: time.Now(),
		Protocol:  "anthropic",
		Model:     "gemini-2.5-pro",
		Success:   true,
		Tokens:    Tokens{Total: 42},
	})

	if err := tracker.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	// A fresh tracker on the same storage sees the persisted state.
	tracker2 := NewTracker(storage)
	if err := tracker2.Start(ctx); err != nil {
		t.Fatalf("Start second tracker: %v", err)
	}
	defer tracker2.Stop(ctx)

	stats := tracker2.Snapshot()
	if stats.TotalRequests != 1 {
		t.Errorf("Expected persisted TotalRequests=1, got %d", stats.TotalRequests)
	}
	if stats.TotalTokens != 42 {
		t.Errorf("Expected persisted TotalTokens=42, got %d", stats.TotalTokens)
	}
}

func TestTrackerSnapshotIsolation(t *testing.T) {
	tracker := NewTracker(nil)
	tracker.Record(Record{Protocol: "openai", Model: "gemini-2.5-pro", Success: true})

	snap := tracker.Snapshot()
	snap.TotalRequests = 999
	snap.Models["gemini-2.5-pro"].Requests = 999

	if got := tracker.Snapshot().TotalRequests; got != 1 {
		t.Errorf("Snapshot mutation leaked into tracker: %d", got)
	}
	if got := tracker.Snapshot().Models["gemini-2.5-pro"].Requests; got != 1 {
		t.Errorf("Snapshot model mutation leaked into tracker: %d", got)
	}
}

func TestTrackerConcurrentRecord(t *testing.T) {
	tracker := NewTracker(nil)

	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			for j := 0; j < 50; j++ {
				tracker.Record(Record{
					Protocol: "openai",
					Model:    "gemini-2.5-flash",
					Success:  true,
					Tokens:   Tokens{Total: 1},
				})
			}
		}()
	}
	for i := 0; i < 8; i++ {
		<-done
	}

	stats := tracker.Snapshot()
	if stats.TotalRequests != 400 {
		t.Errorf("Expected 400 requests, got %d", stats.TotalRequests)
	}
	if stats.TotalTokens != 400 {
		t.Errorf("Expected 400 tokens, got %d", stats.TotalTokens)
	}
}
