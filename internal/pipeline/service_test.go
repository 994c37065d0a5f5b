package pipeline

import (
	"sync"
	"testing"
)

func TestStatsSnapshot(t *testing.T) {
	t.Parallel()

	stats := NewStats()
	stats.record(OutcomeCreated)
	stats.record(OutcomeCreated)
	stats.record(OutcomeStale)

	snapshot := stats.Snapshot()
	if got := snapshot["created"]; got != 2 {
		t.Fatalf("created = %d, want 2", got)
	}
	if got := snapshot["stale"]; got != 1 {
		t.Fatalf("stale = %d, want 1", got)
	}
	if got := snapshot["failed"]; got != 0 {
		t.Fatalf("failed = %d, want 0", got)
	}
	if len(snapshot) != len(Outcomes) {
		t.Fatalf("snapshot has %d keys, want %d", len(snapshot), len(Outcomes))
	}
}

func TestStatsConcurrentRecord(t *testing.T) {
	t.Parallel()

	stats := NewStats()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				stats.record(OutcomeUpdated)
			}
		}()
	}
	wg.Wait()

	if got := stats.Snapshot()["updated"]; got != 1600 {
		t.Fatalf("updated = %d, want 1600", got)
	}
}
