package metrics

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/alvmarrod/graph-weaver/internal/storage"
)

// Tracker holds and manages crawl metrics.
// It is safe for use by parallel seed crawls.
type Tracker struct {
	mu               sync.Mutex
	data             storage.Metrics
	totalFetchTimeMs int64
	fetchCount       int
}

// NewTracker creates a new metrics tracker
func NewTracker() *Tracker {
	return &Tracker{
		data: storage.Metrics{
			StartTime: time.Now(),
		},
	}
}

// IncrementRounds counts a dispatched round
func (t *Tracker) IncrementRounds() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.data.Rounds++
}

// IncrementPagesFetched increments the successful fetch counter
func (t *Tracker) IncrementPagesFetched() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.data.PagesFetched++
}

// IncrementPagesFailed increments the failed fetch counter
func (t *Tracker) IncrementPagesFailed() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.data.PagesFailed++
}

// IncrementPagesThrottled counts HTTP 429 answers
func (t *Tracker) IncrementPagesThrottled() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.data.PagesThrottled++
}

// IncrementBackoffs counts round-level backoffs after transport failures
func (t *Tracker) IncrementBackoffs() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.data.Backoffs++
}

// AddGraphGrowth records nodes and edges new to a crawl's graph
func (t *Tracker) AddGraphGrowth(nodes, edges int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.data.NodesDiscovered += nodes
	t.data.EdgesRecorded += edges
}

// SetConcurrency records the latest concurrency value
func (t *Tracker) SetConcurrency(n int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.data.FinalConcurrency = n
}

// SetRunID links the metrics to a persisted snapshot
func (t *Tracker) SetRunID(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.data.RunID = id
}

// RecordFetchTime records a page fetch duration
func (t *Tracker) RecordFetchTime(duration time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.totalFetchTimeMs += duration.Milliseconds()
	t.fetchCount++
}

// GetSnapshot returns a copy of current metrics
func (t *Tracker) GetSnapshot() storage.Metrics {
	t.mu.Lock()
	defer t.mu.Unlock()

	snapshot := t.data
	snapshot.TotalFetchTimeMs = t.totalFetchTimeMs
	if t.fetchCount > 0 {
		snapshot.AvgFetchTimeMs = t.totalFetchTimeMs / int64(t.fetchCount)
	}

	return snapshot
}

// WriteToFile exports metrics to a JSON file
func (t *Tracker) WriteToFile(path, reason string) error {
	t.mu.Lock()
	t.data.EndTime = time.Now()
	t.data.TerminationReason = reason
	t.mu.Unlock()

	jsonData, err := json.MarshalIndent(t.GetSnapshot(), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal metrics: %w", err)
	}

	if err := os.WriteFile(path, jsonData, 0644); err != nil {
		return fmt.Errorf("failed to write metrics file: %w", err)
	}

	return nil
}

// LogProgress formats current metrics for a periodic log line
func (t *Tracker) LogProgress() string {
	t.mu.Lock()
	defer t.mu.Unlock()

	return fmt.Sprintf("Rounds: %d | Nodes: %d | Edges: %d | Pages: %d fetched, %d failed, %d throttled | Concurrency: %d",
		t.data.Rounds,
		t.data.NodesDiscovered,
		t.data.EdgesRecorded,
		t.data.PagesFetched,
		t.data.PagesFailed,
		t.data.PagesThrottled,
		t.data.FinalConcurrency,
	)
}
