package storage

import "time"

// SnapshotInfo describes one persisted graph snapshot
type SnapshotInfo struct {
	RunID     string    `json:"run_id"`
	CreatedAt time.Time `json:"created_at"`
	Seeds     []string  `json:"seeds"`
	NodeCount int       `json:"node_count"`
	EdgeCount int       `json:"edge_count"`
}

// Metrics tracks crawl statistics for export on exit
type Metrics struct {
	StartTime         time.Time `json:"start_time"`
	EndTime           time.Time `json:"end_time"`
	RunID             string    `json:"run_id,omitempty"`
	Rounds            int       `json:"rounds"`
	NodesDiscovered   int       `json:"nodes_discovered"`
	EdgesRecorded     int       `json:"edges_recorded"`
	PagesFetched      int       `json:"pages_fetched"`
	PagesFailed       int       `json:"pages_failed"`
	PagesThrottled    int       `json:"pages_throttled"`
	Backoffs          int       `json:"backoffs"`
	FinalConcurrency  int       `json:"final_concurrency"`
	TotalFetchTimeMs  int64     `json:"total_fetch_time_ms"`
	AvgFetchTimeMs    int64     `json:"avg_fetch_time_ms"`
	TerminationReason string    `json:"termination_reason"`
}
