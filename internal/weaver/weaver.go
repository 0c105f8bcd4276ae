package weaver

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/alvmarrod/graph-weaver/internal/config"
	"github.com/alvmarrod/graph-weaver/internal/crawler"
	"github.com/alvmarrod/graph-weaver/internal/extract"
	"github.com/alvmarrod/graph-weaver/internal/fetch"
	"github.com/alvmarrod/graph-weaver/internal/graph"
	"github.com/alvmarrod/graph-weaver/internal/metrics"
	"github.com/alvmarrod/graph-weaver/internal/ranking"
	"github.com/alvmarrod/graph-weaver/internal/storage"
)

// ErrNoGraph is returned by queries issued before any graph was built or loaded
var ErrNoGraph = errors.New("no graph available")

// SnapshotStore persists graph snapshots
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, snap graph.Snapshot, seeds []string) (string, error)
	LoadLatestSnapshot(ctx context.Context) (graph.Snapshot, storage.SnapshotInfo, error)
	LoadSnapshot(ctx context.Context, runID string) (graph.Snapshot, storage.SnapshotInfo, error)
	ListSnapshots(ctx context.Context) ([]storage.SnapshotInfo, error)
}

// Service builds graphs from seeds and answers ranking queries over the latest one
type Service struct {
	cfg       *config.Config
	fetcher   fetch.Fetcher
	registry  *extract.Registry
	snapshots SnapshotStore // optional

	mu      sync.RWMutex
	graph   *graph.Store
	metrics storage.Metrics
}

// NewService creates a service. snapshots may be nil to disable persistence.
func NewService(cfg *config.Config, fetcher fetch.Fetcher, registry *extract.Registry, snapshots SnapshotStore) *Service {
	return &Service{
		cfg:       cfg,
		fetcher:   fetcher,
		registry:  registry,
		snapshots: snapshots,
	}
}

// LoadSnapshot replaces the current graph with the snapshot saved under runID,
// or with the latest one when runID is empty
func (s *Service) LoadSnapshot(ctx context.Context, runID string) (storage.SnapshotInfo, error) {
	if s.snapshots == nil {
		return storage.SnapshotInfo{}, storage.ErrNoSnapshot
	}

	var (
		snap graph.Snapshot
		info storage.SnapshotInfo
		err  error
	)
	if runID == "" {
		snap, info, err = s.snapshots.LoadLatestSnapshot(ctx)
	} else {
		snap, info, err = s.snapshots.LoadSnapshot(ctx, runID)
	}
	if err != nil {
		return storage.SnapshotInfo{}, err
	}

	g, err := graph.FromSnapshot(snap)
	if err != nil {
		return storage.SnapshotInfo{}, fmt.Errorf("snapshot %s is corrupt: %w", info.RunID, err)
	}

	s.mu.Lock()
	s.graph = g
	s.mu.Unlock()

	logrus.Infof("Loaded snapshot %s (%d nodes, %d edges)", info.RunID, info.NodeCount, info.EdgeCount)
	return info, nil
}

// Snapshots lists the persisted snapshots, newest first
func (s *Service) Snapshots(ctx context.Context) ([]storage.SnapshotInfo, error) {
	if s.snapshots == nil {
		return nil, nil
	}
	return s.snapshots.ListSnapshots(ctx)
}

type seedResult struct {
	store  *graph.Store
	reason string
}

// BuildGraph crawls every seed, merges the per-seed graphs, persists a snapshot and returns
// the node-link serialization. Empty seeds or extractor names fall back to configuration.
// On failure the previously held graph is kept.
func (s *Service) BuildGraph(ctx context.Context, seeds, extractorNames []string) (*graph.NodeLink, error) {
	if len(seeds) == 0 {
		seeds = s.cfg.Seeds
	}
	if len(seeds) == 0 {
		return nil, config.ErrNoSeeds
	}
	if len(extractorNames) == 0 {
		extractorNames = s.cfg.Extractors
	}

	extractors, err := s.registry.Lookup(extractorNames)
	if err != nil {
		return nil, err
	}

	tracker := metrics.NewTracker()
	results := make([]seedResult, len(seeds))

	crawlSeed := func(ctx context.Context, i int) error {
		c, err := crawler.NewCrawler(s.cfg, s.fetcher, extractors, tracker)
		if err != nil {
			return err
		}

		logrus.Infof("Crawling seed %s", seeds[i])
		store, reason, err := c.Crawl(ctx, seeds[i])
		if err != nil && !errors.Is(err, crawler.ErrConcurrencyExhausted) {
			return fmt.Errorf("crawl of %s failed: %w", seeds[i], err)
		}
		if err != nil {
			logrus.Warnf("Crawl of %s stopped early: %v", seeds[i], err)
		}

		nodes, edges := store.GetStats()
		logrus.Infof("Seed %s done: %s (%d nodes, %d edges)", seeds[i], reason, nodes, edges)
		results[i] = seedResult{store: store, reason: reason}
		return nil
	}

	if s.cfg.ParallelSeeds {
		g, gctx := errgroup.WithContext(ctx)
		for i := range seeds {
			g.Go(func() error { return crawlSeed(gctx, i) })
		}
		err = g.Wait()
	} else {
		for i := range seeds {
			if err = crawlSeed(ctx, i); err != nil {
				break
			}
		}
	}
	if err != nil {
		s.finishMetrics(tracker, crawler.ReasonError)
		return nil, err
	}

	merged := graph.NewStore()
	reasons := make([]string, 0, len(results))
	for _, r := range results {
		merged.Merge(r.store)
		reasons = append(reasons, r.reason)
	}

	if s.snapshots != nil {
		runID, err := s.snapshots.SaveSnapshot(ctx, merged.Snapshot(), seeds)
		if err != nil {
			s.finishMetrics(tracker, crawler.ReasonError)
			return nil, fmt.Errorf("failed to persist snapshot: %w", err)
		}
		tracker.SetRunID(runID)
		logrus.Infof("Saved snapshot %s", runID)
	}

	s.mu.Lock()
	s.graph = merged
	s.mu.Unlock()

	s.finishMetrics(tracker, dominantReason(reasons))

	nl := merged.NodeLink()
	return &nl, nil
}

// reasonOrder ranks termination reasons from least to most severe
var reasonOrder = map[string]int{
	crawler.ReasonFrontierEmpty:        0,
	crawler.ReasonMaxDepth:             1,
	crawler.ReasonConcurrencyExhausted: 2,
	crawler.ReasonCancelled:            3,
	crawler.ReasonError:                4,
}

// dominantReason summarizes per-seed termination reasons by their most severe one
func dominantReason(reasons []string) string {
	out := crawler.ReasonFrontierEmpty
	for _, r := range reasons {
		if reasonOrder[r] > reasonOrder[out] {
			out = r
		}
	}
	return out
}

func (s *Service) finishMetrics(tracker *metrics.Tracker, reason string) {
	if s.cfg.MetricsPath != "" {
		if err := tracker.WriteToFile(s.cfg.MetricsPath, reason); err != nil {
			logrus.Warnf("Failed to write metrics: %v", err)
		}
	}

	snap := tracker.GetSnapshot()
	snap.TerminationReason = reason

	s.mu.Lock()
	s.metrics = snap
	s.mu.Unlock()
}

// Metrics returns the metrics of the last build
func (s *Service) Metrics() storage.Metrics {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.metrics
}

// Graph returns the node-link form of the current graph
func (s *Service) Graph() (*graph.NodeLink, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.graph == nil {
		return nil, ErrNoGraph
	}
	nl := s.graph.NodeLink()
	return &nl, nil
}

// TopNPerDomain ranks the current graph and returns the best n URLs per domain.
// Ranking rewrites edge weights, so it holds the write lock.
func (s *Service) TopNPerDomain(n int) ([]ranking.Cluster, error) {
	if n <= 0 {
		n = s.cfg.Ranking.TopN
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.graph == nil {
		return nil, ErrNoGraph
	}
	return ranking.TopNPerDomain(s.graph, n, s.rankingOptions()), nil
}

func (s *Service) rankingOptions() ranking.Options {
	opts := ranking.DefaultOptions()
	opts.Alpha = s.cfg.Alpha()
	if s.cfg.Ranking.Damping > 0 {
		opts.PageRank.Damping = s.cfg.Ranking.Damping
	}
	if s.cfg.Ranking.MaxIterations > 0 {
		opts.PageRank.MaxIterations = s.cfg.Ranking.MaxIterations
	}
	if s.cfg.Ranking.Tolerance > 0 {
		opts.PageRank.Tolerance = s.cfg.Ranking.Tolerance
	}
	return opts
}
