package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/alvmarrod/graph-weaver/internal/graph"
)

// ErrNoSnapshot is returned when the database holds no matching snapshot
var ErrNoSnapshot = errors.New("no snapshot found")

// Storage persists immutable graph snapshots in SQLite
type Storage struct {
	db *sql.DB
}

// NewStorage creates a new Storage instance, opening/creating the DB and initializing schema
func NewStorage(dbPath string) (*Storage, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_synchronous=NORMAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	storage := &Storage{db: db}

	if err := storage.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return storage, nil
}

// initSchema creates tables and indices if they don't exist
func (s *Storage) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS snapshots (
		run_id TEXT PRIMARY KEY,
		created_at TIMESTAMP NOT NULL,
		seeds TEXT NOT NULL DEFAULT '[]',
		node_count INTEGER NOT NULL DEFAULT 0,
		edge_count INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS nodes (
		run_id TEXT NOT NULL,
		node_id TEXT NOT NULL,
		domain TEXT NOT NULL DEFAULT '',
		type TEXT NOT NULL,
		PRIMARY KEY (run_id, node_id),
		FOREIGN KEY (run_id) REFERENCES snapshots(run_id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS edges (
		run_id TEXT NOT NULL,
		source TEXT NOT NULL,
		target TEXT NOT NULL,
		weight REAL NOT NULL DEFAULT 0,
		PRIMARY KEY (run_id, source, target),
		FOREIGN KEY (run_id) REFERENCES snapshots(run_id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS type_cache (
		run_id TEXT NOT NULL,
		type TEXT NOT NULL,
		node_id TEXT NOT NULL,
		PRIMARY KEY (run_id, type, node_id),
		FOREIGN KEY (run_id) REFERENCES snapshots(run_id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_snapshots_created ON snapshots(created_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// SaveSnapshot writes a snapshot in one transaction and returns its run id
func (s *Storage) SaveSnapshot(ctx context.Context, snap graph.Snapshot, seeds []string) (string, error) {
	runID := uuid.NewString()

	seedsJSON, err := json.Marshal(seeds)
	if err != nil {
		return "", fmt.Errorf("failed to encode seeds: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO snapshots (run_id, created_at, seeds, node_count, edge_count) VALUES (?, ?, ?, ?, ?)`,
		runID, time.Now().UTC(), string(seedsJSON), len(snap.Nodes), len(snap.Edges),
	); err != nil {
		return "", fmt.Errorf("failed to insert snapshot: %w", err)
	}

	if err := insertRows(ctx, tx, `INSERT INTO nodes (run_id, node_id, domain, type) VALUES (?, ?, ?, ?)`,
		len(snap.Nodes), func(i int) []any {
			n := snap.Nodes[i]
			return []any{runID, n.ID, n.Domain, n.Type}
		}); err != nil {
		return "", fmt.Errorf("failed to insert nodes: %w", err)
	}

	if err := insertRows(ctx, tx, `INSERT INTO edges (run_id, source, target, weight) VALUES (?, ?, ?, ?)`,
		len(snap.Edges), func(i int) []any {
			e := snap.Edges[i]
			return []any{runID, e.Source, e.Target, e.Weight}
		}); err != nil {
		return "", fmt.Errorf("failed to insert edges: %w", err)
	}

	var cache [][2]string
	for typ, ids := range snap.Cache {
		for _, id := range ids {
			cache = append(cache, [2]string{typ, id})
		}
	}
	if err := insertRows(ctx, tx, `INSERT OR IGNORE INTO type_cache (run_id, type, node_id) VALUES (?, ?, ?)`,
		len(cache), func(i int) []any {
			return []any{runID, cache[i][0], cache[i][1]}
		}); err != nil {
		return "", fmt.Errorf("failed to insert type cache: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit snapshot: %w", err)
	}

	return runID, nil
}

// insertRows runs one prepared statement n times
func insertRows(ctx context.Context, tx *sql.Tx, query string, n int, args func(i int) []any) error {
	if n == 0 {
		return nil
	}

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i := 0; i < n; i++ {
		if _, err := stmt.ExecContext(ctx, args(i)...); err != nil {
			return err
		}
	}
	return nil
}

// LoadLatestSnapshot returns the most recently saved snapshot
func (s *Storage) LoadLatestSnapshot(ctx context.Context) (graph.Snapshot, SnapshotInfo, error) {
	var runID string
	err := s.db.QueryRowContext(ctx,
		`SELECT run_id FROM snapshots ORDER BY created_at DESC, rowid DESC LIMIT 1`,
	).Scan(&runID)
	if errors.Is(err, sql.ErrNoRows) {
		return graph.Snapshot{}, SnapshotInfo{}, ErrNoSnapshot
	}
	if err != nil {
		return graph.Snapshot{}, SnapshotInfo{}, fmt.Errorf("failed to find latest snapshot: %w", err)
	}

	return s.LoadSnapshot(ctx, runID)
}

// LoadSnapshot returns the snapshot saved under runID
func (s *Storage) LoadSnapshot(ctx context.Context, runID string) (graph.Snapshot, SnapshotInfo, error) {
	info, err := s.snapshotInfo(ctx, runID)
	if err != nil {
		return graph.Snapshot{}, SnapshotInfo{}, err
	}

	snap := graph.Snapshot{Cache: make(map[string][]string)}

	rows, err := s.db.QueryContext(ctx,
		`SELECT node_id, domain, type FROM nodes WHERE run_id = ? ORDER BY node_id`, runID)
	if err != nil {
		return graph.Snapshot{}, SnapshotInfo{}, fmt.Errorf("failed to load nodes: %w", err)
	}
	for rows.Next() {
		var n graph.Node
		if err := rows.Scan(&n.ID, &n.Domain, &n.Type); err != nil {
			rows.Close()
			return graph.Snapshot{}, SnapshotInfo{}, fmt.Errorf("failed to scan node: %w", err)
		}
		snap.Nodes = append(snap.Nodes, n)
	}
	if err := closeRows(rows); err != nil {
		return graph.Snapshot{}, SnapshotInfo{}, fmt.Errorf("error iterating nodes: %w", err)
	}

	rows, err = s.db.QueryContext(ctx,
		`SELECT source, target, weight FROM edges WHERE run_id = ? ORDER BY source, target`, runID)
	if err != nil {
		return graph.Snapshot{}, SnapshotInfo{}, fmt.Errorf("failed to load edges: %w", err)
	}
	for rows.Next() {
		var e graph.Edge
		if err := rows.Scan(&e.Source, &e.Target, &e.Weight); err != nil {
			rows.Close()
			return graph.Snapshot{}, SnapshotInfo{}, fmt.Errorf("failed to scan edge: %w", err)
		}
		snap.Edges = append(snap.Edges, e)
	}
	if err := closeRows(rows); err != nil {
		return graph.Snapshot{}, SnapshotInfo{}, fmt.Errorf("error iterating edges: %w", err)
	}

	rows, err = s.db.QueryContext(ctx,
		`SELECT type, node_id FROM type_cache WHERE run_id = ? ORDER BY type, node_id`, runID)
	if err != nil {
		return graph.Snapshot{}, SnapshotInfo{}, fmt.Errorf("failed to load type cache: %w", err)
	}
	for rows.Next() {
		var typ, id string
		if err := rows.Scan(&typ, &id); err != nil {
			rows.Close()
			return graph.Snapshot{}, SnapshotInfo{}, fmt.Errorf("failed to scan type cache: %w", err)
		}
		snap.Cache[typ] = append(snap.Cache[typ], id)
	}
	if err := closeRows(rows); err != nil {
		return graph.Snapshot{}, SnapshotInfo{}, fmt.Errorf("error iterating type cache: %w", err)
	}

	return snap, info, nil
}

func closeRows(rows *sql.Rows) error {
	iterErr := rows.Err()
	closeErr := rows.Close()
	if iterErr != nil {
		return iterErr
	}
	return closeErr
}

func (s *Storage) snapshotInfo(ctx context.Context, runID string) (SnapshotInfo, error) {
	var (
		info  SnapshotInfo
		seeds string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT run_id, created_at, seeds, node_count, edge_count FROM snapshots WHERE run_id = ?`, runID,
	).Scan(&info.RunID, &info.CreatedAt, &seeds, &info.NodeCount, &info.EdgeCount)
	if errors.Is(err, sql.ErrNoRows) {
		return SnapshotInfo{}, fmt.Errorf("%w: %s", ErrNoSnapshot, runID)
	}
	if err != nil {
		return SnapshotInfo{}, fmt.Errorf("failed to load snapshot %s: %w", runID, err)
	}

	if err := json.Unmarshal([]byte(seeds), &info.Seeds); err != nil {
		return SnapshotInfo{}, fmt.Errorf("failed to decode seeds of %s: %w", runID, err)
	}
	return info, nil
}

// ListSnapshots returns every saved snapshot, newest first
func (s *Storage) ListSnapshots(ctx context.Context) ([]SnapshotInfo, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT run_id FROM snapshots ORDER BY rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan snapshot id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := closeRows(rows); err != nil {
		return nil, fmt.Errorf("error iterating snapshots: %w", err)
	}

	infos := make([]SnapshotInfo, 0, len(ids))
	for _, id := range ids {
		info, err := s.snapshotInfo(ctx, id)
		if err != nil {
			return nil, err
		}
		infos = append(infos, info)
	}
	sort.SliceStable(infos, func(i, j int) bool {
		return infos[i].CreatedAt.After(infos[j].CreatedAt)
	})

	return infos, nil
}

// Close closes the database connection
func (s *Storage) Close() error {
	return s.db.Close()
}
