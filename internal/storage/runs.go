package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"

	"overdoc/internal/engine"
	"overdoc/internal/errors"
	"overdoc/internal/graph"
	"overdoc/internal/report"
)

var (
	encoder *zstd.Encoder
	decoder *zstd.Decoder
)

func init() {
	var err error
	if encoder, err = zstd.NewWriter(nil); err != nil {
		panic(err)
	}
	if decoder, err = zstd.NewReader(nil); err != nil {
		panic(err)
	}
}

// LatestRun refers to the most recent run in ResolveRunID.
const LatestRun = "latest"

// RunSummary describes one saved run.
type RunSummary struct {
	ID         string    `json:"id" yaml:"id" toml:"id"`
	Root       string    `json:"root" yaml:"root" toml:"root"`
	StartedAt  time.Time `json:"startedAt" yaml:"started_at" toml:"started_at"`
	DurationMs int64     `json:"durationMs" yaml:"duration_ms" toml:"duration_ms"`
	FileCount  int       `json:"fileCount" yaml:"file_count" toml:"file_count"`
	EdgeCount  int       `json:"edgeCount" yaml:"edge_count" toml:"edge_count"`
}

// FileSnapshot is one file as recorded by a run.
type FileSnapshot struct {
	Path       string  `json:"path" yaml:"path" toml:"path"`
	Language   string  `json:"language,omitempty" yaml:"language,omitempty" toml:"language,omitempty"`
	Hash       string  `json:"hash" yaml:"hash" toml:"hash"`
	Importance float64 `json:"importance" yaml:"importance" toml:"importance"`
	Knowledge  float64 `json:"knowledge" yaml:"knowledge" toml:"knowledge"`
	Lines      int     `json:"lines" yaml:"lines" toml:"lines"`
}

// ChangeKind classifies a file difference between two runs.
type ChangeKind string

const (
	ChangeAdded    ChangeKind = "added"
	ChangeRemoved  ChangeKind = "removed"
	ChangeModified ChangeKind = "modified"
)

// Change is one file that differs between two runs.
type Change struct {
	Path    string     `json:"path" yaml:"path" toml:"path"`
	Kind    ChangeKind `json:"kind" yaml:"kind" toml:"kind"`
	OldHash string     `json:"oldHash,omitempty" yaml:"old_hash,omitempty" toml:"old_hash,omitempty"`
	NewHash string     `json:"newHash,omitempty" yaml:"new_hash,omitempty" toml:"new_hash,omitempty"`
}

// SaveRun stores an analysis with its report and returns the new run id.
func (db *DB) SaveRun(a *engine.Analysis, rep *report.Report) (string, error) {
	data, err := json.Marshal(rep)
	if err != nil {
		return "", fmt.Errorf("failed to encode report: %w", err)
	}
	blob := encoder.EncodeAll(data, nil)
	id := uuid.New().String()

	err = db.WithTx(func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			INSERT INTO runs (id, root, started_at, duration_ms, file_count, edge_count, report)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, id, a.Root, a.StartedAt.UnixMilli(), a.Timings.Total.Milliseconds(), len(a.Files), a.Graph.NumEdges(), blob)
		if err != nil {
			return fmt.Errorf("failed to insert run: %w", err)
		}

		fileStmt, err := tx.Prepare(`
			INSERT INTO run_files (run_id, path, language, hash, importance, knowledge, lines)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return err
		}
		defer func() { _ = fileStmt.Close() }()
		for _, f := range a.Scores.Files {
			rec, _ := a.File(f.Path)
			if _, err := fileStmt.Exec(id, f.Path, f.Language, rec.Hash, f.Importance, f.Knowledge, f.Lines); err != nil {
				return fmt.Errorf("failed to insert file %s: %w", f.Path, err)
			}
		}

		edgeStmt, err := tx.Prepare(`INSERT INTO run_edges (run_id, from_path, to_path) VALUES (?, ?, ?)`)
		if err != nil {
			return err
		}
		defer func() { _ = edgeStmt.Close() }()
		for _, e := range a.Graph.Edges() {
			if _, err := edgeStmt.Exec(id, e.From, e.To); err != nil {
				return fmt.Errorf("failed to insert edge: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	db.logger.Info("Saved analysis run", "id", id, "files", len(a.Files), "report_bytes", len(blob))
	return id, nil
}

// ListRuns returns the most recent runs first; limit <= 0 returns all.
func (db *DB) ListRuns(limit int) ([]RunSummary, error) {
	query := `
		SELECT id, root, started_at, duration_ms, file_count, edge_count
		FROM runs ORDER BY started_at DESC, rowid DESC
	`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var runs []RunSummary
	for rows.Next() {
		var r RunSummary
		var started int64
		if err := rows.Scan(&r.ID, &r.Root, &started, &r.DurationMs, &r.FileCount, &r.EdgeCount); err != nil {
			return nil, err
		}
		r.StartedAt = time.UnixMilli(started).UTC()
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// ResolveRunID expands "latest" or a unique id prefix to a full run id.
func (db *DB) ResolveRunID(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", errors.New(errors.RunNotFound, "empty run id", nil)
	}
	if ref == LatestRun {
		runs, err := db.ListRuns(1)
		if err != nil {
			return "", err
		}
		if len(runs) == 0 {
			return "", errors.New(errors.RunNotFound, "no runs saved yet", nil)
		}
		return runs[0].ID, nil
	}
	if !isRunIDPrefix(ref) {
		return "", errors.New(errors.RunNotFound, fmt.Sprintf("no run matches %q", ref), nil)
	}

	rows, err := db.conn.Query(`SELECT id FROM runs WHERE id LIKE ? || '%' LIMIT 2`, ref)
	if err != nil {
		return "", err
	}
	defer func() { _ = rows.Close() }()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return "", err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return "", err
	}
	switch len(ids) {
	case 0:
		return "", errors.New(errors.RunNotFound, fmt.Sprintf("no run matches %q", ref), nil)
	case 1:
		return ids[0], nil
	default:
		return "", errors.New(errors.RunNotFound, fmt.Sprintf("run id %q is ambiguous", ref), nil)
	}
}

// GetRun returns the summary of one run.
func (db *DB) GetRun(id string) (RunSummary, error) {
	var r RunSummary
	var started int64
	err := db.conn.QueryRow(`
		SELECT id, root, started_at, duration_ms, file_count, edge_count FROM runs WHERE id = ?
	`, id).Scan(&r.ID, &r.Root, &started, &r.DurationMs, &r.FileCount, &r.EdgeCount)
	if errors.Is(err, sql.ErrNoRows) {
		return r, errors.New(errors.RunNotFound, fmt.Sprintf("run %s not found", id), nil)
	}
	if err != nil {
		return r, err
	}
	r.StartedAt = time.UnixMilli(started).UTC()
	return r, nil
}

// LoadReport decompresses the report saved with a run.
func (db *DB) LoadReport(id string) (*report.Report, error) {
	var blob []byte
	err := db.conn.QueryRow(`SELECT report FROM runs WHERE id = ?`, id).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.New(errors.RunNotFound, fmt.Sprintf("run %s not found", id), nil)
	}
	if err != nil {
		return nil, err
	}
	data, err := decoder.DecodeAll(blob, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress report: %w", err)
	}
	var rep report.Report
	if err := json.Unmarshal(data, &rep); err != nil {
		return nil, fmt.Errorf("failed to decode report: %w", err)
	}
	return &rep, nil
}

// RunFiles returns the files recorded by a run, sorted by path.
func (db *DB) RunFiles(id string) ([]FileSnapshot, error) {
	if _, err := db.GetRun(id); err != nil {
		return nil, err
	}
	rows, err := db.conn.Query(`
		SELECT path, language, hash, importance, knowledge, lines
		FROM run_files WHERE run_id = ? ORDER BY path
	`, id)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var files []FileSnapshot
	for rows.Next() {
		var f FileSnapshot
		if err := rows.Scan(&f.Path, &f.Language, &f.Hash, &f.Importance, &f.Knowledge, &f.Lines); err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

// RunEdges returns the dependency edges recorded by a run.
func (db *DB) RunEdges(id string) ([]graph.Edge, error) {
	rows, err := db.conn.Query(`
		SELECT from_path, to_path FROM run_edges WHERE run_id = ? ORDER BY from_path, to_path
	`, id)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var edges []graph.Edge
	for rows.Next() {
		var e graph.Edge
		if err := rows.Scan(&e.From, &e.To); err != nil {
			return nil, err
		}
		edges = append(edges, e)
	}
	return edges, rows.Err()
}

// ChangedFiles compares two runs by content hash. The result is sorted by path.
func (db *DB) ChangedFiles(fromID, toID string) ([]Change, error) {
	before, err := db.RunFiles(fromID)
	if err != nil {
		return nil, err
	}
	after, err := db.RunFiles(toID)
	if err != nil {
		return nil, err
	}

	old := make(map[string]string, len(before))
	for _, f := range before {
		old[f.Path] = f.Hash
	}
	var changes []Change
	for _, f := range after {
		prev, ok := old[f.Path]
		switch {
		case !ok:
			changes = append(changes, Change{Path: f.Path, Kind: ChangeAdded, NewHash: f.Hash})
		case prev != f.Hash:
			changes = append(changes, Change{Path: f.Path, Kind: ChangeModified, OldHash: prev, NewHash: f.Hash})
		}
		delete(old, f.Path)
	}
	for p, h := range old {
		changes = append(changes, Change{Path: p, Kind: ChangeRemoved, OldHash: h})
	}
	sort.Slice(changes, func(i, j int) bool { return changes[i].Path < changes[j].Path })
	return changes, nil
}

// DeleteRun removes a run and its files and edges.
func (db *DB) DeleteRun(id string) error {
	return db.WithTx(func(tx *sql.Tx) error {
		for _, table := range []string{"run_files", "run_edges"} {
			if _, err := tx.Exec(`DELETE FROM `+table+` WHERE run_id = ?`, id); err != nil {
				return err
			}
		}
		res, err := tx.Exec(`DELETE FROM runs WHERE id = ?`, id)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return errors.New(errors.RunNotFound, fmt.Sprintf("run %s not found", id), nil)
		}
		return nil
	})
}

// isRunIDPrefix reports whether ref can start a run id: hex digits and dashes.
func isRunIDPrefix(ref string) bool {
	for _, r := range ref {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'f', r >= 'A' && r <= 'F', r == '-':
		default:
			return false
		}
	}
	return true
}
