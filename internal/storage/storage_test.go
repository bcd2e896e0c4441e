package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"overdoc/internal/config"
	"overdoc/internal/engine"
	"overdoc/internal/errors"
	"overdoc/internal/report"
	"overdoc/internal/testutil"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "state", "overdoc.db"), nil)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func analyze(t *testing.T, root string) (*engine.Analysis, *report.Report) {
	t.Helper()
	a, err := engine.Run(context.Background(), engine.Options{Root: root, Config: config.DefaultConfig()})
	if err != nil {
		t.Fatalf("engine.Run failed: %v", err)
	}
	return a, report.Build(a, 5)
}

func save(t *testing.T, db *DB, root string) string {
	t.Helper()
	a, rep := analyze(t, root)
	id, err := db.SaveRun(a, rep)
	if err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}
	return id
}

var sampleRepo = map[string]string{
	"src/a.ts": "export function alpha() {\n  return 1;\n}\n",
	"src/b.ts": "import { alpha } from './a';\n\nexport const beta = alpha();\n",
}

func TestOpen_CreatesSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "overdoc.db")
	db, err := Open(path, nil)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("database file not created: %v", err)
	}
	version, err := db.getSchemaVersion()
	if err != nil {
		t.Fatalf("getSchemaVersion failed: %v", err)
	}
	if version != currentSchemaVersion {
		t.Errorf("schema version = %d, want %d", version, currentSchemaVersion)
	}
	if db.Path() != path {
		t.Errorf("Path() = %q, want %q", db.Path(), path)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	// Reopening an existing database goes through migrations.
	db, err = Open(path, nil)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer func() { _ = db.Close() }()
	if version, _ := db.getSchemaVersion(); version != currentSchemaVersion {
		t.Errorf("schema version after reopen = %d", version)
	}
}

func TestSaveRun_RoundTrip(t *testing.T) {
	db := setupTestDB(t)
	root := testutil.NewRepo(t, sampleRepo)
	a, rep := analyze(t, root)

	id, err := db.SaveRun(a, rep)
	if err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}
	if len(id) != 36 {
		t.Errorf("run id %q is not a uuid", id)
	}

	runs, err := db.ListRuns(0)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(runs) != 1 || runs[0].ID != id {
		t.Fatalf("ListRuns = %+v", runs)
	}
	got := runs[0]
	if got.Root != a.Root || got.FileCount != 2 || got.EdgeCount != 1 {
		t.Errorf("summary = %+v", got)
	}
	if !got.StartedAt.Equal(a.StartedAt.Truncate(time.Millisecond)) {
		t.Errorf("StartedAt = %v, want %v", got.StartedAt, a.StartedAt)
	}

	single, err := db.GetRun(id)
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if single != got {
		t.Errorf("GetRun = %+v, want %+v", single, got)
	}

	loaded, err := db.LoadReport(id)
	if err != nil {
		t.Fatalf("LoadReport failed: %v", err)
	}
	if loaded.Summary.FilesAnalyzed != rep.Summary.FilesAnalyzed || loaded.Root != rep.Root {
		t.Errorf("loaded report summary = %+v, want %+v", loaded.Summary, rep.Summary)
	}
	if len(loaded.TopImportance) == 0 || loaded.TopImportance[0].Path != "src/a.ts" {
		t.Errorf("loaded top importance = %+v", loaded.TopImportance)
	}

	files, err := db.RunFiles(id)
	if err != nil {
		t.Fatalf("RunFiles failed: %v", err)
	}
	if len(files) != 2 || files[0].Path != "src/a.ts" || files[1].Path != "src/b.ts" {
		t.Fatalf("RunFiles = %+v", files)
	}
	if files[0].Hash == "" || files[0].Language != "typescript" || files[0].Importance != 2 {
		t.Errorf("src/a.ts snapshot = %+v", files[0])
	}

	edges, err := db.RunEdges(id)
	if err != nil {
		t.Fatalf("RunEdges failed: %v", err)
	}
	if len(edges) != 1 || edges[0].From != "src/b.ts" || edges[0].To != "src/a.ts" {
		t.Errorf("RunEdges = %+v", edges)
	}
}

func TestListRuns_NewestFirst(t *testing.T) {
	db := setupTestDB(t)
	root := testutil.NewRepo(t, sampleRepo)

	first := save(t, db, root)
	second := save(t, db, root)

	runs, err := db.ListRuns(0)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(runs) != 2 || runs[0].ID != second || runs[1].ID != first {
		t.Fatalf("ListRuns order = %+v, want %s then %s", runs, second, first)
	}

	limited, err := db.ListRuns(1)
	if err != nil {
		t.Fatalf("ListRuns(1) failed: %v", err)
	}
	if len(limited) != 1 || limited[0].ID != second {
		t.Errorf("ListRuns(1) = %+v", limited)
	}
}

func TestResolveRunID(t *testing.T) {
	db := setupTestDB(t)

	if _, err := db.ResolveRunID(LatestRun); errors.Code(err) != errors.RunNotFound {
		t.Errorf("latest on empty store: got %v, want RUN_NOT_FOUND", err)
	}

	root := testutil.NewRepo(t, sampleRepo)
	id := save(t, db, root)

	tests := []struct {
		name    string
		ref     string
		want    string
		wantErr bool
	}{
		{"latest", LatestRun, id, false},
		{"full id", id, id, false},
		{"prefix", id[:8], id, false},
		{"padded", "  " + id[:8] + " ", id, false},
		{"unknown", "zzzzzzzz", "", true},
		{"empty", "", "", true},
		{"percent is literal", "%", "", true},
		{"underscore is literal", "_" + id[1:8], "", true},
		{"prefix then percent", id[:4] + "%", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := db.ResolveRunID(tt.ref)
			if tt.wantErr {
				if errors.Code(err) != errors.RunNotFound {
					t.Errorf("ResolveRunID(%q) error = %v, want RUN_NOT_FOUND", tt.ref, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ResolveRunID(%q) failed: %v", tt.ref, err)
			}
			if got != tt.want {
				t.Errorf("ResolveRunID(%q) = %q, want %q", tt.ref, got, tt.want)
			}
		})
	}
}

func TestChangedFiles(t *testing.T) {
	db := setupTestDB(t)
	root := testutil.NewRepo(t, map[string]string{
		"keep.ts":   "export const keep = 1;\n",
		"edit.ts":   "export const edit = 1;\n",
		"remove.ts": "export const gone = 1;\n",
	})
	before := save(t, db, root)

	testutil.WriteFiles(t, root, map[string]string{
		"edit.ts":  "export const edit = 2;\nexport const more = 3;\n",
		"added.ts": "export const fresh = 1;\n",
	})
	if err := os.Remove(filepath.Join(root, "remove.ts")); err != nil {
		t.Fatal(err)
	}
	after := save(t, db, root)

	changes, err := db.ChangedFiles(before, after)
	if err != nil {
		t.Fatalf("ChangedFiles failed: %v", err)
	}
	want := []struct {
		path string
		kind ChangeKind
	}{
		{"added.ts", ChangeAdded},
		{"edit.ts", ChangeModified},
		{"remove.ts", ChangeRemoved},
	}
	if len(changes) != len(want) {
		t.Fatalf("ChangedFiles = %+v, want %d changes", changes, len(want))
	}
	for i, w := range want {
		c := changes[i]
		if c.Path != w.path || c.Kind != w.kind {
			t.Errorf("change %d = %s %s, want %s %s", i, c.Kind, c.Path, w.kind, w.path)
		}
	}
	if changes[1].OldHash == "" || changes[1].NewHash == "" || changes[1].OldHash == changes[1].NewHash {
		t.Errorf("modified change hashes = %q -> %q", changes[1].OldHash, changes[1].NewHash)
	}

	same, err := db.ChangedFiles(after, after)
	if err != nil {
		t.Fatalf("ChangedFiles(after, after) failed: %v", err)
	}
	if len(same) != 0 {
		t.Errorf("comparing a run with itself yielded %+v", same)
	}

	if _, err := db.ChangedFiles(before, "missing"); errors.Code(err) != errors.RunNotFound {
		t.Errorf("ChangedFiles with unknown run: got %v, want RUN_NOT_FOUND", err)
	}
}

func TestDeleteRun(t *testing.T) {
	db := setupTestDB(t)
	root := testutil.NewRepo(t, sampleRepo)
	id := save(t, db, root)

	if err := db.DeleteRun(id); err != nil {
		t.Fatalf("DeleteRun failed: %v", err)
	}
	if _, err := db.GetRun(id); errors.Code(err) != errors.RunNotFound {
		t.Errorf("GetRun after delete: got %v", err)
	}
	if _, err := db.LoadReport(id); errors.Code(err) != errors.RunNotFound {
		t.Errorf("LoadReport after delete: got %v", err)
	}
	edges, err := db.RunEdges(id)
	if err != nil || len(edges) != 0 {
		t.Errorf("RunEdges after delete = %v, %v", edges, err)
	}
	err = db.DeleteRun(id)
	if errors.Code(err) != errors.RunNotFound {
		t.Errorf("second DeleteRun: got %v, want RUN_NOT_FOUND", err)
	}
	if err != nil && !strings.Contains(err.Error(), id) {
		t.Errorf("error %q does not name the run", err)
	}
}
