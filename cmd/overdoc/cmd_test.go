package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"overdoc/internal/config"
	"overdoc/internal/errors"
	"overdoc/internal/report"
	"overdoc/internal/testutil"
)

var sampleRepo = map[string]string{
	"src/a.ts": "export function alpha() {\n  return 1;\n}\n",
	"src/b.ts": "import { alpha } from './a';\n\nexport const beta = alpha();\n",
	"src/c.ts": "import { beta } from './b';\n\nconsole.log(beta);\n",
}

// execute runs the CLI with args and returns stdout and stderr.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func mustExecute(t *testing.T, args ...string) string {
	t.Helper()
	out, stderr, err := execute(t, args...)
	if err != nil {
		t.Fatalf("overdoc %s failed: %v\nstderr: %s", strings.Join(args, " "), err, stderr)
	}
	return out
}

func TestAnalyze_JSON(t *testing.T) {
	root := testutil.NewRepo(t, sampleRepo)
	out := mustExecute(t, "analyze", root, "--format", "json", "--quiet")

	var rep report.Report
	if err := json.Unmarshal([]byte(out), &rep); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if rep.Summary.FilesAnalyzed != 3 || rep.Summary.Edges != 2 {
		t.Errorf("summary = %+v", rep.Summary)
	}
	if len(rep.TopImportance) == 0 {
		t.Fatal("no top importance entries")
	}
	if top := rep.TopImportance[0].Path; top != "src/a.ts" && top != "src/b.ts" {
		t.Errorf("top file = %s", top)
	}
}

func TestAnalyze_HumanAndTop(t *testing.T) {
	root := testutil.NewRepo(t, sampleRepo)
	out := mustExecute(t, "analyze", root, "--top", "1", "--workers", "2", "-q")

	for _, want := range []string{"Summary", "Most important files", "src/"} {
		if !strings.Contains(out, want) {
			t.Errorf("human output missing %q:\n%s", want, out)
		}
	}
}

func TestAnalyze_Errors(t *testing.T) {
	root := testutil.NewRepo(t, sampleRepo)

	if _, _, err := execute(t, "analyze", root, "--format", "xml", "-q"); err == nil || !strings.Contains(err.Error(), "unsupported format") {
		t.Errorf("bad format: got %v", err)
	}

	_, _, err := execute(t, "analyze", filepath.Join(root, "missing"), "-q")
	if errors.Code(err) != errors.RootNotFound {
		t.Errorf("missing root: got %v, want ROOT_NOT_FOUND", err)
	}
	if exitCode(err) != 2 {
		t.Errorf("exitCode = %d, want 2", exitCode(err))
	}

	if _, _, err := execute(t, "analyze", root, "--config", filepath.Join(root, "nope.yaml"), "-q"); errors.Code(err) != errors.ConfigInvalid {
		t.Errorf("missing explicit config: got %v, want CONFIG_INVALID", err)
	}
}

func TestAnalyze_LogsToStderr(t *testing.T) {
	root := testutil.NewRepo(t, sampleRepo)
	logPath := filepath.Join(t.TempDir(), "overdoc.log")
	out, stderr, err := execute(t, "analyze", root, "--format", "json", "-vv", "--log-file", logPath)
	if err != nil {
		t.Fatalf("analyze failed: %v", err)
	}
	if !json.Valid([]byte(out)) {
		t.Errorf("stdout is not pure JSON:\n%s", out)
	}
	if !strings.Contains(stderr, "[debug]") && !strings.Contains(stderr, "[info]") {
		t.Errorf("expected log lines on stderr, got:\n%s", stderr)
	}
	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("log file not written: %v", err)
	}
	if len(data) == 0 {
		t.Error("log file is empty")
	}
}

func TestDeps(t *testing.T) {
	root := testutil.NewRepo(t, sampleRepo)

	out := mustExecute(t, "deps", "src/b.ts", root, "-q")
	for _, want := range []string{"src/b.ts", "beta", "Depends on (1)", "src/a.ts", "Dependents (1)", "src/c.ts"} {
		if !strings.Contains(out, want) {
			t.Errorf("deps output missing %q:\n%s", want, out)
		}
	}

	out = mustExecute(t, "deps", "src/c.ts", root, "--format", "json", "-q")
	var resp DepsResponseCLI
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("deps JSON: %v", err)
	}
	if len(resp.DependsOn) != 1 || resp.DependsOn[0] != "src/b.ts" || len(resp.Dependents) != 0 {
		t.Errorf("deps of src/c.ts = %+v", resp)
	}
	if len(resp.Related) != 2 || resp.Related[0].File != "src/b.ts" {
		t.Errorf("related = %+v, want src/b.ts then src/a.ts", resp.Related)
	}

	if _, _, err := execute(t, "deps", "src/missing.ts", root, "-q"); err == nil {
		t.Error("expected error for a file that was not analyzed")
	}
}

func TestLanguages(t *testing.T) {
	root := testutil.NewRepo(t, map[string]string{
		".overdoc/languages/demo.toml": "name = \"demo\"\nextensions = [\"dm\"]\nexport_patterns = ['^export\\s+(?P<function>\\w+)']\n",
	})
	out := mustExecute(t, "languages", root, "--format", "json", "-q")

	var resp LanguagesResponseCLI
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("languages JSON: %v", err)
	}
	byName := make(map[string]LanguageCLI)
	for _, l := range resp.Languages {
		byName[l.Name] = l
	}
	for _, name := range []string{"rust", "typescript", "python", "demo"} {
		if _, ok := byName[name]; !ok {
			t.Errorf("language %s missing from %v", name, resp.Languages)
		}
	}
	if !byName["demo"].Pack || byName["rust"].Pack {
		t.Errorf("pack flags wrong: demo=%v rust=%v", byName["demo"].Pack, byName["rust"].Pack)
	}

	human := mustExecute(t, "languages", root, "-q")
	if !strings.Contains(human, "demo [pack]") {
		t.Errorf("human output missing pack marker:\n%s", human)
	}
}

func TestInit(t *testing.T) {
	root := t.TempDir()
	out := mustExecute(t, "init", root)
	if !strings.Contains(out, "initialized successfully") {
		t.Errorf("unexpected output: %s", out)
	}

	cfg, err := config.LoadConfig(root, "")
	if err != nil {
		t.Fatalf("written config does not load: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("written config is invalid: %v", err)
	}

	out = mustExecute(t, "init", root)
	if !strings.Contains(out, "already initialized") {
		t.Errorf("second init should be a no-op, got: %s", out)
	}
	mustExecute(t, "init", root, "--force")
}

func TestSnapshotCommands(t *testing.T) {
	root := testutil.NewRepo(t, sampleRepo)

	out, stderr, err := execute(t, "analyze", root, "--save", "--format", "json")
	if err != nil {
		t.Fatalf("analyze --save failed: %v", err)
	}
	if !strings.Contains(stderr, "Saved run ") {
		t.Errorf("stderr missing saved run id:\n%s", stderr)
	}
	if !json.Valid([]byte(out)) {
		t.Error("stdout is not JSON")
	}

	testutil.WriteFiles(t, root, map[string]string{
		"src/d.ts": "export const delta = 4;\n",
	})
	mustExecute(t, "analyze", root, "--save", "-q")

	var history HistoryResponseCLI
	out = mustExecute(t, "history", "--repo", root, "--format", "json", "-q")
	if err := json.Unmarshal([]byte(out), &history); err != nil {
		t.Fatalf("history JSON: %v", err)
	}
	if len(history.Runs) != 2 {
		t.Fatalf("history = %+v, want 2 runs", history.Runs)
	}
	newest, oldest := history.Runs[0], history.Runs[1]
	if newest.FileCount != 4 || oldest.FileCount != 3 {
		t.Errorf("file counts = %d, %d", newest.FileCount, oldest.FileCount)
	}

	out = mustExecute(t, "show", "latest", "--repo", root, "--format", "json", "-q")
	var rep report.Report
	if err := json.Unmarshal([]byte(out), &rep); err != nil {
		t.Fatalf("show JSON: %v", err)
	}
	if rep.Summary.FilesAnalyzed != 4 {
		t.Errorf("latest report analyzed %d files, want 4", rep.Summary.FilesAnalyzed)
	}

	out = mustExecute(t, "changed", oldest.ID[:8], "latest", "--repo", root, "-q")
	if !strings.Contains(out, "+ src/d.ts") || !strings.Contains(out, "1 added, 0 removed, 0 modified") {
		t.Errorf("changed output:\n%s", out)
	}

	if _, _, err := execute(t, "show", "ffffffff", "--repo", root, "-q"); errors.Code(err) != errors.RunNotFound {
		t.Errorf("unknown run: got %v, want RUN_NOT_FOUND", err)
	}

	out = mustExecute(t, "history", "--repo", t.TempDir(), "-q")
	if !strings.Contains(out, "No saved runs") {
		t.Errorf("empty history output: %s", out)
	}
}

func TestVersion(t *testing.T) {
	out := mustExecute(t, "--version")
	if !strings.HasPrefix(out, "overdoc version ") {
		t.Errorf("version output = %q", out)
	}
}
