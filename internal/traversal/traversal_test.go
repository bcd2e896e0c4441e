package traversal

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"strings"
	"testing"

	"overdoc/internal/errors"
	"overdoc/internal/slogutil"
	"overdoc/internal/testutil"
)

func filePaths(res *Result) []string {
	out := make([]string, 0, len(res.Files))
	for _, f := range res.Files {
		out = append(out, f.Path)
	}
	return out
}

func TestWalk_PrunesIgnoredDirectories(t *testing.T) {
	t.Parallel()
	root := testutil.NewRepo(t, map[string]string{
		"src/a.rs":            "pub fn a() {}",
		"src/b.rs":            "pub fn b() {}",
		"node_modules/x/y.js": "export function y() {}",
		"target/out.rs":       "fn main() {}",
		".hidden/z.rs":        "pub fn z() {}",
		"src/.env":            "SECRET=1",
		"docs/readme.md":      "# docs",
		"vendor/gen/v.rs":     "pub fn v() {}",
	})

	res, err := Walk(context.Background(), root, Options{IgnoreDirectories: []string{"vendor"}, Workers: 2}, slogutil.NewDiscardLogger())
	if err != nil {
		t.Fatalf("Walk() error = %v", err)
	}

	want := []string{"docs/readme.md", "src/a.rs", "src/b.rs"}
	if got := filePaths(res); !reflect.DeepEqual(got, want) {
		t.Errorf("files = %v, want %v", got, want)
	}
	wantDirs := []string{".", "docs", "src"}
	if !reflect.DeepEqual(res.Dirs, wantDirs) {
		t.Errorf("dirs = %v, want %v", res.Dirs, wantDirs)
	}
	if res.Files[1].Ext != "rs" || res.Files[1].Size != int64(len("pub fn a() {}")) {
		t.Errorf("unexpected record: %+v", res.Files[1])
	}
}

func TestWalk_RelativePathPattern(t *testing.T) {
	t.Parallel()
	root := testutil.NewRepo(t, map[string]string{
		"src/generated/a.ts": "export const A = 1;",
		"lib/generated/b.ts": "export const B = 1;",
		"src/keep.ts":        "export const C = 1;",
	})

	res, err := Walk(context.Background(), root, Options{IgnoreDirectories: []string{"src/gen*"}}, slogutil.NewDiscardLogger())
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"lib/generated/b.ts", "src/keep.ts"}
	if got := filePaths(res); !reflect.DeepEqual(got, want) {
		t.Errorf("files = %v, want %v", got, want)
	}
}

func TestWalk_SkipsSymlinks(t *testing.T) {
	t.Parallel()
	root := testutil.NewRepo(t, map[string]string{
		"real/a.py": "def a(): pass",
	})
	if err := os.Symlink(filepath.Join(root, "real"), filepath.Join(root, "loop")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}
	if err := os.Symlink(filepath.Join(root, "real", "a.py"), filepath.Join(root, "alias.py")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	res, err := Walk(context.Background(), root, Options{}, slogutil.NewDiscardLogger())
	if err != nil {
		t.Fatal(err)
	}
	if got := filePaths(res); !reflect.DeepEqual(got, []string{"real/a.py"}) {
		t.Errorf("files = %v, want [real/a.py]", got)
	}
}

func TestWalk_RootErrors(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	_, err := Walk(context.Background(), filepath.Join(dir, "missing"), Options{}, nil)
	if errors.Code(err) != errors.RootNotFound {
		t.Errorf("missing root: code = %v, want %v", errors.Code(err), errors.RootNotFound)
	}

	file := filepath.Join(dir, "file.txt")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err = Walk(context.Background(), file, Options{}, nil)
	if errors.Code(err) != errors.RootNotDirectory {
		t.Errorf("file root: code = %v, want %v", errors.Code(err), errors.RootNotDirectory)
	}
	if !errors.IsFatal(err) {
		t.Error("root errors must be fatal")
	}
}

func TestWalk_InvalidPattern(t *testing.T) {
	t.Parallel()
	_, err := Walk(context.Background(), t.TempDir(), Options{IgnoreDirectories: []string{"["}}, nil)
	if errors.Code(err) != errors.ConfigInvalid {
		t.Errorf("code = %v, want %v", errors.Code(err), errors.ConfigInvalid)
	}
}

func TestWalk_Gitignore(t *testing.T) {
	t.Parallel()
	root := testutil.NewRepo(t, map[string]string{
		".gitignore":  "*.log\nvendor/\n",
		"app.log":     "log",
		"vendor/x.rs": "pub fn x() {}",
		"main.rs":     "fn main() {}",
	})

	res, err := Walk(context.Background(), root, Options{RespectGitignore: true}, slogutil.NewDiscardLogger())
	if err != nil {
		t.Fatal(err)
	}
	if got := filePaths(res); !reflect.DeepEqual(got, []string{"main.rs"}) {
		t.Errorf("with gitignore: files = %v, want [main.rs]", got)
	}

	res, err = Walk(context.Background(), root, Options{}, slogutil.NewDiscardLogger())
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"app.log", "main.rs", "vendor/x.rs"}
	if got := filePaths(res); !reflect.DeepEqual(got, want) {
		t.Errorf("without gitignore: files = %v, want %v", got, want)
	}
}

func TestWalk_ConcurrentIsDeterministic(t *testing.T) {
	t.Parallel()
	files := make(map[string]string)
	var want []string
	for i := 0; i < 12; i++ {
		for j := 0; j < 5; j++ {
			p := fmt.Sprintf("d%02d/s%d/f.go", i, j)
			files[p] = "package x"
			want = append(want, p)
		}
	}
	root := testutil.NewRepo(t, files)

	for _, workers := range []int{1, 4, runtime.GOMAXPROCS(0) * 2} {
		res, err := Walk(context.Background(), root, Options{Workers: workers}, slogutil.NewDiscardLogger())
		if err != nil {
			t.Fatal(err)
		}
		if got := filePaths(res); !reflect.DeepEqual(got, want) {
			t.Errorf("workers=%d: got %d files, want %d", workers, len(got), len(want))
		}
		if len(res.Dirs) != 1+12+60 {
			t.Errorf("workers=%d: dirs = %d, want 73", workers, len(res.Dirs))
		}
	}
}

func TestWalk_Detect(t *testing.T) {
	t.Parallel()
	root := testutil.NewRepo(t, map[string]string{"a.rs": "", "b.txt": ""})

	detect := func(rel string) string {
		if strings.HasSuffix(rel, ".rs") {
			return "rust"
		}
		return ""
	}
	res, err := Walk(context.Background(), root, Options{Detect: detect}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.Files[0].Language != "rust" || res.Files[1].Language != "" {
		t.Errorf("languages = %q, %q", res.Files[0].Language, res.Files[1].Language)
	}
}

func TestWalk_UnreadableDirectoryWarns(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced here")
	}
	root := testutil.NewRepo(t, map[string]string{
		"open/a.go":   "package a",
		"locked/b.go": "package b",
	})
	locked := filepath.Join(root, "locked")
	if err := os.Chmod(locked, 0o000); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })

	res, err := Walk(context.Background(), root, Options{}, slogutil.NewDiscardLogger())
	if err != nil {
		t.Fatalf("unreadable directory must not abort the walk: %v", err)
	}
	if got := filePaths(res); !reflect.DeepEqual(got, []string{"open/a.go"}) {
		t.Errorf("files = %v", got)
	}
	if len(res.Warnings) != 1 || res.Warnings[0].Code != string(errors.DirUnreadable) {
		t.Errorf("warnings = %+v", res.Warnings)
	}
}

func TestWalk_CancelledContext(t *testing.T) {
	t.Parallel()
	root := testutil.NewRepo(t, map[string]string{"a/b.go": "package a"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Walk(ctx, root, Options{}, nil); err == nil {
		t.Error("expected error for cancelled context")
	}
}
