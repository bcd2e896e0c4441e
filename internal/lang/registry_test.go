package lang

import (
	"testing"

	"overdoc/internal/config"
	"overdoc/internal/errors"
	"overdoc/internal/slogutil"
)

func TestNewRegistry_Defaults(t *testing.T) {
	reg, err := NewRegistry(config.DefaultLanguages(), slogutil.NewDiscardLogger())
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}

	tests := []struct {
		path string
		want string
	}{
		{"src/lib.rs", "rust"},
		{"src/LIB.RS", "rust"},
		{"web/app.tsx", "typescript"},
		{"web/app.mjs", "javascript"},
		{"tools/gen.py", "python"},
		{"cmd/main.go", "go"},
		{"App.java", "java"},
		{"Makefile", ""},
		{"notes.txt", ""},
	}
	for _, tt := range tests {
		got := ""
		if l := reg.ForPath(tt.path); l != nil {
			got = l.Name
		}
		if got != tt.want {
			t.Errorf("ForPath(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}

	if names := reg.Names(); len(names) != 6 || names[0] != "go" {
		t.Errorf("Names() = %v", names)
	}
	if py := reg.Get("python"); py == nil || py.Nesting != config.NestingIndent || py.BlockStart != `"""` {
		t.Errorf("python language not compiled as expected: %+v", py)
	}
}

func TestNewRegistry_InvalidPattern(t *testing.T) {
	langs := map[string]config.LanguageConfig{
		"broken": {Extensions: []string{"brk"}, ExportPatterns: []string{"(unclosed"}},
	}
	_, err := NewRegistry(langs, slogutil.NewDiscardLogger())
	if err == nil {
		t.Fatal("expected error for invalid pattern")
	}
	if errors.Code(err) != errors.PatternInvalid {
		t.Errorf("Code = %v, want %v", errors.Code(err), errors.PatternInvalid)
	}
	if !errors.IsFatal(err) {
		t.Error("invalid patterns must be fatal")
	}
}

func TestNewRegistry_ExtensionConflict(t *testing.T) {
	langs := map[string]config.LanguageConfig{
		"beta":  {Extensions: []string{"x"}},
		"alpha": {Extensions: []string{".X"}},
	}
	reg, err := NewRegistry(langs, slogutil.NewDiscardLogger())
	if err != nil {
		t.Fatal(err)
	}
	if l := reg.ForExt("x"); l == nil || l.Name != "alpha" {
		t.Errorf("ForExt(x) = %v, want alpha", l)
	}
}

func TestCompile(t *testing.T) {
	a, err := Compile(`^foo\d+`)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Compile(`^foo\d+`)
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Error("expected cached expression to be reused")
	}
	if !a.MatchString("bar\nfoo12") {
		t.Error("expected ^ to anchor at line starts")
	}
}
