package extract

import (
	"reflect"
	"testing"

	"overdoc/internal/config"
	"overdoc/internal/lang"
	"overdoc/internal/model"
	"overdoc/internal/slogutil"
)

func defaultExtractor(t *testing.T) *Extractor {
	t.Helper()
	reg, err := lang.NewRegistry(config.DefaultLanguages(), slogutil.NewDiscardLogger())
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	return New(reg)
}

type exportSummary struct {
	Name string
	Kind model.Kind
	Line int
}

func summarizeExports(ex []model.ExportedEntity) []exportSummary {
	out := make([]exportSummary, 0, len(ex))
	for _, e := range ex {
		out = append(out, exportSummary{e.Name, e.Kind, e.Line})
	}
	return out
}

type importSummary struct {
	Name   string
	Module string
}

func summarizeImports(refs []model.ImportReference) []importSummary {
	out := make([]importSummary, 0, len(refs))
	for _, r := range refs {
		out = append(out, importSummary{r.Name, r.Module})
	}
	return out
}

func TestExtract_Rust(t *testing.T) {
	t.Parallel()
	src := `use crate::parser::{parse, Token as Tok};
use std::collections::HashMap;

pub fn analyze(input: &str) -> usize {
    0
}

pub struct Report;
pub(crate) enum Mode { A }
fn private_helper() {}
pub const LIMIT: usize = 3;
`
	got := defaultExtractor(t).Extract("src/lib.rs", src)

	wantExports := []exportSummary{
		{"analyze", model.KindFunction, 4},
		{"Report", model.KindStruct, 8},
		{"Mode", model.KindEnum, 9},
		{"LIMIT", model.KindConstant, 11},
	}
	if g := summarizeExports(got.Exports); !reflect.DeepEqual(g, wantExports) {
		t.Errorf("exports = %+v, want %+v", g, wantExports)
	}

	wantImports := []importSummary{
		{"parse", "crate::parser"},
		{"Token", "crate::parser"},
		{"HashMap", "std::collections"},
	}
	if g := summarizeImports(got.Imports); !reflect.DeepEqual(g, wantImports) {
		t.Errorf("imports = %+v, want %+v", g, wantImports)
	}
	if got.Imports[0].Line != 1 || got.Imports[2].Line != 2 {
		t.Errorf("import lines = %d, %d", got.Imports[0].Line, got.Imports[2].Line)
	}

	wantDecls := map[model.Kind]int{
		model.KindFunction: 2,
		model.KindStruct:   1,
		model.KindEnum:     1,
		model.KindConstant: 1,
	}
	if !reflect.DeepEqual(got.Declarations, wantDecls) {
		t.Errorf("declarations = %v, want %v", got.Declarations, wantDecls)
	}
}

func TestExtract_TypeScript(t *testing.T) {
	t.Parallel()
	src := `import { parse, type Token } from './parser';
import Default from "../lib/default";
export function analyze(x: string): number { return 1; }
export const LIMIT = 3;
export interface Options {}
export type Mode = 'a' | 'b';
export default class Engine {}
`
	got := defaultExtractor(t).Extract("web/engine.ts", src)

	wantExports := []exportSummary{
		{"analyze", model.KindFunction, 3},
		{"Engine", model.KindClass, 7},
		{"LIMIT", model.KindConstant, 4},
		{"Options", model.KindInterface, 5},
		{"Mode", model.KindType, 6},
	}
	if g := summarizeExports(got.Exports); !reflect.DeepEqual(g, wantExports) {
		t.Errorf("exports = %+v, want %+v", g, wantExports)
	}

	wantImports := []importSummary{
		{"parse", "./parser"},
		{"Token", "./parser"},
		{"Default", "../lib/default"},
	}
	if g := summarizeImports(got.Imports); !reflect.DeepEqual(g, wantImports) {
		t.Errorf("imports = %+v, want %+v", g, wantImports)
	}
}

func TestExtract_Python(t *testing.T) {
	t.Parallel()
	src := `from .utils import helper, other as alias  # comment
from pkg.models import (
    User,
    Group,
)
import os.path

MAX_SIZE = 10

def public_fn():
    pass

def _private():
    pass

class Service:
    def method(self):
        pass
`
	got := defaultExtractor(t).Extract("app/service.py", src)

	wantExports := []exportSummary{
		{"public_fn", model.KindFunction, 10},
		{"Service", model.KindClass, 16},
		{"MAX_SIZE", model.KindConstant, 8},
	}
	if g := summarizeExports(got.Exports); !reflect.DeepEqual(g, wantExports) {
		t.Errorf("exports = %+v, want %+v", g, wantExports)
	}

	wantImports := []importSummary{
		{"User", "pkg.models"},
		{"Group", "pkg.models"},
		{"helper", ".utils"},
		{"other", ".utils"},
		{"path", "os"},
	}
	if g := summarizeImports(got.Imports); !reflect.DeepEqual(g, wantImports) {
		t.Errorf("imports = %+v, want %+v", g, wantImports)
	}

	if got.Declarations[model.KindFunction] != 3 || got.Declarations[model.KindClass] != 1 {
		t.Errorf("declarations = %v", got.Declarations)
	}
}

func TestExtract_Go(t *testing.T) {
	t.Parallel()
	src := `package demo

import "overdoc/internal/paths"

// Walker walks.
type Walker struct{}

type Option func(*Walker)

func New() *Walker { return &Walker{} }

func (w *Walker) Run(ctx context.Context) error {
	_ = paths.Parent("a")
	return nil
}

func helper() {}

const Limit = 3
`
	got := defaultExtractor(t).Extract("demo/walker.go", src)

	wantExports := []exportSummary{
		{"New", model.KindFunction, 10},
		{"Run", model.KindMethod, 12},
		{"Walker", model.KindStruct, 6},
		{"Option", model.KindType, 8},
		{"Limit", model.KindConstant, 19},
	}
	if g := summarizeExports(got.Exports); !reflect.DeepEqual(g, wantExports) {
		t.Errorf("exports = %+v, want %+v", g, wantExports)
	}

	wantImports := []importSummary{
		{"Context", "context"},
		{"Parent", "paths"},
	}
	if g := summarizeImports(got.Imports); !reflect.DeepEqual(g, wantImports) {
		t.Errorf("imports = %+v, want %+v", g, wantImports)
	}
	if got.Declarations[model.KindFunction] != 2 || got.Declarations[model.KindMethod] != 1 {
		t.Errorf("declarations = %v", got.Declarations)
	}
}

func TestExtract_Java(t *testing.T) {
	t.Parallel()
	src := `package com.acme;

import com.acme.util.Parser;
import static com.acme.util.Strings.trim;
import java.util.*;

public final class Engine {
    public static void main(String[] args) {
    }
    private int helper() { return 1; }
}
`
	got := defaultExtractor(t).Extract("src/Engine.java", src)

	names := make([]string, 0, len(got.Exports))
	for _, e := range got.Exports {
		names = append(names, e.Name)
	}
	if !reflect.DeepEqual(names, []string{"Engine", "main"}) {
		t.Errorf("exports = %v", names)
	}

	wantImports := []importSummary{
		{"Parser", "com.acme.util"},
		{"trim", "com.acme.util.Strings"},
	}
	if g := summarizeImports(got.Imports); !reflect.DeepEqual(g, wantImports) {
		t.Errorf("imports = %+v, want %+v", g, wantImports)
	}
}

func TestExtract_CustomLanguage(t *testing.T) {
	t.Parallel()
	langs := map[string]config.LanguageConfig{
		"toy": {
			Extensions:     []string{"toy"},
			ExportPatterns: []string{`^export fn (?P<function>\w+)`, `^export class (?P<class>\w+)`, `^def (\w+)`},
			ImportPatterns: []string{`^use (?P<name>[\w, ]+)`},
		},
	}
	reg, err := lang.NewRegistry(langs, slogutil.NewDiscardLogger())
	if err != nil {
		t.Fatal(err)
	}
	src := "export fn foo\nexport class Bar\nuse foo, baz\nexport fn foo\ndef qux\n"
	got := New(reg).Extract("a.toy", src)

	wantExports := []exportSummary{
		{"foo", model.KindFunction, 1},
		{"foo", model.KindFunction, 4},
		{"Bar", model.KindClass, 2},
		{"qux", model.KindFunction, 5},
	}
	if g := summarizeExports(got.Exports); !reflect.DeepEqual(g, wantExports) {
		t.Errorf("exports = %+v, want %+v", g, wantExports)
	}
	wantImports := []importSummary{{"foo", ""}, {"baz", ""}}
	if g := summarizeImports(got.Imports); !reflect.DeepEqual(g, wantImports) {
		t.Errorf("imports = %+v, want %+v", g, wantImports)
	}
	wantDecls := map[model.Kind]int{model.KindFunction: 3, model.KindClass: 1}
	if !reflect.DeepEqual(got.Declarations, wantDecls) {
		t.Errorf("declarations = %v, want %v", got.Declarations, wantDecls)
	}
}

func TestExtract_NoLanguage(t *testing.T) {
	t.Parallel()
	got := defaultExtractor(t).Extract("README", "export fn foo")
	if len(got.Exports) != 0 || len(got.Imports) != 0 {
		t.Errorf("expected empty extraction, got %+v", got)
	}
	if got.File != "README" {
		t.Errorf("File = %q", got.File)
	}
}

func TestCleanImportName(t *testing.T) {
	tests := []struct {
		raw        string
		name       string
		prefix     string
		sep        string
	}{
		{"Token as Tok", "Token", "", ""},
		{" type Foo ", "Foo", "", ""},
		{"b::{c", "c", "b", "::"},
		{"os.path", "path", "os", "."},
		{"helper)", "helper", "", ""},
		{"*", "", "", ""},
		{"self", "", "", ""},
		{"  # only a comment", "", "", ""},
		{"42", "", "", ""},
	}
	for _, tt := range tests {
		name, prefix, sep := CleanImportName(tt.raw)
		if name != tt.name || prefix != tt.prefix || sep != tt.sep {
			t.Errorf("CleanImportName(%q) = (%q, %q, %q), want (%q, %q, %q)",
				tt.raw, name, prefix, sep, tt.name, tt.prefix, tt.sep)
		}
	}
}

func TestInferKind(t *testing.T) {
	tests := []struct {
		context string
		want    model.Kind
	}{
		{"pub fn ", model.KindFunction},
		{"type  struct", model.KindStruct},
		{"export default class ", model.KindClass},
		{"const ", model.KindConstant},
		{"var ", model.KindVariable},
		{"type ", model.KindType},
		{"pub mod ", model.KindModule},
		{"", model.KindUnknown},
	}
	for _, tt := range tests {
		if got := InferKind(tt.context); got != tt.want {
			t.Errorf("InferKind(%q) = %q, want %q", tt.context, got, tt.want)
		}
	}
}
