// Package extract finds exported entities and import references in source
// text by running a language's patterns over the whole file.
package extract

import (
	"regexp"
	"sort"
	"strings"

	"overdoc/internal/lang"
	"overdoc/internal/model"
)

const maxStatementLen = 200

// Extractor applies language patterns to file text. It holds no per-file
// state and is safe for concurrent use.
type Extractor struct {
	registry *lang.Registry
}

// New creates an Extractor over registry.
func New(registry *lang.Registry) *Extractor {
	return &Extractor{registry: registry}
}

// Extract runs every export and import pattern of the file's language over
// text. Each match yields one entity or reference; duplicates are kept.
// Files without a language yield an empty extraction.
func (e *Extractor) Extract(path, text string) model.Extraction {
	out := model.Extraction{File: path}
	l := e.registry.ForPath(path)
	if l == nil {
		return out
	}
	lines := newLineIndex(text)

	for _, re := range l.Exports {
		for _, m := range re.FindAllStringSubmatchIndex(text, -1) {
			name, kind, at, ok := entityFromMatch(re, text, m)
			if !ok {
				continue
			}
			out.Exports = append(out.Exports, model.ExportedEntity{
				File: path,
				Name: name,
				Kind: kind,
				Line: lines.line(at),
			})
		}
	}

	for _, re := range l.Imports {
		for _, m := range re.FindAllStringSubmatchIndex(text, -1) {
			out.Imports = append(out.Imports, referencesFromMatch(path, re, text, m, lines)...)
		}
	}

	out.Declarations = make(map[model.Kind]int)
	if len(l.Declarations) > 0 {
		for _, re := range l.Declarations {
			for _, m := range re.FindAllStringSubmatchIndex(text, -1) {
				if _, kind, _, ok := entityFromMatch(re, text, m); ok {
					out.Declarations[kind]++
				}
			}
		}
	} else {
		for _, ex := range out.Exports {
			out.Declarations[ex.Kind]++
		}
	}
	return out
}

// entityFromMatch picks the entity name and kind out of one match. A group
// named after a kind wins; a group called "name" or, failing that, the last
// matched group supplies the name and the kind is read off the match text.
func entityFromMatch(re *regexp.Regexp, text string, m []int) (string, model.Kind, int, bool) {
	names := re.SubexpNames()
	nameGroup, kindGroup := -1, -1
	for i := 1; i < len(names); i++ {
		if m[2*i] < 0 || m[2*i] == m[2*i+1] {
			continue
		}
		switch names[i] {
		case "":
		case "name":
			nameGroup = i
		default:
			kindGroup = i
		}
	}

	var kind model.Kind
	group := -1
	switch {
	case kindGroup > 0:
		group, kind = kindGroup, model.Kind(names[kindGroup])
	case nameGroup > 0:
		group = nameGroup
	default:
		for i := len(names) - 1; i >= 1; i-- {
			if m[2*i] >= 0 && m[2*i] < m[2*i+1] {
				group = i
				break
			}
		}
	}
	if group < 0 {
		return "", "", 0, false
	}

	start, end := m[2*group], m[2*group+1]
	name := strings.TrimSpace(text[start:end])
	if name == "" {
		return "", "", 0, false
	}
	if kind == "" {
		kind = InferKind(text[m[0]:start] + " " + text[end:m[1]])
	}
	return name, kind, start, true
}

func referencesFromMatch(path string, re *regexp.Regexp, text string, m []int, lines lineIndex) []model.ImportReference {
	nameGroup := re.SubexpIndex("name")
	moduleGroup := re.SubexpIndex("module")
	if nameGroup < 0 {
		for i := 1; i <= re.NumSubexp(); i++ {
			if i != moduleGroup {
				nameGroup = i
				break
			}
		}
	}
	if nameGroup < 0 || m[2*nameGroup] < 0 {
		return nil
	}

	module := ""
	if moduleGroup > 0 && m[2*moduleGroup] >= 0 {
		module = strings.TrimSpace(text[m[2*moduleGroup]:m[2*moduleGroup+1]])
	}
	statement := collapseSpace(text[m[0]:m[1]])
	if len(statement) > maxStatementLen {
		statement = strings.ToValidUTF8(statement[:maxStatementLen], "")
	}
	line := lines.line(m[2*nameGroup])

	var refs []model.ImportReference
	for _, part := range strings.Split(text[m[2*nameGroup]:m[2*nameGroup+1]], ",") {
		name, prefix, sep := CleanImportName(part)
		if name == "" {
			continue
		}
		hint := module
		switch {
		case hint != "" && prefix != "":
			hint = hint + sep + prefix
		case hint == "":
			hint = prefix
		}
		refs = append(refs, model.ImportReference{
			File:      path,
			Name:      name,
			Module:    hint,
			Line:      line,
			Statement: statement,
		})
	}
	return refs
}

var identRe = regexp.MustCompile(`^[A-Za-z_$][\w$]*$`)

var nameStripper = strings.NewReplacer("{", "", "}", "", "(", "", ")", "", ";", " ", "'", "", "\"", "")

// CleanImportName reduces one comma-separated item of an import list to the
// imported name. Aliases, type-only markers, brackets and trailing comments
// are dropped. For a path-like item (a::b::C, pkg.mod) it returns the last
// segment as the name plus the leading segments and their separator.
func CleanImportName(raw string) (name, prefix, sep string) {
	s := raw
	for _, marker := range []string{"#", "//"} {
		if i := strings.Index(s, marker); i >= 0 {
			s = s[:i]
		}
	}
	fields := strings.Fields(nameStripper.Replace(s))
	for len(fields) > 0 && (fields[0] == "type" || fields[0] == "typeof") && len(fields) > 1 {
		fields = fields[1:]
	}
	if len(fields) == 0 {
		return "", "", ""
	}
	s = fields[0]

	for _, candidate := range []string{"::", "."} {
		if i := strings.LastIndex(s, candidate); i >= 0 {
			prefix, s, sep = s[:i], s[i+len(candidate):], candidate
			break
		}
	}
	switch s {
	case "", "*", "self", "super", "crate":
		return "", "", ""
	}
	if !identRe.MatchString(s) {
		return "", "", ""
	}
	return s, prefix, sep
}

var wordRe = regexp.MustCompile(`[A-Za-z_]+`)

// kindWords are checked in order, so "type Foo struct" reads as a struct.
var kindWords = []struct {
	words []string
	kind  model.Kind
}{
	{[]string{"function", "fn", "func", "def"}, model.KindFunction},
	{[]string{"class", "record"}, model.KindClass},
	{[]string{"interface"}, model.KindInterface},
	{[]string{"struct"}, model.KindStruct},
	{[]string{"enum"}, model.KindEnum},
	{[]string{"trait"}, model.KindTrait},
	{[]string{"const", "static"}, model.KindConstant},
	{[]string{"let", "var"}, model.KindVariable},
	{[]string{"type"}, model.KindType},
	{[]string{"mod", "module", "namespace"}, model.KindModule},
}

// InferKind guesses an entity kind from the keywords around its name.
func InferKind(context string) model.Kind {
	present := make(map[string]bool)
	for _, w := range wordRe.FindAllString(context, -1) {
		present[w] = true
	}
	for _, kw := range kindWords {
		for _, w := range kw.words {
			if present[w] {
				return kw.kind
			}
		}
	}
	return model.KindUnknown
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// lineIndex maps byte offsets to 1-based line numbers.
type lineIndex []int

func newLineIndex(text string) lineIndex {
	var idx lineIndex
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			idx = append(idx, i)
		}
	}
	return idx
}

func (li lineIndex) line(offset int) int {
	return sort.SearchInts(li, offset) + 1
}
