// Package metrics estimates size and complexity of a file from its text.
// All values are lexical approximations; no parsing takes place.
package metrics

import (
	"math"
	"strings"

	"overdoc/internal/config"
	"overdoc/internal/lang"
	"overdoc/internal/model"
)

var (
	fallbackLineComments = []string{"//", "#"}
	fallbackBranches     = []string{"if", "for", "while", "case", "catch"}
	fallbackLogical      = []string{"&&", "||"}
)

// syntax is the subset of a language the collector needs.
type syntax struct {
	lineComments []string
	blockStart   string
	blockEnd     string
	branches     map[string]bool
	logical      map[string]bool
	indent       bool
}

func syntaxFor(l *lang.Language) syntax {
	s := syntax{
		lineComments: fallbackLineComments,
		blockStart:   "/*",
		blockEnd:     "*/",
		branches:     toSet(fallbackBranches),
		logical:      toSet(fallbackLogical),
	}
	if l == nil {
		return s
	}
	if len(l.LineComments) > 0 || l.BlockStart != "" {
		s.lineComments = l.LineComments
		s.blockStart, s.blockEnd = l.BlockStart, l.BlockEnd
	}
	if len(l.BranchKeywords) > 0 {
		s.branches = toSet(l.BranchKeywords)
	}
	if len(l.LogicalOperators) > 0 {
		s.logical = toSet(l.LogicalOperators)
	}
	s.indent = l.Nesting == config.NestingIndent
	return s
}

// Collect computes the metrics of one file. l may be nil for files admitted
// without a language. decls are the declaration counts from extraction.
func Collect(l *lang.Language, text string, decls map[model.Kind]int) *model.FileMetrics {
	syn := syntaxFor(l)
	m := &model.FileMetrics{
		Cyclomatic:   1,
		Declarations: make(map[model.Kind]int, len(decls)),
	}
	for k, n := range decls {
		m.Declarations[k] = n
		if k.IsCallable() {
			m.Functions += n
		}
	}

	c := newComplexity(syn)
	h := newHalstead()
	inBlock := false

	lines := strings.Split(text, "\n")
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	m.TotalLines = len(lines)

	for _, line := range lines {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			m.BlankLines++
			continue
		}
		code, hasComment := stripLine(line, syn, &inBlock)
		if strings.TrimSpace(code) == "" {
			if hasComment {
				m.CommentLines++
			} else {
				m.BlankLines++
			}
			continue
		}
		m.CodeLines++
		toks := tokenize(code)
		c.line(code, toks)
		h.add(toks, syn)
	}

	m.Cyclomatic += c.cyclomatic
	m.Cognitive = c.cognitive
	m.MaxNesting = c.maxNesting
	m.Halstead = h.measures()
	m.Maintainability = Maintainability(m.Halstead.Volume, m.Cyclomatic, m.CodeLines, m.CommentRatio())
	return m
}

// Maintainability is the normalized maintainability index in [0,100]:
// (171 - 5.2 ln V - 0.23 CC - 16.2 ln LOC + 50 sin(sqrt(2.4 r))) * 100/171.
// A file without code scores 100.
func Maintainability(volume float64, cyclomatic, codeLines int, commentRatio float64) float64 {
	if codeLines == 0 {
		return 100
	}
	v := math.Max(volume, 1)
	mi := 171 - 5.2*math.Log(v) - 0.23*float64(cyclomatic) - 16.2*math.Log(float64(codeLines)) +
		50*math.Sin(math.Sqrt(2.4*commentRatio))
	return clamp(mi*100/171, 0, 100)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, it := range items {
		set[it] = true
	}
	return set
}

// stripLine removes comments from line and blanks string literals to "".
// inBlock carries block-comment state across lines.
func stripLine(line string, syn syntax, inBlock *bool) (string, bool) {
	var code strings.Builder
	hasComment := false
	i := 0
	for i < len(line) {
		if *inBlock {
			end := strings.Index(line[i:], syn.blockEnd)
			hasComment = true
			if end < 0 {
				return code.String(), true
			}
			i += end + len(syn.blockEnd)
			*inBlock = false
			continue
		}
		rest := line[i:]
		if syn.blockStart != "" && strings.HasPrefix(rest, syn.blockStart) {
			*inBlock = true
			hasComment = true
			i += len(syn.blockStart)
			continue
		}
		if hasAnyPrefix(rest, syn.lineComments) {
			return code.String(), true
		}
		switch ch := line[i]; ch {
		case '"', '`', '\'':
			if n := literalLen(rest); n > 0 {
				code.WriteString(`""`)
				i += n
				continue
			}
			code.WriteByte(ch)
		default:
			code.WriteByte(ch)
		}
		i++
	}
	return code.String(), hasComment
}

// literalLen returns the byte length of the quoted literal at the start of
// s, or 0 when a single quote is not closed on the line (lifetimes, apostrophes).
// Unterminated double-quoted and backtick literals run to the end of the line.
func literalLen(s string) int {
	quote := s[0]
	for i := 1; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case quote:
			return i + 1
		}
	}
	if quote == '\'' {
		return 0
	}
	return len(s)
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if p != "" && strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
