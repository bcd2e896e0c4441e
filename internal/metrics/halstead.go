package metrics

import (
	"math"
	"unicode"

	"overdoc/internal/model"
)

type tokenKind int

const (
	tokWord tokenKind = iota
	tokNumber
	tokString
	tokOp
)

type token struct {
	kind tokenKind
	text string
}

var multiOps = []string{
	"===", "!==", "...", "<<=", ">>=", "**=", "//=", "&&=", "||=", "??=",
	"==", "!=", "<=", ">=", "&&", "||", "??", "::", "->", "=>", "+=", "-=", "*=", "/=",
	"%=", "&=", "|=", "^=", "++", "--", "<<", ">>", "?.", ":=", "**", "//",
}

// tokenize splits a comment-free code line. String literals arrive as "".
func tokenize(code string) []token {
	var toks []token
	rs := []rune(code)
	for i := 0; i < len(rs); {
		r := rs[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case r == '"' && i+1 < len(rs) && rs[i+1] == '"':
			toks = append(toks, token{tokString, `""`})
			i += 2
		case unicode.IsLetter(r) || r == '_' || r == '$':
			j := i + 1
			for j < len(rs) && (unicode.IsLetter(rs[j]) || unicode.IsDigit(rs[j]) || rs[j] == '_' || rs[j] == '$') {
				j++
			}
			toks = append(toks, token{tokWord, string(rs[i:j])})
			i = j
		case unicode.IsDigit(r):
			j := i + 1
			for j < len(rs) && (unicode.IsLetter(rs[j]) || unicode.IsDigit(rs[j]) || rs[j] == '.' || rs[j] == '_') {
				j++
			}
			toks = append(toks, token{tokNumber, string(rs[i:j])})
			i = j
		default:
			op := string(r)
			for _, m := range multiOps {
				if hasRunePrefix(rs[i:], m) {
					op = m
					break
				}
			}
			toks = append(toks, token{tokOp, op})
			i += len([]rune(op))
		}
	}
	return toks
}

func hasRunePrefix(rs []rune, prefix string) bool {
	pr := []rune(prefix)
	if len(rs) < len(pr) {
		return false
	}
	for i := range pr {
		if rs[i] != pr[i] {
			return false
		}
	}
	return true
}

// keywords count as operators; everything else that is a word is an operand.
var keywords = toSet([]string{
	"if", "else", "elif", "for", "while", "do", "loop", "switch", "match", "case", "default",
	"break", "continue", "return", "yield", "goto", "fn", "func", "function", "def", "lambda",
	"class", "struct", "enum", "trait", "impl", "interface", "type", "let", "var", "const",
	"static", "mut", "pub", "public", "private", "protected", "internal", "import", "from",
	"use", "package", "module", "mod", "new", "delete", "try", "catch", "finally", "throw",
	"throws", "raise", "except", "with", "as", "in", "is", "not", "and", "or", "async",
	"await", "extends", "implements", "where", "select", "go", "defer", "chan", "range",
	"export", "typeof", "instanceof", "void", "final", "abstract", "override", "virtual",
})

type halstead struct {
	operators map[string]int
	operands  map[string]int
	n1, n2    int
}

func newHalstead() *halstead {
	return &halstead{operators: make(map[string]int), operands: make(map[string]int)}
}

func (h *halstead) add(toks []token, syn syntax) {
	for _, t := range toks {
		switch t.kind {
		case tokOp:
			h.operators[t.text]++
			h.n1++
		case tokWord:
			if keywords[t.text] || syn.branches[t.text] || syn.logical[t.text] {
				h.operators[t.text]++
				h.n1++
			} else {
				h.operands[t.text]++
				h.n2++
			}
		default:
			h.operands[t.text]++
			h.n2++
		}
	}
}

// measures returns volume N*log2(n), difficulty (n1/2)*(N2/n2) and effort D*V.
func (h *halstead) measures() model.Halstead {
	out := model.Halstead{
		DistinctOperators: len(h.operators),
		DistinctOperands:  len(h.operands),
		TotalOperators:    h.n1,
		TotalOperands:     h.n2,
	}
	vocabulary := out.DistinctOperators + out.DistinctOperands
	length := out.TotalOperators + out.TotalOperands
	if vocabulary > 0 {
		out.Volume = float64(length) * math.Log2(float64(vocabulary))
	}
	if out.DistinctOperands > 0 {
		out.Difficulty = float64(out.DistinctOperators) / 2 * float64(out.TotalOperands) / float64(out.DistinctOperands)
	}
	out.Effort = out.Difficulty * out.Volume
	return out
}
