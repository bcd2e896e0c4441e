package metrics

import "strings"

type block struct {
	indent  int
	control bool
}

// complexity accumulates cyclomatic and cognitive estimates line by line.
// Cognitive cost of a branch is 1 plus the number of enclosing control
// blocks; else/elif cost a flat 1 and each logical operator 0.5.
type complexity struct {
	syn        syntax
	cyclomatic int
	cognitive  float64
	maxNesting int

	stack   []block
	pending int
	parens  int
}

func newComplexity(syn syntax) *complexity {
	return &complexity{syn: syn}
}

func (c *complexity) nesting() int {
	n := 0
	for _, b := range c.stack {
		if b.control {
			n++
		}
	}
	return n
}

func (c *complexity) line(code string, toks []token) {
	if c.syn.indent {
		c.indentLine(code, toks)
		return
	}
	skipIf := false
	// header is set while a branch on this line still waits for its "{".
	header := false
	for i, t := range toks {
		switch {
		case t.kind == tokWord && t.text == "else":
			c.cognitive++
			c.pending++
			header = true
			if i+1 < len(toks) && toks[i+1].text == "if" {
				skipIf = true
			}
		case t.kind == tokWord && c.syn.branches[t.text]:
			c.cyclomatic++
			header = true
			if skipIf {
				skipIf = false
				continue
			}
			c.cognitive += 1 + float64(c.nesting())
			c.pending++
		case c.syn.logical[t.text]:
			c.cyclomatic++
			c.cognitive += 0.5
		case t.text == "?" && isTernary(toks[i+1:]):
			c.cyclomatic++
			c.cognitive += 1 + float64(c.nesting())
		case t.text == "(" || t.text == "[":
			c.parens++
		case t.text == ")" || t.text == "]":
			if c.parens > 0 {
				c.parens--
			}
		case t.text == "{":
			ctl := c.pending > 0
			if ctl {
				c.pending--
			}
			header = false
			c.stack = append(c.stack, block{control: ctl})
			if len(c.stack) > c.maxNesting {
				c.maxNesting = len(c.stack)
			}
		case t.text == "}":
			if len(c.stack) > 0 {
				c.stack = c.stack[:len(c.stack)-1]
			}
			c.pending = 0
		case t.text == ";":
			// Loop clauses and Go's "if x := f(); x {" keep their branch.
			if c.parens > 0 || header && opensBlock(toks[i+1:]) {
				continue
			}
			c.pending = 0
			header = false
		}
	}
}

func (c *complexity) indentLine(code string, toks []token) {
	indent := indentWidth(code)
	for len(c.stack) > 0 && c.stack[len(c.stack)-1].indent >= indent {
		c.stack = c.stack[:len(c.stack)-1]
	}

	control := false
	for _, t := range toks {
		switch {
		case t.kind == tokWord && (t.text == "else" || t.text == "elif"):
			if t.text == "elif" {
				c.cyclomatic++
			}
			c.cognitive++
			control = true
		case t.kind == tokWord && c.syn.branches[t.text]:
			c.cyclomatic++
			c.cognitive += 1 + float64(c.nesting())
			control = true
		case c.syn.logical[t.text]:
			c.cyclomatic++
			c.cognitive += 0.5
		}
	}

	if strings.HasSuffix(strings.TrimSpace(code), ":") {
		c.stack = append(c.stack, block{indent: indent, control: control})
		if len(c.stack) > c.maxNesting {
			c.maxNesting = len(c.stack)
		}
	}
}

// isTernary reports whether a "?" begins a conditional expression: some
// later token on the line is a lone ":" with an operand in between. A "?"
// directly before ":", ")", "," or "=" marks an optional member or parameter.
func isTernary(rest []token) bool {
	if len(rest) == 0 {
		return false
	}
	switch rest[0].text {
	case ":", ")", ",", "=", ";":
		return false
	}
	for _, t := range rest[1:] {
		if t.text == ":" {
			return true
		}
	}
	return false
}

func opensBlock(rest []token) bool {
	for _, t := range rest {
		if t.text == "{" {
			return true
		}
	}
	return false
}

func indentWidth(s string) int {
	w := 0
	for _, r := range s {
		switch r {
		case ' ':
			w++
		case '\t':
			w += 4
		default:
			return w
		}
	}
	return w
}
