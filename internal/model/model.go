// Package model defines the records shared by the analysis stages.
package model

// FileRecord describes one file admitted by traversal. Raw file text is
// never stored here; it lives only inside the worker that reads it.
type FileRecord struct {
	Path     string       `json:"path"`
	Language string       `json:"language,omitempty"`
	Ext      string       `json:"ext,omitempty"`
	Size     int64        `json:"size"`
	Hash     string       `json:"hash,omitempty"`
	Metrics  *FileMetrics `json:"metrics,omitempty"`
}

// Kind classifies an exported entity. The set is open: language data may
// introduce kinds beyond the constants below.
type Kind string

const (
	KindFunction  Kind = "function"
	KindMethod    Kind = "method"
	KindClass     Kind = "class"
	KindStruct    Kind = "struct"
	KindInterface Kind = "interface"
	KindTrait     Kind = "trait"
	KindEnum      Kind = "enum"
	KindType      Kind = "type"
	KindModule    Kind = "module"
	KindConstant  Kind = "constant"
	KindVariable  Kind = "variable"
	KindUnknown   Kind = "unknown"
)

// IsCallable reports whether the kind counts towards a file's function count.
func (k Kind) IsCallable() bool {
	return k == KindFunction || k == KindMethod
}

// ExportedEntity is a named entity a file makes available to other files.
type ExportedEntity struct {
	File  string `json:"file"`
	Name  string `json:"name"`
	Kind  Kind   `json:"kind"`
	Line  int    `json:"line"`
	Usage int    `json:"usage"`
}

// ImportReference is one import statement mention of a name.
type ImportReference struct {
	File      string `json:"file"`
	Name      string `json:"name"`
	Module    string `json:"module,omitempty"`
	Line      int    `json:"line"`
	Statement string `json:"statement,omitempty"`
}

// Extraction is everything the extractor produced for one file.
type Extraction struct {
	File         string            `json:"file"`
	Exports      []ExportedEntity  `json:"exports"`
	Imports      []ImportReference `json:"imports"`
	Declarations map[Kind]int      `json:"declarations,omitempty"`
}

// FileMetrics are lexical estimates for one file.
type FileMetrics struct {
	TotalLines      int          `json:"total_lines"`
	CodeLines       int          `json:"code_lines"`
	CommentLines    int          `json:"comment_lines"`
	BlankLines      int          `json:"blank_lines"`
	Cyclomatic      int          `json:"cyclomatic"`
	Cognitive       float64      `json:"cognitive"`
	MaxNesting      int          `json:"max_nesting"`
	Halstead        Halstead     `json:"halstead"`
	Maintainability float64      `json:"maintainability"`
	Functions       int          `json:"functions"`
	Declarations    map[Kind]int `json:"declarations,omitempty"`
}

// DeclarationTotal sums the declaration counts over all kinds.
func (m *FileMetrics) DeclarationTotal() int {
	total := 0
	for _, n := range m.Declarations {
		total += n
	}
	return total
}

// CommentRatio is comment lines over non-blank lines.
func (m *FileMetrics) CommentRatio() float64 {
	denom := m.CodeLines + m.CommentLines
	if denom == 0 {
		return 0
	}
	return float64(m.CommentLines) / float64(denom)
}

// Halstead holds the Halstead software science measures.
type Halstead struct {
	DistinctOperators int     `json:"distinct_operators"`
	DistinctOperands  int     `json:"distinct_operands"`
	TotalOperators    int     `json:"total_operators"`
	TotalOperands     int     `json:"total_operands"`
	Volume            float64 `json:"volume"`
	Difficulty        float64 `json:"difficulty"`
	Effort            float64 `json:"effort"`
}

// Warning is a recoverable per-path problem surfaced with the run.
type Warning struct {
	Path    string `json:"path"`
	Code    string `json:"code"`
	Message string `json:"message"`
}
