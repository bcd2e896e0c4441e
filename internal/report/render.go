package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/pelletier/go-toml/v2"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

// Format is an output format.
type Format string

const (
	FormatHuman Format = "human"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
	FormatTOML  Format = "toml"
)

// Formats lists the supported formats.
var Formats = []Format{FormatHuman, FormatJSON, FormatYAML, FormatTOML}

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unsupported format: %s", s)
}

// Render writes r to w in the given format. Human output is styled only when
// w is a terminal.
func Render(w io.Writer, r *Report, format Format) error {
	return Encode(w, r, format, func(w io.Writer) error {
		return writeHuman(w, r, newStyles(w, isTerminal(w)))
	})
}

// Encode writes v in a structured format, or calls human for FormatHuman.
func Encode(w io.Writer, v any, format Format, human func(io.Writer) error) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("failed to marshal YAML: %w", err)
		}
		return enc.Close()
	case FormatTOML:
		enc := toml.NewEncoder(w)
		enc.SetIndentTables(true)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("failed to marshal TOML: %w", err)
		}
		return nil
	case FormatHuman:
		if human == nil {
			return Encode(w, v, FormatJSON, nil)
		}
		return human(w)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Styles holds the lipgloss styles used by human output.
type Styles struct {
	Title   lipgloss.Style
	Heading lipgloss.Style
	Label   lipgloss.Style
	Value   lipgloss.Style
	Path    lipgloss.Style
	Dim     lipgloss.Style
	Warn    lipgloss.Style
}

func newStyles(w io.Writer, styled bool) Styles {
	if !styled {
		plain := lipgloss.NewStyle()
		return Styles{plain, plain, plain, plain, plain, plain, plain}
	}
	r := lipgloss.NewRenderer(w)
	return Styles{
		Title:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("6")),
		Heading: r.NewStyle().Bold(true).Underline(true),
		Label:   r.NewStyle().Foreground(lipgloss.Color("240")),
		Value:   r.NewStyle().Bold(true),
		Path:    r.NewStyle().Foreground(lipgloss.Color("2")),
		Dim:     r.NewStyle().Foreground(lipgloss.Color("240")),
		Warn:    r.NewStyle().Foreground(lipgloss.Color("3")),
	}
}

// NewStyles returns styles for w, plain unless w is a terminal.
func NewStyles(w io.Writer) Styles {
	return newStyles(w, isTerminal(w))
}

func writeHuman(w io.Writer, r *Report, st Styles) error {
	var b strings.Builder
	s := r.Summary

	b.WriteString(st.Title.Render(fmt.Sprintf("OverDoc analysis v%s", r.Version)) + "\n")
	b.WriteString(strings.Repeat("=", 60) + "\n")
	b.WriteString(fmt.Sprintf("%s %s\n", st.Label.Render("Root:"), r.Root))
	b.WriteString(fmt.Sprintf("%s %dms\n\n", st.Label.Render("Duration:"), r.DurationMs))

	b.WriteString(st.Heading.Render("Summary") + "\n")
	rows := [][2]string{
		{"Files analyzed", fmt.Sprintf("%d of %d candidates (%d skipped)", s.FilesAnalyzed, s.Candidates, s.FilesSkipped)},
		{"Exported entities", fmt.Sprintf("%d in %d files", s.ExportedEntities, s.FilesWithExports)},
		{"Import references", fmt.Sprintf("%d (%d unresolved)", s.ImportReferences, s.UnresolvedImports)},
		{"Dependency edges", fmt.Sprintf("%d", s.Edges)},
		{"Lines", fmt.Sprintf("%d total, %d code, %d comment, %d blank", s.TotalLines, s.CodeLines, s.CommentLines, s.BlankLines)},
		{"Comment ratio", fmt.Sprintf("%.1f%%", s.CommentRatio*100)},
		{"Avg complexity", fmt.Sprintf("cyclomatic %.1f, cognitive %.1f", s.AvgCyclomatic, s.AvgCognitive)},
		{"Avg maintainability", fmt.Sprintf("%.1f", s.AvgMaintainability)},
	}
	for _, row := range rows {
		b.WriteString(fmt.Sprintf("  %s %s\n", st.Label.Render(fmt.Sprintf("%-20s", row[0]+":")), st.Value.Render(row[1])))
	}

	if len(r.Languages) > 0 {
		b.WriteString("\n" + st.Heading.Render("Languages") + "\n")
		for _, l := range r.Languages {
			b.WriteString(fmt.Sprintf("  %-12s %5d  %5.1f%%\n", l.Language, l.Files, l.Percent))
		}
	}

	if len(r.TopKnowledge) > 0 {
		b.WriteString("\n" + st.Heading.Render("Highest knowledge files") + "\n")
		for i, f := range r.TopKnowledge {
			b.WriteString(fmt.Sprintf("  %2d. %s %s\n", i+1, st.Path.Render(f.Path),
				st.Dim.Render(fmt.Sprintf("knowledge %.1f, %d lines", f.Knowledge, f.Lines))))
		}
	}

	if len(r.TopImportance) > 0 {
		b.WriteString("\n" + st.Heading.Render("Most important files") + "\n")
		for i, f := range r.TopImportance {
			b.WriteString(fmt.Sprintf("  %2d. %s %s\n", i+1, st.Path.Render(f.Path),
				st.Dim.Render(fmt.Sprintf("importance %s, usage %d, %d dependents", FormatFloat(f.Importance), f.Usage, f.Dependents))))
			for _, e := range f.Exports {
				if e.Usage > 0 {
					b.WriteString(fmt.Sprintf("        %s %s (%d)\n", e.Kind, e.Name, e.Usage))
				}
			}
		}
	}

	if len(r.TopDirectories) > 0 {
		b.WriteString("\n" + st.Heading.Render("Most important directories") + "\n")
		for i, d := range r.TopDirectories {
			b.WriteString(fmt.Sprintf("  %2d. %s %s\n", i+1, st.Path.Render(d.Path+"/"),
				st.Dim.Render(fmt.Sprintf("importance %s, %d files, %d lines", FormatFloat(d.Importance), d.Files, d.Lines))))
		}
	}

	if len(r.Central) > 0 {
		b.WriteString("\n" + st.Heading.Render("Most central files") + "\n")
		for i, c := range r.Central {
			b.WriteString(fmt.Sprintf("  %2d. %s %s\n", i+1, st.Path.Render(c.Path), st.Dim.Render(fmt.Sprintf("%.4f", c.Score))))
		}
	}

	if len(r.Warnings) > 0 {
		b.WriteString("\n" + st.Heading.Render("Warnings") + "\n")
		for _, w := range r.Warnings {
			b.WriteString(st.Warn.Render(fmt.Sprintf("  ! %s: %s", w.Path, w.Message)) + "\n")
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}
