package main

import (
	"fmt"
	"io"
	"strings"

	"overdoc/internal/report"
	"overdoc/internal/storage"
)

// shortID trims a run id for display.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// formatMillis renders a millisecond duration compactly.
func formatMillis(ms int64) string {
	switch {
	case ms < 1000:
		return fmt.Sprintf("%dms", ms)
	case ms < 60_000:
		return fmt.Sprintf("%.1fs", float64(ms)/1000)
	default:
		return fmt.Sprintf("%dm%02ds", ms/60_000, (ms/1000)%60)
	}
}

func writeDepsHuman(w io.Writer, resp *DepsResponseCLI, st report.Styles) error {
	var b strings.Builder

	b.WriteString(st.Title.Render(resp.File) + "\n")
	b.WriteString(strings.Repeat("=", 60) + "\n")
	if resp.Language != "" {
		b.WriteString(fmt.Sprintf("%s %s\n", st.Label.Render("Language:"), resp.Language))
	}
	b.WriteString(fmt.Sprintf("%s %s   %s %s\n\n",
		st.Label.Render("Importance:"), st.Value.Render(report.FormatFloat(resp.Importance)),
		st.Label.Render("Knowledge:"), st.Value.Render(fmt.Sprintf("%.1f", resp.Knowledge))))

	b.WriteString(st.Heading.Render(fmt.Sprintf("Exports (%d)", len(resp.Exports))) + "\n")
	if len(resp.Exports) == 0 {
		b.WriteString(st.Dim.Render("  none") + "\n")
	}
	for _, ex := range resp.Exports {
		b.WriteString(fmt.Sprintf("  %-30s %-10s line %-5d used %d\n", ex.Name, ex.Kind, ex.Line, ex.Usage))
	}

	writePathList(&b, st, fmt.Sprintf("Depends on (%d)", len(resp.DependsOn)), resp.DependsOn)
	writePathList(&b, st, fmt.Sprintf("Dependents (%d)", len(resp.Dependents)), resp.Dependents)

	if len(resp.Related) > 0 {
		b.WriteString("\n" + st.Heading.Render("Related files") + "\n")
		for _, r := range resp.Related {
			b.WriteString(fmt.Sprintf("  %s %s", st.Path.Render(r.File), st.Dim.Render(fmt.Sprintf("(%.3f)", r.Score))))
			if len(r.Path) > 1 {
				b.WriteString(st.Dim.Render("  via " + strings.Join(r.Path, " -> ")))
			}
			b.WriteString("\n")
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func writePathList(b *strings.Builder, st report.Styles, title string, items []string) {
	b.WriteString("\n" + st.Heading.Render(title) + "\n")
	if len(items) == 0 {
		b.WriteString(st.Dim.Render("  none") + "\n")
		return
	}
	for _, p := range items {
		b.WriteString("  " + st.Path.Render(p) + "\n")
	}
}

func writeLanguagesHuman(w io.Writer, resp *LanguagesResponseCLI, st report.Styles) error {
	var b strings.Builder
	b.WriteString(st.Title.Render(fmt.Sprintf("Languages (%d)", len(resp.Languages))) + "\n")
	b.WriteString(strings.Repeat("=", 60) + "\n")
	for _, l := range resp.Languages {
		name := l.Name
		if l.Pack {
			name += " " + st.Dim.Render("[pack]")
		}
		b.WriteString(fmt.Sprintf("%s\n", st.Value.Render(name)))
		b.WriteString(fmt.Sprintf("  %s %s\n", st.Label.Render("extensions:"), strings.Join(l.Extensions, ", ")))
		b.WriteString(fmt.Sprintf("  %s %d export, %d import, %d declaration\n",
			st.Label.Render("patterns:"), l.Exports, l.Imports, l.Declarations))
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func writeHistoryHuman(w io.Writer, resp *HistoryResponseCLI, st report.Styles) error {
	var b strings.Builder
	if len(resp.Runs) == 0 {
		b.WriteString("No saved runs. Use 'overdoc analyze --save' to record one.\n")
		_, err := io.WriteString(w, b.String())
		return err
	}
	b.WriteString(st.Title.Render(fmt.Sprintf("Saved runs (%d)", len(resp.Runs))) + "\n")
	b.WriteString(strings.Repeat("=", 60) + "\n")
	for _, r := range resp.Runs {
		b.WriteString(fmt.Sprintf("%s  %s  %5d files  %5d edges  %s\n",
			st.Value.Render(shortID(r.ID)),
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			r.FileCount, r.EdgeCount,
			st.Dim.Render(formatMillis(r.DurationMs))))
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func writeChangedHuman(w io.Writer, resp *ChangedResponseCLI, st report.Styles) error {
	var b strings.Builder
	b.WriteString(st.Title.Render(fmt.Sprintf("Changes %s -> %s", shortID(resp.From), shortID(resp.To))) + "\n")
	b.WriteString(strings.Repeat("=", 60) + "\n")
	if len(resp.Changes) == 0 {
		b.WriteString(st.Dim.Render("No file changes.") + "\n")
	}
	counts := make(map[storage.ChangeKind]int)
	for _, c := range resp.Changes {
		counts[c.Kind]++
		marker := "~"
		switch c.Kind {
		case storage.ChangeAdded:
			marker = "+"
		case storage.ChangeRemoved:
			marker = "-"
		}
		b.WriteString(fmt.Sprintf("  %s %s\n", marker, st.Path.Render(c.Path)))
	}
	if len(resp.Changes) > 0 {
		b.WriteString(fmt.Sprintf("\n%d added, %d removed, %d modified\n",
			counts[storage.ChangeAdded], counts[storage.ChangeRemoved], counts[storage.ChangeModified]))
	}
	_, err := io.WriteString(w, b.String())
	return err
}
