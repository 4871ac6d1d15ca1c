// Package format renders row sets for human display.
package format

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/pggate/pggate/internal/pgexec"
)

// Output formats accepted by read tools.
const (
	Text = "text"
	JSON = "json"
	YAML = "yaml"
)

// maxCellWidth caps individual cell width in text tables so a single wide
// value cannot blow up the layout.
const maxCellWidth = 96

// Render renders a row set in the requested format. An empty format defaults
// to text; an unknown format is an error.
func Render(name string, rs *pgexec.RowSet) (string, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", Text:
		return renderText(rs), nil
	case JSON:
		return renderJSON(rs)
	case YAML:
		return renderYAML(rs)
	default:
		return "", fmt.Errorf("unknown format %q (allowed: text|json|yaml)", strings.TrimSpace(name))
	}
}

func renderText(rs *pgexec.RowSet) string {
	if rs == nil || len(rs.Columns) == 0 {
		return "(no columns)"
	}

	widths := make([]int, len(rs.Columns))
	for i, column := range rs.Columns {
		widths[i] = len(column)
	}

	cells := make([][]string, len(rs.Rows))
	for r, row := range rs.Rows {
		cells[r] = make([]string, len(rs.Columns))
		for c, column := range rs.Columns {
			cell := cellText(row[column])
			cells[r][c] = cell
			if len(cell) > widths[c] {
				widths[c] = len(cell)
			}
		}
	}

	var b strings.Builder
	writeRow(&b, rs.Columns, widths)
	for c, width := range widths {
		if c > 0 {
			b.WriteString("-+-")
		}
		b.WriteString(strings.Repeat("-", width))
	}
	b.WriteByte('\n')
	for _, row := range cells {
		writeRow(&b, row, widths)
	}
	fmt.Fprintf(&b, "(%d rows)", len(rs.Rows))
	return b.String()
}

func writeRow(b *strings.Builder, cells []string, widths []int) {
	for c, cell := range cells {
		if c > 0 {
			b.WriteString(" | ")
		}
		b.WriteString(cell)
		if pad := widths[c] - len(cell); pad > 0 && c < len(cells)-1 {
			b.WriteString(strings.Repeat(" ", pad))
		}
	}
	b.WriteByte('\n')
}

func cellText(value any) string {
	if value == nil {
		return "NULL"
	}
	text := fmt.Sprintf("%v", value)
	text = strings.ReplaceAll(text, "\n", `\n`)
	if len(text) > maxCellWidth {
		return truncateRunes(text, maxCellWidth-3) + "..."
	}
	return text
}

// truncateRunes cuts at most max bytes off the front of s without splitting
// a multi-byte rune.
func truncateRunes(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

func renderJSON(rs *pgexec.RowSet) (string, error) {
	encoded, err := json.MarshalIndent(map[string]any{
		"columns": rs.Columns,
		"rows":    rs.Rows,
	}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding rows as json: %w", err)
	}
	return string(encoded), nil
}

func renderYAML(rs *pgexec.RowSet) (string, error) {
	encoded, err := yaml.Marshal(map[string]any{
		"columns": rs.Columns,
		"rows":    rs.Rows,
	})
	if err != nil {
		return "", fmt.Errorf("encoding rows as yaml: %w", err)
	}
	return strings.TrimRight(string(encoded), "\n"), nil
}
