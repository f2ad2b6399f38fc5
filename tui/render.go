package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/giygas/smpc-comparator/comparison"
)

// differsMarker flags a differing field label
const differsMarker = " ●"

// RenderComparison draws the comparison area. A zero width leaves the table
// at its natural size.
func RenderComparison(res comparison.Result, width int, onlyDiff bool) string {
	return renderComparison(DefaultStyles(), res, width, onlyDiff)
}

func renderComparison(s Styles, res comparison.Result, width int, onlyDiff bool) string {
	var b strings.Builder
	b.WriteString(s.Title.Render(res.Title()))
	b.WriteString("\n")

	switch res.Mode {
	case comparison.ModeNone:
		return b.String()
	case comparison.ModePrompt:
		b.WriteString(s.Muted.Render(comparison.PromptMessage))
		return b.String()
	}

	rows := res.Rows
	if onlyDiff {
		rows = res.OnlyDifferent()
	}
	b.WriteString(s.Subtitle.Render(fmt.Sprintf("%d of %d fields differ", res.DifferentCount(), len(res.Rows))))
	b.WriteString("\n")

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(s.Border).
		Headers("Field", res.LeftHeader(), res.RightHeader()).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow || row < 0 || row >= len(rows) {
				return s.Header
			}
			r := rows[row]
			switch {
			case col == 0 && r.Different:
				return s.Differs
			case col == 1 && r.LeftTint() != comparison.TintNone:
				return s.Left
			case col == 2 && r.RightTint() != comparison.TintNone:
				return s.Right
			}
			return s.Cell
		})

	for _, r := range rows {
		label := r.Label
		if r.Different {
			label += differsMarker
		}
		t.Row(label, r.Left.Display(), r.Right.Display())
	}
	if width > 0 {
		t.Width(width)
	}

	b.WriteString(t.Render())
	return b.String()
}
