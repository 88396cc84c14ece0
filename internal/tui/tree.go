package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// listCursor tracks the highlighted row and scroll offset of a list.
type listCursor struct {
	Pos    int
	Offset int
	Height int
}

func (c *listCursor) visibleRows() int {
	if c.Height < 1 {
		return 1
	}
	return c.Height
}

func (c *listCursor) Up() {
	if c.Pos > 0 {
		c.Pos--
	}
	if c.Pos < c.Offset {
		c.Offset = c.Pos
	}
}

func (c *listCursor) Down(rows int) {
	if c.Pos < rows-1 {
		c.Pos++
	}
	if c.Pos >= c.Offset+c.visibleRows() {
		c.Offset = c.Pos - c.visibleRows() + 1
	}
}

// Clamp keeps the cursor inside a list of rows after the list changed.
func (c *listCursor) Clamp(rows int) {
	if c.Pos >= rows {
		c.Pos = rows - 1
	}
	if c.Pos < 0 {
		c.Pos = 0
	}
	if c.Offset > c.Pos {
		c.Offset = c.Pos
	}
	if c.Pos >= c.Offset+c.visibleRows() {
		c.Offset = c.Pos - c.visibleRows() + 1
	}
}

// Reset moves the cursor to the top.
func (c *listCursor) Reset() {
	c.Pos = 0
	c.Offset = 0
}

// window returns the range of rows to render.
func (c listCursor) window(rows int) (start, end int) {
	end = c.Offset + c.visibleRows()
	if end > rows {
		end = rows
	}
	return c.Offset, end
}

// truncate shortens s to max runes, marking the cut with an ellipsis.
func truncate(s string, max int) string {
	if max < 2 {
		max = 2
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}

// padRight pads line to width for full-row highlighting.
func padRight(line string, width int) string {
	if n := width - lipgloss.Width(line); n > 0 {
		return line + strings.Repeat(" ", n)
	}
	return line
}
