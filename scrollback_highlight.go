package mudterm

// Highlight marks a cell range, in canvas row coordinates, for inverse
// display. Stored cells are untouched: the swap happens only in the copies
// View hands out, so clearing the highlight restores the original styles
// exactly.
func (s *Scrollback) Highlight(fromRow, fromCol, toRow, toCol int) {
	if toRow < fromRow || (toRow == fromRow && toCol < fromCol) {
		fromRow, fromCol, toRow, toCol = toRow, toCol, fromRow, fromCol
	}
	s.hlActive = true
	s.hlFromRow, s.hlFromCol = fromRow, fromCol
	s.hlToRow, s.hlToCol = toRow, toCol
	s.dirty = true
}

// ClearHighlight removes the transient highlight.
func (s *Scrollback) ClearHighlight() {
	if s.hlActive {
		s.hlActive = false
		s.dirty = true
	}
}

// Highlighted reports whether a highlight range is active.
func (s *Scrollback) Highlighted() bool { return s.hlActive }

// HighlightRange returns the active highlight bounds in canvas coordinates.
func (s *Scrollback) HighlightRange() (fromRow, fromCol, toRow, toCol int, ok bool) {
	if !s.hlActive {
		return 0, 0, 0, 0, false
	}
	return s.hlFromRow, s.hlFromCol, s.hlToRow, s.hlToCol, true
}

func clampCol(col, width int) int {
	if col < 0 {
		return 0
	}
	if col >= width {
		return width - 1
	}
	return col
}

// overlayHighlight swaps styles in a viewport copy for cells inside the
// highlight range.
func (s *Scrollback) overlayHighlight(view []Cell) {
	for i := range view {
		r := s.viewRow + i/s.width
		c := i % s.width
		if s.inHighlight(r, c) {
			cell := view[i]
			view[i] = cell.WithColor(SwapColors(cell.Color()))
		}
	}
}

func (s *Scrollback) inHighlight(row, col int) bool {
	if row < s.hlFromRow || row > s.hlToRow {
		return false
	}
	if row == s.hlFromRow && col < s.hlFromCol {
		return false
	}
	if row == s.hlToRow && col > s.hlToCol {
		return false
	}
	return true
}

// TextRange extracts the text of a cell range in canvas coordinates, one
// string per row with trailing blanks trimmed. Used for clipboard copies of
// a highlighted selection.
func (s *Scrollback) TextRange(fromRow, fromCol, toRow, toCol int) []string {
	if toRow < fromRow || (toRow == fromRow && toCol < fromCol) {
		fromRow, fromCol, toRow, toCol = toRow, toCol, fromRow, fromCol
	}
	if fromRow < 0 {
		fromRow, fromCol = 0, 0
	}
	if toRow > s.writeRow {
		toRow, toCol = s.writeRow, s.width-1
	}
	fromCol = clampCol(fromCol, s.width)
	toCol = clampCol(toCol, s.width)
	var out []string
	for r := fromRow; r <= toRow; r++ {
		start, end := 0, s.width
		if r == fromRow {
			start = fromCol
		}
		if r == toRow && toCol+1 < end {
			end = toCol + 1
		}
		row := s.cells[r*s.width+start : r*s.width+end]
		trim := len(row)
		for trim > 0 && row[trim-1].Ch() == ' ' {
			trim--
		}
		out = append(out, cellsToString(row[:trim]))
	}
	return out
}
