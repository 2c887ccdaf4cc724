package mudterm

// ScrollUnit selects the granularity of a Scroll call.
type ScrollUnit int

const (
	// ScrollLine moves the view one row per delta unit.
	ScrollLine ScrollUnit = iota
	// ScrollPage moves the view half a viewport per delta unit, keeping
	// the other half as context.
	ScrollPage
)

// Scroll moves the view cursor by delta units; negative is toward older
// history. The result is clamped to the canvas. Any position away from the
// tail freezes the view; landing back on the tail resumes following.
func (s *Scrollback) Scroll(delta int, unit ScrollUnit) {
	step := 1
	if unit == ScrollPage {
		step = s.height / 2
		if step < 1 {
			step = 1
		}
	}
	target := s.viewRow + delta*step
	if target < 0 {
		target = 0
	}
	if top := s.tailTop(); target >= top {
		s.viewRow = top
		s.frozen = false
	} else {
		s.viewRow = target
		s.frozen = true
	}
	s.dirty = true
}

// Follow clears the frozen state and snaps the view back to the tail.
func (s *Scrollback) Follow() {
	s.frozen = false
	s.viewRow = s.tailTop()
	s.dirty = true
}

// ViewRow returns the row index at the top of the viewport.
func (s *Scrollback) ViewRow() int { return s.viewRow }

// View returns a copy of the height*width viewport starting at the view
// cursor, with any active highlight applied as a transient style swap. The
// stored cells are never mutated.
func (s *Scrollback) View() []Cell {
	out := make([]Cell, s.height*s.width)
	copy(out, s.cells[s.viewRow*s.width:])
	if s.hlActive {
		s.overlayHighlight(out)
	}
	return out
}

// CursorPos returns the write cursor's position relative to the viewport.
// A deferred line feed reports the start of the upcoming row. ok is false
// when the cursor falls outside the displayed window.
func (s *Scrollback) CursorPos() (row, col int, ok bool) {
	r, c := s.writeRow, s.col
	if s.pendingLF {
		r, c = r+1, 0
	}
	row = r - s.viewRow
	if row < 0 || row >= s.height {
		return 0, 0, false
	}
	return row, c, true
}

// RecentLines returns the text of the most recent n completed rows, oldest
// first, with trailing blanks trimmed. The row under assembly is included
// when it holds any content.
func (s *Scrollback) RecentLines(n int) []string {
	last := s.writeRow
	if last > 0 && s.rowText(last) == "" {
		last--
	}
	first := last - n + 1
	if first < 0 {
		first = 0
	}
	lines := make([]string, 0, last-first+1)
	for r := first; r <= last; r++ {
		lines = append(lines, s.rowText(r))
	}
	return lines
}

func (s *Scrollback) rowText(r int) string {
	row := s.cells[r*s.width : (r+1)*s.width]
	end := len(row)
	for end > 0 && row[end-1].Ch() == ' ' {
		end--
	}
	return cellsToString(row[:end])
}
