package mudterm

import "regexp"

// Search scans row text for a regular expression match and jumps the view
// to it. A backward search walks from just above the viewport toward the
// oldest row; a forward search walks from just below it toward the newest,
// so repeating a search advances past the previous hit. The matched cells
// are highlighted and the view freezes on the row (or resumes following
// when the row already sits in the tail window). ok is false when nothing
// matches; a malformed pattern is an error.
func (s *Scrollback) Search(pattern string, forward bool) (row int, ok bool, err error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return 0, false, err
	}
	start, stop, step := s.viewRow-1, 0, -1
	if forward {
		start, stop, step = s.viewRow+1, s.writeRow, 1
	}
	for r := start; step*(stop-r) >= 0; r += step {
		loc := re.FindStringIndex(s.rowText(r))
		if loc == nil {
			continue
		}
		end := loc[1] - 1
		if end < loc[0] {
			end = loc[0] // an empty match still marks one cell
		}
		s.Highlight(r, loc[0], r, end)
		s.jumpTo(r)
		return r, true, nil
	}
	return 0, false, nil
}

// jumpTo puts the row at the top of the viewport with the same clamp and
// freeze semantics as Scroll.
func (s *Scrollback) jumpTo(row int) {
	if row < 0 {
		row = 0
	}
	if top := s.tailTop(); row >= top {
		s.viewRow = top
		s.frozen = false
	} else {
		s.viewRow = row
		s.frozen = true
	}
	s.dirty = true
}
