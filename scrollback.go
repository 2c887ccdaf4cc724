package mudterm

import "fmt"

// compactBlock is the number of rows a single compaction tries to shift out
// of the canvas. Shifting in large blocks amortizes the memmove cost to
// O(1) per line; the shift is capped so the viewport's worth of history is
// never lost.
const compactBlock = 250

// Scrollback stores attributed cells in a compacting flat canvas of
// width*capacity rows. A write cursor (row plus column) marks where the
// next byte lands; a view cursor marks the top of the displayed window.
// The buffer is single-writer: one session owns it and mutates it only from
// the decode path.
type Scrollback struct {
	width    int
	height   int
	capacity int // total canvas rows

	cells []Cell

	writeRow  int  // row being filled
	col       int  // next column in writeRow
	lineStart int  // first row of the logical line being assembled
	pendingLF bool // line feed received, row advance deferred to next content
	viewRow   int  // top row of the viewport
	frozen    bool

	shifted int64 // cumulative rows removed by compaction

	hlActive             bool
	hlFromRow, hlFromCol int
	hlToRow, hlToCol     int

	dirty bool
}

// NewScrollback allocates a canvas of capacityLines rows. The capacity must
// leave room for compaction headroom above the viewport.
func NewScrollback(width, height, capacityLines int) (*Scrollback, error) {
	if width < 1 || height < 1 {
		return nil, fmt.Errorf("scrollback: invalid dimensions %dx%d", width, height)
	}
	if capacityLines <= 2*height {
		return nil, fmt.Errorf("scrollback: capacity %d too small for height %d", capacityLines, height)
	}
	s := &Scrollback{
		width:    width,
		height:   height,
		capacity: capacityLines,
		cells:    make([]Cell, width*capacityLines),
	}
	blank := BlankCell(ColorDefault)
	for i := range s.cells {
		s.cells[i] = blank
	}
	return s, nil
}

// Width returns the canvas width in columns.
func (s *Scrollback) Width() int { return s.width }

// Height returns the viewport height in rows.
func (s *Scrollback) Height() int { return s.height }

// WriteRow returns the row index currently being filled.
func (s *Scrollback) WriteRow() int { return s.writeRow }

// Column returns the write cursor's column.
func (s *Scrollback) Column() int { return s.col }

// Frozen reports whether the user has scrolled away from the tail.
func (s *Scrollback) Frozen() bool { return s.frozen }

// TakeDirty reports whether the buffer changed since the last call and
// clears the flag. The render loop polls this; nothing in the buffer
// schedules its own redraw.
func (s *Scrollback) TakeDirty() bool {
	d := s.dirty
	s.dirty = false
	return d
}

// PutCell writes one byte at the write cursor in the given color and
// advances the cursor, wrapping to the next row when the current one fills.
// Control bytes below 0x20 are stored as spaces.
func (s *Scrollback) PutCell(ch byte, c Color) {
	if ch < 0x20 {
		ch = ' '
	}
	s.resolvePending(c)
	if s.col >= s.width {
		s.advanceRow(c)
		s.col = 0
	}
	s.cells[s.writeRow*s.width+s.col] = MakeCell(ch, c)
	s.col++
	s.dirty = true
	s.followTail()
}

// CarriageReturn resets the write column; subsequent bytes overwrite the
// current row.
func (s *Scrollback) CarriageReturn() {
	s.col = 0
}

// LineFeed completes the logical line at the cursor. The row advance is
// deferred until content arrives, so the view keeps the last written line
// on its bottom row instead of a blank one.
func (s *Scrollback) LineFeed(c Color) {
	if s.pendingLF {
		s.commitLF(c)
	}
	s.pendingLF = true
	s.dirty = true
}

// resolvePending commits a deferred line feed before new content lands.
func (s *Scrollback) resolvePending(c Color) {
	if s.pendingLF {
		s.commitLF(c)
		s.pendingLF = false
	}
}

func (s *Scrollback) commitLF(c Color) {
	s.advanceRow(c)
	s.col = 0
	s.lineStart = s.writeRow
	s.followTail()
}

// RewriteLine replaces the logical line under assembly. Rows from the line
// start through the write row are cleared and the replacement cells written
// from column zero, wrapping as usual. Used by the transform chain when a
// registered transform modifies a completed line before commit.
func (s *Scrollback) RewriteLine(cells []Cell, c Color) {
	s.resolvePending(c)
	s.clearLine(c)
	for _, cell := range cells {
		if s.col >= s.width {
			s.advanceRow(c)
			s.col = 0
		}
		s.cells[s.writeRow*s.width+s.col] = cell
		s.col++
	}
	s.dirty = true
	s.followTail()
}

// SuppressLine discards the logical line under assembly: its rows are
// cleared and the write cursor returns to the line start without advancing.
func (s *Scrollback) SuppressLine(c Color) {
	s.resolvePending(c)
	s.clearLine(c)
	s.dirty = true
	s.followTail()
}

func (s *Scrollback) clearLine(c Color) {
	blank := BlankCell(c)
	for r := s.lineStart; r <= s.writeRow; r++ {
		row := s.cells[r*s.width : (r+1)*s.width]
		for i := range row {
			row[i] = blank
		}
	}
	s.writeRow = s.lineStart
	s.col = 0
}

// advanceRow moves the write cursor down one row, clearing the new row to
// space-in-color. Compacts first when fewer than height rows of headroom
// remain.
func (s *Scrollback) advanceRow(c Color) {
	if s.writeRow+1+s.height > s.capacity {
		s.compact()
	}
	s.writeRow++
	blank := BlankCell(c)
	row := s.cells[s.writeRow*s.width : (s.writeRow+1)*s.width]
	for i := range row {
		row[i] = blank
	}
}

// compact shifts the oldest block of rows out of the canvas. The shift is
// capped at writeRow-height so at least a viewport of history stays
// addressable.
func (s *Scrollback) compact() {
	shift := compactBlock
	if max := s.writeRow - s.height; shift > max {
		shift = max
	}
	if shift < 1 {
		shift = 1
	}
	copy(s.cells, s.cells[shift*s.width:])
	blank := BlankCell(ColorDefault)
	tail := s.cells[(s.capacity-shift)*s.width:]
	for i := range tail {
		tail[i] = blank
	}
	s.writeRow -= shift
	s.shifted += int64(shift)
	if s.lineStart -= shift; s.lineStart < 0 {
		s.lineStart = 0
	}
	if s.viewRow -= shift; s.viewRow < 0 {
		s.viewRow = 0
	}
	if s.hlActive {
		s.hlFromRow -= shift
		s.hlToRow -= shift
		if s.hlToRow < 0 {
			s.hlActive = false
		} else if s.hlFromRow < 0 {
			s.hlFromRow = 0
			s.hlFromCol = 0
		}
	}
}

// Shifted returns the total rows evicted by compaction over the buffer's
// lifetime.
func (s *Scrollback) Shifted() int64 { return s.shifted }

// tailTop is the view row that puts the write row on the last viewport line.
func (s *Scrollback) tailTop() int {
	top := s.writeRow - (s.height - 1)
	if top < 0 {
		top = 0
	}
	return top
}

func (s *Scrollback) followTail() {
	if !s.frozen {
		s.viewRow = s.tailTop()
	}
}
