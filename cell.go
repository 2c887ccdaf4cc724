package mudterm

// Cell is a single attributed character cell: the display byte in the low
// eight bits and the packed style byte in the high eight bits. Cells are
// byte oriented; no character set interpretation happens at this layer.
type Cell uint16

// MakeCell packs a display byte and a style byte into a Cell.
func MakeCell(ch byte, color Color) Cell {
	return Cell(uint16(color)<<8 | uint16(ch))
}

// BlankCell returns a space in the given style. Cleared regions of the
// scrollback always hold blank cells, never zero values.
func BlankCell(color Color) Cell {
	return MakeCell(' ', color)
}

// Ch returns the display byte.
func (c Cell) Ch() byte { return byte(c) }

// Color returns the packed style byte.
func (c Cell) Color() Color { return byte(c >> 8) }

// WithColor returns the cell restyled, keeping its display byte.
func (c Cell) WithColor(color Color) Cell {
	return MakeCell(c.Ch(), color)
}

// Alternate character set glyphs occupy a reserved byte range; the renderer
// brackets runs of them with the terminal's enter/exit ACS strings.
const (
	AcsBase  byte = 0xEC
	acsCount byte = 8
)

// Box drawing glyphs within the ACS range.
const (
	AcsVLine = AcsBase + iota
	AcsHLine
	AcsULCorner
	AcsURCorner
	AcsLLCorner
	AcsLRCorner
	AcsLTee
	AcsRTee
)

// IsAcs reports whether the display byte is an alternate-charset glyph.
func IsAcs(ch byte) bool {
	return ch >= AcsBase && ch < AcsBase+acsCount
}

// cellsToString extracts the display bytes of a run of cells, mapping
// control bytes to spaces.
func cellsToString(cells []Cell) string {
	out := make([]byte, len(cells))
	for i, c := range cells {
		ch := c.Ch()
		if ch < 0x20 {
			ch = ' '
		}
		out[i] = ch
	}
	return string(out)
}
