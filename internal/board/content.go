package board

// Color represents the side a piece belongs to.
type Color uint8

const (
	White Color = iota
	Black
	NoColor Color = 2
)

// Other returns the opposite color.
func (c Color) Other() Color {
	if c == NoColor {
		return NoColor
	}
	return c ^ 1
}

// String returns the color name.
func (c Color) String() string {
	switch c {
	case White:
		return "White"
	case Black:
		return "Black"
	default:
		return "NoColor"
	}
}

// Content is the value held by a single cell: a piece symbol or one of the
// reserved markers below.
type Content rune

const (
	// Empty is an on-board cell with no piece.
	Empty Content = '.'
	// OffBoard is read for every cell outside the board, and for holes.
	OffBoard Content = '#'
	// POI is the pattern placeholder for the bound piece instance.
	POI Content = '%'
)

// Chess glyph ranges: the six white pieces, then the six black ones.
const (
	whiteKing Content = '♔'
	blackKing Content = '♚'
	blackPawn Content = '♟'
)

// IsPiece reports whether the content is a concrete piece symbol.
func (c Content) IsPiece() bool {
	switch c {
	case 0, Empty, OffBoard, POI, ' ':
		return false
	}
	return true
}

// Swap returns the content with its colour exchanged. Letters change case,
// chess glyphs change side, and everything else is fixed.
func (c Content) Swap() Content {
	switch {
	case c >= 'a' && c <= 'z':
		return c - 'a' + 'A'
	case c >= 'A' && c <= 'Z':
		return c - 'A' + 'a'
	case c >= whiteKing && c < blackKing:
		return c + 6
	case c >= blackKing && c <= blackPawn:
		return c - 6
	}
	return c
}

// Color returns the side of a piece, or NoColor for markers and symbols
// without a side.
func (c Content) Color() Color {
	switch {
	case c >= 'A' && c <= 'Z', c >= whiteKing && c < blackKing:
		return White
	case c >= 'a' && c <= 'z', c >= blackKing && c <= blackPawn:
		return Black
	}
	return NoColor
}

// String returns the content as a one-rune string.
func (c Content) String() string {
	if c == 0 {
		return " "
	}
	return string(c)
}
