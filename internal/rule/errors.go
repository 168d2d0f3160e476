package rule

import (
	"errors"
	"fmt"
)

// Sentinels matched by the typed errors below through errors.Is.
var (
	ErrSyntax          = errors.New("syntax error")
	ErrQuantifierRange = errors.New("quantifier bounds out of range")
	ErrUnboundPOI      = errors.New("POI placeholder outside a binder")
)

// Pos is a location in rule source.
type Pos struct {
	Line   int
	Column int
	Offset int
}

// String returns the position as "line:column".
func (p Pos) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// SyntaxError reports malformed rule source. Errors found while expanding
// macros are positioned in the source as written. Errors found by the
// parser after expansion are positioned in the expanded text, which is the
// source itself when no macro was used. A zero Pos means no position, as
// for a name rejected by Macros.Define.
type SyntaxError struct {
	Message string
	Pos     Pos
}

func (e *SyntaxError) Error() string {
	if e.Pos.Line == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s at %s", e.Message, e.Pos)
}

// Is lets errors.Is match ErrSyntax.
func (e *SyntaxError) Is(target error) bool {
	return target == ErrSyntax
}

// QuantifierRangeError reports {i,j} bounds with i > j or a negative bound.
type QuantifierRangeError struct {
	Min, Max int
	Pos      Pos
}

func (e *QuantifierRangeError) Error() string {
	return fmt.Sprintf("quantifier {%d,%d} out of range at %s", e.Min, e.Max, e.Pos)
}

// Is lets errors.Is match ErrQuantifierRange.
func (e *QuantifierRangeError) Is(target error) bool {
	return target == ErrQuantifierRange
}

// UnboundPOIError reports a '%' cell that no binder encloses.
type UnboundPOIError struct {
	Pos Pos
}

func (e *UnboundPOIError) Error() string {
	return fmt.Sprintf("'%%' used outside a %%piece: binder at %s", e.Pos)
}

// Is lets errors.Is match ErrUnboundPOI.
func (e *UnboundPOIError) Is(target error) bool {
	return target == ErrUnboundPOI
}

func syntaxErrorf(pos Pos, format string, args ...any) error {
	return &SyntaxError{Message: fmt.Sprintf(format, args...), Pos: pos}
}
