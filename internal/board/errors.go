package board

import (
	"errors"
	"fmt"
)

// ErrDisjoint is matched by every DisjointnessError.
var ErrDisjoint = errors.New("glue of overlapping fragments")

// DisjointnessError reports a glue whose operands share an offset.
type DisjointnessError struct {
	At    Vec
	Left  Content
	Right Content
}

func (e *DisjointnessError) Error() string {
	return fmt.Sprintf("glue of overlapping fragments at %s (%s and %s)", e.At, e.Left, e.Right)
}

// Is lets errors.Is match ErrDisjoint.
func (e *DisjointnessError) Is(target error) bool {
	return target == ErrDisjoint
}
