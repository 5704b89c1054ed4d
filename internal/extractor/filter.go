package extractor

import (
	"errors"
	"fmt"
	"io"
)

var (
	// ErrTextInSavedState is returned for a text object inside q ... Q.
	ErrTextInSavedState = errors.New("text object in pushed graphics state")
	// ErrUnbalancedState is returned when Q has no matching q.
	ErrUnbalancedState = errors.New("graphics state pop without push")
	// ErrUnexpectedScale is returned for a top-level cm other than the page scale.
	ErrUnexpectedScale = errors.New("unexpected transformation matrix")
)

// PageScale is the only top-level transform the statement layout uses:
// a uniform 0.6 scale with no translation or shear.
var PageScale = ConcatMatrix{A: 0.6, D: 0.6}

// Fragment is a piece of text at a page position.
type Fragment struct {
	X, Y float64
	Text string
}

// FilterPage drains the decoder and returns the text fragments drawn outside
// any saved graphics state, in document order.
func FilterPage(dec *Decoder) ([]Fragment, error) {
	var (
		frags []Fragment
		depth int
	)
	for {
		op, err := dec.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		switch o := op.(type) {
		case PushState:
			depth++
			continue
		case PopState:
			depth--
			if depth < 0 {
				return nil, ErrUnbalancedState
			}
			continue
		case TextBlock:
			if depth > 0 {
				return nil, fmt.Errorf("%w: depth %d, runs %v", ErrTextInSavedState, depth, o.Runs)
			}
			for _, r := range o.Runs {
				frags = append(frags, Fragment{X: r.Pos.X, Y: r.Pos.Y, Text: r.Text})
			}
		case ConcatMatrix:
			if depth == 0 && o != PageScale {
				return nil, fmt.Errorf("%w: %v", ErrUnexpectedScale, o)
			}
		}
	}
	return frags, nil
}
