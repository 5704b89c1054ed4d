package extractor

import (
	"errors"
	"fmt"
)

var (
	// ErrOperands is returned when an operator's operand count, types or ranges are wrong.
	ErrOperands = errors.New("invalid operands")
	// ErrUnsupportedMatrix is returned for a text matrix with shear components.
	ErrUnsupportedMatrix = errors.New("unsupported text matrix")
	// ErrDuplicateRun is returned when two consecutive text runs share a position.
	ErrDuplicateRun = errors.New("duplicate text run position")
	// ErrTextOperator is returned for an operator outside the text-object grammar.
	ErrTextOperator = errors.New("unexpected operator in text object")
	// ErrUnterminatedText is returned when a page ends inside a text object.
	ErrUnterminatedText = errors.New("unterminated text object")
)

// Operation is a decoded content-stream instruction.
type Operation interface {
	// Op returns the content-stream operator the operation was built from.
	Op() string
}

// Point is a position in page or text space.
type Point struct {
	X, Y float64
}

type (
	PushState  struct{}
	PopState   struct{}
	StrokePath struct{}
	FillPath   struct{}
	ClosePath  struct{}

	DrawXObject struct{ Name string }

	Rectangle struct {
		Origin        Point
		Width, Height float64
	}

	MoveTo struct{ Point Point }
	LineTo struct{ Point Point }

	// StrokeGray and FillGray carry a gray level in [0, 1].
	StrokeGray struct{ Level float64 }
	FillGray   struct{ Level float64 }

	LineWidth struct{ Width float64 }

	DashPattern struct {
		Pattern []float64
		Phase   float64
	}

	WordSpacing struct{ Width float64 }
	CharSpacing struct{ Width float64 }
	RenderMode  struct{ Mode int }

	// ConcatMatrix is the cm operator: [a b 0; c d 0; e f 1].
	ConcatMatrix struct {
		A, B, C, D, E, F float64
	}

	// Unrecognized is any top-level operator outside the recognised set.
	Unrecognized struct {
		Operator string
		Operands []Operand
	}
)

// Run is one piece of text shown at an absolute position.
type Run struct {
	Pos  Point
	Text string
}

// TextBlock is a complete BT ... ET text object.
type TextBlock struct {
	Runs []Run
}

func (PushState) Op() string    { return "q" }
func (PopState) Op() string     { return "Q" }
func (StrokePath) Op() string   { return "S" }
func (FillPath) Op() string     { return "f" }
func (ClosePath) Op() string    { return "h" }
func (DrawXObject) Op() string  { return "Do" }
func (Rectangle) Op() string    { return "re" }
func (MoveTo) Op() string       { return "m" }
func (LineTo) Op() string       { return "l" }
func (StrokeGray) Op() string   { return "G" }
func (FillGray) Op() string     { return "g" }
func (LineWidth) Op() string    { return "w" }
func (DashPattern) Op() string  { return "d" }
func (WordSpacing) Op() string  { return "Tw" }
func (CharSpacing) Op() string  { return "Tc" }
func (RenderMode) Op() string   { return "Tr" }
func (ConcatMatrix) Op() string { return "cm" }
func (TextBlock) Op() string    { return "BT" }
func (u Unrecognized) Op() string {
	return u.Operator
}

// Matrix returns the transform as a row-major 3x3 matrix.
func (m ConcatMatrix) Matrix() [3][3]float64 {
	return [3][3]float64{
		{m.A, m.B, 0},
		{m.C, m.D, 0},
		{m.E, m.F, 1},
	}
}

func (m ConcatMatrix) String() string {
	return fmt.Sprintf("%v", m.Matrix())
}

type constructor func(ops []Operand) (Operation, error)

// simpleOperations maps every recognised top-level operator to its constructor.
var simpleOperations = map[string]constructor{
	"q": noOperands("q", PushState{}),
	"Q": noOperands("Q", PopState{}),
	"S": noOperands("S", StrokePath{}),
	"f": noOperands("f", FillPath{}),
	"h": noOperands("h", ClosePath{}),
	"Do": func(ops []Operand) (Operation, error) {
		if len(ops) != 1 || ops[0].Kind != KindName {
			return nil, fmt.Errorf("%w: Do expects one name operand, got %v", ErrOperands, ops)
		}
		return DrawXObject{Name: ops[0].Str}, nil
	},
	"re": func(ops []Operand) (Operation, error) {
		v, err := numbers("re", ops, 4)
		if err != nil {
			return nil, err
		}
		return Rectangle{Origin: Point{v[0], v[1]}, Width: v[2], Height: v[3]}, nil
	},
	"m": func(ops []Operand) (Operation, error) {
		v, err := numbers("m", ops, 2)
		if err != nil {
			return nil, err
		}
		return MoveTo{Point: Point{v[0], v[1]}}, nil
	},
	"l": func(ops []Operand) (Operation, error) {
		v, err := numbers("l", ops, 2)
		if err != nil {
			return nil, err
		}
		return LineTo{Point: Point{v[0], v[1]}}, nil
	},
	"G": func(ops []Operand) (Operation, error) {
		level, err := grayLevel("G", ops)
		if err != nil {
			return nil, err
		}
		return StrokeGray{Level: level}, nil
	},
	"g": func(ops []Operand) (Operation, error) {
		level, err := grayLevel("g", ops)
		if err != nil {
			return nil, err
		}
		return FillGray{Level: level}, nil
	},
	"w": func(ops []Operand) (Operation, error) {
		v, err := numbers("w", ops, 1)
		if err != nil {
			return nil, err
		}
		if v[0] < 0 {
			return nil, fmt.Errorf("%w: negative line width %v", ErrOperands, v[0])
		}
		return LineWidth{Width: v[0]}, nil
	},
	"d": func(ops []Operand) (Operation, error) {
		if len(ops) != 2 || ops[0].Kind != KindArray || ops[1].Kind != KindNumber {
			return nil, fmt.Errorf("%w: d expects [array phase], got %v", ErrOperands, ops)
		}
		pattern, err := numbers("d", ops[0].Items, len(ops[0].Items))
		if err != nil {
			return nil, err
		}
		return DashPattern{Pattern: pattern, Phase: ops[1].Num}, nil
	},
	"Tw": func(ops []Operand) (Operation, error) {
		v, err := numbers("Tw", ops, 1)
		if err != nil {
			return nil, err
		}
		return WordSpacing{Width: v[0]}, nil
	},
	"Tc": func(ops []Operand) (Operation, error) {
		v, err := numbers("Tc", ops, 1)
		if err != nil {
			return nil, err
		}
		return CharSpacing{Width: v[0]}, nil
	},
	"Tr": func(ops []Operand) (Operation, error) {
		v, err := numbers("Tr", ops, 1)
		if err != nil {
			return nil, err
		}
		return RenderMode{Mode: int(v[0])}, nil
	},
	"cm": func(ops []Operand) (Operation, error) {
		v, err := numbers("cm", ops, 6)
		if err != nil {
			return nil, err
		}
		return ConcatMatrix{A: v[0], B: v[1], C: v[2], D: v[3], E: v[4], F: v[5]}, nil
	},
}

func noOperands(op string, value Operation) constructor {
	return func(ops []Operand) (Operation, error) {
		if len(ops) != 0 {
			return nil, fmt.Errorf("%w: %s takes no operands, got %d", ErrOperands, op, len(ops))
		}
		return value, nil
	}
}

func grayLevel(op string, ops []Operand) (float64, error) {
	v, err := numbers(op, ops, 1)
	if err != nil {
		return 0, err
	}
	if v[0] < 0 || v[0] > 1 {
		return 0, fmt.Errorf("%w: %s gray level %v outside [0, 1]", ErrOperands, op, v[0])
	}
	return v[0], nil
}
