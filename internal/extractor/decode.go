package extractor

import (
	"fmt"
	"io"
	"strings"
)

// Decoder turns one page's instructions into Operations on demand.
// BT ... ET sequences are folded into a single TextBlock.
type Decoder struct {
	instrs []Instruction
	pos    int
	seen   OperatorSet
}

// NewDecoder returns a decoder over the given page instructions.
func NewDecoder(instrs []Instruction) *Decoder {
	return &Decoder{instrs: instrs, seen: OperatorSet{}}
}

// Unrecognized returns the operators seen so far that have no typed Operation.
func (d *Decoder) Unrecognized() OperatorSet {
	return d.seen
}

// Next returns the next operation, or io.EOF once the page is exhausted.
func (d *Decoder) Next() (Operation, error) {
	if d.pos >= len(d.instrs) {
		return nil, io.EOF
	}
	in := d.instrs[d.pos]
	d.pos++

	if in.Operator == "BT" {
		return d.textBlock()
	}
	if build, ok := simpleOperations[in.Operator]; ok {
		op, err := build(in.Operands)
		if err != nil {
			return nil, fmt.Errorf("instruction %d: %w", d.pos-1, err)
		}
		return op, nil
	}
	d.seen.Add(in.Operator)
	return Unrecognized{Operator: in.Operator, Operands: in.Operands}, nil
}

// textBlock consumes instructions up to and including ET.
func (d *Decoder) textBlock() (Operation, error) {
	start := d.pos - 1
	var (
		block TextBlock
		line  Point
	)
	for d.pos < len(d.instrs) {
		in := d.instrs[d.pos]
		d.pos++

		switch in.Operator {
		case "ET":
			return block, nil
		case "Td":
			v, err := numbers("Td", in.Operands, 2)
			if err != nil {
				return nil, fmt.Errorf("instruction %d: %w", d.pos-1, err)
			}
			line.X += v[0]
			line.Y += v[1]
		case "Tm":
			v, err := numbers("Tm", in.Operands, 6)
			if err != nil {
				return nil, fmt.Errorf("instruction %d: %w", d.pos-1, err)
			}
			if v[1] != 0 || v[2] != 0 {
				return nil, fmt.Errorf("instruction %d: %w: %v", d.pos-1, ErrUnsupportedMatrix, v)
			}
			line = Point{v[4], v[5]}
		case "Tj", "TJ":
			if len(in.Operands) != 1 {
				return nil, fmt.Errorf("instruction %d: %w: %s expects 1 operand, got %d",
					d.pos-1, ErrOperands, in.Operator, len(in.Operands))
			}
			text, err := showText(in.Operator, in.Operands[0])
			if err != nil {
				return nil, fmt.Errorf("instruction %d: %w", d.pos-1, err)
			}
			if n := len(block.Runs); n > 0 && block.Runs[n-1].Pos == line {
				return nil, fmt.Errorf("instruction %d: %w: %q and %q at %v",
					d.pos-1, ErrDuplicateRun, block.Runs[n-1].Text, text, line)
			}
			block.Runs = append(block.Runs, Run{Pos: line, Text: text})
		case "Tf":
			// font selection does not move the text position
		default:
			return nil, fmt.Errorf("instruction %d: %w: %s", d.pos-1, ErrTextOperator, in)
		}
	}
	return nil, fmt.Errorf("%w: BT at instruction %d has no ET", ErrUnterminatedText, start)
}

// showText extracts the string shown by Tj, or the strings of a TJ array
// with their spacing adjustments dropped.
func showText(op string, o Operand) (string, error) {
	switch {
	case o.Kind == KindString:
		return o.Str, nil
	case op == "TJ" && o.Kind == KindArray:
		var b strings.Builder
		for _, it := range o.Items {
			switch it.Kind {
			case KindString:
				b.WriteString(it.Str)
			case KindNumber:
			default:
				return "", fmt.Errorf("%w: TJ array element %s", ErrOperands, it)
			}
		}
		return b.String(), nil
	}
	return "", fmt.Errorf("%w: %s operand is a %s", ErrOperands, op, o.Kind)
}
