package extractor

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// OperandKind identifies the type of value carried by an Operand.
type OperandKind int

const (
	KindNull OperandKind = iota
	KindNumber
	KindString
	KindName
	KindArray
	KindBool
	KindDict
)

func (k OperandKind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindName:
		return "name"
	case KindArray:
		return "array"
	case KindBool:
		return "bool"
	case KindDict:
		return "dict"
	}
	return "unknown"
}

// Operand is a single value that precedes an operator in a content stream.
// Dict operands keep their entries in Items as alternating name/value pairs.
type Operand struct {
	Kind  OperandKind
	Num   float64
	Str   string // string bytes or name (without the leading slash)
	Bool  bool
	Items []Operand
}

// Number returns a numeric operand.
func Number(v float64) Operand { return Operand{Kind: KindNumber, Num: v} }

// String returns a string operand holding the raw string bytes.
func String(s string) Operand { return Operand{Kind: KindString, Str: s} }

// Name returns a name operand.
func Name(s string) Operand { return Operand{Kind: KindName, Str: s} }

// Array returns an array operand.
func Array(items ...Operand) Operand { return Operand{Kind: KindArray, Items: items} }

func (o Operand) String() string {
	switch o.Kind {
	case KindNumber:
		return strconv.FormatFloat(o.Num, 'f', -1, 64)
	case KindString:
		return strconv.Quote(o.Str)
	case KindName:
		return "/" + o.Str
	case KindBool:
		return strconv.FormatBool(o.Bool)
	case KindArray:
		parts := make([]string, len(o.Items))
		for i, it := range o.Items {
			parts[i] = it.String()
		}
		return "[" + strings.Join(parts, " ") + "]"
	case KindDict:
		parts := make([]string, len(o.Items))
		for i, it := range o.Items {
			parts[i] = it.String()
		}
		return "<<" + strings.Join(parts, " ") + ">>"
	}
	return "null"
}

// Instruction is one operator together with the operands that preceded it.
type Instruction struct {
	Operator string
	Operands []Operand
}

func (in Instruction) String() string {
	if len(in.Operands) == 0 {
		return in.Operator
	}
	parts := make([]string, len(in.Operands))
	for i, o := range in.Operands {
		parts[i] = o.String()
	}
	return strings.Join(parts, " ") + " " + in.Operator
}

// OperatorSet accumulates operator names the decoder did not recognise.
type OperatorSet map[string]struct{}

// Add records an operator name.
func (s OperatorSet) Add(op string) { s[op] = struct{}{} }

// Merge adds every operator from other.
func (s OperatorSet) Merge(other OperatorSet) {
	for op := range other {
		s[op] = struct{}{}
	}
}

// Names returns the operators in sorted order.
func (s OperatorSet) Names() []string {
	names := make([]string, 0, len(s))
	for op := range s {
		names = append(names, op)
	}
	sort.Strings(names)
	return names
}

// numbers checks that ops has exactly n numeric operands and returns them.
func numbers(op string, ops []Operand, n int) ([]float64, error) {
	if len(ops) != n {
		return nil, fmt.Errorf("%w: %s expects %d operands, got %d", ErrOperands, op, n, len(ops))
	}
	vals := make([]float64, n)
	for i, o := range ops {
		if o.Kind != KindNumber {
			return nil, fmt.Errorf("%w: %s operand %d is a %s, want number", ErrOperands, op, i, o.Kind)
		}
		vals[i] = o.Num
	}
	return vals, nil
}
