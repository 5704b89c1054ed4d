package extractor

import (
	"bytes"
	"compress/zlib"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strconv"
)

// ErrSyntax is returned for malformed content-stream bytes.
var ErrSyntax = errors.New("content stream syntax error")

// ParseContent tokenizes raw content-stream bytes into instructions.
// Flate-compressed input is inflated first.
//
// Document.Instructions falls back to it for streams the PDF library's
// interpreter rejects. Test fixtures are written in the same syntax:
//
//	BT /F1 9 Tf 1 0 0 1 60 700 Tm (OPENING BALANCE) Tj ET
func ParseContent(data []byte) ([]Instruction, error) {
	s := &scanner{data: tryDecompress(data)}
	return s.parse()
}

// tryDecompress attempts zlib decompression; returns original data if it fails.
func tryDecompress(data []byte) []byte {
	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return data
	}
	defer r.Close()

	out, err := io.ReadAll(r)
	if err != nil {
		return data
	}
	return out
}

type scanner struct {
	data []byte
	pos  int
}

// frame collects operands while inside an array or dictionary.
type frame struct {
	kind  OperandKind
	items []Operand
}

func (s *scanner) parse() ([]Instruction, error) {
	var (
		instrs []Instruction
		stack  []Operand
		frames []frame
	)
	push := func(o Operand) {
		if n := len(frames); n > 0 {
			frames[n-1].items = append(frames[n-1].items, o)
			return
		}
		stack = append(stack, o)
	}

	for {
		s.skipSpace()
		if s.pos >= len(s.data) {
			break
		}
		start := s.pos
		c := s.data[s.pos]

		switch {
		case c == '(':
			str, err := s.literal()
			if err != nil {
				return nil, err
			}
			push(String(str))
		case c == '<' && s.peek(1) == '<':
			s.pos += 2
			frames = append(frames, frame{kind: KindDict})
		case c == '>' && s.peek(1) == '>':
			s.pos += 2
			n := len(frames)
			if n == 0 || frames[n-1].kind != KindDict {
				return nil, fmt.Errorf("%w: unmatched >> at %d", ErrSyntax, start)
			}
			f := frames[n-1]
			frames = frames[:n-1]
			push(Operand{Kind: KindDict, Items: f.items})
		case c == '<':
			str, err := s.hexString()
			if err != nil {
				return nil, err
			}
			push(String(str))
		case c == '[':
			s.pos++
			frames = append(frames, frame{kind: KindArray})
		case c == ']':
			s.pos++
			n := len(frames)
			if n == 0 || frames[n-1].kind != KindArray {
				return nil, fmt.Errorf("%w: unmatched ] at %d", ErrSyntax, start)
			}
			f := frames[n-1]
			frames = frames[:n-1]
			push(Operand{Kind: KindArray, Items: f.items})
		case c == '/':
			s.pos++
			push(Name(s.name()))
		case c == '+' || c == '-' || c == '.' || (c >= '0' && c <= '9'):
			tok := s.regular()
			v, err := strconv.ParseFloat(tok, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: bad number %q at %d", ErrSyntax, tok, start)
			}
			push(Number(v))
		case isDelimiter(c):
			return nil, fmt.Errorf("%w: unexpected %q at %d", ErrSyntax, c, start)
		default:
			tok := s.regular()
			switch tok {
			case "true", "false":
				push(Operand{Kind: KindBool, Bool: tok == "true"})
				continue
			case "null":
				push(Operand{Kind: KindNull})
				continue
			}
			if len(frames) > 0 {
				return nil, fmt.Errorf("%w: operator %s inside array or dictionary at %d", ErrSyntax, tok, start)
			}
			instrs = append(instrs, Instruction{Operator: tok, Operands: stack})
			stack = nil
			if tok == "ID" {
				if err := s.skipInlineImage(); err != nil {
					return nil, err
				}
				instrs = append(instrs, Instruction{Operator: "EI"})
			}
		}
	}

	if len(frames) > 0 {
		return nil, fmt.Errorf("%w: unterminated array or dictionary", ErrSyntax)
	}
	if len(stack) > 0 {
		return nil, fmt.Errorf("%w: %d trailing operands without operator", ErrSyntax, len(stack))
	}
	return instrs, nil
}

func (s *scanner) peek(off int) byte {
	if s.pos+off < len(s.data) {
		return s.data[s.pos+off]
	}
	return 0
}

func (s *scanner) skipSpace() {
	for s.pos < len(s.data) {
		c := s.data[s.pos]
		if c == '%' {
			for s.pos < len(s.data) && s.data[s.pos] != '\n' && s.data[s.pos] != '\r' {
				s.pos++
			}
			continue
		}
		if !isSpace(c) {
			return
		}
		s.pos++
	}
}

func (s *scanner) regular() string {
	start := s.pos
	for s.pos < len(s.data) && !isSpace(s.data[s.pos]) && !isDelimiter(s.data[s.pos]) {
		s.pos++
	}
	return string(s.data[start:s.pos])
}

// name reads a name token, resolving #xx escapes.
func (s *scanner) name() string {
	raw := s.regular()
	var buf bytes.Buffer
	for i := 0; i < len(raw); i++ {
		if raw[i] == '#' && i+2 < len(raw) {
			if b, err := hex.DecodeString(raw[i+1 : i+3]); err == nil {
				buf.WriteByte(b[0])
				i += 2
				continue
			}
		}
		buf.WriteByte(raw[i])
	}
	return buf.String()
}

// literal reads a (...) string, honouring nested parentheses and escapes.
func (s *scanner) literal() (string, error) {
	start := s.pos
	s.pos++
	depth := 1
	var buf bytes.Buffer
	for s.pos < len(s.data) {
		c := s.data[s.pos]
		s.pos++
		switch c {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return buf.String(), nil
			}
		case '\\':
			if s.pos >= len(s.data) {
				return "", fmt.Errorf("%w: unterminated string at %d", ErrSyntax, start)
			}
			e := s.data[s.pos]
			s.pos++
			switch e {
			case 'n':
				buf.WriteByte('\n')
			case 'r':
				buf.WriteByte('\r')
			case 't':
				buf.WriteByte('\t')
			case 'b':
				buf.WriteByte('\b')
			case 'f':
				buf.WriteByte('\f')
			case '\r':
				if s.pos < len(s.data) && s.data[s.pos] == '\n' {
					s.pos++
				}
			case '\n':
			default:
				if e >= '0' && e <= '7' {
					val := int(e - '0')
					for j := 0; j < 2 && s.pos < len(s.data) && s.data[s.pos] >= '0' && s.data[s.pos] <= '7'; j++ {
						val = val*8 + int(s.data[s.pos]-'0')
						s.pos++
					}
					buf.WriteByte(byte(val))
				} else {
					buf.WriteByte(e)
				}
			}
			continue
		}
		buf.WriteByte(c)
	}
	return "", fmt.Errorf("%w: unterminated string at %d", ErrSyntax, start)
}

// hexString reads a <...> string; an odd final digit is padded with 0.
func (s *scanner) hexString() (string, error) {
	start := s.pos
	s.pos++
	var digits []byte
	for s.pos < len(s.data) {
		c := s.data[s.pos]
		s.pos++
		if c == '>' {
			if len(digits)%2 == 1 {
				digits = append(digits, '0')
			}
			raw, err := hex.DecodeString(string(digits))
			if err != nil {
				return "", fmt.Errorf("%w: bad hex string at %d: %v", ErrSyntax, start, err)
			}
			return string(raw), nil
		}
		if !isSpace(c) {
			digits = append(digits, c)
		}
	}
	return "", fmt.Errorf("%w: unterminated hex string at %d", ErrSyntax, start)
}

// skipInlineImage moves past binary inline image data up to the EI keyword.
func (s *scanner) skipInlineImage() error {
	start := s.pos
	for i := s.pos; i+1 < len(s.data); i++ {
		if s.data[i] != 'E' || s.data[i+1] != 'I' {
			continue
		}
		before := i == 0 || isSpace(s.data[i-1])
		after := i+2 >= len(s.data) || isSpace(s.data[i+2]) || isDelimiter(s.data[i+2])
		if before && after {
			s.pos = i + 2
			return nil
		}
	}
	return fmt.Errorf("%w: inline image at %d has no EI", ErrSyntax, start)
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\r', '\n', '\f', 0:
		return true
	}
	return false
}

func isDelimiter(c byte) bool {
	switch c {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}
