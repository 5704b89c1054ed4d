package extractor

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/ledongthuc/pdf"
)

// ErrCropBox is returned for a page whose crop box is not the statement page size.
var ErrCropBox = errors.New("unexpected page crop box")

// StatementCropBox is the page rectangle (llx, lly, urx, ury) every statement page declares.
var StatementCropBox = [4]float64{0, 0, 596, 842}

// Document is a PDF opened with ledongthuc/pdf that yields per-page
// content-stream instructions.
type Document struct {
	r *pdf.Reader
	c io.Closer
}

// Open opens the PDF at path. Close must be called when done.
func Open(path string) (doc *Document, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("PDF library crashed opening %s: %v", path, r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, err
	}
	if r.NumPage() == 0 {
		f.Close()
		return nil, fmt.Errorf("PDF has no pages")
	}
	return &Document{r: r, c: f}, nil
}

// NewDocument reads a PDF from an in-memory or on-disk source.
func NewDocument(ra io.ReaderAt, size int64) (doc *Document, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("PDF library crashed: %v", r)
		}
	}()

	r, err := pdf.NewReader(ra, size)
	if err != nil {
		return nil, err
	}
	if r.NumPage() == 0 {
		return nil, fmt.Errorf("PDF has no pages")
	}
	if f, ok := ra.(*os.File); ok {
		return &Document{r: r, c: f}, nil
	}
	return &Document{r: r}, nil
}

// Close releases the underlying file, if any.
func (d *Document) Close() error {
	if d.c == nil {
		return nil
	}
	return d.c.Close()
}

// NumPages returns the page count.
func (d *Document) NumPages() int {
	return d.r.NumPage()
}

// Instructions returns the content-stream instructions of the zero-based page,
// after checking the page geometry.
func (d *Document) Instructions(page int) (instrs []Instruction, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("PDF library crashed reading page %d: %v", page+1, r)
		}
	}()

	p := d.r.Page(page + 1)
	if p.V.IsNull() {
		return nil, fmt.Errorf("page %d not found", page+1)
	}
	if err := checkCropBox(p.V); err != nil {
		return nil, fmt.Errorf("page %d: %w", page+1, err)
	}

	contents := p.V.Key("Contents")
	switch contents.Kind() {
	case pdf.Null:
		return nil, nil
	case pdf.Array:
		for i := 0; i < contents.Len(); i++ {
			part, err := interpret(contents.Index(i))
			if err != nil {
				return nil, fmt.Errorf("page %d stream %d: %w", page+1, i, err)
			}
			instrs = append(instrs, part...)
		}
	default:
		if instrs, err = interpret(contents); err != nil {
			return nil, fmt.Errorf("page %d: %w", page+1, err)
		}
	}
	return instrs, nil
}

// interpret runs the library's content interpreter over one stream. The
// interpreter panics on operators it treats as PostScript (begin, end, def)
// and on lexical forms it is stricter about than our scanner, so those
// streams are re-read and tokenized with ParseContent instead.
func interpret(strm pdf.Value) ([]Instruction, error) {
	instrs, ok := interpretLib(strm)
	if ok {
		return instrs, nil
	}
	data, err := streamBytes(strm)
	if err != nil {
		return nil, err
	}
	return ParseContent(data)
}

func interpretLib(strm pdf.Value) (instrs []Instruction, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			instrs, ok = nil, false
		}
	}()
	pdf.Interpret(strm, func(stk *pdf.Stack, op string) {
		n := stk.Len()
		args := make([]Operand, n)
		for i := n - 1; i >= 0; i-- {
			args[i] = operandFromValue(stk.Pop())
		}
		instrs = append(instrs, Instruction{Operator: op, Operands: args})
	})
	return instrs, true
}

// streamBytes returns the decoded bytes of a content stream.
func streamBytes(strm pdf.Value) (data []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("reading content stream: %v", r)
		}
	}()
	rd := strm.Reader()
	defer rd.Close()
	data, err = io.ReadAll(rd)
	if err != nil {
		return nil, fmt.Errorf("reading content stream: %w", err)
	}
	return data, nil
}

func operandFromValue(v pdf.Value) Operand {
	switch v.Kind() {
	case pdf.Integer, pdf.Real:
		return Number(v.Float64())
	case pdf.String:
		return String(v.RawString())
	case pdf.Name:
		return Name(v.Name())
	case pdf.Bool:
		return Operand{Kind: KindBool, Bool: v.Bool()}
	case pdf.Array:
		items := make([]Operand, v.Len())
		for i := range items {
			items[i] = operandFromValue(v.Index(i))
		}
		return Operand{Kind: KindArray, Items: items}
	case pdf.Dict:
		var items []Operand
		for _, k := range v.Keys() {
			items = append(items, Name(k), operandFromValue(v.Key(k)))
		}
		return Operand{Kind: KindDict, Items: items}
	}
	return Operand{Kind: KindNull}
}

// checkCropBox compares the page's effective crop box with StatementCropBox.
// CropBox and MediaBox are inheritable; CropBox defaults to MediaBox.
func checkCropBox(page pdf.Value) error {
	box := inherited(page, "CropBox")
	if box.IsNull() {
		box = inherited(page, "MediaBox")
	}
	if box.Kind() != pdf.Array || box.Len() != 4 {
		return fmt.Errorf("%w: %v", ErrCropBox, box)
	}
	var got [4]float64
	for i := range got {
		got[i] = box.Index(i).Float64()
	}
	if got != StatementCropBox {
		return fmt.Errorf("%w: got %v, want %v", ErrCropBox, got, StatementCropBox)
	}
	return nil
}

func inherited(v pdf.Value, key string) pdf.Value {
	for depth := 0; !v.IsNull() && depth < 32; depth++ {
		if val := v.Key(key); !val.IsNull() {
			return val
		}
		v = v.Key("Parent")
	}
	return pdf.Value{}
}
