package extractor_test

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/insightdelivered/statement-extractor/internal/extractor"
	st "github.com/insightdelivered/statement-extractor/internal/statementtest"
)

func openBytes(t *testing.T, data []byte) *extractor.Document {
	t.Helper()
	doc, err := extractor.NewDocument(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("NewDocument: %v", err)
	}
	return doc
}

func TestDocument_Instructions(t *testing.T) {
	doc := openBytes(t, st.NewPDF("0.6 0 0 0.6 0 0 cm BT 1 0 0 1 10 20 Tm (hi) Tj ET", "q Q").Bytes())
	defer doc.Close()

	if doc.NumPages() != 2 {
		t.Fatalf("got %d pages, want 2", doc.NumPages())
	}

	instrs, err := doc.Instructions(0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var ops []string
	for _, in := range instrs {
		ops = append(ops, in.Operator)
	}
	want := []string{"cm", "BT", "Tm", "Tj", "ET"}
	if len(ops) != len(want) {
		t.Fatalf("got operators %v, want %v", ops, want)
	}
	for i := range want {
		if ops[i] != want[i] {
			t.Errorf("operator %d: got %q, want %q", i, ops[i], want[i])
		}
	}
	if tj := instrs[3]; len(tj.Operands) != 1 || tj.Operands[0].Str != "hi" {
		t.Errorf("Tj operands: got %v", tj.Operands)
	}
	if tm := instrs[2]; len(tm.Operands) != 6 || tm.Operands[4].Num != 10 {
		t.Errorf("Tm operands: got %v", tm.Operands)
	}

	if _, err := doc.Instructions(5); err == nil {
		t.Error("expected error for missing page")
	}
}

func TestDocument_InstructionsFallback(t *testing.T) {
	// the library's interpreter panics on an unmatched end; the scanner
	// reports it as an ordinary operator
	doc := openBytes(t, st.NewPDF("q BT 1 0 0 1 10 20 Tm (hi) Tj ET Q end").Bytes())
	defer doc.Close()

	instrs, err := doc.Instructions(0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var ops []string
	for _, in := range instrs {
		ops = append(ops, in.Operator)
	}
	want := []string{"q", "BT", "Tm", "Tj", "ET", "Q", "end"}
	if strings.Join(ops, " ") != strings.Join(want, " ") {
		t.Fatalf("got operators %v, want %v", ops, want)
	}
	if tj := instrs[3]; len(tj.Operands) != 1 || tj.Operands[0].Str != "hi" {
		t.Errorf("Tj operands: got %v", tj.Operands)
	}
}

func TestDocument_InstructionsFallbackSyntax(t *testing.T) {
	doc := openBytes(t, st.NewPDF("q Q end ]").Bytes())
	defer doc.Close()

	if _, err := doc.Instructions(0); !errors.Is(err, extractor.ErrSyntax) {
		t.Errorf("got %v, want ErrSyntax", err)
	}
}

func TestDocument_CropBox(t *testing.T) {
	pdf := st.NewPDF("q Q")
	pdf.MediaBox = [4]float64{0, 0, 612, 792}
	doc := openBytes(t, pdf.Bytes())
	defer doc.Close()

	if _, err := doc.Instructions(0); !errors.Is(err, extractor.ErrCropBox) {
		t.Errorf("got %v, want ErrCropBox", err)
	}
}

func TestOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "statement.pdf")
	if err := os.WriteFile(path, st.NewPDF(st.SinglePage()).Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}

	doc, err := extractor.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer doc.Close()
	if doc.NumPages() != 1 {
		t.Errorf("got %d pages, want 1", doc.NumPages())
	}

	if _, err := extractor.Open(filepath.Join(t.TempDir(), "missing.pdf")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestNewDocument_NotPDF(t *testing.T) {
	data := []byte("not a pdf")
	if _, err := extractor.NewDocument(bytes.NewReader(data), int64(len(data))); err == nil {
		t.Error("expected error")
	}
}
