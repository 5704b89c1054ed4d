package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/insightdelivered/statement-extractor/internal/parser"
	st "github.com/insightdelivered/statement-extractor/internal/statementtest"
	"github.com/insightdelivered/statement-extractor/internal/writer"
)

func TestProcessFile(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "statement.pdf")
	if err := os.WriteFile(input, st.NewPDF(st.SinglePage()).Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}

	w := &writer.CSVWriter{IncludeHeader: true}
	if err := processFile(context.Background(), input, "", ".csv", w, parser.Options{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out, err := os.ReadFile(filepath.Join(dir, "statement.csv"))
	if err != nil {
		t.Fatalf("expected output file: %v", err)
	}
	if !strings.Contains(string(out), "EFTPOS PURCHASE TEST STORE") {
		t.Errorf("output missing transaction:\n%s", out)
	}
}

func TestProcessFile_Errors(t *testing.T) {
	dir := t.TempDir()
	txt := filepath.Join(dir, "statement.txt")
	if err := os.WriteFile(txt, []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		input string
	}{
		{"missing file", filepath.Join(dir, "missing.pdf")},
		{"not a pdf", txt},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := processFile(context.Background(), tt.input, "", ".csv", &writer.CSVWriter{}, parser.Options{})
			if err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}
