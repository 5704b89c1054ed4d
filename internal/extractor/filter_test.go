package extractor

import (
	"errors"
	"testing"
)

func TestFilterPage(t *testing.T) {
	content := `0.6 0 0 0.6 0 0 cm
		q 0.5 g 0 0 596 842 re f 2 0 0 2 10 10 cm /Im0 Do Q
		BT /F1 9 Tf 1 0 0 1 60 700 Tm (Statement Period) Tj 200 0 Td (01 JAN 2024) Tj ET
		1 w 0 0 m 596 0 l S
		BT 1 0 0 1 60 680 Tm (Date) Tj ET`

	frags, err := FilterPage(NewDecoder(mustParse(t, content)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []Fragment{
		{X: 60, Y: 700, Text: "Statement Period"},
		{X: 260, Y: 700, Text: "01 JAN 2024"},
		{X: 60, Y: 680, Text: "Date"},
	}
	if len(frags) != len(want) {
		t.Fatalf("got %d fragments, want %d: %v", len(frags), len(want), frags)
	}
	for i, w := range want {
		if frags[i] != w {
			t.Errorf("fragment %d: got %+v, want %+v", i, frags[i], w)
		}
	}
}

func TestFilterPage_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    error
	}{
		{"text inside saved state", "q BT 10 10 Td (x) Tj ET Q", ErrTextInSavedState},
		{"unexpected scale", "0.5 0 0 0.5 0 0 cm", ErrUnexpectedScale},
		{"translated scale", "0.6 0 0 0.6 10 0 cm", ErrUnexpectedScale},
		{"pop without push", "Q", ErrUnbalancedState},
		{"decoder error surfaces", "BT (x) Tj", ErrUnterminatedText},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FilterPage(NewDecoder(mustParse(t, tt.content)))
			if !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestFilterPage_RecordsUnrecognized(t *testing.T) {
	dec := NewDecoder(mustParse(t, "zz BT 10 10 Td (x) Tj ET"))
	frags, err := FilterPage(dec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(frags) != 1 {
		t.Errorf("got %d fragments, want 1", len(frags))
	}
	if _, ok := dec.Unrecognized()["zz"]; !ok {
		t.Errorf("zz missing from %v", dec.Unrecognized().Names())
	}
}
