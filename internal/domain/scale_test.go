package domain

import (
	"errors"
	"testing"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		// Atomic-scale integer strings (>= 10000).
		{"400000", "0.4"},
		{"5728800", "5.7288"},
		{"10000", "0.01"},
		{"-20000", "-0.02"},
		// Human-scale values.
		{"0.45", "0.45"},
		{"9999", "9999"},
		{"12.5", "12.5"},
		{"0", "0"},
		{" 400000 ", "0.4"},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if err != nil {
			t.Errorf("ParseAmount(%q): %v", tc.in, err)
			continue
		}
		if got.String() != tc.want {
			t.Errorf("ParseAmount(%q) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestParseAmountMalformed(t *testing.T) {
	for _, in := range []string{"", "abc", "1.2.3"} {
		_, err := ParseAmount(in)
		if !errors.Is(err, ErrTransport) {
			t.Errorf("ParseAmount(%q) error = %v, want ErrTransport", in, err)
		}
	}
}

func TestToAtomicString(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"0.4", "400000"},
		{"10.23", "10230000"},
		{"0.0000001", "0"},
		{"5.7288", "5728800"},
	}
	for _, tc := range cases {
		d, err := ParseAmount(tc.in)
		if err != nil {
			t.Fatalf("ParseAmount(%q): %v", tc.in, err)
		}
		if got := ToAtomicString(d); got != tc.want {
			t.Errorf("ToAtomicString(%s) = %s, want %s", tc.in, got, tc.want)
		}
	}
}
