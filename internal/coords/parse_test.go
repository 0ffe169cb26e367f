package coords

import (
	"errors"
	"testing"
)

func TestParse(t *testing.T) {
	cases := []struct {
		name     string
		input    string
		expected Reading
	}{
		{
			name:     "labelled home text",
			input:    "lat 55.6761, prec 0.01, long 12.5683, prec 0.01",
			expected: Reading{Value1: 55.6761, Precision1: 0.01, Value2: 12.5683, Precision2: 0.01},
		},
		{
			name:     "comma separated",
			input:    "55.70,0.0,12.55,0.0",
			expected: Reading{Value1: 55.70, Precision1: 0.0, Value2: 12.55, Precision2: 0.0},
		},
		{
			name:     "trailing text ignored",
			input:    "1.5 2.5 3.5 4.5 5.5 and more",
			expected: Reading{Value1: 1.5, Precision1: 2.5, Value2: 3.5, Precision2: 4.5},
		},
		{
			name:     "stray integer restarts the scan",
			input:    "visit 3 at 1.5 7 2.5 3.5 4.5 6.5",
			expected: Reading{Value1: 2.5, Precision1: 3.5, Value2: 4.5, Precision2: 6.5},
		},
		{
			name:     "dotted run shares a digit run",
			input:    "1.2.3 4.5 6.7 8.9",
			expected: Reading{Value1: 2.3, Precision1: 4.5, Value2: 6.7, Precision2: 8.9},
		},
		{
			name:     "signs are not read",
			input:    "-33.8688, 0.1, -151.2093, 0.1",
			expected: Reading{Value1: 33.8688, Precision1: 0.1, Value2: 151.2093, Precision2: 0.1},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Parse(tc.input)
			if err != nil {
				t.Fatalf("Parse(%q) returned error: %v", tc.input, err)
			}
			if got != tc.expected {
				t.Fatalf("Parse(%q) = %+v; want %+v", tc.input, got, tc.expected)
			}
		})
	}
}

func TestParseLatitudeLongitude(t *testing.T) {
	r, err := Parse("55.6761 0.01 12.5683 0.01")
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if r.Latitude() != 55.6761 || r.Longitude() != 12.5683 {
		t.Fatalf("Latitude/Longitude = %v/%v; want 55.6761/12.5683", r.Latitude(), r.Longitude())
	}
}

func TestParseFailures(t *testing.T) {
	cases := []struct {
		name   string
		input  string
		reason Reason
		found  int
	}{
		{"empty string", "", ReasonEmpty, 0},
		{"blank", " \t ", ReasonEmpty, 0},
		{"no digits", "somewhere near the river", ReasonTooFewNumbers, 0},
		{"integers only", "12 34 56 78", ReasonTooFewNumbers, 0},
		{"three numbers", "55.1, 0.1, 12.5", ReasonTooFewNumbers, 3},
		{"interrupted chain", "55.1 0.1 9 12.5 0.1", ReasonTooFewNumbers, 2},
		// a digit run is never split between two numbers
		{"touching numbers", "1.22.33.44.5", ReasonTooFewNumbers, 2},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(tc.input)
			var coordErr *Error
			if !errors.As(err, &coordErr) {
				t.Fatalf("Parse(%q) error = %v; want *Error", tc.input, err)
			}
			if coordErr.Reason != tc.reason {
				t.Fatalf("Reason = %v; want %v", coordErr.Reason, tc.reason)
			}
			if coordErr.Found != tc.found {
				t.Fatalf("Found = %d; want %d", coordErr.Found, tc.found)
			}
		})
	}
}
