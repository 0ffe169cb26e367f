// Package coords reads the free-text coordinate strings found in location
// history exports, e.g. "lat 55.6761, prec 0.01, long 12.5683, prec 0.01".
//
// A string carries four decimal numbers of the form digits "." digits,
// separated by runs of non-digit characters. They bind positionally to
// (value1, precision1, value2, precision2). Signs are not part of the
// pattern and are never read.
package coords

import (
	"fmt"
	"strconv"
	"strings"
)

// Reading is the result of a successful parse.
type Reading struct {
	Value1     float64
	Precision1 float64
	Value2     float64
	Precision2 float64
}

func (r Reading) Latitude() float64  { return r.Value1 }
func (r Reading) Longitude() float64 { return r.Value2 }

type Reason int

const (
	ReasonEmpty Reason = iota + 1
	ReasonTooFewNumbers
	ReasonMalformedNumber
)

func (r Reason) String() string {
	switch r {
	case ReasonEmpty:
		return "empty"
	case ReasonTooFewNumbers:
		return "too few numbers"
	case ReasonMalformedNumber:
		return "malformed number"
	default:
		return "unknown"
	}
}

// Error is returned when a string does not hold four decimal numbers.
type Error struct {
	Input  string
	Reason Reason
	// Found is the longest run of consecutive decimal numbers seen.
	Found int
	Err   error
}

func (e *Error) Error() string {
	if e.Reason == ReasonTooFewNumbers {
		return fmt.Sprintf("coords: %s in %q: found %d of 4", e.Reason, e.Input, e.Found)
	}
	if e.Err != nil {
		return fmt.Sprintf("coords: %s in %q: %v", e.Reason, e.Input, e.Err)
	}
	return fmt.Sprintf("coords: %s in %q", e.Reason, e.Input)
}

func (e *Error) Unwrap() error { return e.Err }

type digitRun struct{ start, end int }

// Parse scans s left to right for the first four consecutive decimal numbers.
func Parse(s string) (Reading, error) {
	if strings.TrimSpace(s) == "" {
		return Reading{}, &Error{Input: s, Reason: ReasonEmpty}
	}
	runs := digitRuns(s)

	best := 0
	for start := range runs {
		numbers := chainAt(s, runs, start)
		if len(numbers) > best {
			best = len(numbers)
		}
		if len(numbers) < 4 {
			continue
		}

		var values [4]float64
		for i, text := range numbers {
			v, err := strconv.ParseFloat(text, 64)
			if err != nil {
				return Reading{}, &Error{Input: s, Reason: ReasonMalformedNumber, Found: 4, Err: err}
			}
			values[i] = v
		}
		return Reading{Value1: values[0], Precision1: values[1], Value2: values[2], Precision2: values[3]}, nil
	}

	return Reading{}, &Error{Input: s, Reason: ReasonTooFewNumbers, Found: best}
}

// chainAt collects up to four decimal numbers beginning at runs[start]. A digit
// run that is not followed by "." and another run ends the chain.
func chainAt(s string, runs []digitRun, start int) []string {
	numbers := make([]string, 0, 4)
	for i := start; i+1 < len(runs) && len(numbers) < 4; i += 2 {
		whole, frac := runs[i], runs[i+1]
		if s[whole.end:frac.start] != "." {
			break
		}
		numbers = append(numbers, s[whole.start:frac.end])
	}
	return numbers
}

func digitRuns(s string) []digitRun {
	var runs []digitRun
	for i := 0; i < len(s); {
		if !isDigit(s[i]) {
			i++
			continue
		}
		j := i
		for j < len(s) && isDigit(s[j]) {
			j++
		}
		runs = append(runs, digitRun{start: i, end: j})
		i = j
	}
	return runs
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }
