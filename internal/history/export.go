// Package history reads location-history exports and turns their categories
// into labelled points.
package history

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Categories that are never offered for display.
var deniedCategories = map[string]struct{}{
	"Latest Location":    {},
	"Frequent Locations": {},
	"Areas you may have visited in the last two years":      {},
	"Businesses you may have visited in the last two years": {},
}

// Denied reports whether a category is excluded from the selector.
func Denied(category string) bool {
	_, ok := deniedCategories[category]
	return ok
}

// ParseError is returned when an export is not a JSON object.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid location export: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

var errNotObject = errors.New("top-level value must be a JSON object")

// Export is an imported location-history document. It is immutable once parsed.
type Export struct {
	categories []string
	payloads   map[string]json.RawMessage
}

// Parse decodes an export, keeping its top-level keys in document order.
func Parse(data []byte) (*Export, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		if !json.Valid(trimmed) {
			return nil, &ParseError{Err: errors.New("malformed JSON")}
		}
		return nil, &ParseError{Err: errNotObject}
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	if _, err := dec.Token(); err != nil {
		return nil, &ParseError{Err: err}
	}

	// a repeated key keeps its first position and its last value
	payloads := make(map[string]json.RawMessage)
	categories := []string{}
	for dec.More() {
		token, err := dec.Token()
		if err != nil {
			return nil, &ParseError{Err: err}
		}
		key, _ := token.(string)
		var payload json.RawMessage
		if err := dec.Decode(&payload); err != nil {
			return nil, &ParseError{Err: err}
		}
		if _, dup := payloads[key]; !dup {
			categories = append(categories, key)
		}
		payloads[key] = payload
	}
	if _, err := dec.Token(); err != nil {
		return nil, &ParseError{Err: err}
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, &ParseError{Err: errors.New("trailing data after export object")}
	}

	return &Export{categories: categories, payloads: payloads}, nil
}

// Categories returns every top-level key in document order.
func (e *Export) Categories() []string {
	return append([]string(nil), e.categories...)
}

// Selectable returns the categories that may be shown, in document order.
func (e *Export) Selectable() []string {
	selectable := make([]string, 0, len(e.categories))
	for _, category := range e.categories {
		if !Denied(category) {
			selectable = append(selectable, category)
		}
	}
	return selectable
}

// Payload returns the raw JSON stored under a category.
func (e *Export) Payload(category string) (json.RawMessage, bool) {
	payload, ok := e.payloads[category]
	return payload, ok
}
