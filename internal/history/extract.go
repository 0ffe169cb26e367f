package history

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"html"

	"github.com/iancoleman/orderedmap"
	"github.com/ssherwood/historymap/internal/coords"
)

const (
	LabelHome = "Home"
	LabelWork = "Work"

	headingDailyTop  = "Daily Top Location"
	headingVisited   = "Locations You Have Visited"
	headingSixDayTop = "Top Locations Per Six-Day Period"

	fieldLatLng = "Latitude, Longitude"
	fieldTime   = "Time"
)

var (
	ErrMissingPayload = errors.New("category has no payload")
	ErrPayloadShape   = errors.New("unexpected payload shape")
	ErrEmptyRecord    = errors.New("record has no entries")
)

// Point is a parsed geographic position. The precision figures are kept as
// read but play no part in rendering.
type Point struct {
	Latitude           float64
	Longitude          float64
	LatitudePrecision  float64
	LongitudePrecision float64
}

func pointFrom(r coords.Reading) Point {
	return Point{
		Latitude:           r.Latitude(),
		LatitudePrecision:  r.Precision1,
		Longitude:          r.Longitude(),
		LongitudePrecision: r.Precision2,
	}
}

// Placemark is a point with its tooltip label. Labels may carry simple markup.
type Placemark struct {
	Point Point
	Label string
}

// Diagnostic describes a record that was skipped during extraction.
type Diagnostic struct {
	Category string
	// Record locates the offending record inside the payload, e.g. "[2][0]" or "Home".
	Record string
	Err    error
}

func (d Diagnostic) String() string {
	if d.Record == "" {
		return fmt.Sprintf("%s: %v", d.Category, d.Err)
	}
	return fmt.Sprintf("%s %s: %v", d.Category, d.Record, d.Err)
}

// Extraction is the outcome of running a category's rule.
type Extraction struct {
	Kind        Kind
	Placemarks  []Placemark
	Diagnostics []Diagnostic
	// Home is set when a Home & Work payload yielded a home point.
	Home *Point
}

func (x *Extraction) skip(category, record string, err error) {
	x.Diagnostics = append(x.Diagnostics, Diagnostic{Category: category, Record: record, Err: err})
}

func (x *Extraction) place(p Point, label string) {
	x.Placemarks = append(x.Placemarks, Placemark{Point: p, Label: label})
}

// Extract runs the rule matching the category. Records that cannot be read are
// skipped and reported; the rest of the payload is still extracted.
// Unrecognized categories produce an empty extraction.
func Extract(category string, payload json.RawMessage) Extraction {
	kind := KindOf(category)
	x := Extraction{Kind: kind}
	if !kind.Renderable() {
		return x
	}
	if len(bytes.TrimSpace(payload)) == 0 {
		x.skip(category, "", ErrMissingPayload)
		return x
	}

	switch kind {
	case KindHomeAndWork:
		extractHomeAndWork(&x, category, payload)
	case KindDailyTopLocations:
		extractDayLists(&x, category, headingDailyTop, payload)
	case KindSixDayTopLocations:
		extractDayLists(&x, category, headingSixDayTop, payload)
	case KindLocationsVisited:
		extractVisited(&x, category, payload)
	case KindUnrecognized:
	}
	return x
}

func extractHomeAndWork(x *Extraction, category string, payload json.RawMessage) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(payload, &fields); err != nil || fields == nil {
		x.skip(category, "", shapeError(err))
		return
	}

	for _, key := range []string{LabelHome, LabelWork} {
		reading, err := coords.Parse(textOf(fields[key]))
		if err != nil {
			x.skip(category, key, err)
			continue
		}
		p := pointFrom(reading)
		if key == LabelHome {
			home := p
			x.Home = &home
		}
		x.place(p, key)
	}
}

// extractDayLists reads a list of lists of single-key objects mapping a day to
// coordinate text.
func extractDayLists(x *Extraction, category, heading string, payload json.RawMessage) {
	var lists []json.RawMessage
	if err := json.Unmarshal(payload, &lists); err != nil {
		x.skip(category, "", shapeError(err))
		return
	}

	for i, rawList := range lists {
		var records []json.RawMessage
		if err := json.Unmarshal(rawList, &records); err != nil {
			x.skip(category, fmt.Sprintf("[%d]", i), shapeError(err))
			continue
		}

		for j, rawRecord := range records {
			at := fmt.Sprintf("[%d][%d]", i, j)

			record := orderedmap.New()
			if err := json.Unmarshal(rawRecord, record); err != nil {
				x.skip(category, at, shapeError(err))
				continue
			}
			keys := record.Keys()
			if len(keys) == 0 {
				x.skip(category, at, ErrEmptyRecord)
				continue
			}

			day := keys[0]
			value, _ := record.Get(day)
			text, ok := value.(string)
			if !ok {
				x.skip(category, at, fmt.Errorf("%w: %q is not text", ErrPayloadShape, day))
				continue
			}

			reading, err := coords.Parse(text)
			if err != nil {
				x.skip(category, at, err)
				continue
			}
			x.place(pointFrom(reading), tooltip(heading, day))
		}
	}
}

func extractVisited(x *Extraction, category string, payload json.RawMessage) {
	var records []json.RawMessage
	if err := json.Unmarshal(payload, &records); err != nil {
		x.skip(category, "", shapeError(err))
		return
	}

	for i, rawRecord := range records {
		at := fmt.Sprintf("[%d]", i)

		var record map[string]json.RawMessage
		if err := json.Unmarshal(rawRecord, &record); err != nil || record == nil {
			x.skip(category, at, shapeError(err))
			continue
		}

		reading, err := coords.Parse(textOf(record[fieldLatLng]))
		if err != nil {
			x.skip(category, at, err)
			continue
		}
		x.place(pointFrom(reading), tooltip(headingVisited, textOf(record[fieldTime])))
	}
}

func tooltip(heading, detail string) string {
	return "<b>" + heading + "</b><br>" + html.EscapeString(detail)
}

// textOf returns a JSON string's contents, or the raw JSON for any other value.
func textOf(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

func shapeError(err error) error {
	if err == nil {
		return ErrPayloadShape
	}
	return fmt.Errorf("%w: %v", ErrPayloadShape, err)
}
