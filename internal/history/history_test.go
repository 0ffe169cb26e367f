package history

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/ssherwood/historymap/internal/coords"
)

const sampleExport = `{
	"Latest Location": {"Latitude, Longitude": "1.0,0.1,2.0,0.1"},
	"Home & Work": {
		"Home": "lat 55.6761, prec 0.01, long 12.5683, prec 0.01",
		"Work": "lat 55.6900, prec 0.01, long 12.5900, prec 0.01"
	},
	"Frequent Locations": [],
	"Daily Top Locations": [
		[{"2021-01-01": "55.1,0.1,12.1,0.1"}, {"2021-01-02": "55.2,0.1,12.2,0.1"}],
		[{"2021-01-03": "55.3,0.1,12.3,0.1"}]
	],
	"Locations You Have Visited": [
		{"Latitude, Longitude": "55.70,0.0,12.55,0.0", "Time": "2021-01-01"}
	],
	"Search History": {"anything": "goes"},
	"Top Locations Per Six-Day Period": [
		[{"Week 1": "56.0,0.2,10.0,0.2"}]
	]
}`

func TestParseCategoriesInDocumentOrder(t *testing.T) {
	export, err := Parse([]byte(sampleExport))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}

	all := []string{
		"Latest Location", "Home & Work", "Frequent Locations", "Daily Top Locations",
		"Locations You Have Visited", "Search History", "Top Locations Per Six-Day Period",
	}
	if got := export.Categories(); !reflect.DeepEqual(got, all) {
		t.Fatalf("Categories() = %v; want %v", got, all)
	}

	selectable := []string{
		"Home & Work", "Daily Top Locations", "Locations You Have Visited",
		"Search History", "Top Locations Per Six-Day Period",
	}
	if got := export.Selectable(); !reflect.DeepEqual(got, selectable) {
		t.Fatalf("Selectable() = %v; want %v", got, selectable)
	}
}

func TestParseRepeatedKey(t *testing.T) {
	export, err := Parse([]byte(`{"Search History": 1, "Home & Work": {}, "Search History": 2}`))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if got, want := export.Categories(), []string{"Search History", "Home & Work"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("Categories() = %v; want %v", got, want)
	}
	if payload, _ := export.Payload("Search History"); string(payload) != "2" {
		t.Fatalf("Payload = %s; want the last value", payload)
	}
}

func TestParseErrors(t *testing.T) {
	cases := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"truncated", `{"Home & Work": `},
		{"array", `[1, 2]`},
		{"null", `null`},
		{"string", `"hello"`},
		{"unclosed", `{"Home & Work": {}`},
		{"trailing data", `{"Home & Work": {}} {}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.input))
			var parseErr *ParseError
			if !errors.As(err, &parseErr) {
				t.Fatalf("Parse(%q) error = %v; want *ParseError", tc.input, err)
			}
		})
	}
}

func TestDenied(t *testing.T) {
	cases := []struct {
		name     string
		expected bool
	}{
		{"Latest Location", true},
		{"Areas you may have visited in the last two years", true},
		{"Businesses you may have visited in the last two years", true},
		{"Frequent Locations", true},
		{"Home & Work", false},
		{"latest location", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Denied(tc.name); got != tc.expected {
				t.Fatalf("Denied(%q) = %v; want %v", tc.name, got, tc.expected)
			}
		})
	}
}

func TestKindOf(t *testing.T) {
	cases := []struct {
		category string
		expected Kind
	}{
		{"Home & Work", KindHomeAndWork},
		{"Daily Top Locations", KindDailyTopLocations},
		{"Locations You Have Visited", KindLocationsVisited},
		{"Top Locations Per Six-Day Period", KindSixDayTopLocations},
		{"Search History", KindUnrecognized},
	}

	for _, tc := range cases {
		t.Run(tc.category, func(t *testing.T) {
			if got := KindOf(tc.category); got != tc.expected {
				t.Fatalf("KindOf(%q) = %v; want %v", tc.category, got, tc.expected)
			}
		})
	}
}

func TestExtractHomeAndWork(t *testing.T) {
	x := Extract("Home & Work", []byte(`{
		"Home": "lat 55.6761, prec 0.01, long 12.5683, prec 0.01",
		"Work": "lat 55.6900, prec 0.02, long 12.5900, prec 0.03"
	}`))

	if len(x.Diagnostics) != 0 {
		t.Fatalf("unexpected diagnostics: %v", x.Diagnostics)
	}
	if len(x.Placemarks) != 2 {
		t.Fatalf("got %d placemarks; want 2", len(x.Placemarks))
	}

	home := x.Placemarks[0]
	if home.Label != "Home" || home.Point.Latitude != 55.6761 || home.Point.Longitude != 12.5683 {
		t.Fatalf("home placemark = %+v; want Home at (55.6761, 12.5683)", home)
	}
	if home.Point.LatitudePrecision != 0.01 || home.Point.LongitudePrecision != 0.01 {
		t.Fatalf("home precision = %v/%v; want 0.01/0.01", home.Point.LatitudePrecision, home.Point.LongitudePrecision)
	}
	if x.Home == nil || *x.Home != home.Point {
		t.Fatalf("Home = %v; want %+v", x.Home, home.Point)
	}

	work := x.Placemarks[1]
	if work.Label != "Work" || work.Point.Latitude != 55.69 || work.Point.Longitude != 12.59 {
		t.Fatalf("work placemark = %+v; want Work at (55.69, 12.59)", work)
	}
}

func TestExtractHomeAndWorkSkipsBadHome(t *testing.T) {
	x := Extract("Home & Work", []byte(`{"Home": "unknown", "Work": "1.5,0.1,2.5,0.1"}`))

	if x.Home != nil {
		t.Fatalf("Home = %+v; want nil", x.Home)
	}
	if len(x.Placemarks) != 1 || x.Placemarks[0].Label != "Work" {
		t.Fatalf("placemarks = %+v; want only Work", x.Placemarks)
	}
	if len(x.Diagnostics) != 1 || x.Diagnostics[0].Record != "Home" {
		t.Fatalf("diagnostics = %v; want one for Home", x.Diagnostics)
	}
	var coordErr *coords.Error
	if !errors.As(x.Diagnostics[0].Err, &coordErr) {
		t.Fatalf("diagnostic error = %v; want *coords.Error", x.Diagnostics[0].Err)
	}
}

func TestExtractVisited(t *testing.T) {
	x := Extract("Locations You Have Visited", []byte(`[
		{"Latitude, Longitude": "55.70,0.0,12.55,0.0", "Time": "2021-01-01"},
		{"Latitude, Longitude": "55.70,12.55", "Time": "2021-01-02"},
		{"Latitude, Longitude": "56.10,0.0,13.55,0.0", "Time": "2021-01-03"}
	]`))

	if len(x.Placemarks) != 2 {
		t.Fatalf("got %d placemarks; want 2", len(x.Placemarks))
	}
	first := x.Placemarks[0]
	if first.Point.Latitude != 55.70 || first.Point.Longitude != 12.55 {
		t.Fatalf("first point = %+v; want (55.70, 12.55)", first.Point)
	}
	if !strings.Contains(first.Label, "2021-01-01") {
		t.Fatalf("first label = %q; want it to contain the time", first.Label)
	}
	if want := "<b>Locations You Have Visited</b><br>2021-01-01"; first.Label != want {
		t.Fatalf("first label = %q; want %q", first.Label, want)
	}
	if !strings.Contains(x.Placemarks[1].Label, "2021-01-03") {
		t.Fatalf("second label = %q; want the third record", x.Placemarks[1].Label)
	}
	if len(x.Diagnostics) != 1 || x.Diagnostics[0].Record != "[1]" {
		t.Fatalf("diagnostics = %v; want one for record [1]", x.Diagnostics)
	}
}

func TestExtractDayLists(t *testing.T) {
	payload := []byte(`[
		[{"2021-01-01": "55.1,0.1,12.1,0.1"}, {"2021-01-02": "no coordinates"}],
		"not a list",
		[{}, {"2021-01-04": 12}, {"2021-01-05": "55.5,0.1,12.5,0.1"}]
	]`)

	cases := []struct {
		category string
		heading  string
	}{
		{"Daily Top Locations", "Daily Top Location"},
		{"Top Locations Per Six-Day Period", "Top Locations Per Six-Day Period"},
	}

	for _, tc := range cases {
		t.Run(tc.category, func(t *testing.T) {
			x := Extract(tc.category, payload)

			labels := make([]string, 0, len(x.Placemarks))
			for _, p := range x.Placemarks {
				labels = append(labels, p.Label)
			}
			want := []string{
				"<b>" + tc.heading + "</b><br>2021-01-01",
				"<b>" + tc.heading + "</b><br>2021-01-05",
			}
			if !reflect.DeepEqual(labels, want) {
				t.Fatalf("labels = %v; want %v", labels, want)
			}

			records := make([]string, 0, len(x.Diagnostics))
			for _, d := range x.Diagnostics {
				records = append(records, d.Record)
			}
			if wantRecords := []string{"[0][1]", "[1]", "[2][0]", "[2][1]"}; !reflect.DeepEqual(records, wantRecords) {
				t.Fatalf("diagnostic records = %v; want %v", records, wantRecords)
			}
		})
	}
}

func TestExtractEscapesLabelDetail(t *testing.T) {
	x := Extract("Daily Top Locations", []byte(`[[{"<script>": "1.5,0.1,2.5,0.1"}]]`))
	if len(x.Placemarks) != 1 {
		t.Fatalf("got %d placemarks; want 1", len(x.Placemarks))
	}
	if want := "<b>Daily Top Location</b><br>&lt;script&gt;"; x.Placemarks[0].Label != want {
		t.Fatalf("label = %q; want %q", x.Placemarks[0].Label, want)
	}
}

func TestExtractPayloadProblems(t *testing.T) {
	cases := []struct {
		name     string
		category string
		payload  string
		expected error
	}{
		{"missing payload", "Home & Work", "", ErrMissingPayload},
		{"home and work as list", "Home & Work", `[]`, ErrPayloadShape},
		{"visited as object", "Locations You Have Visited", `{}`, ErrPayloadShape},
		{"daily as string", "Daily Top Locations", `"x"`, ErrPayloadShape},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			x := Extract(tc.category, []byte(tc.payload))
			if len(x.Placemarks) != 0 {
				t.Fatalf("placemarks = %v; want none", x.Placemarks)
			}
			if len(x.Diagnostics) != 1 || !errors.Is(x.Diagnostics[0].Err, tc.expected) {
				t.Fatalf("diagnostics = %v; want one wrapping %v", x.Diagnostics, tc.expected)
			}
		})
	}
}

func TestExtractUnrecognized(t *testing.T) {
	x := Extract("Search History", []byte(`{"anything": "goes"}`))
	if x.Kind != KindUnrecognized || len(x.Placemarks) != 0 || len(x.Diagnostics) != 0 {
		t.Fatalf("Extract(unrecognized) = %+v; want empty", x)
	}
}
