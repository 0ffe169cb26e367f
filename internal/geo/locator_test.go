package geo

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"
)

func TestLookupStatic(t *testing.T) {
	res := <-Lookup(context.Background(), Static{Point: Point{Latitude: 55.6761, Longitude: 12.5683}})
	if res.Err != nil {
		t.Fatalf("Lookup returned error: %v", res.Err)
	}
	if res.Point.Latitude != 55.6761 || res.Point.Longitude != 12.5683 {
		t.Fatalf("Point = %+v; want (55.6761, 12.5683)", res.Point)
	}
}

func TestLookupRejectsInvalidPoint(t *testing.T) {
	cases := []struct {
		name  string
		point Point
	}{
		{"nan", Point{Latitude: math.NaN(), Longitude: 1}},
		{"latitude out of range", Point{Latitude: 91, Longitude: 1}},
		{"longitude out of range", Point{Latitude: 1, Longitude: -181}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := <-Lookup(context.Background(), Static{Point: tc.point})
			if !errors.Is(res.Err, ErrUnavailable) {
				t.Fatalf("Err = %v; want ErrUnavailable", res.Err)
			}
		})
	}
}

func TestLookupYieldsOnce(t *testing.T) {
	ch := Lookup(context.Background(), Static{Point: Point{Latitude: 1, Longitude: 2}})
	<-ch
	if _, ok := <-ch; ok {
		t.Fatalf("second receive succeeded; want closed channel")
	}
}

func TestReportedKeepsFirstReport(t *testing.T) {
	r := NewReported()
	ch := Lookup(context.Background(), r)

	if err := r.Report(Result{Err: ErrDenied}); err != nil {
		t.Fatalf("first Report returned error: %v", err)
	}
	if err := r.Report(Result{Point: Point{Latitude: 1, Longitude: 1}}); !errors.Is(err, ErrAlreadyApplied) {
		t.Fatalf("second Report error = %v; want ErrAlreadyApplied", err)
	}

	select {
	case res := <-ch:
		if !errors.Is(res.Err, ErrDenied) {
			t.Fatalf("Err = %v; want ErrDenied", res.Err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("lookup did not complete")
	}
}

func TestReportedHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := Lookup(ctx, NewReported())
	cancel()

	res := <-ch
	if !errors.Is(res.Err, ErrUnavailable) || !errors.Is(res.Err, context.Canceled) {
		t.Fatalf("Err = %v; want ErrUnavailable wrapping context.Canceled", res.Err)
	}
}
