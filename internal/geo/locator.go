// Package geo provides the one-shot device geolocation lookup.
package geo

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/paulmach/orb"
)

var (
	ErrUnavailable    = errors.New("geolocation unavailable")
	ErrDenied         = errors.New("geolocation denied")
	ErrAlreadyApplied = errors.New("geolocation already reported")
)

type Point struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Orb returns the point as an orb.Point ([lon, lat]).
func (p Point) Orb() orb.Point {
	return orb.Point{p.Longitude, p.Latitude}
}

func (p Point) Valid() bool {
	return !math.IsNaN(p.Latitude) && !math.IsNaN(p.Longitude) &&
		p.Latitude >= -90 && p.Latitude <= 90 &&
		p.Longitude >= -180 && p.Longitude <= 180
}

// Result is the terminal outcome of a lookup.
type Result struct {
	Point Point
	Err   error
}

// Locator resolves the device position.
type Locator interface {
	Locate(ctx context.Context) (Point, error)
}

// Lookup runs a single Locate in the background. The channel yields exactly
// one Result and is then closed. There is no retry.
func Lookup(ctx context.Context, l Locator) <-chan Result {
	out := make(chan Result, 1)
	go func() {
		defer close(out)
		p, err := l.Locate(ctx)
		if err == nil && !p.Valid() {
			err = fmt.Errorf("%w: coordinate out of range (%v, %v)", ErrUnavailable, p.Latitude, p.Longitude)
		}
		out <- Result{Point: p, Err: err}
	}()
	return out
}

// Static always answers with a configured position.
type Static struct {
	Point Point
}

func (s Static) Locate(context.Context) (Point, error) {
	return s.Point, nil
}

// Reported waits for the browser to report its geolocation outcome. Only the
// first report is kept.
type Reported struct {
	once sync.Once
	done chan struct{}
	res  Result
}

func NewReported() *Reported {
	return &Reported{done: make(chan struct{})}
}

// Report records the outcome. Later reports return ErrAlreadyApplied.
func (r *Reported) Report(res Result) error {
	accepted := false
	r.once.Do(func() {
		r.res = res
		close(r.done)
		accepted = true
	})
	if !accepted {
		return ErrAlreadyApplied
	}
	return nil
}

func (r *Reported) Locate(ctx context.Context) (Point, error) {
	select {
	case <-r.done:
		return r.res.Point, r.res.Err
	case <-ctx.Done():
		return Point{}, fmt.Errorf("%w: %w", ErrUnavailable, ctx.Err())
	}
}
