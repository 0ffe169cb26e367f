// Package session owns the state of one map: the imported export, the
// category selection, the device location and the render pipeline.
package session

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/paulmach/orb"
	"github.com/ssherwood/historymap/internal/config"
	"github.com/ssherwood/historymap/internal/geo"
	"github.com/ssherwood/historymap/internal/history"
	"github.com/ssherwood/historymap/internal/mapview"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	instrumentationName  = "github.com/ssherwood/historymap/internal/session"
	CurrentLocationLabel = "Current location"
	DefaultZoom          = 14
)

// Skipped is a record left out of a render pass.
type Skipped struct {
	Category string `json:"category"`
	Record   string `json:"record,omitempty"`
	Reason   string `json:"reason"`
}

// Report summarises a render pass.
type Report struct {
	Categories int       `json:"categories"`
	Markers    int       `json:"markers"`
	Skipped    []Skipped `json:"skipped"`
}

type ImportResult struct {
	Entries []Entry `json:"categories"`
	Render  Report  `json:"render"`
}

type Option func(*Controller)

func WithReimportMode(mode ReimportMode) Option {
	return func(c *Controller) { c.mode = mode }
}

func WithZoom(zoom int) Option {
	return func(c *Controller) {
		if zoom > 0 {
			c.zoom = zoom
		}
	}
}

// Controller serializes every state change; each runs to completion before
// the next one starts.
type Controller struct {
	mu        sync.Mutex
	surface   mapview.Map
	mode      ReimportMode
	zoom      int
	export    *history.Export
	selection Selection
	current   *geo.Point
	hasCenter bool
	located   bool

	tracer  trace.Tracer
	imports metric.Int64Counter
	renders metric.Int64Counter
	markers metric.Int64Counter
	skipped metric.Int64Counter
}

func NewController(surface mapview.Map, opts ...Option) *Controller {
	c := &Controller{
		surface: surface,
		zoom:    DefaultZoom,
		tracer:  otel.Tracer(instrumentationName),
	}
	for _, opt := range opts {
		opt(c)
	}

	meter := otel.Meter(instrumentationName)
	c.imports, _ = meter.Int64Counter("historymap.imports",
		metric.WithDescription("Location exports imported"), metric.WithUnit("{import}"))
	c.renders, _ = meter.Int64Counter("historymap.renders",
		metric.WithDescription("Render passes"), metric.WithUnit("{render}"))
	c.markers, _ = meter.Int64Counter("historymap.markers",
		metric.WithDescription("Markers placed"), metric.WithUnit("{marker}"))
	c.skipped, _ = meter.Int64Counter("historymap.extraction.skipped",
		metric.WithDescription("Location records skipped during extraction"), metric.WithUnit("{record}"))

	return c
}

// Import parses an export and rebuilds the selector from it. A parse failure
// leaves the previous state untouched.
func (c *Controller) Import(ctx context.Context, data []byte) (*ImportResult, error) {
	ctx, span := c.tracer.Start(ctx, "session.Import")
	defer span.End()

	export, err := history.Parse(data)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	slog.DebugContext(ctx, "Parsed location export", "categories", export.Categories())

	c.mu.Lock()
	defer c.mu.Unlock()

	c.export = export
	if c.mode == ReimportReplace {
		c.selection.reset()
	}
	c.selection.add(export.Selectable())

	report := c.render(ctx)
	c.imports.Add(ctx, 1)
	span.SetAttributes(
		attribute.Int("historymap.categories", len(export.Categories())),
		attribute.Int("historymap.markers", report.Markers),
	)

	return &ImportResult{Entries: c.selection.Entries(), Render: report}, nil
}

// Toggle flips a category and re-renders.
func (c *Controller) Toggle(ctx context.Context, category string, active bool) (Report, error) {
	ctx, span := c.tracer.Start(ctx, "session.Toggle",
		trace.WithAttributes(attribute.String("historymap.category", category), attribute.Bool("historymap.active", active)))
	defer span.End()

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.selection.set(category, active); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Report{}, err
	}
	return c.render(ctx), nil
}

// Render recomputes every marker from the active categories.
func (c *Controller) Render(ctx context.Context) Report {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.render(ctx)
}

func (c *Controller) render(ctx context.Context) Report {
	ctx, span := c.tracer.Start(ctx, "session.Render")
	defer span.End()

	report := Report{Skipped: []Skipped{}}
	c.surface.ClearMarkers()

	for _, category := range c.selection.Active() {
		if !history.KindOf(category).Renderable() {
			continue
		}

		var payload json.RawMessage
		if c.export != nil {
			payload, _ = c.export.Payload(category)
		}
		x := history.Extract(category, payload)

		if x.Home != nil && !c.hasCenter {
			c.surface.SetView(orb.Point{x.Home.Longitude, x.Home.Latitude}, c.zoom)
			c.hasCenter = true
		}

		for _, p := range x.Placemarks {
			c.surface.AddMarker(mapview.Marker{
				Position:    orb.Point{p.Point.Longitude, p.Point.Latitude},
				Tooltip:     p.Label,
				TooltipOpen: true,
			})
			report.Markers++
		}

		for _, d := range x.Diagnostics {
			slog.WarnContext(ctx, "Skipped location record",
				"category", d.Category, "record", d.Record, config.ErrAttr(d.Err))
			report.Skipped = append(report.Skipped, Skipped{Category: d.Category, Record: d.Record, Reason: d.Err.Error()})
		}
		report.Categories++
	}

	// drawn last so it sits above the category markers
	if c.current != nil {
		c.surface.AddMarker(mapview.Marker{Position: c.current.Orb(), Tooltip: CurrentLocationLabel, TooltipOpen: true})
		report.Markers++
	}

	if f, ok := c.surface.(mapview.Flusher); ok {
		f.Flush()
	}

	c.renders.Add(ctx, 1)
	c.markers.Add(ctx, int64(report.Markers))
	if len(report.Skipped) > 0 {
		c.skipped.Add(ctx, int64(len(report.Skipped)))
	}
	span.SetAttributes(attribute.Int("historymap.markers", report.Markers), attribute.Int("historymap.skipped", len(report.Skipped)))

	return report
}

// StartGeolocation runs the one-shot lookup in the background. The returned
// channel is closed once its outcome has been applied.
func (c *Controller) StartGeolocation(ctx context.Context, l geo.Locator) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		res := <-geo.Lookup(ctx, l)
		if err := c.ApplyLocation(ctx, res); err != nil {
			slog.WarnContext(ctx, "Geolocation result ignored", config.ErrAttr(err))
		}
	}()
	return done
}

// ApplyLocation settles the device location. Only the first outcome counts; a
// failure means no current-location marker and no auto-centering from it.
func (c *Controller) ApplyLocation(ctx context.Context, res geo.Result) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.located {
		return geo.ErrAlreadyApplied
	}
	c.located = true

	if res.Err != nil {
		slog.InfoContext(ctx, "Geolocation unavailable", config.ErrAttr(res.Err))
		return nil
	}

	p := res.Point
	c.current = &p
	c.surface.SetView(p.Orb(), c.zoom)
	c.hasCenter = true
	slog.InfoContext(ctx, "Geolocation resolved", "latitude", p.Latitude, "longitude", p.Longitude)

	c.render(ctx)
	return nil
}

// Entries returns the selector rows.
func (c *Controller) Entries() []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selection.Entries()
}

// CurrentLocation returns the device location if the lookup succeeded.
func (c *Controller) CurrentLocation() (geo.Point, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return geo.Point{}, false
	}
	return *c.current, true
}

func (c *Controller) Imported() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.export != nil
}
