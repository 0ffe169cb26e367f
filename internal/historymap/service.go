// Package historymap exposes the location history map over HTTP.
package historymap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"time"

	"github.com/google/uuid"
	"github.com/ssherwood/historymap/internal/config"
	"github.com/ssherwood/historymap/internal/geo"
	"github.com/ssherwood/historymap/internal/importer"
	"github.com/ssherwood/historymap/internal/mapview"
	"github.com/ssherwood/historymap/internal/session"
)

// Browser PositionError code for a refused permission prompt.
const permissionDenied = 1

var ErrInvalidLocation = errors.New("geolocation report needs latitude and longitude or an error")

// ImportAudit describes one successful import. It carries no location data.
type ImportAudit struct {
	ID         uuid.UUID `json:"id"`
	ImportedAt time.Time `json:"importedAt"`
	FileName   string    `json:"fileName"`
	Bytes      int64     `json:"bytes"`
	Categories int       `json:"categories"`
	Markers    int       `json:"markers"`
	Skipped    int       `json:"skipped"`
}

type AuditRecorder interface {
	RecordImport(ctx context.Context, audit ImportAudit) error
}

// AuditLister is implemented by recorders that can read the trail back.
type AuditLister interface {
	RecentImports(ctx context.Context, limit int) ([]ImportAudit, error)
}

// LocationReport is the browser's one-shot geolocation outcome.
type LocationReport struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Error     string   `json:"error"`
	Code      int      `json:"code"`
}

func (r LocationReport) result() (geo.Result, error) {
	if r.Error != "" {
		if r.Code == permissionDenied {
			return geo.Result{Err: fmt.Errorf("%w: %s", geo.ErrDenied, r.Error)}, nil
		}
		return geo.Result{Err: fmt.Errorf("%w: %s", geo.ErrUnavailable, r.Error)}, nil
	}
	if r.Latitude == nil || r.Longitude == nil {
		return geo.Result{}, ErrInvalidLocation
	}
	return geo.Result{Point: geo.Point{Latitude: *r.Latitude, Longitude: *r.Longitude}}, nil
}

type ImportResponse struct {
	ID uuid.UUID `json:"id"`
	*session.ImportResult
}

type Service struct {
	controller *session.Controller
	layer      *mapview.Layer
	reporter   *geo.Reported
	audit      AuditRecorder
	maxUpload  int64
}

// NewService wires the HTTP surface to a map session. reporter and audit may be nil.
func NewService(controller *session.Controller, layer *mapview.Layer, reporter *geo.Reported, audit AuditRecorder, maxUpload int64) *Service {
	return &Service{controller: controller, layer: layer, reporter: reporter, audit: audit, maxUpload: maxUpload}
}

func (s *Service) Import(ctx context.Context, files []*multipart.FileHeader) (*ImportResponse, error) {
	fh, err := importer.Select(files)
	if err != nil {
		return nil, err
	}

	data, err := importer.Read(fh, s.maxUpload)
	if err != nil {
		return nil, err
	}

	result, err := s.controller.Import(ctx, data)
	if err != nil {
		return nil, err
	}

	audit := ImportAudit{
		ID:         uuid.New(),
		ImportedAt: time.Now().UTC(),
		FileName:   fh.Filename,
		Bytes:      int64(len(data)),
		Categories: len(result.Entries),
		Markers:    result.Render.Markers,
		Skipped:    len(result.Render.Skipped),
	}
	slog.InfoContext(ctx, "Imported location export",
		"import_id", audit.ID, "file", audit.FileName, "bytes", audit.Bytes,
		"categories", audit.Categories, "markers", audit.Markers, "skipped", audit.Skipped)

	if s.audit != nil {
		if err := s.audit.RecordImport(ctx, audit); err != nil {
			slog.WarnContext(ctx, "Unable to record import audit", "import_id", audit.ID, config.ErrAttr(err))
		}
	}

	return &ImportResponse{ID: audit.ID, ImportResult: result}, nil
}

// RecentImports lists the audit trail, or nothing when no store is configured.
func (s *Service) RecentImports(ctx context.Context, limit int) ([]ImportAudit, error) {
	lister, ok := s.audit.(AuditLister)
	if !ok {
		return []ImportAudit{}, nil
	}
	audits, err := lister.RecentImports(ctx, limit)
	if audits == nil {
		audits = []ImportAudit{}
	}
	return audits, err
}

func (s *Service) Categories() []session.Entry {
	return s.controller.Entries()
}

func (s *Service) Toggle(ctx context.Context, category string, active bool) (session.Report, error) {
	return s.controller.Toggle(ctx, category, active)
}

func (s *Service) Snapshot() mapview.Snapshot {
	return s.layer.Snapshot()
}

// ReportLocation hands the browser's outcome to the pending lookup. It fails
// with geo.ErrAlreadyApplied when the location is already settled or the
// server resolves it itself.
func (s *Service) ReportLocation(report LocationReport) error {
	res, err := report.result()
	if err != nil {
		return err
	}
	if s.reporter == nil {
		return geo.ErrAlreadyApplied
	}
	return s.reporter.Report(res)
}
