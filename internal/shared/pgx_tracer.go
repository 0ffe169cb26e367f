package shared

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ssherwood/historymap/internal/config"
	"github.com/yugabyte/pgx/v5"
	"github.com/yugabyte/pgx/v5/pgconn"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.25.0"
	"go.opentelemetry.io/otel/trace"
)

const (
	queryTracerName     = "github.com/ssherwood/historymap/internal/shared"
	sqlOperationUnknown = "UNKNOWN"
)

const (
	RowsAffectedKey    = attribute.Key("pgx.rows_affected")
	QueryParametersKey = attribute.Key("pgx.query.parameters")
	// SQLStateKey is the PostgreSQL error code,
	// see https://www.postgresql.org/docs/current/errcodes-appendix.html.
	SQLStateKey = attribute.Key("pgx.sql_state")
)

// PgxQueryTracer opens a client span per audit query.
type PgxQueryTracer struct {
	tracer              trace.Tracer
	attrs               []attribute.KeyValue
	prefixQuerySpanName bool
	logSQLStatement     bool
	includeParams       bool
}

func NewQueryTracer(globalAttrs []attribute.KeyValue) pgx.QueryTracer {
	return &PgxQueryTracer{
		tracer:              otel.GetTracerProvider().Tracer(queryTracerName),
		attrs:               globalAttrs,
		prefixQuerySpanName: config.OTELPrefixQuerySpanName,
		logSQLStatement:     config.OTELTracerLogSQLStatement,
		includeParams:       config.OTELTracerIncludeParams,
	}
}

func (t *PgxQueryTracer) TraceQueryStart(ctx context.Context, conn *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	slog.DebugContext(ctx, "Query start", "operation", sqlOperationName(data.SQL))

	if !trace.SpanFromContext(ctx).IsRecording() {
		return ctx
	}

	opts := []trace.SpanStartOption{
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(t.attrs...),
	}

	if conn != nil {
		cfg := conn.Config()
		opts = append(opts, trace.WithAttributes(
			semconv.ClientAddress(cfg.Host),
			semconv.ClientPort(int(cfg.Port)),
			semconv.DBUser(cfg.User),
		))
	}

	if t.logSQLStatement {
		opts = append(opts, trace.WithAttributes(semconv.DBStatement(data.SQL)))
		if t.includeParams {
			opts = append(opts, trace.WithAttributes(paramsAttribute(data.Args)))
		}
	}

	spanName := sqlOperationName(data.SQL)
	if t.prefixQuerySpanName {
		spanName = "query " + spanName
	}

	ctx, _ = t.tracer.Start(ctx, spanName, opts...)
	return ctx
}

func (t *PgxQueryTracer) TraceQueryEnd(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryEndData) {
	span := trace.SpanFromContext(ctx)

	if data.Err == nil {
		span.SetAttributes(RowsAffectedKey.Int64(data.CommandTag.RowsAffected()))
	} else {
		recordSQLError(span, data.Err)
		slog.DebugContext(ctx, "Query failed", config.ErrAttr(data.Err))
	}

	span.End()
}

// sqlOperationName is the first word of a statement, upper-cased.
func sqlOperationName(stmt string) string {
	parts := strings.Fields(stmt)
	if len(parts) == 0 {
		return sqlOperationUnknown
	}
	return strings.ToUpper(parts[0])
}

func paramsAttribute(args []any) attribute.KeyValue {
	ss := make([]string, len(args))
	for i := range args {
		ss[i] = fmt.Sprintf("%+v", args[i])
	}
	return QueryParametersKey.StringSlice(ss)
}

func recordSQLError(span trace.Span, err error) {
	if err == nil || errors.Is(err, pgx.ErrNoRows) {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		span.SetAttributes(SQLStateKey.String(pgErr.Code))
	}
}
