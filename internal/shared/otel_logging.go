package shared

import (
	"context"
	"log/slog"

	"github.com/ssherwood/historymap/internal/config"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutlog"
	otellog "go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/log/global"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"google.golang.org/grpc/credentials"
)

const logInstrumentationName = "github.com/ssherwood/historymap"

func grpcLogOptions() []otlploggrpc.Option {
	options := []otlploggrpc.Option{
		otlploggrpc.WithEndpoint(config.OTELCollectorURL),
		otlploggrpc.WithCompressor(config.OTELCompressor),
	}

	if config.OTELExporterInsecure {
		options = append(options, otlploggrpc.WithInsecure())
	} else {
		options = append(options, otlploggrpc.WithTLSCredentials(
			credentials.NewClientTLSFromCert(nil, ""),
		))
	}

	return options
}

// logProcessor picks the exporter named by OTEL_LOGS_EXPORTER.
func logProcessor(ctx context.Context) (sdklog.Processor, error) {
	if config.OTELLogsExporter == "stdout" {
		stdoutExporter, err := stdoutlog.New()
		if err != nil {
			slog.Error("Unable to initialize OTEL stdout log exporter", config.ErrAttr(err))
			return nil, err
		}
		return sdklog.NewSimpleProcessor(stdoutExporter), nil
	}

	grpcExporter, err := otlploggrpc.New(ctx, grpcLogOptions()...)
	if err != nil {
		slog.Error("Unable to initialize OTEL log grpcExporter", config.ErrAttr(err))
		return nil, err
	}
	return sdklog.NewBatchProcessor(grpcExporter), nil
}

func InitializeLoggingProvider(ctx context.Context) (*sdklog.LoggerProvider, error) {
	processor, err := logProcessor(ctx)
	if err != nil {
		return nil, err
	}

	provider := sdklog.NewLoggerProvider(
		sdklog.WithProcessor(processor),
		sdklog.WithResource(serviceResource()),
	)

	global.SetLoggerProvider(provider)

	return provider, nil
}

// OTLPLogHandler writes each record to the console handler and emits it to an
// OTEL logger.
type OTLPLogHandler struct {
	consoleHandler slog.Handler
	logger         otellog.Logger
	attrs          []otellog.KeyValue
	groupPrefix    string
}

func NewOTLPLogHandler(consoleHandler slog.Handler, logger otellog.Logger) *OTLPLogHandler {
	return &OTLPLogHandler{consoleHandler: consoleHandler, logger: logger}
}

// NewGlobalOTLPLogHandler emits through the global logger provider.
func NewGlobalOTLPLogHandler(consoleHandler slog.Handler) *OTLPLogHandler {
	return NewOTLPLogHandler(consoleHandler, global.GetLoggerProvider().Logger(logInstrumentationName))
}

func (h *OTLPLogHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.consoleHandler.Enabled(ctx, level)
}

func (h *OTLPLogHandler) Handle(ctx context.Context, rec slog.Record) error {
	if err := h.consoleHandler.Handle(ctx, rec); err != nil {
		return err
	}

	var r otellog.Record
	r.SetTimestamp(rec.Time)
	r.SetObservedTimestamp(rec.Time)
	r.SetSeverity(severityOf(rec.Level))
	r.SetSeverityText(rec.Level.String())
	r.SetBody(otellog.StringValue(rec.Message))
	r.AddAttributes(h.attrs...)
	rec.Attrs(func(attr slog.Attr) bool {
		r.AddAttributes(keyValue(h.groupPrefix, attr)...)
		return true
	})

	h.logger.Emit(ctx, r)
	return nil
}

func (h *OTLPLogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.consoleHandler = h.consoleHandler.WithAttrs(attrs)
	clone.attrs = append([]otellog.KeyValue(nil), h.attrs...)
	for _, attr := range attrs {
		clone.attrs = append(clone.attrs, keyValue(h.groupPrefix, attr)...)
	}
	return &clone
}

func (h *OTLPLogHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.consoleHandler = h.consoleHandler.WithGroup(name)
	clone.groupPrefix = h.groupPrefix + name + "."
	return &clone
}

// severityOf maps slog levels onto the OTEL severity numbers (INFO is 9).
func severityOf(level slog.Level) otellog.Severity {
	return otellog.Severity(int(level) + int(otellog.SeverityInfo))
}

func keyValue(prefix string, attr slog.Attr) []otellog.KeyValue {
	attr.Value = attr.Value.Resolve()
	if attr.Equal(slog.Attr{}) {
		return nil
	}

	key := prefix + attr.Key
	switch attr.Value.Kind() {
	case slog.KindString:
		return []otellog.KeyValue{otellog.String(key, attr.Value.String())}
	case slog.KindInt64:
		return []otellog.KeyValue{otellog.Int64(key, attr.Value.Int64())}
	case slog.KindUint64:
		return []otellog.KeyValue{otellog.Int64(key, int64(attr.Value.Uint64()))}
	case slog.KindFloat64:
		return []otellog.KeyValue{otellog.Float64(key, attr.Value.Float64())}
	case slog.KindBool:
		return []otellog.KeyValue{otellog.Bool(key, attr.Value.Bool())}
	case slog.KindGroup:
		var kvs []otellog.KeyValue
		groupPrefix := prefix
		if attr.Key != "" {
			groupPrefix = key + "."
		}
		for _, member := range attr.Value.Group() {
			kvs = append(kvs, keyValue(groupPrefix, member)...)
		}
		return kvs
	default:
		return []otellog.KeyValue{otellog.String(key, attr.Value.String())}
	}
}
