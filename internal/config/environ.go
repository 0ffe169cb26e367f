package config

import (
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// must stay the first declaration so .env values are visible to everything below
var dotenvLoaded = loadDotEnv()

var (
	Hostname, _    = os.Hostname()
	ServiceName    = GetEnv("SERVICE_NAME", "HistoryMap")
	ServiceVersion = "1.0"

	ServerAddress      = GetEnv("SERVER_ADDRESS", ":8080")
	ServerWriteTimeout = GetEnvAsDuration("SERVER_WRITE_TIMEOUT", 15*time.Second)
	ServerReadTimeout  = GetEnvAsDuration("SERVER_READ_TIMEOUT", 10*time.Second)
	ShutdownTimeout    = GetEnvAsDuration("SHUTDOWN_TIMEOUT", 15*time.Second)
	MaxUploadBytes     = int64(GetEnvAsInt("MAX_UPLOAD_BYTES", 64<<20))

	// ReimportMode is either "replace" or "accumulate".
	ReimportMode       = GetEnv("REIMPORT_MODE", "replace")
	MapZoom            = GetEnvAsInt("MAP_ZOOM", 14)
	MapTileURL         = GetEnv("MAP_TILE_URL", "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png")
	MapTileAttribution = GetEnv("MAP_TILE_ATTRIBUTION", `&copy; <a href="https://osm.org/copyright">OpenStreetMap</a> contributors`)

	// GeoLatitude and GeoLongitude pin the current location server-side; when
	// unset the browser reports it instead.
	GeoLatitude  = GetEnvAsFloat("GEO_LATITUDE", math.NaN())
	GeoLongitude = GetEnvAsFloat("GEO_LONGITUDE", math.NaN())

	LogLevel        = GetEnv("LOG_LEVEL", "info")
	LogFile         = GetEnv("LOG_FILE", "")
	LogMaxSizeMB    = GetEnvAsInt("LOG_MAX_SIZE_MB", 100)
	LogMaxBackups   = GetEnvAsInt("LOG_MAX_BACKUPS", 3)
	LogMaxAgeDays   = GetEnvAsInt("LOG_MAX_AGE_DAYS", 28)
	LogFileCompress = GetEnvAsBool("LOG_FILE_COMPRESS", true)

	OTELCollectorURL          = GetEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317")
	OTELCompressor            = GetEnv("OTEL_EXPORTER_OTLP_COMPRESSION", "gzip")
	OTELExporterInsecure      = GetEnvAsBool("OTEL_EXPORTER_INSECURE", true)
	OTELTracerEnabled         = GetEnvAsBool("OTEL_TRACES_ENABLED", false)
	OTELMeterEnabled          = GetEnvAsBool("OTEL_METRICS_ENABLED", false)
	OTELLogsEnabled           = GetEnvAsBool("OTEL_LOGS_ENABLED", false)
	OTELLogsExporter          = GetEnv("OTEL_LOGS_EXPORTER", "otlp")
	OTELMeterInterval         = GetEnvAsDuration("OTEL_METRIC_EXPORT_INTERVAL", 10*time.Second)
	OTELTraceSampleRatio      = GetEnvAsFloat("OTEL_TRACES_SAMPLER_ARG", 1.0)
	OTELPrefixQuerySpanName   = GetEnvAsBool("OTEL_PREFIX_QUERY_SPAN_NAME", true)
	OTELTracerLogSQLStatement = GetEnvAsBool("OTEL_TRACER_LOG_SQL_STATEMENT", true)
	OTELTracerIncludeParams   = GetEnvAsBool("OTEL_TRACER_INCLUDE_PARAMS", false)

	// the import audit table is optional; nothing about the export itself is stored
	DBEnabled               = GetEnvAsBool("DB_ENABLED", false)
	DBUserName              = GetEnv("DB_USERNAME", "yugabyte")
	DBPassword              = GetEnv("DB_PASSWORD", "")
	DBHostname              = GetEnv("DB_HOSTNAME", "127.0.0.1:5433")
	DBDatabase              = GetEnv("DB_DATABASE", "yugabyte")
	DBSSLMode               = GetEnv("DB_SSLMODE", "disable")
	DBStatementTimeout      = GetEnvAsDuration("DB_STATEMENT_TIMEOUT", 5*time.Second)
	DBYSQLLoadBalance       = GetEnv("DB_YSQL_LOAD_BALANCE", "false")
	DBYSQLTopologyKeys      = GetEnv("DB_YSQL_TOPOLOGY_KEYS", "")
	DBMaxConns              = int32(GetEnvAsInt("DB_MAX_CONNS", 4))
	DBMinConns              = int32(GetEnvAsInt("DB_MIN_CONNS", 1))
	DBMaxConnLifetime       = GetEnvAsDuration("DB_MAX_CONN_LIFETIME", 4*time.Hour)
	DBMaxConnLifetimeJitter = GetEnvAsDuration("DB_MAX_CONN_LIFETIME_JITTER", 15*time.Minute)
	DBHealthCheckPeriod     = GetEnvAsDuration("DB_HEALTH_CHECK_PERIOD", 10*time.Minute)
	DBConnectTimeout        = GetEnvAsDuration("DB_CONNECT_TIMEOUT", 5*time.Second)
)

var (
	SlogServiceName    = slog.String("service.name", ServiceName)
	SlogServiceAddress = slog.String("service.address", ServerAddress)
)

// ErrAttr wraps an error as a slog attribute under the "error" key.
func ErrAttr(err error) slog.Attr {
	return slog.Any("error", err)
}

func loadDotEnv() bool {
	if err := godotenv.Load(); err != nil {
		return false
	}
	return true
}

// DotEnvLoaded reports whether a .env file was found at startup.
func DotEnvLoaded() bool {
	return dotenvLoaded
}

func GetEnv(key string, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func GetEnvAsInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return fallback
}

func GetEnvAsBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if boolValue, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return boolValue
		}
	}
	return fallback
}

func GetEnvAsFloat(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok {
		if floatValue, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			return floatValue
		}
	}
	return fallback
}

// GetEnvAsDuration accepts Go duration strings ("15s") or a bare number of seconds.
func GetEnvAsDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		if seconds, err := strconv.Atoi(value); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return fallback
}
