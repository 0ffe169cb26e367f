package shared

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"sort"
	"strings"

	"github.com/ssherwood/historymap/internal/config"
	"github.com/yugabyte/pgx/v5"
	"github.com/yugabyte/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
	semconv "go.opentelemetry.io/otel/semconv/v1.25.0"
)

// InitializeDB opens the pool backing the import audit table.
func InitializeDB(ctx context.Context) (*pgxpool.Pool, error) {
	poolConfig, configErr := pgxPoolConfig()
	if configErr != nil {
		return nil, configErr
	}

	dbPool, poolErr := pgxpool.NewWithConfig(ctx, poolConfig)
	if poolErr != nil {
		slog.Error("Unable to create pgx connection pool", config.ErrAttr(poolErr))
		return nil, poolErr
	}

	if config.OTELMeterEnabled {
		_ = InitPgxPoolMeter(dbPool)
	}
	return dbPool, nil
}

// PingDB forces at least one connection so a bad DSN fails at startup.
func PingDB(ctx context.Context, db *pgxpool.Pool) error {
	ctx, cancel := context.WithTimeout(ctx, config.DBConnectTimeout)
	defer cancel()

	if err := db.Ping(ctx); err != nil {
		slog.Error("Unable to reach database", "host", config.DBHostname, config.ErrAttr(err))
		return err
	}
	return nil
}

func connectionURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s/%s?%s",
		url.PathEscape(config.DBUserName), url.PathEscape(config.DBPassword), config.DBHostname, config.DBDatabase,
		mapToOptions(
			map[string]string{
				"sslmode":           config.DBSSLMode,
				"statement_timeout": fmt.Sprint(config.DBStatementTimeout.Milliseconds()),
				"application_name":  config.ServiceName,
				"load_balance":      config.DBYSQLLoadBalance,
				"topology_keys":     config.DBYSQLTopologyKeys,
			},
		),
	)
}

func pgxPoolConfig() (*pgxpool.Config, error) {
	connURL := connectionURL()

	poolConfig, err := pgxpool.ParseConfig(connURL)
	if err != nil {
		slog.Warn("Failed to parse pgxpool url", "url", maskPostgresPassword(connURL), config.ErrAttr(err))
		return nil, err
	}

	poolConfig.MaxConns = config.DBMaxConns
	poolConfig.MinConns = config.DBMinConns
	poolConfig.MaxConnLifetime = config.DBMaxConnLifetime
	poolConfig.MaxConnLifetimeJitter = config.DBMaxConnLifetimeJitter
	poolConfig.HealthCheckPeriod = config.DBHealthCheckPeriod
	poolConfig.ConnConfig.ConnectTimeout = config.DBConnectTimeout

	poolConfig.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		slog.Debug("Opened database connection", "host", conn.Config().Host)
		return nil
	}
	poolConfig.BeforeClose = func(c *pgx.Conn) {
		slog.Debug("Closed database connection", "host", c.Config().Host)
	}

	if config.OTELTracerEnabled {
		poolConfig.ConnConfig.Tracer = NewQueryTracer([]attribute.KeyValue{
			semconv.DBSystemKey.String("yugabytedb"),
			semconv.DBConnectionStringKey.String(maskPostgresPassword(connURL)),
			semconv.ServerAddress(config.Hostname),
		})
	}

	return poolConfig, nil
}

// mapToOptions renders query parameters in key order, dropping empty values.
func mapToOptions(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for key, value := range params {
		if value != "" {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, key := range keys {
		pairs = append(pairs, fmt.Sprintf("%s=%s", key, url.QueryEscape(params[key])))
	}
	return strings.Join(pairs, "&")
}

var passwordPattern = regexp.MustCompile(`(postgres://[^:]+:)([^@]+)(@.+)`)

func maskPostgresPassword(connURL string) string {
	return passwordPattern.ReplaceAllString(connURL, `${1}*****${3}`)
}
