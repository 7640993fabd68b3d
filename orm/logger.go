package orm

import (
	"context"
	"log/slog"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

// Logger is the interface for query logging.
type Logger interface {
	Log(ctx context.Context, query string, args ...any)
}

// LoggerFunc adapts a plain function to Logger.
type LoggerFunc func(ctx context.Context, query string, args ...any)

func (f LoggerFunc) Log(ctx context.Context, query string, args ...any) { f(ctx, query, args...) }

// SlogLogger logs every statement at debug level.
func SlogLogger(l *slog.Logger) Logger {
	return LoggerFunc(func(ctx context.Context, query string, args ...any) {
		l.DebugContext(ctx, "orm: query", slog.String("sql", query), slog.Any("args", args))
	})
}

// Loggers fans a statement out to every non-nil logger.
func Loggers(ls ...Logger) Logger {
	return LoggerFunc(func(ctx context.Context, query string, args ...any) {
		for _, l := range ls {
			if l != nil {
				l.Log(ctx, query, args...)
			}
		}
	})
}

// MetricsLogger counts executed statements by leading SQL verb.
type MetricsLogger struct {
	queries *prometheus.CounterVec
}

// NewMetricsLogger registers the ormrecord_queries_total counter with reg.
func NewMetricsLogger(reg prometheus.Registerer) (*MetricsLogger, error) {
	c := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ormrecord_queries_total",
		Help: "Number of SQL statements sent to the database, by statement type.",
	}, []string{"statement"})
	if err := reg.Register(c); err != nil {
		return nil, err //nolint:wrapcheck // pass through
	}
	return &MetricsLogger{queries: c}, nil
}

func (m *MetricsLogger) Log(_ context.Context, query string, _ ...any) {
	m.queries.WithLabelValues(statement(query)).Inc()
}

// Counter exposes the underlying counter vector.
func (m *MetricsLogger) Counter() *prometheus.CounterVec { return m.queries }

func statement(query string) string {
	verb, _, _ := strings.Cut(strings.TrimSpace(query), " ")
	switch v := strings.ToLower(verb); v {
	case "select", "insert", "update", "delete":
		return v
	default:
		return "other"
	}
}
