package orm_test

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/mickamy/ormrecord/orm"
)

func TestStatement(t *testing.T) {
	t.Parallel()

	tests := []struct {
		query string
		want  string
	}{
		{"SELECT * FROM car", "select"},
		{"  insert INTO car (name) VALUES (?)", "insert"},
		{"UPDATE car SET name = ?", "update"},
		{"DELETE FROM car WHERE id = ?", "delete"},
		{"PRAGMA foreign_keys = ON", "other"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			t.Parallel()

			if got := orm.Statement(tt.query); got != tt.want {
				t.Errorf("Statement(%q) = %q, want %q", tt.query, got, tt.want)
			}
		})
	}
}

func TestMetricsLogger(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m, err := orm.NewMetricsLogger(reg)
	if err != nil {
		t.Fatalf("NewMetricsLogger: %v", err)
	}

	ctx := context.Background()
	m.Log(ctx, "SELECT * FROM car")
	m.Log(ctx, "SELECT * FROM manufactor WHERE id IN (?)", 1)
	m.Log(ctx, "INSERT INTO car (name) VALUES (?)", "Audi")

	if got := testutil.ToFloat64(m.Counter().WithLabelValues("select")); got != 2 {
		t.Errorf("select = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.Counter().WithLabelValues("insert")); got != 1 {
		t.Errorf("insert = %v, want 1", got)
	}

	if _, err := orm.NewMetricsLogger(reg); err == nil {
		t.Error("registering twice should fail")
	}
}

func TestSlogLoggerAndFanOut(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	var seen []string
	capture := orm.LoggerFunc(func(_ context.Context, query string, _ ...any) {
		seen = append(seen, query)
	})

	orm.Loggers(orm.SlogLogger(l), nil, capture).Log(context.Background(), "SELECT 1")

	if !strings.Contains(buf.String(), `sql="SELECT 1"`) {
		t.Errorf("slog output = %q", buf.String())
	}
	if len(seen) != 1 || seen[0] != "SELECT 1" {
		t.Errorf("seen = %v", seen)
	}
}
