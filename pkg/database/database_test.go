package database

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"testing/fstest"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRetryBackoff_ExponentialWithJitter(t *testing.T) {
	for attempt := 0; attempt < 3; attempt++ {
		base := defaultRetryBaseWait << attempt
		minExpected := time.Duration(float64(base) * (1 - retryJitterFraction))
		maxExpected := time.Duration(float64(base) * (1 + retryJitterFraction))

		for i := 0; i < 20; i++ {
			d := retryBackoff(attempt)
			assert.GreaterOrEqual(t, d, minExpected)
			assert.LessOrEqual(t, d, maxExpected)
		}
	}
}

func TestWithRetry_SucceedsFirstTry(t *testing.T) {
	calls := 0
	err := withRetry(context.Background(), "postgres", discardLogger(), func() error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestWithRetry_CancelledContextStops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := withRetry(ctx, "mongo", discardLogger(), func() error {
		calls++
		return errors.New("dial tcp: connection refused")
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestIsConnectionError(t *testing.T) {
	assert.False(t, isConnectionError(nil))
	assert.True(t, isConnectionError(errors.New("dial tcp 127.0.0.1:5432: connection refused")))
	assert.True(t, isConnectionError(errors.New("read: connection reset by peer")))
	assert.True(t, isConnectionError(errors.New("unexpected EOF")))
	assert.False(t, isConnectionError(errors.New("syntax error at or near \"SELEC\"")))
	assert.False(t, isConnectionError(errors.New("duplicate key value violates unique constraint")))
}

func TestPostgresConfig_DSN(t *testing.T) {
	cfg := PostgresConfig{Host: "db", Port: 5432, User: "shop", Password: "pw", DBName: "shopper", SSLMode: "disable"}
	assert.Equal(t, "postgres://shop:pw@db:5432/shopper?sslmode=disable", cfg.DSN())
}

func TestRunMigrations_AppliesPendingOnly(t *testing.T) {
	mock, err := NewMockPool()
	require.NoError(t, err)
	defer mock.Close()

	migrations := fstest.MapFS{
		"001_users.up.sql":      {Data: []byte("CREATE TABLE users (email TEXT PRIMARY KEY)")},
		"002_products.up.sql":   {Data: []byte("CREATE TABLE products (id TEXT PRIMARY KEY)")},
		"002_products.down.sql": {Data: []byte("DROP TABLE products")},
		"README.md":             {Data: []byte("ignored")},
	}

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").
		WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectQuery("SELECT EXISTS").WithArgs("001_users.up.sql").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery("SELECT EXISTS").WithArgs("002_products.up.sql").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectBegin()
	mock.ExpectExec("CREATE TABLE products").WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectExec("INSERT INTO schema_migrations").WithArgs("002_products.up.sql").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	require.NoError(t, RunMigrations(context.Background(), mock, migrations, discardLogger()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunMigrations_SQLErrorRollsBack(t *testing.T) {
	mock, err := NewMockPool()
	require.NoError(t, err)
	defer mock.Close()

	migrations := fstest.MapFS{
		"001_bad.up.sql": {Data: []byte("CREATE TABLEX nope")},
	}

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").
		WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectQuery("SELECT EXISTS").WithArgs("001_bad.up.sql").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectBegin()
	mock.ExpectExec("CREATE TABLEX").WillReturnError(errors.New("syntax error at or near \"TABLEX\""))
	mock.ExpectRollback()

	err = RunMigrations(context.Background(), mock, migrations, discardLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "execute migration 001_bad.up.sql")
	assert.NoError(t, mock.ExpectationsWereMet())
}

type fakeStats struct{}

func (fakeStats) AcquiredConns() int32        { return 3 }
func (fakeStats) IdleConns() int32            { return 2 }
func (fakeStats) TotalConns() int32           { return 5 }
func (fakeStats) MaxConns() int32             { return 25 }
func (fakeStats) AcquireCount() int64         { return 100 }
func (fakeStats) EmptyAcquireCount() int64    { return 4 }
func (fakeStats) CanceledAcquireCount() int64 { return 1 }

func TestPoolStatsCollector(t *testing.T) {
	c := newPoolStatsCollector(func() PoolStats { return fakeStats{} }, "shopper")

	reg := prometheus.NewRegistry()
	require.NoError(t, reg.Register(c))

	assert.Equal(t, 7, testutil.CollectAndCount(c))
	assert.Equal(t, 1, testutil.CollectAndCount(c, "db_pool_max_connections"))

	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() == "db_pool_max_connections" {
			assert.Equal(t, 25.0, mf.GetMetric()[0].GetGauge().GetValue())
		}
	}
}

func TestTraceQuery_SlowQueryLogged(t *testing.T) {
	var buf bytes.Buffer
	SetSlowQueryLogging(time.Nanosecond, slog.New(slog.NewJSONHandler(&buf, nil)))
	t.Cleanup(func() { SetSlowQueryLogging(0, nil) })

	_, end := TraceQuery(context.Background(), "ListProducts", "SELECT 1")
	time.Sleep(time.Millisecond)
	end(nil)

	assert.Contains(t, buf.String(), "slow query detected")
	assert.Contains(t, buf.String(), "ListProducts")
}

func TestTraceCommand_NoLoggingWhenDisabled(t *testing.T) {
	SetSlowQueryLogging(0, nil)
	ctx, end := TraceCommand(context.Background(), "FindProducts", "products")
	end(errors.New("server selection timeout"))
	assert.NotNil(t, ctx)
}
