package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	oteltrace "go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newMockGormDB(t *testing.T) *gorm.DB {
	t.Helper()

	mockDB, _, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	}), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)

	return db
}

func TestDefaultDBTracingConfig(t *testing.T) {
	cfg := DefaultDBTracingConfig()

	assert.False(t, cfg.Enabled)
	assert.False(t, cfg.LogFullSQL)
	assert.Equal(t, 200*time.Millisecond, cfg.SlowQueryThresh)
}

func TestRegisterDBTracing_Disabled(t *testing.T) {
	db := newMockGormDB(t)

	err := RegisterDBTracing(db, DBTracingConfig{Enabled: false}, zap.NewNop())
	assert.NoError(t, err)
}

func TestRegisterDBTracing_Enabled(t *testing.T) {
	db := newMockGormDB(t)

	cfg := DefaultDBTracingConfig()
	cfg.Enabled = true

	err := RegisterDBTracing(db, cfg, zap.NewNop())
	assert.NoError(t, err)
}

// newRecordedSpan starts a span on a recording provider and hands back the
// context plus the recorder for assertions after End.
func newRecordedSpan(t *testing.T) (context.Context, *tracetest.SpanRecorder) {
	t.Helper()

	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		_ = tp.Shutdown(t.Context())
	})

	ctx, _ := tp.Tracer("test").Start(context.Background(), "parent")
	return ctx, sr
}

func TestDBTracingCallbacks_RowsAffectedAndTable(t *testing.T) {
	ctx, sr := newRecordedSpan(t)
	db := newMockGormDB(t)

	cb := &dbTracingCallbacks{slowQueryThresh: time.Second}
	session := db.Session(&gorm.Session{NewDB: true})
	session.Statement.Context = ctx
	session.Statement.Table = "clients"
	session.Statement.RowsAffected = 3

	cb.after(session)
	oteltrace.SpanFromContext(ctx).End()

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Contains(t, spans[0].Attributes(), attribute.Int64("db.rows_affected", 3))
	assert.Contains(t, spans[0].Attributes(), attribute.String("db.sql.table", "clients"))
}

func TestDBTracingCallbacks_SlowQuery(t *testing.T) {
	ctx, sr := newRecordedSpan(t)
	db := newMockGormDB(t)

	cb := &dbTracingCallbacks{slowQueryThresh: time.Nanosecond}
	session := db.Session(&gorm.Session{NewDB: true})
	session.Statement.Context = context.WithValue(ctx, queryStartKey, time.Now().Add(-time.Millisecond))

	cb.after(session)
	oteltrace.SpanFromContext(ctx).End()

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Contains(t, spans[0].Attributes(), attribute.Bool("db.slow_query", true))

	events := spans[0].Events()
	require.NotEmpty(t, events)
	assert.Equal(t, "slow_query", events[0].Name)
}

func TestDBTracingCallbacks_ErrorMarking(t *testing.T) {
	t.Run("real errors set error status", func(t *testing.T) {
		ctx, sr := newRecordedSpan(t)
		db := newMockGormDB(t)

		cb := &dbTracingCallbacks{slowQueryThresh: time.Second}
		session := db.Session(&gorm.Session{NewDB: true})
		session.Statement.Context = ctx
		session.Error = assert.AnError

		cb.after(session)
		oteltrace.SpanFromContext(ctx).End()

		spans := sr.Ended()
		require.Len(t, spans, 1)
		assert.Equal(t, codes.Error, spans[0].Status().Code)
	})

	t.Run("record not found is not an error", func(t *testing.T) {
		ctx, sr := newRecordedSpan(t)
		db := newMockGormDB(t)

		cb := &dbTracingCallbacks{slowQueryThresh: time.Second}
		session := db.Session(&gorm.Session{NewDB: true})
		session.Statement.Context = ctx
		session.Error = gorm.ErrRecordNotFound

		cb.after(session)
		oteltrace.SpanFromContext(ctx).End()

		spans := sr.Ended()
		require.Len(t, spans, 1)
		assert.NotEqual(t, codes.Error, spans[0].Status().Code)
	})
}
