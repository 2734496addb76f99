package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func TestModelsCoverEverySchema(t *testing.T) {
	tables := map[string]bool{}
	for _, m := range Models() {
		tn, ok := m.(interface{ TableName() string })
		require.True(t, ok, "%T has no TableName", m)
		tables[tn.TableName()] = true
	}

	for _, want := range []string{
		"auth.identities",
		"audit.logs",
		"public.profiles",
		"public.patients",
		"public.doctors",
		"public.appointments",
		"public.prescriptions",
		"public.reports",
		"public.chats",
		"public.notifications",
		"public.daily_tips",
		"public.user_settings",
	} {
		assert.True(t, tables[want], "missing %s", want)
	}
}

func TestQueryLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := newLogger(zap.New(core), 50*time.Millisecond)
	ctx := context.Background()
	sql := func() (string, int64) { return `SELECT * FROM "public"."profiles" WHERE id = $1`, 1 }

	l.Trace(ctx, time.Now(), sql, nil)
	assert.Zero(t, logs.Len(), "fast queries are quiet at warn level")

	l.Trace(ctx, time.Now(), sql, gorm.ErrRecordNotFound)
	assert.Zero(t, logs.Len(), "not found is not a failure")

	l.Trace(ctx, time.Now().Add(-time.Second), sql, nil)
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "slow query", logs.All()[0].Message)

	l.Trace(ctx, time.Now(), sql, errors.New("deadlock detected"))
	require.Equal(t, 2, logs.Len())
	entry := logs.All()[1]
	assert.Equal(t, "query failed", entry.Message)
	assert.Equal(t, zapcore.ErrorLevel, entry.Level)

	l.LogMode(gormlogger.Silent).Trace(ctx, time.Now().Add(-time.Second), sql, errors.New("ignored"))
	assert.Equal(t, 2, logs.Len())
}
