package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPoolFromEnv(t *testing.T) {
	t.Setenv("POSTGRES_MAX_OPEN_CONNS", "20")
	t.Setenv("POSTGRES_MAX_IDLE_CONNS", "nope")
	t.Setenv("POSTGRES_CONN_MAX_LIFETIME_SECONDS", "90")

	pool := PoolFromEnv()
	require.Equal(t, 20, pool.MaxOpenConns)
	require.Zero(t, pool.MaxIdleConns)
	require.Equal(t, 90*time.Second, pool.ConnMaxLifetime)
}

func TestConnectRejectsEmptyDSN(t *testing.T) {
	_, err := Connect(context.Background(), " ", Pool{})
	require.Error(t, err)

	db, cleanup := ConnectFromEnv(context.Background(), "", nil)
	require.Nil(t, db)
	cleanup()
}

func TestGormConfigTranslatesDriverErrors(t *testing.T) {
	require.True(t, GormConfig().TranslateError)
}
