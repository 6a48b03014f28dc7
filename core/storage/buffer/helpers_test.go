package buffer

import (
	"path/filepath"
	"testing"

	"github.com/rhea-devare/corestore/core/storage/diskio"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testLogger(t *testing.T) *zap.Logger {
	t.Helper()
	logger, err := zap.NewDevelopment()
	require.NoError(t, err)
	return logger
}

func newTestGatewayAndScheduler(t *testing.T) (*diskio.Gateway, *diskio.Scheduler) {
	t.Helper()
	gw, err := diskio.Open(filepath.Join(t.TempDir(), "pool.db"), testLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = gw.Close() })

	sched := diskio.NewScheduler(gw, 4, testLogger(t))
	t.Cleanup(sched.Close)
	return gw, sched
}

func newTestPool(t *testing.T, size, k int) *Pool {
	t.Helper()
	_, sched := newTestGatewayAndScheduler(t)
	return NewPool(size, k, sched, testLogger(t))
}

func newTestPoolWithGateway(t *testing.T, size, k int) (*Pool, *diskio.Gateway) {
	t.Helper()
	gw, sched := newTestGatewayAndScheduler(t)
	return NewPool(size, k, sched, testLogger(t)), gw
}
