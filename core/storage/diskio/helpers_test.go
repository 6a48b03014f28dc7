package diskio

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// testLogger builds a development logger for test output, the same way
// the write-ahead log tests set theirs up.
func testLogger(t *testing.T) *zap.Logger {
	t.Helper()
	logger, err := zap.NewDevelopment()
	require.NoError(t, err)
	return logger
}
