package diskio

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGatewayReadWriteRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.db")
	gw, err := Open(path, testLogger(t))
	require.NoError(t, err)
	defer gw.Close()

	want := make([]byte, PageSize)
	for i := range want {
		want[i] = byte(i % 251)
	}
	require.NoError(t, gw.WritePage(PageID(3), want))

	got := make([]byte, PageSize)
	require.NoError(t, gw.ReadPage(PageID(3), got))
	require.Equal(t, want, got)
}

func TestGatewayReadPastEndOfFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.db")
	gw, err := Open(path, testLogger(t))
	require.NoError(t, err)
	defer gw.Close()

	buf := make([]byte, PageSize)
	err = gw.ReadPage(PageID(10), buf)
	require.ErrorIs(t, err, ErrShortIO)
}

func TestGatewayRejectsWrongBufferSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.db")
	gw, err := Open(path, testLogger(t))
	require.NoError(t, err)
	defer gw.Close()

	require.ErrorIs(t, gw.WritePage(PageID(0), make([]byte, PageSize-1)), ErrBufferSize)
	require.ErrorIs(t, gw.ReadPage(PageID(0), make([]byte, PageSize+1)), ErrBufferSize)
}

func TestGatewayClosedRejectsOps(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.db")
	gw, err := Open(path, testLogger(t))
	require.NoError(t, err)
	require.NoError(t, gw.Close())

	require.ErrorIs(t, gw.ReadPage(0, make([]byte, PageSize)), ErrFileNotOpen)
	require.ErrorIs(t, gw.WritePage(0, make([]byte, PageSize)), ErrFileNotOpen)
	require.NoError(t, gw.Close()) // idempotent
}
