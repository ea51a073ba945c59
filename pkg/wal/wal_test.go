package wal

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type record struct {
	Seq  int    `json:"seq"`
	Note string `json:"note"`
}

func readRecords(t *testing.T, w *WAL) []record {
	t.Helper()
	var out []record
	err := w.ReadAll(func(raw []byte) error {
		var r record
		if err := json.Unmarshal(raw, &r); err != nil {
			return err
		}
		out = append(out, r)
		return nil
	})
	require.NoError(t, err)
	return out
}

func TestWAL_WriteFlushReadAll(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wal.log")
	w, err := NewWAL(path)
	require.NoError(t, err)

	for i := 1; i <= 3; i++ {
		require.NoError(t, w.Write(record{Seq: i, Note: "n"}))
	}
	require.NoError(t, w.Flush())
	require.NoError(t, w.Close())

	reopened, err := NewWAL(path)
	require.NoError(t, err)
	defer reopened.Close()

	got := readRecords(t, reopened)
	require.Len(t, got, 3)
	assert.Equal(t, 3, got[2].Seq)

	// 讀取後仍可繼續追加
	require.NoError(t, reopened.Write(record{Seq: 4}))
	require.NoError(t, reopened.Flush())
	assert.Len(t, readRecords(t, reopened), 4)
}

func TestWAL_Truncate(t *testing.T) {
	w, err := NewWAL(filepath.Join(t.TempDir(), "wal.log"))
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, w.Write(record{Seq: 1}))
	require.NoError(t, w.Flush())
	require.NoError(t, w.Truncate())
	assert.Empty(t, readRecords(t, w))

	require.NoError(t, w.Write(record{Seq: 2}))
	require.NoError(t, w.Flush())
	got := readRecords(t, w)
	require.Len(t, got, 1)
	assert.Equal(t, 2, got[0].Seq)
}

func TestWAL_ReadAllStopsOnCallbackError(t *testing.T) {
	w, err := NewWAL(filepath.Join(t.TempDir(), "wal.log"))
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, w.Write(record{Seq: 1}))
	require.NoError(t, w.Write(record{Seq: 2}))
	require.NoError(t, w.Flush())

	calls := 0
	err = w.ReadAll(func([]byte) error {
		calls++
		return assert.AnError
	})
	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, 1, calls)
}
