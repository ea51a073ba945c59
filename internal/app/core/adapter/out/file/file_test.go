package file

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JoeShih716/go-bank-ledger/internal/app/core/domain"
	"github.com/JoeShih716/go-bank-ledger/internal/app/core/usecase"
)

func TestSnapshotStore_LoadMissing(t *testing.T) {
	store := NewSnapshotStore(filepath.Join(t.TempDir(), "bank.json"))
	_, err := store.Load(context.Background())
	assert.ErrorIs(t, err, usecase.ErrSnapshotNotFound)
}

func TestSnapshotStore_SaveLoad(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "data", "bank.json")
	store := NewSnapshotStore(path)

	bank := domain.NewBank()
	require.NoError(t, bank.CreateCustomer("Ada", "Lovelace", "18151210-1234"))
	id, err := bank.CreateSavingsAccount("18151210-1234")
	require.NoError(t, err)
	require.NoError(t, bank.Deposit("18151210-1234", id, 500))
	want := bank.Snapshot()

	require.NoError(t, store.Save(ctx, want))
	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err), "tmp file should be renamed away")

	got, err := store.Load(ctx)
	require.NoError(t, err)
	wantJSON, _ := json.Marshal(want)
	gotJSON, _ := json.Marshal(got)
	assert.JSONEq(t, string(wantJSON), string(gotJSON))

	// 覆寫
	require.NoError(t, bank.CreateCustomer("Alan", "Turing", "19120623-1234"))
	require.NoError(t, store.Save(ctx, bank.Snapshot()))
	got, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, got.Customers, 2)
}

func TestSnapshotStore_LoadCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bank.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := NewSnapshotStore(path).Load(context.Background())
	assert.ErrorIs(t, err, domain.ErrMalformedSnapshot)
	assert.Equal(t, domain.KindPersistence, domain.KindOf(err))
}

func TestTextExporter_AppendAndRead(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "transaktioner.txt")
	exporter := NewTextExporter()

	require.NoError(t, exporter.Append(ctx, path, []string{"a", "b"}))
	require.NoError(t, exporter.Append(ctx, path, []string{"c"}))

	lines, err := exporter.Read(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, lines)
}

func TestTextExporter_ReadMissing(t *testing.T) {
	_, err := NewTextExporter().Read(context.Background(), filepath.Join(t.TempDir(), "nope.txt"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
