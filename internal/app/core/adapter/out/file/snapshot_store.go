package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/JoeShih716/go-bank-ledger/internal/app/core/domain"
	"github.com/JoeShih716/go-bank-ledger/internal/app/core/usecase"
	"github.com/JoeShih716/go-bank-ledger/pkg/wal"
)

// SnapshotStore 將快照存成 JSON 檔
//
// 採原子寫入：先寫入 .tmp 檔並 Sync，再以 rename 取代原檔，
// 寫入中斷時原檔不會損壞。
type SnapshotStore struct {
	path string
}

func NewSnapshotStore(path string) *SnapshotStore {
	return &SnapshotStore{path: path}
}

// Load 讀取快照
//
// 回傳:
//
//	domain.Snapshot: 快照
//	error: 檔案不存在時回傳 usecase.ErrSnapshotNotFound；格式錯誤時回傳 domain.ErrMalformedSnapshot
func (s *SnapshotStore) Load(ctx context.Context) (domain.Snapshot, error) {
	var snap domain.Snapshot
	f, err := os.Open(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return snap, usecase.ErrSnapshotNotFound
	}
	if err != nil {
		return snap, err
	}
	defer f.Close()

	if err := json.NewDecoder(f).Decode(&snap); err != nil {
		return domain.Snapshot{}, fmt.Errorf("%w: %s: %w", domain.ErrMalformedSnapshot, s.path, err)
	}
	return snap, nil
}

// Save 以原子方式寫入快照
func (s *SnapshotStore) Save(ctx context.Context, snap domain.Snapshot) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	tmp := s.path + ".tmp"

	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, wal.FileModePrivate)
	if err != nil {
		return err
	}

	// 使用縮排格式輸出，方便手動檢視
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}

	// 原子替換
	return os.Rename(tmp, s.path)
}

var _ usecase.SnapshotStore = (*SnapshotStore)(nil)
