package adapters

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"ticker_backend/internal/feature/ticker/domain/entity"
	"ticker_backend/internal/feature/ticker/usecase"
)

// FileSnapshotStore はティッカー状態を1つのJSONファイルとして保存します。
type FileSnapshotStore struct {
	path string
}

// FileSnapshotStoreがSnapshotStoreを実装していることをコンパイル時に検証します。
var _ usecase.SnapshotStore = (*FileSnapshotStore)(nil)

// NewFileSnapshotStore は path に保存する FileSnapshotStore を生成します。
func NewFileSnapshotStore(path string) *FileSnapshotStore {
	return &FileSnapshotStore{path: path}
}

// Save は状態全体をJSONで書き込みます。
// 一時ファイルに書いてからリネームし、書き込み途中のファイルが読まれないようにします。
func (s *FileSnapshotStore) Save(_ context.Context, state *entity.TickerState) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close snapshot: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("chmod snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("rename snapshot: %w", err)
	}
	return nil
}

// Load はファイルから状態を読み込みます。ファイルが存在しない場合は (nil, nil) を返します。
func (s *FileSnapshotStore) Load(_ context.Context) (*entity.TickerState, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read snapshot %s: %w", s.path, err)
	}

	var state entity.TickerState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("parse snapshot %s: %w", s.path, err)
	}
	return &state, nil
}
