package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/nazarhussain/portfolio-courier/internal/logging"
)

// File persists the table as a single JSON object on disk.
type File struct {
	path string
}

func NewFile(path string) *File {
	return &File{path: path}
}

func (f *File) Load(ctx context.Context) (Table, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return Table{}, nil
	}
	if err != nil {
		logging.FromContext(ctx).Warn("reading submissions file failed", "path", f.path, "err", err)
		return Table{}, nil
	}

	var t Table
	if err := json.Unmarshal(data, &t); err != nil {
		// Corrupt data is treated as no data.
		logging.FromContext(ctx).Warn("submissions file is not valid JSON, starting empty", "path", f.path, "err", err)
		return Table{}, nil
	}
	if t == nil {
		t = Table{}
	}
	return t, nil
}

func (f *File) Save(ctx context.Context, t Table) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("create store directory: %w", err)
	}

	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("encode submissions: %w", err)
	}

	// Write-then-rename so a crash mid-write never leaves a truncated table.
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write submissions: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("replace submissions: %w", err)
	}
	return nil
}
