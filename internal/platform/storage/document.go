package storage

import (
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/bytedance/sonic"

	"lobsterboard-server-go/internal/platform/errors"
)

// Document is a file-backed JSON document. Load never fails on the hot
// path: a missing file yields the empty value and a corrupt file is
// logged and treated as empty. Load and Save are serialized per
// document, but read-modify-write sequences spanning both calls are
// still last-writer-wins.
type Document[T any] struct {
	path   string
	logger *slog.Logger
	empty  func() T

	mu sync.Mutex
}

func NewDocument[T any](path string, logger *slog.Logger, empty func() T) *Document[T] {
	return &Document[T]{
		path:   path,
		logger: logger,
		empty:  empty,
	}
}

func (d *Document[T]) Path() string {
	return d.path
}

// Load reads the current document state.
func (d *Document[T]) Load() T {
	d.mu.Lock()
	defer d.mu.Unlock()

	data, err := os.ReadFile(d.path)
	if err != nil {
		if !os.IsNotExist(err) && d.logger != nil {
			d.logger.Warn("[STORE] unreadable document, treating as empty",
				"path", d.path, "error", err)
		}
		return d.empty()
	}

	v := d.empty()
	if err := sonic.Unmarshal(data, &v); err != nil {
		if d.logger != nil {
			d.logger.Warn("[STORE] corrupt document, treating as empty",
				"path", d.path, "error", err)
		}
		return d.empty()
	}
	return v
}

// Save writes the document, creating parent directories as needed.
func (d *Document[T]) Save(v T) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	data, err := sonic.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrap(errors.KindStore, "document.save", "marshal "+d.path, err)
	}
	if dir := filepath.Dir(d.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrap(errors.KindStore, "document.save", "create "+dir, err)
		}
	}
	if err := os.WriteFile(d.path, data, 0o644); err != nil {
		return errors.Wrap(errors.KindStore, "document.save", "write "+d.path, err)
	}
	return nil
}
