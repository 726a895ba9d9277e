package container

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/btree"
)

type Mode int

const (
	ModeRead Mode = iota
	ModeReadWrite
)

// File is a directory holding datasets addressed by instrument, kind and
// timeframe. Known datasets are kept in a catalog ordered by address.
type File struct {
	dir  string
	mode Mode

	mu      sync.Mutex
	catalog *btree.BTreeG[*entry]
	closed  bool
}

type entry struct {
	address Address
	dataset *Dataset // nil until opened
}

func Open(dir string, mode Mode) (*File, error) {

	if mode == ModeReadWrite {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create dir: %w", err)
		}
	}

	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("open file: '%s' is not a directory", dir)
	}

	f := &File{
		dir:  dir,
		mode: mode,
		catalog: btree.NewG(32, func(a, b *entry) bool {
			return a.address.Less(b.address)
		}),
	}

	err = filepath.WalkDir(dir, func(filename string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(filename, extension) {
			return nil
		}

		rel, err := filepath.Rel(dir, filename)
		if err != nil {
			return err
		}
		address, err := ParsePath(filepath.ToSlash(rel))
		if err != nil {
			return nil // not ours
		}

		f.catalog.ReplaceOrInsert(&entry{address: address})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan '%s': %w", dir, err)
	}

	return f, nil
}

func (f *File) Dir() string {
	return f.dir
}

func (f *File) ReadOnly() bool {
	return f.mode == ModeRead
}

// Datasets lists every known address in ascending order.
func (f *File) Datasets() []Address {
	f.mu.Lock()
	defer f.mu.Unlock()

	result := make([]Address, 0, f.catalog.Len())
	f.catalog.Ascend(func(e *entry) bool {
		result = append(result, e.address)
		return true
	})
	return result
}

func (f *File) Has(address Address) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.catalog.Has(&entry{address: address})
}

// Dataset opens the dataset at address. In read-write mode a missing dataset
// is created with the given record size. Opening an already open address
// returns the same handle.
func (f *File) Dataset(address Address, recordSize int) (*Dataset, error) {
	if err := address.Validate(); err != nil {
		return nil, err
	}
	if recordSize <= 0 {
		return nil, fmt.Errorf("invalid record size %d", recordSize)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return nil, ErrClosed
	}

	e, exists := f.catalog.Get(&entry{address: address})
	if exists && e.dataset != nil {
		if e.dataset.recordSize != recordSize {
			return nil, fmt.Errorf("%w: record size %d, expected %d", ErrCorrupted, recordSize, e.dataset.recordSize)
		}
		return e.dataset, nil
	}

	filename := filepath.Join(f.dir, filepath.FromSlash(address.Path()))

	var d *Dataset
	var err error
	switch {
	case exists:
		d, err = openDataset(filename, address, recordSize, f.ReadOnly())
	case f.ReadOnly():
		return nil, fmt.Errorf("%w: %s", ErrNotFound, address)
	default:
		d, err = createDataset(filename, address, recordSize)
		e = &entry{address: address}
	}
	if err != nil {
		return nil, err
	}

	d.onClose = func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		if e.dataset == d {
			e.dataset = nil
		}
	}
	e.dataset = d
	f.catalog.ReplaceOrInsert(e)

	return d, nil
}

// Remove closes and deletes the dataset at address.
func (f *File) Remove(address Address) error {
	if f.ReadOnly() {
		return ErrReadOnly
	}

	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return ErrClosed
	}
	e, exists := f.catalog.Delete(&entry{address: address})
	f.mu.Unlock()

	if !exists {
		return fmt.Errorf("%w: %s", ErrNotFound, address)
	}

	if e.dataset != nil {
		if err := e.dataset.Close(); err != nil {
			return fmt.Errorf("close: %w", err)
		}
	}

	err := os.Remove(filepath.Join(f.dir, filepath.FromSlash(address.Path())))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove: %w", err)
	}
	return nil
}

func (f *File) openDatasets() []*Dataset {
	f.mu.Lock()
	defer f.mu.Unlock()

	result := []*Dataset{}
	f.catalog.Ascend(func(e *entry) bool {
		if e.dataset != nil {
			result = append(result, e.dataset)
		}
		return true
	})
	return result
}

// Flush syncs every open dataset to disk.
func (f *File) Flush() error {
	var lastErr error
	for _, d := range f.openDatasets() {
		if err := d.Sync(); err != nil && !errors.Is(err, ErrClosed) {
			lastErr = fmt.Errorf("sync '%s': %w", d.address, err)
		}
	}
	return lastErr
}

// Close closes every open dataset. It is safe to call more than once.
func (f *File) Close() error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return nil
	}
	f.closed = true
	f.mu.Unlock()

	var lastErr error
	for _, d := range f.openDatasets() {
		if err := d.Close(); err != nil {
			lastErr = fmt.Errorf("close '%s': %w", d.address, err)
		}
	}
	return lastErr
}
