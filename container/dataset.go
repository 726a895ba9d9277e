package container

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

const writeBufferSize = 1024 * 1024

// Dataset is a file of fixed size records behind a checksummed header.
// Records are addressed by index: record i lives at header + i*recordSize.
// Appends are buffered; every other operation flushes first so reads always
// observe appended records.
type Dataset struct {
	address    Address
	filename   string
	recordSize int
	readOnly   bool
	scratch    bool

	mu      sync.Mutex
	file    *os.File
	writer  *bufio.Writer
	size    int64  // bytes already in the file, header included
	count   uint64 // records, buffered ones included
	onClose func()
}

// endWriter appends at the current end of the dataset file.
type endWriter struct {
	d *Dataset
}

func (w endWriter) Write(p []byte) (int, error) {
	n, err := w.d.file.WriteAt(p, w.d.size)
	w.d.size += int64(n)
	return n, err
}

func createDataset(filename string, address Address, recordSize int) (*Dataset, error) {
	err := os.MkdirAll(filepath.Dir(filename), 0755)
	if err != nil {
		return nil, fmt.Errorf("create dataset dir: %w", err)
	}

	f, err := os.OpenFile(filename, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0666)
	if err != nil {
		return nil, fmt.Errorf("create dataset: %w", err)
	}

	h := header{
		Version:    headerVersion,
		Kind:       address.Kind,
		RecordSize: uint32(recordSize),
	}
	if _, err := f.WriteAt(h.encode(), 0); err != nil {
		f.Close()
		os.Remove(filename)
		return nil, fmt.Errorf("write header: %w", err)
	}

	d := &Dataset{
		address:    address,
		filename:   filename,
		recordSize: recordSize,
		file:       f,
		size:       headerSize,
	}
	d.writer = bufio.NewWriterSize(endWriter{d}, writeBufferSize)

	return d, nil
}

func openDataset(filename string, address Address, recordSize int, readOnly bool) (*Dataset, error) {
	flag := os.O_RDWR
	if readOnly {
		flag = os.O_RDONLY
	}

	f, err := os.OpenFile(filename, flag, 0666)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, address)
	}
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}

	d, err := loadDataset(f, address, recordSize)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("dataset '%s': %w", address, err)
	}
	d.filename = filename
	d.readOnly = readOnly

	return d, nil
}

func loadDataset(f *os.File, address Address, recordSize int) (*Dataset, error) {
	b := make([]byte, headerSize)
	if _, err := io.ReadFull(io.NewSectionReader(f, 0, headerSize), b); err != nil {
		return nil, fmt.Errorf("%w: read header: %v", ErrCorrupted, err)
	}

	h, err := decodeHeader(b)
	if err != nil {
		return nil, err
	}
	if h.Kind != address.Kind {
		return nil, fmt.Errorf("%w: kind %s, expected %s", ErrCorrupted, h.Kind, address.Kind)
	}
	if int(h.RecordSize) != recordSize {
		return nil, fmt.Errorf("%w: record size %d, expected %d", ErrCorrupted, h.RecordSize, recordSize)
	}

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	body := info.Size() - headerSize
	if body%int64(recordSize) != 0 {
		return nil, fmt.Errorf("%w: trailing partial record (%d bytes)", ErrCorrupted, body%int64(recordSize))
	}

	d := &Dataset{
		address:    address,
		recordSize: recordSize,
		file:       f,
		size:       info.Size(),
		count:      uint64(body / int64(recordSize)),
	}
	d.writer = bufio.NewWriterSize(endWriter{d}, writeBufferSize)

	return d, nil
}

func (d *Dataset) Address() Address {
	return d.address
}

func (d *Dataset) RecordSize() int {
	return d.recordSize
}

func (d *Dataset) ReadOnly() bool {
	return d.readOnly
}

func (d *Dataset) Count() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.count
}

func (d *Dataset) offset(index uint64) int64 {
	return headerSize + int64(index)*int64(d.recordSize)
}

// ReadRecords fills buf with as many whole records as fit, starting at
// record from. It returns the number of records read, zero at the end.
func (d *Dataset) ReadRecords(from uint64, buf []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.file == nil {
		return 0, ErrClosed
	}
	if from > d.count {
		return 0, fmt.Errorf("%w: read at %d, count %d", ErrOutOfRange, from, d.count)
	}
	if err := d.writer.Flush(); err != nil {
		return 0, fmt.Errorf("flush: %w", err)
	}

	n := uint64(len(buf) / d.recordSize)
	if left := d.count - from; n > left {
		n = left
	}
	if n == 0 {
		return 0, nil
	}

	want := int(n) * d.recordSize
	got, err := d.file.ReadAt(buf[:want], d.offset(from))
	if got == want {
		return int(n), nil
	}
	if err == nil || errors.Is(err, io.EOF) {
		err = io.ErrUnexpectedEOF
	}
	return 0, fmt.Errorf("read records at %d: %w", from, err)
}

// WriteRecords overwrites existing records starting at index at.
func (d *Dataset) WriteRecords(at uint64, data []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.writable(); err != nil {
		return err
	}
	if len(data)%d.recordSize != 0 {
		return fmt.Errorf("write %d bytes: not a multiple of record size %d", len(data), d.recordSize)
	}
	n := uint64(len(data) / d.recordSize)
	if at+n > d.count {
		return fmt.Errorf("%w: write [%d, %d), count %d", ErrOutOfRange, at, at+n, d.count)
	}
	if err := d.writer.Flush(); err != nil {
		return fmt.Errorf("flush: %w", err)
	}

	if _, err := d.file.WriteAt(data, d.offset(at)); err != nil {
		return fmt.Errorf("write records at %d: %w", at, err)
	}
	return nil
}

// Append adds whole records at the end.
func (d *Dataset) Append(data []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.writable(); err != nil {
		return err
	}
	if len(data)%d.recordSize != 0 {
		return fmt.Errorf("append %d bytes: not a multiple of record size %d", len(data), d.recordSize)
	}

	if _, err := d.writer.Write(data); err != nil {
		return fmt.Errorf("append: %w", err)
	}
	d.count += uint64(len(data) / d.recordSize)
	return nil
}

// Truncate keeps the first count records.
func (d *Dataset) Truncate(count uint64) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.writable(); err != nil {
		return err
	}
	if count > d.count {
		return fmt.Errorf("%w: truncate to %d, count %d", ErrOutOfRange, count, d.count)
	}
	if err := d.writer.Flush(); err != nil {
		return fmt.Errorf("flush: %w", err)
	}

	size := d.offset(count)
	if err := d.file.Truncate(size); err != nil {
		return fmt.Errorf("truncate: %w", err)
	}
	d.size = size
	d.count = count
	return nil
}

// Scratch creates an anonymous dataset with the same record size next to this
// one. It is removed from disk when closed.
func (d *Dataset) Scratch() (*Dataset, error) {
	filename := filepath.Join(filepath.Dir(d.filename), ".scratch-"+uuid.NewString()+".tmp")
	s, err := createDataset(filename, d.address, d.recordSize)
	if err != nil {
		return nil, fmt.Errorf("scratch: %w", err)
	}
	s.scratch = true
	return s, nil
}

// Keep makes a scratch dataset survive Close and returns its file name.
func (d *Dataset) Keep() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.scratch = false
	return d.filename
}

// Flush moves buffered appends to the operating system.
func (d *Dataset) Flush() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.file == nil {
		return ErrClosed
	}
	return d.writer.Flush()
}

// Sync flushes and forces the data down to the physical disk.
func (d *Dataset) Sync() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.file == nil {
		return ErrClosed
	}
	if err := d.writer.Flush(); err != nil {
		return err
	}
	if d.readOnly {
		return nil
	}
	return d.file.Sync()
}

// Close is safe to call more than once.
func (d *Dataset) Close() error {
	d.mu.Lock()
	if d.file == nil {
		d.mu.Unlock()
		return nil
	}

	err := d.writer.Flush()
	if closeErr := d.file.Close(); err == nil {
		err = closeErr
	}
	d.file = nil
	if d.scratch {
		os.Remove(d.filename)
	}
	onClose := d.onClose
	d.mu.Unlock()

	if onClose != nil {
		onClose()
	}
	return err
}

func (d *Dataset) writable() error {
	if d.file == nil {
		return ErrClosed
	}
	if d.readOnly {
		return ErrReadOnly
	}
	return nil
}
