package container

import (
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fulldump/biff"
)

var eurusd = Address{Instrument: "fx/EURUSD", Kind: KindTrades, Timeframe: TimeframeTick}

func record(ticks int64) []byte {
	b := make([]byte, 16)
	binary.LittleEndian.PutUint64(b, uint64(ticks))
	binary.LittleEndian.PutUint64(b[8:], uint64(ticks*10))
	return b
}

func recordTicks(b []byte) int64 {
	return int64(binary.LittleEndian.Uint64(b))
}

func readAll(t *testing.T, d *Dataset) []int64 {
	result := []int64{}
	buf := make([]byte, 3*d.RecordSize()) // small on purpose, forces several chunks
	for from := uint64(0); ; {
		n, err := d.ReadRecords(from, buf)
		if err != nil {
			t.Fatalf("read records: %v", err)
		}
		if n == 0 {
			return result
		}
		for i := 0; i < n; i++ {
			result = append(result, recordTicks(buf[i*d.RecordSize():]))
		}
		from += uint64(n)
	}
}

func TestFile_CreateAndReopen(t *testing.T) {
	dir := t.TempDir()

	f, err := Open(dir, ModeReadWrite)
	biff.AssertNil(err)

	d, err := f.Dataset(eurusd, 16)
	biff.AssertNil(err)
	for i := int64(1); i <= 10; i++ {
		biff.AssertNil(d.Append(record(i)))
	}
	biff.AssertEqual(d.Count(), uint64(10))
	biff.AssertEqual(readAll(t, d), []int64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10})
	biff.AssertNil(f.Close())
	biff.AssertNil(f.Close()) // idempotent

	_, err = os.Stat(filepath.Join(dir, "fx", "EURUSD", "trades", "tick.tick"))
	biff.AssertNil(err)

	f, err = Open(dir, ModeRead)
	biff.AssertNil(err)
	defer f.Close()

	biff.AssertEqual(f.Datasets(), []Address{eurusd})

	d, err = f.Dataset(eurusd, 16)
	biff.AssertNil(err)
	biff.AssertTrue(d.ReadOnly())
	biff.AssertEqual(d.Count(), uint64(10))
	biff.AssertEqual(readAll(t, d), []int64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10})

	err = d.Append(record(11))
	biff.AssertTrue(errors.Is(err, ErrReadOnly))
}

func TestFile_ReadModeMissingDataset(t *testing.T) {
	f, err := Open(t.TempDir(), ModeRead)
	biff.AssertNil(err)
	defer f.Close()

	_, err = f.Dataset(eurusd, 16)
	biff.AssertTrue(errors.Is(err, ErrNotFound))
}

func TestFile_SameHandle(t *testing.T) {
	f, _ := Open(t.TempDir(), ModeReadWrite)
	defer f.Close()

	a, _ := f.Dataset(eurusd, 16)
	b, _ := f.Dataset(eurusd, 16)
	biff.AssertTrue(a == b)

	_, err := f.Dataset(eurusd, 24)
	biff.AssertTrue(errors.Is(err, ErrCorrupted))
}

func TestFile_RecordSizeMismatchOnDisk(t *testing.T) {
	dir := t.TempDir()
	f, _ := Open(dir, ModeReadWrite)
	f.Dataset(eurusd, 16)
	f.Close()

	f, _ = Open(dir, ModeReadWrite)
	defer f.Close()
	_, err := f.Dataset(eurusd, 24)
	biff.AssertTrue(errors.Is(err, ErrCorrupted))
}

func TestFile_TrailingPartialRecord(t *testing.T) {
	dir := t.TempDir()
	f, _ := Open(dir, ModeReadWrite)
	d, _ := f.Dataset(eurusd, 16)
	d.Append(record(1))
	f.Close()

	filename := filepath.Join(dir, filepath.FromSlash(eurusd.Path()))
	h, _ := os.OpenFile(filename, os.O_APPEND|os.O_WRONLY, 0666)
	h.Write([]byte{1, 2, 3})
	h.Close()

	f, _ = Open(dir, ModeReadWrite)
	defer f.Close()
	_, err := f.Dataset(eurusd, 16)
	biff.AssertTrue(errors.Is(err, ErrCorrupted))
}

func TestFile_CorruptedHeader(t *testing.T) {
	dir := t.TempDir()
	f, _ := Open(dir, ModeReadWrite)
	f.Dataset(eurusd, 16)
	f.Close()

	filename := filepath.Join(dir, filepath.FromSlash(eurusd.Path()))
	h, _ := os.OpenFile(filename, os.O_WRONLY, 0666)
	h.WriteAt([]byte{0xFF}, 9)
	h.Close()

	f, _ = Open(dir, ModeReadWrite)
	defer f.Close()
	_, err := f.Dataset(eurusd, 16)
	biff.AssertTrue(errors.Is(err, ErrCorrupted))
}

func TestFile_Remove(t *testing.T) {
	f, _ := Open(t.TempDir(), ModeReadWrite)
	defer f.Close()

	d, _ := f.Dataset(eurusd, 16)
	d.Append(record(1))

	biff.AssertNil(f.Remove(eurusd))
	biff.AssertFalse(f.Has(eurusd))
	biff.AssertEqual(len(f.Datasets()), 0)

	err := f.Remove(eurusd)
	biff.AssertTrue(errors.Is(err, ErrNotFound))
}

func TestFile_DatasetsOrdered(t *testing.T) {
	f, _ := Open(t.TempDir(), ModeReadWrite)
	defer f.Close()

	b := Address{Instrument: "BTCUSD", Kind: KindBars, Timeframe: Timeframe1m}
	q := Address{Instrument: "BTCUSD", Kind: KindQuotes, Timeframe: TimeframeTick}
	f.Dataset(eurusd, 16)
	f.Dataset(q, 24)
	f.Dataset(b, 16)

	biff.AssertEqual(f.Datasets(), []Address{b, q, eurusd})
}

func TestFile_ClosedDataset(t *testing.T) {
	f, _ := Open(t.TempDir(), ModeReadWrite)
	d, _ := f.Dataset(eurusd, 16)
	f.Close()

	_, err := d.ReadRecords(0, make([]byte, 16))
	biff.AssertTrue(errors.Is(err, ErrClosed))

	_, err = f.Dataset(eurusd, 16)
	biff.AssertTrue(errors.Is(err, ErrClosed))
}

func TestFile_BackgroundFlusher(t *testing.T) {
	f, _ := Open(t.TempDir(), ModeReadWrite)
	defer f.Close()

	d, _ := f.Dataset(eurusd, 16)
	d.Append(record(1))

	stop := StartBackgroundFlusher(f, 10*time.Millisecond, func(err error) {
		t.Errorf("flush: %v", err)
	})
	time.Sleep(50 * time.Millisecond)
	close(stop)

	info, err := os.Stat(filepath.Join(f.Dir(), filepath.FromSlash(eurusd.Path())))
	biff.AssertNil(err)
	biff.AssertEqual(info.Size(), int64(headerSize+16))
}
