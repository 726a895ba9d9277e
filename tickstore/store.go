package tickstore

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/fulldump/tickdb/container"
	"github.com/fulldump/tickdb/logger"
)

const DefaultMaximumReadBufferBytes uint64 = 1024 * 1024

type Options struct {
	// MaximumReadBufferBytes bounds the working buffer used by every read. It
	// is always rounded up to hold at least one record.
	MaximumReadBufferBytes uint64
	Logger                 *logger.Logger
}

func DefaultOptions() Options {
	return Options{
		MaximumReadBufferBytes: DefaultMaximumReadBufferBytes,
	}
}

// Store is an ordered sequence of rows with strictly ascending ticks,
// persisted in a container dataset.
type Store[V any] struct {
	mu         sync.Mutex
	dataset    *container.Dataset
	codec      Codec[V]
	recordSize int
	log        *logger.Logger

	maximumReadBufferBytes uint64

	closed bool
	count  uint64
	first  int64
	last   int64
}

func Open[V any](dataset *container.Dataset, codec Codec[V], options Options) (*Store[V], error) {

	recordSize := RecordSize(codec)
	if dataset.RecordSize() != recordSize {
		return nil, fmt.Errorf("dataset '%s' has record size %d, codec needs %d", dataset.Address(), dataset.RecordSize(), recordSize)
	}

	if options.MaximumReadBufferBytes == 0 {
		options.MaximumReadBufferBytes = DefaultMaximumReadBufferBytes
	}
	log := options.Logger
	if log == nil {
		log = logger.NewNop()
	}

	s := &Store[V]{
		dataset:                dataset,
		codec:                  codec,
		recordSize:             recordSize,
		log:                    log.WithFields(logger.NewField("dataset", dataset.Address().String())),
		maximumReadBufferBytes: options.MaximumReadBufferBytes,
	}

	err := s.refresh()
	if err != nil {
		return nil, err
	}

	return s, nil
}

func OpenPrices(dataset *container.Dataset, options Options) (*PriceStore, error) {
	return Open[Price](dataset, PriceCodec{}, options)
}

func OpenQuotes(dataset *container.Dataset, options Options) (*QuoteStore, error) {
	return Open[Quote](dataset, QuoteCodec{}, options)
}

func OpenTrades(dataset *container.Dataset, options Options) (*TradeStore, error) {
	return Open[Trade](dataset, TradeCodec{}, options)
}

func (s *Store[V]) Count() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0
	}
	return s.count
}

func (s *Store[V]) FirstTicks() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0
	}
	return s.first
}

func (s *Store[V]) LastTicks() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0
	}
	return s.last
}

// IsReadOnly reports false once the store is closed, like the other
// metadata.
func (s *Store[V]) IsReadOnly() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	return s.dataset.ReadOnly()
}

func (s *Store[V]) MaximumReadBufferBytes() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.maximumReadBufferBytes
}

func (s *Store[V]) SetMaximumReadBufferBytes(n uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.maximumReadBufferBytes = n
}

func (s *Store[V]) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	return s.dataset.Sync()
}

// Close releases the dataset. Calling it again is a no-op.
func (s *Store[V]) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.count, s.first, s.last = 0, 0, 0
	return s.dataset.Close()
}

// refresh reloads Count, FirstTicks and LastTicks from the dataset.
func (s *Store[V]) refresh() error {
	s.count = s.dataset.Count()
	s.first, s.last = 0, 0
	if s.count == 0 {
		return nil
	}

	var err error
	s.first, err = s.ticksAt(0)
	if err != nil {
		return err
	}
	s.last, err = s.ticksAt(s.count - 1)
	return err
}

func (s *Store[V]) ticksAt(i uint64) (int64, error) {
	buf := make([]byte, s.recordSize)
	n, err := s.dataset.ReadRecords(i, buf)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, fmt.Errorf("%w: record %d", ErrOutOfRange, i)
	}
	return recordTicks(buf), nil
}

// chunkRecords is how many records fit in the read buffer, never less than one
// and never more than limit.
func (s *Store[V]) chunkRecords(limit uint64) uint64 {
	n := s.maximumReadBufferBytes / uint64(s.recordSize)
	if n == 0 {
		n = 1
	}
	if limit > 0 && n > limit {
		n = limit
	}
	return n
}

// stream feeds records in [from, to) to f through the bounded read buffer.
// f returns false to stop early.
func (s *Store[V]) stream(from, to uint64, f func(i uint64, record []byte) bool) error {
	if from >= to {
		return nil
	}

	buf := make([]byte, s.chunkRecords(to-from)*uint64(s.recordSize))
	for from < to {
		chunk := buf
		if left := (to - from) * uint64(s.recordSize); uint64(len(chunk)) > left {
			chunk = chunk[:left]
		}

		n, err := s.dataset.ReadRecords(from, chunk)
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("%w: dataset ended at %d, expected %d", ErrOutOfRange, from, to)
		}

		for k := 0; k < n; k++ {
			if !f(from+uint64(k), chunk[k*s.recordSize:(k+1)*s.recordSize]) {
				return nil
			}
		}
		from += uint64(n)
	}

	return nil
}

func (s *Store[V]) encode(dst []byte, ticks int64, value V) {
	binary.LittleEndian.PutUint64(dst, uint64(ticks))
	s.codec.Encode(dst[ticksSize:], value)
}

func (s *Store[V]) decode(record []byte) (int64, V) {
	return recordTicks(record), s.codec.Decode(record[ticksSize:])
}

func recordTicks(record []byte) int64 {
	return int64(binary.LittleEndian.Uint64(record))
}

func (s *Store[V]) usable() error {
	if s.closed {
		return ErrClosed
	}
	return nil
}

func (s *Store[V]) writable() error {
	if s.closed {
		return ErrClosed
	}
	if s.dataset.ReadOnly() {
		return ErrReadOnly
	}
	return nil
}
