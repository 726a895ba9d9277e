package tickstore

import (
	"fmt"

	"github.com/fulldump/tickdb/logger"
)

// DeleteIndexRange removes rows fromIndex..toIndex, both included. Both ends
// must be existing indexes, otherwise nothing is removed.
func (s *Store[V]) DeleteIndexRange(fromIndex, toIndex uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.writable(); err != nil {
		return err
	}
	if fromIndex > toIndex || toIndex >= s.count {
		return fmt.Errorf("%w: delete [%d, %d], count %d", ErrOutOfRange, fromIndex, toIndex, s.count)
	}
	return s.remove(fromIndex, toIndex+1)
}

// DeleteTickRange removes every row with fromTick <= Ticks <= toTick. It
// succeeds when nothing matches.
func (s *Store[V]) DeleteTickRange(fromTick, toTick int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.writable(); err != nil {
		return err
	}
	if fromTick > toTick {
		return fmt.Errorf("%w: ticks %d > %d", ErrInvalidRange, fromTick, toTick)
	}
	if s.count == 0 {
		return nil
	}

	start, end, err := s.tickSpan(fromTick, toTick)
	if err != nil {
		return err
	}
	return s.remove(start, end)
}

// DeleteAllBeforeTick removes every row with Ticks <= tick.
func (s *Store[V]) DeleteAllBeforeTick(tick int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.writable(); err != nil {
		return err
	}
	end, err := s.upperBound(tick)
	if err != nil {
		return err
	}
	return s.remove(0, end)
}

// DeleteAllAfterTick removes every row with Ticks >= tick.
func (s *Store[V]) DeleteAllAfterTick(tick int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.writable(); err != nil {
		return err
	}
	start, err := s.lowerBound(tick)
	if err != nil {
		return err
	}
	return s.remove(start, s.count)
}

// DeleteAllBeforeIndex removes rows 0..index, both included. index must exist.
func (s *Store[V]) DeleteAllBeforeIndex(index uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.writable(); err != nil {
		return err
	}
	if index >= s.count {
		return fmt.Errorf("%w: delete before %d, count %d", ErrOutOfRange, index, s.count)
	}
	return s.remove(0, index+1)
}

// DeleteAllAfterIndex removes rows index..Count-1. index == Count is accepted
// and removes nothing.
func (s *Store[V]) DeleteAllAfterIndex(index uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.writable(); err != nil {
		return err
	}
	if index > s.count {
		return fmt.Errorf("%w: delete after %d, count %d", ErrOutOfRange, index, s.count)
	}
	return s.remove(index, s.count)
}

// remove drops rows [start, end) shifting the tail down chunk by chunk.
func (s *Store[V]) remove(start, end uint64) error {
	if start >= end {
		return nil
	}

	if end < s.count {
		buf := make([]byte, s.chunkRecords(s.count-end)*uint64(s.recordSize))
		src, dst := end, start
		for src < s.count {
			n, err := s.dataset.ReadRecords(src, buf)
			if err != nil {
				return s.failed(err)
			}
			if n == 0 {
				return s.failed(fmt.Errorf("%w: dataset ended at %d", ErrOutOfRange, src))
			}
			if err := s.dataset.WriteRecords(dst, buf[:n*s.recordSize]); err != nil {
				return s.failed(err)
			}
			src += uint64(n)
			dst += uint64(n)
		}
	}

	removed := end - start
	if err := s.dataset.Truncate(s.count - removed); err != nil {
		return s.failed(err)
	}

	if err := s.refresh(); err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	s.log.Debug("delete",
		logger.NewField("from_index", start),
		logger.NewField("removed", removed),
		logger.NewField("count", s.count),
	)
	return nil
}

func (s *Store[V]) failed(err error) error {
	s.refresh()
	return fmt.Errorf("delete: %w", err)
}
