package tickstore

import (
	"fmt"
	"strings"

	"github.com/fulldump/tickdb/container"
	"github.com/fulldump/tickdb/logger"
)

// DuplicatePolicy decides what Add does with a batch row whose tick is
// already stored.
type DuplicatePolicy int

const (
	// DuplicateFail rejects the whole batch, nothing is written.
	DuplicateFail DuplicatePolicy = iota
	// DuplicateSkip keeps the stored row and drops the batch row.
	DuplicateSkip
	// DuplicateUpdate overwrites the stored value, ticks unchanged.
	DuplicateUpdate
)

var policyNames = map[DuplicatePolicy]string{
	DuplicateFail:   "fail",
	DuplicateSkip:   "skip",
	DuplicateUpdate: "update",
}

func (p DuplicatePolicy) String() string {
	if name, ok := policyNames[p]; ok {
		return name
	}
	return fmt.Sprintf("policy(%d)", int(p))
}

func ParseDuplicatePolicy(s string) (DuplicatePolicy, error) {
	for p, name := range policyNames {
		if strings.EqualFold(name, s) {
			return p, nil
		}
	}
	return 0, fmt.Errorf("unknown duplicate policy '%s', must be [fail|skip|update]", s)
}

// collision pairs a stored row with the batch row carrying the same tick.
type collision struct {
	stored uint64
	batch  int
}

// Add merges an ascending, duplicate free batch into the store. Rows whose
// tick is already stored are handled by policy. With DuplicateFail a single
// collision aborts the call before anything is written.
func (s *Store[V]) Add(batch []Row[V], policy DuplicatePolicy, verbose bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.writable(); err != nil {
		return err
	}
	if _, ok := policyNames[policy]; !ok {
		return fmt.Errorf("add: unknown duplicate policy %d", int(policy))
	}
	if len(batch) == 0 {
		return nil
	}
	for i := 1; i < len(batch); i++ {
		if batch[i].Ticks <= batch[i-1].Ticks {
			return fmt.Errorf("%w: ticks %d at %d after %d", ErrUnsortedBatch, batch[i].Ticks, i, batch[i-1].Ticks)
		}
	}

	collisions, err := s.collisions(batch)
	if err != nil {
		return fmt.Errorf("add: %w", err)
	}

	if policy == DuplicateFail && len(collisions) > 0 {
		return fmt.Errorf("%w: %d rows already stored, first at ticks %d", ErrDuplicateTicks, len(collisions), batch[collisions[0].batch].Ticks)
	}

	if policy == DuplicateUpdate && len(collisions) > 0 {
		if err := s.overwrite(batch, collisions); err != nil {
			return fmt.Errorf("add: update: %w", err)
		}
	}

	fresh := batch
	if len(collisions) > 0 {
		fresh = make([]Row[V], 0, len(batch)-len(collisions))
		next := 0
		for i, row := range batch {
			if next < len(collisions) && collisions[next].batch == i {
				next++
				continue
			}
			fresh = append(fresh, row)
		}
	}

	appended := true
	if len(fresh) > 0 {
		at, err := s.lowerBound(fresh[0].Ticks)
		if err != nil {
			return fmt.Errorf("add: %w", err)
		}

		if at == s.count {
			err = s.append(fresh)
		} else {
			appended = false
			err = s.merge(at, fresh)
		}
		if err != nil {
			s.refresh()
			return fmt.Errorf("add: %w", err)
		}
	}

	if err := s.refresh(); err != nil {
		return fmt.Errorf("add: %w", err)
	}

	fields := []logger.Field{
		logger.NewField("policy", policy.String()),
		logger.NewField("batch", len(batch)),
		logger.NewField("new", len(fresh)),
		logger.NewField("collisions", len(collisions)),
		logger.NewField("append", appended),
		logger.NewField("count", s.count),
	}
	if verbose {
		s.log.Info("add", fields...)
	} else {
		s.log.Debug("add", fields...)
	}

	return nil
}

// collisions walks the batch and the stored rows in one ascending pass and
// returns the stored rows sharing a tick with the batch.
func (s *Store[V]) collisions(batch []Row[V]) ([]collision, error) {
	if s.count == 0 {
		return nil, nil
	}

	lastTicks := batch[len(batch)-1].Ticks
	if lastTicks < s.first || batch[0].Ticks > s.last {
		return nil, nil
	}

	start, err := s.lowerBound(batch[0].Ticks)
	if err != nil {
		return nil, err
	}
	end, err := s.upperBound(lastTicks)
	if err != nil {
		return nil, err
	}

	result := []collision{}
	j := 0
	err = s.stream(start, end, func(i uint64, record []byte) bool {
		stored := recordTicks(record)
		for j < len(batch) && batch[j].Ticks < stored {
			j++
		}
		if j == len(batch) {
			return false
		}
		if batch[j].Ticks == stored {
			result = append(result, collision{stored: i, batch: j})
			j++
		}
		return true
	})

	return result, err
}

// overwrite writes the batch values over the colliding stored rows, grouping
// consecutive stored indexes into a single write.
func (s *Store[V]) overwrite(batch []Row[V], collisions []collision) error {
	limit := s.chunkRecords(uint64(len(collisions)))
	buf := make([]byte, 0, limit*uint64(s.recordSize))
	record := make([]byte, s.recordSize)

	var at uint64
	flush := func() error {
		if len(buf) == 0 {
			return nil
		}
		err := s.dataset.WriteRecords(at, buf)
		buf = buf[:0]
		return err
	}

	for k, c := range collisions {
		contiguous := k > 0 && c.stored == collisions[k-1].stored+1
		if !contiguous || uint64(len(buf)) == limit*uint64(s.recordSize) {
			if err := flush(); err != nil {
				return err
			}
			at = c.stored
		}
		row := batch[c.batch]
		s.encode(record, row.Ticks, row.Value)
		buf = append(buf, record...)
	}

	return flush()
}

// append writes rows after the last stored row without touching the others.
func (s *Store[V]) append(rows []Row[V]) error {
	w := s.newRecordWriter(uint64(len(rows)))
	for _, row := range rows {
		if err := w.put(row.Ticks, row.Value); err != nil {
			return err
		}
	}
	return w.flush()
}

// merge interleaves rows into the stored tail starting at index at. The tail
// is spilled to a scratch dataset, cut off, then rebuilt by a two pointer
// merge so memory stays bounded by the read buffer. A failed rebuild puts the
// spilled tail back; if that fails too the scratch file is kept on disk.
func (s *Store[V]) merge(at uint64, rows []Row[V]) error {
	scratch, err := s.dataset.Scratch()
	if err != nil {
		return err
	}
	defer scratch.Close()

	var copyErr error
	err = s.stream(at, s.count, func(_ uint64, record []byte) bool {
		copyErr = scratch.Append(record)
		return copyErr == nil
	})
	if err != nil {
		return fmt.Errorf("spill tail: %w", err)
	}
	if copyErr != nil {
		return fmt.Errorf("spill tail: %w", copyErr)
	}

	if err := s.dataset.Truncate(at); err != nil {
		return err
	}

	err = s.rebuild(scratch, rows)
	if err == nil {
		return nil
	}

	if restoreErr := s.restore(at, scratch); restoreErr != nil {
		filename := scratch.Keep()
		s.log.Error(restoreErr,
			logger.NewField("from_index", at),
			logger.NewField("tail", filename),
		)
		return fmt.Errorf("rebuild: %w; restore: %v, tail kept in %s", err, restoreErr, filename)
	}
	return fmt.Errorf("rebuild: %w", err)
}

// rebuild appends the spilled tail merged with rows.
func (s *Store[V]) rebuild(scratch *container.Dataset, rows []Row[V]) error {
	tail := scratch.Count()
	w := s.newRecordWriter(tail + uint64(len(rows)))
	j := 0
	err := s.replay(scratch, func(record []byte) error {
		stored := recordTicks(record)
		for ; j < len(rows) && rows[j].Ticks < stored; j++ {
			if err := w.put(rows[j].Ticks, rows[j].Value); err != nil {
				return err
			}
		}
		return w.putRecord(record)
	})
	if err != nil {
		return err
	}
	for ; j < len(rows); j++ {
		if err := w.put(rows[j].Ticks, rows[j].Value); err != nil {
			return err
		}
	}

	return w.flush()
}

// restore cuts the dataset back to at and appends the spilled tail as it was.
func (s *Store[V]) restore(at uint64, scratch *container.Dataset) error {
	if err := s.dataset.Truncate(at); err != nil {
		return err
	}
	w := s.newRecordWriter(scratch.Count())
	err := s.replay(scratch, w.putRecord)
	if err != nil {
		return err
	}
	return w.flush()
}

// replay feeds every record of scratch to f through the read buffer.
func (s *Store[V]) replay(scratch *container.Dataset, f func(record []byte) error) error {
	tail := scratch.Count()
	buf := make([]byte, s.chunkRecords(tail)*uint64(s.recordSize))
	for from := uint64(0); from < tail; {
		n, err := scratch.ReadRecords(from, buf)
		if err != nil {
			return fmt.Errorf("read spilled tail: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("%w: spilled tail ended at %d, expected %d", ErrOutOfRange, from, tail)
		}
		for k := 0; k < n; k++ {
			if err := f(buf[k*s.recordSize : (k+1)*s.recordSize]); err != nil {
				return err
			}
		}
		from += uint64(n)
	}
	return nil
}

// recordWriter batches encoded records into appends of at most one read
// buffer.
type recordWriter[V any] struct {
	s     *Store[V]
	buf   []byte
	limit int
}

func (s *Store[V]) newRecordWriter(total uint64) *recordWriter[V] {
	limit := int(s.chunkRecords(total)) * s.recordSize
	return &recordWriter[V]{
		s:     s,
		buf:   make([]byte, 0, limit),
		limit: limit,
	}
}

func (w *recordWriter[V]) put(ticks int64, value V) error {
	n := len(w.buf)
	w.buf = w.buf[:n+w.s.recordSize]
	w.s.encode(w.buf[n:], ticks, value)
	return w.maybeFlush()
}

func (w *recordWriter[V]) putRecord(record []byte) error {
	w.buf = append(w.buf, record...)
	return w.maybeFlush()
}

func (w *recordWriter[V]) maybeFlush() error {
	if len(w.buf) < w.limit {
		return nil
	}
	return w.flush()
}

func (w *recordWriter[V]) flush() error {
	if len(w.buf) == 0 {
		return nil
	}
	err := w.s.dataset.Append(w.buf)
	w.buf = w.buf[:0]
	return err
}
