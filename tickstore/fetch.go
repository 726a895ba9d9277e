package tickstore

// Sink receives fetched rows in ascending tick order. Put returns false to
// stop the fetch.
type Sink[V any] interface {
	Put(ticks int64, value V) bool
}

// SinkFunc adapts a callback that takes every row to Sink.
type SinkFunc[V any] func(ticks int64, value V)

func (f SinkFunc[V]) Put(ticks int64, value V) bool {
	f(ticks, value)
	return true
}

// WhileFunc adapts a callback to Sink. The fetch ends as soon as it returns
// false.
type WhileFunc[V any] func(ticks int64, value V) bool

func (f WhileFunc[V]) Put(ticks int64, value V) bool {
	return f(ticks, value)
}

// Collector accumulates fetched rows.
type Collector[V any] struct {
	Rows []Row[V]
}

func (c *Collector[V]) Put(ticks int64, value V) bool {
	c.Rows = append(c.Rows, Row[V]{Ticks: ticks, Value: value})
	return true
}

func (s *Store[V]) FetchAll(sink Sink[V]) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.usable(); err != nil {
		return err
	}
	return s.fetch(sink, 0, s.count)
}

// FetchTickRange fetches every row with fromTick <= Ticks <= toTick. No
// matching rows is not an error.
func (s *Store[V]) FetchTickRange(sink Sink[V], fromTick, toTick int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.usable(); err != nil {
		return err
	}
	if s.count == 0 || fromTick > toTick {
		return nil
	}

	start, end, err := s.tickSpan(fromTick, toTick)
	if err != nil {
		return err
	}
	return s.fetch(sink, start, end)
}

// FetchIndexRange fetches up to count rows starting at fromIndex. A span
// running past the end is cut at Count; fromIndex itself must exist.
func (s *Store[V]) FetchIndexRange(sink Sink[V], fromIndex, count uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.usable(); err != nil {
		return err
	}
	if fromIndex >= s.count {
		return ErrOutOfRange
	}

	end := s.count
	if count < s.count-fromIndex {
		end = fromIndex + count
	}
	return s.fetch(sink, fromIndex, end)
}

func (s *Store[V]) tickSpan(fromTick, toTick int64) (uint64, uint64, error) {
	indexFrom, matchFrom, err := s.locate(fromTick)
	if err != nil {
		return 0, 0, err
	}
	indexTo, matchTo, err := s.locate(toTick)
	if err != nil {
		return 0, 0, err
	}
	start, end := s.bounds(indexFrom, matchFrom, indexTo, matchTo)
	return start, end, nil
}

func (s *Store[V]) fetch(sink Sink[V], start, end uint64) error {
	return s.stream(start, end, func(_ uint64, record []byte) bool {
		return sink.Put(s.decode(record))
	})
}
