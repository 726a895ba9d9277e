package tickstore

// MatchKind tells how a located index relates to the queried tick.
type MatchKind int

const (
	// MatchNone: the tick falls between two stored ticks, index is the floor.
	MatchNone MatchKind = iota
	// MatchExact: the tick is stored at index.
	MatchExact
	// MatchClampedBelow: the tick precedes the first stored tick, index is 0.
	MatchClampedBelow
	// MatchClampedAbove: the tick follows the last stored tick, index is Count-1.
	MatchClampedAbove
)

// Matched reports clamped lookups as matches, like exact ones.
func (k MatchKind) Matched() bool {
	return k != MatchNone
}

func (k MatchKind) String() string {
	switch k {
	case MatchExact:
		return "exact"
	case MatchClampedBelow:
		return "clamped_below"
	case MatchClampedAbove:
		return "clamped_above"
	default:
		return "none"
	}
}

// Locate finds the index of tick with a binary search over the stored ticks.
// Ticks outside the stored extent are clamped to the nearest edge. An empty
// store returns ErrEmpty.
func (s *Store[V]) Locate(tick int64) (uint64, MatchKind, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.usable(); err != nil {
		return 0, MatchNone, err
	}
	return s.locate(tick)
}

// TicksIndex is Locate with the match kind folded into a boolean: exact hits
// and clamped edges are true, in-between ticks are false.
func (s *Store[V]) TicksIndex(tick int64) (uint64, bool, error) {
	i, kind, err := s.Locate(tick)
	return i, kind.Matched(), err
}

// LocateRange locates both boundaries independently.
func (s *Store[V]) LocateRange(fromTick, toTick int64) (indexFrom, indexTo uint64, matchFrom, matchTo MatchKind, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err = s.usable(); err != nil {
		return
	}
	indexFrom, matchFrom, err = s.locate(fromTick)
	if err != nil {
		return
	}
	indexTo, matchTo, err = s.locate(toTick)
	return
}

func (s *Store[V]) locate(tick int64) (uint64, MatchKind, error) {
	if s.count == 0 {
		return 0, MatchNone, ErrEmpty
	}
	if tick < s.first {
		return 0, MatchClampedBelow, nil
	}
	if tick > s.last {
		return s.count - 1, MatchClampedAbove, nil
	}
	if tick == s.last {
		return s.count - 1, MatchExact, nil
	}

	// invariant: ticks[lo] <= tick < ticks[hi]
	lo, hi := uint64(0), s.count-1
	loTicks := s.first
	for hi-lo > 1 {
		mid := lo + (hi-lo)/2
		t, err := s.ticksAt(mid)
		if err != nil {
			return 0, MatchNone, err
		}
		if t <= tick {
			lo, loTicks = mid, t
		} else {
			hi = mid
		}
	}

	if loTicks == tick {
		return lo, MatchExact, nil
	}
	return lo, MatchNone, nil
}

// bounds folds a located boundary pair into the half open index span
// [start, end) of rows with fromTick <= Ticks <= toTick.
func (s *Store[V]) bounds(indexFrom uint64, matchFrom MatchKind, indexTo uint64, matchTo MatchKind) (start, end uint64) {
	switch matchFrom {
	case MatchExact, MatchClampedBelow:
		start = indexFrom
	case MatchNone:
		start = indexFrom + 1
	case MatchClampedAbove:
		start = s.count
	}

	switch matchTo {
	case MatchExact, MatchNone, MatchClampedAbove:
		end = indexTo + 1
	case MatchClampedBelow:
		end = 0
	}

	if start > end {
		start = end
	}
	return
}

// lowerBound is the index of the first row with Ticks >= tick, Count if none.
func (s *Store[V]) lowerBound(tick int64) (uint64, error) {
	if s.count == 0 {
		return 0, nil
	}
	i, kind, err := s.locate(tick)
	if err != nil {
		return 0, err
	}
	start, _ := s.bounds(i, kind, s.count-1, MatchClampedAbove)
	return start, nil
}

// upperBound is the index of the first row with Ticks > tick, Count if none.
func (s *Store[V]) upperBound(tick int64) (uint64, error) {
	if s.count == 0 {
		return 0, nil
	}
	i, kind, err := s.locate(tick)
	if err != nil {
		return 0, err
	}
	_, end := s.bounds(0, MatchClampedBelow, i, kind)
	return end, nil
}
