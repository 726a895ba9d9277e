package tickstore

import (
	"errors"
	"testing"

	"github.com/fulldump/biff"
)

func TestTicksIndex(t *testing.T) {
	s := newStore(t, 2, 4, 6)

	cases := []struct {
		tick  int64
		index uint64
		match bool
	}{
		{1, 0, true},  // clamped below
		{2, 0, true},  // exact
		{3, 0, false}, // floor
		{4, 1, true},
		{5, 1, false},
		{6, 2, true},
		{7, 2, true}, // clamped above
	}

	for _, c := range cases {
		index, match, err := s.TicksIndex(c.tick)
		biff.AssertNil(err)
		biff.AssertEqual(index, c.index)
		biff.AssertEqual(match, c.match)
	}
}

func TestTicksIndex_ClampAbove(t *testing.T) {
	s := newStore(t, 2, 3, 5)

	index, match, err := s.TicksIndex(6)
	biff.AssertNil(err)
	biff.AssertEqual(index, uint64(2))
	biff.AssertTrue(match)
}

func TestLocate_Kinds(t *testing.T) {
	s := newStore(t, 10, 20, 30, 40)

	_, kind, _ := s.Locate(5)
	biff.AssertEqual(kind, MatchClampedBelow)
	_, kind, _ = s.Locate(30)
	biff.AssertEqual(kind, MatchExact)
	i, kind, _ := s.Locate(35)
	biff.AssertEqual(kind, MatchNone)
	biff.AssertEqual(i, uint64(2))
	_, kind, _ = s.Locate(45)
	biff.AssertEqual(kind, MatchClampedAbove)
}

func TestLocate_Large(t *testing.T) {
	s, _ := Environment(t, Options{MaximumReadBufferBytes: 64})

	ticks := []int64{}
	for i := int64(0); i < 1000; i++ {
		ticks = append(ticks, i*3)
	}
	fill(t, s, ticks...)

	for i := int64(0); i < 1000; i++ {
		index, kind, err := s.Locate(i * 3)
		biff.AssertNil(err)
		biff.AssertEqual(kind, MatchExact)
		biff.AssertEqual(index, uint64(i))

		if i < 999 {
			index, kind, _ = s.Locate(i*3 + 1)
			biff.AssertEqual(kind, MatchNone)
			biff.AssertEqual(index, uint64(i))
		}
	}
}

func TestLocateRange_Independent(t *testing.T) {
	s := newStore(t, 2, 4, 6)

	indexFrom, indexTo, matchFrom, matchTo, err := s.LocateRange(5, 3)
	biff.AssertNil(err)
	biff.AssertEqual(indexFrom, uint64(1))
	biff.AssertEqual(indexTo, uint64(0))
	biff.AssertEqual(matchFrom, MatchNone)
	biff.AssertEqual(matchTo, MatchNone)
}

func TestLocate_Empty(t *testing.T) {
	s := newStore(t)

	index, kind, err := s.Locate(10)
	biff.AssertTrue(errors.Is(err, ErrEmpty))
	biff.AssertEqual(index, uint64(0))
	biff.AssertEqual(kind, MatchNone)
}

func TestLocate_Closed(t *testing.T) {
	s := newStore(t, 1, 2)
	s.Close()

	_, _, err := s.Locate(1)
	biff.AssertTrue(errors.Is(err, ErrClosed))
}
