package tickstore

import (
	"testing"

	"github.com/fulldump/tickdb/container"
)

var testAddress = container.Address{
	Instrument: "EURUSD",
	Kind:       container.KindBars,
	Timeframe:  container.Timeframe1m,
}

// Environment opens an empty price store in a temporary directory.
func Environment(t *testing.T, options Options) (*PriceStore, *container.File) {
	f, err := container.Open(t.TempDir(), container.ModeReadWrite)
	if err != nil {
		t.Fatalf("open container: %v", err)
	}
	t.Cleanup(func() { f.Close() })

	d, err := f.Dataset(testAddress, RecordSize[Price](PriceCodec{}))
	if err != nil {
		t.Fatalf("open dataset: %v", err)
	}

	s, err := OpenPrices(d, options)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	return s, f
}

func newStore(t *testing.T, ticks ...int64) *PriceStore {
	s, _ := Environment(t, DefaultOptions())
	fill(t, s, ticks...)
	return s
}

// fill adds one row per tick with value ticks/100.
func fill(t *testing.T, s *PriceStore, ticks ...int64) {
	if len(ticks) == 0 {
		return
	}
	rows := make([]Row[Price], 0, len(ticks))
	for _, tick := range ticks {
		rows = append(rows, Row[Price]{Ticks: tick, Value: Price(float64(tick) / 100)})
	}
	if err := s.Add(rows, DuplicateFail, false); err != nil {
		t.Fatalf("fill: %v", err)
	}
}

func rows(s *PriceStore) []Row[Price] {
	c := &Collector[Price]{Rows: []Row[Price]{}}
	s.FetchAll(c)
	return c.Rows
}

func ticksOf[V any](rows []Row[V]) []int64 {
	result := make([]int64, 0, len(rows))
	for _, row := range rows {
		result = append(result, row.Ticks)
	}
	return result
}

func storedTicks(s *PriceStore) []int64 {
	return ticksOf(rows(s))
}
