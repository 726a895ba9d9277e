package service

import (
	"errors"
	"testing"

	"github.com/fulldump/biff"

	"github.com/fulldump/tickdb/container"
	"github.com/fulldump/tickdb/database"
)

var trades = container.Address{
	Instrument: "crypto/BTCUSDT",
	Kind:       container.KindTrades,
	Timeframe:  container.TimeframeTick,
}

func trade(ticks int64, price, volume float64) *JSONRow {
	return &JSONRow{Ticks: ticks, Price: &price, Volume: &volume}
}

func collect(t *testing.T, s *Service, query *FetchQuery) []int64 {
	result := []int64{}
	err := s.Fetch(trades, query, func(row *JSONRow) error {
		result = append(result, row.Ticks)
		return nil
	})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	return result
}

func TestService(t *testing.T) {

	biff.Alternative("Service with trades", func(a *biff.A) {

		dir := t.TempDir()
		db := database.NewDatabase(&database.Config{Dir: dir})
		biff.AssertNil(db.Load())
		s := NewService(db)

		result, err := s.Add(trades, &AddInput{
			Rows: []*JSONRow{
				trade(10, 100, 1),
				trade(20, 101, 5),
				trade(30, 99, 2),
				trade(40, 102, 8),
			},
		})
		biff.AssertNil(err)
		biff.AssertEqual(result, &AddResult{Received: 4, Count: 4, Added: 4})

		a.Alternative("Filter by volume", func(a *biff.A) {
			ticks := collect(t, s, &FetchQuery{
				Filter: map[string]any{"volume": map[string]any{"$gt": 4.0}},
			})
			biff.AssertEqual(ticks, []int64{20, 40})
		})

		a.Alternative("Skip and limit", func(a *biff.A) {
			ticks := collect(t, s, &FetchQuery{Mode: "ticks", FromTicks: 15, ToTicks: 100, Skip: 1, Limit: 1})
			biff.AssertEqual(ticks, []int64{30})
		})

		a.Alternative("Callback error stops the fetch", func(a *biff.A) {
			stop := errors.New("stop")
			calls := 0
			err := s.Fetch(trades, &FetchQuery{}, func(row *JSONRow) error {
				calls++
				return stop
			})
			biff.AssertTrue(errors.Is(err, stop))
			biff.AssertEqual(calls, 1)
		})

		a.Alternative("Skip duplicates", func(a *biff.A) {
			result, err := s.Add(trades, &AddInput{
				Policy: "skip",
				Rows:   []*JSONRow{trade(20, 1, 1), trade(25, 1, 1)},
			})
			biff.AssertNil(err)
			biff.AssertEqual(result.Added, uint64(1))
			biff.AssertEqual(result.Count, uint64(5))
		})

		a.Alternative("Wrong kind of row", func(a *biff.A) {
			price := 1.0
			_, err := s.Add(trades, &AddInput{Rows: []*JSONRow{{Ticks: 50, Price: &price}}})
			biff.AssertTrue(errors.Is(err, ErrorInvalidRow))
		})

		a.Alternative("Bad policy", func(a *biff.A) {
			_, err := s.Add(trades, &AddInput{Policy: "merge", Rows: []*JSONRow{trade(50, 1, 1)}})
			biff.AssertTrue(errors.Is(err, ErrorBadMode))
		})

		a.Alternative("Delete before index", func(a *biff.A) {
			result, err := s.Delete(trades, &DeleteQuery{Mode: "before_index", Index: 1})
			biff.AssertNil(err)
			biff.AssertEqual(result, &DeleteResult{Removed: 2, Count: 2})

			dataset, err := s.GetDataset(trades)
			biff.AssertNil(err)
			biff.AssertEqual(dataset.FirstTicks, int64(30))
		})

		a.Alternative("Delete bad mode", func(a *biff.A) {
			_, err := s.Delete(trades, &DeleteQuery{Mode: "everything"})
			biff.AssertTrue(errors.Is(err, ErrorBadMode))
		})

		a.Alternative("Locate clamped", func(a *biff.A) {
			result, err := s.Locate(trades, 1000)
			biff.AssertNil(err)
			biff.AssertEqual(result, &LocateResult{Index: 3, Match: true, Kind: "clamped_above"})
		})

		a.Alternative("Read only", func(a *biff.A) {
			biff.AssertNil(db.Stop())

			ro := database.NewDatabase(&database.Config{Dir: dir, ReadOnly: true})
			biff.AssertNil(ro.Load())
			defer ro.Stop()
			s := NewService(ro)

			_, err := s.Add(trades, &AddInput{Rows: []*JSONRow{trade(50, 1, 1)}})
			biff.AssertNotNil(err)

			other := container.Address{Instrument: "ETHUSDT", Kind: container.KindTrades, Timeframe: container.TimeframeTick}
			_, err = s.Add(other, &AddInput{Rows: []*JSONRow{trade(50, 1, 1)}})
			biff.AssertTrue(errors.Is(err, container.ErrReadOnly))
		})
	})
}
