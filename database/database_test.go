package database

import (
	"errors"
	"testing"

	"github.com/fulldump/biff"

	"github.com/fulldump/tickdb/container"
	"github.com/fulldump/tickdb/tickstore"
)

var eurusd = container.Address{
	Instrument: "fx/EURUSD",
	Kind:       container.KindBars,
	Timeframe:  container.Timeframe1m,
}

func TestDatabase(t *testing.T) {

	biff.Alternative("New database", func(a *biff.A) {

		dir := t.TempDir()
		db := NewDatabase(&Config{Dir: dir})
		biff.AssertEqual(db.GetStatus(), StatusOpening)

		a.Alternative("Not loaded", func(a *biff.A) {
			_, err := db.Prices(eurusd)
			biff.AssertTrue(errors.Is(err, ErrNotOperating))
		})

		a.Alternative("Load", func(a *biff.A) {
			biff.AssertNil(db.Load())
			biff.AssertEqual(db.GetStatus(), StatusOperating)
			biff.AssertNotNil(db.File())

			s, err := db.Prices(eurusd)
			biff.AssertNil(err)
			biff.AssertNil(s.Add([]tickstore.Row[tickstore.Price]{{Ticks: 1, Value: 1.5}}, tickstore.DuplicateFail, false))

			a.Alternative("Same store", func(a *biff.A) {
				again, err := db.Prices(eurusd)
				biff.AssertNil(err)
				biff.AssertTrue(again == s)
			})

			a.Alternative("Kind mismatch", func(a *biff.A) {
				_, err := db.Quotes(eurusd)
				biff.AssertTrue(errors.Is(err, ErrKindMismatch))
			})

			a.Alternative("List datasets", func(a *biff.A) {
				quotes := container.Address{Instrument: "fx/EURUSD", Kind: container.KindQuotes, Timeframe: container.TimeframeTick}
				_, err := db.Quotes(quotes)
				biff.AssertNil(err)

				datasets, err := db.Datasets()
				biff.AssertNil(err)
				biff.AssertEqual(datasets, []container.Address{eurusd, quotes})
			})

			a.Alternative("Drop dataset", func(a *biff.A) {
				biff.AssertNil(db.DropDataset(eurusd))
				biff.AssertEqual(s.Count(), uint64(0))

				datasets, err := db.Datasets()
				biff.AssertNil(err)
				biff.AssertEqual(len(datasets), 0)
			})

			a.Alternative("Stop and reload read only", func(a *biff.A) {
				biff.AssertNil(db.Stop())
				biff.AssertNil(db.Stop())
				biff.AssertEqual(db.GetStatus(), StatusClosing)

				ro := NewDatabase(&Config{Dir: dir, ReadOnly: true})
				biff.AssertNil(ro.Load())
				defer ro.Stop()

				s, err := ro.Prices(eurusd)
				biff.AssertNil(err)
				biff.AssertTrue(s.IsReadOnly())
				biff.AssertEqual(s.LastTicks(), int64(1))

				_, err = ro.Trades(container.Address{Instrument: "BTCUSDT", Kind: container.KindTrades, Timeframe: container.TimeframeTick})
				biff.AssertTrue(errors.Is(err, container.ErrNotFound))
			})
		})
	})
}
