package tickstore

import (
	"errors"
	"testing"

	"github.com/fulldump/biff"

	"github.com/fulldump/tickdb/container"
)

func TestStore_Metadata(t *testing.T) {
	s := newStore(t)
	biff.AssertEqual(s.Count(), uint64(0))
	biff.AssertEqual(s.FirstTicks(), int64(0))
	biff.AssertEqual(s.LastTicks(), int64(0))
	biff.AssertFalse(s.IsReadOnly())
	biff.AssertEqual(s.MaximumReadBufferBytes(), DefaultMaximumReadBufferBytes)

	fill(t, s, -50, 7, 900)
	biff.AssertEqual(s.Count(), uint64(3))
	biff.AssertEqual(s.FirstTicks(), int64(-50))
	biff.AssertEqual(s.LastTicks(), int64(900))

	s.SetMaximumReadBufferBytes(16)
	biff.AssertEqual(s.MaximumReadBufferBytes(), uint64(16))
	biff.AssertEqual(storedTicks(s), []int64{-50, 7, 900})
}

func TestStore_Close(t *testing.T) {
	s := newStore(t, 1, 2, 3)

	biff.AssertNil(s.Close())
	biff.AssertNil(s.Close())

	biff.AssertEqual(s.Count(), uint64(0))
	biff.AssertEqual(s.FirstTicks(), int64(0))
	biff.AssertEqual(s.LastTicks(), int64(0))
	biff.AssertTrue(errors.Is(s.Flush(), ErrClosed))
	biff.AssertTrue(errors.Is(s.Add(prices(4, 4), DuplicateFail, false), ErrClosed))
	biff.AssertTrue(errors.Is(s.DeleteAllAfterIndex(0), ErrClosed))
}

func TestStore_Reopen(t *testing.T) {
	dir := t.TempDir()

	f, err := container.Open(dir, container.ModeReadWrite)
	biff.AssertNil(err)
	d, err := f.Dataset(testAddress, RecordSize[Price](PriceCodec{}))
	biff.AssertNil(err)
	s, err := OpenPrices(d, DefaultOptions())
	biff.AssertNil(err)

	fill(t, s, 10, 20, 30)
	fill(t, s, 15)
	biff.AssertNil(s.DeleteAllBeforeIndex(0))
	biff.AssertNil(s.Flush())
	biff.AssertNil(f.Close())

	biff.Alternative("Reopen read only", func(a *biff.A) {
		f, err := container.Open(dir, container.ModeRead)
		biff.AssertNil(err)
		defer f.Close()

		d, err := f.Dataset(testAddress, RecordSize[Price](PriceCodec{}))
		biff.AssertNil(err)
		s, err := OpenPrices(d, DefaultOptions())
		biff.AssertNil(err)

		biff.AssertTrue(s.IsReadOnly())
		biff.AssertEqual(rows(s), prices(15, 0.15, 20, 0.2, 30, 0.3))

		err = s.Add(prices(40, 0.4), DuplicateFail, false)
		biff.AssertTrue(errors.Is(err, ErrReadOnly))
		err = s.DeleteTickRange(0, 100)
		biff.AssertTrue(errors.Is(err, ErrReadOnly))
		biff.AssertEqual(s.Count(), uint64(3))

		biff.AssertNil(s.Close())
		biff.AssertFalse(s.IsReadOnly())
		biff.AssertEqual(s.Count(), uint64(0))
	})

	biff.Alternative("Reopen with the wrong codec", func(a *biff.A) {
		f, err := container.Open(dir, container.ModeReadWrite)
		biff.AssertNil(err)
		defer f.Close()

		_, err = f.Dataset(testAddress, RecordSize[Quote](QuoteCodec{}))
		biff.AssertTrue(errors.Is(err, container.ErrCorrupted))
	})
}

func TestStore_Shapes(t *testing.T) {
	f, err := container.Open(t.TempDir(), container.ModeReadWrite)
	biff.AssertNil(err)
	defer f.Close()

	biff.Alternative("Quotes", func(a *biff.A) {
		address := container.Address{Instrument: "EURUSD", Kind: container.KindQuotes, Timeframe: container.TimeframeTick}
		d, err := f.Dataset(address, RecordSize[Quote](QuoteCodec{}))
		biff.AssertNil(err)
		s, err := OpenQuotes(d, DefaultOptions())
		biff.AssertNil(err)

		batch := []Row[Quote]{
			{Ticks: 1, Value: Quote{Bid: 1.1, Ask: 1.2}},
			{Ticks: 2, Value: Quote{Bid: 1.15, Ask: 1.25}},
		}
		biff.AssertNil(s.Add(batch, DuplicateFail, false))

		c := &Collector[Quote]{}
		biff.AssertNil(s.FetchAll(c))
		biff.AssertEqual(c.Rows, batch)
	})

	biff.Alternative("Trades", func(a *biff.A) {
		address := container.Address{Instrument: "BTC/USDT", Kind: container.KindTrades, Timeframe: container.TimeframeTick}
		d, err := f.Dataset(address, RecordSize[Trade](TradeCodec{}))
		biff.AssertNil(err)
		s, err := OpenTrades(d, DefaultOptions())
		biff.AssertNil(err)

		batch := []Row[Trade]{
			{Ticks: 100, Value: Trade{Price: 65000.5, Volume: 0.25}},
			{Ticks: 101, Value: Trade{Price: 65001, Volume: 3}},
		}
		biff.AssertNil(s.Add(batch, DuplicateFail, false))
		biff.AssertNil(s.Add([]Row[Trade]{{Ticks: 101, Value: Trade{Price: 1, Volume: 1}}}, DuplicateUpdate, false))

		c := &Collector[Trade]{}
		biff.AssertNil(s.FetchTickRange(c, 101, 101))
		biff.AssertEqual(c.Rows, []Row[Trade]{{Ticks: 101, Value: Trade{Price: 1, Volume: 1}}})
	})
}
