package main

import (
	"errors"
	"testing"

	"github.com/fulldump/biff"

	"github.com/fulldump/tickdb/container"
	"github.com/fulldump/tickdb/database"
	"github.com/fulldump/tickdb/service"
)

func TestParseDataset(t *testing.T) {
	address, err := parseDataset("/fx/EURUSD/bars/1m")
	biff.AssertNil(err)
	biff.AssertEqual(address, container.Address{
		Instrument: "fx/EURUSD",
		Kind:       container.KindBars,
		Timeframe:  container.Timeframe1m,
	})

	_, err = parseDataset("EURUSD/candles/1m")
	biff.AssertTrue(errors.Is(err, container.ErrInvalidAddress))
}

func TestRun(t *testing.T) {
	dir := t.TempDir()

	db := database.NewDatabase(&database.Config{Dir: dir})
	biff.AssertNil(db.Load())
	price := 1.5
	_, err := service.NewService(db).Add(
		container.Address{Instrument: "EURUSD", Kind: container.KindBars, Timeframe: container.Timeframe1h},
		&service.AddInput{Rows: []*service.JSONRow{{Ticks: 1, Price: &price}}},
	)
	biff.AssertNil(err)
	biff.AssertNil(db.Stop())

	biff.AssertNil(run(Config{Dir: dir}))
	biff.AssertNil(run(Config{Dir: dir, Dataset: "EURUSD/bars/1h", Mode: "ticks", FromTicks: 0, ToTicks: 10}))

	err = run(Config{Dir: dir, Dataset: "EURUSD/bars/1d"})
	biff.AssertTrue(errors.Is(err, service.ErrorDatasetNotFound))
}
