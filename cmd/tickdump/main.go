package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/fulldump/goconfig"
	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"

	"github.com/fulldump/tickdb/container"
	"github.com/fulldump/tickdb/database"
	"github.com/fulldump/tickdb/service"
)

type Config struct {
	Dir        string `usage:"data directory"`
	Dataset    string `usage:"dataset to dump as <instrument>/<kind>/<timeframe>, empty lists datasets"`
	Mode       string `usage:"fetch mode [all|ticks|index]"`
	FromTicks  int64  `usage:"first ticks, mode ticks"`
	ToTicks    int64  `usage:"last ticks, mode ticks"`
	FromIndex  uint64 `usage:"first index, mode index"`
	Count      uint64 `usage:"rows to dump, mode index"`
	Limit      int64  `usage:"stop after this many rows, 0 dumps everything"`
	BufferSize uint64 `usage:"maximum read buffer in bytes"`
}

func main() {

	c := Config{
		Dir:  "data",
		Mode: "all",
	}
	goconfig.Read(&c)

	if err := run(c); err != nil {
		fmt.Fprintln(os.Stderr, "ERROR:", err.Error())
		os.Exit(1)
	}
}

func run(c Config) error {

	db := database.NewDatabase(&database.Config{
		Dir:                    c.Dir,
		ReadOnly:               true,
		MaximumReadBufferBytes: c.BufferSize,
	})
	if err := db.Load(); err != nil {
		return err
	}
	defer db.Stop()

	s := service.NewService(db)

	w := bufio.NewWriter(os.Stdout)
	defer w.Flush()
	encoder := jsontext.NewEncoder(w)

	if c.Dataset == "" {
		datasets, err := s.ListDatasets()
		if err != nil {
			return err
		}
		for _, dataset := range datasets {
			if err := json.MarshalEncode(encoder, dataset); err != nil {
				return err
			}
		}
		return nil
	}

	address, err := parseDataset(c.Dataset)
	if err != nil {
		return err
	}

	query := &service.FetchQuery{
		Mode:      c.Mode,
		FromTicks: c.FromTicks,
		ToTicks:   c.ToTicks,
		FromIndex: c.FromIndex,
		Count:     c.Count,
		Limit:     c.Limit,
	}

	return s.Fetch(address, query, func(row *service.JSONRow) error {
		return json.MarshalEncode(encoder, row)
	})
}

// parseDataset reads <instrument>/<kind>/<timeframe>, the instrument may
// contain slashes itself.
func parseDataset(s string) (container.Address, error) {
	return container.ParsePath(strings.Trim(s, "/") + ".tick")
}
