package service

import (
	"errors"

	"github.com/fulldump/tickdb/container"
)

var (
	ErrorDatasetNotFound = errors.New("dataset not found")
	ErrorInvalidRow      = errors.New("invalid row")
	ErrorBadMode         = errors.New("bad mode")
)

type Servicer interface {
	ListDatasets() ([]*Dataset, error)
	GetDataset(address container.Address) (*Dataset, error)
	DropDataset(address container.Address) error
	Add(address container.Address, input *AddInput) (*AddResult, error)
	Fetch(address container.Address, query *FetchQuery, f func(row *JSONRow) error) error
	Locate(address container.Address, ticks int64) (*LocateResult, error)
	Delete(address container.Address, query *DeleteQuery) (*DeleteResult, error)
}

type Dataset struct {
	Instrument             string `json:"instrument"`
	Kind                   string `json:"kind"`
	Timeframe              string `json:"timeframe"`
	Count                  uint64 `json:"count"`
	FirstTicks             int64  `json:"first_ticks"`
	LastTicks              int64  `json:"last_ticks"`
	ReadOnly               bool   `json:"read_only"`
	MaximumReadBufferBytes uint64 `json:"maximum_read_buffer_bytes"`
}

type AddInput struct {
	Policy  string     `json:"policy"`
	Spread  bool       `json:"spread"`
	Verbose bool       `json:"verbose"`
	Rows    []*JSONRow `json:"rows"`
}

type AddResult struct {
	Received int    `json:"received"`
	Spread   bool   `json:"spread"`
	Count    uint64 `json:"count"`
	Added    uint64 `json:"added"`
}

// FetchQuery selects rows by mode:
//
//	all:   every row
//	ticks: from_ticks <= ticks <= to_ticks
//	index: count rows starting at from_index
//
// Filter, Skip and Limit are applied to the selected rows in order.
type FetchQuery struct {
	Mode      string         `json:"mode"`
	FromTicks int64          `json:"from_ticks"`
	ToTicks   int64          `json:"to_ticks"`
	FromIndex uint64         `json:"from_index"`
	Count     uint64         `json:"count"`
	Filter    map[string]any `json:"filter"`
	Skip      int64          `json:"skip"`
	Limit     int64          `json:"limit"`
}

type LocateResult struct {
	Index uint64 `json:"index"`
	Match bool   `json:"match"`
	Kind  string `json:"kind"`
}

// DeleteQuery selects the rows to remove by mode:
//
//	ticks:        from_ticks <= ticks <= to_ticks
//	index:        from_index..to_index, both included
//	before_ticks: ticks <= ticks
//	after_ticks:  ticks >= ticks
//	before_index: 0..index
//	after_index:  index..count-1
type DeleteQuery struct {
	Mode      string `json:"mode"`
	FromTicks int64  `json:"from_ticks"`
	ToTicks   int64  `json:"to_ticks"`
	FromIndex uint64 `json:"from_index"`
	ToIndex   uint64 `json:"to_index"`
	Ticks     int64  `json:"ticks"`
	Index     uint64 `json:"index"`
}

type DeleteResult struct {
	Removed uint64 `json:"removed"`
	Count   uint64 `json:"count"`
}

// JSONRow is a row of any kind. Only the fields of the dataset kind are set:
// bars use price, quotes use bid and ask, trades use price and volume.
type JSONRow struct {
	Ticks  int64    `json:"ticks"`
	Price  *float64 `json:"price,omitempty"`
	Bid    *float64 `json:"bid,omitempty"`
	Ask    *float64 `json:"ask,omitempty"`
	Volume *float64 `json:"volume,omitempty"`
}

var _ Servicer = (*Service)(nil)
