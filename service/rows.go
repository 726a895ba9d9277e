package service

import (
	"fmt"

	"github.com/fulldump/tickdb/tickstore"
)

// shape converts rows of one kind from and to JSONRow.
type shape[V any] struct {
	decode func(row *JSONRow) (V, error)
	encode func(value V, row *JSONRow)
}

var priceShape = shape[tickstore.Price]{
	decode: func(row *JSONRow) (tickstore.Price, error) {
		if row.Price == nil {
			return 0, fmt.Errorf("%w: ticks %d: price is required", ErrorInvalidRow, row.Ticks)
		}
		return tickstore.Price(*row.Price), nil
	},
	encode: func(value tickstore.Price, row *JSONRow) {
		row.Price = float(float64(value))
	},
}

var quoteShape = shape[tickstore.Quote]{
	decode: func(row *JSONRow) (tickstore.Quote, error) {
		if row.Bid == nil || row.Ask == nil {
			return tickstore.Quote{}, fmt.Errorf("%w: ticks %d: bid and ask are required", ErrorInvalidRow, row.Ticks)
		}
		return tickstore.Quote{Bid: *row.Bid, Ask: *row.Ask}, nil
	},
	encode: func(value tickstore.Quote, row *JSONRow) {
		row.Bid = float(value.Bid)
		row.Ask = float(value.Ask)
	},
}

var tradeShape = shape[tickstore.Trade]{
	decode: func(row *JSONRow) (tickstore.Trade, error) {
		if row.Price == nil || row.Volume == nil {
			return tickstore.Trade{}, fmt.Errorf("%w: ticks %d: price and volume are required", ErrorInvalidRow, row.Ticks)
		}
		return tickstore.Trade{Price: *row.Price, Volume: *row.Volume}, nil
	},
	encode: func(value tickstore.Trade, row *JSONRow) {
		row.Price = float(value.Price)
		row.Volume = float(value.Volume)
	},
}

func float(f float64) *float64 {
	return &f
}

func (s shape[V]) rows(input []*JSONRow) ([]tickstore.Row[V], error) {
	result := make([]tickstore.Row[V], 0, len(input))
	for i, row := range input {
		if row == nil {
			return nil, fmt.Errorf("%w: row %d is null", ErrorInvalidRow, i)
		}
		value, err := s.decode(row)
		if err != nil {
			return nil, err
		}
		result = append(result, tickstore.Row[V]{Ticks: row.Ticks, Value: value})
	}
	return result, nil
}

func (s shape[V]) row(ticks int64, value V) *JSONRow {
	row := &JSONRow{Ticks: ticks}
	s.encode(value, row)
	return row
}
