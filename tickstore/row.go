package tickstore

import (
	"encoding/binary"
	"math"
)

// Row is one record of a store: a tick key and its payload.
type Row[V any] struct {
	Ticks int64 `json:"ticks"`
	Value V     `json:"value"`
}

// Codec encodes values of type V into a fixed number of bytes.
type Codec[V any] interface {
	Size() int
	Encode(dst []byte, v V)
	Decode(src []byte) V
}

const ticksSize = 8

func putFloat(dst []byte, f float64) {
	binary.LittleEndian.PutUint64(dst, math.Float64bits(f))
}

func getFloat(src []byte) float64 {
	return math.Float64frombits(binary.LittleEndian.Uint64(src))
}

// Price is the value of a price-only OHLCV bar.
type Price float64

type Quote struct {
	Bid float64 `json:"bid"`
	Ask float64 `json:"ask"`
}

type Trade struct {
	Price  float64 `json:"price"`
	Volume float64 `json:"volume"`
}

type PriceCodec struct{}

func (PriceCodec) Size() int { return 8 }
func (PriceCodec) Encode(dst []byte, v Price) { putFloat(dst, float64(v)) }
func (PriceCodec) Decode(src []byte) Price { return Price(getFloat(src)) }

type QuoteCodec struct{}

func (QuoteCodec) Size() int { return 16 }

func (QuoteCodec) Encode(dst []byte, v Quote) {
	putFloat(dst, v.Bid)
	putFloat(dst[8:], v.Ask)
}

func (QuoteCodec) Decode(src []byte) Quote {
	return Quote{
		Bid: getFloat(src),
		Ask: getFloat(src[8:]),
	}
}

type TradeCodec struct{}

func (TradeCodec) Size() int { return 16 }

func (TradeCodec) Encode(dst []byte, v Trade) {
	putFloat(dst, v.Price)
	putFloat(dst[8:], v.Volume)
}

func (TradeCodec) Decode(src []byte) Trade {
	return Trade{
		Price:  getFloat(src),
		Volume: getFloat(src[8:]),
	}
}

type (
	PriceStore = Store[Price]
	QuoteStore = Store[Quote]
	TradeStore = Store[Trade]
)

// RecordSize is the on-disk size of a row encoded with codec.
func RecordSize[V any](codec Codec[V]) int {
	return ticksSize + codec.Size()
}
