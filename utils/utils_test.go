package utils

import (
	"testing"

	"github.com/fulldump/biff"
)

func TestGetKeys(t *testing.T) {
	keys := GetKeys(map[string]int{"ticks": 1, "all": 2, "index": 3})
	biff.AssertEqual(keys, []string{"all", "index", "ticks"})

	biff.AssertEqual(GetKeys(map[string]int{}), []string{})
}

func TestToMap(t *testing.T) {
	price := 1.5
	m, err := ToMap(struct {
		Ticks int64    `json:"ticks"`
		Price *float64 `json:"price,omitempty"`
		Bid   *float64 `json:"bid,omitempty"`
	}{Ticks: 10, Price: &price})

	biff.AssertNil(err)
	biff.AssertEqual(m, map[string]any{"ticks": 10.0, "price": 1.5})
}
