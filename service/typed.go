package service

import (
	"fmt"
	"sort"
	"strings"

	"github.com/SierraSoftworks/connor"

	"github.com/fulldump/tickdb/container"
	"github.com/fulldump/tickdb/tickstore"
	"github.com/fulldump/tickdb/utils"
)

// handler runs service operations on a store regardless of its value type.
type handler interface {
	info() *Dataset
	add(input *AddInput, policy tickstore.DuplicatePolicy) (*AddResult, error)
	fetch(query *FetchQuery, f func(row *JSONRow) error) error
	locate(ticks int64) (*LocateResult, error)
	delete(query *DeleteQuery) (*DeleteResult, error)
}

type typed[V any] struct {
	address container.Address
	store   *tickstore.Store[V]
	shape   shape[V]
}

func (t *typed[V]) info() *Dataset {
	return &Dataset{
		Instrument:             t.address.Instrument,
		Kind:                   t.address.Kind.String(),
		Timeframe:              string(t.address.Timeframe),
		Count:                  t.store.Count(),
		FirstTicks:             t.store.FirstTicks(),
		LastTicks:              t.store.LastTicks(),
		ReadOnly:               t.store.IsReadOnly(),
		MaximumReadBufferBytes: t.store.MaximumReadBufferBytes(),
	}
}

func (t *typed[V]) add(input *AddInput, policy tickstore.DuplicatePolicy) (*AddResult, error) {

	rows, err := t.shape.rows(input.Rows)
	if err != nil {
		return nil, err
	}

	spread := false
	if input.Spread {
		sort.SliceStable(rows, func(i, j int) bool {
			return rows[i].Ticks < rows[j].Ticks
		})
		spread = tickstore.Spread(rows)
	}

	before := t.store.Count()
	err = t.store.Add(rows, policy, input.Verbose)
	if err != nil {
		return nil, err
	}
	count := t.store.Count()

	return &AddResult{
		Received: len(rows),
		Spread:   spread,
		Count:    count,
		Added:    count - before,
	}, nil
}

func (t *typed[V]) fetchModes() map[string]func(q *FetchQuery, sink tickstore.Sink[V]) error {
	return map[string]func(q *FetchQuery, sink tickstore.Sink[V]) error{
		"all": func(q *FetchQuery, sink tickstore.Sink[V]) error {
			return t.store.FetchAll(sink)
		},
		"ticks": func(q *FetchQuery, sink tickstore.Sink[V]) error {
			return t.store.FetchTickRange(sink, q.FromTicks, q.ToTicks)
		},
		"index": func(q *FetchQuery, sink tickstore.Sink[V]) error {
			return t.store.FetchIndexRange(sink, q.FromIndex, q.Count)
		},
	}
}

func (t *typed[V]) fetch(query *FetchQuery, f func(row *JSONRow) error) error {

	modes := t.fetchModes()
	mode := query.Mode
	if mode == "" {
		mode = "all"
	}
	fetch, exists := modes[mode]
	if !exists {
		return fmt.Errorf("%w '%s', must be [%s]", ErrorBadMode, mode, strings.Join(utils.GetKeys(modes), "|"))
	}

	hasFilter := len(query.Filter) > 0
	skip := query.Skip
	emitted := int64(0)
	var result error

	err := fetch(query, tickstore.WhileFunc[V](func(ticks int64, value V) bool {
		row := t.shape.row(ticks, value)

		if hasFilter {
			rowData, err := utils.ToMap(row)
			if err != nil {
				result = err
				return false
			}
			match, err := connor.Match(query.Filter, rowData)
			if err != nil {
				result = fmt.Errorf("match: %w", err)
				return false
			}
			if !match {
				return true
			}
		}

		if skip > 0 {
			skip--
			return true
		}

		emitted++
		if result = f(row); result != nil {
			return false
		}
		return query.Limit <= 0 || emitted < query.Limit
	}))
	if err != nil {
		return err
	}

	return result
}

func (t *typed[V]) locate(ticks int64) (*LocateResult, error) {
	index, kind, err := t.store.Locate(ticks)
	if err != nil {
		return nil, err
	}
	return &LocateResult{
		Index: index,
		Match: kind.Matched(),
		Kind:  kind.String(),
	}, nil
}

func (t *typed[V]) deleteModes() map[string]func(q *DeleteQuery) error {
	s := t.store
	return map[string]func(q *DeleteQuery) error{
		"ticks": func(q *DeleteQuery) error {
			return s.DeleteTickRange(q.FromTicks, q.ToTicks)
		},
		"index": func(q *DeleteQuery) error {
			return s.DeleteIndexRange(q.FromIndex, q.ToIndex)
		},
		"before_ticks": func(q *DeleteQuery) error {
			return s.DeleteAllBeforeTick(q.Ticks)
		},
		"after_ticks": func(q *DeleteQuery) error {
			return s.DeleteAllAfterTick(q.Ticks)
		},
		"before_index": func(q *DeleteQuery) error {
			return s.DeleteAllBeforeIndex(q.Index)
		},
		"after_index": func(q *DeleteQuery) error {
			return s.DeleteAllAfterIndex(q.Index)
		},
	}
}

func (t *typed[V]) delete(query *DeleteQuery) (*DeleteResult, error) {

	modes := t.deleteModes()
	remove, exists := modes[query.Mode]
	if !exists {
		return nil, fmt.Errorf("%w '%s', must be [%s]", ErrorBadMode, query.Mode, strings.Join(utils.GetKeys(modes), "|"))
	}

	before := t.store.Count()
	if err := remove(query); err != nil {
		return nil, err
	}
	count := t.store.Count()

	return &DeleteResult{
		Removed: before - count,
		Count:   count,
	}, nil
}
