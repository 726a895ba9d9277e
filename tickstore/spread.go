package tickstore

import "math"

// Spread rewrites runs of equal ticks in an ascending batch into consecutive
// ticks: a run t0, t0, t0 becomes t0, t0+1, t0+2. A spread run that reaches
// the next distinct tick pushes it (and whatever follows) forward, so the
// result is always strictly ascending. It returns true if any tick changed.
//
// Ticks cannot be spread past math.MaxInt64. When the batch would need it,
// the batch is left untouched, Spread returns false and Add will reject it.
func Spread[V any](batch []Row[V]) bool {
	if !spreadable(batch) {
		return false
	}

	changed := false
	for i := 1; i < len(batch); i++ {
		prev := batch[i-1].Ticks
		if batch[i].Ticks > prev {
			continue
		}
		batch[i].Ticks = prev + 1
		changed = true
	}
	return changed
}

// spreadable replays the cascade without writing and reports whether it
// stays within math.MaxInt64.
func spreadable[V any](batch []Row[V]) bool {
	if len(batch) == 0 {
		return true
	}
	prev := batch[0].Ticks
	for _, row := range batch[1:] {
		if row.Ticks > prev {
			prev = row.Ticks
			continue
		}
		if prev == math.MaxInt64 {
			return false
		}
		prev++
	}
	return true
}
