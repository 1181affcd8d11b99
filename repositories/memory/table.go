package memory

import (
	"sort"
)

// table is an immutable, ordered collection of rows. Reads hand out copies.
type table[T any] struct {
	rows  []T
	index map[string]int
}

func newTable[T any](rows []T, id func(*T) string, less func(a, b *T) bool) *table[T] {
	sorted := make([]T, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool { return less(&sorted[i], &sorted[j]) })

	index := make(map[string]int, len(sorted))
	for i := range sorted {
		index[id(&sorted[i])] = i
	}
	return &table[T]{rows: sorted, index: index}
}

func (t *table[T]) get(id string) (*T, bool) {
	i, ok := t.index[id]
	if !ok {
		return nil, false
	}
	row := t.rows[i]
	return &row, true
}

// list returns copies of matching rows in table order, stopping at limit when positive
func (t *table[T]) list(match func(*T) bool, limit int) []*T {
	out := make([]*T, 0)
	for i := range t.rows {
		if !match(&t.rows[i]) {
			continue
		}
		row := t.rows[i]
		out = append(out, &row)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}
