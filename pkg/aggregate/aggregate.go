// Package aggregate groups usage records by an arbitrary key and sums their
// cost, units and cost split. Groups come back in first-seen order.
package aggregate

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/pario-ai/ledgerfin/pkg/cost"
	"github.com/pario-ai/ledgerfin/pkg/models"
)

// Totals are the summed numeric fields of a set of records.
type Totals struct {
	Records  int     `json:"records"`
	Cost     float64 `json:"cost"`
	Units    float64 `json:"units"`
	Fixed    float64 `json:"fixed"`
	Variable float64 `json:"variable"`
}

// Add folds one record into t.
func (t *Totals) Add(r models.UsageRecord) {
	s := cost.Split(r)
	t.Records++
	t.Cost += r.Cost
	t.Units += r.Units
	t.Fixed += s.Fixed
	t.Variable += s.Variable
}

// Merge folds another partial sum into t.
func (t *Totals) Merge(o Totals) {
	t.Records += o.Records
	t.Cost += o.Cost
	t.Units += o.Units
	t.Fixed += o.Fixed
	t.Variable += o.Variable
}

// Group is the totals for one key.
type Group[K comparable] struct {
	Key K `json:"key"`
	Totals
}

// Sum totals every record.
func Sum(recs []models.UsageRecord) Totals {
	var t Totals
	for _, r := range recs {
		t.Add(r)
	}
	return t
}

// By groups recs by key.
func By[K comparable](recs []models.UsageRecord, key func(models.UsageRecord) K) []Group[K] {
	g := newGrouper[K]()
	for _, r := range recs {
		g.add(key(r), r)
	}
	return g.groups
}

// Index returns the groups keyed for lookup.
func Index[K comparable](groups []Group[K]) map[K]Totals {
	m := make(map[K]Totals, len(groups))
	for _, g := range groups {
		m[g.Key] = g.Totals
	}
	return m
}

// Nested is a first-level group with its second-level breakdown.
type Nested[K1, K2 comparable] struct {
	Key K1 `json:"key"`
	Totals
	Inner []Group[K2] `json:"inner"`
}

// ByNested groups recs by outer, then within each outer group by inner.
func ByNested[K1, K2 comparable](recs []models.UsageRecord, outer func(models.UsageRecord) K1, inner func(models.UsageRecord) K2) []Nested[K1, K2] {
	var out []Nested[K1, K2]
	pos := make(map[K1]int)
	sub := make([]*grouper[K2], 0)
	for _, r := range recs {
		k := outer(r)
		i, ok := pos[k]
		if !ok {
			i = len(out)
			pos[k] = i
			out = append(out, Nested[K1, K2]{Key: k})
			sub = append(sub, newGrouper[K2]())
		}
		out[i].Add(r)
		sub[i].add(inner(r), r)
	}
	for i := range out {
		out[i].Inner = sub[i].groups
	}
	return out
}

// ByParallel is By with the input split into chunks summed concurrently.
// Chunk results are merged in chunk order, so group order matches By.
// Float sums may differ from By in the last bits since the addition order
// changes.
func ByParallel[K comparable](ctx context.Context, recs []models.UsageRecord, key func(models.UsageRecord) K, workers int) ([]Group[K], error) {
	if workers <= 1 || len(recs) < 2*workers {
		return By(recs, key), nil
	}

	size := (len(recs) + workers - 1) / workers
	partials := make([][]Group[K], workers)

	eg, ctx := errgroup.WithContext(ctx)
	for w := range workers {
		lo := w * size
		hi := min(lo+size, len(recs))
		if lo >= hi {
			continue
		}
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			partials[w] = By(recs[lo:hi], key)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	g := newGrouper[K]()
	for _, part := range partials {
		for _, p := range part {
			g.merge(p.Key, p.Totals)
		}
	}
	return g.groups, nil
}

// Filter returns the records for which keep reports true.
func Filter(recs []models.UsageRecord, keep func(models.UsageRecord) bool) []models.UsageRecord {
	var out []models.UsageRecord
	for _, r := range recs {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

type grouper[K comparable] struct {
	pos    map[K]int
	groups []Group[K]
}

func newGrouper[K comparable]() *grouper[K] {
	return &grouper[K]{pos: make(map[K]int)}
}

func (g *grouper[K]) slot(k K) *Group[K] {
	i, ok := g.pos[k]
	if !ok {
		i = len(g.groups)
		g.pos[k] = i
		g.groups = append(g.groups, Group[K]{Key: k})
	}
	return &g.groups[i]
}

func (g *grouper[K]) add(k K, r models.UsageRecord) { g.slot(k).Add(r) }

func (g *grouper[K]) merge(k K, t Totals) { g.slot(k).Merge(t) }
