package dataloader

import (
	"context"
	"sort"
)

// Ordered is implemented by child values that have a deterministic order
// within their parent group.
type Ordered[V any] interface {
	SortsBefore(other V) bool
}

// Child pairs a fetched value with the parent key it belongs to.
type Child[K comparable, V any] struct {
	Parent K
	Value  V
}

// GroupResult is what a GroupFetchFunc returns for one batch. Totals holds
// the full child count per parent when the fetch returned only a page of
// children; parents missing from Totals count their returned children.
//
// Ordered reports that the children of each parent already arrive in their
// final order, typically the ORDER BY of the statement that paged them. The
// loader then keeps that order instead of sorting with SortsBefore, so a
// group matches what a direct fetch of the same parent returns under the
// database collation.
type GroupResult[K comparable, V any] struct {
	Children []Child[K, V]
	Totals   map[K]int
	Ordered  bool
}

// GroupFetchFunc loads children for a batch of distinct parent keys.
type GroupFetchFunc[K comparable, V any] func(ctx context.Context, parentKeys []K) (GroupResult[K, V], error)

// Group is the settled children of one parent.
type Group[V any] struct {
	Items []V
	Total int
}

// ParentLoader batches one-to-many lookups by parent key. Every requested
// parent gets a group, empty when it has no children.
type ParentLoader[K comparable, V Ordered[V]] struct {
	b *batcher[K, Group[V]]
}

// NewParentLoader creates a parent-keyed loader around fetch.
func NewParentLoader[K comparable, V Ordered[V]](fetch GroupFetchFunc[K, V], opts Options) *ParentLoader[K, V] {
	return &ParentLoader[K, V]{
		b: newBatcher(opts, func(ctx context.Context, keys []K) (map[K]Group[V], int, error) {
			res, err := fetch(ctx, keys)
			if err != nil {
				return nil, 0, err
			}
			return groupChildren(keys, res), len(res.Children), nil
		}),
	}
}

func groupChildren[K comparable, V Ordered[V]](keys []K, res GroupResult[K, V]) map[K]Group[V] {
	items := make(map[K][]V, len(keys))
	for _, key := range keys {
		items[key] = []V{}
	}
	for _, child := range res.Children {
		if _, requested := items[child.Parent]; !requested {
			continue
		}
		items[child.Parent] = append(items[child.Parent], child.Value)
	}

	groups := make(map[K]Group[V], len(keys))
	for key, values := range items {
		if !res.Ordered {
			sort.SliceStable(values, func(i, j int) bool {
				return values[i].SortsBefore(values[j])
			})
		}
		total, ok := res.Totals[key]
		if !ok {
			total = len(values)
		}
		groups[key] = Group[V]{Items: values, Total: total}
	}
	return groups
}

// LoadGroup registers parentKey in the current batch.
func (l *ParentLoader[K, V]) LoadGroup(ctx context.Context, parentKey K) Thunk[Group[V]] {
	bt, err := l.b.enqueue(ctx, parentKey)
	return func() (Group[V], error) {
		if err != nil {
			return Group[V]{}, err
		}
		group, ok, err := l.b.await(ctx, bt, parentKey)
		if err != nil {
			return Group[V]{}, err
		}
		if !ok {
			return Group[V]{Items: []V{}}, nil
		}
		return group, nil
	}
}

// LoadMany returns the ordered children of parentKey.
func (l *ParentLoader[K, V]) LoadMany(ctx context.Context, parentKey K) Thunk[[]V] {
	thunk := l.LoadGroup(ctx, parentKey)
	return func() ([]V, error) {
		group, err := thunk()
		if err != nil {
			return nil, err
		}
		return group.Items, nil
	}
}

// Close refuses further loads.
func (l *ParentLoader[K, V]) Close() {
	l.b.close()
}
