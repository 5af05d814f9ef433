package dataloader

import "context"

// Keyed is implemented by values a one-to-one loader can match back to the
// key that requested them.
type Keyed[K comparable] interface {
	LoaderKey() K
}

// Thunk defers a batched result until graphql-go asks for it.
type Thunk[V any] func() (V, error)

// LookupThunk is a Thunk that also reports whether the key had a match.
type LookupThunk[V any] func() (V, bool, error)

// FetchFunc loads the values for a batch of distinct keys. Keys with no
// matching row are simply left out of the result.
type FetchFunc[K comparable, V any] func(ctx context.Context, keys []K) ([]V, error)

// Loader batches one-to-one lookups by key.
type Loader[K comparable, V Keyed[K]] struct {
	b *batcher[K, V]
}

// NewLoader creates a loader around fetch.
func NewLoader[K comparable, V Keyed[K]](fetch FetchFunc[K, V], opts Options) *Loader[K, V] {
	return &Loader[K, V]{
		b: newBatcher(opts, func(ctx context.Context, keys []K) (map[K]V, int, error) {
			values, err := fetch(ctx, keys)
			if err != nil {
				return nil, 0, err
			}
			results := make(map[K]V, len(values))
			for _, v := range values {
				results[v.LoaderKey()] = v
			}
			return results, len(values), nil
		}),
	}
}

// Load registers key in the current batch. The returned thunk reports
// found=false when the fetch produced no value for key.
func (l *Loader[K, V]) Load(ctx context.Context, key K) LookupThunk[V] {
	bt, err := l.b.enqueue(ctx, key)
	return func() (V, bool, error) {
		if err != nil {
			var zero V
			return zero, false, err
		}
		return l.b.await(ctx, bt, key)
	}
}

// LoadAll registers every key and returns their values in key order.
// Missing keys yield the zero value of V.
func (l *Loader[K, V]) LoadAll(ctx context.Context, keys []K) Thunk[[]V] {
	thunks := make([]LookupThunk[V], len(keys))
	for i, key := range keys {
		thunks[i] = l.Load(ctx, key)
	}
	return func() ([]V, error) {
		values := make([]V, len(thunks))
		for i, thunk := range thunks {
			v, _, err := thunk()
			if err != nil {
				return nil, err
			}
			values[i] = v
		}
		return values, nil
	}
}

// Prime seeds the cache with a value obtained elsewhere, typically a root
// query result. Already cached keys are left untouched.
func (l *Loader[K, V]) Prime(value V) bool {
	return l.b.prime(value.LoaderKey(), value)
}

// Close refuses further loads.
func (l *Loader[K, V]) Close() {
	l.b.close()
}
