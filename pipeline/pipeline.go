package pipeline

import "context"

// Iterator provides pull-based sequential access to a stream of values.
// Next returns (zero, false, nil) once the stream is exhausted; an error
// ends the stream. Close releases the underlying source and may be called
// at any point.
type Iterator[T any] interface {
	Next(ctx context.Context) (T, bool, error)
	Close() error
}

// Pipeline is a lazy chain of stages. Nothing is pulled until Iter, Collect
// or ForEach is called.
type Pipeline[T any] struct {
	open func(ctx context.Context) Iterator[T]
}

// From wraps an existing Iterator. The iterator is consumed once.
func From[T any](it Iterator[T]) *Pipeline[T] {
	return &Pipeline[T]{open: func(context.Context) Iterator[T] { return it }}
}

// FromSlice yields the items in order. Each Iter call starts over.
func FromSlice[T any](items []T) *Pipeline[T] {
	return &Pipeline[T]{open: func(context.Context) Iterator[T] { return SliceIterator(items) }}
}

// Iter opens the pipeline. The caller must Close the returned iterator.
func (p *Pipeline[T]) Iter(ctx context.Context) Iterator[T] {
	return p.open(ctx)
}

// ForEach pulls every value into fn, stopping at the first error.
func ForEach[T any](ctx context.Context, p *Pipeline[T], fn func(context.Context, T) error) error {
	it := p.open(ctx)
	defer it.Close()
	for {
		v, ok, err := it.Next(ctx)
		if err != nil || !ok {
			return err
		}
		if err := fn(ctx, v); err != nil {
			return err
		}
	}
}

// Collect pulls every value into a slice. On error the values pulled so far
// are returned with it.
func Collect[T any](ctx context.Context, p *Pipeline[T]) ([]T, error) {
	var out []T
	err := ForEach(ctx, p, func(_ context.Context, v T) error {
		out = append(out, v)
		return nil
	})
	return out, err
}

// SliceIterator returns an Iterator over items.
func SliceIterator[T any](items []T) Iterator[T] {
	i := 0
	return &funcIter[T]{next: func(context.Context) (T, bool, error) {
		if i >= len(items) {
			var zero T
			return zero, false, nil
		}
		i++
		return items[i-1], true, nil
	}}
}

// funcIter adapts a pair of closures to Iterator.
type funcIter[T any] struct {
	next  func(ctx context.Context) (T, bool, error)
	close func() error
}

func (it *funcIter[T]) Next(ctx context.Context) (T, bool, error) { return it.next(ctx) }

func (it *funcIter[T]) Close() error {
	if it.close == nil {
		return nil
	}
	return it.close()
}
