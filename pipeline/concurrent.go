package pipeline

import "context"

// item carries one pull result across a channel.
type item[T any] struct {
	val T
	err error
}

// Buffer reads ahead of the consumer on its own goroutine, holding up to
// size values. Use it when the source blocks (slow disks, pipes) and the
// consumer should not wait on every read.
func Buffer[T any](p *Pipeline[T], size int) *Pipeline[T] {
	size = max(size, 1)
	return &Pipeline[T]{open: func(ctx context.Context) Iterator[T] {
		src := p.open(ctx)
		ctx, cancel := context.WithCancel(ctx)
		ch := make(chan item[T], size)

		go func() {
			defer close(ch)
			for {
				v, ok, err := src.Next(ctx)
				if !ok && err == nil {
					return
				}
				select {
				case ch <- item[T]{val: v, err: err}:
				case <-ctx.Done():
					return
				}
				if err != nil {
					return
				}
			}
		}()

		return &funcIter[T]{
			next: func(caller context.Context) (T, bool, error) {
				var zero T
				select {
				case it, open := <-ch:
					if !open {
						return zero, false, nil
					}
					if it.err != nil {
						return zero, false, it.err
					}
					return it.val, true, nil
				case <-caller.Done():
					return zero, false, caller.Err()
				}
			},
			close: func() error {
				cancel()
				return src.Close()
			},
		}
	}}
}
