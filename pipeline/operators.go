package pipeline

import "context"

// FilterMap transforms each value and drops those fn rejects. It is the
// shape of a line decoder: undecodable lines return ok=false and are
// skipped, while an error ends the pipeline.
func FilterMap[I, O any](p *Pipeline[I], fn func(context.Context, I) (O, bool, error)) *Pipeline[O] {
	return &Pipeline[O]{open: func(ctx context.Context) Iterator[O] {
		src := p.open(ctx)
		return &funcIter[O]{
			next: func(ctx context.Context) (O, bool, error) {
				var zero O
				for {
					in, ok, err := src.Next(ctx)
					if err != nil || !ok {
						return zero, false, err
					}
					out, keep, err := fn(ctx, in)
					if err != nil {
						return zero, false, err
					}
					if keep {
						return out, true, nil
					}
				}
			},
			close: src.Close,
		}
	}}
}
