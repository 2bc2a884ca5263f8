package detector

import (
	"context"
	"time"

	"github.com/kbukum/spikekit/algorithm"
	"github.com/kbukum/spikekit/errors"
	"github.com/kbukum/spikekit/logger"
	"github.com/kbukum/spikekit/observability"
	"github.com/kbukum/spikekit/pipeline"
)

// Stream returns an unstarted Emitter that detects spikes in the items
// pulled from src. Subscribe, then call Start.
//
// Each spike is emitted as soon as the strategy's look-ahead window after
// it has arrived, in strictly increasing index order. A successful run ends
// with one EventEnd. A source, accessor, strategy or transform failure
// produces one EventError and no end. Cancelling ctx or calling
// Emitter.Close stops emission without an end. The emitter owns src and
// closes it when the run is over.
func (d *Detector[T]) Stream(ctx context.Context, src pipeline.Iterator[T]) *Emitter {
	prepare := func() (runFunc, error) {
		rc, err := d.begin("start a stream")
		if err != nil {
			return nil, err
		}
		return func(ctx context.Context, emit func(Spike) bool) error {
			defer d.end()
			defer src.Close()

			ctx = withRunID(ctx)
			ctx, span := observability.StartSpan(ctx, observability.SpanStreamRun)
			defer span.End()

			st := runStats{mode: modeStream, start: time.Now()}
			d.log.WithContext(ctx).Debug("stream started", logger.Fields(
				logger.FieldAlgorithm, rc.strategy.Name(),
			))

			err := rc.stream(ctx, src, emit, &st)
			d.finish(ctx, rc, st, err)
			return err
		}, nil
	}
	return newEmitter(ctx, prepare, src.Close)
}

// StreamAll runs Stream to completion and collects the spikes.
func (d *Detector[T]) StreamAll(ctx context.Context, src pipeline.Iterator[T]) ([]Spike, error) {
	var spikes []Spike
	em := d.Stream(ctx, src).OnData(func(s Spike) {
		spikes = append(spikes, s)
	})
	if err := em.Start(); err != nil {
		return nil, err
	}
	if err := em.Wait(); err != nil {
		return spikes, err
	}
	return spikes, nil
}

// window is the stream run's look-ahead buffer. It holds the points that
// are not settled yet plus the settled points they may still depend on.
// A point settles once Ahead points follow it and, with a Span, once the
// newest point lies at least Span further along X. Everything settles when
// the source ends.
type window[T any] struct {
	algorithm.Window

	points []algorithm.Point
	items  []T
	// base is the index of points[0] in the whole stream.
	base int
	// settled is the index of the first point not settled yet.
	settled int
}

func (w *window[T]) next() int { return w.base + len(w.points) }

func (w *window[T]) at(i int) algorithm.Point { return w.points[i-w.base] }

func (w *window[T]) push(p algorithm.Point, item T) {
	w.points = append(w.points, p)
	w.items = append(w.items, item)
}

// ready returns the end (exclusive) of the run of points that can settle.
func (w *window[T]) ready(final bool) int {
	if final {
		return w.next()
	}
	to := w.next() - w.Ahead
	if w.Span > 0 && len(w.points) > 0 {
		newest := w.points[len(w.points)-1].X
		for to > w.settled && newest-w.at(to-1).X < w.Span {
			to--
		}
	}
	return to
}

// advance marks points before to as settled and drops context that no
// unsettled point needs any more.
func (w *window[T]) advance(to int) {
	w.settled = to
	keep := w.settled - w.Behind
	if w.Span > 0 && len(w.points) > 0 {
		ref := w.points[len(w.points)-1].X
		if w.settled < w.next() {
			ref = w.at(w.settled).X
		}
		// Keep every point within Span of the first unsettled one, plus
		// the point before them as a neighbour.
		k := min(w.settled, w.next()-1)
		for k > w.base && ref-w.at(k-1).X < w.Span {
			k--
		}
		keep = min(keep, k-1)
	}

	drop := keep - w.base
	if drop <= 0 {
		return
	}
	drop = min(drop, len(w.points))
	n := copy(w.points, w.points[drop:])
	w.points = w.points[:n]
	var zero T
	for i := copy(w.items, w.items[drop:]); i < len(w.items); i++ {
		w.items[i] = zero
	}
	w.items = w.items[:n]
	w.base += drop
}

func (rc *runConfig[T]) stream(ctx context.Context, src pipeline.Iterator[T], emit func(Spike) bool, st *runStats) (err error) {
	defer recoverRun(&err)

	w := &window[T]{Window: algorithm.WindowOf(rc.strategy, rc.minDistance)}

	for {
		item, ok, err := src.Next(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return errors.Cancelled(ctx.Err())
			}
			return errors.RunFailure("source", w.next(), err)
		}
		if !ok {
			break
		}
		st.items++

		p, err := rc.point(item, w.next())
		if err != nil {
			return err
		}
		w.push(p, item)

		if err := rc.settle(ctx, w, false, emit, st); err != nil {
			return err
		}
	}
	return rc.settle(ctx, w, true, emit, st)
}

// settle classifies the points that have enough trailing context and
// emits the accepted ones.
func (rc *runConfig[T]) settle(ctx context.Context, w *window[T], final bool, emit func(Spike) bool, st *runStats) error {
	to := w.ready(final)
	if to <= w.settled {
		return nil
	}

	peaks, err := rc.detect(w.points)
	if err != nil {
		return err
	}
	for _, local := range peaks {
		i := w.base + local
		if i < w.settled || i >= to {
			continue
		}
		s, ok, err := rc.shape(w.points[local], w.items[local], i)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		if !emit(s) {
			return errors.Cancelled(context.Cause(ctx))
		}
		st.spikes++
	}
	w.advance(to)
	return nil
}
