package detector

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/kbukum/spikekit/algorithm"
	"github.com/kbukum/spikekit/errors"
	"github.com/kbukum/spikekit/logger"
	"github.com/kbukum/spikekit/observability"
)

// Run detects spikes in items and returns them in ascending index order.
//
// Accessor, strategy and transform failures abort the run with a
// RUN_FAILURE wrapping the cause; no partial result is returned. A
// cancelled ctx stops the run with CANCELLED.
func (d *Detector[T]) Run(ctx context.Context, items []T) (spikes []Spike, err error) {
	rc, err := d.begin("start a run")
	if err != nil {
		return nil, err
	}
	defer d.end()

	ctx = withRunID(ctx)
	ctx, span := observability.StartSpan(ctx, observability.SpanArrayRun)
	defer span.End()

	st := runStats{mode: modeArray, items: len(items), start: time.Now()}
	d.log.WithContext(ctx).Debug("run started", logger.Fields(
		logger.FieldAlgorithm, rc.strategy.Name(),
		logger.FieldItems, len(items),
	))

	spikes, err = rc.detectAll(ctx, items)
	if err != nil {
		spikes = nil
	}
	st.spikes = len(spikes)
	d.finish(ctx, rc, st, err)
	return spikes, err
}

// RunArray runs over items and invokes cb exactly once with either the
// error or the spikes.
func (d *Detector[T]) RunArray(ctx context.Context, items []T, cb func(err error, spikes []Spike)) {
	spikes, err := d.Run(ctx, items)
	cb(err, spikes)
}

func (rc *runConfig[T]) detectAll(ctx context.Context, items []T) (spikes []Spike, err error) {
	defer recoverRun(&err)

	points := make([]algorithm.Point, len(items))
	for i, item := range items {
		if err := ctx.Err(); err != nil {
			return nil, errors.Cancelled(err)
		}
		p, err := rc.point(item, i)
		if err != nil {
			return nil, err
		}
		points[i] = p
	}

	peaks, err := rc.detect(points)
	if err != nil {
		return nil, err
	}

	spikes = make([]Spike, 0, len(peaks))
	for _, i := range peaks {
		s, ok, err := rc.shape(points[i], items[i], i)
		if err != nil {
			return nil, err
		}
		if ok {
			spikes = append(spikes, s)
		}
	}
	return spikes, nil
}

// point maps the item at index onto an XY point.
func (rc *runConfig[T]) point(item T, index int) (algorithm.Point, error) {
	x, err := rc.x(item, index)
	if err != nil {
		return algorithm.Point{}, errors.RunFailure("x accessor", index, err)
	}
	y, err := rc.y(item)
	if err != nil {
		return algorithm.Point{}, errors.RunFailure("y accessor", index, err)
	}
	return algorithm.Point{X: x, Y: y}, nil
}

// detect runs the strategy and returns its peak indices sorted, without
// duplicates, and checked against the bounds of points.
func (rc *runConfig[T]) detect(points []algorithm.Point) ([]int, error) {
	peaks, err := rc.strategy.Detect(points)
	if err != nil {
		return nil, errors.RunFailure("algorithm", -1, err)
	}
	if !sort.IntsAreSorted(peaks) {
		peaks = append([]int(nil), peaks...)
		sort.Ints(peaks)
	}
	out := make([]int, 0, len(peaks))
	for k, i := range peaks {
		if i < 0 || i >= len(points) {
			return nil, errors.RunFailure("algorithm", i,
				fmt.Errorf("strategy %s returned index %d outside [0, %d)", rc.strategy.Name(), i, len(points)))
		}
		if k > 0 && peaks[k-1] == i {
			continue
		}
		out = append(out, i)
	}
	return out, nil
}

// shape filters a candidate and transforms it. ok is false when the
// filter chain rejects it.
func (rc *runConfig[T]) shape(p algorithm.Point, item T, index int) (s Spike, ok bool, err error) {
	if !rc.filters.Accept(p.Y) {
		return nil, false, nil
	}
	s, err = rc.transform(p, item, index)
	if err != nil {
		return nil, false, errors.RunFailure("transform", index, err)
	}
	return s, true, nil
}

// recoverRun turns a panic in caller-supplied code into a RUN_FAILURE.
func recoverRun(err *error) {
	if r := recover(); r != nil {
		*err = errors.RunFailure("run", -1, fmt.Errorf("panic: %v", r))
	}
}
