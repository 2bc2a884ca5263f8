package algorithm

import (
	"fmt"
	"math"

	"github.com/spf13/cast"

	"github.com/kbukum/spikekit/errors"
)

// Built-in strategy identifiers.
const (
	NameDefault   = "default"
	NameDistance  = "distance"
	NameThreshold = "threshold"
)

// Extra option keys read by the threshold strategy.
const (
	OptionLag             = "lag"
	OptionThresholdFactor = "thresholdFactor"
)

const (
	defaultLag             = 5
	defaultThresholdFactor = 3.0
)

// isLocalMax reports whether points[i] is strictly higher than both
// neighbours. Endpoints are never local maxima.
func isLocalMax(points []Point, i int) bool {
	if i <= 0 || i >= len(points)-1 {
		return false
	}
	return points[i].Y > points[i-1].Y && points[i].Y > points[i+1].Y
}

// --- default ---

// LocalMaxima reports every point strictly higher than both of its
// neighbours. It does not enforce a minimum distance between peaks.
type LocalMaxima struct{}

func newLocalMaxima(Params) (Strategy, error) { return LocalMaxima{}, nil }

// Name implements Strategy.
func (LocalMaxima) Name() string { return NameDefault }

// Window implements Windowed.
func (LocalMaxima) Window() Window { return Window{Behind: 1, Ahead: 1} }

// Detect implements Strategy.
func (LocalMaxima) Detect(points []Point) ([]int, error) {
	var peaks []int
	for i := 1; i < len(points)-1; i++ {
		if isLocalMax(points, i) {
			peaks = append(peaks, i)
		}
	}
	return peaks, nil
}

// --- distance ---

// Distance keeps the local maxima that dominate every other local maximum
// closer than MinDistance along X. A peak is dominated by a higher one, or
// by an equally high one with a lower index, so no two reported peaks are
// closer than MinDistance.
//
// Suppression is not greedy: a peak is dropped even if the peak that
// dominates it is itself dropped by a third one. Each verdict depends only
// on the candidates within MinDistance, which keeps the stream window
// exact.
//
// Points must be ordered by X; a decreasing X fails the run.
type Distance struct {
	MinDistance int
}

func newDistance(p Params) (Strategy, error) {
	if p.MinPeakDistance < 0 {
		return nil, errors.InvalidArgument("minPeakDistance", "must be at least 0")
	}
	return Distance{MinDistance: p.MinPeakDistance}, nil
}

// Name implements Strategy.
func (Distance) Name() string { return NameDistance }

// Window implements Windowed. One point on each side decides local
// maxima; the span covers every candidate that can dominate.
func (d Distance) Window() Window {
	return Window{Behind: 1, Ahead: 1, Span: float64(max(d.MinDistance, 0))}
}

// Detect implements Strategy.
func (d Distance) Detect(points []Point) ([]int, error) {
	candidates, _ := LocalMaxima{}.Detect(points)
	if d.MinDistance <= 0 {
		return candidates, nil
	}
	minDist := float64(d.MinDistance)
	for i := 1; i < len(points); i++ {
		if points[i].X < points[i-1].X {
			return nil, errors.InvalidArgument("x", fmt.Sprintf("decreases at index %d (%g after %g)", i, points[i].X, points[i-1].X))
		}
	}

	var peaks []int
	for ci, i := range candidates {
		dominated := false
		// Candidates are sorted by index; scan outwards in both directions
		// while still inside the distance window.
		for cj := ci - 1; cj >= 0 && !dominated; cj-- {
			j := candidates[cj]
			if math.Abs(points[i].X-points[j].X) >= minDist {
				break
			}
			dominated = points[j].Y >= points[i].Y
		}
		for cj := ci + 1; cj < len(candidates) && !dominated; cj++ {
			j := candidates[cj]
			if math.Abs(points[j].X-points[i].X) >= minDist {
				break
			}
			dominated = points[j].Y > points[i].Y
		}
		if !dominated {
			peaks = append(peaks, i)
		}
	}
	return peaks, nil
}

// --- threshold ---

// Threshold reports local maxima that rise more than Factor standard
// deviations above the mean of the Lag points preceding them. Points with
// fewer than two predecessors are never reported.
type Threshold struct {
	Lag    int
	Factor float64
}

func newThreshold(p Params) (Strategy, error) {
	t := Threshold{Lag: defaultLag, Factor: defaultThresholdFactor}
	if v, ok := p.Extra[OptionLag]; ok {
		lag, err := cast.ToIntE(v)
		if err != nil {
			return nil, errors.TypeMismatch(OptionLag, "an integer", v).WithCause(err)
		}
		if lag < 2 {
			return nil, errors.InvalidArgument(OptionLag, "must be at least 2")
		}
		t.Lag = lag
	}
	if v, ok := p.Extra[OptionThresholdFactor]; ok {
		f, err := cast.ToFloat64E(v)
		if err != nil {
			return nil, errors.TypeMismatch(OptionThresholdFactor, "a number", v).WithCause(err)
		}
		if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
			return nil, errors.InvalidArgument(OptionThresholdFactor, "must be a finite number >= 0")
		}
		t.Factor = f
	}
	return t, nil
}

// Name implements Strategy.
func (Threshold) Name() string { return NameThreshold }

// Window implements Windowed.
func (t Threshold) Window() Window { return Window{Behind: t.Lag, Ahead: 1} }

// Detect implements Strategy.
func (t Threshold) Detect(points []Point) ([]int, error) {
	var peaks []int
	for i := 2; i < len(points)-1; i++ {
		if !isLocalMax(points, i) {
			continue
		}
		start := i - t.Lag
		if start < 0 {
			start = 0
		}
		mean, std := meanStd(points[start:i])
		if points[i].Y > mean+t.Factor*std {
			peaks = append(peaks, i)
		}
	}
	return peaks, nil
}

func meanStd(points []Point) (float64, float64) {
	n := float64(len(points))
	var sum float64
	for _, p := range points {
		sum += p.Y
	}
	mean := sum / n
	var sq float64
	for _, p := range points {
		d := p.Y - mean
		sq += d * d
	}
	return mean, math.Sqrt(sq / n)
}
