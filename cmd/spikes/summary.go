package main

import (
	"io"
	"math"

	"github.com/HdrHistogram/hdrhistogram-go"
	"gopkg.in/yaml.v3"
)

// summaryScale keeps three decimals of each value in the histogram.
const summaryScale = 1000

// Summary describes the values of the emitted spikes.
type Summary struct {
	RunID   string  `yaml:"run_id"`
	Lines   int     `yaml:"lines"`
	Skipped int     `yaml:"skipped"`
	Spikes  int     `yaml:"spikes"`
	Min     float64 `yaml:"min"`
	Max     float64 `yaml:"max"`
	Mean    float64 `yaml:"mean"`
	P50     float64 `yaml:"p50"`
	P90     float64 `yaml:"p90"`
	P99     float64 `yaml:"p99"`
}

// valueStats accumulates spike values.
type valueStats struct {
	values []float64
}

func (s *valueStats) Add(v float64) { s.values = append(s.values, v) }

// Summarize computes the summary. Percentiles come from an HDR histogram of
// the values shifted by the minimum, so they carry three significant digits.
func (s *valueStats) Summarize() Summary {
	out := Summary{Spikes: len(s.values)}
	if len(s.values) == 0 {
		return out
	}

	lo, hi, sum := math.Inf(1), math.Inf(-1), 0.0
	for _, v := range s.values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
		sum += v
	}
	out.Min, out.Max = lo, hi
	out.Mean = sum / float64(len(s.values))

	span := int64(math.Ceil((hi-lo)*summaryScale)) + 1
	h := hdrhistogram.New(1, max(span, 2), 3)
	for _, v := range s.values {
		_ = h.RecordValue(int64(math.Round((v - lo) * summaryScale)))
	}
	quantile := func(q float64) float64 {
		v := lo + float64(h.ValueAtQuantile(q))/summaryScale
		return math.Min(v, hi)
	}
	out.P50 = quantile(50)
	out.P90 = quantile(90)
	out.P99 = quantile(99)
	return out
}

func writeSummary(w io.Writer, s Summary) error {
	enc := yaml.NewEncoder(w)
	if err := enc.Encode(map[string]Summary{"summary": s}); err != nil {
		return err
	}
	return enc.Close()
}
