package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"

	"github.com/kbukum/spikekit/algorithm"
	"github.com/kbukum/spikekit/detector"
	"github.com/kbukum/spikekit/errors"
	"github.com/kbukum/spikekit/logger"
	"github.com/kbukum/spikekit/pipeline"
)

// readAhead is how many decoded samples a finite input may hold ahead of the
// detector.
const readAhead = 256

// detectCmd is one invocation of `spikes detect`.
type detectCmd struct {
	cfg     *CLIConfig
	path    string
	stdin   io.Reader
	stdout  io.Writer
	stderr  io.Writer
	log     *logger.Logger
	metrics *telemetry
}

// run streams the input through a detector and prints each spike as soon as
// it is settled.
func (c *detectCmd) run(ctx context.Context) error {
	runID := uuid.NewString()
	ctx = logger.ContextWithRunID(ctx, runID)
	log := c.log.WithContext(ctx)

	lines, err := c.open()
	if err != nil {
		return err
	}

	dec := newLineDecoder(c.cfg.Input, log)
	samples := pipeline.FilterMap(pipeline.From(lines), dec.decode)
	if !c.cfg.Input.Follow {
		samples = pipeline.Buffer(samples, readAhead)
	}
	src := samples.Iter(ctx)

	det, err := c.newDetector(runID)
	if err != nil {
		src.Close()
		return err
	}

	out, err := newRecordWriter(c.cfg.Output.Format, c.stdout)
	if err != nil {
		src.Close()
		return err
	}

	var (
		stats    valueStats
		writeErr error
	)
	em := det.Stream(ctx, src)
	em.OnData(func(s detector.Spike) {
		if writeErr != nil {
			return
		}
		if writeErr = out.Write(s.(Record)); writeErr != nil {
			em.Close()
			return
		}
		if v, err := det.Value(s); err == nil {
			stats.Add(v)
		} else {
			log.Debug("spike value unavailable", logger.Fields(logger.FieldError, err.Error()))
		}
	})
	if err := em.Start(); err != nil {
		return err
	}
	runErr := em.Wait()

	if err := out.Close(); err != nil && writeErr == nil {
		writeErr = err
	}
	if writeErr != nil {
		return fmt.Errorf("writing output: %w", writeErr)
	}

	if errors.HasCode(runErr, errors.ErrCodeCancelled) && c.cfg.Input.Follow {
		log.Info("follow stopped")
		runErr = nil
	}
	if runErr != nil {
		return runErr
	}

	if c.cfg.Output.Summary {
		s := stats.Summarize()
		s.RunID = runID
		s.Lines = dec.line
		s.Skipped = dec.skipped
		return writeSummary(c.stderr, s)
	}
	return nil
}

// open returns the line source for the input path; "-" reads stdin.
func (c *detectCmd) open() (pipeline.Iterator[string], error) {
	if c.path == "-" {
		if c.cfg.Input.Follow {
			return nil, errors.InvalidArgument("follow", "cannot follow stdin")
		}
		return pipeline.FromReader(io.NopCloser(c.stdin)), nil
	}
	if c.cfg.Input.Follow {
		return pipeline.Follow(c.path)
	}
	f, err := os.Open(c.path)
	if err != nil {
		return nil, err
	}
	return pipeline.FromReader(f), nil
}

func (c *detectCmd) newDetector(runID string) (*detector.Detector[sample], error) {
	options := []detector.Option[sample]{
		detector.WithLogger[sample](c.log),
		detector.WithY[sample](func(s sample) (float64, error) { return s.Value, nil }),
		detector.WithTransform[sample](func(p algorithm.Point, s sample, index int) (detector.Spike, error) {
			return Record{RunID: runID, Index: index, Line: s.Line, X: p.X, Y: p.Y}, nil
		}),
	}
	if c.metrics != nil && c.metrics.metrics != nil {
		options = append(options, detector.WithMetrics[sample](c.metrics.metrics))
	}
	return detector.New[sample](c.cfg.Detector.Options(), options...)
}
