// Package detector finds spikes in ordered sequences of raw items.
//
// A Detector chains three user-replaceable accessors (X, Y, transform), one
// detection strategy and an OR-combined filter chain. The same chain runs
// over an in-memory slice (Run, RunArray) or over a pull-based
// pipeline.Iterator (Stream), so both modes classify and shape spikes
// identically.
//
// Basic usage:
//
//	d, err := detector.New[float64](map[string]any{"minPeakHeight": 3})
//	if err != nil {
//	    return err
//	}
//	spikes, err := d.Run(ctx, []float64{1, 2, 5, 2, 1, 1, 2, 6, 2, 1})
//
// Streaming:
//
//	em := d.Stream(ctx, src)
//	em.OnData(func(s detector.Spike) { ... }).
//	    OnEnd(func() { ... }).
//	    OnError(func(err error) { ... })
//	if err := em.Start(); err != nil {
//	    return err
//	}
//	err = em.Wait()
//
// Configuration (accessors, strategy, filters) is fixed for the duration of
// a run. Setters called while a run is in flight fail with RUN_IN_PROGRESS,
// as does starting a second concurrent run on the same Detector.
package detector
