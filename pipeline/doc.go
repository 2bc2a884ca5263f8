// Package pipeline provides the pull-based iterator substrate that feeds
// detection runs.
//
// Pipelines are lazy: no work happens until values are pulled via Iter,
// Collect, or ForEach. Each stage pulls from the previous stage on demand, so
// a slow consumer naturally slows the source without explicit flow control.
// The detector's stream runner consumes any Iterator[T]; this package
// supplies the common sources and the operators used to shape them.
//
// # Sources
//
//   - FromSlice / From / SliceIterator: in-memory and custom iterators
//   - FromReader: decoded text lines of an io.Reader
//   - Follow: lines appended to a growing file, via fsnotify
//
// # Operators
//
//   - FilterMap: transform and drop values in one step (e.g. line decoding)
//   - Buffer: read ahead of the consumer on a separate goroutine
//
// # Usage
//
//	lines := pipeline.FromReader(f)
//	values := pipeline.FilterMap(pipeline.From(lines), decodeLine)
//	emitter := d.Stream(ctx, values.Iter(ctx))
package pipeline
