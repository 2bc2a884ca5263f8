// Package errors provides the structured error type used across spikekit.
//
// Every failure surfaced by the detector carries a machine-readable
// ErrorCode so callers can branch on the kind of failure without string
// matching:
//
//	spikes, err := d.Run(ctx, items)
//	if errors.HasCode(err, errors.ErrCodeRunFailure) {
//	    // accessor, strategy or transform failed; err unwraps to the cause
//	}
//
// Setup errors (TYPE_MISMATCH, INVALID_ARGUMENT, CONFIGURATION_ERROR) are
// returned synchronously by constructors and setters. Run errors
// (RUN_FAILURE, CANCELLED) are only ever delivered through the run's own
// result or error channel.
package errors
