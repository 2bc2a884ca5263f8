package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Setup errors, raised while a detector is being configured.
const (
	// ErrCodeTypeMismatch indicates a value of the wrong shape was supplied.
	ErrCodeTypeMismatch ErrorCode = "TYPE_MISMATCH"
	// ErrCodeInvalidArgument indicates a value of the right shape but an unusable content.
	ErrCodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"
	// ErrCodeConfiguration indicates a named strategy could not be resolved.
	ErrCodeConfiguration ErrorCode = "CONFIGURATION_ERROR"
)

// Run errors, delivered through a run's result channel.
const (
	// ErrCodeRunFailure indicates an accessor, strategy, transform or source failed mid-run.
	ErrCodeRunFailure ErrorCode = "RUN_FAILURE"
	// ErrCodeRunInProgress indicates the detector is busy with another run.
	ErrCodeRunInProgress ErrorCode = "RUN_IN_PROGRESS"
	// ErrCodeCancelled indicates the caller stopped the run.
	ErrCodeCancelled ErrorCode = "CANCELLED"
)

var setupCodes = map[ErrorCode]bool{
	ErrCodeTypeMismatch:    true,
	ErrCodeInvalidArgument: true,
	ErrCodeConfiguration:   true,
}

// IsSetupCode returns true if the code is raised at configuration time
// rather than during a run.
func IsSetupCode(code ErrorCode) bool {
	return setupCodes[code]
}
