// Package logger provides structured logging for spikekit using zerolog.
//
// Loggers are tagged per component and carry run-scoped fields (run ID,
// algorithm) so that every line emitted during a detection run can be
// correlated:
//
//	log := logger.Component("detector").WithRun(runID)
//	log.Debug("run finished", logger.Fields(logger.FieldSpikes, 2))
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "json"
package logger
