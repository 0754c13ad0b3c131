// Package errors provides structured error types for the sherpa-wasm binding.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type carries the field path, the engine entry point involved and a cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseEncode, errors.KindTypeMismatch).
//		Path("OnlineRecognizerConfig", "model", "numThreads").
//		Detail("slot expects i32").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.NullHandle("SherpaOnnxCreateOnlineRecognizer")
//	err := errors.InvalidJSON("SherpaOnnxGetOnlineStreamResultAsJson", raw, cause)
//
// Errors match with errors.Is by Phase and Kind, so callers can test against a
// template without caring about path or detail:
//
//	if errors.Is(err, &errors.Error{Phase: errors.PhaseLifecycle, Kind: errors.KindInvalidHandle}) { ... }
package errors
