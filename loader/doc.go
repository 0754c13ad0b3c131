// Package loader loads the recognition engine once per process.
//
// Load fetches the engine binary from a local path or a URL, compiles it,
// links the WASI and Emscripten host modules, mounts the model directory
// at "/" inside the guest and binds the entry points. Concurrent callers
// share one in-flight load and all receive its result, success or failure.
// Reset discards the memoized result so the next Load starts over.
package loader
