// Package engine hosts the Emscripten-built sherpa-onnx module on wazero.
//
// The package provides three main types:
//
//	WazeroEngine - Creates and manages the wazero runtime, WASI and "env" imports
//	Instance     - A running engine module
//	Exports      - The bound C entry points, implementing Native
//
// # Instantiation Flow
//
//  1. WazeroEngine.Compile() validates the engine binary
//  2. WazeroEngine.Instantiate() links WASI and the Emscripten invoke_* trampolines,
//     mounts the model directory at "/" and runs _initialize
//  3. Bind() resolves each entry point under its C name or with a leading underscore
//
// The heap and streaming entry points are required. The batch surface is
// optional and reported by Exports.HasOffline.
//
// # Memory
//
// The engine's malloc and free are driven through the Heap returned by
// Exports.Heap. Struct copies use the engine's CopyHeap when it is exported.
package engine
