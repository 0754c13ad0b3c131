// Package sherpawasm hosts the sherpa-onnx speech recognition engine, compiled to
// WebAssembly, inside a Go process and exposes it as ordinary Go values.
//
// The engine is an opaque binary with a fixed C entry-point surface. Everything it
// needs is passed through linear memory: recognizer configuration is marshaled into
// flat C structs, audio is copied into engine-owned float buffers, and results come
// back as JSON strings that must be handed back for destruction.
//
// # Architecture Overview
//
//	sherpawasm/          Root package with Memory and Heap capability interfaces
//	├── engine/          wazero runtime, heap binding and the native entry points
//	├── layout/          C struct layouts declared as data
//	├── marshal/         Config encoder and allocation graph
//	├── resource/        Handle registry with recognizer/stream ownership
//	├── asr/             Typed configs, recognizer and stream façades, result decoding
//	├── loader/          Process-wide, init-once engine loading
//	├── assetcache/      Byte cache for .wasm and .data assets
//	├── audio/           Resampling, WAV io, microphone capture
//	├── transcribe/      Streaming and file recognition controllers
//	├── settings/        YAML and environment configuration
//	├── grpcserver/      gRPC transcription service
//	├── mcpserver/       MCP transcription tool
//	└── errors/          Structured error types
//
// # Quick Start
//
//	eng, err := loader.Load(ctx, loader.Options{WasmPath: "sherpa-onnx-wasm-main-asr.wasm", ModelDir: "./model"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	rec, err := asr.NewOnlineRecognizer(ctx, eng.Native(), asr.OnlineRecognizerConfig{
//	    Model: asr.OnlineModelConfig{
//	        Family: &asr.OnlineTransducer{Encoder: "./encoder.onnx", Decoder: "./decoder.onnx", Joiner: "./joiner.onnx"},
//	        Tokens: "./tokens.txt",
//	    },
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer rec.Free(ctx)
//
//	stream, _ := rec.CreateStream(ctx)
//	defer stream.Free(ctx)
//
//	_ = stream.AcceptWaveform(ctx, 16000, samples)
//	for ready, _ := stream.IsReady(ctx); ready; ready, _ = stream.IsReady(ctx) {
//	    _ = stream.Decode(ctx)
//	}
//	res, _ := stream.Result(ctx)
//	fmt.Println(res.Text)
//
// # Concurrency
//
// The engine instance is process-wide. Recognizers and streams have a single
// logical owner and are not safe for concurrent use.
package sherpawasm
