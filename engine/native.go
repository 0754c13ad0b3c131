package engine

import (
	"context"

	sherpawasm "github.com/wippyai/sherpa-wasm"
)

// Handle is an opaque engine object address. Zero is never valid.
type Handle uint32

// Native is the fixed entry-point surface of the recognition engine.
// Pointers are linear-memory offsets obtained from Heap.
type Native interface {
	Heap() sherpawasm.Heap
	// HasOffline reports whether the batch entry points are exported.
	HasOffline() bool

	CreateOnlineRecognizer(ctx context.Context, cfg uint32) (Handle, error)
	DestroyOnlineRecognizer(ctx context.Context, rec Handle) error
	CreateOnlineStream(ctx context.Context, rec Handle) (Handle, error)
	DestroyOnlineStream(ctx context.Context, stream Handle) error
	OnlineStreamAcceptWaveform(ctx context.Context, stream Handle, sampleRate int32, samples, n uint32) error
	IsOnlineStreamReady(ctx context.Context, rec, stream Handle) (bool, error)
	DecodeOnlineStream(ctx context.Context, rec, stream Handle) error
	OnlineStreamIsEndpoint(ctx context.Context, rec, stream Handle) (bool, error)
	OnlineStreamReset(ctx context.Context, rec, stream Handle) error
	OnlineStreamInputFinished(ctx context.Context, stream Handle) error
	GetOnlineStreamResultAsJSON(ctx context.Context, rec, stream Handle) (uint32, error)
	DestroyOnlineStreamResultJSON(ctx context.Context, ptr uint32) error

	CreateOfflineRecognizer(ctx context.Context, cfg uint32) (Handle, error)
	DestroyOfflineRecognizer(ctx context.Context, rec Handle) error
	CreateOfflineStream(ctx context.Context, rec Handle) (Handle, error)
	DestroyOfflineStream(ctx context.Context, stream Handle) error
	AcceptWaveformOffline(ctx context.Context, stream Handle, sampleRate int32, samples, n uint32) error
	DecodeOfflineStream(ctx context.Context, rec, stream Handle) error
	GetOfflineStreamResultAsJSON(ctx context.Context, stream Handle) (uint32, error)
	DestroyOfflineStreamResultJSON(ctx context.Context, ptr uint32) error
	OfflineRecognizerSetConfig(ctx context.Context, rec Handle, cfg uint32) error
}
