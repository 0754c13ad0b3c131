package engine

import (
	"context"

	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	sherpawasm "github.com/wippyai/sherpa-wasm"
	"github.com/wippyai/sherpa-wasm/errors"
)

// Lookup resolves an exported function by exact name, nil when absent.
type Lookup func(name string) api.Function

// Exports binds the engine entry points of one instantiated module.
type Exports struct {
	heap       *wazeroHeap
	fns        map[string]api.Function
	hasOffline bool
}

// Bind resolves every entry point through lookup. The heap and streaming
// entry points are required; the batch surface is bound only when complete.
func Bind(mem api.Memory, lookup Lookup) (*Exports, error) {
	if mem == nil {
		return nil, errors.MissingExport("memory")
	}

	e := &Exports{fns: make(map[string]api.Function)}
	resolve := func(name string) api.Function {
		for _, candidate := range exportCandidates(name) {
			if fn := lookup(candidate); fn != nil {
				e.fns[name] = fn
				return fn
			}
		}
		return nil
	}

	var missing []string
	for _, name := range HeapExports {
		if resolve(name) == nil {
			missing = append(missing, name)
		}
	}
	for _, name := range OnlineExports {
		if resolve(name) == nil {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, errors.MissingExport(missing...)
	}

	offline := 0
	for _, name := range OfflineExports {
		if resolve(name) != nil {
			offline++
		}
	}
	e.hasOffline = offline == len(OfflineExports)
	if offline > 0 && !e.hasOffline {
		Logger().Warn("engine exports a partial batch surface; batch recognition disabled",
			zap.Int("found", offline),
			zap.Int("expected", len(OfflineExports)))
	}

	resolve(FnOfflineRecognizerSetConfig)
	copyFn := resolve(FnCopyHeap)
	e.heap = newWazeroHeap(mem, e.fns[FnMalloc], e.fns[FnFree], copyFn)

	Logger().Debug("bound engine exports",
		zap.Int("functions", len(e.fns)),
		zap.Bool("offline", e.hasOffline),
		zap.Bool("copy_heap", copyFn != nil))

	return e, nil
}

// BindModule binds the exports of an instantiated engine module.
func BindModule(mod api.Module) (*Exports, error) {
	mem := mod.Memory()
	if mem == nil {
		mem = mod.ExportedMemory("memory")
	}
	return Bind(mem, mod.ExportedFunction)
}

func (e *Exports) Heap() sherpawasm.Heap { return e.heap }

func (e *Exports) HasOffline() bool { return e.hasOffline }

// Has reports whether an entry point is bound.
func (e *Exports) Has(name string) bool {
	_, ok := e.fns[name]
	return ok
}

func (e *Exports) call(ctx context.Context, name string, params ...uint64) ([]uint64, error) {
	fn, ok := e.fns[name]
	if !ok {
		return nil, errors.MissingExport(name)
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.Call(name, err)
	}
	e.heap.setContext(ctx)
	res, err := fn.Call(ctx, params...)
	if err != nil {
		return nil, errors.Call(name, err)
	}
	return res, nil
}

func (e *Exports) callHandle(ctx context.Context, name string, params ...uint64) (Handle, error) {
	res, err := e.call(ctx, name, params...)
	if err != nil {
		return 0, err
	}
	if len(res) == 0 {
		return 0, errors.New(errors.PhaseNative, errors.KindCall).Entry(name).Detail("no result").Build()
	}
	return Handle(api.DecodeU32(res[0])), nil
}

func (e *Exports) callBool(ctx context.Context, name string, params ...uint64) (bool, error) {
	h, err := e.callHandle(ctx, name, params...)
	return h != 0, err
}

func (e *Exports) callVoid(ctx context.Context, name string, params ...uint64) error {
	_, err := e.call(ctx, name, params...)
	return err
}

func arg(v Handle) uint64 { return api.EncodeU32(uint32(v)) }

func (e *Exports) CreateOnlineRecognizer(ctx context.Context, cfg uint32) (Handle, error) {
	return e.callHandle(ctx, FnCreateOnlineRecognizer, api.EncodeU32(cfg))
}

func (e *Exports) DestroyOnlineRecognizer(ctx context.Context, rec Handle) error {
	return e.callVoid(ctx, FnDestroyOnlineRecognizer, arg(rec))
}

func (e *Exports) CreateOnlineStream(ctx context.Context, rec Handle) (Handle, error) {
	return e.callHandle(ctx, FnCreateOnlineStream, arg(rec))
}

func (e *Exports) DestroyOnlineStream(ctx context.Context, stream Handle) error {
	return e.callVoid(ctx, FnDestroyOnlineStream, arg(stream))
}

func (e *Exports) OnlineStreamAcceptWaveform(ctx context.Context, stream Handle, sampleRate int32, samples, n uint32) error {
	return e.callVoid(ctx, FnOnlineStreamAcceptWaveform, arg(stream), api.EncodeI32(sampleRate), api.EncodeU32(samples), api.EncodeU32(n))
}

func (e *Exports) IsOnlineStreamReady(ctx context.Context, rec, stream Handle) (bool, error) {
	return e.callBool(ctx, FnIsOnlineStreamReady, arg(rec), arg(stream))
}

func (e *Exports) DecodeOnlineStream(ctx context.Context, rec, stream Handle) error {
	return e.callVoid(ctx, FnDecodeOnlineStream, arg(rec), arg(stream))
}

func (e *Exports) OnlineStreamIsEndpoint(ctx context.Context, rec, stream Handle) (bool, error) {
	return e.callBool(ctx, FnOnlineStreamIsEndpoint, arg(rec), arg(stream))
}

func (e *Exports) OnlineStreamReset(ctx context.Context, rec, stream Handle) error {
	return e.callVoid(ctx, FnOnlineStreamReset, arg(rec), arg(stream))
}

func (e *Exports) OnlineStreamInputFinished(ctx context.Context, stream Handle) error {
	return e.callVoid(ctx, FnOnlineStreamInputFinished, arg(stream))
}

func (e *Exports) GetOnlineStreamResultAsJSON(ctx context.Context, rec, stream Handle) (uint32, error) {
	p, err := e.callHandle(ctx, FnGetOnlineStreamResultAsJSON, arg(rec), arg(stream))
	return uint32(p), err
}

func (e *Exports) DestroyOnlineStreamResultJSON(ctx context.Context, ptr uint32) error {
	return e.callVoid(ctx, FnDestroyOnlineStreamResultJSON, api.EncodeU32(ptr))
}

func (e *Exports) CreateOfflineRecognizer(ctx context.Context, cfg uint32) (Handle, error) {
	return e.callHandle(ctx, FnCreateOfflineRecognizer, api.EncodeU32(cfg))
}

func (e *Exports) DestroyOfflineRecognizer(ctx context.Context, rec Handle) error {
	return e.callVoid(ctx, FnDestroyOfflineRecognizer, arg(rec))
}

func (e *Exports) CreateOfflineStream(ctx context.Context, rec Handle) (Handle, error) {
	return e.callHandle(ctx, FnCreateOfflineStream, arg(rec))
}

func (e *Exports) DestroyOfflineStream(ctx context.Context, stream Handle) error {
	return e.callVoid(ctx, FnDestroyOfflineStream, arg(stream))
}

func (e *Exports) AcceptWaveformOffline(ctx context.Context, stream Handle, sampleRate int32, samples, n uint32) error {
	return e.callVoid(ctx, FnAcceptWaveformOffline, arg(stream), api.EncodeI32(sampleRate), api.EncodeU32(samples), api.EncodeU32(n))
}

func (e *Exports) DecodeOfflineStream(ctx context.Context, rec, stream Handle) error {
	return e.callVoid(ctx, FnDecodeOfflineStream, arg(rec), arg(stream))
}

func (e *Exports) GetOfflineStreamResultAsJSON(ctx context.Context, stream Handle) (uint32, error) {
	p, err := e.callHandle(ctx, FnGetOfflineStreamResultAsJSON, arg(stream))
	return uint32(p), err
}

func (e *Exports) DestroyOfflineStreamResultJSON(ctx context.Context, ptr uint32) error {
	return e.callVoid(ctx, FnDestroyOfflineStreamResultJSON, api.EncodeU32(ptr))
}

func (e *Exports) OfflineRecognizerSetConfig(ctx context.Context, rec Handle, cfg uint32) error {
	return e.callVoid(ctx, FnOfflineRecognizerSetConfig, arg(rec), api.EncodeU32(cfg))
}

var _ Native = (*Exports)(nil)
