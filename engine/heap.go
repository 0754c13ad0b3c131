package engine

import (
	"context"
	"sync"

	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	sherpawasm "github.com/wippyai/sherpa-wasm"
	"github.com/wippyai/sherpa-wasm/errors"
)

// wazeroHeap drives the engine's own malloc and free.
type wazeroHeap struct {
	*WazeroMemory
	mallocFn   api.Function
	freeFn     api.Function
	copyFn     api.Function // optional
	currentCtx context.Context
	stackBuf   []uint64
	stackMutex sync.Mutex
}

func newWazeroHeap(mem api.Memory, mallocFn, freeFn, copyFn api.Function) *wazeroHeap {
	return &wazeroHeap{
		WazeroMemory: WrapMemory(mem),
		mallocFn:     mallocFn,
		freeFn:       freeFn,
		copyFn:       copyFn,
		stackBuf:     make([]uint64, 3),
	}
}

func (h *wazeroHeap) setContext(ctx context.Context) {
	h.stackMutex.Lock()
	defer h.stackMutex.Unlock()
	h.currentCtx = ctx
}

func (h *wazeroHeap) ctx() context.Context {
	if h.currentCtx == nil {
		return context.Background()
	}
	return h.currentCtx
}

func (h *wazeroHeap) Malloc(size uint32) (uint32, error) {
	if h.mallocFn == nil {
		return 0, errors.MissingExport(FnMalloc)
	}

	h.stackMutex.Lock()
	defer h.stackMutex.Unlock()

	h.stackBuf[0] = uint64(size)
	if err := h.mallocFn.CallWithStack(h.ctx(), h.stackBuf[:1]); err != nil {
		return 0, errors.New(errors.PhaseNative, errors.KindAllocation).
			Entry(FnMalloc).
			Cause(err).
			Build()
	}
	ptr := api.DecodeU32(h.stackBuf[0])
	if ptr == 0 {
		return 0, errors.AllocationFailed(errors.PhaseNative, size)
	}
	return ptr, nil
}

func (h *wazeroHeap) Free(ptr uint32) error {
	if h.freeFn == nil || ptr == 0 {
		return nil
	}

	h.stackMutex.Lock()
	defer h.stackMutex.Unlock()

	h.stackBuf[0] = uint64(ptr)
	if err := h.freeFn.CallWithStack(h.ctx(), h.stackBuf[:1]); err != nil {
		Logger().Warn("Free: engine free trapped",
			zap.Uint32("ptr", ptr),
			zap.Error(err))
		return errors.Call(FnFree, err)
	}
	return nil
}

// Copy uses the engine's CopyHeap when exported and falls back to a host-side
// copy through linear memory otherwise.
func (h *wazeroHeap) Copy(src, n, dst uint32) error {
	if n == 0 {
		return nil
	}
	if h.copyFn == nil {
		data, err := h.Read(src, n)
		if err != nil {
			return err
		}
		buf := make([]byte, n)
		copy(buf, data)
		return h.Write(dst, buf)
	}

	h.stackMutex.Lock()
	defer h.stackMutex.Unlock()

	h.stackBuf[0] = uint64(src)
	h.stackBuf[1] = uint64(n)
	h.stackBuf[2] = uint64(dst)
	if err := h.copyFn.CallWithStack(h.ctx(), h.stackBuf[:3]); err != nil {
		return errors.Call(FnCopyHeap, err)
	}
	return nil
}

// Compile-time check that wazeroHeap implements sherpawasm.Heap
var _ sherpawasm.Heap = (*wazeroHeap)(nil)
