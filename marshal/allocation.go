package marshal

import (
	sherpawasm "github.com/wippyai/sherpa-wasm"
)

type allocation struct {
	Ptr  uint32
	Size uint32
}

// allocations records the buffers of one encode pass so a failed pass can
// hand them all back.
type allocations []allocation

func (a *allocations) add(ptr, size uint32) {
	*a = append(*a, allocation{Ptr: ptr, Size: size})
}

// free releases every recorded allocation, newest first, and returns the
// first error seen. All allocations are attempted.
func (a allocations) free(heap sherpawasm.Heap) error {
	var firstErr error
	for i := len(a) - 1; i >= 0; i-- {
		if a[i].Ptr == 0 {
			continue
		}
		if err := heap.Free(a[i].Ptr); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
