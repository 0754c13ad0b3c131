// Package heaptest provides an in-process Heap for tests. It bump-allocates
// from a byte slice and records every malloc and free.
package heaptest

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync"

	sherpawasm "github.com/wippyai/sherpa-wasm"
)

const base = 1024

// Heap is a tracking sherpawasm.Heap over a byte slice.
type Heap struct {
	data  []byte
	live  map[uint32]uint32
	Freed []uint32
	Mall  []uint32
	next  uint32
	// FailAfter makes the Nth successful Malloc (1-based) be the last; later
	// calls fail. Zero disables.
	FailAfter int
	// DoubleFree makes Free of an unknown pointer return an error.
	DoubleFree bool
	mu         sync.Mutex
}

var _ sherpawasm.Heap = (*Heap)(nil)

// New returns a heap with size bytes of memory.
func New(size uint32) *Heap {
	return &Heap{
		data:       make([]byte, size),
		live:       make(map[uint32]uint32),
		next:       base,
		DoubleFree: true,
	}
}

func (h *Heap) Malloc(size uint32) (uint32, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.FailAfter > 0 && len(h.Mall) >= h.FailAfter {
		return 0, fmt.Errorf("out of memory")
	}
	if size == 0 {
		size = 1
	}
	ptr := (h.next + 7) &^ 7
	if ptr+size > uint32(len(h.data)) {
		return 0, fmt.Errorf("out of memory: %d bytes", size)
	}
	h.next = ptr + size
	h.live[ptr] = size
	h.Mall = append(h.Mall, ptr)
	return ptr, nil
}

func (h *Heap) Free(ptr uint32) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.live[ptr]; !ok {
		if h.DoubleFree {
			return fmt.Errorf("free of unknown pointer %d", ptr)
		}
		return nil
	}
	delete(h.live, ptr)
	h.Freed = append(h.Freed, ptr)
	return nil
}

func (h *Heap) Copy(src, n, dst uint32) error {
	if uint64(src)+uint64(n) > uint64(len(h.data)) || uint64(dst)+uint64(n) > uint64(len(h.data)) {
		return fmt.Errorf("copy out of bounds")
	}
	copy(h.data[dst:dst+n], h.data[src:src+n])
	return nil
}

// Live returns the number of outstanding allocations.
func (h *Heap) Live() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.live)
}

// SizeOf returns the size of a live allocation.
func (h *Heap) SizeOf(ptr uint32) (uint32, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	n, ok := h.live[ptr]
	return n, ok
}

func (h *Heap) Read(offset, length uint32) ([]byte, error) {
	if uint64(offset)+uint64(length) > uint64(len(h.data)) {
		return nil, fmt.Errorf("read out of bounds: offset=%d, length=%d", offset, length)
	}
	return h.data[offset : offset+length], nil
}

func (h *Heap) Write(offset uint32, data []byte) error {
	if uint64(offset)+uint64(len(data)) > uint64(len(h.data)) {
		return fmt.Errorf("write out of bounds: offset=%d, length=%d", offset, len(data))
	}
	copy(h.data[offset:], data)
	return nil
}

func (h *Heap) ReadU8(offset uint32) (uint8, error) {
	b, err := h.Read(offset, 1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (h *Heap) ReadU32(offset uint32) (uint32, error) {
	b, err := h.Read(offset, 4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (h *Heap) ReadF32(offset uint32) (float32, error) {
	v, err := h.ReadU32(offset)
	return math.Float32frombits(v), err
}

func (h *Heap) WriteU8(offset uint32, value uint8) error {
	return h.Write(offset, []byte{value})
}

func (h *Heap) WriteU32(offset uint32, value uint32) error {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], value)
	return h.Write(offset, b[:])
}

func (h *Heap) WriteF32(offset uint32, value float32) error {
	return h.WriteU32(offset, math.Float32bits(value))
}

// CString reads a NUL-terminated string at ptr.
func (h *Heap) CString(ptr uint32) string {
	end := ptr
	for end < uint32(len(h.data)) && h.data[end] != 0 {
		end++
	}
	return string(h.data[ptr:end])
}

// PutCString allocates and writes s with a trailing NUL.
func (h *Heap) PutCString(s string) uint32 {
	ptr, err := h.Malloc(uint32(len(s) + 1))
	if err != nil {
		panic(err)
	}
	_ = h.Write(ptr, append([]byte(s), 0))
	return ptr
}
