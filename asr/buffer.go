package asr

import (
	"encoding/binary"
	"math"

	sherpawasm "github.com/wippyai/sherpa-wasm"
	"github.com/wippyai/sherpa-wasm/errors"
)

// SampleBuffer is an engine-side float32 buffer that only grows.
// Invariant: Cap() >= the length of the last Write.
type SampleBuffer struct {
	heap     sherpawasm.Heap
	scratch  []byte
	ptr      uint32
	capacity uint32 // samples
}

func NewSampleBuffer(heap sherpawasm.Heap) *SampleBuffer {
	return &SampleBuffer{heap: heap}
}

// Cap returns the capacity in samples.
func (b *SampleBuffer) Cap() uint32 { return b.capacity }

// Ptr returns the current engine address, 0 before the first Write.
func (b *SampleBuffer) Ptr() uint32 { return b.ptr }

func (b *SampleBuffer) ensure(n uint32) error {
	if n <= b.capacity && b.ptr != 0 {
		return nil
	}
	if b.ptr != 0 {
		if err := b.heap.Free(b.ptr); err != nil {
			return errors.Wrap(errors.PhaseRelease, errors.KindCall, err, "sample buffer")
		}
		b.ptr, b.capacity = 0, 0
	}
	ptr, err := b.heap.Malloc(n * 4)
	if err != nil || ptr == 0 {
		return errors.New(errors.PhaseEncode, errors.KindAllocation).
			Path("samples").
			Detail("%d samples", n).
			Cause(err).
			Build()
	}
	b.ptr, b.capacity = ptr, n
	return nil
}

// Write copies samples into the buffer, growing it if needed, and returns
// the engine address holding them.
func (b *SampleBuffer) Write(samples []float32) (uint32, error) {
	n := uint32(len(samples))
	if err := b.ensure(n); err != nil {
		return 0, err
	}
	if cap(b.scratch) < len(samples)*4 {
		b.scratch = make([]byte, len(samples)*4)
	}
	data := b.scratch[:len(samples)*4]
	for i, s := range samples {
		binary.LittleEndian.PutUint32(data[i*4:], math.Float32bits(s))
	}
	if err := b.heap.Write(b.ptr, data); err != nil {
		return 0, err
	}
	return b.ptr, nil
}

// Free releases the engine memory. The buffer may be reused afterwards.
func (b *SampleBuffer) Free() error {
	if b.ptr == 0 {
		return nil
	}
	err := b.heap.Free(b.ptr)
	b.ptr, b.capacity = 0, 0
	b.scratch = nil
	return err
}

// writeOnce copies samples into a fresh allocation the caller must free.
func writeOnce(heap sherpawasm.Heap, samples []float32) (uint32, error) {
	b := NewSampleBuffer(heap)
	ptr, err := b.Write(samples)
	if err != nil {
		_ = b.Free()
		return 0, err
	}
	return ptr, nil
}
