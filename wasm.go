package sherpawasm

// Memory represents the engine's WASM linear memory
type Memory interface {
	Read(offset uint32, length uint32) ([]byte, error)
	Write(offset uint32, data []byte) error
	ReadU8(offset uint32) (uint8, error)
	ReadU32(offset uint32) (uint32, error)
	ReadF32(offset uint32) (float32, error)
	WriteU8(offset uint32, value uint8) error
	WriteU32(offset uint32, value uint32) error
	WriteF32(offset uint32, value float32) error
}

// MemorySizer provides the current size of WASM linear memory in bytes.
type MemorySizer interface {
	Size() uint32
}

// Heap is the engine's malloc/free capability plus access to the memory it manages.
// Pointers are byte offsets into linear memory; 0 is never a valid allocation.
type Heap interface {
	Memory
	Malloc(size uint32) (uint32, error)
	Free(ptr uint32) error
	// Copy moves n bytes from src to dst inside linear memory.
	Copy(src, n, dst uint32) error
}
