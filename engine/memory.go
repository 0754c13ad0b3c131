package engine

import (
	"math"

	"github.com/tetratelabs/wazero/api"

	sherpawasm "github.com/wippyai/sherpa-wasm"
	"github.com/wippyai/sherpa-wasm/errors"
)

// WazeroMemory wraps wazero memory to implement sherpawasm.Memory
type WazeroMemory struct {
	mem api.Memory
}

// WrapMemory returns nil for a nil memory.
func WrapMemory(mem api.Memory) *WazeroMemory {
	if mem == nil {
		return nil
	}
	return &WazeroMemory{mem: mem}
}

func (m *WazeroMemory) Read(offset uint32, length uint32) ([]byte, error) {
	data, ok := m.mem.Read(offset, length)
	if !ok {
		return nil, errors.OutOfBounds(errors.PhaseDecode, offset, length)
	}
	return data, nil
}

func (m *WazeroMemory) Write(offset uint32, data []byte) error {
	if !m.mem.Write(offset, data) {
		return errors.OutOfBounds(errors.PhaseEncode, offset, uint32(len(data)))
	}
	return nil
}

func (m *WazeroMemory) ReadU8(offset uint32) (uint8, error) {
	v, ok := m.mem.ReadByte(offset)
	if !ok {
		return 0, errors.OutOfBounds(errors.PhaseDecode, offset, 1)
	}
	return v, nil
}

func (m *WazeroMemory) ReadU32(offset uint32) (uint32, error) {
	val, ok := m.mem.ReadUint32Le(offset)
	if !ok {
		return 0, errors.OutOfBounds(errors.PhaseDecode, offset, 4)
	}
	return val, nil
}

func (m *WazeroMemory) ReadF32(offset uint32) (float32, error) {
	val, ok := m.mem.ReadFloat32Le(offset)
	if !ok {
		return 0, errors.OutOfBounds(errors.PhaseDecode, offset, 4)
	}
	return val, nil
}

func (m *WazeroMemory) WriteU8(offset uint32, value uint8) error {
	if !m.mem.WriteByte(offset, value) {
		return errors.OutOfBounds(errors.PhaseEncode, offset, 1)
	}
	return nil
}

func (m *WazeroMemory) WriteU32(offset uint32, value uint32) error {
	if !m.mem.WriteUint32Le(offset, value) {
		return errors.OutOfBounds(errors.PhaseEncode, offset, 4)
	}
	return nil
}

func (m *WazeroMemory) WriteF32(offset uint32, value float32) error {
	return m.WriteU32(offset, math.Float32bits(value))
}

func (m *WazeroMemory) Size() uint32 {
	if m.mem == nil {
		return 0
	}
	return m.mem.Size()
}

// Compile-time check that WazeroMemory implements sherpawasm.Memory and MemorySizer
var _ sherpawasm.Memory = (*WazeroMemory)(nil)
var _ sherpawasm.MemorySizer = (*WazeroMemory)(nil)
