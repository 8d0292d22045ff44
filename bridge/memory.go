package bridge

import (
	"encoding/binary"
	"math"

	"github.com/tetratelabs/wazero/api"

	wasmgl "github.com/wippyai/wasm-gl"
	"github.com/wippyai/wasm-gl/errors"
	"github.com/wippyai/wasm-gl/gl"
)

// GuestMemory wraps a guest's exported memory. Every region is checked
// against the current memory size; an out-of-range region is reported as an
// out_of_bounds protocol error instead of touching memory.
type GuestMemory struct {
	mem api.Memory
}

// NewGuestMemory wraps mem.
func NewGuestMemory(mem api.Memory) *GuestMemory {
	return &GuestMemory{mem: mem}
}

// Read returns a view of length bytes at offset. The view aliases guest
// memory: writes to it are visible to the guest, and it is invalidated if
// the guest grows its memory.
func (m *GuestMemory) Read(offset uint32, length uint32) ([]byte, error) {
	data, ok := m.mem.Read(offset, length)
	if !ok {
		return nil, errors.OutOfBounds(errors.PhaseBridge, nil, offset, length)
	}
	return data, nil
}

func (m *GuestMemory) Write(offset uint32, data []byte) error {
	if !m.mem.Write(offset, data) {
		return errors.OutOfBounds(errors.PhaseBridge, nil, offset, uint32(len(data)))
	}
	return nil
}

func (m *GuestMemory) ReadU32(offset uint32) (uint32, error) {
	v, ok := m.mem.ReadUint32Le(offset)
	if !ok {
		return 0, errors.OutOfBounds(errors.PhaseBridge, nil, offset, 4)
	}
	return v, nil
}

func (m *GuestMemory) WriteU32(offset uint32, value uint32) error {
	if !m.mem.WriteUint32Le(offset, value) {
		return errors.OutOfBounds(errors.PhaseBridge, nil, offset, 4)
	}
	return nil
}

// ReadString copies length bytes at offset into a Go string.
func (m *GuestMemory) ReadString(offset uint32, length uint32) (string, error) {
	data, err := m.Read(offset, length)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Size returns the current memory size in bytes.
func (m *GuestMemory) Size() uint32 {
	if m.mem == nil {
		return 0
	}
	return m.mem.Size()
}

// TypedView returns the guest region at ptr as a view of whole elements of
// typ. length is a byte length; a trailing partial element is dropped.
func (m *GuestMemory) TypedView(ptr, length uint32, typ gl.Enum) ([]byte, error) {
	width := uint32(gl.ElementSize(typ))
	n := length / width * width
	return m.Read(ptr, n)
}

func (m *GuestMemory) words(ptr uint32, count int) ([]byte, error) {
	if count < 0 || uint64(count)*4 > math.MaxUint32 {
		return nil, errors.OutOfBounds(errors.PhaseBridge, nil, ptr, math.MaxUint32)
	}
	return m.Read(ptr, uint32(count)*4)
}

// Float32s copies count float32 values at ptr.
func (m *GuestMemory) Float32s(ptr uint32, count int) ([]float32, error) {
	data, err := m.words(ptr, count)
	if err != nil {
		return nil, err
	}
	out := make([]float32, count)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return out, nil
}

// Int32s copies count int32 values at ptr.
func (m *GuestMemory) Int32s(ptr uint32, count int) ([]int32, error) {
	data, err := m.words(ptr, count)
	if err != nil {
		return nil, err
	}
	out := make([]int32, count)
	for i := range out {
		out[i] = int32(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return out, nil
}

// Uint32s copies count uint32 values at ptr.
func (m *GuestMemory) Uint32s(ptr uint32, count int) ([]uint32, error) {
	data, err := m.words(ptr, count)
	if err != nil {
		return nil, err
	}
	out := make([]uint32, count)
	for i := range out {
		out[i] = binary.LittleEndian.Uint32(data[i*4:])
	}
	return out, nil
}

// WriteOptionalU32 writes value at ptr unless ptr is null.
func (m *GuestMemory) WriteOptionalU32(ptr uint32, value uint32) error {
	if ptr == 0 {
		return nil
	}
	return m.WriteU32(ptr, value)
}

var (
	_ wasmgl.Memory      = (*GuestMemory)(nil)
	_ wasmgl.MemorySizer = (*GuestMemory)(nil)
)
