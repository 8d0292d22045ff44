package wasmbuild

import "bytes"

// Opcodes used by Code.
const (
	opUnreachable = 0x00
	opIf          = 0x04
	opElse        = 0x05
	opEnd         = 0x0b
	opReturn      = 0x0f
	opCall        = 0x10
	opDrop        = 0x1a
	opLocalGet    = 0x20
	opLocalSet    = 0x21
	opGlobalGet   = 0x23
	opGlobalSet   = 0x24
	opI32Load     = 0x28
	opI32Store    = 0x36
	opI32Const    = 0x41
	opI64Const    = 0x42
	opF32Const    = 0x43
	opF64Const    = 0x44
	opI32Eqz      = 0x45
	opI32Add      = 0x6a
	opI32Sub      = 0x6b

	blockEmpty = 0x40
)

// Code accumulates a function body. The trailing end opcode is added by
// Module.Encode.
type Code struct {
	buf bytes.Buffer
}

// NewCode returns an empty body.
func NewCode() *Code {
	return &Code{}
}

func (c *Code) op(b byte) *Code {
	c.buf.WriteByte(b)
	return c
}

func (c *Code) I32Const(v int32) *Code {
	c.buf.WriteByte(opI32Const)
	writeS32(&c.buf, v)
	return c
}

func (c *Code) I64Const(v int64) *Code {
	c.buf.WriteByte(opI64Const)
	writeS64(&c.buf, v)
	return c
}

func (c *Code) F32Const(v float32) *Code {
	c.buf.WriteByte(opF32Const)
	writeF32(&c.buf, v)
	return c
}

func (c *Code) F64Const(v float64) *Code {
	c.buf.WriteByte(opF64Const)
	writeF64(&c.buf, v)
	return c
}

func (c *Code) LocalGet(i uint32) *Code {
	c.buf.WriteByte(opLocalGet)
	writeU32(&c.buf, i)
	return c
}

func (c *Code) LocalSet(i uint32) *Code {
	c.buf.WriteByte(opLocalSet)
	writeU32(&c.buf, i)
	return c
}

func (c *Code) GlobalGet(i uint32) *Code {
	c.buf.WriteByte(opGlobalGet)
	writeU32(&c.buf, i)
	return c
}

func (c *Code) GlobalSet(i uint32) *Code {
	c.buf.WriteByte(opGlobalSet)
	writeU32(&c.buf, i)
	return c
}

// Call calls function index fn.
func (c *Code) Call(fn uint32) *Code {
	c.buf.WriteByte(opCall)
	writeU32(&c.buf, fn)
	return c
}

// I32Load loads with 4-byte alignment at the given static offset.
func (c *Code) I32Load(offset uint32) *Code {
	c.buf.WriteByte(opI32Load)
	writeU32(&c.buf, 2)
	writeU32(&c.buf, offset)
	return c
}

// I32Store stores with 4-byte alignment at the given static offset.
func (c *Code) I32Store(offset uint32) *Code {
	c.buf.WriteByte(opI32Store)
	writeU32(&c.buf, 2)
	writeU32(&c.buf, offset)
	return c
}

// If opens a block with no result, consuming an i32 condition.
func (c *Code) If() *Code {
	c.buf.WriteByte(opIf)
	c.buf.WriteByte(blockEmpty)
	return c
}

func (c *Code) Else() *Code        { return c.op(opElse) }
func (c *Code) End() *Code         { return c.op(opEnd) }
func (c *Code) Return() *Code      { return c.op(opReturn) }
func (c *Code) Drop() *Code        { return c.op(opDrop) }
func (c *Code) Unreachable() *Code { return c.op(opUnreachable) }
func (c *Code) I32Eqz() *Code      { return c.op(opI32Eqz) }
func (c *Code) I32Add() *Code      { return c.op(opI32Add) }
func (c *Code) I32Sub() *Code      { return c.op(opI32Sub) }

// Bytes returns the encoded instructions.
func (c *Code) Bytes() []byte {
	return c.buf.Bytes()
}
