package wasmbuild

import (
	"bytes"
	"encoding/binary"
	"math"
)

// writeU32 writes an unsigned LEB128 value.
func writeU32(w *bytes.Buffer, v uint32) {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		w.WriteByte(b)
		if v == 0 {
			break
		}
	}
}

// writeS32 writes a signed LEB128 value.
func writeS32(w *bytes.Buffer, v int32) {
	writeS64(w, int64(v))
}

// writeS64 writes a signed 64-bit LEB128 value.
func writeS64(w *bytes.Buffer, v int64) {
	more := true
	for more {
		b := byte(v & 0x7f)
		v >>= 7
		if (v == 0 && b&0x40 == 0) || (v == -1 && b&0x40 != 0) {
			more = false
		} else {
			b |= 0x80
		}
		w.WriteByte(b)
	}
}

func writeF32(w *bytes.Buffer, v float32) {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], math.Float32bits(v))
	w.Write(buf[:])
}

func writeF64(w *bytes.Buffer, v float64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
	w.Write(buf[:])
}

func writeName(w *bytes.Buffer, s string) {
	writeU32(w, uint32(len(s)))
	w.WriteString(s)
}

func writeVec(w *bytes.Buffer, b []byte) {
	writeU32(w, uint32(len(b)))
	w.Write(b)
}
