// Package wasmbuild assembles small core WebAssembly modules in memory.
// Tests use it to author guests that exercise the webgl import surface
// without a toolchain.
package wasmbuild

import (
	"bytes"
	"fmt"
	"slices"
)

// ValType is a core value type.
type ValType byte

const (
	I32 ValType = 0x7f
	I64 ValType = 0x7e
	F32 ValType = 0x7d
	F64 ValType = 0x7c
)

// Binary format constants.
const (
	magic   = "\x00asm"
	version = "\x01\x00\x00\x00"

	sectionType     = 1
	sectionImport   = 2
	sectionFunction = 3
	sectionMemory   = 5
	sectionGlobal   = 6
	sectionExport   = 7
	sectionCode     = 10
	sectionData     = 11

	kindFunc   = 0x00
	kindMemory = 0x02

	funcTypeByte = 0x60
)

// FuncType is a function signature.
type FuncType struct {
	Params  []ValType
	Results []ValType
}

type funcImport struct {
	module string
	name   string
	typ    uint32
}

type function struct {
	locals []ValType
	body   []byte
	typ    uint32
}

type global struct {
	init    int32
	mutable bool
}

type export struct {
	name  string
	index uint32
	kind  byte
}

type segment struct {
	data   []byte
	offset uint32
}

// Module is a module under construction. Imports must be declared before
// the first function, since imported functions take the lowest indices.
type Module struct {
	types   []FuncType
	imports []funcImport
	funcs   []function
	globals []global
	exports []export
	data    []segment
	memory  *uint32
}

// New returns an empty module.
func New() *Module {
	return &Module{}
}

// Type interns a signature and returns its index.
func (m *Module) Type(params, results []ValType) uint32 {
	for i, t := range m.types {
		if slices.Equal(t.Params, params) && slices.Equal(t.Results, results) {
			return uint32(i)
		}
	}
	m.types = append(m.types, FuncType{Params: params, Results: results})
	return uint32(len(m.types) - 1)
}

// Import declares a function import and returns its function index.
func (m *Module) Import(module, name string, params, results []ValType) uint32 {
	if len(m.funcs) > 0 {
		panic("wasmbuild: import declared after a function")
	}
	m.imports = append(m.imports, funcImport{module: module, name: name, typ: m.Type(params, results)})
	return uint32(len(m.imports) - 1)
}

// Func defines a function and returns its index.
func (m *Module) Func(params, results, locals []ValType, body *Code) uint32 {
	m.funcs = append(m.funcs, function{typ: m.Type(params, results), locals: locals, body: body.Bytes()})
	return uint32(len(m.imports) + len(m.funcs) - 1)
}

// Global defines an i32 global and returns its index.
func (m *Module) Global(init int32, mutable bool) uint32 {
	m.globals = append(m.globals, global{init: init, mutable: mutable})
	return uint32(len(m.globals) - 1)
}

// Memory declares a memory of min pages and exports it as "memory".
func (m *Module) Memory(min uint32) *Module {
	m.memory = &min
	m.exports = append(m.exports, export{name: "memory", kind: kindMemory})
	return m
}

// Data places bytes at offset in memory 0.
func (m *Module) Data(offset uint32, data []byte) *Module {
	m.data = append(m.data, segment{offset: offset, data: data})
	return m
}

// Export exports function index fn under name.
func (m *Module) Export(name string, fn uint32) *Module {
	m.exports = append(m.exports, export{name: name, kind: kindFunc, index: fn})
	return m
}

// Encode returns the module's binary encoding.
func (m *Module) Encode() []byte {
	var out bytes.Buffer
	out.WriteString(magic)
	out.WriteString(version)

	if len(m.types) > 0 {
		var sec bytes.Buffer
		writeU32(&sec, uint32(len(m.types)))
		for _, t := range m.types {
			sec.WriteByte(funcTypeByte)
			writeValTypes(&sec, t.Params)
			writeValTypes(&sec, t.Results)
		}
		writeSection(&out, sectionType, sec.Bytes())
	}

	if len(m.imports) > 0 {
		var sec bytes.Buffer
		writeU32(&sec, uint32(len(m.imports)))
		for _, imp := range m.imports {
			writeName(&sec, imp.module)
			writeName(&sec, imp.name)
			sec.WriteByte(kindFunc)
			writeU32(&sec, imp.typ)
		}
		writeSection(&out, sectionImport, sec.Bytes())
	}

	if len(m.funcs) > 0 {
		var sec bytes.Buffer
		writeU32(&sec, uint32(len(m.funcs)))
		for _, f := range m.funcs {
			writeU32(&sec, f.typ)
		}
		writeSection(&out, sectionFunction, sec.Bytes())
	}

	if m.memory != nil {
		var sec bytes.Buffer
		writeU32(&sec, 1)
		sec.WriteByte(0x00)
		writeU32(&sec, *m.memory)
		writeSection(&out, sectionMemory, sec.Bytes())
	}

	if len(m.globals) > 0 {
		var sec bytes.Buffer
		writeU32(&sec, uint32(len(m.globals)))
		for _, g := range m.globals {
			sec.WriteByte(byte(I32))
			if g.mutable {
				sec.WriteByte(1)
			} else {
				sec.WriteByte(0)
			}
			sec.WriteByte(opI32Const)
			writeS32(&sec, g.init)
			sec.WriteByte(opEnd)
		}
		writeSection(&out, sectionGlobal, sec.Bytes())
	}

	if len(m.exports) > 0 {
		var sec bytes.Buffer
		writeU32(&sec, uint32(len(m.exports)))
		for _, e := range m.exports {
			writeName(&sec, e.name)
			sec.WriteByte(e.kind)
			writeU32(&sec, e.index)
		}
		writeSection(&out, sectionExport, sec.Bytes())
	}

	if len(m.funcs) > 0 {
		var sec bytes.Buffer
		writeU32(&sec, uint32(len(m.funcs)))
		for _, f := range m.funcs {
			var body bytes.Buffer
			writeLocals(&body, f.locals)
			body.Write(f.body)
			body.WriteByte(opEnd)
			writeVec(&sec, body.Bytes())
		}
		writeSection(&out, sectionCode, sec.Bytes())
	}

	if len(m.data) > 0 {
		var sec bytes.Buffer
		writeU32(&sec, uint32(len(m.data)))
		for _, d := range m.data {
			sec.WriteByte(0x00)
			sec.WriteByte(opI32Const)
			writeS32(&sec, int32(d.offset))
			sec.WriteByte(opEnd)
			writeVec(&sec, d.data)
		}
		writeSection(&out, sectionData, sec.Bytes())
	}

	return out.Bytes()
}

func (m *Module) String() string {
	return fmt.Sprintf("module(types=%d imports=%d funcs=%d exports=%d)",
		len(m.types), len(m.imports), len(m.funcs), len(m.exports))
}

func writeSection(w *bytes.Buffer, id byte, data []byte) {
	w.WriteByte(id)
	writeVec(w, data)
}

func writeValTypes(w *bytes.Buffer, types []ValType) {
	writeU32(w, uint32(len(types)))
	for _, t := range types {
		w.WriteByte(byte(t))
	}
}

// writeLocals groups consecutive locals of the same type.
func writeLocals(w *bytes.Buffer, locals []ValType) {
	type run struct {
		n uint32
		t ValType
	}
	var runs []run
	for _, t := range locals {
		if len(runs) > 0 && runs[len(runs)-1].t == t {
			runs[len(runs)-1].n++
			continue
		}
		runs = append(runs, run{n: 1, t: t})
	}
	writeU32(w, uint32(len(runs)))
	for _, r := range runs {
		writeU32(w, r.n)
		w.WriteByte(byte(r.t))
	}
}
