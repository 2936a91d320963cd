// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package bc

// Magic is the 8-byte container signature, including the embedded NUL.
const Magic = "slang\x00bc"

// Version is the container format revision. Producer and consumer are
// rev-locked; there is no cross-version compatibility.
const Version = 0

// BCHeader is the container root. It is always at arena offset 0.
type BCHeader struct {
	Magic       [8]byte
	Version     uint32
	ModuleCount uint32
	Modules     RawPtr[RawPtr[BCModule]]
}

// BCModule is one translation unit: its global symbols, the literal
// constant pool, and the type table.
type BCModule struct {
	SymbolCount   uint32
	Symbols       RawPtr[RawPtr[BCSymbol]]
	ConstantCount uint32
	Constants     RawPtr[BCConstant]
	TypeCount     uint32
	Types         RawPtr[RawPtr[BCType]]
}

// BCSymbol is the base record for any global entity. BCFunc extends
// it; global variables and constants are currently the bare base.
type BCSymbol struct {
	Op     uint32
	TypeID uint32
	Name   RawPtr[byte]
}

// BCFunc is a function symbol: registers, blocks, and the imported
// global/constant references its body uses. The code bytes are
// reached through each block's Code pointer.
type BCFunc struct {
	BCSymbol
	RegCount   uint32
	Regs       RawPtr[BCReg]
	BlockCount uint32
	Blocks     RawPtr[BCBlock]
	ConstCount uint32
	Consts     RawPtr[BCConst]
}

// BCBlock describes one basic block: its parameter registers and the
// first byte of its encoded instruction stream.
type BCBlock struct {
	ParamCount uint32
	Params     RawPtr[BCReg]
	Code       RawPtr[byte]
}

// BCReg describes one register of a function.
//
// PreviousVarIndexPlusOne is reserved for liveness chaining and is
// initialized to the register's own index.
type BCReg struct {
	Op                      uint32
	TypeID                  uint32
	PreviousVarIndexPlusOne uint32
}

// BCConstFlavor distinguishes the two global reference categories.
type BCConstFlavor uint8

const (
	BCConstFlavorGlobalSymbol BCConstFlavor = iota
	BCConstFlavorConstant
)

// String returns the flavor name.
func (f BCConstFlavor) String() string {
	switch f {
	case BCConstFlavorGlobalSymbol:
		return "GlobalSymbol"
	case BCConstFlavorConstant:
		return "Constant"
	default:
		return "Unknown"
	}
}

// BCConst references a global symbol or a constant-pool entry from
// inside a function body.
type BCConst struct {
	Flavor BCConstFlavor
	ID     uint32
}

// BCConstant is one literal in a module's constant pool. Ptr
// references the allocated payload; for integer literals that is an
// int64 value.
type BCConstant struct {
	Op     uint32
	TypeID uint32
	Ptr    RawPtr[byte]
}

// BCType is one canonical type record. ArgCount pointer slots follow
// the record immediately (result+params for function types, pointee
// for pointers, element for structured buffers); TypeArgs addresses
// them. The trailing pad keeps the slots at pointer alignment.
type BCType struct {
	Op       uint32
	ArgCount uint32
	ID       uint32
	_        uint32
}

// TypeArgs returns the argument slot array following a type record.
func TypeArgs(h Handle[BCType]) Handle[RawPtr[BCType]] {
	return BitCast[RawPtr[BCType]](h.Add(1))
}
