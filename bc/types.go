// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package bc

import (
	"encoding/binary"
	"fmt"
	"unsafe"

	"fortio.org/safecast"

	"github.com/gogpu/slangbc/ir"
)

// typeKey is the canonical structural identity of a type: its opcode
// plus the ids of its already-interned argument types. Two IR types
// with equal keys share one BCType record.
type typeKey struct {
	op   ir.Op
	args string
}

// typeInterner canonicalizes IR types into the ordered type table.
// Ids equal table indices; the table order is first-interning order.
type typeInterner struct {
	arena *Arena
	table []Handle[BCType]
	index map[typeKey]uint32
}

func newTypeInterner(a *Arena) *typeInterner {
	return &typeInterner{
		arena: a,
		index: make(map[typeKey]uint32, 16),
	}
}

// intern returns the canonical record for t, emitting one on first
// encounter. A nil type is treated as void.
func (in *typeInterner) intern(t ir.Type) (Handle[BCType], error) {
	op, args, err := in.lower(t)
	if err != nil {
		return Handle[BCType]{}, err
	}

	key := typeKey{op: op, args: argIDKey(args)}
	if id, ok := in.index[key]; ok {
		return in.table[id], nil
	}
	return in.emit(key, op, args)
}

// lower maps t to its type opcode and recursively interns its
// argument types.
func (in *typeInterner) lower(t ir.Type) (ir.Op, []Handle[BCType], error) {
	if t == nil {
		return ir.OpVoidType, nil, nil
	}

	switch tt := t.(type) {
	case *ir.BasicType:
		op, ok := basicTypeOp(tt.Base)
		if !ok {
			return 0, nil, &UnsupportedInputError{Construct: fmt.Sprintf("basic type kind %d", tt.Base)}
		}
		return op, nil, nil

	case *ir.FuncType:
		// Result first, then parameters in source order.
		args := make([]Handle[BCType], 0, len(tt.Params)+1)
		result, err := in.intern(tt.Result)
		if err != nil {
			return 0, nil, err
		}
		args = append(args, result)
		for _, param := range tt.Params {
			h, err := in.intern(param)
			if err != nil {
				return 0, nil, err
			}
			args = append(args, h)
		}
		return ir.OpFuncType, args, nil

	case *ir.PtrType:
		pointee, err := in.intern(tt.Pointee)
		if err != nil {
			return 0, nil, err
		}
		return ir.OpPtrType, []Handle[BCType]{pointee}, nil

	case *ir.StructuredBufferType:
		element, err := in.intern(tt.Element)
		if err != nil {
			return 0, nil, err
		}
		return ir.OpStructuredBufferType, []Handle[BCType]{element}, nil

	case *ir.RWStructuredBufferType:
		element, err := in.intern(tt.Element)
		if err != nil {
			return 0, nil, err
		}
		return ir.OpRWStructuredBufferType, []Handle[BCType]{element}, nil

	default:
		return 0, nil, &UnsupportedInputError{Construct: fmt.Sprintf("type %T", t)}
	}
}

// emit writes a new BCType record sized for argCount pointer slots and
// registers it under key.
func (in *typeInterner) emit(key typeKey, op ir.Op, args []Handle[BCType]) (Handle[BCType], error) {
	var rec BCType
	var slot RawPtr[BCType]
	size := uint64(unsafe.Sizeof(rec)) + uint64(len(args))*uint64(unsafe.Sizeof(slot))

	off, err := in.arena.AllocateRaw(size, uint64(unsafe.Alignof(slot)))
	if err != nil {
		return Handle[BCType]{}, err
	}
	h := Handle[BCType]{arena: in.arena, off: off}

	argCount, err := safecast.Conv[uint32](len(args))
	if err != nil {
		return Handle[BCType]{}, fmt.Errorf("bc: type argument count overflow: %w", err)
	}
	id, err := safecast.Conv[uint32](len(in.table))
	if err != nil {
		return Handle[BCType]{}, fmt.Errorf("bc: type table overflow: %w", err)
	}

	p := h.Get()
	p.Op = uint32(op)
	p.ArgCount = argCount
	p.ID = id

	slots := TypeArgs(h)
	for i, arg := range args {
		*slots.At(i) = arg.Raw()
	}

	in.index[key] = id
	in.table = append(in.table, h)
	return h, nil
}

// typeID interns t and returns its id.
func (in *typeInterner) typeID(t ir.Type) (uint32, error) {
	h, err := in.intern(t)
	if err != nil {
		return 0, err
	}
	return h.Get().ID, nil
}

// optionalTypeID is typeID with a nil short-circuit: symbols and
// registers without a type carry type id 0 without interning anything.
func (in *typeInterner) optionalTypeID(t ir.Type) (uint32, error) {
	if t == nil {
		return 0, nil
	}
	return in.typeID(t)
}

func basicTypeOp(base ir.BaseKind) (ir.Op, bool) {
	switch base {
	case ir.BaseVoid:
		return ir.OpVoidType, true
	case ir.BaseBool:
		return ir.OpBoolType, true
	case ir.BaseInt32:
		return ir.OpInt32Type, true
	case ir.BaseUInt32:
		return ir.OpUInt32Type, true
	case ir.BaseUInt64:
		return ir.OpUInt64Type, true
	case ir.BaseFloat16:
		return ir.OpFloat16Type, true
	case ir.BaseFloat32:
		return ir.OpFloat32Type, true
	case ir.BaseFloat64:
		return ir.OpFloat64Type, true
	default:
		return 0, false
	}
}

func argIDKey(args []Handle[BCType]) string {
	if len(args) == 0 {
		return ""
	}
	buf := make([]byte, 0, len(args)*4)
	for _, arg := range args {
		buf = binary.LittleEndian.AppendUint32(buf, arg.Get().ID)
	}
	return string(buf)
}
