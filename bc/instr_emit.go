// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package bc

import (
	"encoding/binary"
	"math"

	"github.com/gogpu/slangbc/ir"
)

// operand encodes a value reference as the signed varint of its local
// id. Unbound values resolve through the imported-constants mechanism
// and come out negative.
func (fs *funcState) operand(v ir.Value) error {
	id, err := fs.localID(v)
	if err != nil {
		return err
	}
	fs.code = appendSvar(fs.code, id)
	return nil
}

// typeOperand encodes a type reference as an unsigned varint. Type ids
// are never negative and never alias with value references, so the
// unsigned form is safe.
func (fs *funcState) typeOperand(t ir.Type) error {
	id, err := fs.gen.types.typeID(t)
	if err != nil {
		return err
	}
	fs.code = appendUvar(fs.code, uint64(id))
	return nil
}

// emitInst appends the encoding of one instruction to the current
// byte buffer.
func (fs *funcState) emitInst(inst ir.Value) error {
	switch v := inst.(type) {
	case *ir.ReturnVoid:
		fs.code = appendUvar(fs.code, uint64(inst.Op()))
		return nil

	case *ir.IntLit:
		fs.code = appendUvar(fs.code, uint64(inst.Op()))
		if err := fs.typeOperand(v.Type); err != nil {
			return err
		}
		fs.code = appendUvar(fs.code, uint64(v.Value))
		// The literal's destination is its constant-pool slot, not a
		// register, so no destination operand is written; resolving
		// here still pools the value and binds it for later operands.
		_, err := fs.localID(inst)
		return err

	case *ir.FloatLit:
		fs.code = appendUvar(fs.code, uint64(inst.Op()))
		if err := fs.typeOperand(v.Type); err != nil {
			return err
		}
		var raw [8]byte
		binary.NativeEndian.PutUint64(raw[:], math.Float64bits(v.Value))
		fs.code = append(fs.code, raw[:]...)
		return fs.operand(inst)

	case *ir.BoolLit:
		fs.code = appendUvar(fs.code, uint64(inst.Op()))
		if v.Value {
			fs.code = appendUvar(fs.code, 1)
		} else {
			fs.code = appendUvar(fs.code, 0)
		}
		return fs.operand(inst)

	case *ir.Store:
		fs.code = appendUvar(fs.code, uint64(inst.Op()))
		// The stored value's type rides along to spare the decoder a
		// type lookup through the pointer operand.
		if err := fs.typeOperand(v.Val.DataType()); err != nil {
			return err
		}
		if err := fs.operand(v.Ptr); err != nil {
			return err
		}
		return fs.operand(v.Val)

	case *ir.Load:
		fs.code = appendUvar(fs.code, uint64(inst.Op()))
		if err := fs.typeOperand(v.Type); err != nil {
			return err
		}
		if err := fs.operand(v.Ptr); err != nil {
			return err
		}
		return fs.operand(inst)

	case *ir.Param:
		return nil

	default:
		return fs.emitGenericInst(inst)
	}
}

// emitGenericInst is the default encoding: opcode, result type,
// operand count, the operands, and — when the instruction produces a
// value — the instruction itself as its own destination operand.
func (fs *funcState) emitGenericInst(inst ir.Value) error {
	operands := inst.Operands()

	fs.code = appendUvar(fs.code, uint64(inst.Op()))
	if err := fs.typeOperand(inst.DataType()); err != nil {
		return err
	}
	fs.code = appendUvar(fs.code, uint64(len(operands)))
	for _, op := range operands {
		if err := fs.operand(op); err != nil {
			return err
		}
	}

	if opHasResult(inst) {
		return fs.operand(inst)
	}
	return nil
}
