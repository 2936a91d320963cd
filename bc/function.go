// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package bc

import (
	"fmt"

	"fortio.org/safecast"

	"github.com/gogpu/slangbc/ir"
)

// funcState is the per-function encoding context: the local byte
// buffer, the local-id map, and the imported-constants list. Only the
// active funcState writes to the buffer; its bytes move into the
// shared arena in one aligned copy at the end of encoding.
type funcState struct {
	gen      *generator
	fn       *ir.Func
	code     []byte
	localIDs map[ir.Value]int64
	remapped []BCConst
}

// localID returns the local id for a value. Registers and blocks were
// bound by the earlier passes; anything else falls back to the global
// resolution path and is imported into the function's constant table
// under a fresh negative id ~k.
func (fs *funcState) localID(v ir.Value) (int64, error) {
	if id, ok := fs.localIDs[v]; ok {
		return id, nil
	}

	c, err := fs.gen.resolveGlobal(v)
	if err != nil {
		return 0, err
	}
	id := ^int64(len(fs.remapped))
	fs.remapped = append(fs.remapped, c)
	fs.localIDs[v] = id
	return id, nil
}

// opHasResult reports whether an instruction produces a value. A nil
// data type and the void basic type both mean "no result."
func opHasResult(v ir.Value) bool {
	return !ir.IsVoid(v.DataType())
}

// emitFunc encodes one IR function as a BCFunc record.
//
// The passes are ordered so that the cyclic references inside a
// function resolve without patching: blocks are enumerated first
// (branches may target blocks not yet visited), registers are counted
// and then populated (binding every result-producing instruction to a
// local id), and only then is any instruction encoded.
func (g *generator) emitFunc(f *ir.Func) (Handle[BCFunc], error) {
	bcFunc, err := Alloc[BCFunc](g.arena)
	if err != nil {
		return Handle[BCFunc]{}, err
	}
	typeID, err := g.types.optionalTypeID(f.DataType())
	if err != nil {
		return Handle[BCFunc]{}, err
	}
	p := bcFunc.Get()
	p.Op = uint32(ir.OpFunc)
	p.TypeID = typeID

	fs := &funcState{
		gen:      g,
		fn:       f,
		localIDs: make(map[ir.Value]int64),
	}

	// Block ids share the non-negative numeric space with register
	// ids; no operand slot admits both categories.
	for i, b := range f.Blocks {
		fs.localIDs[b] = int64(i)
	}

	blockCount, err := safecast.Conv[uint32](len(f.Blocks))
	if err != nil {
		return Handle[BCFunc]{}, fmt.Errorf("bc: block count overflow: %w", err)
	}
	blocks, err := AllocArray[BCBlock](g.arena, len(f.Blocks))
	if err != nil {
		return Handle[BCFunc]{}, err
	}
	p = bcFunc.Get()
	p.BlockCount = blockCount
	p.Blocks = blocks.Raw()

	regCount, err := fs.countRegisters(blocks)
	if err != nil {
		return Handle[BCFunc]{}, err
	}
	regs, err := AllocArray[BCReg](g.arena, regCount)
	if err != nil {
		return Handle[BCFunc]{}, err
	}
	regCount32, err := safecast.Conv[uint32](regCount)
	if err != nil {
		return Handle[BCFunc]{}, fmt.Errorf("bc: register count overflow: %w", err)
	}
	p = bcFunc.Get()
	p.RegCount = regCount32
	p.Regs = regs.Raw()

	if err := fs.populateRegisters(blocks, regs); err != nil {
		return Handle[BCFunc]{}, err
	}

	if err := fs.emitCode(blocks); err != nil {
		return Handle[BCFunc]{}, err
	}

	constCount, err := safecast.Conv[uint32](len(fs.remapped))
	if err != nil {
		return Handle[BCFunc]{}, fmt.Errorf("bc: imported constant count overflow: %w", err)
	}
	consts, err := AllocArray[BCConst](g.arena, len(fs.remapped))
	if err != nil {
		return Handle[BCFunc]{}, err
	}
	for i, c := range fs.remapped {
		*consts.At(i) = c
	}
	p = bcFunc.Get()
	p.ConstCount = constCount
	p.Consts = consts.Raw()

	return bcFunc, nil
}

// countRegisters walks every block once, recording per-block parameter
// counts and returning the function's total register demand: one
// register per parameter, two per var (pointer plus storage), one per
// other result-producing instruction. Integer literals stay on the
// constant-pool path and consume none.
func (fs *funcState) countRegisters(blocks Handle[BCBlock]) (int, error) {
	regCount := 0
	for i, b := range fs.fn.Blocks {
		paramCount := 0
		for _, inst := range b.Insts {
			switch inst.Op() {
			case ir.OpParam:
				regCount++
				paramCount++
			case ir.OpVar:
				regCount += 2
			case ir.OpIntLit:
			default:
				if opHasResult(inst) {
					regCount++
				}
			}
		}
		paramCount32, err := safecast.Conv[uint32](paramCount)
		if err != nil {
			return 0, fmt.Errorf("bc: parameter count overflow: %w", err)
		}
		blocks.At(i).ParamCount = paramCount32
	}
	return regCount, nil
}

// populateRegisters revisits the blocks in the same order, binding
// each register-consuming instruction to its local id and filling the
// register descriptors. Parameters sit at the head of their block, so
// block b's parameters are the first ParamCount entries at b.Params.
func (fs *funcState) populateRegisters(blocks Handle[BCBlock], regs Handle[BCReg]) error {
	g := fs.gen
	regCounter := 0
	for i, b := range fs.fn.Blocks {
		blocks.At(i).Params = regs.Add(regCounter).Raw()

		for _, inst := range b.Insts {
			switch inst.Op() {
			case ir.OpVar:
				// Two adjacent slots: the pointer value at the lower
				// index, the pointee storage right above it.
				v, ok := inst.(*ir.Var)
				if !ok || v.Type == nil {
					return &UnsupportedInputError{Construct: fmt.Sprintf("var instruction of type %T without pointer type", inst)}
				}
				localID := regCounter
				regCounter += 2
				fs.localIDs[inst] = int64(localID)

				ptrTypeID, err := g.types.typeID(v.Type)
				if err != nil {
					return err
				}
				pointeeTypeID, err := g.types.typeID(v.Type.Pointee)
				if err != nil {
					return err
				}

				reg := regs.At(localID)
				reg.Op = uint32(inst.Op())
				reg.TypeID = ptrTypeID
				reg.PreviousVarIndexPlusOne = uint32(localID)

				reg = regs.At(localID + 1)
				reg.Op = uint32(inst.Op())
				reg.TypeID = pointeeTypeID
				reg.PreviousVarIndexPlusOne = uint32(localID + 1)

			case ir.OpIntLit:

			case ir.OpParam:
				if err := fs.bindRegister(inst, regs, regCounter); err != nil {
					return err
				}
				regCounter++

			default:
				if !opHasResult(inst) {
					continue
				}
				if err := fs.bindRegister(inst, regs, regCounter); err != nil {
					return err
				}
				regCounter++
			}
		}
	}
	return nil
}

func (fs *funcState) bindRegister(inst ir.Value, regs Handle[BCReg], localID int) error {
	fs.localIDs[inst] = int64(localID)
	typeID, err := fs.gen.types.optionalTypeID(inst.DataType())
	if err != nil {
		return err
	}
	reg := regs.At(localID)
	reg.Op = uint32(inst.Op())
	reg.TypeID = typeID
	reg.PreviousVarIndexPlusOne = uint32(localID)
	return nil
}

// emitCode encodes every block's instructions into the function-local
// buffer, copies the buffer into the arena as one array, and resolves
// each block's code pointer from its recorded start offset.
func (fs *funcState) emitCode(blocks Handle[BCBlock]) error {
	offsets := make([]int, len(fs.fn.Blocks))
	for i, b := range fs.fn.Blocks {
		offsets[i] = len(fs.code)
		for _, inst := range b.Insts {
			if inst.Op() == ir.OpParam {
				// Realized by register allocation; nothing to execute.
				continue
			}
			if err := fs.emitInst(inst); err != nil {
				return err
			}
		}
	}

	code, err := AllocArray[byte](fs.gen.arena, len(fs.code))
	if err != nil {
		return err
	}
	copy(fs.gen.arena.data[code.off:], fs.code)

	for i := range fs.fn.Blocks {
		blocks.At(i).Code = code.Add(offsets[i]).Raw()
	}
	return nil
}
