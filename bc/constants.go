// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package bc

import (
	"fmt"

	"fortio.org/safecast"

	"github.com/gogpu/slangbc/ir"
)

// resolveGlobal maps a value to its global reference. Integer literals
// with no existing id are pooled on the fly: the first encounter
// appends the literal to the pending pool and binds it, so later
// references reuse the same constant id. Float and bool literals are
// encoded inline at their use sites and never reach the pool; a value
// that is neither bound nor poolable is a fatal missing identifier.
func (g *generator) resolveGlobal(v ir.Value) (BCConst, error) {
	if c, ok := g.globals[v]; ok {
		return c, nil
	}

	if lit, ok := v.(*ir.IntLit); ok {
		id, err := safecast.Conv[uint32](len(g.constants))
		if err != nil {
			return BCConst{}, fmt.Errorf("bc: constant pool overflow: %w", err)
		}
		c := BCConst{Flavor: BCConstFlavorConstant, ID: id}
		g.constants = append(g.constants, lit)
		g.globals[v] = c
		return c, nil
	}

	return BCConst{}, &MissingIdentifierError{Op: v.Op()}
}

// emitConstantTable writes the pooled literals as BCConstant records,
// each with an allocated integer payload.
func (g *generator) emitConstantTable() (Handle[BCConstant], uint32, error) {
	count, err := safecast.Conv[uint32](len(g.constants))
	if err != nil {
		return Handle[BCConstant]{}, 0, fmt.Errorf("bc: constant pool overflow: %w", err)
	}

	table, err := AllocArray[BCConstant](g.arena, len(g.constants))
	if err != nil {
		return Handle[BCConstant]{}, 0, err
	}

	for i, lit := range g.constants {
		typeID, err := g.types.typeID(lit.Type)
		if err != nil {
			return Handle[BCConstant]{}, 0, err
		}
		payload, err := Alloc[int64](g.arena)
		if err != nil {
			return Handle[BCConstant]{}, 0, err
		}
		*payload.Get() = lit.Value

		rec := table.At(i)
		rec.Op = uint32(lit.Op())
		rec.TypeID = typeID
		rec.Ptr = BitCast[byte](payload).Raw()
	}

	return table, count, nil
}
