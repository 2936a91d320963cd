// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package bc

import (
	"fmt"

	"fortio.org/safecast"

	"github.com/gogpu/slangbc/ir"
)

// assignGlobalIDs runs the symbol pre-pass: every module global gets a
// dense id in declaration order before any function body is encoded,
// so forward and recursive references resolve without patching.
func (g *generator) assignGlobalIDs(m *ir.Module) error {
	for i, gv := range m.Globals {
		id, err := safecast.Conv[uint32](i)
		if err != nil {
			return fmt.Errorf("bc: global symbol count overflow: %w", err)
		}
		g.globals[gv] = BCConst{Flavor: BCConstFlavorGlobalSymbol, ID: id}
	}
	return nil
}

// emitSymbol lowers one global to its symbol record. Globals outside
// the known kinds produce a null handle and leave their slot empty.
func (g *generator) emitSymbol(v ir.Value) (Handle[BCSymbol], error) {
	switch gv := v.(type) {
	case *ir.Func:
		h, err := g.emitFunc(gv)
		if err != nil {
			return Handle[BCSymbol]{}, err
		}
		return BitCast[BCSymbol](h), nil

	case *ir.GlobalVar, *ir.GlobalConstant:
		h, err := Alloc[BCSymbol](g.arena)
		if err != nil {
			return Handle[BCSymbol]{}, err
		}
		typeID, err := g.types.optionalTypeID(v.DataType())
		if err != nil {
			return Handle[BCSymbol]{}, err
		}
		// TODO: encode initializer bodies once their format is defined.
		p := h.Get()
		p.Op = uint32(gv.Op())
		p.TypeID = typeID
		return h, nil

	default:
		return Handle[BCSymbol]{}, nil
	}
}

// symbolName returns the human-readable name for a global, if any.
func symbolName(v ir.Value) (string, bool) {
	var name string
	switch gv := v.(type) {
	case *ir.Func:
		name = gv.Name
	case *ir.GlobalVar:
		name = gv.Name
	case *ir.GlobalConstant:
		name = gv.Name
	}
	return name, name != ""
}
