// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package bc

import (
	"fmt"
	"unsafe"

	"fortio.org/safecast"

	"github.com/gogpu/slangbc/ir"
)

// generator is the shared generation context: the arena plus the maps
// and tables that span function encodings. One generator serves one
// Generate call; it is never shared or reused.
type generator struct {
	arena *Arena
	types *typeInterner

	// globals maps an IR value to the global entity encoding it.
	globals map[ir.Value]BCConst

	// constants holds the pooled literals in first-encounter order.
	constants []*ir.IntLit
}

func newGenerator() *generator {
	arena := NewArena()
	return &generator{
		arena:   arena,
		types:   newTypeInterner(arena),
		globals: make(map[ir.Value]BCConst),
	}
}

// Generate serializes one container from the given translation units.
// A nil entry stands for a unit without IR and yields a null module
// slot. The output is a pure function of the input graph: the same IR
// always produces byte-identical results.
func Generate(units []*ir.Module) ([]byte, error) {
	g := newGenerator()

	// The header must be the very first record.
	header, err := Alloc[BCHeader](g.arena)
	if err != nil {
		return nil, err
	}
	p := header.Get()
	copy(p.Magic[:], Magic)
	p.Version = Version

	modules := make([]Handle[BCModule], 0, len(units))
	for _, unit := range units {
		m, err := g.emitModule(unit)
		if err != nil {
			return nil, err
		}
		modules = append(modules, m)
	}

	moduleCount, err := safecast.Conv[uint32](len(modules))
	if err != nil {
		return nil, fmt.Errorf("bc: module count overflow: %w", err)
	}
	moduleArray, err := AllocArray[RawPtr[BCModule]](g.arena, len(modules))
	if err != nil {
		return nil, err
	}
	for i, m := range modules {
		*moduleArray.At(i) = m.Raw()
	}

	p = header.Get()
	p.ModuleCount = moduleCount
	p.Modules = moduleArray.Raw()

	return g.arena.Bytes(), nil
}

// emitModule lowers one translation unit: the global-symbol pre-pass,
// then each symbol, then the constant pool, then the type table. The
// type table comes last because symbol and constant emission may
// intern types.
func (g *generator) emitModule(m *ir.Module) (Handle[BCModule], error) {
	if m == nil {
		return Handle[BCModule]{}, nil
	}

	module, err := Alloc[BCModule](g.arena)
	if err != nil {
		return Handle[BCModule]{}, err
	}

	if err := g.assignGlobalIDs(m); err != nil {
		return Handle[BCModule]{}, err
	}

	symbolCount, err := safecast.Conv[uint32](len(m.Globals))
	if err != nil {
		return Handle[BCModule]{}, fmt.Errorf("bc: global symbol count overflow: %w", err)
	}
	symbols, err := AllocArray[RawPtr[BCSymbol]](g.arena, len(m.Globals))
	if err != nil {
		return Handle[BCModule]{}, err
	}
	p := module.Get()
	p.SymbolCount = symbolCount
	p.Symbols = symbols.Raw()

	for i, gv := range m.Globals {
		symbol, err := g.emitSymbol(gv)
		if err != nil {
			return Handle[BCModule]{}, err
		}
		if symbol.IsNil() {
			continue
		}
		if name, ok := symbolName(gv); ok {
			nameBytes, err := g.arena.AllocateString(name)
			if err != nil {
				return Handle[BCModule]{}, err
			}
			symbol.Get().Name = nameBytes.Raw()
		}
		*symbols.At(i) = symbol.Raw()
	}

	constants, constantCount, err := g.emitConstantTable()
	if err != nil {
		return Handle[BCModule]{}, err
	}
	p = module.Get()
	p.ConstantCount = constantCount
	p.Constants = constants.Raw()

	typeCount, err := safecast.Conv[uint32](len(g.types.table))
	if err != nil {
		return Handle[BCModule]{}, fmt.Errorf("bc: type table overflow: %w", err)
	}
	types, err := AllocArray[RawPtr[BCType]](g.arena, len(g.types.table))
	if err != nil {
		return Handle[BCModule]{}, err
	}
	for i, t := range g.types.table {
		*types.At(i) = t.Raw()
	}
	p = module.Get()
	p.TypeCount = typeCount
	p.Types = types.Raw()

	return module, nil
}

// Open wraps an existing container for in-place traversal, validating
// the magic bytes and version. The returned arena aliases data.
func Open(data []byte) (*Arena, Handle[BCHeader], error) {
	var header BCHeader
	if uint64(len(data)) < uint64(unsafe.Sizeof(header)) {
		return nil, Handle[BCHeader]{}, fmt.Errorf("bc: container truncated: %d bytes", len(data))
	}
	if string(data[:8]) != Magic {
		return nil, Handle[BCHeader]{}, fmt.Errorf("bc: bad magic %q", data[:8])
	}
	arena := openArena(data)
	h := Handle[BCHeader]{arena: arena, off: 0}
	if v := h.Get().Version; v != Version {
		return nil, Handle[BCHeader]{}, fmt.Errorf("bc: unsupported container version %d", v)
	}
	return arena, h, nil
}
