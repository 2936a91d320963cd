// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package bc

import (
	"testing"

	"github.com/gogpu/slangbc/ir"
)

// benchModule builds a module with several functions exercising the
// register allocator, the constant pool and the type interner.
func benchModule() *ir.Module {
	m := &ir.Module{}
	for i := 0; i < 8; i++ {
		p := &ir.Param{Type: ir.Float32}
		mul := &ir.Binary{Opcode: ir.OpMul, Type: ir.Float32, LHS: p, RHS: p}
		v := &ir.Var{Type: &ir.PtrType{Pointee: ir.Int32}}
		store := &ir.Store{Ptr: v, Val: &ir.IntLit{Type: ir.Int32, Value: int64(i)}}
		fn := &ir.Func{
			Name:   "fn",
			Type:   &ir.FuncType{Result: ir.Float32, Params: []ir.Type{ir.Float32}},
			Blocks: []*ir.Block{{Insts: []ir.Value{p, mul, v, store, &ir.Return{Val: mul}}}},
		}
		m.Globals = append(m.Globals, fn)
	}
	return m
}

func BenchmarkGenerate(b *testing.B) {
	units := []*ir.Module{benchModule()}
	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if _, err := Generate(units); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkAppendUvar(b *testing.B) {
	buf := make([]byte, 0, 64)
	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		buf = appendUvar(buf[:0], uint64(i))
		buf = appendUvar(buf, 1<<40)
	}
}

func BenchmarkArenaAllocate(b *testing.B) {
	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		a := NewArena()
		for j := 0; j < 128; j++ {
			if _, err := a.AllocateRaw(24, 8); err != nil {
				b.Fatal(err)
			}
		}
	}
}
