// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package bc

import (
	"bytes"
	"errors"
	"testing"

	"github.com/gogpu/slangbc/ir"
)

func mustGenerate(t *testing.T, units []*ir.Module) ([]byte, *Arena, Handle[BCHeader]) {
	t.Helper()
	out, err := Generate(units)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	arena, header, err := Open(out)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	return out, arena, header
}

func moduleAt(t *testing.T, arena *Arena, header Handle[BCHeader], i int) Handle[BCModule] {
	t.Helper()
	h := header.Get()
	if i >= int(h.ModuleCount) {
		t.Fatalf("module %d out of range (count %d)", i, h.ModuleCount)
	}
	modules := Resolve(arena, h.Modules)
	return Resolve(arena, *modules.At(i))
}

func funcAt(t *testing.T, arena *Arena, module Handle[BCModule], i int) Handle[BCFunc] {
	t.Helper()
	symbols := Resolve(arena, module.Get().Symbols)
	symbol := Resolve(arena, *symbols.At(i))
	if symbol.IsNil() {
		t.Fatalf("symbol %d is null", i)
	}
	if op := symbol.Get().Op; op != uint32(ir.OpFunc) {
		t.Fatalf("symbol %d is %s, not a function", i, ir.Op(op))
	}
	return BitCast[BCFunc](symbol)
}

// codeBytes reads n bytes of a block's instruction stream.
func codeBytes(out []byte, block *BCBlock, n int) []byte {
	off := uint64(block.Code)
	return out[off : off+uint64(n)]
}

func TestHeaderLayout(t *testing.T) {
	out, _, header := mustGenerate(t, nil)

	if got := string(out[:8]); got != Magic {
		t.Errorf("magic = %q, want %q", got, Magic)
	}
	if got := out[8:12]; got[0] != 0 || got[1] != 0 || got[2] != 0 || got[3] != 0 {
		t.Errorf("version bytes = %x, want zero", got)
	}
	if header.Get().ModuleCount != 0 {
		t.Errorf("moduleCount = %d, want 0", header.Get().ModuleCount)
	}
}

func TestEmptyModule(t *testing.T) {
	_, arena, header := mustGenerate(t, []*ir.Module{{}})

	m := moduleAt(t, arena, header, 0).Get()
	if m.SymbolCount != 0 || m.ConstantCount != 0 || m.TypeCount != 0 {
		t.Errorf("empty module counts = {%d %d %d}, want all zero",
			m.SymbolCount, m.ConstantCount, m.TypeCount)
	}
}

func TestNilUnitYieldsNullModule(t *testing.T) {
	_, arena, header := mustGenerate(t, []*ir.Module{nil})

	if header.Get().ModuleCount != 1 {
		t.Fatalf("moduleCount = %d, want 1", header.Get().ModuleCount)
	}
	if m := moduleAt(t, arena, header, 0); !m.IsNil() {
		t.Error("unit without IR should produce a null module slot")
	}
}

func TestReturnVoidOnlyFunction(t *testing.T) {
	fn := &ir.Func{
		Name:   "f",
		Blocks: []*ir.Block{{Insts: []ir.Value{&ir.ReturnVoid{}}}},
	}
	out, arena, header := mustGenerate(t, []*ir.Module{{Globals: []ir.Value{fn}}})

	f := funcAt(t, arena, moduleAt(t, arena, header, 0), 0).Get()
	if f.BlockCount != 1 {
		t.Errorf("blockCount = %d, want 1", f.BlockCount)
	}
	if f.RegCount != 0 {
		t.Errorf("regCount = %d, want 0", f.RegCount)
	}
	if f.ConstCount != 0 {
		t.Errorf("constCount = %d, want 0", f.ConstCount)
	}

	block := Resolve(arena, f.Blocks).At(0)
	if got := codeBytes(out, block, 1); got[0] != byte(ir.OpReturnVoid) {
		t.Errorf("code = %x, want %x", got, ir.OpReturnVoid)
	}
}

func TestIntLitConstantPool(t *testing.T) {
	lit := &ir.IntLit{Type: ir.Int32, Value: 42}
	fn := &ir.Func{
		Name:   "f",
		Blocks: []*ir.Block{{Insts: []ir.Value{lit, &ir.ReturnVoid{}}}},
	}
	out, arena, header := mustGenerate(t, []*ir.Module{{Globals: []ir.Value{fn}}})
	module := moduleAt(t, arena, header, 0)
	f := funcAt(t, arena, module, 0).Get()

	// The literal's destination is its constant-pool slot: no register
	// and no destination operand, just op, type, value.
	block := Resolve(arena, f.Blocks).At(0)
	want := []byte{byte(ir.OpIntLit), 0x00, 0x2A, byte(ir.OpReturnVoid)}
	if got := codeBytes(out, block, 4); !bytes.Equal(got, want) {
		t.Errorf("code = %x, want %x", got, want)
	}
	if f.RegCount != 0 {
		t.Errorf("regCount = %d, want 0", f.RegCount)
	}

	if f.ConstCount != 1 {
		t.Fatalf("constCount = %d, want 1", f.ConstCount)
	}
	imported := Resolve(arena, f.Consts).At(0)
	if imported.Flavor != BCConstFlavorConstant || imported.ID != 0 {
		t.Errorf("imported const = %+v, want {Constant 0}", imported)
	}

	m := module.Get()
	if m.ConstantCount != 1 {
		t.Fatalf("module constantCount = %d, want 1", m.ConstantCount)
	}
	constant := Resolve(arena, m.Constants).At(0)
	if constant.Op != uint32(ir.OpIntLit) || constant.TypeID != 0 {
		t.Errorf("constant = {op %d type %d}, want {op %d type 0}", constant.Op, constant.TypeID, ir.OpIntLit)
	}
	payload := BitCast[int64](Resolve(arena, constant.Ptr))
	if got := *payload.Get(); got != 42 {
		t.Errorf("constant payload = %d, want 42", got)
	}
}

func TestAddFunctionEncoding(t *testing.T) {
	param := &ir.Param{Type: ir.Int32}
	add := &ir.Binary{Opcode: ir.OpAdd, Type: ir.Int32, LHS: param, RHS: param}
	ret := &ir.Return{Val: add}
	fn := &ir.Func{
		Name:   "double",
		Type:   &ir.FuncType{Result: ir.Int32, Params: []ir.Type{ir.Int32}},
		Blocks: []*ir.Block{{Insts: []ir.Value{param, add, ret}}},
	}
	out, arena, header := mustGenerate(t, []*ir.Module{{Globals: []ir.Value{fn}}})

	f := funcAt(t, arena, moduleAt(t, arena, header, 0), 0).Get()
	if f.RegCount != 2 {
		t.Fatalf("regCount = %d, want 2", f.RegCount)
	}

	block := Resolve(arena, f.Blocks).At(0)
	if block.ParamCount != 1 {
		t.Errorf("paramCount = %d, want 1", block.ParamCount)
	}

	regs := Resolve(arena, f.Regs)
	if r := regs.At(0); r.Op != uint32(ir.OpParam) || r.TypeID != 0 {
		t.Errorf("reg 0 = {op %d type %d}, want param/int32", r.Op, r.TypeID)
	}
	if r := regs.At(1); r.Op != uint32(ir.OpAdd) || r.TypeID != 0 {
		t.Errorf("reg 1 = {op %d type %d}, want add/int32", r.Op, r.TypeID)
	}
	if r := regs.At(1); r.PreviousVarIndexPlusOne != 1 {
		t.Errorf("reg 1 liveness chain = %d, want own index", r.PreviousVarIndexPlusOne)
	}

	// Params emit nothing; the add is op, type, operand count, the
	// param twice, then its own result register. The return follows
	// with the generic encoding (its void result type is interned
	// after int32 and the function type).
	want := []byte{
		byte(ir.OpAdd), 0x00, 0x02, 0x00, 0x00, 0x02,
		byte(ir.OpReturnVal), 0x02, 0x01, 0x02,
	}
	if got := codeBytes(out, block, len(want)); !bytes.Equal(got, want) {
		t.Errorf("code = %x, want %x", got, want)
	}

	// int32 first (function result interns before parameters),
	// then the function type itself, then void.
	if f.TypeID != 1 {
		t.Errorf("function typeID = %d, want 1", f.TypeID)
	}
}

func TestVarStoreEncoding(t *testing.T) {
	v := &ir.Var{Type: &ir.PtrType{Pointee: ir.Int32}}
	five := &ir.IntLit{Type: ir.Int32, Value: 5}
	store := &ir.Store{Ptr: v, Val: five}
	fn := &ir.Func{
		Name:   "f",
		Blocks: []*ir.Block{{Insts: []ir.Value{v, store, &ir.ReturnVoid{}}}},
	}
	out, arena, header := mustGenerate(t, []*ir.Module{{Globals: []ir.Value{fn}}})
	module := moduleAt(t, arena, header, 0)
	f := funcAt(t, arena, module, 0).Get()

	// Two adjacent registers: the pointer value below the storage.
	if f.RegCount != 2 {
		t.Fatalf("regCount = %d, want 2", f.RegCount)
	}
	regs := Resolve(arena, f.Regs)
	if r := regs.At(0); r.Op != uint32(ir.OpVar) || r.TypeID != 1 {
		t.Errorf("pointer reg = {op %d type %d}, want var/ptr", r.Op, r.TypeID)
	}
	if r := regs.At(1); r.Op != uint32(ir.OpVar) || r.TypeID != 0 {
		t.Errorf("storage reg = {op %d type %d}, want var/int32", r.Op, r.TypeID)
	}

	// var: generic encoding with zero operands, dest svar(0).
	// store: op, stored value type, pointer operand, then the literal
	// through the imported-constants path: constant 0, id ~0, svar(-1).
	block := Resolve(arena, f.Blocks).At(0)
	want := []byte{
		byte(ir.OpVar), 0x01, 0x00, 0x00,
		byte(ir.OpStore), 0x00, 0x00, 0x01,
		byte(ir.OpReturnVoid),
	}
	if got := codeBytes(out, block, len(want)); !bytes.Equal(got, want) {
		t.Errorf("code = %x, want %x", got, want)
	}

	m := module.Get()
	if m.ConstantCount != 1 {
		t.Fatalf("module constantCount = %d, want 1", m.ConstantCount)
	}
	payload := BitCast[int64](Resolve(arena, Resolve(arena, m.Constants).At(0).Ptr))
	if got := *payload.Get(); got != 5 {
		t.Errorf("constant payload = %d, want 5", got)
	}
}

func TestTwoUnitsSecondEmpty(t *testing.T) {
	fn := &ir.Func{
		Name:   "f",
		Blocks: []*ir.Block{{Insts: []ir.Value{&ir.ReturnVoid{}}}},
	}
	_, arena, header := mustGenerate(t, []*ir.Module{
		{Globals: []ir.Value{fn}},
		{},
	})

	if header.Get().ModuleCount != 2 {
		t.Fatalf("moduleCount = %d, want 2", header.Get().ModuleCount)
	}
	if got := moduleAt(t, arena, header, 1).Get().SymbolCount; got != 0 {
		t.Errorf("modules[1].symbolCount = %d, want 0", got)
	}
}

func TestForwardFunctionReference(t *testing.T) {
	callee := &ir.Func{
		Name:   "callee",
		Blocks: []*ir.Block{{Insts: []ir.Value{&ir.ReturnVoid{}}}},
	}
	caller := &ir.Func{
		Name: "caller",
		Blocks: []*ir.Block{{Insts: []ir.Value{
			&ir.Call{Callee: callee},
			&ir.ReturnVoid{},
		}}},
	}
	// The caller comes first: the callee reference is a forward
	// reference, resolved by the pre-pass without patching.
	_, arena, header := mustGenerate(t, []*ir.Module{
		{Globals: []ir.Value{caller, callee}},
	})

	f := funcAt(t, arena, moduleAt(t, arena, header, 0), 0).Get()
	if f.ConstCount != 1 {
		t.Fatalf("constCount = %d, want 1", f.ConstCount)
	}
	imported := Resolve(arena, f.Consts).At(0)
	if imported.Flavor != BCConstFlavorGlobalSymbol || imported.ID != 1 {
		t.Errorf("imported const = %+v, want {GlobalSymbol 1}", imported)
	}
}

func TestSymbolNames(t *testing.T) {
	fn := &ir.Func{
		Name:   "main",
		Blocks: []*ir.Block{{Insts: []ir.Value{&ir.ReturnVoid{}}}},
	}
	unnamed := &ir.GlobalVar{Type: &ir.PtrType{Pointee: ir.Int32}}
	out, arena, header := mustGenerate(t, []*ir.Module{
		{Globals: []ir.Value{fn, unnamed}},
	})

	symbols := Resolve(arena, moduleAt(t, arena, header, 0).Get().Symbols)

	name := Resolve(arena, *symbols.At(0)).Get().Name
	if name.IsNull() {
		t.Fatal("function name pointer is null")
	}
	raw := out[uint64(name):]
	if got := string(raw[:5]); got != "main\x00" {
		t.Errorf("name bytes = %q, want NUL-terminated \"main\"", got)
	}

	if got := Resolve(arena, *symbols.At(1)).Get().Name; !got.IsNull() {
		t.Errorf("unnamed symbol name pointer = %d, want null", got)
	}
}

func TestGlobalVarSymbol(t *testing.T) {
	gv := &ir.GlobalVar{Name: "data", Type: &ir.PtrType{Pointee: ir.Float32}}
	gc := &ir.GlobalConstant{Name: "limit", Type: ir.Int32}
	_, arena, header := mustGenerate(t, []*ir.Module{
		{Globals: []ir.Value{gv, gc}},
	})

	symbols := Resolve(arena, moduleAt(t, arena, header, 0).Get().Symbols)
	if op := Resolve(arena, *symbols.At(0)).Get().Op; op != uint32(ir.OpGlobalVar) {
		t.Errorf("symbol 0 op = %d, want global_var", op)
	}
	if op := Resolve(arena, *symbols.At(1)).Get().Op; op != uint32(ir.OpGlobalConstant) {
		t.Errorf("symbol 1 op = %d, want global_constant", op)
	}
}

func TestRegisterAccounting(t *testing.T) {
	p1 := &ir.Param{Type: ir.Int32}
	p2 := &ir.Param{Type: ir.Int32}
	v := &ir.Var{Type: &ir.PtrType{Pointee: ir.Int32}}
	add := &ir.Binary{Opcode: ir.OpAdd, Type: ir.Int32, LHS: p1, RHS: p2}
	lit := &ir.IntLit{Type: ir.Int32, Value: 1}
	store := &ir.Store{Ptr: v, Val: lit}
	fn := &ir.Func{
		Name: "f",
		Blocks: []*ir.Block{{Insts: []ir.Value{
			p1, p2, v, add, lit, store, &ir.ReturnVoid{},
		}}},
	}
	_, arena, header := mustGenerate(t, []*ir.Module{{Globals: []ir.Value{fn}}})

	// 2 params + 2 for the var + 1 for the add; the literal rides the
	// constant pool and store/retvoid produce nothing.
	f := funcAt(t, arena, moduleAt(t, arena, header, 0), 0).Get()
	if f.RegCount != 5 {
		t.Errorf("regCount = %d, want 5", f.RegCount)
	}

	wantOps := []ir.Op{ir.OpParam, ir.OpParam, ir.OpVar, ir.OpVar, ir.OpAdd}
	regs := Resolve(arena, f.Regs)
	for i, want := range wantOps {
		if got := ir.Op(regs.At(i).Op); got != want {
			t.Errorf("reg %d op = %s, want %s", i, got, want)
		}
	}
}

func TestBlockCodeOffsets(t *testing.T) {
	exit := &ir.Block{Insts: []ir.Value{&ir.ReturnVoid{}}}
	entry := &ir.Block{Insts: []ir.Value{&ir.Branch{Target: exit}}}
	fn := &ir.Func{Name: "f", Blocks: []*ir.Block{entry, exit}}
	out, arena, header := mustGenerate(t, []*ir.Module{{Globals: []ir.Value{fn}}})

	f := funcAt(t, arena, moduleAt(t, arena, header, 0), 0).Get()
	blocks := Resolve(arena, f.Blocks)
	first := blocks.At(0)
	second := blocks.At(1)

	if uint64(second.Code) < uint64(first.Code) {
		t.Errorf("block code offsets not monotonic: %d then %d", first.Code, second.Code)
	}

	// The branch encodes op, void type, one operand, target block id
	// svar(1); the next block starts right after.
	if got, want := uint64(second.Code)-uint64(first.Code), uint64(4); got != want {
		t.Errorf("entry block code is %d bytes, want %d", got, want)
	}
	if got := out[uint64(second.Code)]; got != byte(ir.OpReturnVoid) {
		t.Errorf("exit block starts with %#x, want retvoid", got)
	}
}

func TestFloatAndBoolLiteralsStayInline(t *testing.T) {
	flit := &ir.FloatLit{Type: ir.Float64, Value: 1.5}
	blit := &ir.BoolLit{Type: ir.Bool, Value: true}
	fn := &ir.Func{
		Name:   "f",
		Blocks: []*ir.Block{{Insts: []ir.Value{flit, blit, &ir.ReturnVoid{}}}},
	}
	out, arena, header := mustGenerate(t, []*ir.Module{{Globals: []ir.Value{fn}}})
	module := moduleAt(t, arena, header, 0)
	f := funcAt(t, arena, module, 0).Get()

	// Both literals are register-bound, not pooled.
	if f.RegCount != 2 {
		t.Errorf("regCount = %d, want 2", f.RegCount)
	}
	if got := module.Get().ConstantCount; got != 0 {
		t.Errorf("module constantCount = %d, want 0", got)
	}
	if f.ConstCount != 0 {
		t.Errorf("imported constCount = %d, want 0", f.ConstCount)
	}

	// float64 interns first (id 0): op, type, 8 raw payload bytes
	// (1.5 = 0x3FF8000000000000 little-endian), dest svar(0).
	block := Resolve(arena, f.Blocks).At(0)
	want := []byte{
		byte(ir.OpFloatLit), 0x00,
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0xF8, 0x3F,
		0x00,
		byte(ir.OpBoolLit), 0x01, 0x02,
		byte(ir.OpReturnVoid),
	}
	if got := codeBytes(out, block, len(want)); !bytes.Equal(got, want) {
		t.Errorf("code = %x, want %x", got, want)
	}
}

func TestDeterminism(t *testing.T) {
	build := func() []*ir.Module {
		p := &ir.Param{Type: ir.Float32}
		mul := &ir.Binary{Opcode: ir.OpMul, Type: ir.Float32, LHS: p, RHS: p}
		fn := &ir.Func{
			Name:   "square",
			Type:   &ir.FuncType{Result: ir.Float32, Params: []ir.Type{ir.Float32}},
			Blocks: []*ir.Block{{Insts: []ir.Value{p, mul, &ir.Return{Val: mul}}}},
		}
		gv := &ir.GlobalVar{Name: "out", Type: &ir.PtrType{Pointee: ir.Float32}}
		buf := &ir.GlobalVar{Name: "buf", Type: &ir.RWStructuredBufferType{Element: ir.UInt32}}
		return []*ir.Module{{Globals: []ir.Value{fn, gv, buf}}}
	}

	units := build()
	first, err := Generate(units)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	second, err := Generate(units)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Error("same IR graph produced different bytes")
	}

	// A structurally identical but separately built graph must also
	// match: nothing may depend on map iteration order or identity.
	third, err := Generate(build())
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if !bytes.Equal(first, third) {
		t.Error("structurally identical IR produced different bytes")
	}
}

func TestMissingIdentifier(t *testing.T) {
	v := &ir.Var{Type: &ir.PtrType{Pointee: ir.Float64}}
	// The float literal is referenced but never placed in a block and
	// is not poolable, so its operand cannot resolve.
	loose := &ir.FloatLit{Type: ir.Float64, Value: 2.5}
	fn := &ir.Func{
		Name:   "f",
		Blocks: []*ir.Block{{Insts: []ir.Value{v, &ir.Store{Ptr: v, Val: loose}, &ir.ReturnVoid{}}}},
	}

	_, err := Generate([]*ir.Module{{Globals: []ir.Value{fn}}})
	var missing *MissingIdentifierError
	if !errors.As(err, &missing) {
		t.Fatalf("expected MissingIdentifierError, got %v", err)
	}
	if missing.Op != ir.OpFloatLit {
		t.Errorf("missing identifier op = %s, want floatlit", missing.Op)
	}
}

func TestUnsupportedTypeFails(t *testing.T) {
	gv := &ir.GlobalVar{Name: "bad", Type: &ir.BasicType{Base: ir.BaseKind(99)}}
	_, err := Generate([]*ir.Module{{Globals: []ir.Value{gv}}})
	var unsupported *UnsupportedInputError
	if !errors.As(err, &unsupported) {
		t.Fatalf("expected UnsupportedInputError, got %v", err)
	}
}
