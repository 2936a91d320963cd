package slangbc

import (
	"errors"
	"testing"

	"github.com/gogpu/slangbc/bc"
	"github.com/gogpu/slangbc/ir"
)

func TestGenerateBytecode(t *testing.T) {
	fn := &ir.Func{
		Name:   "main",
		Blocks: []*ir.Block{{Insts: []ir.Value{&ir.ReturnVoid{}}}},
	}
	req := &CompileRequest{
		TranslationUnits: []TranslationUnit{
			{IRModule: &ir.Module{Globals: []ir.Value{fn}}},
			{IRModule: nil},
		},
	}

	if err := GenerateBytecode(req); err != nil {
		t.Fatalf("GenerateBytecode failed: %v", err)
	}
	if len(req.GeneratedBytecode) == 0 {
		t.Fatal("no bytecode attached to the request")
	}
	if got := string(req.GeneratedBytecode[:8]); got != bc.Magic {
		t.Errorf("magic = %q, want %q", got, bc.Magic)
	}

	_, header, err := bc.Open(req.GeneratedBytecode)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if got := header.Get().ModuleCount; got != 2 {
		t.Errorf("moduleCount = %d, want 2", got)
	}
}

func TestGenerateBytecodeError(t *testing.T) {
	bad := &ir.GlobalVar{Name: "bad", Type: &ir.BasicType{Base: ir.BaseKind(99)}}
	req := &CompileRequest{
		TranslationUnits: []TranslationUnit{
			{IRModule: &ir.Module{Globals: []ir.Value{bad}}},
		},
	}

	err := GenerateBytecode(req)
	var unsupported *bc.UnsupportedInputError
	if !errors.As(err, &unsupported) {
		t.Fatalf("expected UnsupportedInputError, got %v", err)
	}
	if req.GeneratedBytecode != nil {
		t.Error("failed generation must not attach bytecode")
	}
}
