// Package slangbc serializes lowered shader IR into the "slang\0bc"
// bytecode container.
//
// The container is position-independent: downstream tooling memory-maps
// it and follows arena-relative offsets in place, with no parse step.
// The heavy lifting lives in the bc package; this package provides the
// compile-request entry point that drivers call once per build.
//
// Example usage:
//
//	req := &slangbc.CompileRequest{
//	    TranslationUnits: []slangbc.TranslationUnit{
//	        {IRModule: module},
//	    },
//	}
//	if err := slangbc.GenerateBytecode(req); err != nil {
//	    log.Fatal(err)
//	}
//	os.WriteFile("out.bc", req.GeneratedBytecode, 0o644)
//
// For IR model types, see the ir package; for the container records
// and the in-place reader, see the bc package.
package slangbc

import (
	"github.com/gogpu/slangbc/bc"
	"github.com/gogpu/slangbc/ir"
)

// TranslationUnit is one input source module. IRModule may be nil for
// units that produced no IR; such units still occupy a (null) module
// slot in the container.
type TranslationUnit struct {
	IRModule *ir.Module
}

// CompileRequest carries the translation units of one build and
// receives the serialized container.
type CompileRequest struct {
	TranslationUnits []TranslationUnit

	// GeneratedBytecode is set by GenerateBytecode on success.
	GeneratedBytecode []byte
}

// GenerateBytecode serializes the request's translation units and
// attaches the container to the request. On error no bytecode is
// attached; partial output is discarded with the generation context.
func GenerateBytecode(req *CompileRequest) error {
	units := make([]*ir.Module, len(req.TranslationUnits))
	for i, tu := range req.TranslationUnits {
		units[i] = tu.IRModule
	}

	bytecode, err := bc.Generate(units)
	if err != nil {
		return err
	}
	req.GeneratedBytecode = bytecode
	return nil
}
