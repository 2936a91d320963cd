// Package ir defines the lowered intermediate representation consumed
// by the bytecode backend.
//
// The IR is organized around a Module that holds global values in
// declaration order. Functions own basic blocks; blocks own a flat
// instruction stream. Every entity an operand slot can name — an
// instruction, a block, a function, a global — implements Value, so
// the backend can walk the graph uniformly.
//
// # Structure
//
//	Module
//	  └── Globals: Func | GlobalVar | GlobalConstant
//	        └── Blocks (Func only)
//	              └── Insts: Param, Var, literals, arithmetic, ...
//
// Block parameters are ordinary Param instructions at the head of a
// block; the entry block's parameters are the function's parameters.
// Cycles are expected: instructions may reference blocks (branches),
// other instructions (including across blocks), and functions
// (calls, including forward and recursive references).
//
// The package is purely descriptive. Construction and semantic
// analysis happen upstream; serialization lives in package bc.
package ir
