package ir

// Op identifies the kind of an IR value or type.
//
// The numbering is shared with the bytecode format: instruction
// streams encode these values directly, so the constants below are
// part of the serialized format and must not be reordered.
type Op uint32

const (
	OpNop Op = iota
	OpVar
	OpParam
	OpReturnVoid
	OpReturnVal
	OpStore
	OpLoad
	OpIntLit
	OpFloatLit
	OpBoolLit
	OpCall
	OpBranch
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpCondBranch
	OpBlock
	OpFunc
	OpGlobalVar
	OpGlobalConstant

	// Type opcodes. These tag BCType records in the bytecode and
	// never appear in instruction streams.
	OpVoidType
	OpBoolType
	OpInt32Type
	OpUInt32Type
	OpUInt64Type
	OpFloat16Type
	OpFloat32Type
	OpFloat64Type
	OpFuncType
	OpPtrType
	OpStructuredBufferType
	OpRWStructuredBufferType
)

// String returns the opcode mnemonic.
func (op Op) String() string {
	switch op {
	case OpNop:
		return "nop"
	case OpVar:
		return "var"
	case OpParam:
		return "param"
	case OpReturnVoid:
		return "retvoid"
	case OpReturnVal:
		return "ret"
	case OpStore:
		return "store"
	case OpLoad:
		return "load"
	case OpIntLit:
		return "intlit"
	case OpFloatLit:
		return "floatlit"
	case OpBoolLit:
		return "boollit"
	case OpCall:
		return "call"
	case OpBranch:
		return "br"
	case OpAdd:
		return "add"
	case OpSub:
		return "sub"
	case OpMul:
		return "mul"
	case OpDiv:
		return "div"
	case OpCondBranch:
		return "cbr"
	case OpBlock:
		return "block"
	case OpFunc:
		return "func"
	case OpGlobalVar:
		return "global_var"
	case OpGlobalConstant:
		return "global_constant"
	case OpVoidType:
		return "void"
	case OpBoolType:
		return "bool"
	case OpInt32Type:
		return "int32"
	case OpUInt32Type:
		return "uint32"
	case OpUInt64Type:
		return "uint64"
	case OpFloat16Type:
		return "float16"
	case OpFloat32Type:
		return "float32"
	case OpFloat64Type:
		return "float64"
	case OpFuncType:
		return "functype"
	case OpPtrType:
		return "ptr"
	case OpStructuredBufferType:
		return "structured_buffer"
	case OpRWStructuredBufferType:
		return "rw_structured_buffer"
	default:
		return "unknown"
	}
}

// Value is anything an operand slot can name: an instruction, a basic
// block, or a global. DataType reports the result type; nil or void
// means the value produces no result.
type Value interface {
	Op() Op
	DataType() Type
	Operands() []Value
}

// Module is one translation unit's worth of IR.
type Module struct {
	// Globals holds the module-scope values in declaration order.
	Globals []Value
}

// Func is a function definition.
//
// Blocks appear in source order; the first block is the entry block,
// and its Param instructions are the function's parameters.
type Func struct {
	Name   string
	Type   *FuncType
	Blocks []*Block
}

func (f *Func) Op() Op { return OpFunc }

func (f *Func) DataType() Type {
	if f.Type == nil {
		return nil
	}
	return f.Type
}

func (f *Func) Operands() []Value { return nil }

// Block is a basic block: a flat instruction stream.
//
// Param instructions, if any, come first. Branch instructions live in
// the stream like any other instruction; blocks themselves are valid
// operands (branch targets).
type Block struct {
	Insts []Value
}

func (b *Block) Op() Op            { return OpBlock }
func (b *Block) DataType() Type    { return nil }
func (b *Block) Operands() []Value { return nil }

// GlobalVar is a module-scope variable. Its type is the pointer type
// through which the variable is accessed.
type GlobalVar struct {
	Name string
	Type Type
}

func (g *GlobalVar) Op() Op            { return OpGlobalVar }
func (g *GlobalVar) DataType() Type    { return g.Type }
func (g *GlobalVar) Operands() []Value { return nil }

// GlobalConstant is a module-scope constant.
type GlobalConstant struct {
	Name string
	Type Type
}

func (g *GlobalConstant) Op() Op            { return OpGlobalConstant }
func (g *GlobalConstant) DataType() Type    { return g.Type }
func (g *GlobalConstant) Operands() []Value { return nil }
