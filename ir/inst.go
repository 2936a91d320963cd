package ir

// Param is a block parameter. Params occupy the head of their block's
// instruction stream; the entry block's params are the function's
// parameters.
type Param struct {
	Type Type
}

func (p *Param) Op() Op            { return OpParam }
func (p *Param) DataType() Type    { return p.Type }
func (p *Param) Operands() []Value { return nil }

// Var is a stack allocation. Its result is a pointer to the storage,
// so its type is always a pointer type.
type Var struct {
	Type *PtrType
}

func (v *Var) Op() Op { return OpVar }

func (v *Var) DataType() Type {
	if v.Type == nil {
		return nil
	}
	return v.Type
}

func (v *Var) Operands() []Value { return nil }

// IntLit is an integer literal.
type IntLit struct {
	Type  Type
	Value int64
}

func (l *IntLit) Op() Op            { return OpIntLit }
func (l *IntLit) DataType() Type    { return l.Type }
func (l *IntLit) Operands() []Value { return nil }

// FloatLit is a floating-point literal.
type FloatLit struct {
	Type  Type
	Value float64
}

func (l *FloatLit) Op() Op            { return OpFloatLit }
func (l *FloatLit) DataType() Type    { return l.Type }
func (l *FloatLit) Operands() []Value { return nil }

// BoolLit is a boolean literal.
type BoolLit struct {
	Type  Type
	Value bool
}

func (l *BoolLit) Op() Op            { return OpBoolLit }
func (l *BoolLit) DataType() Type    { return l.Type }
func (l *BoolLit) Operands() []Value { return nil }

// Binary is a two-operand arithmetic instruction. Opcode must be one
// of OpAdd, OpSub, OpMul, OpDiv.
type Binary struct {
	Opcode Op
	Type   Type
	LHS    Value
	RHS    Value
}

func (b *Binary) Op() Op            { return b.Opcode }
func (b *Binary) DataType() Type    { return b.Type }
func (b *Binary) Operands() []Value { return []Value{b.LHS, b.RHS} }

// Load reads a value through a pointer.
type Load struct {
	Type Type
	Ptr  Value
}

func (l *Load) Op() Op            { return OpLoad }
func (l *Load) DataType() Type    { return l.Type }
func (l *Load) Operands() []Value { return []Value{l.Ptr} }

// Store writes a value through a pointer. It produces no result.
type Store struct {
	Ptr Value
	Val Value
}

func (s *Store) Op() Op            { return OpStore }
func (s *Store) DataType() Type    { return nil }
func (s *Store) Operands() []Value { return []Value{s.Ptr, s.Val} }

// Call invokes a callee with arguments. The callee is operand zero.
type Call struct {
	Type   Type
	Callee Value
	Args   []Value
}

func (c *Call) Op() Op         { return OpCall }
func (c *Call) DataType() Type { return c.Type }

func (c *Call) Operands() []Value {
	ops := make([]Value, 0, len(c.Args)+1)
	ops = append(ops, c.Callee)
	ops = append(ops, c.Args...)
	return ops
}

// Return returns a value from the current function. It produces no
// result itself.
type Return struct {
	Val Value
}

func (r *Return) Op() Op            { return OpReturnVal }
func (r *Return) DataType() Type    { return nil }
func (r *Return) Operands() []Value { return []Value{r.Val} }

// ReturnVoid returns from a void function.
type ReturnVoid struct{}

func (r *ReturnVoid) Op() Op            { return OpReturnVoid }
func (r *ReturnVoid) DataType() Type    { return nil }
func (r *ReturnVoid) Operands() []Value { return nil }

// Branch is an unconditional branch to a block.
type Branch struct {
	Target *Block
}

func (b *Branch) Op() Op            { return OpBranch }
func (b *Branch) DataType() Type    { return nil }
func (b *Branch) Operands() []Value { return []Value{b.Target} }

// CondBranch branches to Then or Else depending on Cond.
type CondBranch struct {
	Cond Value
	Then *Block
	Else *Block
}

func (b *CondBranch) Op() Op            { return OpCondBranch }
func (b *CondBranch) DataType() Type    { return nil }
func (b *CondBranch) Operands() []Value { return []Value{b.Cond, b.Then, b.Else} }
