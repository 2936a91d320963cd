package main

// A small textual form of the lowered IR, used for compile fixtures.
//
//	global_var data: ptr(int32)
//
//	func add(int32, int32) -> int32 {
//	block entry:
//	  %x = param int32
//	  %y = param int32
//	  %sum = add int32 %x, %y
//	  ret %sum
//	}
//
// Operands are %name (local), @name (global), ^label (block), or
// value:type (inline integer literal). Comments start with ';'.

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gogpu/slangbc/ir"
)

type irParser struct {
	file  string
	lines []string

	module  *ir.Module
	globals map[string]ir.Value

	// Inline integer literals are shared per (type, value) so that
	// repeated mentions hit one constant-pool entry.
	intLits map[string]*ir.IntLit
}

func parseIRText(file, src string) (*ir.Module, error) {
	p := &irParser{
		file:    file,
		lines:   strings.Split(src, "\n"),
		module:  &ir.Module{},
		globals: make(map[string]ir.Value),
		intLits: make(map[string]*ir.IntLit),
	}
	if err := p.parse(); err != nil {
		return nil, err
	}
	return p.module, nil
}

func (p *irParser) errorf(line int, format string, args ...any) error {
	return fmt.Errorf("%s:%d: %s", p.file, line+1, fmt.Sprintf(format, args...))
}

func stripComment(line string) string {
	if i := strings.IndexByte(line, ';'); i >= 0 {
		line = line[:i]
	}
	return strings.TrimSpace(line)
}

// parse runs two passes: declarations first, so that function bodies
// can reference globals declared later, then the bodies themselves.
func (p *irParser) parse() error {
	type funcBody struct {
		fn    *ir.Func
		start int // first body line
		end   int // line of the closing brace
	}
	var bodies []funcBody

	for i := 0; i < len(p.lines); i++ {
		line := stripComment(p.lines[i])
		switch {
		case line == "":

		case strings.HasPrefix(line, "global_var "), strings.HasPrefix(line, "global_constant "):
			if err := p.parseGlobal(i, line); err != nil {
				return err
			}

		case strings.HasPrefix(line, "func "):
			fn, err := p.parseFuncHeader(i, line)
			if err != nil {
				return err
			}
			start := i + 1
			end := -1
			for j := start; j < len(p.lines); j++ {
				if stripComment(p.lines[j]) == "}" {
					end = j
					break
				}
			}
			if end < 0 {
				return p.errorf(i, "unterminated function %q", fn.Name)
			}
			bodies = append(bodies, funcBody{fn: fn, start: start, end: end})
			i = end

		default:
			return p.errorf(i, "unexpected top-level line %q", line)
		}
	}

	for _, body := range bodies {
		if err := p.parseFuncBody(body.fn, body.start, body.end); err != nil {
			return err
		}
	}
	return nil
}

func (p *irParser) declareGlobal(line int, name string, v ir.Value) error {
	if _, exists := p.globals[name]; exists {
		return p.errorf(line, "duplicate global %q", name)
	}
	p.globals[name] = v
	p.module.Globals = append(p.module.Globals, v)
	return nil
}

func (p *irParser) parseGlobal(line int, text string) error {
	kind, rest, _ := strings.Cut(text, " ")
	name, typeText, ok := strings.Cut(rest, ":")
	if !ok {
		return p.errorf(line, "expected %s <name>: <type>", kind)
	}
	name = strings.TrimSpace(name)
	typ, err := p.parseType(line, typeText)
	if err != nil {
		return err
	}
	if kind == "global_var" {
		return p.declareGlobal(line, name, &ir.GlobalVar{Name: name, Type: typ})
	}
	return p.declareGlobal(line, name, &ir.GlobalConstant{Name: name, Type: typ})
}

func (p *irParser) parseFuncHeader(line int, text string) (*ir.Func, error) {
	text = strings.TrimSuffix(strings.TrimSpace(strings.TrimPrefix(text, "func ")), "{")
	text = strings.TrimSpace(text)

	open := strings.IndexByte(text, '(')
	closing := strings.LastIndexByte(text, ')')
	if open < 0 || closing < open {
		return nil, p.errorf(line, "expected func <name>(<params>) -> <result> {")
	}
	name := strings.TrimSpace(text[:open])

	var params []ir.Type
	for _, paramText := range splitTopLevel(text[open+1 : closing]) {
		typ, err := p.parseType(line, paramText)
		if err != nil {
			return nil, err
		}
		params = append(params, typ)
	}

	after := strings.TrimSpace(text[closing+1:])
	resultText, ok := strings.CutPrefix(after, "->")
	if !ok {
		return nil, p.errorf(line, "expected -> <result> after parameter list")
	}
	result, err := p.parseType(line, resultText)
	if err != nil {
		return nil, err
	}

	fn := &ir.Func{Name: name, Type: &ir.FuncType{Result: result, Params: params}}
	if err := p.declareGlobal(line, name, fn); err != nil {
		return nil, err
	}
	return fn, nil
}

func (p *irParser) parseFuncBody(fn *ir.Func, start, end int) error {
	blocks := make(map[string]*ir.Block)

	// Blocks first: branches may target blocks not yet seen.
	for i := start; i < end; i++ {
		line := stripComment(p.lines[i])
		if label, ok := strings.CutPrefix(line, "block "); ok {
			label = strings.TrimSpace(strings.TrimSuffix(label, ":"))
			if _, exists := blocks[label]; exists {
				return p.errorf(i, "duplicate block %q", label)
			}
			b := &ir.Block{}
			blocks[label] = b
			fn.Blocks = append(fn.Blocks, b)
		}
	}

	locals := make(map[string]ir.Value)
	var current *ir.Block
	for i := start; i < end; i++ {
		line := stripComment(p.lines[i])
		if line == "" {
			continue
		}
		if label, ok := strings.CutPrefix(line, "block "); ok {
			current = blocks[strings.TrimSpace(strings.TrimSuffix(label, ":"))]
			continue
		}
		if current == nil {
			return p.errorf(i, "instruction outside a block")
		}
		inst, result, err := p.parseInst(i, line, locals, blocks)
		if err != nil {
			return err
		}
		if result != "" {
			if _, exists := locals[result]; exists {
				return p.errorf(i, "duplicate register %%%s", result)
			}
			locals[result] = inst
		}
		if inst.Op() == ir.OpParam && len(current.Insts) > 0 {
			if current.Insts[len(current.Insts)-1].Op() != ir.OpParam {
				return p.errorf(i, "param after non-param instruction")
			}
		}
		current.Insts = append(current.Insts, inst)
	}
	return nil
}

// parseInst parses one instruction line, returning the instruction and
// the register name it defines ("" for result-less instructions).
func (p *irParser) parseInst(line int, text string, locals map[string]ir.Value, blocks map[string]*ir.Block) (ir.Value, string, error) {
	result := ""
	if strings.HasPrefix(text, "%") {
		reg, rest, ok := strings.Cut(text, "=")
		if !ok {
			return nil, "", p.errorf(line, "expected %%reg = <instruction>")
		}
		result = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(reg), "%"))
		text = strings.TrimSpace(rest)
	}

	mnemonic, rest, _ := strings.Cut(text, " ")
	rest = strings.TrimSpace(rest)

	operand := func(s string) (ir.Value, error) {
		return p.parseOperand(line, s, locals, blocks)
	}
	operands := func(want int) ([]ir.Value, error) {
		parts := splitTopLevel(rest)
		if want >= 0 && len(parts) != want {
			return nil, p.errorf(line, "%s expects %d operands, got %d", mnemonic, want, len(parts))
		}
		out := make([]ir.Value, len(parts))
		for i, part := range parts {
			v, err := operand(part)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	}
	typeAndOperands := func(want int) (ir.Type, []ir.Value, error) {
		typeText, operandText, ok := strings.Cut(rest, " ")
		if !ok && want > 0 {
			return nil, nil, p.errorf(line, "%s expects a type and %d operands", mnemonic, want)
		}
		typ, err := p.parseType(line, typeText)
		if err != nil {
			return nil, nil, err
		}
		rest = strings.TrimSpace(operandText)
		ops, err := operands(want)
		return typ, ops, err
	}

	switch mnemonic {
	case "param":
		typ, err := p.parseType(line, rest)
		return &ir.Param{Type: typ}, result, err

	case "var":
		typ, err := p.parseType(line, rest)
		if err != nil {
			return nil, "", err
		}
		ptr, ok := typ.(*ir.PtrType)
		if !ok {
			return nil, "", p.errorf(line, "var expects a ptr(...) type")
		}
		return &ir.Var{Type: ptr}, result, nil

	case "intlit":
		typeText, valueText, _ := strings.Cut(rest, " ")
		typ, err := p.parseType(line, typeText)
		if err != nil {
			return nil, "", err
		}
		value, err := strconv.ParseInt(strings.TrimSpace(valueText), 0, 64)
		if err != nil {
			return nil, "", p.errorf(line, "bad integer literal: %v", err)
		}
		return p.internIntLit(typeText, typ, value), result, nil

	case "floatlit":
		typeText, valueText, _ := strings.Cut(rest, " ")
		typ, err := p.parseType(line, typeText)
		if err != nil {
			return nil, "", err
		}
		value, err := strconv.ParseFloat(strings.TrimSpace(valueText), 64)
		if err != nil {
			return nil, "", p.errorf(line, "bad float literal: %v", err)
		}
		return &ir.FloatLit{Type: typ, Value: value}, result, nil

	case "boollit":
		value, err := strconv.ParseBool(rest)
		if err != nil {
			return nil, "", p.errorf(line, "bad bool literal: %v", err)
		}
		return &ir.BoolLit{Type: ir.Bool, Value: value}, result, nil

	case "add", "sub", "mul", "div":
		typ, ops, err := typeAndOperands(2)
		if err != nil {
			return nil, "", err
		}
		opcode := map[string]ir.Op{"add": ir.OpAdd, "sub": ir.OpSub, "mul": ir.OpMul, "div": ir.OpDiv}[mnemonic]
		return &ir.Binary{Opcode: opcode, Type: typ, LHS: ops[0], RHS: ops[1]}, result, nil

	case "load":
		typ, ops, err := typeAndOperands(1)
		if err != nil {
			return nil, "", err
		}
		return &ir.Load{Type: typ, Ptr: ops[0]}, result, nil

	case "store":
		ops, err := operands(2)
		if err != nil {
			return nil, "", err
		}
		return &ir.Store{Ptr: ops[0], Val: ops[1]}, result, nil

	case "call":
		typ, ops, err := typeAndOperands(-1)
		if err != nil {
			return nil, "", err
		}
		if len(ops) == 0 {
			return nil, "", p.errorf(line, "call expects a callee operand")
		}
		return &ir.Call{Type: typ, Callee: ops[0], Args: ops[1:]}, result, nil

	case "ret":
		ops, err := operands(1)
		if err != nil {
			return nil, "", err
		}
		return &ir.Return{Val: ops[0]}, result, nil

	case "retvoid":
		return &ir.ReturnVoid{}, result, nil

	case "br":
		ops, err := operands(1)
		if err != nil {
			return nil, "", err
		}
		target, ok := ops[0].(*ir.Block)
		if !ok {
			return nil, "", p.errorf(line, "br expects a ^block operand")
		}
		return &ir.Branch{Target: target}, result, nil

	case "cbr":
		ops, err := operands(3)
		if err != nil {
			return nil, "", err
		}
		thenBlock, okThen := ops[1].(*ir.Block)
		elseBlock, okElse := ops[2].(*ir.Block)
		if !okThen || !okElse {
			return nil, "", p.errorf(line, "cbr expects ^block targets")
		}
		return &ir.CondBranch{Cond: ops[0], Then: thenBlock, Else: elseBlock}, result, nil

	default:
		return nil, "", p.errorf(line, "unknown instruction %q", mnemonic)
	}
}

func (p *irParser) parseOperand(line int, text string, locals map[string]ir.Value, blocks map[string]*ir.Block) (ir.Value, error) {
	text = strings.TrimSpace(text)
	switch {
	case strings.HasPrefix(text, "%"):
		v, ok := locals[text[1:]]
		if !ok {
			return nil, p.errorf(line, "undefined register %s", text)
		}
		return v, nil

	case strings.HasPrefix(text, "@"):
		v, ok := p.globals[text[1:]]
		if !ok {
			return nil, p.errorf(line, "undefined global %s", text)
		}
		return v, nil

	case strings.HasPrefix(text, "^"):
		b, ok := blocks[text[1:]]
		if !ok {
			return nil, p.errorf(line, "undefined block %s", text)
		}
		return b, nil

	default:
		valueText, typeText, ok := strings.Cut(text, ":")
		if !ok {
			return nil, p.errorf(line, "bad operand %q", text)
		}
		value, err := strconv.ParseInt(valueText, 0, 64)
		if err != nil {
			return nil, p.errorf(line, "bad literal operand %q: %v", text, err)
		}
		typ, err := p.parseType(line, typeText)
		if err != nil {
			return nil, err
		}
		return p.internIntLit(typeText, typ, value), nil
	}
}

func (p *irParser) internIntLit(typeText string, typ ir.Type, value int64) *ir.IntLit {
	key := strings.TrimSpace(typeText) + "/" + strconv.FormatInt(value, 10)
	if lit, ok := p.intLits[key]; ok {
		return lit
	}
	lit := &ir.IntLit{Type: typ, Value: value}
	p.intLits[key] = lit
	return lit
}

func (p *irParser) parseType(line int, text string) (ir.Type, error) {
	text = strings.TrimSpace(text)
	switch text {
	case "void":
		return ir.Void, nil
	case "bool":
		return ir.Bool, nil
	case "int32":
		return ir.Int32, nil
	case "uint32":
		return ir.UInt32, nil
	case "uint64":
		return ir.UInt64, nil
	case "float16":
		return ir.Float16, nil
	case "float32":
		return ir.Float32, nil
	case "float64":
		return ir.Float64, nil
	}

	open := strings.IndexByte(text, '(')
	if open > 0 && strings.HasSuffix(text, ")") {
		inner, err := p.parseType(line, text[open+1:len(text)-1])
		if err != nil {
			return nil, err
		}
		switch text[:open] {
		case "ptr":
			return &ir.PtrType{Pointee: inner}, nil
		case "sbuf":
			return &ir.StructuredBufferType{Element: inner}, nil
		case "rwsbuf":
			return &ir.RWStructuredBufferType{Element: inner}, nil
		}
	}
	return nil, p.errorf(line, "unknown type %q", text)
}

// splitTopLevel splits on commas that are not nested inside parens.
func splitTopLevel(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	var parts []string
	depth, start := 0, 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	parts = append(parts, strings.TrimSpace(s[start:]))
	return parts
}
