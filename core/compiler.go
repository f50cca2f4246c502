package core

import (
	"fmt"
	"math"
	"strconv"
)

const (
	maxConstants = math.MaxUint16 + 1
	maxGlobals   = math.MaxUint16 + 1
	maxLocals    = math.MaxUint8 + 1
	maxArguments = math.MaxUint8
	maxFree      = math.MaxUint8
	maxOffset    = math.MaxUint16

	// placeholder operand of a jump that has not been patched yet
	unpatched = math.MaxUint16
)

// instruction is one not yet encoded instruction. Jump operands hold an
// instruction index until the scope is linearized. Instructions that can
// fail at runtime carry the span of the source that produced them.
type instruction struct {
	op       Opcode
	operands []int

	span    Span
	located bool
}

type CompilationScope struct {
	instructions []instruction
}

type Compiler struct {
	constants   []Object
	symbolTable *SymbolTable

	scopes     []CompilationScope
	scopeIndex int

	nullConstant int
	main         Instructions
	positions    Positions
}

func NewCompiler() *Compiler {
	return NewCompilerWithState(NewSymbolTable(), []Object{})
}

// NewCompilerWithState continues from the globals and constants of an
// earlier compilation, as the REPL does between lines.
func NewCompilerWithState(symbols *SymbolTable, constants []Object) *Compiler {
	return &Compiler{
		constants:    constants,
		symbolTable:  symbols,
		scopes:       []CompilationScope{{}},
		scopeIndex:   0,
		nullConstant: -1,
	}
}

// SymbolTable is the table the next compilation continues from.
func (c *Compiler) SymbolTable() *SymbolTable {
	return c.symbolTable
}

// Bytecode returns the linearized main scope and the constant pool.
func (c *Compiler) Bytecode() *Bytecode {
	return &Bytecode{
		Instructions: c.main,
		Constants:    c.constants,
		Positions:    c.positions,
	}
}

// Compile lowers program into the main scope and linearizes it.
func (c *Compiler) Compile(program *Program) error {
	for _, stmt := range program.Statements {
		if err := c.compileStatement(stmt); err != nil {
			return err
		}
	}

	main, positions, err := c.linearize(c.scopes[0], program.Span())
	if err != nil {
		return err
	}
	c.main = main
	c.positions = positions

	return nil
}

func (c *Compiler) enterScope() {
	c.scopes = append(c.scopes, CompilationScope{})
	c.scopeIndex++
	c.symbolTable = NewEnclosedSymbolTable(c.symbolTable)
}

func (c *Compiler) leaveScope() CompilationScope {
	scope := c.scopes[c.scopeIndex]

	c.scopes = c.scopes[:len(c.scopes)-1]
	c.scopeIndex--

	c.symbolTable = c.symbolTable.Outer

	return scope
}

func (c *Compiler) currentInstructions() []instruction {
	return c.scopes[c.scopeIndex].instructions
}

func (c *Compiler) compileStatement(stmt Statement) error {
	switch stmt := stmt.(type) {
	case LetStatement:
		if fn, ok := stmt.Value.(FunctionLiteral); ok {
			if err := c.compileFunction(fn, stmt.Name.Name()); err != nil {
				return err
			}
		} else if err := c.compileExpression(stmt.Value); err != nil {
			return err
		}

		symbol := c.symbolTable.Define(stmt.Name.Name())
		if symbol.Scope == GlobalScope {
			if symbol.Index >= maxGlobals {
				return compileErrorf(stmt.Name.Span(), "too many globals")
			}
			c.emit(OpSetGlobal, symbol.Index)
		} else {
			if symbol.Index >= maxLocals {
				return compileErrorf(stmt.Name.Span(), "too many locals")
			}
			c.emit(OpSetLocal, symbol.Index)
		}

	case ReturnStatement:
		if err := c.compileExpression(stmt.Value); err != nil {
			return err
		}
		c.emit(OpReturnValue)

	case ExpressionStatement:
		if err := c.compileExpression(stmt.Expression); err != nil {
			return err
		}
		c.emit(OpPop)

	default:
		return fmt.Errorf("unknown statement %T", stmt)
	}

	return nil
}

func (c *Compiler) compileExpression(expr Expression) error {
	switch node := expr.(type) {
	case Identifier:
		symbol, ok := c.symbolTable.Resolve(node.Name())
		if !ok {
			return compileErrorf(node.Span(), "undefined identifier %s", node.Name())
		}
		c.loadSymbol(symbol, node.Span())

	case IntegerLiteral:
		n, err := strconv.ParseInt(node.Token.Payload, 10, 64)
		if err != nil {
			return compileErrorf(node.Span(), "integer literal %s out of range", node.Token.Payload)
		}
		return c.emitConstant(Integer(n), node.Span())

	case BooleanLiteral:
		return c.emitConstant(Boolean(node.Value()), node.Span())

	case UnaryOp:
		if err := c.compileExpression(node.Operand); err != nil {
			return err
		}

		switch node.Operator.Kind {
		case BANG:
			c.emitAt(node.Operator.Span, OpNot)
		case PLUS:
			c.emitAt(node.Operator.Span, OpUnaryPlus)
		case MINUS:
			c.emitAt(node.Operator.Span, OpUnaryMinus)
		default:
			return compileErrorf(node.Operator.Span, "unknown operator %s", node.Operator.Kind)
		}

	case BinaryOp:
		if err := c.compileExpression(node.Left); err != nil {
			return err
		}
		if err := c.compileExpression(node.Right); err != nil {
			return err
		}

		op, ok := binaryOpcodes[node.Operator.Kind]
		if !ok {
			return compileErrorf(node.Operator.Span, "unknown operator %s", node.Operator.Kind)
		}
		c.emitAt(node.Operator.Span, op)

	case Block:
		return c.compileBlockValue(node)

	case If:
		if err := c.compileExpression(node.Condition); err != nil {
			return err
		}

		jumpNotTruthy := c.emit(OpJumpNotTruthy, unpatched)

		if err := c.compileBlockValue(node.Consequence); err != nil {
			return err
		}

		jump := c.emit(OpJump, unpatched)

		c.patchJump(jumpNotTruthy, len(c.currentInstructions()))

		if node.Alternative == nil {
			if err := c.emitNull(node.Span()); err != nil {
				return err
			}
		} else if err := c.compileBlockValue(*node.Alternative); err != nil {
			return err
		}

		c.patchJump(jump, len(c.currentInstructions()))

	case FunctionLiteral:
		return c.compileFunction(node, "")

	case Call:
		if err := c.compileExpression(node.Callee); err != nil {
			return err
		}

		if len(node.Arguments) > maxArguments {
			return compileErrorf(node.Span(), "too many arguments")
		}

		for _, a := range node.Arguments {
			if err := c.compileExpression(a); err != nil {
				return err
			}
		}

		c.emitAt(node.Token.Span, OpCall, len(node.Arguments))

	default:
		return fmt.Errorf("unknown expression %T", expr)
	}

	return nil
}

var binaryOpcodes = map[TokenKind]Opcode{
	PLUS:     OpAdd,
	MINUS:    OpSub,
	ASTERISK: OpMul,
	SLASH:    OpDiv,
	EQ:       OpEqual,
	NEQ:      OpNotEqual,
	GREATER:  OpGreaterThan,
	LESS:     OpLessThan,
}

// compileBlockValue lowers a block whose value is consumed. The trailing
// OpPop of a final expression statement is dropped so its value stays on
// the stack; any other ending pushes null.
func (c *Compiler) compileBlockValue(block Block) error {
	for _, stmt := range block.Statements {
		if err := c.compileStatement(stmt); err != nil {
			return err
		}
	}

	if n := len(block.Statements); n > 0 {
		if _, ok := block.Statements[n-1].(ExpressionStatement); ok && c.lastInstructionIs(OpPop) {
			c.removeLastPop()
			return nil
		}
	}

	return c.emitNull(block.Span())
}

// compileFunction lowers fn into its own scope and stores the result as a
// constant. name is the binding a let gives the function, if any.
func (c *Compiler) compileFunction(fn FunctionLiteral, name string) error {
	c.enterScope()

	if name != "" {
		c.symbolTable.DefineFunctionName(name)
	}

	for _, p := range fn.Parameters {
		c.symbolTable.Define(p.Name())
	}

	for _, stmt := range fn.Body.Statements {
		if err := c.compileStatement(stmt); err != nil {
			c.leaveScope()
			return err
		}
	}

	if c.lastInstructionIs(OpPop) {
		c.replaceLastPopWithReturn()
	} else if !c.lastInstructionIs(OpReturnValue) {
		c.emit(OpReturn)
	}

	freeSymbols := c.symbolTable.FreeSymbols
	numLocals := c.symbolTable.NumDefinitions()

	scope := c.leaveScope()

	if numLocals > maxLocals {
		return compileErrorf(fn.Span(), "too many locals")
	}
	if len(freeSymbols) > maxFree {
		return compileErrorf(fn.Span(), "too many captured variables")
	}

	instructions, positions, err := c.linearize(scope, fn.Span())
	if err != nil {
		return err
	}

	compiled := &CompiledFunction{
		Instructions:  instructions,
		NumLocals:     numLocals,
		NumParameters: len(fn.Parameters),
		Name:          name,
		Positions:     positions,
	}

	index, err := c.addConstant(compiled, fn.Span())
	if err != nil {
		return err
	}

	if len(freeSymbols) == 0 {
		c.emit(OpConstant, index)
		return nil
	}

	for _, s := range freeSymbols {
		c.loadSymbol(s, fn.Span())
	}
	c.emit(OpClosure, index, len(freeSymbols))

	return nil
}

func (c *Compiler) loadSymbol(s Symbol, span Span) {
	switch s.Scope {
	case GlobalScope:
		c.emitAt(span, OpGetGlobal, s.Index)
	case LocalScope:
		c.emitAt(span, OpGetLocal, s.Index)
	case FreeScope:
		c.emit(OpGetFree, s.Index)
	case FunctionScope:
		c.emit(OpCurrentClosure)
	}
}

// emit appends an instruction to the current scope and returns its index.
func (c *Compiler) emit(op Opcode, operands ...int) int {
	scope := &c.scopes[c.scopeIndex]
	scope.instructions = append(scope.instructions, instruction{op: op, operands: operands})
	return len(scope.instructions) - 1
}

// emitAt is emit for an instruction that can fail at runtime.
func (c *Compiler) emitAt(span Span, op Opcode, operands ...int) int {
	index := c.emit(op, operands...)
	ins := &c.scopes[c.scopeIndex].instructions[index]
	ins.span = span
	ins.located = true
	return index
}

func (c *Compiler) emitConstant(value Object, span Span) error {
	index, err := c.addConstant(value, span)
	if err != nil {
		return err
	}
	c.emit(OpConstant, index)
	return nil
}

func (c *Compiler) emitNull(span Span) error {
	if c.nullConstant < 0 {
		index, err := c.addConstant(null, span)
		if err != nil {
			return err
		}
		c.nullConstant = index
	}
	c.emit(OpConstant, c.nullConstant)
	return nil
}

func (c *Compiler) addConstant(value Object, span Span) (int, error) {
	if len(c.constants) >= maxConstants {
		return 0, compileErrorf(span, "too many constants")
	}
	c.constants = append(c.constants, value)
	return len(c.constants) - 1, nil
}

func (c *Compiler) lastInstructionIs(op Opcode) bool {
	instructions := c.currentInstructions()
	if len(instructions) == 0 {
		return false
	}
	return instructions[len(instructions)-1].op == op
}

func (c *Compiler) removeLastPop() {
	scope := &c.scopes[c.scopeIndex]
	scope.instructions = scope.instructions[:len(scope.instructions)-1]
}

func (c *Compiler) replaceLastPopWithReturn() {
	instructions := c.currentInstructions()
	instructions[len(instructions)-1] = instruction{op: OpReturnValue}
}

// patchJump points the jump at index position to the instruction that will
// sit at index target.
func (c *Compiler) patchJump(position int, target int) {
	c.scopes[c.scopeIndex].instructions[position].operands[0] = target
}

// linearize encodes a scope. Each instruction's byte offset is the running
// sum of the encoded widths before it; jump operands are rewritten from
// instruction indices to those offsets. A target equal to the instruction
// count maps to the end of the stream. span is the source of the whole
// scope, reported when it does not fit.
func (c *Compiler) linearize(scope CompilationScope, span Span) (Instructions, Positions, error) {
	offsets := make([]int, len(scope.instructions)+1)
	for i, ins := range scope.instructions {
		offsets[i+1] = offsets[i] + Width(ins.op)
	}

	if offsets[len(offsets)-1] > maxOffset {
		return nil, nil, compileErrorf(span, "function body exceeds %d bytes", maxOffset)
	}

	out := make(Instructions, 0, offsets[len(offsets)-1])
	var positions Positions
	for i, ins := range scope.instructions {
		operands := ins.operands
		if ins.op == OpJump || ins.op == OpJumpNotTruthy {
			operands = []int{offsets[ins.operands[0]]}
		}
		if ins.located {
			positions = append(positions, Position{Offset: offsets[i], Span: ins.span})
		}
		out = append(out, Make(ins.op, operands...)...)
	}

	return out, positions, nil
}
