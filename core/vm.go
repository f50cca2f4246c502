package core

import (
	"fmt"
	"strings"
)

const MaxFrames = MaxCallDepth + 1
const StackSize = 2048
const GlobalsSize = 65536

// maxTraceLines bounds how many frames Error prints; a stack overflow would
// otherwise list every one of them.
const maxTraceLines = 10

// StackEntry is one function frame that was active when a runtime error
// happened, innermost first.
type StackEntry struct {
	Name   string
	Offset int
	Span   Span
}

func (e StackEntry) String() string {
	if e.Name != "" {
		return fmt.Sprintf("  in fn %s at %s", e.Name, e.Span)
	}
	return fmt.Sprintf("  in anonymous fn at %s", e.Span)
}

// RuntimeError is a failure while the VM executes bytecode. Offset is the
// failing instruction in the innermost frame and Span its source, when the
// compiler recorded one.
type RuntimeError struct {
	Message    string
	Offset     int
	Span       Span
	StackTrace []StackEntry

	located bool
}

func (e *RuntimeError) Error() string {
	msg := "runtime error: " + e.Message
	if e.located {
		msg = fmt.Sprintf("runtime error at %s: %s", e.Span, e.Message)
	}
	if trace := e.trace(); trace != "" {
		msg += "\n" + trace
	}
	return msg
}

func (e *RuntimeError) trace() string {
	lines := make([]string, 0, maxTraceLines+1)
	for i, entry := range e.StackTrace {
		if i == maxTraceLines {
			lines = append(lines, fmt.Sprintf("  ... %d more", len(e.StackTrace)-i))
			break
		}
		lines = append(lines, entry.String())
	}
	return strings.Join(lines, "\n")
}

func runtimeErrorf(format string, args ...interface{}) *RuntimeError {
	return &RuntimeError{Message: fmt.Sprintf(format, args...)}
}

type Frame struct {
	cl          *Closure
	ip          int
	basePointer int

	// start is the offset of the instruction being executed
	start int
}

func newFrame(cl *Closure, basePointer int) *Frame {
	return &Frame{cl: cl, ip: -1, basePointer: basePointer}
}

func (f *Frame) instructions() Instructions {
	return f.cl.Fn.Instructions
}

type VM struct {
	constants []Object
	globals   []Object

	stack []Object
	sp    int // next free slot; the top of the stack is stack[sp-1]

	frames      []*Frame
	framesIndex int

	result Object
}

func NewVM(bytecode *Bytecode) *VM {
	return NewVMWithGlobals(bytecode, make([]Object, GlobalsSize))
}

// NewVMWithGlobals runs bytecode against an existing global store, so a
// REPL can keep its bindings between lines.
func NewVMWithGlobals(bytecode *Bytecode, globals []Object) *VM {
	mainFn := &CompiledFunction{Instructions: bytecode.Instructions, Positions: bytecode.Positions}
	mainClosure := &Closure{Fn: mainFn}
	mainFrame := newFrame(mainClosure, 0)

	frames := make([]*Frame, MaxFrames)
	frames[0] = mainFrame

	return &VM{
		constants: bytecode.Constants,
		globals:   globals,

		stack: make([]Object, StackSize),
		sp:    0,

		frames:      frames,
		framesIndex: 1,

		result: null,
	}
}

// Result is the value of the program after Run: the last expression
// statement's value, null if the program ended with a let, or the value of
// a top-level return.
func (vm *VM) Result() Object {
	return vm.result
}

func (vm *VM) currentFrame() *Frame {
	return vm.frames[vm.framesIndex-1]
}

func (vm *VM) pushFrame(f *Frame) {
	vm.frames[vm.framesIndex] = f
	vm.framesIndex++
}

func (vm *VM) popFrame() *Frame {
	vm.framesIndex--
	return vm.frames[vm.framesIndex]
}

func (vm *VM) inMainFrame() bool {
	return vm.framesIndex == 1
}

func (vm *VM) push(v Object) error {
	if vm.sp >= StackSize {
		return runtimeErrorf("stack overflow")
	}

	vm.stack[vm.sp] = v
	vm.sp++

	return nil
}

func (vm *VM) pop() Object {
	v := vm.stack[vm.sp-1]
	vm.sp--
	return v
}

// Run executes the main frame until it ends or returns. A *RuntimeError
// says where it happened and which function frames were active.
func (vm *VM) Run() error {
	err := vm.run()
	if runtimeErr, ok := err.(*RuntimeError); ok {
		vm.locate(runtimeErr)
	}
	return err
}

func (vm *VM) locate(err *RuntimeError) {
	frame := vm.currentFrame()
	err.Offset = frame.start
	err.Span, err.located = frame.cl.Fn.Positions.Lookup(frame.start)

	for i := vm.framesIndex - 1; i > 0; i-- {
		f := vm.frames[i]
		span, _ := f.cl.Fn.Positions.Lookup(f.start)
		err.StackTrace = append(err.StackTrace, StackEntry{Name: f.cl.Fn.Name, Offset: f.start, Span: span})
	}
}

func (vm *VM) run() error {
	var ip int
	var ins Instructions
	var op Opcode

	for vm.currentFrame().ip < len(vm.currentFrame().instructions())-1 {
		vm.currentFrame().ip++

		ip = vm.currentFrame().ip
		vm.currentFrame().start = ip
		ins = vm.currentFrame().instructions()
		op = Opcode(ins[ip])

		switch op {
		case OpConstant:
			constIndex := int(vm.readU16(true))
			if constIndex >= len(vm.constants) {
				return runtimeErrorf("constant %d out of range", constIndex)
			}

			if err := vm.push(vm.constants[constIndex]); err != nil {
				return err
			}

		case OpPop:
			value := vm.pop()
			if vm.inMainFrame() {
				vm.result = value
			}

		case OpNot, OpUnaryPlus, OpUnaryMinus:
			if err := vm.executeUnary(op); err != nil {
				return err
			}

		case OpAdd, OpSub, OpMul, OpDiv, OpEqual, OpNotEqual, OpGreaterThan, OpLessThan:
			if err := vm.executeBinary(op); err != nil {
				return err
			}

		case OpJump:
			pos := int(vm.readU16(false))
			vm.currentFrame().ip = pos - 1

		case OpJumpNotTruthy:
			pos := int(vm.readU16(true))

			condition := vm.pop()
			if !truthy(condition) {
				vm.currentFrame().ip = pos - 1
			}

		case OpSetGlobal:
			globalIndex := int(vm.readU16(true))

			vm.globals[globalIndex] = vm.pop()
			if vm.inMainFrame() {
				vm.result = null
			}

		case OpGetGlobal:
			globalIndex := int(vm.readU16(true))

			value := vm.globals[globalIndex]
			if value == nil {
				return runtimeErrorf("global %d read before assignment", globalIndex)
			}

			if err := vm.push(value); err != nil {
				return err
			}

		case OpSetLocal:
			localIndex := int(vm.readU8(true))

			frame := vm.currentFrame()
			vm.stack[frame.basePointer+localIndex] = vm.pop()

		case OpGetLocal:
			localIndex := int(vm.readU8(true))

			frame := vm.currentFrame()
			value := vm.stack[frame.basePointer+localIndex]
			if value == nil {
				return runtimeErrorf("local %d read before assignment", localIndex)
			}

			if err := vm.push(value); err != nil {
				return err
			}

		case OpGetFree:
			freeIndex := int(vm.readU8(true))
			currentClosure := vm.currentFrame().cl

			if err := vm.push(currentClosure.Free[freeIndex]); err != nil {
				return err
			}

		case OpClosure:
			constIndex := int(vm.readU16(true))
			numFree := int(vm.readU8(true))

			if err := vm.pushClosure(constIndex, numFree); err != nil {
				return err
			}

		case OpCurrentClosure:
			if err := vm.push(vm.currentFrame().cl); err != nil {
				return err
			}

		case OpCall:
			numArgs := int(vm.readU8(true))

			if err := vm.executeCall(numArgs); err != nil {
				return err
			}

		case OpReturnValue:
			returnValue := vm.pop()

			if vm.inMainFrame() {
				vm.result = returnValue
				return nil
			}

			frame := vm.popFrame()
			vm.sp = frame.basePointer - 1

			if err := vm.push(returnValue); err != nil {
				return err
			}

		case OpReturn:
			if vm.inMainFrame() {
				vm.result = null
				return nil
			}

			frame := vm.popFrame()
			vm.sp = frame.basePointer - 1

			if err := vm.push(null); err != nil {
				return err
			}

		default:
			return runtimeErrorf("unknown opcode %d", byte(op))
		}
	}

	return nil
}

func (vm *VM) readU16(increment bool) uint16 {
	ip := vm.currentFrame().ip
	ins := vm.currentFrame().instructions()
	value := ReadUint16(ins[ip+1:])

	if increment {
		vm.currentFrame().ip += 2
	}

	return value
}

func (vm *VM) readU8(increment bool) uint8 {
	ip := vm.currentFrame().ip
	ins := vm.currentFrame().instructions()
	value := ReadUint8(ins[ip+1:])

	if increment {
		vm.currentFrame().ip++
	}

	return value
}

func (vm *VM) pushClosure(constIndex int, numFree int) error {
	constant := vm.constants[constIndex]
	function, ok := constant.(*CompiledFunction)
	if !ok {
		return runtimeErrorf("not a function: %s", constant.Type())
	}

	free := make([]Object, numFree)
	copy(free, vm.stack[vm.sp-numFree:vm.sp])
	vm.sp = vm.sp - numFree

	return vm.push(&Closure{Fn: function, Free: free})
}

func (vm *VM) executeCall(numArgs int) error {
	callee := vm.stack[vm.sp-1-numArgs]
	switch callee := callee.(type) {
	case *Closure:
		return vm.callClosure(callee, numArgs)
	case *CompiledFunction:
		return vm.callClosure(&Closure{Fn: callee}, numArgs)
	default:
		return runtimeErrorf("not a function: %s", callee.Type())
	}
}

func (vm *VM) callClosure(cl *Closure, numArgs int) error {
	if cl.Fn.NumParameters != numArgs {
		return runtimeErrorf("wrong number of arguments: expected %d, got %d", cl.Fn.NumParameters, numArgs)
	}

	if vm.framesIndex >= MaxFrames {
		return runtimeErrorf("stack overflow")
	}

	frame := newFrame(cl, vm.sp-numArgs)

	top := frame.basePointer + cl.Fn.NumLocals
	if top > StackSize {
		return runtimeErrorf("stack overflow")
	}

	// locals other than the arguments start unset
	for i := vm.sp; i < top; i++ {
		vm.stack[i] = nil
	}

	vm.pushFrame(frame)
	vm.sp = top

	return nil
}

var unaryOperators = map[Opcode]TokenKind{
	OpNot:        BANG,
	OpUnaryPlus:  PLUS,
	OpUnaryMinus: MINUS,
}

func (vm *VM) executeUnary(op Opcode) error {
	operand := vm.pop()

	result, err := unaryOperation(unaryOperators[op], operand)
	if err != nil {
		return &RuntimeError{Message: err.Error()}
	}

	return vm.push(result)
}

var binaryOperators = map[Opcode]TokenKind{
	OpAdd:         PLUS,
	OpSub:         MINUS,
	OpMul:         ASTERISK,
	OpDiv:         SLASH,
	OpEqual:       EQ,
	OpNotEqual:    NEQ,
	OpGreaterThan: GREATER,
	OpLessThan:    LESS,
}

func (vm *VM) executeBinary(op Opcode) error {
	right := vm.pop()
	left := vm.pop()

	result, err := binaryOperation(binaryOperators[op], left, right)
	if err != nil {
		return &RuntimeError{Message: err.Error()}
	}

	return vm.push(result)
}
