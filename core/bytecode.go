package core

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sort"
)

type Instructions []byte
type Opcode byte

func (ins Instructions) String() string {
	var out bytes.Buffer

	i := 0
	for i < len(ins) {
		def, err := Lookup(ins[i])
		if err != nil {
			fmt.Fprintf(&out, "ERROR: %s\n", err)
			break
		}

		operands, read := ReadOperands(def, ins[i+1:])

		fmt.Fprintf(&out, "%04d %s\n", i, ins.fmtInstruction(def, operands))

		i += 1 + read
	}

	return out.String()
}

func (ins Instructions) fmtInstruction(def *Definition, operands []int) string {
	operandCount := len(def.OperandWidths)

	if len(operands) != operandCount {
		return fmt.Sprintf("ERROR: operand len %d does not match defined %d\n",
			len(operands), operandCount)
	}

	switch operandCount {
	case 0:
		return def.Name
	case 1:
		return fmt.Sprintf("%s %d", def.Name, operands[0])
	case 2:
		return fmt.Sprintf("%s %d %d", def.Name, operands[0], operands[1])
	}

	return fmt.Sprintf("ERROR: unhandled operandCount for %s\n", def.Name)
}

type Definition struct {
	Name          string
	OperandWidths []int
}

const (
	OpConstant Opcode = iota + 1
	OpPop
	OpNot
	OpUnaryPlus
	OpUnaryMinus
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpEqual
	OpNotEqual
	OpGreaterThan
	OpLessThan

	OpJump
	OpJumpNotTruthy

	OpSetGlobal
	OpGetGlobal

	OpReturnValue
	OpReturn
	OpCall

	OpSetLocal
	OpGetLocal
	OpGetFree
	OpClosure
	OpCurrentClosure
)

var definitions = map[Opcode]*Definition{
	OpConstant:    {"OpConstant", []int{2}},
	OpPop:         {"OpPop", []int{}},
	OpNot:         {"OpNot", []int{}},
	OpUnaryPlus:   {"OpUnaryPlus", []int{}},
	OpUnaryMinus:  {"OpUnaryMinus", []int{}},
	OpAdd:         {"OpAdd", []int{}},
	OpSub:         {"OpSub", []int{}},
	OpMul:         {"OpMul", []int{}},
	OpDiv:         {"OpDiv", []int{}},
	OpEqual:       {"OpEqual", []int{}},
	OpNotEqual:    {"OpNotEqual", []int{}},
	OpGreaterThan: {"OpGreaterThan", []int{}},
	OpLessThan:    {"OpLessThan", []int{}},

	OpJump:          {"OpJump", []int{2}},
	OpJumpNotTruthy: {"OpJumpNotTruthy", []int{2}},

	OpSetGlobal: {"OpSetGlobal", []int{2}},
	OpGetGlobal: {"OpGetGlobal", []int{2}},

	OpReturnValue: {"OpReturnValue", []int{}},
	OpReturn:      {"OpReturn", []int{}},
	OpCall:        {"OpCall", []int{1}},

	OpSetLocal:       {"OpSetLocal", []int{1}},
	OpGetLocal:       {"OpGetLocal", []int{1}},
	OpGetFree:        {"OpGetFree", []int{1}},
	OpClosure:        {"OpClosure", []int{2, 1}},
	OpCurrentClosure: {"OpCurrentClosure", []int{}},
}

func (op Opcode) String() string {
	if def, ok := definitions[op]; ok {
		return def.Name
	}
	return fmt.Sprintf("Opcode(%d)", byte(op))
}

func Lookup(op byte) (*Definition, error) {
	def, ok := definitions[Opcode(op)]
	if !ok {
		return nil, fmt.Errorf("opcode %d undefined", op)
	}

	return def, nil
}

// Width is the encoded length of one op instruction, opcode byte included.
func Width(op Opcode) int {
	def, ok := definitions[op]
	if !ok {
		return 0
	}

	width := 1
	for _, w := range def.OperandWidths {
		width += w
	}
	return width
}

func ReadOperands(def *Definition, instructions Instructions) ([]int, int) {
	operands := make([]int, len(def.OperandWidths))
	offset := 0

	for i, width := range def.OperandWidths {
		switch width {
		case 1:
			operands[i] = int(ReadUint8(instructions[offset:]))
		case 2:
			operands[i] = int(ReadUint16(instructions[offset:]))
		}

		offset += width
	}

	return operands, offset
}

func ReadUint16(ins Instructions) uint16 {
	return binary.BigEndian.Uint16(ins)
}

func ReadUint8(ins Instructions) uint8 {
	return ins[0]
}

// Make encodes one instruction. Unknown opcodes encode to nothing.
func Make(op Opcode, operands ...int) []byte {
	def, ok := definitions[op]
	if !ok {
		return []byte{}
	}

	instruction := make([]byte, Width(op))
	instruction[0] = byte(op)

	offset := 1
	for i, o := range operands {
		width := def.OperandWidths[i]
		switch width {
		case 1:
			instruction[offset] = byte(o)
		case 2:
			binary.BigEndian.PutUint16(instruction[offset:], uint16(o))
		}
		offset += width
	}

	return instruction
}

// Bytecode is the compiler's output: the main instruction stream and the
// constant pool every OpConstant and OpClosure indexes into.
type Bytecode struct {
	Instructions Instructions
	Constants    []Object
	Positions    Positions
}

// Position ties the instruction starting at Offset to its source.
type Position struct {
	Offset int
	Span   Span
}

// Positions is sorted by Offset. Only instructions that can fail at runtime
// are listed.
type Positions []Position

// Lookup finds the span of the instruction starting at offset.
func (p Positions) Lookup(offset int) (Span, bool) {
	i := sort.Search(len(p), func(i int) bool { return p[i].Offset >= offset })
	if i < len(p) && p[i].Offset == offset {
		return p[i].Span, true
	}
	return Span{}, false
}

func (b *Bytecode) String() string {
	var out bytes.Buffer

	out.WriteString(b.Instructions.String())

	for i, constant := range b.Constants {
		fmt.Fprintf(&out, "\nconstant %d: %s\n", i, constant)
		if fn, ok := constant.(*CompiledFunction); ok {
			out.WriteString(fn.Instructions.String())
		}
	}

	return out.String()
}
