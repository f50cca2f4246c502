package core

// Parse tokenizes and parses source.
func Parse(source string) (*Program, error) {
	return ParseProgram(NewTokenizer(source))
}

func Compile(program *Program) (*Bytecode, error) {
	compiler := NewCompiler()
	if err := compiler.Compile(program); err != nil {
		return nil, err
	}

	return compiler.Bytecode(), nil
}

// Execute runs bytecode on a fresh VM and returns the program's value.
func Execute(code *Bytecode) (Object, error) {
	vm := NewVM(code)
	if err := vm.Run(); err != nil {
		return nil, err
	}

	return vm.Result(), nil
}

// Run parses source and evaluates it with the tree-walking evaluator.
// Evaluation failures come back as an Error object, not as err.
func Run(source string) (Object, error) {
	program, err := Parse(source)
	if err != nil {
		return nil, err
	}

	return Evaluate(program), nil
}

// RunVM parses, compiles and executes source on the VM.
func RunVM(source string) (Object, error) {
	program, err := Parse(source)
	if err != nil {
		return nil, err
	}

	code, err := Compile(program)
	if err != nil {
		return nil, err
	}

	return Execute(code)
}
