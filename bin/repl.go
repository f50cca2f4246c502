package main

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/reeflective/readline"

	"github.com/ajkachnic/ember/core"
)

// session carries interpreter state from one REPL input to the next.
type session struct {
	opts *options

	evaluator *core.Evaluator

	symbols   *core.SymbolTable
	constants []core.Object
	globals   []core.Object

	pending strings.Builder
	out     io.Writer
}

func newSession(opts *options, out io.Writer) *session {
	return &session{
		opts:      opts,
		evaluator: core.NewEvaluator(),
		symbols:   core.NewSymbolTable(),
		constants: []core.Object{},
		globals:   make([]core.Object, core.GlobalsSize),
		out:       out,
	}
}

// feed handles one line of input. It returns false once the user asked to
// quit. Input that ends inside an unfinished construct is kept until a
// later line completes it.
func (s *session) feed(line string) bool {
	if s.pending.Len() == 0 {
		switch strings.TrimSpace(line) {
		case "":
			return true
		case ":quit", ":q":
			return false
		case ":env":
			s.printEnv()
			return true
		case ":symbols":
			s.printSymbols()
			return true
		}
	}

	s.pending.WriteString(line)
	s.pending.WriteString("\n")
	source := s.pending.String()

	program, err := core.Parse(source)
	if err != nil {
		parseErr, ok := err.(*core.ParseError)
		if ok && parseErr.Found == nil {
			return true
		}
		s.pending.Reset()
		if ok {
			fmt.Fprintln(s.out, color.RedString("%s", parseErr.ErrorWithContext(source)))
		} else {
			fmt.Fprintln(s.out, color.RedString("%s", err.Error()))
		}
		return true
	}
	s.pending.Reset()

	if s.opts.dumpAST {
		for _, stmt := range program.Statements {
			fmt.Fprintln(s.out, stmt)
		}
	}

	result, err := s.run(program)
	if err != nil {
		s.printError(source, err)
		return true
	}

	if errObj, ok := result.(core.Error); ok {
		fmt.Fprintln(s.out, color.RedString("%s", core.FormatDiagnostic(source, errObj.Span, "error: "+errObj.Message)))
		return true
	}

	fmt.Fprintln(s.out, color.GreenString("%s", result.String()))
	return true
}

// incomplete reports whether an unfinished input is being buffered.
func (s *session) incomplete() bool {
	return s.pending.Len() > 0
}

func (s *session) run(program *core.Program) (core.Object, error) {
	if s.opts.engine == engineEval {
		return s.evaluator.Eval(program), nil
	}

	// a line that fails to compile must not leave its lets defined
	compiler := core.NewCompilerWithState(s.symbols.Clone(), s.constants)
	if err := compiler.Compile(program); err != nil {
		return nil, err
	}

	code := compiler.Bytecode()
	s.symbols = compiler.SymbolTable()
	s.constants = code.Constants

	slog.Debug("compiled line",
		slog.Int("bytes", len(code.Instructions)),
		slog.Int("constants", len(code.Constants)))

	if s.opts.dumpBytecode {
		fmt.Fprint(s.out, code)
	}

	vm := core.NewVMWithGlobals(code, s.globals)
	if err := vm.Run(); err != nil {
		return nil, err
	}

	return vm.Result(), nil
}

func (s *session) printError(source string, err error) {
	if compileErr, ok := err.(*core.CompileError); ok {
		fmt.Fprintln(s.out, color.RedString("%s", compileErr.ErrorWithContext(source)))
		return
	}
	fmt.Fprintln(s.out, color.RedString("%s", err.Error()))
}

func (s *session) printEnv() {
	if s.opts.engine == engineEval {
		for _, name := range s.evaluator.Globals() {
			value, _ := s.evaluator.Lookup(name)
			fmt.Fprintf(s.out, "%s = %s\n", name, value)
		}
		return
	}

	for _, name := range s.symbols.Names() {
		symbol, _ := s.symbols.Resolve(name)
		value := s.globals[symbol.Index]
		if value == nil {
			fmt.Fprintf(s.out, "%s (unset)\n", name)
			continue
		}
		fmt.Fprintf(s.out, "%s = %s\n", name, value)
	}
}

func (s *session) printSymbols() {
	if s.opts.engine == engineEval {
		fmt.Fprintln(s.out, "no symbol table with the eval engine")
		return
	}

	for _, name := range s.symbols.Names() {
		symbol, _ := s.symbols.Resolve(name)
		fmt.Fprintf(s.out, "%s %s %d\n", symbol.Name, symbol.Scope, symbol.Index)
	}
}

func repl(opts *options) {
	s := newSession(opts, os.Stdout)

	fd := os.Stdin.Fd()
	if !isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd) {
		slog.Debug("stdin is not a terminal, reading lines")
		runBufferedREPL(s, os.Stdin)
		return
	}

	runInteractiveREPL(s)
}

func runBufferedREPL(s *session, r io.Reader) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if !s.feed(scanner.Text()) {
			return
		}
	}

	if err := scanner.Err(); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("read error:"), err)
	}

	if s.incomplete() {
		fmt.Fprintln(s.out, color.RedString("unexpected end of input"))
	}
}

func runInteractiveREPL(s *session) {
	rl := readline.NewShell()
	rl.Prompt.Primary(func() string {
		if s.incomplete() {
			return ".. "
		}
		return "> "
	})
	rl.SyntaxHighlighter = highlight

	fmt.Printf("ember %s (%s engine), :quit to exit\n", version, s.opts.engine)

	for {
		text, err := rl.Readline()

		if err == io.EOF {
			break
		} else if err != nil {
			fmt.Println(err)
			break
		}

		if !s.feed(text) {
			break
		}
	}
}
