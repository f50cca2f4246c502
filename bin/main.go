package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"git.sr.ht/~sircmpwn/getopt"
	"github.com/fatih/color"

	"github.com/ajkachnic/ember/core"
)

const version = "0.1.0"

const helpMessage = `ember is a tiny expression language.

Usage:
  ember [options] [file]

Options:
  -a         print the AST before running
  -b         print the bytecode before running (vm engine)
  -e engine  eval or vm (default vm, or $EMBER_ENGINE)
  -v         trace each phase on stderr
  -h         show this help
`

type engine string

const (
	engineEval engine = "eval"
	engineVM   engine = "vm"
)

type options struct {
	dumpAST      bool
	dumpBytecode bool
	engine       engine
	verbose      bool
}

// readFlags parses argv into opts and returns the remaining arguments.
func readFlags(argv []string, opts *options) ([]string, error) {
	opts.engine = engineVM
	if env := os.Getenv("EMBER_ENGINE"); env != "" {
		opts.engine = engine(env)
	}

	parsed, optind, err := getopt.Getopts(argv, "abe:vh")
	if err != nil {
		return nil, err
	}

	for _, opt := range parsed {
		switch opt.Option {
		case 'a':
			opts.dumpAST = true
		case 'b':
			opts.dumpBytecode = true
		case 'e':
			opts.engine = engine(opt.Value)
		case 'v':
			opts.verbose = true
		case 'h':
			fmt.Print(helpMessage)
			os.Exit(0)
		}
	}

	if opts.engine != engineEval && opts.engine != engineVM {
		return nil, fmt.Errorf("unknown engine %q (want eval or vm)", opts.engine)
	}

	return argv[optind:], nil
}

func main() {
	var opts options
	args, err := readFlags(os.Args, &opts)
	if err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("error:"), err)
		fmt.Fprint(os.Stderr, helpMessage)
		os.Exit(2)
	}

	level := slog.LevelWarn
	if opts.verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	slog.Debug("starting", slog.String("version", version), slog.String("engine", string(opts.engine)))

	if len(args) == 0 {
		repl(&opts)
		return
	}

	if err := runFile(&opts, args[0], os.Stdout, os.Stderr); err != nil {
		os.Exit(1)
	}
}

// runFile runs the script at path and prints its value to out. Diagnostics
// go to errOut.
func runFile(opts *options, path string, out, errOut io.Writer) error {
	content, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintln(errOut, color.RedString("error:"), err)
		return err
	}
	source := string(content)

	slog.Debug("read source", slog.String("path", path), slog.Int("bytes", len(content)))

	program, err := core.Parse(source)
	if err != nil {
		reportError(errOut, source, err)
		return err
	}

	slog.Debug("parsed", slog.Int("statements", len(program.Statements)))

	if opts.dumpAST {
		printAST(out, program)
	}

	var result core.Object
	switch opts.engine {
	case engineEval:
		result = core.Evaluate(program)
	default:
		code, err := core.Compile(program)
		if err != nil {
			reportError(errOut, source, err)
			return err
		}

		slog.Debug("compiled",
			slog.Int("bytes", len(code.Instructions)),
			slog.Int("constants", len(code.Constants)))

		if opts.dumpBytecode {
			printBytecode(out, code)
		}

		result, err = core.Execute(code)
		if err != nil {
			reportError(errOut, source, err)
			return err
		}
	}

	if errObj, ok := result.(core.Error); ok {
		reportError(errOut, source, errObj)
		return errors.New(errObj.Message)
	}

	slog.Debug("finished", slog.String("result", result.String()))
	fmt.Fprintln(out, color.GreenString("%s", result.String()))

	return nil
}

// reportError prints err with a source excerpt when it carries a location.
func reportError(w io.Writer, source string, err interface{}) {
	var parseErr *core.ParseError
	var compileErr *core.CompileError
	var runtimeErr *core.RuntimeError

	switch e := err.(type) {
	case core.Error:
		fmt.Fprintln(w, color.RedString("%s", core.FormatDiagnostic(source, e.Span, "error: "+e.Message)))
		return
	case error:
		switch {
		case errors.As(e, &parseErr):
			fmt.Fprintln(w, color.RedString("%s", parseErr.ErrorWithContext(source)))
		case errors.As(e, &compileErr):
			fmt.Fprintln(w, color.RedString("%s", compileErr.ErrorWithContext(source)))
		case errors.As(e, &runtimeErr):
			fmt.Fprintln(w, color.RedString("%s", runtimeErr.ErrorWithContext(source)))
		default:
			fmt.Fprintln(w, color.RedString("%s", e.Error()))
		}
	}
}

func printAST(w io.Writer, program *core.Program) {
	for _, stmt := range program.Statements {
		fmt.Fprintln(w, stmt)
	}
}

// printBytecode prints the disassembly with instruction offsets highlighted.
func printBytecode(w io.Writer, code *core.Bytecode) {
	for _, line := range strings.Split(strings.TrimRight(code.String(), "\n"), "\n") {
		if len(line) > 4 && line[4] == ' ' && isDigits(line[:4]) {
			fmt.Fprintln(w, color.CyanString("%s", line[:4])+line[4:])
			continue
		}
		fmt.Fprintln(w, line)
	}
}

func isDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
