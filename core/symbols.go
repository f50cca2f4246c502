package core

import (
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

type SymbolScope string

const (
	GlobalScope   SymbolScope = "GLOBAL"
	LocalScope    SymbolScope = "LOCAL"
	FreeScope     SymbolScope = "FREE"
	FunctionScope SymbolScope = "FUNCTION"
)

type Symbol struct {
	Name  string
	Scope SymbolScope
	Index int
}

// SymbolTable maps names to slots. The outermost table hands out global
// slots; each function body gets an enclosed table with local slots.
type SymbolTable struct {
	Outer *SymbolTable

	store          map[string]Symbol
	numDefinitions int
	FreeSymbols    []Symbol
}

func NewSymbolTable() *SymbolTable {
	return &SymbolTable{store: make(map[string]Symbol), FreeSymbols: []Symbol{}}
}

func NewEnclosedSymbolTable(outer *SymbolTable) *SymbolTable {
	s := NewSymbolTable()
	s.Outer = outer
	return s
}

// Clone copies the table's own bindings. Enclosing tables are shared.
func (s *SymbolTable) Clone() *SymbolTable {
	return &SymbolTable{
		Outer:          s.Outer,
		store:          maps.Clone(s.store),
		numDefinitions: s.numDefinitions,
		FreeSymbols:    slices.Clone(s.FreeSymbols),
	}
}

// Define binds name to a slot of this table. Slots are handed out in
// first-definition order; defining a name again reuses its slot.
func (s *SymbolTable) Define(name string) Symbol {
	scope := LocalScope
	if s.Outer == nil {
		scope = GlobalScope
	}

	if existing, ok := s.store[name]; ok && existing.Scope == scope {
		return existing
	}

	symbol := Symbol{Name: name, Scope: scope, Index: s.numDefinitions}
	s.numDefinitions++

	s.store[name] = symbol
	return symbol
}

// DefineFunctionName makes a function's own name resolve to the closure
// being executed, so let-bound functions can recurse.
func (s *SymbolTable) DefineFunctionName(name string) Symbol {
	symbol := Symbol{Name: name, Scope: FunctionScope, Index: 0}
	s.store[name] = symbol
	return symbol
}

func (s *SymbolTable) defineFree(original Symbol) Symbol {
	s.FreeSymbols = append(s.FreeSymbols, original)

	symbol := Symbol{
		Name:  original.Name,
		Index: len(s.FreeSymbols) - 1,
		Scope: FreeScope,
	}

	s.store[original.Name] = symbol
	return symbol
}

// Resolve looks name up through the enclosing tables. A local of an
// enclosing function becomes a free symbol of this one.
func (s *SymbolTable) Resolve(name string) (Symbol, bool) {
	obj, ok := s.store[name]
	if ok || s.Outer == nil {
		return obj, ok
	}

	obj, ok = s.Outer.Resolve(name)
	if !ok {
		return obj, ok
	}

	if obj.Scope == GlobalScope {
		return obj, ok
	}

	return s.defineFree(obj), true
}

// NumDefinitions is the number of slots handed out by this table.
func (s *SymbolTable) NumDefinitions() int {
	return s.numDefinitions
}

// Names lists the names this table resolves directly, sorted.
func (s *SymbolTable) Names() []string {
	names := maps.Keys(s.store)
	slices.Sort(names)
	return names
}
