package core

import (
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// EnvID addresses an environment record inside an Environments arena.
type EnvID int

// NoEnv marks the absence of an enclosing environment.
const NoEnv EnvID = -1

type envRecord struct {
	store map[string]Object
	outer EnvID
}

// Environments is an arena of lexical scopes. Closures hold an EnvID instead
// of a pointer, so any number of them can share one record. Records live as
// long as the arena.
type Environments struct {
	records []envRecord
}

func NewEnvironments() *Environments {
	return &Environments{}
}

// New allocates an empty record enclosed by outer (NoEnv for a root).
func (e *Environments) New(outer EnvID) EnvID {
	e.records = append(e.records, envRecord{
		store: make(map[string]Object),
		outer: outer,
	})
	return EnvID(len(e.records) - 1)
}

// Get walks outward from id until name is found.
func (e *Environments) Get(id EnvID, name string) (Object, bool) {
	for id != NoEnv {
		record := &e.records[id]
		if value, ok := record.store[name]; ok {
			return value, true
		}
		id = record.outer
	}
	return nil, false
}

// Set binds name in record id itself, never in an enclosing one.
func (e *Environments) Set(id EnvID, name string, value Object) {
	e.records[id].store[name] = value
}

func (e *Environments) Outer(id EnvID) EnvID {
	return e.records[id].outer
}

// Names lists the bindings of record id in sorted order.
func (e *Environments) Names(id EnvID) []string {
	names := maps.Keys(e.records[id].store)
	slices.Sort(names)
	return names
}

func (e *Environments) Len() int {
	return len(e.records)
}
