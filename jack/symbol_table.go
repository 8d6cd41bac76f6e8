package jack

import (
	log "github.com/sirupsen/logrus"
)

// SymbolTable maps names to symbols within one scope. The parser keeps two of
// them: a class table living for the whole class and a subroutine table reset
// at each subroutine declaration.
type SymbolTable struct {
	symbols  map[string]VarSymbol
	counters map[Kind]MachineWord
}

func NewSymbolTable() *SymbolTable {
	return &SymbolTable{
		symbols:  make(map[string]VarSymbol),
		counters: make(map[Kind]MachineWord),
	}
}

// Define registers a symbol and assigns it the next index of its kind.
// Redefining a name silently overwrites the previous entry.
func (s *SymbolTable) Define(name string, varType string, kind Kind) VarSymbol {
	symbol := VarSymbol{
		Name:  name,
		Type:  varType,
		Kind:  kind,
		Index: s.counters[kind],
	}
	s.symbols[name] = symbol
	s.counters[kind] = symbol.Index + 1
	log.Debugf("registered symbol %q: %s %s %d", name, kind, varType, symbol.Index)
	return symbol
}

// VarCount returns the number of definitions of the given kind since the last
// Reset, which is also the next index of that kind. A redefined name is
// counted again.
func (s *SymbolTable) VarCount(kind Kind) MachineWord {
	return s.counters[kind]
}

func (s *SymbolTable) Lookup(name string) (VarSymbol, bool) {
	symbol, ok := s.symbols[name]
	return symbol, ok
}

// Reset clears all entries and zeroes the per-kind counters.
func (s *SymbolTable) Reset() {
	s.symbols = make(map[string]VarSymbol)
	s.counters = make(map[Kind]MachineWord)
}
