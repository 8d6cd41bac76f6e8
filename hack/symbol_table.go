package hack

// firstVariableAddress is the RAM slot assigned to the first user variable;
// R0..R15 occupy the slots below it.
const firstVariableAddress = 16

// SymbolTable maps assembly symbols to 16 bit addresses. Labels are bound
// during the first pass, variables allocated during the second.
type SymbolTable struct {
	symbols      map[string]uint16
	nextVariable uint16
}

func NewSymbolTable() *SymbolTable {
	return &SymbolTable{
		symbols: map[string]uint16{
			"SP":     0,
			"LCL":    1,
			"ARG":    2,
			"THIS":   3,
			"THAT":   4,
			"R0":     0,
			"R1":     1,
			"R2":     2,
			"R3":     3,
			"R4":     4,
			"R5":     5,
			"R6":     6,
			"R7":     7,
			"R8":     8,
			"R9":     9,
			"R10":    10,
			"R11":    11,
			"R12":    12,
			"R13":    13,
			"R14":    14,
			"R15":    15,
			"SCREEN": 16384,
			"KBD":    24576,
		},
		nextVariable: firstVariableAddress,
	}
}

func (s *SymbolTable) Resolve(name string) (uint16, bool) {
	address, ok := s.symbols[name]
	return address, ok
}

// Bind binds a label to an instruction address.
func (s *SymbolTable) Bind(name string, address uint16) {
	s.symbols[name] = address
}

// Allocate assigns name the next free variable slot and returns it.
func (s *SymbolTable) Allocate(name string) uint16 {
	address := s.nextVariable
	s.symbols[name] = address
	s.nextVariable++
	return address
}
