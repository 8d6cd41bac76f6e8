package vm_test

import (
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/libklein/nand2tetris/hack"
	"github.com/libklein/nand2tetris/jack"
	"github.com/libklein/nand2tetris/vm"
)

// machine interprets assembled binary instructions; just enough CPU to
// exercise the translated stack code.
type machine struct {
	ram map[int16]int16
	a   int16
	d   int16
	pc  int
}

func newMachine() *machine {
	return &machine{ram: make(map[int16]int16)}
}

func alu(bits string, d, x int16) int16 {
	switch bits {
	case "101010":
		return 0
	case "111111":
		return 1
	case "111010":
		return -1
	case "001100":
		return d
	case "110000":
		return x
	case "001101":
		return ^d
	case "110001":
		return ^x
	case "001111":
		return -d
	case "110011":
		return -x
	case "011111":
		return d + 1
	case "110111":
		return x + 1
	case "001110":
		return d - 1
	case "110010":
		return x - 1
	case "000010":
		return d + x
	case "010011":
		return d - x
	case "000111":
		return x - d
	case "000000":
		return d & x
	case "010101":
		return d | x
	}
	panic("unknown computation bits " + bits)
}

func (m *machine) run(t *testing.T, program []string, maxSteps int) {
	t.Helper()
	for steps := 0; steps < maxSteps && m.pc < len(program); steps++ {
		instruction := program[m.pc]
		require.Len(t, instruction, 16)

		if instruction[0] == '0' {
			value, err := strconv.ParseInt(instruction[1:], 2, 32)
			require.NoError(t, err)
			m.a = int16(value)
			m.pc++
			continue
		}

		x := m.a
		if instruction[3] == '1' {
			x = m.ram[m.a]
		}
		out := alu(instruction[4:10], m.d, x)

		dest, jump, oldA := instruction[10:13], instruction[13:16], m.a
		if dest[2] == '1' {
			m.ram[oldA] = out
		}
		if dest[1] == '1' {
			m.d = out
		}
		if dest[0] == '1' {
			m.a = out
		}

		if (jump[0] == '1' && out < 0) || (jump[1] == '1' && out == 0) || (jump[2] == '1' && out > 0) {
			m.pc = int(oldA)
		} else {
			m.pc++
		}
	}
}

// translateAndAssemble runs VM source through the translator and assembler.
func translateAndAssemble(t *testing.T, src string, bootstrap bool) []string {
	t.Helper()
	commands, err := vm.Parse(strings.NewReader(src))
	require.NoError(t, err)

	var asm strings.Builder
	files := []vm.File{{Name: "Test", Commands: commands}}
	require.NoError(t, vm.Translate(&asm, "Test", files, bootstrap))

	program, err := hack.Assemble([]byte(asm.String()))
	require.NoError(t, err)
	return program
}

func TestExecuteAddition(t *testing.T) {
	program := translateAndAssemble(t, "push constant 7\npush constant 8\nadd", false)

	m := newMachine()
	m.ram[0] = 256
	m.run(t, program, 1000)

	require.Equal(t, int16(257), m.ram[0], "expected SP=257")
	require.Equal(t, int16(15), m.ram[256], "expected 15 at *(SP-1)")
}

func TestExecuteArithmetic(t *testing.T) {
	for _, tc := range []struct {
		src  string
		want int16
	}{
		{"push constant 8\npush constant 7\nsub", 1},
		{"push constant 7\nneg", -7},
		{"push constant 0\nnot", -1},
		{"push constant 5\npush constant 3\nand", 1},
		{"push constant 5\npush constant 2\nor", 7},
		{"push constant 5\npush constant 7\nlt", -1},
		{"push constant 7\npush constant 5\nlt", 0},
		{"push constant 7\npush constant 5\ngt", -1},
		{"push constant 5\npush constant 5\neq", -1},
		{"push constant 5\npush constant 6\neq", 0},
	} {
		t.Run(strings.ReplaceAll(tc.src, "\n", "; "), func(t *testing.T) {
			program := translateAndAssemble(t, tc.src, false)

			m := newMachine()
			m.ram[0] = 256
			m.run(t, program, 1000)

			require.Equal(t, tc.want, m.ram[256], "expected result at stack base")
		})
	}
}

func TestExecuteMemorySegments(t *testing.T) {
	// move a constant through a local and a static variable
	src := strings.Join([]string{
		"push constant 42",
		"pop local 1",
		"push local 1",
		"pop static 0",
		"push static 0",
		"push constant 1",
		"add",
	}, "\n")
	program := translateAndAssemble(t, src, false)

	m := newMachine()
	m.ram[0] = 256  // SP
	m.ram[1] = 300  // LCL
	m.run(t, program, 1000)

	require.Equal(t, int16(42), m.ram[301], "expected local 1 at LCL+1")
	require.Equal(t, int16(257), m.ram[0])
	require.Equal(t, int16(43), m.ram[256])
}

func TestExecuteBranchTaken(t *testing.T) {
	src := strings.Join([]string{
		"push constant 1",
		"if-goto TAKEN",
		"push constant 100",
		"pop temp 0",
		"label TAKEN",
		"push constant 55",
		"pop temp 1",
	}, "\n")
	program := translateAndAssemble(t, src, false)

	m := newMachine()
	m.ram[0] = 256
	m.run(t, program, 1000)

	require.Equal(t, int16(0), m.ram[5], "expected the skipped pop to not run")
	require.Equal(t, int16(55), m.ram[6])
	require.Equal(t, int16(256), m.ram[0], "expected a balanced stack")
}

func TestExecuteBranchNotTaken(t *testing.T) {
	src := strings.Join([]string{
		"push constant 0",
		"if-goto SKIP",
		"push constant 100",
		"pop temp 0",
		"label SKIP",
	}, "\n")
	program := translateAndAssemble(t, src, false)

	m := newMachine()
	m.ram[0] = 256
	m.run(t, program, 1000)

	require.Equal(t, int16(100), m.ram[5])
}

// TestExecuteCompiledJack drives the whole pipeline: Jack source through the
// compiler, translator and assembler, executed on the test CPU.
func TestExecuteCompiledJack(t *testing.T) {
	src := `
class Sys {
    function void init() {
        var int r;
        let r = Sys.twice(5) + 2;
        while (true) { }
    }
    function int twice(int x) {
        return x + x;
    }
}`
	var vmText strings.Builder
	require.NoError(t, jack.Compile("Sys.jack", []byte(src), &vmText))

	commands, err := vm.Parse(strings.NewReader(vmText.String()))
	require.NoError(t, err)

	var asm strings.Builder
	files := []vm.File{{Name: "Sys", Commands: commands}}
	require.NoError(t, vm.Translate(&asm, "Sys", files, true))

	program, err := hack.Assemble([]byte(asm.String()))
	require.NoError(t, err)

	m := newMachine()
	m.run(t, program, 5000)

	// Sys.init's local 0 sits at the base of its frame, right above the
	// 256..260 frame the bootstrap call pushed.
	require.Equal(t, int16(12), m.ram[261], "expected r = twice(5) + 2")
}

func TestExecuteCallAndReturn(t *testing.T) {
	src := strings.Join([]string{
		"function Sys.init 0",
		"push constant 7",
		"push constant 8",
		"call Sys.add2 2",
		"label HALT",
		"goto HALT",
		"function Sys.add2 1",
		"push argument 0",
		"push argument 1",
		"add",
		"pop local 0",
		"push local 0",
		"return",
	}, "\n")
	program := translateAndAssemble(t, src, true)

	m := newMachine()
	m.run(t, program, 5000)

	// bootstrap: SP=256, call Sys.init pushes a 5-word frame; Sys.init
	// pushes 7 and 8, calls Sys.add2, and the result replaces the
	// arguments on the stack.
	require.Equal(t, int16(262), m.ram[0], "expected SP just above the result")
	require.Equal(t, int16(15), m.ram[261], "expected return value on top of the stack")
}
