package jack

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVMWriterBuffersUntilFunction(t *testing.T) {
	var out strings.Builder
	writer := NewVMWriter(&out)

	writer.WritePush(ConstantSegment, 7)
	writer.WritePop(LocalSegment, 0)
	assert.Empty(t, out.String(), "expected body to stay buffered")

	writer.WriteFunction("Foo.bar", 1)
	assert.Equal(t, "function Foo.bar 1\npush constant 7\npop local 0\n", out.String())
}

func TestVMWriterClearsBufferBetweenSubroutines(t *testing.T) {
	var out strings.Builder
	writer := NewVMWriter(&out)

	writer.WriteReturn()
	writer.WriteFunction("Foo.a", 0)
	writer.WriteReturn()
	writer.WriteFunction("Foo.b", 0)

	assert.Equal(t, "function Foo.a 0\nreturn\nfunction Foo.b 0\nreturn\n", out.String())
}

func TestVMWriterAllocLabel(t *testing.T) {
	writer := NewVMWriter(&strings.Builder{})
	assert.Equal(t, "L0", writer.AllocLabel())
	assert.Equal(t, "L1", writer.AllocLabel())
	assert.Equal(t, "L2", writer.AllocLabel())
}

func TestVMWriterCommands(t *testing.T) {
	var out strings.Builder
	writer := NewVMWriter(&out)

	writer.WriteLabel("L0")
	writer.WriteGoto("L1")
	writer.WriteIf("L2")
	writer.WriteCall("Math.max", 2)
	writer.WriteArithmetic(AddOperation)
	writer.WriteFunction("Foo.f", 0)

	assert.Equal(t, `function Foo.f 0
label L0
goto L1
if-goto L2
call Math.max 2
add
`, out.String())
}

func TestVMWriterStringConstant(t *testing.T) {
	var out strings.Builder
	writer := NewVMWriter(&out)

	writer.WriteStringConstant("Hi")
	writer.WriteFunction("Foo.f", 0)

	assert.Equal(t, `function Foo.f 0
push constant 2
call String.new 1
push constant 72
call String.appendChar 2
push constant 105
call String.appendChar 2
`, out.String())
}
