package vm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCommands(t *testing.T) {
	commands, err := Parse(strings.NewReader(`
// computes 7 + 8
push constant 7
push constant 8   // inline comment
add

label LOOP
goto LOOP
if-goto END
function Foo.bar 2
call Foo.bar 0
return
pop local 3
`))
	require.NoError(t, err)

	assert.Equal(t, []Command{
		{Type: PushCommand, Arg: "constant", Index: 7, Source: "push constant 7"},
		{Type: PushCommand, Arg: "constant", Index: 8, Source: "push constant 8"},
		{Type: ArithmeticCommand, Arg: "add", Source: "add"},
		{Type: LabelCommand, Arg: "LOOP", Source: "label LOOP"},
		{Type: GotoCommand, Arg: "LOOP", Source: "goto LOOP"},
		{Type: IfGotoCommand, Arg: "END", Source: "if-goto END"},
		{Type: FunctionCommand, Arg: "Foo.bar", Index: 2, Source: "function Foo.bar 2"},
		{Type: CallCommand, Arg: "Foo.bar", Index: 0, Source: "call Foo.bar 0"},
		{Type: ReturnCommand, Source: "return"},
		{Type: PopCommand, Arg: "local", Index: 3, Source: "pop local 3"},
	}, commands)
}

func TestParseErrors(t *testing.T) {
	for _, tc := range []struct {
		name string
		src  string
		want string
	}{
		{"unknown command", "frobnicate", `line 1: unknown command "frobnicate"`},
		{"unknown segment", "push heap 0", `line 1: unknown segment "heap"`},
		{"bad index", "pop local x", `line 1: bad segment index "x"`},
		{"negative index", "push constant -1", `line 1: bad segment index "-1"`},
		{"missing label", "goto", `line 1: goto takes exactly one label: "goto"`},
		{"extra args", "add 1", `line 1: add takes no arguments: "add 1"`},
		{"late error", "add\nsub\nbogus", `line 3: unknown command "bogus"`},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tc.src))
			assert.EqualError(t, err, tc.want)
		})
	}
}
