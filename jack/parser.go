package jack

import (
	"fmt"
	"io"
)

type SubroutineType string

const (
	InvalidSubroutineType     SubroutineType = ""
	MethodSubroutineType      SubroutineType = "method"
	FunctionSubroutineType    SubroutineType = "function"
	ConstructorSubroutineType SubroutineType = "constructor"
)

type TokenScanner interface {
	HasMore() bool
	Peek() Token
	Consume() Token
	Matches(TokenType, ...string) bool
	Expect(TokenType, ...string) Token
}

type OutputWriter interface {
	AllocLabel() string
	WriteCommand(string)
	WritePush(Segment, MachineWord)
	WritePop(Segment, MachineWord)
	WriteArithmetic(VMOperation)
	WriteLabel(string)
	WriteGoto(string)
	WriteIf(string)
	WriteCall(string, MachineWord)
	WriteFunction(string, MachineWord)
	WriteStringConstant(string)
	WriteReturn()
}

// Compiler parses one Jack class by recursive descent and emits VM commands
// through the writer as it goes.
type Compiler struct {
	path            string
	tokens          TokenScanner
	output          OutputWriter
	classTable      *SymbolTable
	subroutineTable *SymbolTable
	className       string
}

func NewCompiler(path string, tokens TokenScanner, output OutputWriter) *Compiler {
	return &Compiler{
		path:            path,
		tokens:          tokens,
		output:          output,
		classTable:      NewSymbolTable(),
		subroutineTable: NewSymbolTable(),
	}
}

// Compile compiles one Jack class source into VM commands on w.
func Compile(path string, src []byte, w io.Writer) (err error) {
	defer recoverSourceError(&err)
	NewCompiler(path, NewTokenizer(path, src), NewVMWriter(w)).Compile()
	return nil
}

func (c *Compiler) Compile() {
	c.compileClass()
	if c.tokens.HasMore() {
		token := c.tokens.Peek()
		c.failAt(token, "unexpected token %q after class", token.Content)
	}
}

func (c *Compiler) failAt(token Token, format string, args ...interface{}) {
	panic(&SourceError{
		Message: fmt.Sprintf(format, args...),
		Path:    c.path,
		Line:    token.Line,
		Column:  token.Column,
	})
}

// lookup resolves a name subroutine-scope first, then class scope.
func (c *Compiler) lookup(name string) (VarSymbol, bool) {
	if symbol, ok := c.subroutineTable.Lookup(name); ok {
		return symbol, ok
	}
	return c.classTable.Lookup(name)
}

// variableAccess resolves an identifier token to its segment and index.
// Undefined identifiers are fatal.
func (c *Compiler) variableAccess(token Token) (Segment, MachineWord) {
	symbol, ok := c.lookup(token.Content)
	if !ok {
		c.failAt(token, "undefined identifier %q", token.Content)
	}
	return symbol.Kind.Segment(), symbol.Index
}

func (c *Compiler) compileClass() {
	c.tokens.Expect(Keyword, "class")
	c.className = c.tokens.Expect(Identifier).Content
	c.classTable.Reset()

	c.tokens.Expect(Symbol, "{")
	for c.tokens.Matches(Keyword, "static", "field") {
		c.compileClassVarDec()
	}
	for c.tokens.Matches(Keyword, "constructor", "function", "method") {
		c.compileSubroutineDec()
	}
	c.tokens.Expect(Symbol, "}")
}

func (c *Compiler) compileClassVarDec() {
	kind := FieldKind
	if c.tokens.Expect(Keyword, "static", "field").Content == "static" {
		kind = StaticKind
	}
	c.compileVarSequence(kind, c.classTable)
}

// compileVarSequence parses `type name (',' name)* ';'`, registering each
// name in the given table.
func (c *Compiler) compileVarSequence(kind Kind, table *SymbolTable) {
	varType := c.compileType()
	for {
		name := c.tokens.Expect(Identifier).Content
		table.Define(name, varType, kind)
		if !c.tokens.Matches(Symbol, ",") {
			break
		}
		c.tokens.Expect(Symbol, ",")
	}
	c.tokens.Expect(Symbol, ";")
}

func (c *Compiler) compileType() string {
	token := c.tokens.Peek()
	if token.Is(Keyword, "int", "char", "boolean") || token.Is(Identifier) {
		return c.tokens.Consume().Content
	}
	c.failAt(token, "expected type, found %s(%s)", token.Type, token.Content)
	return ""
}

func (c *Compiler) compileSubroutineDec() {
	subroutineType := SubroutineType(c.tokens.Expect(Keyword, "constructor", "function", "method").Content)

	c.subroutineTable.Reset()
	if subroutineType == MethodSubroutineType {
		// Methods receive the receiver as a hidden first argument.
		c.subroutineTable.Define("this", c.className, ArgKind)
	}

	if c.tokens.Matches(Keyword, "void") {
		c.tokens.Consume()
	} else {
		c.compileType()
	}

	name := c.tokens.Expect(Identifier).Content
	c.tokens.Expect(Symbol, "(")
	if !c.tokens.Matches(Symbol, ")") {
		c.compileParameterList()
	}
	c.tokens.Expect(Symbol, ")")

	c.compileSubroutineBody(name, subroutineType)
}

func (c *Compiler) compileParameterList() {
	for {
		varType := c.compileType()
		name := c.tokens.Expect(Identifier).Content
		c.subroutineTable.Define(name, varType, ArgKind)
		if !c.tokens.Matches(Symbol, ",") {
			break
		}
		c.tokens.Expect(Symbol, ",")
	}
}

func (c *Compiler) compileSubroutineBody(name string, subroutineType SubroutineType) {
	c.tokens.Expect(Symbol, "{")
	for c.tokens.Matches(Keyword, "var") {
		c.compileVarDec()
	}

	switch subroutineType {
	case ConstructorSubroutineType:
		// Allocate the object and set the this pointer.
		c.output.WritePush(ConstantSegment, c.classTable.VarCount(FieldKind))
		c.output.WriteCall("Memory.alloc", 1)
		c.output.WritePop(PointerSegment, 0)
	case MethodSubroutineType:
		c.output.WritePush(ArgumentSegment, 0)
		c.output.WritePop(PointerSegment, 0)
	}

	c.compileStatements()
	c.tokens.Expect(Symbol, "}")

	// The body is fully buffered now, so the local count is final.
	c.output.WriteFunction(c.className+"."+name, c.subroutineTable.VarCount(VarKind))
}

func (c *Compiler) compileVarDec() {
	c.tokens.Expect(Keyword, "var")
	c.compileVarSequence(VarKind, c.subroutineTable)
}

func (c *Compiler) compileStatements() {
	for {
		switch token := c.tokens.Peek(); {
		case token.Is(Keyword, "let"):
			c.compileLet()
		case token.Is(Keyword, "if"):
			c.compileIf()
		case token.Is(Keyword, "while"):
			c.compileWhile()
		case token.Is(Keyword, "do"):
			c.compileDo()
		case token.Is(Keyword, "return"):
			c.compileReturn()
		default:
			return
		}
	}
}

func (c *Compiler) compileLet() {
	c.tokens.Expect(Keyword, "let")
	nameToken := c.tokens.Expect(Identifier)

	if c.tokens.Matches(Symbol, "[") {
		c.compileArrayAddress(nameToken)

		c.tokens.Expect(Symbol, "=")
		c.compileExpression()
		c.tokens.Expect(Symbol, ";")

		// Stash the value so the address survives even if the RHS
		// clobbered that, then point that at the destination.
		c.output.WritePop(TempSegment, 0)
		c.output.WritePop(PointerSegment, 1)
		c.output.WritePush(TempSegment, 0)
		c.output.WritePop(ThatSegment, 0)
		return
	}

	c.tokens.Expect(Symbol, "=")
	c.compileExpression()
	c.tokens.Expect(Symbol, ";")

	segment, index := c.variableAccess(nameToken)
	c.output.WritePop(segment, index)
}

func (c *Compiler) compileIf() {
	c.tokens.Expect(Keyword, "if")
	c.tokens.Expect(Symbol, "(")
	c.compileExpression()
	c.tokens.Expect(Symbol, ")")

	elseLabel := c.output.AllocLabel()
	c.output.WriteArithmetic(NotOperation)
	c.output.WriteIf(elseLabel)

	c.tokens.Expect(Symbol, "{")
	c.compileStatements()
	c.tokens.Expect(Symbol, "}")

	if !c.tokens.Matches(Keyword, "else") {
		c.output.WriteLabel(elseLabel)
		return
	}

	endLabel := c.output.AllocLabel()
	c.output.WriteGoto(endLabel)
	c.output.WriteLabel(elseLabel)

	c.tokens.Expect(Keyword, "else")
	c.tokens.Expect(Symbol, "{")
	c.compileStatements()
	c.tokens.Expect(Symbol, "}")

	c.output.WriteLabel(endLabel)
}

func (c *Compiler) compileWhile() {
	c.tokens.Expect(Keyword, "while")

	beginLabel := c.output.AllocLabel()
	exitLabel := c.output.AllocLabel()
	c.output.WriteLabel(beginLabel)

	c.tokens.Expect(Symbol, "(")
	c.compileExpression()
	c.tokens.Expect(Symbol, ")")

	c.output.WriteArithmetic(NotOperation)
	c.output.WriteIf(exitLabel)

	c.tokens.Expect(Symbol, "{")
	c.compileStatements()
	c.tokens.Expect(Symbol, "}")

	c.output.WriteGoto(beginLabel)
	c.output.WriteLabel(exitLabel)
}

func (c *Compiler) compileDo() {
	c.tokens.Expect(Keyword, "do")
	c.compileSubroutineCall(c.tokens.Expect(Identifier))
	// Discard the unused return value.
	c.output.WritePop(TempSegment, 0)
	c.tokens.Expect(Symbol, ";")
}

func (c *Compiler) compileReturn() {
	c.tokens.Expect(Keyword, "return")
	if c.tokens.Matches(Symbol, ";") {
		// void subroutines still return a word
		c.output.WritePush(ConstantSegment, 0)
	} else {
		c.compileExpression()
	}
	c.output.WriteReturn()
	c.tokens.Expect(Symbol, ";")
}

// compileExpression compiles `term (op term)*`. Operators are strictly
// left-associative with no precedence.
func (c *Compiler) compileExpression() {
	c.compileTerm()
	for isBinaryOp(c.tokens.Peek()) {
		op := c.tokens.Consume()
		c.compileTerm()
		c.writeBinaryOp(op)
	}
}

func (c *Compiler) writeBinaryOp(token Token) {
	switch token.Content {
	case "+":
		c.output.WriteArithmetic(AddOperation)
	case "-":
		c.output.WriteArithmetic(SubOperation)
	case "*":
		c.output.WriteCall("Math.multiply", 2)
	case "/":
		c.output.WriteCall("Math.divide", 2)
	case "&":
		c.output.WriteArithmetic(AndOperation)
	case "|":
		c.output.WriteArithmetic(OrOperation)
	case "<":
		c.output.WriteArithmetic(LtOperation)
	case ">":
		c.output.WriteArithmetic(GtOperation)
	case "=":
		c.output.WriteArithmetic(EqOperation)
	default:
		c.failAt(token, "unknown operator %q", token.Content)
	}
}

// compileExpressionList compiles `(expression (',' expression)*)?` and
// returns the number of expressions.
func (c *Compiler) compileExpressionList() (nargs MachineWord) {
	if c.tokens.Matches(Symbol, ")") {
		return 0
	}
	for {
		c.compileExpression()
		nargs++
		if !c.tokens.Matches(Symbol, ",") {
			return nargs
		}
		c.tokens.Expect(Symbol, ",")
	}
}

// compileSubroutineCall compiles a call whose leading identifier has already
// been consumed.
//
//	do Memory.init();    function or constructor call on a class
//	do square.dispose(); method call on an object variable
//	do draw();           method call on this, class-qualified implicitly
func (c *Compiler) compileSubroutineCall(nameToken Token) {
	switch token := c.tokens.Peek(); {
	case token.Is(Symbol, "."):
		c.tokens.Expect(Symbol, ".")
		methodName := c.tokens.Expect(Identifier).Content

		callName := nameToken.Content + "." + methodName
		nargs := MachineWord(0)
		if symbol, ok := c.lookup(nameToken.Content); ok {
			// Method call: the object becomes the hidden this argument
			// and its declared type qualifies the call.
			segment, index := c.variableAccess(nameToken)
			c.output.WritePush(segment, index)
			callName = symbol.Type + "." + methodName
			nargs = 1
		}

		c.tokens.Expect(Symbol, "(")
		nargs += c.compileExpressionList()
		c.tokens.Expect(Symbol, ")")
		c.output.WriteCall(callName, nargs)
	case token.Is(Symbol, "("):
		// Unqualified calls are method calls on the current object.
		c.output.WritePush(PointerSegment, 0)
		c.tokens.Expect(Symbol, "(")
		nargs := 1 + c.compileExpressionList()
		c.tokens.Expect(Symbol, ")")
		c.output.WriteCall(c.className+"."+nameToken.Content, nargs)
	default:
		c.failAt(token, "expected ( or ., found %s(%s)", token.Type, token.Content)
	}
}

func (c *Compiler) compileTerm() {
	switch token := c.tokens.Peek(); {
	case token.Is(IntegerConstant):
		c.tokens.Consume()
		constant, err := token.AsInt()
		if err != nil {
			c.failAt(token, "%v", err)
		}
		c.output.WritePush(ConstantSegment, constant)
	case token.Is(StringConstant):
		c.tokens.Consume()
		c.output.WriteStringConstant(token.Content)
	case token.Is(Keyword, "true"):
		c.tokens.Consume()
		c.output.WritePush(ConstantSegment, 1)
		c.output.WriteArithmetic(NegOperation)
	case token.Is(Keyword, "false", "null"):
		c.tokens.Consume()
		c.output.WritePush(ConstantSegment, 0)
	case token.Is(Keyword, "this"):
		c.tokens.Consume()
		c.output.WritePush(PointerSegment, 0)
	case token.Is(Symbol, "("):
		c.tokens.Expect(Symbol, "(")
		c.compileExpression()
		c.tokens.Expect(Symbol, ")")
	case token.Is(Symbol, "-"):
		c.tokens.Consume()
		c.compileTerm()
		c.output.WriteArithmetic(NegOperation)
	case token.Is(Symbol, "~"):
		c.tokens.Consume()
		c.compileTerm()
		c.output.WriteArithmetic(NotOperation)
	case token.Is(Identifier):
		c.compileVarNameTerm(c.tokens.Consume())
	default:
		c.failAt(token, "unexpected token %s(%s)", token.Type, token.Content)
	}
}

// compileVarNameTerm dispatches an identifier term on its following token:
// array read, subroutine call, or plain variable access.
func (c *Compiler) compileVarNameTerm(nameToken Token) {
	switch {
	case c.tokens.Matches(Symbol, "["):
		c.compileArrayAddress(nameToken)
		c.output.WritePop(PointerSegment, 1)
		c.output.WritePush(ThatSegment, 0)
	case c.tokens.Matches(Symbol, "(") || c.tokens.Matches(Symbol, "."):
		c.compileSubroutineCall(nameToken)
	default:
		segment, index := c.variableAccess(nameToken)
		c.output.WritePush(segment, index)
	}
}

// compileArrayAddress compiles `'[' expression ']'`, leaving the element
// address base + index on the stack.
func (c *Compiler) compileArrayAddress(nameToken Token) {
	c.tokens.Expect(Symbol, "[")
	segment, index := c.variableAccess(nameToken)
	c.output.WritePush(segment, index)
	c.compileExpression()
	c.output.WriteArithmetic(AddOperation)
	c.tokens.Expect(Symbol, "]")
}

func isBinaryOp(token Token) bool {
	return token.Is(Symbol, "+", "-", "*", "/", "&", "|", "<", ">", "=")
}
