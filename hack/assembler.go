package hack

import (
	"bufio"
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

type sourceLine struct {
	text   string
	lineno int
}

// Assemble translates symbolic Hack assembly into binary instructions, one
// 16-character 0/1 string per instruction. Labels are resolved in a first
// pass, variables allocated from RAM slot 16 in instruction order during the
// second.
func Assemble(src []byte) ([]string, error) {
	symbols := NewSymbolTable()

	instructions, err := bindLabels(src, symbols)
	if err != nil {
		return nil, err
	}

	encoded := make([]string, 0, len(instructions))
	for _, line := range instructions {
		instruction, err := encodeInstruction(line.text, symbols)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line.lineno, err)
		}
		encoded = append(encoded, instruction)
	}
	return encoded, nil
}

// bindLabels strips comments and blanks and binds every (LABEL) declaration
// to the address of the following instruction.
func bindLabels(src []byte, symbols *SymbolTable) ([]sourceLine, error) {
	var instructions []sourceLine
	address := uint16(0)

	scanner := bufio.NewScanner(bytes.NewReader(src))
	lineno := 0
	for scanner.Scan() {
		lineno++
		text, _, _ := strings.Cut(scanner.Text(), "//")
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}

		if strings.HasPrefix(text, "(") {
			if !strings.HasSuffix(text, ")") || len(text) < 3 {
				return nil, fmt.Errorf("line %d: malformed label %q", lineno, text)
			}
			symbols.Bind(text[1:len(text)-1], address)
			continue
		}

		instructions = append(instructions, sourceLine{text: text, lineno: lineno})
		address++
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return instructions, nil
}

func encodeInstruction(text string, symbols *SymbolTable) (string, error) {
	if strings.HasPrefix(text, "@") {
		return encodeAInstruction(strings.TrimPrefix(text, "@"), symbols)
	}
	return encodeCInstruction(text)
}

func encodeAInstruction(value string, symbols *SymbolTable) (string, error) {
	address, err := strconv.ParseUint(value, 10, 16)
	if err != nil {
		resolved, ok := symbols.Resolve(value)
		if !ok {
			resolved = symbols.Allocate(value)
		}
		address = uint64(resolved)
	}
	if address > 32767 {
		return "", fmt.Errorf("address %d exceeds 15 bits", address)
	}
	return fmt.Sprintf("0%015b", address), nil
}

func encodeCInstruction(text string) (string, error) {
	dest, rest, hasDest := strings.Cut(text, "=")
	if !hasDest {
		dest, rest = "", text
	}
	comp, jump, _ := strings.Cut(rest, ";")

	compBits, err := encodeComp(comp)
	if err != nil {
		return "", err
	}
	destBits, err := encodeDest(dest)
	if err != nil {
		return "", err
	}
	jumpBits, err := encodeJump(jump)
	if err != nil {
		return "", err
	}
	return "111" + compBits + destBits + jumpBits, nil
}
