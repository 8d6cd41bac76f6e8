package vm

import (
	"fmt"
	"io"
)

// File is one parsed translation unit. Name is the input file's stem; it
// qualifies the unit's static variables and return labels.
type File struct {
	Name     string
	Commands []Command
}

// Translate expands the given files into a single assembly stream. When
// bootstrap is set the entry sequence is emitted first, labeled with
// programName.
func Translate(w io.Writer, programName string, files []File, bootstrap bool) error {
	writer := NewCodeWriter(w)

	if bootstrap {
		writer.SetFileName(programName)
		writer.WriteBootstrap()
	}

	for _, file := range files {
		writer.SetFileName(file.Name)
		for _, command := range file.Commands {
			if err := writer.WriteCommand(command); err != nil {
				return fmt.Errorf("%s: %s: %w", file.Name, command.Source, err)
			}
		}
	}

	return writer.Err()
}
