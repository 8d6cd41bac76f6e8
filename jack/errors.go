package jack

import "fmt"

// SourceError is a fatal lexical or parse error tied to a source location.
// The scanner and parser raise it via panic; Compile recovers it at the top.
type SourceError struct {
	Message string
	Path    string
	Line    int
	Column  int
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("%s %s:%d:%d", e.Message, e.Path, e.Line, e.Column)
}

// recoverSourceError converts a panicking *SourceError into an error return.
// Any other panic value is re-raised.
func recoverSourceError(err *error) {
	if r := recover(); r != nil {
		srcErr, ok := r.(*SourceError)
		if !ok {
			panic(r)
		}
		*err = srcErr
	}
}
