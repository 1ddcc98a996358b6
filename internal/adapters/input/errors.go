package input

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInputParse is the kind of every error returned by Parse and Read.
var ErrInputParse = errors.New("invalid label mapping")

// ParseError describes why a document was rejected and where.
type ParseError struct {
	Source string // document name, e.g. "actual" or a file name
	Key    string // offending item key, empty for document-level problems
	Index  int    // offending label index, -1 when not applicable
	Reason string
	Err    error // underlying decoder error, if any
}

func (e *ParseError) Error() string {
	var b strings.Builder
	b.WriteString(e.Source)
	if e.Key != "" {
		fmt.Fprintf(&b, ": key %q", e.Key)
	}
	if e.Index >= 0 {
		fmt.Fprintf(&b, ": label %d", e.Index)
	}
	b.WriteString(": ")
	b.WriteString(e.Reason)
	return b.String()
}

// Is makes errors.Is(err, ErrInputParse) hold for every ParseError.
func (e *ParseError) Is(target error) bool { return target == ErrInputParse }

func (e *ParseError) Unwrap() error { return e.Err }
