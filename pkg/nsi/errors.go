package nsi

import (
	"fmt"
	"strings"
)

// Kind classifies an Error.
type Kind int

// Error kinds.
const (
	KindInvalidArgument Kind = iota + 1 // rejected before any network call
	KindIsADirectory                    // save path names an existing directory
	KindTransport                       // network failure or non-2xx status
	KindParse                           // body not interpretable after fallback
)

func (k Kind) String() string {
	switch k {
	case KindInvalidArgument:
		return "invalid argument"
	case KindIsADirectory:
		return "is a directory"
	case KindTransport:
		return "transport error"
	case KindParse:
		return "parse error"
	default:
		return "unknown error"
	}
}

// Sentinel errors for use with errors.Is.
var (
	ErrInvalidArgument = &Error{Kind: KindInvalidArgument}
	ErrIsADirectory    = &Error{Kind: KindIsADirectory}
	ErrTransport       = &Error{Kind: KindTransport}
	ErrParse           = &Error{Kind: KindParse}
)

// Error is returned by every Client operation.
type Error struct {
	Kind       Kind
	Op         string // operation, e.g. "fetch by area"
	URL        string // request URL, when one was built
	StatusCode int    // HTTP status for KindTransport, 0 on network failure
	Msg        string
	Err        error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("nsi")
	if e.Op != "" {
		b.WriteString(": ")
		b.WriteString(e.Op)
	}
	b.WriteString(": ")
	b.WriteString(e.Kind.String())
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (status %d)", e.StatusCode)
	}
	if e.Msg != "" {
		b.WriteString(": ")
		b.WriteString(e.Msg)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

func invalidArgument(op, format string, args ...any) *Error {
	return &Error{Kind: KindInvalidArgument, Op: op, Msg: fmt.Sprintf(format, args...)}
}
