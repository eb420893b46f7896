// Package pperrors defines the error taxonomy shared by every stage of the
// preprocessor pipeline: registration, recognition, block assembly,
// expression evaluation and expansion.
//
// Every error carries the origin file and line it was raised at (when known)
// so that a caller can report "file.txt:12: ..." without each component
// re-deriving that context.
package pperrors

import "fmt"

// Kind identifies a class of preprocessor error.
type Kind int

const (
	// Configuration-time.
	FileNotFound Kind = iota
	DuplicateRegistration
	RegistryLocked

	// Assembly-time.
	BlockMismatch
	UnterminatedBlock
	UnknownDirective

	// Evaluation-time.
	UndefinedIdentifier
	SubstitutionLoop
	ExpressionSyntax
	TypeMismatch

	// Raised by the `error` directive.
	UserError

	// Propagated verbatim from a file source.
	IOFailure
)

func (k Kind) String() string {
	switch k {
	case FileNotFound:
		return "FileNotFound"
	case DuplicateRegistration:
		return "DuplicateRegistration"
	case RegistryLocked:
		return "RegistryLocked"
	case BlockMismatch:
		return "BlockMismatch"
	case UnterminatedBlock:
		return "UnterminatedBlock"
	case UnknownDirective:
		return "UnknownDirective"
	case UndefinedIdentifier:
		return "UndefinedIdentifier"
	case SubstitutionLoop:
		return "SubstitutionLoop"
	case ExpressionSyntax:
		return "ExpressionSyntax"
	case TypeMismatch:
		return "TypeMismatch"
	case UserError:
		return "UserError"
	case IOFailure:
		return "IOFailure"
	default:
		return "Unknown"
	}
}

// Error is the concrete error type raised by every package in this module.
type Error struct {
	Kind Kind
	File string // origin file name, empty if not applicable
	Line int    // origin line number, 0 if not applicable
	Tag  string // offending directive tag, set for assembly-time errors
	Msg  string
	Err  error // wrapped cause, may be nil
}

func (e *Error) Error() string {
	loc := ""
	if e.File != "" {
		if e.Line > 0 {
			loc = fmt.Sprintf("%s:%d: ", e.File, e.Line)
		} else {
			loc = fmt.Sprintf("%s: ", e.File)
		}
	}
	tag := ""
	if e.Tag != "" {
		tag = fmt.Sprintf("(%s) ", e.Tag)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s%s%s: %s: %v", loc, tag, e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s%s%s: %s", loc, tag, e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// New creates an Error with no origin information attached.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Newf creates an Error with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap creates an Error that wraps an underlying cause.
func Wrap(kind Kind, err error, msg string) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// At attaches origin file/line to an Error, returning a shallow copy so the
// original is never mutated out from under a caller that kept a reference.
func (e *Error) At(file string, line int) *Error {
	cp := *e
	cp.File = file
	cp.Line = line
	return &cp
}

// WithTag attaches the offending directive tag, returning a shallow copy.
func (e *Error) WithTag(tag string) *Error {
	cp := *e
	cp.Tag = tag
	return &cp
}

// Is reports whether err is a *Error of the given Kind, looking through
// wrapped causes the same way errors.Is would via Unwrap.
func Is(err error, kind Kind) bool {
	for err != nil {
		if pe, ok := err.(*Error); ok {
			if pe.Kind == kind {
				return true
			}
			err = pe.Err
			continue
		}
		type unwrapper interface{ Unwrap() error }
		u, ok := err.(unwrapper)
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
