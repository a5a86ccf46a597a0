package aggregate

import (
	"errors"
	"fmt"
	"strings"
)

// Code identifies which rule an Error violated.
type Code string

const (
	CodeUnknownAggregate  Code = "unknown_aggregate"
	CodeMissingRequired   Code = "missing_required"
	CodeUnrecognizedField Code = "unrecognized_field"
	CodeMutexViolation    Code = "mutex_violation"
	CodeOutOfOrder        Code = "out_of_order"
	CodeInvalidValue      Code = "invalid_value"
	CodeDuplicateElement  Code = "duplicate_element"
	CodeIllegalMember     Code = "illegal_member"
	CodeTooDeep           Code = "nesting_too_deep"
	CodeSchemaConflict    Code = "schema_conflict"
)

// Reasons carried by Error.
const (
	ReasonMutexNone     = "none of the mutually exclusive required elements present"
	ReasonMutexMany     = "more than one of the mutually exclusive required elements present"
	ReasonMutexOptional = "more than one of the mutually exclusive elements present"
	ReasonMutexTree     = "mutually exclusive elements present"
	ReasonNotAggregate  = "expected an aggregate"
)

// Error is a schema or validation failure.
type Error struct {
	Code   Code
	Kind   string // aggregate tag, e.g. STMTTRN
	Field  string // offending field or tag, when there is one
	Reason string
	Err    error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Code))
	if e.Kind != "" {
		b.WriteString(": ")
		b.WriteString(e.Kind)
		if e.Field != "" {
			b.WriteByte('.')
			b.WriteString(e.Field)
		}
	} else if e.Field != "" {
		b.WriteString(": ")
		b.WriteString(e.Field)
	}
	if e.Reason != "" {
		b.WriteString(": ")
		b.WriteString(e.Reason)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error with the same Code, so callers can test
// errors.Is(err, aggregate.ErrOutOfOrder).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code && t.Kind == "" && t.Field == ""
}

// Sentinels for errors.Is.
var (
	ErrUnknownAggregate  = &Error{Code: CodeUnknownAggregate}
	ErrMissingRequired   = &Error{Code: CodeMissingRequired}
	ErrUnrecognizedField = &Error{Code: CodeUnrecognizedField}
	ErrMutexViolation    = &Error{Code: CodeMutexViolation}
	ErrOutOfOrder        = &Error{Code: CodeOutOfOrder}
	ErrInvalidValue      = &Error{Code: CodeInvalidValue}
	ErrDuplicateElement  = &Error{Code: CodeDuplicateElement}
	ErrIllegalMember     = &Error{Code: CodeIllegalMember}
	ErrTooDeep           = &Error{Code: CodeTooDeep}
	ErrSchemaConflict    = &Error{Code: CodeSchemaConflict}
)

// CodeOf returns the Code of the first *Error in err's chain, or "".
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

func newError(code Code, kind, field, reason string) *Error {
	return &Error{Code: code, Kind: kind, Field: field, Reason: reason}
}

// MemberError is the failure of one collection member.
type MemberError struct {
	Index int
	Tag   string
	Err   error
}

func (e MemberError) Error() string {
	return fmt.Sprintf("member %d <%s>: %v", e.Index, e.Tag, e.Err)
}

func (e MemberError) Unwrap() error { return e.Err }

// MemberErrors collects every failing member of a collection validated in
// best-effort mode.
type MemberErrors struct {
	Kind    string
	Members []MemberError
}

func (e *MemberErrors) Error() string {
	parts := make([]string, len(e.Members))
	for i, m := range e.Members {
		parts[i] = m.Error()
	}
	return fmt.Sprintf("%s: %d invalid members: %s", e.Kind, len(e.Members), strings.Join(parts, "; "))
}

// Unwrap exposes the member failures to errors.Is and errors.As.
func (e *MemberErrors) Unwrap() []error {
	out := make([]error, len(e.Members))
	for i, m := range e.Members {
		out[i] = m
	}
	return out
}
