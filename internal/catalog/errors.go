package catalog

import (
	"context"
	"errors"
	"fmt"
)

// ErrorKind is the closed set of failures a feature can report.
type ErrorKind int

const (
	// KindRemote is a network or server failure.
	KindRemote ErrorKind = iota
	// KindLocal is an on-device persistence failure.
	KindLocal
	// KindNotFound means the requested record does not exist.
	KindNotFound
	// KindValidation means user input was rejected.
	KindValidation
)

// String returns the kind name.
func (k ErrorKind) String() string {
	switch k {
	case KindRemote:
		return "remote"
	case KindLocal:
		return "local"
	case KindNotFound:
		return "not_found"
	case KindValidation:
		return "validation"
	default:
		return "unknown"
	}
}

// Reason refines a validation failure.
type Reason string

const (
	ReasonEmpty        Reason = "empty"
	ReasonTooShort     Reason = "too_short"
	ReasonTooLong      Reason = "too_long"
	ReasonInvalidChars Reason = "invalid_characters"
	ReasonDuplicate    Reason = "duplicate"
)

// Sentinel causes collaborators return; Classify maps them to kinds.
var (
	ErrNotFound  = errors.New("catalog: not found")
	ErrConflict  = errors.New("catalog: conflict")
	ErrNoSession = errors.New("catalog: no signed-in user")
)

// Error is a typed feature failure carried by failure actions.
type Error struct {
	Kind   ErrorKind
	Op     string
	Field  string
	Reason Reason
	Err    error
}

// Error implements error.
func (e *Error) Error() string {
	switch {
	case e.Kind == KindValidation:
		return fmt.Sprintf("%s: invalid %s: %s", e.Op, e.Field, e.Reason)
	case e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	default:
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
}

// Unwrap returns the cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error with the same kind and reason.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Reason == "" || t.Reason == e.Reason)
}

// Message returns the text shown to the user.
func (e *Error) Message() string {
	switch e.Kind {
	case KindValidation:
		return validationMessage(e.Field, e.Reason)
	case KindNotFound:
		return "찾을 수 없는 정보예요."
	case KindLocal:
		return "기기에 저장하지 못했어요."
	default:
		return "네트워크 연결을 확인해 주세요."
	}
}

func validationMessage(field string, reason Reason) string {
	switch reason {
	case ReasonEmpty:
		return field + " 내용을 입력해 주세요."
	case ReasonTooShort:
		return field + "이(가) 너무 짧아요."
	case ReasonTooLong:
		return field + "이(가) 너무 길어요."
	case ReasonInvalidChars:
		return field + "에 사용할 수 없는 문자가 있어요."
	case ReasonDuplicate:
		return "이미 사용 중인 " + field + "이에요."
	default:
		return field + "을(를) 확인해 주세요."
	}
}

// RemoteError wraps a remote collaborator failure, classifying not-found
// causes.
func RemoteError(op string, err error) *Error {
	if errors.Is(err, ErrNotFound) {
		return &Error{Kind: KindNotFound, Op: op, Err: err}
	}
	return &Error{Kind: KindRemote, Op: op, Err: err}
}

// LocalError wraps a local persistence failure.
func LocalError(op string, err error) *Error {
	return &Error{Kind: KindLocal, Op: op, Err: err}
}

// ValidationError reports rejected input.
func ValidationError(op, field string, reason Reason) *Error {
	return &Error{Kind: KindValidation, Op: op, Field: field, Reason: reason}
}

// IsCancelled reports whether err only reflects a cancelled effect, in
// which case no failure action should be sent.
func IsCancelled(err error) bool {
	return errors.Is(err, context.Canceled)
}
