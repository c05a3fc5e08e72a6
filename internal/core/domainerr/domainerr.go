// Package domainerr defines the module's typed error outcomes, grouped by
// where they arise, so command/query handlers can map them 1:1 to a
// transport status instead of matching opaque strings.
package domainerr

import "errors"

// Kind classifies an error for transport mapping (HTTP status, retry policy).
type Kind string

const (
	KindValidation     Kind = "validation"
	KindNotFound       Kind = "not_found"
	KindConflict       Kind = "conflict"
	KindAuthorization  Kind = "authorization"
	KindInfrastructure Kind = "infrastructure"
)

// Error is a domain error carrying a stable Code, a Kind for transport
// mapping, and a human message.
type Error struct {
	Code    string
	Kind    Kind
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// Is lets stdlib errors.Is (and testify's ErrorIs) match a wrapped copy
// produced by Wrap against its original sentinel by Code, since Wrap
// returns a new *Error rather than the sentinel pointer itself.
func (e *Error) Is(target error) bool {
	te, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == te.Code
}

func newErr(code string, kind Kind, msg string) *Error {
	return &Error{Code: code, Kind: kind, Message: msg}
}

// Wrap attaches cause to a copy of base, preserving Code/Kind/Message.
func Wrap(base *Error, cause error) *Error {
	cp := *base
	cp.cause = cause
	return &cp
}

var (
	ErrInvalidUsername = newErr("invalid_username", KindValidation, "invalid username")
	ErrInvalidBody     = newErr("invalid_body", KindValidation, "invalid post body")
	ErrSelfFollow      = newErr("self_follow", KindValidation, "cannot follow oneself")

	ErrUserNotFound         = newErr("user_not_found", KindNotFound, "user not found")
	ErrPostNotFound         = newErr("post_not_found", KindNotFound, "post not found")
	ErrRelationshipNotFound = newErr("relationship_not_found", KindNotFound, "relationship not found")

	ErrUsernameTaken          = newErr("username_taken", KindConflict, "username already taken")
	ErrAlreadyFollowing       = newErr("already_following", KindConflict, "already following")
	ErrNotFollowing           = newErr("not_following", KindConflict, "not following")
	ErrAlreadyRetracted       = newErr("already_retracted", KindConflict, "post already retracted")
	ErrVersionConflict        = newErr("version_conflict", KindConflict, "aggregate version conflict")
	ErrAggregateAlreadyExists = newErr("aggregate_already_exists", KindConflict, "aggregate already has a first event")

	ErrUnauthorized = newErr("unauthorized", KindAuthorization, "caller is not authorized for this action")

	ErrLogAppendFailed  = newErr("log_append_failed", KindInfrastructure, "failed to append to event log")
	ErrProjectionFailed = newErr("projection_failed", KindInfrastructure, "failed to project appended event")
	ErrDeadline         = newErr("deadline", KindInfrastructure, "command deadline exceeded")

	// ErrEmptyStream is returned by an aggregate's rehydrate when given
	// no events or an event of the wrong kind for the first slot.
	ErrEmptyStream = newErr("empty_stream", KindInfrastructure, "cannot rehydrate: empty or invalid event stream")
)

// As reports whether err (or something it wraps) is a *Error, and if so,
// binds it, matching stdlib errors.As ergonomics used across the module.
func As(err error, target **Error) bool {
	return errors.As(err, target)
}

// Is reports whether err has the same Code as candidate, following wraps.
func Is(err error, candidate *Error) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Code == candidate.Code
}
