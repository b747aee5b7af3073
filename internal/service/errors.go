package service

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// Kind classifies a domain failure. Handlers map kinds onto HTTP statuses.
type Kind string

const (
	KindNotFound         Kind = "NotFound"
	KindConflict         Kind = "Conflict"
	KindAlreadyAllocated Kind = "AlreadyAllocated"
	KindRoomFull         Kind = "RoomFull"
	KindCapacityExceeded Kind = "CapacityExceeded"
	KindBedOccupied      Kind = "BedOccupied"
	KindValidation       Kind = "ValidationError"
	KindUnauthorized     Kind = "Unauthorized"
)

// Error is a domain failure with a kind and a human readable message
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	return e.Message
}

// Is matches any *Error of the same kind, so errors.Is(err, ErrRoomFull) works on wrapped errors
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

var (
	ErrNotFound         = &Error{Kind: KindNotFound}
	ErrConflict         = &Error{Kind: KindConflict}
	ErrAlreadyAllocated = &Error{Kind: KindAlreadyAllocated}
	ErrRoomFull         = &Error{Kind: KindRoomFull}
	ErrCapacityExceeded = &Error{Kind: KindCapacityExceeded}
	ErrBedOccupied      = &Error{Kind: KindBedOccupied}
	ErrValidation       = &Error{Kind: KindValidation}
	ErrUnauthorized     = &Error{Kind: KindUnauthorized}
)

func newError(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func notFound(format string, args ...interface{}) error {
	return newError(KindNotFound, format, args...)
}

func conflict(format string, args ...interface{}) error {
	return newError(KindConflict, format, args...)
}

func invalid(format string, args ...interface{}) error {
	return newError(KindValidation, format, args...)
}

// KindOf returns the kind of a domain error, or "" for infrastructure errors
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func isDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
