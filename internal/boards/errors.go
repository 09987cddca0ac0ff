package boards

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by the service wraps exactly one of these,
// so callers can map them onto a transport status with errors.Is.
var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
)

// Error is a domain error carrying a user-facing message and its kind.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func newError(kind error, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func invalid(msg string) error { return newError(ErrInvalidInput, msg) }
func forbidden(msg string) error { return newError(ErrForbidden, msg) }

var (
	ErrNotMember      = newError(ErrUnauthenticated, "not a member of this board")
	ErrNotBoardAdmin  = newError(ErrForbidden, "board admin role required")
	ErrNotGlobalAdmin = newError(ErrForbidden, "site admin role required")

	ErrBoardNotFound  = newError(ErrNotFound, "board not found")
	ErrNotSquares     = newError(ErrInvalidInput, "board is not a squares board")
	ErrNotProps       = newError(ErrInvalidInput, "board is not a props board")
	ErrBoardLocked    = newError(ErrConflict, "board is locked")
	ErrInvalidCell    = newError(ErrInvalidInput, "row and col must be between 0 and 9")
	ErrSquareTaken    = newError(ErrConflict, "square already taken")
	ErrSquareLimit    = newError(ErrConflict, "square limit reached for this board")
	ErrSquareNotYours = newError(ErrConflict, "square is not yours")
	ErrSquareNotFound = newError(ErrNotFound, "square not found")

	ErrNumbersAssigned    = newError(ErrConflict, "numbers already assigned")
	ErrNumbersNotAssigned = newError(ErrConflict, "numbers not assigned yet")

	ErrPropNotFound  = newError(ErrNotFound, "prop not found")
	ErrInvalidOption = newError(ErrInvalidInput, "invalid option for prop")
	ErrTooFewOptions = newError(ErrInvalidInput, "at least 2 options required")
	ErrPicksExist    = newError(ErrConflict, "options cannot change after picks exist")

	ErrMemberNotFound = newError(ErrNotFound, "member not found")
	ErrLastOwner      = newError(ErrConflict, "board must keep at least one owner")
	ErrRemoveSelf     = newError(ErrConflict, "cannot remove yourself")
	ErrInvalidRole    = newError(ErrInvalidInput, "invalid role")

	ErrInvalidEmail        = newError(ErrInvalidInput, "invalid email")
	ErrInviteInvalid       = newError(ErrNotFound, "invite is invalid or expired")
	ErrInviteEmailMismatch = newError(ErrForbidden, "invite was issued to a different email")
	ErrInviteNotFound      = newError(ErrNotFound, "invite not found or already used")
)

// wrapTx passes domain errors returned from a transaction through untouched
// and wraps anything else with what was being done.
func wrapTx(err error, doing string) error {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return err
	}
	return fmt.Errorf("%s: %w", doing, err)
}
