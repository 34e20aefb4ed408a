// Package apperr defines the domain error taxonomy. Validation errors
// carry an actionable user-facing message; integrity errors are treated
// as idempotent no-ops by callers; infrastructure errors fail closed.
package apperr

import (
	"errors"
	"net/http"
)

var (
	ErrNotRegistered      = errors.New("profile not completed")
	ErrBanned             = errors.New("account suspended")
	ErrInsufficientCredit = errors.New("insufficient search credit")
	ErrAlreadySearching   = errors.New("already searching for a match")
	ErrAlreadyInSession   = errors.New("already in an active chat")
	ErrNotSearching       = errors.New("not currently searching")
	ErrNoActiveSession    = errors.New("no active chat")
	ErrAlreadyShared      = errors.New("username already shared")
	ErrNoUsername         = errors.New("no username set")
	ErrEmptyMessage       = errors.New("message is empty")
	ErrNoLocation         = errors.New("no location on profile")
	ErrDuplicatePayment   = errors.New("payment already processed")
	ErrInvalidPayload     = errors.New("invalid payment payload")
	ErrNoLongerSearching  = errors.New("party no longer searching")
	ErrEmptyCategory      = errors.New("report category is empty")
	ErrInvalidInput       = errors.New("invalid input")
	ErrNotFound           = errors.New("not found")
)

// UserMessage maps a domain error to the text shown to the initiating
// user. Unknown errors get a generic notice; internals stay in the logs.
func UserMessage(err error) string {
	switch {
	case errors.Is(err, ErrNotRegistered):
		return "Please finish setting up your profile first!"
	case errors.Is(err, ErrBanned):
		return "Your account is suspended."
	case errors.Is(err, ErrInsufficientCredit):
		return "You're out of searches."
	case errors.Is(err, ErrAlreadySearching):
		return "Already searching for a match!"
	case errors.Is(err, ErrAlreadyInSession):
		return "You're already chatting!"
	case errors.Is(err, ErrNotSearching):
		return "You're not searching right now."
	case errors.Is(err, ErrNoActiveSession):
		return "You're not in an active chat."
	case errors.Is(err, ErrAlreadyShared):
		return "You already shared your username!"
	case errors.Is(err, ErrNoUsername):
		return "You don't have a username set."
	case errors.Is(err, ErrEmptyMessage):
		return "Couldn't send that. Try again?"
	case errors.Is(err, ErrNoLocation):
		return "Share your location first so we can find people nearby."
	case errors.Is(err, ErrDuplicatePayment):
		return "This payment was already processed."
	case errors.Is(err, ErrInvalidInput):
		return "That doesn't look right. Try again?"
	default:
		return "Something went wrong. Try again?"
	}
}

// HTTPStatus maps a domain error to an admin API status code.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicatePayment), errors.Is(err, ErrAlreadyShared):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrInvalidPayload), errors.Is(err, ErrEmptyCategory):
		return http.StatusBadRequest
	case errors.Is(err, ErrBanned):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
