package trade

import "errors"

// Kind groups errors by how the caller should react to them.
type Kind int

const (
	// KindInternal is a storage or programming failure.
	KindInternal Kind = iota
	// KindValidation is malformed or missing input.
	KindValidation
	// KindAuthorization is an actor acting outside their role in the room.
	KindAuthorization
	// KindConflict means the room or request moved on; refresh and retry.
	KindConflict
	// KindNotFound is a missing book, room or request.
	KindNotFound
)

// Error is a trade failure of a known kind.
type Error struct {
	Kind Kind
	msg  string
}

func (e *Error) Error() string { return e.msg }

// NewError returns an error of the given kind.
func NewError(kind Kind, msg string) *Error {
	return &Error{Kind: kind, msg: msg}
}

var (
	ErrBookNotFound     = NewError(KindNotFound, "book not found")
	ErrNoOwnerAvailable = NewError(KindNotFound, "no owner offers this book")
	ErrRoomNotFound     = NewError(KindNotFound, "trade room not found")
	ErrRequestNotFound  = NewError(KindNotFound, "status change request not found")

	ErrSelfTradeForbidden = NewError(KindAuthorization, "cannot trade with yourself")
	ErrInvalidParticipant = NewError(KindAuthorization, "user is not a participant of this room")
	ErrNotCounterparty    = NewError(KindAuthorization, "only the other participant can resolve a request")
	ErrNotSeller          = NewError(KindAuthorization, "only the seller can do this")
	ErrNotBuyer           = NewError(KindAuthorization, "only the buyer can do this")

	ErrDuplicatePendingRequest = NewError(KindConflict, "a pending request for this status already exists")
	ErrInvalidTargetStatus     = NewError(KindConflict, "status cannot be proposed from the current status")
	ErrRequestAlreadyResolved  = NewError(KindConflict, "request is already resolved")
	ErrStaleRequest            = NewError(KindConflict, "request no longer applies to the room status and was rejected")
	ErrStatusConflict          = NewError(KindConflict, "room status changed concurrently")
	ErrInvalidState            = NewError(KindConflict, "action not allowed in the current room status")

	ErrEmptyMessage    = NewError(KindValidation, "message must not be empty")
	ErrMessageTooLong  = NewError(KindValidation, "message is too long")
	ErrLocationTooLong = NewError(KindValidation, "location or locker number is too long")
	ErrInvalidDecision = NewError(KindValidation, "decision must be accept or reject")
)

// KindOf returns the kind of err, or KindInternal for errors not raised by
// this package.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
