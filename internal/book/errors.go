package book

import "errors"

// ErrNotFound is returned by repositories when a book does not exist.
// The service turns it into an absence value.
var ErrNotFound = errors.New("book not found")

// ErrorKind classifies errors the service reports to callers.
type ErrorKind int

const (
	// KindDuplicateKey is a business rule violation the caller can fix.
	KindDuplicateKey ErrorKind = iota + 1
	// KindInvalidArgument is a caller contract violation.
	KindInvalidArgument
)

func (k ErrorKind) String() string {
	switch k {
	case KindDuplicateKey:
		return "DUPLICATE_KEY"
	case KindInvalidArgument:
		return "INVALID_ARGUMENT"
	default:
		return "UNKNOWN"
	}
}

// Error is a classified service error carrying a user-facing message.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

var (
	ErrIsbnAlreadyRegistered = &Error{Kind: KindDuplicateKey, Message: "Isbn already registered"}
	ErrBookIDRequired        = &Error{Kind: KindInvalidArgument, Message: "Book ID can't be null"}
)

// KindOf returns the kind of a classified error, or zero.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
