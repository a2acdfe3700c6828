package ntfs

import (
	"errors"
	"fmt"
)

// Kind classifies the error taxonomy described for the decode core.
type Kind int

const (
	_ Kind = iota
	// KindCorruptFilesystem: VBR signature wrong, MFT and MFTMirr both
	// unreadable, or a cycle was detected in a parent chain.
	KindCorruptFilesystem
	// KindOverrun: read past the end of a buffer or view.
	KindOverrun
	// KindInvalidRecord: MFT record magic isn't "FILE", or fixup mismatch.
	KindInvalidRecord
	// KindAttributeNotFound: a queried attribute type is absent from a record.
	KindAttributeNotFound
	// KindNoParent: root directory, missing $FILE_NAME, or stale parent reference.
	KindNoParent
	// KindChildNotFound: no child matches a name in any namespace.
	KindChildNotFound
	// KindUnsupportedPath: a path mixes '/' and '\' separators.
	KindUnsupportedPath
	// KindDirectoryDoesNotExist: a path component resolved to a file where
	// a directory was required.
	KindDirectoryDoesNotExist
)

func (k Kind) String() string {
	switch k {
	case KindCorruptFilesystem:
		return "CorruptFilesystem"
	case KindOverrun:
		return "Overrun"
	case KindInvalidRecord:
		return "InvalidRecord"
	case KindAttributeNotFound:
		return "AttributeNotFound"
	case KindNoParent:
		return "NoParent"
	case KindChildNotFound:
		return "ChildNotFound"
	case KindUnsupportedPath:
		return "UnsupportedPath"
	case KindDirectoryDoesNotExist:
		return "DirectoryDoesNotExist"
	default:
		return "Unknown"
	}
}

// Error is the concrete error type returned by this package. Callers can
// match on Kind directly, or use errors.Is against the sentinel values
// below.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Msg == "" {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Is allows errors.Is(err, ErrOverrun) (and friends) to match by Kind,
// regardless of message or wrapped cause.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func newErr(kind Kind, msg string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(msg, args...)}
}

func wrapErr(kind Kind, cause error, msg string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(msg, args...), Err: cause}
}

// Sentinel values usable with errors.Is. Their Msg/Err fields are empty;
// Is() above only compares Kind.
var (
	ErrCorruptFilesystem    = &Error{Kind: KindCorruptFilesystem}
	ErrOverrun              = &Error{Kind: KindOverrun}
	ErrInvalidRecord        = &Error{Kind: KindInvalidRecord}
	ErrAttributeNotFound    = &Error{Kind: KindAttributeNotFound}
	ErrNoParent             = &Error{Kind: KindNoParent}
	ErrChildNotFound        = &Error{Kind: KindChildNotFound}
	ErrUnsupportedPath      = &Error{Kind: KindUnsupportedPath}
	ErrDirectoryDoesNotExist = &Error{Kind: KindDirectoryDoesNotExist}
)

// KindOf extracts the Kind of err, if it (or something it wraps) is an
// *Error produced by this package.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}
