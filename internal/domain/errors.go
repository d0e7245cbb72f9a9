package domain

import (
	"errors"
	"fmt"
)

type ErrorKind string

const (
	KindTimeout            ErrorKind = "timeout"
	KindRateLimited        ErrorKind = "rate_limited"
	KindServiceMaintenance ErrorKind = "service_maintenance"
	KindServiceError       ErrorKind = "service_error"
	KindServiceUnknown     ErrorKind = "service_unknown"
	KindNotFound           ErrorKind = "not_found"
	KindInvalidIdentifier  ErrorKind = "invalid_identifier"
	KindTransportError     ErrorKind = "transport_error"
	KindNoShowcaseData     ErrorKind = "no_showcase_data"
	KindCharacterNotFound  ErrorKind = "character_not_found"
	KindMirrorFailure      ErrorKind = "mirror_failure"
	KindProfileNotLoaded   ErrorKind = "profile_not_loaded"
)

var messages = map[ErrorKind]string{
	KindTimeout:            "The profile service timed out, please try again later",
	KindRateLimited:        "The profile service is rate limiting requests, please try again later",
	KindServiceMaintenance: "The profile service is under maintenance, please wait a few hours",
	KindServiceError:       "The profile service returned an error, please try again later",
	KindServiceUnknown:     "The profile service failed unexpectedly, please try again later",
	KindNotFound:           "UID not found, the service may be unstable, please try again later",
	KindInvalidIdentifier:  "Player not found, please check your UID",
	KindTransportError:     "Could not reach the profile service, please try again later",
	KindNoShowcaseData:     "Add characters to your in-game showcase and enable character details, then refresh",
	KindCharacterNotFound:  "Character not found in the showcase, check the showcase or refresh the roster",
	KindMirrorFailure:      "Could not prepare images for the card, please try again later",
	KindProfileNotLoaded:   "Character list not loaded yet, use the refresh button to fetch it",
}

// FetchKinds are the kinds a remote fetch can fail with.
var FetchKinds = []ErrorKind{
	KindTimeout,
	KindRateLimited,
	KindServiceMaintenance,
	KindServiceError,
	KindServiceUnknown,
	KindNotFound,
	KindInvalidIdentifier,
	KindTransportError,
}

// Error is the only error type surfaced to callers of the card pipeline.
// Message is safe to show to users; the cause is for logs only.
type Error struct {
	Kind  ErrorKind
	cause error
}

func NewError(kind ErrorKind, cause error) *Error {
	return &Error{Kind: kind, cause: cause}
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.cause)
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error { return e.cause }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

func (e *Error) Message() string {
	if m, ok := messages[e.Kind]; ok {
		return m
	}
	return messages[KindServiceUnknown]
}

// IsFetchKind reports whether the kind belongs to the remote fetch taxonomy.
func (k ErrorKind) IsFetchKind() bool {
	for _, fk := range FetchKinds {
		if fk == k {
			return true
		}
	}
	return false
}

// KindOf extracts the kind of a pipeline error, if any.
func KindOf(err error) (ErrorKind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

// UserMessage returns the fixed notice for err, never internal details.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message()
	}
	return messages[KindServiceUnknown]
}
