package dispatch

import (
	"errors"
	"fmt"

	"ai_creation_broker/usage"
)

// Kind classifies a dispatch failure.
type Kind int

const (
	KindUnknown Kind = iota
	// KindValidation: required input missing or empty. No side effects.
	KindValidation
	// KindAuthorization: plan or quota denial. No side effects.
	KindAuthorization
	// KindProvider: the external call failed. Nothing was persisted.
	KindProvider
	// KindPersistence: record store or ledger write failed after a
	// successful call. Logged, never returned to callers of Dispatch.
	KindPersistence
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuthorization:
		return "authorization"
	case KindProvider:
		return "provider"
	case KindPersistence:
		return "persistence"
	default:
		return "unknown"
	}
}

// User-facing messages.
const (
	MsgPromptRequired  = "Prompt required"
	MsgKeywordRequired = "Keyword required"
	MsgImageRequired   = "Image required"
	MsgObjectRequired  = "Object required"
	MsgResumeRequired  = "Upload PDF Resume"
	MsgQuotaExhausted  = "Limit reached. Upgrade to continue."
	MsgPremiumOnly     = "This feature is only available for premium subscriptions"
	MsgUnsupported     = "Unsupported request"
)

// Error is the single error type Dispatch returns. Message is safe to show
// to the end user.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Kind == KindPersistence {
		return fmt.Sprintf("dispatch: %s: %v", e.Kind, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the Kind carried by err, KindUnknown if none.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindUnknown
}

func validationError(msg string) error {
	return &Error{Kind: KindValidation, Message: msg}
}

func authorizationError(err error) error {
	msg := MsgQuotaExhausted
	if errors.Is(err, usage.ErrPremiumRequired) {
		msg = MsgPremiumOnly
	}
	return &Error{Kind: KindAuthorization, Message: msg, Err: err}
}
