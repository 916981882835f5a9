package mediation

import (
	"errors"
	"fmt"
)

// ErrorKind is the normalized failure category reported to the mediation
// layer. Callers decide on retries from the kind alone.
type ErrorKind int

const (
	// PartnerError is the catch-all for partner failures with no better match.
	PartnerError ErrorKind = iota
	InvalidConfiguration
	NoFill
	AdServerError
	NoConnectivity
	InitializationFailure
	InvalidPlacement
	AdNotReady
	AdNotFound
	UnsupportedFormat
)

var errorKindNames = map[ErrorKind]string{
	PartnerError:          "partner_error",
	InvalidConfiguration:  "invalid_configuration",
	NoFill:                "no_fill",
	AdServerError:         "ad_server_error",
	NoConnectivity:        "no_connectivity",
	InitializationFailure: "initialization_failure",
	InvalidPlacement:      "invalid_placement",
	AdNotReady:            "ad_not_ready",
	AdNotFound:            "ad_not_found",
	UnsupportedFormat:     "unsupported_format",
}

func (k ErrorKind) String() string {
	if name, ok := errorKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("error_kind(%d)", int(k))
}

// Retryable reports whether the mediation layer may try the same request
// again later. The adapter itself never retries.
func (k ErrorKind) Retryable() bool {
	switch k {
	case NoFill, NoConnectivity, AdServerError:
		return true
	default:
		return false
	}
}

type (
	// Error is a typed lifecycle failure.
	Error struct {
		Kind    ErrorKind
		Message string
		Cause   error
	}
)

// NewError creates an Error of the given kind.
func NewError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap attaches kind to cause.
func Wrap(kind ErrorKind, cause error, message string) *Error {
	return &Error{
		Kind:    kind,
		Message: message,
		Cause:   cause,
	}
}

func (e *Error) Error() string {
	switch {
	case e.Message == "" && e.Cause == nil:
		return e.Kind.String()
	case e.Cause == nil:
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	case e.Message == "":
		return fmt.Sprintf("%s: %v", e.Kind, e.Cause)
	default:
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches any *Error of the same kind, so errors.Is(err, mediation.ErrNoFill)
// works whatever the message.
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}
	return other.Kind == e.Kind && other.Message == "" && other.Cause == nil
}

// Sentinels for errors.Is checks.
var (
	ErrPartner               = &Error{Kind: PartnerError}
	ErrInvalidConfiguration  = &Error{Kind: InvalidConfiguration}
	ErrNoFill                = &Error{Kind: NoFill}
	ErrAdServer              = &Error{Kind: AdServerError}
	ErrNoConnectivity        = &Error{Kind: NoConnectivity}
	ErrInitializationFailure = &Error{Kind: InitializationFailure}
	ErrInvalidPlacement      = &Error{Kind: InvalidPlacement}
	ErrAdNotReady            = &Error{Kind: AdNotReady}
	ErrAdNotFound            = &Error{Kind: AdNotFound}
	ErrUnsupportedFormat     = &Error{Kind: UnsupportedFormat}
)

// KindOf extracts the kind of err. Errors that carry no kind are partner
// errors; nil has no kind and reports false.
func KindOf(err error) (ErrorKind, bool) {
	if err == nil {
		return PartnerError, false
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return PartnerError, true
}
