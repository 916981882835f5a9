package partnersdk

import "fmt"

// ErrorCode is the partner's closed error enumeration.
type ErrorCode int

const (
	CodeUnknown ErrorCode = 0

	// configuration and initialization
	CodeInvalidAppID         ErrorCode = 2
	CodeSDKNotInitialized    ErrorCode = 9
	CodeInitFailed           ErrorCode = 10
	CodeInitAlreadyRunning   ErrorCode = 11
	CodeInvalidSDKConfig     ErrorCode = 12
	CodeMissingRequiredParam ErrorCode = 13

	// placement
	CodePlacementNotFound    ErrorCode = 20
	CodeInvalidPlacement     ErrorCode = 21
	CodePlacementTypeInvalid ErrorCode = 22
	CodePlacementSleep       ErrorCode = 23

	// fill
	CodeNoServe           ErrorCode = 30
	CodeAdExpired         ErrorCode = 31
	CodeInvalidBidPayload ErrorCode = 32
	CodeAdResponseEmpty   ErrorCode = 33

	// connectivity
	CodeNetworkUnreachable ErrorCode = 40
	CodeNetworkTimeout     ErrorCode = 41
	CodeNetworkError       ErrorCode = 42

	// server
	CodeServerError       ErrorCode = 50
	CodeServerUnavailable ErrorCode = 51
	CodeServerBadResponse ErrorCode = 52

	// ad state
	CodeAdNotLoaded      ErrorCode = 60
	CodeAdAlreadyPlaying ErrorCode = 61
	CodeAdConsumed       ErrorCode = 62
	CodeAdNotFound       ErrorCode = 63

	// format
	CodeUnsupportedAdSize ErrorCode = 70
	CodeUnsupportedAdType ErrorCode = 71
)

// KnownCodes lists every code of the enumeration.
var KnownCodes = []ErrorCode{
	CodeUnknown,
	CodeInvalidAppID, CodeSDKNotInitialized, CodeInitFailed, CodeInitAlreadyRunning,
	CodeInvalidSDKConfig, CodeMissingRequiredParam,
	CodePlacementNotFound, CodeInvalidPlacement, CodePlacementTypeInvalid, CodePlacementSleep,
	CodeNoServe, CodeAdExpired, CodeInvalidBidPayload, CodeAdResponseEmpty,
	CodeNetworkUnreachable, CodeNetworkTimeout, CodeNetworkError,
	CodeServerError, CodeServerUnavailable, CodeServerBadResponse,
	CodeAdNotLoaded, CodeAdAlreadyPlaying, CodeAdConsumed, CodeAdNotFound,
	CodeUnsupportedAdSize, CodeUnsupportedAdType,
}

// Error is the error object passed to listeners.
type Error struct {
	Code    ErrorCode
	Message string
}

// NewError builds a partner error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

func (e *Error) Error() string {
	return fmt.Sprintf("partner error %d: %s", int(e.Code), e.Message)
}
