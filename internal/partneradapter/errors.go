package partneradapter

import (
	"github.com/echoface/mediation-adapter/internal/mediation"
	"github.com/echoface/mediation-adapter/internal/partnersdk"
)

// errorTable groups partner codes by what the caller can do about them. No
// fill, connectivity and configuration codes must stay in distinct kinds
// because the mediation layer retries on some and not on others.
var errorTable = map[partnersdk.ErrorCode]mediation.ErrorKind{
	partnersdk.CodeInvalidAppID:         mediation.InvalidConfiguration,
	partnersdk.CodeInvalidSDKConfig:     mediation.InvalidConfiguration,
	partnersdk.CodeMissingRequiredParam: mediation.InvalidConfiguration,

	partnersdk.CodeSDKNotInitialized:  mediation.InitializationFailure,
	partnersdk.CodeInitFailed:         mediation.InitializationFailure,
	partnersdk.CodeInitAlreadyRunning: mediation.InitializationFailure,

	partnersdk.CodePlacementNotFound:    mediation.InvalidPlacement,
	partnersdk.CodeInvalidPlacement:     mediation.InvalidPlacement,
	partnersdk.CodePlacementTypeInvalid: mediation.InvalidPlacement,

	partnersdk.CodeNoServe:           mediation.NoFill,
	partnersdk.CodePlacementSleep:    mediation.NoFill,
	partnersdk.CodeAdResponseEmpty:   mediation.NoFill,
	partnersdk.CodeAdExpired:         mediation.NoFill,
	partnersdk.CodeInvalidBidPayload: mediation.NoFill,

	partnersdk.CodeNetworkUnreachable: mediation.NoConnectivity,
	partnersdk.CodeNetworkTimeout:     mediation.NoConnectivity,
	partnersdk.CodeNetworkError:       mediation.NoConnectivity,

	partnersdk.CodeServerError:       mediation.AdServerError,
	partnersdk.CodeServerUnavailable: mediation.AdServerError,
	partnersdk.CodeServerBadResponse: mediation.AdServerError,

	partnersdk.CodeAdNotLoaded:      mediation.AdNotReady,
	partnersdk.CodeAdAlreadyPlaying: mediation.AdNotReady,
	partnersdk.CodeAdConsumed:       mediation.AdNotFound,
	partnersdk.CodeAdNotFound:       mediation.AdNotFound,

	partnersdk.CodeUnsupportedAdSize: mediation.UnsupportedFormat,
	partnersdk.CodeUnsupportedAdType: mediation.UnsupportedFormat,
}

// TranslateError maps a partner code to a mediation error kind. Codes
// missing from the table, including CodeUnknown, are PartnerError.
func TranslateError(code partnersdk.ErrorCode) mediation.ErrorKind {
	if kind, ok := errorTable[code]; ok {
		return kind
	}
	return mediation.PartnerError
}

func toMediationError(err *partnersdk.Error) *mediation.Error {
	if err == nil {
		return mediation.NewError(mediation.PartnerError, "partner reported a failure without details")
	}
	return mediation.Wrap(TranslateError(err.Code), err, "")
}
