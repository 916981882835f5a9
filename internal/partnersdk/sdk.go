// Package partnersdk declares the callback-based surface of the partner ad
// SDK. The SDK reports every outcome through listener objects and may call
// them on any goroutine, more than once, or not at all.
package partnersdk

// AdType is the partner's own ad type enumeration.
type AdType int

const (
	AdTypeBanner AdType = iota + 1
	AdTypeInterstitial
	AdTypeRewarded
)

func (t AdType) String() string {
	switch t {
	case AdTypeBanner:
		return "banner"
	case AdTypeInterstitial:
		return "interstitial"
	case AdTypeRewarded:
		return "rewarded"
	default:
		return "unknown"
	}
}

// BannerSize is one of the fixed banner sizes the partner serves.
type BannerSize int

const (
	BannerSizeNone BannerSize = iota
	BannerSizeStandard
	BannerSizeLeaderboard
	BannerSizeMediumRectangle
)

// Dimensions returns the width and height of the size.
func (s BannerSize) Dimensions() (width, height int) {
	switch s {
	case BannerSizeStandard:
		return 320, 50
	case BannerSizeLeaderboard:
		return 728, 90
	case BannerSizeMediumRectangle:
		return 300, 250
	default:
		return 0, 0
	}
}

// Orientation values accepted in PlayConfig.
type Orientation int

const (
	OrientationAutoRotate Orientation = iota
	OrientationPortrait
	OrientationLandscape
)

// PlayConfig tunes one fullscreen playback.
type PlayConfig struct {
	Orientation       Orientation
	Muted             bool
	BackButtonEnabled bool
}

// InitListener receives the result of Initialize.
type InitListener interface {
	OnInitSuccess()
	OnInitError(err *Error)
}

// LoadListener receives the result of LoadAd.
type LoadListener interface {
	OnAdLoaded(placementID string)
	OnAdLoadError(placementID string, err *Error)
}

// PlayListener receives playback events. OnAdStart or OnAdPlayError ends
// the show request; the other events follow during playback.
type PlayListener interface {
	OnAdStart(placementID string)
	OnAdPlayError(placementID string, err *Error)
	OnAdViewed(placementID string)
	OnAdClick(placementID string)
	OnAdRewarded(placementID string)
	OnAdEnd(placementID string)
}

// SDK is the partner entry points used by the adapter.
type SDK interface {
	Version() string

	Initialize(appID string, listener InitListener)
	IsInitialized() bool

	// LoadAd requests an ad for placementID. adm is empty for waterfall loads.
	LoadAd(placementID string, adType AdType, size BannerSize, adm string, listener LoadListener)
	IsAdReady(placementID string) bool
	PlayAd(placementID string, cfg PlayConfig, listener PlayListener)
	DestroyBanner(placementID string)

	// BiddingToken returns an empty string when the partner has no token.
	BiddingToken() string

	SetGDPRStatus(optedIn bool, consentMessageVersion string)
	SetCCPAStatus(optedIn bool)
	SetCOPPAStatus(isUserCoppa bool)
}
