package mediation

import (
	"fmt"
	"strings"
)

// AdFormat is the ad shape requested by the mediation layer.
type AdFormat string

const (
	FormatBanner               AdFormat = "banner"
	FormatInterstitial         AdFormat = "interstitial"
	FormatRewarded             AdFormat = "rewarded"
	FormatRewardedInterstitial AdFormat = "rewarded_interstitial"
)

// Fullscreen reports whether the format is presented with Show.
func (f AdFormat) Fullscreen() bool {
	return f == FormatInterstitial || f == FormatRewarded || f == FormatRewardedInterstitial
}

// BannerSize is a requested banner size in density independent pixels.
type BannerSize struct {
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

func (s BannerSize) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

// Orientation locks fullscreen ads to a screen orientation.
type Orientation string

const (
	OrientationAuto      Orientation = "auto"
	OrientationPortrait  Orientation = "portrait"
	OrientationLandscape Orientation = "landscape"
)

// AdOptions are the caller-tunable presentation settings. They travel with
// each request instead of living in adapter-wide state.
type AdOptions struct {
	Orientation       Orientation `json:"orientation,omitempty" yaml:"orientation" mapstructure:"orientation"`
	Muted             bool        `json:"muted,omitempty" yaml:"muted" mapstructure:"muted"`
	BackButtonEnabled bool        `json:"back_button_enabled,omitempty" yaml:"back_button_enabled" mapstructure:"back_button_enabled"`
}

// SetupConfig carries the partner credentials issued by the mediation
// dashboard.
type SetupConfig struct {
	Credentials map[string]string `json:"credentials"`
}

// Credential returns the trimmed credential value for key.
func (c SetupConfig) Credential(key string) string {
	if c.Credentials == nil {
		return ""
	}
	return strings.TrimSpace(c.Credentials[key])
}

// BidderInfoRequest asks for the partner bidding token of one placement.
type BidderInfoRequest struct {
	Format    AdFormat `json:"format"`
	Placement string   `json:"placement"`
}

// LoadRequest is one ad load for a partner placement.
type LoadRequest struct {
	// Identifier is unique per load. It is generated when empty.
	Identifier string      `json:"identifier"`
	Placement  string      `json:"placement"`
	Format     AdFormat    `json:"format"`
	Size       *BannerSize `json:"size,omitempty"`
	// Adm is the bid payload for programmatic loads.
	Adm     string    `json:"adm,omitempty"`
	Options AdOptions `json:"options"`
}

// PartnerAd is a loaded ad held by the adapter until it is invalidated.
type PartnerAd struct {
	Identifier string
	Request    LoadRequest
	// Size is the partner banner size chosen for the request, if any.
	Size    *BannerSize
	Details map[string]string
}

// ShowRequest presents a previously loaded fullscreen ad.
type ShowRequest struct {
	Identifier string    `json:"identifier"`
	Options    AdOptions `json:"options"`
}

// GDPRConsent is the consent status forwarded to the partner.
type GDPRConsent string

const (
	GDPRConsentUnknown GDPRConsent = "unknown"
	GDPRConsentGranted GDPRConsent = "granted"
	GDPRConsentDenied  GDPRConsent = "denied"
)

// AdapterInfo describes a registered partner adapter.
type AdapterInfo struct {
	PartnerID          string `json:"partner_id"`
	PartnerDisplayName string `json:"partner_display_name"`
	AdapterVersion     string `json:"adapter_version"`
	PartnerSDKVersion  string `json:"partner_sdk_version"`
}
