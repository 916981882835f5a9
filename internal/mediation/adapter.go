package mediation

import "context"

// PartnerAdapter is the lifecycle contract the mediation layer drives. Every
// method returns success or one *Error; none of them retries.
type PartnerAdapter interface {
	Info() AdapterInfo

	// Setup initializes the partner SDK with dashboard credentials.
	Setup(ctx context.Context, cfg SetupConfig) error

	// FetchBidderInformation returns the partner bidding token payload.
	FetchBidderInformation(ctx context.Context, req BidderInfoRequest) (map[string]string, error)

	// Load requests an ad. Events raised after the load, such as clicks or
	// rewards, are delivered to listener.
	Load(ctx context.Context, req LoadRequest, listener AdEventListener) (*PartnerAd, error)

	// Show presents a loaded fullscreen ad.
	Show(ctx context.Context, req ShowRequest) (*PartnerAd, error)

	// Invalidate releases a loaded ad.
	Invalidate(ctx context.Context, identifier string) error

	SetGDPR(applies bool, consent GDPRConsent)
	SetCCPA(hasGivenConsent bool, privacyString string)
	SetCOPPA(isChildDirected bool)
}

// AdEventListener receives the partner events that follow a load or show.
type AdEventListener interface {
	OnImpression(ad *PartnerAd)
	OnClick(ad *PartnerAd)
	OnReward(ad *PartnerAd)
	OnDismiss(ad *PartnerAd, err error)
	OnExpire(ad *PartnerAd)
}

// NopAdEventListener ignores every event.
type NopAdEventListener struct{}

func (NopAdEventListener) OnImpression(*PartnerAd)     {}
func (NopAdEventListener) OnClick(*PartnerAd)          {}
func (NopAdEventListener) OnReward(*PartnerAd)         {}
func (NopAdEventListener) OnDismiss(*PartnerAd, error) {}
func (NopAdEventListener) OnExpire(*PartnerAd)         {}
