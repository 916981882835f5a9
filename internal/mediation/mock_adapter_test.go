package mediation

import (
	"context"
	"time"
)

// MockAdapter is a PartnerAdapter with canned bidder information.
type MockAdapter struct {
	ID    string
	Token map[string]string
	Err   error
	Delay time.Duration
}

func (m *MockAdapter) Info() AdapterInfo {
	return AdapterInfo{PartnerID: m.ID, PartnerDisplayName: m.ID, AdapterVersion: "1.0.0.0"}
}

func (m *MockAdapter) Setup(context.Context, SetupConfig) error { return nil }

func (m *MockAdapter) FetchBidderInformation(ctx context.Context, _ BidderInfoRequest) (map[string]string, error) {
	if m.Delay > 0 {
		select {
		case <-time.After(m.Delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return m.Token, m.Err
}

func (m *MockAdapter) Load(context.Context, LoadRequest, AdEventListener) (*PartnerAd, error) {
	return nil, ErrNoFill
}

func (m *MockAdapter) Show(context.Context, ShowRequest) (*PartnerAd, error) {
	return nil, ErrAdNotFound
}

func (m *MockAdapter) Invalidate(context.Context, string) error { return ErrAdNotFound }

func (m *MockAdapter) SetGDPR(bool, GDPRConsent) {}
func (m *MockAdapter) SetCCPA(bool, string)      {}
func (m *MockAdapter) SetCOPPA(bool)             {}
