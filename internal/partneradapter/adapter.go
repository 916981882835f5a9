// Package partneradapter implements the mediation lifecycle on top of the
// callback-based partner SDK.
package partneradapter

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/echoface/mediation-adapter/internal/mediation"
	"github.com/echoface/mediation-adapter/internal/metrics"
	"github.com/echoface/mediation-adapter/internal/partnersdk"
	"github.com/echoface/mediation-adapter/pkg/bridge"
)

const (
	// AdapterVersion is the partner SDK version followed by the adapter build.
	AdapterVersion = "7.4.1.0"

	// CredentialAppID is the dashboard credential holding the partner app id.
	CredentialAppID = "app_id"

	// BidTokenKey is the bidder information key of the partner token.
	BidTokenKey = "bid_token"

	// GDPRConsentVersion is reported to the partner with every GDPR status.
	GDPRConsentVersion = "1.0.0"

	defaultPartnerID   = "partner"
	defaultDisplayName = "Partner"
)

const (
	opSetup      = "setup"
	opBidderInfo = "bidder_info"
	opLoad       = "load"
	opShow       = "show"
	opInvalidate = "invalidate"
)

// lifecycle event triple per operation
var opEvents = map[string][3]mediation.Event{
	opSetup:      {mediation.EventSetupStarted, mediation.EventSetupSucceeded, mediation.EventSetupFailed},
	opBidderInfo: {mediation.EventBidderInfoStarted, mediation.EventBidderInfoSucceeded, mediation.EventBidderInfoFailed},
	opLoad:       {mediation.EventLoadStarted, mediation.EventLoadSucceeded, mediation.EventLoadFailed},
	opShow:       {mediation.EventShowStarted, mediation.EventShowSucceeded, mediation.EventShowFailed},
	opInvalidate: {mediation.EventInvalidateStarted, mediation.EventInvalidateSucceeded, mediation.EventInvalidateFailed},
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithPartnerID sets the id the adapter registers under.
func WithPartnerID(id, displayName string) Option {
	return func(a *Adapter) {
		if id != "" {
			a.partnerID = id
		}
		if displayName != "" {
			a.displayName = displayName
		}
	}
}

// WithEventLogger installs the lifecycle logging hook.
func WithEventLogger(events mediation.EventLogger) Option {
	return func(a *Adapter) {
		a.events = events
	}
}

// WithMetrics records lifecycle metrics.
func WithMetrics(m *metrics.AdapterMetrics) Option {
	return func(a *Adapter) {
		a.metrics = m
	}
}

// WithIDGenerator replaces the load identifier generator.
func WithIDGenerator(fn func() string) Option {
	return func(a *Adapter) {
		a.newID = fn
	}
}

// WithSetupHook calls fn with every definitive setup outcome. It fires once
// per partner initialization even when every caller stopped waiting.
func WithSetupHook(fn func(err error)) Option {
	return func(a *Adapter) {
		a.onSetup = fn
	}
}

// Adapter bridges one partner SDK instance to the mediation contract.
type Adapter struct {
	sdk         partnersdk.SDK
	partnerID   string
	displayName string
	events      mediation.EventLogger
	metrics     *metrics.AdapterMetrics
	newID       func() string
	onSetup     func(err error)

	tracker    *bridge.Tracker
	setupGroup singleflight.Group

	mu  sync.RWMutex
	ads map[string]*adRecord
}

var _ mediation.PartnerAdapter = (*Adapter)(nil)

// New creates an adapter over sdk.
func New(sdk partnersdk.SDK, opts ...Option) *Adapter {
	a := &Adapter{
		sdk:         sdk,
		partnerID:   defaultPartnerID,
		displayName: defaultDisplayName,
		events:      mediation.NopEventLogger{},
		newID:       newLoadID,
		ads:         make(map[string]*adRecord),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	if a.events == nil {
		a.events = mediation.NopEventLogger{}
	}
	a.tracker = bridge.NewTracker(func(n int) {
		a.metrics.SetPending(a.partnerID, n)
	})
	return a
}

func (a *Adapter) Info() mediation.AdapterInfo {
	return mediation.AdapterInfo{
		PartnerID:          a.partnerID,
		PartnerDisplayName: a.displayName,
		AdapterVersion:     AdapterVersion,
		PartnerSDKVersion:  a.sdk.Version(),
	}
}

// PendingKeys returns the correlation keys still waiting for the partner.
func (a *Adapter) PendingKeys() []string {
	return a.tracker.Keys()
}

func (a *Adapter) bridgeOptions(op string) []bridge.Option {
	return []bridge.Option{
		bridge.WithTracker(a.tracker),
		bridge.WithDropHandler(func(key string) {
			a.metrics.RecordDroppedCallback(a.partnerID, op)
			a.events.Log(mediation.EventCallbackDropped, key)
		}),
	}
}

// begin logs the start of op and returns the function that records its end.
func (a *Adapter) begin(op string, detail string) func(err error) {
	events := opEvents[op]
	a.events.Log(events[0], detail)
	started := time.Now()

	return func(err error) {
		a.metrics.RecordOperation(a.partnerID, op, err, time.Since(started).Seconds())
		if err != nil {
			a.events.Log(events[2], detail, err.Error())
			return
		}
		a.events.Log(events[1], detail)
	}
}

// Setup initializes the partner SDK. The app id credential is required;
// without it no partner call is made. Concurrent setups share one partner
// initialization.
func (a *Adapter) Setup(ctx context.Context, cfg mediation.SetupConfig) (err error) {
	done := a.begin(opSetup, "")
	defer func() { done(err) }()

	appID := cfg.Credential(CredentialAppID)
	if appID == "" {
		_, err = bridge.Fail[struct{}](opSetup, mediation.NewError(mediation.InvalidConfiguration,
			"missing credential %q", CredentialAppID)).Await(ctx)
		if !bridge.IsAbandoned(err) {
			a.setupDone(err)
		}
		return err
	}
	if a.sdk.IsInitialized() {
		a.setupDone(nil)
		return nil
	}

	// the partner call is not tied to one caller's context; each caller
	// stops waiting on its own
	ch := a.setupGroup.DoChan(appID, func() (interface{}, error) {
		res, err := bridge.Run(context.Background(), opSetup+"/"+appID, func(c *bridge.Continuation[struct{}]) {
			a.sdk.Initialize(appID, &initListener{cont: c})
		}, a.bridgeOptions(opSetup)...)
		a.setupDone(err)
		return res, err
	})

	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return fmt.Errorf("%w: %s: %w", bridge.ErrAbandoned, opSetup, ctx.Err())
	}
}

func (a *Adapter) setupDone(err error) {
	if a.onSetup != nil {
		a.onSetup(err)
	}
}

// FetchBidderInformation returns the partner bidding token. A partner
// without a token yields an empty payload, not an error.
func (a *Adapter) FetchBidderInformation(ctx context.Context, req mediation.BidderInfoRequest) (info map[string]string, err error) {
	done := a.begin(opBidderInfo, req.Placement)
	defer func() { done(err) }()

	if err = ctx.Err(); err != nil {
		return nil, err
	}

	token := a.sdk.BiddingToken()
	if token == "" {
		a.events.Log(mediation.EventCustom, "partner returned an empty bidding token")
		return map[string]string{}, nil
	}
	return map[string]string{BidTokenKey: token}, nil
}

// SetGDPR forwards GDPR applicability and consent. An unknown consent is not
// forwarded so the partner keeps its own default.
func (a *Adapter) SetGDPR(applies bool, consent mediation.GDPRConsent) {
	if applies {
		a.events.Log(mediation.EventGDPRApplies)
	} else {
		a.events.Log(mediation.EventGDPRNotApplies)
	}

	switch consent {
	case mediation.GDPRConsentGranted:
		a.events.Log(mediation.EventGDPRConsent)
		a.sdk.SetGDPRStatus(true, GDPRConsentVersion)
	case mediation.GDPRConsentDenied:
		a.events.Log(mediation.EventGDPRNoConsent)
		a.sdk.SetGDPRStatus(false, GDPRConsentVersion)
	default:
		a.events.Log(mediation.EventGDPRUnknown)
	}
}

// SetCCPA forwards the CCPA opt-in state.
func (a *Adapter) SetCCPA(hasGivenConsent bool, privacyString string) {
	if hasGivenConsent {
		a.events.Log(mediation.EventCCPAConsent, privacyString)
	} else {
		a.events.Log(mediation.EventCCPANoConsent, privacyString)
	}
	a.sdk.SetCCPAStatus(hasGivenConsent)
}

// SetCOPPA forwards whether the user is a child.
func (a *Adapter) SetCOPPA(isChildDirected bool) {
	if isChildDirected {
		a.events.Log(mediation.EventCOPPAChild)
	} else {
		a.events.Log(mediation.EventCOPPANotChild)
	}
	a.sdk.SetCOPPAStatus(isChildDirected)
}

type initListener struct {
	cont *bridge.Continuation[struct{}]
}

func (l *initListener) OnInitSuccess() {
	l.cont.Resume(struct{}{})
}

func (l *initListener) OnInitError(err *partnersdk.Error) {
	l.cont.ResumeWithError(toMediationError(err))
}
