// Package sim is an in-process partner SDK. It answers every call through
// its listeners on a separate goroutine, the way the real SDK does, and can
// be told to fail, to run out of fill, or to repeat its callbacks.
package sim

import (
	"sync"
	"time"

	"github.com/echoface/mediation-adapter/internal/partnersdk"
)

const sdkVersion = "7.4.1-sim"

// Options tunes the simulated partner.
type Options struct {
	// Latency delays every callback.
	Latency time.Duration
	// Token is returned by BiddingToken.
	Token string
	// InitError fails every Initialize call.
	InitError *partnersdk.Error
	// DuplicateCallbacks makes every terminal callback fire twice, followed
	// by a contradicting one, as some partner versions do.
	DuplicateCallbacks bool
	// AutoClick clicks every ad once during playback.
	AutoClick bool
}

// Consent is the privacy state last pushed by the adapter.
type Consent struct {
	GDPRSet        bool
	GDPROptedIn    bool
	GDPRVersion    string
	CCPASet        bool
	CCPAOptedIn    bool
	COPPASet       bool
	COPPAChildUser bool
}

type placementState struct {
	loadErr  *partnersdk.Error
	playErr  *partnersdk.Error
	adType   partnersdk.AdType
	ready    bool
	listener partnersdk.LoadListener
}

// SDK implements partnersdk.SDK.
type SDK struct {
	opts Options

	mu          sync.Mutex
	initialized bool
	placements  map[string]*placementState
	consent     Consent
	calls       map[string]int
}

var _ partnersdk.SDK = (*SDK)(nil)

// New creates a simulated partner.
func New(opts Options) *SDK {
	return &SDK{
		opts:       opts,
		placements: make(map[string]*placementState),
		calls:      make(map[string]int),
	}
}

// FailLoads makes every load of placementID fail with err. A nil err
// restores fill.
func (s *SDK) FailLoads(placementID string, err *partnersdk.Error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.placement(placementID).loadErr = err
}

// FailPlays makes every play of placementID fail with err.
func (s *SDK) FailPlays(placementID string, err *partnersdk.Error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.placement(placementID).playErr = err
}

// Expire makes the loaded ad of placementID expire. The partner reports it
// through the load listener, like a late load error. It returns false when
// nothing is loaded.
func (s *SDK) Expire(placementID string) bool {
	s.mu.Lock()
	p, ok := s.placements[placementID]
	if !ok || !p.ready || p.listener == nil {
		s.mu.Unlock()
		return false
	}
	p.ready = false
	listener := p.listener
	p.listener = nil
	s.mu.Unlock()

	listener.OnAdLoadError(placementID, partnersdk.NewError(partnersdk.CodeAdExpired, "ad expired"))
	return true
}

// Consent returns the privacy state pushed so far.
func (s *SDK) Consent() Consent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.consent
}

// Calls returns how many times the named entry point was invoked.
func (s *SDK) Calls(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[name]
}

func (s *SDK) placement(id string) *placementState {
	p, ok := s.placements[id]
	if !ok {
		p = &placementState{}
		s.placements[id] = p
	}
	return p
}

func (s *SDK) record(name string) {
	s.calls[name]++
}

func (s *SDK) later(fn func()) {
	go func() {
		if s.opts.Latency > 0 {
			time.Sleep(s.opts.Latency)
		}
		fn()
	}()
}

func (s *SDK) Version() string {
	return sdkVersion
}

func (s *SDK) Initialize(appID string, listener partnersdk.InitListener) {
	s.mu.Lock()
	s.record("Initialize")
	s.mu.Unlock()

	s.later(func() {
		var err *partnersdk.Error
		switch {
		case s.opts.InitError != nil:
			err = s.opts.InitError
		case appID == "":
			err = partnersdk.NewError(partnersdk.CodeInvalidAppID, "app id is empty")
		}

		if err != nil {
			listener.OnInitError(err)
			if s.opts.DuplicateCallbacks {
				listener.OnInitError(err)
				listener.OnInitSuccess()
			}
			return
		}

		s.mu.Lock()
		s.initialized = true
		s.mu.Unlock()

		listener.OnInitSuccess()
		if s.opts.DuplicateCallbacks {
			listener.OnInitSuccess()
			listener.OnInitError(partnersdk.NewError(partnersdk.CodeInitAlreadyRunning, "init already running"))
		}
	})
}

func (s *SDK) IsInitialized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initialized
}

func (s *SDK) LoadAd(placementID string, adType partnersdk.AdType, size partnersdk.BannerSize, adm string, listener partnersdk.LoadListener) {
	s.mu.Lock()
	s.record("LoadAd")
	initialized := s.initialized
	p := s.placement(placementID)
	loadErr := p.loadErr
	s.mu.Unlock()

	s.later(func() {
		err := loadErr
		switch {
		case !initialized:
			err = partnersdk.NewError(partnersdk.CodeSDKNotInitialized, "sdk not initialized")
		case adType == partnersdk.AdTypeBanner && size == partnersdk.BannerSizeNone:
			err = partnersdk.NewError(partnersdk.CodeUnsupportedAdSize, "banner size missing")
		}

		if err != nil {
			listener.OnAdLoadError(placementID, err)
			if s.opts.DuplicateCallbacks {
				listener.OnAdLoadError(placementID, err)
				listener.OnAdLoaded(placementID)
			}
			return
		}

		s.mu.Lock()
		p.ready = true
		p.adType = adType
		p.listener = listener
		s.mu.Unlock()

		listener.OnAdLoaded(placementID)
		if s.opts.DuplicateCallbacks {
			listener.OnAdLoaded(placementID)
			listener.OnAdLoadError(placementID, partnersdk.NewError(partnersdk.CodeNoServe, "late no fill"))
		}
	})
}

func (s *SDK) IsAdReady(placementID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.placements[placementID]
	return ok && p.ready
}

func (s *SDK) PlayAd(placementID string, cfg partnersdk.PlayConfig, listener partnersdk.PlayListener) {
	s.mu.Lock()
	s.record("PlayAd")
	p := s.placement(placementID)
	ready := p.ready
	playErr := p.playErr
	adType := p.adType
	if ready && playErr == nil {
		p.ready = false
	}
	s.mu.Unlock()

	s.later(func() {
		err := playErr
		if !ready {
			err = partnersdk.NewError(partnersdk.CodeAdNotLoaded, "no ad loaded for placement")
		}
		if err != nil {
			listener.OnAdPlayError(placementID, err)
			if s.opts.DuplicateCallbacks {
				listener.OnAdStart(placementID)
			}
			return
		}

		listener.OnAdStart(placementID)
		if s.opts.DuplicateCallbacks {
			listener.OnAdStart(placementID)
		}
		listener.OnAdViewed(placementID)
		if s.opts.AutoClick {
			listener.OnAdClick(placementID)
		}
		if adType == partnersdk.AdTypeRewarded {
			listener.OnAdRewarded(placementID)
		}
		listener.OnAdEnd(placementID)
	})
}

func (s *SDK) DestroyBanner(placementID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("DestroyBanner")
	if p, ok := s.placements[placementID]; ok {
		p.ready = false
	}
}

func (s *SDK) BiddingToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("BiddingToken")
	if !s.initialized {
		return ""
	}
	return s.opts.Token
}

func (s *SDK) SetGDPRStatus(optedIn bool, consentMessageVersion string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.consent.GDPRSet = true
	s.consent.GDPROptedIn = optedIn
	s.consent.GDPRVersion = consentMessageVersion
}

func (s *SDK) SetCCPAStatus(optedIn bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.consent.CCPASet = true
	s.consent.CCPAOptedIn = optedIn
}

func (s *SDK) SetCOPPAStatus(isUserCoppa bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.consent.COPPASet = true
	s.consent.COPPAChildUser = isUserCoppa
}
