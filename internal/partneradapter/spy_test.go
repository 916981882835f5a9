package partneradapter

import (
	"sync"

	"github.com/echoface/mediation-adapter/internal/mediation"
	"github.com/echoface/mediation-adapter/internal/partnersdk"
)

// spySDK records every call and keeps the listeners so a test decides when
// and in which order the partner answers.
type spySDK struct {
	mu sync.Mutex

	initialized bool
	ready       map[string]bool
	token       string

	initCalls    int
	loadCalls    int
	playCalls    int
	destroyCalls []string
	lastPlay     partnersdk.PlayConfig
	lastSize     partnersdk.BannerSize

	// answerLoad, when set, answers each load synchronously inside LoadAd.
	answerLoad func(placementID string, listener partnersdk.LoadListener)

	initListeners []partnersdk.InitListener
	loadListeners map[string]partnersdk.LoadListener
	playListeners map[string]partnersdk.PlayListener

	gdprCalls  int
	gdprOptIn  bool
	ccpaOptIn  *bool
	coppaChild *bool
}

var _ partnersdk.SDK = (*spySDK)(nil)

func newSpySDK() *spySDK {
	return &spySDK{
		ready:         make(map[string]bool),
		loadListeners: make(map[string]partnersdk.LoadListener),
		playListeners: make(map[string]partnersdk.PlayListener),
	}
}

func (s *spySDK) Version() string { return "spy-1.0" }

func (s *spySDK) Initialize(appID string, listener partnersdk.InitListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.initCalls++
	s.initListeners = append(s.initListeners, listener)
}

func (s *spySDK) IsInitialized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initialized
}

func (s *spySDK) LoadAd(placementID string, adType partnersdk.AdType, size partnersdk.BannerSize, adm string, listener partnersdk.LoadListener) {
	s.mu.Lock()
	s.loadCalls++
	s.lastSize = size
	s.loadListeners[placementID] = listener
	answer := s.answerLoad
	s.mu.Unlock()

	if answer != nil {
		answer(placementID, listener)
	}
}

func (s *spySDK) IsAdReady(placementID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ready[placementID]
}

func (s *spySDK) PlayAd(placementID string, cfg partnersdk.PlayConfig, listener partnersdk.PlayListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.playCalls++
	s.lastPlay = cfg
	s.playListeners[placementID] = listener
}

func (s *spySDK) DestroyBanner(placementID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.destroyCalls = append(s.destroyCalls, placementID)
}

func (s *spySDK) BiddingToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

func (s *spySDK) SetGDPRStatus(optedIn bool, version string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gdprCalls++
	s.gdprOptIn = optedIn
}

func (s *spySDK) SetCCPAStatus(optedIn bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ccpaOptIn = &optedIn
}

func (s *spySDK) SetCOPPAStatus(isUserCoppa bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.coppaChild = &isUserCoppa
}

func (s *spySDK) loadListener(placementID string) partnersdk.LoadListener {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadListeners[placementID]
}

func (s *spySDK) playListener(placementID string) partnersdk.PlayListener {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playListeners[placementID]
}

func (s *spySDK) initListenerAt(i int) partnersdk.InitListener {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i >= len(s.initListeners) {
		return nil
	}
	return s.initListeners[i]
}

func (s *spySDK) setReady(placementID string, ready bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ready[placementID] = ready
}

func (s *spySDK) counts() (initCalls, loadCalls, playCalls int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initCalls, s.loadCalls, s.playCalls
}

// recordingListener captures the events that follow a load.
type recordingListener struct {
	mu          sync.Mutex
	impressions int
	clicks      int
	rewards     int
	dismisses   []error
	expired     int
	done        chan struct{}
}

func newRecordingListener() *recordingListener {
	return &recordingListener{done: make(chan struct{}, 8)}
}

func (r *recordingListener) OnImpression(*mediation.PartnerAd) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.impressions++
}

func (r *recordingListener) OnClick(*mediation.PartnerAd) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clicks++
}

func (r *recordingListener) OnReward(*mediation.PartnerAd) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rewards++
}

func (r *recordingListener) OnDismiss(_ *mediation.PartnerAd, err error) {
	r.mu.Lock()
	r.dismisses = append(r.dismisses, err)
	r.mu.Unlock()
	r.done <- struct{}{}
}

func (r *recordingListener) OnExpire(*mediation.PartnerAd) {
	r.mu.Lock()
	r.expired++
	r.mu.Unlock()
	r.done <- struct{}{}
}

type recordedEvent struct {
	event mediation.Event
	msg   []string
}

// eventRecorder is an EventLogger that keeps every event.
type eventRecorder struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (e *eventRecorder) Log(event mediation.Event, msg ...string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, recordedEvent{event: event, msg: msg})
}

func (e *eventRecorder) count(event mediation.Event) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := 0
	for _, ev := range e.events {
		if ev.event == event {
			n++
		}
	}
	return n
}

func (e *eventRecorder) names() []mediation.Event {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]mediation.Event, 0, len(e.events))
	for _, ev := range e.events {
		out = append(out, ev.event)
	}
	return out
}
