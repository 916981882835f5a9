package server

import (
	"sync"
	"time"

	"github.com/echoface/mediation-adapter/internal/mediation"
)

const maxEventsPerAd = 32

// AdEvent is one partner event that followed a load.
type AdEvent struct {
	Type  string    `json:"type"`
	Error string    `json:"error,omitempty"`
	At    time.Time `json:"at"`
}

// eventStore keeps the recent events of every loaded ad so HTTP callers can
// poll them. It is the AdEventListener of every load made over HTTP.
type eventStore struct {
	mu     sync.Mutex
	now    func() time.Time
	events map[string][]AdEvent
}

var _ mediation.AdEventListener = (*eventStore)(nil)

func newEventStore() *eventStore {
	return &eventStore{now: time.Now, events: make(map[string][]AdEvent)}
}

func (s *eventStore) add(ad *mediation.PartnerAd, typ string, err error) {
	if ad == nil {
		return
	}
	ev := AdEvent{Type: typ, At: s.now()}
	if err != nil {
		ev.Error = err.Error()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	list, ok := s.events[ad.Identifier]
	if !ok {
		// forgotten or never tracked
		return
	}
	list = append(list, ev)
	if len(list) > maxEventsPerAd {
		list = list[len(list)-maxEventsPerAd:]
	}
	s.events[ad.Identifier] = list
}

func (s *eventStore) OnImpression(ad *mediation.PartnerAd) { s.add(ad, "impression", nil) }
func (s *eventStore) OnClick(ad *mediation.PartnerAd)      { s.add(ad, "click", nil) }
func (s *eventStore) OnReward(ad *mediation.PartnerAd)     { s.add(ad, "reward", nil) }
func (s *eventStore) OnExpire(ad *mediation.PartnerAd)     { s.add(ad, "expire", nil) }

func (s *eventStore) OnDismiss(ad *mediation.PartnerAd, err error) {
	s.add(ad, "dismiss", err)
}

// track starts recording for an ad about to load and reports whether the
// identifier was new. Events of untracked ads are dropped.
func (s *eventStore) track(identifier string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[identifier]; ok {
		return false
	}
	s.events[identifier] = []AdEvent{}
	return true
}

func (s *eventStore) get(identifier string) ([]AdEvent, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list, ok := s.events[identifier]
	if !ok {
		return nil, false
	}
	return append([]AdEvent(nil), list...), true
}

func (s *eventStore) forget(identifier string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.events, identifier)
}
