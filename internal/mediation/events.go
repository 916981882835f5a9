package mediation

import (
	"strings"

	"github.com/echoface/mediation-adapter/pkg/logger"
)

// Event tags emitted at fixed lifecycle points.
type Event string

const (
	EventSetupStarted   Event = "SETUP_STARTED"
	EventSetupSucceeded Event = "SETUP_SUCCEEDED"
	EventSetupFailed    Event = "SETUP_FAILED"

	EventBidderInfoStarted   Event = "BIDDER_INFO_FETCH_STARTED"
	EventBidderInfoSucceeded Event = "BIDDER_INFO_FETCH_SUCCEEDED"
	EventBidderInfoFailed    Event = "BIDDER_INFO_FETCH_FAILED"

	EventLoadStarted   Event = "LOAD_STARTED"
	EventLoadSucceeded Event = "LOAD_SUCCEEDED"
	EventLoadFailed    Event = "LOAD_FAILED"

	EventShowStarted   Event = "SHOW_STARTED"
	EventShowSucceeded Event = "SHOW_SUCCEEDED"
	EventShowFailed    Event = "SHOW_FAILED"

	EventInvalidateStarted   Event = "INVALIDATE_STARTED"
	EventInvalidateSucceeded Event = "INVALIDATE_SUCCEEDED"
	EventInvalidateFailed    Event = "INVALIDATE_FAILED"

	EventGDPRApplies    Event = "GDPR_APPLICABLE"
	EventGDPRNotApplies Event = "GDPR_NOT_APPLICABLE"
	EventGDPRConsent    Event = "GDPR_CONSENT_GRANTED"
	EventGDPRNoConsent  Event = "GDPR_CONSENT_DENIED"
	EventGDPRUnknown    Event = "GDPR_CONSENT_UNKNOWN"
	EventCCPAConsent    Event = "CCPA_CONSENT_GRANTED"
	EventCCPANoConsent  Event = "CCPA_CONSENT_DENIED"
	EventCOPPAChild     Event = "COPPA_CHILD_DIRECTED"
	EventCOPPANotChild  Event = "COPPA_NOT_CHILD_DIRECTED"

	EventDidTrackImpression Event = "DID_TRACK_IMPRESSION"
	EventDidClick           Event = "DID_CLICK"
	EventDidReward          Event = "DID_REWARD"
	EventDidDismiss         Event = "DID_DISMISS"
	EventDidExpire          Event = "DID_EXPIRE"

	EventCallbackDropped Event = "CALLBACK_DROPPED"
	EventCustom          Event = "CUSTOM"
)

// EventLogger is the lifecycle logging hook. It accepts an event tag and an
// optional message.
type EventLogger interface {
	Log(event Event, msg ...string)
}

type eventLogger struct {
	log logger.Logger
}

// NewEventLogger writes lifecycle events to l, tagged with the partner id.
func NewEventLogger(l logger.Logger, partnerID string) EventLogger {
	if l == nil {
		l = logger.NewNop()
	}
	return &eventLogger{log: l.With("partner", partnerID)}
}

func (e *eventLogger) Log(event Event, msg ...string) {
	text := strings.TrimSpace(strings.Join(msg, " "))
	kv := []interface{}{"event", string(event)}
	if text != "" {
		kv = append(kv, "detail", text)
	}

	switch {
	case strings.HasSuffix(string(event), "_FAILED"):
		e.log.Warn("partner adapter event", kv...)
	case strings.HasPrefix(string(event), "DID_"), event == EventCallbackDropped:
		e.log.Debug("partner adapter event", kv...)
	default:
		e.log.Info("partner adapter event", kv...)
	}
}

// NopEventLogger drops every event.
type NopEventLogger struct{}

func (NopEventLogger) Log(Event, ...string) {}
