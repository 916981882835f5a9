package partneradapter

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/echoface/mediation-adapter/internal/mediation"
	"github.com/echoface/mediation-adapter/internal/partnersdk"
	"github.com/echoface/mediation-adapter/pkg/bridge"
)

func playConfig(opts mediation.AdOptions) partnersdk.PlayConfig {
	cfg := partnersdk.PlayConfig{
		Muted:             opts.Muted,
		BackButtonEnabled: opts.BackButtonEnabled,
	}
	switch opts.Orientation {
	case mediation.OrientationPortrait:
		cfg.Orientation = partnersdk.OrientationPortrait
	case mediation.OrientationLandscape:
		cfg.Orientation = partnersdk.OrientationLandscape
	default:
		cfg.Orientation = partnersdk.OrientationAutoRotate
	}
	return cfg
}

func (a *Adapter) lookup(identifier string) (*adRecord, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	record, ok := a.ads[identifier]
	return record, ok
}

// Show presents a loaded ad. Banners are already on screen once loaded, so
// showing one succeeds without a partner call. Fullscreen ads resolve when
// playback starts; later playback events go to the load listener.
func (a *Adapter) Show(ctx context.Context, req mediation.ShowRequest) (ad *mediation.PartnerAd, err error) {
	done := a.begin(opShow, req.Identifier)
	defer func() { done(err) }()

	key := opShow + "/" + req.Identifier

	record, ok := a.lookup(req.Identifier)
	if !ok {
		return bridge.Fail[*mediation.PartnerAd](key, mediation.NewError(mediation.AdNotFound,
			"no loaded ad %q", req.Identifier)).Await(ctx)
	}
	if record.adType == partnersdk.AdTypeBanner {
		return record.ad, nil
	}

	placement := record.ad.Request.Placement
	if !a.sdk.IsAdReady(placement) {
		return bridge.Fail[*mediation.PartnerAd](key, mediation.NewError(mediation.AdNotReady,
			"partner has no ad ready for placement %q", placement)).Await(ctx)
	}

	options := record.ad.Request.Options
	if req.Options != (mediation.AdOptions{}) {
		options = req.Options
	}

	return bridge.Run(ctx, key, func(c *bridge.Continuation[*mediation.PartnerAd]) {
		a.sdk.PlayAd(placement, playConfig(options), &playListener{
			cont:   c,
			record: record,
			events: a.events,
		})
	}, a.bridgeOptions(opShow)...)
}

// Invalidate forgets a loaded ad and releases partner banner resources.
func (a *Adapter) Invalidate(ctx context.Context, identifier string) (err error) {
	done := a.begin(opInvalidate, identifier)
	defer func() { done(err) }()

	a.mu.Lock()
	record, ok := a.ads[identifier]
	if ok {
		delete(a.ads, identifier)
	}
	a.mu.Unlock()

	if !ok {
		_, err = bridge.Fail[struct{}](opInvalidate+"/"+identifier, mediation.NewError(mediation.AdNotFound,
			"no loaded ad %q", identifier)).Await(ctx)
		return err
	}
	if record.adType == partnersdk.AdTypeBanner {
		a.sdk.DestroyBanner(record.ad.Request.Placement)
	}
	return nil
}

// playListener ends the show request on the first start or error and then
// forwards playback events once each.
type playListener struct {
	cont   *bridge.Continuation[*mediation.PartnerAd]
	record *adRecord
	events mediation.EventLogger

	started    atomic.Bool
	failed     atomic.Bool
	impression sync.Once
	reward     sync.Once
	dismiss    sync.Once
}

// OnAdStart marks playback started even when the show caller stopped
// waiting: the ad is on screen and its events still belong to the load
// listener. Only a play error reported before the start keeps it closed.
func (l *playListener) OnAdStart(placementID string) {
	if l.cont.Resume(l.record.ad) || !l.failed.Load() {
		l.started.Store(true)
	}
}

func (l *playListener) OnAdPlayError(placementID string, err *partnersdk.Error) {
	l.failed.Store(true)
	if l.cont.ResumeWithError(toMediationError(err)) {
		return
	}
	// a failure after playback started closes the ad
	if l.started.Load() {
		l.dismissWith(toMediationError(err))
	}
}

func (l *playListener) OnAdViewed(placementID string) {
	if !l.started.Load() {
		return
	}
	l.impression.Do(func() {
		l.events.Log(mediation.EventDidTrackImpression, l.record.ad.Identifier)
		l.record.listener.OnImpression(l.record.ad)
	})
}

func (l *playListener) OnAdClick(placementID string) {
	if !l.started.Load() {
		return
	}
	l.events.Log(mediation.EventDidClick, l.record.ad.Identifier)
	l.record.listener.OnClick(l.record.ad)
}

func (l *playListener) OnAdRewarded(placementID string) {
	if !l.started.Load() {
		return
	}
	l.reward.Do(func() {
		l.events.Log(mediation.EventDidReward, l.record.ad.Identifier)
		l.record.listener.OnReward(l.record.ad)
	})
}

func (l *playListener) OnAdEnd(placementID string) {
	if !l.started.Load() {
		return
	}
	l.dismissWith(nil)
}

func (l *playListener) dismissWith(err error) {
	l.dismiss.Do(func() {
		if err != nil {
			l.events.Log(mediation.EventDidDismiss, l.record.ad.Identifier, err.Error())
		} else {
			l.events.Log(mediation.EventDidDismiss, l.record.ad.Identifier)
		}
		l.record.listener.OnDismiss(l.record.ad, err)
	})
}
