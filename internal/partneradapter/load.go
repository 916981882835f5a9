package partneradapter

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/echoface/mediation-adapter/internal/mediation"
	"github.com/echoface/mediation-adapter/internal/partnersdk"
	"github.com/echoface/mediation-adapter/pkg/bridge"
)

// adRecord is a loaded ad and the listener of its later events.
type adRecord struct {
	ad       *mediation.PartnerAd
	adType   partnersdk.AdType
	listener mediation.AdEventListener
	// expired is set once the partner reports the ad expired, even before
	// the record is stored.
	expired atomic.Bool
}

func newLoadID() string {
	return uuid.NewString()
}

// partnerAdType maps a mediation format to the partner ad type.
func partnerAdType(format mediation.AdFormat) (partnersdk.AdType, bool) {
	switch format {
	case mediation.FormatBanner:
		return partnersdk.AdTypeBanner, true
	case mediation.FormatInterstitial:
		return partnersdk.AdTypeInterstitial, true
	case mediation.FormatRewarded, mediation.FormatRewardedInterstitial:
		return partnersdk.AdTypeRewarded, true
	default:
		return 0, false
	}
}

// bannerBuckets is ordered from the largest area to the smallest.
var bannerBuckets = []partnersdk.BannerSize{
	partnersdk.BannerSizeMediumRectangle,
	partnersdk.BannerSizeLeaderboard,
	partnersdk.BannerSizeStandard,
}

// BannerSizeFor picks the largest partner banner that fits inside the
// requested size. A missing size means the standard banner.
func BannerSizeFor(size *mediation.BannerSize) (partnersdk.BannerSize, bool) {
	if size == nil {
		return partnersdk.BannerSizeStandard, true
	}
	for _, bucket := range bannerBuckets {
		w, h := bucket.Dimensions()
		if size.Width >= w && size.Height >= h {
			return bucket, true
		}
	}
	return partnersdk.BannerSizeNone, false
}

// Load requests an ad from the partner and keeps it until Invalidate.
func (a *Adapter) Load(ctx context.Context, req mediation.LoadRequest, listener mediation.AdEventListener) (ad *mediation.PartnerAd, err error) {
	req.Placement = strings.TrimSpace(req.Placement)
	if req.Identifier == "" {
		req.Identifier = a.newID()
	}
	if listener == nil {
		listener = mediation.NopAdEventListener{}
	}

	done := a.begin(opLoad, req.Placement)
	defer func() { done(err) }()

	key := opLoad + "/" + req.Placement + "/" + req.Identifier

	adType, ok := partnerAdType(req.Format)
	if !ok {
		return bridge.Fail[*mediation.PartnerAd](key, mediation.NewError(mediation.UnsupportedFormat,
			"format %q is not supported", req.Format)).Await(ctx)
	}
	if req.Placement == "" {
		return bridge.Fail[*mediation.PartnerAd](key, mediation.NewError(mediation.InvalidPlacement,
			"placement is empty")).Await(ctx)
	}

	size := partnersdk.BannerSizeNone
	var chosen *mediation.BannerSize
	if adType == partnersdk.AdTypeBanner {
		var fits bool
		if size, fits = BannerSizeFor(req.Size); !fits {
			return bridge.Fail[*mediation.PartnerAd](key, mediation.NewError(mediation.UnsupportedFormat,
				"no partner banner fits %s", req.Size)).Await(ctx)
		}
		w, h := size.Dimensions()
		chosen = &mediation.BannerSize{Width: w, Height: h}
	}

	record := &adRecord{
		ad: &mediation.PartnerAd{
			Identifier: req.Identifier,
			Request:    req,
			Size:       chosen,
			Details:    map[string]string{"placement": req.Placement},
		},
		adType:   adType,
		listener: listener,
	}

	ad, err = bridge.Run(ctx, key, func(c *bridge.Continuation[*mediation.PartnerAd]) {
		a.sdk.LoadAd(req.Placement, adType, size, req.Adm, &loadListener{
			cont:   c,
			record: record,
			expire: a.expire,
		})
	}, a.bridgeOptions(opLoad)...)
	if err != nil {
		return nil, err
	}

	a.mu.Lock()
	a.ads[req.Identifier] = record
	a.mu.Unlock()

	// an expiry that arrived before the insert found nothing to drop
	if record.expired.Load() {
		a.expire(record)
	}
	return ad, nil
}

// expire drops an ad the partner reported as expired after its load.
func (a *Adapter) expire(record *adRecord) {
	a.mu.Lock()
	current, ok := a.ads[record.ad.Identifier]
	if ok && current == record {
		delete(a.ads, record.ad.Identifier)
	}
	a.mu.Unlock()

	if ok && current == record {
		a.events.Log(mediation.EventDidExpire, record.ad.Identifier)
		record.listener.OnExpire(record.ad)
	}
}

// loadListener resolves the load with the first partner answer. An expiry
// reported after the load is forwarded as an expire event; expire ignores
// records that are not in the loaded set, and Load re-checks the flag after
// storing the record.
type loadListener struct {
	cont   *bridge.Continuation[*mediation.PartnerAd]
	record *adRecord
	expire func(*adRecord)

	expireOnce sync.Once
}

func (l *loadListener) OnAdLoaded(placementID string) {
	l.cont.Resume(l.record.ad)
}

func (l *loadListener) OnAdLoadError(placementID string, err *partnersdk.Error) {
	if l.cont.ResumeWithError(toMediationError(err)) {
		return
	}
	if err != nil && err.Code == partnersdk.CodeAdExpired {
		l.record.expired.Store(true)
		l.expireOnce.Do(func() { l.expire(l.record) })
	}
}
