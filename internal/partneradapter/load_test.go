package partneradapter

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/echoface/mediation-adapter/internal/mediation"
	"github.com/echoface/mediation-adapter/internal/partnersdk"
	"github.com/echoface/mediation-adapter/internal/partnersdk/sim"
	"github.com/echoface/mediation-adapter/pkg/bridge"
)

type loadResult struct {
	ad  *mediation.PartnerAd
	err error
}

// startLoad runs Load on its own goroutine and waits until the partner holds
// the load listener.
func startLoad(t *testing.T, a *Adapter, sdk *spySDK, req mediation.LoadRequest, listener mediation.AdEventListener) (<-chan loadResult, partnersdk.LoadListener) {
	t.Helper()
	out := make(chan loadResult, 1)
	go func() {
		ad, err := a.Load(context.Background(), req, listener)
		out <- loadResult{ad: ad, err: err}
	}()
	placement := strings.TrimSpace(req.Placement)
	require.Eventually(t, func() bool { return sdk.loadListener(placement) != nil }, waitFor, time.Millisecond)
	return out, sdk.loadListener(placement)
}

func TestLoadErrorThenSuccessKeepsError(t *testing.T) {
	sdk := newSpySDK()
	a, events, m := newTestAdapter(sdk)

	out, l := startLoad(t, a, sdk, mediation.LoadRequest{
		Identifier: "load-1",
		Placement:  "placementA",
		Format:     mediation.FormatInterstitial,
	}, nil)

	l.OnAdLoadError("placementA", partnersdk.NewError(partnersdk.CodeNetworkUnreachable, "offline"))
	l.OnAdLoaded("placementA")

	res := <-out
	assert.Nil(t, res.ad)
	require.Error(t, res.err)
	kind, ok := mediation.KindOf(res.err)
	assert.True(t, ok)
	assert.Equal(t, mediation.NoConnectivity, kind)

	assert.Equal(t, 1, events.count(mediation.EventLoadFailed))
	assert.Equal(t, 1, events.count(mediation.EventCallbackDropped))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.DroppedCallbacks.WithLabelValues(defaultPartnerID, opLoad)))

	_, err := a.Show(context.Background(), mediation.ShowRequest{Identifier: "load-1"})
	assert.ErrorIs(t, err, mediation.ErrAdNotFound)
}

func TestLoadSuccess(t *testing.T) {
	sdk := newSpySDK()
	a, events, _ := newTestAdapter(sdk)

	out, l := startLoad(t, a, sdk, mediation.LoadRequest{
		Identifier: "load-1",
		Placement:  " placementA ",
		Format:     mediation.FormatRewarded,
	}, nil)
	l.OnAdLoaded("placementA")

	res := <-out
	require.NoError(t, res.err)
	assert.Equal(t, "load-1", res.ad.Identifier)
	assert.Equal(t, "placementA", res.ad.Request.Placement)
	assert.Equal(t, "placementA", res.ad.Details["placement"])
	assert.Nil(t, res.ad.Size)
	assert.Equal(t, 1, events.count(mediation.EventLoadSucceeded))
	assert.Empty(t, a.PendingKeys())
}

func TestLoadGeneratesIdentifier(t *testing.T) {
	sdk := newSpySDK()
	a := New(sdk, WithIDGenerator(func() string { return "generated" }))

	out, l := startLoad(t, a, sdk, mediation.LoadRequest{
		Placement: "placementA",
		Format:    mediation.FormatInterstitial,
	}, nil)
	l.OnAdLoaded("placementA")

	res := <-out
	require.NoError(t, res.err)
	assert.Equal(t, "generated", res.ad.Identifier)
}

func TestLoadPreconditionsSkipPartner(t *testing.T) {
	cases := []struct {
		name string
		req  mediation.LoadRequest
		want error
	}{
		{
			name: "unknown format",
			req:  mediation.LoadRequest{Placement: "placementA", Format: "native"},
			want: mediation.ErrUnsupportedFormat,
		},
		{
			name: "empty placement",
			req:  mediation.LoadRequest{Placement: "  ", Format: mediation.FormatInterstitial},
			want: mediation.ErrInvalidPlacement,
		},
		{
			name: "banner too small",
			req: mediation.LoadRequest{
				Placement: "placementA",
				Format:    mediation.FormatBanner,
				Size:      &mediation.BannerSize{Width: 100, Height: 20},
			},
			want: mediation.ErrUnsupportedFormat,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sdk := newSpySDK()
			a, _, _ := newTestAdapter(sdk)

			ad, err := a.Load(context.Background(), tc.req, nil)
			assert.Nil(t, ad)
			assert.ErrorIs(t, err, tc.want)
			_, loadCalls, _ := sdk.counts()
			assert.Zero(t, loadCalls)
		})
	}
}

func TestLoadAbandonedByContext(t *testing.T) {
	sdk := newSpySDK()
	a, _, _ := newTestAdapter(sdk)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := a.Load(ctx, mediation.LoadRequest{
		Identifier: "load-1",
		Placement:  "placementA",
		Format:     mediation.FormatInterstitial,
	}, nil)
	assert.ErrorIs(t, err, bridge.ErrAbandoned)
	assert.Empty(t, a.PendingKeys())

	l := sdk.loadListener("placementA")
	require.NotNil(t, l)
	assert.NotPanics(t, func() { l.OnAdLoaded("placementA") })

	_, err = a.Show(context.Background(), mediation.ShowRequest{Identifier: "load-1"})
	assert.ErrorIs(t, err, mediation.ErrAdNotFound)
}

func TestBannerSizeFor(t *testing.T) {
	cases := []struct {
		name   string
		size   *mediation.BannerSize
		want   partnersdk.BannerSize
		wantOK bool
	}{
		{"missing size", nil, partnersdk.BannerSizeStandard, true},
		{"exact standard", &mediation.BannerSize{Width: 320, Height: 50}, partnersdk.BannerSizeStandard, true},
		{"leaderboard", &mediation.BannerSize{Width: 728, Height: 90}, partnersdk.BannerSizeLeaderboard, true},
		{"wide but short", &mediation.BannerSize{Width: 1024, Height: 60}, partnersdk.BannerSizeStandard, true},
		{"medium rectangle", &mediation.BannerSize{Width: 300, Height: 250}, partnersdk.BannerSizeMediumRectangle, true},
		{"adaptive large", &mediation.BannerSize{Width: 800, Height: 400}, partnersdk.BannerSizeMediumRectangle, true},
		{"too small", &mediation.BannerSize{Width: 300, Height: 40}, partnersdk.BannerSizeNone, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := BannerSizeFor(tc.size)
			assert.Equal(t, tc.wantOK, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestBannerLoadReportsChosenSize(t *testing.T) {
	sdk := newSpySDK()
	a, _, _ := newTestAdapter(sdk)

	out, l := startLoad(t, a, sdk, mediation.LoadRequest{
		Placement: "bannerA",
		Format:    mediation.FormatBanner,
		Size:      &mediation.BannerSize{Width: 750, Height: 100},
	}, nil)
	l.OnAdLoaded("bannerA")

	res := <-out
	require.NoError(t, res.err)
	assert.Equal(t, &mediation.BannerSize{Width: 728, Height: 90}, res.ad.Size)
	assert.Equal(t, partnersdk.BannerSizeLeaderboard, sdk.lastSize)
}

func TestLoadWithDuplicateCallbacks(t *testing.T) {
	partner := sim.New(sim.Options{DuplicateCallbacks: true, Latency: time.Millisecond})
	a, events, _ := newTestAdapter(partner)
	require.NoError(t, a.Setup(context.Background(), appCredentials))

	ad, err := a.Load(context.Background(), mediation.LoadRequest{
		Placement: "placementA",
		Format:    mediation.FormatInterstitial,
	}, nil)
	require.NoError(t, err)
	assert.NotNil(t, ad)

	partner.FailLoads("placementB", partnersdk.NewError(partnersdk.CodeNoServe, "no fill"))
	_, err = a.Load(context.Background(), mediation.LoadRequest{
		Placement: "placementB",
		Format:    mediation.FormatInterstitial,
	}, nil)
	assert.ErrorIs(t, err, mediation.ErrNoFill)

	assert.Eventually(t, func() bool {
		return events.count(mediation.EventCallbackDropped) >= 6
	}, waitFor, time.Millisecond)
}

func TestLoadBeforeSetupFails(t *testing.T) {
	partner := sim.New(sim.Options{})
	a, _, _ := newTestAdapter(partner)

	_, err := a.Load(context.Background(), mediation.LoadRequest{
		Placement: "placementA",
		Format:    mediation.FormatInterstitial,
	}, nil)
	assert.ErrorIs(t, err, mediation.ErrInitializationFailure)
}

func TestExpiredAdIsForgotten(t *testing.T) {
	partner := sim.New(sim.Options{})
	a, events, _ := newTestAdapter(partner)
	require.NoError(t, a.Setup(context.Background(), appCredentials))

	listener := newRecordingListener()
	ad, err := a.Load(context.Background(), mediation.LoadRequest{
		Identifier: "load-1",
		Placement:  "placementA",
		Format:     mediation.FormatRewarded,
	}, listener)
	require.NoError(t, err)

	require.True(t, partner.Expire("placementA"))
	select {
	case <-listener.done:
	case <-time.After(waitFor):
		t.Fatal("expire was not forwarded")
	}
	assert.Equal(t, 1, listener.expired)
	assert.Equal(t, 1, events.count(mediation.EventDidExpire))

	_, err = a.Show(context.Background(), mediation.ShowRequest{Identifier: ad.Identifier})
	assert.ErrorIs(t, err, mediation.ErrAdNotFound)
}

func TestExpiryBeforeLoadReturnsIsNotLost(t *testing.T) {
	sdk := newSpySDK()
	sdk.answerLoad = func(placementID string, l partnersdk.LoadListener) {
		l.OnAdLoaded(placementID)
		l.OnAdLoadError(placementID, partnersdk.NewError(partnersdk.CodeAdExpired, "expired"))
	}
	a, events, _ := newTestAdapter(sdk)
	listener := newRecordingListener()

	ad, err := a.Load(context.Background(), mediation.LoadRequest{
		Identifier: "load-1",
		Placement:  "placementA",
		Format:     mediation.FormatInterstitial,
	}, listener)
	require.NoError(t, err)
	require.NotNil(t, ad)

	assert.Equal(t, 1, listener.expired)
	assert.Equal(t, 1, events.count(mediation.EventDidExpire))
	_, err = a.Show(context.Background(), mediation.ShowRequest{Identifier: "load-1"})
	assert.ErrorIs(t, err, mediation.ErrAdNotFound)
}
