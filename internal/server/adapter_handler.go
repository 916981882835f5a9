package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/echoface/mediation-adapter/internal/mediation"
	"github.com/echoface/mediation-adapter/pkg/jsonx"
)

const partnerKey = "partner"

var errMissingIdentifier = errors.New("identifier is required")

// AdapterHandler serves the partner adapter operations over HTTP.
type AdapterHandler struct {
	appCtx *AppContext
}

func NewAdapterHandler(appCtx *AppContext) *AdapterHandler {
	return &AdapterHandler{appCtx: appCtx}
}

// AdView is the JSON form of a loaded ad.
type AdView struct {
	Identifier string                `json:"identifier"`
	Partner    string                `json:"partner"`
	Placement  string                `json:"placement"`
	Format     mediation.AdFormat    `json:"format"`
	Size       *mediation.BannerSize `json:"size,omitempty"`
	Details    map[string]string     `json:"details,omitempty"`
}

func newAdView(partner string, ad *mediation.PartnerAd) AdView {
	return AdView{
		Identifier: ad.Identifier,
		Partner:    partner,
		Placement:  ad.Request.Placement,
		Format:     ad.Request.Format,
		Size:       ad.Size,
		Details:    ad.Details,
	}
}

// ConsentRequest carries the privacy signals to forward. Absent sections are
// left untouched.
type ConsentRequest struct {
	GDPR *struct {
		Applies bool                  `json:"applies"`
		Consent mediation.GDPRConsent `json:"consent"`
	} `json:"gdpr,omitempty"`
	CCPA *struct {
		HasGivenConsent bool   `json:"has_given_consent"`
		PrivacyString   string `json:"privacy_string"`
	} `json:"ccpa,omitempty"`
	COPPA *struct {
		ChildDirected bool `json:"child_directed"`
	} `json:"coppa,omitempty"`
}

// ResolvePartner looks up the :partner path parameter.
func (h *AdapterHandler) ResolvePartner(c *gin.Context) {
	id := c.Param(partnerKey)
	p, ok := h.appCtx.Partner(id)
	if !ok {
		c.AbortWithStatusJSON(http.StatusNotFound, ErrorBody{
			Kind:    kindUnknownPartner,
			Message: "unknown partner " + id,
		})
		return
	}
	c.Set(partnerKey, p)
	c.Next()
}

func partnerOf(c *gin.Context) *Partner {
	return c.MustGet(partnerKey).(*Partner)
}

// Setup initializes the partner. An empty body uses the configured
// credentials.
func (h *AdapterHandler) Setup(c *gin.Context) {
	p := partnerOf(c)

	var cfg mediation.SetupConfig
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&cfg); err != nil {
			abortBadRequest(c, err)
			return
		}
	}
	if len(cfg.Credentials) == 0 {
		cfg = p.Config.SetupConfig()
	}

	ctx, cancel := h.appCtx.requestContext(c.Request.Context(), p)
	defer cancel()
	if err := p.Adapter.Setup(ctx, cfg); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"partner": p.ID(), "info": p.Adapter.Info()})
}

// Load loads one ad. Its later events are kept for the events endpoint.
func (h *AdapterHandler) Load(c *gin.Context) {
	p := partnerOf(c)

	var req mediation.LoadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortBadRequest(c, err)
		return
	}
	if req.Options == (mediation.AdOptions{}) {
		req.Options = p.Config.DefaultOptions
	}

	if req.Identifier == "" {
		req.Identifier = uuid.NewString()
	}
	// the partner may report events before Load returns
	fresh := p.events.track(req.Identifier)

	ctx, cancel := h.appCtx.requestContext(c.Request.Context(), p)
	defer cancel()
	ad, err := p.Adapter.Load(ctx, req, p.events)
	h.appCtx.Health.Record(p.ID(), err)
	if err != nil {
		if fresh {
			p.events.forget(req.Identifier)
		}
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, newAdView(p.ID(), ad))
}

// Show presents a loaded ad.
func (h *AdapterHandler) Show(c *gin.Context) {
	p := partnerOf(c)

	var req mediation.ShowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortBadRequest(c, err)
		return
	}
	if strings.TrimSpace(req.Identifier) == "" {
		abortBadRequest(c, errMissingIdentifier)
		return
	}

	ctx, cancel := h.appCtx.requestContext(c.Request.Context(), p)
	defer cancel()
	ad, err := p.Adapter.Show(ctx, req)
	h.appCtx.Health.Record(p.ID(), err)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, newAdView(p.ID(), ad))
}

// Invalidate forgets a loaded ad.
func (h *AdapterHandler) Invalidate(c *gin.Context) {
	p := partnerOf(c)

	var req struct {
		Identifier string `json:"identifier"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		abortBadRequest(c, err)
		return
	}
	if strings.TrimSpace(req.Identifier) == "" {
		abortBadRequest(c, errMissingIdentifier)
		return
	}

	if err := p.Adapter.Invalidate(c.Request.Context(), req.Identifier); err != nil {
		abortWithError(c, err)
		return
	}
	p.events.forget(req.Identifier)
	c.Status(http.StatusNoContent)
}

// Consent forwards privacy signals to the partner.
func (h *AdapterHandler) Consent(c *gin.Context) {
	p := partnerOf(c)

	var req ConsentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortBadRequest(c, err)
		return
	}
	if req.GDPR != nil {
		consent := req.GDPR.Consent
		if consent == "" {
			consent = mediation.GDPRConsentUnknown
		}
		p.Adapter.SetGDPR(req.GDPR.Applies, consent)
	}
	if req.CCPA != nil {
		p.Adapter.SetCCPA(req.CCPA.HasGivenConsent, req.CCPA.PrivacyString)
	}
	if req.COPPA != nil {
		p.Adapter.SetCOPPA(req.COPPA.ChildDirected)
	}
	c.Status(http.StatusNoContent)
}

// Events returns the recorded events of one loaded ad.
func (h *AdapterHandler) Events(c *gin.Context) {
	p := partnerOf(c)
	id := c.Param("id")

	events, ok := p.events.get(id)
	if !ok {
		abortWithError(c, mediation.NewError(mediation.AdNotFound, "no loaded ad %q", id))
		return
	}
	c.JSON(http.StatusOK, gin.H{"identifier": id, "events": events})
}

// Partners lists the registered partners with their readiness.
func (h *AdapterHandler) Partners(c *gin.Context) {
	type partnerView struct {
		mediation.AdapterInfo
		Ready   bool     `json:"ready"`
		Pending []string `json:"pending,omitempty"`
	}

	ids := h.appCtx.PartnerIDs()
	out := make([]partnerView, 0, len(ids))
	for _, id := range ids {
		p, ok := h.appCtx.Partner(id)
		if !ok {
			continue
		}
		out = append(out, partnerView{
			AdapterInfo: p.Adapter.Info(),
			Ready:       h.appCtx.Health.Get(id).Ready,
			Pending:     p.PendingKeys(),
		})
	}
	c.JSON(http.StatusOK, gin.H{"partners": out})
}

// BidderInfo collects bidding tokens from every partner. Partners that fail
// are reported inline.
func (h *AdapterHandler) BidderInfo(c *gin.Context) {
	req := mediation.BidderInfoRequest{
		Format:    mediation.AdFormat(c.Query("format")),
		Placement: c.Query("placement"),
	}
	bi := h.appCtx.Config.BidderInfo
	infos := mediation.CollectBidderInformation(c.Request.Context(), h.appCtx.Adapters, req, bi.MaxConcurrency, bi.Timeout)

	data, err := jsonx.JSONE(gin.H{"bidders": infos})
	if err != nil {
		_ = c.AbortWithError(http.StatusInternalServerError, err)
		return
	}
	c.Data(http.StatusOK, gin.MIMEJSON+"; charset=utf-8", data)
}
