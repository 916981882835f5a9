// Package observability decorates partner adapters with OpenTelemetry spans.
package observability

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/echoface/mediation-adapter/internal/mediation"
	"github.com/echoface/mediation-adapter/pkg/bridge"
	"github.com/echoface/mediation-adapter/pkg/logger"
)

const tracerName = "github.com/echoface/mediation-adapter/internal/observability"

// Tracing wraps a partner adapter and records one span per lifecycle call.
type Tracing struct {
	inner  mediation.PartnerAdapter
	tracer trace.Tracer
	log    logger.Logger
}

var _ mediation.PartnerAdapter = (*Tracing)(nil)

type Option func(*Tracing)

// WithTracer injects a tracer implementation.
func WithTracer(tr trace.Tracer) Option {
	return func(t *Tracing) {
		t.tracer = tr
	}
}

// WithLogger logs failed lifecycle calls with their trace id.
func WithLogger(l logger.Logger) Option {
	return func(t *Tracing) {
		t.log = l
	}
}

// NewTracing wires the decorator around inner.
func NewTracing(inner mediation.PartnerAdapter, opts ...Option) *Tracing {
	t := &Tracing{
		inner:  inner,
		tracer: nooptrace.NewTracerProvider().Tracer(tracerName),
		log:    logger.NewNop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(t)
		}
	}
	if t.tracer == nil {
		t.tracer = nooptrace.NewTracerProvider().Tracer(tracerName)
	}
	if t.log == nil {
		t.log = logger.NewNop()
	}
	return t
}

// Unwrap returns the decorated adapter.
func (t *Tracing) Unwrap() mediation.PartnerAdapter {
	return t.inner
}

func (t *Tracing) Info() mediation.AdapterInfo {
	return t.inner.Info()
}

func (t *Tracing) Setup(ctx context.Context, cfg mediation.SetupConfig) error {
	ctx, span := t.startSpan(ctx, "PartnerAdapter.Setup")
	defer span.End()

	return t.handleError(ctx, span, t.inner.Setup(ctx, cfg))
}

func (t *Tracing) FetchBidderInformation(ctx context.Context, req mediation.BidderInfoRequest) (map[string]string, error) {
	ctx, span := t.startSpan(ctx, "PartnerAdapter.FetchBidderInformation",
		attribute.String("ad.placement", req.Placement),
		attribute.String("ad.format", string(req.Format)))
	defer span.End()

	info, err := t.inner.FetchBidderInformation(ctx, req)
	if err != nil {
		return nil, t.handleError(ctx, span, err)
	}
	span.SetAttributes(attribute.Int("bidder.info.size", len(info)))
	return info, nil
}

func (t *Tracing) Load(ctx context.Context, req mediation.LoadRequest, listener mediation.AdEventListener) (*mediation.PartnerAd, error) {
	ctx, span := t.startSpan(ctx, "PartnerAdapter.Load",
		attribute.String("ad.placement", req.Placement),
		attribute.String("ad.format", string(req.Format)),
		attribute.Bool("ad.programmatic", req.Adm != ""))
	defer span.End()

	ad, err := t.inner.Load(ctx, req, listener)
	if err != nil {
		return nil, t.handleError(ctx, span, err)
	}
	span.SetAttributes(attribute.String("ad.identifier", ad.Identifier))
	if ad.Size != nil {
		span.SetAttributes(attribute.String("ad.size", ad.Size.String()))
	}
	return ad, nil
}

func (t *Tracing) Show(ctx context.Context, req mediation.ShowRequest) (*mediation.PartnerAd, error) {
	ctx, span := t.startSpan(ctx, "PartnerAdapter.Show", attribute.String("ad.identifier", req.Identifier))
	defer span.End()

	ad, err := t.inner.Show(ctx, req)
	if err != nil {
		return nil, t.handleError(ctx, span, err)
	}
	return ad, nil
}

func (t *Tracing) Invalidate(ctx context.Context, identifier string) error {
	ctx, span := t.startSpan(ctx, "PartnerAdapter.Invalidate", attribute.String("ad.identifier", identifier))
	defer span.End()

	return t.handleError(ctx, span, t.inner.Invalidate(ctx, identifier))
}

func (t *Tracing) SetGDPR(applies bool, consent mediation.GDPRConsent) {
	t.inner.SetGDPR(applies, consent)
}

func (t *Tracing) SetCCPA(hasGivenConsent bool, privacyString string) {
	t.inner.SetCCPA(hasGivenConsent, privacyString)
}

func (t *Tracing) SetCOPPA(isChildDirected bool) {
	t.inner.SetCOPPA(isChildDirected)
}

func (t *Tracing) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append(attrs, attribute.String("partner.id", t.inner.Info().PartnerID))
	return t.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func (t *Tracing) handleError(ctx context.Context, span trace.Span, err error) error {
	if err == nil {
		return nil
	}
	if bridge.IsAbandoned(err) {
		// the partner may still answer; only the caller gave up
		span.SetAttributes(attribute.Bool("caller.abandoned", true))
		return err
	}
	kind, _ := mediation.KindOf(err)
	span.SetAttributes(
		attribute.String("error.kind", kind.String()),
		attribute.Bool("error.retryable", kind.Retryable()),
	)
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())

	t.log.Debug("partner call failed",
		"partner", t.inner.Info().PartnerID,
		"kind", kind.String(),
		"trace_id", span.SpanContext().TraceID().String(),
		"error", err.Error())
	return err
}
