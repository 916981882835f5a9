package mediation

import (
	"context"
	"time"

	"github.com/echoface/mediation-adapter/pkg/concurrent"
)

// BidderInformation is the token payload of one partner.
type BidderInformation struct {
	PartnerID string            `json:"partner_id"`
	Info      map[string]string `json:"info,omitempty"`
	Error     string            `json:"error,omitempty"`
	ErrorKind string            `json:"error_kind,omitempty"`
}

// CollectBidderInformation asks every registered adapter for its bidding
// token within timeout. Partners that fail or run late are reported with
// their error instead of failing the whole collection.
func CollectBidderInformation(
	ctx context.Context,
	registry *AdapterRegistry,
	req BidderInfoRequest,
	maxConcurrency int,
	timeout time.Duration,
) []BidderInformation {
	adapters := registry.All()
	if len(adapters) == 0 {
		return nil
	}

	tasks := make([]concurrent.Task[map[string]string], 0, len(adapters))
	for _, adapter := range adapters {
		tasks = append(tasks, func(ctx context.Context) (map[string]string, error) {
			return adapter.FetchBidderInformation(ctx, req)
		})
	}

	controller := concurrent.NewConcurrencyController(maxConcurrency)
	results, _ := concurrent.ExecuteWithTimeout(controller, ctx, tasks, timeout)

	infos := make([]BidderInformation, 0, len(adapters))
	for i, adapter := range adapters {
		info := BidderInformation{PartnerID: adapter.Info().PartnerID}
		if i < len(results) {
			if err := results[i].Error; err != nil {
				info.Error = err.Error()
				if kind, ok := KindOf(err); ok {
					info.ErrorKind = kind.String()
				}
			} else {
				info.Info = results[i].Value
			}
		}
		infos = append(infos, info)
	}
	return infos
}
