// Package pricing implements the multi-source price resolution chain. For a
// given crop it produces a single price per tonne together with the source
// tier it came from, by walking a fixed-priority fallback chain: market feed,
// local price table, proxy crop, catalog default. The catalog tier never
// fails, so the resolver is total over every valid crop code.
package pricing

import (
	"context"
	"time"

	"github.com/uldisg/cropwise/internal/catalog"
	"github.com/uldisg/cropwise/pkg/constants"
	"go.uber.org/zap"
)

// Tier identifies the source a resolved price came from, in resolution
// priority order.
type Tier string

const (
	TierMarket  Tier = "market"
	TierLocal   Tier = "local"
	TierProxy   Tier = "proxy"
	TierCatalog Tier = "catalog"
)

// Quote is a resolved price. The tier is always surfaced to the caller since
// trust in the number depends on its provenance.
type Quote struct {
	CropCode  string    `json:"cropCode"`
	PriceEurT float64   `json:"priceEurT"`
	Currency  string    `json:"currency"`
	Tier      Tier      `json:"tier"`
	AsOf      time.Time `json:"asOf"`
	// ProxyOf names the representative crop whose price was borrowed when
	// Tier is TierProxy.
	ProxyOf string `json:"proxyOf,omitempty"`
}

// MarketQuote is a single quote from the external market feed.
type MarketQuote struct {
	PriceEurT float64
	AsOf      time.Time
}

// MarketFeed is the narrow interface to the external market-data feed.
// Absence of a quote is reported through ok=false, not through an error; an
// error indicates the feed itself failed and is absorbed by the resolver.
type MarketFeed interface {
	GetQuote(ctx context.Context, cropCode string) (quote MarketQuote, ok bool, err error)
}

// Resolver walks the fallback chain. It holds read-only snapshots of the
// local table and catalog, so concurrent use is safe.
type Resolver struct {
	feed        MarketFeed
	local       LocalTable
	catalog     *catalog.Catalog
	timeout     time.Duration
	catalogAsOf time.Time
	logger      *zap.Logger
}

// NewResolver creates a resolver. The feed may be nil when no external
// market source is configured; the local table may be empty. If logger is
// nil, it will use a no-op logger to prevent panics.
func NewResolver(feed MarketFeed, local LocalTable, cat *catalog.Catalog, timeout time.Duration, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = constants.DefaultMarketFeedTimeoutSeconds * time.Second
	}
	return &Resolver{
		feed:        feed,
		local:       local,
		catalog:     cat,
		timeout:     timeout,
		catalogAsOf: time.Now(),
		logger:      logger,
	}
}

// Resolve returns exactly one quote for every crop code present in the
// catalog. External source failures are never surfaced; the only possible
// error is an UnknownCropError for a code absent from the catalog.
func (r *Resolver) Resolve(ctx context.Context, cropCode string) (Quote, error) {
	crop, err := r.catalog.Get(cropCode)
	if err != nil {
		return Quote{}, err
	}

	if q, ok := r.resolveDirect(ctx, cropCode); ok {
		return q, nil
	}

	// Proxy tier: borrow the representative crop's price through the market
	// and local tiers only. Never through another proxy, so a proxy pointing
	// back at a crop whose own proxy points here still terminates.
	if crop.ProxyGroup != "" && crop.ProxyGroup != cropCode {
		if q, ok := r.resolveDirect(ctx, crop.ProxyGroup); ok {
			return Quote{
				CropCode:  cropCode,
				PriceEurT: q.PriceEurT,
				Currency:  constants.Currency,
				Tier:      TierProxy,
				AsOf:      q.AsOf,
				ProxyOf:   crop.ProxyGroup,
			}, nil
		}
	}

	// Catalog tier never fails: every entry is validated at load time to
	// carry a positive price.
	return Quote{
		CropCode:  cropCode,
		PriceEurT: crop.PriceEurT,
		Currency:  constants.Currency,
		Tier:      TierCatalog,
		AsOf:      r.catalogAsOf,
	}, nil
}

// resolveDirect evaluates the market and local tiers for a crop code.
func (r *Resolver) resolveDirect(ctx context.Context, cropCode string) (Quote, bool) {
	if q, ok := r.resolveMarket(ctx, cropCode); ok {
		return q, true
	}
	if entry, ok := r.local[cropCode]; ok {
		return Quote{
			CropCode:  cropCode,
			PriceEurT: entry.PriceEurT,
			Currency:  constants.Currency,
			Tier:      TierLocal,
			AsOf:      entry.EffectiveDate,
		}, true
	}
	return Quote{}, false
}

// resolveMarket queries the external feed with a bounded timeout. A failure
// or missing entry is not an error, it is a signal to fall through.
func (r *Resolver) resolveMarket(ctx context.Context, cropCode string) (Quote, bool) {
	if r.feed == nil {
		return Quote{}, false
	}
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	mq, ok, err := r.feed.GetQuote(ctx, cropCode)
	if err != nil {
		r.logger.Debug("market feed unavailable, falling through",
			zap.String("op", "pricing.Resolve"),
			zap.String("crop", cropCode),
			zap.Error(err),
		)
		return Quote{}, false
	}
	if !ok {
		return Quote{}, false
	}
	if mq.PriceEurT < 0 {
		r.logger.Warn("market feed returned negative price, falling through",
			zap.String("op", "pricing.Resolve"),
			zap.String("crop", cropCode),
			zap.Float64("price", mq.PriceEurT),
		)
		return Quote{}, false
	}
	return Quote{
		CropCode:  cropCode,
		PriceEurT: mq.PriceEurT,
		Currency:  constants.Currency,
		Tier:      TierMarket,
		AsOf:      mq.AsOf,
	}, true
}
