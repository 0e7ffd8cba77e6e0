package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// HTTPFeed queries a market-data service over HTTP. A single bounded attempt
// is made per lookup; retry policy belongs to the feed service itself.
type HTTPFeed struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// NewHTTPFeed creates an HTTP market feed client. If logger is nil, it will
// use a no-op logger to prevent panics.
func NewHTTPFeed(baseURL string, timeout time.Duration, logger *zap.Logger) *HTTPFeed {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPFeed{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

type feedResponse struct {
	CropCode  string    `json:"cropCode"`
	PriceEurT float64   `json:"priceEurT"`
	AsOf      time.Time `json:"asOf"`
}

// GetQuote fetches the current quote for a crop code. A 404 means the feed
// has no series for that crop and is reported as absence, not an error.
func (f *HTTPFeed) GetQuote(ctx context.Context, cropCode string) (MarketQuote, bool, error) {
	url := fmt.Sprintf("%s/quotes/%s", f.baseURL, cropCode)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return MarketQuote{}, false, err
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return MarketQuote{}, false, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return MarketQuote{}, false, nil
	default:
		return MarketQuote{}, false, fmt.Errorf("market feed returned status %d for %s", resp.StatusCode, cropCode)
	}

	var body feedResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return MarketQuote{}, false, fmt.Errorf("failed to decode market feed response for %s: %w", cropCode, err)
	}

	f.logger.Debug("market quote received",
		zap.String("op", "pricing.HTTPFeed.GetQuote"),
		zap.String("crop", cropCode),
		zap.Float64("price", body.PriceEurT),
	)
	return MarketQuote{PriceEurT: body.PriceEurT, AsOf: body.AsOf}, true, nil
}
