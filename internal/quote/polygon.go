package quote

import (
	"context"
	"fmt"
	"net/http"
	"time"

	polygonrest "github.com/polygon-io/client-go/rest"
	"github.com/polygon-io/client-go/rest/models"
	"github.com/shopspring/decimal"
)

// Polygon reads last trades and ticker details from the Polygon REST API.
type Polygon struct {
	rest *polygonrest.Client
}

var _ Provider = (*Polygon)(nil)

// NewPolygon creates a Polygon provider. The HTTP client timeout bounds
// every request in addition to the caller's context.
func NewPolygon(apiKey string, timeout time.Duration) *Polygon {
	return &Polygon{
		rest: polygonrest.NewWithClient(apiKey, &http.Client{Timeout: timeout}),
	}
}

// Quote returns the last trade price for symbol.
func (p *Polygon) Quote(ctx context.Context, symbol string) (Quote, error) {
	resp, err := p.rest.GetLastTrade(ctx, &models.GetLastTradeParams{Ticker: symbol})
	if err != nil {
		return Quote{}, fmt.Errorf("polygon last trade %s: %w", symbol, err)
	}

	price := decimal.NewFromFloat(resp.Results.Price)
	if err := validPrice(symbol, price); err != nil {
		return Quote{}, err
	}

	asOf := time.Time(resp.Results.Timestamp)
	if asOf.IsZero() {
		asOf = time.Now().UTC()
	}
	return Quote{Symbol: symbol, Price: price, AsOf: asOf, Source: "polygon"}, nil
}

// Name returns the ticker's company name.
func (p *Polygon) Name(ctx context.Context, symbol string) (string, error) {
	resp, err := p.rest.GetTickerDetails(ctx, &models.GetTickerDetailsParams{Ticker: symbol})
	if err != nil {
		return "", fmt.Errorf("polygon ticker details %s: %w", symbol, err)
	}
	if resp.Results.Name == "" {
		return "", ErrUnknownSymbol
	}
	return resp.Results.Name, nil
}
