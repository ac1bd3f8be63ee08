package quote

import (
	"context"
	"fmt"

	"github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"
	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
	"github.com/shopspring/decimal"
)

// AlpacaConfig holds the credentials and endpoints for Alpaca.
type AlpacaConfig struct {
	APIKey    string
	APISecret string
	BaseURL   string // trading API, used for asset lookups
	DataURL   string // market data API
}

// Alpaca reads latest trades from Alpaca market data and asset names from
// the trading API. It never places orders.
type Alpaca struct {
	md    *marketdata.Client
	trade *alpaca.Client
}

var _ Provider = (*Alpaca)(nil)

// NewAlpaca creates an Alpaca provider from explicit credentials.
func NewAlpaca(cfg AlpacaConfig) *Alpaca {
	return &Alpaca{
		md: marketdata.NewClient(marketdata.ClientOpts{
			APIKey:    cfg.APIKey,
			APISecret: cfg.APISecret,
			BaseURL:   cfg.DataURL,
		}),
		trade: alpaca.NewClient(alpaca.ClientOpts{
			APIKey:    cfg.APIKey,
			APISecret: cfg.APISecret,
			BaseURL:   cfg.BaseURL,
		}),
	}
}

// Quote returns the latest trade price for symbol.
func (a *Alpaca) Quote(ctx context.Context, symbol string) (Quote, error) {
	trade, err := call(ctx, func() (*marketdata.Trade, error) {
		return a.md.GetLatestTrade(symbol, marketdata.GetLatestTradeRequest{})
	})
	if err != nil {
		return Quote{}, fmt.Errorf("alpaca latest trade %s: %w", symbol, err)
	}
	if trade == nil {
		return Quote{}, fmt.Errorf("alpaca latest trade %s: %w", symbol, ErrUnknownSymbol)
	}

	price := decimal.NewFromFloat(trade.Price)
	if err := validPrice(symbol, price); err != nil {
		return Quote{}, err
	}
	return Quote{Symbol: symbol, Price: price, AsOf: trade.Timestamp, Source: "alpaca"}, nil
}

// Name returns the asset name Alpaca has on file for symbol.
func (a *Alpaca) Name(ctx context.Context, symbol string) (string, error) {
	asset, err := call(ctx, func() (*alpaca.Asset, error) {
		return a.trade.GetAsset(symbol)
	})
	if err != nil {
		return "", fmt.Errorf("alpaca asset %s: %w", symbol, err)
	}
	if asset == nil || asset.Name == "" {
		return "", ErrUnknownSymbol
	}
	return asset.Name, nil
}
