package connectors

// REST client for the Alpaca trading and market data APIs.
// RESTY ONLY + INTERNAL RETRY

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	logger "github.com/sirupsen/logrus"
)

const (
	defaultRetryAttempts   = 5
	defaultRetryBaseDelay  = 500 * time.Millisecond
	defaultRetryMaxBackoff = 8 * time.Second

	defaultAlpacaLiveBaseURL  = "https://api.alpaca.markets"
	defaultAlpacaPaperBaseURL = "https://paper-api.alpaca.markets"
	defaultAlpacaDataBaseURL  = "https://data.alpaca.markets"
)

type alpacaLatestTradeResponse struct {
	Symbol string `json:"symbol"`
	Trade  struct {
		Price     float64 `json:"p"`
		Size      int64   `json:"s"`
		Timestamp string  `json:"t"`
	} `json:"trade"`
}

type alpacaOrderResponse struct {
	ID             string  `json:"id"`
	Symbol         string  `json:"symbol"`
	Qty            string  `json:"qty"`
	Side           string  `json:"side"`
	Status         string  `json:"status"`
	FilledAvgPrice *string `json:"filled_avg_price"`
}

type alpacaOrderRequest struct {
	Symbol      string `json:"symbol"`
	Qty         string `json:"qty"`
	Side        string `json:"side"`
	Type        string `json:"type"`
	TimeInForce string `json:"time_in_force"`
}

// AlpacaClient talks to the Alpaca REST API. One client per bot
// instance, holding that user's credentials.
type AlpacaClient struct {
	http *resty.Client
	data *resty.Client
}

func isRetryableResp(r *resty.Response, err error) bool {
	if err != nil {
		return true
	}
	if r == nil {
		return false
	}

	code := r.StatusCode()

	if code >= 500 && code <= 599 {
		return true
	}
	if code == 429 {
		return true
	}
	if code == 408 {
		return true
	}
	return false
}

// NewAlpacaClient builds a client against the live or paper trading
// endpoint. An empty baseURL selects the default for the mode.
func NewAlpacaClient(apiKey, apiSecret, baseURL string, paper bool) *AlpacaClient {
	retryCount := defaultRetryAttempts - 1

	if baseURL == "" {
		baseURL = defaultAlpacaLiveBaseURL
		if paper {
			baseURL = defaultAlpacaPaperBaseURL
		}
	}

	newClient := func(base string) *resty.Client {
		return resty.New().
			SetBaseURL(base).
			SetTimeout(15 * time.Second).
			SetRetryCount(retryCount).
			SetRetryWaitTime(defaultRetryBaseDelay).
			SetRetryMaxWaitTime(defaultRetryMaxBackoff).
			AddRetryCondition(isRetryableResp).
			SetHeader("APCA-API-KEY-ID", apiKey).
			SetHeader("APCA-API-SECRET-KEY", apiSecret)
	}

	return &AlpacaClient{
		http: newClient(baseURL),
		data: newClient(defaultAlpacaDataBaseURL),
	}
}

// GetLatestTrade returns the price of the most recent trade for the
// symbol.
func (c *AlpacaClient) GetLatestTrade(ctx context.Context, symbol string) (float64, error) {
	var out alpacaLatestTradeResponse

	resp, err := c.data.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		SetResult(&out).
		Get(fmt.Sprintf("/v2/stocks/%s/trades/latest", symbol))
	if err != nil {
		return 0, fmt.Errorf("latest trade request failed: %w", err)
	}
	if resp.StatusCode() != 200 {
		return 0, fmt.Errorf("latest trade HTTP %d: %s", resp.StatusCode(), resp.Body())
	}
	if out.Trade.Price <= 0 {
		return 0, fmt.Errorf("latest trade for %s has no price", symbol)
	}

	return out.Trade.Price, nil
}

// SubmitMarketOrder places a day market order and returns the broker
// acknowledgement.
func (c *AlpacaClient) SubmitMarketOrder(ctx context.Context, symbol string, quantity int64, side string) (*OrderFill, error) {
	body := alpacaOrderRequest{
		Symbol:      symbol,
		Qty:         fmt.Sprintf("%d", quantity),
		Side:        side,
		Type:        "market",
		TimeInForce: "day",
	}

	var out alpacaOrderResponse

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		SetBody(body).
		SetResult(&out).
		Post("/v2/orders")
	if err != nil {
		return nil, fmt.Errorf("order request failed: %w", err)
	}
	if resp.StatusCode() != 200 && resp.StatusCode() != 201 {
		return nil, fmt.Errorf("order HTTP %d: %s", resp.StatusCode(), resp.Body())
	}

	fill := &OrderFill{OrderID: out.ID, Status: out.Status}
	if out.FilledAvgPrice != nil {
		if _, err := fmt.Sscanf(*out.FilledAvgPrice, "%f", &fill.FillPrice); err != nil {
			logger.WithField("symbol", symbol).
				WithError(err).
				Warn("Could not parse filled_avg_price from order response")
		}
	}

	return fill, nil
}
