// Package prices looks up historical USD prices from CoinGecko.
package prices

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const DefaultBaseURL = "https://pro-api.coingecko.com/api/v3"

type Client struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
	logger     *zap.Logger

	mu    sync.Mutex
	daily map[string]decimal.Decimal
}

type HistoricalData struct {
	ID         string               `json:"id"`
	MarketData HistoricalMarketData `json:"market_data"`
}

type HistoricalMarketData struct {
	CurrentPrice map[string]float64 `json:"current_price"`
}

// NewClient builds a client. An empty baseURL selects the pro API.
func NewClient(apiKey, baseURL string, logger *zap.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		apiKey:  apiKey,
		baseURL: baseURL,
		logger:  logger,
		daily:   make(map[string]decimal.Decimal),
	}
}

func (c *Client) SetHttpClient(client *http.Client) {
	c.httpClient = client
}

// GetHistoricalDataByCoinID fetches the market data of a coin on a day.
// date format is "DD-MM-YYYY" (e.g., "30-12-2017").
func (c *Client) GetHistoricalDataByCoinID(ctx context.Context, coinID, date string) (*HistoricalData, error) {
	url := fmt.Sprintf("%s/coins/%s/history", c.baseURL, coinID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	q := req.URL.Query()
	q.Add("date", date)
	q.Add("localization", "false")
	req.URL.RawQuery = q.Encode()

	req.Header.Set("accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("x-cg-pro-api-key", c.apiKey)
	}

	c.logger.Debug("coingecko request",
		zap.String("url", req.URL.String()),
		zap.String("coin", coinID),
		zap.String("date", date),
	)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("coingecko status %d: %s", resp.StatusCode, string(body))
	}

	var data HistoricalData
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	return &data, nil
}

// PriceAt returns the USD price of coin on the UTC day of at. Daily prices
// are memoized; failures are not.
func (c *Client) PriceAt(ctx context.Context, coin string, at time.Time) (decimal.Decimal, error) {
	date := at.UTC().Format("02-01-2006")
	key := coin + "@" + date

	c.mu.Lock()
	price, ok := c.daily[key]
	c.mu.Unlock()
	if ok {
		return price, nil
	}

	data, err := c.GetHistoricalDataByCoinID(ctx, coin, date)
	if err != nil {
		return decimal.Zero, err
	}
	usd, ok := data.MarketData.CurrentPrice["usd"]
	if !ok {
		return decimal.Zero, fmt.Errorf("no usd price for %s on %s", coin, date)
	}
	price = decimal.NewFromFloat(usd)

	c.mu.Lock()
	c.daily[key] = price
	c.mu.Unlock()
	return price, nil
}
