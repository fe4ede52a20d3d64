// Package notify pushes sale events to the realtime notification backend.
// Delivery is best-effort: callers log and drop failures rather than
// propagating them into purchase flows.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/onepostnft/marketd/pkg/config"
	"github.com/onepostnft/marketd/pkg/logging"
)

// saleEvent is the wire payload for a sold-post notification.
type saleEvent struct {
	Type    string `json:"type"`
	Seller  string `json:"seller"`
	Buyer   string `json:"buyer"`
	TokenID string `json:"token_id"`
	Price   string `json:"price"`
	SoldAt  int64  `json:"sold_at"`
}

// Client posts sale notifications to the configured backend.
type Client struct {
	url    string
	apiKey string
	http   *http.Client
	logger *zap.Logger
}

// New creates a notification client, or nil when no backend is configured.
// A nil *Client is safe to pass where a notifier is optional.
func New(cfg *config.NotifyConfig) *Client {
	if cfg == nil || cfg.URL == "" {
		return nil
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		url:    cfg.URL,
		apiKey: cfg.APIKey,
		http:   &http.Client{Timeout: timeout},
		logger: logging.GetLogger().With(zap.String("component", "notify")),
	}
}

// PostSold notifies the backend that tokenID changed hands.
func (c *Client) PostSold(ctx context.Context, seller, buyer common.Address, tokenID string, price *big.Int) error {
	if c == nil {
		return nil
	}

	event := saleEvent{
		Type:    "post_sold",
		Seller:  seller.Hex(),
		Buyer:   buyer.Hex(),
		TokenID: tokenID,
		SoldAt:  time.Now().UnixMilli(),
	}
	if price != nil {
		event.Price = price.String()
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode sale event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to deliver sale notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("notification backend returned status %d", resp.StatusCode)
	}

	c.logger.Debug("Sale notification delivered",
		zap.String("token_id", tokenID),
		zap.String("seller", event.Seller))
	return nil
}
