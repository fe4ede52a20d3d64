package notify

import (
	"context"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/onepostnft/marketd/pkg/config"
)

func TestPostSold(t *testing.T) {
	seller := common.HexToAddress("0x00000000000000000000000000000000000000a1")
	buyer := common.HexToAddress("0x00000000000000000000000000000000000000b1")

	t.Run("delivers the sale event", func(t *testing.T) {
		var got saleEvent
		var auth string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth = r.Header.Get("Authorization")
			if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
				t.Errorf("bad payload: %v", err)
			}
			w.WriteHeader(http.StatusAccepted)
		}))
		defer srv.Close()

		c := New(&config.NotifyConfig{URL: srv.URL, APIKey: "sekrit", Timeout: time.Second})
		err := c.PostSold(context.Background(), seller, buyer, "42", big.NewInt(5000))
		if err != nil {
			t.Fatalf("PostSold failed: %v", err)
		}
		if got.Type != "post_sold" || got.TokenID != "42" || got.Price != "5000" {
			t.Errorf("unexpected event %+v", got)
		}
		if got.Seller != seller.Hex() || got.Buyer != buyer.Hex() {
			t.Errorf("unexpected parties %+v", got)
		}
		if auth != "Bearer sekrit" {
			t.Errorf("unexpected auth header %q", auth)
		}
	})

	t.Run("non-2xx is an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		c := New(&config.NotifyConfig{URL: srv.URL, Timeout: time.Second})
		if err := c.PostSold(context.Background(), seller, buyer, "1", nil); err == nil {
			t.Error("expected error for 502 response")
		}
	})

	t.Run("nil client is a no-op", func(t *testing.T) {
		var c *Client
		if err := c.PostSold(context.Background(), seller, buyer, "1", nil); err != nil {
			t.Errorf("nil client should be silent, got %v", err)
		}
	})

	t.Run("unconfigured backend yields nil client", func(t *testing.T) {
		if c := New(&config.NotifyConfig{}); c != nil {
			t.Error("expected nil client without a URL")
		}
	})
}
