package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/onepostnft/marketd/internal/chain"
)

func newTestEngine(h *JSONRPCHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.POST("/", h.Handle)
	return engine
}

func call(t *testing.T, engine *gin.Engine, body string) JSONRPCResponse {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	engine.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected HTTP 200, got %d", w.Code)
	}
	var resp JSONRPCResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	return resp
}

func TestHandleDispatch(t *testing.T) {
	h := NewJSONRPCHandler()
	h.RegisterMethod("test.echo", func(_ *gin.Context, params json.RawMessage) (interface{}, error) {
		var p map[string]string
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, err
		}
		return p["value"], nil
	})
	engine := newTestEngine(h)

	t.Run("success", func(t *testing.T) {
		resp := call(t, engine, `{"jsonrpc":"2.0","id":1,"method":"test.echo","params":{"value":"hi"}}`)
		if resp.Error != nil {
			t.Fatalf("unexpected error %+v", resp.Error)
		}
		if resp.Result != "hi" {
			t.Errorf("expected hi, got %v", resp.Result)
		}
	})

	t.Run("unknown method", func(t *testing.T) {
		resp := call(t, engine, `{"jsonrpc":"2.0","id":2,"method":"test.nope"}`)
		if resp.Error == nil || resp.Error.Code != ErrMethodNotFound {
			t.Errorf("expected method-not-found, got %+v", resp.Error)
		}
	})

	t.Run("wrong version", func(t *testing.T) {
		resp := call(t, engine, `{"jsonrpc":"1.0","id":3,"method":"test.echo"}`)
		if resp.Error == nil || resp.Error.Code != ErrInvalidRequest {
			t.Errorf("expected invalid-request, got %+v", resp.Error)
		}
	})

	t.Run("malformed body", func(t *testing.T) {
		resp := call(t, engine, `{not json`)
		if resp.Error == nil || resp.Error.Code != ErrParseError {
			t.Errorf("expected parse error, got %+v", resp.Error)
		}
	})
}

func TestHandleErrorClassification(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"validation", chain.ErrInvalidPrice, ErrInvalidParams},
		{"no proposal", chain.ErrNoActiveProposal, ErrInvalidParams},
		{"config", chain.ErrNotConfigured, ErrNotConfigured},
		{"insufficient funds", errors.New("insufficient funds for transfer"), ErrInsufficientFunds},
		{"reverted", errors.New("execution reverted: Post is not for sale"), ErrReverted},
		{"network", errors.New("dial tcp: connection refused"), ErrChainUnreachable},
		{"other", errors.New("boom"), ErrServerError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := NewJSONRPCHandler()
			h.RegisterMethod("test.fail", func(_ *gin.Context, _ json.RawMessage) (interface{}, error) {
				return nil, tc.err
			})
			engine := newTestEngine(h)

			resp := call(t, engine, `{"jsonrpc":"2.0","id":1,"method":"test.fail"}`)
			if resp.Error == nil {
				t.Fatal("expected an error")
			}
			if resp.Error.Code != tc.code {
				t.Errorf("expected code %d, got %d", tc.code, resp.Error.Code)
			}
			if resp.Error.Data == nil {
				t.Error("raw error text must travel in Data")
			}
		})
	}
}
