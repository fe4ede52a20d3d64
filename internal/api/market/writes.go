package market

import (
	"context"
	"encoding/json"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/gin-gonic/gin"

	"github.com/onepostnft/marketd/internal/chain"
)

// chainWriter is the mutating slice of the chain gateway.
type chainWriter interface {
	CreatePost(ctx context.Context, contentHash string, price *big.Int) (*types.Transaction, error)
	ProposeSell(ctx context.Context, tokenID, price *big.Int) (*types.Transaction, error)
	CancelSell(ctx context.Context, tokenID *big.Int) (*types.Transaction, error)
	BuyPost(ctx context.Context, tokenID *big.Int, pay chain.PaymentMethod) (*types.Transaction, error)
	ApproveToken(ctx context.Context, amount *big.Int) (*types.Transaction, error)
	MintTokens(ctx context.Context, to common.Address, amount *big.Int) (*types.Transaction, error)
}

// WriteAPI provides the mutating marketplace methods
type WriteAPI struct {
	gateway chainWriter
}

// NewWriteAPI creates a new marketplace write API
func NewWriteAPI(gateway chainWriter) *WriteAPI {
	return &WriteAPI{gateway: gateway}
}

// TxResult is the JSON shape of a submitted transaction.
type TxResult struct {
	TransactionHash string `json:"transaction_hash"`
}

func txResult(tx *types.Transaction) TxResult {
	return TxResult{TransactionHash: tx.Hash().Hex()}
}

type createParams struct {
	ContentHash string `json:"content_hash"`
	Price       string `json:"price"`
}

type sellParams struct {
	TokenID string `json:"token_id"`
	Price   string `json:"price"`
}

type buyParams struct {
	TokenID string `json:"token_id"`
	Payment string `json:"payment"`
}

type amountParams struct {
	Amount string `json:"amount"`
}

type mintParams struct {
	To     string `json:"to"`
	Amount string `json:"amount"`
}

// CreatePost handles market.create_post
func (a *WriteAPI) CreatePost(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	var p createParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, err
	}

	price := big.NewInt(0)
	if p.Price != "" {
		parsed, err := parseBig(p.Price, "price")
		if err != nil {
			return nil, err
		}
		price = parsed
	}

	tx, err := a.gateway.CreatePost(ctx.Request.Context(), p.ContentHash, price)
	if err != nil {
		return nil, err
	}
	return txResult(tx), nil
}

// ProposeSell handles market.propose_sell
func (a *WriteAPI) ProposeSell(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	var p sellParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, err
	}
	tokenID, err := parseBig(p.TokenID, "token_id")
	if err != nil {
		return nil, err
	}
	price, err := parseBig(p.Price, "price")
	if err != nil {
		return nil, err
	}

	tx, err := a.gateway.ProposeSell(ctx.Request.Context(), tokenID, price)
	if err != nil {
		return nil, err
	}
	return txResult(tx), nil
}

// CancelSell handles market.cancel_sell
func (a *WriteAPI) CancelSell(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	var p tokenParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, err
	}
	tokenID, err := parseBig(p.TokenID, "token_id")
	if err != nil {
		return nil, err
	}

	tx, err := a.gateway.CancelSell(ctx.Request.Context(), tokenID)
	if err != nil {
		return nil, err
	}
	return txResult(tx), nil
}

// BuyPost handles market.buy_post
func (a *WriteAPI) BuyPost(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	var p buyParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, err
	}
	tokenID, err := parseBig(p.TokenID, "token_id")
	if err != nil {
		return nil, err
	}
	pay, err := chain.ParsePaymentMethod(p.Payment)
	if err != nil {
		return nil, err
	}

	tx, err := a.gateway.BuyPost(ctx.Request.Context(), tokenID, pay)
	if err != nil {
		return nil, err
	}
	return txResult(tx), nil
}

// ApproveToken handles market.approve_token
func (a *WriteAPI) ApproveToken(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	var p amountParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, err
	}
	amount, err := parseBig(p.Amount, "amount")
	if err != nil {
		return nil, err
	}

	tx, err := a.gateway.ApproveToken(ctx.Request.Context(), amount)
	if err != nil {
		return nil, err
	}
	return txResult(tx), nil
}

// MintTokens handles market.mint_tokens. Test networks only; the mock token
// on mainnet-class deployments rejects public minting.
func (a *WriteAPI) MintTokens(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	var p mintParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, err
	}
	to, err := parseAddress(p.To, "to")
	if err != nil {
		return nil, err
	}
	amount, err := parseBig(p.Amount, "amount")
	if err != nil {
		return nil, err
	}

	tx, err := a.gateway.MintTokens(ctx.Request.Context(), to, amount)
	if err != nil {
		return nil, err
	}
	return txResult(tx), nil
}
