// Package market exposes the marketplace JSON-RPC methods.
package market

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"

	"github.com/onepostnft/marketd/internal/contracts/onepost"
	marketdomain "github.com/onepostnft/marketd/internal/market"
)

// postQuerier answers filtered post queries.
type postQuerier interface {
	ListPosts(ctx context.Context, filter marketdomain.Filter) ([]marketdomain.Post, error)
	Page(ctx context.Context, offset, limit uint32) ([]marketdomain.Post, error)
	GetPost(ctx context.Context, tokenID *big.Int) (marketdomain.Post, error)
	SoldPosts(ctx context.Context) ([]marketdomain.SoldPost, error)
}

// chainGateway is the slice of the chain gateway the API needs.
type chainGateway interface {
	GetSellProposals(ctx context.Context, user common.Address) ([]onepost.SellProposal, error)
	IsPostForSale(ctx context.Context, tokenID *big.Int) (bool, error)
	GetPostPrice(ctx context.Context, tokenID *big.Int) (*big.Int, error)
	GetUserSoldTokens(ctx context.Context, user common.Address) ([]*big.Int, error)
}

// API provides marketplace read methods
type API struct {
	query   postQuerier
	gateway chainGateway
}

// NewAPI creates a new marketplace read API
func NewAPI(query postQuerier, gateway chainGateway) *API {
	return &API{query: query, gateway: gateway}
}

// SellProposalView is the JSON shape of one sell proposal.
type SellProposalView struct {
	ID       string `json:"id"`
	TokenID  string `json:"token_id"`
	Seller   string `json:"seller"`
	Buyer    string `json:"buyer"`
	Price    string `json:"price"`
	IsActive bool   `json:"is_active"`
}

type pageParams struct {
	Offset uint32 `json:"offset"`
	Limit  uint32 `json:"limit"`
}

type addressParams struct {
	Address string `json:"address"`
}

type tokenParams struct {
	TokenID string `json:"token_id"`
}

// parseBig parses a decimal token id or amount.
func parseBig(s, field string) (*big.Int, error) {
	if s == "" {
		return nil, fmt.Errorf("missing %s", field)
	}
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("invalid %s %q", field, s)
	}
	return n, nil
}

func parseAddress(s, field string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("invalid %s %q", field, s)
	}
	return common.HexToAddress(s), nil
}

// GetAllPosts handles market.get_all_posts. Without params it sweeps the
// whole collection; with offset/limit it returns one page.
func (a *API) GetAllPosts(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	var p pageParams
	if len(params) > 0 {
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, err
		}
	}
	if p.Limit > 0 {
		return a.query.Page(ctx.Request.Context(), p.Offset, p.Limit)
	}
	return a.query.ListPosts(ctx.Request.Context(), marketdomain.FilterAll())
}

// GetPostsForSale handles market.get_posts_for_sale
func (a *API) GetPostsForSale(ctx *gin.Context, _ json.RawMessage) (interface{}, error) {
	return a.query.ListPosts(ctx.Request.Context(), marketdomain.FilterForSale())
}

// GetUserPosts handles market.get_user_posts
func (a *API) GetUserPosts(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	var p addressParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, err
	}
	return a.query.ListPosts(ctx.Request.Context(), marketdomain.FilterOwnedBy(p.Address))
}

// GetPost handles market.get_post
func (a *API) GetPost(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	var p tokenParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, err
	}
	tokenID, err := parseBig(p.TokenID, "token_id")
	if err != nil {
		return nil, err
	}
	return a.query.GetPost(ctx.Request.Context(), tokenID)
}

// GetSoldPosts handles market.get_sold_posts
func (a *API) GetSoldPosts(ctx *gin.Context, _ json.RawMessage) (interface{}, error) {
	return a.query.SoldPosts(ctx.Request.Context())
}

// GetSellProposals handles market.get_sell_proposals
func (a *API) GetSellProposals(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	var p addressParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, err
	}
	addr, err := parseAddress(p.Address, "address")
	if err != nil {
		return nil, err
	}

	proposals, err := a.gateway.GetSellProposals(ctx.Request.Context(), addr)
	if err != nil {
		return nil, err
	}

	views := make([]SellProposalView, 0, len(proposals))
	for _, prop := range proposals {
		view := SellProposalView{
			Seller:   prop.Seller.Hex(),
			Buyer:    prop.Buyer.Hex(),
			IsActive: prop.IsActive,
			ID:       "0",
			TokenID:  "0",
			Price:    "0",
		}
		if prop.Id != nil {
			view.ID = prop.Id.String()
		}
		if prop.TokenId != nil {
			view.TokenID = prop.TokenId.String()
		}
		if prop.Price != nil {
			view.Price = prop.Price.String()
		}
		views = append(views, view)
	}
	return views, nil
}

// IsPostForSale handles market.is_post_for_sale
func (a *API) IsPostForSale(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	var p tokenParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, err
	}
	tokenID, err := parseBig(p.TokenID, "token_id")
	if err != nil {
		return nil, err
	}
	return a.gateway.IsPostForSale(ctx.Request.Context(), tokenID)
}

// GetPostPrice handles market.get_post_price
func (a *API) GetPostPrice(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	var p tokenParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, err
	}
	tokenID, err := parseBig(p.TokenID, "token_id")
	if err != nil {
		return nil, err
	}
	price, err := a.gateway.GetPostPrice(ctx.Request.Context(), tokenID)
	if err != nil {
		return nil, err
	}
	if price == nil {
		return "0", nil
	}
	return price.String(), nil
}

// GetUserSoldTokens handles market.get_user_sold_tokens
func (a *API) GetUserSoldTokens(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	var p addressParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, err
	}
	addr, err := parseAddress(p.Address, "address")
	if err != nil {
		return nil, err
	}
	ids, err := a.gateway.GetUserSoldTokens(ctx.Request.Context(), addr)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != nil {
			out = append(out, id.String())
		}
	}
	return out, nil
}
