package market

import (
	"context"
	"encoding/json"

	"github.com/gin-gonic/gin"

	"github.com/onepostnft/marketd/internal/ledger"
	"github.com/onepostnft/marketd/internal/models"
)

// SaleHistory reads the indexed sale events.
type SaleHistory interface {
	SalesByToken(ctx context.Context, tokenID string) ([]*models.SaleEvent, error)
	SalesBySeller(ctx context.Context, addr string, limit int) ([]*models.SaleEvent, error)
	RecentSales(ctx context.Context, limit int) ([]*models.SaleEvent, error)
}

// SoldRecords reads the local purchase ledger.
type SoldRecords interface {
	List(ctx context.Context) []ledger.SoldRecord
}

// HistoryAPI provides sale-history methods backed by the event indexer and
// the local purchase ledger.
type HistoryAPI struct {
	sales   SaleHistory
	records SoldRecords
}

// NewHistoryAPI creates a new sale-history API. Either dependency may be nil
// when the corresponding backend is not configured.
func NewHistoryAPI(sales SaleHistory, records SoldRecords) *HistoryAPI {
	return &HistoryAPI{sales: sales, records: records}
}

// SaleView is the JSON shape of one indexed sale.
type SaleView struct {
	TokenID         string `json:"token_id"`
	Seller          string `json:"seller"`
	Buyer           string `json:"buyer"`
	Price           string `json:"price"`
	SoldAt          int64  `json:"sold_at"` // milliseconds since epoch
	BlockNum        uint64 `json:"block_num"`
	TransactionHash string `json:"transaction_hash"`
}

func saleViews(sales []*models.SaleEvent) []SaleView {
	views := make([]SaleView, 0, len(sales))
	for _, s := range sales {
		views = append(views, SaleView{
			TokenID:         s.TokenID,
			Seller:          s.Seller,
			Buyer:           s.Buyer,
			Price:           s.Price,
			SoldAt:          s.SoldAt.UnixMilli(),
			BlockNum:        s.BlockNum,
			TransactionHash: s.TxHash,
		})
	}
	return views
}

type historyParams struct {
	TokenID string `json:"token_id"`
	Address string `json:"address"`
	Limit   int    `json:"limit"`
}

// GetSaleHistory handles market.get_sale_history. With token_id it returns
// that token's full history; with address it returns the address's sales;
// otherwise the most recent sales across all tokens.
func (a *HistoryAPI) GetSaleHistory(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	if a.sales == nil {
		return []SaleView{}, nil
	}

	var p historyParams
	if len(params) > 0 {
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, err
		}
	}

	switch {
	case p.TokenID != "":
		sales, err := a.sales.SalesByToken(ctx.Request.Context(), p.TokenID)
		if err != nil {
			return nil, err
		}
		return saleViews(sales), nil
	case p.Address != "":
		if _, err := parseAddress(p.Address, "address"); err != nil {
			return nil, err
		}
		sales, err := a.sales.SalesBySeller(ctx.Request.Context(), p.Address, p.Limit)
		if err != nil {
			return nil, err
		}
		return saleViews(sales), nil
	default:
		sales, err := a.sales.RecentSales(ctx.Request.Context(), p.Limit)
		if err != nil {
			return nil, err
		}
		return saleViews(sales), nil
	}
}

// GetSoldRecords handles market.get_sold_records: the purchases this
// instance itself submitted, from the local ledger.
func (a *HistoryAPI) GetSoldRecords(ctx *gin.Context, _ json.RawMessage) (interface{}, error) {
	if a.records == nil {
		return []ledger.SoldRecord{}, nil
	}
	return a.records.List(ctx.Request.Context()), nil
}
