package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	marketapi "github.com/onepostnft/marketd/internal/api/market"
	"github.com/onepostnft/marketd/internal/cache"
	"github.com/onepostnft/marketd/internal/chain"
	"github.com/onepostnft/marketd/internal/db"
	"github.com/onepostnft/marketd/internal/ledger"
	"github.com/onepostnft/marketd/internal/market"
	"github.com/onepostnft/marketd/pkg/logging"
)

// Router sets up API routes
type Router struct {
	handler *JSONRPCHandler
	gateway *chain.Gateway
	query   *market.Query
	db      *db.DB
	cache   *cache.Cache
	ledger  *ledger.Store
	logger  *zap.Logger
}

// NewRouter creates a new API router. database and soldLog may be nil when
// the indexer store or the local ledger is not configured.
func NewRouter(gateway *chain.Gateway, query *market.Query, database *db.DB, redisCache *cache.Cache, soldLog *ledger.Store) *Router {
	router := &Router{
		handler: NewJSONRPCHandler(),
		gateway: gateway,
		query:   query,
		db:      database,
		cache:   redisCache,
		ledger:  soldLog,
		logger:  logging.GetLogger().With(zap.String("component", "api-router")),
	}

	router.registerMethods()

	return router
}

// SetupRoutes sets up all API routes
func (r *Router) SetupRoutes(engine *gin.Engine) {
	engine.GET("/health", r.healthHandler)
	engine.GET("/.well-known/healthcheck.json", r.healthHandler)

	engine.POST("/", r.handler.Handle)
}

// registerMethods registers all API methods
func (r *Router) registerMethods() {
	reads := marketapi.NewAPI(r.query, r.gateway)
	writes := marketapi.NewWriteAPI(r.gateway)

	var sales *db.EventRepository
	if r.db != nil {
		sales = db.NewEventRepository(db.NewRepository(r.db.DB))
	}
	history := marketapi.NewHistoryAPI(saleHistoryOrNil(sales), soldRecordsOrNil(r.ledger))

	r.handler.RegisterMethod("market.get_all_posts", reads.GetAllPosts)
	r.handler.RegisterMethod("market.get_posts_for_sale", reads.GetPostsForSale)
	r.handler.RegisterMethod("market.get_user_posts", reads.GetUserPosts)
	r.handler.RegisterMethod("market.get_post", reads.GetPost)
	r.handler.RegisterMethod("market.get_sold_posts", reads.GetSoldPosts)
	r.handler.RegisterMethod("market.get_sell_proposals", reads.GetSellProposals)
	r.handler.RegisterMethod("market.is_post_for_sale", reads.IsPostForSale)
	r.handler.RegisterMethod("market.get_post_price", reads.GetPostPrice)
	r.handler.RegisterMethod("market.get_user_sold_tokens", reads.GetUserSoldTokens)

	r.handler.RegisterMethod("market.get_sale_history", history.GetSaleHistory)
	r.handler.RegisterMethod("market.get_sold_records", history.GetSoldRecords)

	r.handler.RegisterMethod("market.create_post", writes.CreatePost)
	r.handler.RegisterMethod("market.propose_sell", writes.ProposeSell)
	r.handler.RegisterMethod("market.cancel_sell", writes.CancelSell)
	r.handler.RegisterMethod("market.buy_post", writes.BuyPost)
	r.handler.RegisterMethod("market.approve_token", writes.ApproveToken)
	r.handler.RegisterMethod("market.mint_tokens", writes.MintTokens)
}

// saleHistoryOrNil keeps a nil *EventRepository from becoming a non-nil
// interface value.
func saleHistoryOrNil(sales *db.EventRepository) marketapi.SaleHistory {
	if sales == nil {
		return nil
	}
	return sales
}

func soldRecordsOrNil(soldLog *ledger.Store) marketapi.SoldRecords {
	if soldLog == nil {
		return nil
	}
	return soldLog
}

// healthHandler handles health check requests
func (r *Router) healthHandler(c *gin.Context) {
	status := "OK"
	checks := gin.H{}

	if r.db != nil {
		if err := r.db.Health(c.Request.Context()); err != nil {
			status = "DEGRADED"
			checks["database"] = err.Error()
		} else {
			checks["database"] = "OK"
		}
	}
	if r.cache != nil {
		if err := r.cache.Health(c.Request.Context()); err != nil {
			status = "DEGRADED"
			checks["cache"] = err.Error()
		} else {
			checks["cache"] = "OK"
		}
	}

	c.JSON(200, gin.H{
		"status":  status,
		"service": "onepost-marketd",
		"checks":  checks,
	})
}
