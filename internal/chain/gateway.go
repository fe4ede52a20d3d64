package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"github.com/onepostnft/marketd/internal/contracts/onepost"
	"github.com/onepostnft/marketd/internal/ledger"
	"github.com/onepostnft/marketd/pkg/logging"
	"github.com/onepostnft/marketd/pkg/telemetry"
)

// marketContract is the surface of the OnePostNFT binding the gateway uses.
type marketContract interface {
	Address() common.Address
	Pack(method string, args ...interface{}) ([]byte, error)
	GetAllPosts(ctx context.Context, offset, limit uint32) ([]onepost.Post, error)
	GetAllPostsForSale(ctx context.Context, offset, limit uint32) ([]onepost.Post, error)
	GetUserPosts(ctx context.Context, user common.Address) ([]onepost.Post, error)
	GetPostByTokenId(ctx context.Context, tokenID *big.Int) (onepost.Post, error)
	GetSellProposals(ctx context.Context, user common.Address) ([]onepost.SellProposal, error)
	IsPostForSale(ctx context.Context, tokenID *big.Int) (bool, error)
	GetPostPrice(ctx context.Context, tokenID *big.Int) (*big.Int, error)
	GetUserSoldNfts(ctx context.Context, user common.Address) ([]*big.Int, error)
	CreatePost(opts *bind.TransactOpts, contentHash string, price *big.Int) (*types.Transaction, error)
	ProposeSell(opts *bind.TransactOpts, tokenID, price *big.Int) (*types.Transaction, error)
	CancelSell(opts *bind.TransactOpts, proposalID *big.Int) (*types.Transaction, error)
	BuyPost(opts *bind.TransactOpts, tokenID *big.Int, tokenAddress common.Address) (*types.Transaction, error)
}

// paymentToken is the surface of the ERC-20 binding the gateway uses.
type paymentToken interface {
	Address() common.Address
	Pack(method string, args ...interface{}) ([]byte, error)
	Approve(opts *bind.TransactOpts, spender common.Address, amount *big.Int) (*types.Transaction, error)
	Mint(opts *bind.TransactOpts, to common.Address, amount *big.Int) (*types.Transaction, error)
	BalanceOf(ctx context.Context, owner common.Address) (*big.Int, error)
	Allowance(ctx context.Context, owner, spender common.Address) (*big.Int, error)
}

// txBackend is what the gateway needs from the chain client.
type txBackend interface {
	From() common.Address
	TransactOpts(ctx context.Context) (*bind.TransactOpts, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// soldLedger records locally-initiated purchases. Best-effort only.
type soldLedger interface {
	Append(ctx context.Context, rec ledger.SoldRecord) error
}

// sellerNotifier tells the realtime backend a sale happened. Best-effort only.
type sellerNotifier interface {
	PostSold(ctx context.Context, seller, buyer common.Address, tokenID string, price *big.Int) error
}

// Gateway exposes typed reads of posts and sell proposals plus the mutating
// marketplace calls. Every write is simulated against current state before
// submission, so revert conditions surface as cheap client-side failures.
// Writes are never retried: transactions are not safely idempotent.
type Gateway struct {
	backend  txBackend
	contract marketContract
	token    paymentToken
	ledger   soldLedger
	notifier sellerNotifier
	logger   *zap.Logger
}

// NewGateway wires the gateway to its collaborators. ledger and notifier may
// be nil; the related side effects are then skipped.
func NewGateway(backend txBackend, contract marketContract, token paymentToken, soldLog soldLedger, notifier sellerNotifier) *Gateway {
	return &Gateway{
		backend:  backend,
		contract: contract,
		token:    token,
		ledger:   soldLog,
		notifier: notifier,
		logger:   logging.GetLogger().With(zap.String("component", "chain-gateway")),
	}
}

// Read operations

// GetAllPosts returns a page of raw post tuples.
func (g *Gateway) GetAllPosts(ctx context.Context, offset, limit uint32) ([]onepost.Post, error) {
	ctx, span := telemetry.StartSpan(ctx, "chain.get_all_posts")
	defer span.End()

	posts, err := g.contract.GetAllPosts(ctx, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to read posts: %w", err)
	}
	return posts, nil
}

// GetAllPostsForSale returns a page of raw post tuples with active listings.
func (g *Gateway) GetAllPostsForSale(ctx context.Context, offset, limit uint32) ([]onepost.Post, error) {
	ctx, span := telemetry.StartSpan(ctx, "chain.get_posts_for_sale")
	defer span.End()

	posts, err := g.contract.GetAllPostsForSale(ctx, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to read posts for sale: %w", err)
	}
	return posts, nil
}

// GetUserPosts returns the raw post tuples currently owned by user.
func (g *Gateway) GetUserPosts(ctx context.Context, user common.Address) ([]onepost.Post, error) {
	ctx, span := telemetry.StartSpan(ctx, "chain.get_user_posts")
	defer span.End()

	posts, err := g.contract.GetUserPosts(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("failed to read user posts: %w", err)
	}
	return posts, nil
}

// GetPostByTokenId returns one raw post tuple.
func (g *Gateway) GetPostByTokenId(ctx context.Context, tokenID *big.Int) (onepost.Post, error) {
	ctx, span := telemetry.StartSpan(ctx, "chain.get_post")
	defer span.End()

	post, err := g.contract.GetPostByTokenId(ctx, tokenID)
	if err != nil {
		return onepost.Post{}, fmt.Errorf("failed to read post %s: %w", tokenID, err)
	}
	return post, nil
}

// GetSellProposals returns all sell proposals created by user, active or not.
func (g *Gateway) GetSellProposals(ctx context.Context, user common.Address) ([]onepost.SellProposal, error) {
	ctx, span := telemetry.StartSpan(ctx, "chain.get_sell_proposals")
	defer span.End()

	proposals, err := g.contract.GetSellProposals(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("failed to read sell proposals: %w", err)
	}
	return proposals, nil
}

// IsPostForSale reports whether the token has an active listing.
func (g *Gateway) IsPostForSale(ctx context.Context, tokenID *big.Int) (bool, error) {
	return g.contract.IsPostForSale(ctx, tokenID)
}

// GetPostPrice returns the listed price of a token.
func (g *Gateway) GetPostPrice(ctx context.Context, tokenID *big.Int) (*big.Int, error) {
	return g.contract.GetPostPrice(ctx, tokenID)
}

// GetUserSoldTokens returns the token ids the user has sold, from the
// contract's own sold mapping.
func (g *Gateway) GetUserSoldTokens(ctx context.Context, user common.Address) ([]*big.Int, error) {
	ctx, span := telemetry.StartSpan(ctx, "chain.get_user_sold_tokens")
	defer span.End()

	ids, err := g.contract.GetUserSoldNfts(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("failed to read sold tokens: %w", err)
	}
	return ids, nil
}

// TokenBalance returns the signing account's payment-token balance.
func (g *Gateway) TokenBalance(ctx context.Context, owner common.Address) (*big.Int, error) {
	return g.token.BalanceOf(ctx, owner)
}

// Write operations. Each follows the same two-phase protocol: pack the
// calldata, simulate against current state, then sign and submit.

// CreatePost mints a new post NFT pointing at contentHash.
func (g *Gateway) CreatePost(ctx context.Context, contentHash string, price *big.Int) (*types.Transaction, error) {
	ctx, span := telemetry.StartSpan(ctx, "chain.create_post")
	defer span.End()

	if contentHash == "" {
		return nil, fmt.Errorf("content hash is empty")
	}
	if price == nil {
		price = big.NewInt(0)
	}

	data, err := g.contract.Pack("createPost", contentHash, price)
	if err != nil {
		return nil, fmt.Errorf("failed to encode createPost: %w", err)
	}
	if err := g.simulate(ctx, g.contract.Address(), data, nil); err != nil {
		return nil, err
	}

	opts, err := g.backend.TransactOpts(ctx)
	if err != nil {
		return nil, err
	}
	tx, err := g.contract.CreatePost(opts, contentHash, price)
	if err != nil {
		return nil, fmt.Errorf("failed to submit createPost: %w", err)
	}

	g.logger.Info("Post created",
		zap.String("content_hash", contentHash),
		zap.String("tx", tx.Hash().Hex()))
	return tx, nil
}

// ProposeSell lists a token the signing account owns at price.
func (g *Gateway) ProposeSell(ctx context.Context, tokenID, price *big.Int) (*types.Transaction, error) {
	ctx, span := telemetry.StartSpan(ctx, "chain.propose_sell")
	defer span.End()

	if price == nil || price.Sign() <= 0 {
		return nil, ErrInvalidPrice
	}

	data, err := g.contract.Pack("proposeSell", tokenID, price)
	if err != nil {
		return nil, fmt.Errorf("failed to encode proposeSell: %w", err)
	}
	if err := g.simulate(ctx, g.contract.Address(), data, nil); err != nil {
		return nil, err
	}

	opts, err := g.backend.TransactOpts(ctx)
	if err != nil {
		return nil, err
	}
	tx, err := g.contract.ProposeSell(opts, tokenID, price)
	if err != nil {
		return nil, fmt.Errorf("failed to submit proposeSell: %w", err)
	}

	g.logger.Info("Sell proposed",
		zap.String("token_id", tokenID.String()),
		zap.String("price", price.String()),
		zap.String("tx", tx.Hash().Hex()))
	return tx, nil
}

// CancelSell cancels the signing account's active listing for tokenID. This
// is "cancel my own active listing for that token", not a generic proposal
// cancel: the caller's proposals are scanned for an active one matching the
// token, and ErrNoActiveProposal is returned, with no chain write, when none
// matches.
func (g *Gateway) CancelSell(ctx context.Context, tokenID *big.Int) (*types.Transaction, error) {
	ctx, span := telemetry.StartSpan(ctx, "chain.cancel_sell")
	defer span.End()

	proposals, err := g.contract.GetSellProposals(ctx, g.backend.From())
	if err != nil {
		return nil, fmt.Errorf("failed to read sell proposals: %w", err)
	}

	var proposalID *big.Int
	for _, p := range proposals {
		if p.IsActive && p.TokenId != nil && p.TokenId.Cmp(tokenID) == 0 {
			proposalID = p.Id
			break
		}
	}
	if proposalID == nil {
		return nil, ErrNoActiveProposal
	}

	data, err := g.contract.Pack("cancelSell", proposalID)
	if err != nil {
		return nil, fmt.Errorf("failed to encode cancelSell: %w", err)
	}
	if err := g.simulate(ctx, g.contract.Address(), data, nil); err != nil {
		return nil, err
	}

	opts, err := g.backend.TransactOpts(ctx)
	if err != nil {
		return nil, err
	}
	tx, err := g.contract.CancelSell(opts, proposalID)
	if err != nil {
		return nil, fmt.Errorf("failed to submit cancelSell: %w", err)
	}

	g.logger.Info("Sell cancelled",
		zap.String("token_id", tokenID.String()),
		zap.String("proposal_id", proposalID.String()),
		zap.String("tx", tx.Hash().Hex()))
	return tx, nil
}

// BuyPost buys a listed token. Native payment attaches the listed price as
// value; token payment requires a prior ApproveToken for at least the price.
// On success the purchase is appended to the sold ledger and the seller is
// notified, both best-effort: neither failure unwinds the purchase.
func (g *Gateway) BuyPost(ctx context.Context, tokenID *big.Int, pay PaymentMethod) (*types.Transaction, error) {
	ctx, span := telemetry.StartSpan(ctx, "chain.buy_post")
	defer span.End()

	post, err := g.contract.GetPostByTokenId(ctx, tokenID)
	if err != nil {
		return nil, fmt.Errorf("failed to read post %s: %w", tokenID, err)
	}

	var value *big.Int
	if pay.IsNative() {
		value = post.Price
	}

	data, err := g.contract.Pack("buyPost", tokenID, pay.Wire())
	if err != nil {
		return nil, fmt.Errorf("failed to encode buyPost: %w", err)
	}
	if err := g.simulate(ctx, g.contract.Address(), data, value); err != nil {
		return nil, err
	}

	opts, err := g.backend.TransactOpts(ctx)
	if err != nil {
		return nil, err
	}
	opts.Value = value
	tx, err := g.contract.BuyPost(opts, tokenID, pay.Wire())
	if err != nil {
		return nil, fmt.Errorf("failed to submit buyPost: %w", err)
	}

	g.logger.Info("Post bought",
		zap.String("token_id", tokenID.String()),
		zap.String("payment", pay.String()),
		zap.String("tx", tx.Hash().Hex()))

	g.recordSale(ctx, tokenID, tx)
	g.notifySeller(ctx, post.CurrentOwner, tokenID, post.Price)

	return tx, nil
}

// ApproveToken lets the marketplace pull up to amount of the signing
// account's payment tokens. Required before a token-payment BuyPost.
func (g *Gateway) ApproveToken(ctx context.Context, amount *big.Int) (*types.Transaction, error) {
	ctx, span := telemetry.StartSpan(ctx, "chain.approve_token")
	defer span.End()

	data, err := g.token.Pack("approve", g.contract.Address(), amount)
	if err != nil {
		return nil, fmt.Errorf("failed to encode approve: %w", err)
	}
	if err := g.simulate(ctx, g.token.Address(), data, nil); err != nil {
		return nil, err
	}

	opts, err := g.backend.TransactOpts(ctx)
	if err != nil {
		return nil, err
	}
	tx, err := g.token.Approve(opts, g.contract.Address(), amount)
	if err != nil {
		return nil, fmt.Errorf("failed to submit approve: %w", err)
	}
	return tx, nil
}

// MintTokens mints mock payment tokens to an address. Test networks only.
func (g *Gateway) MintTokens(ctx context.Context, to common.Address, amount *big.Int) (*types.Transaction, error) {
	ctx, span := telemetry.StartSpan(ctx, "chain.mint_tokens")
	defer span.End()

	data, err := g.token.Pack("mint", to, amount)
	if err != nil {
		return nil, fmt.Errorf("failed to encode mint: %w", err)
	}
	if err := g.simulate(ctx, g.token.Address(), data, nil); err != nil {
		return nil, err
	}

	opts, err := g.backend.TransactOpts(ctx)
	if err != nil {
		return nil, err
	}
	tx, err := g.token.Mint(opts, to, amount)
	if err != nil {
		return nil, fmt.Errorf("failed to submit mint: %w", err)
	}
	return tx, nil
}

// simulate runs the call against current state without submitting. Revert
// conditions (not owner, insufficient balance, no active proposal) fail here
// instead of costing gas.
func (g *Gateway) simulate(ctx context.Context, to common.Address, data []byte, value *big.Int) error {
	msg := ethereum.CallMsg{
		From:  g.backend.From(),
		To:    &to,
		Data:  data,
		Value: value,
	}
	if _, err := g.backend.CallContract(ctx, msg, nil); err != nil {
		return fmt.Errorf("simulation failed: %w", err)
	}
	return nil
}

// recordSale appends a sold record for a locally-initiated purchase. Failure
// is logged and swallowed: the ledger is an observational backstop, never the
// source of truth.
func (g *Gateway) recordSale(ctx context.Context, tokenID *big.Int, tx *types.Transaction) {
	if g.ledger == nil {
		return
	}
	rec := ledger.SoldRecord{
		TokenID:         tokenID.String(),
		Buyer:           g.backend.From().Hex(),
		Timestamp:       time.Now().UnixMilli(),
		TransactionHash: tx.Hash().Hex(),
	}
	if err := g.ledger.Append(ctx, rec); err != nil && !errors.Is(err, ledger.ErrLedgerDisabled) {
		g.logger.Warn("Failed to record sale in ledger",
			zap.String("token_id", rec.TokenID),
			zap.Error(err))
	}
}

// notifySeller pings the realtime backend about the sale. Failure is logged
// and swallowed; it must never make the purchase look failed.
func (g *Gateway) notifySeller(ctx context.Context, seller common.Address, tokenID, price *big.Int) {
	if g.notifier == nil {
		return
	}
	if err := g.notifier.PostSold(ctx, seller, g.backend.From(), tokenID.String(), price); err != nil {
		g.logger.Warn("Failed to notify seller of sale",
			zap.String("token_id", tokenID.String()),
			zap.String("seller", seller.Hex()),
			zap.Error(err))
	}
}
