package onepost

import (
	"context"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Post is the on-chain post tuple as returned by the contract views. Fields
// stay in wire form (uint256 as *big.Int); the market mapper is the only
// component that converts them to the application view model.
type Post struct {
	TokenId      *big.Int
	Author       common.Address
	CurrentOwner common.Address
	ContentHash  string
	Timestamp    *big.Int
	IsForSale    bool
	Price        *big.Int
}

// SellProposal is the on-chain sell proposal tuple.
type SellProposal struct {
	Id         *big.Int
	TokenId    *big.Int
	Seller     common.Address
	Buyer      common.Address
	Price      *big.Int
	Expiration *big.Int
	IsActive   bool
}

// OnePostNFT is a typed wrapper around the deployed OnePostNFT contract.
type OnePostNFT struct {
	abi      abi.ABI
	address  common.Address
	contract *bind.BoundContract
}

// New connects to an already-deployed OnePostNFT contract.
func New(addr common.Address, backend bind.ContractBackend) (*OnePostNFT, error) {
	parsed, err := abi.JSON(strings.NewReader(ContractABI))
	if err != nil {
		return nil, err
	}
	bound := bind.NewBoundContract(addr, parsed, backend, backend, backend)
	return &OnePostNFT{
		abi:      parsed,
		address:  addr,
		contract: bound,
	}, nil
}

// Address returns the deployed contract address.
func (c *OnePostNFT) Address() common.Address {
	return c.address
}

// ABI returns the parsed contract ABI.
func (c *OnePostNFT) ABI() abi.ABI {
	return c.abi
}

// Pack encodes a method call for simulation against current state.
func (c *OnePostNFT) Pack(method string, args ...interface{}) ([]byte, error) {
	return c.abi.Pack(method, args...)
}

// UnpackLog decodes an event log into out.
func (c *OnePostNFT) UnpackLog(out interface{}, event string, log types.Log) error {
	return c.contract.UnpackLog(out, event, log)
}

// Read methods

// GetAllPosts returns a page of all minted posts.
func (c *OnePostNFT) GetAllPosts(ctx context.Context, offset, limit uint32) ([]Post, error) {
	var out []interface{}
	err := c.contract.Call(&bind.CallOpts{Context: ctx}, &out, "getAllPosts", offset, limit)
	if err != nil {
		return nil, err
	}
	return *abi.ConvertType(out[0], new([]Post)).(*[]Post), nil
}

// GetAllPostsForSale returns a page of posts with an active sell proposal.
func (c *OnePostNFT) GetAllPostsForSale(ctx context.Context, offset, limit uint32) ([]Post, error) {
	var out []interface{}
	err := c.contract.Call(&bind.CallOpts{Context: ctx}, &out, "getAllPostsForSale", offset, limit)
	if err != nil {
		return nil, err
	}
	return *abi.ConvertType(out[0], new([]Post)).(*[]Post), nil
}

// GetUserPosts returns all posts currently owned by user.
func (c *OnePostNFT) GetUserPosts(ctx context.Context, user common.Address) ([]Post, error) {
	var out []interface{}
	err := c.contract.Call(&bind.CallOpts{Context: ctx}, &out, "getUserPosts", user)
	if err != nil {
		return nil, err
	}
	return *abi.ConvertType(out[0], new([]Post)).(*[]Post), nil
}

// GetPostByTokenId returns a single post by token id.
func (c *OnePostNFT) GetPostByTokenId(ctx context.Context, tokenID *big.Int) (Post, error) {
	var out []interface{}
	err := c.contract.Call(&bind.CallOpts{Context: ctx}, &out, "getPostByTokenId", tokenID)
	if err != nil {
		return Post{}, err
	}
	return *abi.ConvertType(out[0], new(Post)).(*Post), nil
}

// GetSellProposals returns all sell proposals ever created by user.
func (c *OnePostNFT) GetSellProposals(ctx context.Context, user common.Address) ([]SellProposal, error) {
	var out []interface{}
	err := c.contract.Call(&bind.CallOpts{Context: ctx}, &out, "getSellProposals", user)
	if err != nil {
		return nil, err
	}
	return *abi.ConvertType(out[0], new([]SellProposal)).(*[]SellProposal), nil
}

// IsPostForSale reports whether an active sell proposal exists for a token.
func (c *OnePostNFT) IsPostForSale(ctx context.Context, tokenID *big.Int) (bool, error) {
	var out []interface{}
	err := c.contract.Call(&bind.CallOpts{Context: ctx}, &out, "isPostForSale", tokenID)
	if err != nil {
		return false, err
	}
	return out[0].(bool), nil
}

// GetPostPrice returns the listed price of a token.
func (c *OnePostNFT) GetPostPrice(ctx context.Context, tokenID *big.Int) (*big.Int, error) {
	var out []interface{}
	err := c.contract.Call(&bind.CallOpts{Context: ctx}, &out, "getPostPrice", tokenID)
	if err != nil {
		return nil, err
	}
	return out[0].(*big.Int), nil
}

// GetUserSoldNfts returns the token ids the user has sold, per the contract's
// own sold mapping.
func (c *OnePostNFT) GetUserSoldNfts(ctx context.Context, user common.Address) ([]*big.Int, error) {
	var out []interface{}
	err := c.contract.Call(&bind.CallOpts{Context: ctx}, &out, "getUserSoldNfts", user)
	if err != nil {
		return nil, err
	}
	return *abi.ConvertType(out[0], new([]*big.Int)).(*[]*big.Int), nil
}

// OwnerOf returns the current owner of a token.
func (c *OnePostNFT) OwnerOf(ctx context.Context, tokenID *big.Int) (common.Address, error) {
	var out []interface{}
	err := c.contract.Call(&bind.CallOpts{Context: ctx}, &out, "ownerOf", tokenID)
	if err != nil {
		return common.Address{}, err
	}
	return out[0].(common.Address), nil
}

// BaseTokenAddress returns the ERC-20 the marketplace accepts for token payments.
func (c *OnePostNFT) BaseTokenAddress(ctx context.Context) (common.Address, error) {
	var out []interface{}
	err := c.contract.Call(&bind.CallOpts{Context: ctx}, &out, "baseTokenAddress")
	if err != nil {
		return common.Address{}, err
	}
	return out[0].(common.Address), nil
}

// Write methods

// CreatePost mints a new post NFT pointing at contentHash.
func (c *OnePostNFT) CreatePost(opts *bind.TransactOpts, contentHash string, price *big.Int) (*types.Transaction, error) {
	return c.contract.Transact(opts, "createPost", contentHash, price)
}

// ProposeSell creates a sell proposal for a token the caller owns.
func (c *OnePostNFT) ProposeSell(opts *bind.TransactOpts, tokenID, price *big.Int) (*types.Transaction, error) {
	return c.contract.Transact(opts, "proposeSell", tokenID, price)
}

// CancelSell cancels a sell proposal by proposal id.
func (c *OnePostNFT) CancelSell(opts *bind.TransactOpts, proposalID *big.Int) (*types.Transaction, error) {
	return c.contract.Transact(opts, "cancelSell", proposalID)
}

// BuyPost buys a listed post. For native payment the price is attached as
// value; for ERC-20 payment tokenAddress selects the payment token and a
// prior approval is required.
func (c *OnePostNFT) BuyPost(opts *bind.TransactOpts, tokenID *big.Int, tokenAddress common.Address) (*types.Transaction, error) {
	return c.contract.Transact(opts, "buyPost", tokenID, tokenAddress)
}
