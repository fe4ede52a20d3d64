package chain

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"

	"github.com/onepostnft/marketd/pkg/config"
	"github.com/onepostnft/marketd/pkg/logging"
)

// Client wraps the RPC read client and the signing account. Reads are pure
// queries against current chain state; there is no local caching layer.
type Client struct {
	eth     *ethclient.Client
	chainID *big.Int
	key     *ecdsa.PrivateKey
	from    common.Address
	logger  *zap.Logger
}

// Dial connects to the configured RPC endpoint and, when a private key is
// configured, derives the signing account. A client without a key can only
// read.
func Dial(ctx context.Context, cfg *config.ChainConfig) (*Client, error) {
	if cfg.RPCURL == "" {
		return nil, fmt.Errorf("%w: chain_rpc_url is empty", ErrNotConfigured)
	}

	logger := logging.GetLogger().With(zap.String("component", "chain-client"))

	eth, err := ethclient.DialContext(ctx, cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("failed to dial RPC endpoint: %w", err)
	}

	chainID, err := eth.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query chain id: %w", err)
	}

	c := &Client{
		eth:     eth,
		chainID: chainID,
		logger:  logger,
	}

	if cfg.PrivateKey != "" {
		key, err := crypto.HexToECDSA(strings.TrimPrefix(cfg.PrivateKey, "0x"))
		if err != nil {
			return nil, fmt.Errorf("invalid chain_private_key: %w", err)
		}
		c.key = key
		c.from = crypto.PubkeyToAddress(key.PublicKey)
	}

	logger.Info("Chain client initialized",
		zap.String("rpc_url", cfg.RPCURL),
		zap.String("chain_id", chainID.String()),
		zap.String("account", c.from.Hex()))

	return c, nil
}

// Backend returns the underlying client for contract binding.
func (c *Client) Backend() *ethclient.Client {
	return c.eth
}

// From returns the signing account address, or the zero address when the
// client is read-only.
func (c *Client) From() common.Address {
	return c.from
}

// ChainID returns the connected chain's id.
func (c *Client) ChainID() *big.Int {
	return c.chainID
}

// TransactOpts builds signing options for one transaction.
func (c *Client) TransactOpts(ctx context.Context) (*bind.TransactOpts, error) {
	if c.key == nil {
		return nil, ErrNoSigner
	}
	opts, err := bind.NewKeyedTransactorWithChainID(c.key, c.chainID)
	if err != nil {
		return nil, fmt.Errorf("failed to build transact opts: %w", err)
	}
	opts.Context = ctx
	return opts, nil
}

// CallContract executes a read-only call, which is also how writes are
// simulated before submission.
func (c *Client) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	return c.eth.CallContract(ctx, msg, blockNumber)
}

// Close tears down the RPC connection.
func (c *Client) Close() {
	c.eth.Close()
}
