package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/onepostnft/marketd/internal/contracts/onepost"
	"github.com/onepostnft/marketd/internal/ledger"
)

var (
	contractAddr = common.HexToAddress("0x00000000000000000000000000000000000000c0")
	tokenAddr    = common.HexToAddress("0x00000000000000000000000000000000000000f0")
	buyerAddr    = common.HexToAddress("0x00000000000000000000000000000000000000b1")
	sellerAddr   = common.HexToAddress("0x00000000000000000000000000000000000000a1")
)

func dummyTx() *types.Transaction {
	return types.NewTx(&types.LegacyTx{Nonce: 7, Gas: 21000, GasPrice: big.NewInt(1)})
}

type fakeBackend struct {
	from        common.Address
	simulateErr error
	simulated   []ethereum.CallMsg
}

func (f *fakeBackend) From() common.Address { return f.from }

func (f *fakeBackend) TransactOpts(_ context.Context) (*bind.TransactOpts, error) {
	return &bind.TransactOpts{
		From: f.from,
		Signer: func(_ common.Address, tx *types.Transaction) (*types.Transaction, error) {
			return tx, nil
		},
	}, nil
}

func (f *fakeBackend) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	f.simulated = append(f.simulated, msg)
	if f.simulateErr != nil {
		return nil, f.simulateErr
	}
	return nil, nil
}

type submittedCall struct {
	method string
	value  *big.Int
	args   []interface{}
}

type fakeContract struct {
	posts     map[string]onepost.Post
	proposals []onepost.SellProposal
	readErr   error
	writeErr  error
	writes    []submittedCall
}

func (f *fakeContract) Address() common.Address { return contractAddr }

func (f *fakeContract) Pack(method string, _ ...interface{}) ([]byte, error) {
	return []byte("call:" + method), nil
}

func (f *fakeContract) GetAllPosts(_ context.Context, _, _ uint32) ([]onepost.Post, error) {
	if f.readErr != nil {
		return nil, f.readErr
	}
	var out []onepost.Post
	for _, p := range f.posts {
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeContract) GetAllPostsForSale(ctx context.Context, offset, limit uint32) ([]onepost.Post, error) {
	return f.GetAllPosts(ctx, offset, limit)
}

func (f *fakeContract) GetUserPosts(ctx context.Context, _ common.Address) ([]onepost.Post, error) {
	return f.GetAllPosts(ctx, 0, 0)
}

func (f *fakeContract) GetPostByTokenId(_ context.Context, tokenID *big.Int) (onepost.Post, error) {
	if f.readErr != nil {
		return onepost.Post{}, f.readErr
	}
	p, ok := f.posts[tokenID.String()]
	if !ok {
		return onepost.Post{}, fmt.Errorf("no post for token %s", tokenID)
	}
	return p, nil
}

func (f *fakeContract) GetSellProposals(_ context.Context, _ common.Address) ([]onepost.SellProposal, error) {
	if f.readErr != nil {
		return nil, f.readErr
	}
	return f.proposals, nil
}

func (f *fakeContract) IsPostForSale(_ context.Context, tokenID *big.Int) (bool, error) {
	return f.posts[tokenID.String()].IsForSale, nil
}

func (f *fakeContract) GetPostPrice(_ context.Context, tokenID *big.Int) (*big.Int, error) {
	return f.posts[tokenID.String()].Price, nil
}

func (f *fakeContract) GetUserSoldNfts(_ context.Context, _ common.Address) ([]*big.Int, error) {
	return nil, nil
}

func (f *fakeContract) submit(method string, opts *bind.TransactOpts, args ...interface{}) (*types.Transaction, error) {
	if f.writeErr != nil {
		return nil, f.writeErr
	}
	f.writes = append(f.writes, submittedCall{method: method, value: opts.Value, args: args})
	return dummyTx(), nil
}

func (f *fakeContract) CreatePost(opts *bind.TransactOpts, contentHash string, price *big.Int) (*types.Transaction, error) {
	return f.submit("createPost", opts, contentHash, price)
}

func (f *fakeContract) ProposeSell(opts *bind.TransactOpts, tokenID, price *big.Int) (*types.Transaction, error) {
	return f.submit("proposeSell", opts, tokenID, price)
}

func (f *fakeContract) CancelSell(opts *bind.TransactOpts, proposalID *big.Int) (*types.Transaction, error) {
	return f.submit("cancelSell", opts, proposalID)
}

func (f *fakeContract) BuyPost(opts *bind.TransactOpts, tokenID *big.Int, tokenAddress common.Address) (*types.Transaction, error) {
	return f.submit("buyPost", opts, tokenID, tokenAddress)
}

type fakeToken struct {
	writes []submittedCall
}

func (f *fakeToken) Address() common.Address { return tokenAddr }

func (f *fakeToken) Pack(method string, _ ...interface{}) ([]byte, error) {
	return []byte("call:" + method), nil
}

func (f *fakeToken) Approve(opts *bind.TransactOpts, spender common.Address, amount *big.Int) (*types.Transaction, error) {
	f.writes = append(f.writes, submittedCall{method: "approve", args: []interface{}{spender, amount}})
	return dummyTx(), nil
}

func (f *fakeToken) Mint(opts *bind.TransactOpts, to common.Address, amount *big.Int) (*types.Transaction, error) {
	f.writes = append(f.writes, submittedCall{method: "mint", args: []interface{}{to, amount}})
	return dummyTx(), nil
}

func (f *fakeToken) BalanceOf(_ context.Context, _ common.Address) (*big.Int, error) {
	return big.NewInt(0), nil
}

func (f *fakeToken) Allowance(_ context.Context, _, _ common.Address) (*big.Int, error) {
	return big.NewInt(0), nil
}

type fakeLedger struct {
	records []ledger.SoldRecord
	err     error
}

func (f *fakeLedger) Append(_ context.Context, rec ledger.SoldRecord) error {
	if f.err != nil {
		return f.err
	}
	f.records = append(f.records, rec)
	return nil
}

type fakeNotifier struct {
	calls int
	err   error
}

func (f *fakeNotifier) PostSold(_ context.Context, _, _ common.Address, _ string, _ *big.Int) error {
	f.calls++
	return f.err
}

func listedPost(tokenID int64, price int64) onepost.Post {
	return onepost.Post{
		TokenId:      big.NewInt(tokenID),
		Author:       sellerAddr,
		CurrentOwner: sellerAddr,
		ContentHash:  "QmListed",
		Timestamp:    big.NewInt(1700000000),
		IsForSale:    true,
		Price:        big.NewInt(price),
	}
}

func TestCreatePost(t *testing.T) {
	t.Run("rejects empty content hash", func(t *testing.T) {
		backend := &fakeBackend{from: buyerAddr}
		contract := &fakeContract{}
		g := NewGateway(backend, contract, &fakeToken{}, nil, nil)

		if _, err := g.CreatePost(context.Background(), "", big.NewInt(1)); err == nil {
			t.Fatal("expected error for empty content hash")
		}
		if len(contract.writes) != 0 || len(backend.simulated) != 0 {
			t.Error("nothing should reach the chain")
		}
	})

	t.Run("simulates before submitting", func(t *testing.T) {
		backend := &fakeBackend{from: buyerAddr}
		contract := &fakeContract{}
		g := NewGateway(backend, contract, &fakeToken{}, nil, nil)

		if _, err := g.CreatePost(context.Background(), "QmNew", nil); err != nil {
			t.Fatalf("CreatePost failed: %v", err)
		}
		if len(backend.simulated) != 1 {
			t.Fatalf("expected 1 simulation, got %d", len(backend.simulated))
		}
		if len(contract.writes) != 1 || contract.writes[0].method != "createPost" {
			t.Fatalf("expected one createPost submission, got %+v", contract.writes)
		}
		// nil price coerces to zero
		if price := contract.writes[0].args[1].(*big.Int); price.Sign() != 0 {
			t.Errorf("expected zero price, got %s", price)
		}
	})

	t.Run("simulation failure prevents submission", func(t *testing.T) {
		backend := &fakeBackend{from: buyerAddr, simulateErr: errors.New("execution reverted: already posted")}
		contract := &fakeContract{}
		g := NewGateway(backend, contract, &fakeToken{}, nil, nil)

		_, err := g.CreatePost(context.Background(), "QmNew", nil)
		if err == nil {
			t.Fatal("expected simulation error")
		}
		if len(contract.writes) != 0 {
			t.Error("reverting call must not be submitted")
		}
	})
}

func TestProposeSellRejectsNonPositivePrice(t *testing.T) {
	for _, price := range []*big.Int{nil, big.NewInt(0), big.NewInt(-5)} {
		backend := &fakeBackend{from: sellerAddr}
		contract := &fakeContract{}
		g := NewGateway(backend, contract, &fakeToken{}, nil, nil)

		_, err := g.ProposeSell(context.Background(), big.NewInt(1), price)
		if !errors.Is(err, ErrInvalidPrice) {
			t.Errorf("price %v: expected ErrInvalidPrice, got %v", price, err)
		}
		if len(backend.simulated) != 0 || len(contract.writes) != 0 {
			t.Errorf("price %v: nothing should reach the chain", price)
		}
	}
}

func TestCancelSell(t *testing.T) {
	t.Run("no active proposal means no chain write", func(t *testing.T) {
		backend := &fakeBackend{from: sellerAddr}
		contract := &fakeContract{proposals: []onepost.SellProposal{
			{Id: big.NewInt(10), TokenId: big.NewInt(1), IsActive: false}, // already cancelled
			{Id: big.NewInt(11), TokenId: big.NewInt(2), IsActive: true},  // different token
		}}
		g := NewGateway(backend, contract, &fakeToken{}, nil, nil)

		_, err := g.CancelSell(context.Background(), big.NewInt(1))
		if !errors.Is(err, ErrNoActiveProposal) {
			t.Fatalf("expected ErrNoActiveProposal, got %v", err)
		}
		if len(backend.simulated) != 0 || len(contract.writes) != 0 {
			t.Error("no transaction may be issued without an active proposal")
		}
	})

	t.Run("cancels the matching active proposal", func(t *testing.T) {
		backend := &fakeBackend{from: sellerAddr}
		contract := &fakeContract{proposals: []onepost.SellProposal{
			{Id: big.NewInt(10), TokenId: big.NewInt(1), IsActive: false},
			{Id: big.NewInt(11), TokenId: big.NewInt(1), IsActive: true},
		}}
		g := NewGateway(backend, contract, &fakeToken{}, nil, nil)

		if _, err := g.CancelSell(context.Background(), big.NewInt(1)); err != nil {
			t.Fatalf("CancelSell failed: %v", err)
		}
		if len(contract.writes) != 1 || contract.writes[0].method != "cancelSell" {
			t.Fatalf("expected one cancelSell submission, got %+v", contract.writes)
		}
		if id := contract.writes[0].args[0].(*big.Int); id.Int64() != 11 {
			t.Errorf("expected proposal 11 cancelled, got %s", id)
		}
	})
}

func TestBuyPost(t *testing.T) {
	t.Run("native payment attaches listed price as value", func(t *testing.T) {
		backend := &fakeBackend{from: buyerAddr}
		contract := &fakeContract{posts: map[string]onepost.Post{"1": listedPost(1, 5000)}}
		g := NewGateway(backend, contract, &fakeToken{}, nil, nil)

		if _, err := g.BuyPost(context.Background(), big.NewInt(1), NativePayment()); err != nil {
			t.Fatalf("BuyPost failed: %v", err)
		}
		if len(backend.simulated) != 1 || backend.simulated[0].Value.Int64() != 5000 {
			t.Errorf("simulation should carry the listed price, got %+v", backend.simulated)
		}
		if len(contract.writes) != 1 || contract.writes[0].value.Int64() != 5000 {
			t.Errorf("submission should carry the listed price, got %+v", contract.writes)
		}
		// Native payment wires as the zero address.
		if addr := contract.writes[0].args[1].(common.Address); addr != (common.Address{}) {
			t.Errorf("expected zero token address, got %s", addr.Hex())
		}
	})

	t.Run("token payment attaches no value", func(t *testing.T) {
		backend := &fakeBackend{from: buyerAddr}
		contract := &fakeContract{posts: map[string]onepost.Post{"1": listedPost(1, 5000)}}
		g := NewGateway(backend, contract, &fakeToken{}, nil, nil)

		if _, err := g.BuyPost(context.Background(), big.NewInt(1), TokenPayment(tokenAddr)); err != nil {
			t.Fatalf("BuyPost failed: %v", err)
		}
		if contract.writes[0].value != nil {
			t.Errorf("token payment must not attach native value, got %s", contract.writes[0].value)
		}
		if addr := contract.writes[0].args[1].(common.Address); addr != tokenAddr {
			t.Errorf("expected token address %s, got %s", tokenAddr.Hex(), addr.Hex())
		}
	})

	t.Run("records sale and notifies seller", func(t *testing.T) {
		backend := &fakeBackend{from: buyerAddr}
		contract := &fakeContract{posts: map[string]onepost.Post{"1": listedPost(1, 5000)}}
		soldLog := &fakeLedger{}
		notifier := &fakeNotifier{}
		g := NewGateway(backend, contract, &fakeToken{}, soldLog, notifier)

		if _, err := g.BuyPost(context.Background(), big.NewInt(1), NativePayment()); err != nil {
			t.Fatalf("BuyPost failed: %v", err)
		}
		if len(soldLog.records) != 1 {
			t.Fatalf("expected 1 sold record, got %d", len(soldLog.records))
		}
		rec := soldLog.records[0]
		if rec.TokenID != "1" || rec.Buyer != buyerAddr.Hex() {
			t.Errorf("unexpected sold record %+v", rec)
		}
		if rec.TransactionHash == "" {
			t.Error("sold record should carry the transaction hash")
		}
		if notifier.calls != 1 {
			t.Errorf("expected 1 notification, got %d", notifier.calls)
		}
	})

	t.Run("ledger and notifier failures do not fail the purchase", func(t *testing.T) {
		backend := &fakeBackend{from: buyerAddr}
		contract := &fakeContract{posts: map[string]onepost.Post{"1": listedPost(1, 5000)}}
		soldLog := &fakeLedger{err: errors.New("redis down")}
		notifier := &fakeNotifier{err: errors.New("backend unreachable")}
		g := NewGateway(backend, contract, &fakeToken{}, soldLog, notifier)

		tx, err := g.BuyPost(context.Background(), big.NewInt(1), NativePayment())
		if err != nil {
			t.Fatalf("purchase must survive side-effect failures: %v", err)
		}
		if tx == nil {
			t.Fatal("expected a transaction")
		}
	})

	t.Run("unknown token fails before any write", func(t *testing.T) {
		backend := &fakeBackend{from: buyerAddr}
		contract := &fakeContract{posts: map[string]onepost.Post{}}
		g := NewGateway(backend, contract, &fakeToken{}, nil, nil)

		if _, err := g.BuyPost(context.Background(), big.NewInt(9), NativePayment()); err == nil {
			t.Fatal("expected error for unknown token")
		}
		if len(contract.writes) != 0 {
			t.Error("no transaction may be issued for an unknown token")
		}
	})
}

func TestApproveTokenTargetsMarketplace(t *testing.T) {
	backend := &fakeBackend{from: buyerAddr}
	token := &fakeToken{}
	g := NewGateway(backend, &fakeContract{}, token, nil, nil)

	if _, err := g.ApproveToken(context.Background(), big.NewInt(100)); err != nil {
		t.Fatalf("ApproveToken failed: %v", err)
	}
	if len(token.writes) != 1 || token.writes[0].method != "approve" {
		t.Fatalf("expected one approve submission, got %+v", token.writes)
	}
	if spender := token.writes[0].args[0].(common.Address); spender != contractAddr {
		t.Errorf("spender must be the marketplace contract, got %s", spender.Hex())
	}
}
