package indexer

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/onepostnft/marketd/internal/contracts/onepost"
	"github.com/onepostnft/marketd/internal/models"
	"github.com/onepostnft/marketd/pkg/config"
)

var (
	indexedContract = common.HexToAddress("0x00000000000000000000000000000000000000c0")
	sellerA         = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	buyerB          = common.HexToAddress("0x00000000000000000000000000000000000000b1")
)

type fakeStore struct {
	mints     []*models.MintEvent
	listings  []*models.ListingEvent
	sales     []*models.SaleEvent
	transfers []*models.TransferEvent
}

func (f *fakeStore) RecordMint(_ context.Context, e *models.MintEvent) error {
	f.mints = append(f.mints, e)
	return nil
}

func (f *fakeStore) RecordListing(_ context.Context, e *models.ListingEvent) error {
	f.listings = append(f.listings, e)
	return nil
}

func (f *fakeStore) RecordSale(_ context.Context, e *models.SaleEvent) error {
	f.sales = append(f.sales, e)
	return nil
}

func (f *fakeStore) RecordTransfer(_ context.Context, e *models.TransferEvent) error {
	f.transfers = append(f.transfers, e)
	return nil
}

type fakeSyncStore struct {
	last map[string]uint64
}

func (f *fakeSyncStore) LastBlock(_ context.Context, contract string) (uint64, error) {
	return f.last[contract], nil
}

func (f *fakeSyncStore) SetLastBlock(_ context.Context, contract string, block uint64) error {
	if f.last == nil {
		f.last = make(map[string]uint64)
	}
	f.last[contract] = block
	return nil
}

type fakeChain struct {
	head    uint64
	logs    []types.Log
	queries []ethereum.FilterQuery
}

func (f *fakeChain) BlockNumber(_ context.Context) (uint64, error) { return f.head, nil }

func (f *fakeChain) FilterLogs(_ context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
	f.queries = append(f.queries, q)
	var out []types.Log
	for _, l := range f.logs {
		if l.BlockNumber >= q.FromBlock.Uint64() && l.BlockNumber <= q.ToBlock.Uint64() {
			out = append(out, l)
		}
	}
	return out, nil
}

func (f *fakeChain) HeaderByNumber(_ context.Context, number *big.Int) (*types.Header, error) {
	return &types.Header{Number: number, Time: 1700000000}, nil
}

func newTestSync(t *testing.T, chain *fakeChain, store *fakeStore, state *fakeSyncStore) *Sync {
	t.Helper()
	contract, err := onepost.New(indexedContract, nil)
	if err != nil {
		t.Fatalf("failed to build binding: %v", err)
	}
	cfg := &config.IndexerConfig{BatchBlocks: 100, Confirmations: 5}
	return NewSync(cfg, chain, contract, store, state)
}

func addressTopic(addr common.Address) common.Hash {
	return common.BytesToHash(common.LeftPadBytes(addr.Bytes(), 32))
}

func soldLog(t *testing.T, contract *onepost.OnePostNFT, block uint64, tokenID, price int64) types.Log {
	t.Helper()
	ev := contract.ABI().Events["PostSold"]
	data, err := ev.Inputs.NonIndexed().Pack(big.NewInt(price), big.NewInt(0))
	if err != nil {
		t.Fatalf("failed to pack event data: %v", err)
	}
	return types.Log{
		Address:     indexedContract,
		BlockNumber: block,
		TxHash:      common.HexToHash("0xbeef"),
		Index:       3,
		Topics: []common.Hash{
			ev.ID,
			common.BigToHash(big.NewInt(tokenID)),
			addressTopic(sellerA),
			addressTopic(buyerB),
		},
		Data: data,
	}
}

func createdLog(t *testing.T, contract *onepost.OnePostNFT, block uint64, tokenID int64) types.Log {
	t.Helper()
	ev := contract.ABI().Events["PostCreated"]
	data, err := ev.Inputs.NonIndexed().Pack("QmMinted", big.NewInt(0), big.NewInt(1699999000))
	if err != nil {
		t.Fatalf("failed to pack event data: %v", err)
	}
	return types.Log{
		Address:     indexedContract,
		BlockNumber: block,
		TxHash:      common.HexToHash("0xfeed"),
		Index:       1,
		Topics: []common.Hash{
			ev.ID,
			common.BigToHash(big.NewInt(tokenID)),
			addressTopic(sellerA),
		},
		Data: data,
	}
}

func TestHandleLogDecodesSale(t *testing.T) {
	store := &fakeStore{}
	s := newTestSync(t, &fakeChain{}, store, &fakeSyncStore{})

	when := time.Unix(1700000000, 0).UTC()
	log := soldLog(t, s.contract, 120, 42, 5000)
	if err := s.handleLog(context.Background(), log, when); err != nil {
		t.Fatalf("handleLog failed: %v", err)
	}

	if len(store.sales) != 1 {
		t.Fatalf("expected 1 sale, got %d", len(store.sales))
	}
	sale := store.sales[0]
	if sale.TokenID != "42" || sale.Price != "5000" {
		t.Errorf("unexpected sale %+v", sale)
	}
	if sale.Seller != sellerA.Hex() || sale.Buyer != buyerB.Hex() {
		t.Errorf("unexpected parties %+v", sale)
	}
	if !sale.SoldAt.Equal(when) {
		t.Errorf("expected sold_at %v, got %v", when, sale.SoldAt)
	}
	if sale.BlockNum != 120 || sale.LogIndex != 3 {
		t.Errorf("log position not preserved: %+v", sale)
	}
}

func TestHandleLogDecodesMint(t *testing.T) {
	store := &fakeStore{}
	s := newTestSync(t, &fakeChain{}, store, &fakeSyncStore{})

	log := createdLog(t, s.contract, 80, 7)
	if err := s.handleLog(context.Background(), log, time.Unix(1700000000, 0).UTC()); err != nil {
		t.Fatalf("handleLog failed: %v", err)
	}

	if len(store.mints) != 1 {
		t.Fatalf("expected 1 mint, got %d", len(store.mints))
	}
	mint := store.mints[0]
	if mint.TokenID != "7" || mint.Author != sellerA.Hex() || mint.ContentHash != "QmMinted" {
		t.Errorf("unexpected mint %+v", mint)
	}
	// The event's own timestamp wins over the block time.
	if mint.MintedAt.Unix() != 1699999000 {
		t.Errorf("expected event timestamp, got %v", mint.MintedAt)
	}
}

func TestHandleLogSkipsUnknownTopic(t *testing.T) {
	store := &fakeStore{}
	s := newTestSync(t, &fakeChain{}, store, &fakeSyncStore{})

	log := types.Log{Topics: []common.Hash{common.HexToHash("0xdead")}}
	if err := s.handleLog(context.Background(), log, time.Now()); err != nil {
		t.Fatalf("unknown topics must be skipped, got %v", err)
	}
	if len(store.sales)+len(store.mints)+len(store.listings)+len(store.transfers) != 0 {
		t.Error("nothing should be recorded for unknown topics")
	}
}

func TestSyncOnceHonorsConfirmations(t *testing.T) {
	store := &fakeStore{}
	state := &fakeSyncStore{}
	chain := &fakeChain{head: 1000}
	s := newTestSync(t, chain, store, state)
	chain.logs = []types.Log{soldLog(t, s.contract, 500, 1, 100)}

	if err := s.syncOnce(context.Background()); err != nil {
		t.Fatalf("syncOnce failed: %v", err)
	}

	// head 1000 minus 5 confirmations
	if got := state.last[indexedContract.Hex()]; got != 995 {
		t.Errorf("expected sync state at 995, got %d", got)
	}
	if len(store.sales) != 1 {
		t.Errorf("expected the sale within range to be indexed, got %d", len(store.sales))
	}
	for _, q := range chain.queries {
		if q.ToBlock.Uint64() > 995 {
			t.Errorf("query crossed the confirmation boundary: to=%d", q.ToBlock.Uint64())
		}
		if len(q.Addresses) != 1 || q.Addresses[0] != indexedContract {
			t.Errorf("query must be scoped to the contract, got %v", q.Addresses)
		}
	}
}

func TestSyncOnceResumesFromLastBlock(t *testing.T) {
	store := &fakeStore{}
	state := &fakeSyncStore{last: map[string]uint64{indexedContract.Hex(): 990}}
	chain := &fakeChain{head: 1000}
	s := newTestSync(t, chain, store, state)
	// Already indexed; must not be re-fetched.
	chain.logs = []types.Log{soldLog(t, s.contract, 500, 1, 100)}

	if err := s.syncOnce(context.Background()); err != nil {
		t.Fatalf("syncOnce failed: %v", err)
	}
	if len(store.sales) != 0 {
		t.Errorf("blocks before the sync cursor must not be re-indexed")
	}
	if got := state.last[indexedContract.Hex()]; got != 995 {
		t.Errorf("expected cursor at 995, got %d", got)
	}
}
