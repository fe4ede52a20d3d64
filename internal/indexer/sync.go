// Package indexer follows the marketplace contract's event stream and
// persists it as the authoritative sale and listing history.
package indexer

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"github.com/onepostnft/marketd/internal/contracts/onepost"
	"github.com/onepostnft/marketd/internal/models"
	"github.com/onepostnft/marketd/pkg/config"
	"github.com/onepostnft/marketd/pkg/logging"
	"github.com/onepostnft/marketd/pkg/telemetry"
)

// chainSource is what the indexer needs from the RPC client.
type chainSource interface {
	BlockNumber(ctx context.Context) (uint64, error)
	FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
}

// eventStore persists decoded events.
type eventStore interface {
	RecordMint(ctx context.Context, event *models.MintEvent) error
	RecordListing(ctx context.Context, event *models.ListingEvent) error
	RecordSale(ctx context.Context, event *models.SaleEvent) error
	RecordTransfer(ctx context.Context, event *models.TransferEvent) error
}

// syncStore tracks indexing progress.
type syncStore interface {
	LastBlock(ctx context.Context, contract string) (uint64, error)
	SetLastBlock(ctx context.Context, contract string, block uint64) error
}

// Sync manages the contract event synchronization process
type Sync struct {
	config    *config.IndexerConfig
	source    chainSource
	contract  *onepost.OnePostNFT
	events    eventStore
	syncState syncStore
	logger    *zap.Logger
}

// NewSync creates a new sync manager
func NewSync(cfg *config.IndexerConfig, source chainSource, contract *onepost.OnePostNFT, events eventStore, syncState syncStore) *Sync {
	return &Sync{
		config:    cfg,
		source:    source,
		contract:  contract,
		events:    events,
		syncState: syncState,
		logger:    logging.GetLogger().With(zap.String("component", "indexer")),
	}
}

// Run starts the sync loop. Only blocks at least Confirmations behind the
// head are indexed, so reorgs never reach the event tables.
func (s *Sync) Run(ctx context.Context) error {
	s.logger.Info("Starting event indexer",
		zap.String("contract", s.contract.Address().Hex()))

	syncInterval := s.config.SyncInterval
	if syncInterval == 0 {
		syncInterval = 5
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			if err := s.syncOnce(ctx); err != nil {
				s.logger.Error("Sync pass failed", zap.Error(err))
			}
			s.wait(ctx, syncInterval)
		}
	}
}

// syncOnce indexes everything between the last processed block and the
// confirmed head, in batches.
func (s *Sync) syncOnce(ctx context.Context) error {
	ctx, span := telemetry.StartSpan(ctx, "indexer.sync_once")
	defer span.End()

	head, err := s.source.BlockNumber(ctx)
	if err != nil {
		return fmt.Errorf("failed to get head block: %w", err)
	}

	confirmations := uint64(s.config.Confirmations)
	if head <= confirmations {
		return nil
	}
	target := head - confirmations

	last, err := s.syncState.LastBlock(ctx, s.contract.Address().Hex())
	if err != nil {
		return fmt.Errorf("failed to load sync state: %w", err)
	}
	if last == 0 && s.config.StartBlock > 0 {
		last = uint64(s.config.StartBlock) - 1
	}
	if last >= target {
		return nil
	}

	batch := uint64(s.config.BatchBlocks)
	if batch == 0 {
		batch = 2000
	}

	for from := last + 1; from <= target; from += batch {
		to := from + batch - 1
		if to > target {
			to = target
		}
		if err := s.processRange(ctx, from, to); err != nil {
			return fmt.Errorf("failed to process blocks %d-%d: %w", from, to, err)
		}
		if err := s.syncState.SetLastBlock(ctx, s.contract.Address().Hex(), to); err != nil {
			return fmt.Errorf("failed to save sync state: %w", err)
		}
		s.logger.Info("Indexed blocks",
			zap.Uint64("from", from),
			zap.Uint64("to", to))
	}
	return nil
}

// processRange fetches and persists every contract log in [from, to].
func (s *Sync) processRange(ctx context.Context, from, to uint64) error {
	logs, err := s.source.FilterLogs(ctx, ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(from),
		ToBlock:   new(big.Int).SetUint64(to),
		Addresses: []common.Address{s.contract.Address()},
	})
	if err != nil {
		return fmt.Errorf("failed to filter logs: %w", err)
	}

	blockTimes := make(map[uint64]time.Time)
	for _, log := range logs {
		when, err := s.blockTime(ctx, log.BlockNumber, blockTimes)
		if err != nil {
			return err
		}
		if err := s.handleLog(ctx, log, when); err != nil {
			return err
		}
	}
	return nil
}

// blockTime returns the timestamp of a block, caching per batch.
func (s *Sync) blockTime(ctx context.Context, num uint64, cache map[uint64]time.Time) (time.Time, error) {
	if t, ok := cache[num]; ok {
		return t, nil
	}
	header, err := s.source.HeaderByNumber(ctx, new(big.Int).SetUint64(num))
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to get header %d: %w", num, err)
	}
	t := time.Unix(int64(header.Time), 0).UTC()
	cache[num] = t
	return t, nil
}

func (s *Sync) wait(ctx context.Context, seconds int) {
	select {
	case <-ctx.Done():
	case <-time.After(time.Duration(seconds) * time.Second):
	}
}
