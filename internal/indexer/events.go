package indexer

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"github.com/onepostnft/marketd/internal/models"
)

// Decoded event shapes matching the contract ABI.

type postCreatedEvent struct {
	TokenId     *big.Int
	Author      common.Address
	ContentHash string
	Price       *big.Int
	Timestamp   *big.Int
}

type postListedEvent struct {
	TokenId *big.Int
	Seller  common.Address
	Price   *big.Int
}

type sellProposedEvent struct {
	ProposalId *big.Int
	Seller     common.Address
	Buyer      common.Address
	TokenId    *big.Int
	Price      *big.Int
}

type sellCancelledEvent struct {
	ProposalId *big.Int
}

type postSoldEvent struct {
	TokenId     *big.Int
	Seller      common.Address
	Buyer       common.Address
	Price       *big.Int
	RoyaltyPaid *big.Int
}

type transferEvent struct {
	From    common.Address
	To      common.Address
	TokenId *big.Int
}

// handleLog decodes one contract log and persists it. Unknown topics are
// skipped; the contract may gain events this build does not know about.
func (s *Sync) handleLog(ctx context.Context, log types.Log, blockTime time.Time) error {
	if len(log.Topics) == 0 {
		return nil
	}

	events := s.contract.ABI().Events
	now := time.Now().UTC()

	switch log.Topics[0] {
	case events["PostCreated"].ID:
		var ev postCreatedEvent
		if err := s.contract.UnpackLog(&ev, "PostCreated", log); err != nil {
			return fmt.Errorf("failed to decode PostCreated: %w", err)
		}
		mintedAt := blockTime
		if ev.Timestamp != nil && ev.Timestamp.Sign() > 0 {
			mintedAt = time.Unix(ev.Timestamp.Int64(), 0).UTC()
		}
		return s.events.RecordMint(ctx, &models.MintEvent{
			BlockNum:    log.BlockNumber,
			TxHash:      log.TxHash.Hex(),
			LogIndex:    log.Index,
			TokenID:     ev.TokenId.String(),
			Author:      ev.Author.Hex(),
			ContentHash: ev.ContentHash,
			MintedAt:    mintedAt,
			CreatedAt:   now,
		})

	case events["PostListedForSale"].ID:
		var ev postListedEvent
		if err := s.contract.UnpackLog(&ev, "PostListedForSale", log); err != nil {
			return fmt.Errorf("failed to decode PostListedForSale: %w", err)
		}
		return s.events.RecordListing(ctx, &models.ListingEvent{
			BlockNum:  log.BlockNumber,
			TxHash:    log.TxHash.Hex(),
			LogIndex:  log.Index,
			TokenID:   ev.TokenId.String(),
			Seller:    ev.Seller.Hex(),
			Price:     ev.Price.String(),
			Action:    "listed",
			CreatedAt: now,
		})

	case events["SellProposed"].ID:
		var ev sellProposedEvent
		if err := s.contract.UnpackLog(&ev, "SellProposed", log); err != nil {
			return fmt.Errorf("failed to decode SellProposed: %w", err)
		}
		return s.events.RecordListing(ctx, &models.ListingEvent{
			BlockNum:   log.BlockNumber,
			TxHash:     log.TxHash.Hex(),
			LogIndex:   log.Index,
			TokenID:    ev.TokenId.String(),
			Seller:     ev.Seller.Hex(),
			Price:      ev.Price.String(),
			ProposalID: ev.ProposalId.String(),
			Action:     "proposed",
			CreatedAt:  now,
		})

	case events["SellCancelled"].ID:
		var ev sellCancelledEvent
		if err := s.contract.UnpackLog(&ev, "SellCancelled", log); err != nil {
			return fmt.Errorf("failed to decode SellCancelled: %w", err)
		}
		return s.events.RecordListing(ctx, &models.ListingEvent{
			BlockNum:   log.BlockNumber,
			TxHash:     log.TxHash.Hex(),
			LogIndex:   log.Index,
			ProposalID: ev.ProposalId.String(),
			Action:     "cancelled",
			CreatedAt:  now,
		})

	case events["PostSold"].ID:
		var ev postSoldEvent
		if err := s.contract.UnpackLog(&ev, "PostSold", log); err != nil {
			return fmt.Errorf("failed to decode PostSold: %w", err)
		}
		return s.events.RecordSale(ctx, &models.SaleEvent{
			BlockNum:  log.BlockNumber,
			TxHash:    log.TxHash.Hex(),
			LogIndex:  log.Index,
			TokenID:   ev.TokenId.String(),
			Seller:    ev.Seller.Hex(),
			Buyer:     ev.Buyer.Hex(),
			Price:     ev.Price.String(),
			SoldAt:    blockTime,
			CreatedAt: now,
		})

	case events["Transfer"].ID:
		var ev transferEvent
		if err := s.contract.UnpackLog(&ev, "Transfer", log); err != nil {
			return fmt.Errorf("failed to decode Transfer: %w", err)
		}
		return s.events.RecordTransfer(ctx, &models.TransferEvent{
			BlockNum:  log.BlockNumber,
			TxHash:    log.TxHash.Hex(),
			LogIndex:  log.Index,
			TokenID:   ev.TokenId.String(),
			From:      ev.From.Hex(),
			To:        ev.To.Hex(),
			CreatedAt: now,
		})

	default:
		s.logger.Debug("Skipping unknown event topic",
			zap.String("topic", log.Topics[0].Hex()),
			zap.Uint64("block", log.BlockNumber))
		return nil
	}
}
