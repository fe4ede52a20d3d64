package db

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/onepostnft/marketd/internal/models"
)

// Repository provides database access methods
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new repository
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// EventRepository provides access to indexed contract events
type EventRepository struct {
	*Repository
}

// NewEventRepository creates a new event repository
func NewEventRepository(repo *Repository) *EventRepository {
	return &EventRepository{Repository: repo}
}

// RecordMint stores one mint event. Replays are deduplicated on
// (tx_hash, log_index).
func (r *EventRepository) RecordMint(ctx context.Context, event *models.MintEvent) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "tx_hash"}, {Name: "log_index"}},
		DoNothing: true,
	}).Create(event).Error
}

// RecordListing stores one listing lifecycle event.
func (r *EventRepository) RecordListing(ctx context.Context, event *models.ListingEvent) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "tx_hash"}, {Name: "log_index"}},
		DoNothing: true,
	}).Create(event).Error
}

// RecordSale stores one sale event.
func (r *EventRepository) RecordSale(ctx context.Context, event *models.SaleEvent) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "tx_hash"}, {Name: "log_index"}},
		DoNothing: true,
	}).Create(event).Error
}

// RecordTransfer stores one transfer event.
func (r *EventRepository) RecordTransfer(ctx context.Context, event *models.TransferEvent) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "tx_hash"}, {Name: "log_index"}},
		DoNothing: true,
	}).Create(event).Error
}

// SalesByToken returns the full sale history of one token, oldest first.
func (r *EventRepository) SalesByToken(ctx context.Context, tokenID string) ([]*models.SaleEvent, error) {
	var sales []*models.SaleEvent
	err := r.db.WithContext(ctx).
		Where("token_id = ?", tokenID).
		Order("block_num ASC, log_index ASC").
		Find(&sales).Error
	if err != nil {
		return nil, err
	}
	return sales, nil
}

// SalesBySeller returns sales where addr was the seller, newest first.
func (r *EventRepository) SalesBySeller(ctx context.Context, addr string, limit int) ([]*models.SaleEvent, error) {
	var sales []*models.SaleEvent
	q := r.db.WithContext(ctx).
		Where("lower(seller) = ?", strings.ToLower(addr)).
		Order("block_num DESC, log_index DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&sales).Error; err != nil {
		return nil, err
	}
	return sales, nil
}

// RecentSales returns the newest sales across all tokens.
func (r *EventRepository) RecentSales(ctx context.Context, limit int) ([]*models.SaleEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	var sales []*models.SaleEvent
	err := r.db.WithContext(ctx).
		Order("block_num DESC, log_index DESC").
		Limit(limit).
		Find(&sales).Error
	if err != nil {
		return nil, err
	}
	return sales, nil
}

// MintByToken returns the mint event for one token, or nil when unindexed.
func (r *EventRepository) MintByToken(ctx context.Context, tokenID string) (*models.MintEvent, error) {
	var mint models.MintEvent
	err := r.db.WithContext(ctx).Where("token_id = ?", tokenID).First(&mint).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &mint, nil
}

// SyncRepository tracks indexer progress
type SyncRepository struct {
	*Repository
}

// NewSyncRepository creates a new sync repository
func NewSyncRepository(repo *Repository) *SyncRepository {
	return &SyncRepository{Repository: repo}
}

// LastBlock returns the last block indexed for contract, zero when none.
func (r *SyncRepository) LastBlock(ctx context.Context, contract string) (uint64, error) {
	var state models.SyncState
	err := r.db.WithContext(ctx).Where("contract = ?", strings.ToLower(contract)).First(&state).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return state.LastBlock, nil
}

// SetLastBlock records the last block indexed for contract.
func (r *SyncRepository) SetLastBlock(ctx context.Context, contract string, block uint64) error {
	state := models.SyncState{
		Contract:  strings.ToLower(contract),
		LastBlock: block,
		UpdatedAt: time.Now().UTC(),
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:     []clause.Column{{Name: "contract"}},
		UpdateAll:   true,
	}).Create(&state).Error
}
