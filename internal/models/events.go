// Package models defines the GORM models for indexed contract events. Event
// rows are append-only; amounts are stored as decimal strings because uint256
// values do not fit any SQL numeric type reliably.
package models

import (
	"time"
)

// MintEvent records one PostCreated event.
type MintEvent struct {
	ID          int64     `gorm:"primaryKey;autoIncrement;column:id"`
	BlockNum    uint64    `gorm:"not null;index;column:block_num"`
	TxHash      string    `gorm:"type:varchar(66);not null;uniqueIndex:uniq_onepost_mints_event;column:tx_hash"`
	LogIndex    uint      `gorm:"not null;uniqueIndex:uniq_onepost_mints_event;column:log_index"`
	TokenID     string    `gorm:"type:varchar(78);not null;index;column:token_id"`
	Author      string    `gorm:"type:varchar(42);not null;index;column:author"`
	ContentHash string    `gorm:"type:varchar(128);not null;column:content_hash"`
	MintedAt    time.Time `gorm:"not null;column:minted_at"`
	CreatedAt   time.Time `gorm:"not null;column:created_at"`
}

// TableName specifies the table name for MintEvent
func (MintEvent) TableName() string {
	return "onepost_mints"
}

// ListingEvent records one listing lifecycle event: a PostListedForSale, a
// SellProposed, or a SellCancelled.
type ListingEvent struct {
	ID         int64     `gorm:"primaryKey;autoIncrement;column:id"`
	BlockNum   uint64    `gorm:"not null;index;column:block_num"`
	TxHash     string    `gorm:"type:varchar(66);not null;uniqueIndex:uniq_onepost_listings_event;column:tx_hash"`
	LogIndex   uint      `gorm:"not null;uniqueIndex:uniq_onepost_listings_event;column:log_index"`
	TokenID    string    `gorm:"type:varchar(78);not null;index;column:token_id"`
	Seller     string    `gorm:"type:varchar(42);not null;index;column:seller"`
	Price      string    `gorm:"type:varchar(78);not null;column:price"`
	ProposalID string    `gorm:"type:varchar(78);column:proposal_id"`
	Action     string    `gorm:"type:varchar(16);not null;column:action"` // listed, proposed, cancelled
	CreatedAt  time.Time `gorm:"not null;column:created_at"`
}

// TableName specifies the table name for ListingEvent
func (ListingEvent) TableName() string {
	return "onepost_listings"
}

// SaleEvent records one PostSold event. This table is the authoritative sale
// history; heuristic sold views derived from current ownership are estimates.
type SaleEvent struct {
	ID        int64     `gorm:"primaryKey;autoIncrement;column:id"`
	BlockNum  uint64    `gorm:"not null;index;column:block_num"`
	TxHash    string    `gorm:"type:varchar(66);not null;uniqueIndex:uniq_onepost_sales_event;column:tx_hash"`
	LogIndex  uint      `gorm:"not null;uniqueIndex:uniq_onepost_sales_event;column:log_index"`
	TokenID   string    `gorm:"type:varchar(78);not null;index;column:token_id"`
	Seller    string    `gorm:"type:varchar(42);not null;index;column:seller"`
	Buyer     string    `gorm:"type:varchar(42);not null;index;column:buyer"`
	Price     string    `gorm:"type:varchar(78);not null;column:price"`
	PayToken  string    `gorm:"type:varchar(42);column:pay_token"`
	SoldAt    time.Time `gorm:"not null;column:sold_at"`
	CreatedAt time.Time `gorm:"not null;column:created_at"`
}

// TableName specifies the table name for SaleEvent
func (SaleEvent) TableName() string {
	return "onepost_sales"
}

// TransferEvent records one ERC-721 Transfer, mints and burns included.
type TransferEvent struct {
	ID        int64     `gorm:"primaryKey;autoIncrement;column:id"`
	BlockNum  uint64    `gorm:"not null;index;column:block_num"`
	TxHash    string    `gorm:"type:varchar(66);not null;uniqueIndex:uniq_onepost_transfers_event;column:tx_hash"`
	LogIndex  uint      `gorm:"not null;uniqueIndex:uniq_onepost_transfers_event;column:log_index"`
	TokenID   string    `gorm:"type:varchar(78);not null;index;column:token_id"`
	From      string    `gorm:"type:varchar(42);not null;column:from_address"`
	To        string    `gorm:"type:varchar(42);not null;index;column:to_address"`
	CreatedAt time.Time `gorm:"not null;column:created_at"`
}

// TableName specifies the table name for TransferEvent
func (TransferEvent) TableName() string {
	return "onepost_transfers"
}

// SyncState tracks the indexer's progress per contract.
type SyncState struct {
	Contract  string    `gorm:"primaryKey;type:varchar(42);column:contract"`
	LastBlock uint64    `gorm:"not null;column:last_block"`
	UpdatedAt time.Time `gorm:"not null;column:updated_at"`
}

// TableName specifies the table name for SyncState
func (SyncState) TableName() string {
	return "onepost_sync_state"
}
