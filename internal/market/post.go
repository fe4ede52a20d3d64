// Package market turns raw on-chain tuples into the application's post view
// model and answers filtered marketplace queries over it.
package market

import "strings"

// Post is the normalized application view of one minted post. Chain state is
// the single source of truth; these are ephemeral, re-fetchable read-model
// copies. Prices stay decimal strings: uint256 values are arbitrary
// precision and never pass through a float.
type Post struct {
	TokenID      string `json:"token_id"`
	Author       string `json:"author"`
	CurrentOwner string `json:"current_owner"`
	ContentHash  string `json:"content_hash"`
	Content      string `json:"content"`
	Timestamp    int64  `json:"timestamp"` // milliseconds since epoch
	IsForSale    bool   `json:"is_for_sale"`
	Price        string `json:"price"`
}

// SoldPost is a post in the heuristic sold view. The classification is a
// reconstruction from current state, not an audit trail: it cannot tell
// "sold once" from "sold, relisted, sold again", and SoldAt is an estimate.
// The indexed sale history is the authoritative replacement.
type SoldPost struct {
	Post
	IsSold    bool   `json:"is_sold"`
	SoldAt    int64  `json:"sold_at"` // estimated: mint time + 24h
	Buyer     string `json:"buyer"`
	Seller    string `json:"seller"`
	SalePrice string `json:"sale_price"`
}

// sameAddress compares wallet addresses case-insensitively; wallets do not
// guarantee canonical checksum casing.
func sameAddress(a, b string) bool {
	return strings.EqualFold(a, b)
}
