package auction

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status of an auction post. Posts are never deleted, only marked closed.
type Status string

const (
	StatusOpen   Status = "open"
	StatusClosed Status = "closed"
)

// Auction is a single item listing with a price, bidding window, and
// eventual winner. CurrentBid is seeded with StartingPrice at creation and
// only ever increases; CurrentBidder stays nil until the first accepted bid.
type Auction struct {
	ID            int64            `json:"id"`
	Owner         string           `json:"owner"`
	Title         string           `json:"title"`
	Description   string           `json:"description"`
	ImageRef      string           `json:"image"`
	StartingPrice decimal.Decimal  `json:"starting_price"`
	CurrentBid    decimal.Decimal  `json:"current_bid"`
	CurrentBidder *string          `json:"current_bidder,omitempty"`
	EndTime       time.Time        `json:"end_time"`
	Duration      time.Duration    `json:"duration"`
	Status        Status           `json:"status"`
	Winner        *string          `json:"winner,omitempty"`
	WinningAmount *decimal.Decimal `json:"winning_amount,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
}

// HasBids reports whether at least one bid was ever accepted.
func (a *Auction) HasBids() bool {
	return a.CurrentBidder != nil
}

// Expired reports whether the bidding window has passed. All internal time
// comparisons are UTC instants; rendering in a local zone is a presentation
// concern.
func (a *Auction) Expired(now time.Time) bool {
	return !now.Before(a.EndTime)
}

// Bid is an immutable, append-only record of a (bidder, amount) submission.
type Bid struct {
	ID        uuid.UUID       `json:"id"`
	AuctionID int64           `json:"auction_id"`
	Bidder    string          `json:"bidder"`
	Amount    decimal.Decimal `json:"amount"`
	CreatedAt time.Time       `json:"created_at"`
}
