package event

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/JayXPan/team-jesse-beard/internal/db"
)

// Wire event types pushed to realtime clients.
const (
	TypeBidUpdate    = "bidUpdate"
	TypeNewPost      = "newPost"
	TypeAuctionEnded = "auctionEnded"
	TypePostsUpdated = "postsUpdated"
	TypeError        = "error"
)

// Event is a single JSON frame sent to a client. Events are immutable value
// types; amounts inside Data marshal as quoted decimal strings, never binary
// floats.
type Event struct {
	Type  string `json:"type"`
	Data  any    `json:"data,omitempty"`
	Error string `json:"error,omitempty"`
}

// BidUpdate is broadcast after every accepted bid, including to the bidder.
type BidUpdate struct {
	AuctionID int64           `json:"auction_id"`
	Amount    decimal.Decimal `json:"amount"`
	Bidder    string          `json:"bidder"`
}

// AuctionEnded is broadcast once per auction when it closes. Winner and
// WinningAmount are absent for a no-bid close.
type AuctionEnded struct {
	AuctionID     int64            `json:"auction_id"`
	Winner        *string          `json:"winner,omitempty"`
	WinningAmount *decimal.Decimal `json:"winning_amount,omitempty"`
}

// Publisher is the sending side of the hub, the only part collaborators
// need.
type Publisher interface {
	Publish(event Event)
}

// BidPlacer handles bid commands arriving over a realtime channel.
type BidPlacer interface {
	PlaceBid(ctx context.Context, postID int64, bidder string, amount decimal.Decimal) (db.PlaceBidTxResult, error)
}
