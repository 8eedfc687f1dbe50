package auction

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Rejection reasons for a candidate bid. The messages are surfaced verbatim
// to clients, so they stay specific enough to react to (refresh price,
// log in, etc.).
var (
	ErrAuctionNotFound = errors.New("auction not found")
	ErrSelfBid         = errors.New("creator cannot bid on their own auction")
	ErrAmountTooLarge  = errors.New("the bid amount exceeds the maximum allowed value")
	ErrAuctionEnded    = errors.New("auction has ended")
	ErrBidTooLow       = errors.New("bid amount must be greater than the current highest bid")
)

// BidValidator decides whether a candidate bid against an auction snapshot
// is acceptable. Validate is pure; persisting the accepted bid atomically
// with the checks is the store's responsibility.
type BidValidator struct {
	MaxAmount decimal.Decimal
}

func NewBidValidator(maxAmount decimal.Decimal) BidValidator {
	return BidValidator{MaxAmount: maxAmount}
}

// Validate checks the rejection reasons in a fixed order so user-facing
// errors are deterministic: not-found, self-bid, too-large, ended, too-low.
// The end-time check here is authoritative: a bid arriving after expiry but
// before the next scheduler sweep is still rejected.
func (v BidValidator) Validate(a *Auction, bidder string, amount decimal.Decimal, now time.Time) error {
	if a == nil {
		return ErrAuctionNotFound
	}
	if bidder == a.Owner {
		return ErrSelfBid
	}
	if amount.GreaterThan(v.MaxAmount) {
		return ErrAmountTooLarge
	}
	if a.Status != StatusOpen || a.Expired(now) {
		return ErrAuctionEnded
	}
	if amount.LessThanOrEqual(a.CurrentBid) {
		return ErrBidTooLow
	}
	return nil
}
