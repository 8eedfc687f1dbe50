package auction

import (
	"time"
)

// CloseOutcome is the result of attempting the open -> closed transition.
type CloseOutcome string

const (
	CloseStillOpen     CloseOutcome = "still_open"
	CloseTransitioned  CloseOutcome = "transitioned"
	CloseAlreadyClosed CloseOutcome = "already_closed"
)

// CloseIfExpired performs the terminal open -> closed transition in place
// when the bidding window has passed. With at least one accepted bid the
// current high bidder becomes the winner at the current high bid; with none
// the auction closes without a winner. Closed is terminal: calling this on
// a closed auction reports CloseAlreadyClosed and changes nothing.
//
// Callers racing each other (two overlapping sweeps, a sweep against a live
// bid) must serialize through the store's row lock so exactly one caller
// ever observes CloseTransitioned.
func (a *Auction) CloseIfExpired(now time.Time) CloseOutcome {
	if a.Status == StatusClosed {
		return CloseAlreadyClosed
	}
	if !a.Expired(now) {
		return CloseStillOpen
	}

	a.Status = StatusClosed
	if a.HasBids() {
		winner := *a.CurrentBidder
		amount := a.CurrentBid
		a.Winner = &winner
		a.WinningAmount = &amount
	}
	return CloseTransitioned
}
