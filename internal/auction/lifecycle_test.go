package auction

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestCloseIfExpired_StillOpen(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	a := openAuction("alice", 10, now.Add(time.Minute))

	require.Equal(t, CloseStillOpen, a.CloseIfExpired(now))
	require.Equal(t, StatusOpen, a.Status)
	require.Nil(t, a.Winner)
}

func TestCloseIfExpired_NoBids(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	a := openAuction("alice", 10, now)

	require.Equal(t, CloseTransitioned, a.CloseIfExpired(now))
	require.Equal(t, StatusClosed, a.Status)
	require.Nil(t, a.Winner)
	require.Nil(t, a.WinningAmount)
}

func TestCloseIfExpired_WithWinner(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	a := openAuction("alice", 10, now)
	bidder := "bob"
	a.CurrentBid = decimal.RequireFromString("15.00")
	a.CurrentBidder = &bidder

	require.Equal(t, CloseTransitioned, a.CloseIfExpired(now))
	require.Equal(t, StatusClosed, a.Status)
	require.NotNil(t, a.Winner)
	require.Equal(t, "bob", *a.Winner)
	require.NotNil(t, a.WinningAmount)
	require.True(t, a.WinningAmount.Equal(decimal.RequireFromString("15.00")))
}

func TestCloseIfExpired_ClosedIsTerminal(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	a := openAuction("alice", 10, now)
	bidder := "bob"
	a.CurrentBid = decimal.NewFromInt(15)
	a.CurrentBidder = &bidder

	require.Equal(t, CloseTransitioned, a.CloseIfExpired(now))

	// A second close attempt, even much later, changes nothing.
	require.Equal(t, CloseAlreadyClosed, a.CloseIfExpired(now.Add(time.Hour)))
	require.Equal(t, "bob", *a.Winner)

	// And any bid against the closed auction is rejected.
	validator := NewBidValidator(decimal.NewFromInt(1000))
	err := validator.Validate(a, "carol", decimal.NewFromInt(100), now.Add(time.Hour))
	require.ErrorIs(t, err, ErrAuctionEnded)
}
