package event

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/JayXPan/team-jesse-beard/internal/auction"
	"github.com/JayXPan/team-jesse-beard/internal/db"
)

type placedBid struct {
	postID int64
	bidder string
	amount decimal.Decimal
}

type fakeBidPlacer struct {
	mu     sync.Mutex
	calls  []placedBid
	reject error
}

func (p *fakeBidPlacer) PlaceBid(ctx context.Context, postID int64, bidder string, amount decimal.Decimal) (db.PlaceBidTxResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, placedBid{postID: postID, bidder: bidder, amount: amount})
	return db.PlaceBidTxResult{}, p.reject
}

// newCommandChannel builds a channel with no live connection; handleCommand
// never touches the conn, so inbound dispatch is testable in isolation.
func newCommandChannel(identity string, placer BidPlacer) *Channel {
	return NewChannel(NewHub(), nil, identity, placer)
}

func requireQueuedError(t *testing.T, c *Channel, message string) {
	t.Helper()
	select {
	case ev := <-c.send:
		require.Equal(t, TypeError, ev.Type)
		require.Equal(t, message, ev.Error)
	default:
		t.Fatal("expected an error event on the channel queue")
	}
}

func TestChannelGuestBidRequiresLogin(t *testing.T) {
	placer := &fakeBidPlacer{}
	c := newCommandChannel("", placer)

	c.handleCommand([]byte(`{"type":"bid","auction_id":1,"amount":"15.00"}`))

	requireQueuedError(t, c, "Login required to bid.")
	require.Empty(t, placer.calls)
}

func TestChannelMalformedCommand(t *testing.T) {
	c := newCommandChannel("bob", &fakeBidPlacer{})

	c.handleCommand([]byte(`{not json`))
	requireQueuedError(t, c, "malformed message")
}

func TestChannelUnknownCommandType(t *testing.T) {
	c := newCommandChannel("bob", &fakeBidPlacer{})

	c.handleCommand([]byte(`{"type":"subscribe"}`))
	requireQueuedError(t, c, "unknown message type")
}

func TestChannelBidArgumentValidation(t *testing.T) {
	testCases := []struct {
		name    string
		payload string
	}{
		{name: "MissingAuctionID", payload: `{"type":"bid","amount":"15.00"}`},
		{name: "ZeroAmount", payload: `{"type":"bid","auction_id":1,"amount":"0"}`},
		{name: "NegativeAmount", payload: `{"type":"bid","auction_id":1,"amount":"-5.00"}`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			placer := &fakeBidPlacer{}
			c := newCommandChannel("bob", placer)

			c.handleCommand([]byte(tc.payload))

			requireQueuedError(t, c, "bid requires auction_id and a positive amount")
			require.Empty(t, placer.calls)
		})
	}
}

func TestChannelAcceptedBidIsNotEchoed(t *testing.T) {
	placer := &fakeBidPlacer{}
	c := newCommandChannel("bob", placer)

	c.handleCommand([]byte(`{"type":"bid","auction_id":7,"amount":"15.00"}`))

	// The broadcast comes from the bidding service through the hub; the
	// command handler itself stays silent on success.
	select {
	case ev := <-c.send:
		t.Fatalf("unexpected event queued: %+v", ev)
	default:
	}

	require.Len(t, placer.calls, 1)
	require.Equal(t, int64(7), placer.calls[0].postID)
	require.Equal(t, "bob", placer.calls[0].bidder)
	require.True(t, placer.calls[0].amount.Equal(decimal.RequireFromString("15.00")))
}

func TestChannelRejectedBidReturnsReason(t *testing.T) {
	placer := &fakeBidPlacer{reject: auction.ErrBidTooLow}
	c := newCommandChannel("bob", placer)

	c.handleCommand([]byte(`{"type":"bid","auction_id":7,"amount":"15.00"}`))
	requireQueuedError(t, c, auction.ErrBidTooLow.Error())
}

func TestChannelNewPostRequest(t *testing.T) {
	c := newCommandChannel("", &fakeBidPlacer{})

	c.handleCommand([]byte(`{"type":"newPostRequest"}`))

	select {
	case ev := <-c.send:
		require.Equal(t, TypePostsUpdated, ev.Type)
	default:
		t.Fatal("expected a postsUpdated event on the channel queue")
	}
}
