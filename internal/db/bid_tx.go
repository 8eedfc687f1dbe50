package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/JayXPan/team-jesse-beard/internal/auction"
)

type PlaceBidTxParams struct {
	PostID int64
	Bidder string
	Amount decimal.Decimal
	Now    time.Time
}

type PlaceBidTxResult struct {
	Bid     auction.Bid     `json:"bid"`
	Auction auction.Auction `json:"updated_auction"`
}

// PlaceBidTx validates and records a bid as a single atomic unit. The post
// row is locked for the whole read-validate-write, so two concurrent bids
// can never both win the compare against the same stale high bid, and a
// racing close transition observes either the pre-bid or post-bid state,
// never a half-applied one.
func (store *SQLStore) PlaceBidTx(ctx context.Context, arg PlaceBidTxParams) (PlaceBidTxResult, error) {
	var result PlaceBidTxResult

	err := store.execTx(ctx, func(tx pgx.Tx) error {
		// 1. Re-read the post under the row lock to avoid race conditions.
		post, err := getPostForUpdate(ctx, tx, arg.PostID)
		if err != nil {
			if err == pgx.ErrNoRows {
				return auction.ErrAuctionNotFound
			}
			return fmt.Errorf("failed to lock post %d: %w", arg.PostID, err)
		}

		// 2. Run the full rejection-order check against the locked snapshot.
		if err = store.validator.Validate(&post, arg.Bidder, arg.Amount, arg.Now); err != nil {
			return err
		}

		// 3. Append the bid to the immutable bid log.
		bid := auction.Bid{
			ID:        uuid.New(),
			AuctionID: post.ID,
			Bidder:    arg.Bidder,
			Amount:    arg.Amount,
			CreatedAt: arg.Now,
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO bids (id, post_id, bidder, amount, created_at)
			VALUES ($1, $2, $3, $4, $5)`,
			bid.ID, bid.AuctionID, bid.Bidder, bid.Amount, bid.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert bid: %w", err)
		}
		result.Bid = bid

		// 4. Advance the high bid on the post row.
		_, err = tx.Exec(ctx, `
			UPDATE posts SET current_bid = $1, current_bidder = $2 WHERE id = $3`,
			arg.Amount, arg.Bidder, post.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to update post high bid: %w", err)
		}

		post.CurrentBid = arg.Amount
		post.CurrentBidder = &bid.Bidder
		result.Auction = post
		return nil
	})

	return result, err
}
