package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/JayXPan/team-jesse-beard/internal/auction"
)

type CloseExpiredTxResult struct {
	Outcome auction.CloseOutcome `json:"outcome"`
	Auction auction.Auction      `json:"auction"`
}

// CloseExpiredTx drives the open -> closed transition for a single post,
// exactly once. It takes the same row lock as PlaceBidTx, so a close racing
// a live bid serializes: a bid that locked the row first with now < end_time
// wins and the close sees its amount; a close that locked first makes the
// bid fail with ErrAuctionEnded. Safe to call from overlapping sweeps.
func (store *SQLStore) CloseExpiredTx(ctx context.Context, postID int64, now time.Time) (CloseExpiredTxResult, error) {
	var result CloseExpiredTxResult

	err := store.execTx(ctx, func(tx pgx.Tx) error {
		post, err := getPostForUpdate(ctx, tx, postID)
		if err != nil {
			if err == pgx.ErrNoRows {
				return ErrRecordNotFound
			}
			return fmt.Errorf("failed to lock post %d: %w", postID, err)
		}

		outcome := post.CloseIfExpired(now)
		result.Outcome = outcome
		result.Auction = post

		if outcome != auction.CloseTransitioned {
			return nil
		}

		_, err = tx.Exec(ctx, `
			UPDATE posts SET status = $1, winner = $2, winning_amount = $3 WHERE id = $4`,
			post.Status, post.Winner, post.WinningAmount, post.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to close post %d: %w", postID, err)
		}
		return nil
	})

	return result, err
}
