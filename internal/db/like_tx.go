package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

type ToggleLikeResult struct {
	Likes       int64 `json:"likes"`
	LikedByUser bool  `json:"liked_by_user"`
}

// TogglePostLikeTx flips the (post, user) like pair and returns the updated
// count. The whole flip runs in one transaction so rapid duplicate clicks
// from the same user cannot double-insert or report a stale count.
func (store *SQLStore) TogglePostLikeTx(ctx context.Context, postID int64, userID string) (ToggleLikeResult, error) {
	var result ToggleLikeResult

	err := store.execTx(ctx, func(tx pgx.Tx) error {
		var exists int64
		if err := tx.QueryRow(ctx, `SELECT id FROM posts WHERE id = $1`, postID).Scan(&exists); err != nil {
			if err == pgx.ErrNoRows {
				return ErrRecordNotFound
			}
			return fmt.Errorf("failed to check post %d: %w", postID, err)
		}

		tag, err := tx.Exec(ctx,
			`DELETE FROM post_likes WHERE post_id = $1 AND user_id = $2`,
			postID, userID,
		)
		if err != nil {
			return fmt.Errorf("failed to remove like: %w", err)
		}

		if tag.RowsAffected() == 0 {
			// Not liked yet; the unique pair constraint absorbs a racing
			// duplicate insert.
			_, err = tx.Exec(ctx, `
				INSERT INTO post_likes (post_id, user_id)
				VALUES ($1, $2)
				ON CONFLICT (post_id, user_id) DO NOTHING`,
				postID, userID,
			)
			if err != nil {
				return fmt.Errorf("failed to insert like: %w", err)
			}
			result.LikedByUser = true
		}

		err = tx.QueryRow(ctx,
			`SELECT COUNT(*) FROM post_likes WHERE post_id = $1`, postID,
		).Scan(&result.Likes)
		if err != nil {
			return fmt.Errorf("failed to count likes: %w", err)
		}
		return nil
	})

	return result, err
}
