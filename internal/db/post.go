package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/JayXPan/team-jesse-beard/internal/auction"
)

// Expected schema (DDL managed outside this repository):
//
//	posts(id bigserial primary key, owner text, title text, description text,
//	      image text, starting_price numeric, current_bid numeric,
//	      current_bidder text null, end_time timestamptz,
//	      duration_seconds bigint, status text, winner text null,
//	      winning_amount numeric null, created_at timestamptz)
//	bids(id uuid primary key, post_id bigint, bidder text, amount numeric,
//	     created_at timestamptz)
//	post_likes(post_id bigint, user_id text, unique(post_id, user_id))

const postColumns = `id, owner, title, description, image, starting_price, current_bid, current_bidder, end_time, duration_seconds, status, winner, winning_amount, created_at`

func scanPost(row pgx.Row) (auction.Auction, error) {
	var a auction.Auction
	var durationSeconds int64
	var status string

	err := row.Scan(
		&a.ID,
		&a.Owner,
		&a.Title,
		&a.Description,
		&a.ImageRef,
		&a.StartingPrice,
		&a.CurrentBid,
		&a.CurrentBidder,
		&a.EndTime,
		&durationSeconds,
		&status,
		&a.Winner,
		&a.WinningAmount,
		&a.CreatedAt,
	)
	if err != nil {
		return a, err
	}

	a.Duration = time.Duration(durationSeconds) * time.Second
	a.Status = auction.Status(status)
	return a, nil
}

type CreatePostParams struct {
	Owner         string
	Title         string
	Description   string
	ImageRef      string
	StartingPrice decimal.Decimal
	Duration      time.Duration
}

// CreatePost inserts a new auction post. The current bid is seeded with the
// starting price, so the first accepted bid must exceed it.
func (store *SQLStore) CreatePost(ctx context.Context, arg CreatePostParams) (auction.Auction, error) {
	now := time.Now().UTC()
	endTime := now.Add(arg.Duration)

	row := store.connPool.QueryRow(ctx, `
		INSERT INTO posts (owner, title, description, image, starting_price, current_bid, end_time, duration_seconds, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $5, $6, $7, $8, $9)
		RETURNING `+postColumns,
		arg.Owner, arg.Title, arg.Description, arg.ImageRef, arg.StartingPrice,
		endTime, int64(arg.Duration.Seconds()), auction.StatusOpen, now,
	)

	post, err := scanPost(row)
	if err != nil {
		return post, fmt.Errorf("failed to insert post: %w", err)
	}
	return post, nil
}

// GetPostByID returns a snapshot of a single post.
func (store *SQLStore) GetPostByID(ctx context.Context, postID int64) (auction.Auction, error) {
	row := store.connPool.QueryRow(ctx, `SELECT `+postColumns+` FROM posts WHERE id = $1`, postID)
	return scanPost(row)
}

// getPostForUpdate locks the post row for the duration of the surrounding
// transaction. Every per-post mutation (bid accept, expiry close) goes
// through this lock, so racing writers serialize on the same row.
func getPostForUpdate(ctx context.Context, tx pgx.Tx, postID int64) (auction.Auction, error) {
	row := tx.QueryRow(ctx, `SELECT `+postColumns+` FROM posts WHERE id = $1 FOR UPDATE`, postID)
	return scanPost(row)
}

type PostWithLikes struct {
	auction.Auction
	Likes         int64 `json:"likes"`
	LikedByViewer bool  `json:"liked_by_user"`
}

// ListPostsWithLikes returns all posts, open and closed, newest first, with
// like counts and whether the viewer has liked each one. An empty viewer
// (guest) never matches a like row.
func (store *SQLStore) ListPostsWithLikes(ctx context.Context, viewer string) ([]PostWithLikes, error) {
	rows, err := store.connPool.Query(ctx, `
		SELECT p.id, p.owner, p.title, p.description, p.image, p.starting_price, p.current_bid, p.current_bidder,
		       p.end_time, p.duration_seconds, p.status, p.winner, p.winning_amount, p.created_at,
		       COUNT(pl.user_id) AS likes,
		       COALESCE(BOOL_OR(pl.user_id = $1), FALSE) AS liked_by_viewer
		FROM posts p
		LEFT JOIN post_likes pl ON pl.post_id = p.id
		GROUP BY p.id
		ORDER BY p.created_at DESC`,
		viewer,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	defer rows.Close()

	posts := make([]PostWithLikes, 0)
	for rows.Next() {
		var p PostWithLikes
		var durationSeconds int64
		var status string

		err = rows.Scan(
			&p.ID,
			&p.Owner,
			&p.Title,
			&p.Description,
			&p.ImageRef,
			&p.StartingPrice,
			&p.CurrentBid,
			&p.CurrentBidder,
			&p.EndTime,
			&durationSeconds,
			&status,
			&p.Winner,
			&p.WinningAmount,
			&p.CreatedAt,
			&p.Likes,
			&p.LikedByViewer,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan post row: %w", err)
		}

		p.Duration = time.Duration(durationSeconds) * time.Second
		p.Status = auction.Status(status)
		posts = append(posts, p)
	}

	return posts, rows.Err()
}

// ListExpiredOpenPosts returns the ids of posts whose end time has passed
// but are still marked open. The scheduler drives each through the close
// transition.
func (store *SQLStore) ListExpiredOpenPosts(ctx context.Context, now time.Time) ([]int64, error) {
	rows, err := store.connPool.Query(ctx,
		`SELECT id FROM posts WHERE status = $1 AND end_time <= $2`,
		auction.StatusOpen, now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list expired posts: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err = rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan post id: %w", err)
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}
