package db

import (
	"context"
	"time"

	pgxdecimal "github.com/jackc/pgx-shopspring-decimal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JayXPan/team-jesse-beard/internal/auction"
)

// Store provides all functions to execute db queries and transactions.
type Store interface {
	CreatePost(ctx context.Context, arg CreatePostParams) (auction.Auction, error)
	GetPostByID(ctx context.Context, postID int64) (auction.Auction, error)
	ListPostsWithLikes(ctx context.Context, viewer string) ([]PostWithLikes, error)
	ListExpiredOpenPosts(ctx context.Context, now time.Time) ([]int64, error)
	PlaceBidTx(ctx context.Context, arg PlaceBidTxParams) (PlaceBidTxResult, error)
	CloseExpiredTx(ctx context.Context, postID int64, now time.Time) (CloseExpiredTxResult, error)
	TogglePostLikeTx(ctx context.Context, postID int64, userID string) (ToggleLikeResult, error)
	Ping(ctx context.Context) error
}

type SQLStore struct {
	connPool  *pgxpool.Pool
	validator auction.BidValidator
}

// NewStore creates a new Store. The validator carries the configured bid
// ceiling and runs inside the row-locked bid transaction.
func NewStore(connPool *pgxpool.Pool, validator auction.BidValidator) Store {
	return &SQLStore{
		connPool:  connPool,
		validator: validator,
	}
}

// NewPool validates the connection string and opens a pgx pool with
// shopspring decimal codecs registered, so NUMERIC columns scan directly
// into decimal.Decimal.
func NewPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, err
	}
	poolConfig.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		pgxdecimal.Register(conn.TypeMap())
		return nil
	}

	return pgxpool.NewWithConfig(ctx, poolConfig)
}

// Ping checks if the database connection is alive.
func (store *SQLStore) Ping(ctx context.Context) error {
	return store.connPool.Ping(ctx)
}

// execTx runs fn inside a database transaction.
func (store *SQLStore) execTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := store.connPool.Begin(ctx)
	if err != nil {
		return err
	}
	// Rollback is a no-op once the transaction is committed.
	defer tx.Rollback(ctx)

	if err = fn(tx); err != nil {
		return err
	}

	return tx.Commit(ctx)
}
