package bidding

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/JayXPan/team-jesse-beard/internal/auction"
	"github.com/JayXPan/team-jesse-beard/internal/db"
	"github.com/JayXPan/team-jesse-beard/internal/event"
	"github.com/JayXPan/team-jesse-beard/internal/util"
	"github.com/JayXPan/team-jesse-beard/internal/worker"
)

var (
	ErrInvalidStartingPrice = errors.New("starting price must be positive and not exceed the maximum allowed value")
	ErrInvalidDuration      = errors.New("duration must be positive")
)

// Service owns every per-auction state change: post creation, bid
// acceptance, and the close transition. Both the HTTP handlers and the
// realtime channels go through it, as do the expiry sweep and the end-task
// worker, so there is a single place where a committed change is paired
// with its broadcast.
type Service struct {
	store       db.Store
	publisher   event.Publisher
	distributor worker.TaskDistributor
	maxBid      decimal.Decimal

	postLocks sync.Map // post id -> *sync.Mutex
}

func NewService(store db.Store, publisher event.Publisher, distributor worker.TaskDistributor, maxBid decimal.Decimal) *Service {
	return &Service{
		store:       store,
		publisher:   publisher,
		distributor: distributor,
		maxBid:      maxBid,
	}
}

// postLock returns the mutex serializing commit-then-publish for one post.
// The store's row lock already serializes the commits themselves; holding
// this lock across commit and publish keeps broadcast order equal to commit
// order within an auction. Bids on different auctions never contend.
func (s *Service) postLock(postID int64) *sync.Mutex {
	mu, _ := s.postLocks.LoadOrStore(postID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// CreatePost validates and persists a new auction post, announces it to all
// connected viewers, and schedules the end task for its expiry instant.
func (s *Service) CreatePost(ctx context.Context, arg db.CreatePostParams) (auction.Auction, error) {
	if !arg.StartingPrice.IsPositive() || arg.StartingPrice.GreaterThan(s.maxBid) {
		return auction.Auction{}, ErrInvalidStartingPrice
	}
	if arg.Duration <= 0 {
		return auction.Auction{}, ErrInvalidDuration
	}

	post, err := s.store.CreatePost(ctx, arg)
	if err != nil {
		return auction.Auction{}, err
	}

	log.Info().
		Int64("post_id", post.ID).
		Str("owner", post.Owner).
		Str("title", util.TruncateContent(post.Title, 40)).
		Str("starting_price", util.FormatUSD(post.StartingPrice)).
		Time("end_time", post.EndTime).
		Msg("auction post created")

	s.publisher.Publish(event.Event{
		Type: event.TypeNewPost,
		Data: post,
	})

	err = s.distributor.DistributeTaskEndAuction(ctx,
		&worker.PayloadEndAuction{PostID: post.ID},
		asynq.ProcessAt(post.EndTime),
		asynq.Queue(worker.QueueCritical),
	)
	if err != nil {
		// Not fatal: the periodic sweep closes the post regardless.
		log.Warn().
			Err(err).
			Int64("post_id", post.ID).
			Msg("failed to schedule end task, relying on expiry sweep")
	}

	return post, nil
}

// PlaceBid runs the atomic validate-and-record transaction and, on accept,
// broadcasts the new high bid to every connected channel, the bidder
// included. Rejections are returned to the caller and never broadcast. A
// failed bid is never retried here; the client must resubmit.
func (s *Service) PlaceBid(ctx context.Context, postID int64, bidder string, amount decimal.Decimal) (db.PlaceBidTxResult, error) {
	mu := s.postLock(postID)
	mu.Lock()
	defer mu.Unlock()

	result, err := s.store.PlaceBidTx(ctx, db.PlaceBidTxParams{
		PostID: postID,
		Bidder: bidder,
		Amount: amount,
		Now:    time.Now().UTC(),
	})
	if err != nil {
		return result, err
	}

	s.publisher.Publish(event.Event{
		Type: event.TypeBidUpdate,
		Data: event.BidUpdate{
			AuctionID: result.Auction.ID,
			Amount:    result.Bid.Amount,
			Bidder:    result.Bid.Bidder,
		},
	})

	return result, nil
}

// CloseExpired drives one post through the open -> closed transition and
// broadcasts the outcome exactly once, on whichever path (sweep or end
// task) wins the race.
func (s *Service) CloseExpired(ctx context.Context, postID int64, now time.Time) (db.CloseExpiredTxResult, error) {
	mu := s.postLock(postID)
	mu.Lock()
	defer mu.Unlock()

	result, err := s.store.CloseExpiredTx(ctx, postID, now)
	if err != nil {
		return result, err
	}

	if result.Outcome == auction.CloseTransitioned {
		s.publisher.Publish(event.Event{
			Type: event.TypeAuctionEnded,
			Data: event.AuctionEnded{
				AuctionID:     result.Auction.ID,
				Winner:        result.Auction.Winner,
				WinningAmount: result.Auction.WinningAmount,
			},
		})

		// Closed is terminal: every later bid is rejected without a
		// broadcast and a repeat close is a no-op, so nothing needs this
		// post's serialization entry anymore.
		s.postLocks.Delete(postID)
	}

	return result, nil
}
