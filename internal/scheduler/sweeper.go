package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog/log"

	"github.com/JayXPan/team-jesse-beard/internal/auction"
	"github.com/JayXPan/team-jesse-beard/internal/db"
	"github.com/JayXPan/team-jesse-beard/internal/util"
)

// ExpiredPostLister finds open posts whose end time has passed.
type ExpiredPostLister interface {
	ListExpiredOpenPosts(ctx context.Context, now time.Time) ([]int64, error)
}

// Closer drives a single expired post through the close transition.
type Closer interface {
	CloseExpired(ctx context.Context, postID int64, now time.Time) (db.CloseExpiredTxResult, error)
}

// Sweeper periodically scans for posts whose end time has passed but are
// still open and closes each one. It is the authoritative expiry mechanism:
// the per-post end tasks only make closure prompt. Started once at process
// init, stopped at shutdown; nothing else reaches the sweep by name.
type Sweeper struct {
	store     ExpiredPostLister
	closer    Closer
	interval  time.Duration
	scheduler gocron.Scheduler
}

func NewSweeper(store ExpiredPostLister, closer Closer, interval time.Duration) (*Sweeper, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	return &Sweeper{
		store:     store,
		closer:    closer,
		interval:  interval,
		scheduler: scheduler,
	}, nil
}

// Start begins the periodic sweep.
func (s *Sweeper) Start() error {
	_, err := s.scheduler.NewJob(
		gocron.DurationJob(s.interval),
		gocron.NewTask(
			func() {
				s.sweep()
			},
		),
	)
	if err != nil {
		return err
	}

	s.scheduler.Start()
	return nil
}

// Stop shuts the sweep down.
func (s *Sweeper) Stop() error {
	return s.scheduler.Shutdown()
}

// sweep closes every expired open post it can find. One bad row never
// halts the pass: the failure is logged and the post is retried on the
// next sweep. Overlapping sweeps are harmless; the close transition is
// idempotent under the store's row lock.
func (s *Sweeper) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), s.interval)
	defer cancel()

	now := time.Now().UTC()
	postIDs, err := s.store.ListExpiredOpenPosts(ctx, now)
	if err != nil {
		log.Error().Err(err).Msg("expiry sweep failed to list expired posts")
		return
	}

	for _, postID := range postIDs {
		result, err := s.closer.CloseExpired(ctx, postID, now)
		if err != nil {
			log.Error().
				Err(err).
				Int64("post_id", postID).
				Msg("expiry sweep failed to close post, will retry next sweep")
			continue
		}

		if result.Outcome == auction.CloseTransitioned {
			logEvent := log.Info().Int64("post_id", postID)
			if result.Auction.Winner != nil {
				logEvent = logEvent.Str("winner", *result.Auction.Winner).
					Str("winning_amount", util.FormatUSD(*result.Auction.WinningAmount))
			}
			logEvent.Msg("auction closed by expiry sweep")
		}
	}
}
