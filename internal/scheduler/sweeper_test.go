package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/JayXPan/team-jesse-beard/internal/auction"
	"github.com/JayXPan/team-jesse-beard/internal/db"
)

type fakeLister struct {
	ids []int64
	err error
}

func (l *fakeLister) ListExpiredOpenPosts(ctx context.Context, now time.Time) ([]int64, error) {
	return l.ids, l.err
}

type fakeCloser struct {
	mu      sync.Mutex
	closed  []int64
	failOn  map[int64]error
	outcome auction.CloseOutcome
}

func (c *fakeCloser) CloseExpired(ctx context.Context, postID int64, now time.Time) (db.CloseExpiredTxResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err, ok := c.failOn[postID]; ok {
		return db.CloseExpiredTxResult{}, err
	}
	c.closed = append(c.closed, postID)
	return db.CloseExpiredTxResult{Outcome: c.outcome}, nil
}

func TestSweepClosesEveryExpiredPost(t *testing.T) {
	lister := &fakeLister{ids: []int64{1, 2, 3}}
	closer := &fakeCloser{outcome: auction.CloseTransitioned}

	sweeper, err := NewSweeper(lister, closer, time.Second)
	require.NoError(t, err)

	sweeper.sweep()
	require.Equal(t, []int64{1, 2, 3}, closer.closed)
}

func TestSweepContinuesPastFailingPost(t *testing.T) {
	lister := &fakeLister{ids: []int64{1, 2, 3}}
	closer := &fakeCloser{
		outcome: auction.CloseTransitioned,
		failOn:  map[int64]error{2: errors.New("deadlock detected")},
	}

	sweeper, err := NewSweeper(lister, closer, time.Second)
	require.NoError(t, err)

	// Post 2 fails; 1 and 3 must still be closed in this pass.
	sweeper.sweep()
	require.Equal(t, []int64{1, 3}, closer.closed)
}

func TestSweepListFailureIsNonFatal(t *testing.T) {
	lister := &fakeLister{err: errors.New("connection refused")}
	closer := &fakeCloser{}

	sweeper, err := NewSweeper(lister, closer, time.Second)
	require.NoError(t, err)

	sweeper.sweep()
	require.Empty(t, closer.closed)
}

func TestSweeperStartStop(t *testing.T) {
	lister := &fakeLister{ids: []int64{7}}
	closer := &fakeCloser{outcome: auction.CloseAlreadyClosed}

	sweeper, err := NewSweeper(lister, closer, 10*time.Millisecond)
	require.NoError(t, err)

	require.NoError(t, sweeper.Start())

	require.Eventually(t, func() bool {
		closer.mu.Lock()
		defer closer.mu.Unlock()
		return len(closer.closed) >= 1
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, sweeper.Stop())
}
