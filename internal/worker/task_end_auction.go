package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"

	"github.com/JayXPan/team-jesse-beard/internal/auction"
	"github.com/JayXPan/team-jesse-beard/internal/db"
	"github.com/JayXPan/team-jesse-beard/internal/util"
)

type PayloadEndAuction struct {
	PostID int64 `json:"post_id"`
}

// DistributeTaskEndAuction schedules the close for a post at its end time.
// The periodic sweep remains the authority; a lost task only delays closure
// until the next sweep pass.
func (distributor *RedisTaskDistributor) DistributeTaskEndAuction(
	ctx context.Context,
	payload *PayloadEndAuction,
	opts ...asynq.Option,
) error {
	jsonPayload, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal task payload: %w", err)
	}

	taskID := fmt.Sprintf("auction:end:%d", payload.PostID)
	task := asynq.NewTask(TaskEndAuction, jsonPayload, append(opts, asynq.TaskID(taskID))...)
	info, err := distributor.client.EnqueueContext(ctx, task)
	if err != nil {
		return fmt.Errorf("failed to enqueue task: %w", err)
	}

	log.Info().
		Str("type", task.Type()).
		Str("task_id", taskID).
		Int64("post_id", payload.PostID).
		Str("queue", info.Queue).
		Time("process_at", info.NextProcessAt).
		Msg("auction end task scheduled")

	return nil
}

// ProcessTaskEndAuction runs the same idempotent close transition as the
// expiry sweep; a task firing against an already-closed post is a no-op.
func (processor *RedisTaskProcessor) ProcessTaskEndAuction(
	ctx context.Context,
	task *asynq.Task,
) error {
	var payload PayloadEndAuction
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", asynq.SkipRetry)
	}

	log.Info().
		Int64("post_id", payload.PostID).
		Msg("processing auction end task")

	result, err := processor.closer.CloseExpired(ctx, payload.PostID, time.Now().UTC())
	if err != nil {
		if errors.Is(err, db.ErrRecordNotFound) {
			log.Info().
				Int64("post_id", payload.PostID).
				Msg("post not found, skipping task")
			return nil
		}
		return fmt.Errorf("failed to close auction %d: %w", payload.PostID, err)
	}

	switch result.Outcome {
	case auction.CloseTransitioned:
		logEvent := log.Info().Int64("post_id", payload.PostID)
		if result.Auction.Winner != nil {
			logEvent = logEvent.Str("winner", *result.Auction.Winner).
				Str("winning_amount", util.FormatUSD(*result.Auction.WinningAmount))
		}
		logEvent.Msg("auction closed by end task")
	case auction.CloseAlreadyClosed:
		log.Info().
			Int64("post_id", payload.PostID).
			Msg("auction already closed, skipping task")
	case auction.CloseStillOpen:
		// End time moved or clock skew; the sweep picks it up later.
		log.Warn().
			Int64("post_id", payload.PostID).
			Time("end_time", result.Auction.EndTime).
			Msg("end task fired before auction expiry")
	}

	return nil
}
