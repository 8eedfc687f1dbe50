package worker

import (
	"context"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"

	"github.com/JayXPan/team-jesse-beard/internal/db"
)

/*
This file contains the code that picks tasks up from the Redis queue and processes them.
*/

const (
	QueueCritical = "critical"
	QueueDefault  = "default"
)

// AuctionCloser runs the idempotent close transition for one post. The
// bidding service implements it; the processor never touches the store
// directly.
type AuctionCloser interface {
	CloseExpired(ctx context.Context, postID int64, now time.Time) (db.CloseExpiredTxResult, error)
}

type RedisTaskProcessor struct {
	server *asynq.Server
	closer AuctionCloser
}

func NewRedisTaskProcessor(redisOpt asynq.RedisClientOpt, closer AuctionCloser) *RedisTaskProcessor {
	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Queues: map[string]int{
				QueueCritical: 10,
				QueueDefault:  5,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				log.Error().Err(err).Str("type", task.Type()).
					Bytes("payload", task.Payload()).Msg("process task failed")
			}),
			Logger: NewLogger(),
		},
	)

	return &RedisTaskProcessor{
		server: server,
		closer: closer,
	}
}

// Start registers the task handlers for the mux, attaches the mux to the asynq server, and starts the server.
func (processor *RedisTaskProcessor) Start() error {
	mux := asynq.NewServeMux()

	mux.HandleFunc(TaskEndAuction, processor.ProcessTaskEndAuction)

	return processor.server.Start(mux)
}

func (processor *RedisTaskProcessor) Shutdown() {
	processor.server.Shutdown()
}
