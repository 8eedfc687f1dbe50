package main

import (
	"context"
	"os"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/JayXPan/team-jesse-beard/api"
	"github.com/JayXPan/team-jesse-beard/internal/auction"
	"github.com/JayXPan/team-jesse-beard/internal/bidding"
	"github.com/JayXPan/team-jesse-beard/internal/db"
	"github.com/JayXPan/team-jesse-beard/internal/event"
	"github.com/JayXPan/team-jesse-beard/internal/scheduler"
	"github.com/JayXPan/team-jesse-beard/internal/util"
	"github.com/JayXPan/team-jesse-beard/internal/worker"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	// Load configurations
	config, err := util.LoadConfig("./app.env")
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config file 😣")
	}

	log.Info().Msg("configurations loaded successfully ✅")

	// Create connection pool
	connPool, err := db.NewPool(context.Background(), config.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to validate db connection string 😣")
	}
	defer connPool.Close()

	validator := auction.NewBidValidator(config.MaxBid())
	store := db.NewStore(connPool, validator)

	if err = store.Ping(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("failed to connect to db 😣")
	}
	log.Info().Msg("connected to db ✅")

	// Broadcast hub fans state changes out to every connected viewer.
	hub := event.NewHub()
	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	go hub.Run(hubCtx)

	redisClient := redis.NewClient(&redis.Options{Addr: config.RedisServerAddress})
	if err = redisClient.Ping(context.Background()).Err(); err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis 😣")
	}
	redisClient.Close()
	log.Info().Msg("connected to redis ✅")

	redisOpt := asynq.RedisClientOpt{
		Addr: config.RedisServerAddress,
	}
	taskDistributor := worker.NewTaskDistributor(redisOpt)

	service := bidding.NewService(store, hub, taskDistributor, config.MaxBid())

	// End tasks close auctions promptly at their end time.
	taskProcessor := worker.NewRedisTaskProcessor(redisOpt, service)
	go func() {
		if err := taskProcessor.Start(); err != nil {
			log.Fatal().Err(err).Msg("failed to start task processor 😣")
		}
	}()
	defer taskProcessor.Shutdown()

	// The expiry sweep is the authoritative close mechanism.
	sweeper, err := scheduler.NewSweeper(store, service, config.ExpirySweepInterval)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create expiry sweeper 😣")
	}
	if err = sweeper.Start(); err != nil {
		log.Fatal().Err(err).Msg("failed to start expiry sweeper 😣")
	}
	defer sweeper.Stop()
	log.Info().Dur("interval", config.ExpirySweepInterval).Msg("expiry sweeper started ✅")

	runHTTPServer(&config, store, service, hub)
}

func runHTTPServer(config *util.Config, store db.Store, service *bidding.Service, hub *event.Hub) {
	server, err := api.NewServer(store, service, hub, config)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create HTTP server 😣")
	}

	err = server.Start(config.HTTPServerAddress)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to start HTTP server 😣")
	}
}
