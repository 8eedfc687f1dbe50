package api

import (
	"fmt"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/JayXPan/team-jesse-beard/internal/bidding"
	"github.com/JayXPan/team-jesse-beard/internal/db"
	"github.com/JayXPan/team-jesse-beard/internal/event"
	"github.com/JayXPan/team-jesse-beard/internal/token"
	"github.com/JayXPan/team-jesse-beard/internal/util"
)

type Server struct {
	router     *gin.Engine
	dbStore    db.Store
	service    *bidding.Service
	hub        *event.Hub
	tokenMaker token.Maker
	config     *util.Config
}

// NewServer creates a new HTTP server and sets up routing.
func NewServer(store db.Store, service *bidding.Service, hub *event.Hub, config *util.Config) (*Server, error) {
	// Create a new JWT token maker
	tokenMaker, err := token.NewJWTMaker(config.TokenSecretKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create token maker: %w", err)
	}
	log.Info().Msg("Token maker created successfully ✅")

	server := &Server{
		dbStore:    store,
		service:    service,
		hub:        hub,
		tokenMaker: tokenMaker,
		config:     config,
	}

	server.setupRouter()
	return server, nil
}

// setupRouter configures the HTTP server routes.
func (server *Server) setupRouter() *gin.Engine {
	gin.ForceConsoleColor()
	router := gin.Default()
	router.Use(cors.New(cors.Config{
		AllowOrigins:     server.config.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	v1 := router.Group("/v1")

	// Public post listing; likes are annotated for the caller when a valid
	// token is supplied.
	postPublicGroup := v1.Group("/posts")
	{
		postPublicGroup.GET("", optionalAuthMiddleware(server.tokenMaker), server.listPosts)
	}

	// Posting, bidding, and liking all require a resolved identity.
	postAuthGroup := v1.Group("/posts", authMiddleware(server.tokenMaker))
	{
		postAuthGroup.POST("", server.createPost)
		postAuthGroup.POST(":postID/bids", server.placeBid)
		postAuthGroup.POST(":postID/like", server.togglePostLike)
	}

	// Realtime channel. Identity is resolved from the token when present;
	// guests may watch but not bid.
	router.GET("/ws", server.serveRealtimeChannel)

	server.router = router
	return router
}

// Start runs the HTTP server on a specific address.
func (server *Server) Start(address string) error {
	return server.router.Run(address)
}
