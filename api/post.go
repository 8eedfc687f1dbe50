package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/JayXPan/team-jesse-beard/internal/bidding"
	"github.com/JayXPan/team-jesse-beard/internal/db"
	"github.com/JayXPan/team-jesse-beard/internal/token"
)

type createPostRequest struct {
	Title           string          `json:"title" binding:"required"`
	Description     string          `json:"description"`
	ImageRef        string          `json:"image"`
	StartingPrice   decimal.Decimal `json:"starting_price" binding:"required"`
	DurationSeconds int64           `json:"duration_seconds" binding:"required,min=1"`
}

// createPost creates a new auction post owned by the authenticated user.
// The image reference is opaque here; upload handling lives outside this
// service.
func (server *Server) createPost(c *gin.Context) {
	authPayload := c.MustGet(authorizationPayloadKey).(*token.Payload)
	owner := authPayload.Username()

	var req createPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(fmt.Errorf("invalid request body: %w", err)))
		return
	}

	post, err := server.service.CreatePost(c, db.CreatePostParams{
		Owner:         owner,
		Title:         req.Title,
		Description:   req.Description,
		ImageRef:      req.ImageRef,
		StartingPrice: req.StartingPrice,
		Duration:      time.Duration(req.DurationSeconds) * time.Second,
	})
	if err != nil {
		if errors.Is(err, bidding.ErrInvalidStartingPrice) || errors.Is(err, bidding.ErrInvalidDuration) {
			c.JSON(http.StatusBadRequest, errorResponse(err))
			return
		}
		c.JSON(http.StatusInternalServerError, errorResponse(err))
		return
	}

	c.JSON(http.StatusCreated, post)
}

// listPosts returns all posts, open and closed, newest first, with like
// counts and the liked-by-caller flag.
func (server *Server) listPosts(c *gin.Context) {
	posts, err := server.dbStore.ListPostsWithLikes(c, viewerIdentity(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse(err))
		return
	}

	c.JSON(http.StatusOK, posts)
}
