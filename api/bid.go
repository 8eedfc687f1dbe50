package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/JayXPan/team-jesse-beard/internal/auction"
	"github.com/JayXPan/team-jesse-beard/internal/token"
)

type placeBidRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"required"`
}

// placeBid places a bid on a post over plain HTTP; the realtime channel's
// bid command goes through the same service path. A rejected bid returns
// the specific reason so the client can react (refresh the current high
// bid, log in, etc.). Store failures surface immediately as 500; a bid is
// never retried server-side.
func (server *Server) placeBid(c *gin.Context) {
	authPayload := c.MustGet(authorizationPayloadKey).(*token.Payload)
	bidder := authPayload.Username()

	postID, err := strconv.ParseInt(c.Param("postID"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(fmt.Errorf("invalid post ID format")))
		return
	}

	var req placeBidRequest
	if err = c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(fmt.Errorf("invalid request body: %w", err)))
		return
	}

	if !req.Amount.IsPositive() {
		err = fmt.Errorf("bid amount must be greater than 0, provided: %s", req.Amount)
		c.JSON(http.StatusBadRequest, errorResponse(err))
		return
	}

	result, err := server.service.PlaceBid(c, postID, bidder, req.Amount)
	if err != nil {
		switch {
		case errors.Is(err, auction.ErrAuctionNotFound):
			c.JSON(http.StatusNotFound, errorResponse(err))
		case errors.Is(err, auction.ErrSelfBid),
			errors.Is(err, auction.ErrAmountTooLarge),
			errors.Is(err, auction.ErrAuctionEnded),
			errors.Is(err, auction.ErrBidTooLow):
			c.JSON(http.StatusUnprocessableEntity, errorResponse(err))
		default:
			c.JSON(http.StatusInternalServerError, errorResponse(err))
		}
		return
	}

	c.JSON(http.StatusOK, result)
}
