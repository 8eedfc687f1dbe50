package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/JayXPan/team-jesse-beard/internal/db"
	"github.com/JayXPan/team-jesse-beard/internal/token"
)

// togglePostLike flips the caller's like on a post and returns the updated
// count and liked state.
func (server *Server) togglePostLike(c *gin.Context) {
	authPayload := c.MustGet(authorizationPayloadKey).(*token.Payload)
	userID := authPayload.Username()

	postID, err := strconv.ParseInt(c.Param("postID"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(fmt.Errorf("invalid post ID format")))
		return
	}

	result, err := server.dbStore.TogglePostLikeTx(c, postID, userID)
	if err != nil {
		if errors.Is(err, db.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, errorResponse(fmt.Errorf("post ID %d not found", postID)))
			return
		}
		c.JSON(http.StatusInternalServerError, errorResponse(err))
		return
	}

	c.JSON(http.StatusOK, result)
}
