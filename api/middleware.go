package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/JayXPan/team-jesse-beard/internal/token"
)

const (
	authorizationHeaderKey  = "Authorization"
	authorizationTypeBearer = "Bearer"
	authorizationPayloadKey = "authPayload"
)

// authMiddleware authenticates the user.
func authMiddleware(tokenMaker token.Maker) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		authorizationHeader := ctx.GetHeader(authorizationHeaderKey)
		if authorizationHeader == "" {
			err := errors.New("authorization header is not provided")
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse(err))
			return
		}

		fields := strings.Fields(authorizationHeader)
		if len(fields) != 2 {
			err := errors.New("invalid authorization header format")
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse(err))
			return
		}

		authorizationHeaderType := fields[0]
		if authorizationHeaderType != authorizationTypeBearer {
			err := errors.New("unsupported authorization header type")
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse(err))
			return
		}

		accessToken := fields[1]
		payload, err := tokenMaker.VerifyToken(accessToken)
		if err != nil {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse(err))
			return
		}

		ctx.Set(authorizationPayloadKey, payload)
		ctx.Next()
	}
}

// optionalAuthMiddleware resolves the identity when a valid token is
// supplied and treats the caller as a guest otherwise.
func optionalAuthMiddleware(tokenMaker token.Maker) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		authorizationHeader := ctx.GetHeader(authorizationHeaderKey)
		if authorizationHeader != "" {
			fields := strings.Fields(authorizationHeader)
			if len(fields) == 2 && fields[0] == authorizationTypeBearer {
				if payload, err := tokenMaker.VerifyToken(fields[1]); err == nil {
					ctx.Set(authorizationPayloadKey, payload)
				}
			}
		}
		ctx.Next()
	}
}

// viewerIdentity returns the resolved identity, or "" for a guest.
func viewerIdentity(ctx *gin.Context) string {
	value, exists := ctx.Get(authorizationPayloadKey)
	if !exists {
		return ""
	}
	payload, ok := value.(*token.Payload)
	if !ok {
		return ""
	}
	return payload.Username()
}
