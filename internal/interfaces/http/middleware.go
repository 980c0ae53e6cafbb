package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/docuflow/report-routing/internal/application/port"
	"github.com/docuflow/report-routing/internal/infrastructure/identity"
)

const actorContextKey = "actor"

// authMiddleware resolves the acting identity from the Authorization header
// and bootstraps a profile for first-time actors
func (s *Server) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")

		actor, err := s.identity.ResolveActor(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, identity.ErrNoIdentity) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, Response{
					Success: false,
					Error:   "unauthorized",
				})
				return
			}
			s.logger.Error("Failed to resolve actor", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, Response{
				Success: false,
				Error:   "failed to resolve identity",
			})
			return
		}

		c.Set(actorContextKey, actor)
		c.Next()
	}
}

// currentActor pulls the resolved actor from the request context
func currentActor(c *gin.Context) *port.Actor {
	if v, ok := c.Get(actorContextKey); ok {
		if actor, ok := v.(*port.Actor); ok {
			return actor
		}
	}
	return nil
}
