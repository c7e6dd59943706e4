package workorderserver

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Apurer/go-gin-workorders/internal/domains/workorders/domain"
	apierrors "github.com/Apurer/go-gin-workorders/internal/shared/errors"
)

// Identity headers set by the upstream auth collaborator.
const (
	HeaderActorID   = "X-Actor-ID"
	HeaderActorRole = "X-Actor-Role"
)

const actorContextKey = "workorders.actor"

var errMissingActor = errors.New("X-Actor-ID and X-Actor-Role headers are required")

// RequireActor resolves the calling actor from the identity headers and aborts
// with 401 when they are absent or the role is unknown.
func RequireActor() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(HeaderActorID))
		rawRole := c.GetHeader(HeaderActorRole)
		if id == "" || strings.TrimSpace(rawRole) == "" {
			respondProblem(c, apierrors.ErrUnauthorized.WithDetail(errMissingActor.Error()))
			c.Abort()
			return
		}
		role, err := domain.ParseRole(rawRole)
		if err != nil {
			respondProblem(c, apierrors.ErrUnauthorized.WithDetail(err.Error()))
			c.Abort()
			return
		}
		c.Set(actorContextKey, domain.Actor{ID: id, Role: role})
		c.Next()
	}
}

func actorFrom(c *gin.Context) domain.Actor {
	if v, ok := c.Get(actorContextKey); ok {
		if actor, ok := v.(domain.Actor); ok {
			return actor
		}
	}
	return domain.Actor{}
}
