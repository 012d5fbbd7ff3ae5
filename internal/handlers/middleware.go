package handlers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"jobportal/backend/internal/apperrors"
	"jobportal/backend/internal/models"
)

const (
	HeaderUserID   = "X-User-ID"
	HeaderUserRole = "X-User-Role"

	actorKey = "actor"
)

// RequireActor reads the identity forwarded by the gateway.
func RequireActor() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := strconv.ParseUint(strings.TrimSpace(c.Get(HeaderUserID)), 10, 64)
		role := models.Role(strings.ToLower(strings.TrimSpace(c.Get(HeaderUserRole))))
		if err != nil || id == 0 || !role.Valid() {
			return apperrors.Unauthorized("missing or invalid user identity")
		}
		c.Locals(actorKey, models.Actor{UserID: uint(id), Role: role})
		return c.Next()
	}
}

func actorFrom(c *fiber.Ctx) models.Actor {
	actor, _ := c.Locals(actorKey).(models.Actor)
	return actor
}
