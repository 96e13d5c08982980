package handler

import (
	"context"
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/hridoy-islam/watenycollage-sub000/internal/middleware"
	"github.com/hridoy-islam/watenycollage-sub000/internal/models"
	"github.com/hridoy-islam/watenycollage-sub000/internal/workflow"
)

var errUnauthenticated = errors.New("missing authenticated user")

// actorFromContext derives the acting user from the JWT locals set by the
// auth middleware.
func actorFromContext(c *fiber.Ctx) (workflow.Actor, error) {
	id, ok := c.Locals("user_id").(uint)
	if !ok || id == 0 {
		return workflow.Actor{}, errUnauthenticated
	}

	role, _ := c.Locals("user_role").(string)
	if role == "" {
		role = models.RoleStudent
	}

	return workflow.Actor{ID: id, Role: role}, nil
}

// requestContext carries the correlation identifier into the service layer.
func requestContext(c *fiber.Ctx) context.Context {
	return middleware.ContextWithCorrelation(c.Context(), middleware.GetCorrelationID(c))
}

func parseUintParam(c *fiber.Ctx, key string) (uint, error) {
	value := c.Params(key)
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil || parsed == 0 {
		return 0, errors.New("invalid " + key)
	}
	return uint(parsed), nil
}

func parseQueryUint(c *fiber.Ctx, key string) (*uint, error) {
	value := c.Query(key)
	if value == "" {
		return nil, nil
	}
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return nil, errors.New("invalid " + key)
	}
	result := uint(parsed)
	return &result, nil
}
