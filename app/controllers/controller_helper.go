package controllers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/FreelanceFlow/internal/pkg/apperror"
	"github.com/ManuelReschke/FreelanceFlow/internal/pkg/usercontext"
)

// respondError writes err as the JSON error body. Internal errors are
// logged with their cause and reported without detail.
func respondError(c *fiber.Ctx, err error) error {
	var appErr *apperror.Error
	if !errors.As(err, &appErr) {
		appErr = apperror.Internal("Internal server error", err)
	}

	if appErr.Kind == apperror.KindInternal {
		log.Errorf("[API] %s %s failed: %v", c.Method(), c.Path(), err)
	}

	body := fiber.Map{
		"error":   appErr.Kind,
		"message": appErr.Message,
	}
	if len(appErr.Fields) > 0 {
		body["errors"] = appErr.Fields
	}
	return c.Status(apperror.HTTPStatus(appErr.Kind)).JSON(body)
}

// parseBody decodes the JSON request body into dst.
func parseBody(c *fiber.Ctx, dst interface{}) error {
	if err := c.BodyParser(dst); err != nil {
		return apperror.Validation(apperror.FieldError{Field: "body", Message: "Request body is not valid JSON"})
	}
	return nil
}

func callerOf(c *fiber.Ctx) usercontext.Caller {
	return usercontext.GetCaller(c)
}

// queryBool accepts "1", "true" and "yes".
func queryBool(c *fiber.Ctx, key string) bool {
	switch strings.ToLower(c.Query(key)) {
	case "1", "true", "yes":
		return true
	}
	return false
}
