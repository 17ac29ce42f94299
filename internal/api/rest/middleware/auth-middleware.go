package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/SundayYogurt/trainer_service/internal/domain"
	"github.com/SundayYogurt/trainer_service/internal/helper"
	"github.com/SundayYogurt/trainer_service/internal/services"
	"github.com/gofiber/fiber/v2"
)

const ActionTokenHeader = "X-Action-Token"

// SubjectAll binds an action token to a bulk call with no single target.
const SubjectAll = "all"

type CapabilityChecker interface {
	HasCapability(ctx context.Context, identityID uint, code string) (bool, error)
}

func AuthMiddleware(auth helper.Auth) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		// cookie first, then Authorization header
		tokenStr := strings.TrimSpace(ctx.Cookies("access_token"))
		if tokenStr == "" {
			tokenStr = strings.TrimSpace(ctx.Get("Authorization"))
		}

		user, err := auth.VerifyToken(tokenStr)
		if err != nil {
			return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": err.Error(),
			})
		}

		ctx.Locals("userID", user.UserID)
		ctx.Locals("user", user)
		return ctx.Next()
	}
}

func AdminOnly(caps CapabilityChecker) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		userID := helper.CurrentUserID(ctx)
		if userID == 0 {
			return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "unauthorized",
			})
		}

		isAdmin, err := caps.HasCapability(ctx.UserContext(), userID, domain.CapabilityAdmin)
		if err != nil {
			return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		if !isAdmin {
			return ctx.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "admin only",
			})
		}

		ctx.SetUserContext(services.WithActor(ctx.UserContext(), userID))
		return ctx.Next()
	}
}

// RequireActionToken verifies and redeems the single-use token for action.
// The subject is the value of route param, or SubjectAll when param is empty.
func RequireActionToken(auth helper.Auth, action, param string) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		subject := SubjectAll
		if param != "" {
			subject = ctx.Params(param)
		}

		err := auth.VerifyActionToken(ctx.UserContext(), ctx.Get(ActionTokenHeader), helper.CurrentUserID(ctx), action, subject)
		switch {
		case err == nil:
			return ctx.Next()
		case errors.Is(err, helper.ErrActionTokenInvalid),
			errors.Is(err, helper.ErrActionTokenMismatch),
			errors.Is(err, helper.ErrActionTokenUsed):
			return ctx.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": err.Error(),
			})
		default:
			return ctx.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error": "action token store unavailable",
			})
		}
	}
}
