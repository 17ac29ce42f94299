package utils

import "github.com/gofiber/fiber/v2"

func ResponseError(ctx *fiber.Ctx, status int, msg string) error {
	return ctx.Status(status).JSON(fiber.Map{
		"error": msg,
	})
}

// ResponseErrorDetails adds a machine-readable details field, e.g. the missing
// compliance requirements on a refused activation.
func ResponseErrorDetails(ctx *fiber.Ctx, status int, msg string, details any) error {
	return ctx.Status(status).JSON(fiber.Map{
		"error":   msg,
		"details": details,
	})
}

func ResponseSuccess(ctx *fiber.Ctx, status int, data any) error {
	return ctx.Status(status).JSON(fiber.Map{"data": data})
}
