package helper

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
)

var ErrInvalidID = errors.New("invalid id")

// ParamID reads a positive numeric route parameter.
func ParamID(ctx *fiber.Ctx, name string) (uint, error) {
	raw := strings.TrimSpace(ctx.Params(name))
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, ErrInvalidID
	}
	return uint(id), nil
}

// CurrentUserID returns the authenticated identity id set by the auth middleware.
func CurrentUserID(ctx *fiber.Ctx) uint {
	id, _ := ctx.Locals("userID").(uint)
	return id
}
