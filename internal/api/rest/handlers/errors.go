package handlers

import (
	"errors"

	"github.com/SundayYogurt/trainer_service/internal/helper"
	"github.com/SundayYogurt/trainer_service/internal/helper/utils"
	"github.com/SundayYogurt/trainer_service/internal/services"
	"github.com/gofiber/fiber/v2"
)

// writeError maps service errors onto HTTP statuses.
func writeError(ctx *fiber.Ctx, err error) error {
	var gate *services.ComplianceGateViolation
	if errors.As(err, &gate) {
		missing := make([]string, len(gate.Missing))
		for i, m := range gate.Missing {
			missing[i] = string(m)
		}
		return utils.ResponseErrorDetails(ctx, fiber.StatusUnprocessableEntity, gate.Error(), fiber.Map{"missing": missing})
	}

	var schema *services.SchemaMigrationError
	var identity *services.IdentityCreationError
	var provisioning *services.ProvisioningError

	switch {
	case errors.Is(err, services.ErrInvalidInput), errors.Is(err, helper.ErrInvalidID):
		return utils.ResponseError(ctx, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrApplicationNotFound),
		errors.Is(err, services.ErrTrainerNotFound),
		errors.Is(err, services.ErrIdentityNotFound):
		return utils.ResponseError(ctx, fiber.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrApplicationNotPending),
		errors.Is(err, services.ErrInvalidTransition),
		errors.Is(err, services.ErrSlugTaken):
		return utils.ResponseError(ctx, fiber.StatusConflict, err.Error())
	case errors.As(err, &schema):
		return utils.ResponseError(ctx, fiber.StatusServiceUnavailable, err.Error())
	case errors.As(err, &identity), errors.As(err, &provisioning):
		return utils.ResponseError(ctx, fiber.StatusInternalServerError, err.Error())
	default:
		return utils.ResponseError(ctx, fiber.StatusInternalServerError, "internal error")
	}
}
