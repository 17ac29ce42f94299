package handlers

import (
	"fmt"

	"github.com/SundayYogurt/trainer_service/internal/api/rest/middleware"
	"github.com/SundayYogurt/trainer_service/internal/domain"
	"github.com/SundayYogurt/trainer_service/internal/dto"
	"github.com/SundayYogurt/trainer_service/internal/helper"
	"github.com/SundayYogurt/trainer_service/internal/helper/utils"
	"github.com/SundayYogurt/trainer_service/internal/repository"
	"github.com/SundayYogurt/trainer_service/internal/services"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

type AdminHandler struct {
	svc      services.TrainerService
	auth     helper.Auth
	validate *validator.Validate
}

func NewAdminHandler(svc services.TrainerService, auth helper.Auth) *AdminHandler {
	return &AdminHandler{svc: svc, auth: auth, validate: validator.New()}
}

func (h *AdminHandler) SetupRoutes(admin fiber.Router) {
	act := func(action, param string) fiber.Handler {
		return middleware.RequireActionToken(h.auth, action, param)
	}

	admin.Post("/action-tokens", h.IssueActionToken)

	// Applications
	admin.Get("/applications", h.ListApplications)
	admin.Get("/applications/:id", h.GetApplication)
	admin.Post("/applications/:id/approve", act("approve", "id"), h.Approve)
	admin.Post("/applications/:id/reject", act("reject", "id"), h.Reject)

	// Ranking (static paths before :id routes)
	admin.Post("/trainers/featured", act("bulk_set_featured", ""), h.BulkSetFeatured)
	admin.Put("/trainers/order", act("save_order", ""), h.SaveOrder)
	admin.Post("/trainers/order/auto", act("auto_assign", ""), h.AutoAssign)

	// Trainers
	admin.Get("/trainers", h.ListTrainers)
	admin.Get("/trainers/:id", h.GetTrainer)
	admin.Get("/trainers/:id/compliance", h.Compliance)
	admin.Patch("/trainers/:id", act("update_profile", "id"), h.UpdateProfile)
	admin.Post("/trainers/:id/activate", act("activate", "id"), h.Activate)
	admin.Post("/trainers/:id/deactivate", act("deactivate", "id"), h.Deactivate)
	admin.Post("/trainers/:id/suspend", act("suspend", "id"), h.Suspend)
	admin.Delete("/trainers/:id", act("delete", "id"), h.Delete)
	admin.Put("/trainers/:id/featured", act("set_featured", "id"), h.SetFeatured)

	// Drift
	admin.Get("/drift", h.ScanDrift)
	admin.Post("/drift/repair", act("repair_all", ""), h.RepairAll)
	admin.Post("/drift/:identityID/repair", act("repair", "identityID"), h.Repair)
}

// bind parses and validates the JSON body into out.
func (h *AdminHandler) bind(ctx *fiber.Ctx, out any) error {
	if err := ctx.BodyParser(out); err != nil {
		return fmt.Errorf("%w: please provide valid inputs", services.ErrInvalidInput)
	}
	if err := h.validate.Struct(out); err != nil {
		return fmt.Errorf("%w: %v", services.ErrInvalidInput, err)
	}
	return nil
}

func (h *AdminHandler) IssueActionToken(ctx *fiber.Ctx) error {
	var req dto.ActionTokenRequest
	if err := h.bind(ctx, &req); err != nil {
		return writeError(ctx, err)
	}

	token, exp, err := h.auth.GenerateActionToken(helper.CurrentUserID(ctx), req.Action, req.Subject)
	if err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, err.Error())
	}
	return utils.ResponseSuccess(ctx, fiber.StatusCreated, dto.ActionTokenResponse{Token: token, ExpiresAt: exp})
}

// APPLICATIONS

func (h *AdminHandler) ListApplications(ctx *fiber.Ctx) error {
	var q dto.ListQuery
	if err := ctx.QueryParser(&q); err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "invalid query")
	}
	apps, err := h.svc.ListApplications(ctx.UserContext(), domain.ApplicationStatus(q.Status), q.Limit, q.Offset)
	if err != nil {
		return writeError(ctx, err)
	}
	return utils.ResponseSuccess(ctx, fiber.StatusOK, apps)
}

func (h *AdminHandler) GetApplication(ctx *fiber.Ctx) error {
	id, err := helper.ParamID(ctx, "id")
	if err != nil {
		return writeError(ctx, err)
	}
	app, err := h.svc.GetApplication(ctx.UserContext(), id)
	if err != nil {
		return writeError(ctx, err)
	}
	return utils.ResponseSuccess(ctx, fiber.StatusOK, app)
}

func (h *AdminHandler) Approve(ctx *fiber.Ctx) error {
	id, err := helper.ParamID(ctx, "id")
	if err != nil {
		return writeError(ctx, err)
	}
	resp, err := h.svc.Approve(ctx.UserContext(), id)
	if err != nil {
		return writeError(ctx, err)
	}
	return utils.ResponseSuccess(ctx, fiber.StatusOK, resp)
}

func (h *AdminHandler) Reject(ctx *fiber.Ctx) error {
	id, err := helper.ParamID(ctx, "id")
	if err != nil {
		return writeError(ctx, err)
	}
	var req dto.RejectApplicationRequest
	if err := h.bind(ctx, &req); err != nil {
		return writeError(ctx, err)
	}
	if err := h.svc.Reject(ctx.UserContext(), id, req.Reason); err != nil {
		return writeError(ctx, err)
	}
	return utils.ResponseSuccess(ctx, fiber.StatusOK, "application rejected")
}

// TRAINERS

func (h *AdminHandler) ListTrainers(ctx *fiber.Ctx) error {
	var q dto.ListQuery
	if err := ctx.QueryParser(&q); err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "invalid query")
	}
	profiles, err := h.svc.ListTrainers(ctx.UserContext(), repository.TrainerFilter{
		Status: domain.TrainerStatus(q.Status),
		Limit:  q.Limit,
		Offset: q.Offset,
	})
	if err != nil {
		return writeError(ctx, err)
	}
	return utils.ResponseSuccess(ctx, fiber.StatusOK, profiles)
}

func (h *AdminHandler) GetTrainer(ctx *fiber.Ctx) error {
	id, err := helper.ParamID(ctx, "id")
	if err != nil {
		return writeError(ctx, err)
	}
	profile, err := h.svc.GetTrainer(ctx.UserContext(), id)
	if err != nil {
		return writeError(ctx, err)
	}
	return utils.ResponseSuccess(ctx, fiber.StatusOK, profile)
}

func (h *AdminHandler) Compliance(ctx *fiber.Ctx) error {
	id, err := helper.ParamID(ctx, "id")
	if err != nil {
		return writeError(ctx, err)
	}
	eval, err := h.svc.Compliance(ctx.UserContext(), id)
	if err != nil {
		return writeError(ctx, err)
	}
	missing := make([]string, len(eval.Missing))
	for i, m := range eval.Missing {
		missing[i] = string(m)
	}
	return utils.ResponseSuccess(ctx, fiber.StatusOK, dto.ComplianceResponse{
		TrainerID: id,
		Eligible:  eval.Eligible,
		Missing:   missing,
	})
}

func (h *AdminHandler) UpdateProfile(ctx *fiber.Ctx) error {
	id, err := helper.ParamID(ctx, "id")
	if err != nil {
		return writeError(ctx, err)
	}
	var req dto.UpdateTrainerProfile
	if err := h.bind(ctx, &req); err != nil {
		return writeError(ctx, err)
	}
	profile, err := h.svc.UpdateProfile(ctx.UserContext(), id, req)
	if err != nil {
		return writeError(ctx, err)
	}
	return utils.ResponseSuccess(ctx, fiber.StatusOK, profile)
}

func (h *AdminHandler) Activate(ctx *fiber.Ctx) error {
	id, err := helper.ParamID(ctx, "id")
	if err != nil {
		return writeError(ctx, err)
	}
	var req dto.ActivateRequest
	if len(ctx.Body()) > 0 {
		if err := h.bind(ctx, &req); err != nil {
			return writeError(ctx, err)
		}
	}
	profile, err := h.svc.Activate(ctx.UserContext(), id, req.Override)
	if err != nil {
		return writeError(ctx, err)
	}
	return utils.ResponseSuccess(ctx, fiber.StatusOK, profile)
}

func (h *AdminHandler) Deactivate(ctx *fiber.Ctx) error {
	id, err := helper.ParamID(ctx, "id")
	if err != nil {
		return writeError(ctx, err)
	}
	profile, err := h.svc.Deactivate(ctx.UserContext(), id)
	if err != nil {
		return writeError(ctx, err)
	}
	return utils.ResponseSuccess(ctx, fiber.StatusOK, profile)
}

func (h *AdminHandler) Suspend(ctx *fiber.Ctx) error {
	id, err := helper.ParamID(ctx, "id")
	if err != nil {
		return writeError(ctx, err)
	}
	profile, err := h.svc.Suspend(ctx.UserContext(), id)
	if err != nil {
		return writeError(ctx, err)
	}
	return utils.ResponseSuccess(ctx, fiber.StatusOK, profile)
}

func (h *AdminHandler) Delete(ctx *fiber.Ctx) error {
	id, err := helper.ParamID(ctx, "id")
	if err != nil {
		return writeError(ctx, err)
	}
	if err := h.svc.Delete(ctx.UserContext(), id); err != nil {
		return writeError(ctx, err)
	}
	return utils.ResponseSuccess(ctx, fiber.StatusOK, "trainer deleted")
}

// RANKING

func (h *AdminHandler) SetFeatured(ctx *fiber.Ctx) error {
	id, err := helper.ParamID(ctx, "id")
	if err != nil {
		return writeError(ctx, err)
	}
	var req dto.SetFeaturedRequest
	if err := h.bind(ctx, &req); err != nil {
		return writeError(ctx, err)
	}
	changed, err := h.svc.SetFeatured(ctx.UserContext(), id, req.Featured)
	if err != nil {
		return writeError(ctx, err)
	}
	return utils.ResponseSuccess(ctx, fiber.StatusOK, dto.RowsChangedResponse{Changed: changed})
}

func (h *AdminHandler) BulkSetFeatured(ctx *fiber.Ctx) error {
	var req dto.BulkSetFeaturedRequest
	if err := h.bind(ctx, &req); err != nil {
		return writeError(ctx, err)
	}
	changed, err := h.svc.BulkSetFeatured(ctx.UserContext(), req.TrainerIDs, req.Featured)
	if err != nil {
		return writeError(ctx, err)
	}
	return utils.ResponseSuccess(ctx, fiber.StatusOK, dto.RowsChangedResponse{Changed: changed})
}

func (h *AdminHandler) SaveOrder(ctx *fiber.Ctx) error {
	var req dto.SaveOrderRequest
	if err := h.bind(ctx, &req); err != nil {
		return writeError(ctx, err)
	}
	if err := h.svc.SaveOrder(ctx.UserContext(), req.TrainerIDs); err != nil {
		return writeError(ctx, err)
	}
	return utils.ResponseSuccess(ctx, fiber.StatusOK, "order saved")
}

func (h *AdminHandler) AutoAssign(ctx *fiber.Ctx) error {
	changed, err := h.svc.AutoAssignSortOrders(ctx.UserContext())
	if err != nil {
		return writeError(ctx, err)
	}
	return utils.ResponseSuccess(ctx, fiber.StatusOK, dto.RowsChangedResponse{Changed: int64(changed)})
}

// DRIFT

func (h *AdminHandler) ScanDrift(ctx *fiber.Ctx) error {
	entries, err := h.svc.ScanDrift(ctx.UserContext())
	if err != nil {
		return writeError(ctx, err)
	}
	out := make([]dto.DriftEntryResponse, 0, len(entries))
	for _, e := range entries {
		row := dto.DriftEntryResponse{
			IdentityID:  e.Identity.ID,
			Email:       e.Identity.Email,
			DisplayName: e.Identity.DisplayName,
		}
		if e.SuspectedApplication != nil {
			appID := e.SuspectedApplication.ID
			row.SuspectedApplicationID = &appID
		}
		out = append(out, row)
	}
	return utils.ResponseSuccess(ctx, fiber.StatusOK, out)
}

func (h *AdminHandler) Repair(ctx *fiber.Ctx) error {
	id, err := helper.ParamID(ctx, "identityID")
	if err != nil {
		return writeError(ctx, err)
	}
	outcome, err := h.svc.Repair(ctx.UserContext(), id)
	if err != nil {
		return writeError(ctx, err)
	}
	return utils.ResponseSuccess(ctx, fiber.StatusOK, fiber.Map{
		"identity_id": outcome.IdentityID,
		"trainer_id":  outcome.TrainerID,
		"slug":        outcome.Slug,
		"created":     outcome.Created,
		"partial":     outcome.Partial,
	})
}

func (h *AdminHandler) RepairAll(ctx *fiber.Ctx) error {
	report, err := h.svc.RepairAll(ctx.UserContext())
	if err != nil {
		return writeError(ctx, err)
	}
	return utils.ResponseSuccess(ctx, fiber.StatusOK, report)
}
