package api

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Freeeeeet/musicschool/internal/model"
	"github.com/Freeeeeet/musicschool/internal/schedule"
)

// getAvailability GET /teachers/:id/availability
func (h *handler) getAvailability(c *fiber.Ctx) error {
	teacherID, ok := pathUUID(c, "id")
	if !ok {
		return errorResponse(c, fiber.StatusBadRequest, "validation", "invalid teacher id", nil)
	}

	availability, err := h.svc.Availability.Get(c.UserContext(), teacherID)
	if err != nil {
		return writeError(c, h.logger, err)
	}
	return success(c, "availability fetched", availability)
}

// setAvailability PUT /teachers/:id/availability
func (h *handler) setAvailability(c *fiber.Ctx) error {
	teacherID, ok := pathUUID(c, "id")
	if !ok {
		return errorResponse(c, fiber.StatusBadRequest, "validation", "invalid teacher id", nil)
	}

	var req setWindowsRequest
	if err := bind(c, &req, false); err != nil {
		return writeValidationError(c, err)
	}
	windows, err := req.input()
	if err != nil {
		return writeValidationError(c, err)
	}

	saved, err := h.svc.Availability.SetWindows(c.UserContext(), actorFrom(c), teacherID, windows)
	if err != nil {
		return writeError(c, h.logger, err)
	}
	return success(c, "availability updated", saved)
}

// addBlackout POST /teachers/:id/blackouts
func (h *handler) addBlackout(c *fiber.Ctx) error {
	teacherID, ok := pathUUID(c, "id")
	if !ok {
		return errorResponse(c, fiber.StatusBadRequest, "validation", "invalid teacher id", nil)
	}

	var req blackoutRequest
	if err := bind(c, &req, false); err != nil {
		return writeValidationError(c, err)
	}
	date, err := schedule.ParseDate(req.Date)
	if err != nil {
		return writeValidationError(c, err)
	}

	blackout, err := h.svc.Availability.AddBlackout(c.UserContext(), actorFrom(c), teacherID, date, req.Reason)
	if err != nil {
		return writeError(c, h.logger, err)
	}
	return successWithCode(c, fiber.StatusCreated, "blackout date added", blackout)
}

// deleteBlackout DELETE /teachers/:id/blackouts/:blackoutId
func (h *handler) deleteBlackout(c *fiber.Ctx) error {
	teacherID, ok := pathUUID(c, "id")
	if !ok {
		return errorResponse(c, fiber.StatusBadRequest, "validation", "invalid teacher id", nil)
	}
	blackoutID, ok := pathUUID(c, "blackoutId")
	if !ok {
		return errorResponse(c, fiber.StatusBadRequest, "validation", "invalid blackout id", nil)
	}

	if err := h.svc.Availability.DeleteBlackout(c.UserContext(), actorFrom(c), teacherID, blackoutID); err != nil {
		return writeError(c, h.logger, err)
	}
	return success(c, "blackout date removed", fiber.Map{"id": blackoutID})
}

// setUserRole PUT /users/:id/role
func (h *handler) setUserRole(c *fiber.Ctx) error {
	userID, ok := pathUUID(c, "id")
	if !ok {
		return errorResponse(c, fiber.StatusBadRequest, "validation", "invalid user id", nil)
	}

	var req setRoleRequest
	if err := bind(c, &req, false); err != nil {
		return writeValidationError(c, err)
	}

	user, err := h.svc.Users.SetRole(c.UserContext(), actorFrom(c), userID, model.Role(req.Role))
	if err != nil {
		return writeError(c, h.logger, err)
	}
	return success(c, "role updated", user)
}
