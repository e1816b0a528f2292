package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// listLessons GET /lessons
func (h *handler) listLessons(c *fiber.Ctx) error {
	var q listLessonsQuery
	if err := c.QueryParser(&q); err != nil {
		return writeValidationError(c, err)
	}
	if err := validate.Struct(&q); err != nil {
		return writeValidationError(c, err)
	}

	paging := resolvePaging(c)
	filter, err := q.filter(paging)
	if err != nil {
		return writeValidationError(c, err)
	}

	lessons, total, err := h.svc.Lessons.List(c.UserContext(), actorFrom(c), filter)
	if err != nil {
		return writeError(c, h.logger, err)
	}
	return successList(c, "lessons fetched", lessons, buildPagination(total, paging))
}

// getLesson GET /lessons/:id
func (h *handler) getLesson(c *fiber.Ctx) error {
	id, ok := pathUUID(c, "id")
	if !ok {
		return errorResponse(c, fiber.StatusBadRequest, "validation", "invalid lesson id", nil)
	}

	lesson, err := h.svc.Lessons.Get(c.UserContext(), actorFrom(c), id)
	if err != nil {
		return writeError(c, h.logger, err)
	}
	return success(c, "lesson fetched", lesson)
}

// createLesson POST /lessons
func (h *handler) createLesson(c *fiber.Ctx) error {
	var req createLessonRequest
	if err := bind(c, &req, false); err != nil {
		return writeValidationError(c, err)
	}

	actor := actorFrom(c)
	in, err := req.input(actor)
	if err != nil {
		return writeValidationError(c, err)
	}

	lesson, err := h.svc.Lessons.Create(c.UserContext(), actor, in)
	if err != nil {
		return writeError(c, h.logger, err)
	}
	return successWithCode(c, fiber.StatusCreated, "lesson created", lesson)
}

// updateLesson PATCH /lessons/:id
func (h *handler) updateLesson(c *fiber.Ctx) error {
	id, ok := pathUUID(c, "id")
	if !ok {
		return errorResponse(c, fiber.StatusBadRequest, "validation", "invalid lesson id", nil)
	}

	var req updateLessonRequest
	if err := bind(c, &req, false); err != nil {
		return writeValidationError(c, err)
	}
	in, err := req.input()
	if err != nil {
		return writeValidationError(c, err)
	}

	lesson, err := h.svc.Lessons.Update(c.UserContext(), actorFrom(c), id, in)
	if err != nil {
		return writeError(c, h.logger, err)
	}
	return success(c, "lesson updated", lesson)
}

// deleteLesson DELETE /lessons/:id
func (h *handler) deleteLesson(c *fiber.Ctx) error {
	id, ok := pathUUID(c, "id")
	if !ok {
		return errorResponse(c, fiber.StatusBadRequest, "validation", "invalid lesson id", nil)
	}

	if err := h.svc.Lessons.Delete(c.UserContext(), actorFrom(c), id); err != nil {
		return writeError(c, h.logger, err)
	}
	return success(c, "lesson deleted", fiber.Map{"id": id})
}

// enroll POST /lessons/:id/enroll
func (h *handler) enroll(c *fiber.Ctx) error {
	lessonID, studentID, done, err := h.lessonAndStudent(c)
	if done {
		return err
	}

	enrollment, err := h.svc.Lessons.Enroll(c.UserContext(), actorFrom(c), lessonID, studentID)
	if err != nil {
		return writeError(c, h.logger, err)
	}
	return successWithCode(c, fiber.StatusCreated, "student enrolled", enrollment)
}

// join POST /lessons/:id/join
func (h *handler) join(c *fiber.Ctx) error {
	lessonID, studentID, done, err := h.lessonAndStudent(c)
	if done {
		return err
	}

	result, err := h.svc.Attendance.Join(c.UserContext(), actorFrom(c), lessonID, studentID)
	if err != nil {
		return writeError(c, h.logger, err)
	}
	return success(c, "joined lesson", result)
}

// leave POST /lessons/:id/leave
func (h *handler) leave(c *fiber.Ctx) error {
	lessonID, studentID, done, err := h.lessonAndStudent(c)
	if done {
		return err
	}

	result, err := h.svc.Attendance.Leave(c.UserContext(), actorFrom(c), lessonID, studentID)
	if err != nil {
		return writeError(c, h.logger, err)
	}
	return success(c, "left lesson", result)
}

// submitFeedback POST /lessons/:id/feedback
func (h *handler) submitFeedback(c *fiber.Ctx) error {
	lessonID, ok := pathUUID(c, "id")
	if !ok {
		return errorResponse(c, fiber.StatusBadRequest, "validation", "invalid lesson id", nil)
	}

	var req feedbackRequest
	if err := bind(c, &req, false); err != nil {
		return writeValidationError(c, err)
	}
	actor := actorFrom(c)
	studentID, err := resolveStudentID(actor, req.StudentID)
	if err != nil {
		return writeError(c, h.logger, err)
	}

	feedback, err := h.svc.Feedback.Submit(c.UserContext(), actor, lessonID, studentID, req.Rating, req.Comment)
	if err != nil {
		return writeError(c, h.logger, err)
	}
	return successWithCode(c, fiber.StatusCreated, "feedback saved", feedback)
}

// lessonAndStudent общий разбор для enroll/join/leave. done=true означает, что ответ уже записан.
func (h *handler) lessonAndStudent(c *fiber.Ctx) (lessonID, studentID uuid.UUID, done bool, err error) {
	lessonID, ok := pathUUID(c, "id")
	if !ok {
		return uuid.Nil, uuid.Nil, true, errorResponse(c, fiber.StatusBadRequest, "validation", "invalid lesson id", nil)
	}

	var req studentRequest
	if err := bind(c, &req, true); err != nil {
		return uuid.Nil, uuid.Nil, true, writeValidationError(c, err)
	}

	studentID, err = resolveStudentID(actorFrom(c), req.StudentID)
	if err != nil {
		return uuid.Nil, uuid.Nil, true, writeError(c, h.logger, err)
	}
	return lessonID, studentID, false, nil
}
