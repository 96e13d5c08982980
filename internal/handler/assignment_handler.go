package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/hridoy-islam/watenycollage-sub000/internal/dto"
	"github.com/hridoy-islam/watenycollage-sub000/internal/middleware"
	"github.com/hridoy-islam/watenycollage-sub000/internal/service"
	"github.com/hridoy-islam/watenycollage-sub000/internal/utils"
	"github.com/hridoy-islam/watenycollage-sub000/internal/workflow"
)

// AssignmentHandler exposes the submission/feedback lifecycle endpoints.
type AssignmentHandler struct {
	service service.AssignmentWorkflowService
	logger  zerolog.Logger
}

// NewAssignmentHandler builds an assignment handler instance.
func NewAssignmentHandler(service service.AssignmentWorkflowService, logger zerolog.Logger) *AssignmentHandler {
	return &AssignmentHandler{
		service: service,
		logger:  logger.With().Str("component", "assignment_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *AssignmentHandler) Register(router fiber.Router, staffOnly fiber.Handler) {
	router.Get("", h.list)
	router.Get("/:id", h.get)
	router.Post("/submissions", h.submit)
	router.Patch("/:id/submissions/:submissionID", h.editSubmission)
	router.Delete("/:id/submissions/:submissionID", h.deleteSubmission)
	router.Post("/:id/submissions/:submissionID/seen", staffOnly, h.markSubmissionSeen)
	router.Post("/:id/feedback", staffOnly, h.giveFeedback)
	router.Patch("/:id/feedback/:feedbackID", staffOnly, h.editFeedback)
	router.Delete("/:id/feedback/:feedbackID", staffOnly, h.deleteFeedback)
	router.Post("/:id/feedback/:feedbackID/seen", h.markFeedbackSeen)
	router.Post("/:id/complete", staffOnly, h.markCompleted)
	router.Put("/:id/final-feedback", staffOnly, h.putFinalFeedback)
	router.Put("/:id/observation-feedback", staffOnly, h.putObservationFeedback)
}

func (h *AssignmentHandler) list(c *fiber.Ctx) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	filter := dto.AssignmentFilter{}
	if applicationID, err := parseQueryUint(c, "application_id"); err == nil {
		filter.ApplicationID = applicationID
	}
	if unitID, err := parseQueryUint(c, "unit_id"); err == nil {
		filter.UnitID = unitID
	}
	if studentID, err := parseQueryUint(c, "student_id"); err == nil {
		filter.StudentID = studentID
	}
	if status := c.Query("status"); status != "" {
		filter.Status = &status
	}

	assignments, err := h.service.List(requestContext(c), filter, actor)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "assignments retrieved", assignments)
}

func (h *AssignmentHandler) get(c *fiber.Ctx) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	assignment, err := h.service.Get(requestContext(c), id, actor)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "assignment retrieved", assignment)
}

func (h *AssignmentHandler) submit(c *fiber.Ctx) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	var payload dto.SubmissionCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	assignment, err := h.service.Submit(requestContext(c), payload, actor)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendCreated(c, "submission recorded", assignment)
}

func (h *AssignmentHandler) editSubmission(c *fiber.Ctx) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	assignmentID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	submissionID, err := parseUintParam(c, "submissionID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.SubmissionUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	assignment, err := h.service.EditSubmission(requestContext(c), assignmentID, submissionID, payload, actor)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "submission updated", assignment)
}

func (h *AssignmentHandler) deleteSubmission(c *fiber.Ctx) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	assignmentID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	submissionID, err := parseUintParam(c, "submissionID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	assignment, err := h.service.DeleteSubmission(requestContext(c), assignmentID, submissionID, actor)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "submission deleted", assignment)
}

func (h *AssignmentHandler) giveFeedback(c *fiber.Ctx) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	assignmentID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.FeedbackCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	assignment, err := h.service.GiveFeedback(requestContext(c), assignmentID, payload, actor)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendCreated(c, "feedback recorded", assignment)
}

func (h *AssignmentHandler) editFeedback(c *fiber.Ctx) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	assignmentID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	feedbackID, err := parseUintParam(c, "feedbackID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.FeedbackUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	assignment, err := h.service.EditFeedback(requestContext(c), assignmentID, feedbackID, payload, actor)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "feedback updated", assignment)
}

func (h *AssignmentHandler) deleteFeedback(c *fiber.Ctx) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	assignmentID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	feedbackID, err := parseUintParam(c, "feedbackID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	assignment, err := h.service.DeleteFeedback(requestContext(c), assignmentID, feedbackID, actor)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "feedback deleted", assignment)
}

func (h *AssignmentHandler) markCompleted(c *fiber.Ctx) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	assignmentID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	assignment, err := h.service.MarkCompleted(requestContext(c), assignmentID, actor)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "assignment completed", assignment)
}

func (h *AssignmentHandler) putFinalFeedback(c *fiber.Ctx) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	assignmentID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.FinalFeedbackRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	assignment, err := h.service.PutFinalFeedback(requestContext(c), assignmentID, payload, actor)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "final feedback recorded", assignment)
}

func (h *AssignmentHandler) putObservationFeedback(c *fiber.Ctx) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	assignmentID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.ObservationFeedbackRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	assignment, err := h.service.PutObservationFeedback(requestContext(c), assignmentID, payload, actor)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "observation feedback recorded", assignment)
}

func (h *AssignmentHandler) markSubmissionSeen(c *fiber.Ctx) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	assignmentID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	submissionID, err := parseUintParam(c, "submissionID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	assignment, err := h.service.MarkSubmissionSeen(requestContext(c), assignmentID, submissionID, actor)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "submission marked as seen", assignment)
}

func (h *AssignmentHandler) markFeedbackSeen(c *fiber.Ctx) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	assignmentID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	feedbackID, err := parseUintParam(c, "feedbackID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	assignment, err := h.service.MarkFeedbackSeen(requestContext(c), assignmentID, feedbackID, actor)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "feedback marked as seen", assignment)
}

func (h *AssignmentHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrAssignmentNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "assignment not found")
	case errors.Is(err, service.ErrMaterialNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "course material not found")
	case errors.Is(err, service.ErrStudentNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "student not found")
	case errors.Is(err, workflow.ErrSubmissionNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "submission not found")
	case errors.Is(err, workflow.ErrFeedbackNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "feedback not found")
	case errors.Is(err, workflow.ErrPermissionDenied):
		return utils.SendError(c, fiber.StatusForbidden, "insufficient permissions")
	case errors.Is(err, workflow.ErrSubmissionNotAllowed):
		return utils.SendError(c, fiber.StatusConflict, "submission is not allowed in the current state")
	case errors.Is(err, workflow.ErrFeedbackNotAllowed):
		return utils.SendError(c, fiber.StatusConflict, "feedback is not allowed in the current state")
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	default:
		h.logger.Error().Err(err).Str("correlation_id", middleware.GetCorrelationID(c)).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
