package service

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/hridoy-islam/watenycollage-sub000/internal/dto"
	"github.com/hridoy-islam/watenycollage-sub000/internal/middleware"
	"github.com/hridoy-islam/watenycollage-sub000/internal/models"
	"github.com/hridoy-islam/watenycollage-sub000/internal/repository"
	"github.com/hridoy-islam/watenycollage-sub000/internal/workflow"
)

// ErrAssignmentNotFound indicates the assignment record does not exist.
var ErrAssignmentNotFound = errors.New("assignment not found")

// ErrStudentNotFound indicates an on-behalf submission targeted an unknown student.
var ErrStudentNotFound = errors.New("student not found")

// AssignmentWorkflowService orchestrates the submission/feedback lifecycle.
// Every mutation applies the state machine locally first, rejecting rule
// violations before any persistence call, then issues typed commands and
// reconciles the local snapshot with the authoritative row.
type AssignmentWorkflowService interface {
	List(ctx context.Context, filter dto.AssignmentFilter, actor workflow.Actor) ([]dto.AssignmentResponse, error)
	Get(ctx context.Context, id uint, actor workflow.Actor) (dto.AssignmentResponse, error)
	Submit(ctx context.Context, payload dto.SubmissionCreateRequest, actor workflow.Actor) (dto.AssignmentResponse, error)
	EditSubmission(ctx context.Context, assignmentID, submissionID uint, payload dto.SubmissionUpdateRequest, actor workflow.Actor) (dto.AssignmentResponse, error)
	DeleteSubmission(ctx context.Context, assignmentID, submissionID uint, actor workflow.Actor) (dto.AssignmentResponse, error)
	GiveFeedback(ctx context.Context, assignmentID uint, payload dto.FeedbackCreateRequest, actor workflow.Actor) (dto.AssignmentResponse, error)
	EditFeedback(ctx context.Context, assignmentID, feedbackID uint, payload dto.FeedbackUpdateRequest, actor workflow.Actor) (dto.AssignmentResponse, error)
	DeleteFeedback(ctx context.Context, assignmentID, feedbackID uint, actor workflow.Actor) (dto.AssignmentResponse, error)
	MarkCompleted(ctx context.Context, assignmentID uint, actor workflow.Actor) (dto.AssignmentResponse, error)
	PutFinalFeedback(ctx context.Context, assignmentID uint, payload dto.FinalFeedbackRequest, actor workflow.Actor) (dto.AssignmentResponse, error)
	PutObservationFeedback(ctx context.Context, assignmentID uint, payload dto.ObservationFeedbackRequest, actor workflow.Actor) (dto.AssignmentResponse, error)
	MarkSubmissionSeen(ctx context.Context, assignmentID, submissionID uint, actor workflow.Actor) (dto.AssignmentResponse, error)
	MarkFeedbackSeen(ctx context.Context, assignmentID, feedbackID uint, actor workflow.Actor) (dto.AssignmentResponse, error)
}

type assignmentWorkflowService struct {
	assignments repository.AssignmentRepository
	users       repository.UserRepository
	materials   MaterialService
	validator   *validator.Validate
	events      *EventPublisher
	snapshots   *snapshotStore
	sanitizer   *bluemonday.Policy
	logger      zerolog.Logger
	tracer      trace.Tracer
	now         func() time.Time
}

// NewAssignmentWorkflowService constructs the workflow service.
func NewAssignmentWorkflowService(assignments repository.AssignmentRepository, users repository.UserRepository, materials MaterialService, validate *validator.Validate, events *EventPublisher, logger zerolog.Logger) AssignmentWorkflowService {
	return &assignmentWorkflowService{
		assignments: assignments,
		users:       users,
		materials:   materials,
		validator:   validate,
		events:      events,
		snapshots:   newSnapshotStore(),
		sanitizer:   bluemonday.UGCPolicy(),
		logger:      logger.With().Str("component", "assignment_workflow_service").Logger(),
		tracer:      otel.Tracer("github.com/hridoy-islam/watenycollage-sub000/internal/service/workflow"),
		now:         time.Now,
	}
}

func (s *assignmentWorkflowService) List(ctx context.Context, filter dto.AssignmentFilter, actor workflow.Actor) ([]dto.AssignmentResponse, error) {
	if err := s.validator.Struct(filter); err != nil {
		return nil, err
	}

	repoFilter := repository.AssignmentFilter{
		ApplicationID: filter.ApplicationID,
		UnitID:        filter.UnitID,
		StudentID:     filter.StudentID,
		Status:        filter.Status,
	}

	// students only ever see their own assignments
	if actor.IsStudent() {
		studentID := actor.ID
		repoFilter.StudentID = &studentID
	}

	assignments, err := s.assignments.List(ctx, repoFilter)
	if err != nil {
		return nil, err
	}

	return dto.NewAssignmentResponseSlice(assignments, actor, s.now()), nil
}

func (s *assignmentWorkflowService) Get(ctx context.Context, id uint, actor workflow.Actor) (dto.AssignmentResponse, error) {
	assignment, err := s.load(ctx, id)
	if err != nil {
		return dto.AssignmentResponse{}, err
	}

	if actor.IsStudent() && assignment.StudentID != actor.ID {
		return dto.AssignmentResponse{}, workflow.ErrPermissionDenied
	}

	return dto.NewAssignmentResponse(assignment, actor, s.now()), nil
}

func (s *assignmentWorkflowService) Submit(ctx context.Context, payload dto.SubmissionCreateRequest, actor workflow.Actor) (dto.AssignmentResponse, error) {
	ctx, span := s.tracer.Start(ctx, "workflow.submit")
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.AssignmentResponse{}, err
	}

	studentID := actor.ID
	onBehalf := false
	if payload.StudentID != nil && *payload.StudentID != actor.ID {
		studentID = *payload.StudentID
		onBehalf = true

		if s.users != nil {
			if _, lookupErr := s.users.GetByID(ctx, studentID); lookupErr != nil {
				if errors.Is(lookupErr, gorm.ErrRecordNotFound) {
					lookupErr = ErrStudentNotFound
				}
				span.RecordError(lookupErr)
				return dto.AssignmentResponse{}, lookupErr
			}
		}
	}
	span.SetAttributes(
		attribute.Int64("workflow.student_id", int64(studentID)),
		attribute.Bool("workflow.on_behalf", onBehalf),
	)

	material, err := s.materials.Lookup(ctx, payload.CourseMaterialAssignmentID)
	if err != nil {
		span.RecordError(err)
		return dto.AssignmentResponse{}, err
	}

	key := repository.AssignmentKey{
		ApplicationID:              payload.ApplicationID,
		UnitID:                     payload.UnitID,
		StudentID:                  studentID,
		CourseMaterialAssignmentID: payload.CourseMaterialAssignmentID,
	}

	assignment, err := s.assignments.FindByKey(ctx, key)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// Lazy materialization: a missing record on first submission is not an
		// error, the assignment is created and then populated.
		assignment = models.Assignment{
			ApplicationID:              key.ApplicationID,
			UnitID:                     key.UnitID,
			StudentID:                  key.StudentID,
			CourseMaterialAssignmentID: key.CourseMaterialAssignmentID,
			Status:                     models.StatusNotSubmitted,
		}
		if createErr := s.assignments.Create(ctx, &assignment); createErr != nil {
			span.RecordError(createErr)
			span.SetStatus(codes.Error, "assignment_create_failed")
			return dto.AssignmentResponse{}, createErr
		}
		s.logger.Info().Uint("assignment_id", assignment.ID).Msg("assignment materialized on first submission")
	} else if err != nil {
		span.RecordError(err)
		return dto.AssignmentResponse{}, err
	}
	assignment.Material = material

	action := workflow.SubmitWork{
		Actor:    actor,
		OnBehalf: onBehalf,
		Files:    payload.Files,
		Comment:  s.sanitizer.Sanitize(payload.Comment),
		Deadline: workflow.EffectiveDeadline(assignment, material.Deadline),
	}

	authoritative, err := s.mutate(ctx, assignment, action, func(next models.Assignment) []repository.Command {
		submission := next.Submissions[len(next.Submissions)-1]
		return []repository.Command{
			repository.AppendSubmission{Submission: submission},
			statusFields(next),
		}
	})
	if err != nil {
		span.RecordError(err)
		return dto.AssignmentResponse{}, err
	}

	return dto.NewAssignmentResponse(authoritative, actor, s.now()), nil
}

func (s *assignmentWorkflowService) EditSubmission(ctx context.Context, assignmentID, submissionID uint, payload dto.SubmissionUpdateRequest, actor workflow.Actor) (dto.AssignmentResponse, error) {
	ctx, span := s.tracer.Start(ctx, "workflow.edit_submission")
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		return dto.AssignmentResponse{}, err
	}

	assignment, err := s.load(ctx, assignmentID)
	if err != nil {
		return dto.AssignmentResponse{}, err
	}

	action := workflow.EditSubmission{
		Actor:        actor,
		SubmissionID: submissionID,
		Files:        payload.Files,
		Comment:      s.sanitizer.Sanitize(payload.Comment),
	}

	authoritative, err := s.mutate(ctx, assignment, action, func(next models.Assignment) []repository.Command {
		for _, submission := range next.Submissions {
			if submission.ID == submissionID {
				return []repository.Command{repository.ReplaceSubmission{Submission: submission}}
			}
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return dto.AssignmentResponse{}, err
	}

	return dto.NewAssignmentResponse(authoritative, actor, s.now()), nil
}

func (s *assignmentWorkflowService) DeleteSubmission(ctx context.Context, assignmentID, submissionID uint, actor workflow.Actor) (dto.AssignmentResponse, error) {
	ctx, span := s.tracer.Start(ctx, "workflow.delete_submission")
	defer span.End()

	assignment, err := s.load(ctx, assignmentID)
	if err != nil {
		return dto.AssignmentResponse{}, err
	}

	action := workflow.DeleteSubmission{Actor: actor, SubmissionID: submissionID}

	authoritative, err := s.mutate(ctx, assignment, action, func(next models.Assignment) []repository.Command {
		return []repository.Command{
			repository.RemoveSubmission{ID: submissionID},
			statusFields(next),
		}
	})
	if err != nil {
		span.RecordError(err)
		return dto.AssignmentResponse{}, err
	}

	return dto.NewAssignmentResponse(authoritative, actor, s.now()), nil
}

func (s *assignmentWorkflowService) GiveFeedback(ctx context.Context, assignmentID uint, payload dto.FeedbackCreateRequest, actor workflow.Actor) (dto.AssignmentResponse, error) {
	ctx, span := s.tracer.Start(ctx, "workflow.give_feedback")
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		return dto.AssignmentResponse{}, err
	}

	assignment, err := s.load(ctx, assignmentID)
	if err != nil {
		return dto.AssignmentResponse{}, err
	}

	action := workflow.GiveFeedback{
		Actor:           actor,
		Comment:         s.sanitizer.Sanitize(payload.Comment),
		Files:           payload.Files,
		RequireResubmit: payload.RequireResubmit,
		Deadline:        payload.Deadline,
	}

	authoritative, err := s.mutate(ctx, assignment, action, func(next models.Assignment) []repository.Command {
		feedback := next.Feedbacks[len(next.Feedbacks)-1]
		return []repository.Command{
			repository.AppendFeedback{Feedback: feedback},
			statusFields(next),
		}
	})
	if err != nil {
		span.RecordError(err)
		return dto.AssignmentResponse{}, err
	}

	return dto.NewAssignmentResponse(authoritative, actor, s.now()), nil
}

func (s *assignmentWorkflowService) EditFeedback(ctx context.Context, assignmentID, feedbackID uint, payload dto.FeedbackUpdateRequest, actor workflow.Actor) (dto.AssignmentResponse, error) {
	ctx, span := s.tracer.Start(ctx, "workflow.edit_feedback")
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		return dto.AssignmentResponse{}, err
	}

	assignment, err := s.load(ctx, assignmentID)
	if err != nil {
		return dto.AssignmentResponse{}, err
	}

	action := workflow.EditFeedback{
		Actor:           actor,
		FeedbackID:      feedbackID,
		Comment:         s.sanitizer.Sanitize(payload.Comment),
		Files:           payload.Files,
		RequireResubmit: payload.RequireResubmit,
		Deadline:        payload.Deadline,
	}

	authoritative, err := s.mutate(ctx, assignment, action, func(next models.Assignment) []repository.Command {
		for _, feedback := range next.Feedbacks {
			if feedback.ID == feedbackID {
				return []repository.Command{
					repository.ReplaceFeedback{Feedback: feedback},
					statusFields(next),
				}
			}
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return dto.AssignmentResponse{}, err
	}

	return dto.NewAssignmentResponse(authoritative, actor, s.now()), nil
}

func (s *assignmentWorkflowService) DeleteFeedback(ctx context.Context, assignmentID, feedbackID uint, actor workflow.Actor) (dto.AssignmentResponse, error) {
	ctx, span := s.tracer.Start(ctx, "workflow.delete_feedback")
	defer span.End()

	assignment, err := s.load(ctx, assignmentID)
	if err != nil {
		return dto.AssignmentResponse{}, err
	}

	action := workflow.DeleteFeedback{Actor: actor, FeedbackID: feedbackID}

	authoritative, err := s.mutate(ctx, assignment, action, func(models.Assignment) []repository.Command {
		return []repository.Command{repository.RemoveFeedback{ID: feedbackID}}
	})
	if err != nil {
		span.RecordError(err)
		return dto.AssignmentResponse{}, err
	}

	return dto.NewAssignmentResponse(authoritative, actor, s.now()), nil
}

func (s *assignmentWorkflowService) MarkCompleted(ctx context.Context, assignmentID uint, actor workflow.Actor) (dto.AssignmentResponse, error) {
	ctx, span := s.tracer.Start(ctx, "workflow.mark_completed")
	defer span.End()

	assignment, err := s.load(ctx, assignmentID)
	if err != nil {
		return dto.AssignmentResponse{}, err
	}

	authoritative, err := s.mutate(ctx, assignment, workflow.MarkCompleted{Actor: actor}, func(next models.Assignment) []repository.Command {
		return []repository.Command{statusFields(next)}
	})
	if err != nil {
		span.RecordError(err)
		return dto.AssignmentResponse{}, err
	}

	return dto.NewAssignmentResponse(authoritative, actor, s.now()), nil
}

func (s *assignmentWorkflowService) PutFinalFeedback(ctx context.Context, assignmentID uint, payload dto.FinalFeedbackRequest, actor workflow.Actor) (dto.AssignmentResponse, error) {
	ctx, span := s.tracer.Start(ctx, "workflow.final_feedback")
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		return dto.AssignmentResponse{}, err
	}

	assignment, err := s.load(ctx, assignmentID)
	if err != nil {
		return dto.AssignmentResponse{}, err
	}

	outcomes := make([]models.LearningOutcome, 0, len(payload.Outcomes))
	for _, outcome := range payload.Outcomes {
		criteria := make([]models.AssessmentCriterion, 0, len(outcome.Criteria))
		for _, criterion := range outcome.Criteria {
			criteria = append(criteria, models.AssessmentCriterion{
				Description: criterion.Description,
				Fulfilled:   criterion.Fulfilled,
				Comment:     s.sanitizer.Sanitize(criterion.Comment),
			})
		}
		outcomes = append(outcomes, models.LearningOutcome{Title: outcome.Title, Criteria: criteria})
	}

	action := workflow.GiveFinalFeedback{Actor: actor, Final: models.FinalFeedback{Outcomes: outcomes}}

	authoritative, err := s.mutate(ctx, assignment, action, func(next models.Assignment) []repository.Command {
		return []repository.Command{repository.SetFields{Fields: map[string]interface{}{
			"status":              next.Status,
			"require_resubmit":    next.RequireResubmit,
			"final_feedback":      next.FinalFeedback,
			"final_feedback_seen": next.FinalFeedbackSeen,
		}}}
	})
	if err != nil {
		span.RecordError(err)
		return dto.AssignmentResponse{}, err
	}

	return dto.NewAssignmentResponse(authoritative, actor, s.now()), nil
}

func (s *assignmentWorkflowService) PutObservationFeedback(ctx context.Context, assignmentID uint, payload dto.ObservationFeedbackRequest, actor workflow.Actor) (dto.AssignmentResponse, error) {
	ctx, span := s.tracer.Start(ctx, "workflow.observation_feedback")
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		return dto.AssignmentResponse{}, err
	}

	assignment, err := s.load(ctx, assignmentID)
	if err != nil {
		return dto.AssignmentResponse{}, err
	}

	action := workflow.GiveObservationFeedback{
		Actor: actor,
		Observation: models.ObservationFeedback{
			Comment: s.sanitizer.Sanitize(payload.Comment),
			Files:   payload.Files,
		},
	}

	authoritative, err := s.mutate(ctx, assignment, action, func(next models.Assignment) []repository.Command {
		return []repository.Command{repository.SetFields{Fields: map[string]interface{}{
			"status":                    next.Status,
			"require_resubmit":          next.RequireResubmit,
			"observation_feedback":      next.ObservationFeedback,
			"observation_feedback_seen": next.ObservationFeedbackSeen,
		}}}
	})
	if err != nil {
		span.RecordError(err)
		return dto.AssignmentResponse{}, err
	}

	return dto.NewAssignmentResponse(authoritative, actor, s.now()), nil
}

func (s *assignmentWorkflowService) MarkSubmissionSeen(ctx context.Context, assignmentID, submissionID uint, actor workflow.Actor) (dto.AssignmentResponse, error) {
	if !actor.IsStaff() {
		return dto.AssignmentResponse{}, workflow.ErrPermissionDenied
	}

	authoritative, err := s.assignments.Apply(ctx, assignmentID, repository.MarkSubmissionSeen{ID: submissionID, Seen: true})
	if err != nil {
		return dto.AssignmentResponse{}, s.mapNotFound(err)
	}
	s.snapshots.Store(assignmentID, authoritative)

	return dto.NewAssignmentResponse(authoritative, actor, s.now()), nil
}

func (s *assignmentWorkflowService) MarkFeedbackSeen(ctx context.Context, assignmentID, feedbackID uint, actor workflow.Actor) (dto.AssignmentResponse, error) {
	assignment, err := s.load(ctx, assignmentID)
	if err != nil {
		return dto.AssignmentResponse{}, err
	}
	if actor.IsStudent() && assignment.StudentID != actor.ID {
		return dto.AssignmentResponse{}, workflow.ErrPermissionDenied
	}

	authoritative, err := s.assignments.Apply(ctx, assignmentID, repository.MarkFeedbackSeen{ID: feedbackID, Seen: true})
	if err != nil {
		return dto.AssignmentResponse{}, s.mapNotFound(err)
	}
	s.snapshots.Store(assignmentID, authoritative)

	return dto.NewAssignmentResponse(authoritative, actor, s.now()), nil
}

// load returns the cached snapshot when available, falling back to an
// authoritative read.
func (s *assignmentWorkflowService) load(ctx context.Context, id uint) (models.Assignment, error) {
	if snapshot, ok := s.snapshots.Get(id); ok {
		return snapshot, nil
	}

	assignment, err := s.assignments.GetByID(ctx, id)
	if err != nil {
		return models.Assignment{}, s.mapNotFound(err)
	}
	s.snapshots.Store(id, assignment)

	return assignment, nil
}

// mutate runs the optimistic-update/reconcile/rollback cycle for one action.
// Rule violations surface before any command is issued; a repository failure
// restores the pre-action snapshot; a reconciliation that lost to a newer
// mutation is discarded.
func (s *assignmentWorkflowService) mutate(ctx context.Context, assignment models.Assignment, action workflow.Action, commands func(next models.Assignment) []repository.Command) (models.Assignment, error) {
	now := s.now()

	next, err := workflow.Apply(assignment, action, now)
	if err != nil {
		return models.Assignment{}, err
	}

	seq, previous, hadPrevious := s.snapshots.Begin(assignment.ID, next)

	authoritative, err := s.assignments.Apply(ctx, assignment.ID, commands(next)...)
	if err != nil {
		s.snapshots.Rollback(assignment.ID, seq, previous, hadPrevious)
		s.logger.Error().Err(err).
			Uint("assignment_id", assignment.ID).
			Str("action", action.Name()).
			Msg("mutation failed, optimistic state rolled back")
		return models.Assignment{}, s.mapNotFound(err)
	}

	if !s.snapshots.Commit(assignment.ID, seq, authoritative) {
		s.logger.Debug().
			Uint("assignment_id", assignment.ID).
			Uint64("seq", seq).
			Msg("stale reconciliation discarded")
	}

	s.events.Publish(WorkflowEvent{
		AssignmentID: assignment.ID,
		StudentID:    assignment.StudentID,
		Action:       action.Name(),
		Status:       authoritative.Status,
		ActorID:      actorID(action),
		ActorRole:    actorRole(action),
		OccurredAt:   now,
		Correlation:  middleware.CorrelationIDFromContext(ctx),
	})

	s.logger.Info().
		Uint("assignment_id", assignment.ID).
		Str("action", action.Name()).
		Str("status", authoritative.Status).
		Msg("assignment transition applied")

	return authoritative, nil
}

func (s *assignmentWorkflowService) mapNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrAssignmentNotFound
	}

	return err
}

func statusFields(next models.Assignment) repository.SetFields {
	return repository.SetFields{Fields: map[string]interface{}{
		"status":           next.Status,
		"require_resubmit": next.RequireResubmit,
	}}
}

func actorID(action workflow.Action) uint {
	return actionActor(action).ID
}

func actorRole(action workflow.Action) string {
	return actionActor(action).Role
}

func actionActor(action workflow.Action) workflow.Actor {
	switch act := action.(type) {
	case workflow.SubmitWork:
		return act.Actor
	case workflow.GiveFeedback:
		return act.Actor
	case workflow.EditSubmission:
		return act.Actor
	case workflow.EditFeedback:
		return act.Actor
	case workflow.DeleteSubmission:
		return act.Actor
	case workflow.DeleteFeedback:
		return act.Actor
	case workflow.MarkCompleted:
		return act.Actor
	case workflow.GiveFinalFeedback:
		return act.Actor
	case workflow.GiveObservationFeedback:
		return act.Actor
	default:
		return workflow.Actor{}
	}
}
