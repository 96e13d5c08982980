package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/hridoy-islam/watenycollage-sub000/internal/models"
)

// Command is one element of the closed set of typed mutations the persistence
// layer interprets. The set replaces ad-hoc update payloads: append-to-array,
// replace-in-place, pull-by-id, set-field, and positional seen flips.
type Command interface {
	command()
}

// AppendSubmission pushes a submission onto the assignment's submission list.
type AppendSubmission struct {
	Submission models.Submission
}

// AppendFeedback pushes a feedback onto the assignment's feedback list.
type AppendFeedback struct {
	Feedback models.Feedback
}

// ReplaceSubmission overwrites an existing submission row in place.
type ReplaceSubmission struct {
	Submission models.Submission
}

// ReplaceFeedback overwrites an existing feedback row in place.
type ReplaceFeedback struct {
	Feedback models.Feedback
}

// RemoveSubmission pulls a submission by id.
type RemoveSubmission struct {
	ID uint
}

// RemoveFeedback pulls a feedback by id.
type RemoveFeedback struct {
	ID uint
}

// SetFields updates top-level assignment columns (status, require_resubmit,
// final_feedback, ...).
type SetFields struct {
	Fields map[string]interface{}
}

// MarkSubmissionSeen flips the teacher-visibility flag on one submission.
type MarkSubmissionSeen struct {
	ID   uint
	Seen bool
}

// MarkFeedbackSeen flips the student-visibility flag on one feedback.
type MarkFeedbackSeen struct {
	ID   uint
	Seen bool
}

func (AppendSubmission) command()   {}
func (AppendFeedback) command()     {}
func (ReplaceSubmission) command()  {}
func (ReplaceFeedback) command()    {}
func (RemoveSubmission) command()   {}
func (RemoveFeedback) command()     {}
func (SetFields) command()          {}
func (MarkSubmissionSeen) command() {}
func (MarkFeedbackSeen) command()   {}

// AssignmentFilter narrows assignment listings.
type AssignmentFilter struct {
	ApplicationID *uint
	UnitID        *uint
	StudentID     *uint
	Status        *string
}

// AssignmentKey is the identity tuple an assignment is lazily materialized under.
type AssignmentKey struct {
	ApplicationID              uint
	UnitID                     uint
	StudentID                  uint
	CourseMaterialAssignmentID uint
}

// AssignmentRepository owns the canonical assignment aggregate. Apply executes
// a batch of commands atomically and returns the authoritative reloaded row;
// concurrent mutations on the same assignment serialize on the transaction.
type AssignmentRepository interface {
	List(ctx context.Context, filter AssignmentFilter) ([]models.Assignment, error)
	GetByID(ctx context.Context, id uint) (models.Assignment, error)
	FindByKey(ctx context.Context, key AssignmentKey) (models.Assignment, error)
	Create(ctx context.Context, assignment *models.Assignment) error
	Apply(ctx context.Context, id uint, commands ...Command) (models.Assignment, error)
}

type assignmentRepository struct {
	db *gorm.DB
}

// NewAssignmentRepository instantiates a GORM-backed repository.
func NewAssignmentRepository(db *gorm.DB) AssignmentRepository {
	return &assignmentRepository{db: db}
}

func (r *assignmentRepository) baseQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Assignment{}).
		Preload("Submissions", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC, id ASC")
		}).
		Preload("Submissions.SubmitBy").
		Preload("Feedbacks", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC, id ASC")
		}).
		Preload("Feedbacks.SubmitBy").
		Preload("Material")
}

func (r *assignmentRepository) List(ctx context.Context, filter AssignmentFilter) ([]models.Assignment, error) {
	query := r.baseQuery(ctx)

	if filter.ApplicationID != nil {
		query = query.Where("application_id = ?", *filter.ApplicationID)
	}
	if filter.UnitID != nil {
		query = query.Where("unit_id = ?", *filter.UnitID)
	}
	if filter.StudentID != nil {
		query = query.Where("student_id = ?", *filter.StudentID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	var assignments []models.Assignment
	if err := query.Order("updated_at DESC").Find(&assignments).Error; err != nil {
		return nil, err
	}

	return assignments, nil
}

func (r *assignmentRepository) GetByID(ctx context.Context, id uint) (models.Assignment, error) {
	var assignment models.Assignment
	if err := r.baseQuery(ctx).First(&assignment, id).Error; err != nil {
		return models.Assignment{}, err
	}

	return assignment, nil
}

func (r *assignmentRepository) FindByKey(ctx context.Context, key AssignmentKey) (models.Assignment, error) {
	var assignment models.Assignment
	if err := r.baseQuery(ctx).
		Where("application_id = ?", key.ApplicationID).
		Where("unit_id = ?", key.UnitID).
		Where("student_id = ?", key.StudentID).
		Where("course_material_assignment_id = ?", key.CourseMaterialAssignmentID).
		First(&assignment).Error; err != nil {
		return models.Assignment{}, err
	}

	return assignment, nil
}

func (r *assignmentRepository) Create(ctx context.Context, assignment *models.Assignment) error {
	return r.db.WithContext(ctx).Create(assignment).Error
}

func (r *assignmentRepository) Apply(ctx context.Context, id uint, commands ...Command) (models.Assignment, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var exists models.Assignment
		if err := tx.Select("id").First(&exists, id).Error; err != nil {
			return err
		}

		for _, command := range commands {
			if err := applyCommand(tx, id, command); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return models.Assignment{}, err
	}

	return r.GetByID(ctx, id)
}

func applyCommand(tx *gorm.DB, assignmentID uint, command Command) error {
	switch cmd := command.(type) {
	case AppendSubmission:
		submission := cmd.Submission
		submission.ID = 0
		submission.AssignmentID = assignmentID
		return tx.Create(&submission).Error
	case AppendFeedback:
		feedback := cmd.Feedback
		feedback.ID = 0
		feedback.AssignmentID = assignmentID
		return tx.Create(&feedback).Error
	case ReplaceSubmission:
		return tx.Model(&models.Submission{}).
			Where("id = ? AND assignment_id = ?", cmd.Submission.ID, assignmentID).
			Updates(map[string]interface{}{
				"files":   cmd.Submission.Files,
				"comment": cmd.Submission.Comment,
				"status":  cmd.Submission.Status,
			}).Error
	case ReplaceFeedback:
		return tx.Model(&models.Feedback{}).
			Where("id = ? AND assignment_id = ?", cmd.Feedback.ID, assignmentID).
			Updates(map[string]interface{}{
				"files":    cmd.Feedback.Files,
				"comment":  cmd.Feedback.Comment,
				"deadline": cmd.Feedback.Deadline,
			}).Error
	case RemoveSubmission:
		result := tx.Where("assignment_id = ?", assignmentID).Delete(&models.Submission{}, cmd.ID)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	case RemoveFeedback:
		result := tx.Where("assignment_id = ?", assignmentID).Delete(&models.Feedback{}, cmd.ID)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	case SetFields:
		if len(cmd.Fields) == 0 {
			return nil
		}
		return tx.Model(&models.Assignment{}).Where("id = ?", assignmentID).Updates(cmd.Fields).Error
	case MarkSubmissionSeen:
		return tx.Model(&models.Submission{}).
			Where("id = ? AND assignment_id = ?", cmd.ID, assignmentID).
			Update("seen", cmd.Seen).Error
	case MarkFeedbackSeen:
		return tx.Model(&models.Feedback{}).
			Where("id = ? AND assignment_id = ?", cmd.ID, assignmentID).
			Update("seen", cmd.Seen).Error
	default:
		return gorm.ErrInvalidData
	}
}
