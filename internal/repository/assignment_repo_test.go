package repository_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/hridoy-islam/watenycollage-sub000/internal/models"
	"github.com/hridoy-islam/watenycollage-sub000/internal/repository"
)

func setupRepoDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.CourseMaterialAssignment{},
		&models.Assignment{},
		&models.Submission{},
		&models.Feedback{},
	))

	return db
}

func seedAssignment(t *testing.T, db *gorm.DB) models.Assignment {
	t.Helper()

	student := models.User{Name: "Amina", Email: fmt.Sprintf("amina+%d@example.com", time.Now().UnixNano()), Role: models.RoleStudent}
	require.NoError(t, db.Create(&student).Error)

	deadline := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	material := models.CourseMaterialAssignment{UnitID: 2, Title: "Case Study", Deadline: &deadline}
	require.NoError(t, db.Create(&material).Error)

	assignment := models.Assignment{
		ApplicationID:              1,
		UnitID:                     2,
		StudentID:                  student.ID,
		CourseMaterialAssignmentID: material.ID,
		Status:                     models.StatusNotSubmitted,
	}
	require.NoError(t, db.Create(&assignment).Error)

	return assignment
}

func TestAssignmentRepositoryApplyAppendAndSetFields(t *testing.T) {
	db := setupRepoDB(t)
	repo := repository.NewAssignmentRepository(db)
	assignment := seedAssignment(t, db)

	files, err := json.Marshal([]string{"https://files.test/draft.pdf"})
	require.NoError(t, err)

	updated, err := repo.Apply(context.Background(), assignment.ID,
		repository.AppendSubmission{Submission: models.Submission{
			SubmitByID: assignment.StudentID,
			Files:      files,
			Comment:    "first draft",
			Status:     models.SubmissionStatusSubmitted,
		}},
		repository.SetFields{Fields: map[string]interface{}{
			"status":           models.StatusSubmitted,
			"require_resubmit": false,
		}},
	)
	require.NoError(t, err)

	require.Equal(t, models.StatusSubmitted, updated.Status)
	require.Len(t, updated.Submissions, 1)
	require.Equal(t, "first draft", updated.Submissions[0].Comment)
	require.Equal(t, assignment.ID, updated.Submissions[0].AssignmentID)
}

func TestAssignmentRepositoryApplyRemoveByID(t *testing.T) {
	db := setupRepoDB(t)
	repo := repository.NewAssignmentRepository(db)
	assignment := seedAssignment(t, db)

	submission := models.Submission{AssignmentID: assignment.ID, SubmitByID: assignment.StudentID, Status: models.SubmissionStatusSubmitted}
	require.NoError(t, db.Create(&submission).Error)

	updated, err := repo.Apply(context.Background(), assignment.ID,
		repository.RemoveSubmission{ID: submission.ID},
		repository.SetFields{Fields: map[string]interface{}{"status": models.StatusNotSubmitted}},
	)
	require.NoError(t, err)
	require.Empty(t, updated.Submissions)
	require.Equal(t, models.StatusNotSubmitted, updated.Status)

	_, err = repo.Apply(context.Background(), assignment.ID, repository.RemoveSubmission{ID: submission.ID})
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestAssignmentRepositoryApplyReplaceFeedback(t *testing.T) {
	db := setupRepoDB(t)
	repo := repository.NewAssignmentRepository(db)
	assignment := seedAssignment(t, db)

	deadline := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	feedback := models.Feedback{AssignmentID: assignment.ID, SubmitByID: 3, Comment: "revise", Deadline: &deadline}
	require.NoError(t, db.Create(&feedback).Error)

	feedback.Comment = "actually fine"
	feedback.Deadline = nil

	updated, err := repo.Apply(context.Background(), assignment.ID,
		repository.ReplaceFeedback{Feedback: feedback},
	)
	require.NoError(t, err)
	require.Len(t, updated.Feedbacks, 1)
	require.Equal(t, "actually fine", updated.Feedbacks[0].Comment)
	require.Nil(t, updated.Feedbacks[0].Deadline)
}

func TestAssignmentRepositoryApplyMarkSeen(t *testing.T) {
	db := setupRepoDB(t)
	repo := repository.NewAssignmentRepository(db)
	assignment := seedAssignment(t, db)

	submission := models.Submission{AssignmentID: assignment.ID, SubmitByID: assignment.StudentID, Status: models.SubmissionStatusSubmitted}
	require.NoError(t, db.Create(&submission).Error)
	feedback := models.Feedback{AssignmentID: assignment.ID, SubmitByID: 3, Comment: "ok"}
	require.NoError(t, db.Create(&feedback).Error)

	updated, err := repo.Apply(context.Background(), assignment.ID,
		repository.MarkSubmissionSeen{ID: submission.ID, Seen: true},
		repository.MarkFeedbackSeen{ID: feedback.ID, Seen: true},
	)
	require.NoError(t, err)
	require.True(t, updated.Submissions[0].Seen)
	require.True(t, updated.Feedbacks[0].Seen)
}

func TestAssignmentRepositoryApplyUnknownAssignment(t *testing.T) {
	db := setupRepoDB(t)
	repo := repository.NewAssignmentRepository(db)

	_, err := repo.Apply(context.Background(), 999, repository.SetFields{Fields: map[string]interface{}{"status": models.StatusCompleted}})
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestAssignmentRepositoryFindByKey(t *testing.T) {
	db := setupRepoDB(t)
	repo := repository.NewAssignmentRepository(db)
	assignment := seedAssignment(t, db)

	found, err := repo.FindByKey(context.Background(), repository.AssignmentKey{
		ApplicationID:              assignment.ApplicationID,
		UnitID:                     assignment.UnitID,
		StudentID:                  assignment.StudentID,
		CourseMaterialAssignmentID: assignment.CourseMaterialAssignmentID,
	})
	require.NoError(t, err)
	require.Equal(t, assignment.ID, found.ID)

	_, err = repo.FindByKey(context.Background(), repository.AssignmentKey{ApplicationID: 42})
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
