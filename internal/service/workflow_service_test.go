package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/hridoy-islam/watenycollage-sub000/internal/dto"
	"github.com/hridoy-islam/watenycollage-sub000/internal/models"
	"github.com/hridoy-islam/watenycollage-sub000/internal/repository"
	"github.com/hridoy-islam/watenycollage-sub000/internal/workflow"
)

type fakeAssignmentRepo struct {
	assignments map[uint]models.Assignment
	material    models.CourseMaterialAssignment
	nextID      uint
	nextChildID uint
	applyErr    error
	applyCalls  int
	createCalls int
	listFilter  repository.AssignmentFilter
}

func newFakeAssignmentRepo() *fakeAssignmentRepo {
	return &fakeAssignmentRepo{assignments: make(map[uint]models.Assignment)}
}

func (f *fakeAssignmentRepo) List(ctx context.Context, filter repository.AssignmentFilter) ([]models.Assignment, error) {
	f.listFilter = filter
	out := make([]models.Assignment, 0, len(f.assignments))
	for _, a := range f.assignments {
		out = append(out, a)
	}
	return out, nil
}

func (f *fakeAssignmentRepo) GetByID(ctx context.Context, id uint) (models.Assignment, error) {
	a, ok := f.assignments[id]
	if !ok {
		return models.Assignment{}, gorm.ErrRecordNotFound
	}
	a.Material = f.material
	return a, nil
}

func (f *fakeAssignmentRepo) FindByKey(ctx context.Context, key repository.AssignmentKey) (models.Assignment, error) {
	for _, a := range f.assignments {
		if a.ApplicationID == key.ApplicationID && a.UnitID == key.UnitID &&
			a.StudentID == key.StudentID && a.CourseMaterialAssignmentID == key.CourseMaterialAssignmentID {
			a.Material = f.material
			return a, nil
		}
	}
	return models.Assignment{}, gorm.ErrRecordNotFound
}

func (f *fakeAssignmentRepo) Create(ctx context.Context, assignment *models.Assignment) error {
	f.createCalls++
	f.nextID++
	assignment.ID = f.nextID
	f.assignments[assignment.ID] = *assignment
	return nil
}

func (f *fakeAssignmentRepo) Apply(ctx context.Context, id uint, commands ...repository.Command) (models.Assignment, error) {
	f.applyCalls++
	if f.applyErr != nil {
		return models.Assignment{}, f.applyErr
	}

	a, ok := f.assignments[id]
	if !ok {
		return models.Assignment{}, gorm.ErrRecordNotFound
	}

	for _, command := range commands {
		switch cmd := command.(type) {
		case repository.AppendSubmission:
			submission := cmd.Submission
			f.nextChildID++
			submission.ID = f.nextChildID
			submission.AssignmentID = id
			a.Submissions = append(a.Submissions, submission)
		case repository.AppendFeedback:
			feedback := cmd.Feedback
			f.nextChildID++
			feedback.ID = f.nextChildID
			feedback.AssignmentID = id
			a.Feedbacks = append(a.Feedbacks, feedback)
		case repository.ReplaceSubmission:
			for i := range a.Submissions {
				if a.Submissions[i].ID == cmd.Submission.ID {
					a.Submissions[i].Files = cmd.Submission.Files
					a.Submissions[i].Comment = cmd.Submission.Comment
				}
			}
		case repository.ReplaceFeedback:
			for i := range a.Feedbacks {
				if a.Feedbacks[i].ID == cmd.Feedback.ID {
					a.Feedbacks[i].Comment = cmd.Feedback.Comment
					a.Feedbacks[i].Files = cmd.Feedback.Files
					a.Feedbacks[i].Deadline = cmd.Feedback.Deadline
				}
			}
		case repository.RemoveSubmission:
			kept := a.Submissions[:0]
			for _, s := range a.Submissions {
				if s.ID != cmd.ID {
					kept = append(kept, s)
				}
			}
			a.Submissions = kept
		case repository.RemoveFeedback:
			kept := a.Feedbacks[:0]
			for _, fb := range a.Feedbacks {
				if fb.ID != cmd.ID {
					kept = append(kept, fb)
				}
			}
			a.Feedbacks = kept
		case repository.SetFields:
			if status, ok := cmd.Fields["status"].(string); ok {
				a.Status = status
			}
			if resubmit, ok := cmd.Fields["require_resubmit"].(bool); ok {
				a.RequireResubmit = resubmit
			}
			if final, ok := cmd.Fields["final_feedback"]; ok {
				a.FinalFeedback = toJSON(final)
			}
			if seen, ok := cmd.Fields["final_feedback_seen"].(bool); ok {
				a.FinalFeedbackSeen = seen
			}
			if obs, ok := cmd.Fields["observation_feedback"]; ok {
				a.ObservationFeedback = toJSON(obs)
			}
			if seen, ok := cmd.Fields["observation_feedback_seen"].(bool); ok {
				a.ObservationFeedbackSeen = seen
			}
		case repository.MarkSubmissionSeen:
			for i := range a.Submissions {
				if a.Submissions[i].ID == cmd.ID {
					a.Submissions[i].Seen = cmd.Seen
				}
			}
		case repository.MarkFeedbackSeen:
			for i := range a.Feedbacks {
				if a.Feedbacks[i].ID == cmd.ID {
					a.Feedbacks[i].Seen = cmd.Seen
				}
			}
		}
	}

	f.assignments[id] = a
	a.Material = f.material
	return a, nil
}

func toJSON(value interface{}) datatypes.JSON {
	switch v := value.(type) {
	case datatypes.JSON:
		return v
	case []byte:
		return v
	default:
		return nil
	}
}

type fakeMaterialLookup struct {
	material models.CourseMaterialAssignment
	missing  bool
}

func (f *fakeMaterialLookup) Lookup(ctx context.Context, id uint) (models.CourseMaterialAssignment, error) {
	if f.missing {
		return models.CourseMaterialAssignment{}, ErrMaterialNotFound
	}
	return f.material, nil
}

func (f *fakeMaterialLookup) List(ctx context.Context, unitID *uint) ([]dto.MaterialResponse, error) {
	return nil, nil
}

func (f *fakeMaterialLookup) Get(ctx context.Context, id uint) (dto.MaterialResponse, error) {
	return dto.NewMaterialResponse(f.material), nil
}

func (f *fakeMaterialLookup) Create(ctx context.Context, payload dto.MaterialCreateRequest) (dto.MaterialResponse, error) {
	return dto.MaterialResponse{}, nil
}

func (f *fakeMaterialLookup) Update(ctx context.Context, id uint, payload dto.MaterialUpdateRequest) (dto.MaterialResponse, error) {
	return dto.MaterialResponse{}, nil
}

type fakeUserRepo struct {
	users map[uint]models.User
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id uint) (models.User, error) {
	if f.users == nil {
		return models.User{ID: id, Role: models.RoleStudent}, nil
	}
	u, ok := f.users[id]
	if !ok {
		return models.User{}, gorm.ErrRecordNotFound
	}
	return u, nil
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (models.User, error) {
	return models.User{}, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) Create(ctx context.Context, user *models.User) error { return nil }

func newWorkflowTestService(repo *fakeAssignmentRepo, materials MaterialService) AssignmentWorkflowService {
	validate := validator.New(validator.WithRequiredStructEnabled())
	return NewAssignmentWorkflowService(repo, &fakeUserRepo{}, materials, validate, nil, zerolog.Nop())
}

func TestWorkflowSubmitMaterializesAssignment(t *testing.T) {
	repo := newFakeAssignmentRepo()
	repo.material = models.CourseMaterialAssignment{ID: 9, Title: "Unit 3 Essay"}
	svc := newWorkflowTestService(repo, &fakeMaterialLookup{material: repo.material})

	actor := workflow.Actor{ID: 4, Role: models.RoleStudent}
	resp, err := svc.Submit(context.Background(), dto.SubmissionCreateRequest{
		ApplicationID:              1,
		UnitID:                     3,
		CourseMaterialAssignmentID: 9,
		Files:                      []string{"https://files.wateny.ac.uk/essay.pdf"},
		Comment:                    "first draft",
	}, actor)
	require.NoError(t, err)

	require.Equal(t, 1, repo.createCalls)
	require.Equal(t, models.StatusSubmitted, resp.Status)
	require.Equal(t, uint(4), resp.StudentID)
	require.Len(t, resp.Submissions, 1)
	require.Equal(t, models.SubmissionStatusSubmitted, resp.Submissions[0].Status)
	require.False(t, resp.CanSubmit)
}

func TestWorkflowSubmitRejectedWhenClosed(t *testing.T) {
	repo := newFakeAssignmentRepo()
	repo.assignments[1] = models.Assignment{
		ID: 1, ApplicationID: 1, UnitID: 3, StudentID: 4, CourseMaterialAssignmentID: 9,
		Status:      models.StatusSubmitted,
		Submissions: []models.Submission{{ID: 11, SubmitByID: 4, Status: models.SubmissionStatusSubmitted}},
	}
	svc := newWorkflowTestService(repo, &fakeMaterialLookup{material: models.CourseMaterialAssignment{ID: 9}})

	actor := workflow.Actor{ID: 4, Role: models.RoleStudent}
	_, err := svc.Submit(context.Background(), dto.SubmissionCreateRequest{
		ApplicationID:              1,
		UnitID:                     3,
		CourseMaterialAssignmentID: 9,
		Files:                      []string{"https://files.wateny.ac.uk/essay-v2.pdf"},
	}, actor)
	require.ErrorIs(t, err, workflow.ErrSubmissionNotAllowed)
	require.Equal(t, 0, repo.applyCalls)
}

func TestWorkflowSubmitOnBehalfByStaff(t *testing.T) {
	repo := newFakeAssignmentRepo()
	svc := newWorkflowTestService(repo, &fakeMaterialLookup{material: models.CourseMaterialAssignment{ID: 9}})

	studentID := uint(4)
	actor := workflow.Actor{ID: 20, Role: models.RoleTeacher}
	resp, err := svc.Submit(context.Background(), dto.SubmissionCreateRequest{
		ApplicationID:              1,
		UnitID:                     3,
		CourseMaterialAssignmentID: 9,
		StudentID:                  &studentID,
		Files:                      []string{"https://files.wateny.ac.uk/paper-submission.pdf"},
	}, actor)
	require.NoError(t, err)
	require.Equal(t, studentID, resp.StudentID)
	require.Equal(t, models.StatusSubmitted, resp.Status)
}

func TestWorkflowSubmitOnBehalfUnknownStudent(t *testing.T) {
	repo := newFakeAssignmentRepo()
	validate := validator.New(validator.WithRequiredStructEnabled())
	users := &fakeUserRepo{users: map[uint]models.User{}}
	svc := NewAssignmentWorkflowService(repo, users, &fakeMaterialLookup{material: models.CourseMaterialAssignment{ID: 9}}, validate, nil, zerolog.Nop())

	missing := uint(404)
	_, err := svc.Submit(context.Background(), dto.SubmissionCreateRequest{
		ApplicationID:              1,
		UnitID:                     3,
		CourseMaterialAssignmentID: 9,
		StudentID:                  &missing,
		Files:                      []string{"https://files.wateny.ac.uk/paper.pdf"},
	}, workflow.Actor{ID: 20, Role: models.RoleTeacher})
	require.ErrorIs(t, err, ErrStudentNotFound)
	require.Equal(t, 0, repo.createCalls)
}

func TestWorkflowFeedbackRequiresResubmission(t *testing.T) {
	repo := newFakeAssignmentRepo()
	repo.assignments[1] = models.Assignment{
		ID: 1, StudentID: 4,
		Status:      models.StatusSubmitted,
		Submissions: []models.Submission{{ID: 11, SubmitByID: 4, Status: models.SubmissionStatusSubmitted}},
	}
	svc := newWorkflowTestService(repo, &fakeMaterialLookup{})

	deadline := time.Now().Add(7 * 24 * time.Hour)
	actor := workflow.Actor{ID: 20, Role: models.RoleTeacher}
	resp, err := svc.GiveFeedback(context.Background(), 1, dto.FeedbackCreateRequest{
		Comment:         "cite your sources",
		RequireResubmit: true,
		Deadline:        &deadline,
	}, actor)
	require.NoError(t, err)
	require.Equal(t, models.StatusResubmissionRequired, resp.Status)
	require.True(t, resp.RequireResubmit)
	require.True(t, resp.CanSubmit)
	require.Len(t, resp.Feedbacks, 1)
	require.NotNil(t, resp.Feedbacks[0].Deadline)
}

func TestWorkflowFeedbackWithoutDemandCompletes(t *testing.T) {
	repo := newFakeAssignmentRepo()
	repo.assignments[1] = models.Assignment{
		ID: 1, StudentID: 4,
		Status:      models.StatusSubmitted,
		Submissions: []models.Submission{{ID: 11, SubmitByID: 4, Status: models.SubmissionStatusSubmitted}},
	}
	svc := newWorkflowTestService(repo, &fakeMaterialLookup{})

	actor := workflow.Actor{ID: 20, Role: models.RoleTeacher}
	resp, err := svc.GiveFeedback(context.Background(), 1, dto.FeedbackCreateRequest{Comment: "well done"}, actor)
	require.NoError(t, err)
	require.Equal(t, models.StatusCompleted, resp.Status)
	require.False(t, resp.RequireResubmit)
	require.False(t, resp.CanSubmit)
}

func TestWorkflowRepositoryFailureRollsBack(t *testing.T) {
	repo := newFakeAssignmentRepo()
	repo.assignments[1] = models.Assignment{
		ID: 1, StudentID: 4,
		Status:      models.StatusSubmitted,
		Submissions: []models.Submission{{ID: 11, SubmitByID: 4, Status: models.SubmissionStatusSubmitted}},
	}
	svc := newWorkflowTestService(repo, &fakeMaterialLookup{})

	actor := workflow.Actor{ID: 20, Role: models.RoleTeacher}

	// warm the snapshot, then fail the persistence call
	_, err := svc.Get(context.Background(), 1, actor)
	require.NoError(t, err)

	repo.applyErr = errors.New("connection reset")
	_, err = svc.GiveFeedback(context.Background(), 1, dto.FeedbackCreateRequest{Comment: "lost"}, actor)
	require.Error(t, err)

	// the optimistic transition must not survive the failure
	resp, err := svc.Get(context.Background(), 1, actor)
	require.NoError(t, err)
	require.Equal(t, models.StatusSubmitted, resp.Status)
	require.Empty(t, resp.Feedbacks)
}

func TestWorkflowListScopesStudents(t *testing.T) {
	repo := newFakeAssignmentRepo()
	svc := newWorkflowTestService(repo, &fakeMaterialLookup{})

	other := uint(99)
	_, err := svc.List(context.Background(), dto.AssignmentFilter{StudentID: &other}, workflow.Actor{ID: 4, Role: models.RoleStudent})
	require.NoError(t, err)
	require.NotNil(t, repo.listFilter.StudentID)
	require.Equal(t, uint(4), *repo.listFilter.StudentID)

	_, err = svc.List(context.Background(), dto.AssignmentFilter{StudentID: &other}, workflow.Actor{ID: 20, Role: models.RoleTeacher})
	require.NoError(t, err)
	require.NotNil(t, repo.listFilter.StudentID)
	require.Equal(t, other, *repo.listFilter.StudentID)
}

func TestWorkflowGetDeniesForeignStudent(t *testing.T) {
	repo := newFakeAssignmentRepo()
	repo.assignments[1] = models.Assignment{ID: 1, StudentID: 4, Status: models.StatusSubmitted}
	svc := newWorkflowTestService(repo, &fakeMaterialLookup{})

	_, err := svc.Get(context.Background(), 1, workflow.Actor{ID: 5, Role: models.RoleStudent})
	require.ErrorIs(t, err, workflow.ErrPermissionDenied)
}

func TestWorkflowFinalFeedbackCompletes(t *testing.T) {
	repo := newFakeAssignmentRepo()
	repo.assignments[1] = models.Assignment{
		ID: 1, StudentID: 4,
		Status:      models.StatusSubmitted,
		Submissions: []models.Submission{{ID: 11, SubmitByID: 4, Status: models.SubmissionStatusSubmitted}},
	}
	svc := newWorkflowTestService(repo, &fakeMaterialLookup{})

	fulfilled := true
	actor := workflow.Actor{ID: 20, Role: models.RoleTeacher}
	resp, err := svc.PutFinalFeedback(context.Background(), 1, dto.FinalFeedbackRequest{
		Outcomes: []dto.LearningOutcomeRequest{{
			Title: "LO1",
			Criteria: []dto.AssessmentCriterionRequest{{
				Description: "Analyses primary sources",
				Fulfilled:   &fulfilled,
				Comment:     "thorough",
			}},
		}},
	}, actor)
	require.NoError(t, err)
	require.Equal(t, models.StatusCompleted, resp.Status)
	require.NotNil(t, resp.FinalFeedback)
	require.Len(t, resp.FinalFeedback.Outcomes, 1)
	require.False(t, resp.FinalFeedbackSeen)
}

func TestWorkflowObservationFeedbackSetsFeedbackGiven(t *testing.T) {
	repo := newFakeAssignmentRepo()
	repo.assignments[1] = models.Assignment{
		ID: 1, StudentID: 4,
		Status:      models.StatusSubmitted,
		Submissions: []models.Submission{{ID: 11, SubmitByID: 4, Status: models.SubmissionStatusSubmitted}},
	}
	svc := newWorkflowTestService(repo, &fakeMaterialLookup{})

	actor := workflow.Actor{ID: 20, Role: models.RoleTeacher}
	resp, err := svc.PutObservationFeedback(context.Background(), 1, dto.ObservationFeedbackRequest{
		Comment: "strong presentation under observation",
	}, actor)
	require.NoError(t, err)
	require.Equal(t, models.StatusFeedbackGiven, resp.Status)
	require.NotNil(t, resp.ObservationFeedback)
}

func TestWorkflowMarkSubmissionSeenStaffOnly(t *testing.T) {
	repo := newFakeAssignmentRepo()
	repo.assignments[1] = models.Assignment{
		ID: 1, StudentID: 4,
		Status:      models.StatusSubmitted,
		Submissions: []models.Submission{{ID: 11, SubmitByID: 4, Status: models.SubmissionStatusSubmitted}},
	}
	svc := newWorkflowTestService(repo, &fakeMaterialLookup{})

	_, err := svc.MarkSubmissionSeen(context.Background(), 1, 11, workflow.Actor{ID: 4, Role: models.RoleStudent})
	require.ErrorIs(t, err, workflow.ErrPermissionDenied)

	resp, err := svc.MarkSubmissionSeen(context.Background(), 1, 11, workflow.Actor{ID: 20, Role: models.RoleTeacher})
	require.NoError(t, err)
	require.True(t, resp.Submissions[0].Seen)
}
