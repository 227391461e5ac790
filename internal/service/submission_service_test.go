package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RubachokBoss/faculty-evaluation/internal/models"
)

// submitFixture sets up form-1 (rating, rating, text), one faculty member
// and students s1 and s2.
func submitFixture() *fixture {
	f := newFixture()
	f.addFaculty("fac-1", "Maria", "Santos", "Science")
	f.addStudent("s1", "")
	f.addStudent("s2", "")
	f.addForm("form-1", "starting", "rating_1_5", "rating_1_5", "text")
	return f
}

func answers(values ...string) *models.SubmitEvaluationRequest {
	req := &models.SubmitEvaluationRequest{}
	for i, v := range values {
		req.Responses = append(req.Responses, models.ResponseInput{
			QuestionID: "form-1-q" + string(rune('1'+i)),
			Value:      v,
		})
	}
	return req
}

func TestSubmitComputesScoreFromRatingsOnly(t *testing.T) {
	f := submitFixture()
	f.addAssignment("a1", "form-1", "s1", "fac-1", "pending", nil)

	feedback := "Very clear lessons"
	req := answers("4", "5", "good")
	req.Feedback = &feedback

	result, err := f.submissions.Submit(context.Background(), "a1", "s1", req)
	require.NoError(t, err)

	require.NotNil(t, result.Score)
	assert.Equal(t, 4.5, *result.Score)
	assert.Equal(t, 3, result.ResponsesRecorded)
	assert.Equal(t, fixedNow, result.SubmittedAt)

	stored := f.store.assignments["a1"]
	assert.Equal(t, "completed", stored.Status)
	require.NotNil(t, stored.Score)
	assert.Equal(t, 4.5, *stored.Score)
	require.NotNil(t, stored.CompletedAt)
	assert.Equal(t, fixedNow, *stored.SubmittedAt)
	assert.Equal(t, "Very clear lessons", *stored.Feedback)
	assert.Len(t, f.store.responses["a1"], 3)

	require.Len(t, f.publisher.submitted, 1)
	assert.Equal(t, "s1", f.publisher.submitted[0].StudentID)
}

func TestSubmitWithoutValidRatingsLeavesScoreNull(t *testing.T) {
	f := submitFixture()
	f.addAssignment("a1", "form-1", "s1", "fac-1", "in_progress", nil)

	result, err := f.submissions.Submit(context.Background(), "a1", "s1", answers("excellent", "n/a", "good"))
	require.NoError(t, err)

	assert.Nil(t, result.Score)
	assert.Nil(t, f.store.assignments["a1"].Score)
	assert.Equal(t, "completed", f.store.assignments["a1"].Status)
}

func TestSubmitTwiceFailsWithoutChangingData(t *testing.T) {
	f := submitFixture()
	f.addAssignment("a1", "form-1", "s1", "fac-1", "pending", nil)

	_, err := f.submissions.Submit(context.Background(), "a1", "s1", answers("4", "5", "good"))
	require.NoError(t, err)

	_, err = f.submissions.Submit(context.Background(), "a1", "s1", answers("1", "1", "bad"))
	assert.ErrorIs(t, err, ErrAlreadySubmitted)

	assert.Equal(t, 4.5, *f.store.assignments["a1"].Score)
	assert.Equal(t, "4", f.store.responses["a1"]["form-1-q1"].Value)
	assert.Equal(t, "good", f.store.responses["a1"]["form-1-q3"].Value)
}

func TestSubmitDeadline(t *testing.T) {
	tests := []struct {
		name    string
		dueDate int
		wantErr error
	}{
		{name: "due yesterday", dueDate: 11, wantErr: ErrDeadlineExpired},
		{name: "due today", dueDate: 12},
		{name: "due tomorrow", dueDate: 13},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := submitFixture()
			f.addAssignment("a1", "form-1", "s1", "fac-1", "pending", datePtr(2025, 3, tt.dueDate))

			_, err := f.submissions.Submit(context.Background(), "a1", "s1", answers("3", "3", ""))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, "pending", f.store.assignments["a1"].Status)
				assert.Empty(t, f.store.responses["a1"])
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "completed", f.store.assignments["a1"].Status)
		})
	}
}

func TestSubmitRejectsOtherStudentsAssignment(t *testing.T) {
	f := submitFixture()
	f.addAssignment("a1", "form-1", "s1", "fac-1", "pending", nil)

	_, err := f.submissions.Submit(context.Background(), "a1", "s2", answers("4"))
	assert.ErrorIs(t, err, ErrAssignmentNotFound)

	_, err = f.submissions.Submit(context.Background(), "missing", "s1", answers("4"))
	assert.ErrorIs(t, err, ErrAssignmentNotFound)
}

func TestSubmitIsAllOrNothing(t *testing.T) {
	f := submitFixture()
	f.addAssignment("a1", "form-1", "s1", "fac-1", "pending", nil)

	req := answers("4", "5")
	req.Responses = append(req.Responses, models.ResponseInput{QuestionID: "other-form-q1", Value: "5"})

	_, err := f.submissions.Submit(context.Background(), "a1", "s1", req)
	assert.ErrorIs(t, err, ErrValidation)

	assert.Empty(t, f.store.responses["a1"])
	assert.Equal(t, "pending", f.store.assignments["a1"].Status)
	assert.Nil(t, f.store.assignments["a1"].Score)
}

func TestSubmitLastAnswerWinsForRepeatedQuestion(t *testing.T) {
	f := submitFixture()
	f.addAssignment("a1", "form-1", "s1", "fac-1", "pending", nil)

	req := answers("2", "4")
	req.Responses = append(req.Responses, models.ResponseInput{QuestionID: "form-1-q1", Value: "5"})

	result, err := f.submissions.Submit(context.Background(), "a1", "s1", req)
	require.NoError(t, err)

	assert.Equal(t, 2, result.ResponsesRecorded)
	assert.Equal(t, 4.5, *result.Score)
	assert.Equal(t, "5", f.store.responses["a1"]["form-1-q1"].Value)
}

func TestSubmitOverwritesSavedDraftResponses(t *testing.T) {
	f := submitFixture()
	f.addAssignment("a1", "form-1", "s1", "fac-1", "in_progress", nil)
	f.addResponse("a1", "form-1-q1", "1")

	_, err := f.submissions.Submit(context.Background(), "a1", "s1", answers("5", "5"))
	require.NoError(t, err)

	assert.Len(t, f.store.responses["a1"], 2)
	assert.Equal(t, "5", f.store.responses["a1"]["form-1-q1"].Value)
	assert.Equal(t, 5.0, *f.store.assignments["a1"].Score)
}

func TestSubmitScoresEveryStoredAnswer(t *testing.T) {
	f := submitFixture()
	f.addAssignment("a1", "form-1", "s1", "fac-1", "in_progress", nil)
	f.addResponse("a1", "form-1-q2", "1")

	req := &models.SubmitEvaluationRequest{Responses: []models.ResponseInput{{QuestionID: "form-1-q1", Value: "5"}}}
	result, err := f.submissions.Submit(context.Background(), "a1", "s1", req)
	require.NoError(t, err)

	require.NotNil(t, result.Score)
	assert.Equal(t, 3.0, *result.Score)
	assert.Equal(t, 1, result.ResponsesRecorded)
	assert.Len(t, f.store.responses["a1"], 2)

	// a later report read finds nothing to correct
	report, err := f.reports.GetFormResponses(context.Background(), "form-1")
	require.NoError(t, err)
	assert.Zero(t, report.Statistics.ScoresReconciled)
	require.Len(t, report.Evaluations, 1)
	require.NotNil(t, report.Evaluations[0].Score)
	assert.Equal(t, *result.Score, *report.Evaluations[0].Score)
}

func TestConcurrentSubmitSucceedsOnce(t *testing.T) {
	f := submitFixture()
	f.addAssignment("a1", "form-1", "s1", "fac-1", "pending", nil)

	const attempts = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		rejected  int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.submissions.Submit(context.Background(), "a1", "s1", answers("4", "2"))

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, ErrAlreadySubmitted):
				rejected++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, attempts-1, rejected)
}

func TestAnonymousSubmissionEventOmitsStudent(t *testing.T) {
	f := submitFixture()
	f.store.forms["form-1"].IsAnonymous = true
	f.addAssignment("a1", "form-1", "s1", "fac-1", "pending", nil)

	_, err := f.submissions.Submit(context.Background(), "a1", "s1", answers("4"))
	require.NoError(t, err)

	require.Len(t, f.publisher.submitted, 1)
	assert.Empty(t, f.publisher.submitted[0].StudentID)
}

func TestStartAssignment(t *testing.T) {
	f := submitFixture()
	f.addAssignment("a1", "form-1", "s1", "fac-1", "pending", nil)
	f.addAssignment("a2", "form-1", "s2", "fac-1", "completed", nil)
	f.addAssignment("a3", "form-1", "s1", "fac-1", "pending", datePtr(2025, 3, 1))

	started, err := f.submissions.StartAssignment(context.Background(), "a1", "s1")
	require.NoError(t, err)
	assert.Equal(t, "in_progress", started.Status)
	require.NotNil(t, f.store.assignments["a1"].StartedAt)

	again, err := f.submissions.StartAssignment(context.Background(), "a1", "s1")
	require.NoError(t, err)
	assert.Equal(t, "in_progress", again.Status)

	_, err = f.submissions.StartAssignment(context.Background(), "a2", "s2")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = f.submissions.StartAssignment(context.Background(), "a3", "s1")
	assert.ErrorIs(t, err, ErrDeadlineExpired)

	_, err = f.submissions.StartAssignment(context.Background(), "a1", "s2")
	assert.ErrorIs(t, err, ErrAssignmentNotFound)
}

func TestStudentAssignmentViews(t *testing.T) {
	f := submitFixture()
	f.addAssignment("a1", "form-1", "s1", "fac-1", "pending", nil)
	f.addAssignment("a2", "form-1", "s1", "fac-1", "in_progress", datePtr(2025, 3, 1))
	f.addResponse("a1", "form-1-q2", "3")

	list, err := f.submissions.ListStudentAssignments(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "pending", list[0].EffectiveStatus)
	assert.Equal(t, "expired", list[1].EffectiveStatus)
	assert.Equal(t, "in_progress", list[1].Status)
	assert.Equal(t, "Maria Santos", list[0].FacultyName)

	view, err := f.submissions.GetStudentAssignment(context.Background(), "a1", "s1")
	require.NoError(t, err)
	assert.Len(t, view.Questions, 3)
	require.Len(t, view.Responses, 1)
	assert.Equal(t, "form-1-q2", view.Responses[0].QuestionID)

	_, err = f.submissions.GetStudentAssignment(context.Background(), "a1", "s2")
	assert.ErrorIs(t, err, ErrAssignmentNotFound)
}
