package service

import (
	"context"
	"encoding/csv"
	"errors"
	"strings"
	"testing"
	"time"

	"reading_eval_backend/internal/model"
	"reading_eval_backend/internal/util"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublish_FansOutOneAttemptAndCodePerActiveEnrollment(t *testing.T) {
	f := newFixture(t)
	f.mem.Enroll(f.classroom.ID, f.institutionID, "Inactivo", false)
	published := f.publish(t, 3)

	require.Len(t, published.Codes, 3)
	assert.Equal(t, baseTime.Add(30*time.Minute), published.ExpiresAt)

	session := f.mem.Session(published.SessionID)
	assert.Equal(t, model.SessionOpen, session.Status)
	assert.Equal(t, f.institutionID, session.InstitutionID)
	assert.Equal(t, f.teacher.UserID, session.PublishedBy)
	assert.Equal(t, baseTime, session.PublishedAt)
	assert.Nil(t, session.ClosedAt)

	seen := make(map[string]bool)
	for _, issued := range published.Codes {
		assert.False(t, seen[issued.Code], "duplicate code %s", issued.Code)
		seen[issued.Code] = true
		assert.Len(t, issued.Code, 6)
		assert.NotEmpty(t, issued.StudentName)

		attempt := f.mem.Attempt(issued.AttemptID)
		assert.Equal(t, published.SessionID, attempt.SessionID)
		assert.Equal(t, model.AttemptPending, attempt.Status)
		assert.Nil(t, attempt.SubmittedAt)
		assert.Nil(t, attempt.ScorePercent)

		codes := f.mem.AllCodes(issued.AttemptID)
		require.Len(t, codes, 1)
		assert.Equal(t, util.DigestAccessCode(issued.Code, testCodeSecret), codes[0].CodeDigest)
		assert.Equal(t, published.ExpiresAt, codes[0].ExpiresAt)
	}
}

func TestPublish_Validation(t *testing.T) {
	f := newFixture(t)
	otherText := f.mem.AddText(f.institutionID)
	foreignQuiz := f.mem.AddQuiz(otherText.ID, 1, 2)
	emptyRoom := f.mem.AddClassroom(f.institutionID)
	f.mem.Enroll(f.classroom.ID, f.institutionID, "Ana", true)

	valid := PublishRequest{ClassroomID: f.classroom.ID, TextID: f.text.ID, QuizID: f.quiz.ID, ExpiresInMinutes: 45}

	tests := []struct {
		name   string
		scope  model.Capability
		mutate func(r *PublishRequest)
		want   error
	}{
		{"tutor cannot publish", model.Capability{UserID: uuid.NewString(), Role: model.Tutor, InstitutionID: f.institutionID}, nil, util.ErrPermissionDenied},
		{"zero minutes", f.teacher, func(r *PublishRequest) { r.ExpiresInMinutes = 0 }, util.ErrValidation},
		{"too many minutes", f.teacher, func(r *PublishRequest) { r.ExpiresInMinutes = util.MaxSessionMinutes + 1 }, util.ErrValidation},
		{"unknown classroom", f.teacher, func(r *PublishRequest) { r.ClassroomID = uuid.NewString() }, util.ErrClassroomNotFound},
		{"unknown text", f.teacher, func(r *PublishRequest) { r.TextID = uuid.NewString() }, util.ErrTextNotFound},
		{"unknown quiz", f.teacher, func(r *PublishRequest) { r.QuizID = uuid.NewString() }, util.ErrQuizNotFound},
		{"quiz of another text", f.teacher, func(r *PublishRequest) { r.QuizID = foreignQuiz.ID }, util.ErrValidation},
		{"empty classroom", f.teacher, func(r *PublishRequest) { r.ClassroomID = emptyRoom.ID }, util.ErrClassroomEmpty},
		{"other institution", model.Capability{UserID: uuid.NewString(), Role: model.Teacher, InstitutionID: uuid.NewString()}, nil, util.ErrClassroomNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			if tt.mutate != nil {
				tt.mutate(&req)
			}
			_, err := f.sessions.Publish(context.Background(), tt.scope, req)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, err := f.sessions.Publish(context.Background(), f.teacher, valid)
	assert.NoError(t, err)
}

func TestPublish_PersistenceFailure(t *testing.T) {
	f := newFixture(t)
	f.mem.PublishErr = errors.New("tx aborted")
	f.mem.Enroll(f.classroom.ID, f.institutionID, "Ana", true)

	_, err := f.sessions.Publish(context.Background(), f.teacher, PublishRequest{
		ClassroomID: f.classroom.ID, TextID: f.text.ID, QuizID: f.quiz.ID, ExpiresInMinutes: 10,
	})
	assert.ErrorIs(t, err, util.ErrUpdateFailed)
}

func TestClose_IsIdempotent(t *testing.T) {
	f := newFixture(t)
	published := f.publish(t, 1)

	f.advance(5 * time.Minute)
	closedAt := f.now
	session, err := f.sessions.Close(context.Background(), f.teacher, published.SessionID)
	require.NoError(t, err)
	assert.Equal(t, model.SessionClosed, session.Status)
	require.NotNil(t, session.ClosedAt)
	assert.Equal(t, closedAt, *session.ClosedAt)

	f.advance(5 * time.Minute)
	again, err := f.sessions.Close(context.Background(), f.teacher, published.SessionID)
	require.NoError(t, err)
	assert.Equal(t, closedAt, *again.ClosedAt)
	assert.Equal(t, closedAt, *f.mem.Session(published.SessionID).ClosedAt)
	assert.Equal(t, model.SessionClosed, f.sessions.EffectiveStatus(again))
}

func TestClose_ScopedToInstitution(t *testing.T) {
	f := newFixture(t)
	published := f.publish(t, 1)

	outsider := model.Capability{UserID: uuid.NewString(), Role: model.Admin, InstitutionID: uuid.NewString()}
	_, err := f.sessions.Close(context.Background(), outsider, published.SessionID)
	assert.ErrorIs(t, err, util.ErrSessionNotFound)
	assert.Nil(t, f.mem.Session(published.SessionID).ClosedAt)
}

func TestEffectiveStatus(t *testing.T) {
	f := newFixture(t)
	expires := baseTime.Add(time.Hour)
	closed := baseTime.Add(30 * time.Minute)

	open := &model.EvaluationSession{Status: model.SessionOpen, ExpiresAt: expires}
	assert.Equal(t, model.SessionOpen, f.sessions.EffectiveStatus(open))

	f.now = expires
	assert.Equal(t, model.SessionExpired, f.sessions.EffectiveStatus(open))

	// 关闭优先于过期
	closedSession := &model.EvaluationSession{Status: model.SessionClosed, ExpiresAt: expires, ClosedAt: &closed}
	assert.Equal(t, model.SessionClosed, f.sessions.EffectiveStatus(closedSession))
}

func TestProgress(t *testing.T) {
	f := newFixture(t)
	published := f.publish(t, 3)

	_, err := f.attempts.Submit(context.Background(), published.Codes[0].AttemptID, Submission{Answers: f.correctAnswers(4)})
	require.NoError(t, err)
	wrong := f.correctAnswers(2)
	wrong[1].OptionID = f.quiz.Questions[1].Options[2].ID
	_, err = f.attempts.Submit(context.Background(), published.Codes[1].AttemptID, Submission{Answers: wrong})
	require.NoError(t, err)

	tutor := model.Capability{UserID: uuid.NewString(), Role: model.Tutor, InstitutionID: f.institutionID}
	progress, err := f.sessions.Progress(context.Background(), tutor, published.SessionID)
	require.NoError(t, err)

	assert.Equal(t, model.SessionOpen, progress.Status)
	assert.Equal(t, 3, progress.Total)
	assert.Equal(t, 2, progress.Counts[model.AttemptSubmitted])
	assert.Equal(t, 1, progress.Counts[model.AttemptPending])
	require.NotNil(t, progress.AverageScore)
	assert.Equal(t, 75.0, *progress.AverageScore)

	f.now = published.ExpiresAt
	progress, err = f.sessions.Progress(context.Background(), tutor, published.SessionID)
	require.NoError(t, err)
	assert.Equal(t, model.SessionExpired, progress.Status)
	assert.Equal(t, 1, progress.Counts[model.AttemptExpired])
	assert.Equal(t, 2, progress.Counts[model.AttemptSubmitted])
}

func TestListAttempts_IncludesUsableCode(t *testing.T) {
	f := newFixture(t)
	published := f.publish(t, 2)

	regenerated, err := f.codes.Regenerate(context.Background(), f.teacher, published.Codes[0].AttemptID)
	require.NoError(t, err)

	views, err := f.sessions.ListAttempts(context.Background(), f.teacher, published.SessionID)
	require.NoError(t, err)
	require.Len(t, views, 2)

	byAttempt := make(map[string]AttemptView)
	for _, v := range views {
		byAttempt[v.AttemptID] = v
	}
	assert.Equal(t, regenerated.Code, byAttempt[published.Codes[0].AttemptID].Code)
	assert.Equal(t, published.Codes[1].Code, byAttempt[published.Codes[1].AttemptID].Code)
	assert.Equal(t, published.Codes[1].StudentName, byAttempt[published.Codes[1].AttemptID].StudentName)

	// 过期后不再展示访问码
	f.now = published.ExpiresAt
	views, err = f.sessions.ListAttempts(context.Background(), f.teacher, published.SessionID)
	require.NoError(t, err)
	for _, v := range views {
		assert.Empty(t, v.Code)
		assert.Equal(t, model.AttemptExpired, v.Status)
	}
}

func TestExportCodeSheet(t *testing.T) {
	f := newFixture(t)
	published := f.publish(t, 2)

	sheet, err := f.sessions.ExportCodeSheet(context.Background(), f.teacher, published.SessionID)
	require.NoError(t, err)
	assert.Equal(t, 2, sheet.Rows)
	assert.True(t, strings.HasPrefix(sheet.Filename, "code-sheets/"+published.SessionID))
	assert.Equal(t, "https://files.test/"+sheet.Filename, sheet.URL)

	records, err := csv.NewReader(strings.NewReader(string(f.files.Uploaded[sheet.Filename]))).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"student", "code", "expires_at", "status", "score_percent"}, records[0])

	codes := map[string]bool{}
	for _, row := range records[1:] {
		codes[row[1]] = true
		assert.Equal(t, string(model.AttemptPending), row[3])
	}
	for _, issued := range published.Codes {
		assert.True(t, codes[issued.Code])
	}

	tutor := model.Capability{UserID: uuid.NewString(), Role: model.Tutor, InstitutionID: f.institutionID}
	_, err = f.sessions.ExportCodeSheet(context.Background(), tutor, published.SessionID)
	assert.ErrorIs(t, err, util.ErrPermissionDenied)

	f.files.Err = errors.New("bucket missing")
	_, err = f.sessions.ExportCodeSheet(context.Background(), f.teacher, published.SessionID)
	assert.ErrorIs(t, err, util.ErrUpdateFailed)
}
