package service

import (
	"context"
	"testing"
	"time"

	"reading_eval_backend/internal/model"
	"reading_eval_backend/internal/service/servicetest"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

const testCodeSecret = "test-access-code-secret"

var baseTime = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

type fixture struct {
	mem    *servicetest.Memory
	files  *servicetest.Files
	policy *PolicyStore
	now    time.Time

	institutionID string
	teacher       model.Capability
	text          model.ReadingText
	quiz          model.Quiz
	classroom     model.Classroom

	codes    *AccessCodeService
	attempts *AttemptService
	sessions *SessionService
}

func noShuffle(n int, swap func(i, j int)) {}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		mem:           servicetest.NewMemory(),
		files:         servicetest.NewFiles(),
		policy:        NewPolicyStore(DefaultPolicy()),
		now:           baseTime,
		institutionID: uuid.NewString(),
	}
	f.teacher = model.Capability{UserID: uuid.NewString(), Role: model.Teacher, InstitutionID: f.institutionID}
	f.text = f.mem.AddText(f.institutionID)
	f.quiz = f.mem.AddQuiz(f.text.ID, 5, 3)
	f.classroom = f.mem.AddClassroom(f.institutionID)

	clock := func() time.Time { return f.now }
	issuer := NewCodeIssuer(f.mem.Codes(), testCodeSecret)

	f.codes = NewAccessCodeService(f.mem.Codes(), f.mem.Attempts(), f.mem.Sessions(), f.mem.Content(), issuer, f.policy, testCodeSecret)
	f.codes.Clock = clock
	f.codes.Shuffle = noShuffle

	f.attempts = NewAttemptService(f.mem.Attempts(), f.mem.Sessions(), f.mem.Answers(), f.mem.Content(), nil, f.policy)
	f.attempts.Clock = clock

	f.sessions = NewSessionService(f.mem.Sessions(), f.mem.Attempts(), f.mem.Codes(), f.mem.Content(), f.mem.Directory(), issuer, f.files, f.policy)
	f.sessions.Clock = clock
	return f
}

func (f *fixture) advance(d time.Duration) {
	f.now = f.now.Add(d)
}

func (f *fixture) setPolicy(mutate func(p *EvaluationPolicy)) {
	p := f.policy.Load()
	mutate(&p)
	f.policy.Store(p)
}

// publish 为 students 名学生发布一个 30 分钟的场次
func (f *fixture) publish(t *testing.T, students int) *PublishResult {
	t.Helper()
	for i := 0; i < students; i++ {
		f.mem.Enroll(f.classroom.ID, f.institutionID, "Estudiante "+string(rune('A'+i)), true)
	}
	result, err := f.sessions.Publish(context.Background(), f.teacher, PublishRequest{
		ClassroomID:      f.classroom.ID,
		TextID:           f.text.ID,
		QuizID:           f.quiz.ID,
		ExpiresInMinutes: 30,
	})
	require.NoError(t, err)
	return result
}

// correctAnswers 选择每题的正确选项
func (f *fixture) correctAnswers(n int) []ComprehensionInput {
	answers := make([]ComprehensionInput, 0, n)
	for _, q := range f.quiz.Questions[:n] {
		answers = append(answers, ComprehensionInput{QuestionID: q.ID, OptionID: q.Options[0].ID})
	}
	return answers
}
