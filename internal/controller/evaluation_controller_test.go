package controller

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"reading_eval_backend/internal/middleware"
	"reading_eval_backend/internal/model"
	"reading_eval_backend/internal/service"
	"reading_eval_backend/internal/service/servicetest"
	"reading_eval_backend/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testJWTSecret  = "controller-jwt-secret"
	testCodeSecret = "controller-code-secret"
)

type harness struct {
	router  *gin.Engine
	mem     *servicetest.Memory
	now     time.Time
	inst    string
	text    model.ReadingText
	quiz    model.Quiz
	room    model.Classroom
	teacher string
	tutor   string
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	h := &harness{
		mem:  servicetest.NewMemory(),
		now:  time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
		inst: uuid.NewString(),
	}
	h.text = h.mem.AddText(h.inst)
	h.quiz = h.mem.AddQuiz(h.text.ID, 3, 3)
	h.room = h.mem.AddClassroom(h.inst)
	h.mem.Enroll(h.room.ID, h.inst, "Lucía Pérez", true)
	h.mem.Enroll(h.room.ID, h.inst, "Mateo Ríos", true)

	clock := func() time.Time { return h.now }
	policy := service.NewPolicyStore(service.DefaultPolicy())
	issuer := service.NewCodeIssuer(h.mem.Codes(), testCodeSecret)

	codes := service.NewAccessCodeService(h.mem.Codes(), h.mem.Attempts(), h.mem.Sessions(), h.mem.Content(), issuer, policy, testCodeSecret)
	codes.Clock = clock
	attempts := service.NewAttemptService(h.mem.Attempts(), h.mem.Sessions(), h.mem.Answers(), h.mem.Content(), nil, policy)
	attempts.Clock = clock
	sessions := service.NewSessionService(h.mem.Sessions(), h.mem.Attempts(), h.mem.Codes(), h.mem.Content(), h.mem.Directory(), issuer, servicetest.NewFiles(), policy)
	sessions.Clock = clock

	evaluation := NewEvaluationController(codes, attempts)
	session := NewSessionController(sessions, codes)

	r := gin.New()
	r.POST("/api/evaluations/open", evaluation.Open)
	r.POST("/api/evaluations/attempts/:id/submit", evaluation.Submit)
	teacher := r.Group("/api/teacher", middleware.AuthMiddleware(testJWTSecret))
	teacher.GET("/sessions/:id/progress", middleware.RoleMiddleware(model.Teacher, model.Tutor), session.Progress)
	teacher.POST("/sessions", middleware.RoleMiddleware(model.Teacher), session.Publish)
	teacher.POST("/sessions/:id/close", middleware.RoleMiddleware(model.Teacher), session.Close)
	teacher.POST("/attempts/:id/code", middleware.RoleMiddleware(model.Teacher), session.RegenerateCode)
	h.router = r

	h.teacher = h.token(t, model.Teacher)
	h.tutor = h.token(t, model.Tutor)
	return h
}

func (h *harness) token(t *testing.T, role model.UserRole) string {
	t.Helper()
	token, err := util.GenerateJWT(model.Capability{UserID: uuid.NewString(), Role: role, InstitutionID: h.inst}, testJWTSecret, time.Hour)
	require.NoError(t, err)
	return token
}

func (h *harness) do(t *testing.T, method, path, token string, body interface{}) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w.Code, env
}

func (h *harness) publish(t *testing.T) service.PublishResult {
	t.Helper()
	status, env := h.do(t, http.MethodPost, "/api/teacher/sessions", h.teacher, service.PublishRequest{
		ClassroomID: h.room.ID, TextID: h.text.ID, QuizID: h.quiz.ID, ExpiresInMinutes: 20,
	})
	require.Equal(t, http.StatusCreated, status, env.Message)

	var result service.PublishResult
	require.NoError(t, json.Unmarshal(env.Data, &result))
	require.Len(t, result.Codes, 2)
	return result
}

func TestEvaluationFlow(t *testing.T) {
	h := newHarness(t)
	published := h.publish(t)
	issued := published.Codes[0]

	status, env := h.do(t, http.MethodPost, "/api/evaluations/open", "", OpenAttemptRequest{Code: issued.Code})
	require.Equal(t, http.StatusOK, status, env.Message)
	var snapshot service.AttemptSnapshot
	require.NoError(t, json.Unmarshal(env.Data, &snapshot))
	assert.Equal(t, issued.AttemptID, snapshot.AttemptID)
	assert.Len(t, snapshot.Questions, 3)
	assert.NotContains(t, string(env.Data), "isCorrect")

	sub := service.Submission{ReadingTimeMs: 60000}
	for _, q := range h.quiz.Questions {
		sub.Answers = append(sub.Answers, service.ComprehensionInput{QuestionID: q.ID, OptionID: q.Options[0].ID})
	}
	path := "/api/evaluations/attempts/" + issued.AttemptID + "/submit"

	status, env = h.do(t, http.MethodPost, path, "", sub)
	require.Equal(t, http.StatusOK, status, env.Message)
	var result service.SubmitResult
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Equal(t, 3, result.TotalQuestions)
	assert.Equal(t, 100.0, result.ScorePercent)

	status, _ = h.do(t, http.MethodPost, path, "", sub)
	assert.Equal(t, http.StatusConflict, status)
}

func TestOpen_Errors(t *testing.T) {
	h := newHarness(t)
	published := h.publish(t)

	status, _ := h.do(t, http.MethodPost, "/api/evaluations/open", "", gin.H{})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = h.do(t, http.MethodPost, "/api/evaluations/open", "", OpenAttemptRequest{Code: "ZZZZZZ"})
	assert.Equal(t, http.StatusNotFound, status)

	h.now = published.ExpiresAt
	status, _ = h.do(t, http.MethodPost, "/api/evaluations/open", "", OpenAttemptRequest{Code: published.Codes[0].Code})
	assert.Equal(t, http.StatusGone, status)
}

func TestSubmit_Errors(t *testing.T) {
	h := newHarness(t)
	published := h.publish(t)
	path := "/api/evaluations/attempts/" + published.Codes[1].AttemptID + "/submit"

	status, _ := h.do(t, http.MethodPost, path, "", service.Submission{ReadingTimeMs: -5})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = h.do(t, http.MethodPost, "/api/evaluations/attempts/"+uuid.NewString()+"/submit", "", service.Submission{})
	assert.Equal(t, http.StatusNotFound, status)

	h.now = published.ExpiresAt.Add(time.Second)
	status, _ = h.do(t, http.MethodPost, path, "", service.Submission{})
	assert.Equal(t, http.StatusGone, status)
}

func TestTeacherEndpoints(t *testing.T) {
	h := newHarness(t)

	status, _ := h.do(t, http.MethodPost, "/api/teacher/sessions", "", service.PublishRequest{})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = h.do(t, http.MethodPost, "/api/teacher/sessions", h.tutor, service.PublishRequest{
		ClassroomID: h.room.ID, TextID: h.text.ID, QuizID: h.quiz.ID, ExpiresInMinutes: 20,
	})
	assert.Equal(t, http.StatusForbidden, status)

	empty := h.mem.AddClassroom(h.inst)
	status, _ = h.do(t, http.MethodPost, "/api/teacher/sessions", h.teacher, service.PublishRequest{
		ClassroomID: empty.ID, TextID: h.text.ID, QuizID: h.quiz.ID, ExpiresInMinutes: 20,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, status)

	published := h.publish(t)

	status, env := h.do(t, http.MethodGet, "/api/teacher/sessions/"+published.SessionID+"/progress", h.tutor, nil)
	require.Equal(t, http.StatusOK, status)
	var progress service.SessionProgress
	require.NoError(t, json.Unmarshal(env.Data, &progress))
	assert.Equal(t, 2, progress.Total)

	status, _ = h.do(t, http.MethodPost, "/api/teacher/attempts/"+published.Codes[0].AttemptID+"/code", h.teacher, nil)
	assert.Equal(t, http.StatusCreated, status)

	status, _ = h.do(t, http.MethodPost, "/api/teacher/sessions/"+published.SessionID+"/close", h.teacher, nil)
	assert.Equal(t, http.StatusOK, status)

	status, _ = h.do(t, http.MethodPost, "/api/teacher/attempts/"+published.Codes[0].AttemptID+"/code", h.teacher, nil)
	assert.Equal(t, http.StatusGone, status)

	status, _ = h.do(t, http.MethodGet, "/api/teacher/sessions/"+uuid.NewString()+"/progress", h.teacher, nil)
	assert.Equal(t, http.StatusNotFound, status)
}
