package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"reading_eval_backend/internal/model"
	"reading_eval_backend/internal/util"
	"reading_eval_backend/pkg/logger"
	"reading_eval_backend/pkg/monitoring"
	"reading_eval_backend/pkg/tracing"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// FilePublisher 上传文件并返回下载链接
type FilePublisher interface {
	Publish(ctx context.Context, filename string, reader io.Reader, size int64, contentType string) (string, error)
}

type PublishRequest struct {
	ClassroomID      string `json:"classroomId" binding:"required,uuid"`
	TextID           string `json:"textId" binding:"required,uuid"`
	QuizID           string `json:"quizId" binding:"required,uuid"`
	ExpiresInMinutes int    `json:"expiresInMinutes" binding:"required,min=1"`
}

type IssuedCode struct {
	AttemptID   string    `json:"attemptId"`
	StudentID   string    `json:"studentId"`
	StudentName string    `json:"studentName"`
	Code        string    `json:"code"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

type PublishResult struct {
	SessionID string       `json:"sessionId"`
	ExpiresAt time.Time    `json:"expiresAt"`
	Codes     []IssuedCode `json:"codes"`
}

type SessionProgress struct {
	SessionID    string                      `json:"sessionId"`
	Status       model.SessionStatus         `json:"status"`
	ExpiresAt    time.Time                   `json:"expiresAt"`
	ClosedAt     *time.Time                  `json:"closedAt,omitempty"`
	Total        int                         `json:"total"`
	Counts       map[model.AttemptStatus]int `json:"counts"`
	AverageScore *float64                    `json:"averageScore,omitempty"`
}

// AttemptView 教师查看的作答行，附带当前可用的访问码
type AttemptView struct {
	AttemptID      string              `json:"attemptId"`
	StudentID      string              `json:"studentId"`
	StudentName    string              `json:"studentName"`
	Status         model.AttemptStatus `json:"status"`
	TotalQuestions *int                `json:"totalQuestions,omitempty"`
	CorrectCount   *int                `json:"correctCount,omitempty"`
	ScorePercent   *float64            `json:"scorePercent,omitempty"`
	SubmittedAt    *time.Time          `json:"submittedAt,omitempty"`
	Code           string              `json:"code,omitempty"`
	CodeExpiresAt  *time.Time          `json:"codeExpiresAt,omitempty"`
}

type CodeSheet struct {
	Filename string `json:"filename"`
	URL      string `json:"url"`
	Rows     int    `json:"rows"`
}

type SessionService struct {
	Sessions  SessionStore
	Attempts  AttemptStore
	Codes     AccessCodeStore
	Content   ContentStore
	Directory DirectoryStore
	Issuer    *CodeIssuer
	Files     FilePublisher
	Policy    *PolicyStore
	Clock     func() time.Time
}

func NewSessionService(sessions SessionStore, attempts AttemptStore, codes AccessCodeStore, content ContentStore, directory DirectoryStore, issuer *CodeIssuer, files FilePublisher, policy *PolicyStore) *SessionService {
	return &SessionService{
		Sessions:  sessions,
		Attempts:  attempts,
		Codes:     codes,
		Content:   content,
		Directory: directory,
		Issuer:    issuer,
		Files:     files,
		Policy:    policy,
		Clock:     time.Now,
	}
}

// Publish 为班级每个在读学生创建一个作答和一个访问码，三类记录在同一事务中写入
func (s *SessionService) Publish(ctx context.Context, scope model.Capability, req PublishRequest) (result *PublishResult, err error) {
	ctx, end := tracing.StartSpan(ctx, "SessionService.Publish",
		attribute.String("classroom.id", req.ClassroomID),
		attribute.String("quiz.id", req.QuizID))
	defer func() { end(err) }()

	if !scope.HasRole(model.Teacher, model.Admin) {
		return nil, util.ErrPermissionDenied
	}
	if req.ExpiresInMinutes < 1 || req.ExpiresInMinutes > util.MaxSessionMinutes {
		return nil, util.Validationf("expiresInMinutes must be between 1 and %d", util.MaxSessionMinutes)
	}

	if _, err := s.Directory.FindClassroom(ctx, scope, req.ClassroomID); err != nil {
		return nil, notFoundAs(err, util.ErrClassroomNotFound)
	}
	text, err := s.Content.FindText(ctx, scope, req.TextID)
	if err != nil {
		return nil, notFoundAs(err, util.ErrTextNotFound)
	}
	quiz, err := s.Content.FindQuiz(ctx, scope, req.QuizID)
	if err != nil {
		return nil, notFoundAs(err, util.ErrQuizNotFound)
	}
	if quiz.TextID != text.ID {
		return nil, util.Validationf("quiz %s does not belong to text %s", quiz.ID, text.ID)
	}

	enrollments, err := s.Directory.ActiveEnrollments(ctx, scope, req.ClassroomID)
	if err != nil {
		return nil, err
	}
	if len(enrollments) == 0 {
		return nil, util.ErrClassroomEmpty
	}

	now := s.Clock()
	session := &model.EvaluationSession{
		InstitutionID: scope.InstitutionID,
		ClassroomID:   req.ClassroomID,
		TextID:        text.ID,
		QuizID:        quiz.ID,
		PublishedBy:   scope.UserID,
		Status:        model.SessionOpen,
		PublishedAt:   now,
		ExpiresAt:     now.Add(time.Duration(req.ExpiresInMinutes) * time.Minute),
	}
	session.ID = model.GenerateUUID()

	codeLength := s.Policy.Load().CodeLength
	attempts := make([]model.EvaluationAttempt, 0, len(enrollments))
	codes := make([]model.AccessCode, 0, len(enrollments))
	issued := make([]IssuedCode, 0, len(enrollments))
	taken := make(map[string]bool, len(enrollments))

	for _, e := range enrollments {
		code, digest, err := s.Issuer.Issue(ctx, codeLength, now, taken)
		if err != nil {
			return nil, err
		}

		attempt := model.EvaluationAttempt{
			SessionID:    session.ID,
			EnrollmentID: e.ID,
			StudentID:    e.StudentID,
			Status:       model.AttemptPending,
		}
		attempt.ID = model.GenerateUUID()
		attempts = append(attempts, attempt)

		codes = append(codes, model.AccessCode{
			AttemptID:  attempt.ID,
			Code:       code,
			CodeDigest: digest,
			ExpiresAt:  session.ExpiresAt,
		})
		issued = append(issued, IssuedCode{
			AttemptID:   attempt.ID,
			StudentID:   e.StudentID,
			StudentName: e.Student.FullName,
			Code:        code,
			ExpiresAt:   session.ExpiresAt,
		})
	}

	if err := s.Sessions.CreatePublication(ctx, session, attempts, codes); err != nil {
		return nil, util.UpdateFailed("create publication", err)
	}

	monitoring.SessionsPublished.Inc()
	logger.Log.Info("Evaluation session published",
		zap.String("sessionID", session.ID),
		zap.String("classroomID", session.ClassroomID),
		zap.Int("attempts", len(attempts)),
		zap.Time("expiresAt", session.ExpiresAt))

	return &PublishResult{SessionID: session.ID, ExpiresAt: session.ExpiresAt, Codes: issued}, nil
}

// Close 单向关闭场次；已关闭时原样返回，closed_at 保持首次关闭的时间
func (s *SessionService) Close(ctx context.Context, scope model.Capability, sessionID string) (*model.EvaluationSession, error) {
	if !scope.HasRole(model.Teacher, model.Admin) {
		return nil, util.ErrPermissionDenied
	}

	session, err := s.Sessions.FindScoped(ctx, scope.InstitutionID, sessionID)
	if err != nil {
		return nil, notFoundAs(err, util.ErrSessionNotFound)
	}
	if session.ClosedAt != nil {
		return session, nil
	}

	now := s.Clock()
	closed, err := s.Sessions.Close(ctx, session.ID, now)
	if err != nil {
		return nil, util.UpdateFailed("close session", err)
	}
	if !closed {
		// 并发关闭，读取胜出方写入的 closed_at
		return s.Sessions.FindScoped(ctx, scope.InstitutionID, sessionID)
	}

	session.Status = model.SessionClosed
	session.ClosedAt = &now
	logger.Log.Info("Evaluation session closed", zap.String("sessionID", session.ID), zap.String("closedBy", scope.UserID))
	return session, nil
}

// EffectiveStatus 纯函数
func (s *SessionService) EffectiveStatus(session *model.EvaluationSession) model.SessionStatus {
	return session.EffectiveStatus(s.Clock())
}

func (s *SessionService) Progress(ctx context.Context, scope model.Capability, sessionID string) (*SessionProgress, error) {
	if !scope.HasRole(model.Teacher, model.Tutor, model.Admin) {
		return nil, util.ErrPermissionDenied
	}

	session, err := s.Sessions.FindScoped(ctx, scope.InstitutionID, sessionID)
	if err != nil {
		return nil, notFoundAs(err, util.ErrSessionNotFound)
	}
	attempts, err := s.Attempts.ListBySession(ctx, session.ID)
	if err != nil {
		return nil, err
	}

	now := s.Clock()
	progress := &SessionProgress{
		SessionID: session.ID,
		Status:    session.EffectiveStatus(now),
		ExpiresAt: session.ExpiresAt,
		ClosedAt:  session.ClosedAt,
		Total:     len(attempts),
		Counts:    make(map[model.AttemptStatus]int),
	}

	var sum float64
	var scored int
	for i := range attempts {
		a := &attempts[i]
		progress.Counts[a.EffectiveStatus(session, now)]++
		if a.IsSubmitted() && a.ScorePercent != nil {
			sum += *a.ScorePercent
			scored++
		}
	}
	if scored > 0 {
		avg := math.Round(sum/float64(scored)*100) / 100
		progress.AverageScore = &avg
	}
	return progress, nil
}

func (s *SessionService) ListAttempts(ctx context.Context, scope model.Capability, sessionID string) ([]AttemptView, error) {
	if !scope.HasRole(model.Teacher, model.Tutor, model.Admin) {
		return nil, util.ErrPermissionDenied
	}

	session, err := s.Sessions.FindScoped(ctx, scope.InstitutionID, sessionID)
	if err != nil {
		return nil, notFoundAs(err, util.ErrSessionNotFound)
	}
	return s.attemptViews(ctx, scope, session)
}

func (s *SessionService) attemptViews(ctx context.Context, scope model.Capability, session *model.EvaluationSession) ([]AttemptView, error) {
	attempts, err := s.Attempts.ListBySession(ctx, session.ID)
	if err != nil {
		return nil, err
	}

	now := s.Clock()
	attemptIDs := make([]string, 0, len(attempts))
	studentIDs := make([]string, 0, len(attempts))
	for _, a := range attempts {
		attemptIDs = append(attemptIDs, a.ID)
		studentIDs = append(studentIDs, a.StudentID)
	}

	codes, err := s.Codes.FindUsableByAttempts(ctx, attemptIDs, now)
	if err != nil {
		return nil, err
	}
	students, err := s.Directory.FindStudents(ctx, scope, studentIDs)
	if err != nil {
		return nil, err
	}

	views := make([]AttemptView, 0, len(attempts))
	for i := range attempts {
		a := &attempts[i]
		view := AttemptView{
			AttemptID:      a.ID,
			StudentID:      a.StudentID,
			StudentName:    students[a.StudentID].FullName,
			Status:         a.EffectiveStatus(session, now),
			TotalQuestions: a.TotalQuestions,
			CorrectCount:   a.CorrectCount,
			ScorePercent:   a.ScorePercent,
			SubmittedAt:    a.SubmittedAt,
		}
		if c, ok := codes[a.ID]; ok {
			expiresAt := c.ExpiresAt
			view.Code = c.Code
			view.CodeExpiresAt = &expiresAt
		}
		views = append(views, view)
	}
	return views, nil
}

// ExportCodeSheet 导出访问码表（CSV）并上传，返回下载链接
func (s *SessionService) ExportCodeSheet(ctx context.Context, scope model.Capability, sessionID string) (*CodeSheet, error) {
	if !scope.HasRole(model.Teacher, model.Admin) {
		return nil, util.ErrPermissionDenied
	}

	session, err := s.Sessions.FindScoped(ctx, scope.InstitutionID, sessionID)
	if err != nil {
		return nil, notFoundAs(err, util.ErrSessionNotFound)
	}
	views, err := s.attemptViews(ctx, scope, session)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Write([]string{"student", "code", "expires_at", "status", "score_percent"})
	for _, v := range views {
		expires := ""
		if v.CodeExpiresAt != nil {
			expires = v.CodeExpiresAt.UTC().Format(util.TimeFormat)
		}
		score := ""
		if v.ScorePercent != nil {
			score = strconv.FormatFloat(*v.ScorePercent, 'f', 2, 64)
		}
		w.Write([]string{v.StudentName, v.Code, expires, string(v.Status), score})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}

	filename := fmt.Sprintf("code-sheets/%s-%d.csv", session.ID, s.Clock().Unix())
	url, err := s.Files.Publish(ctx, filename, bytes.NewReader(buf.Bytes()), int64(buf.Len()), util.MimeCSV)
	if err != nil {
		return nil, util.UpdateFailed("upload code sheet", err)
	}

	return &CodeSheet{Filename: filename, URL: url, Rows: len(views)}, nil
}

// notFoundAs 把 gorm 的记录不存在转换为业务错误
func notFoundAs(err, target error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return target
	}
	return err
}
