package service

import (
	"context"
	"errors"
	"reading_eval_backend/internal/model"
	"reading_eval_backend/internal/util"
	"reading_eval_backend/pkg/locker"
	"reading_eval_backend/pkg/logger"
	"reading_eval_backend/pkg/monitoring"
	"reading_eval_backend/pkg/tracing"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

type SubmitResult struct {
	AttemptID      string             `json:"attemptId"`
	TotalQuestions int                `json:"totalQuestions"`
	CorrectCount   int                `json:"correctCount"`
	ScorePercent   float64            `json:"scorePercent"`
	Breakdown      map[Category]Tally `json:"breakdown"`
	Skipped        int                `json:"skipped"`
}

type AttemptService struct {
	Attempts AttemptStore
	Sessions SessionStore
	Answers  AnswerStore
	Content  ContentStore
	Locker   locker.Locker
	Policy   *PolicyStore
	Clock    func() time.Time

	validate *validator.Validate
}

func NewAttemptService(attempts AttemptStore, sessions SessionStore, answers AnswerStore, content ContentStore, lock locker.Locker, policy *PolicyStore) *AttemptService {
	if lock == nil {
		lock = locker.Noop{}
	}
	return &AttemptService{
		Attempts: attempts,
		Sessions: sessions,
		Answers:  answers,
		Content:  content,
		Locker:   lock,
		Policy:   policy,
		Clock:    time.Now,
		validate: validator.New(),
	}
}

// Submit 评分并持久化一次提交。
// 各类答案按顺序 upsert，遇到第一个持久化错误即返回，已写入的类别不回滚。
func (s *AttemptService) Submit(ctx context.Context, attemptID string, sub Submission) (result *SubmitResult, err error) {
	ctx, end := tracing.StartSpan(ctx, "AttemptService.Submit", attribute.String("attempt.id", attemptID))
	defer func() {
		end(err)
		monitoring.Submissions.WithLabelValues(submissionResult(err)).Inc()
	}()

	if err := s.validateSubmission(attemptID, &sub); err != nil {
		return nil, err
	}

	policy := s.Policy.Load()
	attempt, session, err := s.resolve(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	if err := checkSubmittable(policy, attempt, session, s.Clock()); err != nil {
		return nil, err
	}

	unlock, err := s.Locker.TryLock(ctx, "attempt:"+attemptID, policy.SubmitLockTTL)
	if err != nil {
		if errors.Is(err, locker.ErrLocked) {
			return nil, util.ErrSubmissionInProgress
		}
		return nil, err
	}
	defer unlock()

	// 拿到锁后重新读取，防止并发提交已先一步完成
	attempt, session, err = s.resolve(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	now := s.Clock()
	if err := checkSubmittable(policy, attempt, session, now); err != nil {
		return nil, err
	}

	// 条件更新认领作答，并发提交中只有一个能继续；之后任何失败都放弃认领
	claimed, err := s.Attempts.Claim(ctx, attempt.ID, policy.AllowResubmission, now, policy.SubmitLockTTL)
	if err != nil {
		return nil, util.UpdateFailed("claim attempt", err)
	}
	if !claimed {
		return nil, s.claimConflict(ctx, policy, attempt.ID)
	}
	defer func() {
		if err != nil {
			s.release(attempt.ID)
		}
	}()

	keys, err := s.loadKeys(ctx, session, &sub)
	if err != nil {
		return nil, err
	}

	score := Score(attempt.ID, sub, keys)
	for _, o := range score.Skipped() {
		monitoring.SkippedAnswers.WithLabelValues(string(o.Category)).Inc()
		logger.Log.Debug("Answer skipped",
			zap.String("attemptID", attempt.ID),
			zap.String("category", string(o.Category)),
			zap.String("itemID", o.ItemID),
			zap.String("reason", o.SkipReason))
	}

	if err := s.persistAnswers(ctx, &score); err != nil {
		return nil, err
	}

	readingTime := sub.ReadingTimeMs
	total := score.Total
	correct := score.Correct
	percent := score.Percent
	attempt.Status = model.AttemptSubmitted
	attempt.ReadingTimeMs = &readingTime
	attempt.TotalQuestions = &total
	attempt.CorrectCount = &correct
	attempt.ScorePercent = &percent
	attempt.SubmittedAt = &now
	if err := s.Attempts.Finalize(ctx, attempt); err != nil {
		return nil, util.UpdateFailed("finalize attempt", err)
	}

	monitoring.ScorePercent.Observe(percent)
	logger.Log.Info("Attempt submitted",
		zap.String("attemptID", attempt.ID),
		zap.String("sessionID", session.ID),
		zap.Int("total", total),
		zap.Int("correct", correct),
		zap.Float64("scorePercent", percent))

	return &SubmitResult{
		AttemptID:      attempt.ID,
		TotalQuestions: total,
		CorrectCount:   correct,
		ScorePercent:   percent,
		Breakdown:      score.ByCategory,
		Skipped:        len(score.Skipped()),
	}, nil
}

func (s *AttemptService) validateSubmission(attemptID string, sub *Submission) error {
	if err := s.validate.Var(attemptID, "required,uuid"); err != nil {
		return util.Validationf("attempt id must be a valid identifier")
	}
	if err := s.validate.Struct(sub); err != nil {
		return validationError(err)
	}
	return sub.checkDuplicates()
}

func (s *AttemptService) resolve(ctx context.Context, attemptID string) (*model.EvaluationAttempt, *model.EvaluationSession, error) {
	attempt, err := s.Attempts.FindByID(ctx, attemptID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, util.ErrAttemptNotFound
		}
		return nil, nil, err
	}

	session, err := s.Sessions.FindByID(ctx, attempt.SessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, util.ErrSessionNotFound
		}
		return nil, nil, err
	}
	return attempt, session, nil
}

// claimConflict 认领失败时区分已提交与提交中
func (s *AttemptService) claimConflict(ctx context.Context, policy EvaluationPolicy, attemptID string) error {
	current, err := s.Attempts.FindByID(ctx, attemptID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrAttemptNotFound
		}
		return err
	}
	if current.IsSubmitted() && !policy.AllowResubmission {
		return util.ErrAttemptAlreadySubmitted
	}
	return util.ErrSubmissionInProgress
}

func (s *AttemptService) release(attemptID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Attempts.Release(ctx, attemptID); err != nil {
		logger.Log.Warn("Failed to release attempt claim", zap.String("attemptID", attemptID), zap.Error(err))
	}
}

func checkSubmittable(policy EvaluationPolicy, attempt *model.EvaluationAttempt, session *model.EvaluationSession, now time.Time) error {
	if attempt.IsSubmitted() && !policy.AllowResubmission {
		return util.ErrAttemptAlreadySubmitted
	}
	if policy.EnforceDeadline && session.EffectiveStatus(now) != model.SessionOpen {
		return util.ErrAttemptExpired
	}
	return nil
}

// loadKeys 并发加载三类需要查表的标准答案，均以场次所属机构为作用域
func (s *AttemptService) loadKeys(ctx context.Context, session *model.EvaluationSession, sub *Submission) (AnswerKeys, error) {
	scope := model.StudentCapability(session.InstitutionID)
	var keys AnswerKeys

	refs := make([]model.OptionRef, 0, len(sub.Answers))
	for _, a := range sub.Answers {
		refs = append(refs, model.OptionRef{QuestionID: a.QuestionID, OptionID: a.OptionID})
	}
	statementIDs := make([]string, 0, len(sub.InferenceAnswers))
	for _, a := range sub.InferenceAnswers {
		statementIDs = append(statementIDs, a.StatementID)
	}
	itemIDs := make([]string, 0, len(sub.SequenceAnswers))
	for _, a := range sub.SequenceAnswers {
		itemIDs = append(itemIDs, a.SequenceItemID)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		keys.Options, err = s.Content.OptionKeys(gctx, scope, session.QuizID, refs)
		return err
	})
	g.Go(func() (err error) {
		keys.Inference, err = s.Content.InferenceKeys(gctx, scope, session.TextID, statementIDs)
		return err
	})
	g.Go(func() (err error) {
		keys.Sequence, err = s.Content.SequenceKeys(gctx, scope, session.TextID, itemIDs)
		return err
	})
	if err := g.Wait(); err != nil {
		return AnswerKeys{}, err
	}
	return keys, nil
}

func (s *AttemptService) persistAnswers(ctx context.Context, score *ScoreResult) error {
	if err := s.Answers.UpsertComprehension(ctx, score.Comprehension); err != nil {
		return util.UpdateFailed("upsert comprehension answers", err)
	}
	if err := s.Answers.UpsertInference(ctx, score.Inference); err != nil {
		return util.UpdateFailed("upsert inference answers", err)
	}
	if err := s.Answers.UpsertVocabulary(ctx, score.Vocabulary); err != nil {
		return util.UpdateFailed("upsert vocabulary answers", err)
	}
	if err := s.Answers.UpsertSequence(ctx, score.Sequence); err != nil {
		return util.UpdateFailed("upsert sequence answers", err)
	}
	return nil
}

// validationError 把 validator 的字段错误整理为一条消息
func validationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return util.Validationf("%s", err.Error())
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, fe.Namespace()+" failed on '"+fe.Tag()+"'")
	}
	return util.Validationf("%s", strings.Join(msgs, "; "))
}

func submissionResult(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, util.ErrValidation):
		return "invalid"
	case errors.Is(err, util.ErrAttemptAlreadySubmitted), errors.Is(err, util.ErrSubmissionInProgress):
		return "conflict"
	case errors.Is(err, util.ErrAttemptExpired):
		return "expired"
	case errors.Is(err, util.ErrAttemptNotFound), errors.Is(err, util.ErrSessionNotFound):
		return "not_found"
	default:
		return "error"
	}
}
