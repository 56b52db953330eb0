package service

import (
	"context"
	"errors"
	"math/rand"
	"reading_eval_backend/internal/model"
	"reading_eval_backend/internal/util"
	"reading_eval_backend/pkg/monitoring"
	"reading_eval_backend/pkg/tracing"
	"time"

	"github.com/jinzhu/copier"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

type TextView struct {
	Title      string `json:"title"`
	Topic      string `json:"topic"`
	Grade      string `json:"grade"`
	Difficulty string `json:"difficulty"`
	Content    string `json:"content"`
}

type OptionView struct {
	OptionID string `json:"optionId"`
	Text     string `json:"text"`
}

type QuestionView struct {
	QuestionID string       `json:"questionId"`
	Prompt     string       `json:"prompt"`
	Options    []OptionView `json:"options"`
}

type StatementView struct {
	StatementID string `json:"statementId"`
	Statement   string `json:"statement"`
}

type VocabularyWord struct {
	PairID string `json:"pairId"`
	Word   string `json:"word"`
}

type VocabularyDefinition struct {
	PairID     string `json:"pairId"`
	Definition string `json:"definition"`
}

// VocabularyView 释义顺序打乱，学生按 pairId 匹配
type VocabularyView struct {
	Words       []VocabularyWord       `json:"words"`
	Definitions []VocabularyDefinition `json:"definitions"`
}

type SequenceItemView struct {
	ItemID  string `json:"itemId"`
	Content string `json:"content"`
}

// AttemptSnapshot 学生兑换访问码后看到的只读视图，不含任何答案
type AttemptSnapshot struct {
	AttemptID           string              `json:"attemptId"`
	SessionID           string              `json:"sessionId"`
	ExpiresAt           time.Time           `json:"expiresAt"`
	Status              model.AttemptStatus `json:"status"`
	Text                TextView            `json:"text"`
	Questions           []QuestionView      `json:"questions"`
	InferenceStatements []StatementView     `json:"inferenceStatements"`
	Vocabulary          VocabularyView      `json:"vocabulary"`
	SequenceItems       []SequenceItemView  `json:"sequenceItems"`
}

type RegeneratedCode struct {
	AttemptID string    `json:"attemptId"`
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type AccessCodeService struct {
	Codes    AccessCodeStore
	Attempts AttemptStore
	Sessions SessionStore
	Content  ContentStore
	Issuer   *CodeIssuer
	Policy   *PolicyStore
	Secret   string
	Clock    func() time.Time
	Shuffle  func(n int, swap func(i, j int))
}

func NewAccessCodeService(codes AccessCodeStore, attempts AttemptStore, sessions SessionStore, content ContentStore, issuer *CodeIssuer, policy *PolicyStore, secret string) *AccessCodeService {
	return &AccessCodeService{
		Codes:    codes,
		Attempts: attempts,
		Sessions: sessions,
		Content:  content,
		Issuer:   issuer,
		Policy:   policy,
		Secret:   secret,
		Clock:    time.Now,
		Shuffle:  rand.Shuffle,
	}
}

// Redeem 兑换访问码，只读，不改变作答状态
func (s *AccessCodeService) Redeem(ctx context.Context, rawCode string) (snapshot *AttemptSnapshot, err error) {
	ctx, end := tracing.StartSpan(ctx, "AccessCodeService.Redeem")
	defer func() {
		end(err)
		monitoring.CodeRedemptions.WithLabelValues(redemptionResult(err)).Inc()
	}()

	now := s.Clock()
	normalized := util.NormalizeAccessCode(rawCode)
	if normalized == "" {
		return nil, util.ErrAccessCodeNotFound
	}

	code, err := s.Codes.FindLatestByDigest(ctx, util.DigestAccessCode(normalized, s.Secret))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrAccessCodeNotFound
		}
		return nil, err
	}
	if code.ExpiredAt(now) {
		return nil, util.ErrAccessCodeExpired
	}

	attempt, err := s.Attempts.FindByID(ctx, code.AttemptID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrAttemptNotFound
		}
		return nil, err
	}

	session, err := s.Sessions.FindByID(ctx, attempt.SessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrSessionNotFound
		}
		return nil, err
	}

	if s.Policy.Load().CloseRevokesAccess && session.ClosedAt != nil {
		return nil, util.ErrAccessCodeExpired
	}

	snapshot, err = s.buildSnapshot(ctx, session)
	if err != nil {
		return nil, err
	}
	snapshot.AttemptID = attempt.ID
	snapshot.ExpiresAt = code.ExpiresAt
	snapshot.Status = attempt.EffectiveStatus(session, now)
	return snapshot, nil
}

func (s *AccessCodeService) buildSnapshot(ctx context.Context, session *model.EvaluationSession) (*AttemptSnapshot, error) {
	scope := model.StudentCapability(session.InstitutionID)

	text, err := s.Content.FindText(ctx, scope, session.TextID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrTextNotFound
		}
		return nil, err
	}

	var (
		quiz       *model.Quiz
		statements []model.InferenceStatement
		pairs      []model.VocabularyPair
		items      []model.SequenceItem
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		q, err := s.Content.FindQuiz(gctx, scope, session.QuizID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return util.ErrQuizNotFound
			}
			return err
		}
		quiz = q
		return nil
	})
	g.Go(func() (err error) {
		statements, err = s.Content.ListInferenceStatements(gctx, scope, session.TextID)
		return err
	})
	g.Go(func() (err error) {
		pairs, err = s.Content.ListVocabularyPairs(gctx, scope, session.TextID)
		return err
	})
	g.Go(func() (err error) {
		items, err = s.Content.ListSequenceItems(gctx, scope, session.TextID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	snapshot := &AttemptSnapshot{SessionID: session.ID}
	if err := copier.Copy(&snapshot.Text, text); err != nil {
		return nil, err
	}

	snapshot.Questions = make([]QuestionView, 0, len(quiz.Questions))
	for _, q := range quiz.Questions {
		view := QuestionView{QuestionID: q.ID, Prompt: q.Prompt, Options: make([]OptionView, 0, len(q.Options))}
		for _, o := range q.Options {
			view.Options = append(view.Options, OptionView{OptionID: o.ID, Text: o.Text})
		}
		snapshot.Questions = append(snapshot.Questions, view)
	}

	snapshot.InferenceStatements = make([]StatementView, 0, len(statements))
	for _, st := range statements {
		snapshot.InferenceStatements = append(snapshot.InferenceStatements, StatementView{StatementID: st.ID, Statement: st.Statement})
	}

	snapshot.Vocabulary.Words = make([]VocabularyWord, 0, len(pairs))
	snapshot.Vocabulary.Definitions = make([]VocabularyDefinition, 0, len(pairs))
	for _, p := range pairs {
		snapshot.Vocabulary.Words = append(snapshot.Vocabulary.Words, VocabularyWord{PairID: p.ID, Word: p.Word})
		snapshot.Vocabulary.Definitions = append(snapshot.Vocabulary.Definitions, VocabularyDefinition{PairID: p.ID, Definition: p.Definition})
	}
	defs := snapshot.Vocabulary.Definitions
	s.Shuffle(len(defs), func(i, j int) { defs[i], defs[j] = defs[j], defs[i] })

	snapshot.SequenceItems = make([]SequenceItemView, 0, len(items))
	for _, item := range items {
		snapshot.SequenceItems = append(snapshot.SequenceItems, SequenceItemView{ItemID: item.ID, Content: item.Content})
	}
	seq := snapshot.SequenceItems
	s.Shuffle(len(seq), func(i, j int) { seq[i], seq[j] = seq[j], seq[i] })

	return snapshot, nil
}

// Regenerate 撤销作答现有的全部访问码并签发新码，新码过期时间与场次一致
func (s *AccessCodeService) Regenerate(ctx context.Context, scope model.Capability, attemptID string) (result *RegeneratedCode, err error) {
	ctx, end := tracing.StartSpan(ctx, "AccessCodeService.Regenerate", attribute.String("attempt.id", attemptID))
	defer func() { end(err) }()

	if !scope.HasRole(model.Teacher, model.Admin) {
		return nil, util.ErrPermissionDenied
	}

	now := s.Clock()
	attempt, err := s.Attempts.FindByID(ctx, attemptID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrAttemptNotFound
		}
		return nil, err
	}

	// 其他机构的作答按不存在处理
	session, err := s.Sessions.FindScoped(ctx, scope.InstitutionID, attempt.SessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrAttemptNotFound
		}
		return nil, err
	}

	switch session.EffectiveStatus(now) {
	case model.SessionClosed:
		return nil, util.ErrSessionClosed
	case model.SessionExpired:
		return nil, util.ErrSessionExpired
	}

	code, digest, err := s.Issuer.Issue(ctx, s.Policy.Load().CodeLength, now, nil)
	if err != nil {
		return nil, err
	}

	record := &model.AccessCode{
		AttemptID:  attempt.ID,
		Code:       code,
		CodeDigest: digest,
		ExpiresAt:  session.ExpiresAt,
	}
	if err := s.Codes.Rotate(ctx, attempt.ID, record, now); err != nil {
		return nil, util.UpdateFailed("rotate access code", err)
	}

	return &RegeneratedCode{AttemptID: attempt.ID, Code: code, ExpiresAt: record.ExpiresAt}, nil
}

func redemptionResult(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, util.ErrAccessCodeNotFound):
		return "not_found"
	case errors.Is(err, util.ErrAccessCodeExpired):
		return "expired"
	default:
		return "error"
	}
}
