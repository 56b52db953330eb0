package service

import (
	"context"
	"reading_eval_backend/internal/model"
	"time"
)

// 服务依赖的存储接口，由 internal/repository 中的 gorm 实现满足

type SessionStore interface {
	CreatePublication(ctx context.Context, session *model.EvaluationSession, attempts []model.EvaluationAttempt, codes []model.AccessCode) error
	FindByID(ctx context.Context, id string) (*model.EvaluationSession, error)
	FindScoped(ctx context.Context, institutionID, id string) (*model.EvaluationSession, error)
	Close(ctx context.Context, id string, at time.Time) (bool, error)
}

type AttemptStore interface {
	FindByID(ctx context.Context, id string) (*model.EvaluationAttempt, error)
	ListBySession(ctx context.Context, sessionID string) ([]model.EvaluationAttempt, error)
	// Claim 原子地把作答标记为提交中；已提交（且不允许重复提交）或他人持有未过期的认领时返回 false
	Claim(ctx context.Context, id string, allowSubmitted bool, now time.Time, lease time.Duration) (bool, error)
	// Release 放弃认领，恢复为提交前的状态
	Release(ctx context.Context, id string) error
	// Finalize 写入汇总字段，只对处于认领中的作答生效
	Finalize(ctx context.Context, attempt *model.EvaluationAttempt) error
}

type AccessCodeStore interface {
	FindLatestByDigest(ctx context.Context, digest string) (*model.AccessCode, error)
	DigestInUse(ctx context.Context, digest string, now time.Time) (bool, error)
	Rotate(ctx context.Context, attemptID string, code *model.AccessCode, at time.Time) error
	FindUsableByAttempts(ctx context.Context, attemptIDs []string, now time.Time) (map[string]model.AccessCode, error)
}

type AnswerStore interface {
	UpsertComprehension(ctx context.Context, rows []model.ComprehensionAnswer) error
	UpsertInference(ctx context.Context, rows []model.InferenceAnswer) error
	UpsertVocabulary(ctx context.Context, rows []model.VocabularyAnswer) error
	UpsertSequence(ctx context.Context, rows []model.SequenceAnswer) error
}

// ContentStore 内容库，所有查询都按能力凭证中的机构限定
type ContentStore interface {
	FindText(ctx context.Context, scope model.Capability, textID string) (*model.ReadingText, error)
	FindQuiz(ctx context.Context, scope model.Capability, quizID string) (*model.Quiz, error)
	OptionKeys(ctx context.Context, scope model.Capability, quizID string, refs []model.OptionRef) (map[model.OptionRef]bool, error)
	InferenceKeys(ctx context.Context, scope model.Capability, textID string, statementIDs []string) (map[string]model.InferenceValue, error)
	SequenceKeys(ctx context.Context, scope model.Capability, textID string, itemIDs []string) (map[string]int, error)
	ListInferenceStatements(ctx context.Context, scope model.Capability, textID string) ([]model.InferenceStatement, error)
	ListVocabularyPairs(ctx context.Context, scope model.Capability, textID string) ([]model.VocabularyPair, error)
	ListSequenceItems(ctx context.Context, scope model.Capability, textID string) ([]model.SequenceItem, error)
}

type DirectoryStore interface {
	FindClassroom(ctx context.Context, scope model.Capability, classroomID string) (*model.Classroom, error)
	ActiveEnrollments(ctx context.Context, scope model.Capability, classroomID string) ([]model.Enrollment, error)
	FindStudents(ctx context.Context, scope model.Capability, studentIDs []string) (map[string]model.Student, error)
}
