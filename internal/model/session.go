package model

import "time"

type SessionStatus string

const (
	SessionOpen   SessionStatus = "open"
	SessionClosed SessionStatus = "closed"
	// SessionExpired 读取时推导，从不落库
	SessionExpired SessionStatus = "expired"
)

// EvaluationSession 一次面向整个班级发布的（文本, 测验）评测，所有作答共享同一截止时间
// swagger:model EvaluationSession
type EvaluationSession struct {
	UUIDBase
	InstitutionID string        `gorm:"index;type:varchar(36);not null" json:"institutionId"`
	ClassroomID   string        `gorm:"index;type:varchar(36);not null" json:"classroomId"`
	TextID        string        `gorm:"type:varchar(36);not null" json:"textId"`
	QuizID        string        `gorm:"type:varchar(36);not null" json:"quizId"`
	PublishedBy   string        `gorm:"type:varchar(36)" json:"publishedBy"`
	Status        SessionStatus `gorm:"type:varchar(20);not null;default:'open'" json:"status"`
	PublishedAt   time.Time     `json:"publishedAt"`
	ExpiresAt     time.Time     `gorm:"index" json:"expiresAt"`
	ClosedAt      *time.Time    `json:"closedAt,omitempty"`
}

func (EvaluationSession) TableName() string {
	return "evaluation_sessions"
}

// EffectiveStatus 关闭优先于过期；expires_at 等于 now 即视为过期
func (s *EvaluationSession) EffectiveStatus(now time.Time) SessionStatus {
	if s.ClosedAt != nil {
		return SessionClosed
	}
	if !s.ExpiresAt.After(now) {
		return SessionExpired
	}
	return s.Status
}
