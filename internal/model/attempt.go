package model

import "time"

type AttemptStatus string

const (
	AttemptPending    AttemptStatus = "pending"
	AttemptInProgress AttemptStatus = "in_progress"
	AttemptSubmitted  AttemptStatus = "submitted"
	AttemptExpired    AttemptStatus = "expired"
)

// EvaluationAttempt 单个学生对一次发布评测的作答实例
// 汇总字段在提交前均为 NULL
// swagger:model EvaluationAttempt
type EvaluationAttempt struct {
	UUIDBase
	SessionID      string        `gorm:"index;type:varchar(36);not null" json:"sessionId"`
	EnrollmentID   string        `gorm:"type:varchar(36);not null" json:"enrollmentId"`
	StudentID      string        `gorm:"index;type:varchar(36);not null" json:"studentId"`
	Status         AttemptStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	ReadingTimeMs  *int64        `json:"readingTimeMs,omitempty"`
	TotalQuestions *int          `json:"totalQuestions,omitempty"`
	CorrectCount   *int          `json:"correctCount,omitempty"`
	ScorePercent   *float64      `gorm:"type:decimal(5,2)" json:"scorePercent,omitempty"`
	SubmittedAt    *time.Time    `json:"submittedAt,omitempty"`
}

func (EvaluationAttempt) TableName() string {
	return "evaluation_attempts"
}

func (a *EvaluationAttempt) IsSubmitted() bool {
	return a.SubmittedAt != nil
}

// EffectiveStatus 已提交优先；未提交且场次不再开放时视为过期
func (a *EvaluationAttempt) EffectiveStatus(session *EvaluationSession, now time.Time) AttemptStatus {
	if a.IsSubmitted() {
		return AttemptSubmitted
	}
	if session != nil && session.EffectiveStatus(now) != SessionOpen {
		return AttemptExpired
	}
	return a.Status
}
