package model

// InferenceValue 推理题的三值答案
type InferenceValue string

const (
	InferenceTrue         InferenceValue = "verdadero"
	InferenceFalse        InferenceValue = "falso"
	InferenceUndetermined InferenceValue = "indeterminado"
)

func (v InferenceValue) Valid() bool {
	switch v {
	case InferenceTrue, InferenceFalse, InferenceUndetermined:
		return true
	}
	return false
}

// 四类答案分表存储，每张表都有各自的唯一键，提交时按唯一键 upsert

type ComprehensionAnswer struct {
	UUIDBase
	AttemptID        string `gorm:"type:varchar(36);not null;uniqueIndex:uk_comprehension_attempt_question" json:"attemptId"`
	QuestionID       string `gorm:"type:varchar(36);not null;uniqueIndex:uk_comprehension_attempt_question" json:"questionId"`
	SelectedOptionID string `gorm:"type:varchar(36);not null" json:"selectedOptionId"`
	IsCorrect        bool   `gorm:"default:false" json:"isCorrect"`
}

func (ComprehensionAnswer) TableName() string {
	return "comprehension_answers"
}

type InferenceAnswer struct {
	UUIDBase
	AttemptID      string         `gorm:"type:varchar(36);not null;uniqueIndex:uk_inference_attempt_statement" json:"attemptId"`
	StatementID    string         `gorm:"type:varchar(36);not null;uniqueIndex:uk_inference_attempt_statement" json:"statementId"`
	SelectedAnswer InferenceValue `gorm:"type:varchar(16);not null" json:"selectedAnswer"`
	IsCorrect      bool           `gorm:"default:false" json:"isCorrect"`
}

func (InferenceAnswer) TableName() string {
	return "inference_answers"
}

type VocabularyAnswer struct {
	UUIDBase
	AttemptID        string `gorm:"type:varchar(36);not null;uniqueIndex:uk_vocabulary_attempt_pair" json:"attemptId"`
	VocabularyPairID string `gorm:"type:varchar(36);not null;uniqueIndex:uk_vocabulary_attempt_pair" json:"vocabularyPairId"`
	SelectedPairID   string `gorm:"type:varchar(36);not null" json:"selectedPairId"`
	IsCorrect        bool   `gorm:"default:false" json:"isCorrect"`
}

func (VocabularyAnswer) TableName() string {
	return "vocabulary_answers"
}

// SequenceAnswer 顺序题按整组评分，单行不记录对错
type SequenceAnswer struct {
	UUIDBase
	AttemptID      string `gorm:"type:varchar(36);not null;uniqueIndex:uk_sequence_attempt_position" json:"attemptId"`
	SequenceItemID string `gorm:"type:varchar(36);not null" json:"sequenceItemId"`
	Position       int    `gorm:"not null;uniqueIndex:uk_sequence_attempt_position" json:"position"`
}

func (SequenceAnswer) TableName() string {
	return "sequence_answers"
}
