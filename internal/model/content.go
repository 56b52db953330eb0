package model

// 内容库：阅读文本及其测验、推理、词汇、排序题。对评测核心只读

// swagger:model ReadingText
type ReadingText struct {
	UUIDBase
	InstitutionID string `gorm:"index;type:varchar(36);not null" json:"institutionId"`
	Title         string `gorm:"size:255;not null" json:"title"`
	Topic         string `gorm:"size:255" json:"topic"`
	Grade         string `gorm:"size:32" json:"grade"`
	Difficulty    string `gorm:"size:32" json:"difficulty"`
	Content       string `gorm:"type:longtext" json:"content"`
}

func (ReadingText) TableName() string {
	return "reading_texts"
}

type Quiz struct {
	UUIDBase
	TextID    string         `gorm:"index;type:varchar(36);not null" json:"textId"`
	Title     string         `gorm:"size:255" json:"title"`
	Questions []QuizQuestion `gorm:"foreignKey:QuizID" json:"questions,omitempty"`
}

func (Quiz) TableName() string {
	return "quizzes"
}

type QuizQuestion struct {
	UUIDBase
	QuizID   string           `gorm:"index;type:varchar(36);not null" json:"quizId"`
	Prompt   string           `gorm:"type:text;not null" json:"prompt"`
	Position int              `gorm:"default:0" json:"position"`
	Options  []QuestionOption `gorm:"foreignKey:QuestionID" json:"options,omitempty"`
}

func (QuizQuestion) TableName() string {
	return "quiz_questions"
}

type QuestionOption struct {
	UUIDBase
	QuestionID string `gorm:"index;type:varchar(36);not null" json:"questionId"`
	Text       string `gorm:"type:text;not null" json:"text"`
	IsCorrect  bool   `gorm:"default:false" json:"-"`
	Position   int    `gorm:"default:0" json:"position"`
}

func (QuestionOption) TableName() string {
	return "question_options"
}

// OptionRef 题目内选项的复合键
type OptionRef struct {
	QuestionID string
	OptionID   string
}

type InferenceStatement struct {
	UUIDBase
	TextID        string         `gorm:"index;type:varchar(36);not null" json:"textId"`
	Statement     string         `gorm:"type:text;not null" json:"statement"`
	CorrectAnswer InferenceValue `gorm:"type:varchar(16);not null" json:"-"`
	Position      int            `gorm:"default:0" json:"position"`
}

func (InferenceStatement) TableName() string {
	return "inference_statements"
}

type VocabularyPair struct {
	UUIDBase
	TextID     string `gorm:"index;type:varchar(36);not null" json:"textId"`
	Word       string `gorm:"size:255;not null" json:"word"`
	Definition string `gorm:"type:text;not null" json:"definition"`
	Position   int    `gorm:"default:0" json:"position"`
}

func (VocabularyPair) TableName() string {
	return "vocabulary_pairs"
}

type SequenceItem struct {
	UUIDBase
	TextID       string `gorm:"index;type:varchar(36);not null" json:"textId"`
	Content      string `gorm:"type:text;not null" json:"content"`
	CorrectOrder int    `gorm:"not null" json:"-"`
}

func (SequenceItem) TableName() string {
	return "sequence_items"
}
