package repository

import (
	"context"
	"reading_eval_backend/internal/model"

	"gorm.io/gorm"
)

// ContentRepository 内容库只读访问；每个查询都经由 reading_texts.institution_id 限定机构
type ContentRepository struct {
	DB *gorm.DB
}

func NewContentRepository(db *gorm.DB) *ContentRepository {
	return &ContentRepository{DB: db}
}

// scopedText 限定文本属于调用方机构
func scopedText(scope model.Capability) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Joins("JOIN reading_texts ON reading_texts.id = text_id AND reading_texts.deleted_at IS NULL").
			Where("reading_texts.institution_id = ?", scope.InstitutionID)
	}
}

func (r *ContentRepository) FindText(ctx context.Context, scope model.Capability, textID string) (*model.ReadingText, error) {
	var text model.ReadingText
	err := r.DB.WithContext(ctx).
		Where("id = ? AND institution_id = ?", textID, scope.InstitutionID).
		First(&text).Error
	if err != nil {
		return nil, err
	}
	return &text, nil
}

// FindQuiz 预加载按 position 排序的题目与选项
func (r *ContentRepository) FindQuiz(ctx context.Context, scope model.Capability, quizID string) (*model.Quiz, error) {
	var quiz model.Quiz
	err := r.DB.WithContext(ctx).
		Scopes(scopedText(scope)).
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Preload("Questions.Options", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where("quizzes.id = ?", quizID).
		First(&quiz).Error
	if err != nil {
		return nil, err
	}
	return &quiz, nil
}

type optionKeyRow struct {
	QuestionID string
	OptionID   string
	IsCorrect  bool
}

// OptionKeys 返回 (题目, 选项) -> 是否正确；选项不属于该题目或该测验时不会出现在结果中
func (r *ContentRepository) OptionKeys(ctx context.Context, scope model.Capability, quizID string, refs []model.OptionRef) (map[model.OptionRef]bool, error) {
	keys := make(map[model.OptionRef]bool, len(refs))
	if len(refs) == 0 {
		return keys, nil
	}

	optionIDs := make([]string, 0, len(refs))
	for _, ref := range refs {
		optionIDs = append(optionIDs, ref.OptionID)
	}

	var rows []optionKeyRow
	err := r.DB.WithContext(ctx).
		Table("question_options").
		Select("question_options.question_id AS question_id, question_options.id AS option_id, question_options.is_correct AS is_correct").
		Joins("JOIN quiz_questions ON quiz_questions.id = question_options.question_id AND quiz_questions.deleted_at IS NULL").
		Joins("JOIN quizzes ON quizzes.id = quiz_questions.quiz_id AND quizzes.deleted_at IS NULL").
		Joins("JOIN reading_texts ON reading_texts.id = quizzes.text_id AND reading_texts.deleted_at IS NULL").
		Where("question_options.deleted_at IS NULL").
		Where("quizzes.id = ? AND reading_texts.institution_id = ?", quizID, scope.InstitutionID).
		Where("question_options.id IN ?", optionIDs).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		keys[model.OptionRef{QuestionID: row.QuestionID, OptionID: row.OptionID}] = row.IsCorrect
	}
	return keys, nil
}

// InferenceKeys 返回文本下推理陈述的标准答案
func (r *ContentRepository) InferenceKeys(ctx context.Context, scope model.Capability, textID string, statementIDs []string) (map[string]model.InferenceValue, error) {
	keys := make(map[string]model.InferenceValue, len(statementIDs))
	if len(statementIDs) == 0 {
		return keys, nil
	}

	var statements []model.InferenceStatement
	err := r.DB.WithContext(ctx).
		Scopes(scopedText(scope)).
		Where("inference_statements.text_id = ? AND inference_statements.id IN ?", textID, statementIDs).
		Find(&statements).Error
	if err != nil {
		return nil, err
	}
	for _, s := range statements {
		keys[s.ID] = s.CorrectAnswer
	}
	return keys, nil
}

// SequenceKeys 返回文本下排序题条目的正确顺序
func (r *ContentRepository) SequenceKeys(ctx context.Context, scope model.Capability, textID string, itemIDs []string) (map[string]int, error) {
	keys := make(map[string]int, len(itemIDs))
	if len(itemIDs) == 0 {
		return keys, nil
	}

	var items []model.SequenceItem
	err := r.DB.WithContext(ctx).
		Scopes(scopedText(scope)).
		Where("sequence_items.text_id = ? AND sequence_items.id IN ?", textID, itemIDs).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		keys[item.ID] = item.CorrectOrder
	}
	return keys, nil
}

func (r *ContentRepository) ListInferenceStatements(ctx context.Context, scope model.Capability, textID string) ([]model.InferenceStatement, error) {
	var statements []model.InferenceStatement
	err := r.DB.WithContext(ctx).
		Scopes(scopedText(scope)).
		Where("inference_statements.text_id = ?", textID).
		Order("inference_statements.position ASC").
		Find(&statements).Error
	return statements, err
}

func (r *ContentRepository) ListVocabularyPairs(ctx context.Context, scope model.Capability, textID string) ([]model.VocabularyPair, error) {
	var pairs []model.VocabularyPair
	err := r.DB.WithContext(ctx).
		Scopes(scopedText(scope)).
		Where("vocabulary_pairs.text_id = ?", textID).
		Order("vocabulary_pairs.position ASC").
		Find(&pairs).Error
	return pairs, err
}

func (r *ContentRepository) ListSequenceItems(ctx context.Context, scope model.Capability, textID string) ([]model.SequenceItem, error) {
	var items []model.SequenceItem
	err := r.DB.WithContext(ctx).
		Scopes(scopedText(scope)).
		Where("sequence_items.text_id = ?", textID).
		Order("sequence_items.correct_order ASC").
		Find(&items).Error
	return items, err
}
