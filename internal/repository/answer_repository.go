package repository

import (
	"context"
	"reading_eval_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AnswerRepository 四类答案按各自唯一键 upsert，重复提交不会产生重复行
type AnswerRepository struct {
	DB *gorm.DB
}

func NewAnswerRepository(db *gorm.DB) *AnswerRepository {
	return &AnswerRepository{DB: db}
}

func (r *AnswerRepository) UpsertComprehension(ctx context.Context, rows []model.ComprehensionAnswer) error {
	if len(rows) == 0 {
		return nil
	}
	return r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "attempt_id"}, {Name: "question_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"selected_option_id", "is_correct", "updated_at"}),
	}).Create(&rows).Error
}

func (r *AnswerRepository) UpsertInference(ctx context.Context, rows []model.InferenceAnswer) error {
	if len(rows) == 0 {
		return nil
	}
	return r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "attempt_id"}, {Name: "statement_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"selected_answer", "is_correct", "updated_at"}),
	}).Create(&rows).Error
}

func (r *AnswerRepository) UpsertVocabulary(ctx context.Context, rows []model.VocabularyAnswer) error {
	if len(rows) == 0 {
		return nil
	}
	return r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "attempt_id"}, {Name: "vocabulary_pair_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"selected_pair_id", "is_correct", "updated_at"}),
	}).Create(&rows).Error
}

func (r *AnswerRepository) UpsertSequence(ctx context.Context, rows []model.SequenceAnswer) error {
	if len(rows) == 0 {
		return nil
	}
	return r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "attempt_id"}, {Name: "position"}},
		DoUpdates: clause.AssignmentColumns([]string{"sequence_item_id", "updated_at"}),
	}).Create(&rows).Error
}
