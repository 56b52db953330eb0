package repository

import (
	"context"
	"reading_eval_backend/internal/model"
	"time"

	"gorm.io/gorm"
)

type AttemptRepository struct {
	DB *gorm.DB
}

func NewAttemptRepository(db *gorm.DB) *AttemptRepository {
	return &AttemptRepository{DB: db}
}

func (r *AttemptRepository) FindByID(ctx context.Context, id string) (*model.EvaluationAttempt, error) {
	var a model.EvaluationAttempt
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AttemptRepository) ListBySession(ctx context.Context, sessionID string) ([]model.EvaluationAttempt, error) {
	var attempts []model.EvaluationAttempt
	err := r.DB.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at ASC").
		Find(&attempts).Error
	return attempts, err
}

// Claim 条件更新认领作答：并发提交中只有一个能把状态改为 in_progress。
// 认领超过 lease 未完成视为失效，可被重新认领。
func (r *AttemptRepository) Claim(ctx context.Context, id string, allowSubmitted bool, now time.Time, lease time.Duration) (bool, error) {
	query := r.DB.WithContext(ctx).Model(&model.EvaluationAttempt{}).
		Where("id = ?", id).
		Where("(status <> ? OR updated_at < ?)", model.AttemptInProgress, now.Add(-lease))
	if !allowSubmitted {
		query = query.Where("submitted_at IS NULL")
	}

	result := query.Updates(map[string]interface{}{
		"status":     model.AttemptInProgress,
		"updated_at": now,
	})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// Release 提交失败时放弃认领
func (r *AttemptRepository) Release(ctx context.Context, id string) error {
	return r.DB.WithContext(ctx).Model(&model.EvaluationAttempt{}).
		Where("id = ? AND status = ?", id, model.AttemptInProgress).
		Update("status", gorm.Expr("CASE WHEN submitted_at IS NULL THEN ? ELSE ? END", model.AttemptPending, model.AttemptSubmitted)).
		Error
}

// Finalize 写入提交汇总字段，只对认领中的作答生效
func (r *AttemptRepository) Finalize(ctx context.Context, attempt *model.EvaluationAttempt) error {
	result := r.DB.WithContext(ctx).Model(&model.EvaluationAttempt{}).
		Where("id = ? AND status = ?", attempt.ID, model.AttemptInProgress).
		Updates(map[string]interface{}{
			"status":          attempt.Status,
			"reading_time_ms": attempt.ReadingTimeMs,
			"total_questions": attempt.TotalQuestions,
			"correct_count":   attempt.CorrectCount,
			"score_percent":   attempt.ScorePercent,
			"submitted_at":    attempt.SubmittedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
