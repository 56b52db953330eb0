package repository

import (
	"context"
	"reading_eval_backend/internal/model"
	"time"

	"gorm.io/gorm"
)

type SessionRepository struct {
	DB *gorm.DB
}

func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{DB: db}
}

// CreatePublication 在一个事务中写入场次、全部作答与访问码
func (r *SessionRepository) CreatePublication(ctx context.Context, session *model.EvaluationSession, attempts []model.EvaluationAttempt, codes []model.AccessCode) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(session).Error; err != nil {
			return err
		}
		if len(attempts) > 0 {
			if err := tx.CreateInBatches(&attempts, 100).Error; err != nil {
				return err
			}
		}
		if len(codes) > 0 {
			if err := tx.CreateInBatches(&codes, 100).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *SessionRepository) FindByID(ctx context.Context, id string) (*model.EvaluationSession, error) {
	var s model.EvaluationSession
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// FindScoped 只返回属于指定机构的场次
func (r *SessionRepository) FindScoped(ctx context.Context, institutionID, id string) (*model.EvaluationSession, error) {
	var s model.EvaluationSession
	err := r.DB.WithContext(ctx).
		Where("id = ? AND institution_id = ?", id, institutionID).
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Close 仅在尚未关闭时写入 closed_at；返回本次调用是否真正关闭了场次
func (r *SessionRepository) Close(ctx context.Context, id string, at time.Time) (bool, error) {
	result := r.DB.WithContext(ctx).Model(&model.EvaluationSession{}).
		Where("id = ? AND closed_at IS NULL", id).
		Updates(map[string]interface{}{
			"status":    model.SessionClosed,
			"closed_at": at,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
