package repository

import (
	"context"
	"reading_eval_backend/internal/model"
	"time"

	"gorm.io/gorm"
)

type AccessCodeRepository struct {
	DB *gorm.DB
}

func NewAccessCodeRepository(db *gorm.DB) *AccessCodeRepository {
	return &AccessCodeRepository{DB: db}
}

// FindLatestByDigest 返回摘要匹配、未撤销且过期时间最晚的访问码
func (r *AccessCodeRepository) FindLatestByDigest(ctx context.Context, digest string) (*model.AccessCode, error) {
	var code model.AccessCode
	err := r.DB.WithContext(ctx).
		Where("code_digest = ? AND revoked_at IS NULL", digest).
		Order("expires_at DESC").
		First(&code).Error
	if err != nil {
		return nil, err
	}
	return &code, nil
}

// DigestInUse 判断是否已有仍可用的访问码使用了相同摘要
func (r *AccessCodeRepository) DigestInUse(ctx context.Context, digest string, now time.Time) (bool, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.AccessCode{}).
		Where("code_digest = ? AND revoked_at IS NULL AND expires_at > ?", digest, now).
		Count(&count).Error
	return count > 0, err
}

// Rotate 撤销作答的所有未撤销访问码并写入新码，同一事务
func (r *AccessCodeRepository) Rotate(ctx context.Context, attemptID string, code *model.AccessCode, at time.Time) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.AccessCode{}).
			Where("attempt_id = ? AND revoked_at IS NULL", attemptID).
			Update("revoked_at", at).Error; err != nil {
			return err
		}
		return tx.Create(code).Error
	})
}

// FindUsableByAttempts 按作答 ID 返回当前可用的访问码
func (r *AccessCodeRepository) FindUsableByAttempts(ctx context.Context, attemptIDs []string, now time.Time) (map[string]model.AccessCode, error) {
	result := make(map[string]model.AccessCode, len(attemptIDs))
	if len(attemptIDs) == 0 {
		return result, nil
	}

	var codes []model.AccessCode
	err := r.DB.WithContext(ctx).
		Where("attempt_id IN ? AND revoked_at IS NULL AND expires_at > ?", attemptIDs, now).
		Order("expires_at ASC").
		Find(&codes).Error
	if err != nil {
		return nil, err
	}
	// 升序遍历，最晚过期的覆盖在后
	for _, c := range codes {
		result[c.AttemptID] = c
	}
	return result, nil
}
