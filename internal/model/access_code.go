package model

import "time"

// AccessCode 学生输入的一次性访问码；查询只按摘要进行，明文仅供教师查看
// swagger:model AccessCode
type AccessCode struct {
	UUIDBase
	AttemptID  string     `gorm:"index;type:varchar(36);not null" json:"attemptId"`
	Code       string     `gorm:"type:varchar(16);not null" json:"code"`
	CodeDigest string     `gorm:"index;type:char(64);not null" json:"-"`
	ExpiresAt  time.Time  `json:"expiresAt"`
	RevokedAt  *time.Time `json:"revokedAt,omitempty"`
}

func (AccessCode) TableName() string {
	return "evaluation_access_codes"
}

// ExpiredAt 严格边界：expires_at 等于 now 即已过期
func (c *AccessCode) ExpiredAt(now time.Time) bool {
	return !c.ExpiresAt.After(now)
}

func (c *AccessCode) UsableAt(now time.Time) bool {
	return c.RevokedAt == nil && !c.ExpiredAt(now)
}
