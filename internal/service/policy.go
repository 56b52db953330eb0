package service

import (
	"reading_eval_backend/internal/config"
	"sync/atomic"
	"time"
)

// EvaluationPolicy 运行时可热更新的评测策略
type EvaluationPolicy struct {
	CodeLength         int
	AllowResubmission  bool
	EnforceDeadline    bool
	CloseRevokesAccess bool
	SubmitLockTTL      time.Duration
}

func PolicyFromConfig(cfg config.EvaluationConfig) EvaluationPolicy {
	return EvaluationPolicy{
		CodeLength:         cfg.CodeLength,
		AllowResubmission:  cfg.AllowResubmission,
		EnforceDeadline:    cfg.EnforceDeadline,
		CloseRevokesAccess: cfg.CloseRevokesAccess,
		SubmitLockTTL:      cfg.SubmitLockTTL(),
	}
}

// DefaultPolicy 与配置默认值一致
func DefaultPolicy() EvaluationPolicy {
	return EvaluationPolicy{
		CodeLength:      6,
		EnforceDeadline: true,
		SubmitLockTTL:   30 * time.Second,
	}
}

// PolicyStore 由配置监听协程写入，请求协程读取
type PolicyStore struct {
	current atomic.Pointer[EvaluationPolicy]
}

func NewPolicyStore(p EvaluationPolicy) *PolicyStore {
	s := &PolicyStore{}
	s.Store(p)
	return s
}

func (s *PolicyStore) Load() EvaluationPolicy {
	return *s.current.Load()
}

func (s *PolicyStore) Store(p EvaluationPolicy) {
	s.current.Store(&p)
}
