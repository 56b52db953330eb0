package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var now = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func TestSessionEffectiveStatus(t *testing.T) {
	closedAt := now.Add(-time.Minute)
	tests := []struct {
		name    string
		session EvaluationSession
		want    SessionStatus
	}{
		{"open before deadline", EvaluationSession{Status: SessionOpen, ExpiresAt: now.Add(time.Nanosecond)}, SessionOpen},
		{"expires exactly now", EvaluationSession{Status: SessionOpen, ExpiresAt: now}, SessionExpired},
		{"past deadline", EvaluationSession{Status: SessionOpen, ExpiresAt: now.Add(-time.Hour)}, SessionExpired},
		{"closed before deadline", EvaluationSession{Status: SessionClosed, ExpiresAt: now.Add(time.Hour), ClosedAt: &closedAt}, SessionClosed},
		{"closed and past deadline", EvaluationSession{Status: SessionClosed, ExpiresAt: now.Add(-time.Hour), ClosedAt: &closedAt}, SessionClosed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.session.EffectiveStatus(now))
		})
	}
}

func TestAttemptEffectiveStatus(t *testing.T) {
	open := &EvaluationSession{Status: SessionOpen, ExpiresAt: now.Add(time.Hour)}
	expired := &EvaluationSession{Status: SessionOpen, ExpiresAt: now}
	submittedAt := now.Add(-time.Minute)

	pending := EvaluationAttempt{Status: AttemptPending}
	submitted := EvaluationAttempt{Status: AttemptSubmitted, SubmittedAt: &submittedAt}

	assert.Equal(t, AttemptPending, pending.EffectiveStatus(open, now))
	assert.Equal(t, AttemptExpired, pending.EffectiveStatus(expired, now))
	assert.Equal(t, AttemptSubmitted, submitted.EffectiveStatus(expired, now))
	assert.Equal(t, AttemptPending, pending.EffectiveStatus(nil, now))
}

func TestAccessCodeUsableAt(t *testing.T) {
	revokedAt := now.Add(-time.Second)

	assert.True(t, (&AccessCode{ExpiresAt: now.Add(time.Microsecond)}).UsableAt(now))
	assert.False(t, (&AccessCode{ExpiresAt: now}).UsableAt(now))
	assert.False(t, (&AccessCode{ExpiresAt: now.Add(time.Hour), RevokedAt: &revokedAt}).UsableAt(now))
}

func TestCapability(t *testing.T) {
	assert.False(t, Capability{Role: Teacher}.Valid())
	assert.True(t, StudentCapability("inst-1").Valid())
	assert.True(t, Capability{Role: Tutor, InstitutionID: "i"}.HasRole(Teacher, Tutor))
	assert.False(t, Capability{Role: RoleStudent, InstitutionID: "i"}.HasRole(Teacher, Tutor))
}
