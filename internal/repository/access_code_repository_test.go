package repository

import (
	"context"
	"strings"
	"testing"
	"time"

	"reading_eval_backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessCodeRepository_FindLatestByDigestSkipsRevoked(t *testing.T) {
	db, rec := newDryRunDB(t)
	repo := NewAccessCodeRepository(db)

	_, err := repo.FindLatestByDigest(context.Background(), "d1")
	require.NoError(t, err)

	sql := rec.Last(t)
	assert.Contains(t, sql, "FROM `evaluation_access_codes`")
	assert.Contains(t, sql, "code_digest = 'd1' AND revoked_at IS NULL")
	assert.Contains(t, sql, "ORDER BY expires_at DESC")
	assert.Contains(t, sql, "LIMIT 1")
}

func TestAccessCodeRepository_DigestInUseCountsOnlyUsableCodes(t *testing.T) {
	db, rec := newDryRunDB(t)
	repo := NewAccessCodeRepository(db)

	inUse, err := repo.DigestInUse(context.Background(), "d1", testNow)
	require.NoError(t, err)
	assert.False(t, inUse)

	sql := rec.Last(t)
	assert.Contains(t, sql, "SELECT count(*) FROM `evaluation_access_codes`")
	assert.Contains(t, sql, "code_digest = 'd1' AND revoked_at IS NULL AND expires_at > '2026-03-02 09:00:00'")
}

func TestAccessCodeRepository_RotateRevokesBeforeInsert(t *testing.T) {
	db, rec := newDryRunDB(t)
	repo := NewAccessCodeRepository(db)

	code := &model.AccessCode{AttemptID: "a1", Code: "NEW234", CodeDigest: "d2", ExpiresAt: testNow.Add(time.Hour)}
	require.NoError(t, repo.Rotate(context.Background(), "a1", code, testNow))

	all := rec.All()
	require.Len(t, all, 2)

	revoke := all[0]
	assert.True(t, strings.HasPrefix(revoke, "UPDATE `evaluation_access_codes` SET "), revoke)
	assert.Contains(t, revoke, "`revoked_at`='2026-03-02 09:00:00'")
	assert.Contains(t, revoke, "attempt_id = 'a1' AND revoked_at IS NULL")

	insert := all[1]
	assert.True(t, strings.HasPrefix(insert, "INSERT INTO `evaluation_access_codes` "), insert)
	assert.Contains(t, insert, "'NEW234'")
	assert.Contains(t, insert, "'2026-03-02 10:00:00'")
	assert.NotEmpty(t, code.ID)
}

func TestAccessCodeRepository_FindUsableByAttempts(t *testing.T) {
	t.Run("filters revoked and expired codes", func(t *testing.T) {
		db, rec := newDryRunDB(t)
		repo := NewAccessCodeRepository(db)

		codes, err := repo.FindUsableByAttempts(context.Background(), []string{"a1", "a2"}, testNow)
		require.NoError(t, err)
		assert.Empty(t, codes)

		sql := rec.Last(t)
		assert.Contains(t, sql, "attempt_id IN ('a1','a2') AND revoked_at IS NULL AND expires_at > '2026-03-02 09:00:00'")
		assert.Contains(t, sql, "ORDER BY expires_at ASC")
	})

	t.Run("no attempts issues no query", func(t *testing.T) {
		db, rec := newDryRunDB(t)
		repo := NewAccessCodeRepository(db)

		codes, err := repo.FindUsableByAttempts(context.Background(), nil, testNow)
		require.NoError(t, err)
		assert.NotNil(t, codes)
		assert.Empty(t, rec.All())
	})
}
