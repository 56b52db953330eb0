package repository

import (
	"context"
	"testing"

	"reading_eval_backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnswerRepository_UpsertsOnUniqueKey(t *testing.T) {
	tests := []struct {
		name   string
		upsert func(ctx context.Context, repo *AnswerRepository) error
		insert string
		update string
	}{
		{
			name: "comprehension",
			upsert: func(ctx context.Context, repo *AnswerRepository) error {
				return repo.UpsertComprehension(ctx, []model.ComprehensionAnswer{
					{AttemptID: "a1", QuestionID: "q1", SelectedOptionID: "o1", IsCorrect: true},
					{AttemptID: "a1", QuestionID: "q2", SelectedOptionID: "o5"},
				})
			},
			insert: "INSERT INTO `comprehension_answers` ",
			update: "ON DUPLICATE KEY UPDATE `selected_option_id`=VALUES(`selected_option_id`),`is_correct`=VALUES(`is_correct`),`updated_at`=VALUES(`updated_at`)",
		},
		{
			name: "inference",
			upsert: func(ctx context.Context, repo *AnswerRepository) error {
				return repo.UpsertInference(ctx, []model.InferenceAnswer{
					{AttemptID: "a1", StatementID: "st1", SelectedAnswer: model.InferenceTrue, IsCorrect: true},
				})
			},
			insert: "INSERT INTO `inference_answers` ",
			update: "ON DUPLICATE KEY UPDATE `selected_answer`=VALUES(`selected_answer`),`is_correct`=VALUES(`is_correct`),`updated_at`=VALUES(`updated_at`)",
		},
		{
			name: "vocabulary",
			upsert: func(ctx context.Context, repo *AnswerRepository) error {
				return repo.UpsertVocabulary(ctx, []model.VocabularyAnswer{
					{AttemptID: "a1", VocabularyPairID: "v1", SelectedPairID: "v2"},
				})
			},
			insert: "INSERT INTO `vocabulary_answers` ",
			update: "ON DUPLICATE KEY UPDATE `selected_pair_id`=VALUES(`selected_pair_id`),`is_correct`=VALUES(`is_correct`),`updated_at`=VALUES(`updated_at`)",
		},
		{
			name: "sequence",
			upsert: func(ctx context.Context, repo *AnswerRepository) error {
				return repo.UpsertSequence(ctx, []model.SequenceAnswer{
					{AttemptID: "a1", SequenceItemID: "i2", Position: 1},
					{AttemptID: "a1", SequenceItemID: "i1", Position: 2},
				})
			},
			insert: "INSERT INTO `sequence_answers` ",
			update: "ON DUPLICATE KEY UPDATE `sequence_item_id`=VALUES(`sequence_item_id`),`updated_at`=VALUES(`updated_at`)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, rec := newDryRunDB(t)
			repo := NewAnswerRepository(db)

			require.NoError(t, tt.upsert(context.Background(), repo))

			sql := rec.Last(t)
			assert.Contains(t, sql, tt.insert)
			assert.Contains(t, sql, tt.update)
			assert.Contains(t, sql, "'a1'")
		})
	}
}

func TestAnswerRepository_EmptyBatchIssuesNoStatement(t *testing.T) {
	db, rec := newDryRunDB(t)
	repo := NewAnswerRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.UpsertComprehension(ctx, nil))
	require.NoError(t, repo.UpsertInference(ctx, nil))
	require.NoError(t, repo.UpsertVocabulary(ctx, nil))
	require.NoError(t, repo.UpsertSequence(ctx, nil))
	assert.Empty(t, rec.All())
}
