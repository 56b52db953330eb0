package service

import (
	"math"
	"reading_eval_backend/internal/model"
	"reading_eval_backend/internal/util"
	"sort"
)

type Category string

const (
	CategoryComprehension Category = "comprehension"
	CategoryInference     Category = "inference"
	CategoryVocabulary    Category = "vocabulary"
	CategorySequence      Category = "sequence"
)

const (
	SkipOptionNotResolved    = "option does not belong to question"
	SkipStatementNotResolved = "statement does not belong to text"
)

type ComprehensionInput struct {
	QuestionID string `json:"questionId" validate:"required,uuid"`
	OptionID   string `json:"optionId" validate:"required,uuid"`
}

type InferenceInput struct {
	StatementID string               `json:"statementId" validate:"required,uuid"`
	Answer      model.InferenceValue `json:"answer" validate:"required,oneof=verdadero falso indeterminado"`
}

type VocabularyInput struct {
	VocabularyPairID string `json:"vocabularyPairId" validate:"required,uuid"`
	SelectedPairID   string `json:"selectedPairId" validate:"required,uuid"`
}

type SequenceInput struct {
	SequenceItemID string `json:"sequenceItemId" validate:"required,uuid"`
	Position       int    `json:"position" validate:"min=1"`
}

// Submission 一次提交的全部答案，四类均可为空
type Submission struct {
	ReadingTimeMs     int64                `json:"readingTimeMs" validate:"min=0"`
	Answers           []ComprehensionInput `json:"answers" validate:"dive"`
	InferenceAnswers  []InferenceInput     `json:"inferenceAnswers" validate:"dive"`
	VocabularyAnswers []VocabularyInput    `json:"vocabularyAnswers" validate:"dive"`
	SequenceAnswers   []SequenceInput      `json:"sequenceAnswers" validate:"dive"`
}

// checkDuplicates 同一提交内不允许对同一题目、陈述、词对或位置重复作答
func (s *Submission) checkDuplicates() error {
	seen := make(map[string]bool)
	for _, a := range s.Answers {
		if seen[a.QuestionID] {
			return util.Validationf("duplicate answer for question %s", a.QuestionID)
		}
		seen[a.QuestionID] = true
	}

	seen = make(map[string]bool)
	for _, a := range s.InferenceAnswers {
		if seen[a.StatementID] {
			return util.Validationf("duplicate answer for statement %s", a.StatementID)
		}
		seen[a.StatementID] = true
	}

	seen = make(map[string]bool)
	for _, a := range s.VocabularyAnswers {
		if seen[a.VocabularyPairID] {
			return util.Validationf("duplicate answer for vocabulary pair %s", a.VocabularyPairID)
		}
		seen[a.VocabularyPairID] = true
	}

	seen = make(map[string]bool)
	positions := make(map[int]bool)
	for _, a := range s.SequenceAnswers {
		if seen[a.SequenceItemID] {
			return util.Validationf("duplicate sequence item %s", a.SequenceItemID)
		}
		if positions[a.Position] {
			return util.Validationf("duplicate sequence position %d", a.Position)
		}
		seen[a.SequenceItemID] = true
		positions[a.Position] = true
	}
	return nil
}

// AnswerKeys 从内容库加载的标准答案；词汇题不需要
type AnswerKeys struct {
	Options   map[model.OptionRef]bool
	Inference map[string]model.InferenceValue
	Sequence  map[string]int
}

// Outcome 单个作答项的评分结果：Scored 计入总分，否则 SkipReason 说明原因
type Outcome struct {
	Category   Category `json:"category"`
	ItemID     string   `json:"itemId"`
	Scored     bool     `json:"scored"`
	Correct    bool     `json:"correct"`
	SkipReason string   `json:"skipReason,omitempty"`
}

type Tally struct {
	Correct int `json:"correct"`
	Total   int `json:"total"`
}

func (t *Tally) add(correct bool) {
	t.Total++
	if correct {
		t.Correct++
	}
}

type ScoreResult struct {
	Outcomes   []Outcome
	ByCategory map[Category]Tally
	Correct    int
	Total      int
	Percent    float64

	Comprehension []model.ComprehensionAnswer
	Inference     []model.InferenceAnswer
	Vocabulary    []model.VocabularyAnswer
	Sequence      []model.SequenceAnswer
}

func (r *ScoreResult) Skipped() []Outcome {
	var skipped []Outcome
	for _, o := range r.Outcomes {
		if !o.Scored {
			skipped = append(skipped, o)
		}
	}
	return skipped
}

// ScorePercent 保留两位小数；总数为 0 时为 0
func ScorePercent(correct, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(correct)/float64(total)*10000) / 100
}

// Score 纯函数：相同输入总是得到相同结果。
// 理解、推理、词汇每项计 1 分；排序题整组计 1 分，全部位置正确才得分。
func Score(attemptID string, sub Submission, keys AnswerKeys) ScoreResult {
	result := ScoreResult{ByCategory: make(map[Category]Tally)}
	tallies := map[Category]*Tally{
		CategoryComprehension: {},
		CategoryInference:     {},
		CategoryVocabulary:    {},
		CategorySequence:      {},
	}

	for _, a := range sub.Answers {
		isCorrect, ok := keys.Options[model.OptionRef{QuestionID: a.QuestionID, OptionID: a.OptionID}]
		if !ok {
			result.Outcomes = append(result.Outcomes, Outcome{Category: CategoryComprehension, ItemID: a.QuestionID, SkipReason: SkipOptionNotResolved})
			continue
		}
		tallies[CategoryComprehension].add(isCorrect)
		result.Outcomes = append(result.Outcomes, Outcome{Category: CategoryComprehension, ItemID: a.QuestionID, Scored: true, Correct: isCorrect})
		result.Comprehension = append(result.Comprehension, model.ComprehensionAnswer{
			AttemptID:        attemptID,
			QuestionID:       a.QuestionID,
			SelectedOptionID: a.OptionID,
			IsCorrect:        isCorrect,
		})
	}

	for _, a := range sub.InferenceAnswers {
		expected, ok := keys.Inference[a.StatementID]
		if !ok {
			result.Outcomes = append(result.Outcomes, Outcome{Category: CategoryInference, ItemID: a.StatementID, SkipReason: SkipStatementNotResolved})
			continue
		}
		isCorrect := a.Answer == expected
		tallies[CategoryInference].add(isCorrect)
		result.Outcomes = append(result.Outcomes, Outcome{Category: CategoryInference, ItemID: a.StatementID, Scored: true, Correct: isCorrect})
		result.Inference = append(result.Inference, model.InferenceAnswer{
			AttemptID:      attemptID,
			StatementID:    a.StatementID,
			SelectedAnswer: a.Answer,
			IsCorrect:      isCorrect,
		})
	}

	// 词汇题：所选词对与题目词对相同即为正确
	for _, a := range sub.VocabularyAnswers {
		isCorrect := a.SelectedPairID == a.VocabularyPairID
		tallies[CategoryVocabulary].add(isCorrect)
		result.Outcomes = append(result.Outcomes, Outcome{Category: CategoryVocabulary, ItemID: a.VocabularyPairID, Scored: true, Correct: isCorrect})
		result.Vocabulary = append(result.Vocabulary, model.VocabularyAnswer{
			AttemptID:        attemptID,
			VocabularyPairID: a.VocabularyPairID,
			SelectedPairID:   a.SelectedPairID,
			IsCorrect:        isCorrect,
		})
	}

	if len(sub.SequenceAnswers) > 0 {
		ordered := make([]SequenceInput, len(sub.SequenceAnswers))
		copy(ordered, sub.SequenceAnswers)
		sort.SliceStable(ordered, func(i, j int) bool {
			return ordered[i].Position < ordered[j].Position
		})

		// 缺少标准顺序的条目使整组判错
		groupCorrect := true
		for i, item := range ordered {
			expected, ok := keys.Sequence[item.SequenceItemID]
			if !ok || expected != i+1 {
				groupCorrect = false
			}
			result.Sequence = append(result.Sequence, model.SequenceAnswer{
				AttemptID:      attemptID,
				SequenceItemID: item.SequenceItemID,
				Position:       item.Position,
			})
		}
		tallies[CategorySequence].add(groupCorrect)
		result.Outcomes = append(result.Outcomes, Outcome{Category: CategorySequence, Scored: true, Correct: groupCorrect})
	}

	for category, t := range tallies {
		result.ByCategory[category] = *t
		result.Correct += t.Correct
		result.Total += t.Total
	}
	result.Percent = ScorePercent(result.Correct, result.Total)
	return result
}
