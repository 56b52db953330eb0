// Package servicetest 提供服务层存储接口的内存实现，供服务与控制器测试使用
package servicetest

import (
	"context"
	"io"
	"sort"
	"sync"
	"time"

	"reading_eval_backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type pairKey struct {
	attemptID string
	itemID    string
}

type positionKey struct {
	attemptID string
	position  int
}

// Memory 所有内存仓库共享的数据；错误注入字段用于模拟持久化失败
type Memory struct {
	mu sync.Mutex

	sessions     map[string]model.EvaluationSession
	attempts     map[string]model.EvaluationAttempt
	attemptOrder []string
	codes        []model.AccessCode

	Comprehension map[pairKey]model.ComprehensionAnswer
	Inference     map[pairKey]model.InferenceAnswer
	Vocabulary    map[pairKey]model.VocabularyAnswer
	Sequence      map[positionKey]model.SequenceAnswer

	texts       map[string]model.ReadingText
	quizzes     map[string]model.Quiz
	statements  map[string]model.InferenceStatement
	pairs       map[string]model.VocabularyPair
	items       map[string]model.SequenceItem
	classrooms  map[string]model.Classroom
	students    map[string]model.Student
	enrollments []model.Enrollment

	UpsertErr   map[string]error
	FinalizeErr error
	PublishErr  error

	UpsertCalls   int
	ClaimCalls    int
	FinalizeCalls int
}

func NewMemory() *Memory {
	return &Memory{
		sessions:      make(map[string]model.EvaluationSession),
		attempts:      make(map[string]model.EvaluationAttempt),
		Comprehension: make(map[pairKey]model.ComprehensionAnswer),
		Inference:     make(map[pairKey]model.InferenceAnswer),
		Vocabulary:    make(map[pairKey]model.VocabularyAnswer),
		Sequence:      make(map[positionKey]model.SequenceAnswer),
		texts:         make(map[string]model.ReadingText),
		quizzes:       make(map[string]model.Quiz),
		statements:    make(map[string]model.InferenceStatement),
		pairs:         make(map[string]model.VocabularyPair),
		items:         make(map[string]model.SequenceItem),
		classrooms:    make(map[string]model.Classroom),
		students:      make(map[string]model.Student),
		UpsertErr:     make(map[string]error),
	}
}

func (m *Memory) Sessions() *SessionRepo { return &SessionRepo{m} }
func (m *Memory) Attempts() *AttemptRepo { return &AttemptRepo{m} }
func (m *Memory) Codes() *CodeRepo { return &CodeRepo{m} }
func (m *Memory) Answers() *AnswerRepo { return &AnswerRepo{m} }
func (m *Memory) Content() *ContentRepo { return &ContentRepo{m} }
func (m *Memory) Directory() *DirectoryRepo { return &DirectoryRepo{m} }

func ensureID(id *string) {
	if *id == "" {
		*id = uuid.NewString()
	}
}

// ---- 测试数据构造 ----

func (m *Memory) AddText(institutionID string) model.ReadingText {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := model.ReadingText{InstitutionID: institutionID, Title: "El zorro y la uva", Topic: "fábulas", Grade: "2", Difficulty: "facil", Content: "Había una vez..."}
	ensureID(&t.ID)
	m.texts[t.ID] = t
	return t
}

// AddQuiz 每题的第一个选项为正确选项
func (m *Memory) AddQuiz(textID string, questions, optionsPerQuestion int) model.Quiz {
	m.mu.Lock()
	defer m.mu.Unlock()
	q := model.Quiz{TextID: textID, Title: "Comprensión"}
	ensureID(&q.ID)
	for i := 0; i < questions; i++ {
		question := model.QuizQuestion{QuizID: q.ID, Prompt: "¿Pregunta?", Position: i + 1}
		ensureID(&question.ID)
		for j := 0; j < optionsPerQuestion; j++ {
			option := model.QuestionOption{QuestionID: question.ID, Text: "opción", IsCorrect: j == 0, Position: j + 1}
			ensureID(&option.ID)
			question.Options = append(question.Options, option)
		}
		q.Questions = append(q.Questions, question)
	}
	m.quizzes[q.ID] = q
	return q
}

func (m *Memory) AddInference(textID string, answer model.InferenceValue) model.InferenceStatement {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := model.InferenceStatement{TextID: textID, Statement: "El zorro tenía hambre.", CorrectAnswer: answer, Position: len(m.statements) + 1}
	ensureID(&s.ID)
	m.statements[s.ID] = s
	return s
}

func (m *Memory) AddVocabulary(textID, word, definition string) model.VocabularyPair {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := model.VocabularyPair{TextID: textID, Word: word, Definition: definition, Position: len(m.pairs) + 1}
	ensureID(&p.ID)
	m.pairs[p.ID] = p
	return p
}

func (m *Memory) AddSequenceItem(textID string, correctOrder int) model.SequenceItem {
	m.mu.Lock()
	defer m.mu.Unlock()
	item := model.SequenceItem{TextID: textID, Content: "paso", CorrectOrder: correctOrder}
	ensureID(&item.ID)
	m.items[item.ID] = item
	return item
}

func (m *Memory) AddClassroom(institutionID string) model.Classroom {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := model.Classroom{InstitutionID: institutionID, Name: "2°A", Grade: "2"}
	ensureID(&c.ID)
	m.classrooms[c.ID] = c
	return c
}

func (m *Memory) Enroll(classroomID, institutionID, fullName string, active bool) model.Enrollment {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := model.Student{InstitutionID: institutionID, FullName: fullName}
	ensureID(&s.ID)
	m.students[s.ID] = s
	e := model.Enrollment{ClassroomID: classroomID, StudentID: s.ID, Active: active, Student: s}
	ensureID(&e.ID)
	m.enrollments = append(m.enrollments, e)
	return e
}

// AddSession 直接写入一个场次及其作答，不生成访问码
func (m *Memory) AddSession(session model.EvaluationSession, attempts ...model.EvaluationAttempt) model.EvaluationSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	ensureID(&session.ID)
	m.sessions[session.ID] = session
	for _, a := range attempts {
		ensureID(&a.ID)
		a.SessionID = session.ID
		m.putAttempt(a)
	}
	return session
}

func (m *Memory) AddAttempt(a model.EvaluationAttempt) model.EvaluationAttempt {
	m.mu.Lock()
	defer m.mu.Unlock()
	ensureID(&a.ID)
	m.putAttempt(a)
	return a
}

func (m *Memory) AddCode(c model.AccessCode) model.AccessCode {
	m.mu.Lock()
	defer m.mu.Unlock()
	ensureID(&c.ID)
	m.codes = append(m.codes, c)
	return c
}

func (m *Memory) putAttempt(a model.EvaluationAttempt) {
	if _, exists := m.attempts[a.ID]; !exists {
		m.attemptOrder = append(m.attemptOrder, a.ID)
	}
	m.attempts[a.ID] = a
}

func (m *Memory) Attempt(id string) model.EvaluationAttempt {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.attempts[id]
}

func (m *Memory) Session(id string) model.EvaluationSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[id]
}

// AllCodes 返回某作答的全部访问码（含已撤销）
func (m *Memory) AllCodes(attemptID string) []model.AccessCode {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.AccessCode
	for _, c := range m.codes {
		if c.AttemptID == attemptID {
			out = append(out, c)
		}
	}
	return out
}

func (m *Memory) AnswerRows() (comprehension, inference, vocabulary, sequence int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Comprehension), len(m.Inference), len(m.Vocabulary), len(m.Sequence)
}

// ---- SessionStore ----

type SessionRepo struct{ m *Memory }

func (r *SessionRepo) CreatePublication(ctx context.Context, session *model.EvaluationSession, attempts []model.EvaluationAttempt, codes []model.AccessCode) error {
	m := r.m
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.PublishErr != nil {
		return m.PublishErr
	}
	ensureID(&session.ID)
	m.sessions[session.ID] = *session
	for _, a := range attempts {
		ensureID(&a.ID)
		m.putAttempt(a)
	}
	for _, c := range codes {
		ensureID(&c.ID)
		m.codes = append(m.codes, c)
	}
	return nil
}

func (r *SessionRepo) FindByID(ctx context.Context, id string) (*model.EvaluationSession, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	s, ok := r.m.sessions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &s, nil
}

func (r *SessionRepo) FindScoped(ctx context.Context, institutionID, id string) (*model.EvaluationSession, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	s, ok := r.m.sessions[id]
	if !ok || s.InstitutionID != institutionID {
		return nil, gorm.ErrRecordNotFound
	}
	return &s, nil
}

func (r *SessionRepo) Close(ctx context.Context, id string, at time.Time) (bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	s, ok := r.m.sessions[id]
	if !ok || s.ClosedAt != nil {
		return false, nil
	}
	s.Status = model.SessionClosed
	s.ClosedAt = &at
	r.m.sessions[id] = s
	return true, nil
}

// ---- AttemptStore ----

type AttemptRepo struct{ m *Memory }

func (r *AttemptRepo) FindByID(ctx context.Context, id string) (*model.EvaluationAttempt, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	a, ok := r.m.attempts[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &a, nil
}

func (r *AttemptRepo) ListBySession(ctx context.Context, sessionID string) ([]model.EvaluationAttempt, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []model.EvaluationAttempt
	for _, id := range r.m.attemptOrder {
		if a := r.m.attempts[id]; a.SessionID == sessionID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *AttemptRepo) Claim(ctx context.Context, id string, allowSubmitted bool, now time.Time, lease time.Duration) (bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.ClaimCalls++
	a, ok := r.m.attempts[id]
	if !ok {
		return false, nil
	}
	if a.IsSubmitted() && !allowSubmitted {
		return false, nil
	}
	if a.Status == model.AttemptInProgress && !a.UpdatedAt.Before(now.Add(-lease)) {
		return false, nil
	}
	a.Status = model.AttemptInProgress
	a.UpdatedAt = now
	r.m.attempts[id] = a
	return true, nil
}

func (r *AttemptRepo) Release(ctx context.Context, id string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	a, ok := r.m.attempts[id]
	if !ok || a.Status != model.AttemptInProgress {
		return nil
	}
	a.Status = model.AttemptPending
	if a.IsSubmitted() {
		a.Status = model.AttemptSubmitted
	}
	r.m.attempts[id] = a
	return nil
}

// Finalize 只对已被认领的作答生效
func (r *AttemptRepo) Finalize(ctx context.Context, attempt *model.EvaluationAttempt) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.FinalizeCalls++
	if r.m.FinalizeErr != nil {
		return r.m.FinalizeErr
	}
	stored, ok := r.m.attempts[attempt.ID]
	if !ok || stored.Status != model.AttemptInProgress {
		return gorm.ErrRecordNotFound
	}
	r.m.attempts[attempt.ID] = *attempt
	return nil
}

// ---- AccessCodeStore ----

type CodeRepo struct{ m *Memory }

func (r *CodeRepo) FindLatestByDigest(ctx context.Context, digest string) (*model.AccessCode, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var latest *model.AccessCode
	for i := range r.m.codes {
		c := r.m.codes[i]
		if c.CodeDigest != digest || c.RevokedAt != nil {
			continue
		}
		if latest == nil || c.ExpiresAt.After(latest.ExpiresAt) {
			latest = &c
		}
	}
	if latest == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return latest, nil
}

func (r *CodeRepo) DigestInUse(ctx context.Context, digest string, now time.Time) (bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for i := range r.m.codes {
		if r.m.codes[i].CodeDigest == digest && r.m.codes[i].UsableAt(now) {
			return true, nil
		}
	}
	return false, nil
}

func (r *CodeRepo) Rotate(ctx context.Context, attemptID string, code *model.AccessCode, at time.Time) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for i := range r.m.codes {
		if r.m.codes[i].AttemptID == attemptID && r.m.codes[i].RevokedAt == nil {
			revokedAt := at
			r.m.codes[i].RevokedAt = &revokedAt
		}
	}
	ensureID(&code.ID)
	r.m.codes = append(r.m.codes, *code)
	return nil
}

func (r *CodeRepo) FindUsableByAttempts(ctx context.Context, attemptIDs []string, now time.Time) (map[string]model.AccessCode, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	wanted := make(map[string]bool, len(attemptIDs))
	for _, id := range attemptIDs {
		wanted[id] = true
	}
	out := make(map[string]model.AccessCode)
	for _, c := range r.m.codes {
		if !wanted[c.AttemptID] || !c.UsableAt(now) {
			continue
		}
		if prev, ok := out[c.AttemptID]; !ok || c.ExpiresAt.After(prev.ExpiresAt) {
			out[c.AttemptID] = c
		}
	}
	return out, nil
}

// ---- AnswerStore ----

type AnswerRepo struct{ m *Memory }

func (r *AnswerRepo) UpsertComprehension(ctx context.Context, rows []model.ComprehensionAnswer) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.UpsertCalls++
	if err := r.m.UpsertErr["comprehension"]; err != nil {
		return err
	}
	for _, row := range rows {
		r.m.Comprehension[pairKey{row.AttemptID, row.QuestionID}] = row
	}
	return nil
}

func (r *AnswerRepo) UpsertInference(ctx context.Context, rows []model.InferenceAnswer) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.UpsertCalls++
	if err := r.m.UpsertErr["inference"]; err != nil {
		return err
	}
	for _, row := range rows {
		r.m.Inference[pairKey{row.AttemptID, row.StatementID}] = row
	}
	return nil
}

func (r *AnswerRepo) UpsertVocabulary(ctx context.Context, rows []model.VocabularyAnswer) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.UpsertCalls++
	if err := r.m.UpsertErr["vocabulary"]; err != nil {
		return err
	}
	for _, row := range rows {
		r.m.Vocabulary[pairKey{row.AttemptID, row.VocabularyPairID}] = row
	}
	return nil
}

func (r *AnswerRepo) UpsertSequence(ctx context.Context, rows []model.SequenceAnswer) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.UpsertCalls++
	if err := r.m.UpsertErr["sequence"]; err != nil {
		return err
	}
	for _, row := range rows {
		r.m.Sequence[positionKey{row.AttemptID, row.Position}] = row
	}
	return nil
}

// ---- ContentStore ----

type ContentRepo struct{ m *Memory }

func (r *ContentRepo) textInScope(scope model.Capability, textID string) bool {
	t, ok := r.m.texts[textID]
	return ok && t.InstitutionID == scope.InstitutionID
}

func (r *ContentRepo) FindText(ctx context.Context, scope model.Capability, textID string) (*model.ReadingText, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if !r.textInScope(scope, textID) {
		return nil, gorm.ErrRecordNotFound
	}
	t := r.m.texts[textID]
	return &t, nil
}

func (r *ContentRepo) FindQuiz(ctx context.Context, scope model.Capability, quizID string) (*model.Quiz, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	q, ok := r.m.quizzes[quizID]
	if !ok || !r.textInScope(scope, q.TextID) {
		return nil, gorm.ErrRecordNotFound
	}
	return &q, nil
}

func (r *ContentRepo) OptionKeys(ctx context.Context, scope model.Capability, quizID string, refs []model.OptionRef) (map[model.OptionRef]bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	keys := make(map[model.OptionRef]bool)
	q, ok := r.m.quizzes[quizID]
	if !ok || !r.textInScope(scope, q.TextID) {
		return keys, nil
	}
	wanted := make(map[model.OptionRef]bool, len(refs))
	for _, ref := range refs {
		wanted[ref] = true
	}
	for _, question := range q.Questions {
		for _, o := range question.Options {
			ref := model.OptionRef{QuestionID: question.ID, OptionID: o.ID}
			if wanted[ref] {
				keys[ref] = o.IsCorrect
			}
		}
	}
	return keys, nil
}

func (r *ContentRepo) InferenceKeys(ctx context.Context, scope model.Capability, textID string, statementIDs []string) (map[string]model.InferenceValue, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	keys := make(map[string]model.InferenceValue)
	if !r.textInScope(scope, textID) {
		return keys, nil
	}
	for _, id := range statementIDs {
		if s, ok := r.m.statements[id]; ok && s.TextID == textID {
			keys[id] = s.CorrectAnswer
		}
	}
	return keys, nil
}

func (r *ContentRepo) SequenceKeys(ctx context.Context, scope model.Capability, textID string, itemIDs []string) (map[string]int, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	keys := make(map[string]int)
	if !r.textInScope(scope, textID) {
		return keys, nil
	}
	for _, id := range itemIDs {
		if item, ok := r.m.items[id]; ok && item.TextID == textID {
			keys[id] = item.CorrectOrder
		}
	}
	return keys, nil
}

func (r *ContentRepo) ListInferenceStatements(ctx context.Context, scope model.Capability, textID string) ([]model.InferenceStatement, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []model.InferenceStatement
	if !r.textInScope(scope, textID) {
		return out, nil
	}
	for _, s := range r.m.statements {
		if s.TextID == textID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (r *ContentRepo) ListVocabularyPairs(ctx context.Context, scope model.Capability, textID string) ([]model.VocabularyPair, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []model.VocabularyPair
	if !r.textInScope(scope, textID) {
		return out, nil
	}
	for _, p := range r.m.pairs {
		if p.TextID == textID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (r *ContentRepo) ListSequenceItems(ctx context.Context, scope model.Capability, textID string) ([]model.SequenceItem, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []model.SequenceItem
	if !r.textInScope(scope, textID) {
		return out, nil
	}
	for _, item := range r.m.items {
		if item.TextID == textID {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CorrectOrder < out[j].CorrectOrder })
	return out, nil
}

// ---- DirectoryStore ----

type DirectoryRepo struct{ m *Memory }

func (r *DirectoryRepo) FindClassroom(ctx context.Context, scope model.Capability, classroomID string) (*model.Classroom, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	c, ok := r.m.classrooms[classroomID]
	if !ok || c.InstitutionID != scope.InstitutionID {
		return nil, gorm.ErrRecordNotFound
	}
	return &c, nil
}

func (r *DirectoryRepo) ActiveEnrollments(ctx context.Context, scope model.Capability, classroomID string) ([]model.Enrollment, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []model.Enrollment
	for _, e := range r.m.enrollments {
		if e.ClassroomID == classroomID && e.Active && e.Student.InstitutionID == scope.InstitutionID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *DirectoryRepo) FindStudents(ctx context.Context, scope model.Capability, studentIDs []string) (map[string]model.Student, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	out := make(map[string]model.Student)
	for _, id := range studentIDs {
		if s, ok := r.m.students[id]; ok && s.InstitutionID == scope.InstitutionID {
			out[id] = s
		}
	}
	return out, nil
}

// ---- FilePublisher ----

// Files 记录上传内容，返回固定链接
type Files struct {
	mu       sync.Mutex
	Uploaded map[string][]byte
	Err      error
}

func NewFiles() *Files {
	return &Files{Uploaded: make(map[string][]byte)}
}

func (f *Files) Publish(ctx context.Context, filename string, reader io.Reader, size int64, contentType string) (string, error) {
	if f.Err != nil {
		return "", f.Err
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	f.mu.Lock()
	f.Uploaded[filename] = data
	f.mu.Unlock()
	return "https://files.test/" + filename, nil
}
