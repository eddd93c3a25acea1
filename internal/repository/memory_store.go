package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"preview-api/internal/domain"
)

// MemoryStore implementa Store en memoria para tests y el modo CLI sin base de datos.
// InTx serializa transacciones; si fn falla solo se revierten las claves que escribio.
type MemoryStore struct {
	state *memoryState
	undo  *undoLog // nil fuera de una transaccion
}

type memoryState struct {
	txMu sync.Mutex
	mu   sync.RWMutex
	data memoryData
}

type memoryData struct {
	interviews map[string]domain.Interview
	questions  map[string]domain.Question
	answers    map[string]domain.Answer // por question_id
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{state: &memoryState{data: newMemoryData()}}
}

func newMemoryData() memoryData {
	return memoryData{
		interviews: make(map[string]domain.Interview),
		questions:  make(map[string]domain.Question),
		answers:    make(map[string]domain.Answer),
	}
}

func (s *MemoryStore) Interviews() InterviewRepository {
	return memoryInterviews{state: s.state, undo: s.undo}
}

func (s *MemoryStore) Questions() QuestionRepository {
	return memoryQuestions{state: s.state, undo: s.undo}
}

func (s *MemoryStore) Answers() AnswerRepository {
	return memoryAnswers{state: s.state, undo: s.undo}
}

func (s *MemoryStore) InTx(ctx context.Context, fn func(tx Store) error) error {
	if s.undo != nil {
		return fn(s)
	}
	st := s.state
	st.txMu.Lock()
	defer st.txMu.Unlock()

	undo := newUndoLog()
	if err := fn(&MemoryStore{state: st, undo: undo}); err != nil {
		st.mu.Lock()
		undo.restore(&st.data)
		st.mu.Unlock()
		return err
	}
	return nil
}

// undoLog guarda el valor previo de cada clave la primera vez que la transaccion la escribe.
// Un puntero nil significa que la clave no existia.
type undoLog struct {
	interviews map[string]*domain.Interview
	questions  map[string]*domain.Question
	answers    map[string]*domain.Answer
}

func newUndoLog() *undoLog {
	return &undoLog{
		interviews: make(map[string]*domain.Interview),
		questions:  make(map[string]*domain.Question),
		answers:    make(map[string]*domain.Answer),
	}
}

// Los metodos record* se llaman con state.mu tomado en escritura.
func (u *undoLog) recordInterview(d memoryData, id string) {
	if u == nil {
		return
	}
	if _, seen := u.interviews[id]; seen {
		return
	}
	if prev, ok := d.interviews[id]; ok {
		c := copyInterview(prev)
		u.interviews[id] = &c
		return
	}
	u.interviews[id] = nil
}

func (u *undoLog) recordQuestion(d memoryData, id string) {
	if u == nil {
		return
	}
	if _, seen := u.questions[id]; seen {
		return
	}
	if prev, ok := d.questions[id]; ok {
		c := copyQuestion(prev)
		u.questions[id] = &c
		return
	}
	u.questions[id] = nil
}

func (u *undoLog) recordAnswer(d memoryData, questionID string) {
	if u == nil {
		return
	}
	if _, seen := u.answers[questionID]; seen {
		return
	}
	if prev, ok := d.answers[questionID]; ok {
		c := prev
		u.answers[questionID] = &c
		return
	}
	u.answers[questionID] = nil
}

func (u *undoLog) restore(d *memoryData) {
	for id, prev := range u.interviews {
		if prev == nil {
			delete(d.interviews, id)
			continue
		}
		d.interviews[id] = *prev
	}
	for id, prev := range u.questions {
		if prev == nil {
			delete(d.questions, id)
			continue
		}
		d.questions[id] = *prev
	}
	for id, prev := range u.answers {
		if prev == nil {
			delete(d.answers, id)
			continue
		}
		d.answers[id] = *prev
	}
}

func copyInterview(i domain.Interview) domain.Interview {
	if i.TechStacks != nil {
		i.TechStacks = append([]string(nil), i.TechStacks...)
	}
	if i.Report != nil {
		rep := *i.Report
		rep.Strengths = append([]string(nil), rep.Strengths...)
		rep.Improvements = append([]string(nil), rep.Improvements...)
		rep.RecommendedTopics = append([]string(nil), rep.RecommendedTopics...)
		i.Report = &rep
	}
	return i
}

func copyQuestion(q domain.Question) domain.Question {
	if q.ParentID != nil {
		parent := *q.ParentID
		q.ParentID = &parent
	}
	return q
}

type memoryInterviews struct {
	state *memoryState
	undo  *undoLog
}

func (r memoryInterviews) Create(_ context.Context, interview domain.Interview) error {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	if _, ok := r.state.data.interviews[interview.ID]; ok {
		return fmt.Errorf("interview %s already exists", interview.ID)
	}
	r.undo.recordInterview(r.state.data, interview.ID)
	r.state.data.interviews[interview.ID] = copyInterview(interview)
	return nil
}

func (r memoryInterviews) GetByID(_ context.Context, id string) (domain.Interview, error) {
	r.state.mu.RLock()
	defer r.state.mu.RUnlock()
	i, ok := r.state.data.interviews[id]
	if !ok || i.Deleted {
		return domain.Interview{}, fmt.Errorf("interview %s: %w", id, domain.ErrNotFound)
	}
	return copyInterview(i), nil
}

func (r memoryInterviews) ListByMember(_ context.Context, memberID string) ([]domain.Interview, error) {
	r.state.mu.RLock()
	defer r.state.mu.RUnlock()
	var out []domain.Interview
	for _, i := range r.state.data.interviews {
		if i.MemberID == memberID && !i.Deleted {
			out = append(out, copyInterview(i))
		}
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].CreatedAt.Equal(out[b].CreatedAt) {
			return out[a].ID > out[b].ID
		}
		return out[a].CreatedAt.After(out[b].CreatedAt)
	})
	return out, nil
}

func (r memoryInterviews) Update(_ context.Context, interview *domain.Interview) error {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	current, ok := r.state.data.interviews[interview.ID]
	if !ok || current.Deleted || current.Version != interview.Version {
		return fmt.Errorf("interview %s version %d: %w", interview.ID, interview.Version, domain.ErrConcurrentModification)
	}
	r.undo.recordInterview(r.state.data, interview.ID)
	current.Status = interview.Status
	current.CurrentPhase = interview.CurrentPhase
	current.Report = interview.Report
	current.UpdatedAt = interview.UpdatedAt
	current.Version++
	r.state.data.interviews[interview.ID] = copyInterview(current)
	interview.Version = current.Version
	return nil
}

func (r memoryInterviews) SoftDelete(_ context.Context, id string) error {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	i, ok := r.state.data.interviews[id]
	if !ok || i.Deleted {
		return fmt.Errorf("interview %s: %w", id, domain.ErrNotFound)
	}
	r.undo.recordInterview(r.state.data, id)
	i.Deleted = true
	i.Version++
	r.state.data.interviews[id] = i
	return nil
}

type memoryQuestions struct {
	state *memoryState
	undo  *undoLog
}

func (r memoryQuestions) Create(_ context.Context, question domain.Question) error {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	for _, q := range r.state.data.questions {
		if q.InterviewID == question.InterviewID && q.Sequence == question.Sequence {
			return fmt.Errorf("question sequence %d: %w", question.Sequence, domain.ErrConcurrentModification)
		}
	}
	r.undo.recordQuestion(r.state.data, question.ID)
	r.state.data.questions[question.ID] = copyQuestion(question)
	return nil
}

func (r memoryQuestions) GetByID(_ context.Context, id string) (domain.Question, error) {
	r.state.mu.RLock()
	defer r.state.mu.RUnlock()
	q, ok := r.state.data.questions[id]
	if !ok {
		return domain.Question{}, fmt.Errorf("question %s: %w", id, domain.ErrNotFound)
	}
	return copyQuestion(q), nil
}

func (r memoryQuestions) ListByInterview(_ context.Context, interviewID string) ([]domain.Question, error) {
	return r.filter(func(q domain.Question) bool { return q.InterviewID == interviewID }), nil
}

func (r memoryQuestions) ListByInterviewAndPhase(_ context.Context, interviewID string, phase domain.Phase) ([]domain.Question, error) {
	return r.filter(func(q domain.Question) bool {
		return q.InterviewID == interviewID && q.Phase == phase
	}), nil
}

func (r memoryQuestions) ListByParent(_ context.Context, parentID string) ([]domain.Question, error) {
	return r.filter(func(q domain.Question) bool {
		return q.ParentID != nil && *q.ParentID == parentID
	}), nil
}

func (r memoryQuestions) MaxSequence(_ context.Context, interviewID string) (int, error) {
	r.state.mu.RLock()
	defer r.state.mu.RUnlock()
	max := 0
	for _, q := range r.state.data.questions {
		if q.InterviewID == interviewID && q.Sequence > max {
			max = q.Sequence
		}
	}
	return max, nil
}

func (r memoryQuestions) MarkAnswered(_ context.Context, id string) (bool, error) {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	q, ok := r.state.data.questions[id]
	if !ok {
		return false, fmt.Errorf("question %s: %w", id, domain.ErrNotFound)
	}
	if q.IsAnswered {
		return false, nil
	}
	r.undo.recordQuestion(r.state.data, id)
	q.IsAnswered = true
	r.state.data.questions[id] = q
	return true, nil
}

func (r memoryQuestions) filter(keep func(domain.Question) bool) []domain.Question {
	r.state.mu.RLock()
	defer r.state.mu.RUnlock()
	var out []domain.Question
	for _, q := range r.state.data.questions {
		if keep(q) {
			out = append(out, copyQuestion(q))
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Sequence < out[b].Sequence })
	return out
}

type memoryAnswers struct {
	state *memoryState
	undo  *undoLog
}

func (r memoryAnswers) Create(_ context.Context, answer domain.Answer) error {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	if _, ok := r.state.data.answers[answer.QuestionID]; ok {
		return fmt.Errorf("answer for question %s already recorded: %w", answer.QuestionID, domain.ErrInvalidTransition)
	}
	r.undo.recordAnswer(r.state.data, answer.QuestionID)
	r.state.data.answers[answer.QuestionID] = answer
	return nil
}

func (r memoryAnswers) GetByQuestionID(_ context.Context, questionID string) (domain.Answer, error) {
	r.state.mu.RLock()
	defer r.state.mu.RUnlock()
	a, ok := r.state.data.answers[questionID]
	if !ok {
		return domain.Answer{}, fmt.Errorf("answer for question %s: %w", questionID, domain.ErrNotFound)
	}
	return a, nil
}

func (r memoryAnswers) ListByInterview(_ context.Context, interviewID string) ([]domain.Answer, error) {
	r.state.mu.RLock()
	defer r.state.mu.RUnlock()
	type seqAnswer struct {
		seq    int
		answer domain.Answer
	}
	var tmp []seqAnswer
	for qid, a := range r.state.data.answers {
		q, ok := r.state.data.questions[qid]
		if ok && q.InterviewID == interviewID {
			tmp = append(tmp, seqAnswer{seq: q.Sequence, answer: a})
		}
	}
	sort.Slice(tmp, func(i, j int) bool { return tmp[i].seq < tmp[j].seq })
	out := make([]domain.Answer, 0, len(tmp))
	for _, t := range tmp {
		out = append(out, t.answer)
	}
	return out, nil
}

func (r memoryAnswers) ListScoredByMember(_ context.Context, memberID string) ([]domain.ScoredAnswer, error) {
	r.state.mu.RLock()
	defer r.state.mu.RUnlock()
	var out []domain.ScoredAnswer
	for qid, a := range r.state.data.answers {
		q, ok := r.state.data.questions[qid]
		if !ok {
			continue
		}
		i, ok := r.state.data.interviews[q.InterviewID]
		if !ok || i.Deleted || i.MemberID != memberID {
			continue
		}
		out = append(out, domain.ScoredAnswer{InterviewID: i.ID, Phase: q.Phase, Score: a.Score})
	}
	return out, nil
}
