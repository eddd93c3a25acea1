package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"preview-api/internal/domain"
	"preview-api/internal/repository"
)

var errAgentDown = errors.New("agent down")

// fakeAgent responde segun las funciones configuradas; sin funcion devuelve errAgentDown.
type fakeAgent struct {
	mu        sync.Mutex
	decide    func(DecisionRequest) (domain.AgentDecision, error)
	score     func(ScoreRequest) (domain.Feedback, error)
	question  func(QuestionRequest) (string, error)
	report    func(ReportRequest) (domain.Report, error)
	decisions []DecisionRequest
	reports   int
}

func (f *fakeAgent) Decide(_ context.Context, req DecisionRequest) (domain.AgentDecision, error) {
	f.mu.Lock()
	f.decisions = append(f.decisions, req)
	f.mu.Unlock()
	if f.decide == nil {
		return domain.AgentDecision{}, errAgentDown
	}
	return f.decide(req)
}

func (f *fakeAgent) Score(_ context.Context, req ScoreRequest) (domain.Feedback, error) {
	if f.score == nil {
		return domain.Feedback{}, errAgentDown
	}
	return f.score(req)
}

func (f *fakeAgent) OpeningQuestion(_ context.Context, req QuestionRequest) (string, error) {
	if f.question == nil {
		return "", errAgentDown
	}
	return f.question(req)
}

func (f *fakeAgent) Report(_ context.Context, req ReportRequest) (domain.Report, error) {
	f.mu.Lock()
	f.reports++
	f.mu.Unlock()
	if f.report == nil {
		return domain.Report{}, errAgentDown
	}
	return f.report(req)
}

func fixedScore(score int) func(ScoreRequest) (domain.Feedback, error) {
	return func(ScoreRequest) (domain.Feedback, error) {
		return domain.Feedback{Feedback: "ok", Score: score, IsPassed: score >= 6}, nil
	}
}

func alwaysDecide(decision domain.AgentDecision) func(DecisionRequest) (domain.AgentDecision, error) {
	return func(DecisionRequest) (domain.AgentDecision, error) {
		return decision, nil
	}
}

func staticQuestion(content string) func(QuestionRequest) (string, error) {
	return func(QuestionRequest) (string, error) {
		return content, nil
	}
}

type noopLocker struct{}

func (noopLocker) Lock(context.Context, string) (func(), error) {
	return func() {}, nil
}

type recordingCache struct {
	mu          sync.Mutex
	stored      map[string]domain.Dashboard
	generations map[string]int64
	invalidated []string
}

func newRecordingCache() *recordingCache {
	return &recordingCache{stored: make(map[string]domain.Dashboard), generations: make(map[string]int64)}
}

func (c *recordingCache) Get(_ context.Context, memberID string) (domain.Dashboard, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	d, ok := c.stored[memberID]
	return d, ok
}

func (c *recordingCache) Generation(_ context.Context, memberID string) (int64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generations[memberID], true
}

func (c *recordingCache) Set(_ context.Context, memberID string, generation int64, d domain.Dashboard) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generations[memberID] != generation {
		return
	}
	c.stored[memberID] = d
}

func (c *recordingCache) Invalidate(_ context.Context, memberID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generations[memberID]++
	delete(c.stored, memberID)
	c.invalidated = append(c.invalidated, memberID)
}

type testEnv struct {
	store        *repository.MemoryStore
	agent        *fakeAgent
	cache        *recordingCache
	orchestrator *QuestionOrchestrator
	evaluator    *AnswerEvaluator
	interviews   *InterviewService
	submissions  *SubmissionService
}

func newTestEnv(t *testing.T, agent *fakeAgent, locker InterviewLocker) *testEnv {
	t.Helper()
	bank, err := NewTemplateBank(func(int) int { return 0 })
	if err != nil {
		t.Fatalf("template bank: %v", err)
	}
	store := repository.NewMemoryStore()
	cache := newRecordingCache()
	logger := zap.NewNop()
	orchestrator := NewQuestionOrchestrator(agent, bank, time.Second, logger)
	evaluator := NewAnswerEvaluator(agent, store, time.Second, logger)
	return &testEnv{
		store:        store,
		agent:        agent,
		cache:        cache,
		orchestrator: orchestrator,
		evaluator:    evaluator,
		interviews:   NewInterviewService(store, orchestrator, agent, time.Second, cache, logger),
		submissions:  NewSubmissionService(store, evaluator, orchestrator, locker, cache, logger),
	}
}

func (e *testEnv) create(t *testing.T, memberID string, interviewType domain.InterviewType) (domain.Interview, domain.Question) {
	t.Helper()
	interview, first, err := e.interviews.Create(context.Background(), CreateInterviewInput{
		MemberID:   memberID,
		Title:      "mock interview",
		Type:       string(interviewType),
		Position:   string(domain.PositionBackend),
		Level:      string(domain.LevelJunior),
		TechStacks: []string{"Go", "PostgreSQL"},
	})
	if err != nil {
		t.Fatalf("create interview: %v", err)
	}
	return interview, first
}

// playUntilDone responde siempre la ultima pregunta pendiente hasta completar la entrevista.
func (e *testEnv) playUntilDone(t *testing.T, memberID string, interview domain.Interview, first domain.Question, maxSteps int) []domain.Question {
	t.Helper()
	asked := []domain.Question{first}
	current := first
	for i := 0; i < maxSteps; i++ {
		res, err := e.submissions.SubmitAnswer(context.Background(), memberID, interview.ID, current.ID, "answer")
		if err != nil {
			t.Fatalf("submit step %d: %v", i, err)
		}
		if res.NextQuestion == nil {
			if res.Status != domain.InterviewStatusCompleted {
				t.Fatalf("expected completed status without next question, got %s", res.Status)
			}
			return asked
		}
		current = *res.NextQuestion
		asked = append(asked, current)
	}
	t.Fatalf("interview not completed after %d steps", maxSteps)
	return nil
}
