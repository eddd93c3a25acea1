package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"preview-api/internal/domain"
	"preview-api/internal/repository"
)

func newTestOrchestrator(t *testing.T, agent AgentClient) *QuestionOrchestrator {
	t.Helper()
	bank, err := NewTemplateBank(func(int) int { return 0 })
	if err != nil {
		t.Fatalf("template bank: %v", err)
	}
	return NewQuestionOrchestrator(agent, bank, time.Second, zap.NewNop())
}

func mainQuestion(id string, phase domain.Phase, seq int) domain.Question {
	return domain.Question{ID: id, InterviewID: "i1", Phase: phase, Sequence: seq, IsAnswered: true}
}

func followUpOf(id, parent string, phase domain.Phase, seq int) domain.Question {
	p := parent
	return domain.Question{ID: id, InterviewID: "i1", Phase: phase, Sequence: seq, IsFollowUp: true, ParentID: &p, IsAnswered: true}
}

func TestPlanTemplatePhaseUsesBank(t *testing.T) {
	agent := &fakeAgent{}
	o := newTestOrchestrator(t, agent)
	interview := domain.Interview{ID: "i1", Type: domain.InterviewTypeFull, CurrentPhase: domain.PhaseOpening}
	q1 := mainQuestion("q1", domain.PhaseOpening, 1)

	step := o.Plan(context.Background(), PlanInput{Interview: interview, Question: q1, PhaseQuestions: []domain.Question{q1}})
	if step.Kind != StepMainQuestion || step.Phase != domain.PhaseOpening {
		t.Fatalf("expected opening main question, got %+v", step)
	}
	if step.Content != "지원하신 포지션에 대한 관심과 지원 동기를 말씀해주시겠어요?" {
		t.Fatalf("unexpected template question %q", step.Content)
	}
	if len(agent.decisions) != 0 {
		t.Fatalf("template phases must not consult the agent")
	}
}

func TestPlanTemplateExhaustedAdvances(t *testing.T) {
	agent := &fakeAgent{question: staticQuestion("Go의 goroutine 스케줄링을 설명해주세요.")}
	o := newTestOrchestrator(t, agent)
	interview := domain.Interview{ID: "i1", Type: domain.InterviewTypeFull, CurrentPhase: domain.PhaseOpening}
	qs := []domain.Question{
		mainQuestion("q1", domain.PhaseOpening, 1),
		mainQuestion("q2", domain.PhaseOpening, 2),
		mainQuestion("q3", domain.PhaseOpening, 3),
	}

	step := o.Plan(context.Background(), PlanInput{Interview: interview, Question: qs[2], PhaseQuestions: qs})
	if step.Kind != StepNextPhase || step.Phase != domain.PhaseTechnical {
		t.Fatalf("expected advance to TECHNICAL, got %+v", step)
	}
	if step.Content != "Go의 goroutine 스케줄링을 설명해주세요." {
		t.Fatalf("expected agent opening question, got %q", step.Content)
	}
}

func TestPlanFollowUpWithinBudget(t *testing.T) {
	agent := &fakeAgent{decide: alwaysDecide(domain.AgentDecision{Action: domain.ActionGenerateQuestion, Message: "더 자세히?", FollowUp: true})}
	o := newTestOrchestrator(t, agent)
	interview := domain.Interview{ID: "i1", Type: domain.InterviewTypeTechnical, CurrentPhase: domain.PhaseTechnical}
	root := mainQuestion("q1", domain.PhaseTechnical, 1)
	fu := followUpOf("q2", "q1", domain.PhaseTechnical, 2)

	step := o.Plan(context.Background(), PlanInput{Interview: interview, Question: fu, PhaseQuestions: []domain.Question{root, fu}})
	if step.Kind != StepFollowUp {
		t.Fatalf("expected follow-up, got %+v", step)
	}
	if step.ParentID == nil || *step.ParentID != "q1" {
		t.Fatalf("expected follow-up parent to be the root question, got %v", step.ParentID)
	}
	if got := agent.decisions[0]; got.FollowUpsUsed != 1 || got.FollowUpsAllowed != 3 || got.MainAsked != 1 || got.MainBudget != 5 {
		t.Fatalf("unexpected budget sent to agent: %+v", got)
	}
}

func TestPlanFollowUpCeilingCoercesToMainQuestion(t *testing.T) {
	agent := &fakeAgent{decide: alwaysDecide(domain.AgentDecision{Action: domain.ActionGenerateQuestion, Message: "또 하나?", FollowUp: true})}
	o := newTestOrchestrator(t, agent)
	interview := domain.Interview{ID: "i1", Type: domain.InterviewTypeTechnical, CurrentPhase: domain.PhaseTechnical}
	qs := []domain.Question{
		mainQuestion("q1", domain.PhaseTechnical, 1),
		followUpOf("q2", "q1", domain.PhaseTechnical, 2),
		followUpOf("q3", "q1", domain.PhaseTechnical, 3),
		followUpOf("q4", "q1", domain.PhaseTechnical, 4),
	}

	step := o.Plan(context.Background(), PlanInput{Interview: interview, Question: qs[3], PhaseQuestions: qs})
	if step.Kind != StepMainQuestion {
		t.Fatalf("expected coercion to main question, got %+v", step)
	}
	if step.ParentID != nil {
		t.Fatalf("main question must not carry a parent")
	}
}

func TestPlanMainBudgetExhaustedCompletesSinglePhaseInterview(t *testing.T) {
	agent := &fakeAgent{decide: alwaysDecide(domain.AgentDecision{Action: domain.ActionGenerateQuestion, Message: "새 주제"})}
	o := newTestOrchestrator(t, agent)
	interview := domain.Interview{ID: "i1", Type: domain.InterviewTypeTechnical, CurrentPhase: domain.PhaseTechnical}
	var qs []domain.Question
	for i := 1; i <= 5; i++ {
		qs = append(qs, mainQuestion("q"+string(rune('0'+i)), domain.PhaseTechnical, i))
	}

	step := o.Plan(context.Background(), PlanInput{Interview: interview, Question: qs[4], PhaseQuestions: qs})
	if step.Kind != StepComplete {
		t.Fatalf("expected completion, got %+v", step)
	}
}

func TestPlanAgentFailureAdvances(t *testing.T) {
	agent := &fakeAgent{}
	o := newTestOrchestrator(t, agent)
	interview := domain.Interview{ID: "i1", Type: domain.InterviewTypeFull, CurrentPhase: domain.PhaseTechnical}
	q := mainQuestion("q1", domain.PhaseTechnical, 4)

	step := o.Plan(context.Background(), PlanInput{Interview: interview, Question: q, PhaseQuestions: []domain.Question{q}})
	if step.Kind != StepNextPhase || step.Phase != domain.PhasePersonality {
		t.Fatalf("expected advance to PERSONALITY, got %+v", step)
	}
	if step.Content != fallbackQuestion(domain.PhasePersonality) {
		t.Fatalf("expected fallback question, got %q", step.Content)
	}
	if step.Reason != "agent_unavailable" {
		t.Fatalf("unexpected reason %q", step.Reason)
	}
}

func TestPlanEmptyMessageAdvances(t *testing.T) {
	agent := &fakeAgent{decide: alwaysDecide(domain.AgentDecision{Action: domain.ActionGenerateQuestion})}
	o := newTestOrchestrator(t, agent)
	interview := domain.Interview{ID: "i1", Type: domain.InterviewTypePersonality, CurrentPhase: domain.PhasePersonality}
	q := mainQuestion("q1", domain.PhasePersonality, 1)

	step := o.Plan(context.Background(), PlanInput{Interview: interview, Question: q, PhaseQuestions: []domain.Question{q}})
	if step.Kind != StepComplete {
		t.Fatalf("expected completion, got %+v", step)
	}
}

func TestApplyRejectsPhaseOutsidePlan(t *testing.T) {
	o := newTestOrchestrator(t, &fakeAgent{})
	store := repository.NewMemoryStore()
	interview := domain.Interview{ID: "i1", Type: domain.InterviewTypeTechnical, CurrentPhase: domain.PhaseTechnical}

	_, err := o.Apply(context.Background(), store, &interview, Step{Kind: StepNextPhase, Phase: domain.PhaseClosing, Content: "x"})
	if !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestApplyComplete(t *testing.T) {
	o := newTestOrchestrator(t, &fakeAgent{})
	store := repository.NewMemoryStore()
	interview := domain.Interview{ID: "i1", Type: domain.InterviewTypeTechnical, Status: domain.InterviewStatusInProgress, CurrentPhase: domain.PhaseTechnical}

	q, err := o.Apply(context.Background(), store, &interview, Step{Kind: StepComplete})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if q != nil {
		t.Fatalf("expected no new question")
	}
	if interview.Status != domain.InterviewStatusCompleted || interview.CurrentPhase != "" {
		t.Fatalf("expected completed interview without phase, got %+v", interview)
	}
}
