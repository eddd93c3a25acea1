package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"preview-api/internal/domain"
	"preview-api/internal/repository"
)

// StepKind es el resultado de decidir que sigue tras una respuesta.
type StepKind string

const (
	StepFollowUp     StepKind = "FOLLOW_UP"
	StepMainQuestion StepKind = "MAIN_QUESTION"
	StepNextPhase    StepKind = "NEXT_PHASE"
	StepComplete     StepKind = "COMPLETE"
)

// Step describe el efecto a aplicar. Content y Phase aplican a la pregunta nueva, si la hay.
type Step struct {
	Kind     StepKind
	Phase    domain.Phase
	Content  string
	ParentID *string
	Reason   string
}

// PlanInput es el estado que el orquestador necesita para decidir.
// PhaseQuestions debe incluir todas las preguntas de la fase actual, respondidas o no.
type PlanInput struct {
	Interview      domain.Interview
	Question       domain.Question
	Answer         string
	Score          int
	PhaseQuestions []domain.Question
	History        []Exchange
}

// QuestionOrchestrator decide el siguiente paso de la entrevista y lo aplica al store.
type QuestionOrchestrator struct {
	agent        AgentClient
	templates    *TemplateBank
	agentTimeout time.Duration
	logger       *zap.Logger
	now          func() time.Time
}

func NewQuestionOrchestrator(agent AgentClient, templates *TemplateBank, agentTimeout time.Duration, logger *zap.Logger) *QuestionOrchestrator {
	if agentTimeout <= 0 {
		agentTimeout = 30 * time.Second
	}
	return &QuestionOrchestrator{
		agent:        agent,
		templates:    templates,
		agentTimeout: agentTimeout,
		logger:       logger,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// Start calcula la primera pregunta de una entrevista nueva.
func (o *QuestionOrchestrator) Start(ctx context.Context, interview domain.Interview) (Step, error) {
	first, ok := domain.FirstPhase(interview.Type)
	if !ok {
		return Step{}, fmt.Errorf("interview type %s: %w", interview.Type, domain.ErrValidationFailed)
	}
	content := o.openingQuestion(ctx, interview, first, nil)
	return Step{Kind: StepNextPhase, Phase: first, Content: content, Reason: "interview_started"}, nil
}

// Plan decide que sigue tras responder in.Question. Nunca falla por el agente: sin respuesta se avanza de fase.
func (o *QuestionOrchestrator) Plan(ctx context.Context, in PlanInput) Step {
	phase := in.Question.Phase
	spec := phase.Spec()
	mains := countMainQuestions(in.PhaseQuestions)

	if spec.Template {
		if content, ok := o.templates.Question(phase, mains); ok {
			return Step{Kind: StepMainQuestion, Phase: phase, Content: content, Reason: "template"}
		}
		return o.advance(ctx, in, "template_exhausted")
	}

	root := in.Question.RootID()
	followUps := countFollowUps(in.PhaseQuestions, root)

	agentCtx, cancel := context.WithTimeout(ctx, o.agentTimeout)
	decision, err := o.agent.Decide(agentCtx, DecisionRequest{
		Profile:          profileFromInterview(in.Interview),
		Phase:            phase,
		Question:         in.Question.Content,
		Answer:           in.Answer,
		Score:            in.Score,
		History:          in.History,
		FollowUpsUsed:    followUps,
		FollowUpsAllowed: spec.MaxFollowUp,
		MainAsked:        mains,
		MainBudget:       spec.DefaultQuestionCount,
	})
	cancel()
	if err != nil {
		o.logger.Warn("agent decision failed, advancing phase",
			zap.Error(err),
			zap.String("interview_id", in.Interview.ID),
			zap.String("phase", string(phase)),
		)
		return o.advance(ctx, in, "agent_unavailable")
	}

	if decision.Action != domain.ActionGenerateQuestion {
		return o.advance(ctx, in, "agent_next_phase")
	}
	if decision.Message == "" {
		o.logger.Warn("agent asked for a question without content, advancing phase",
			zap.String("interview_id", in.Interview.ID),
			zap.String("phase", string(phase)),
		)
		return o.advance(ctx, in, "agent_empty_message")
	}

	if decision.FollowUp && followUps < spec.MaxFollowUp {
		parent := root
		return Step{Kind: StepFollowUp, Phase: phase, Content: decision.Message, ParentID: &parent, Reason: "agent_follow_up"}
	}
	// Sin presupuesto de follow-ups la pregunta se trata como principal.
	if mains >= spec.DefaultQuestionCount {
		return o.advance(ctx, in, "question_budget_exhausted")
	}
	return Step{Kind: StepMainQuestion, Phase: phase, Content: decision.Message, Reason: "agent_new_topic"}
}

func (o *QuestionOrchestrator) advance(ctx context.Context, in PlanInput, reason string) Step {
	next, ok := domain.NextPhase(in.Interview.Type, in.Question.Phase)
	if !ok {
		return Step{Kind: StepComplete, Reason: reason}
	}
	content := o.openingQuestion(ctx, in.Interview, next, in.History)
	return Step{Kind: StepNextPhase, Phase: next, Content: content, Reason: reason}
}

// openingQuestion devuelve la primera pregunta de phase: del banco si es template, del agente si no.
func (o *QuestionOrchestrator) openingQuestion(ctx context.Context, interview domain.Interview, phase domain.Phase, history []Exchange) string {
	if phase.IsTemplate() {
		if content, ok := o.templates.Question(phase, 0); ok {
			return content
		}
		return fallbackQuestion(phase)
	}

	agentCtx, cancel := context.WithTimeout(ctx, o.agentTimeout)
	defer cancel()
	content, err := o.agent.OpeningQuestion(agentCtx, QuestionRequest{
		Profile: profileFromInterview(interview),
		Phase:   phase,
		History: history,
	})
	if err != nil || content == "" {
		o.logger.Warn("agent question generation failed, using fallback question",
			zap.Error(err),
			zap.String("interview_id", interview.ID),
			zap.String("phase", string(phase)),
		)
		return fallbackQuestion(phase)
	}
	return content
}

// Apply persiste el paso dentro de tx y devuelve la pregunta creada, si la hay.
// interview se modifica en memoria; el caller es responsable del CAS de version.
func (o *QuestionOrchestrator) Apply(ctx context.Context, tx repository.Store, interview *domain.Interview, step Step) (*domain.Question, error) {
	now := o.now()
	interview.UpdatedAt = now

	switch step.Kind {
	case StepComplete:
		interview.Complete(now)
		o.logger.Info("interview completed", zap.String("interview_id", interview.ID), zap.String("reason", step.Reason))
		return nil, nil
	case StepNextPhase:
		if !domain.ContainsPhase(interview.Type, step.Phase) {
			return nil, fmt.Errorf("phase %s not in plan %s: %w", step.Phase, interview.Type, domain.ErrInvalidTransition)
		}
		o.logger.Info("interview phase advanced",
			zap.String("interview_id", interview.ID),
			zap.String("from", string(interview.CurrentPhase)),
			zap.String("to", string(step.Phase)),
			zap.String("reason", step.Reason),
		)
		interview.CurrentPhase = step.Phase
	case StepFollowUp, StepMainQuestion:
		if step.Phase != interview.CurrentPhase {
			return nil, fmt.Errorf("question phase %s differs from current %s: %w", step.Phase, interview.CurrentPhase, domain.ErrInvalidTransition)
		}
	default:
		return nil, fmt.Errorf("unknown step %q", step.Kind)
	}

	seq, err := tx.Questions().MaxSequence(ctx, interview.ID)
	if err != nil {
		return nil, fmt.Errorf("max sequence: %w", err)
	}
	q := domain.Question{
		ID:          uuid.NewString(),
		InterviewID: interview.ID,
		Content:     step.Content,
		Phase:       step.Phase,
		Sequence:    seq + 1,
		IsFollowUp:  step.Kind == StepFollowUp,
		ParentID:    step.ParentID,
		CreatedAt:   now,
	}
	if !q.IsFollowUp {
		q.ParentID = nil
	}
	if err := tx.Questions().Create(ctx, q); err != nil {
		return nil, fmt.Errorf("create question: %w", err)
	}
	return &q, nil
}

func countMainQuestions(questions []domain.Question) int {
	n := 0
	for _, q := range questions {
		if !q.IsFollowUp {
			n++
		}
	}
	return n
}

func countFollowUps(questions []domain.Question, rootID string) int {
	n := 0
	for _, q := range questions {
		if q.IsFollowUp && q.ParentID != nil && *q.ParentID == rootID {
			n++
		}
	}
	return n
}
