package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"preview-api/internal/domain"
	"preview-api/internal/llm"
	"preview-api/internal/schemas"
)

// AgentClient es el contrato con el agente de entrevista. Los callers aplican timeout y fallback.
type AgentClient interface {
	Decide(ctx context.Context, req DecisionRequest) (domain.AgentDecision, error)
	Score(ctx context.Context, req ScoreRequest) (domain.Feedback, error)
	OpeningQuestion(ctx context.Context, req QuestionRequest) (string, error)
	Report(ctx context.Context, req ReportRequest) (domain.Report, error)
}

// CandidateProfile es el contexto del candidato que acompana cada prompt.
type CandidateProfile struct {
	Type          domain.InterviewType
	Position      domain.Position
	Level         domain.ExperienceLevel
	TechStacks    []string
	ResumeText    string
	PortfolioText string
}

func profileFromInterview(i domain.Interview) CandidateProfile {
	return CandidateProfile{
		Type:          i.Type,
		Position:      i.Position,
		Level:         i.Level,
		TechStacks:    i.TechStacks,
		ResumeText:    i.ResumeText,
		PortfolioText: i.PortfolioText,
	}
}

// Exchange es un par pregunta/respuesta ya evaluado.
type Exchange struct {
	Phase      domain.Phase
	Question   string
	Answer     string
	Score      int
	IsFollowUp bool
}

type DecisionRequest struct {
	Profile          CandidateProfile
	Phase            domain.Phase
	Question         string
	Answer           string
	Score            int
	History          []Exchange
	FollowUpsUsed    int
	FollowUpsAllowed int
	MainAsked        int
	MainBudget       int
}

type ScoreRequest struct {
	Profile  CandidateProfile
	Phase    domain.Phase
	Question string
	Answer   string
}

type QuestionRequest struct {
	Profile CandidateProfile
	Phase   domain.Phase
	History []Exchange
}

type ReportRequest struct {
	Profile   CandidateProfile
	Exchanges []Exchange
}

// LLMAgent implementa AgentClient sobre un LLMClient y valida cada respuesta con JSON Schema.
type LLMAgent struct {
	llmClient llm.LLMClient
	logger    *zap.Logger
}

func NewLLMAgent(llmClient llm.LLMClient, logger *zap.Logger) *LLMAgent {
	return &LLMAgent{llmClient: llmClient, logger: logger}
}

func (a *LLMAgent) Decide(ctx context.Context, req DecisionRequest) (domain.AgentDecision, error) {
	var raw struct {
		Thought    string  `json:"thought"`
		Action     string  `json:"action"`
		Message    *string `json:"message"`
		Evaluation *string `json:"evaluation"`
		FollowUp   bool    `json:"followUp"`
	}
	if err := a.generate(ctx, schemas.AgentDecision, decisionSystemPrompt(req), decisionUserPrompt(req), &raw); err != nil {
		return domain.AgentDecision{}, err
	}

	action, followUp, ok := domain.NormalizeAction(raw.Action, raw.FollowUp)
	if !ok {
		return domain.AgentDecision{}, fmt.Errorf("agent action %q: %w", raw.Action, domain.ErrUpstreamUnavailable)
	}
	decision := domain.AgentDecision{
		Thought:  raw.Thought,
		Action:   action,
		FollowUp: followUp,
	}
	if raw.Message != nil {
		decision.Message = strings.TrimSpace(*raw.Message)
	}
	if raw.Evaluation != nil {
		decision.Evaluation = strings.TrimSpace(*raw.Evaluation)
	}
	return decision, nil
}

func (a *LLMAgent) Score(ctx context.Context, req ScoreRequest) (domain.Feedback, error) {
	var fb domain.Feedback
	if err := a.generate(ctx, schemas.AnswerFeedback, scoreSystemPrompt(req.Phase), scoreUserPrompt(req), &fb); err != nil {
		return domain.Feedback{}, err
	}
	fb.Feedback = strings.TrimSpace(fb.Feedback)
	fb.ImprovementSuggestion = strings.TrimSpace(fb.ImprovementSuggestion)
	return fb, nil
}

func (a *LLMAgent) OpeningQuestion(ctx context.Context, req QuestionRequest) (string, error) {
	var out struct {
		Question string `json:"question"`
	}
	if err := a.generate(ctx, schemas.Question, questionSystemPrompt(req.Phase), questionUserPrompt(req), &out); err != nil {
		return "", err
	}
	q := strings.TrimSpace(out.Question)
	if q == "" {
		return "", fmt.Errorf("empty question: %w", domain.ErrUpstreamUnavailable)
	}
	return q, nil
}

func (a *LLMAgent) Report(ctx context.Context, req ReportRequest) (domain.Report, error) {
	var rep domain.Report
	if err := a.generate(ctx, schemas.InterviewReport, reportSystemPrompt(), reportUserPrompt(req), &rep); err != nil {
		return domain.Report{}, err
	}
	return rep, nil
}

// generate llama al LLM, extrae el primer objeto JSON, lo valida contra schema y lo decodifica en out.
// Cualquier falla se reporta como ErrUpstreamUnavailable para que el caller aplique su fallback.
func (a *LLMAgent) generate(ctx context.Context, schema, systemPrompt, userPrompt string, out any) error {
	rawResp, err := a.llmClient.Generate(ctx, systemPrompt, userPrompt)
	if err != nil {
		return fmt.Errorf("llm generate: %v: %w", err, domain.ErrUpstreamUnavailable)
	}

	payload, err := extractJSONPayload(rawResp)
	if err != nil {
		a.logger.Warn("agent response without json", zap.String("schema", schema), zap.Error(err))
		return fmt.Errorf("parse %s: %v: %w", schema, err, domain.ErrUpstreamUnavailable)
	}
	if err := schemas.ValidateJSONString(schema, payload); err != nil {
		a.logger.Warn("agent response rejected by schema", zap.String("schema", schema), zap.Error(err))
		return fmt.Errorf("validate %s: %v: %w", schema, err, domain.ErrUpstreamUnavailable)
	}
	if err := json.Unmarshal([]byte(payload), out); err != nil {
		return fmt.Errorf("decode %s: %v: %w", schema, err, domain.ErrUpstreamUnavailable)
	}
	return nil
}
