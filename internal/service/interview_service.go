package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"preview-api/internal/domain"
	"preview-api/internal/repository"
)

var ErrInterviewNotCompleted = fmt.Errorf("interview not completed: %w", domain.ErrInvalidTransition)

type CreateInterviewInput struct {
	MemberID      string   `validate:"required"`
	Title         string   `validate:"required,max=200"`
	Type          string   `validate:"required"`
	Position      string   `validate:"required"`
	Level         string   `validate:"required"`
	TechStacks    []string `validate:"max=20,dive,required,max=50"`
	ResumeText    string
	PortfolioText string
}

// QuestionWithAnswer une una pregunta con su respuesta, si la tiene.
type QuestionWithAnswer struct {
	Question domain.Question `json:"question"`
	Answer   *domain.Answer  `json:"answer,omitempty"`
}

type InterviewResult struct {
	Interview    domain.Interview     `json:"interview"`
	Questions    []QuestionWithAnswer `json:"questions"`
	Report       domain.Report        `json:"report"`
	AverageScore *float64             `json:"average_score"`
}

// InterviewService cubre el ciclo de vida de la entrevista fuera del paso de respuesta.
type InterviewService struct {
	store        repository.Store
	orchestrator *QuestionOrchestrator
	agent        AgentClient
	agentTimeout time.Duration
	validate     *validator.Validate
	cache        DashboardCache
	logger       *zap.Logger
	now          func() time.Time
}

func NewInterviewService(
	store repository.Store,
	orchestrator *QuestionOrchestrator,
	agent AgentClient,
	agentTimeout time.Duration,
	cache DashboardCache,
	logger *zap.Logger,
) *InterviewService {
	if agentTimeout <= 0 {
		agentTimeout = 30 * time.Second
	}
	return &InterviewService{
		store:        store,
		orchestrator: orchestrator,
		agent:        agent,
		agentTimeout: agentTimeout,
		validate:     validator.New(),
		cache:        cache,
		logger:       logger,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// Create valida la entrada y crea la entrevista ya IN_PROGRESS junto con su primera pregunta.
func (s *InterviewService) Create(ctx context.Context, input CreateInterviewInput) (domain.Interview, domain.Question, error) {
	if err := s.validate.Struct(input); err != nil {
		return domain.Interview{}, domain.Question{}, fmt.Errorf("%w: %v", domain.ErrValidationFailed, err)
	}
	interviewType, err := domain.ParseInterviewType(input.Type)
	if err != nil {
		return domain.Interview{}, domain.Question{}, err
	}
	position, err := domain.ParsePosition(input.Position)
	if err != nil {
		return domain.Interview{}, domain.Question{}, err
	}
	level, err := domain.ParseExperienceLevel(input.Level)
	if err != nil {
		return domain.Interview{}, domain.Question{}, err
	}

	now := s.now()
	interview := domain.Interview{
		ID:            uuid.NewString(),
		MemberID:      input.MemberID,
		Type:          interviewType,
		Position:      position,
		Level:         level,
		TechStacks:    normalizeStacks(input.TechStacks),
		Title:         strings.TrimSpace(input.Title),
		ResumeText:    input.ResumeText,
		PortfolioText: input.PortfolioText,
		Status:        domain.InterviewStatusInProgress,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	step, err := s.orchestrator.Start(ctx, interview)
	if err != nil {
		return domain.Interview{}, domain.Question{}, err
	}
	interview.CurrentPhase = step.Phase

	var first domain.Question
	err = s.store.InTx(ctx, func(tx repository.Store) error {
		if err := tx.Interviews().Create(ctx, interview); err != nil {
			return fmt.Errorf("create interview: %w", err)
		}
		q, err := s.orchestrator.Apply(ctx, tx, &interview, step)
		if err != nil {
			return err
		}
		first = *q
		return nil
	})
	if err != nil {
		return domain.Interview{}, domain.Question{}, err
	}

	if s.cache != nil {
		s.cache.Invalidate(ctx, interview.MemberID)
	}
	s.logger.Info("interview created",
		zap.String("interview_id", interview.ID),
		zap.String("member_id", interview.MemberID),
		zap.String("type", string(interview.Type)),
		zap.String("phase", string(interview.CurrentPhase)),
	)
	return interview, first, nil
}

// Get devuelve la entrevista si pertenece a memberID. memberID vacio omite el chequeo.
func (s *InterviewService) Get(ctx context.Context, memberID, interviewID string) (domain.Interview, error) {
	interview, err := s.store.Interviews().GetByID(ctx, interviewID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Interview{}, ErrInterviewNotFound
		}
		return domain.Interview{}, err
	}
	if memberID != "" && interview.MemberID != memberID {
		return domain.Interview{}, ErrInterviewNotFound
	}
	return interview, nil
}

func (s *InterviewService) List(ctx context.Context, memberID string) ([]domain.Interview, error) {
	return s.store.Interviews().ListByMember(ctx, memberID)
}

func (s *InterviewService) Delete(ctx context.Context, memberID, interviewID string) error {
	if _, err := s.Get(ctx, memberID, interviewID); err != nil {
		return err
	}
	if err := s.store.Interviews().SoftDelete(ctx, interviewID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return ErrInterviewNotFound
		}
		return err
	}
	if s.cache != nil {
		s.cache.Invalidate(ctx, memberID)
	}
	s.logger.Info("interview deleted", zap.String("interview_id", interviewID))
	return nil
}

// Questions lista las preguntas de la entrevista en orden de secuencia.
func (s *InterviewService) Questions(ctx context.Context, memberID, interviewID string) ([]domain.Question, error) {
	if _, err := s.Get(ctx, memberID, interviewID); err != nil {
		return nil, err
	}
	return s.store.Questions().ListByInterview(ctx, interviewID)
}

// Result arma el resultado de una entrevista completada. El reporte del agente se cachea
// en la entrevista; el reporte de respaldo no se guarda para reintentar en la proxima consulta.
func (s *InterviewService) Result(ctx context.Context, memberID, interviewID string) (InterviewResult, error) {
	interview, err := s.Get(ctx, memberID, interviewID)
	if err != nil {
		return InterviewResult{}, err
	}
	if !interview.IsCompleted() {
		return InterviewResult{}, ErrInterviewNotCompleted
	}

	questions, err := s.store.Questions().ListByInterview(ctx, interviewID)
	if err != nil {
		return InterviewResult{}, fmt.Errorf("list questions: %w", err)
	}
	answers, err := s.store.Answers().ListByInterview(ctx, interviewID)
	if err != nil {
		return InterviewResult{}, fmt.Errorf("list answers: %w", err)
	}

	result := InterviewResult{Interview: interview, Questions: pairAnswers(questions, answers)}
	var acc scoreAcc
	for _, a := range answers {
		acc.add(float64(a.Score))
	}
	result.AverageScore = acc.avg()

	if interview.Report != nil {
		result.Report = *interview.Report
		return result, nil
	}

	report, ok := s.generateReport(ctx, interview, buildExchanges(questions, answers, ""))
	result.Report = report
	if !ok {
		return result, nil
	}

	interview.Report = &report
	interview.UpdatedAt = s.now()
	if err := s.store.Interviews().Update(ctx, &interview); err != nil {
		// Otro request guardo el reporte primero; el que generamos sigue siendo valido.
		if !errors.Is(err, domain.ErrConcurrentModification) {
			return InterviewResult{}, fmt.Errorf("cache report: %w", err)
		}
		s.logger.Info("report already cached by another request", zap.String("interview_id", interviewID))
	}
	result.Interview = interview
	return result, nil
}

func (s *InterviewService) generateReport(ctx context.Context, interview domain.Interview, exchanges []Exchange) (domain.Report, bool) {
	agentCtx, cancel := context.WithTimeout(ctx, s.agentTimeout)
	defer cancel()
	report, err := s.agent.Report(agentCtx, ReportRequest{
		Profile:   profileFromInterview(interview),
		Exchanges: exchanges,
	})
	if err != nil {
		s.logger.Warn("report generation failed, using fallback report", zap.Error(err), zap.String("interview_id", interview.ID))
		return fallbackReport(), false
	}
	return report, true
}

func pairAnswers(questions []domain.Question, answers []domain.Answer) []QuestionWithAnswer {
	byQuestion := make(map[string]domain.Answer, len(answers))
	for _, a := range answers {
		byQuestion[a.QuestionID] = a
	}
	out := make([]QuestionWithAnswer, 0, len(questions))
	for _, q := range questions {
		item := QuestionWithAnswer{Question: q}
		if a, ok := byQuestion[q.ID]; ok {
			a := a
			item.Answer = &a
		}
		out = append(out, item)
	}
	return out
}

func normalizeStacks(stacks []string) []string {
	seen := make(map[string]struct{}, len(stacks))
	out := make([]string, 0, len(stacks))
	for _, s := range stacks {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		key := strings.ToLower(s)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, s)
	}
	return out
}
