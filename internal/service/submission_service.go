package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"preview-api/internal/domain"
	"preview-api/internal/repository"
)

var (
	ErrInterviewNotFound  = fmt.Errorf("interview %w", domain.ErrNotFound)
	ErrQuestionNotFound   = fmt.Errorf("question %w", domain.ErrNotFound)
	ErrInterviewCompleted = fmt.Errorf("interview already completed: %w", domain.ErrInvalidTransition)
	ErrQuestionAnswered   = fmt.Errorf("question already answered: %w", domain.ErrInvalidTransition)
	ErrQuestionNotCurrent = fmt.Errorf("question is not part of the current phase: %w", domain.ErrInvalidTransition)
	ErrEmptyAnswer        = fmt.Errorf("answer content is empty: %w", domain.ErrValidationFailed)
)

const writeTimeout = 10 * time.Second

// SubmitResult es lo que ve el candidato tras enviar una respuesta.
type SubmitResult struct {
	Answer       domain.Answer          `json:"answer"`
	NextQuestion *domain.Question       `json:"next_question,omitempty"`
	Status       domain.InterviewStatus `json:"status"`
	CurrentPhase domain.Phase           `json:"current_phase,omitempty"`
}

// SubmissionService ejecuta el paso atomico submit -> evaluar -> decidir -> crear.
type SubmissionService struct {
	store        repository.Store
	history      *HistoryService
	evaluator    *AnswerEvaluator
	orchestrator *QuestionOrchestrator
	locker       InterviewLocker
	cache        DashboardCache
	logger       *zap.Logger
}

func NewSubmissionService(
	store repository.Store,
	evaluator *AnswerEvaluator,
	orchestrator *QuestionOrchestrator,
	locker InterviewLocker,
	cache DashboardCache,
	logger *zap.Logger,
) *SubmissionService {
	if locker == nil {
		locker = NewKeyedMutex()
	}
	return &SubmissionService{
		store:        store,
		history:      NewHistoryService(store.Questions(), store.Answers()),
		evaluator:    evaluator,
		orchestrator: orchestrator,
		locker:       locker,
		cache:        cache,
		logger:       logger,
	}
}

// SubmitAnswer registra la respuesta a questionID y avanza la entrevista.
// memberID vacio omite el chequeo de propietario (uso interno y CLI).
func (s *SubmissionService) SubmitAnswer(ctx context.Context, memberID, interviewID, questionID, content string) (SubmitResult, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return SubmitResult{}, ErrEmptyAnswer
	}

	unlock, err := s.locker.Lock(ctx, interviewID)
	if err != nil {
		return SubmitResult{}, fmt.Errorf("lock interview: %w", err)
	}
	defer unlock()

	interview, question, err := s.load(ctx, memberID, interviewID, questionID)
	if err != nil {
		return SubmitResult{}, err
	}

	// Las llamadas al agente van fuera de la transaccion.
	fb := s.evaluator.Score(ctx, interview, question, content)

	phaseQuestions, err := s.store.Questions().ListByInterviewAndPhase(ctx, interviewID, question.Phase)
	if err != nil {
		return SubmitResult{}, fmt.Errorf("list phase questions: %w", err)
	}
	history, err := s.history.PhaseHistory(ctx, interviewID, question.Phase)
	if err != nil {
		return SubmitResult{}, err
	}
	history = append(history, Exchange{
		Phase:      question.Phase,
		Question:   question.Content,
		Answer:     content,
		Score:      fb.Score,
		IsFollowUp: question.IsFollowUp,
	})

	step := s.orchestrator.Plan(ctx, PlanInput{
		Interview:      interview,
		Question:       question,
		Answer:         content,
		Score:          fb.Score,
		PhaseQuestions: phaseQuestions,
		History:        history,
	})

	// Una vez decidido, un cliente que cancela no debe dejar la entrevista a medias.
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), writeTimeout)
	defer cancel()

	var result SubmitResult
	err = s.store.InTx(writeCtx, func(tx repository.Store) error {
		answer, created, err := s.evaluator.Record(writeCtx, tx, question, content, fb)
		if err != nil {
			return err
		}
		if !created {
			return ErrQuestionAnswered
		}
		next, err := s.orchestrator.Apply(writeCtx, tx, &interview, step)
		if err != nil {
			return err
		}
		if err := tx.Interviews().Update(writeCtx, &interview); err != nil {
			return err
		}
		result = SubmitResult{
			Answer:       answer,
			NextQuestion: next,
			Status:       interview.Status,
			CurrentPhase: interview.CurrentPhase,
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrInvalidTransition) {
			s.logger.Info("answer submission rejected", zap.Error(err), zap.String("interview_id", interviewID), zap.String("question_id", questionID))
		}
		return SubmitResult{}, err
	}

	if s.cache != nil {
		s.cache.Invalidate(writeCtx, interview.MemberID)
	}
	s.logger.Info("answer submitted",
		zap.String("interview_id", interviewID),
		zap.String("question_id", questionID),
		zap.Int("score", result.Answer.Score),
		zap.String("step", string(step.Kind)),
		zap.String("reason", step.Reason),
	)
	return result, nil
}

func (s *SubmissionService) load(ctx context.Context, memberID, interviewID, questionID string) (domain.Interview, domain.Question, error) {
	interview, err := s.store.Interviews().GetByID(ctx, interviewID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Interview{}, domain.Question{}, ErrInterviewNotFound
		}
		return domain.Interview{}, domain.Question{}, err
	}
	if memberID != "" && interview.MemberID != memberID {
		return domain.Interview{}, domain.Question{}, ErrInterviewNotFound
	}

	question, err := s.store.Questions().GetByID(ctx, questionID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Interview{}, domain.Question{}, ErrQuestionNotFound
		}
		return domain.Interview{}, domain.Question{}, err
	}
	if question.InterviewID != interview.ID {
		return domain.Interview{}, domain.Question{}, ErrQuestionNotFound
	}

	switch {
	case interview.IsCompleted():
		return domain.Interview{}, domain.Question{}, ErrInterviewCompleted
	case question.IsAnswered:
		return domain.Interview{}, domain.Question{}, ErrQuestionAnswered
	case question.Phase != interview.CurrentPhase:
		return domain.Interview{}, domain.Question{}, ErrQuestionNotCurrent
	}
	return interview, question, nil
}
