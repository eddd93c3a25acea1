package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"preview-api/internal/domain"
	"preview-api/internal/repository"
)

// AnswerEvaluator puntua respuestas con el agente y las persiste una sola vez por pregunta.
type AnswerEvaluator struct {
	agent        AgentClient
	store        repository.Store
	agentTimeout time.Duration
	logger       *zap.Logger
	now          func() time.Time
}

func NewAnswerEvaluator(agent AgentClient, store repository.Store, agentTimeout time.Duration, logger *zap.Logger) *AnswerEvaluator {
	if agentTimeout <= 0 {
		agentTimeout = 30 * time.Second
	}
	return &AnswerEvaluator{
		agent:        agent,
		store:        store,
		agentTimeout: agentTimeout,
		logger:       logger,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// Score nunca devuelve error: si el agente falla se usa el feedback por defecto.
func (e *AnswerEvaluator) Score(ctx context.Context, interview domain.Interview, question domain.Question, content string) domain.Feedback {
	agentCtx, cancel := context.WithTimeout(ctx, e.agentTimeout)
	defer cancel()

	fb, err := e.agent.Score(agentCtx, ScoreRequest{
		Profile:  profileFromInterview(interview),
		Phase:    question.Phase,
		Question: question.Content,
		Answer:   content,
	})
	if err != nil {
		e.logger.Warn("answer scoring failed, using fallback feedback",
			zap.Error(err),
			zap.String("interview_id", interview.ID),
			zap.String("question_id", question.ID),
		)
		return fallbackFeedback()
	}
	if fb.Score < 1 || fb.Score > 10 {
		e.logger.Warn("answer score out of range, using fallback feedback", zap.Int("score", fb.Score), zap.String("question_id", question.ID))
		return fallbackFeedback()
	}
	return fb
}

// Record guarda la respuesta dentro de tx. created=false si la pregunta ya tenia respuesta.
func (e *AnswerEvaluator) Record(ctx context.Context, tx repository.Store, question domain.Question, content string, fb domain.Feedback) (domain.Answer, bool, error) {
	marked, err := tx.Questions().MarkAnswered(ctx, question.ID)
	if err != nil {
		return domain.Answer{}, false, fmt.Errorf("mark answered: %w", err)
	}
	if !marked {
		existing, err := tx.Answers().GetByQuestionID(ctx, question.ID)
		if err != nil {
			return domain.Answer{}, false, fmt.Errorf("load existing answer: %w", err)
		}
		return existing, false, nil
	}

	answer := domain.Answer{
		ID:                    uuid.NewString(),
		QuestionID:            question.ID,
		Content:               content,
		Feedback:              fb.Feedback,
		Score:                 fb.Score,
		ImprovementSuggestion: fb.ImprovementSuggestion,
		IsPassed:              fb.IsPassed,
		CreatedAt:             e.now(),
	}
	if err := tx.Answers().Create(ctx, answer); err != nil {
		return domain.Answer{}, false, fmt.Errorf("create answer: %w", err)
	}
	return answer, true, nil
}

// Evaluate puntua y guarda una respuesta sin avanzar la entrevista.
// Llamarlo de nuevo sobre una pregunta respondida devuelve la respuesta existente.
func (e *AnswerEvaluator) Evaluate(ctx context.Context, questionID, content string) (domain.Answer, bool, error) {
	question, err := e.store.Questions().GetByID(ctx, questionID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Answer{}, false, ErrQuestionNotFound
		}
		return domain.Answer{}, false, err
	}

	// Una entrevista borrada deja sus preguntas inaccesibles.
	interview, err := e.store.Interviews().GetByID(ctx, question.InterviewID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Answer{}, false, ErrInterviewNotFound
		}
		return domain.Answer{}, false, err
	}
	if question.IsAnswered {
		existing, err := e.store.Answers().GetByQuestionID(ctx, questionID)
		return existing, false, err
	}
	fb := e.Score(ctx, interview, question, content)

	var (
		answer  domain.Answer
		created bool
	)
	err = e.store.InTx(ctx, func(tx repository.Store) error {
		var txErr error
		answer, created, txErr = e.Record(ctx, tx, question, content, fb)
		return txErr
	})
	if err != nil {
		return domain.Answer{}, false, err
	}
	return answer, created, nil
}
