package service

import (
	"context"
	"fmt"
	"strings"

	"preview-api/internal/domain"
	"preview-api/internal/repository"
)

const maxHistoryExchanges = 10

// HistoryService arma el historial pregunta/respuesta que se envia al agente.
type HistoryService struct {
	questions repository.QuestionRepository
	answers   repository.AnswerRepository
}

func NewHistoryService(questions repository.QuestionRepository, answers repository.AnswerRepository) *HistoryService {
	return &HistoryService{questions: questions, answers: answers}
}

// PhaseHistory devuelve las ultimas respuestas de la fase, en orden de secuencia.
// Un phase vacio devuelve el historial de toda la entrevista.
func (s *HistoryService) PhaseHistory(ctx context.Context, interviewID string, phase domain.Phase) ([]Exchange, error) {
	questions, err := s.questions.ListByInterview(ctx, interviewID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	answers, err := s.answers.ListByInterview(ctx, interviewID)
	if err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}

	history := buildExchanges(questions, answers, phase)
	if len(history) > maxHistoryExchanges {
		history = history[len(history)-maxHistoryExchanges:]
	}
	return history, nil
}

func buildExchanges(questions []domain.Question, answers []domain.Answer, phase domain.Phase) []Exchange {
	byQuestion := make(map[string]domain.Answer, len(answers))
	for _, a := range answers {
		byQuestion[a.QuestionID] = a
	}

	var out []Exchange
	for _, q := range questions {
		if phase != "" && q.Phase != phase {
			continue
		}
		a, ok := byQuestion[q.ID]
		if !ok {
			continue
		}
		out = append(out, Exchange{
			Phase:      q.Phase,
			Question:   q.Content,
			Answer:     a.Content,
			Score:      a.Score,
			IsFollowUp: q.IsFollowUp,
		})
	}
	return out
}

func formatHistory(history []Exchange) string {
	lines := make([]string, 0, len(history)*2)
	for _, ex := range history {
		label := "Q"
		if ex.IsFollowUp {
			label = "Follow-up Q"
		}
		lines = append(lines, fmt.Sprintf("%s: %s", label, ex.Question))
		lines = append(lines, fmt.Sprintf("A (score %d): %s", ex.Score, strings.TrimSpace(ex.Answer)))
	}
	return strings.Join(lines, "\n") + "\n"
}
