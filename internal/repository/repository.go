package repository

import (
	"context"

	"preview-api/internal/domain"
)

// Los metodos Get* devuelven un error que envuelve domain.ErrNotFound cuando no hay fila.

type InterviewRepository interface {
	Create(ctx context.Context, interview domain.Interview) error
	GetByID(ctx context.Context, id string) (domain.Interview, error)
	ListByMember(ctx context.Context, memberID string) ([]domain.Interview, error)
	// Update aplica compare-and-set sobre Version e incrementa interview.Version si tiene exito.
	Update(ctx context.Context, interview *domain.Interview) error
	SoftDelete(ctx context.Context, id string) error
}

type QuestionRepository interface {
	Create(ctx context.Context, question domain.Question) error
	GetByID(ctx context.Context, id string) (domain.Question, error)
	ListByInterview(ctx context.Context, interviewID string) ([]domain.Question, error)
	ListByInterviewAndPhase(ctx context.Context, interviewID string, phase domain.Phase) ([]domain.Question, error)
	ListByParent(ctx context.Context, parentID string) ([]domain.Question, error)
	MaxSequence(ctx context.Context, interviewID string) (int, error)
	// MarkAnswered es condicional: devuelve false si la pregunta ya estaba respondida.
	MarkAnswered(ctx context.Context, id string) (bool, error)
}

type AnswerRepository interface {
	Create(ctx context.Context, answer domain.Answer) error
	GetByQuestionID(ctx context.Context, questionID string) (domain.Answer, error)
	ListByInterview(ctx context.Context, interviewID string) ([]domain.Answer, error)
	ListScoredByMember(ctx context.Context, memberID string) ([]domain.ScoredAnswer, error)
}

// Store agrupa los repositorios y permite ejecutar varias escrituras de forma atomica.
type Store interface {
	Interviews() InterviewRepository
	Questions() QuestionRepository
	Answers() AnswerRepository
	// InTx ejecuta fn dentro de una transaccion; si fn devuelve error no queda nada persistido.
	InTx(ctx context.Context, fn func(tx Store) error) error
}
