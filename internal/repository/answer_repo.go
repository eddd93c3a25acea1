package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"preview-api/internal/domain"
)

type PgAnswerRepository struct {
	db DBTX
}

func NewPgAnswerRepository(db DBTX) *PgAnswerRepository {
	return &PgAnswerRepository{db: db}
}

const answerColumns = `a.id, a.question_id, a.content, a.feedback, a.score, a.improvement_suggestion, a.is_passed, a.created_at`

func (r *PgAnswerRepository) Create(ctx context.Context, answer domain.Answer) error {
	const query = `
		INSERT INTO answers (id, question_id, content, feedback, score, improvement_suggestion, is_passed, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.Exec(ctx, query,
		answer.ID,
		answer.QuestionID,
		answer.Content,
		answer.Feedback,
		answer.Score,
		answer.ImprovementSuggestion,
		answer.IsPassed,
		answer.CreatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("answer for question %s already recorded: %w", answer.QuestionID, domain.ErrInvalidTransition)
	}
	return err
}

func (r *PgAnswerRepository) GetByQuestionID(ctx context.Context, questionID string) (domain.Answer, error) {
	const query = `SELECT ` + answerColumns + ` FROM answers a WHERE a.question_id = $1`
	a, err := scanAnswer(r.db.QueryRow(ctx, query, questionID))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Answer{}, fmt.Errorf("answer for question %s: %w", questionID, domain.ErrNotFound)
	}
	return a, err
}

func (r *PgAnswerRepository) ListByInterview(ctx context.Context, interviewID string) ([]domain.Answer, error) {
	const query = `
		SELECT ` + answerColumns + `
		FROM answers a
		JOIN questions q ON q.id = a.question_id
		WHERE q.interview_id = $1
		ORDER BY q.sequence ASC
	`
	rows, err := r.db.Query(ctx, query, interviewID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var answers []domain.Answer
	for rows.Next() {
		a, err := scanAnswer(rows)
		if err != nil {
			return nil, err
		}
		answers = append(answers, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return answers, nil
}

func (r *PgAnswerRepository) ListScoredByMember(ctx context.Context, memberID string) ([]domain.ScoredAnswer, error) {
	const query = `
		SELECT q.interview_id, q.phase, a.score
		FROM answers a
		JOIN questions q ON q.id = a.question_id
		JOIN interviews i ON i.id = q.interview_id
		WHERE i.member_id = $1 AND i.deleted = FALSE
	`
	rows, err := r.db.Query(ctx, query, memberID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var scored []domain.ScoredAnswer
	for rows.Next() {
		var (
			s     domain.ScoredAnswer
			phase string
		)
		if err := rows.Scan(&s.InterviewID, &phase, &s.Score); err != nil {
			return nil, err
		}
		s.Phase = domain.Phase(phase)
		scored = append(scored, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return scored, nil
}

func scanAnswer(row pgx.Row) (domain.Answer, error) {
	var a domain.Answer
	err := row.Scan(
		&a.ID,
		&a.QuestionID,
		&a.Content,
		&a.Feedback,
		&a.Score,
		&a.ImprovementSuggestion,
		&a.IsPassed,
		&a.CreatedAt,
	)
	return a, err
}
