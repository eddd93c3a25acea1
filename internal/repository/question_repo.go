package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"preview-api/internal/domain"
)

type PgQuestionRepository struct {
	db DBTX
}

func NewPgQuestionRepository(db DBTX) *PgQuestionRepository {
	return &PgQuestionRepository{db: db}
}

const questionColumns = `id, interview_id, content, phase, sequence, is_follow_up, parent_question_id, is_answered, created_at`

func (r *PgQuestionRepository) Create(ctx context.Context, question domain.Question) error {
	const query = `
		INSERT INTO questions (` + questionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	var parentID interface{}
	if question.ParentID != nil {
		parentID = *question.ParentID
	}

	_, err := r.db.Exec(ctx, query,
		question.ID,
		question.InterviewID,
		question.Content,
		string(question.Phase),
		question.Sequence,
		question.IsFollowUp,
		parentID,
		question.IsAnswered,
		question.CreatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("question sequence %d: %w", question.Sequence, domain.ErrConcurrentModification)
	}
	return err
}

func (r *PgQuestionRepository) GetByID(ctx context.Context, id string) (domain.Question, error) {
	const query = `SELECT ` + questionColumns + ` FROM questions WHERE id = $1`
	q, err := scanQuestion(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Question{}, fmt.Errorf("question %s: %w", id, domain.ErrNotFound)
	}
	return q, err
}

func (r *PgQuestionRepository) ListByInterview(ctx context.Context, interviewID string) ([]domain.Question, error) {
	const query = `SELECT ` + questionColumns + ` FROM questions WHERE interview_id = $1 ORDER BY sequence ASC`
	return r.list(ctx, query, interviewID)
}

func (r *PgQuestionRepository) ListByInterviewAndPhase(ctx context.Context, interviewID string, phase domain.Phase) ([]domain.Question, error) {
	const query = `
		SELECT ` + questionColumns + `
		FROM questions
		WHERE interview_id = $1 AND phase = $2
		ORDER BY sequence ASC
	`
	return r.list(ctx, query, interviewID, string(phase))
}

func (r *PgQuestionRepository) ListByParent(ctx context.Context, parentID string) ([]domain.Question, error) {
	const query = `SELECT ` + questionColumns + ` FROM questions WHERE parent_question_id = $1 ORDER BY sequence ASC`
	return r.list(ctx, query, parentID)
}

func (r *PgQuestionRepository) MaxSequence(ctx context.Context, interviewID string) (int, error) {
	const query = `SELECT COALESCE(MAX(sequence), 0) FROM questions WHERE interview_id = $1`
	var max int
	if err := r.db.QueryRow(ctx, query, interviewID).Scan(&max); err != nil {
		return 0, err
	}
	return max, nil
}

func (r *PgQuestionRepository) MarkAnswered(ctx context.Context, id string) (bool, error) {
	const query = `UPDATE questions SET is_answered = TRUE WHERE id = $1 AND is_answered = FALSE`
	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *PgQuestionRepository) list(ctx context.Context, query string, args ...any) ([]domain.Question, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []domain.Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return questions, nil
}

func scanQuestion(row pgx.Row) (domain.Question, error) {
	var (
		q        domain.Question
		phase    string
		parentID *string
	)
	err := row.Scan(
		&q.ID,
		&q.InterviewID,
		&q.Content,
		&phase,
		&q.Sequence,
		&q.IsFollowUp,
		&parentID,
		&q.IsAnswered,
		&q.CreatedAt,
	)
	if err != nil {
		return domain.Question{}, err
	}
	q.Phase = domain.Phase(phase)
	q.ParentID = parentID
	return q, nil
}
