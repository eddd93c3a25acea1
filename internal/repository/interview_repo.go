package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"preview-api/internal/domain"
)

type PgInterviewRepository struct {
	db DBTX
}

func NewPgInterviewRepository(db DBTX) *PgInterviewRepository {
	return &PgInterviewRepository{db: db}
}

const interviewColumns = `id, member_id, interview_type, position, experience_level, tech_stacks, title,
	resume_text, portfolio_text, status, current_phase, ai_report, deleted, version, created_at, updated_at`

func (r *PgInterviewRepository) Create(ctx context.Context, interview domain.Interview) error {
	const query = `
		INSERT INTO interviews (` + interviewColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`
	report, err := marshalReport(interview.Report)
	if err != nil {
		return err
	}
	techStacks := interview.TechStacks
	if techStacks == nil {
		techStacks = []string{}
	}

	_, err = r.db.Exec(ctx, query,
		interview.ID,
		interview.MemberID,
		string(interview.Type),
		string(interview.Position),
		string(interview.Level),
		techStacks,
		interview.Title,
		interview.ResumeText,
		interview.PortfolioText,
		string(interview.Status),
		string(interview.CurrentPhase),
		report,
		interview.Deleted,
		interview.Version,
		interview.CreatedAt,
		interview.UpdatedAt,
	)
	return err
}

func (r *PgInterviewRepository) GetByID(ctx context.Context, id string) (domain.Interview, error) {
	const query = `
		SELECT ` + interviewColumns + `
		FROM interviews
		WHERE id = $1 AND deleted = FALSE
	`
	interview, err := scanInterview(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Interview{}, fmt.Errorf("interview %s: %w", id, domain.ErrNotFound)
	}
	return interview, err
}

func (r *PgInterviewRepository) ListByMember(ctx context.Context, memberID string) ([]domain.Interview, error) {
	const query = `
		SELECT ` + interviewColumns + `
		FROM interviews
		WHERE member_id = $1 AND deleted = FALSE
		ORDER BY created_at DESC
	`
	rows, err := r.db.Query(ctx, query, memberID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var interviews []domain.Interview
	for rows.Next() {
		interview, err := scanInterview(rows)
		if err != nil {
			return nil, err
		}
		interviews = append(interviews, interview)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return interviews, nil
}

func (r *PgInterviewRepository) Update(ctx context.Context, interview *domain.Interview) error {
	const query = `
		UPDATE interviews
		SET status = $3, current_phase = $4, ai_report = $5, updated_at = $6, version = version + 1
		WHERE id = $1 AND version = $2 AND deleted = FALSE
	`
	report, err := marshalReport(interview.Report)
	if err != nil {
		return err
	}
	tag, err := r.db.Exec(ctx, query,
		interview.ID,
		interview.Version,
		string(interview.Status),
		string(interview.CurrentPhase),
		report,
		interview.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("interview %s version %d: %w", interview.ID, interview.Version, domain.ErrConcurrentModification)
	}
	interview.Version++
	return nil
}

func (r *PgInterviewRepository) SoftDelete(ctx context.Context, id string) error {
	const query = `UPDATE interviews SET deleted = TRUE, version = version + 1 WHERE id = $1 AND deleted = FALSE`
	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("interview %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

func scanInterview(row pgx.Row) (domain.Interview, error) {
	var (
		i                                   domain.Interview
		typ, position, level, status, phase string
		report                              []byte
	)
	err := row.Scan(
		&i.ID,
		&i.MemberID,
		&typ,
		&position,
		&level,
		&i.TechStacks,
		&i.Title,
		&i.ResumeText,
		&i.PortfolioText,
		&status,
		&phase,
		&report,
		&i.Deleted,
		&i.Version,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	if err != nil {
		return domain.Interview{}, err
	}
	i.Type = domain.InterviewType(typ)
	i.Position = domain.Position(position)
	i.Level = domain.ExperienceLevel(level)
	i.Status = domain.InterviewStatus(status)
	i.CurrentPhase = domain.Phase(phase)
	if len(report) > 0 {
		var rep domain.Report
		if err := json.Unmarshal(report, &rep); err != nil {
			return domain.Interview{}, fmt.Errorf("decode ai_report: %w", err)
		}
		i.Report = &rep
	}
	return i, nil
}

func marshalReport(report *domain.Report) ([]byte, error) {
	if report == nil {
		return nil, nil
	}
	data, err := json.Marshal(report)
	if err != nil {
		return nil, fmt.Errorf("encode ai_report: %w", err)
	}
	return data, nil
}
