package domain

import "time"

// Dashboard resume la actividad de un miembro. Los promedios son nil si no hay respuestas.
type Dashboard struct {
	TotalInterviews         int      `json:"total_interviews"`
	CompletedInterviews     int      `json:"completed_interviews"`
	InProgressInterviews    int      `json:"in_progress_interviews"`
	AverageScore            *float64 `json:"average_score"`
	TechnicalAverageScore   *float64 `json:"technical_average_score"`
	PersonalityAverageScore *float64 `json:"personality_average_score"`
}

type PhasePerformance struct {
	Phase        Phase   `json:"phase"`
	AverageScore float64 `json:"average_score"`
	AnswerCount  int     `json:"answer_count"`
}

type TrendPeriod string

const (
	TrendMonthly TrendPeriod = "monthly"
	TrendWeekly  TrendPeriod = "weekly"
)

type TrendPoint struct {
	Date           time.Time `json:"date"`
	Label          string    `json:"label"`
	AverageScore   *float64  `json:"average_score"`
	InterviewCount int       `json:"interview_count"`
}

type RecentInterview struct {
	ID           string          `json:"id"`
	Title        string          `json:"title"`
	Type         InterviewType   `json:"interview_type"`
	Position     Position        `json:"position"`
	Status       InterviewStatus `json:"status"`
	AverageScore *float64        `json:"average_score"`
	CreatedAt    time.Time       `json:"created_at"`
}
