package domain

import "time"

// Question es una pregunta emitida dentro de una entrevista.
// ParentID solo se informa en follow-ups y siempre apunta a la pregunta principal raiz.
type Question struct {
	ID          string    `json:"id"`
	InterviewID string    `json:"interview_id"`
	Content     string    `json:"content"`
	Phase       Phase     `json:"phase"`
	Sequence    int       `json:"sequence"`
	IsFollowUp  bool      `json:"is_follow_up"`
	ParentID    *string   `json:"parent_question_id,omitempty"`
	IsAnswered  bool      `json:"is_answered"`
	CreatedAt   time.Time `json:"created_at"`
}

// RootID devuelve el id de la pregunta principal a la que pertenece q.
func (q Question) RootID() string {
	if q.ParentID != nil {
		return *q.ParentID
	}
	return q.ID
}

// Answer guarda la respuesta del candidato junto con su evaluacion.
type Answer struct {
	ID                    string    `json:"id"`
	QuestionID            string    `json:"question_id"`
	Content               string    `json:"content"`
	Feedback              string    `json:"feedback"`
	Score                 int       `json:"score"`
	ImprovementSuggestion string    `json:"improvement_suggestion"`
	IsPassed              bool      `json:"is_passed"`
	CreatedAt             time.Time `json:"created_at"`
}

// Feedback es el resultado de evaluar una respuesta.
type Feedback struct {
	Feedback              string `json:"feedback"`
	Score                 int    `json:"score"`
	IsPassed              bool   `json:"isPassed"`
	ImprovementSuggestion string `json:"improvementSuggestion"`
}

// ScoredAnswer es la vista plana que consume la agregacion de estadisticas.
type ScoredAnswer struct {
	InterviewID string
	Phase       Phase
	Score       int
}
