package http

import (
	"time"

	"github.com/jinzhu/copier"

	"preview-api/internal/domain"
	"preview-api/internal/service"
)

// interviewView es la entrevista tal como la ve el candidato; oculta resume/portfolio y el reporte cacheado.
type interviewView struct {
	ID           string                 `json:"id"`
	Title        string                 `json:"title"`
	Type         domain.InterviewType   `json:"interview_type"`
	Position     domain.Position        `json:"position"`
	Level        domain.ExperienceLevel `json:"level"`
	TechStacks   []string               `json:"tech_stacks"`
	Status       domain.InterviewStatus `json:"status"`
	CurrentPhase domain.Phase           `json:"current_phase,omitempty"`
	CreatedAt    time.Time              `json:"created_at"`
	UpdatedAt    time.Time              `json:"updated_at"`
}

type questionView struct {
	ID         string       `json:"id"`
	Content    string       `json:"content"`
	Phase      domain.Phase `json:"phase"`
	Sequence   int          `json:"sequence"`
	IsFollowUp bool         `json:"is_follow_up"`
	ParentID   *string      `json:"parent_question_id,omitempty"`
	IsAnswered bool         `json:"is_answered"`
}

type answerView struct {
	ID                    string `json:"id"`
	Content               string `json:"content"`
	Feedback              string `json:"feedback"`
	Score                 int    `json:"score"`
	ImprovementSuggestion string `json:"improvement_suggestion"`
	IsPassed              bool   `json:"is_passed"`
}

type submitView struct {
	Answer       answerView             `json:"answer"`
	NextQuestion *questionView          `json:"next_question,omitempty"`
	Status       domain.InterviewStatus `json:"status"`
	CurrentPhase domain.Phase           `json:"current_phase,omitempty"`
}

type resultItemView struct {
	Question questionView `json:"question"`
	Answer   *answerView  `json:"answer,omitempty"`
}

type resultView struct {
	Interview    interviewView    `json:"interview"`
	Questions    []resultItemView `json:"questions"`
	Report       domain.Report    `json:"report"`
	AverageScore *float64         `json:"average_score"`
}

func toInterviewView(in domain.Interview) interviewView {
	var v interviewView
	_ = copier.Copy(&v, &in)
	if v.TechStacks == nil {
		v.TechStacks = []string{}
	}
	return v
}

func toInterviewViews(in []domain.Interview) []interviewView {
	out := make([]interviewView, 0, len(in))
	for _, i := range in {
		out = append(out, toInterviewView(i))
	}
	return out
}

func toQuestionView(q domain.Question) questionView {
	var v questionView
	_ = copier.Copy(&v, &q)
	return v
}

func toQuestionViews(in []domain.Question) []questionView {
	out := make([]questionView, 0, len(in))
	for _, q := range in {
		out = append(out, toQuestionView(q))
	}
	return out
}

func toAnswerView(a domain.Answer) answerView {
	var v answerView
	_ = copier.Copy(&v, &a)
	return v
}

func toSubmitView(res service.SubmitResult) submitView {
	v := submitView{
		Answer:       toAnswerView(res.Answer),
		Status:       res.Status,
		CurrentPhase: res.CurrentPhase,
	}
	if res.NextQuestion != nil {
		next := toQuestionView(*res.NextQuestion)
		v.NextQuestion = &next
	}
	return v
}

func toResultView(res service.InterviewResult) resultView {
	v := resultView{
		Interview:    toInterviewView(res.Interview),
		Questions:    make([]resultItemView, 0, len(res.Questions)),
		Report:       res.Report,
		AverageScore: res.AverageScore,
	}
	for _, qa := range res.Questions {
		item := resultItemView{Question: toQuestionView(qa.Question)}
		if qa.Answer != nil {
			a := toAnswerView(*qa.Answer)
			item.Answer = &a
		}
		v.Questions = append(v.Questions, item)
	}
	return v
}
