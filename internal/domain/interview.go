package domain

import (
	"fmt"
	"strings"
	"time"
)

type InterviewStatus string

const (
	InterviewStatusInProgress InterviewStatus = "IN_PROGRESS"
	InterviewStatusCompleted  InterviewStatus = "COMPLETED"
)

type Position string

const (
	PositionBackend      Position = "BACKEND"
	PositionFrontend     Position = "FRONTEND"
	PositionFullstack    Position = "FULLSTACK"
	PositionDevOps       Position = "DEVOPS"
	PositionDataEngineer Position = "DATA_ENGINEER"
	PositionAIML         Position = "AI_ML"
	PositionIOS          Position = "IOS"
	PositionAndroid      Position = "ANDROID"
	PositionGame         Position = "GAME"
)

var positions = map[Position]string{
	PositionBackend:      "백엔드 개발자",
	PositionFrontend:     "프론트엔드 개발자",
	PositionFullstack:    "풀스택 개발자",
	PositionDevOps:       "DevOps 엔지니어",
	PositionDataEngineer: "데이터 엔지니어",
	PositionAIML:         "AI/ML 엔지니어",
	PositionIOS:          "iOS 개발자",
	PositionAndroid:      "Android 개발자",
	PositionGame:         "게임 개발자",
}

func ParsePosition(raw string) (Position, error) {
	p := Position(strings.ToUpper(strings.TrimSpace(raw)))
	if _, ok := positions[p]; !ok {
		return "", fmt.Errorf("position %q: %w", raw, ErrValidationFailed)
	}
	return p, nil
}

// DisplayName es el nombre que se muestra al candidato y al agente.
func (p Position) DisplayName() string {
	if name, ok := positions[p]; ok {
		return name
	}
	return string(p)
}

type ExperienceLevel string

const (
	LevelNewcomer ExperienceLevel = "NEWCOMER"
	LevelJunior   ExperienceLevel = "JUNIOR"
	LevelMid      ExperienceLevel = "MID"
	LevelSenior   ExperienceLevel = "SENIOR"
)

var levels = map[ExperienceLevel]string{
	LevelNewcomer: "신입",
	LevelJunior:   "주니어 (1-3년)",
	LevelMid:      "미드레벨 (4-6년)",
	LevelSenior:   "시니어 (7년 이상)",
}

func ParseExperienceLevel(raw string) (ExperienceLevel, error) {
	l := ExperienceLevel(strings.ToUpper(strings.TrimSpace(raw)))
	if _, ok := levels[l]; !ok {
		return "", fmt.Errorf("experience level %q: %w", raw, ErrValidationFailed)
	}
	return l, nil
}

func (l ExperienceLevel) DisplayName() string {
	if name, ok := levels[l]; ok {
		return name
	}
	return string(l)
}

// Interview representa una sesion de entrevista simulada de un miembro.
type Interview struct {
	ID            string          `json:"id"`
	MemberID      string          `json:"member_id"`
	Type          InterviewType   `json:"interview_type"`
	Position      Position        `json:"position"`
	Level         ExperienceLevel `json:"level"`
	TechStacks    []string        `json:"tech_stacks"`
	Title         string          `json:"title"`
	ResumeText    string          `json:"-"`
	PortfolioText string          `json:"-"`
	Status        InterviewStatus `json:"status"`
	CurrentPhase  Phase           `json:"current_phase,omitempty"`
	Report        *Report         `json:"report,omitempty"`
	Deleted       bool            `json:"-"`
	Version       int             `json:"version"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func (i Interview) IsCompleted() bool {
	return i.Status == InterviewStatusCompleted
}

// Complete cierra la entrevista; CurrentPhase queda vacia.
func (i *Interview) Complete(now time.Time) {
	i.Status = InterviewStatusCompleted
	i.CurrentPhase = ""
	i.UpdatedAt = now
}
