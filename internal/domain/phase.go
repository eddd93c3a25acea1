package domain

import (
	"fmt"
	"strings"
)

// Phase identifica una etapa de la entrevista.
type Phase string

const (
	PhaseOpening     Phase = "OPENING"
	PhaseTechnical   Phase = "TECHNICAL"
	PhasePersonality Phase = "PERSONALITY"
	PhaseClosing     Phase = "CLOSING"
)

// PhaseSpec agrupa los atributos estaticos de una fase.
type PhaseSpec struct {
	Order                int
	DefaultQuestionCount int
	Template             bool
	MaxFollowUp          int
}

// Los template nunca admiten follow-ups.
var phaseSpecs = map[Phase]PhaseSpec{
	PhaseOpening:     {Order: 1, DefaultQuestionCount: 3, Template: true, MaxFollowUp: 0},
	PhaseTechnical:   {Order: 2, DefaultQuestionCount: 5, Template: false, MaxFollowUp: 3},
	PhasePersonality: {Order: 3, DefaultQuestionCount: 4, Template: false, MaxFollowUp: 2},
	PhaseClosing:     {Order: 4, DefaultQuestionCount: 2, Template: true, MaxFollowUp: 0},
}

// AllPhases devuelve las fases en orden canonico.
func AllPhases() []Phase {
	return []Phase{PhaseOpening, PhaseTechnical, PhasePersonality, PhaseClosing}
}

// ParsePhase normaliza y valida un nombre de fase.
func ParsePhase(raw string) (Phase, error) {
	p := Phase(strings.ToUpper(strings.TrimSpace(raw)))
	if _, ok := phaseSpecs[p]; !ok {
		return "", fmt.Errorf("phase %q: %w", raw, ErrValidationFailed)
	}
	return p, nil
}

func (p Phase) Spec() PhaseSpec {
	return phaseSpecs[p]
}

func (p Phase) Order() int {
	return phaseSpecs[p].Order
}

func (p Phase) DefaultQuestionCount() int {
	return phaseSpecs[p].DefaultQuestionCount
}

// IsTemplate indica si las preguntas salen del banco fijo y no del agente.
func (p Phase) IsTemplate() bool {
	return phaseSpecs[p].Template
}

func (p Phase) MaxFollowUp() int {
	return phaseSpecs[p].MaxFollowUp
}

func (p Phase) Valid() bool {
	_, ok := phaseSpecs[p]
	return ok
}
