package domain

import (
	"fmt"
	"strings"
)

// InterviewType define el plan de fases de una entrevista.
type InterviewType string

const (
	InterviewTypeFull        InterviewType = "FULL"
	InterviewTypeTechnical   InterviewType = "TECHNICAL"
	InterviewTypePersonality InterviewType = "PERSONALITY"
)

var phasePlans = map[InterviewType][]Phase{
	InterviewTypeFull:        {PhaseOpening, PhaseTechnical, PhasePersonality, PhaseClosing},
	InterviewTypeTechnical:   {PhaseTechnical},
	InterviewTypePersonality: {PhasePersonality},
}

// ParseInterviewType rechaza tipos desconocidos para que PhasesFor no tenga camino de error.
func ParseInterviewType(raw string) (InterviewType, error) {
	t := InterviewType(strings.ToUpper(strings.TrimSpace(raw)))
	if _, ok := phasePlans[t]; !ok {
		return "", fmt.Errorf("interview type %q: %w", raw, ErrValidationFailed)
	}
	return t, nil
}

// PhasesFor devuelve una copia del plan para que el caller no altere la tabla.
func PhasesFor(t InterviewType) []Phase {
	plan := phasePlans[t]
	out := make([]Phase, len(plan))
	copy(out, plan)
	return out
}

func ContainsPhase(t InterviewType, p Phase) bool {
	for _, candidate := range phasePlans[t] {
		if candidate == p {
			return true
		}
	}
	return false
}

// FirstPhase devuelve la primera fase del plan.
func FirstPhase(t InterviewType) (Phase, bool) {
	plan := phasePlans[t]
	if len(plan) == 0 {
		return "", false
	}
	return plan[0], true
}

// NextPhase devuelve la fase siguiente a current segun el plan; false si no queda ninguna.
func NextPhase(t InterviewType, current Phase) (Phase, bool) {
	plan := phasePlans[t]
	for i, p := range plan {
		if p == current && i+1 < len(plan) {
			return plan[i+1], true
		}
	}
	return "", false
}
