package domain

import "strings"

// AgentAction es el siguiente paso que propone el agente.
type AgentAction string

const (
	ActionGenerateQuestion AgentAction = "GENERATE_QUESTION"
	ActionNextPhase        AgentAction = "NEXT_PHASE"
)

// AgentDecision describe lo que el agente quiere hacer tras una respuesta.
type AgentDecision struct {
	Thought    string      `json:"thought"`
	Action     AgentAction `json:"action"`
	Message    string      `json:"message"`
	Evaluation string      `json:"evaluation"`
	FollowUp   bool        `json:"followUp"`
}

// NormalizeAction traduce alias de versiones anteriores del agente.
// FOLLOW_UP y NEW_TOPIC se convierten en GENERATE_QUESTION con el flag correspondiente.
func NormalizeAction(raw string, followUp bool) (AgentAction, bool, bool) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case string(ActionGenerateQuestion):
		return ActionGenerateQuestion, followUp, true
	case "FOLLOW_UP":
		return ActionGenerateQuestion, true, true
	case "NEW_TOPIC":
		return ActionGenerateQuestion, false, true
	case string(ActionNextPhase):
		return ActionNextPhase, false, true
	default:
		return "", false, false
	}
}

// Report es el resumen final de la entrevista generado por el agente.
type Report struct {
	Summary           string   `json:"summary"`
	Strengths         []string `json:"strengths"`
	Improvements      []string `json:"improvements"`
	RecommendedTopics []string `json:"recommendedTopics"`
	OverallScore      int      `json:"overallScore"`
}
