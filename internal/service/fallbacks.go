package service

import "preview-api/internal/domain"

// Respuestas deterministas cuando el agente no responde a tiempo.

const (
	fallbackFeedbackText = "AI 서비스 연결 문제로 자동 피드백을 생성할 수 없었습니다. 답변은 저장되었으며, 잠시 후 다시 시도해주세요."
	fallbackScore        = 5
	fallbackReportText   = "AI 서비스 연결 문제로 리포트를 생성할 수 없습니다. 잠시 후 다시 시도해주세요."
)

func fallbackFeedback() domain.Feedback {
	return domain.Feedback{
		Feedback: fallbackFeedbackText,
		Score:    fallbackScore,
		IsPassed: false,
	}
}

func fallbackQuestion(phase domain.Phase) string {
	switch phase {
	case domain.PhasePersonality:
		return "팀에서 갈등이 발생했을 때 어떻게 해결하시겠어요?"
	case domain.PhaseTechnical:
		return "가장 자신 있는 기술 스택에 대해 설명해주세요."
	default:
		return string(phase) + " 관련 질문"
	}
}

func fallbackReport() domain.Report {
	return domain.Report{
		Summary:           fallbackReportText,
		Strengths:         []string{},
		Improvements:      []string{},
		RecommendedTopics: []string{},
		OverallScore:      0,
	}
}
