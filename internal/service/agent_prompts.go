package service

import (
	"fmt"
	"strings"

	"preview-api/internal/domain"
)

// Los prompts van en ingles para que el modelo siga mejor las instrucciones;
// todo texto visible para el candidato se pide en coreano.

const koreanOnly = `OUTPUT LANGUAGE REQUIREMENT (CRITICAL):
- Every text field in your response MUST be written in Korean (한국어) only.
- Do NOT use English, Chinese, Japanese or any other language in text fields.`

var phaseCriteria = map[domain.Phase]string{
	domain.PhaseOpening:     "명확성, 관련 경험 언급, 지원 동기의 진정성, 논리적 구성",
	domain.PhaseTechnical:   "기술적 정확성, 깊이 있는 이해, 실무 적용 가능성, 문제 해결 능력",
	domain.PhasePersonality: "구체적인 사례(STAR 기법), 자기 인식, 협업 능력, 문제 해결 접근법, 성장 의지",
	domain.PhaseClosing:     "적극성, 회사/직무에 대한 관심, 준비성",
}

var phaseFocus = map[domain.Phase]string{
	domain.PhaseOpening:     "This is the OPENING phase. Focus on background, motivation and career goals. Do not dig into technical details.",
	domain.PhaseTechnical:   "This is the TECHNICAL phase. Evaluate technical accuracy, depth of understanding and practical application.",
	domain.PhasePersonality: "This is the PERSONALITY phase. Evaluate collaboration, conflict resolution and leadership; check for STAR-style concrete examples.",
	domain.PhaseClosing:     "This is the CLOSING phase. Focus on proactiveness, interest in the company/position and preparedness.",
}

func scoreSystemPrompt(phase domain.Phase) string {
	return fmt.Sprintf(`You are a senior interviewer evaluating a candidate's answer in a mock job interview.
%s

Evaluation criteria: %s

Return ONLY a JSON object, no markdown:
{"feedback": "5-7 sentences covering strengths, gaps and concrete advice", "score": 7, "isPassed": true, "improvementSuggestion": "one concrete suggestion"}

Rules:
- score is an integer between 1 and 10.
- isPassed is true when score >= 6.

%s`, phaseFocus[phase], phaseCriteria[phase], koreanOnly)
}

func scoreUserPrompt(req ScoreRequest) string {
	var sb strings.Builder
	writeProfile(&sb, req.Profile)
	fmt.Fprintf(&sb, "\nInterview phase: %s\nQuestion: %s\nAnswer: %s\n", req.Phase, req.Question, strings.TrimSpace(req.Answer))
	return sb.String()
}

func decisionSystemPrompt(req DecisionRequest) string {
	return fmt.Sprintf(`You are the interviewer agent driving the %s phase of a mock job interview.
After each answer decide the next step and return ONLY a JSON object, no markdown:
{"thought": "your reasoning", "action": "GENERATE_QUESTION" | "NEXT_PHASE", "message": "next question or null", "evaluation": "one-line evaluation", "followUp": true | false}

Rules:
- GENERATE_QUESTION with followUp=true asks a deeper question about the SAME topic. Only do this when the answer is reasonable (score >= 5) but lacks detail. Never rephrase the original question.
- GENERATE_QUESTION with followUp=false moves to a NEW topic within this phase.
- NEXT_PHASE when this phase has covered enough ground; message must be null.
- Follow-ups used for the current topic: %d of %d allowed.
- Main questions asked in this phase: %d of %d planned.

%s

%s`, req.Phase, req.FollowUpsUsed, req.FollowUpsAllowed, req.MainAsked, req.MainBudget, phaseFocus[req.Phase], koreanOnly)
}

func decisionUserPrompt(req DecisionRequest) string {
	var sb strings.Builder
	writeProfile(&sb, req.Profile)
	if len(req.History) > 0 {
		sb.WriteString("\nPrevious exchanges in this phase:\n")
		sb.WriteString(formatHistory(req.History))
	}
	fmt.Fprintf(&sb, "\nCurrent question: %s\nCandidate answer: %s\nScore given: %d/10\n", req.Question, strings.TrimSpace(req.Answer), req.Score)
	return sb.String()
}

func questionSystemPrompt(phase domain.Phase) string {
	var topics string
	switch phase {
	case domain.PhaseTechnical:
		topics = "Consider concept explanations, comparisons, experience-based, problem-solving and architecture questions tailored to the candidate's stack."
	case domain.PhasePersonality:
		topics = "Focus on teamwork, conflict resolution, leadership, time management, stress handling, failure experiences and growth mindset."
	default:
		topics = phaseFocus[phase]
	}
	return fmt.Sprintf(`You are an interviewer opening the %s phase of a mock job interview.
%s

Return ONLY a JSON object, no markdown:
{"question": "the question"}

%s`, phase, topics, koreanOnly)
}

func questionUserPrompt(req QuestionRequest) string {
	var sb strings.Builder
	writeProfile(&sb, req.Profile)
	if strings.TrimSpace(req.Profile.ResumeText) != "" {
		sb.WriteString("\nResume content:\n")
		sb.WriteString(strings.TrimSpace(req.Profile.ResumeText))
		sb.WriteString("\n")
	}
	if strings.TrimSpace(req.Profile.PortfolioText) != "" {
		sb.WriteString("\nPortfolio content:\n")
		sb.WriteString(strings.TrimSpace(req.Profile.PortfolioText))
		sb.WriteString("\n")
	}
	if len(req.History) > 0 {
		sb.WriteString("\nPrevious answers:\n")
		sb.WriteString(formatHistory(req.History))
	}
	return sb.String()
}

func reportSystemPrompt() string {
	return `You write the final report of a mock job interview.
Return ONLY a JSON object, no markdown:
{"summary": "2-3 sentences", "strengths": ["..."], "improvements": ["..."], "recommendedTopics": ["..."], "overallScore": 7}

overallScore is an integer between 1 and 10 that reflects all answers.

` + koreanOnly
}

func reportUserPrompt(req ReportRequest) string {
	var sb strings.Builder
	writeProfile(&sb, req.Profile)
	sb.WriteString("\nQuestions, answers and scores:\n")
	for _, ex := range req.Exchanges {
		fmt.Fprintf(&sb, "[%s] Question: %s\nAnswer: %s\nScore: %d\n\n", ex.Phase, ex.Question, ex.Answer, ex.Score)
	}
	return sb.String()
}

func writeProfile(sb *strings.Builder, p CandidateProfile) {
	fmt.Fprintf(sb, "Position: %s\nExperience level: %s\n", p.Position.DisplayName(), p.Level.DisplayName())
	if len(p.TechStacks) > 0 {
		fmt.Fprintf(sb, "Tech stacks: %s\n", strings.Join(p.TechStacks, ", "))
	}
}
