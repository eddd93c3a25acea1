package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"preview-api/internal/service"
	"preview-api/internal/voice"
)

// InterviewHandler expone el ciclo de vida de la entrevista y el paso de respuesta.
type InterviewHandler struct {
	logger      *zap.Logger
	interviews  *service.InterviewService
	submissions *service.SubmissionService
	voice       *voice.Client
}

func NewInterviewHandler(logger *zap.Logger, interviews *service.InterviewService, submissions *service.SubmissionService, voiceClient *voice.Client) *InterviewHandler {
	return &InterviewHandler{
		logger:      logger,
		interviews:  interviews,
		submissions: submissions,
		voice:       voiceClient,
	}
}

type createInterviewRequest struct {
	Title         string   `json:"title" binding:"required,max=200"`
	InterviewType string   `json:"interview_type" binding:"required"`
	Position      string   `json:"position" binding:"required"`
	Level         string   `json:"level" binding:"required"`
	TechStacks    []string `json:"tech_stacks" binding:"max=20"`
	ResumeText    string   `json:"resume_text"`
	PortfolioText string   `json:"portfolio_text"`
}

// CreateInterview maneja POST /interviews.
func (h *InterviewHandler) CreateInterview(c *gin.Context) {
	member, ok := memberID(c)
	if !ok {
		return
	}
	var req createInterviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalidRequest(c, h.logger, "create interview", err)
		return
	}

	interview, first, err := h.interviews.Create(c.Request.Context(), service.CreateInterviewInput{
		MemberID:      member,
		Title:         req.Title,
		Type:          req.InterviewType,
		Position:      req.Position,
		Level:         req.Level,
		TechStacks:    req.TechStacks,
		ResumeText:    req.ResumeText,
		PortfolioText: req.PortfolioText,
	})
	if err != nil {
		respondError(c, h.logger, "create interview", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"interview":      toInterviewView(interview),
		"first_question": toQuestionView(first),
	})
}

// ListInterviews maneja GET /interviews.
func (h *InterviewHandler) ListInterviews(c *gin.Context) {
	member, ok := memberID(c)
	if !ok {
		return
	}
	list, err := h.interviews.List(c.Request.Context(), member)
	if err != nil {
		respondError(c, h.logger, "list interviews", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"interviews": toInterviewViews(list)})
}

// GetInterview maneja GET /interviews/:id.
func (h *InterviewHandler) GetInterview(c *gin.Context) {
	member, ok := memberID(c)
	if !ok {
		return
	}
	interview, err := h.interviews.Get(c.Request.Context(), member, c.Param("id"))
	if err != nil {
		respondError(c, h.logger, "get interview", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"interview": toInterviewView(interview)})
}

// DeleteInterview maneja DELETE /interviews/:id.
func (h *InterviewHandler) DeleteInterview(c *gin.Context) {
	member, ok := memberID(c)
	if !ok {
		return
	}
	if err := h.interviews.Delete(c.Request.Context(), member, c.Param("id")); err != nil {
		respondError(c, h.logger, "delete interview", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListQuestions maneja GET /interviews/:id/questions.
func (h *InterviewHandler) ListQuestions(c *gin.Context) {
	member, ok := memberID(c)
	if !ok {
		return
	}
	questions, err := h.interviews.Questions(c.Request.Context(), member, c.Param("id"))
	if err != nil {
		respondError(c, h.logger, "list questions", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"questions": toQuestionViews(questions)})
}

// GetResult maneja GET /interviews/:id/result.
func (h *InterviewHandler) GetResult(c *gin.Context) {
	member, ok := memberID(c)
	if !ok {
		return
	}
	res, err := h.interviews.Result(c.Request.Context(), member, c.Param("id"))
	if err != nil {
		respondError(c, h.logger, "interview result", err)
		return
	}
	c.JSON(http.StatusOK, toResultView(res))
}

// SubmitAnswer maneja POST /interviews/:id/questions/:qid/answer.
func (h *InterviewHandler) SubmitAnswer(c *gin.Context) {
	member, ok := memberID(c)
	if !ok {
		return
	}
	var req struct {
		Content string `json:"content" binding:"required,max=10000"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalidRequest(c, h.logger, "submit answer", err)
		return
	}

	res, err := h.submissions.SubmitAnswer(c.Request.Context(), member, c.Param("id"), c.Param("qid"), req.Content)
	if err != nil {
		respondError(c, h.logger, "submit answer", err)
		return
	}
	c.JSON(http.StatusOK, toSubmitView(res))
}

// SubmitAudioAnswer maneja POST /interviews/:id/questions/:qid/audio-answer (multipart "file").
func (h *InterviewHandler) SubmitAudioAnswer(c *gin.Context) {
	member, ok := memberID(c)
	if !ok {
		return
	}
	if h.voice == nil {
		respondError(c, h.logger, "audio answer", voice.ErrVoiceDisabled)
		return
	}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		respondInvalidRequest(c, h.logger, "audio answer", err)
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		respondInvalidRequest(c, h.logger, "audio answer", err)
		return
	}
	defer file.Close()

	transcript, err := h.voice.Transcribe(c.Request.Context(), fileHeader.Filename, file, c.DefaultPostForm("language", "ko"))
	if err != nil {
		respondError(c, h.logger, "audio answer", err)
		return
	}

	res, err := h.submissions.SubmitAnswer(c.Request.Context(), member, c.Param("id"), c.Param("qid"), transcript.Text)
	if err != nil {
		respondError(c, h.logger, "audio answer", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"transcript": transcript.Text,
		"result":     toSubmitView(res),
	})
}
