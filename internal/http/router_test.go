package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"preview-api/internal/llm"
	"preview-api/internal/repository"
	"preview-api/internal/service"
	"preview-api/internal/voice"
)

type apiHarness struct {
	t        *testing.T
	router   *gin.Engine
	jwt      *service.JWTService
	endpoint *voice.Endpoint
}

// newAPIHarness monta el router completo sobre el store en memoria y un LLM caido,
// de modo que todas las decisiones del agente usan los fallbacks.
func newAPIHarness(t *testing.T) *apiHarness {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()

	bank, err := service.NewTemplateBank(func(int) int { return 0 })
	require.NoError(t, err)
	store := repository.NewMemoryStore()
	agent := service.NewLLMAgent(&llm.MockClient{Err: errors.New("llm down")}, logger)
	orchestrator := service.NewQuestionOrchestrator(agent, bank, time.Second, logger)
	evaluator := service.NewAnswerEvaluator(agent, store, time.Second, logger)
	jwtSvc := service.NewJWTService("test-secret", time.Hour)
	endpoint := voice.NewEndpoint("", false)
	voiceClient := voice.NewClient(endpoint, time.Second, logger)

	handlers := Handlers{
		Interviews: NewInterviewHandler(logger,
			service.NewInterviewService(store, orchestrator, agent, time.Second, nil, logger),
			service.NewSubmissionService(store, evaluator, orchestrator, nil, nil, logger),
			voiceClient,
		),
		Statistics: NewStatisticsHandler(logger, service.NewStatisticsService(store.Interviews(), store.Answers(), nil, logger)),
		VoiceAdmin: NewVoiceAdminHandler(logger, endpoint, voiceClient),
	}
	return &apiHarness{
		t:        t,
		router:   NewRouter(logger, []string{"http://localhost:3000"}, jwtSvc, handlers),
		jwt:      jwtSvc,
		endpoint: endpoint,
	}
}

func (h *apiHarness) token(memberID, role string) string {
	tok, err := h.jwt.GenerateAccessToken(memberID, role)
	require.NoError(h.t, err)
	return tok
}

func (h *apiHarness) do(method, path, token string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(h.t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

type createdBody struct {
	Interview     interviewView `json:"interview"`
	FirstQuestion questionView  `json:"first_question"`
}

func (h *apiHarness) createTechnical(token string) createdBody {
	rec := h.do(http.MethodPost, "/interviews", token, map[string]any{
		"title":          "backend mock",
		"interview_type": "TECHNICAL",
		"position":       "BACKEND",
		"level":          "JUNIOR",
		"tech_stacks":    []string{"Go"},
	})
	require.Equal(h.t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[createdBody](h.t, rec)
}

func TestHealthIsPublic(t *testing.T) {
	h := newAPIHarness(t)
	rec := h.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestInterviewRoutesRequireToken(t *testing.T) {
	h := newAPIHarness(t)
	rec := h.do(http.MethodGet, "/interviews", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, codeUnauthorized, decode[errorBody](t, rec).Code)
}

func TestInterviewLifecycle(t *testing.T) {
	h := newAPIHarness(t)
	tok := h.token("m1", service.RoleUser)

	created := h.createTechnical(tok)
	assert.Equal(t, "IN_PROGRESS", string(created.Interview.Status))
	assert.Equal(t, "TECHNICAL", string(created.Interview.CurrentPhase))
	assert.Equal(t, 1, created.FirstQuestion.Sequence)
	assert.NotEmpty(t, created.FirstQuestion.Content)

	base := "/interviews/" + created.Interview.ID

	rec := h.do(http.MethodGet, base+"/result", tok, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, codeInvalidStatus, decode[errorBody](t, rec).Code)

	rec = h.do(http.MethodPost, base+"/questions/"+created.FirstQuestion.ID+"/answer", tok, map[string]string{"content": "goroutine과 채널로 구현했습니다"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	submitted := decode[submitView](t, rec)
	assert.Equal(t, 5, submitted.Answer.Score)
	assert.Equal(t, "COMPLETED", string(submitted.Status))
	assert.Nil(t, submitted.NextQuestion)

	rec = h.do(http.MethodPost, base+"/questions/"+created.FirstQuestion.ID+"/answer", tok, map[string]string{"content": "다시"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, codeInvalidStatus, decode[errorBody](t, rec).Code)

	rec = h.do(http.MethodGet, base+"/questions", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	questions := decode[struct {
		Questions []questionView `json:"questions"`
	}](t, rec)
	require.Len(t, questions.Questions, 1)
	assert.True(t, questions.Questions[0].IsAnswered)

	rec = h.do(http.MethodGet, base+"/result", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	result := decode[resultView](t, rec)
	require.Len(t, result.Questions, 1)
	require.NotNil(t, result.Questions[0].Answer)
	require.NotNil(t, result.AverageScore)
	assert.Equal(t, 5.0, *result.AverageScore)
	assert.NotEmpty(t, result.Report.Summary)

	rec = h.do(http.MethodDelete, base, tok, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = h.do(http.MethodGet, base, tok, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestInterviewErrorCodes(t *testing.T) {
	h := newAPIHarness(t)
	owner := h.token("m1", service.RoleUser)
	created := h.createTechnical(owner)
	base := "/interviews/" + created.Interview.ID

	cases := map[string]struct {
		method string
		path   string
		token  string
		body   any
		status int
		code   string
	}{
		"other member":       {http.MethodGet, base, h.token("m2", service.RoleUser), nil, http.StatusNotFound, codeInterviewNotFound},
		"unknown question":   {http.MethodPost, base + "/questions/nope/answer", owner, map[string]string{"content": "a"}, http.StatusNotFound, codeQuestionNotFound},
		"blank answer":       {http.MethodPost, base + "/questions/" + created.FirstQuestion.ID + "/answer", owner, map[string]string{"content": "   "}, http.StatusBadRequest, codeInvalidInput},
		"missing content":    {http.MethodPost, base + "/questions/" + created.FirstQuestion.ID + "/answer", owner, map[string]string{}, http.StatusBadRequest, codeInvalidInput},
		"unknown type":       {http.MethodPost, "/interviews", owner, map[string]any{"title": "t", "interview_type": "CODING", "position": "BACKEND", "level": "JUNIOR"}, http.StatusBadRequest, codeInvalidInput},
		"audio without file": {http.MethodPost, base + "/questions/" + created.FirstQuestion.ID + "/audio-answer", owner, nil, http.StatusBadRequest, codeInvalidInput},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			rec := h.do(tc.method, tc.path, tc.token, tc.body)
			assert.Equal(t, tc.status, rec.Code, rec.Body.String())
			assert.Equal(t, tc.code, decode[errorBody](t, rec).Code)
		})
	}
}

func TestStatisticsRoutes(t *testing.T) {
	h := newAPIHarness(t)
	tok := h.token("m1", service.RoleUser)
	created := h.createTechnical(tok)
	rec := h.do(http.MethodPost, "/interviews/"+created.Interview.ID+"/questions/"+created.FirstQuestion.ID+"/answer", tok, map[string]string{"content": "답변"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = h.do(http.MethodGet, "/statistics/dashboard", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	dashboard := decode[struct {
		Total     int      `json:"total_interviews"`
		Completed int      `json:"completed_interviews"`
		Average   *float64 `json:"average_score"`
		Technical *float64 `json:"technical_average_score"`
	}](t, rec)
	assert.Equal(t, 1, dashboard.Total)
	assert.Equal(t, 1, dashboard.Completed)
	require.NotNil(t, dashboard.Average)
	assert.Equal(t, 5.0, *dashboard.Average)
	require.NotNil(t, dashboard.Technical)

	rec = h.do(http.MethodGet, "/statistics/phases", tok, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = h.do(http.MethodGet, "/statistics/trends?period=weekly", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	trend := decode[struct {
		Period string            `json:"period"`
		Points []json.RawMessage `json:"points"`
	}](t, rec)
	assert.Equal(t, "weekly", trend.Period)
	assert.Len(t, trend.Points, 1)

	rec = h.do(http.MethodGet, "/statistics/trends?period=daily", tok, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.do(http.MethodGet, "/statistics/recent?limit=abc", tok, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = h.do(http.MethodGet, "/statistics/recent?limit=0", tok, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = h.do(http.MethodGet, "/statistics/recent?limit=51", tok, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestVoiceAdminAndAudioAnswer(t *testing.T) {
	h := newAPIHarness(t)
	user := h.token("m1", service.RoleUser)
	admin := h.token("admin-1", service.RoleAdmin)

	stt := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/health":
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		case "/transcribe":
			_, _ = w.Write([]byte(`{"text":"음성으로 답변합니다","language":"ko"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer stt.Close()

	created := h.createTechnical(user)
	audioPath := "/interviews/" + created.Interview.ID + "/questions/" + created.FirstQuestion.ID + "/audio-answer"

	rec := h.postAudio(audioPath, user)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, codeVoiceUnavailable, decode[errorBody](t, rec).Code)

	rec = h.do(http.MethodPut, "/admin/voice-server", user, map[string]any{"url": stt.URL, "enabled": true})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = h.do(http.MethodPut, "/admin/voice-server", admin, map[string]any{"url": "not a url"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.do(http.MethodPut, "/admin/voice-server", admin, map[string]any{"url": stt.URL, "enabled": true})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	status := decode[voice.Status](t, rec)
	assert.True(t, status.Enabled)
	assert.True(t, status.Healthy)

	rec = h.do(http.MethodGet, "/admin/voice-server", admin, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = h.postAudio(audioPath, user)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode[struct {
		Transcript string     `json:"transcript"`
		Result     submitView `json:"result"`
	}](t, rec)
	assert.Equal(t, "음성으로 답변합니다", body.Transcript)
	assert.Equal(t, "음성으로 답변합니다", body.Result.Answer.Content)
}

func (h *apiHarness) postAudio(path, token string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "answer.webm")
	require.NoError(h.t, err)
	_, err = part.Write([]byte("fake-audio"))
	require.NoError(h.t, err)
	require.NoError(h.t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}
