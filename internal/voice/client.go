package voice

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"preview-api/internal/domain"
)

var (
	ErrVoiceDisabled    = fmt.Errorf("voice server disabled: %w", domain.ErrUpstreamUnavailable)
	ErrVoiceUnavailable = fmt.Errorf("voice server unavailable: %w", domain.ErrUpstreamUnavailable)
	ErrEmptyTranscript  = errors.New("voice server returned an empty transcript")
)

const maxAudioBytes = 10 << 20

// Transcription es la respuesta del endpoint /transcribe.
type Transcription struct {
	Text     string  `json:"text"`
	Language string  `json:"language,omitempty"`
	Duration float64 `json:"duration,omitempty"`
}

// Client llama al servidor STT apuntado por Endpoint.
type Client struct {
	endpoint *Endpoint
	client   *http.Client
	logger   *zap.Logger
}

func NewClient(endpoint *Endpoint, timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{endpoint: endpoint, client: &http.Client{Timeout: timeout}, logger: logger}
}

// Transcribe sube el audio como multipart y devuelve el texto reconocido.
func (c *Client) Transcribe(ctx context.Context, filename string, audio io.Reader, language string) (Transcription, error) {
	base, ok := c.endpoint.Get()
	if !ok {
		return Transcription{}, ErrVoiceDisabled
	}

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return Transcription{}, fmt.Errorf("voice multipart: %w", err)
	}
	n, err := io.Copy(part, io.LimitReader(audio, maxAudioBytes+1))
	if err != nil {
		return Transcription{}, fmt.Errorf("voice read audio: %w", err)
	}
	if n == 0 || n > maxAudioBytes {
		return Transcription{}, fmt.Errorf("audio size %d: %w", n, domain.ErrValidationFailed)
	}
	if language != "" {
		if err := w.WriteField("language", language); err != nil {
			return Transcription{}, fmt.Errorf("voice multipart: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return Transcription{}, fmt.Errorf("voice multipart: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+"/transcribe", &body)
	if err != nil {
		return Transcription{}, fmt.Errorf("voice request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Warn("voice server request failed", zap.Error(err), zap.String("url", base))
		return Transcription{}, fmt.Errorf("%w: %v", ErrVoiceUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Transcription{}, fmt.Errorf("%w: read body: %v", ErrVoiceUnavailable, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("voice server error status", zap.Int("status", resp.StatusCode), zap.String("url", base))
		return Transcription{}, fmt.Errorf("%w: status %d", ErrVoiceUnavailable, resp.StatusCode)
	}

	var out Transcription
	if err := json.Unmarshal(raw, &out); err != nil {
		return Transcription{}, fmt.Errorf("%w: decode: %v", ErrVoiceUnavailable, err)
	}
	out.Text = strings.TrimSpace(out.Text)
	if out.Text == "" {
		return Transcription{}, ErrEmptyTranscript
	}
	return out, nil
}

// Status consulta /health del servidor configurado.
func (c *Client) Status(ctx context.Context) Status {
	base, ok := c.endpoint.Get()
	st := Status{Enabled: ok, URL: base}
	if !ok {
		st.Message = "voice server disabled"
		return st
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"/health", nil)
	if err != nil {
		st.Message = err.Error()
		return st
	}
	resp, err := c.client.Do(req)
	if err != nil {
		st.Message = "voice server unreachable"
		return st
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	st.Healthy = resp.StatusCode == http.StatusOK
	if !st.Healthy {
		st.Message = fmt.Sprintf("voice server status %d", resp.StatusCode)
	}
	return st
}
