package voice

import (
	"fmt"
	"net/url"
	"strings"
	"sync"

	"preview-api/internal/domain"
)

// Endpoint guarda la URL del servidor de voz, modificable en caliente por un admin.
type Endpoint struct {
	mu      sync.RWMutex
	url     string
	enabled bool
}

// Status es la vista publica del endpoint actual.
type Status struct {
	Enabled bool   `json:"enabled"`
	URL     string `json:"url"`
	Healthy bool   `json:"healthy"`
	Message string `json:"message,omitempty"`
}

func NewEndpoint(rawURL string, enabled bool) *Endpoint {
	return &Endpoint{url: strings.TrimRight(strings.TrimSpace(rawURL), "/"), enabled: enabled}
}

// Get devuelve la URL y si el servicio esta habilitado. Sin URL nunca se considera habilitado.
func (e *Endpoint) Get() (string, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.url, e.enabled && e.url != ""
}

// Update aplica solo los campos no nulos. Una URL vacia borra el endpoint.
func (e *Endpoint) Update(rawURL *string, enabled *bool) error {
	var normalized string
	if rawURL != nil {
		normalized = strings.TrimRight(strings.TrimSpace(*rawURL), "/")
		if normalized != "" {
			u, err := url.Parse(normalized)
			if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
				return fmt.Errorf("voice server url %q: %w", *rawURL, domain.ErrValidationFailed)
			}
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if rawURL != nil {
		e.url = normalized
	}
	if enabled != nil {
		e.enabled = *enabled
	}
	return nil
}
