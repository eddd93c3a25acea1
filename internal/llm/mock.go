package llm

import (
	"context"
	"sync"
)

// MockClient permite tests sin llamar a un LLM real.
// Si Fn esta definido tiene prioridad sobre Response/Err.
type MockClient struct {
	Response string
	Err      error
	Fn       func(systemPrompt, userPrompt string) (string, error)

	mu         sync.Mutex
	calls      int
	lastSystem string
	lastUser   string
}

func (m *MockClient) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	m.mu.Lock()
	m.calls++
	m.lastSystem = systemPrompt
	m.lastUser = userPrompt
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if m.Fn != nil {
		return m.Fn(systemPrompt, userPrompt)
	}
	return m.Response, m.Err
}

func (m *MockClient) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// LastPrompts devuelve el ultimo par system/user recibido.
func (m *MockClient) LastPrompts() (string, string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastSystem, m.lastUser
}
