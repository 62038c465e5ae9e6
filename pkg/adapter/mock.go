package adapter

import (
	"context"
	"fmt"
	"sync"
)

// MockJSONResponse answers JSON requests that have no keyed response. It is
// a valid triage decision so offline runs reach the answer path.
const MockJSONResponse = `{"decision":"AUTO_RESOLVE","urgency":"LOW","missing_fields":[]}`

// MockAdapter returns deterministic responses for local runs and tests.
type MockAdapter struct {
	responses       map[string]string
	defaultResponse string
	jsonResponse    string
	Usage           *Usage

	mu       sync.Mutex
	requests []Request
}

// NewMockAdapter creates a mock adapter with a default response.
func NewMockAdapter() *MockAdapter {
	return &MockAdapter{
		responses:       make(map[string]string),
		defaultResponse: "mock response:",
		jsonResponse:    MockJSONResponse,
	}
}

// NewMockAdapterWithResponses creates a mock adapter with predefined responses
// keyed by the request prompt.
func NewMockAdapterWithResponses(responses map[string]string, defaultResponse string) *MockAdapter {
	if defaultResponse == "" {
		defaultResponse = "mock response:"
	}
	return &MockAdapter{responses: responses, defaultResponse: defaultResponse, jsonResponse: MockJSONResponse}
}

// SetJSONResponse replaces the reply used for unkeyed JSON requests.
func (a *MockAdapter) SetJSONResponse(content string) {
	a.jsonResponse = content
}

// Name returns the adapter identifier.
func (a *MockAdapter) Name() string {
	return "mock"
}

// Models returns the list of supported mock models.
func (a *MockAdapter) Models() []string {
	return []string{"mock-1"}
}

// Generate returns a deterministic response for the prompt.
func (a *MockAdapter) Generate(_ context.Context, model string, req Request) (*Response, error) {
	if model == "" {
		model = "mock-1"
	}
	a.mu.Lock()
	a.requests = append(a.requests, req)
	a.mu.Unlock()

	if response, ok := a.responses[req.Prompt]; ok {
		return &Response{Content: response, Adapter: a.Name(), Model: model, Usage: a.Usage}, nil
	}
	if req.JSON {
		return &Response{Content: a.jsonResponse, Adapter: a.Name(), Model: model, Usage: a.Usage}, nil
	}
	content := fmt.Sprintf("%s\n%s", a.defaultResponse, req.Prompt)
	return &Response{Content: content, Adapter: a.Name(), Model: model, Usage: a.Usage}, nil
}

// Requests returns the requests received so far.
func (a *MockAdapter) Requests() []Request {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]Request, len(a.requests))
	copy(out, a.requests)
	return out
}
