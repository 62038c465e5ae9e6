package adapter

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/openai/openai-go"
	"google.golang.org/genai"
)

// AdapterError wraps provider errors with status metadata.
type AdapterError struct {
	Adapter string
	Status  int
	Err     error
}

func (e *AdapterError) Error() string {
	if e == nil {
		return "adapter error"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s API error: %v", e.Adapter, e.Err)
	}
	return fmt.Sprintf("%s API error (status=%d)", e.Adapter, e.Status)
}

func (e *AdapterError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// HTTPStatusCode reports the provider's HTTP status, or 0 when unknown.
func (e *AdapterError) HTTPStatusCode() int {
	if e == nil {
		return 0
	}
	return e.Status
}

// IsRateLimited reports whether err carries a 429 from a provider.
func IsRateLimited(err error) bool {
	var adapterErr *AdapterError
	if errors.As(err, &adapterErr) {
		return adapterErr.Status == http.StatusTooManyRequests
	}
	return false
}

// wrapError attaches the adapter name and any HTTP status the SDK error carries.
func wrapError(name string, err error) error {
	if err == nil {
		return nil
	}
	return &AdapterError{Adapter: name, Status: statusFromError(err), Err: err}
}

func statusFromError(err error) int {
	var openaiErr *openai.Error
	if errors.As(err, &openaiErr) {
		return openaiErr.StatusCode
	}
	var anthropicErr *anthropic.Error
	if errors.As(err, &anthropicErr) {
		return anthropicErr.StatusCode
	}
	var genaiErr genai.APIError
	if errors.As(err, &genaiErr) {
		return genaiErr.Code
	}
	var genaiErrPtr *genai.APIError
	if errors.As(err, &genaiErrPtr) {
		return genaiErrPtr.Code
	}
	return 0
}
