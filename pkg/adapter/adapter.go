package adapter

import "context"

// Adapter defines the interface for LLM provider adapters.
type Adapter interface {
	// Generate sends a request to the model and returns its text response.
	Generate(ctx context.Context, model string, req Request) (*Response, error)

	// Name returns the adapter's identifier.
	Name() string

	// Models returns the list of supported models.
	Models() []string
}

// Request is a single-turn model call: an optional system instruction, the
// user text and any attached images.
type Request struct {
	System string
	Prompt string
	Images []Image

	// JSON asks the provider for a JSON object response where supported.
	JSON bool

	// Temperature is passed through when set.
	Temperature *float64
}

// Image is an inline image attachment.
type Image struct {
	MIMEType string
	Data     []byte
}

// Temperature returns a pointer suitable for Request.Temperature.
func Temperature(t float64) *float64 {
	return &t
}
