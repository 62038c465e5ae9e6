package adapter

import (
	"fmt"
	"sort"
)

// Keys holds provider API keys by adapter name.
type Keys struct {
	Google    string
	OpenAI    string
	Anthropic string
	DeepSeek  string
}

// NewRegistry builds every adapter whose key is present. The mock adapter is
// always registered.
func NewRegistry(keys Keys) (map[string]Adapter, error) {
	adapters := make(map[string]Adapter)

	if keys.Anthropic != "" {
		a, err := NewAnthropicAdapter(keys.Anthropic)
		if err != nil {
			return nil, fmt.Errorf("failed to create anthropic adapter: %w", err)
		}
		adapters["anthropic"] = a
	}

	if keys.OpenAI != "" {
		a, err := NewOpenAIAdapter(keys.OpenAI)
		if err != nil {
			return nil, fmt.Errorf("failed to create openai adapter: %w", err)
		}
		adapters["openai"] = a
	}

	if keys.Google != "" {
		a, err := NewGoogleAdapter(keys.Google)
		if err != nil {
			return nil, fmt.Errorf("failed to create google adapter: %w", err)
		}
		adapters["google"] = a
	}

	if keys.DeepSeek != "" {
		a, err := NewDeepSeekAdapter(keys.DeepSeek)
		if err != nil {
			return nil, fmt.Errorf("failed to create deepseek adapter: %w", err)
		}
		adapters["deepseek"] = a
	}

	adapters["mock"] = NewMockAdapter()

	return adapters, nil
}

// Names returns the registered adapter names in sorted order.
func Names(adapters map[string]Adapter) []string {
	names := make([]string, 0, len(adapters))
	for name := range adapters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
