package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/steve-z-wang/webtask-sub000/internal/executor"
	"github.com/steve-z-wang/webtask-sub000/internal/pagemap"
)

// Provider defines the interface for AI action generation
type Provider interface {
	GenerateActions(ctx context.Context, pm *pagemap.PageMap, prompt string) ([]executor.Action, error)
	ContinueActions(ctx context.Context, pm *pagemap.PageMap, prompt string, completed []executor.Action) ([]executor.Action, error)
}

// Completer sends one system/user exchange to a model and returns its text reply
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Planner turns page outlines into identifier actions using a Completer
type Planner struct {
	name string
	c    Completer
}

// NewPlanner wraps a Completer. name is used in error messages.
func NewPlanner(name string, c Completer) *Planner {
	return &Planner{name: name, c: c}
}

// GenerateActions generates browser actions from the page outline and user prompt
func (p *Planner) GenerateActions(ctx context.Context, pm *pagemap.PageMap, prompt string) ([]executor.Action, error) {
	return p.ask(ctx, buildUserPrompt(pm.Render(), prompt))
}

// ContinueActions generates the next batch of actions after a checkpoint
func (p *Planner) ContinueActions(ctx context.Context, pm *pagemap.PageMap, prompt string, completed []executor.Action) ([]executor.Action, error) {
	return p.ask(ctx, buildContinuePrompt(pm.Render(), prompt, FormatCompleted(completed)))
}

func (p *Planner) ask(ctx context.Context, userPrompt string) ([]executor.Action, error) {
	responseText, err := p.c.Complete(ctx, systemPrompt, userPrompt)
	if err != nil {
		return nil, fmt.Errorf("%s API error: %w", p.name, err)
	}
	if strings.TrimSpace(responseText) == "" {
		return nil, fmt.Errorf("empty response from %s", p.name)
	}

	// Parse JSON response (extract JSON array if surrounded by text)
	actions, err := parseActionsJSON(responseText)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s response as JSON: %w\nResponse: %s", p.name, err, responseText)
	}
	return actions, nil
}

// NewProvider creates a new AI provider based on the provider name
func NewProvider(name, model string) (Provider, error) {
	switch name {
	case "claude", "anthropic":
		c, err := NewClaudeProvider(model)
		if err != nil {
			return nil, err
		}
		return NewPlanner("Claude", c), nil
	case "openai", "gpt":
		c, err := NewOpenAIProvider(model)
		if err != nil {
			return nil, err
		}
		return NewPlanner("OpenAI", c), nil
	default:
		return nil, fmt.Errorf("unknown provider: %s (supported: claude, openai)", name)
	}
}

// FormatCompleted renders executed actions for the continue prompt, one JSON
// object per line
func FormatCompleted(actions []executor.Action) string {
	if len(actions) == 0 {
		return "(none)"
	}
	lines := make([]string, 0, len(actions))
	for _, a := range actions {
		raw, err := json.Marshal(a)
		if err != nil {
			continue
		}
		lines = append(lines, string(raw))
	}
	return strings.Join(lines, "\n")
}

// parseActionsJSON extracts and parses a JSON array from a response that may contain surrounding text
func parseActionsJSON(response string) ([]executor.Action, error) {
	// First try direct parsing
	var actions []executor.Action
	if err := json.Unmarshal([]byte(response), &actions); err == nil {
		return actions, nil
	}

	// Find JSON array in response (look for [ ... ])
	start := strings.Index(response, "[")
	if start == -1 {
		return nil, fmt.Errorf("no JSON array found in response")
	}

	// Find matching closing bracket, skipping brackets inside strings
	depth, end := 0, -1
	inString, escaped := false, false
	for i := start; i < len(response) && end == -1; i++ {
		c := response[i]
		switch {
		case escaped:
			escaped = false
		case inString && c == '\\':
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '[':
			depth++
		case c == ']':
			depth--
			if depth == 0 {
				end = i + 1
			}
		}
	}

	if end == -1 {
		return nil, fmt.Errorf("no matching closing bracket found")
	}

	if err := json.Unmarshal([]byte(response[start:end]), &actions); err != nil {
		return nil, fmt.Errorf("failed to parse extracted JSON: %w", err)
	}

	return actions, nil
}
