package narrator

import (
	"fmt"
	"strings"

	"github.com/Fahmialfayadh/mahainsight/engine/pkg/narrator/prompts"
)

// Prompts contains the narrator prompt templates loaded from embedded files.
type Prompts struct {
	Narrate  string // streamed question answering over a fact context
	Summary  string // single-shot dataset summary
	Quiz     string // quiz generation
	FollowUp string // follow-up question suggestions
}

// LoadPrompts loads all prompts from the embedded filesystem.
func LoadPrompts() (*Prompts, error) {
	p := &Prompts{}

	var err error
	if p.Narrate, err = loadPrompt("NARRATE.md"); err != nil {
		return nil, fmt.Errorf("failed to load NARRATE: %w", err)
	}
	if p.Summary, err = loadPrompt("SUMMARY.md"); err != nil {
		return nil, fmt.Errorf("failed to load SUMMARY: %w", err)
	}
	if p.Quiz, err = loadPrompt("QUIZ.md"); err != nil {
		return nil, fmt.Errorf("failed to load QUIZ: %w", err)
	}
	if p.FollowUp, err = loadPrompt("FOLLOWUP.md"); err != nil {
		return nil, fmt.Errorf("failed to load FOLLOWUP: %w", err)
	}
	return p, nil
}

func loadPrompt(path string) (string, error) {
	data, err := prompts.PromptsFS.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return strings.TrimSpace(string(data)), nil
}
