package domain

import (
	"errors"
	"fmt"
	"strings"
)

// GenerateRequest describes one call to the external inference service.
type GenerateRequest struct {
	Model       string
	Prompt      string
	System      string
	Temperature float64
	// StructuredJSON asks the service to constrain output to JSON.
	StructuredJSON bool
}

func (r GenerateRequest) Validate() error {
	if strings.TrimSpace(r.Model) == "" {
		return errors.New("model must be a non-empty string")
	}
	if r.Temperature < 0 || r.Temperature > 2 {
		return fmt.Errorf("temperature %.2f out of range [0, 2]", r.Temperature)
	}
	return nil
}

// GenerateResult carries the raw generated text plus usage counters.
type GenerateResult struct {
	Text             string
	Model            string
	Done             bool
	PromptTokens     int
	CompletionTokens int
}

func (r GenerateResult) TotalTokens() int {
	return r.PromptTokens + r.CompletionTokens
}
