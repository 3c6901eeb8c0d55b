// Package llm wraps the text-understanding service used for segmentation,
// classification and compliance judgments.
package llm

import "context"

// Task names the kind of work a request asks for
type Task string

const (
	TaskSegment  Task = "segment"
	TaskClassify Task = "classify"
	TaskJudge    Task = "judge"
)

// Request is a single call to the text-understanding service
type Request struct {
	Task        Task
	Instruction string
	Input       string
	// SchemaHint describes the JSON shape expected back, empty for free text
	SchemaHint string
}

// Prompt renders the request as a single prompt string
func (r Request) Prompt() string {
	prompt := r.Instruction
	if r.SchemaHint != "" {
		prompt += "\n\nRespond with JSON only, in this exact format:\n" + r.SchemaHint
	}
	return prompt + "\n\nINPUT:\n" + r.Input
}

// Service is the text-understanding capability.
// Implementations return models.ErrServiceTimeout or models.ErrServiceUnavailable
// kinds on failure and must be safe for concurrent use.
type Service interface {
	Generate(ctx context.Context, req Request) (string, error)
}
