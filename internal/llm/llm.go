package llm

import (
	"context"

	"nutrision/internal/shared"

	"github.com/google/generative-ai-go/genai"
)

// ContentResponse contains the generated text and metadata like token usage.
type ContentResponse struct {
	Content string
	Usage   shared.TokenUsage
}

// TextGenerator is an interface for generating text from a prompt.
type TextGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (ContentResponse, error)
}

// StructuredGenerator generates JSON constrained by a response schema.
type StructuredGenerator interface {
	GenerateStructured(ctx context.Context, prompt string, schema *genai.Schema) (ContentResponse, error)
}

// Closer is an interface for closing resources.
type Closer interface {
	Close() error
}
