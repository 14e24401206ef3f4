package llm

import "context"

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Params are the generation settings sent with every request.
type Params struct {
	Temperature float32
	MaxTokens   int
}

// DefaultParams match the settings the assistant has always used.
var DefaultParams = Params{Temperature: 0.7, MaxTokens: 500}

type Response struct {
	Content          string
	Model            string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Client sends a full ordered conversation and returns one reply. Errors are
// always *ServiceError.
type Client interface {
	Generate(ctx context.Context, messages []Message, params Params) (Response, error)
}
