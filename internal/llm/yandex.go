package llm

import (
	"context"
	"fmt"

	"github.com/Morwran/yagpt"
)

type YandexClient struct {
	ya       yagpt.YaGPTFace
	iamToken string
}

func NewYandex(oauthToken, folderID string) (*YandexClient, error) {
	// Create IAM token from OAuth token
	iam, err := yagpt.NewYaIam(oauthToken)
	if err != nil {
		return nil, fmt.Errorf("failed to init yandex iam: %w", err)
	}
	resp, err := iam.Create()
	if err != nil {
		return nil, fmt.Errorf("failed to create iam token: %w", err)
	}

	// Create YaGPT client for a folder
	ya, err := yagpt.NewYagpt(folderID)
	if err != nil {
		return nil, fmt.Errorf("failed to init yagpt: %w", err)
	}

	return &YandexClient{
		ya:       ya,
		iamToken: resp.IamToken,
	}, nil
}

// Generate replays the conversation to YandexGPT. The yagpt client has no
// per-request sampling settings, so params are not forwarded.
func (c *YandexClient) Generate(ctx context.Context, messages []Message, _ Params) (Response, error) {
	yaMsgs := make([]yagpt.Message, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			yaMsgs = append(yaMsgs, yagpt.Message{Role: RoleSystem, Content: m.Content})
		case RoleAssistant:
			yaMsgs = append(yaMsgs, yagpt.Message{Role: RoleAssistant, Content: m.Content})
		default:
			yaMsgs = append(yaMsgs, yagpt.Message{Role: RoleUser, Content: m.Content})
		}
	}

	resp, err := c.ya.CompletionWithCtx(ctx, c.iamToken, yaMsgs)
	if err != nil {
		return Response{}, Classify(fmt.Errorf("yagpt completion failed: %w", err))
	}
	if resp == nil || len(resp.Alternatives) == 0 {
		return Response{}, &ServiceError{Kind: KindProvider, Message: "yagpt returned empty response"}
	}
	out := Response{Content: resp.Alternatives[0].Message.Content, Model: yagpt.YaModelLite}
	out.PromptTokens = int(resp.Usage.InputTextTokens)
	out.CompletionTokens = int(resp.Usage.CompletionTokens)
	out.TotalTokens = int(resp.Usage.TotalTokens)
	return out, nil
}
