package interpret

import (
	"context"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"
)

const (
	defaultAnthropicModel = "claude-haiku-4-5-20251001"
	anthropicMaxTokens    = 1024
)

// AnthropicModel calls the Anthropic Messages API.
type AnthropicModel struct {
	client sdk.Client
	model  string
}

// NewAnthropicModel creates an Anthropic client. Extra request options
// (base URL, retries, HTTP client) are passed through to the SDK.
func NewAnthropicModel(apiKey, model string, opts ...option.RequestOption) *AnthropicModel {
	if model == "" {
		model = defaultAnthropicModel
	}
	all := append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &AnthropicModel{
		client: sdk.NewClient(all...),
		model:  model,
	}
}

// Generate sends the prompt and joins the text blocks of the reply.
func (a *AnthropicModel) Generate(ctx context.Context, p Prompt) (string, error) {
	params := sdk.MessageNewParams{
		Model:       sdk.Model(a.model),
		MaxTokens:   anthropicMaxTokens,
		Messages:    []sdk.MessageParam{sdk.NewUserMessage(sdk.NewTextBlock(p.User))},
		Temperature: sdk.Float(p.Temperature),
	}
	if p.System != "" {
		params.System = []sdk.TextBlockParam{{Text: p.System}}
	}

	msg, err := a.client.Messages.New(ctx, params)
	if err != nil {
		return "", eris.Wrap(err, "anthropic: create message")
	}

	var sb strings.Builder
	for _, b := range msg.Content {
		if b.Type == "text" {
			sb.WriteString(b.Text)
		}
	}
	return sb.String(), nil
}
