package capability

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/joseph-ayodele/doc-assistant/constants"
	"github.com/joseph-ayodele/doc-assistant/internal/prompt"
)

// ChatConfig for the OpenAI-compatible chat completion provider.
type ChatConfig struct {
	APIKey  string
	BaseURL string // default https://api.groq.com/openai/v1
	Model   string // default llama-3.1-8b-instant
}

type ChatClient struct {
	cfg    ChatConfig
	client *Client
	logger *slog.Logger
}

func NewChatClient(client *Client, cfg ChatConfig, logger *slog.Logger) *ChatClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = constants.DefaultChatBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = constants.DefaultChatModel
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ChatClient{cfg: cfg, client: client, logger: logger}
}

// Complete sends messages to the chat model and returns the first choice's
// content on success. An empty model selects the configured default.
func (c *ChatClient) Complete(ctx context.Context, model string, messages []prompt.Message) (Response, error) {
	if model == "" {
		model = c.cfg.Model
	}
	body := openai.ChatCompletionRequest{
		Model:    model,
		Messages: toOpenAI(messages),
	}
	resp, err := c.client.Call(ctx, Request{
		Capability: constants.CapabilityChat,
		URL:        strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions",
		Auth:       Bearer(c.cfg.APIKey),
		Body:       body,
	})
	if err != nil || !resp.OK() {
		return resp, err
	}

	var cc openai.ChatCompletionResponse
	if err := json.Unmarshal(resp.Content, &cc); err != nil {
		c.logger.Error("chat.decode_error", "error", err, "raw_bytes", len(resp.Content))
		return failed(resp, "decode chat response: "+err.Error()), nil
	}
	if len(cc.Choices) == 0 {
		c.logger.Error("chat.no_choices", "raw", string(resp.Content))
		return failed(resp, "no choices in chat response: "+string(resp.Content)), nil
	}
	resp.Content = []byte(cc.Choices[0].Message.Content)
	resp.ContentType = "text/markdown"
	return resp, nil
}

func toOpenAI(messages []prompt.Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		out = append(out, openai.ChatCompletionMessage{Role: string(m.Role), Content: m.Content})
	}
	return out
}

func failed(resp Response, diagnostic string) Response {
	resp.Outcome = Failure
	resp.Content = nil
	resp.Diagnostic = diagnostic
	return resp
}
